package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/fxterm/trading-client/internal/backend"
	"github.com/fxterm/trading-client/internal/config"
	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/metrics"
	"github.com/fxterm/trading-client/internal/model"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrQuantityTooSmall = errors.New("quantity below minimum lot size")
	ErrNoTriggerPrice   = errors.New("pending order requires a trigger price")
	ErrNoQuote          = errors.New("market closed or no price data")
	ErrUnknownTrade     = errors.New("unknown trade id")
	ErrActionInFlight   = errors.New("another order action is in flight")
	ErrNoOpenPositions  = errors.New("no open positions")
)

type Backend interface {
	OpenOrder(ctx context.Context, order backend.OpenOrderRequest) error
	ModifyOrder(ctx context.Context, tradeID string, sl, tp *float64) error
	ClosePosition(ctx context.Context, tradeID string, bid, ask float64) (float64, error)
	CancelOrder(ctx context.Context, tradeID string) error
}

type QuoteSource interface {
	Get(symbol string) (model.Quote, bool)
	Snapshot() map[string]model.Quote
}

type PositionSource interface {
	Positions() []model.Position
	FindPosition(tradeID string) (model.Position, bool)
}

// Refresher forces out-of-band polls after a successful mutation, so the
// client reconciles against the backend instead of trusting optimistic
// state.
type Refresher interface {
	KickFast()
	KickHistory()
}

type action int

const (
	actionOpen action = iota
	actionModify
	actionClose
	actionCancel
	actionCloseAll
	actionCount
)

type CloseFilter int

const (
	CloseEverything CloseFilter = iota
	CloseProfitable
	CloseLosing
)

// OpenRequest describes one order the user wants placed. For pending order
// types the trigger price stands in for the live bid/ask.
type OpenRequest struct {
	UserID       string
	AccountID    string
	Symbol       string
	Segment      model.Category
	Side         model.Side
	OrderType    model.OrderType
	Quantity     float64
	TriggerPrice float64
	StopLoss     *float64
	TakeProfit   *float64
	Leverage     int
}

// Gateway issues the five mutating operations. Each action type allows a
// single outstanding request, guarding against double-taps; the backend is
// not assumed to deduplicate.
type Gateway struct {
	backend   Backend
	quotes    QuoteSource
	positions PositionSource
	refresher Refresher
	trading   config.TradingConfig

	inFlight [actionCount]atomic.Bool

	logger logger.Logger
}

func New(backend Backend, quotes QuoteSource, positions PositionSource, refresher Refresher, trading config.TradingConfig, logger logger.Logger) *Gateway {
	return &Gateway{
		backend:   backend,
		quotes:    quotes,
		positions: positions,
		refresher: refresher,
		trading:   trading,
		logger:    logger,
	}
}

func (g *Gateway) acquire(a action) error {
	if !g.inFlight[a].CompareAndSwap(false, true) {
		return ErrActionInFlight
	}
	return nil
}

func (g *Gateway) release(a action) {
	g.inFlight[a].Store(false)
}

// OpenOrder places a market or pending order. Market orders are rejected
// client-side when no valid quote exists, so a zero-price order never
// reaches the backend. Orders below the configured minimum lot are rejected
// and a zero leverage is substituted with the configured default.
func (g *Gateway) OpenOrder(ctx context.Context, req OpenRequest) error {
	if req.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if req.Quantity < g.trading.MinQuantity {
		return ErrQuantityTooSmall
	}
	if req.Leverage <= 0 {
		req.Leverage = g.trading.DefaultLeverage
	}

	bid, ask := 0.0, 0.0
	if req.OrderType.IsPending() {
		if req.TriggerPrice <= 0 {
			return ErrNoTriggerPrice
		}
		bid, ask = req.TriggerPrice, req.TriggerPrice
		req.Side = req.OrderType.Side()
	} else {
		q, ok := g.quotes.Get(req.Symbol)
		if !ok || !q.Valid() {
			return ErrNoQuote
		}
		bid, ask = q.Bid, q.Ask
	}

	if err := g.acquire(actionOpen); err != nil {
		return err
	}
	defer g.release(actionOpen)

	if err := g.backend.OpenOrder(ctx, backend.OpenOrderRequest{
		UserID:           req.UserID,
		TradingAccountID: req.AccountID,
		Symbol:           req.Symbol,
		Segment:          req.Segment,
		Side:             req.Side,
		OrderType:        req.OrderType,
		Quantity:         req.Quantity,
		Bid:              bid,
		Ask:              ask,
		Leverage:         req.Leverage,
		StopLoss:         req.StopLoss,
		TakeProfit:       req.TakeProfit,
	}); err != nil {
		return fmt.Errorf("%w: can't open order", err)
	}

	g.refresher.KickFast()
	return nil
}

// ModifyOrder updates stop-loss/take-profit on an open trade; nil clears.
func (g *Gateway) ModifyOrder(ctx context.Context, tradeID string, sl, tp *float64) error {
	if tradeID == "" {
		return ErrUnknownTrade
	}

	if err := g.acquire(actionModify); err != nil {
		return err
	}
	defer g.release(actionModify)

	if err := g.backend.ModifyOrder(ctx, tradeID, sl, tp); err != nil {
		return fmt.Errorf("%w: can't modify order", err)
	}

	g.refresher.KickFast()
	return nil
}

// ClosePosition closes one open position at the current market and returns
// the realized P&L reported by the backend.
func (g *Gateway) ClosePosition(ctx context.Context, tradeID string) (float64, error) {
	p, ok := g.positions.FindPosition(tradeID)
	if !ok {
		return 0, ErrUnknownTrade
	}
	q, ok := g.quotes.Get(p.Symbol)
	if !ok || !q.Valid() {
		return 0, ErrNoQuote
	}

	if err := g.acquire(actionClose); err != nil {
		return 0, err
	}
	defer g.release(actionClose)

	realized, err := g.backend.ClosePosition(ctx, tradeID, q.Bid, q.Ask)
	if err != nil {
		return 0, fmt.Errorf("%w: can't close position", err)
	}

	g.refresher.KickFast()
	g.refresher.KickHistory()
	return realized, nil
}

func (g *Gateway) CancelOrder(ctx context.Context, tradeID string) error {
	if tradeID == "" {
		return ErrUnknownTrade
	}

	if err := g.acquire(actionCancel); err != nil {
		return err
	}
	defer g.release(actionCancel)

	if err := g.backend.CancelOrder(ctx, tradeID); err != nil {
		return fmt.Errorf("%w: can't cancel order", err)
	}

	g.refresher.KickFast()
	return nil
}

// CloseAll closes every open position matching the filter, sequentially, and
// returns how many closed. Profit/loss classification uses the floating P&L
// computed at invocation time; prices move between evaluation and execution,
// so a position picked as profitable may still close at a loss. That is
// accepted behavior. Per-position failures are collected, not fatal.
func (g *Gateway) CloseAll(ctx context.Context, filter CloseFilter) (int, error) {
	positions := g.positions.Positions()
	if len(positions) == 0 {
		return 0, ErrNoOpenPositions
	}

	quotes := g.quotes.Snapshot()
	targets := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		pnl := metrics.PositionPnl(p, q, ok)
		switch filter {
		case CloseProfitable:
			if pnl <= 0 {
				continue
			}
		case CloseLosing:
			if pnl >= 0 {
				continue
			}
		}
		targets = append(targets, p)
	}

	if err := g.acquire(actionCloseAll); err != nil {
		return 0, err
	}
	defer g.release(actionCloseAll)

	var (
		closed int
		errs   []error
	)
	for _, p := range targets {
		q, ok := quotes[p.Symbol]
		if !ok || !q.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoQuote, p.Symbol))
			continue
		}
		if _, err := g.backend.ClosePosition(ctx, p.ID, q.Bid, q.Ask); err != nil {
			g.logger.Errorf("%s: can't close position %s", err, p.ID)
			errs = append(errs, err)
			continue
		}
		closed++
	}

	if closed > 0 {
		g.refresher.KickFast()
		g.refresher.KickHistory()
	}

	return closed, errors.Join(errs...)
}
