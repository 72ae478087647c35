package account

import (
	"context"
	"sync"
	"time"

	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
)

type Backend interface {
	OpenPositions(ctx context.Context, accountID string) ([]model.Position, error)
	PendingOrders(ctx context.Context, accountID string) ([]model.PendingOrder, error)
	TradeHistory(ctx context.Context, accountID string, limit int) ([]model.ClosedTrade, error)
	Summary(ctx context.Context, accountID string, quotes map[string]model.Quote) (model.AccountSummary, error)
}

type QuoteSource interface {
	Snapshot() map[string]model.Quote
}

// HistorySink receives every history refresh, e.g. for journaling closed
// trades outside the poll hot path.
type HistorySink interface {
	Record(trades []model.ClosedTrade)
}

// Poller keeps the selected account's state fresh: positions, pending orders
// and summary on the fast cadence, trade history on the slow one. The four
// fetches fail independently; a broken history fetch never clears positions.
type Poller struct {
	backend Backend
	store   *Store
	quotes  QuoteSource

	fastInterval time.Duration
	slowInterval time.Duration
	historyLimit int

	historySink HistorySink

	kickFast    chan struct{}
	kickHistory chan struct{}

	logger logger.Logger
}

func NewPoller(
	backend Backend,
	store *Store,
	quotes QuoteSource,
	fastInterval, slowInterval time.Duration,
	historyLimit int,
	logger logger.Logger,
) *Poller {
	return &Poller{
		backend:      backend,
		store:        store,
		quotes:       quotes,
		fastInterval: fastInterval,
		slowInterval: slowInterval,
		historyLimit: historyLimit,
		kickFast:     make(chan struct{}, 1),
		kickHistory:  make(chan struct{}, 1),
		logger:       logger,
	}
}

func (p *Poller) SetHistorySink(sink HistorySink) {
	p.historySink = sink
}

// KickFast forces an out-of-band refresh of positions, pending orders and
// summary without waiting for the next tick. Non-blocking; a kick while one
// is already queued is folded into it.
func (p *Poller) KickFast() {
	select {
	case p.kickFast <- struct{}{}:
	default:
	}
}

func (p *Poller) KickHistory() {
	select {
	case p.kickHistory <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. The account id is captured once per Run:
// a session switches accounts by cancelling this Run and starting a new one
// against a freshly Reset store.
//
// The fast and history loops run on their own goroutines: a slow or hung
// history response must never degrade the fast cadence. They write disjoint
// parts of the store, so the only coordination they need is ctx.
func (p *Poller) Run(ctx context.Context, accountID string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.runFast(ctx, accountID)
	}()
	go func() {
		defer wg.Done()
		p.runHistory(ctx, accountID)
	}()
	wg.Wait()
}

func (p *Poller) runFast(ctx context.Context, accountID string) {
	p.fastCycle(ctx, accountID)

	ticker := time.NewTicker(p.fastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fastCycle(ctx, accountID)
		case <-p.kickFast:
			p.fastCycle(ctx, accountID)
		}
	}
}

func (p *Poller) runHistory(ctx context.Context, accountID string) {
	p.historyCycle(ctx, accountID)

	ticker := time.NewTicker(p.slowInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.historyCycle(ctx, accountID)
		case <-p.kickHistory:
			p.historyCycle(ctx, accountID)
		}
	}
}

func (p *Poller) fastCycle(ctx context.Context, accountID string) {
	cycleCtx, cancel := context.WithTimeout(ctx, p.fastInterval)
	defer cancel()

	if positions, err := p.backend.OpenPositions(cycleCtx, accountID); err != nil {
		p.warnf(ctx, "%s: can't fetch open positions for %s", err, accountID)
	} else if !p.store.SetPositions(accountID, positions) {
		return
	}

	if pending, err := p.backend.PendingOrders(cycleCtx, accountID); err != nil {
		p.warnf(ctx, "%s: can't fetch pending orders for %s", err, accountID)
	} else {
		p.store.SetPending(accountID, pending)
	}

	if summary, err := p.backend.Summary(cycleCtx, accountID, p.quotes.Snapshot()); err != nil {
		p.warnf(ctx, "%s: can't fetch summary for %s", err, accountID)
	} else {
		p.store.SetSummary(accountID, summary)
	}
}

func (p *Poller) historyCycle(ctx context.Context, accountID string) {
	cycleCtx, cancel := context.WithTimeout(ctx, p.slowInterval)
	defer cancel()

	history, err := p.backend.TradeHistory(cycleCtx, accountID, p.historyLimit)
	if err != nil {
		p.warnf(ctx, "%s: can't fetch trade history for %s", err, accountID)
		return
	}
	if !p.store.SetHistory(accountID, history) {
		return
	}

	if p.historySink != nil {
		p.historySink.Record(history)
	}
}

// background poll failures stay invisible to the user; they are logged
// unless the session itself is shutting down.
func (p *Poller) warnf(ctx context.Context, template string, args ...interface{}) {
	if ctx.Err() != nil {
		return
	}
	p.logger.Warnf(template, args...)
}
