package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxterm/trading-client/internal/account"
	"github.com/fxterm/trading-client/internal/backend"
	"github.com/fxterm/trading-client/internal/config"
	"github.com/fxterm/trading-client/internal/gateway"
	"github.com/fxterm/trading-client/internal/instruments"
	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/metrics"
	"github.com/fxterm/trading-client/internal/model"
	"github.com/fxterm/trading-client/internal/quotes"
)

// Backend is everything the session needs from the trading backend. The
// production implementation is *backend.Client.
type Backend interface {
	BatchPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error)
	Accounts(ctx context.Context, userID string) ([]model.Account, error)
	OpenPositions(ctx context.Context, accountID string) ([]model.Position, error)
	PendingOrders(ctx context.Context, accountID string) ([]model.PendingOrder, error)
	TradeHistory(ctx context.Context, accountID string, limit int) ([]model.ClosedTrade, error)
	Summary(ctx context.Context, accountID string, quotes map[string]model.Quote) (model.AccountSummary, error)
	OpenOrder(ctx context.Context, order backend.OpenOrderRequest) error
	ModifyOrder(ctx context.Context, tradeID string, sl, tp *float64) error
	ClosePosition(ctx context.Context, tradeID string, bid, ask float64) (float64, error)
	CancelOrder(ctx context.Context, tradeID string) error
}

type State int

const (
	Unselected State = iota
	Loading
	Active
)

func (s State) String() string {
	switch s {
	case Unselected:
		return "unselected"
	case Loading:
		return "loading"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Snapshot is one consistent view of the session for the UI: the selected
// account's collections plus quotes and the client-derived summary figures.
type Snapshot struct {
	State     State
	AccountID string
	Positions []model.Position
	Pending   []model.PendingOrder
	History   []model.ClosedTrade
	Summary   model.AccountSummary
	Quotes    map[string]model.Quote
}

// Session owns the pollers, the shared stores and the action gateway for one
// user. Selecting an account starts polling; switching drains the previous
// account's pollers before any state for the new account is written; Stop
// leaves no timer behind.
type Session struct {
	cfg     config.TerminalConfig
	backend Backend
	userID  string
	logger  logger.Logger

	instruments *instruments.List
	quoteStore  *quotes.Store
	state       *account.Store

	quotePoller   *quotes.Poller
	accountPoller *account.Poller
	gateway       *gateway.Gateway

	mu        sync.Mutex
	accountID string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfg config.TerminalConfig, b Backend, userID string, list *instruments.List, logger logger.Logger) *Session {
	quoteStore := quotes.NewStore()
	state := account.NewStore()

	accountPoller := account.NewPoller(
		b,
		state,
		quoteStore,
		cfg.Polling.AccountInterval,
		cfg.Polling.HistoryInterval,
		cfg.Polling.HistoryLimit,
		logger,
	)

	return &Session{
		cfg:           cfg,
		backend:       b,
		userID:        userID,
		logger:        logger,
		instruments:   list,
		quoteStore:    quoteStore,
		state:         state,
		quotePoller:   quotes.NewPoller(b, quoteStore, list.Symbols, cfg.Polling.PriceInterval, logger),
		accountPoller: accountPoller,
		gateway:       gateway.New(b, quoteStore, state, accountPoller, cfg.Trading, logger),
	}
}

// SetHistorySink must be called before Start.
func (s *Session) SetHistorySink(sink account.HistorySink) {
	s.accountPoller.SetHistorySink(sink)
}

func (s *Session) Gateway() *gateway.Gateway {
	return s.gateway
}

func (s *Session) Instruments() *instruments.List {
	return s.instruments
}

func (s *Session) Accounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.backend.Accounts(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("%w: can't fetch accounts for user %s", err, s.userID)
	}

	return accounts, nil
}

// Start selects an account and begins polling. ctx bounds the whole
// session: cancelling it stops all pollers.
func (s *Session) Start(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("empty account id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("session already started for account %s", s.accountID)
	}

	s.startLocked(ctx, accountID)
	return nil
}

// SwitchAccount drains the previous account's pollers, then swaps the store
// and restarts polling for the new account. In-flight responses for the old
// account are either drained here or dropped by the store's tag check.
func (s *Session) SwitchAccount(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("empty account id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.startLocked(ctx, accountID)
	return nil
}

// Stop tears the session down: timers cleared, pollers drained, no further
// requests issued.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) startLocked(ctx context.Context, accountID string) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.accountID = accountID
	s.state.Reset(accountID)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.quotePoller.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.accountPoller.Run(ctx, accountID)
	}()

	s.logger.Infof("session started for account %s", accountID)
}

func (s *Session) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.cancel = nil

	s.logger.Infof("session stopped for account %s", s.accountID)
	s.accountID = ""
}

func (s *Session) State() State {
	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()

	if !running {
		return Unselected
	}
	if !s.state.Snapshot().Loaded {
		return Loading
	}
	return Active
}

// Snapshot recomputes the derived metrics from the current positions and
// quotes. Balance and credit stay server-authoritative; equity, margin and
// floating P&L are always derived client-side so the UI reflects every price
// move immediately.
func (s *Session) Snapshot() Snapshot {
	acct := s.state.Snapshot()
	qs := s.quoteStore.Snapshot()

	state := Unselected
	s.mu.Lock()
	if s.cancel != nil {
		if acct.Loaded {
			state = Active
		} else {
			state = Loading
		}
	}
	s.mu.Unlock()

	return Snapshot{
		State:     state,
		AccountID: acct.AccountID,
		Positions: acct.Positions,
		Pending:   acct.Pending,
		History:   acct.History,
		Summary:   metrics.Summarize(acct.Positions, qs, acct.Summary.Balance, acct.Summary.Credit),
		Quotes:    qs,
	}
}
