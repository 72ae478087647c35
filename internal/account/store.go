package account

import (
	"sync"

	"github.com/fxterm/trading-client/internal/model"
)

// Snapshot is a consistent copy of everything the store holds for the
// selected account.
type Snapshot struct {
	AccountID string
	Positions []model.Position
	Pending   []model.PendingOrder
	History   []model.ClosedTrade
	Summary   model.AccountSummary
	Loaded    bool
}

// Store holds the selected account's collections. Every write carries the
// account id that was current when the request was dispatched; writes tagged
// with a stale id are dropped, which is what keeps a late response for
// account A from overwriting freshly loaded state for account B.
type Store struct {
	mu        sync.RWMutex
	accountID string
	positions []model.Position
	pending   []model.PendingOrder
	history   []model.ClosedTrade
	summary   model.AccountSummary
	loaded    bool
}

func NewStore() *Store {
	return &Store{}
}

// Reset atomically swaps the store to a new account: all four collections
// are cleared in one critical section so no reader can observe a mix.
func (s *Store) Reset(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = accountID
	s.positions = nil
	s.pending = nil
	s.history = nil
	s.summary = model.AccountSummary{}
	s.loaded = false
}

func (s *Store) AccountID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountID
}

func (s *Store) SetPositions(accountID string, positions []model.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != s.accountID {
		return false
	}
	s.positions = positions
	s.loaded = true
	return true
}

func (s *Store) SetPending(accountID string, pending []model.PendingOrder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != s.accountID {
		return false
	}
	s.pending = pending
	return true
}

func (s *Store) SetHistory(accountID string, history []model.ClosedTrade) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != s.accountID {
		return false
	}
	s.history = history
	return true
}

func (s *Store) SetSummary(accountID string, summary model.AccountSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accountID != s.accountID {
		return false
	}
	s.summary = summary
	return true
}

func (s *Store) Positions() []model.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Position, len(s.positions))
	copy(out, s.positions)
	return out
}

func (s *Store) FindPosition(tradeID string) (model.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.positions {
		if p.ID == tradeID {
			return p, true
		}
	}
	return model.Position{}, false
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		AccountID: s.accountID,
		Positions: make([]model.Position, len(s.positions)),
		Pending:   make([]model.PendingOrder, len(s.pending)),
		History:   make([]model.ClosedTrade, len(s.history)),
		Summary:   s.summary,
		Loaded:    s.loaded,
	}
	copy(snap.Positions, s.positions)
	copy(snap.Pending, s.pending)
	copy(snap.History, s.history)

	return snap
}
