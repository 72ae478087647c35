package quotes

import (
	"sync"

	"github.com/fxterm/trading-client/internal/model"
)

// Store is the shared quote-by-symbol map. The price feed poller is its only
// writer; everyone else reads snapshots.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

func NewStore() *Store {
	return &Store{
		quotes: make(map[string]model.Quote),
	}
}

// Apply merges one batch response into the map. Symbols absent from the
// batch keep their previously cached quote, so a transient partial outage
// never makes an instrument look dead at price zero.
func (s *Store) Apply(batch map[string]model.Quote) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for symbol, q := range batch {
		s.quotes[symbol] = q
	}
}

func (s *Store) Get(symbol string) (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[symbol]
	return q, ok
}

func (s *Store) Snapshot() map[string]model.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Quote, len(s.quotes))
	for symbol, q := range s.quotes {
		out[symbol] = q
	}
	return out
}
