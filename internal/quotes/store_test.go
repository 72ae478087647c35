package quotes

import (
	"testing"

	"github.com/fxterm/trading-client/internal/model"
)

func TestStoreApplyMergesAndRetains(t *testing.T) {
	s := NewStore()
	s.Apply(map[string]model.Quote{
		"EURUSD": {Bid: 1.1000, Ask: 1.1002},
		"XAUUSD": {Bid: 2400.0, Ask: 2400.5},
	})

	// next batch omits XAUUSD: its cached quote must survive untouched
	s.Apply(map[string]model.Quote{
		"EURUSD": {Bid: 1.1010, Ask: 1.1012},
	})

	q, ok := s.Get("EURUSD")
	if !ok || q.Bid != 1.1010 {
		t.Fatalf("expected refreshed EURUSD quote, got %+v ok=%v", q, ok)
	}

	q, ok = s.Get("XAUUSD")
	if !ok || q.Bid != 2400.0 {
		t.Fatalf("expected cached XAUUSD quote, got %+v ok=%v", q, ok)
	}
}

func TestStoreApplyEmptyBatchIsNoop(t *testing.T) {
	s := NewStore()
	s.Apply(map[string]model.Quote{"EURUSD": {Bid: 1.1, Ask: 1.2}})
	s.Apply(nil)

	if _, ok := s.Get("EURUSD"); !ok {
		t.Fatal("quote lost after empty batch")
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Apply(map[string]model.Quote{"EURUSD": {Bid: 1.1, Ask: 1.2}})

	snap := s.Snapshot()
	snap["EURUSD"] = model.Quote{Bid: 9, Ask: 9}

	if q, _ := s.Get("EURUSD"); q.Bid != 1.1 {
		t.Fatalf("snapshot mutation leaked into store: %+v", q)
	}
}

func TestQuoteValid(t *testing.T) {
	for _, tc := range []struct {
		q     model.Quote
		valid bool
	}{
		{model.Quote{Bid: 1.1, Ask: 1.2}, true},
		{model.Quote{Bid: 0, Ask: 1.2}, false},
		{model.Quote{Bid: 1.1, Ask: 0}, false},
		{model.Quote{}, false},
	} {
		if got := tc.q.Valid(); got != tc.valid {
			t.Errorf("Valid(%+v) = %v, want %v", tc.q, got, tc.valid)
		}
	}
}
