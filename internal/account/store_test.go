package account

import (
	"testing"

	"github.com/fxterm/trading-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDropsStaleAccountWrites(t *testing.T) {
	s := NewStore()
	s.Reset("acc-a")

	require.True(t, s.SetPositions("acc-a", []model.Position{{ID: "t1", AccountID: "acc-a"}}))

	// user switches to acc-b while acc-a responses are still in flight
	s.Reset("acc-b")

	assert.False(t, s.SetPositions("acc-a", []model.Position{{ID: "t1", AccountID: "acc-a"}}))
	assert.False(t, s.SetPending("acc-a", []model.PendingOrder{{ID: "p1"}}))
	assert.False(t, s.SetHistory("acc-a", []model.ClosedTrade{{ID: "h1"}}))
	assert.False(t, s.SetSummary("acc-a", model.AccountSummary{Balance: 1}))

	snap := s.Snapshot()
	assert.Equal(t, "acc-b", snap.AccountID)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, snap.Pending)
	assert.Empty(t, snap.History)
	assert.Zero(t, snap.Summary.Balance)
}

func TestStoreResetClearsEverything(t *testing.T) {
	s := NewStore()
	s.Reset("acc-a")
	s.SetPositions("acc-a", []model.Position{{ID: "t1"}})
	s.SetPending("acc-a", []model.PendingOrder{{ID: "p1"}})
	s.SetHistory("acc-a", []model.ClosedTrade{{ID: "h1"}})
	s.SetSummary("acc-a", model.AccountSummary{Balance: 1000})

	s.Reset("acc-b")
	snap := s.Snapshot()

	assert.Equal(t, "acc-b", snap.AccountID)
	assert.Empty(t, snap.Positions)
	assert.Empty(t, snap.Pending)
	assert.Empty(t, snap.History)
	assert.Zero(t, snap.Summary)
	assert.False(t, snap.Loaded)
}

func TestStoreLoadedAfterFirstPositions(t *testing.T) {
	s := NewStore()
	s.Reset("acc-a")
	assert.False(t, s.Snapshot().Loaded)

	s.SetPositions("acc-a", nil)
	assert.True(t, s.Snapshot().Loaded)
}

func TestStoreFindPosition(t *testing.T) {
	s := NewStore()
	s.Reset("acc-a")
	s.SetPositions("acc-a", []model.Position{{ID: "t1", Symbol: "EURUSD"}, {ID: "t2", Symbol: "XAUUSD"}})

	p, ok := s.FindPosition("t2")
	require.True(t, ok)
	assert.Equal(t, "XAUUSD", p.Symbol)

	_, ok = s.FindPosition("missing")
	assert.False(t, ok)
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.Reset("acc-a")
	s.SetPositions("acc-a", []model.Position{{ID: "t1", Symbol: "EURUSD"}})

	snap := s.Snapshot()
	snap.Positions[0].Symbol = "HACKED"

	assert.Equal(t, "EURUSD", s.Positions()[0].Symbol)
}
