package account

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	positions   []model.Position
	pending     []model.PendingOrder
	history      []model.ClosedTrade
	summary      model.AccountSummary
	historyErr   error
	summaryErr   error
	historyDelay time.Duration
	historyGets  atomic.Int64
	fastGets     atomic.Int64
}

func (f *fakeBackend) OpenPositions(_ context.Context, _ string) ([]model.Position, error) {
	f.fastGets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positions, nil
}

func (f *fakeBackend) PendingOrders(_ context.Context, _ string) ([]model.PendingOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, nil
}

func (f *fakeBackend) TradeHistory(_ context.Context, _ string, _ int) ([]model.ClosedTrade, error) {
	f.historyGets.Add(1)
	f.mu.Lock()
	delay := f.historyDelay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, f.historyErr
}

func (f *fakeBackend) Summary(_ context.Context, _ string, _ map[string]model.Quote) (model.AccountSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, f.summaryErr
}

type staticQuotes map[string]model.Quote

func (q staticQuotes) Snapshot() map[string]model.Quote { return q }

type recordingSink struct {
	mu     sync.Mutex
	trades []model.ClosedTrade
}

func (r *recordingSink) Record(trades []model.ClosedTrade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trades = append(r.trades, trades...)
}

func newTestPoller(b *fakeBackend, store *Store) *Poller {
	return NewPoller(b, store, staticQuotes{}, 5*time.Millisecond, 20*time.Millisecond, 50, logger.NopLogger{})
}

func TestPollerRefreshesAllCollections(t *testing.T) {
	b := &fakeBackend{
		positions: []model.Position{{ID: "t1", AccountID: "acc-a", Symbol: "EURUSD"}},
		pending:   []model.PendingOrder{{ID: "p1", AccountID: "acc-a"}},
		history:   []model.ClosedTrade{{ID: "h1", AccountID: "acc-a"}},
		summary:   model.AccountSummary{Balance: 5000, Credit: 100},
	}
	store := NewStore()
	store.Reset("acc-a")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	newTestPoller(b, store).Run(ctx, "acc-a")

	snap := store.Snapshot()
	require.True(t, snap.Loaded)
	assert.Len(t, snap.Positions, 1)
	assert.Len(t, snap.Pending, 1)
	assert.Len(t, snap.History, 1)
	assert.Equal(t, 5000.0, snap.Summary.Balance)
}

// a broken history fetch must not block or clear positions/orders/summary
func TestPollerHistoryFailureIsIndependent(t *testing.T) {
	b := &fakeBackend{
		positions:  []model.Position{{ID: "t1", AccountID: "acc-a"}},
		summary:    model.AccountSummary{Balance: 5000},
		historyErr: errors.New("boom"),
	}
	store := NewStore()
	store.Reset("acc-a")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	newTestPoller(b, store).Run(ctx, "acc-a")

	snap := store.Snapshot()
	assert.Len(t, snap.Positions, 1)
	assert.Equal(t, 5000.0, snap.Summary.Balance)
	assert.Empty(t, snap.History)
}

func TestPollerSummaryFailureKeepsPrevious(t *testing.T) {
	b := &fakeBackend{summary: model.AccountSummary{Balance: 5000}}
	store := NewStore()
	store.Reset("acc-a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p := newTestPoller(b, store)
	go func() {
		defer close(done)
		p.Run(ctx, "acc-a")
	}()

	require.Eventually(t, func() bool {
		return store.Snapshot().Summary.Balance == 5000
	}, time.Second, time.Millisecond)

	b.mu.Lock()
	b.summaryErr = errors.New("boom")
	b.mu.Unlock()

	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, 5000.0, store.Snapshot().Summary.Balance)

	cancel()
	<-done
}

func TestPollerKickFastForcesRefresh(t *testing.T) {
	b := &fakeBackend{}
	store := NewStore()
	store.Reset("acc-a")

	// long intervals so only the initial cycle and kicks can fetch
	p := NewPoller(b, store, staticQuotes{}, time.Hour, time.Hour, 50, logger.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, "acc-a")
	}()

	require.Eventually(t, func() bool { return b.fastGets.Load() == 1 }, time.Second, time.Millisecond)

	p.KickFast()
	require.Eventually(t, func() bool { return b.fastGets.Load() == 2 }, time.Second, time.Millisecond)

	p.KickHistory()
	require.Eventually(t, func() bool { return b.historyGets.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
}

// a history backend that answers slower than the fast interval must not eat
// into the fast cadence: positions/orders/summary keep refreshing while the
// history fetch is stuck
func TestPollerSlowHistoryKeepsFastCadence(t *testing.T) {
	b := &fakeBackend{historyDelay: 30 * time.Millisecond}
	store := NewStore()
	store.Reset("acc-a")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	newTestPoller(b, store).Run(ctx, "acc-a")

	// fast interval is 5ms, so ~40 cycles fit in the window; sharing a
	// goroutine with the 30ms history fetches would cap it around 6
	assert.GreaterOrEqual(t, b.fastGets.Load(), int64(15))
}

func TestPollerRecordsHistoryToSink(t *testing.T) {
	b := &fakeBackend{history: []model.ClosedTrade{{ID: "h1", RealizedPnl: 12.5}}}
	store := NewStore()
	store.Reset("acc-a")

	sink := &recordingSink{}
	p := newTestPoller(b, store)
	p.SetHistorySink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Run(ctx, "acc-a")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.trades)
	assert.Equal(t, "h1", sink.trades[0].ID)
}
