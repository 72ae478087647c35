package journal

import (
	"context"
	"sync"
	"time"

	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
	"github.com/jmoiron/sqlx"
)

// Journal records closed trades observed by the history poller into
// postgres. Recording only stages trades in memory; the flush loop owns all
// DB writes, so journaling never sits on the poll hot path.
type Journal struct {
	db     *sqlx.DB
	logger logger.Logger

	flushInterval time.Duration

	mu      sync.Mutex
	pending map[string]model.ClosedTrade
}

func New(db *sqlx.DB, flushInterval time.Duration, logger logger.Logger) *Journal {
	return &Journal{
		db:            db,
		logger:        logger,
		flushInterval: flushInterval,
		pending:       make(map[string]model.ClosedTrade),
	}
}

func (j *Journal) Record(trades []model.ClosedTrade) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range trades {
		j.pending[t.ID] = t
	}
}

func (j *Journal) Run(ctx context.Context) {
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := j.Flush(context.WithoutCancel(ctx)); err != nil {
				j.logger.Errorf("%s: can't flush journal on shutdown", err)
			}
			return
		case <-ticker.C:
			if err := j.Flush(ctx); err != nil {
				j.logger.Errorf("%s: can't flush journal", err)
			}
		}
	}
}

func (j *Journal) take() []model.ClosedTrade {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.pending) == 0 {
		return nil
	}
	trades := make([]model.ClosedTrade, 0, len(j.pending))
	for _, t := range j.pending {
		trades = append(trades, t)
	}
	j.pending = make(map[string]model.ClosedTrade)
	return trades
}

func (j *Journal) putBack(trades []model.ClosedTrade) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, t := range trades {
		if _, ok := j.pending[t.ID]; !ok {
			j.pending[t.ID] = t
		}
	}
}
