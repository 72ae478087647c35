package quotes

import (
	"context"
	"time"

	"github.com/fxterm/trading-client/internal/logger"
	"github.com/fxterm/trading-client/internal/model"
)

type PriceFetcher interface {
	BatchPrices(ctx context.Context, symbols []string) (map[string]model.Quote, error)
}

// Poller refreshes the quote store on a fixed cadence. Ticks run one at a
// time on the poller goroutine, so a slow response can never race a newer
// one; each tick is bounded by the interval so the loop can't fall behind
// indefinitely.
type Poller struct {
	fetcher  PriceFetcher
	store    *Store
	symbols  func() []string
	interval time.Duration

	logger logger.Logger
}

func NewPoller(fetcher PriceFetcher, store *Store, symbols func() []string, interval time.Duration, logger logger.Logger) *Poller {
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		symbols:  symbols,
		interval: interval,
		logger:   logger,
	}
}

func (p *Poller) Run(ctx context.Context) {
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick failure is logged and skipped, the next tick retries. Price staleness
// is not an error condition for background polling.
func (p *Poller) tick(ctx context.Context) {
	symbols := p.symbols()
	if len(symbols) == 0 {
		return
	}

	tickCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	batch, err := p.fetcher.BatchPrices(tickCtx, symbols)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warnf("%s: can't fetch batch prices", err)
		}
		return
	}

	p.store.Apply(batch)
}
