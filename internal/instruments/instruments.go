package instruments

import (
	"sync"

	"github.com/fxterm/trading-client/internal/model"
)

// Defaults is the static instrument set a session starts with before any
// watchlist edits.
func Defaults() []model.Instrument {
	defs := []model.Instrument{
		{Symbol: "EURUSD", Name: "Euro / US Dollar", Category: model.Forex, Starred: true},
		{Symbol: "GBPUSD", Name: "British Pound / US Dollar", Category: model.Forex, Starred: true},
		{Symbol: "USDJPY", Name: "US Dollar / Japanese Yen", Category: model.Forex},
		{Symbol: "AUDUSD", Name: "Australian Dollar / US Dollar", Category: model.Forex},
		{Symbol: "USDCAD", Name: "US Dollar / Canadian Dollar", Category: model.Forex},
		{Symbol: "USDCHF", Name: "US Dollar / Swiss Franc", Category: model.Forex},
		{Symbol: "NZDUSD", Name: "New Zealand Dollar / US Dollar", Category: model.Forex},
		{Symbol: "XAUUSD", Name: "Gold / US Dollar", Category: model.Metals, Starred: true},
		{Symbol: "XAGUSD", Name: "Silver / US Dollar", Category: model.Metals},
		{Symbol: "BTCUSD", Name: "Bitcoin / US Dollar", Category: model.Crypto, Starred: true},
		{Symbol: "ETHUSD", Name: "Ethereum / US Dollar", Category: model.Crypto},
	}
	for i := range defs {
		defs[i].ContractSize = defs[i].Category.ContractSize(defs[i].Symbol)
	}

	return defs
}

type List struct {
	mu       sync.RWMutex
	bySymbol map[string]model.Instrument
	order    []string
}

func NewList(instruments []model.Instrument) *List {
	l := &List{
		bySymbol: make(map[string]model.Instrument, len(instruments)),
		order:    make([]string, 0, len(instruments)),
	}
	for _, i := range instruments {
		if _, ok := l.bySymbol[i.Symbol]; ok {
			continue
		}
		if i.ContractSize <= 0 {
			i.ContractSize = i.Category.ContractSize(i.Symbol)
		}
		l.bySymbol[i.Symbol] = i
		l.order = append(l.order, i.Symbol)
	}

	return l
}

func (l *List) Get(symbol string) (model.Instrument, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.bySymbol[symbol]
	return i, ok
}

// Symbols returns every listed symbol in stable order. This is the set the
// price feed poller subscribes to.
func (l *List) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

func (l *List) All() []model.Instrument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Instrument, 0, len(l.order))
	for _, s := range l.order {
		out = append(out, l.bySymbol[s])
	}
	return out
}

func (l *List) Starred() []model.Instrument {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Instrument, 0, len(l.order))
	for _, s := range l.order {
		if i := l.bySymbol[s]; i.Starred {
			out = append(out, i)
		}
	}
	return out
}

func (l *List) SetStarred(symbol string, starred bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.bySymbol[symbol]
	if !ok {
		return false
	}
	i.Starred = starred
	l.bySymbol[symbol] = i
	return true
}
