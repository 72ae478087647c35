package metrics

import (
	"github.com/fxterm/trading-client/internal/model"
	"github.com/shopspring/decimal"
)

// Totals are the four aggregate figures derived from live quotes and open
// positions, rounded to cents for display.
type Totals struct {
	FloatingPnl float64
	UsedMargin  float64
	Equity      float64
	FreeMargin  float64
}

// PositionPnl computes floating P&L for one open position. A BUY closes by
// selling, so it is marked against the bid; a SELL against the ask. When the
// relevant price is missing or non-positive there is no market, and the
// position contributes zero instead of a garbage figure.
func PositionPnl(p model.Position, q model.Quote, ok bool) float64 {
	if !ok {
		return 0
	}

	var diff float64
	switch p.Side {
	case model.Buy:
		if q.Bid <= 0 {
			return 0
		}
		diff = q.Bid - p.OpenPrice
	case model.Sell:
		if q.Ask <= 0 {
			return 0
		}
		diff = p.OpenPrice - q.Ask
	default:
		return 0
	}

	return diff*p.Quantity*p.ContractSize - p.Commission - p.Swap
}

// Compute derives the aggregate figures from a consistent snapshot of
// positions, quotes and the server-authoritative balance/credit. Per-position
// P&L is summed unrounded and rounded once at the end, so rounding error
// never compounds across positions.
func Compute(positions []model.Position, quotes map[string]model.Quote, balance, credit float64) Totals {
	var floating, used float64
	for _, p := range positions {
		q, ok := quotes[p.Symbol]
		floating += PositionPnl(p, q, ok)
		used += p.MarginUsed
	}

	equity := balance + credit + floating

	return Totals{
		FloatingPnl: Round2(floating),
		UsedMargin:  Round2(used),
		Equity:      Round2(equity),
		FreeMargin:  Round2(equity - used),
	}
}

// Summarize folds derived totals into a summary, keeping the server's
// balance and credit.
func Summarize(positions []model.Position, quotes map[string]model.Quote, balance, credit float64) model.AccountSummary {
	t := Compute(positions, quotes, balance, credit)

	return model.AccountSummary{
		Balance:     balance,
		Credit:      credit,
		Equity:      t.Equity,
		FreeMargin:  t.FreeMargin,
		UsedMargin:  t.UsedMargin,
		FloatingPnl: t.FloatingPnl,
	}
}

func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
