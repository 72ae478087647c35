package journal

import (
	"context"
	"fmt"

	"github.com/fxterm/trading-client/internal/model"
)

const (
	_upsertClosedTrade = `INSERT INTO closed_trades (
								id,
								account_id,
								symbol,
								side,
								quantity,
								open_price,
								close_price,
								commission,
								swap,
								realized_pnl,
								opened_at,
								closed_at
							) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
							ON CONFLICT (id)
							DO UPDATE SET
								close_price = EXCLUDED.close_price,
								commission = EXCLUDED.commission,
								swap = EXCLUDED.swap,
								realized_pnl = EXCLUDED.realized_pnl,
								closed_at = EXCLUDED.closed_at;`
	_queryClosedTrades = `SELECT * FROM closed_trades WHERE account_id = $1 ORDER BY closed_at DESC LIMIT $2`
)

// Flush upserts everything staged since the previous flush. On failure the
// batch is put back so the next flush retries it.
func (j *Journal) Flush(ctx context.Context) error {
	trades := j.take()
	if len(trades) == 0 {
		return nil
	}

	for i, t := range trades {
		if _, err := j.db.ExecContext(ctx, _upsertClosedTrade,
			t.ID,
			t.AccountID,
			t.Symbol,
			t.Side,
			t.Quantity,
			t.OpenPrice,
			t.ClosePrice,
			t.Commission,
			t.Swap,
			t.RealizedPnl,
			t.OpenedAt,
			t.ClosedAt,
		); err != nil {
			j.putBack(trades[i:])
			return fmt.Errorf("%w: can't upsert closed trade %s", err, t.ID)
		}
	}

	return nil
}

func (j *Journal) LoadClosedTrades(ctx context.Context, accountID string, limit int) ([]model.ClosedTrade, error) {
	var trades []model.ClosedTrade
	if err := j.db.SelectContext(ctx, &trades, _queryClosedTrades, accountID, limit); err != nil {
		return nil, fmt.Errorf("%w: can't query closed trades", err)
	}

	return trades, nil
}
