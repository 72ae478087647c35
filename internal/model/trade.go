package model

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderType string

const (
	Market    OrderType = "MARKET"
	BuyLimit  OrderType = "BUY_LIMIT"
	BuyStop   OrderType = "BUY_STOP"
	SellLimit OrderType = "SELL_LIMIT"
	SellStop  OrderType = "SELL_STOP"
)

func (o OrderType) IsPending() bool {
	switch o {
	case BuyLimit, BuyStop, SellLimit, SellStop:
		return true
	default:
		return false
	}
}

func (o OrderType) Side() Side {
	switch o {
	case Market:
		return ""
	case BuyLimit, BuyStop:
		return Buy
	default:
		return Sell
	}
}

// Position is an executed order that is still open. The server copy is
// authoritative, the client holds a read-through cache replaced wholesale on
// every poll.
type Position struct {
	ID           string    `json:"id" db:"id"`
	AccountID    string    `json:"tradingAccountId" db:"account_id"`
	Symbol       string    `json:"symbol" db:"symbol"`
	Side         Side      `json:"side" db:"side"`
	Quantity     float64   `json:"quantity" db:"quantity"`
	OpenPrice    float64   `json:"openPrice" db:"open_price"`
	ContractSize float64   `json:"contractSize" db:"contract_size"`
	Leverage     int       `json:"leverage" db:"leverage"`
	MarginUsed   float64   `json:"marginUsed" db:"margin_used"`
	StopLoss     *float64  `json:"sl" db:"sl"`
	TakeProfit   *float64  `json:"tp" db:"tp"`
	Commission   float64   `json:"commission" db:"commission"`
	Swap         float64   `json:"swap" db:"swap"`
	OpenedAt     time.Time `json:"openedAt" db:"opened_at"`
}

// PendingOrder is an unfilled conditional order. It becomes a Position on
// fill (observed indirectly via the next poll) or disappears on cancel.
type PendingOrder struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"tradingAccountId"`
	Symbol       string    `json:"symbol"`
	OrderType    OrderType `json:"orderType"`
	Quantity     float64   `json:"quantity"`
	TriggerPrice float64   `json:"triggerPrice"`
	ContractSize float64   `json:"contractSize"`
	Leverage     int       `json:"leverage"`
	StopLoss     *float64  `json:"sl"`
	TakeProfit   *float64  `json:"tp"`
	PlacedAt     time.Time `json:"placedAt"`
}

type ClosedTrade struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"tradingAccountId" db:"account_id"`
	Symbol      string    `json:"symbol" db:"symbol"`
	Side        Side      `json:"side" db:"side"`
	Quantity    float64   `json:"quantity" db:"quantity"`
	OpenPrice   float64   `json:"openPrice" db:"open_price"`
	ClosePrice  float64   `json:"closePrice" db:"close_price"`
	Commission  float64   `json:"commission" db:"commission"`
	Swap        float64   `json:"swap" db:"swap"`
	RealizedPnl float64   `json:"realizedPnl" db:"realized_pnl"`
	OpenedAt    time.Time `json:"openedAt" db:"opened_at"`
	ClosedAt    time.Time `json:"closedAt" db:"closed_at"`
}
