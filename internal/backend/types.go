package backend

import (
	"time"

	"github.com/fxterm/trading-client/internal/model"
)

// RejectionError is a business rejection: the backend answered the request
// but refused it ("Insufficient margin", "Market closed", ...). The message
// is surfaced to the user verbatim and never retried.
type RejectionError struct {
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// wireQuote keeps bid/ask nullable so a partial batch response can be told
// apart from a real zero price.
type wireQuote struct {
	Bid *float64 `json:"bid"`
	Ask *float64 `json:"ask"`
}

type pricesResponse struct {
	Success bool                 `json:"success"`
	Prices  map[string]wireQuote `json:"prices"`
}

type accountsResponse struct {
	Accounts []model.Account `json:"accounts"`
}

type positionsResponse struct {
	Success bool             `json:"success"`
	Trades  []model.Position `json:"trades"`
}

type pendingResponse struct {
	Success bool                 `json:"success"`
	Trades  []model.PendingOrder `json:"trades"`
}

type historyResponse struct {
	Success bool                `json:"success"`
	Trades  []model.ClosedTrade `json:"trades"`
}

type summaryResponse struct {
	Success bool                 `json:"success"`
	Summary model.AccountSummary `json:"summary"`
}

type closeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Trade   struct {
		RealizedPnl float64 `json:"realizedPnl"`
	} `json:"trade"`
}

// OpenOrderRequest is the body of POST /trade/open. For pending orders the
// trigger price is substituted for both bid and ask.
type OpenOrderRequest struct {
	UserID           string          `json:"userId"`
	TradingAccountID string          `json:"tradingAccountId"`
	Symbol           string          `json:"symbol"`
	Segment          model.Category  `json:"segment"`
	Side             model.Side      `json:"side"`
	OrderType        model.OrderType `json:"orderType"`
	Quantity         float64         `json:"quantity"`
	Bid              float64         `json:"bid"`
	Ask              float64         `json:"ask"`
	Leverage         int             `json:"leverage"`
	StopLoss         *float64        `json:"sl,omitempty"`
	TakeProfit       *float64        `json:"tp,omitempty"`
}

type modifyRequest struct {
	TradeID    string   `json:"tradeId"`
	StopLoss   *float64 `json:"sl"`
	TakeProfit *float64 `json:"tp"`
}

type closeRequest struct {
	TradeID string  `json:"tradeId"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
}

type cancelRequest struct {
	TradeID string `json:"tradeId"`
}

type batchPricesRequest struct {
	Symbols []string `json:"symbols"`
}

func toQuotes(prices map[string]wireQuote, now time.Time) map[string]model.Quote {
	quotes := make(map[string]model.Quote, len(prices))
	for symbol, p := range prices {
		if p.Bid == nil {
			continue
		}
		q := model.Quote{Bid: *p.Bid, UpdatedAt: now}
		if p.Ask != nil {
			q.Ask = *p.Ask
		}
		quotes[symbol] = q
	}

	return quotes
}
