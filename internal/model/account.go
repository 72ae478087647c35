package model

type Account struct {
	ID       string  `json:"id"`
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Leverage int     `json:"leverage"`
	Balance  float64 `json:"balance"`
	Credit   float64 `json:"credit"`
}

// AccountSummary holds the server-authoritative balance/credit plus the
// derived figures. Equity, free margin, used margin and floating P&L are
// recomputed client-side on every quote or position change and never
// persisted.
type AccountSummary struct {
	Balance     float64 `json:"balance"`
	Credit      float64 `json:"credit"`
	Equity      float64 `json:"equity"`
	FreeMargin  float64 `json:"freeMargin"`
	UsedMargin  float64 `json:"usedMargin"`
	FloatingPnl float64 `json:"floatingPnl"`
}
