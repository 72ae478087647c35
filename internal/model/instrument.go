package model

import "time"

type Category string

const (
	Forex  Category = "forex"
	Metals Category = "metals"
	Crypto Category = "crypto"
)

// ContractSize returns units per lot for an instrument of this category.
// Gold and silver trade on different contract sizes, so metals need the
// symbol to disambiguate.
func (c Category) ContractSize(symbol string) float64 {
	switch c {
	case Forex:
		return 100000
	case Metals:
		if symbol == "XAGUSD" {
			return 5000
		}
		return 100
	case Crypto:
		return 1
	default:
		return 0
	}
}

type Instrument struct {
	Symbol       string   `json:"symbol" yaml:"symbol"`
	Name         string   `json:"name" yaml:"name"`
	Category     Category `json:"category" yaml:"category"`
	ContractSize float64  `json:"contractSize" yaml:"contract_size"`
	Starred      bool     `json:"starred" yaml:"starred"`
}

// Quote is the latest bid/ask pair for one instrument. A quote with
// non-positive bid or ask means "no market", never "price is zero".
type Quote struct {
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	UpdatedAt time.Time `json:"-"`
}

func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

func (q Quote) Valid() bool {
	return q.Bid > 0 && q.Ask > 0
}
