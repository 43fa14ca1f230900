package model

import "github.com/shopspring/decimal"

// TokenPrice is a point-in-time price in the requested quote currency.
type TokenPrice struct {
	TokenAddress  string          `json:"token_address,omitempty"`
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	QuoteCurrency string          `json:"quote_currency"`
	Timestamp     int64           `json:"timestamp"`
}
