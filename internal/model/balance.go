package model

import "github.com/shopspring/decimal"

// Balance is the result of a balance lookup for a native or ERC20 asset.
type Balance struct {
	Address          string          `json:"address"`
	TokenAddress     string          `json:"token_address,omitempty"`
	Symbol           string          `json:"symbol"`
	Balance          decimal.Decimal `json:"balance"`
	Decimals         uint8           `json:"decimals"`
	FormattedBalance string          `json:"formatted_balance"`
}
