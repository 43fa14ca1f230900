package model

import "github.com/shopspring/decimal"

// SwapResult is the full outcome of a simulated swap, including the signed
// transaction. Constructed once per request and serialized as-is.
type SwapResult struct {
	FromToken         string          `json:"from_token"`
	ToToken           string          `json:"to_token"`
	InputAmount       decimal.Decimal `json:"input_amount"`
	OutputAmount      decimal.Decimal `json:"output_amount"`
	PriceImpact       decimal.Decimal `json:"price_impact"`
	GasEstimate       uint64          `json:"gas_estimate"`
	GasPrice          decimal.Decimal `json:"gas_price"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	SlippageTolerance decimal.Decimal `json:"slippage_tolerance"`
	MinimumOutput     decimal.Decimal `json:"minimum_output"`
	Protocol          string          `json:"protocol"`
	FeeTier           uint32          `json:"fee_tier,omitempty"`
	RouterAddress     string          `json:"router_address"`
	Path              []string        `json:"path"`
	TransactionData   string          `json:"transaction_data"`
}
