package dex

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradeScope/internal/units"
)

// priceImpact compares the executed price against the implied spot price of
// a much smaller reference trade on the same route. Estimation is
// best-effort: any failure degrades to zero, never to an error.
func (q *Quoter) priceImpact(ctx context.Context, requote func(context.Context, *big.Int) (*big.Int, error), amountIn, amountOut *big.Int, tokenInDecimals, tokenOutDecimals uint8) decimal.Decimal {
	sample := sampleAmount(amountIn, q.cfg.impactDivisor())
	if sample.Sign() == 0 || sample.Cmp(amountIn) == 0 {
		return decimal.Zero
	}

	sampleOut, err := requote(ctx, sample)
	if err != nil {
		q.logger.Debug("impact reference quote failed", zap.Error(err))
		return decimal.Zero
	}
	if sampleOut == nil || sampleOut.Sign() == 0 {
		return decimal.Zero
	}

	sampleOutDec, err := units.ToDecimal(sampleOut, tokenOutDecimals)
	if err != nil {
		return decimal.Zero
	}
	sampleInDec, err := units.ToDecimal(sample, tokenInDecimals)
	if err != nil {
		return decimal.Zero
	}
	spot := sampleOutDec.Div(sampleInDec)
	if spot.IsZero() {
		return decimal.Zero
	}

	amountOutDec, err := units.ToDecimal(amountOut, tokenOutDecimals)
	if err != nil {
		return decimal.Zero
	}
	amountInDec, err := units.ToDecimal(amountIn, tokenInDecimals)
	if err != nil {
		return decimal.Zero
	}
	executed := amountOutDec.Div(amountInDec)

	return spot.Sub(executed).Div(spot).Abs().Mul(decimal.NewFromInt(100))
}

// sampleAmount returns amountIn / divisor, floored at one base unit.
func sampleAmount(amountIn, divisor *big.Int) *big.Int {
	sample := new(big.Int).Quo(amountIn, divisor)
	if sample.Sign() == 0 {
		return big.NewInt(1)
	}
	return sample
}
