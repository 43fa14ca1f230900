package eth

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradeScope/internal/dex"
	"tradeScope/internal/model"
	"tradeScope/internal/token"
	"tradeScope/internal/units"
	"tradeScope/internal/wallet"
)

// SwapTokens quotes the best route for a swap, estimates its cost and price
// impact, and builds a signed, submission-ready transaction with
// slippage-protected minimum output. The transaction is not broadcast.
func (c *Client) SwapTokens(ctx context.Context, fromToken, toToken, amount string, slippageTolerance float64) (model.SwapResult, error) {
	from, err := parseAddress(fromToken)
	if err != nil {
		return model.SwapResult{}, fmt.Errorf("parse from_token: %w", err)
	}
	to, err := parseAddress(toToken)
	if err != nil {
		return model.SwapResult{}, fmt.Errorf("parse to_token: %w", err)
	}
	if from == to {
		return model.SwapResult{}, fmt.Errorf("from_token and to_token are identical")
	}

	inputAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return model.SwapResult{}, fmt.Errorf("parse amount: %w", err)
	}
	if !inputAmount.IsPositive() {
		return model.SwapResult{}, fmt.Errorf("amount must be positive")
	}

	slippage := decimal.NewFromFloat(slippageTolerance)
	if slippage.IsNegative() {
		return model.SwapResult{}, fmt.Errorf("slippage tolerance must not be negative")
	}

	fromInfo, err := token.Fetch(ctx, c.backend, from)
	if err != nil {
		return model.SwapResult{}, err
	}
	toInfo, err := token.Fetch(ctx, c.backend, to)
	if err != nil {
		return model.SwapResult{}, err
	}

	amountIn, err := units.FromDecimal(inputAmount, fromInfo.Decimals)
	if err != nil {
		return model.SwapResult{}, err
	}

	quote, err := c.quoter.BestQuote(ctx, from, fromInfo.Decimals, to, toInfo.Decimals, amountIn)
	if err != nil {
		return model.SwapResult{}, err
	}

	outputAmount, err := units.ToDecimal(quote.AmountOut, toInfo.Decimals)
	if err != nil {
		return model.SwapResult{}, err
	}
	minimumOutput := outputAmount.Mul(decimal.NewFromInt(1).Sub(slippage.Div(decimal.NewFromInt(100))))
	minOutUnits, err := units.FromDecimal(minimumOutput, toInfo.Decimals)
	if err != nil {
		return model.SwapResult{}, err
	}

	deadline, err := c.deadlineAfter(c.cfg.deadlineSecs())
	if err != nil {
		return model.SwapResult{}, err
	}
	recipient := c.wallet.Address()

	gasEstimate, err := c.estimateSwapGas(ctx, quote, recipient, deadline)
	if err != nil {
		return model.SwapResult{}, err
	}
	gasPriceRaw, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return model.SwapResult{}, fmt.Errorf("get gas price: %w", err)
	}
	gasPrice, err := units.ToDecimal(gasPriceRaw, 9) // wei -> gwei
	if err != nil {
		return model.SwapResult{}, err
	}
	totalCost := gasPrice.Mul(decimal.NewFromUint64(gasEstimate))

	swapData, err := c.swapCalldata(quote, minOutUnits, recipient, deadline)
	if err != nil {
		return model.SwapResult{}, err
	}
	signed, err := c.wallet.SignTx(ctx, c.backend, wallet.TxRequest{
		To:    quote.Router,
		Data:  swapData,
		Value: big.NewInt(0),
	})
	if err != nil {
		return model.SwapResult{}, err
	}

	result := model.SwapResult{
		FromToken:         from.Hex(),
		ToToken:           to.Hex(),
		InputAmount:       inputAmount,
		OutputAmount:      outputAmount,
		PriceImpact:       quote.PriceImpact,
		GasEstimate:       gasEstimate,
		GasPrice:          gasPrice,
		TotalCost:         totalCost,
		SlippageTolerance: slippage,
		MinimumOutput:     minimumOutput,
		Protocol:          string(quote.Venue),
		FeeTier:           quote.FeeTier,
		RouterAddress:     quote.Router.Hex(),
		Path:              hexPath(quote.Path),
		TransactionData:   hexutil.Encode(signed),
	}

	c.logger.Info("swap simulated",
		zap.String("from", result.FromToken),
		zap.String("to", result.ToToken),
		zap.String("protocol", result.Protocol),
		zap.String("output", outputAmount.String()),
		zap.Uint64("gas", gasEstimate),
	)
	return result, nil
}

// estimateSwapGas reuses the swap calldata with the quote's own amounts as
// the minimum-output stand-in.
func (c *Client) estimateSwapGas(ctx context.Context, quote dex.Quote, recipient common.Address, deadline *big.Int) (uint64, error) {
	data, err := c.swapCalldata(quote, quote.AmountOut, recipient, deadline)
	if err != nil {
		return 0, err
	}
	router := quote.Router
	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  recipient,
		To:    &router,
		Value: big.NewInt(0),
		Data:  data,
	})
	if err != nil {
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas, nil
}

func (c *Client) swapCalldata(quote dex.Quote, minOut *big.Int, recipient common.Address, deadline *big.Int) ([]byte, error) {
	switch quote.Venue {
	case dex.VenueUniswapV2:
		return dex.V2SwapCalldata(quote.AmountIn, minOut, quote.Path, recipient, deadline)
	case dex.VenueUniswapV3:
		return dex.V3SwapCalldata(quote.TokenIn, quote.TokenOut, quote.FeeTier, quote.AmountIn, minOut, recipient, deadline)
	default:
		return nil, fmt.Errorf("unknown venue: %s", quote.Venue)
	}
}

func (c *Client) deadlineAfter(seconds uint64) (*big.Int, error) {
	if seconds > math.MaxInt64/uint64(time.Second) {
		return nil, fmt.Errorf("deadline overflow: %d seconds", seconds)
	}
	deadline := c.now().Add(time.Duration(seconds) * time.Second)
	if deadline.Unix() < 0 || deadline.Before(c.now()) {
		return nil, fmt.Errorf("deadline overflow")
	}
	return big.NewInt(deadline.Unix()), nil
}

func hexPath(path []common.Address) []string {
	out := make([]string, 0, len(path))
	for _, hop := range path {
		out = append(out, hop.Hex())
	}
	return out
}
