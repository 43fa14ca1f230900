// Package dex quotes token swaps against UniswapV2 and UniswapV3 and builds
// the corresponding router calldata.
package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Backend performs read-only contract calls against the chain.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Venue tags the protocol family a quote came from.
type Venue string

const (
	VenueUniswapV2 Venue = "UniswapV2"
	VenueUniswapV3 Venue = "UniswapV3"
)

// DefaultFeeTiers are the standard UniswapV3 fee tiers.
var DefaultFeeTiers = []uint32{500, 3000, 10000}

// DefaultImpactDivisor sizes the price-impact reference trade at 1% of the
// actual input.
const DefaultImpactDivisor = 100

// Config carries the venue contract addresses and tunables. Addresses are
// injected at construction so tests can run against fakes.
type Config struct {
	V2Router      common.Address
	V2Factory     common.Address
	V3Quoter      common.Address
	V3Router      common.Address
	WrappedNative common.Address
	FeeTiers      []uint32
	ImpactDivisor int64
}

func (c Config) feeTiers() []uint32 {
	if len(c.FeeTiers) == 0 {
		return DefaultFeeTiers
	}
	return c.FeeTiers
}

func (c Config) impactDivisor() *big.Int {
	if c.ImpactDivisor <= 0 {
		return big.NewInt(DefaultImpactDivisor)
	}
	return big.NewInt(c.ImpactDivisor)
}

// Quote is a priced swap candidate. Immutable once built; ordering across
// quotes is by AmountOut only.
type Quote struct {
	Venue       Venue
	Router      common.Address
	TokenIn     common.Address
	TokenOut    common.Address
	AmountIn    *big.Int
	AmountOut   *big.Int
	Path        []common.Address
	FeeTier     uint32
	PriceImpact decimal.Decimal
}

// Quoter queries both venues and selects the best output.
type Quoter struct {
	backend Backend
	cfg     Config
	logger  *zap.Logger
}

// NewQuoter builds a Quoter over a contract-call backend.
func NewQuoter(backend Backend, cfg Config, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{backend: backend, cfg: cfg, logger: logger}
}

// Config returns the quoter's venue configuration.
func (q *Quoter) Config() Config {
	return q.cfg
}

// BestQuote quotes both venues and returns the candidate with the strictly
// larger output. V3 is evaluated first and keeps exact-output ties.
func (q *Quoter) BestQuote(ctx context.Context, tokenIn common.Address, tokenInDecimals uint8, tokenOut common.Address, tokenOutDecimals uint8, amountIn *big.Int) (Quote, error) {
	if tokenIn == tokenOut {
		return Quote{}, fmt.Errorf("input and output token are identical: %s", tokenIn.Hex())
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, fmt.Errorf("amount in must be positive")
	}

	best, err := q.quoteV3(ctx, tokenIn, tokenInDecimals, tokenOut, tokenOutDecimals, amountIn)
	if err != nil {
		return Quote{}, err
	}

	v2, err := q.quoteV2(ctx, tokenIn, tokenInDecimals, tokenOut, tokenOutDecimals, amountIn)
	if err != nil {
		return Quote{}, err
	}
	if v2 != nil && (best == nil || v2.AmountOut.Cmp(best.AmountOut) > 0) {
		best = v2
	}

	if best == nil {
		return Quote{}, ErrNoRoute
	}
	return *best, nil
}

// quoteV2 evaluates every candidate path and keeps the best output. A
// liquidity revert on one path skips that path; transport failures abort.
func (q *Quoter) quoteV2(ctx context.Context, tokenIn common.Address, tokenInDecimals uint8, tokenOut common.Address, tokenOutDecimals uint8, amountIn *big.Int) (*Quote, error) {
	paths, err := q.candidatePaths(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	var best *Quote
	for _, path := range paths {
		amountOut, err := q.getAmountsOut(ctx, amountIn, path)
		if err != nil {
			if errors.Is(err, ErrNoLiquidity) {
				q.logger.Debug("v2 path skipped",
					zap.Strings("path", hexPath(path)),
					zap.Error(err),
				)
				continue
			}
			return nil, err
		}

		path := path
		impact := q.priceImpact(ctx, func(ctx context.Context, sample *big.Int) (*big.Int, error) {
			return q.getAmountsOut(ctx, sample, path)
		}, amountIn, amountOut, tokenInDecimals, tokenOutDecimals)

		quote := Quote{
			Venue:       VenueUniswapV2,
			Router:      q.cfg.V2Router,
			TokenIn:     tokenIn,
			TokenOut:    tokenOut,
			AmountIn:    amountIn,
			AmountOut:   amountOut,
			Path:        path,
			PriceImpact: impact,
		}
		if best == nil || quote.AmountOut.Cmp(best.AmountOut) > 0 {
			best = &quote
		}
	}

	return best, nil
}

// quoteV3 evaluates each fee tier on the direct pair. Any per-tier failure
// or zero result skips that tier.
func (q *Quoter) quoteV3(ctx context.Context, tokenIn common.Address, tokenInDecimals uint8, tokenOut common.Address, tokenOutDecimals uint8, amountIn *big.Int) (*Quote, error) {
	var best *Quote
	for _, fee := range q.cfg.feeTiers() {
		fee := fee
		amountOut, err := q.quoteExactInputSingle(ctx, tokenIn, tokenOut, fee, amountIn)
		if err != nil {
			q.logger.Debug("v3 tier skipped", zap.Uint32("fee", fee), zap.Error(err))
			continue
		}
		if amountOut.Sign() == 0 {
			continue
		}

		impact := q.priceImpact(ctx, func(ctx context.Context, sample *big.Int) (*big.Int, error) {
			return q.quoteExactInputSingle(ctx, tokenIn, tokenOut, fee, sample)
		}, amountIn, amountOut, tokenInDecimals, tokenOutDecimals)

		quote := Quote{
			Venue:       VenueUniswapV3,
			Router:      q.cfg.V3Router,
			TokenIn:     tokenIn,
			TokenOut:    tokenOut,
			AmountIn:    amountIn,
			AmountOut:   amountOut,
			Path:        []common.Address{tokenIn, tokenOut},
			FeeTier:     fee,
			PriceImpact: impact,
		}
		if best == nil || quote.AmountOut.Cmp(best.AmountOut) > 0 {
			best = &quote
		}
	}

	return best, nil
}

// candidatePaths enumerates viable V2 routes: the direct pair, and a single
// hop via the wrapped native token when both legs have pools. An empty
// result means this venue has no quote, not an error.
func (q *Quoter) candidatePaths(ctx context.Context, tokenIn, tokenOut common.Address) ([][]common.Address, error) {
	var paths [][]common.Address

	direct, err := q.pairExists(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	if direct {
		paths = append(paths, []common.Address{tokenIn, tokenOut})
	}

	base := q.cfg.WrappedNative
	if tokenIn != base && tokenOut != base {
		legIn, err := q.pairExists(ctx, tokenIn, base)
		if err != nil {
			return nil, err
		}
		if legIn {
			legOut, err := q.pairExists(ctx, base, tokenOut)
			if err != nil {
				return nil, err
			}
			if legOut {
				paths = append(paths, []common.Address{tokenIn, base, tokenOut})
			}
		}
	}

	return paths, nil
}

func (q *Quoter) pairExists(ctx context.Context, tokenA, tokenB common.Address) (bool, error) {
	if tokenA == tokenB {
		return false, nil
	}

	parsed, err := V2FactoryABI()
	if err != nil {
		return false, fmt.Errorf("parse v2 factory abi: %w", err)
	}
	values, err := q.call(ctx, q.cfg.V2Factory, parsed, "getPair", tokenA, tokenB)
	if err != nil {
		return false, fmt.Errorf("getPair(%s, %s): %w", tokenA.Hex(), tokenB.Hex(), err)
	}
	pair, ok := values[0].(common.Address)
	if !ok {
		return false, fmt.Errorf("getPair: unexpected type %T", values[0])
	}
	return pair != (common.Address{}), nil
}

func (q *Quoter) getAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	parsed, err := V2RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 router abi: %w", err)
	}
	values, err := q.call(ctx, q.cfg.V2Router, parsed, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, classifyQuoteError(err)
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("getAmountsOut: unexpected return %T", values[0])
	}
	return amounts[len(amounts)-1], nil
}

func (q *Quoter) quoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	parsed, err := V3QuoterABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 quoter abi: %w", err)
	}
	values, err := q.call(ctx, q.cfg.V3Quoter, parsed, "quoteExactInputSingle",
		tokenIn, tokenOut, big.NewInt(int64(fee)), amountIn, big.NewInt(0))
	if err != nil {
		return nil, err
	}
	amountOut, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("quoteExactInputSingle: unexpected type %T", values[0])
	}
	return amountOut, nil
}

func (q *Quoter) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := q.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty return", method)
	}
	return values, nil
}

func hexPath(path []common.Address) []string {
	out := make([]string, 0, len(path))
	for _, hop := range path {
		out = append(out, hop.Hex())
	}
	return out
}
