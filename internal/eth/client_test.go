package eth

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"tradeScope/internal/dex"
	"tradeScope/internal/token"
	"tradeScope/internal/wallet"
)

const testKey = "0x1234123412341234123412341234123412341234123412341234123412341234"

var (
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	account  = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

type tokenMeta struct {
	symbol   string
	name     string
	decimals uint8
}

// fakeBackend answers ERC20 metadata, balance, and quoter calls from
// in-memory tables. v3Rate maps (tokenIn, tokenOut) pairs to proportional
// quote functions; V2 always reports no pair.
type fakeBackend struct {
	t *testing.T

	tokens        map[common.Address]tokenMeta
	nativeBalance *big.Int
	erc20Balances map[common.Address]*big.Int
	v3Rate        func(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)

	gasPrice    *big.Int
	gasEstimate uint64
	nonce       uint64

	callCount     int
	estimateCount int
}

func (f *fakeBackend) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	f.callCount++
	if f.nativeBalance == nil {
		return nil, fmt.Errorf("no balance configured")
	}
	return new(big.Int).Set(f.nativeBalance), nil
}

func (f *fakeBackend) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	f.callCount++
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeBackend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	f.callCount++
	return f.nonce, nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	f.callCount++
	f.estimateCount++
	return f.gasEstimate, nil
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.callCount++

	erc20, _ := token.ERC20ABI()
	factoryABI, _ := dex.V2FactoryABI()
	quoterABI, _ := dex.V3QuoterABI()

	selector := msg.Data[:4]
	switch {
	case bytes.Equal(selector, erc20.Methods["symbol"].ID):
		meta, ok := f.tokens[*msg.To]
		if !ok {
			return nil, fmt.Errorf("unknown token %s", msg.To.Hex())
		}
		return erc20.Methods["symbol"].Outputs.Pack(meta.symbol)

	case bytes.Equal(selector, erc20.Methods["name"].ID):
		meta, ok := f.tokens[*msg.To]
		if !ok {
			return nil, fmt.Errorf("unknown token %s", msg.To.Hex())
		}
		return erc20.Methods["name"].Outputs.Pack(meta.name)

	case bytes.Equal(selector, erc20.Methods["decimals"].ID):
		meta, ok := f.tokens[*msg.To]
		if !ok {
			return nil, fmt.Errorf("unknown token %s", msg.To.Hex())
		}
		return erc20.Methods["decimals"].Outputs.Pack(meta.decimals)

	case bytes.Equal(selector, erc20.Methods["balanceOf"].ID):
		balance, ok := f.erc20Balances[*msg.To]
		if !ok {
			return nil, fmt.Errorf("no balance for token %s", msg.To.Hex())
		}
		return erc20.Methods["balanceOf"].Outputs.Pack(balance)

	case bytes.Equal(selector, factoryABI.Methods["getPair"].ID):
		return factoryABI.Methods["getPair"].Outputs.Pack(common.Address{})

	case bytes.Equal(selector, quoterABI.Methods["quoteExactInputSingle"].ID):
		args, err := quoterABI.Methods["quoteExactInputSingle"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			f.t.Fatalf("unpack quoteExactInputSingle args: %v", err)
		}
		if f.v3Rate == nil {
			return nil, fmt.Errorf("no v3 rate configured")
		}
		out, err := f.v3Rate(args[0].(common.Address), args[1].(common.Address), args[3].(*big.Int))
		if err != nil {
			return nil, err
		}
		return quoterABI.Methods["quoteExactInputSingle"].Outputs.Pack(out)
	}

	return nil, fmt.Errorf("unexpected call to %s", msg.To.Hex())
}

// usdcWethRates quotes USDC -> WETH at 0.0004 and WETH -> USDC at 2500,
// both proportional so the impact sample sees the same spot price.
func usdcWethRates(tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	switch {
	case tokenIn == usdcAddr && tokenOut == wethAddr:
		return new(big.Int).Mul(amountIn, big.NewInt(400_000_000)), nil
	case tokenIn == wethAddr && tokenOut == usdcAddr:
		out := new(big.Int).Mul(amountIn, big.NewInt(25))
		return out.Quo(out, big.NewInt(10_000_000_000)), nil
	}
	return nil, fmt.Errorf("no pool for %s -> %s", tokenIn.Hex(), tokenOut.Hex())
}

func newTestBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{
		t: t,
		tokens: map[common.Address]tokenMeta{
			wethAddr: {symbol: "WETH", name: "Wrapped Ether", decimals: 18},
			usdcAddr: {symbol: "USDC", name: "USD Coin", decimals: 6},
		},
		nativeBalance: big.NewInt(1_500_000_000_000_000_000),
		erc20Balances: map[common.Address]*big.Int{
			usdcAddr: big.NewInt(2_500_000),
		},
		v3Rate:      usdcWethRates,
		gasPrice:    big.NewInt(30_000_000_000),
		gasEstimate: 210_000,
		nonce:       7,
	}
}

func newTestClient(t *testing.T, backend *fakeBackend) *Client {
	w, err := wallet.New(testKey, big.NewInt(1))
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	cfg := Config{
		Dex: dex.Config{
			V2Router:      common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
			V2Factory:     common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
			V3Quoter:      common.HexToAddress("0xb27308f9F90D607463bb33eA1BeBb41C27CE5AB6"),
			V3Router:      common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
			WrappedNative: wethAddr,
			FeeTiers:      []uint32{3000},
		},
		Stable:         usdcAddr,
		StableDecimals: 6,
		Registry:       map[string]common.Address{"USDC": usdcAddr, "WETH": wethAddr},
	}
	client := NewClient(backend, w, cfg, nil)
	client.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return client
}

func TestGetBalanceNative(t *testing.T) {
	client := newTestClient(t, newTestBackend(t))

	balance, err := client.GetBalance(context.Background(), account.Hex(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Symbol != "ETH" || balance.Decimals != 18 {
		t.Fatalf("native descriptor mismatch: %+v", balance)
	}
	if !balance.Balance.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("balance mismatch: %s", balance.Balance)
	}
	if balance.FormattedBalance != "1.500000 ETH" {
		t.Fatalf("formatted balance mismatch: %q", balance.FormattedBalance)
	}
	if balance.TokenAddress != "" {
		t.Fatalf("native balance carries token address %q", balance.TokenAddress)
	}
}

func TestGetBalanceERC20(t *testing.T) {
	client := newTestClient(t, newTestBackend(t))

	balance, err := client.GetBalance(context.Background(), account.Hex(), usdcAddr.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance.Symbol != "USDC" || balance.Decimals != 6 {
		t.Fatalf("token descriptor mismatch: %+v", balance)
	}
	if !balance.Balance.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("balance mismatch: %s", balance.Balance)
	}
	if balance.TokenAddress != usdcAddr.Hex() {
		t.Fatalf("token address mismatch: %s", balance.TokenAddress)
	}
}

func TestGetBalanceBadAddress(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)

	if _, err := client.GetBalance(context.Background(), "not-an-address", ""); err == nil {
		t.Fatalf("expected error for invalid address")
	}
	if backend.callCount != 0 {
		t.Fatalf("backend touched %d times before validation failure", backend.callCount)
	}
}

func TestGetTokenPriceWrappedNativeInETH(t *testing.T) {
	backend := newTestBackend(t)
	backend.v3Rate = nil // any quote attempt fails the test
	client := newTestClient(t, backend)

	price, err := client.GetTokenPrice(context.Background(), wethAddr.Hex(), "", "eth")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("wrapped native price mismatch: %s", price.Price)
	}
	if price.QuoteCurrency != "ETH" {
		t.Fatalf("quote currency not normalized: %s", price.QuoteCurrency)
	}
	if price.Symbol != "WETH" {
		t.Fatalf("symbol mismatch: %s", price.Symbol)
	}
}

func TestGetTokenPriceUSDBySymbol(t *testing.T) {
	client := newTestClient(t, newTestBackend(t))

	price, err := client.GetTokenPrice(context.Background(), "", "usdc", "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.0004 WETH per USDC times 2500 USDC per WETH.
	if !price.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("usd price mismatch: %s", price.Price)
	}
	if price.Timestamp != 1_700_000_000 {
		t.Fatalf("timestamp mismatch: %d", price.Timestamp)
	}
	if price.TokenAddress != usdcAddr.Hex() {
		t.Fatalf("resolved address mismatch: %s", price.TokenAddress)
	}
}

func TestGetTokenPriceUnknownSymbol(t *testing.T) {
	client := newTestClient(t, newTestBackend(t))

	_, err := client.GetTokenPrice(context.Background(), "", "SHIB", "USD")
	if err == nil || !strings.Contains(err.Error(), "unknown token symbol") {
		t.Fatalf("expected unknown symbol error, got %v", err)
	}
}

func TestGetTokenPriceMissingSelector(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)

	if _, err := client.GetTokenPrice(context.Background(), "", "", "USD"); err == nil {
		t.Fatalf("expected error when neither address nor symbol given")
	}
	if backend.callCount != 0 {
		t.Fatalf("backend touched %d times before validation failure", backend.callCount)
	}
}

func TestGetTokenPriceUnsupportedCurrency(t *testing.T) {
	client := newTestClient(t, newTestBackend(t))

	_, err := client.GetTokenPrice(context.Background(), usdcAddr.Hex(), "", "JPY")
	if err == nil || !strings.Contains(err.Error(), "unsupported quote currency") {
		t.Fatalf("expected unsupported currency error, got %v", err)
	}
}

func TestSwapTokens(t *testing.T) {
	backend := newTestBackend(t)
	client := newTestClient(t, backend)

	result, err := client.SwapTokens(context.Background(), usdcAddr.Hex(), wethAddr.Hex(), "100", 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Protocol != string(dex.VenueUniswapV3) {
		t.Fatalf("protocol mismatch: %s", result.Protocol)
	}
	if result.FeeTier != 3000 {
		t.Fatalf("fee tier mismatch: %d", result.FeeTier)
	}
	if !result.OutputAmount.Equal(decimal.RequireFromString("0.04")) {
		t.Fatalf("output amount mismatch: %s", result.OutputAmount)
	}
	if !result.MinimumOutput.Equal(decimal.RequireFromString("0.0398")) {
		t.Fatalf("minimum output mismatch: %s", result.MinimumOutput)
	}
	if !result.SlippageTolerance.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("slippage mismatch: %s", result.SlippageTolerance)
	}
	if result.GasEstimate != 210_000 {
		t.Fatalf("gas estimate mismatch: %d", result.GasEstimate)
	}
	if !result.GasPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("gas price mismatch: %s gwei", result.GasPrice)
	}
	if !result.TotalCost.Equal(decimal.NewFromInt(6_300_000)) {
		t.Fatalf("total cost mismatch: %s", result.TotalCost)
	}
	if len(result.Path) != 2 || result.Path[0] != usdcAddr.Hex() || result.Path[1] != wethAddr.Hex() {
		t.Fatalf("path mismatch: %v", result.Path)
	}
	if result.PriceImpact.Sign() != 0 {
		t.Fatalf("proportional pool reported impact %s", result.PriceImpact)
	}

	raw, err := hexutil.Decode(result.TransactionData)
	if err != nil {
		t.Fatalf("transaction data is not hex: %v", err)
	}
	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		t.Fatalf("decode signed transaction: %v", err)
	}
	if tx.To() == nil || tx.To().Hex() != result.RouterAddress {
		t.Fatalf("transaction target mismatch: %v", tx.To())
	}
	if tx.Nonce() != 7 || tx.Gas() != 210_000 {
		t.Fatalf("transaction fields mismatch: nonce=%d gas=%d", tx.Nonce(), tx.Gas())
	}
	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), &tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if sender != client.WalletAddress() {
		t.Fatalf("sender mismatch: %s", sender.Hex())
	}
}

func TestSwapTokensValidation(t *testing.T) {
	cases := []struct {
		name     string
		from, to string
		amount   string
		slippage float64
	}{
		{"identical tokens", usdcAddr.Hex(), usdcAddr.Hex(), "100", 0.5},
		{"bad from address", "nope", wethAddr.Hex(), "100", 0.5},
		{"bad amount", usdcAddr.Hex(), wethAddr.Hex(), "abc", 0.5},
		{"zero amount", usdcAddr.Hex(), wethAddr.Hex(), "0", 0.5},
		{"negative slippage", usdcAddr.Hex(), wethAddr.Hex(), "100", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := newTestBackend(t)
			client := newTestClient(t, backend)

			if _, err := client.SwapTokens(context.Background(), tc.from, tc.to, tc.amount, tc.slippage); err == nil {
				t.Fatalf("expected validation error")
			}
			if backend.callCount != 0 {
				t.Fatalf("backend touched %d times before validation failure", backend.callCount)
			}
		})
	}
}
