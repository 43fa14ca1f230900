// Package tools exposes the client operations as named, schema-described
// tools with loosely typed JSON arguments.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tradeScope/internal/model"
)

// Client is the operation surface the toolset dispatches to.
type Client interface {
	GetBalance(ctx context.Context, address, tokenAddress string) (model.Balance, error)
	GetTokenPrice(ctx context.Context, tokenAddress, symbol, quoteCurrency string) (model.TokenPrice, error)
	SwapTokens(ctx context.Context, fromToken, toToken, amount string, slippageTolerance float64) (model.SwapResult, error)
}

// ErrUnknownTool marks a call to a tool name that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidArguments marks a call whose arguments are missing or malformed.
var ErrInvalidArguments = errors.New("invalid arguments")

const (
	defaultQuoteCurrency     = "USD"
	defaultSlippageTolerance = 0.5
)

// Definition describes one tool for discovery.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Toolset binds the tool catalog to a client.
type Toolset struct {
	client Client
	logger *zap.Logger
}

// New builds a toolset over a client.
func New(client Client, logger *zap.Logger) *Toolset {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Toolset{client: client, logger: logger}
}

// Definitions lists every registered tool with its input schema.
func (s *Toolset) Definitions() []Definition {
	return []Definition{
		{
			Name:        "get_balance",
			Description: "Get the ETH or ERC20 token balance of an address",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"address": {"type": "string", "description": "Account address to query"},
					"token_address": {"type": "string", "description": "ERC20 token address; omit for the native ETH balance"}
				},
				"required": ["address"]
			}`),
		},
		{
			Name:        "get_token_price",
			Description: "Get a token price in ETH or USD, derived from the best on-chain swap quote",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"token_address": {"type": "string", "description": "Token address to price"},
					"symbol": {"type": "string", "description": "Well-known token symbol, e.g. USDC"},
					"quote_currency": {"type": "string", "description": "ETH or USD; defaults to USD"}
				}
			}`),
		},
		{
			Name:        "swap_tokens",
			Description: "Quote the best UniswapV2/V3 route for a swap and build a signed transaction",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"from_token": {"type": "string", "description": "Input token address"},
					"to_token": {"type": "string", "description": "Output token address"},
					"amount": {"type": "string", "description": "Input amount in whole token units"},
					"slippage_tolerance": {"type": "number", "description": "Slippage tolerance in percent; defaults to 0.5"}
				},
				"required": ["from_token", "to_token", "amount"]
			}`),
		},
	}
}

// Call dispatches a tool by name and returns the result as indented JSON.
func (s *Toolset) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	var (
		result string
		err    error
	)
	switch name {
	case "get_balance":
		result, err = s.getBalance(ctx, args)
	case "get_token_price":
		result, err = s.getTokenPrice(ctx, args)
	case "swap_tokens":
		result, err = s.swapTokens(ctx, args)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
		return "", err
	}
	s.logger.Info("tool completed", zap.String("tool", name))
	return result, nil
}

func (s *Toolset) getBalance(ctx context.Context, args map[string]any) (string, error) {
	address, err := stringArg(args, "address", true)
	if err != nil {
		return "", err
	}
	tokenAddress, err := stringArg(args, "token_address", false)
	if err != nil {
		return "", err
	}

	balance, err := s.client.GetBalance(ctx, address, tokenAddress)
	if err != nil {
		return "", err
	}
	return render(balance)
}

func (s *Toolset) getTokenPrice(ctx context.Context, args map[string]any) (string, error) {
	tokenAddress, err := stringArg(args, "token_address", false)
	if err != nil {
		return "", err
	}
	symbol, err := stringArg(args, "symbol", false)
	if err != nil {
		return "", err
	}
	currency, err := stringArg(args, "quote_currency", false)
	if err != nil {
		return "", err
	}
	if currency == "" {
		currency = defaultQuoteCurrency
	}

	price, err := s.client.GetTokenPrice(ctx, tokenAddress, symbol, currency)
	if err != nil {
		return "", err
	}
	return render(price)
}

func (s *Toolset) swapTokens(ctx context.Context, args map[string]any) (string, error) {
	fromToken, err := stringArg(args, "from_token", true)
	if err != nil {
		return "", err
	}
	toToken, err := stringArg(args, "to_token", true)
	if err != nil {
		return "", err
	}
	amount, err := stringArg(args, "amount", true)
	if err != nil {
		return "", err
	}
	slippage, err := floatArg(args, "slippage_tolerance", defaultSlippageTolerance)
	if err != nil {
		return "", err
	}

	result, err := s.client.SwapTokens(ctx, fromToken, toToken, amount, slippage)
	if err != nil {
		return "", err
	}
	return render(result)
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	value, ok := args[key]
	if !ok || value == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidArguments, key)
		}
		return "", nil
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArguments, key)
	}
	if required && str == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArguments, key)
	}
	return str, nil
}

func floatArg(args map[string]any, key string, fallback float64) (float64, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return fallback, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArguments, key)
		}
		return parsed, nil
	}
	return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArguments, key)
}

func render(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(out), nil
}
