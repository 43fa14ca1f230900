// Package eth composes the chain transport, token resolver, quote engine,
// and wallet into the client the tool layer calls.
package eth

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tradeScope/internal/dex"
	"tradeScope/internal/token"
	"tradeScope/internal/wallet"
)

// Backend is the blockchain-RPC surface the client consumes. Satisfied by
// chain.Client and by test fakes.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Config carries the static addresses and tunables the client needs.
type Config struct {
	Dex            dex.Config
	Stable         common.Address
	StableDecimals uint8
	Registry       map[string]common.Address
	DeadlineSecs   uint64
}

const defaultDeadlineSecs = 15 * 60

func (c Config) stableDecimals() uint8 {
	if c.StableDecimals == 0 {
		return 6
	}
	return c.StableDecimals
}

func (c Config) deadlineSecs() uint64 {
	if c.DeadlineSecs == 0 {
		return defaultDeadlineSecs
	}
	return c.DeadlineSecs
}

// Client answers balance, price, and swap requests. Immutable after
// construction and safe for concurrent reuse; no state is shared between
// requests.
type Client struct {
	backend  Backend
	wallet   *wallet.Wallet
	quoter   *dex.Quoter
	registry *token.Registry
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewClient builds a client over a backend and wallet.
func NewClient(backend Backend, w *wallet.Wallet, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend:  backend,
		wallet:   w,
		quoter:   dex.NewQuoter(backend, cfg.Dex, logger),
		registry: token.NewRegistry(cfg.Registry),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// WalletAddress returns the configured wallet's account address.
func (c *Client) WalletAddress() common.Address {
	return c.wallet.Address()
}

// TokenInfo resolves metadata for a token address.
func (c *Client) TokenInfo(ctx context.Context, address common.Address) (token.Info, error) {
	return token.Fetch(ctx, c.backend, address)
}

func parseAddress(input string) (common.Address, error) {
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %q", input)
	}
	return common.HexToAddress(input), nil
}
