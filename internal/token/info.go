// Package token resolves ERC20 token metadata and well-known symbols.
package token

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// ContractCaller performs a read-only contract call.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Info describes a token. Resolved fresh on every lookup; never cached.
type Info struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	IsNative bool   `json:"is_native"`
}

// NativeAddress is the sentinel for the chain's native asset.
var NativeAddress = common.Address{}

// NativeInfo is the constant descriptor for the native asset.
func NativeInfo() Info {
	return Info{
		Address:  NativeAddress.Hex(),
		Symbol:   "ETH",
		Name:     "Ethereum",
		Decimals: 18,
		IsNative: true,
	}
}

// Fetch resolves token metadata. The native sentinel short-circuits without
// any network call. The three ERC20 queries run concurrently; a failure of
// any one fails the whole lookup.
func Fetch(ctx context.Context, caller ContractCaller, token common.Address) (Info, error) {
	if token == NativeAddress {
		return NativeInfo(), nil
	}

	parsed, err := ERC20ABI()
	if err != nil {
		return Info{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	var (
		symbol   string
		name     string
		decimals uint8
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		value, err := callString(ctx, caller, parsed, token, "symbol")
		if err != nil {
			return err
		}
		symbol = value
		return nil
	})
	g.Go(func() error {
		value, err := callString(ctx, caller, parsed, token, "name")
		if err != nil {
			return err
		}
		name = value
		return nil
	})
	g.Go(func() error {
		value, err := callUint8(ctx, caller, parsed, token, "decimals")
		if err != nil {
			return err
		}
		decimals = value
		return nil
	})
	if err := g.Wait(); err != nil {
		return Info{}, fmt.Errorf("erc20 metadata for %s: %w", token.Hex(), err)
	}

	return Info{
		Address:  token.Hex(),
		Symbol:   symbol,
		Name:     name,
		Decimals: decimals,
	}, nil
}

func callString(ctx context.Context, caller ContractCaller, parsed abi.ABI, token common.Address, method string) (string, error) {
	values, err := callMethod(ctx, caller, parsed, token, method)
	if err != nil {
		return "", err
	}
	value, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected type %T", method, values[0])
	}
	return value, nil
}

func callUint8(ctx context.Context, caller ContractCaller, parsed abi.ABI, token common.Address, method string) (uint8, error) {
	values, err := callMethod(ctx, caller, parsed, token, method)
	if err != nil {
		return 0, err
	}
	switch v := values[0].(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("%s: unexpected type %T", method, values[0])
	}
}

func callMethod(ctx context.Context, caller ContractCaller, parsed abi.ABI, token common.Address, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &token, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
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
