package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"tradeScope/internal/model"
	"tradeScope/internal/token"
	"tradeScope/internal/units"
)

// GetBalance returns the native balance when tokenAddress is empty,
// otherwise the ERC20 balance of that token.
func (c *Client) GetBalance(ctx context.Context, address, tokenAddress string) (model.Balance, error) {
	account, err := parseAddress(address)
	if err != nil {
		return model.Balance{}, err
	}
	if tokenAddress == "" {
		return c.nativeBalance(ctx, account)
	}

	tokenAddr, err := parseAddress(tokenAddress)
	if err != nil {
		return model.Balance{}, err
	}
	return c.tokenBalance(ctx, account, tokenAddr)
}

func (c *Client) nativeBalance(ctx context.Context, account common.Address) (model.Balance, error) {
	raw, err := c.backend.BalanceAt(ctx, account)
	if err != nil {
		return model.Balance{}, fmt.Errorf("get balance: %w", err)
	}

	native := token.NativeInfo()
	balance, err := units.ToDecimal(raw, native.Decimals)
	if err != nil {
		return model.Balance{}, err
	}

	return model.Balance{
		Address:          account.Hex(),
		Symbol:           native.Symbol,
		Balance:          balance,
		Decimals:         native.Decimals,
		FormattedBalance: fmt.Sprintf("%s %s", balance.StringFixed(6), native.Symbol),
	}, nil
}

func (c *Client) tokenBalance(ctx context.Context, account, tokenAddr common.Address) (model.Balance, error) {
	info, err := token.Fetch(ctx, c.backend, tokenAddr)
	if err != nil {
		return model.Balance{}, err
	}

	raw, err := c.balanceOf(ctx, tokenAddr, account)
	if err != nil {
		return model.Balance{}, fmt.Errorf("call balanceOf: %w", err)
	}

	balance, err := units.ToDecimal(raw, info.Decimals)
	if err != nil {
		return model.Balance{}, err
	}

	return model.Balance{
		Address:          account.Hex(),
		TokenAddress:     tokenAddr.Hex(),
		Symbol:           info.Symbol,
		Balance:          balance,
		Decimals:         info.Decimals,
		FormattedBalance: fmt.Sprintf("%s %s", balance.StringFixed(6), info.Symbol),
	}, nil
}

func (c *Client) balanceOf(ctx context.Context, tokenAddr, account common.Address) (*big.Int, error) {
	parsed, err := token.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	resp, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	values, err := parsed.Unpack("balanceOf", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected type %T", values[0])
	}
	return raw, nil
}
