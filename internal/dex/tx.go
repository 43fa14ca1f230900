package dex

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// V2SwapCalldata encodes an exact-input path swap against the V2 router.
func V2SwapCalldata(amountIn, amountOutMin *big.Int, path []common.Address, recipient common.Address, deadline *big.Int) ([]byte, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("swap path needs at least two tokens, got %d", len(path))
	}
	parsed, err := V2RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse v2 router abi: %w", err)
	}
	data, err := parsed.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, recipient, deadline)
	if err != nil {
		return nil, fmt.Errorf("pack swapExactTokensForTokens: %w", err)
	}
	return data, nil
}

// V3SwapCalldata encodes a single-hop exact-input swap against the V3
// router, with no price limit.
func V3SwapCalldata(tokenIn, tokenOut common.Address, fee uint32, amountIn, amountOutMin *big.Int, recipient common.Address, deadline *big.Int) ([]byte, error) {
	parsed, err := V3RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse v3 router abi: %w", err)
	}
	data, err := parsed.Pack("exactInputSingle",
		tokenIn, tokenOut, big.NewInt(int64(fee)), recipient, deadline, amountIn, amountOutMin, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("pack exactInputSingle: %w", err)
	}
	return data, nil
}
