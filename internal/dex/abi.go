package dex

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const v2RouterABIJSON = `[
  {
    "inputs": [
      {"name": "amountIn", "type": "uint256"},
      {"name": "path", "type": "address[]"}
    ],
    "name": "getAmountsOut",
    "outputs": [{"name": "amounts", "type": "uint256[]"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      {"name": "amountIn", "type": "uint256"},
      {"name": "amountOutMin", "type": "uint256"},
      {"name": "path", "type": "address[]"},
      {"name": "to", "type": "address"},
      {"name": "deadline", "type": "uint256"}
    ],
    "name": "swapExactTokensForTokens",
    "outputs": [{"name": "amounts", "type": "uint256[]"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const v2FactoryABIJSON = `[
  {
    "inputs": [
      {"name": "tokenA", "type": "address"},
      {"name": "tokenB", "type": "address"}
    ],
    "name": "getPair",
    "outputs": [{"name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const v3QuoterABIJSON = `[
  {
    "inputs": [
      {"name": "tokenIn", "type": "address"},
      {"name": "tokenOut", "type": "address"},
      {"name": "fee", "type": "uint24"},
      {"name": "amountIn", "type": "uint256"},
      {"name": "sqrtPriceLimitX96", "type": "uint160"}
    ],
    "name": "quoteExactInputSingle",
    "outputs": [{"name": "amountOut", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const v3RouterABIJSON = `[
  {
    "inputs": [
      {"name": "tokenIn", "type": "address"},
      {"name": "tokenOut", "type": "address"},
      {"name": "fee", "type": "uint24"},
      {"name": "recipient", "type": "address"},
      {"name": "deadline", "type": "uint256"},
      {"name": "amountIn", "type": "uint256"},
      {"name": "amountOutMinimum", "type": "uint256"},
      {"name": "sqrtPriceLimitX96", "type": "uint160"}
    ],
    "name": "exactInputSingle",
    "outputs": [{"name": "amountOut", "type": "uint256"}],
    "stateMutability": "payable",
    "type": "function"
  }
]`

var (
	v2RouterABI      abi.ABI
	v2RouterABIOnce  sync.Once
	v2RouterABIErr   error
	v2FactoryABI     abi.ABI
	v2FactoryABIOnce sync.Once
	v2FactoryABIErr  error
	v3QuoterABI      abi.ABI
	v3QuoterABIOnce  sync.Once
	v3QuoterABIErr   error
	v3RouterABI      abi.ABI
	v3RouterABIOnce  sync.Once
	v3RouterABIErr   error
)

// V2RouterABI returns the parsed UniswapV2 router ABI.
func V2RouterABI() (abi.ABI, error) {
	v2RouterABIOnce.Do(func() {
		v2RouterABI, v2RouterABIErr = abi.JSON(strings.NewReader(v2RouterABIJSON))
	})
	return v2RouterABI, v2RouterABIErr
}

// V2FactoryABI returns the parsed UniswapV2 factory ABI.
func V2FactoryABI() (abi.ABI, error) {
	v2FactoryABIOnce.Do(func() {
		v2FactoryABI, v2FactoryABIErr = abi.JSON(strings.NewReader(v2FactoryABIJSON))
	})
	return v2FactoryABI, v2FactoryABIErr
}

// V3QuoterABI returns the parsed UniswapV3 quoter ABI.
func V3QuoterABI() (abi.ABI, error) {
	v3QuoterABIOnce.Do(func() {
		v3QuoterABI, v3QuoterABIErr = abi.JSON(strings.NewReader(v3QuoterABIJSON))
	})
	return v3QuoterABI, v3QuoterABIErr
}

// V3RouterABI returns the parsed UniswapV3 swap router ABI.
func V3RouterABI() (abi.ABI, error) {
	v3RouterABIOnce.Do(func() {
		v3RouterABI, v3RouterABIErr = abi.JSON(strings.NewReader(v3RouterABIJSON))
	})
	return v3RouterABI, v3RouterABIErr
}
