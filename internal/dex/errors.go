package dex

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrNoRoute reports that neither venue produced any quote.
var ErrNoRoute = errors.New("no route found on UniswapV2/V3")

// ErrNoLiquidity marks a per-route quote failure caused by the pool itself
// (a contract revert) rather than the transport. Callers skip the route.
var ErrNoLiquidity = errors.New("insufficient liquidity for route")

// classifyQuoteError separates contract reverts from transport failures.
// A revert carries structured error data on the RPC error; anything else is
// a hard failure that must propagate.
func classifyQuoteError(err error) error {
	if err == nil {
		return nil
	}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		return fmt.Errorf("%w: %v", ErrNoLiquidity, err)
	}
	return err
}
