package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// DefaultEndpoints lists free public Ethereum RPC endpoints, in preference
// order.
var DefaultEndpoints = []string{
	"https://eth.llamarpc.com",
	"https://rpc.ankr.com/eth",
	"https://ethereum.publicnode.com",
	"https://cloudflare-eth.com",
	"https://rpc.flashbots.net",
}

// Prober checks whether an endpoint answers a basic chain query.
type Prober func(ctx context.Context, url string) error

// ProbeEndpoint dials the endpoint and requests the chain ID.
func ProbeEndpoint(ctx context.Context, url string) error {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.ChainID(ctx); err != nil {
		return err
	}
	return nil
}

// SelectEndpoint probes the candidates in order with a per-probe timeout and
// returns the first healthy one.
func SelectEndpoint(ctx context.Context, candidates []string, timeout time.Duration, probe Prober, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if probe == nil {
		probe = ProbeEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	for _, url := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		err := probe(probeCtx, url)
		cancel()
		if err != nil {
			logger.Warn("rpc endpoint probe failed", zap.String("url", url), zap.Error(err))
			continue
		}
		logger.Info("rpc endpoint selected", zap.String("url", url))
		return url, nil
	}

	return "", fmt.Errorf("no healthy rpc endpoint among %d candidates", len(candidates))
}
