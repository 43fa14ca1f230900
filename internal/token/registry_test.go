package token

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestRegistryResolve(t *testing.T) {
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	registry := NewRegistry(map[string]common.Address{"USDC": usdc})

	for _, symbol := range []string{"USDC", "usdc", "Usdc"} {
		got, ok := registry.Resolve(symbol)
		if !ok {
			t.Fatalf("resolve %q: not found", symbol)
		}
		if got != usdc {
			t.Fatalf("resolve %q: address mismatch: %s", symbol, got.Hex())
		}
	}
}

func TestRegistryMiss(t *testing.T) {
	registry := NewRegistry(nil)
	if _, ok := registry.Resolve("NOPE"); ok {
		t.Fatalf("expected miss for unknown symbol")
	}
}
