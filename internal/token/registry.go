package token

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Registry maps well-known token symbols to addresses. Lookups are
// case-insensitive. The table is fixed at construction.
type Registry struct {
	bySymbol map[string]common.Address
}

// NewRegistry builds a registry from symbol -> address entries.
func NewRegistry(entries map[string]common.Address) *Registry {
	bySymbol := make(map[string]common.Address, len(entries))
	for symbol, address := range entries {
		bySymbol[strings.ToUpper(symbol)] = address
	}
	return &Registry{bySymbol: bySymbol}
}

// Resolve returns the address for a symbol. A miss is not an error here;
// callers decide how to report it.
func (r *Registry) Resolve(symbol string) (common.Address, bool) {
	address, ok := r.bySymbol[strings.ToUpper(symbol)]
	return address, ok
}
