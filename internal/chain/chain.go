// Package chain holds the static per-chain configuration: token lists,
// router addresses, and wrapped native assets. Pure lookup data, never
// mutated at runtime.
package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NativeSentinel is the placeholder address conventionally used for a
// chain's gas token. It never corresponds to a deployed contract.
var NativeSentinel = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Token describes an asset tradable through the router.
type Token struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
	Native   bool
}

// Is reports whether the token's address equals addr (case-insensitive on input).
func (t Token) Is(addr common.Address) bool {
	return t.Address == addr
}

// Chain bundles everything the swap path needs to know about one network.
type Chain struct {
	ID            uint64
	Name          string
	Explorer      string
	Router        common.Address
	WrappedNative common.Address
	Tokens        []Token
}

// Native returns the chain's gas token entry.
func (c Chain) Native() Token {
	for _, t := range c.Tokens {
		if t.Native {
			return t
		}
	}
	return Token{}
}

// DefaultChainID is used whenever a lookup targets an unconfigured chain.
// Falling back keeps the UI functional on exotic networks instead of erroring.
const DefaultChainID = 1

// Get returns the configuration for id, or the default chain's when id is unknown.
func Get(id uint64) Chain {
	if c, ok := registry[id]; ok {
		return c
	}
	return registry[DefaultChainID]
}

// TokensFor returns the known token list for id, falling back to the default chain.
func TokensFor(id uint64) []Token {
	return Get(id).Tokens
}

// RouterFor returns the swap router address for id, falling back to the default chain.
func RouterFor(id uint64) common.Address {
	return Get(id).Router
}

// WrappedNativeFor returns the wrapped gas token address for id, falling back
// to the default chain.
func WrappedNativeFor(id uint64) common.Address {
	return Get(id).WrappedNative
}

// FindToken resolves a symbol (case-insensitive) or a hex address against the
// chain's token list.
func FindToken(id uint64, symbolOrAddress string) (Token, bool) {
	tokens := TokensFor(id)
	if common.IsHexAddress(symbolOrAddress) {
		addr := common.HexToAddress(symbolOrAddress)
		for _, t := range tokens {
			if t.Address == addr {
				return t, true
			}
		}
		return Token{}, false
	}
	for _, t := range tokens {
		if strings.EqualFold(t.Symbol, symbolOrAddress) {
			return t, true
		}
	}
	return Token{}, false
}
