// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token defines the fungible-asset primitive consumed by the staking
// engine, and an in-state implementation of it.
//
// The engine treats every Token as possibly adversarial: transfers may fail,
// take fees, or be blocked, so all calls are fallible and the engine orders
// its own bookkeeping before any of them.
package token

import (
	"math/big"

	"github.com/levrprotocol/levr/levr"
)

// Token is the narrow capability the engine holds on an asset contract.
type Token interface {
	// Address identifies the asset.
	Address() levr.Address

	// BalanceOf returns the balance held by the given account.
	BalanceOf(holder levr.Address) (*big.Int, error)

	// Transfer moves amount from one holder to another.
	Transfer(from, to levr.Address, amount *big.Int) error
}

// FeeSource is an external fee-collection contract the engine may
// opportunistically pull reward funding from. Calls are best-effort; a
// failing source must never abort the accounting path.
type FeeSource interface {
	Claim(token levr.Address) error
}

// Registry resolves asset addresses to Token capabilities.
type Registry struct {
	tokens map[levr.Address]Token
}

func NewRegistry(tokens ...Token) *Registry {
	r := &Registry{tokens: make(map[levr.Address]Token)}
	for _, tk := range tokens {
		r.Add(tk)
	}
	return r
}

func (r *Registry) Add(tk Token) {
	r.tokens[tk.Address()] = tk
}

// Resolve returns the Token registered at addr.
func (r *Registry) Resolve(addr levr.Address) (Token, bool) {
	tk, ok := r.tokens[addr]
	return tk, ok
}
