// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solidity offers typed storage slot accessors over the journaled
// state, similar to declaring storage variables in a smart contract.
package solidity

import (
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

// Context binds storage accessors to the owning ledger address.
type Context struct {
	address levr.Address
	state   *state.State
}

func NewContext(address levr.Address, st *state.State) *Context {
	return &Context{
		address: address,
		state:   st,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() levr.Address {
	return c.address
}
