// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import "github.com/levrprotocol/levr/levr"

// Address is a wrapper for storage and retrieval of an address slot.
type Address struct {
	ctx *Context
	pos levr.Bytes32
}

func NewAddress(ctx *Context, slot levr.Bytes32) *Address {
	return &Address{ctx: ctx, pos: slot}
}

func (a *Address) Get() (levr.Address, error) {
	storage, err := a.ctx.state.GetStorage(a.ctx.address, a.pos)
	if err != nil {
		return levr.Address{}, err
	}
	return levr.BytesToAddress(storage.Bytes()), nil
}

func (a *Address) Set(value levr.Address) {
	a.ctx.state.SetStorage(a.ctx.address, a.pos, levr.BytesToBytes32(value.Bytes()))
}
