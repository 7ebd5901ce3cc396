// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
)

// Uint256 is a wrapper for storage and retrieval of an uint256, similar to
// storing an uint256 in a smart contract.
// If the provided uint exceeds 256 bits, it will be truncated to fit into levr.Bytes32.
type Uint256 struct {
	ctx *Context
	pos levr.Bytes32
}

func NewUint256(ctx *Context, slot levr.Bytes32) *Uint256 {
	return &Uint256{ctx: ctx, pos: slot}
}

func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.ctx.state.GetStorage(u.ctx.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) {
	u.ctx.state.SetStorage(u.ctx.address, u.pos, levr.BytesToBytes32(value.Bytes()))
}

func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	storage.Add(storage, value)
	u.Set(storage)
	return nil
}

// Sub subtracts value from the stored amount.
// An uint256 slot cannot go negative.
func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	if storage.Cmp(value) < 0 {
		return errors.New("uint256 underflow")
	}
	storage.Sub(storage, value)
	u.Set(storage)
	return nil
}
