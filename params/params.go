// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package params keeps engine configuration in ledger state, so that the
// admin, window length and registry bounds survive restarts together with
// the balances they govern.
package params

import (
	"math/big"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

// Params provides access to engine config values kept in state.
type Params struct {
	addr  levr.Address
	state *state.State
}

func New(addr levr.Address, st *state.State) *Params {
	return &Params{addr, st}
}

// Get gets the param for the given key, zero if never set.
func (p *Params) Get(key levr.Bytes32) (*big.Int, error) {
	raw, err := p.state.GetRawStorage(p.addr, key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

// GetOr gets the param for the given key, falling back to def when unset.
func (p *Params) GetOr(key levr.Bytes32, def *big.Int) (*big.Int, error) {
	v, err := p.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Sign() == 0 {
		return new(big.Int).Set(def), nil
	}
	return v, nil
}

// Set sets the param for the given key.
func (p *Params) Set(key levr.Bytes32, value *big.Int) {
	p.state.SetRawStorage(p.addr, key, value.Bytes())
}

// GetAddress reads an address-valued param.
func (p *Params) GetAddress(key levr.Bytes32) (levr.Address, error) {
	v, err := p.Get(key)
	if err != nil {
		return levr.Address{}, err
	}
	return levr.BytesToAddress(v.Bytes()), nil
}

// SetAddress writes an address-valued param.
func (p *Params) SetAddress(key levr.Bytes32, addr levr.Address) {
	p.Set(key, new(big.Int).SetBytes(addr.Bytes()))
}
