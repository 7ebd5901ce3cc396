// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fpmath provides scaled-integer arithmetic helpers for reward and
// voting-power accounting. Multiplication always happens before division so
// precision is only lost at the final truncation.
package fpmath

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
)

// ErrDivisionByZero is returned when a computation would divide by zero.
// Callers are expected to guard denominators; this error is the backstop.
var ErrDivisionByZero = errors.New("division by zero")

// MulDiv returns x * y / denom.
func MulDiv(x, y, denom *big.Int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	r := new(big.Int).Mul(x, y)
	return r.Div(r, denom), nil
}

// ScaleUp returns x * RewardScale.
func ScaleUp(x *big.Int) *big.Int {
	return new(big.Int).Mul(x, levr.RewardScale)
}

// ScaleDown returns x / RewardScale, truncating.
func ScaleDown(x *big.Int) *big.Int {
	return new(big.Int).Div(x, levr.RewardScale)
}

// Min returns the smaller of a and b.
// The returned value is a new instance.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
