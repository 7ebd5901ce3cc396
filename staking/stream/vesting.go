// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stream maintains per reward-token streaming state: an
// accumulated-per-share counter advanced by linear vesting, the reserve held
// against outstanding claims, and the pause bookkeeping tied to the pool
// being empty.
package stream

import "math/big"

// VestedAt returns the cumulative amount of total vested at time at, for a
// stream running linearly from start to end. A window with end <= start
// degenerates to fully vested at start.
func VestedAt(total *big.Int, start, end, at uint64) *big.Int {
	if at < start {
		return new(big.Int)
	}
	if at >= end {
		return new(big.Int).Set(total)
	}
	// start <= at < end, so end > start here
	vested := new(big.Int).Mul(total, new(big.Int).SetUint64(at-start))
	return vested.Div(vested, new(big.Int).SetUint64(end-start))
}

// VestedPortion returns the amount of total vesting within (from, to].
func VestedPortion(total *big.Int, start, end, from, to uint64) *big.Int {
	if to < from {
		to = from
	}
	return new(big.Int).Sub(VestedAt(total, start, end, to), VestedAt(total, start, end, from))
}

// UnvestedAt returns the amount of total not yet vested at time at.
func UnvestedAt(total *big.Int, start, end, at uint64) *big.Int {
	return new(big.Int).Sub(total, VestedAt(total, start, end, at))
}
