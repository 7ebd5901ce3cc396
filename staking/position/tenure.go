// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package position keeps per-user stake state: balance, the synthetic stake
// start time behind time-weighted voting power, and per-token reward debt
// and pending balances.
package position

import (
	"math/big"

	"github.com/levrprotocol/levr/levr"
)

// vpDenominator normalizes raw balance*seconds into token-days.
var vpDenominator = new(big.Int).Mul(levr.RewardScale, new(big.Int).SetUint64(levr.SecondsPerDay))

// WeightedStakeStart blends accumulated tenure when amount is added to an
// existing balance at time now:
//
//	start' = now - balance*(now-start) / (balance+amount)
//
// New deposits dilute tenure proportionally instead of resetting it, and a
// fresh balance starts with zero tenure.
func WeightedStakeStart(balance *big.Int, start uint64, amount *big.Int, now uint64) uint64 {
	if balance.Sign() == 0 {
		return now
	}
	elapsed := elapsedSince(start, now)
	weighted := new(big.Int).Mul(balance, new(big.Int).SetUint64(elapsed))
	weighted.Div(weighted, new(big.Int).Add(balance, amount))
	return now - weighted.Uint64()
}

// ReducedStakeStart scales tenure down proportionally to the fraction
// withdrawn at time now:
//
//	start' = now - (now-start) * remaining / balance
//
// A full withdrawal resets the start time to zero.
func ReducedStakeStart(balance *big.Int, start uint64, amount *big.Int, now uint64) uint64 {
	remaining := new(big.Int).Sub(balance, amount)
	if remaining.Sign() <= 0 {
		return 0
	}
	elapsed := elapsedSince(start, now)
	kept := new(big.Int).Mul(new(big.Int).SetUint64(elapsed), remaining)
	kept.Div(kept, balance)
	return now - kept.Uint64()
}

// VotingPower is balance*(now-start) normalized into token-days. The integer
// division floors tiny stakes to zero, which is intentional.
func VotingPower(balance *big.Int, start uint64, now uint64) *big.Int {
	if balance.Sign() == 0 {
		return new(big.Int)
	}
	elapsed := elapsedSince(start, now)
	raw := new(big.Int).Mul(balance, new(big.Int).SetUint64(elapsed))
	return raw.Div(raw, vpDenominator)
}

func elapsedSince(start, now uint64) uint64 {
	if now <= start {
		return 0
	}
	return now - start
}
