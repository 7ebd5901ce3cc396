// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package levr

import "math/big"

// Constants of the staking engine.
const (
	// SecondsPerDay used to normalize voting power into token-days.
	SecondsPerDay uint64 = 24 * 60 * 60

	// DefaultStreamWindow is the window over which a funded reward batch
	// vests linearly, unless overridden via params.
	DefaultStreamWindow uint64 = 3 * SecondsPerDay

	// InitialMaxRewardTokens bounds the non-whitelisted reward token tier.
	InitialMaxRewardTokens uint64 = 10
)

// RewardScale is the fixed-point scale of accumulated-per-share counters.
var RewardScale = big.NewInt(1e18)

// InitialMinFunding is the dust threshold for funding a not-yet-tracked,
// non-whitelisted reward token. Prevents registry slot-exhaustion spam.
var InitialMinFunding = big.NewInt(1e6)

// Keys of engine params.
var (
	KeyAdmin           = BytesToBytes32([]byte("admin"))
	KeyStreamWindow    = BytesToBytes32([]byte("reward-stream-window"))
	KeyMaxRewardTokens = BytesToBytes32([]byte("max-reward-tokens"))
	KeyMinFunding      = BytesToBytes32([]byte("min-funding"))
)
