// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/levrprotocol/levr/levr"
)

// Stake is a user's staking position as served by the API.
type Stake struct {
	Balance        math.HexOrDecimal256 `json:"balance,string"`
	StakeStartTime uint64               `json:"stakeStartTime"`
	VotingPower    math.HexOrDecimal256 `json:"votingPower,string"`
}

// Total is the pool-wide staked amount.
type Total struct {
	TotalStaked math.HexOrDecimal256 `json:"totalStaked,string"`
}

// Claimable is the amount of one reward token a user could claim now.
type Claimable struct {
	Token  levr.Address         `json:"token"`
	Amount math.HexOrDecimal256 `json:"amount,string"`
}

// StakeRequest deposits an amount for a user.
type StakeRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// WithdrawRequest removes an amount of a user's stake and sends the
// underlying asset to the recipient.
type WithdrawRequest struct {
	Amount *math.HexOrDecimal256 `json:"amount"`
	To     *levr.Address         `json:"to"`
}

// TransferRequest moves staked balance between users.
type TransferRequest struct {
	To     *levr.Address         `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ClaimRequest pays out accrued rewards for the listed tokens.
type ClaimRequest struct {
	Tokens []levr.Address `json:"tokens"`
	To     *levr.Address  `json:"to"`
}
