// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/levrprotocol/levr/levr"
)

// Event kinds, one per state transition. Off-chain reconciliation depends on
// these, since a partial claim is not distinguishable from a full one by
// reading balances alone.
const (
	EventStake      = "stake"
	EventUnstake    = "unstake"
	EventTransfer   = "transfer"
	EventClaim      = "claim"
	EventShortfall  = "shortfall"
	EventCredit     = "credit"
	EventDebtUpdate = "debt-update"
	EventWhitelist  = "whitelist"
	EventCleanup    = "cleanup"
)

// Event records one state transition of the engine.
type Event struct {
	Kind      string
	User      levr.Address
	Token     levr.Address
	Recipient levr.Address
	Amount    *big.Int
	Time      uint64
}

// EventSink receives every event of a completed operation. Events of a
// failed operation are never delivered.
type EventSink interface {
	Append(events []*Event) error
}

type noopSink struct{}

func (noopSink) Append([]*Event) error { return nil }
