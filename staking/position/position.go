// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/levrprotocol/levr/state"
)

// Position is one user's stake state. The record persists across a full
// unstake, logically empty, so tenure history cannot be resurrected by
// re-staking.
type Position struct {
	Balance        *big.Int
	StakeStartTime uint64
}

var (
	_ state.StorageEncoder = (*Position)(nil)
	_ state.StorageDecoder = (*Position)(nil)
)

func (p *Position) Encode() ([]byte, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

func (p *Position) Decode(data []byte) error {
	if len(data) == 0 {
		*p = Position{Balance: &big.Int{}}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}

func (p *Position) IsEmpty() bool {
	return p.Balance.Sign() == 0 && p.StakeStartTime == 0
}
