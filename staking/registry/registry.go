// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry keeps the bounded set of tracked reward tokens as a
// doubly linked list in state, with a whitelisted tier exempt from the
// bound.
package registry

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

// ErrRegistryFull is returned when tracking a new non-whitelisted token
// would exceed the registry bound.
var ErrRegistryFull = errors.New("reward token registry is full")

// entry is one linked-list node, keyed by token address.
type entry struct {
	Tracked     bool
	Whitelisted bool
	Prev        *levr.Address `rlp:"nil"`
	Next        *levr.Address `rlp:"nil"`
}

var (
	_ state.StorageEncoder = (*entry)(nil)
	_ state.StorageDecoder = (*entry)(nil)
)

func (e *entry) Encode() ([]byte, error) {
	if !e.Tracked {
		return nil, nil
	}
	return rlp.EncodeToBytes(e)
}

func (e *entry) Decode(data []byte) error {
	if len(data) == 0 {
		*e = entry{}
		return nil
	}
	return rlp.DecodeBytes(data, e)
}
