// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
)

// storage key prefix in the backing kv store.
var storagePrefix = []byte("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// StorageEncoder encodes a storage value into its raw form.
// An empty raw form clears the slot.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder decodes a storage value from its raw form.
// Empty raw means the slot was never written.
type StorageDecoder interface {
	Decode([]byte) error
}

type storageKey struct {
	addr levr.Address
	key  levr.Bytes32
}

func (k storageKey) storeKey() []byte {
	b := make([]byte, 0, len(storagePrefix)+levr.AddressLength+32)
	b = append(b, storagePrefix...)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages the engine's keyed ledger state.
// All mutations are journaled; an operation wraps its mutations between
// NewCheckpoint and either RevertTo (abort) or nothing (success), and the
// whole journal is flushed to the store via Commit.
type State struct {
	store kv.GetPutter
	jn    *journal
}

// New create a state object backed by the given store.
func New(store kv.GetPutter) *State {
	st := &State{store: store}
	st.jn = newJournal(func(key storageKey) ([]byte, error) {
		data, err := st.store.Get(key.storeKey())
		if err != nil {
			if st.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return data, nil
	})
	// base level holds all uncommitted writes
	st.jn.Push()
	return st
}

// NewCheckpoint makes a checkpoint of current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.jn.Push()
}

// RevertTo reverts state to given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	if checkpoint < 1 {
		// the base level is not revertable
		checkpoint = 1
	}
	s.jn.PopTo(checkpoint)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr levr.Address, key levr.Bytes32) (rlp.RawValue, error) {
	data, err := s.jn.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr levr.Address, key levr.Bytes32, raw rlp.RawValue) {
	s.jn.Put(storageKey{addr, key}, raw)
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr levr.Address, key levr.Bytes32) (levr.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return levr.Bytes32{}, err
	}
	if len(raw) == 0 {
		return levr.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return levr.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return levr.Blake2b(raw), nil
	}
	return levr.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr levr.Address, key, value levr.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr levr.Address, key levr.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr levr.Address, key levr.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// GetStructuredStorage get and decode a structured storage value.
// If val does not implement StorageDecoder, rlp decoding is used.
func (s *State) GetStructuredStorage(addr levr.Address, key levr.Bytes32, val any) error {
	return s.DecodeStorage(addr, key, func(raw []byte) error {
		if dec, ok := val.(StorageDecoder); ok {
			return dec.Decode(raw)
		}
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, val)
	})
}

// SetStructuredStorage encode and set a structured storage value.
// If val does not implement StorageEncoder, rlp encoding is used.
func (s *State) SetStructuredStorage(addr levr.Address, key levr.Bytes32, val any) error {
	return s.EncodeStorage(addr, key, func() ([]byte, error) {
		if enc, ok := val.(StorageEncoder); ok {
			return enc.Encode()
		}
		return rlp.EncodeToBytes(val)
	})
}

// Commit flushes all journaled writes into the backing store in one batch.
// The journal is collapsed back to a single empty base level.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	err := s.jn.Changed(func(key storageKey, value []byte) error {
		if len(value) == 0 {
			return batch.Delete(key.storeKey())
		}
		return batch.Put(key.storeKey(), value)
	})
	if err != nil {
		return &Error{err}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	s.jn.PopTo(0)
	s.jn.Push()
	return nil
}
