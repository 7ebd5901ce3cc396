// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
)

func newTestState(t *testing.T) (*State, kv.Store) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store), store
}

func TestStorage(t *testing.T) {
	st, _ := newTestState(t)

	addr := levr.BytesToAddress([]byte("addr"))
	key := levr.BytesToBytes32([]byte("key"))
	value := levr.BytesToBytes32([]byte("value"))

	st.SetStorage(addr, key, value)
	got, err := st.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	// unset key reads zero
	got, err = st.GetStorage(addr, levr.BytesToBytes32([]byte("nothing")))
	assert.NoError(t, err)
	assert.True(t, got.IsZero())

	// zero value clears the slot
	st.SetStorage(addr, key, levr.Bytes32{})
	raw, err := st.GetRawStorage(addr, key)
	assert.NoError(t, err)
	assert.Zero(t, len(raw))
}

func TestCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)

	addr := levr.BytesToAddress([]byte("addr"))
	key := levr.BytesToBytes32([]byte("key"))

	st.SetStorage(addr, key, levr.BytesToBytes32([]byte{1}))

	chk := st.NewCheckpoint()
	st.SetStorage(addr, key, levr.BytesToBytes32([]byte{2}))

	got, _ := st.GetStorage(addr, key)
	assert.Equal(t, levr.BytesToBytes32([]byte{2}), got)

	st.RevertTo(chk)
	got, _ = st.GetStorage(addr, key)
	assert.Equal(t, levr.BytesToBytes32([]byte{1}), got)
}

func TestNestedCheckpoints(t *testing.T) {
	st, _ := newTestState(t)

	addr := levr.BytesToAddress([]byte("addr"))
	key := levr.BytesToBytes32([]byte("key"))

	chk1 := st.NewCheckpoint()
	st.SetStorage(addr, key, levr.BytesToBytes32([]byte{1}))
	chk2 := st.NewCheckpoint()
	st.SetStorage(addr, key, levr.BytesToBytes32([]byte{2}))

	st.RevertTo(chk2)
	got, _ := st.GetStorage(addr, key)
	assert.Equal(t, levr.BytesToBytes32([]byte{1}), got)

	st.RevertTo(chk1)
	got, _ = st.GetStorage(addr, key)
	assert.True(t, got.IsZero())
}

func TestCommitAndReload(t *testing.T) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	defer store.Close()

	addr := levr.BytesToAddress([]byte("addr"))
	key := levr.BytesToBytes32([]byte("key"))
	value := levr.BytesToBytes32([]byte("value"))

	st := New(store)
	st.SetStorage(addr, key, value)
	require.NoError(t, st.Commit())

	// a fresh state over the same store sees committed values
	st2 := New(store)
	got, err := st2.GetStorage(addr, key)
	assert.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestRevertedWritesNotCommitted(t *testing.T) {
	store, err := kv.NewMem()
	require.NoError(t, err)
	defer store.Close()

	addr := levr.BytesToAddress([]byte("addr"))
	keep := levr.BytesToBytes32([]byte("keep"))
	drop := levr.BytesToBytes32([]byte("drop"))

	st := New(store)
	st.SetStorage(addr, keep, levr.BytesToBytes32([]byte{1}))
	chk := st.NewCheckpoint()
	st.SetStorage(addr, drop, levr.BytesToBytes32([]byte{2}))
	st.RevertTo(chk)
	require.NoError(t, st.Commit())

	st2 := New(store)
	got, _ := st2.GetStorage(addr, keep)
	assert.Equal(t, levr.BytesToBytes32([]byte{1}), got)
	got, _ = st2.GetStorage(addr, drop)
	assert.True(t, got.IsZero())
}

type bigStorage struct {
	Value *big.Int
}

func (b *bigStorage) Encode() ([]byte, error) {
	if b.Value.Sign() == 0 {
		return nil, nil
	}
	return rlp.EncodeToBytes(b)
}

func (b *bigStorage) Decode(data []byte) error {
	if len(data) == 0 {
		*b = bigStorage{new(big.Int)}
		return nil
	}
	return rlp.DecodeBytes(data, b)
}

func TestStructuredStorage(t *testing.T) {
	st, _ := newTestState(t)

	addr := levr.BytesToAddress([]byte("addr"))
	key := levr.BytesToBytes32([]byte("key"))

	require.NoError(t, st.SetStructuredStorage(addr, key, &bigStorage{big.NewInt(1234)}))

	var out bigStorage
	require.NoError(t, st.GetStructuredStorage(addr, key, &out))
	assert.Equal(t, big.NewInt(1234), out.Value)

	// zero value clears the slot
	require.NoError(t, st.SetStructuredStorage(addr, key, &bigStorage{new(big.Int)}))
	raw, err := st.GetRawStorage(addr, key)
	assert.NoError(t, err)
	assert.Zero(t, len(raw))
}
