// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrprotocol/levr/kv"
	"github.com/levrprotocol/levr/levr"
	"github.com/levrprotocol/levr/state"
)

func newTestContext(t *testing.T) *Context {
	store, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewContext(levr.BytesToAddress([]byte("ledger")), state.New(store))
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	slot := levr.BytesToBytes32([]byte("total"))
	u := NewUint256(ctx, slot)

	v, err := u.Get()
	require.NoError(t, err)
	assert.Zero(t, v.Sign())

	require.NoError(t, u.Add(big.NewInt(100)))
	require.NoError(t, u.Sub(big.NewInt(40)))

	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(60), v)

	assert.Error(t, u.Sub(big.NewInt(61)))
}

func TestAddressSlot(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, levr.BytesToBytes32([]byte("admin")))

	got, err := a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	admin := levr.BytesToAddress([]byte("a1"))
	a.Set(admin)
	got, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, admin, got)
}

type valueBody struct {
	Amount *big.Int
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[levr.Address, *valueBody](ctx, levr.BytesToBytes32([]byte("values")))

	k1 := levr.BytesToAddress([]byte("k1"))
	k2 := levr.BytesToAddress([]byte("k2"))

	require.NoError(t, m.Set(k1, &valueBody{big.NewInt(7)}))

	got, err := m.Get(k1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), got.Amount)

	// distinct keys occupy distinct slots
	got2, err := m.Get(k2)
	require.NoError(t, err)
	assert.Nil(t, got2.Amount)

	m.Delete(k1)
	got, err = m.Get(k1)
	require.NoError(t, err)
	assert.Nil(t, got.Amount)
}

func TestMappingScalar(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[levr.Address, uint64](ctx, levr.BytesToBytes32([]byte("times")))

	k := levr.BytesToAddress([]byte("k"))
	require.NoError(t, m.Set(k, 12345))

	got, err := m.Get(k)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), got)
}
