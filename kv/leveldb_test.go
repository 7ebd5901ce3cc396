// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	key := []byte("123")
	value := []byte("456")

	require.NoError(t, db.Put(key, value))

	got, err := db.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	has, err := db.Has(key)
	assert.NoError(t, err)
	assert.True(t, has)

	has, err = db.Has([]byte("abc"))
	assert.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, db.Delete(key))
	_, err = db.Get(key)
	assert.True(t, db.IsNotFound(err))
}

func TestLevelDBBatch(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	assert.Equal(t, 2, batch.Len())
	require.NoError(t, batch.Write())

	got, err := db.Get([]byte("b"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestLevelDBIterator(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, db.Put([]byte("k2"), []byte("v2")))
	require.NoError(t, db.Put([]byte("x1"), []byte("v3")))

	it := db.NewIterator(Range{From: []byte("k"), To: []byte("l")})
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	assert.NoError(t, it.Error())
	assert.Equal(t, []string{"k1", "k2"}, keys)
}
