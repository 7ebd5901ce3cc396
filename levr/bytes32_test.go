// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package levr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes32MarshalUnmarshal(t *testing.T) {
	originalHex := `"0x00000000000000000000000000000000000000000000000000006d6173746572"`

	var unmarshaled Bytes32
	err := json.Unmarshal([]byte(originalHex), &unmarshaled)
	assert.NoError(t, err)

	marshaled, err := json.Marshal(&unmarshaled)
	assert.NoError(t, err)
	assert.Equal(t, originalHex, string(marshaled))
}

func TestBytesToBytes32(t *testing.T) {
	assert.Equal(t, Bytes32{}, BytesToBytes32(nil))
	assert.True(t, BytesToBytes32([]byte{}).IsZero())

	short := BytesToBytes32([]byte{1, 2})
	assert.Equal(t, byte(1), short[30])
	assert.Equal(t, byte(2), short[31])

	long := make([]byte, 40)
	long[39] = 0xff
	assert.Equal(t, byte(0xff), BytesToBytes32(long)[31])
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.NoError(t, err)
	assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())

	_, err = ParseAddress("0x123")
	assert.Error(t, err)

	_, err = ParseAddress("zz67d83b7b8d80addcb281a71d54fc7b3364ffed")
	assert.Error(t, err)
}

func TestBlake2b(t *testing.T) {
	// multi-part hashing must equal single-part hashing of the concatenation
	assert.Equal(t, Blake2b([]byte("hello world")), Blake2b([]byte("hello"), []byte(" world")))
	assert.False(t, Blake2b([]byte("x")).IsZero())
}
