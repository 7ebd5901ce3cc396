// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"reflect"

	"github.com/levrprotocol/levr/levr"
)

// Key is anything usable as a mapping key.
type Key interface {
	Bytes() []byte
}

// Mapping is a key/value storage abstraction, similar to the mapping in Solidity.
// Values are stored via the state's structured storage codec, so value types
// may implement state.StorageEncoder/StorageDecoder for custom zero handling.
type Mapping[K Key, V any] struct {
	ctx     *Context
	basePos levr.Bytes32
}

func NewMapping[K Key, V any](ctx *Context, pos levr.Bytes32) *Mapping[K, V] {
	return &Mapping[K, V]{ctx: ctx, basePos: pos}
}

func (m *Mapping[K, V]) slot(key K) levr.Bytes32 {
	return levr.Blake2b(key.Bytes(), m.basePos.Bytes())
}

func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	if rv := reflect.ValueOf(&value).Elem(); rv.Kind() == reflect.Ptr {
		rv.Set(reflect.New(rv.Type().Elem()))
		err = m.ctx.state.GetStructuredStorage(m.ctx.address, m.slot(key), value)
	} else {
		err = m.ctx.state.GetStructuredStorage(m.ctx.address, m.slot(key), &value)
	}
	return
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	return m.ctx.state.SetStructuredStorage(m.ctx.address, m.slot(key), value)
}

// Delete clears the slot of the given key.
func (m *Mapping[K, V]) Delete(key K) {
	m.ctx.state.SetRawStorage(m.ctx.address, m.slot(key), nil)
}
