// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package probing

// A MapIter is a position within a Map: the table plus a physical slot
// index. Positions advance in increasing slot order, which is neither
// insertion order nor hash order. The position with index equal to the
// storage length is the end position; it is not dereferenceable.
//
// Any operation that rehashes the map (growth during insertion, Rehash,
// Reserve, Clear, Swap) invalidates every MapIter. Deleting the entry a
// position refers to leaves the position valid to advance from, but it must
// not be dereferenced.
//
// The zero value is an invalid position.
type MapIter[K comparable, V any] struct {
	t   *table[K, V]
	idx int
}

// Valid reports whether the position refers to a slot rather than the end
// of the map.
func (it *MapIter[K, V]) Valid() bool {
	return it.t != nil && it.idx < len(it.t.slots)
}

// Next advances the position to the next live entry, or to the end position
// when no live entries remain. Advancing the end position is a no-op.
func (it *MapIter[K, V]) Next() {
	if it.t != nil && it.idx < len(it.t.slots) {
		it.idx = it.t.nextLive(it.idx + 1)
	}
}

// Key returns the key at the position, which must be a live entry.
func (it *MapIter[K, V]) Key() K {
	return it.t.slots[it.idx].key
}

// Value returns the value at the position, which must be a live entry.
func (it *MapIter[K, V]) Value() V {
	return it.t.slots[it.idx].value
}

// A SetIter is a position within a Set. It behaves exactly like a MapIter
// with no value channel: increasing slot order, invalidated by any rehash,
// safe to advance past a just-deleted entry.
//
// The zero value is an invalid position.
type SetIter[K comparable] struct {
	t   *table[K, struct{}]
	idx int
}

// Valid reports whether the position refers to a slot rather than the end
// of the set.
func (it *SetIter[K]) Valid() bool {
	return it.t != nil && it.idx < len(it.t.slots)
}

// Next advances the position to the next live key, or to the end position
// when no live keys remain. Advancing the end position is a no-op.
func (it *SetIter[K]) Next() {
	if it.t != nil && it.idx < len(it.t.slots) {
		it.idx = it.t.nextLive(it.idx + 1)
	}
}

// Key returns the key at the position, which must be a live entry.
func (it *SetIter[K]) Key() K {
	return it.t.slots[it.idx].key
}
