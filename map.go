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

// Package probing implements associative containers - a Map of keys to
// values and a Set of keys - backed by a single open-addressing hash-table
// engine with pluggable collision-resolution policies. If you're not
// familiar with open-addressing see
// https://en.wikipedia.org/wiki/Open_addressing.
//
// # Layout
//
// A table is a slot array of even length (twice the capacity hint) paired
// with a parallel metadata array holding one byte per slot. The byte records
// one of three states: empty (never held an entry since the last rehash),
// full (holds a live entry), or deleted (a tombstone left by an erase).
// Probe sequences terminate at empty slots and walk through tombstones,
// which keeps every entry placed after a chain passed through a now-deleted
// slot reachable, while the tombstone itself remains reusable: an insertion
// claims the first tombstone on its path once it has ruled out a live match
// further down the chain. Folding occupancy and deletion into one tag makes
// "deleted but never occupied" storage unrepresentable.
//
// # Probing
//
// Collisions are resolved by a Policy chosen at construction: Linear (step
// of one, the default) or Quadratic (steps of successive squares). A probe
// visits at most one table's worth of slots; a quadratic sequence that
// exhausts that budget without finding a usable slot causes the table to
// grow and the probe to retry against the new length. Linear probing covers
// the table in a single sweep and never needs the retry.
//
// # Growth
//
// The maximum load factor is fixed at one half. An insertion that would
// reach it doubles the capacity hint and rehashes: fresh storage is fully
// built and populated - every live entry reinserted in increasing slot
// order against the new length - before it replaces the old storage, so a
// failure mid-build leaves the table untouched. Tombstones are not counted
// by the load factor, but once live entries and tombstones together cover
// half the table an insertion rebuilds it at the current scale to shed
// them; otherwise churny delete/insert workloads could consume every empty
// slot and leave absent-key probes with no terminator. Rehashing never
// shrinks the capacity hint.
//
// # Hashing
//
// Keys are hashed with maphash.Comparable under a per-table seed. WithHash
// and WithEqual replace the hash and equality functions together when keys
// need non-standard identity (case-folded strings, for example); keys that
// compare equal must hash equal.
//
// # Iteration
//
// Iteration visits live entries in increasing slot order, which is neither
// insertion order nor hash order. All has the iter.Seq2 shape and works
// directly with range-over-func; Iter/Find return cursor positions for
// positional deletion. Any rehash invalidates all positions; deleting the
// entry at a position leaves it valid to advance from.
//
// A Map has unavoidable overhead relative to the runtime map (pluggable
// hashing and probing cost indirection); it exists for workloads that need
// control over collision resolution, explicit capacity management, and
// positional operations, not as a faster replacement.
package probing

import (
	"errors"
	"iter"
	"slices"
)

// ErrNotFound is returned by Map.At for a key with no entry.
var ErrNotFound = errors.New("probing: key not found")

// Map is an unordered collection of key/value pairs whose keys are unique.
// The zero value is not usable; create a Map with New or Init. A Map is not
// safe for concurrent use.
type Map[K comparable, V any] struct {
	t table[K, V]
}

// New constructs a Map with storage for expectedSize entries. With
// expectedSize 0 no storage is allocated until the first insertion.
func New[K comparable, V any](expectedSize int, options ...option[K]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(expectedSize, options...)
	return m
}

// Init initializes a Map, discarding any previous contents. It allows
// a Map embedded in another struct to be initialized without copying.
func (m *Map[K, V]) Init(expectedSize int, options ...option[K]) {
	cfg := defaultConfig[K]()
	for _, op := range options {
		op.apply(&cfg)
	}
	m.t.init(expectedSize, cfg)
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.t.used
}

// Empty reports whether the map holds no entries.
func (m *Map[K, V]) Empty() bool {
	return m.t.used == 0
}

// Cap returns the current capacity hint. Storage is always twice the hint;
// the hint grows on rehash and resets to zero on Clear.
func (m *Map[K, V]) Cap() int {
	return m.t.hint
}

// BucketCount returns the number of slots in the backing storage, which is
// always twice the capacity hint.
func (m *Map[K, V]) BucketCount() int {
	return len(m.t.slots)
}

// BucketSize returns the number of entries a single slot can hold, which is
// always 1: the table stores entries inline rather than chaining them.
func (m *Map[K, V]) BucketSize(int) int {
	return 1
}

// Bucket returns the slot index key hashes to before any probing, or 0 when
// no storage has been allocated.
func (m *Map[K, V]) Bucket(key K) int {
	return m.t.bucket(key)
}

// LoadFactor returns the ratio of entries to slots, or 1 for a map with no
// storage so that the first insertion allocates.
func (m *Map[K, V]) LoadFactor() float64 {
	return m.t.loadFactor()
}

// MaxLoadFactor returns the load factor at which insertion grows the
// storage. It is fixed at 0.5.
func (m *Map[K, V]) MaxLoadFactor() float64 {
	return maxLoadFactor
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	i, ok := m.t.locate(key, false)
	if !ok {
		return value, false
	}
	return m.t.slots[i].value, true
}

// At returns the value stored for key, or ErrNotFound if there is none. Use
// Get when a missing key is not exceptional.
func (m *Map[K, V]) At(key K) (V, error) {
	i, ok := m.t.locate(key, false)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return m.t.slots[i].value, nil
}

// Contains reports whether the map holds an entry for key.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.t.locate(key, false)
	return ok
}

// Count returns the number of entries for key: 0 or 1, keys being unique.
func (m *Map[K, V]) Count(key K) int {
	if m.Contains(key) {
		return 1
	}
	return 0
}

// Find returns the position of the entry for key, or the end position if
// there is none.
func (m *Map[K, V]) Find(key K) MapIter[K, V] {
	i, _ := m.t.locate(key, false)
	return MapIter[K, V]{t: &m.t, idx: i}
}

// EqualRange returns the half-open range of entries for key: a
// single-entry range when the key is present, an empty range at the end
// position when it is not.
func (m *Map[K, V]) EqualRange(key K) (first, last MapIter[K, V]) {
	first = m.Find(key)
	last = first
	if last.Valid() {
		last.Next()
	}
	return first, last
}

// Insert adds an entry for key if none is present and reports whether it
// did; an existing entry's value is left untouched. The returned position
// refers to the entry for key either way.
func (m *Map[K, V]) Insert(key K, value V) (MapIter[K, V], bool) {
	i, inserted := m.t.put(key)
	if inserted {
		m.t.slots[i].value = value
	}
	return MapIter[K, V]{t: &m.t, idx: i}, inserted
}

// Put sets the value for key, adding an entry if none is present.
// The bool result is true when an entry was added and false when an
// existing entry's value was overwritten.
func (m *Map[K, V]) Put(key K, value V) (MapIter[K, V], bool) {
	i, inserted := m.t.put(key)
	m.t.slots[i].value = value
	return MapIter[K, V]{t: &m.t, idx: i}, inserted
}

// InsertFunc adds an entry for key with the value returned by value().
// value is invoked only when an entry is actually added, so callers can
// defer expensive construction on the already-present path.
func (m *Map[K, V]) InsertFunc(key K, value func() V) (MapIter[K, V], bool) {
	i, inserted := m.t.put(key)
	if inserted {
		m.t.slots[i].value = value()
	}
	return MapIter[K, V]{t: &m.t, idx: i}, inserted
}

// Ref returns a pointer to the value for key, inserting a zero value first
// if no entry is present. The pointer is valid until the next operation
// that rehashes the map.
func (m *Map[K, V]) Ref(key K) *V {
	i, _ := m.t.put(key)
	return &m.t.slots[i].value
}

// InsertSeq adds an entry for every key of seq that is not already
// present, with Insert semantics: existing entries keep their values.
func (m *Map[K, V]) InsertSeq(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		m.Insert(k, v)
	}
}

// Delete removes the entry for key and reports whether there was one. The
// slot is vacated in place; storage is never released or rearranged by
// deletion.
func (m *Map[K, V]) Delete(key K) bool {
	i, ok := m.t.locate(key, false)
	if !ok {
		return false
	}
	m.t.erase(i)
	return true
}

// DeleteAt removes the entry at a position obtained from this map and
// returns the position advanced past it. A position that does not refer to
// a live entry of this map is returned unchanged.
func (m *Map[K, V]) DeleteAt(it MapIter[K, V]) MapIter[K, V] {
	if it.t == &m.t && it.idx < len(m.t.slots) && m.t.states[it.idx] == stateFull {
		m.t.erase(it.idx)
		it.Next()
	}
	return it
}

// DeleteRange removes every entry in the half-open position range
// [first, last) and returns the position at last. The bounds are typically
// obtained from Find, EqualRange, Iter or End on this map.
func (m *Map[K, V]) DeleteRange(first, last MapIter[K, V]) MapIter[K, V] {
	if first.t != &m.t {
		return first
	}
	end := len(m.t.slots)
	if last.t == &m.t && last.idx < end {
		end = last.idx
	}
	it := first
	for it.idx < end {
		next := m.t.nextLive(it.idx + 1)
		if m.t.states[it.idx] == stateFull {
			m.t.erase(it.idx)
		}
		it.idx = next
	}
	return it
}

// DeleteFunc removes every entry for which del returns true and returns
// the number removed. Deletion never rehashes, so the sweep is safe to run
// in place.
func (m *Map[K, V]) DeleteFunc(del func(key K, value V) bool) int {
	var deleted int
	for i := m.t.first; i < len(m.t.slots); i = m.t.nextLive(i + 1) {
		if del(m.t.slots[i].key, m.t.slots[i].value) {
			m.t.erase(i)
			deleted++
		}
	}
	return deleted
}

// Clear removes all entries and releases the backing storage, returning
// the map to its unallocated state with a capacity hint of zero.
func (m *Map[K, V]) Clear() {
	m.t.clear()
}

// Swap exchanges the contents of m and other in constant time, storage and
// configuration both. Positions obtained from either map are invalidated.
func (m *Map[K, V]) Swap(other *Map[K, V]) {
	m.t.swap(&other.t)
}

// Reserve grows the storage so that n entries fit without rehashing. It is
// a no-op when the current capacity already accommodates n.
func (m *Map[K, V]) Reserve(n int) {
	m.t.reserve(n)
}

// Rehash rebuilds the storage with capacity for at least n entries,
// shedding all tombstones; the capacity hint never shrinks. All positions
// are invalidated.
func (m *Map[K, V]) Rehash(n int) {
	m.t.rehash(n)
}

// All calls yield for every entry in slot order until yield returns false.
// It has the iter.Seq2 shape: for k, v := range m.All { ... }. The map must
// not grow during iteration; deleting the entry most recently yielded is
// allowed.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	for i := m.t.first; i < len(m.t.slots); i = m.t.nextLive(i + 1) {
		if !yield(m.t.slots[i].key, m.t.slots[i].value) {
			return
		}
	}
}

// Iter returns the position of the first entry in slot order, or the end
// position for an empty map.
func (m *Map[K, V]) Iter() MapIter[K, V] {
	return MapIter[K, V]{t: &m.t, idx: m.t.first}
}

// End returns the end position.
func (m *Map[K, V]) End() MapIter[K, V] {
	return MapIter[K, V]{t: &m.t, idx: len(m.t.slots)}
}

// Clone returns a map with the same entries, layout and configuration as
// m. The clone shares no storage with m.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{t: m.t}
	c.t.slots = slices.Clone(m.t.slots)
	c.t.states = slices.Clone(m.t.states)
	return c
}

// EqualFunc reports whether m and other hold the same keys with eq-equal
// values. Slot layout, insertion order, capacity and configuration do not
// participate; other's own equality function is used to look keys up in
// other.
func (m *Map[K, V]) EqualFunc(other *Map[K, V], eq func(a, b V) bool) bool {
	if m.t.used != other.t.used {
		return false
	}
	equal := true
	m.All(func(k K, v V) bool {
		ov, ok := other.Get(k)
		if !ok || !eq(v, ov) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// Equal reports whether two maps hold exactly the same key/value pairs,
// independent of insertion order and slot layout.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return a.EqualFunc(b, func(x, y V) bool { return x == y })
}
