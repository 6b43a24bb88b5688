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

import (
	"iter"
	"slices"
)

// Set is an unordered collection of unique keys. It is a view over the same
// table engine as Map with a zero-size value type, so every growth,
// probing, deletion and iteration behavior described for Map applies to a
// Set as well. The zero value is not usable; create a Set with NewSet or
// Init. A Set is not safe for concurrent use.
type Set[K comparable] struct {
	t table[K, struct{}]
}

// NewSet constructs a Set with storage for expectedSize keys. With
// expectedSize 0 no storage is allocated until the first insertion.
func NewSet[K comparable](expectedSize int, options ...option[K]) *Set[K] {
	s := &Set[K]{}
	s.Init(expectedSize, options...)
	return s
}

// Init initializes a Set, discarding any previous contents. It allows a
// Set embedded in another struct to be initialized without copying.
func (s *Set[K]) Init(expectedSize int, options ...option[K]) {
	cfg := defaultConfig[K]()
	for _, op := range options {
		op.apply(&cfg)
	}
	s.t.init(expectedSize, cfg)
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.t.used
}

// Empty reports whether the set holds no keys.
func (s *Set[K]) Empty() bool {
	return s.t.used == 0
}

// Cap returns the current capacity hint. Storage is always twice the hint;
// the hint grows on rehash and resets to zero on Clear.
func (s *Set[K]) Cap() int {
	return s.t.hint
}

// BucketCount returns the number of slots in the backing storage, which is
// always twice the capacity hint.
func (s *Set[K]) BucketCount() int {
	return len(s.t.slots)
}

// BucketSize returns the number of keys a single slot can hold, which is
// always 1.
func (s *Set[K]) BucketSize(int) int {
	return 1
}

// Bucket returns the slot index key hashes to before any probing, or 0
// when no storage has been allocated.
func (s *Set[K]) Bucket(key K) int {
	return s.t.bucket(key)
}

// LoadFactor returns the ratio of keys to slots, or 1 for a set with no
// storage so that the first insertion allocates.
func (s *Set[K]) LoadFactor() float64 {
	return s.t.loadFactor()
}

// MaxLoadFactor returns the load factor at which insertion grows the
// storage. It is fixed at 0.5.
func (s *Set[K]) MaxLoadFactor() float64 {
	return maxLoadFactor
}

// Contains reports whether key is in the set.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.t.locate(key, false)
	return ok
}

// Count returns the number of occurrences of key: 0 or 1, keys being
// unique.
func (s *Set[K]) Count(key K) int {
	if s.Contains(key) {
		return 1
	}
	return 0
}

// Find returns the position of key, or the end position if it is not in
// the set.
func (s *Set[K]) Find(key K) SetIter[K] {
	i, _ := s.t.locate(key, false)
	return SetIter[K]{t: &s.t, idx: i}
}

// EqualRange returns the half-open range of occurrences of key: a
// single-key range when present, an empty range at the end position when
// not.
func (s *Set[K]) EqualRange(key K) (first, last SetIter[K]) {
	first = s.Find(key)
	last = first
	if last.Valid() {
		last.Next()
	}
	return first, last
}

// Insert adds key to the set if not already present and reports whether it
// did. The returned position refers to key either way.
func (s *Set[K]) Insert(key K) (SetIter[K], bool) {
	i, inserted := s.t.put(key)
	return SetIter[K]{t: &s.t, idx: i}, inserted
}

// InsertSeq adds every key of seq that is not already present.
func (s *Set[K]) InsertSeq(seq iter.Seq[K]) {
	for k := range seq {
		s.Insert(k)
	}
}

// Delete removes key from the set and reports whether it was present. The
// slot is vacated in place; storage is never released or rearranged by
// deletion.
func (s *Set[K]) Delete(key K) bool {
	i, ok := s.t.locate(key, false)
	if !ok {
		return false
	}
	s.t.erase(i)
	return true
}

// DeleteAt removes the key at a position obtained from this set and
// returns the position advanced past it. A position that does not refer to
// a live key of this set is returned unchanged.
func (s *Set[K]) DeleteAt(it SetIter[K]) SetIter[K] {
	if it.t == &s.t && it.idx < len(s.t.slots) && s.t.states[it.idx] == stateFull {
		s.t.erase(it.idx)
		it.Next()
	}
	return it
}

// DeleteRange removes every key in the half-open position range
// [first, last) and returns the position at last.
func (s *Set[K]) DeleteRange(first, last SetIter[K]) SetIter[K] {
	if first.t != &s.t {
		return first
	}
	end := len(s.t.slots)
	if last.t == &s.t && last.idx < end {
		end = last.idx
	}
	it := first
	for it.idx < end {
		next := s.t.nextLive(it.idx + 1)
		if s.t.states[it.idx] == stateFull {
			s.t.erase(it.idx)
		}
		it.idx = next
	}
	return it
}

// DeleteFunc removes every key for which del returns true and returns the
// number removed.
func (s *Set[K]) DeleteFunc(del func(key K) bool) int {
	var deleted int
	for i := s.t.first; i < len(s.t.slots); i = s.t.nextLive(i + 1) {
		if del(s.t.slots[i].key) {
			s.t.erase(i)
			deleted++
		}
	}
	return deleted
}

// Clear removes all keys and releases the backing storage, returning the
// set to its unallocated state with a capacity hint of zero.
func (s *Set[K]) Clear() {
	s.t.clear()
}

// Swap exchanges the contents of s and other in constant time, storage and
// configuration both. Positions obtained from either set are invalidated.
func (s *Set[K]) Swap(other *Set[K]) {
	s.t.swap(&other.t)
}

// Reserve grows the storage so that n keys fit without rehashing. It is a
// no-op when the current capacity already accommodates n.
func (s *Set[K]) Reserve(n int) {
	s.t.reserve(n)
}

// Rehash rebuilds the storage with capacity for at least n keys, shedding
// all tombstones; the capacity hint never shrinks. All positions are
// invalidated.
func (s *Set[K]) Rehash(n int) {
	s.t.rehash(n)
}

// All calls yield for every key in slot order until yield returns false.
// It has the iter.Seq shape: for k := range s.All { ... }. The set must not
// grow during iteration; deleting the key most recently yielded is allowed.
func (s *Set[K]) All(yield func(key K) bool) {
	for i := s.t.first; i < len(s.t.slots); i = s.t.nextLive(i + 1) {
		if !yield(s.t.slots[i].key) {
			return
		}
	}
}

// Iter returns the position of the first key in slot order, or the end
// position for an empty set.
func (s *Set[K]) Iter() SetIter[K] {
	return SetIter[K]{t: &s.t, idx: s.t.first}
}

// End returns the end position.
func (s *Set[K]) End() SetIter[K] {
	return SetIter[K]{t: &s.t, idx: len(s.t.slots)}
}

// Clone returns a set with the same keys, layout and configuration as s.
// The clone shares no storage with s.
func (s *Set[K]) Clone() *Set[K] {
	c := &Set[K]{t: s.t}
	c.t.slots = slices.Clone(s.t.slots)
	c.t.states = slices.Clone(s.t.states)
	return c
}

// Equal reports whether s and other hold exactly the same keys,
// independent of insertion order and slot layout. other's own equality
// function is used to look keys up in other.
func (s *Set[K]) Equal(other *Set[K]) bool {
	if s.t.used != other.t.used {
		return false
	}
	equal := true
	s.All(func(k K) bool {
		if !other.Contains(k) {
			equal = false
			return false
		}
		return true
	})
	return equal
}
