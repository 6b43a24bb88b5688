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
	"fmt"
	"hash/maphash"
	"strings"
)

const (
	debug = false

	// maxLoadFactor is the live-entry fraction at which an insertion grows
	// the table. Fixed at one half; see the package comment.
	maxLoadFactor = 0.5
)

// state describes one slot of a table. The zero value is stateEmpty, so
// freshly allocated storage needs no initialization pass.
type state uint8

const (
	stateEmpty   state = iota // never held an entry since the last rehash
	stateFull                 // holds a live entry
	stateDeleted              // vacated by a deletion; reusable, skipped by lookups
)

type slot[K comparable, V any] struct {
	key   K
	value V
}

// table is the open-addressing engine shared by Map and Set. A Set is a
// table whose value type is struct{}, which occupies no space in the slot.
//
// slots and states are parallel arrays of length 2*hint. states[i] describes
// slots[i]; a slot's payload is meaningful only when its state is stateFull.
// Probe sequences terminate at stateEmpty slots, walk through stateDeleted
// slots, and stop at a stateFull slot only on a key match, so a deleted slot
// preserves the reachability of every entry inserted after the chain passed
// through it while remaining reusable by a later insertion.
//
// first caches the smallest index holding a live entry, or len(slots) (the
// sentinel) when there is none. It is derived state: put, erase, rehash and
// clear are the only writers, and checkInvariants re-derives it from a full
// scan.
type table[K comparable, V any] struct {
	slots  []slot[K, V]
	states []state
	// hint is the capacity hint: storage is always exactly twice the hint.
	// It grows on rehash and never shrinks while the table is in use; clear
	// resets it to zero along with the storage.
	hint int
	// used counts live entries; tombs counts tombstones. used+tombs is the
	// number of slots a probe cannot terminate at.
	used  int
	tombs int
	first int

	seed   maphash.Seed
	hash   func(maphash.Seed, K) uint64
	equal  func(K, K) bool
	policy Policy
}

func (t *table[K, V]) init(expectedSize int, cfg config[K]) {
	if expectedSize < 0 {
		expectedSize = 0
	}
	*t = table[K, V]{
		hint:   expectedSize,
		seed:   maphash.MakeSeed(),
		hash:   cfg.hash,
		equal:  cfg.equal,
		policy: cfg.policy,
	}
	if expectedSize > 0 {
		t.slots = make([]slot[K, V], 2*expectedSize)
		t.states = make([]state, 2*expectedSize)
	}
	t.first = len(t.slots)
}

// locate resolves the slot for key, visiting at most len(slots) candidates
// along the policy's probe sequence.
//
// For a lookup (forInsert=false) it returns the index of the live slot
// holding key, or len(slots) when the key is absent. Tombstones are walked
// through without touching their payload.
//
// For an insertion (forInsert=true) it returns either the live slot holding
// key (exists=true) or the slot the key should claim (exists=false): the
// first tombstone on the probe path if the walk later reached an empty slot
// or exhausted its budget, else the empty slot that terminated the walk.
// Remembering the tombstone instead of stopping at it keeps a key from being
// inserted twice when a tombstone shadows a live occurrence further down the
// chain. If the walk exhausts its budget with no reusable slot at all, it
// returns len(slots) and the caller grows the table and retries; linear
// probing cannot hit this case since it covers the table in one sweep.
func (t *table[K, V]) locate(key K, forInsert bool) (idx int, exists bool) {
	n := len(t.slots)
	if n == 0 {
		return n, false
	}
	start := int(t.hash(t.seed, key) % uint64(n))
	seq := t.policy(start, n)
	reuse := n

	i := start
	for visited := 0; visited < n; visited++ {
		switch t.states[i] {
		case stateEmpty:
			if forInsert && reuse < n {
				return reuse, false
			}
			if forInsert {
				return i, false
			}
			return n, false
		case stateFull:
			if t.equal(t.slots[i].key, key) {
				return i, true
			}
		case stateDeleted:
			if forInsert && reuse == n {
				reuse = i
			}
		}
		i = seq.Next()
	}
	if forInsert {
		return reuse, false
	}
	return n, false
}

// put claims a slot for key, growing the table first if the insertion would
// push the load factor to the threshold. It writes the key and updates the
// bookkeeping but leaves the value channel to the caller. A freshly claimed
// slot holds the zero value (fresh storage and erase both zero the payload),
// which callers may keep or overwrite.
func (t *table[K, V]) put(key K) (idx int, inserted bool) {
	t.maybeRehash()
	i, exists := t.locate(key, true)
	for !exists && i == len(t.slots) {
		// The probe exhausted its budget without finding a reusable slot
		// (possible for quadratic probing, whose sequence need not cover
		// the table). Growing changes the modulus and the starting slot,
		// giving the retry a fresh sequence.
		t.rehash(2 * t.hint)
		i, exists = t.locate(key, true)
	}
	if exists {
		return i, false
	}
	if t.states[i] == stateDeleted {
		t.tombs--
	}
	t.states[i] = stateFull
	t.slots[i].key = key
	if t.used == 0 || i < t.first {
		t.first = i
	}
	t.used++
	if debug {
		fmt.Printf("put: key=%v claimed slot %d (used=%d)\n", key, i, t.used)
	}
	if invariants {
		t.checkInvariants()
	}
	return i, true
}

// erase vacates slot i, which must hold a live entry. The payload is zeroed
// so the GC can reclaim whatever it referenced; no operation reads a
// tombstone's payload.
func (t *table[K, V]) erase(i int) {
	t.states[i] = stateDeleted
	t.slots[i] = slot[K, V]{}
	t.used--
	t.tombs++
	if i == t.first {
		t.first = t.nextLive(i + 1)
	}
	if invariants {
		t.checkInvariants()
	}
}

// nextLive returns the smallest index >= i holding a live entry, or
// len(slots) when there is none.
func (t *table[K, V]) nextLive(i int) int {
	for ; i < len(t.slots) && t.states[i] != stateFull; i++ {
	}
	return i
}

// loadFactor is the live-entry fraction of the storage. An uninitialized
// table reports 1 so that the first insertion materializes storage through
// the ordinary growth path.
func (t *table[K, V]) loadFactor() float64 {
	if t.hint == 0 {
		return 1
	}
	return float64(t.used) / float64(len(t.slots))
}

// maybeRehash grows the table ahead of an insertion. It runs on every
// insertion attempt, before the key is resolved, so inserting a key that
// turns out to be present can still grow the table.
func (t *table[K, V]) maybeRehash() {
	if t.loadFactor() >= maxLoadFactor {
		t.rehash(2 * t.hint)
	} else if n := len(t.slots); n > 0 && 2*(t.used+t.tombs) >= n {
		// Tombstones plus live entries cover half the table. The load
		// factor alone would not trigger growth, but probes terminate only
		// at empty slots, so rebuild at the current scale to shed the
		// tombstones before they can swallow the last empty slot. This
		// bypasses the sizing rule: a fill/drain cycle sheds tombstones
		// every round and must not grow the table each time it does.
		t.rehashToHint(t.hint)
	}
}

// rehash replaces the storage with fresh storage sized for target and
// reinserts every live entry in increasing slot order, recomputing probe
// positions against the new length. The fresh storage is fully built before
// it replaces the old storage, so a failure mid-build (an allocation panic)
// leaves the table exactly as it was. All tombstones are shed and every
// previously obtained position is invalidated.
func (t *table[K, V]) rehash(target int) {
	t.rehashToHint(t.nextHint(target))
}

func (t *table[K, V]) rehashToHint(hint int) {
	for {
		fresh, ok := t.rebuild(hint)
		if !ok {
			hint *= 2
			continue
		}
		if debug {
			fmt.Printf("rehash: hint %d -> %d (%d live, %d tombstones shed)\n",
				t.hint, hint, fresh.used, t.tombs)
		}
		t.slots = fresh.slots
		t.states = fresh.states
		t.hint = fresh.hint
		t.used = fresh.used
		t.tombs = 0
		t.first = fresh.first
		if invariants {
			t.checkInvariants()
		}
		return
	}
}

// nextHint computes the capacity hint honoring a rehash request: 2 for the
// first materialization, 2*used+2 when the request is below what the live
// entries need, else target+1. The hint never shrinks, even for explicit
// requests below the current capacity.
func (t *table[K, V]) nextHint(target int) int {
	var hint int
	switch {
	case target == 0 && len(t.slots) == 0:
		hint = 2
	case target < 2*t.used:
		hint = 2*t.used + 2
	default:
		hint = target + 1
	}
	if hint < t.hint {
		hint = t.hint
	}
	return hint
}

// rebuild populates fresh storage of length 2*hint with every live entry of
// t, leaving t untouched. ok=false reports that some entry's probe exhausted
// its budget without reaching an empty slot; the caller retries with a
// larger hint.
func (t *table[K, V]) rebuild(hint int) (_ table[K, V], ok bool) {
	fresh := table[K, V]{
		slots:  make([]slot[K, V], 2*hint),
		states: make([]state, 2*hint),
		hint:   hint,
		first:  2 * hint,
		seed:   t.seed,
		hash:   t.hash,
		equal:  t.equal,
		policy: t.policy,
	}
	for i, st := range t.states {
		if st != stateFull {
			continue
		}
		j, exists := fresh.locate(t.slots[i].key, true)
		if exists {
			// Live keys are unique, so a match here means the hash and
			// equality functions disagree (equal keys must hash equal).
			panic("probing: duplicate key during rehash")
		}
		if j == len(fresh.slots) {
			return table[K, V]{}, false
		}
		fresh.states[j] = stateFull
		fresh.slots[j] = t.slots[i]
		if fresh.used == 0 || j < fresh.first {
			fresh.first = j
		}
		fresh.used++
	}
	return fresh, true
}

// reserve grows the table so that at least n entries fit without further
// growth. Requests already covered by the current capacity are a no-op.
func (t *table[K, V]) reserve(n int) {
	if n > 2*t.used+2 {
		t.rehash(n)
	}
}

// clear resets the table to its uninitialized state, releasing the storage.
// The sentinel of a zero-length table is 0, so first is left pointing at it.
func (t *table[K, V]) clear() {
	t.slots = nil
	t.states = nil
	t.hint = 0
	t.used = 0
	t.tombs = 0
	t.first = 0
}

// swap exchanges the contents of two tables, storage and configuration
// both, without touching individual slots. Entries keep the hash, equality
// and policy they were placed with.
func (t *table[K, V]) swap(o *table[K, V]) {
	*t, *o = *o, *t
}

// bucket is the slot index key hashes to before probing, or 0 for a table
// with no storage.
func (t *table[K, V]) bucket(key K) int {
	if len(t.slots) == 0 {
		return 0
	}
	return int(t.hash(t.seed, key) % uint64(len(t.slots)))
}

// checkInvariants verifies the structural invariants by full scan: the
// parallel arrays agree with the hint, the counters match the states, first
// is the smallest live index, and every live key locates back to its own
// slot. Callers gate on the invariants build tag.
func (t *table[K, V]) checkInvariants() {
	if len(t.slots) != len(t.states) {
		panic(fmt.Sprintf("probing: %d slots but %d states", len(t.slots), len(t.states)))
	}
	if len(t.slots) != 2*t.hint {
		panic(fmt.Sprintf("probing: storage length %d with capacity hint %d", len(t.slots), t.hint))
	}
	var used, tombs int
	first := len(t.slots)
	for i, st := range t.states {
		switch st {
		case stateEmpty:
		case stateFull:
			used++
			if i < first {
				first = i
			}
			if j, ok := t.locate(t.slots[i].key, false); !ok || j != i {
				panic(fmt.Sprintf("probing: live key at slot %d locates to %d (found=%t)\n%s",
					i, j, ok, t.debugString()))
			}
		case stateDeleted:
			tombs++
		default:
			panic(fmt.Sprintf("probing: invalid state %d at slot %d", st, i))
		}
	}
	if used != t.used {
		panic(fmt.Sprintf("probing: used=%d but %d slots are live\n%s", t.used, used, t.debugString()))
	}
	if tombs != t.tombs {
		panic(fmt.Sprintf("probing: tombs=%d but %d slots are tombstones", t.tombs, tombs))
	}
	if first != t.first {
		panic(fmt.Sprintf("probing: first=%d but the first live slot is %d\n%s",
			t.first, first, t.debugString()))
	}
}

func (t *table[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "hint=%d used=%d tombs=%d first=%d len=%d\n",
		t.hint, t.used, t.tombs, t.first, len(t.slots))
	for i, st := range t.states {
		switch st {
		case stateFull:
			fmt.Fprintf(&buf, "  %4d: %v = %v\n", i, t.slots[i].key, t.slots[i].value)
		case stateDeleted:
			fmt.Fprintf(&buf, "  %4d: tombstone\n", i)
		}
	}
	return buf.String()
}
