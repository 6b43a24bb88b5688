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

// A Sequence enumerates the candidate slot indices visited while resolving a
// single lookup or insertion. The first candidate is the slot the key hashes
// to; each call to Next yields the subsequent candidate. A Sequence carries no
// state beyond its current position (and, for quadratic probing, a step
// counter), and is discarded when the probe terminates.
type Sequence interface {
	// Next returns the next candidate slot index in [0, mod).
	Next() int
}

// A Policy mints the probe sequence used to resolve collisions. It is invoked
// once per lookup or insertion with the starting slot index and the current
// table length, which serves as the modulus for every step. The same Policy
// must be used for the lifetime of a table: entries are placed along the
// sequences it generates and are only findable along those same sequences.
type Policy func(start, mod int) Sequence

// Linear probing advances one slot at a time: next = (prev + 1) mod m. It
// visits every slot in m steps, so probes always terminate within one sweep
// of the table. This is the default policy.
func Linear(start, mod int) Sequence {
	return &linearSeq{current: start, mod: mod}
}

// Quadratic probing advances by successive squares: next = (prev + step*step)
// mod m with step = 1, 2, 3, ... It disperses collision clusters better than
// linear probing but is not guaranteed to visit every slot for an arbitrary
// modulus, so callers bound the walk and grow the table when a probe
// exhausts its budget.
func Quadratic(start, mod int) Sequence {
	return &quadraticSeq{current: start, mod: mod, step: 1}
}

type linearSeq struct {
	current int
	mod     int
}

func (s *linearSeq) Next() int {
	s.current = (s.current + 1) % s.mod
	return s.current
}

type quadraticSeq struct {
	current int
	mod     int
	step    int
}

func (s *quadraticSeq) Next() int {
	s.current = (s.current + s.step*s.step) % s.mod
	s.step++
	return s.current
}
