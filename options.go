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

import "hash/maphash"

// option provides an interface to do work on a Map or Set while it is being
// created. Map[K,V] and Set[K] share the same options; only the key type
// participates in configuration.
type option[K comparable] interface {
	apply(c *config[K])
}

// config collects the per-table configuration resolved from options.
type config[K comparable] struct {
	hash   func(maphash.Seed, K) uint64
	equal  func(K, K) bool
	policy Policy
}

func defaultConfig[K comparable]() config[K] {
	return config[K]{
		hash:   maphash.Comparable[K],
		equal:  func(a, b K) bool { return a == b },
		policy: Linear,
	}
}

type hashOption[K comparable] struct {
	hash func(maphash.Seed, K) uint64
}

func (op hashOption[K]) apply(c *config[K]) {
	c.hash = op.hash
}

// WithHash is an option to specify the hash function to use for a Map[K,V]
// or Set[K]. The default is maphash.Comparable. A custom hash must agree
// with the equality function: keys that compare equal must hash equal. The
// seed argument is the table's own seed and may be ignored by hashes with a
// fixed seed of their own.
func WithHash[K comparable](hash func(seed maphash.Seed, key K) uint64) option[K] {
	return hashOption[K]{hash}
}

type equalOption[K comparable] struct {
	equal func(K, K) bool
}

func (op equalOption[K]) apply(c *config[K]) {
	c.equal = op.equal
}

// WithEqual is an option to specify the key equality function to use for a
// Map[K,V] or Set[K]. The default is ==. A custom equality coarser than ==
// (for example case-insensitive string comparison) requires a hash that is
// constant across each equivalence class.
func WithEqual[K comparable](equal func(a, b K) bool) option[K] {
	return equalOption[K]{equal}
}

type policyOption[K comparable] struct {
	policy Policy
}

func (op policyOption[K]) apply(c *config[K]) {
	c.policy = op.policy
}

// WithPolicy is an option to specify the collision-resolution policy to use
// for a Map[K,V] or Set[K]. The default is Linear.
func WithPolicy[K comparable](policy Policy) option[K] {
	return policyOption[K]{policy}
}
