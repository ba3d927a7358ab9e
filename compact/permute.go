// Package compact implements the Id Permuter & Compactor (spec §4.2,
// component C2): a bijective 64-bit hash that scrambles adversarial
// locality, and a two-pass distributed remap of the edge list's distinct
// endpoints onto a dense [0,|V|) range.
package compact

import (
	"github.com/ScottSallinen/parconnect/engine"
)

// hash64 is Thomas Wang's 64-bit integer hash: a bijection on
// [0, 2^64), grounded on the reference invertible-hash implementation
// bundled with the original source. Because it's a bijection, applying
// it to every endpoint can never collide two distinct vertices, so
// connectivity (which pairs are equal) is preserved exactly (spec §4.2
// "Permute").
func hash64(key uint64) uint64 {
	key = ^key + (key << 21)
	key = key ^ (key >> 24)
	key = key + (key << 3) + (key << 8)
	key = key ^ (key >> 14)
	key = key + (key << 2) + (key << 4)
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

// hash64Invert inverts hash64; kept alongside it (as the reference
// implementation does) because a bijective hash is only trustworthy if
// its inverse is known to exist and is exercised by tests.
func hash64Invert(key uint64) uint64 {
	tmp := key - (key << 31)
	key = key - (tmp << 31)

	tmp = key ^ (key >> 28)
	tmp = key ^ (tmp >> 28)
	tmp = key ^ (tmp >> 28)
	key = key ^ (tmp >> 28)

	key = key * 14933078535860113213

	tmp = key ^ (key >> 14)
	tmp = key ^ (tmp >> 14)
	tmp = key ^ (tmp >> 14)
	key = key ^ (tmp >> 14)

	key = key * 15244667743933553977

	tmp = key ^ (key >> 24)
	key = key ^ (tmp >> 24)

	tmp = ^key
	tmp = ^(key - (tmp << 21))
	tmp = ^(key - (tmp << 21))
	key = ^(key - (tmp << 21))
	return key
}

// mix salts the Thomas-Wang hash with a run seed by XOR-folding, so
// distinct config.Config.PermutationSeed values produce distinct
// (still-bijective) permutations.
func mix(key, seed uint64) uint64 {
	return hash64(key ^ seed)
}

// Permute applies the seeded bijective hash to both endpoints of every
// edge in place. Purpose (spec §4.2): destroy adversarial locality
// before the coloring engine so every label-propagation bucket is close
// to uniformly distributed across ranks.
func Permute(bus *engine.EdgeBus, seed uint64) {
	for i, e := range bus.Edges {
		bus.Edges[i] = engine.Edge{Src: mix(e.Src, seed), Dst: mix(e.Dst, seed)}
	}
}
