// Copyright 2025 The Randprobe Authors
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

// Package randprobe implements a hash table from string keys to
// unsigned integer values built on open addressing with pseudo-random
// probing.
//
// # Pseudo-random probing
//
// All entries live directly in the bucket array; collisions are
// resolved by probing further buckets rather than by chaining. Unlike
// linear or quadratic probing, the visiting order is a fixed random
// permutation of bucket offsets generated once per table generation:
// for a key with hash h and capacity C the buckets visited are
// (h%C + offsets[i]) % C for i = 0, 1, ... where offsets[0] == 0 and
// offsets[1:] is a shuffle of {1, ..., C-1}. Every bucket is visited
// exactly once per full pass, so every operation terminates after at
// most C probes, and the randomized order breaks up the clustering
// that linear probing suffers from.
//
// # Tombstones
//
// Each bucket carries a three-valued lifecycle tag. A bucket that has
// never been occupied since the current generation began terminates a
// search (the key provably cannot exist past it), while a bucket
// vacated by Remove becomes a tombstone that searches must continue
// through. Insert refills the earliest tombstone seen on its walk in
// preference to virgin space, which keeps probe chains short. A resize
// starts a fresh generation with new offsets and drops all tombstones.
//
// Inserts keep the load factor below a configurable growth threshold
// (default 0.5) by growing the table by a configurable factor (default
// 2) and rehashing.
//
// A Map is NOT goroutine-safe.
package randprobe

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"lukechampine.com/frand"
)

const (
	defaultCapacity        = 8
	defaultGrowthThreshold = 0.5
	defaultGrowthFactor    = 2.0
)

// Map is an unordered map from string keys to uint64 values with
// Insert, Remove, Get, Contains, At, Keys, and All operations. The
// zero value for a Map is not usable; use New.
type Map struct {
	// buckets is the bucket array of the current generation. Its length
	// is the table capacity and never changes except by growth.
	buckets []bucket
	// offsets is the probe-offset permutation of the current
	// generation. len(offsets) == len(buckets) always; regenerated on
	// every capacity change.
	offsets []uint32
	// numFilled counts the buckets in stateFull.
	numFilled int
	// growthThreshold is the load factor at which a successful insert
	// triggers growth, in (0, 1].
	growthThreshold float64
	// growthFactor is the capacity multiplier applied on growth, > 1.
	growthFactor float64
	hash         func(key string) uint64
	// rng drives the offset shuffles. Owned by the map so that a seeded
	// map is self-contained and reproducible.
	rng *frand.RNG
}

// New constructs an empty Map with the specified initial capacity. An
// initialCapacity of 0 selects the default of 8. New panics if
// initialCapacity is negative or an option carries an out-of-range
// value, as both are programmer errors.
func New(initialCapacity int, options ...Option) *Map {
	if initialCapacity < 0 {
		panic(fmt.Sprintf("randprobe: negative initial capacity %d", initialCapacity))
	}
	if initialCapacity == 0 {
		initialCapacity = defaultCapacity
	}

	m := &Map{
		growthThreshold: defaultGrowthThreshold,
		growthFactor:    defaultGrowthFactor,
		hash:            xxhash.Sum64String,
		rng:             frand.New(),
	}
	for _, op := range options {
		op.apply(m)
	}
	if m.growthThreshold <= 0 || m.growthThreshold > 1 {
		panic(fmt.Sprintf("randprobe: growth threshold %v outside (0, 1]", m.growthThreshold))
	}
	if m.growthFactor <= 1 {
		panic(fmt.Sprintf("randprobe: growth factor %v must exceed 1", m.growthFactor))
	}

	m.buckets = make([]bucket, initialCapacity)
	m.offsets = makeOffsets(initialCapacity, m.rng)
	m.checkInvariants()
	return m
}

// Insert adds an entry to the map. It reports false, leaving the map
// unchanged, if the key is already present. Unlike assignment to a
// builtin map, Insert never overwrites; use At to update an existing
// value. A successful insert that pushes the load factor to the growth
// threshold grows the table before returning.
func (m *Map) Insert(key string, value uint64) bool {
	ok, _ := m.insert(key, value)
	return ok
}

// InsertProbed is Insert extended with the number of buckets probed.
func (m *Map) InsertProbed(key string, value uint64) (ok bool, probes int) {
	return m.insert(key, value)
}

// insert walks the probe sequence with a dual purpose: detect a
// duplicate and locate a slot. The walk only concludes the key absent
// at a never-occupied bucket or after a full pass, so a duplicate
// hiding beyond a tombstone is always found before anything is
// written. The earliest tombstone seen is preferred over the
// terminating empty bucket: refilling space abandoned earlier in the
// same chain keeps chains from creeping into virgin buckets.
func (m *Map) insert(key string, value uint64) (ok bool, probes int) {
	seq := makeProbeSeq(m.hash(key), m.offsets)
	target := -1
	firstDeleted := -1
	for n := 0; n < len(m.offsets); n++ {
		i := seq.at(n)
		probes = n + 1
		b := &m.buckets[i]
		if b.state == stateFull {
			if b.key == key {
				return false, probes
			}
			continue
		}
		if b.state == stateDeleted {
			if firstDeleted < 0 {
				firstDeleted = i
			}
			continue
		}
		target = i
		break
	}
	if firstDeleted >= 0 {
		target = firstDeleted
	}
	if target < 0 {
		// Every bucket is full or a tombstone and the key is absent.
		// Unreachable with a growth threshold below 1: growth runs
		// before the table can fill up.
		if invariants {
			panic("randprobe: insert found no empty bucket and no tombstone")
		}
		return false, probes
	}

	m.buckets[target].load(key, value)
	m.numFilled++
	// A single growth step can land exactly on the threshold again for
	// tiny capacities or shallow growth factors (capacity 1 doubling to
	// 2 holds one entry at a load of 0.5). Grow until the bound holds.
	for m.LoadFactor() >= m.growthThreshold {
		m.grow()
	}
	m.checkInvariants()
	return true, probes
}

// Remove deletes the entry for key, reporting false if the key is
// absent. The vacated bucket becomes a tombstone; capacity never
// shrinks.
func (m *Map) Remove(key string) bool {
	ok, _ := m.RemoveProbed(key)
	return ok
}

// RemoveProbed is Remove extended with the number of buckets probed.
func (m *Map) RemoveProbed(key string) (ok bool, probes int) {
	i, probes, ok := m.find(key)
	if !ok {
		return false, probes
	}
	m.buckets[i].unload()
	m.numFilled--
	m.checkInvariants()
	return true, probes
}

// Get retrieves the value stored for key, returning ok=false if the
// key is not present.
func (m *Map) Get(key string) (value uint64, ok bool) {
	value, ok, _ = m.GetProbed(key)
	return value, ok
}

// GetProbed is Get extended with the number of buckets probed.
func (m *Map) GetProbed(key string) (value uint64, ok bool, probes int) {
	i, probes, ok := m.find(key)
	if !ok {
		return 0, false, probes
	}
	return m.buckets[i].value, true, probes
}

// Contains reports whether key is present in the map.
func (m *Map) Contains(key string) bool {
	_, _, ok := m.find(key)
	return ok
}

// At returns a pointer to the value stored for key, inserting the key
// with a value of 0 first if it is absent. m.At(k) approximates the
// builtin map expression &m[k]: reads and writes through the pointer
// operate on the live entry. The pointer is only valid until the next
// structural mutation of the map (Insert, Remove, or At of an absent
// key); growth moves every entry.
func (m *Map) At(key string) *uint64 {
	i, _, ok := m.find(key)
	if !ok {
		m.insert(key, 0)
		i, _, ok = m.find(key)
		if !ok {
			panic("randprobe: key not found immediately after insert")
		}
	}
	return &m.buckets[i].value
}

// find walks the probe sequence for key and returns the index of the
// bucket holding it along with the number of buckets probed. ok is
// false if the key is absent, decided either by reaching a
// never-occupied bucket or, when occupied buckets and tombstones cover
// the table, by exhausting a full pass. find has no side effects; the
// returned index is valid until the next structural mutation.
func (m *Map) find(key string) (i, probes int, ok bool) {
	seq := makeProbeSeq(m.hash(key), m.offsets)
	for n := 0; n < len(m.offsets); n++ {
		idx := seq.at(n)
		b := &m.buckets[idx]
		switch b.state {
		case stateEmpty:
			return 0, n + 1, false
		case stateFull:
			if b.key == key {
				return idx, n + 1, true
			}
		}
		// Tombstones and non-matching keys keep the walk going.
	}
	return 0, len(m.offsets), false
}

// grow starts a new generation: a bucket array enlarged by the growth
// factor and a freshly shuffled offset permutation. Live entries are
// re-inserted through a simplified path (the new generation has no
// tombstones and can hold no duplicates, and growth checks would be
// circular), then the new arrays are swapped in as one step. The scan
// of the old generation stops as soon as every live entry has
// migrated. All tombstones die with the old generation.
func (m *Map) grow() {
	newCapacity := int(float64(len(m.buckets)) * m.growthFactor)
	if newCapacity <= len(m.buckets) {
		newCapacity = len(m.buckets) + 1
	}

	next := Map{
		buckets: make([]bucket, newCapacity),
		offsets: makeOffsets(newCapacity, m.rng),
		hash:    m.hash,
	}
	migrated := 0
	for i := range m.buckets {
		if migrated == m.numFilled {
			break
		}
		b := &m.buckets[i]
		if b.state != stateFull {
			continue
		}
		next.uncheckedInsert(b.key, b.value)
		migrated++
	}

	m.buckets = next.buckets
	m.offsets = next.offsets
}

// uncheckedInsert places an entry known to be absent into a generation
// known to be free of tombstones. Only the migration loop in grow uses
// it.
func (m *Map) uncheckedInsert(key string, value uint64) {
	seq := makeProbeSeq(m.hash(key), m.offsets)
	for n := 0; n < len(m.offsets); n++ {
		if b := &m.buckets[seq.at(n)]; b.state == stateEmpty {
			b.load(key, value)
			return
		}
	}
	panic("randprobe: no empty bucket while migrating")
}

// Len returns the number of entries in the map.
func (m *Map) Len() int {
	return m.numFilled
}

// Cap returns the total number of buckets, occupied or not.
func (m *Map) Cap() int {
	return len(m.buckets)
}

// LoadFactor returns Len divided by Cap. After any successful Insert
// it is below the growth threshold.
func (m *Map) LoadFactor() float64 {
	return float64(m.numFilled) / float64(len(m.buckets))
}

// Keys returns the keys currently present. The scan runs in physical
// bucket order and stops once every live entry has been seen, so it
// costs O(Cap) at worst. The order carries no meaning; treat the
// result as a set.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.numFilled)
	for i := range m.buckets {
		if len(keys) == m.numFilled {
			break
		}
		if b := &m.buckets[i]; b.state == stateFull {
			keys = append(keys, b.key)
		}
	}
	return keys
}

// All calls yield for each key and value present in the map, in
// physical bucket order, stopping early if yield returns false. The
// map must not be mutated during iteration.
func (m *Map) All(yield func(key string, value uint64) bool) {
	for i := range m.buckets {
		if b := &m.buckets[i]; b.state == stateFull {
			if !yield(b.key, b.value) {
				return
			}
		}
	}
}

// String renders the occupied buckets in physical order, one
// "index: <key, value>" line per entry. For diagnostics only; the
// format is not stable.
func (m *Map) String() string {
	var buf strings.Builder
	for i := range m.buckets {
		if b := &m.buckets[i]; b.state == stateFull {
			fmt.Fprintf(&buf, "%d: <%s, %d>\n", i, b.key, b.value)
		}
	}
	return buf.String()
}

func (m *Map) checkInvariants() {
	if invariants {
		if len(m.offsets) != len(m.buckets) {
			panic(fmt.Sprintf("invariant failed: %d offsets for %d buckets\n%s",
				len(m.offsets), len(m.buckets), m.debugString()))
		}
		if m.offsets[0] != 0 {
			panic(fmt.Sprintf("invariant failed: offsets[0]=%d, want 0\n%s",
				m.offsets[0], m.debugString()))
		}
		seen := make([]bool, len(m.offsets))
		for _, off := range m.offsets {
			if int(off) >= len(m.offsets) || seen[off] {
				panic(fmt.Sprintf("invariant failed: offsets are not a permutation of [0,%d)\n%s",
					len(m.offsets), m.debugString()))
			}
			seen[off] = true
		}

		// Count the live buckets and verify each one is reachable via
		// its own probe sequence.
		var full int
		for i := range m.buckets {
			b := &m.buckets[i]
			if b.state != stateFull {
				continue
			}
			full++
			if j, _, ok := m.find(b.key); !ok || j != i {
				panic(fmt.Sprintf("invariant failed: bucket %d key %q not found by probing\n%s",
					i, b.key, m.debugString()))
			}
		}
		if full != m.numFilled {
			panic(fmt.Sprintf("invariant failed: scan found %d full buckets, counter says %d\n%s",
				full, m.numFilled, m.debugString()))
		}
	}
}

func (m *Map) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d filled=%d threshold=%v factor=%v\n",
		len(m.buckets), m.numFilled, m.growthThreshold, m.growthFactor)
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.state {
		case stateFull:
			fmt.Fprintf(&buf, "  %4d: <%s, %d>\n", i, b.key, b.value)
		default:
			fmt.Fprintf(&buf, "  %4d: %s\n", i, b.state)
		}
	}
	return buf.String()
}
