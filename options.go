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

package randprobe

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// Option provides an interface to do work on a Map while it is being
// created.
type Option interface {
	apply(m *Map)
}

type growthThresholdOption float64

func (op growthThresholdOption) apply(m *Map) {
	m.growthThreshold = float64(op)
}

// WithGrowthThreshold is an option to set the load factor at which an
// insert triggers growth. The threshold must be in (0, 1]; the default
// is 0.5. A threshold of 1 grows the table only when it is completely
// full.
func WithGrowthThreshold(threshold float64) Option {
	return growthThresholdOption(threshold)
}

type growthFactorOption float64

func (op growthFactorOption) apply(m *Map) {
	m.growthFactor = float64(op)
}

// WithGrowthFactor is an option to set the capacity multiplier applied
// on growth. The factor must be greater than 1; the default is 2.
func WithGrowthFactor(factor float64) Option {
	return growthFactorOption(factor)
}

type seedOption uint64

func (op seedOption) apply(m *Map) {
	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], uint64(op))
	m.rng = frand.NewCustom(seed[:], 1024, 12)
}

// WithSeed is an option to seed the random source used for the probe
// offset shuffles. Two maps constructed with the same seed and capacity
// generate identical probe sequences, which makes probing reproducible
// in tests. By default each map owns a randomly seeded source.
func WithSeed(seed uint64) Option {
	return seedOption(seed)
}

type hashOption func(key string) uint64

func (op hashOption) apply(m *Map) {
	m.hash = op
}

// WithHash is an option to specify the hash function to use for a Map.
// The default is xxhash. Mainly useful for exercising degenerate hash
// distributions in tests.
func WithHash(hash func(key string) uint64) Option {
	return hashOption(hash)
}
