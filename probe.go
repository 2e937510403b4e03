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

import "lukechampine.com/frand"

// makeOffsets builds the probe-offset permutation for a generation of
// the given capacity. offsets[0] is always 0 so that the home bucket is
// probed first; offsets[1:] is a uniformly random permutation of
// {1, ..., capacity-1}. Because the offsets are a bijection on
// [0, capacity), walking (home+offsets[i]) mod capacity visits every
// bucket exactly once per full pass, which guarantees both termination
// and completeness of a search.
func makeOffsets(capacity int, rng *frand.RNG) []uint32 {
	offsets := make([]uint32, capacity)
	for i := range offsets {
		offsets[i] = uint32(i)
	}
	rng.Shuffle(capacity-1, func(i, j int) {
		offsets[i+1], offsets[j+1] = offsets[j+1], offsets[i+1]
	})
	return offsets
}

// probeSeq is the probe sequence for a single key: the home bucket
// determined by hash mod capacity, followed by the shuffled offsets
// applied to it. A probeSeq is only valid for the generation whose
// offsets it captured.
type probeSeq struct {
	offsets []uint32
	home    uint32
}

func makeProbeSeq(h uint64, offsets []uint32) probeSeq {
	return probeSeq{
		offsets: offsets,
		home:    uint32(h % uint64(len(offsets))),
	}
}

// at returns the bucket index visited on probe i.
func (s probeSeq) at(i int) int {
	capacity := uint32(len(s.offsets))
	return int((s.home + s.offsets[i]) % capacity)
}
