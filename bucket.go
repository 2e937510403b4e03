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

// bucketState is the lifecycle tag of a bucket. The three states drive
// the probing algorithms: a bucket that has never held an entry since
// its generation was created proves a searched key absent and
// terminates the walk, while a tombstone must be probed through.
type bucketState uint8

const (
	// stateEmpty marks a bucket that has never been occupied since the
	// current generation (construction or last resize) began.
	stateEmpty bucketState = iota
	// stateDeleted marks a tombstone: the bucket held an entry that was
	// removed. Searches continue past it; inserts may refill it.
	stateDeleted
	// stateFull marks a bucket holding a live entry.
	stateFull
)

func (s bucketState) String() string {
	switch s {
	case stateEmpty:
		return "empty"
	case stateDeleted:
		return "deleted"
	case stateFull:
		return "full"
	}
	return "unknown"
}

// bucket is a single slot in the table. The key and value are zero
// values unless the state is stateFull; non-full contents are surfaced
// only by diagnostics and carry no meaning.
type bucket struct {
	key   string
	value uint64
	state bucketState
}

// load fills the bucket with a live entry.
func (b *bucket) load(key string, value uint64) {
	b.key = key
	b.value = value
	b.state = stateFull
}

// unload turns the bucket into a tombstone. The contents are cleared so
// the string data can be collected.
func (b *bucket) unload() {
	*b = bucket{state: stateDeleted}
}
