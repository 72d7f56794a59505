/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sharded

import (
	"sync"
)

// KeyFunc turns a key into the string that is hashed for shard routing.
// It must be deterministic: the same key must always land on the same shard.
type KeyFunc[K comparable] func(K) string

// shard is one independently locked segment of the map.
type shard[K comparable, V any] struct {
	mu sync.RWMutex

	items map[K]V
}

// Map is a concurrent map partitioned into independently locked shards.
// Each operation locks exactly one shard, so operations on keys living in
// different shards never contend. Handles share the map by reference: pass
// the same *Map around and every holder observes the same live state.
type Map[K comparable, V any] struct {
	shards  []*shard[K, V]
	keyFunc KeyFunc[K]
}
