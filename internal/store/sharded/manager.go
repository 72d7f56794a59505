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
	//
	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
)

// defaultShardCount is enough to keep contention negligible for the
// object counts a single watched resource type reaches in practice.
const defaultShardCount = 32

// NewMap returns an empty map routing keys across shards by the
// xxhash64 of keyFunc(key).
func NewMap[K comparable, V any](keyFunc KeyFunc[K]) *Map[K, V] {
	m := &Map[K, V]{
		shards:  make([]*shard[K, V], defaultShardCount),
		keyFunc: keyFunc,
	}

	for shardIndex := range m.shards {
		m.shards[shardIndex] = &shard[K, V]{
			items: make(map[K]V),
		}
	}

	return m
}

// shardFor routes a key to exactly one shard
func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return m.shards[xxhash.Sum64String(m.keyFunc(key))%uint64(len(m.shards))]
}

// Get returns the value stored under a key
func (m *Map[K, V]) Get(key K) (value V, found bool) {
	tmpShard := m.shardFor(key)

	tmpShard.mu.RLock()
	defer tmpShard.mu.RUnlock()

	value, found = tmpShard.items[key]
	return value, found
}

// Set stores a value under a key.
// When the key already exists, replaces its value entirely
func (m *Map[K, V]) Set(key K, value V) {
	tmpShard := m.shardFor(key)

	tmpShard.mu.Lock()
	defer tmpShard.mu.Unlock()

	tmpShard.items[key] = value
}

// Delete removes a key. Missing keys are ignored
func (m *Map[K, V]) Delete(key K) {
	tmpShard := m.shardFor(key)

	tmpShard.mu.Lock()
	defer tmpShard.mu.Unlock()

	delete(tmpShard.items, key)
}

// Len returns the number of stored entries.
// Shards are counted one at a time, so the result is only exact when
// no writer is running concurrently
func (m *Map[K, V]) Len() int {
	count := 0
	for _, tmpShard := range m.shards {
		tmpShard.mu.RLock()
		count += len(tmpShard.items)
		tmpShard.mu.RUnlock()
	}

	return count
}

// Keys returns a list of all the stored keys
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0)
	for _, tmpShard := range m.shards {
		tmpShard.mu.RLock()
		keys = append(keys, maps.Keys(tmpShard.items)...)
		tmpShard.mu.RUnlock()
	}

	return keys
}

// Range calls fn for every entry until fn returns false.
// The traversal holds one shard read lock at a time: entries added or
// removed while it runs may or may not be visited, but every visited
// pair was present at some instant during the call
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, tmpShard := range m.shards {
		tmpShard.mu.RLock()
		for key, value := range tmpShard.items {
			if !fn(key, value) {
				tmpShard.mu.RUnlock()
				return
			}
		}
		tmpShard.mu.RUnlock()
	}
}

// Retain removes every entry for which keep returns false.
// Each shard is pruned under its own write lock, so readers of other
// shards are never blocked while one shard is being pruned
func (m *Map[K, V]) Retain(keep func(key K, value V) bool) {
	for _, tmpShard := range m.shards {
		tmpShard.mu.Lock()
		for key, value := range tmpShard.items {
			if !keep(key, value) {
				delete(tmpShard.items, key)
			}
		}
		tmpShard.mu.Unlock()
	}
}
