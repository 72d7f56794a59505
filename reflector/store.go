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

package reflector

import (
	"iter"

	"sigs.k8s.io/controller-runtime/pkg/client"

	//
	"freepik.com/watchcache/internal/store/sharded"
)

// Store is a readable cache of objects of type T.
// It cannot be constructed directly since one write handle is required:
// obtain one from Writer.AsReader, then Clone it as many times as needed.
// All handles observe the same live state, and the backing store survives
// for as long as any handle does
type Store[T client.Object] struct {
	store *sharded.Map[ObjectRef, T]
}

// Clone returns a new handle over the same backing store
func (s *Store[T]) Clone() *Store[T] {
	return &Store[T]{
		store: s.store,
	}
}

// Get returns a deep copy of the entry stored under ref, when present.
// The copy is taken while holding the entry's shard lock for the shortest
// possible time, so this never blocks the writer beyond the instant of copy.
// Being a cache, the result may be stale: deleted objects can linger until
// their Deleted event arrives and fresh ones may not be stored yet. Callers
// needing certainty must re-read later instead of trusting one lookup
func (s *Store[T]) Get(ref ObjectRef) (object T, found bool) {
	object, found = s.store.Get(ref)
	if !found {
		return object, false
	}

	return copyObject(object), true
}

// State returns a deep copy of all current entries.
// The traversal is weakly consistent: mutations running concurrently may or
// may not be reflected, but every returned value was stored under its key at
// some instant during the call and no identity appears twice
func (s *Store[T]) State() []T {
	state := make([]T, 0, s.store.Len())

	s.store.Range(func(_ ObjectRef, object T) bool {
		state = append(state, copyObject(object))
		return true
	})

	return state
}

// Iter returns a lazy, single-pass, weakly-consistent sequence of the
// stored pairs, backed directly by the shared store without a snapshot.
// Yielded objects are the stored values themselves and must be treated as
// read-only; use Get or State when a mutable copy is needed.
// Call Iter again to traverse from the start
func (s *Store[T]) Iter() iter.Seq2[ObjectRef, T] {
	return func(yield func(ObjectRef, T) bool) {
		s.store.Range(yield)
	}
}
