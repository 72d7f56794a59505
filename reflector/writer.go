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
	"sigs.k8s.io/controller-runtime/pkg/client"

	//
	"freepik.com/watchcache/internal/store/sharded"
)

// Writer is the exclusive write handle over a shared object cache.
// Exactly one Writer must feed a given cache: it cannot be cloned, and there
// is no other way to obtain mutation rights over the backing store. Running
// two writers over the same store is not detected and breaks the re-list
// semantics, as a Restarted from one clobbers what the other just applied
type Writer[T client.Object] struct {
	store *sharded.Map[ObjectRef, T]
}

// NewWriter returns a Writer owning a fresh, empty cache
func NewWriter[T client.Object]() *Writer[T] {
	return &Writer[T]{
		store: sharded.NewMap[ObjectRef, T](ObjectRef.String),
	}
}

// AsReader returns a read handle sharing the same backing store.
// It can be called any number of times; every handle, and every later
// Store.Clone, observes the same evolving state
func (w *Writer[T]) AsReader() *Store[T] {
	return &Store[T]{
		store: w.store,
	}
}

// ApplyWatcherEvent applies a single watch event to the shared store.
// Every mutation becomes visible to concurrent readers as soon as its
// per-key step completes
func (w *Writer[T]) ApplyWatcherEvent(event Event[T]) {
	switch event.Type {

	case EventTypeApplied:
		w.store.Set(NewObjectRef(event.Object), copyObject(event.Object))

	case EventTypeDeleted:
		w.store.Delete(NewObjectRef(event.Object))

	case EventTypeRestarted:
		// Last occurrence wins when the list repeats an identity
		desired := make(map[ObjectRef]T, len(event.Objects))
		for _, object := range event.Objects {
			desired[NewObjectRef(object)] = object
		}

		// The replacement cannot be done atomically. Purging vanished keys
		// before refreshing the survivors guarantees that an object which
		// still exists is never transiently missing from the cache, at the
		// price of readers possibly observing a mix of both phases
		w.store.Retain(func(ref ObjectRef, _ T) bool {
			_, stillExists := desired[ref]
			return stillExists
		})

		for ref, object := range desired {
			w.store.Set(ref, copyObject(object))
		}
	}
}

// copyObject deep-copies an object so stored values never alias
// caller-owned memory
func copyObject[T client.Object](object T) T {
	return object.DeepCopyObject().(T)
}
