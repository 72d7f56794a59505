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
	"k8s.io/apimachinery/pkg/watch"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// EventType discriminates the kinds of watch events a Writer can apply
type EventType string

const (
	// EventTypeApplied means an object was added or modified. The carried
	// snapshot fully replaces whatever was stored for the same identity
	EventTypeApplied EventType = "Applied"

	// EventTypeDeleted means an object no longer exists
	EventTypeDeleted EventType = "Deleted"

	// EventTypeRestarted means the watch was re-listed: the carried list is
	// the complete current set and anything missing from it no longer exists
	EventTypeRestarted EventType = "Restarted"
)

// Event represents a single change notification coming from a watch stream
type Event[T client.Object] struct {
	Type EventType

	// Object carries the snapshot for Applied and Deleted events
	Object T

	// Objects carries the full current set for Restarted events
	Objects []T
}

// NewAppliedEvent wraps an added or modified object
func NewAppliedEvent[T client.Object](object T) Event[T] {
	return Event[T]{Type: EventTypeApplied, Object: object}
}

// NewDeletedEvent wraps a deleted object
func NewDeletedEvent[T client.Object](object T) Event[T] {
	return Event[T]{Type: EventTypeDeleted, Object: object}
}

// NewRestartedEvent wraps the complete current set after a re-list
func NewRestartedEvent[T client.Object](objects []T) Event[T] {
	return Event[T]{Type: EventTypeRestarted, Objects: objects}
}

// NewEventFromWatch translates an apimachinery watch event type into a cache
// event. Bookmark and error events carry no cacheable snapshot, so for those
// the second return is false and the event must be discarded
func NewEventFromWatch[T client.Object](eventType watch.EventType, object T) (Event[T], bool) {
	switch eventType {
	case watch.Added, watch.Modified:
		return NewAppliedEvent(object), true
	case watch.Deleted:
		return NewDeletedEvent(object), true
	}

	return Event[T]{}, false
}
