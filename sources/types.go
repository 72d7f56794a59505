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

package sources

import (
	"context"
	"sync"
	"time"

	//
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/tools/cache"

	//
	"freepik.com/watchcache/pubsub"
	"freepik.com/watchcache/reflector"
)

// WatchedObject is the payload type flowing from a Source: every watched
// resource is handled in its dynamic, schemaless representation
type WatchedObject = *unstructured.Unstructured

type Options struct {
	//
	GVR       schema.GroupVersionResource
	Namespace string

	InformerDurationToResync time.Duration

	// Optional: additional filters
	LabelSelector string
	FieldSelector string
}

type Dependencies struct {
	Context *context.Context
	Client  dynamic.Interface
}

// Source keeps a live local mirror of one watched resource type.
// It owns the only write handle over its cache: informer events are the
// single mutation path, and everyone else reads through Reader handles
type Source struct {
	mu sync.RWMutex

	//
	options      Options
	dependencies Dependencies

	//
	rawInformer cache.SharedIndexInformer
	stopChan    chan struct{}

	//
	writer      *reflector.Writer[WatchedObject]
	broadcaster *pubsub.Broadcaster[reflector.Event[WatchedObject]]

	//
	started bool
}
