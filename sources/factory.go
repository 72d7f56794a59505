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
	"fmt"
	"time"

	//
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic/dynamicinformer"
	"k8s.io/client-go/tools/cache"
	"sigs.k8s.io/controller-runtime/pkg/log"

	//
	"freepik.com/watchcache/pubsub"
	"freepik.com/watchcache/reflector"
)

const (
	defaultResyncPeriod = 10 * time.Minute

	//
	sourceStartedMessage         = "Source has been started"
	sourceStoppedMessage         = "Source has been stopped"
	sourceContextFinishedMessage = "Source finished by context"
	sourceKilledMessage          = "Source killed by StopSignal"
)

func NewSource(opts Options, deps Dependencies) (*Source, error) {

	if deps.Client == nil {
		return nil, fmt.Errorf("kube client cannot be nil")
	}

	if deps.Context == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	if opts.InformerDurationToResync == 0 {
		opts.InformerDurationToResync = defaultResyncPeriod
	}

	tmpSource := &Source{
		options:      opts,
		dependencies: deps,

		stopChan: make(chan struct{}),
		started:  false,

		writer:      reflector.NewWriter[WatchedObject](),
		broadcaster: pubsub.NewBroadcaster[reflector.Event[WatchedObject]](),
	}

	//
	tmpSource.createInformer()

	err := tmpSource.registerEventHandlers()
	if err != nil {
		return nil, err
	}

	return tmpSource, nil
}

func (r *Source) createInformer() {
	// Include the namespace when defined by the user (used as filter)
	namespace := corev1.NamespaceAll
	if r.options.Namespace != "" {
		namespace = r.options.Namespace
	}

	// Include the selectors when defined by the user (used as filters)
	var tweakListOptions dynamicinformer.TweakListOptionsFunc
	if r.options.LabelSelector != "" || r.options.FieldSelector != "" {
		tweakListOptions = func(options *metav1.ListOptions) {
			if r.options.LabelSelector != "" {
				options.LabelSelector = r.options.LabelSelector
			}
			if r.options.FieldSelector != "" {
				options.FieldSelector = r.options.FieldSelector
			}
		}
	}

	// This is a special type of client-go watcher that includes mechanisms
	// to hide disconnections, handle reconnections, and re-list watched objects
	factory := dynamicinformer.NewFilteredDynamicSharedInformerFactory(
		r.dependencies.Client,
		r.options.InformerDurationToResync,
		namespace,
		tweakListOptions)

	r.rawInformer = factory.ForResource(r.options.GVR).Informer()
}

// registerEventHandlers hooks the informer callbacks to the cache writer.
// Every event mutates the mirror first and is broadcast to subscribers later
func (r *Source) registerEventHandlers() error {

	logger := log.FromContext(*r.dependencies.Context).
		WithValues("gvr", r.options.GVR, "namespace", r.options.Namespace)

	handlers := cache.ResourceEventHandlerFuncs{

		//
		AddFunc: func(eventObject interface{}) {
			object, ok := eventObject.(WatchedObject)
			if !ok {
				logger.Info("Discarding event carrying an unexpected object type")
				return
			}

			r.dispatch(reflector.NewAppliedEvent(object))
		},

		//
		UpdateFunc: func(_, eventObject interface{}) {
			object, ok := eventObject.(WatchedObject)
			if !ok {
				logger.Info("Discarding event carrying an unexpected object type")
				return
			}

			r.dispatch(reflector.NewAppliedEvent(object))
		},

		//
		DeleteFunc: func(eventObject interface{}) {
			// The informer hands over a tombstone instead of the object
			// when the final deletion was missed during a disconnection
			if tombstone, ok := eventObject.(cache.DeletedFinalStateUnknown); ok {
				eventObject = tombstone.Obj
			}

			object, ok := eventObject.(WatchedObject)
			if !ok {
				logger.Info("Discarding event carrying an unexpected object type")
				return
			}

			r.dispatch(reflector.NewDeletedEvent(object))
		},
	}

	_, err := r.rawInformer.AddEventHandler(handlers)
	if err != nil {
		return fmt.Errorf("error adding handling functions for events to an informer: %s", err.Error())
	}

	return nil
}

// dispatch applies an event to the local mirror and fans it out
func (r *Source) dispatch(event reflector.Event[WatchedObject]) {
	logger := log.FromContext(*r.dependencies.Context).
		WithValues("gvr", r.options.GVR, "eventType", event.Type)

	logger.V(1).Info("Applying watched event to local mirror")

	r.writer.ApplyWatcherEvent(event)
	r.broadcaster.Publish(event)
}

// Reader returns a read handle over the mirror of this source.
// It can be asked for any number of times, and handles stay valid and
// observing fresh state for the whole life of the source
func (r *Source) Reader() *reflector.Store[WatchedObject] {
	return r.writer.AsReader()
}

// Subscribe returns a channel receiving every event applied to the mirror.
// Slow consumers lose events instead of slowing down the mirror
func (r *Source) Subscribe(buffer int) chan reflector.Event[WatchedObject] {
	return r.broadcaster.Subscribe(buffer)
}

func (r *Source) Unsubscribe(ch chan reflector.Event[WatchedObject]) {
	r.broadcaster.Unsubscribe(ch)
}

// TODO: Make this stop reliable and thread-safe
func (r *Source) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	close(r.stopChan)
}

func (r *Source) Start() {
	//
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	//
	logger := log.FromContext(*r.dependencies.Context).
		WithValues("gvr", r.options.GVR, "namespace", r.options.Namespace)

	// Listen to cancellation of parent context and propagate stopChan
	go func() {
		select {
		case <-(*r.dependencies.Context).Done():
			logger.Info(sourceContextFinishedMessage)
			r.Stop()
		case <-r.stopChan:
			logger.Info(sourceKilledMessage)
			return
		}
	}()

	//
	go func() {
		logger.Info(sourceStartedMessage)
		r.rawInformer.Run(r.stopChan)
		logger.Info(sourceStoppedMessage)
	}()
}

func (r *Source) IsStarted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.started
}

// HasSynced returns whether the initial list of the watched resource
// has been fully mirrored
func (r *Source) HasSynced() bool {
	return r.rawInformer.HasSynced()
}
