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
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ObjectRef identifies an object by its immutable identity attributes.
// Two objects with the same group, version, kind, namespace and name always
// produce equal refs no matter how their payload changed, so a ref computed
// from an old revision still addresses the current one
type ObjectRef struct {
	Group     string
	Version   string
	Kind      string
	Namespace string
	Name      string
}

// NewObjectRef extracts the identity of an object
func NewObjectRef(object client.Object) ObjectRef {
	gvk := object.GetObjectKind().GroupVersionKind()

	return ObjectRef{
		Group:     gvk.Group,
		Version:   gvk.Version,
		Kind:      gvk.Kind,
		Namespace: object.GetNamespace(),
		Name:      object.GetName(),
	}
}

// String returns the ref following the pattern:
// {group}/{version}/{kind}/{namespace}/{name}
func (r ObjectRef) String() string {
	return strings.Join([]string{r.Group, r.Version, r.Kind, r.Namespace, r.Name}, "/")
}
