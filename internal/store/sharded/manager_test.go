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
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func identityKeyFunc(key string) string { return key }

var _ = Describe("Map", func() {

	var subject *Map[string, int]

	BeforeEach(func() {
		subject = NewMap[string, int](identityKeyFunc)
	})

	Describe("Set and Get", func() {
		It("stores and returns a value under its key", func() {
			subject.Set("alpha", 1)

			value, found := subject.Get("alpha")
			Expect(found).To(BeTrue())
			Expect(value).To(Equal(1))
		})

		It("replaces the value entirely when the key already exists", func() {
			subject.Set("alpha", 1)
			subject.Set("alpha", 2)

			value, _ := subject.Get("alpha")
			Expect(value).To(Equal(2))
			Expect(subject.Len()).To(Equal(1))
		})

		It("misses keys that were never stored", func() {
			_, found := subject.Get("missing")
			Expect(found).To(BeFalse())
		})
	})

	Describe("Delete", func() {
		It("removes an existing key", func() {
			subject.Set("alpha", 1)
			subject.Delete("alpha")

			_, found := subject.Get("alpha")
			Expect(found).To(BeFalse())
		})

		It("ignores missing keys", func() {
			Expect(func() { subject.Delete("missing") }).NotTo(Panic())
			Expect(subject.Len()).To(Equal(0))
		})
	})

	Describe("Keys and Len", func() {
		It("counts and lists entries across all the shards", func() {
			for i := 0; i < 100; i++ {
				subject.Set(fmt.Sprintf("key-%d", i), i)
			}

			Expect(subject.Len()).To(Equal(100))
			Expect(subject.Keys()).To(HaveLen(100))
			Expect(subject.Keys()).To(ContainElement("key-42"))
		})
	})

	Describe("Range", func() {
		It("visits every entry exactly once", func() {
			subject.Set("alpha", 1)
			subject.Set("beta", 2)
			subject.Set("gamma", 3)

			visited := map[string]int{}
			subject.Range(func(key string, value int) bool {
				visited[key] = value
				return true
			})

			Expect(visited).To(Equal(map[string]int{"alpha": 1, "beta": 2, "gamma": 3}))
		})

		It("stops early when fn returns false", func() {
			for i := 0; i < 100; i++ {
				subject.Set(fmt.Sprintf("key-%d", i), i)
			}

			visitedCount := 0
			subject.Range(func(_ string, _ int) bool {
				visitedCount++
				return visitedCount < 5
			})

			Expect(visitedCount).To(Equal(5))
		})
	})

	Describe("Retain", func() {
		It("removes every entry the predicate rejects", func() {
			for i := 0; i < 100; i++ {
				subject.Set(fmt.Sprintf("key-%d", i), i)
			}

			subject.Retain(func(_ string, value int) bool {
				return value%2 == 0
			})

			Expect(subject.Len()).To(Equal(50))

			_, foundOdd := subject.Get("key-13")
			Expect(foundOdd).To(BeFalse())

			value, foundEven := subject.Get("key-42")
			Expect(foundEven).To(BeTrue())
			Expect(value).To(Equal(42))
		})
	})

	Describe("concurrent access", func() {
		It("keeps per-key operations consistent under parallel readers and a writer", func() {
			var wg sync.WaitGroup

			// One writer rewriting a fixed key set in a loop
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				for round := 0; round < 500; round++ {
					for i := 0; i < 20; i++ {
						subject.Set(fmt.Sprintf("key-%d", i), round)
					}
				}
			}()

			// Several readers traversing while the writer runs
			for reader := 0; reader < 4; reader++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					for round := 0; round < 500; round++ {
						seen := map[string]struct{}{}
						subject.Range(func(key string, _ int) bool {
							_, duplicated := seen[key]
							Expect(duplicated).To(BeFalse())
							seen[key] = struct{}{}
							return true
						})
					}
				}()
			}

			wg.Wait()
			Expect(subject.Len()).To(Equal(20))
		})
	})
})
