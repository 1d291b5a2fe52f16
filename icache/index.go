// Copyright 2015 Google Inc. All Rights Reserved.
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

package icache

import "sync"

// cacheIndex is the (dev, inum) -> slot map, spec.md §6's "keyed
// associative container". sync.Map's read path touches only an atomic
// snapshot of its read-only map on a hit, which is the non-blocking lookup
// the read-side section in Iget needs; see DESIGN.md for why this is an
// acceptable substitute for a hand-rolled hash table.
type cacheIndex struct {
	m sync.Map
}

func (c *cacheIndex) lookup(k key) (*slot, bool) {
	v, ok := c.m.Load(k)
	if !ok {
		return nil, false
	}
	return v.(*slot), true
}

// insertIfAbsent publishes s under k unless k is already mapped, in which
// case it returns false and leaves the existing mapping untouched.
func (c *cacheIndex) insertIfAbsent(k key, s *slot) bool {
	_, loaded := c.m.LoadOrStore(k, s)
	return !loaded
}

// remove unlinks k from the index, but only if it currently maps to s (a
// concurrent Iget miss may have already replaced it).
func (c *cacheIndex) remove(k key, s *slot) {
	c.m.CompareAndDelete(k, s)
}
