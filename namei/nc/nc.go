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

// Package nc is the path resolver's name cache: a (directory inum, name) ->
// child inum map that lets namex skip a directory's dirlookup scan on a
// repeat lookup, spec.md §1's "name cache" external collaborator.
package nc

import "sync"

type key struct {
	dir  uint32
	name string
}

// Cache is a plain map guarded by a single RWMutex. It has no size bound
// and no eviction policy: an entry stays until Invalidate removes it.
type Cache struct {
	mu sync.RWMutex
	m  map[key]uint32
}

// New creates an empty name cache.
func New() *Cache {
	return &Cache{m: make(map[key]uint32)}
}

// Lookup returns the cached child inum for (dir, name), if present.
func (c *Cache) Lookup(dir uint32, name string) (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inum, ok := c.m[key{dir, name}]
	return inum, ok
}

// Insert records that name resolves to inum within directory dir.
func (c *Cache) Insert(dir uint32, name string, inum uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key{dir, name}] = inum
}

// Invalidate removes any cached mapping for (dir, name). Nothing else keeps
// the cache coherent with directory writes, and no code in this module
// calls it.
func (c *Cache) Invalidate(dir uint32, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key{dir, name})
}
