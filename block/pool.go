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

package block

import "sync"

// bufferPool recycles *Buffer values so that a steady stream of
// ReadBlock/ReleaseBlock calls doesn't churn the allocator. This is the
// same recycle-a-list-of-pointers idiom as the teacher's
// buffer.DefaultMessageProvider (a mutex guarding a free list of message
// structs, refilled with a fresh allocation on an empty pool).
type bufferPool struct {
	mu   sync.Mutex
	free []*Buffer
}

func (p *bufferPool) get() *Buffer {
	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		return &Buffer{Data: zeroed()}
	}

	b := p.free[n-1]
	p.free = p.free[:n-1]
	p.mu.Unlock()
	return b
}

func (p *bufferPool) put(b *Buffer) {
	b.dirty = false
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}
