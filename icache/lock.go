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

// Ilock acquires the content lock on h: a reader lock if writer is false,
// else an exclusive writer lock. Multiple readers may hold it concurrently;
// a writer excludes both other writers and all readers. Unlike a
// sync.RWMutex this lock is designed to be held across blocking device I/O
// (spec.md §9), which is why it is built on the slot's spin lock + condvar
// rather than a native RWMutex.
func (c *Cache) Ilock(h *Handle, writer bool) {
	s := h.s

	s.mu.Lock()
	for s.hasFlag(flagBusyW) || (writer && s.hasFlag(flagBusyR)) {
		s.cond.Wait()
	}
	s.addFlagLocked(flagBusyR)
	if writer {
		s.addFlagLocked(flagBusyW)
	}
	s.readbusy++
	s.mu.Unlock()
}

// Iunlock releases one hold of h's content lock acquired by Ilock.
func (c *Cache) Iunlock(h *Handle) {
	c.unlockSlot(h.s)
}

// unlockSlot is Iunlock's body, factored out so Iget/Iput can release a
// lock they acquired internally (on a freshly-read or about-to-be-reclaimed
// slot) without going through a Handle.
func (c *Cache) unlockSlot(s *slot) {
	s.mu.Lock()
	s.readbusy--
	s.clearFlagLocked(flagBusyW)
	if s.readbusy == 0 {
		s.clearFlagLocked(flagBusyR)
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// IunlockPut composes Iunlock and Iput, spec.md §6's named convenience
// operation.
func (c *Cache) IunlockPut(h *Handle) {
	c.Iunlock(h)
	c.Iput(h)
}
