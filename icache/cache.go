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

// Package icache is the in-memory inode cache and lock protocol: spec.md
// §4.2 (iget/idup/iput), §4.3 (ilock/iunlock/iunlockput), §4.4 (bmap),
// §4.5 (readi/writei/itrunc) and §4.8 (iupdate/ialloc/stati), all operating
// on the same fixed pool of cached inode slots.
package icache

import (
	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
	"github.com/2214880631/xv6fs/devsw"
	"github.com/2214880631/xv6fs/reclaim"
	"github.com/2214880631/xv6fs/xlog"
)

// key identifies a cached inode by device and inode number, spec.md's
// "(dev, inum)" cache key.
type key struct {
	dev  uint32
	inum uint32
}

// Cache is the fixed-capacity inode cache for one device. Lookup uses a
// sync.Map as the "keyed associative container" spec.md §6 calls for — its
// atomic-snapshot read path is exactly the non-blocking lookup the read-side
// section needs, without a hand-rolled hash table (see DESIGN.md).
type Cache struct {
	dev     block.Device
	alloc   *block.Allocator
	sw      *devsw.Table
	ninodes uint32
	domain  *reclaim.Domain

	index cacheIndex
	slots []*slot
}

// NewCache creates a Cache of capacity ninode slots over dev, whose on-disk
// inode region holds ninodes dinodes. alloc is the block allocator used by
// bmap/itrunc; sw is consulted by Readi/Writei for device-typed inodes.
func NewCache(dev block.Device, alloc *block.Allocator, sw *devsw.Table, ninodes uint32, ninode int, domain *reclaim.Domain) *Cache {
	c := &Cache{
		dev:     dev,
		alloc:   alloc,
		sw:      sw,
		ninodes: ninodes,
		domain:  domain,
		slots:   make([]*slot, ninode),
	}
	for i := range c.slots {
		c.slots[i] = newSlot()
	}
	return c
}

// Iget finds or creates an in-memory slot for (dev, inum), bumps its
// reference count, and returns a Handle. It does not lock the inode or read
// its content from disk beyond the metadata needed to publish a VALID slot
// on a cache miss — spec.md §4.2's algorithm, implemented here as:
//
//  1. Non-blocking read-side lookup; on hit, atomically bump ref, then
//     recheck FREE (an evictor may have raced us) and back off if so.
//  2. On miss, scan the fixed slot pool for a victim with ref == 0, marking
//     it FREE and re-checking ref under its own lock before committing.
//  3. Publish the new (dev, inum) mapping; if another goroutine won the same
//     race and inserted first, release the half-claimed victim and retry.
//  4. Read the on-disk dinode, mark VALID, wake any waiters.
func (c *Cache) Iget(dev, inum uint32) (*Handle, error) {
	k := key{dev, inum}

	for {
		g := c.domain.Enter()
		s, hit := c.index.lookup(k)
		if hit {
			s.incRef()
			free := s.hasFlag(flagFree)
			g.Exit()

			if free {
				s.decRef()
				continue
			}

			s.mu.Lock()
			for !s.hasFlag(flagValid) {
				s.cond.Wait()
			}
			s.mu.Unlock()

			return &Handle{c: c, s: s}, nil
		}
		g.Exit()

		victim := c.findVictim()

		if !c.index.insertIfAbsent(k, victim) {
			// Lost the race: someone else published inum first. Release
			// the victim back to the free pool and retry from the top.
			victim.mu.Lock()
			victim.ref = 0
			victim.readbusy = 0
			victim.setFlagsLocked(0)
			victim.mu.Unlock()
			continue
		}

		victim.mu.Lock()
		victim.dev = dev
		victim.inum = inum
		victim.mu.Unlock()

		c.readDinode(victim)

		victim.mu.Lock()
		// Publish the new identity: VALID goes up and FREE comes down in
		// the same critical section, so no racing reader can observe VALID
		// set while FREE is still clear (or vice versa).
		victim.clearFlagLocked(flagFree)
		victim.addFlagLocked(flagValid)
		victim.cond.Broadcast()
		victim.mu.Unlock()

		c.unlockSlot(victim)

		return &Handle{c: c, s: victim}, nil
	}
}

// findVictim scans the fixed slot pool for one with ref == 0, mark-and-
// recheck under its own lock to close the race against a concurrent Iget
// hit bumping ref between the scan and the lock (spec.md §4.2 step 2). The
// winning slot is claimed — ref set to 1 and the busy-writer bits added — in
// the same critical section that confirms it, so no other concurrent
// findVictim call can select the same physical slot before its new identity
// is published. FREE stays set the whole time the slot is being repurposed:
// per spec.md §9, FREE is cleared only once the new identity is fully
// published (in Iget, alongside VALID), so a concurrent Iget still holding a
// reference to the old (dev, inum) always observes FREE and backs off
// instead of ever being handed a Handle pointing at the slot's new identity.
// It aborts the process if an entire pass finds no evictable slot, matching
// spec.md's fatal-invariant-violation design for cache exhaustion.
func (c *Cache) findVictim() *slot {
	for _, s := range c.slots {
		if s.refCount() != 0 {
			continue
		}

		s.mu.Lock()
		if s.refCount() != 0 {
			s.mu.Unlock()
			continue
		}

		s.addFlagLocked(flagFree)
		if s.refCount() != 0 {
			// A concurrent Iget bumped ref before we finished marking;
			// they will see FREE and back off, so release it and let the
			// next pass try again.
			s.clearFlagLocked(flagFree)
			s.mu.Unlock()
			continue
		}

		old := key{s.dev, s.inum}

		// Claim it now, still under s.mu: ref goes straight from 0 to 1 so
		// no other findVictim scan can pick this slot, and the busy-writer
		// bits are added on top of FREE rather than replacing it — FREE
		// must stay set until Iget finishes publishing the new identity.
		s.ref = 1
		s.setFlagsLocked(flagFree | flagBusyR | flagBusyW)
		s.readbusy = 1
		s.mu.Unlock()

		c.index.remove(old, s)

		// Go's GC owns the slot struct's actual memory; what still needs
		// epoch-deferral is the *unlinking becoming visible*, so a reader
		// that entered its read-side section before this remove can keep
		// treating old as a valid mapping for the rest of its section. A
		// no-op deferred call keeps that guarantee symmetric with itrunc's
		// block frees under the same Domain.
		c.domain.Defer(func() {})
		c.domain.Drain()

		return s
	}

	xlog.Fatalf("xv6fs/icache: inode cache exhausted")
	panic("unreachable")
}

// Idup bumps h's reference count and returns a second, independent Handle
// to the same slot — spec.md §4.2's idup.
func (c *Cache) Idup(h *Handle) *Handle {
	h.s.incRef()
	return &Handle{c: c, s: h.s}
}

// Iput drops h's reference. If it was the last reference and the inode's
// link count has reached zero, Iput truncates its content and marks it free
// on disk before releasing the slot — spec.md §4.2's iput, including the
// "nlink reaches zero" reclamation path.
func (c *Cache) Iput(h *Handle) {
	s := h.s

	if s.decRef() != 0 {
		return
	}

	s.mu.Lock()
	shouldReclaim := s.refCount() == 0 && s.hasFlag(flagValid) && s.nlink == 0 &&
		!s.hasFlag(flagBusyR) && !s.hasFlag(flagBusyW)
	if !shouldReclaim {
		s.mu.Unlock()
		return
	}

	s.addFlagLocked(flagBusyR | flagBusyW)
	s.readbusy = 1
	s.mu.Unlock()

	c.itrunc(s)
	s.typ = xv6fs.TypeFree
	s.major, s.minor = 0, 0
	s.gen++
	c.writeDinode(s)

	c.unlockSlot(s)

	// itrunc deferred its block frees past the current epoch; drive the
	// epoch forward now so they retire as soon as no reader can still
	// observe the blocks, instead of sitting pending until something else
	// happens to call Advance.
	c.domain.Drain()
}
