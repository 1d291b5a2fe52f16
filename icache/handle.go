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

import "github.com/2214880631/xv6fs"

// Handle is a caller's reference to one cached inode, returned by Iget and
// Ialloc. It is the Go rendering of spec.md's "in-memory inode pointer";
// every Handle obtained from Iget/Idup must eventually be passed to Iput
// exactly once.
type Handle struct {
	c *Cache
	s *slot
}

// Dev, Inum and Gen are published and immutable for the lifetime of a
// Handle's reference, per spec.md §9 ("every external operation on inode
// contents or metadata other than reading the published immutable
// inum/gen/dev must be performed with the appropriate lock held") — safe to
// read without Ilock.
func (h *Handle) Dev() uint32  { return h.s.dev }
func (h *Handle) Inum() uint32 { return h.s.inum }
func (h *Handle) Gen() uint32  { return h.s.gen }

// Stat is the snapshot returned by Stati.
type Stat struct {
	Dev   uint32
	Inum  uint32
	Type  xv6fs.InodeType
	Nlink int16
	Size  uint32
}

// Stati snapshots h's metadata. The caller must hold Ilock (reader or
// writer) on h.
func (c *Cache) Stati(h *Handle) Stat {
	s := h.s
	return Stat{
		Dev:   s.dev,
		Inum:  s.inum,
		Type:  s.typ,
		Nlink: s.nlink,
		Size:  s.size,
	}
}

// Type, Nlink and Size read content fields guarded by the BUSYR/BUSYW
// protocol; the caller must hold Ilock.
func (h *Handle) Type() xv6fs.InodeType { return h.s.typ }
func (h *Handle) Nlink() int16          { return h.s.nlink }
func (h *Handle) Size() uint32          { return h.s.size }
func (h *Handle) Major() int16          { return h.s.major }
func (h *Handle) Minor() int16          { return h.s.minor }

// SetNlink and SetMajorMinor mutate content fields; the caller must hold
// Ilock as writer and subsequently call Iupdate to persist the change.
func (h *Handle) SetNlink(n int16) { h.s.nlink = n }
func (h *Handle) SetMajorMinor(major, minor int16) {
	h.s.major = major
	h.s.minor = minor
}
func (h *Handle) SetType(t xv6fs.InodeType) { h.s.typ = t }
