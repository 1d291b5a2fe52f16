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

import (
	"encoding/binary"

	"github.com/2214880631/xv6fs"
)

// Readi copies up to len(dst) bytes starting at off into dst, returning the
// number of bytes actually read. For a device inode it dispatches through
// the device switch table instead of touching the block map — spec.md §4.5.
// The caller must hold Ilock (reader or writer).
func (c *Cache) Readi(h *Handle, dst []byte, off uint64) (int, error) {
	s := h.s

	if s.typ == xv6fs.TypeDevice {
		d, ok := c.sw.Get(s.major)
		if !ok {
			return 0, xv6fs.ErrNoDevice
		}
		return d.Read(dst, int64(off))
	}

	n := uint64(len(dst))
	if off > uint64(s.size) || off+n < off {
		return 0, xv6fs.ErrInvalidOffset
	}
	if off+n > uint64(s.size) {
		n = uint64(s.size) - off
	}

	total := uint64(0)
	for total < n {
		cur := off + total
		blockIdx := uint32(cur / xv6fs.BSIZE)
		blockOff := cur % xv6fs.BSIZE

		bn, err := c.bmap(s, blockIdx)
		if err != nil {
			return int(total), err
		}

		buf, err := c.dev.ReadBlock(bn, false)
		if err != nil {
			return int(total), err
		}

		m := uint64(xv6fs.BSIZE) - blockOff
		if remain := n - total; remain < m {
			m = remain
		}
		copy(dst[total:total+m], buf.Data[blockOff:blockOff+m])
		c.dev.ReleaseBlock(buf, false)

		total += m
	}

	return int(total), nil
}

// Writei copies len(src) bytes from src into the file starting at off,
// growing the file (and allocating blocks via bmap) as needed, up to
// MAXFILE. For a device inode it dispatches through the device switch
// table. The caller must hold Ilock as writer.
func (c *Cache) Writei(h *Handle, src []byte, off uint64) (int, error) {
	s := h.s

	if s.typ == xv6fs.TypeDevice {
		d, ok := c.sw.Get(s.major)
		if !ok {
			return 0, xv6fs.ErrNoDevice
		}
		return d.Write(src, int64(off))
	}

	n := uint64(len(src))
	if off > uint64(s.size) || off+n < off {
		return 0, xv6fs.ErrInvalidOffset
	}
	if off+n > xv6fs.MAXFILE*xv6fs.BSIZE {
		return 0, xv6fs.ErrFileTooLarge
	}

	total := uint64(0)
	for total < n {
		cur := off + total
		blockIdx := uint32(cur / xv6fs.BSIZE)
		blockOff := cur % xv6fs.BSIZE

		bn, err := c.bmap(s, blockIdx)
		if err != nil {
			return int(total), err
		}

		buf, err := c.dev.ReadBlock(bn, true)
		if err != nil {
			return int(total), err
		}

		m := uint64(xv6fs.BSIZE) - blockOff
		if remain := n - total; remain < m {
			m = remain
		}
		copy(buf.Data[blockOff:blockOff+m], src[total:total+m])
		c.dev.ReleaseBlock(buf, true)

		total += m
	}

	if off+total > uint64(s.size) {
		s.size = uint32(off + total)
	}
	c.writeDinode(s)

	return int(total), nil
}

// itrunc frees every block reachable from s (direct, indirect, and the
// indirect block itself), zeroes the address array, and resets size to 0 —
// spec.md §4.5's itrunc. Frees are routed through the reclaim domain so a
// concurrent reader that captured s's address array before truncation (via
// a prior Readi call still in flight) does not observe a block it read
// being reallocated and overwritten before it finishes; the caller must
// hold Ilock as writer.
func (c *Cache) itrunc(s *slot) {
	for i := 0; i < xv6fs.NDIRECT; i++ {
		if s.addrs[i] != 0 {
			addr := s.addrs[i]
			c.domain.Defer(func() { c.alloc.Free(addr) })
			s.addrs[i] = 0
		}
	}

	if s.addrs[xv6fs.NDIRECT] != 0 {
		indirect := s.addrs[xv6fs.NDIRECT]
		buf, err := c.dev.ReadBlock(indirect, false)
		if err == nil {
			for i := 0; i < xv6fs.NINDIRECT; i++ {
				off := i * 4
				addr := binary.LittleEndian.Uint32(buf.Data[off : off+4])
				if addr != 0 {
					a := addr
					c.domain.Defer(func() { c.alloc.Free(a) })
				}
			}
			c.dev.ReleaseBlock(buf, false)
		}
		c.domain.Defer(func() { c.alloc.Free(indirect) })
		s.addrs[xv6fs.NDIRECT] = 0
	}

	s.size = 0
	c.writeDinode(s)
}

