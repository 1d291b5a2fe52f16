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
	"github.com/2214880631/xv6fs/xlog"
)

// bmap returns the block number holding the n'th data block of s,
// allocating it (and, for n past NDIRECT, the indirect block) on first
// touch — spec.md §4.4. The caller must hold Ilock as writer if n's slot is
// unallocated, since bmap may mutate s.addrs and the on-disk indirect
// block. It returns xv6fs.ErrFileTooLarge if n is beyond MAXFILE; running
// out of free blocks entirely is a fatal condition raised by the allocator
// itself.
func (c *Cache) bmap(s *slot, n uint32) (uint32, error) {
	if n < xv6fs.NDIRECT {
		if s.addrs[n] == 0 {
			s.addrs[n] = c.alloc.Alloc()
		}
		return s.addrs[n], nil
	}

	n -= xv6fs.NDIRECT
	if n >= xv6fs.NINDIRECT {
		return 0, xv6fs.ErrFileTooLarge
	}

	if s.addrs[xv6fs.NDIRECT] == 0 {
		s.addrs[xv6fs.NDIRECT] = c.alloc.Alloc()
	}

	buf, err := c.dev.ReadBlock(s.addrs[xv6fs.NDIRECT], true)
	if err != nil {
		xlog.Fatalf("xv6fs/icache: read indirect block for inode %d: %v", s.inum, err)
	}

	off := n * 4
	addr := binary.LittleEndian.Uint32(buf.Data[off : off+4])
	if addr == 0 {
		addr = c.alloc.Alloc()
		binary.LittleEndian.PutUint32(buf.Data[off:off+4], addr)
		c.dev.ReleaseBlock(buf, true)
	} else {
		c.dev.ReleaseBlock(buf, false)
	}

	return addr, nil
}
