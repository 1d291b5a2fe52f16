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

// Iupdate flushes h's in-memory content fields to its on-disk dinode —
// spec.md §4.8. The caller must hold Ilock as writer.
func (c *Cache) Iupdate(h *Handle) {
	c.writeDinode(h.s)
}

// Ialloc scans dev's on-disk inode region for a free dinode, claims the
// first one found by writing a provisional typ and flushing, and returns an
// Iget'd Handle for it. If two callers race for the same free inum, the
// loser's write is overwritten by the winner on the next read; per spec.md
// §9's open question about this race, Ialloc logs and continues scanning
// rather than failing the caller that lost.
func (c *Cache) Ialloc(dev uint32, typ xv6fs.InodeType) (*Handle, error) {
	for inum := uint32(1); inum < c.ninodes; inum++ {
		blockno := xv6fs.IBlock(inum)
		buf, err := c.dev.ReadBlock(blockno, true)
		if err != nil {
			xlog.Fatalf("xv6fs/icache: read inode block %d: %v", blockno, err)
		}

		off := dinodeOffset(inum)
		existingType := xv6fs.InodeType(int16(binary.LittleEndian.Uint16(buf.Data[off : off+2])))
		if existingType != xv6fs.TypeFree {
			c.dev.ReleaseBlock(buf, false)
			continue
		}

		// Claim it provisionally: write the new type immediately so a
		// concurrent Ialloc scanning the same block sees it taken.
		binary.LittleEndian.PutUint16(buf.Data[off:off+2], uint16(int16(typ)))
		if err := c.dev.ReleaseBlock(buf, true); err != nil {
			xlog.Fatalf("xv6fs/icache: write inode block %d: %v", blockno, err)
		}

		h, err := c.Iget(dev, inum)
		if err != nil {
			return nil, err
		}

		c.Ilock(h, true)
		// A slot that was already cached (such as one Iput just reclaimed)
		// still holds the dinode as it was before the provisional claim
		// above, so re-read it under the write lock before checking it.
		c.readDinode(h.s)
		if h.s.typ != typ {
			// Another Ialloc won the race for this inum after we wrote it
			// but before our Iget observed it; back off and keep scanning
			// rather than stomping on the winner's inode.
			xlog.Debugf("xv6fs/icache: lost ialloc race for inum %d on dev %d, retrying", inum, dev)
			c.Iunlock(h)
			c.Iput(h)
			continue
		}

		h.s.nlink = 0
		h.s.size = 0
		h.s.major, h.s.minor = 0, 0
		h.s.gen++
		c.Iupdate(h)
		c.Iunlock(h)

		return h, nil
	}

	return nil, xv6fs.ErrNoInodes
}

