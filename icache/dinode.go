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

// dinode is the exact bit-for-bit on-disk inode layout: type, major, minor,
// nlink (int16 each), size (uint32), then the NDIRECT+1 address array. That
// totals exactly xv6fs.DinodeSize bytes, matching classic xv6's dinode; the
// generation number lives only in the in-memory slot.

func dinodeOffset(inum uint32) int {
	return int(inum%xv6fs.IPB) * xv6fs.DinodeSize
}

func (c *Cache) readDinode(s *slot) {
	blockno := xv6fs.IBlock(s.inum)
	buf, err := c.dev.ReadBlock(blockno, false)
	if err != nil {
		xlog.Fatalf("xv6fs/icache: read inode block %d for inum %d: %v", blockno, s.inum, err)
	}
	defer c.dev.ReleaseBlock(buf, false)

	off := dinodeOffset(s.inum)
	d := buf.Data[off : off+xv6fs.DinodeSize]

	s.typ = xv6fs.InodeType(int16(binary.LittleEndian.Uint16(d[0:2])))
	s.major = int16(binary.LittleEndian.Uint16(d[2:4]))
	s.minor = int16(binary.LittleEndian.Uint16(d[4:6]))
	s.nlink = int16(binary.LittleEndian.Uint16(d[6:8]))
	s.size = binary.LittleEndian.Uint32(d[8:12])
	for i := range s.addrs {
		o := 12 + i*4
		s.addrs[i] = binary.LittleEndian.Uint32(d[o : o+4])
	}
}

// writeDinode flushes s's content fields to its on-disk dinode. The caller
// must hold Ilock as writer.
func (c *Cache) writeDinode(s *slot) {
	blockno := xv6fs.IBlock(s.inum)
	buf, err := c.dev.ReadBlock(blockno, true)
	if err != nil {
		xlog.Fatalf("xv6fs/icache: read inode block %d for inum %d: %v", blockno, s.inum, err)
	}

	off := dinodeOffset(s.inum)
	d := buf.Data[off : off+xv6fs.DinodeSize]

	binary.LittleEndian.PutUint16(d[0:2], uint16(int16(s.typ)))
	binary.LittleEndian.PutUint16(d[2:4], uint16(s.major))
	binary.LittleEndian.PutUint16(d[4:6], uint16(s.minor))
	binary.LittleEndian.PutUint16(d[6:8], uint16(s.nlink))
	binary.LittleEndian.PutUint32(d[8:12], s.size)
	for i, a := range s.addrs {
		o := 12 + i*4
		binary.LittleEndian.PutUint32(d[o:o+4], a)
	}

	if err := c.dev.ReleaseBlock(buf, true); err != nil {
		xlog.Fatalf("xv6fs/icache: write inode block %d for inum %d: %v", blockno, s.inum, err)
	}
}
