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

// Package superblock reads and writes the fixed layout header stored at
// block index xv6fs.SuperBlock.
package superblock

import (
	"encoding/binary"

	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
)

// Superblock is the bit-exact on-disk layout header: total block count and
// inode count. Everything else in the layout (IBlock, BBlock) is derived
// from these two fields plus the fixed constants in the xv6fs package.
type Superblock struct {
	Size    uint32
	NInodes uint32
}

const wireSize = 8 // two little-endian uint32s

// Read fetches the superblock from dev's block 1.
func Read(dev block.Device) (Superblock, error) {
	buf, err := dev.ReadBlock(xv6fs.SuperBlock, false)
	if err != nil {
		return Superblock{}, err
	}
	defer dev.ReleaseBlock(buf, false)

	var sb Superblock
	sb.Size = binary.LittleEndian.Uint32(buf.Data[0:4])
	sb.NInodes = binary.LittleEndian.Uint32(buf.Data[4:8])
	return sb, nil
}

// Write stores sb into dev's block 1, immediately (no batching), matching
// spec.md's no-journaling design.
func Write(dev block.Device, sb Superblock) error {
	buf, err := dev.ReadBlock(xv6fs.SuperBlock, true)
	if err != nil {
		return err
	}

	binary.LittleEndian.PutUint32(buf.Data[0:4], sb.Size)
	binary.LittleEndian.PutUint32(buf.Data[4:8], sb.NInodes)

	return dev.ReleaseBlock(buf, true)
}
