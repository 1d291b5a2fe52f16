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

// Package block implements the buffered block layer spec.md treats as an
// external collaborator (read_block/write_block/release_block), plus the
// bitmap block allocator that sits on top of it.
package block

import "github.com/2214880631/xv6fs"

// Buffer is a handle to one in-flight block, analogous to a locked buffer
// cache entry. Data is exactly xv6fs.BSIZE bytes. Callers must call
// ReleaseBlock when done with it.
type Buffer struct {
	Dev     uint32
	Blockno uint32
	Data    []byte

	dirty bool
}

// Device is the narrow interface the inode cache, directory code, and block
// allocator use to read and write disk blocks. Implementations must be safe
// for concurrent use by multiple goroutines on different blocks; per-block
// serialization is the implementation's job (spec.md §5: "The block bitmap
// is consulted under the buffer layer's per-block lock only").
type Device interface {
	// ReadBlock returns the buffer for blockno, fetching it from backing
	// storage if not already cached. writerIntent is a hint that the
	// caller intends to mutate the block; implementations may use it to
	// decide whether to serve a shared or exclusive buffer.
	ReadBlock(blockno uint32, writerIntent bool) (*Buffer, error)

	// WriteBlock flushes buf's contents to backing storage immediately.
	// There is no write-behind or batching (spec.md's journaling
	// Non-goal): every call is an immediate synchronous write.
	WriteBlock(buf *Buffer) error

	// ReleaseBlock returns buf to the device. If dirty is true the
	// contents are written back first.
	ReleaseBlock(buf *Buffer, dirty bool) error

	// NumBlocks returns the total block count the device was formatted
	// with (mirrors the superblock's "size" field).
	NumBlocks() uint32

	// Dev returns the device identifier carried in Buffer.Dev and in
	// inode.Dev; spec.md's open question notes that it is carried but not
	// validated against at lookup time.
	Dev() uint32
}

// zeroed returns a fresh xv6fs.BSIZE-byte block, used by NewMemDevice for
// its initial blocks and by bufferPool when it has no recycled buffer.
func zeroed() []byte {
	return make([]byte, xv6fs.BSIZE)
}
