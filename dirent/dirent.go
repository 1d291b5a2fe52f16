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

// Package dirent implements the directory encoding from spec.md §4.6:
// fixed-width entries stored as regular file content, read and written
// through icache's Readi/Writei exactly like any other file's bytes.
package dirent

import "github.com/2214880631/xv6fs"

// EntrySize is the on-disk width of one directory entry: a two-byte inode
// number followed by a DIRSIZ-byte name field. A name exactly DIRSIZ bytes
// long is not null-terminated.
const EntrySize = 2 + xv6fs.DIRSIZ

// entry is the decoded form of one directory entry. Inum == 0 marks an
// unused (deleted or never-written) slot.
type entry struct {
	inum uint16
	name [xv6fs.DIRSIZ]byte
}

func encodeName(name string) [xv6fs.DIRSIZ]byte {
	var b [xv6fs.DIRSIZ]byte
	copy(b[:], name)
	return b
}

func decodeName(b [xv6fs.DIRSIZ]byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

func (e entry) encode() []byte {
	buf := make([]byte, EntrySize)
	buf[0] = byte(e.inum)
	buf[1] = byte(e.inum >> 8)
	copy(buf[2:], e.name[:])
	return buf
}

func decodeEntry(buf []byte) entry {
	var e entry
	e.inum = uint16(buf[0]) | uint16(buf[1])<<8
	copy(e.name[:], buf[2:2+xv6fs.DIRSIZ])
	return e
}
