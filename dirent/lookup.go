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

package dirent

import (
	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/icache"
)

// DirLookup looks up name in directory dp, returning the Handle for the
// inode it names and the byte offset of the entry within dp — the offset
// is what a subsequent unlink/rename needs to overwrite the entry in
// place, per spec.md §4.6. A not-found result is (nil, 0, nil), matching
// spec.md's error handling design. The caller must hold Ilock (reader or
// writer) on dp.
func DirLookup(c *icache.Cache, dp *icache.Handle, name string) (*icache.Handle, uint32, error) {
	if dp.Type() != xv6fs.TypeDir {
		return nil, 0, xv6fs.ErrNotDir
	}

	buf := make([]byte, EntrySize)
	for off := uint32(0); uint64(off) < uint64(dp.Size()); off += EntrySize {
		n, err := c.Readi(dp, buf, uint64(off))
		if err != nil {
			return nil, 0, err
		}
		if n < EntrySize {
			break
		}

		e := decodeEntry(buf)
		if e.inum == 0 {
			continue
		}
		if decodeName(e.name) == name {
			h, err := c.Iget(dp.Dev(), uint32(e.inum))
			if err != nil {
				return nil, 0, err
			}
			return h, off, nil
		}
	}

	return nil, 0, nil
}
