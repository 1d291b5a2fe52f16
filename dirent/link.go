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

// DirLink adds an entry mapping name to inum in directory dp, reusing the
// first empty (deleted) slot it finds or appending past the end — spec.md
// §4.6's dirlink. It returns xv6fs.ErrExists if name is already present.
// The caller must hold Ilock as writer on dp.
func DirLink(c *icache.Cache, dp *icache.Handle, name string, inum uint32) error {
	existing, _, err := DirLookup(c, dp, name)
	if err != nil {
		return err
	}
	if existing != nil {
		c.Iput(existing)
		return xv6fs.ErrExists
	}

	buf := make([]byte, EntrySize)
	off := uint32(0)
	for ; uint64(off) < uint64(dp.Size()); off += EntrySize {
		n, err := c.Readi(dp, buf, uint64(off))
		if err != nil {
			return err
		}
		if n < EntrySize {
			break
		}
		if decodeEntry(buf).inum == 0 {
			break
		}
	}

	e := entry{inum: uint16(inum), name: encodeName(name)}
	if _, err := c.Writei(dp, e.encode(), uint64(off)); err != nil {
		return err
	}

	return nil
}

// InitDir writes the "." and ".." entries a freshly Ialloc'd directory dp
// needs before any other DirLink call against it can succeed, wiring dp to
// itself and to parent the way mkdir does. The caller must hold Ilock as
// writer on dp.
func InitDir(c *icache.Cache, dp *icache.Handle, parent uint32) error {
	if err := DirLink(c, dp, ".", dp.Inum()); err != nil {
		return err
	}
	return DirLink(c, dp, "..", parent)
}
