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

// Package namei is the path resolver from spec.md §4.7: skipelem splits a
// path into its first element and the remainder, and namex/namei/nameiparent
// walk a path one directory at a time, taking and releasing each
// directory's lock in turn so no two directories along the path are ever
// held locked simultaneously.
package namei

import (
	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/dirent"
	"github.com/2214880631/xv6fs/icache"
	"github.com/2214880631/xv6fs/namei/nc"
)

// Context carries the per-call state namex needs beyond the path string
// itself: the cache it resolves through, the process's current-directory
// handle, and an optional name cache. A nil NC disables caching, which is
// the idiomatic Go rendering of "the name cache is an optional
// optimization" (spec.md §1 lists it as an external collaborator, not a
// mandatory one the way defer_free is).
type Context struct {
	Cache *icache.Cache
	NC    *nc.Cache
	Cwd   *icache.Handle
}

// SkipElem splits path into its first path element and the remainder,
// truncating an over-long element to DIRSIZ bytes exactly as the on-disk
// directory encoding does, and skipping any run of leading/separating
// slashes. SkipElem("") returns ("", "").
func SkipElem(path string) (elem, rest string) {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	if len(path) == 0 {
		return "", ""
	}

	i := 0
	for i < len(path) && path[i] != '/' {
		i++
	}
	elem = path[:i]
	if len(elem) > xv6fs.DIRSIZ {
		elem = elem[:xv6fs.DIRSIZ]
	}

	rest = path[i:]
	for len(rest) > 0 && rest[0] == '/' {
		rest = rest[1:]
	}

	return elem, rest
}

// lookupCached resolves name within dp, consulting and populating ctx.NC
// when present, and otherwise falling back to dirent.DirLookup directly.
func lookupCached(ctx *Context, dp *icache.Handle, name string) (*icache.Handle, error) {
	if ctx.NC != nil {
		if inum, ok := ctx.NC.Lookup(dp.Inum(), name); ok {
			return ctx.Cache.Iget(dp.Dev(), inum)
		}
	}

	h, _, err := dirent.DirLookup(ctx.Cache, dp, name)
	if err != nil {
		return nil, err
	}
	if h != nil && ctx.NC != nil {
		ctx.NC.Insert(dp.Inum(), name, h.Inum())
	}
	return h, nil
}

// namex is the shared body of Namei and NameiParent — spec.md §4.7's namex.
// An absolute path (leading "/") starts from the root inode; a relative
// path starts from ctx.Cwd. When parent is true, resolution stops one
// level early: it returns the locked-then-released parent directory's
// Handle and the final path element's name, rather than resolving that
// last element itself, and a path with no elements (e.g. "" or "/") has no
// parent and yields (nil, "", nil).
func namex(ctx *Context, path string, parent bool) (*icache.Handle, string, error) {
	var ip *icache.Handle
	var err error

	if len(path) > 0 && path[0] == '/' {
		ip, err = ctx.Cache.Iget(ctx.Cwd.Dev(), xv6fs.RootInum)
		if err != nil {
			return nil, "", err
		}
	} else {
		ip = ctx.Cache.Idup(ctx.Cwd)
	}

	elem, rest := SkipElem(path)
	for elem != "" {
		ctx.Cache.Ilock(ip, false)

		if ip.Type() != xv6fs.TypeDir {
			ctx.Cache.IunlockPut(ip)
			return nil, "", xv6fs.ErrNotDir
		}

		if parent && rest == "" {
			ctx.Cache.Iunlock(ip)
			return ip, elem, nil
		}

		next, err := lookupCached(ctx, ip, elem)
		ctx.Cache.IunlockPut(ip)
		if err != nil {
			return nil, "", err
		}
		if next == nil {
			return nil, "", nil
		}

		ip = next
		elem, rest = SkipElem(rest)
	}

	if parent {
		ctx.Cache.Iput(ip)
		return nil, "", nil
	}

	return ip, "", nil
}

// Namei resolves path to a Handle, or (nil, nil) if any component along it
// does not exist.
func Namei(ctx *Context, path string) (*icache.Handle, error) {
	h, _, err := namex(ctx, path, false)
	return h, err
}

// NameiParent resolves path's parent directory, returning it along with
// the final path element's name (not yet looked up in that directory) —
// the handle callers need to then call dirent.DirLink or dirent.DirLookup
// themselves while holding its lock.
func NameiParent(ctx *Context, path string) (*icache.Handle, string, error) {
	return namex(ctx, path, true)
}
