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

// Command mkfs formats a fresh xv6fs image: it lays out the superblock,
// reserves the boot/super/inode/bitmap region in the block bitmap, and
// writes a root directory wired up with "." and "..". It mirrors the
// teacher's samples/mount_memfs/mount.go in shape: flags parsed up front,
// then a flat sequence of steps each fatal on error.
package main

import (
	"flag"
	"log"

	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
	"github.com/2214880631/xv6fs/devsw"
	"github.com/2214880631/xv6fs/dirent"
	"github.com/2214880631/xv6fs/icache"
	"github.com/2214880631/xv6fs/reclaim"
	"github.com/2214880631/xv6fs/superblock"
)

var (
	fImage      = flag.String("image", "", "Path to the backing image file to create.")
	fSize       = flag.Int("size", 1024, "Total number of blocks in the image.")
	fNInodes    = flag.Int("ninodes", 200, "Number of on-disk inode slots.")
	fCacheSlots = flag.Int("cache-slots", 64, "Number of in-memory inode cache slots to size the running system for (not stored on disk).")
)

func main() {
	flag.Parse()

	if *fImage == "" {
		log.Fatalf("You must set --image.")
	}
	if *fSize <= 2 {
		log.Fatalf("--size must leave room for the boot and super blocks.")
	}

	dev, err := block.CreateFileDevice(*fImage, 1, uint32(*fSize))
	if err != nil {
		log.Fatalf("CreateFileDevice: %v", err)
	}
	defer dev.Close()

	sb := superblock.Superblock{Size: uint32(*fSize), NInodes: uint32(*fNInodes)}
	if err := superblock.Write(dev, sb); err != nil {
		log.Fatalf("superblock.Write: %v", err)
	}

	alloc := block.NewAllocator(dev, sb.NInodes)

	// The boot block, super block, inode region, and bitmap region
	// precede the data region and must never be handed out by Alloc.
	// Claiming them in block-number order via the allocator itself,
	// rather than poking the bitmap directly, keeps mkfs grounded in
	// the same invariant-checked path every other allocation goes
	// through.
	inodeBlocks := sb.NInodes/xv6fs.IPB + 1
	bitmapBlocks := (sb.Size + xv6fs.BPB - 1) / xv6fs.BPB
	dataStart := 2 + inodeBlocks + bitmapBlocks
	for b := uint32(0); b < dataStart; b++ {
		if got := alloc.Alloc(); got != b {
			log.Fatalf("reserved-region layout mismatch: expected block %d, allocator returned %d", b, got)
		}
	}

	var sw devsw.Table
	var domain reclaim.Domain
	cache := icache.NewCache(dev, alloc, &sw, sb.NInodes, *fCacheSlots, &domain)

	root, err := cache.Ialloc(dev.Dev(), xv6fs.TypeDir)
	if err != nil {
		log.Fatalf("Ialloc root: %v", err)
	}
	if root.Inum() != xv6fs.RootInum {
		log.Fatalf("root inode got inum %d, want %d", root.Inum(), xv6fs.RootInum)
	}

	cache.Ilock(root, true)
	root.SetNlink(1)
	cache.Iupdate(root)
	if err := dirent.InitDir(cache, root, root.Inum()); err != nil {
		log.Fatalf("InitDir: %v", err)
	}
	cache.IunlockPut(root)

	log.Printf("formatted %s: %d blocks, %d inodes", *fImage, sb.Size, sb.NInodes)
}
