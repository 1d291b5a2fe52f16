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

// Package xv6fs defines the on-disk layout constants and error values
// shared by the block allocator, inode cache, directory encoding, and path
// resolver that make up the file system core.
//
// The primary elements of interest are:
//
//  *  block, which provides the buffered block device and bitmap allocator.
//
//  *  icache, which provides the fixed-capacity inode cache, the
//     reader/writer inode lock protocol, and block-mapped inode I/O.
//
//  *  dirent, which provides the fixed-width directory entry encoding.
//
//  *  namei, which provides path resolution (Namei, NameiParent) on top of
//     icache and dirent, backed by a name cache.
package xv6fs
