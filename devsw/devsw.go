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

// Package devsw is the character/block device switch table: readi/writei
// dispatch to a Device's Read/Write by an inode's major number, the way a
// kernel dispatches syscalls on a device file to its driver.
package devsw

// Device is one entry in the switch table. Read and write take the bytes
// requested and the current file offset (devices ignore the inode's size
// field) and return the count actually transferred.
type Device struct {
	Read  func(dst []byte, off int64) (int, error)
	Write func(src []byte, off int64) (int, error)
}

// MaxMajor bounds the switch table the way xv6's NDEV does.
const MaxMajor = 10

// Table is the device switch table, indexed by major number. A zero Device
// (nil Read/Write funcs) means "no such device configured".
type Table [MaxMajor]Device

// Get returns the device at major, and whether it is configured.
func (t *Table) Get(major int16) (Device, bool) {
	if major < 0 || int(major) >= MaxMajor {
		return Device{}, false
	}
	d := t[major]
	return d, d.Read != nil || d.Write != nil
}

// Register installs d at major, overwriting whatever was there.
func (t *Table) Register(major int16, d Device) {
	t[major] = d
}
