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

package block

import (
	"fmt"
	"sync"
)

// MemDevice is an in-memory Device, used by tests and by tools that don't
// need the contents to survive a process restart.
type MemDevice struct {
	dev uint32

	mu     sync.Mutex
	blocks [][]byte // GUARDED_BY(mu)

	pool bufferPool
}

var _ Device = (*MemDevice)(nil)

// NewMemDevice creates an in-memory device of numBlocks blocks, all
// initially zeroed.
func NewMemDevice(dev uint32, numBlocks uint32) *MemDevice {
	d := &MemDevice{
		dev:    dev,
		blocks: make([][]byte, numBlocks),
	}
	for i := range d.blocks {
		d.blocks[i] = zeroed()
	}
	return d
}

func (d *MemDevice) Dev() uint32       { return d.dev }
func (d *MemDevice) NumBlocks() uint32 { return uint32(len(d.blocks)) }

func (d *MemDevice) checkBlockno(blockno uint32) {
	if blockno >= uint32(len(d.blocks)) {
		panic(fmt.Sprintf("xv6fs/block: blockno %d out of range [0, %d)", blockno, len(d.blocks)))
	}
}

func (d *MemDevice) ReadBlock(blockno uint32, writerIntent bool) (*Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.checkBlockno(blockno)

	b := d.pool.get()
	b.Dev = d.dev
	b.Blockno = blockno
	copy(b.Data, d.blocks[blockno])
	return b, nil
}

func (d *MemDevice) WriteBlock(buf *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.checkBlockno(buf.Blockno)
	copy(d.blocks[buf.Blockno], buf.Data)
	return nil
}

func (d *MemDevice) ReleaseBlock(buf *Buffer, dirty bool) error {
	var err error
	if dirty {
		err = d.WriteBlock(buf)
	}
	d.pool.put(buf)
	return err
}
