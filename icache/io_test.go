package icache_test

import (
	"bytes"
	"testing"

	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
	"github.com/2214880631/xv6fs/devsw"
	"github.com/2214880631/xv6fs/icache"
	"github.com/2214880631/xv6fs/reclaim"
	. "github.com/jacobsa/ogletest"
)

func TestIO(t *testing.T) { RunTests(t) }

type IOTest struct {
	dev    *block.MemDevice
	alloc  *block.Allocator
	sw     devsw.Table
	domain reclaim.Domain
	cache  *icache.Cache
}

func init() { RegisterTestSuite(&IOTest{}) }

func (t *IOTest) SetUp(ti *TestInfo) {
	// Enough blocks to exercise the indirect pointer: NDIRECT direct blocks
	// plus several indirect-mapped blocks, plus bitmap/inode overhead.
	t.dev = block.NewMemDevice(1, 8192)
	t.alloc = block.NewAllocator(t.dev, testNInodes)

	// Claim the boot, super, inode and bitmap blocks the way cmd/mkfs does,
	// so bmap never hands out block 0 (an address of 0 reads as
	// "unallocated") or a metadata block as file data.
	for b := uint32(0); b <= xv6fs.BBlock(t.dev.NumBlocks()-1, testNInodes); b++ {
		t.alloc.Alloc()
	}

	t.cache = icache.NewCache(t.dev, t.alloc, &t.sw, testNInodes, testCacheCap, &t.domain)
}

func (t *IOTest) WriteiThenReadiRoundTrips() {
	h, err := t.cache.Ialloc(t.dev.Dev(), 1)
	AssertEq(nil, err)

	t.cache.Ilock(h, true)
	want := []byte("the quick brown fox jumps over the lazy dog")
	n, err := t.cache.Writei(h, want, 0)
	AssertEq(nil, err)
	AssertEq(len(want), n)
	t.cache.Iunlock(h)

	t.cache.Ilock(h, false)
	got := make([]byte, len(want))
	n, err = t.cache.Readi(h, got, 0)
	AssertEq(nil, err)
	AssertEq(len(want), n)
	t.cache.Iunlock(h)

	ExpectTrue(bytes.Equal(want, got), "got %q, want %q", got, want)

	t.cache.Iput(h)
}

func (t *IOTest) WriteiPastNDirectPopulatesIndirectBlock() {
	h, err := t.cache.Ialloc(t.dev.Dev(), 1)
	AssertEq(nil, err)

	// Writei never starts past the current size, so first fill the file up
	// to off; the one-byte write at off then lands in a block well past
	// NDIRECT, which forces bmap to allocate the indirect block and
	// populate an entry in it.
	off := uint64(xv6fs.NDIRECT+3) * xv6fs.BSIZE

	t.cache.Ilock(h, true)
	n, err := t.cache.Writei(h, make([]byte, off), 0)
	AssertEq(nil, err)
	AssertEq(int(off), n)

	n, err = t.cache.Writei(h, []byte{0x42}, off)
	AssertEq(nil, err)
	AssertEq(1, n)

	got := make([]byte, 1)
	n, err = t.cache.Readi(h, got, off)
	t.cache.Iunlock(h)

	AssertEq(nil, err)
	AssertEq(1, n)
	ExpectEq(byte(0x42), got[0])

	t.cache.Iput(h)
}

func (t *IOTest) ReadiPastEndOfFileFails() {
	h, err := t.cache.Ialloc(t.dev.Dev(), 1)
	AssertEq(nil, err)

	t.cache.Ilock(h, true)
	_, err = t.cache.Writei(h, []byte("abc"), 0)
	AssertEq(nil, err)

	got := make([]byte, 4)
	_, err = t.cache.Readi(h, got, 10)
	t.cache.Iunlock(h)

	ExpectEq(xv6fs.ErrInvalidOffset, err)

	t.cache.Iput(h)
}

// countSetBits reads the single bitmap block covering the low end of the
// device's block range (everything this test allocates fits in it) and
// returns how many bits in it are set.
func (t *IOTest) countSetBits() int {
	blockno := xv6fs.BBlock(0, testNInodes)
	buf, err := t.dev.ReadBlock(blockno, false)
	AssertEq(nil, err)
	defer t.dev.ReleaseBlock(buf, false)

	n := 0
	for _, b := range buf.Data {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}
	return n
}

func (t *IOTest) ItruncResetsSizeAndFreesBlocks() {
	h, err := t.cache.Ialloc(t.dev.Dev(), 1)
	AssertEq(nil, err)
	inum := h.Inum()
	reserved := t.countSetBits()

	t.cache.Ilock(h, true)
	_, err = t.cache.Writei(h, bytes.Repeat([]byte{1}, xv6fs.BSIZE*3), 0)
	AssertEq(nil, err)
	h.SetNlink(1)
	t.cache.Iupdate(h)
	t.cache.Iunlock(h)

	// Ialloc never touches the block allocator, so the only bits set in
	// the bitmap at this point besides the reserved region are the 3 data
	// blocks bmap just claimed.
	setBeforeReclaim := t.countSetBits()
	ExpectEq(reserved+3, setBeforeReclaim)

	t.cache.Ilock(h, true)
	h.SetNlink(0)
	t.cache.Iupdate(h)
	t.cache.Iunlock(h)
	t.cache.Iput(h)

	// itrunc must have freed all 3 data blocks back to the allocator: their
	// bitmap bits are clear, not merely deferred, once Iput returns.
	ExpectEq(reserved, t.countSetBits())

	// The inode is free again, and a fresh Ialloc reuses it with size 0.
	h2, err := t.cache.Ialloc(t.dev.Dev(), 1)
	AssertEq(nil, err)
	ExpectEq(inum, h2.Inum())

	t.cache.Ilock(h2, false)
	ExpectEq(0, h2.Size())
	t.cache.Iunlock(h2)

	t.cache.Iput(h2)
}
