package dirent_test

import (
	"testing"

	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
	"github.com/2214880631/xv6fs/devsw"
	"github.com/2214880631/xv6fs/dirent"
	"github.com/2214880631/xv6fs/icache"
	"github.com/2214880631/xv6fs/reclaim"
	. "github.com/jacobsa/ogletest"
)

func TestDirent(t *testing.T) { RunTests(t) }

const testNInodes = 32

type DirentTest struct {
	dev    *block.MemDevice
	alloc  *block.Allocator
	sw     devsw.Table
	domain reclaim.Domain
	cache  *icache.Cache
	root   *icache.Handle
}

func init() { RegisterTestSuite(&DirentTest{}) }

func (t *DirentTest) SetUp(ti *TestInfo) {
	t.dev = block.NewMemDevice(1, 4096)
	t.alloc = block.NewAllocator(t.dev, testNInodes)

	// Claim the boot, super, inode and bitmap blocks the way cmd/mkfs does,
	// so bmap never hands out block 0 (an address of 0 reads as
	// "unallocated") or a metadata block as directory content.
	for b := uint32(0); b <= xv6fs.BBlock(t.dev.NumBlocks()-1, testNInodes); b++ {
		t.alloc.Alloc()
	}

	t.cache = icache.NewCache(t.dev, t.alloc, &t.sw, testNInodes, 8, &t.domain)

	root, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeDir)
	AssertEq(nil, err)

	t.cache.Ilock(root, true)
	AssertEq(nil, dirent.InitDir(t.cache, root, root.Inum()))
	t.cache.Iunlock(root)

	t.root = root
}

func (t *DirentTest) InitDirWritesDotAndDotDot() {
	t.cache.Ilock(t.root, false)
	dot, off, err := dirent.DirLookup(t.cache, t.root, ".")
	AssertEq(nil, err)
	AssertTrue(dot != nil)
	ExpectEq(t.root.Inum(), dot.Inum())
	ExpectEq(0, off)
	t.cache.Iput(dot)

	dotdot, _, err := dirent.DirLookup(t.cache, t.root, "..")
	AssertEq(nil, err)
	AssertTrue(dotdot != nil)
	ExpectEq(t.root.Inum(), dotdot.Inum())
	t.cache.Iput(dotdot)
	t.cache.Iunlock(t.root)
}

func (t *DirentTest) DirLookupMissReturnsNilNil() {
	t.cache.Ilock(t.root, false)
	h, off, err := dirent.DirLookup(t.cache, t.root, "nonexistent")
	t.cache.Iunlock(t.root)

	AssertEq(nil, err)
	ExpectTrue(h == nil, "expected nil handle, got %v", h)
	ExpectEq(0, off)
}

func (t *DirentTest) DirLinkThenLookupRoundTrips() {
	child, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeFile)
	AssertEq(nil, err)
	child.SetNlink(1)
	t.cache.Iupdate(child)

	t.cache.Ilock(t.root, true)
	AssertEq(nil, dirent.DirLink(t.cache, t.root, "foo.txt", child.Inum()))
	t.cache.Iunlock(t.root)

	t.cache.Ilock(t.root, false)
	found, _, err := dirent.DirLookup(t.cache, t.root, "foo.txt")
	t.cache.Iunlock(t.root)

	AssertEq(nil, err)
	AssertTrue(found != nil)
	ExpectEq(child.Inum(), found.Inum())

	t.cache.Iput(found)
	t.cache.Iput(child)
}

func (t *DirentTest) DirLinkDuplicateNameFails() {
	child, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeFile)
	AssertEq(nil, err)

	t.cache.Ilock(t.root, true)
	AssertEq(nil, dirent.DirLink(t.cache, t.root, "dup", child.Inum()))
	err = dirent.DirLink(t.cache, t.root, "dup", child.Inum())
	t.cache.Iunlock(t.root)

	ExpectEq(xv6fs.ErrExists, err)
	t.cache.Iput(child)
}

func (t *DirentTest) DirLinkReusesDeletedSlot() {
	a, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeFile)
	AssertEq(nil, err)
	b, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeFile)
	AssertEq(nil, err)

	t.cache.Ilock(t.root, true)
	AssertEq(nil, dirent.DirLink(t.cache, t.root, "a", a.Inum()))
	sizeAfterA := t.root.Size()

	found, off, err := dirent.DirLookup(t.cache, t.root, "a")
	AssertEq(nil, err)
	t.cache.Iput(found)
	// Delete "a" by zeroing its entry's inum in place.
	zero := make([]byte, dirent.EntrySize)
	_, err = t.cache.Writei(t.root, zero, uint64(off))
	AssertEq(nil, err)

	AssertEq(nil, dirent.DirLink(t.cache, t.root, "b", b.Inum()))

	// "b" should have landed in the slot "a" vacated rather than growing
	// the directory.
	ExpectEq(sizeAfterA, t.root.Size())

	bFound, _, err := dirent.DirLookup(t.cache, t.root, "b")
	t.cache.Iunlock(t.root)
	AssertEq(nil, err)
	AssertTrue(bFound != nil)
	ExpectEq(b.Inum(), bFound.Inum())

	t.cache.Iput(bFound)
	t.cache.Iput(a)
	t.cache.Iput(b)
}
