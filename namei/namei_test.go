package namei_test

import (
	"testing"

	"github.com/2214880631/xv6fs"
	"github.com/2214880631/xv6fs/block"
	"github.com/2214880631/xv6fs/devsw"
	"github.com/2214880631/xv6fs/dirent"
	"github.com/2214880631/xv6fs/icache"
	"github.com/2214880631/xv6fs/namei"
	"github.com/2214880631/xv6fs/namei/nc"
	"github.com/2214880631/xv6fs/reclaim"
	. "github.com/jacobsa/ogletest"
)

func TestNamei(t *testing.T) { RunTests(t) }

func TestSkipElem(t *testing.T) {
	cases := []struct {
		path, elem, rest string
	}{
		{"", "", ""},
		{"/", "", ""},
		{"a", "a", ""},
		{"/a/bb/ccc", "a", "bb/ccc"},
		{"a/bb/ccc", "a", "bb/ccc"},
		{"///a///b", "a", "b"},
	}
	for _, c := range cases {
		elem, rest := namei.SkipElem(c.path)
		if elem != c.elem || rest != c.rest {
			t.Errorf("SkipElem(%q) = (%q, %q), want (%q, %q)", c.path, elem, rest, c.elem, c.rest)
		}
	}
}

const testNInodes = 32

type NameiTest struct {
	dev    *block.MemDevice
	alloc  *block.Allocator
	sw     devsw.Table
	domain reclaim.Domain
	cache  *icache.Cache
	root   *icache.Handle
	sub    *icache.Handle
	file   *icache.Handle
	ctx    *namei.Context
}

func init() { RegisterTestSuite(&NameiTest{}) }

func (t *NameiTest) SetUp(ti *TestInfo) {
	t.dev = block.NewMemDevice(1, 4096)
	t.alloc = block.NewAllocator(t.dev, testNInodes)
	t.cache = icache.NewCache(t.dev, t.alloc, &t.sw, testNInodes, 8, &t.domain)

	root, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeDir)
	AssertEq(nil, err)
	t.cache.Ilock(root, true)
	AssertEq(nil, dirent.InitDir(t.cache, root, root.Inum()))
	t.cache.Iunlock(root)
	t.root = root

	sub, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeDir)
	AssertEq(nil, err)
	t.cache.Ilock(sub, true)
	AssertEq(nil, dirent.InitDir(t.cache, sub, root.Inum()))
	t.cache.Iunlock(sub)
	t.sub = sub

	t.cache.Ilock(root, true)
	AssertEq(nil, dirent.DirLink(t.cache, root, "a", sub.Inum()))
	t.cache.Iunlock(root)

	file, err := t.cache.Ialloc(t.dev.Dev(), xv6fs.TypeFile)
	AssertEq(nil, err)
	t.file = file

	t.cache.Ilock(sub, true)
	AssertEq(nil, dirent.DirLink(t.cache, sub, "b", file.Inum()))
	t.cache.Iunlock(sub)

	t.ctx = &namei.Context{Cache: t.cache, NC: nc.New(), Cwd: t.root}
}

func (t *NameiTest) NameiResolvesNestedPath() {
	h, err := namei.Namei(t.ctx, "/a/b")
	AssertEq(nil, err)
	AssertTrue(h != nil)
	ExpectEq(t.file.Inum(), h.Inum())
	t.cache.Iput(h)
}

func (t *NameiTest) NameiResolvesNestedPathTwiceUsingNameCache() {
	h1, err := namei.Namei(t.ctx, "/a/b")
	AssertEq(nil, err)
	t.cache.Iput(h1)

	h2, err := namei.Namei(t.ctx, "/a/b")
	AssertEq(nil, err)
	AssertTrue(h2 != nil)
	ExpectEq(t.file.Inum(), h2.Inum())
	t.cache.Iput(h2)
}

func (t *NameiTest) NameiMissingComponentReturnsNilNil() {
	h, err := namei.Namei(t.ctx, "/a/nonexistent")
	AssertEq(nil, err)
	ExpectTrue(h == nil, "expected nil handle, got %v", h)
}

func (t *NameiTest) NameiThroughNonDirectoryFails() {
	h, err := namei.Namei(t.ctx, "/a/b/c")
	ExpectEq(xv6fs.ErrNotDir, err)
	ExpectTrue(h == nil, "expected nil handle, got %v", h)
}

func (t *NameiTest) NameiParentReturnsDirAndFinalElement() {
	dir, elem, err := namei.NameiParent(t.ctx, "/a/b")
	AssertEq(nil, err)
	AssertTrue(dir != nil)
	ExpectEq(t.sub.Inum(), dir.Inum())
	ExpectEq("b", elem)
	t.cache.Iput(dir)
}

func (t *NameiTest) NameiParentOfRootHasNoParent() {
	dir, elem, err := namei.NameiParent(t.ctx, "/")
	AssertEq(nil, err)
	ExpectTrue(dir == nil, "expected nil handle, got %v", dir)
	ExpectEq("", elem)
}
