package block_test

import (
	"testing"

	"github.com/2214880631/xv6fs/block"
	. "github.com/jacobsa/oglematchers"
	. "github.com/jacobsa/ogletest"
)

func TestAlloc(t *testing.T) { RunTests(t) }

type AllocTest struct {
	dev   *block.MemDevice
	alloc *block.Allocator
}

func init() { RegisterTestSuite(&AllocTest{}) }

const testNInodes = 64

func (t *AllocTest) SetUp(ti *TestInfo) {
	// 4096 blocks is fewer than BPB, so a single bitmap block tracks them all.
	t.dev = block.NewMemDevice(1, 4096)
	t.alloc = block.NewAllocator(t.dev, testNInodes)
}

func (t *AllocTest) AllocatesLowestFreeBlockFirst() {
	b0 := t.alloc.Alloc()
	b1 := t.alloc.Alloc()
	b2 := t.alloc.Alloc()

	ExpectThat(b1, GreaterThan(b0))
	ExpectThat(b2, GreaterThan(b1))
}

func (t *AllocTest) FreedBlockIsReusable() {
	first := t.alloc.Alloc()
	second := t.alloc.Alloc()
	t.alloc.Free(first)

	reused := t.alloc.Alloc()
	ExpectThat(reused, Equals(first))
	ExpectThat(second, Not(Equals(reused)))
}

func (t *AllocTest) DoubleFreePanics() {
	b := t.alloc.Alloc()
	t.alloc.Free(b)

	defer func() {
		r := recover()
		ExpectThat(r, Not(Equals(nil)))
	}()
	t.alloc.Free(b)
}

func (t *AllocTest) FreeZeroesTheBlock() {
	b := t.alloc.Alloc()

	buf, err := t.dev.ReadBlock(b, true)
	AssertEq(nil, err)
	for i := range buf.Data {
		buf.Data[i] = 0xAB
	}
	AssertEq(nil, t.dev.ReleaseBlock(buf, true))

	t.alloc.Free(b)

	reread, err := t.dev.ReadBlock(b, false)
	AssertEq(nil, err)

	nonZero := 0
	for _, v := range reread.Data {
		if v != 0 {
			nonZero++
		}
	}
	ExpectEq(0, nonZero)
}
