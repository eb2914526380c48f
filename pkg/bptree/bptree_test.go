package bptree

import (
	"sort"
	"testing"

	"ratingdb/pkg/storage"
)

// testBlockSize is chosen so maxKeysForBlockSize yields 8, small enough
// that an 8-entry leaf is already at capacity and a 9th insert forces a
// split.
const testBlockSize = 128

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(storage.Config{DiskSize: testBlockSize * 64, BlockSize: testBlockSize})
	if ix.MaxKeys() != 8 {
		t.Fatalf("MaxKeys() = %d, want 8 (adjust testBlockSize)", ix.MaxKeys())
	}
	return ix
}

func handleFor(key uint32, n int) storage.Handle {
	return storage.Handle{Block: storage.BlockAddr(key), RecordID: int32(n)}
}

func TestInsertAscendingNoSplitThenFind(t *testing.T) {
	ix := newTestIndex(t)
	keys := []uint32{5, 15, 25, 35, 45, 55, 65, 75}
	for i, k := range keys {
		ix.Insert(k, handleFor(k, i))
	}

	got := ix.Find(0, 100)
	if len(got) != len(keys) {
		t.Fatalf("Find returned %d handles, want %d", len(got), len(keys))
	}
	for i, h := range got {
		if h.Block != storage.BlockAddr(keys[i]) {
			t.Fatalf("result %d out of order: %+v", i, got)
		}
	}
	if ix.Stats().NodeCount != 1 {
		t.Fatalf("expected single root leaf before any split, got NodeCount=%d", ix.Stats().NodeCount)
	}
}

func TestNinthInsertSplitsLeaf(t *testing.T) {
	ix := newTestIndex(t)
	keys := []uint32{5, 15, 25, 35, 45, 55, 65, 75}
	for i, k := range keys {
		ix.Insert(k, handleFor(k, i))
	}
	ix.Insert(10, handleFor(10, 99))

	if ix.Stats().Height != 2 {
		t.Fatalf("expected height 2 after first split, got %d", ix.Stats().Height)
	}
	all := append([]uint32{10}, keys...)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	got := ix.Find(0, 1000)
	if len(got) != len(all) {
		t.Fatalf("got %d results, want %d", len(got), len(all))
	}
}

func TestDuplicateKeyBuildsOverflowChain(t *testing.T) {
	ix := newTestIndex(t)
	for i := 0; i < 4; i++ {
		ix.Insert(10, handleFor(10, i))
	}
	got := ix.Find(10, 10)
	if len(got) != 4 {
		t.Fatalf("got %d handles for duplicate key, want 4: %+v", len(got), got)
	}
	if ix.Stats().OverflowNodeCount != 1 {
		t.Fatalf("expected one overflow node, got %d", ix.Stats().OverflowNodeCount)
	}
}

func TestDeleteSmallestKeyKeepsRestReachable(t *testing.T) {
	ix := newTestIndex(t)
	keys := []uint32{5, 15, 25, 35, 45, 55, 65, 75, 10, 20, 30}
	for i, k := range keys {
		ix.Insert(k, handleFor(k, i))
	}

	before := ix.Find(0, 1000)
	if len(before) != len(keys) {
		t.Fatalf("setup: got %d, want %d", len(before), len(keys))
	}

	// delete the smallest key; the root's only separator here is 45, so
	// no ancestor key names 5 and none is rewritten
	if err := ix.Delete(5); err != nil {
		t.Fatalf("Delete(5): %v", err)
	}
	after := ix.Find(0, 1000)
	if len(after) != len(keys)-1 {
		t.Fatalf("got %d after delete, want %d", len(after), len(keys)-1)
	}
	for _, h := range after {
		if h == handleFor(5, 0) {
			t.Fatalf("deleted key still reachable")
		}
	}
}

func TestDeleteAllKeysCollapsesToEmptyRoot(t *testing.T) {
	ix := newTestIndex(t)
	keys := []uint32{5, 15, 25, 35, 45, 55, 65, 75, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	for i, k := range keys {
		ix.Insert(k, handleFor(k, i))
	}

	descending := append([]uint32{}, keys...)
	sort.Slice(descending, func(i, j int) bool { return descending[i] > descending[j] })

	for _, k := range descending {
		if err := ix.Delete(k); err != nil {
			t.Fatalf("Delete(%d): %v", k, err)
		}
		// P1/P2: every non-root node stays at or above its minimum
		// occupancy after each delete.
		ix.walkCheckMinOccupancy(t, ix.root)
	}

	final := ix.get(ix.root)
	if final.kind != kindLeaf || len(final.keys) != 0 {
		t.Fatalf("expected a single empty leaf root, got kind=%v keys=%v", final.kind, final.keys)
	}
	if ix.Stats().Height != 1 {
		t.Fatalf("expected height 1 once collapsed to a leaf root, got %d", ix.Stats().Height)
	}
}

// walkCheckMinOccupancy asserts I3: every non-root node holds at least
// its minimum key count.
func (ix *Index) walkCheckMinOccupancy(t *testing.T, id NodeAddr) {
	t.Helper()
	nd := ix.get(id)
	if id != ix.root && len(nd.keys) < ix.minKeysFor(nd) {
		t.Fatalf("node %d under minimum occupancy: %d keys, min %d", id, len(nd.keys), ix.minKeysFor(nd))
	}
	if nd.kind == kindInternal {
		for _, c := range nd.children {
			ix.walkCheckMinOccupancy(t, c)
		}
	}
}

// TestDeleteCascadesThroughInternalMerge builds a tree tall enough that
// an internal node (not just a leaf) has to merge with a sibling during
// delete, exercising mergeSiblings' internal branch: the recursive key
// removed from the grandparent must be the parent's own separator, not
// the merged-away right child's first key (those differ one level below
// the root, where a naive `right.keys[0]` would search for an absent key
// and leave a stale pointer at the merged slot).
func TestDeleteCascadesThroughInternalMerge(t *testing.T) {
	ix := newTestIndex(t)

	const n = 300
	for i := uint32(0); i < n; i++ {
		ix.Insert(i, handleFor(i, int(i)))
	}
	if ix.Stats().Height < 3 {
		t.Fatalf("setup: height = %d, want >= 3 so an internal merge is reachable", ix.Stats().Height)
	}

	for k := uint32(0); k < n; k++ {
		if err := ix.Delete(k); err != nil {
			t.Fatalf("Delete(%d): %v", k, err)
		}
		// P2/I4: every non-root node stays at or above its minimum
		// occupancy, and every child's parent pointer is consistent,
		// even while internal nodes are merging.
		ix.walkCheckMinOccupancy(t, ix.root)
		ix.walkCheckParentPointers(t, ix.root, nilNode)

		remaining := n - k - 1
		got := ix.Find(0, n)
		if uint32(len(got)) != remaining {
			t.Fatalf("after Delete(%d): Find returned %d handles, want %d", k, len(got), remaining)
		}
	}

	final := ix.get(ix.root)
	if final.kind != kindLeaf || len(final.keys) != 0 {
		t.Fatalf("expected a single empty leaf root, got kind=%v keys=%v", final.kind, final.keys)
	}
}

// walkCheckParentPointers asserts I4/P3: every child's parent pointer
// names the node that actually holds it, recursing safely even through a
// node id that mergeSiblings may have freed and nilled out.
func (ix *Index) walkCheckParentPointers(t *testing.T, id, wantParent NodeAddr) {
	t.Helper()
	nd := ix.get(id)
	if nd == nil {
		t.Fatalf("node %d is nil (freed but still referenced)", id)
	}
	if nd.parent != wantParent {
		t.Fatalf("node %d: parent = %d, want %d", id, nd.parent, wantParent)
	}
	if nd.kind == kindInternal {
		for _, c := range nd.children {
			ix.walkCheckParentPointers(t, c, id)
		}
	}
}

func TestDeleteMissingKeyReturnsNotFound(t *testing.T) {
	ix := newTestIndex(t)
	ix.Insert(5, handleFor(5, 0))
	if err := ix.Delete(999); err == nil {
		t.Fatalf("expected ErrKeyNotFound")
	}
}

func TestRandomQueriesAgainstBruteForce(t *testing.T) {
	ix := newTestIndex(t)
	n := 200
	handles := make(map[uint32][]storage.Handle)
	for i := 0; i < n; i++ {
		key := uint32(i%40) * 7
		h := handleFor(key, i)
		ix.Insert(key, h)
		handles[key] = append(handles[key], h)
	}

	var flat []struct {
		key uint32
		h   storage.Handle
	}
	for k, hs := range handles {
		for _, h := range hs {
			flat = append(flat, struct {
				key uint32
				h   storage.Handle
			}{k, h})
		}
	}

	for q := 0; q < 100; q++ {
		lo := uint32((q * 7) % 300)
		hi := lo + uint32(q%50)
		want := map[storage.Handle]bool{}
		for _, e := range flat {
			if e.key >= lo && e.key <= hi {
				want[e.h] = true
			}
		}
		got := ix.Find(lo, hi)
		if len(got) != len(want) {
			t.Fatalf("query [%d,%d]: got %d results, want %d", lo, hi, len(got), len(want))
		}
		for _, h := range got {
			if !want[h] {
				t.Fatalf("query [%d,%d]: unexpected handle %+v", lo, hi, h)
			}
		}
	}
}
