package blockstore

import (
	"errors"
	"testing"

	"ratingdb/pkg/storage"
)

func newTestStore(t *testing.T, maxRecords int) *BlockStore {
	t.Helper()
	blockSize := slotDirOffset + maxRecords*(storage.RecordSize+slotEntrySize)
	bs := New(storage.Config{DiskSize: blockSize * 4, BlockSize: blockSize})
	if bs.MaxRecords() != maxRecords {
		t.Fatalf("MaxRecords() = %d, want %d", bs.MaxRecords(), maxRecords)
	}
	return bs
}

func mustInsert(t *testing.T, bs *BlockStore, id uint32, votes uint32) storage.Handle {
	t.Helper()
	h, err := bs.Insert(storage.NewRecord(id, "tt0000001", 5.0, votes))
	if err != nil {
		t.Fatalf("Insert(%d): %v", id, err)
	}
	return h
}

func TestInsertRetrieveRoundtrip(t *testing.T) {
	bs := newTestStore(t, 4)
	h := mustInsert(t, bs, 1, 100)
	rec, err := bs.Retrieve(h)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if rec.RecordID != 1 || rec.NumVotes != 100 {
		t.Fatalf("got %+v", rec)
	}
}

func TestDeleteThenRetrieveNotFound(t *testing.T) {
	bs := newTestStore(t, 4)
	h := mustInsert(t, bs, 1, 100)
	if err := bs.Delete(h); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := bs.Retrieve(h); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Retrieve after delete: got %v, want ErrRecordNotFound", err)
	}
}

func TestTombstoneReuseTakesLastFound(t *testing.T) {
	bs := newTestStore(t, 4)
	h1 := mustInsert(t, bs, 1, 10)
	h2 := mustInsert(t, bs, 2, 20)
	h3 := mustInsert(t, bs, 3, 30)

	if err := bs.Delete(h1); err != nil {
		t.Fatal(err)
	}
	if err := bs.Delete(h2); err != nil {
		t.Fatal(err)
	}

	h4 := mustInsert(t, bs, 4, 40)

	addr := h3.Block
	blk := bs.blocks[addr]
	_, idx := blk.slot(1) // slot index 1 was record 2's tombstone, the last one scanned
	if idx == -1 {
		t.Fatalf("expected slot 1 to be reused, still a tombstone")
	}
	if h4.RecordID != 4 {
		t.Fatalf("unexpected handle %+v", h4)
	}
	rec, err := bs.Retrieve(h4)
	if err != nil {
		t.Fatal(err)
	}
	if rec.NumVotes != 40 {
		t.Fatalf("got %+v", rec)
	}
}

func TestFullBlockRejoinsFreeListOnDelete(t *testing.T) {
	bs := newTestStore(t, 2)
	h1 := mustInsert(t, bs, 1, 10)
	mustInsert(t, bs, 2, 20)

	// block is now full: a third insert must allocate a new block
	h3 := mustInsert(t, bs, 3, 30)
	if h3.Block == h1.Block {
		t.Fatalf("expected a new block once the first was full")
	}

	if err := bs.Delete(h1); err != nil {
		t.Fatal(err)
	}

	// the first block should be back in the free list and reused next
	h4 := mustInsert(t, bs, 4, 40)
	if h4.Block != h1.Block {
		t.Fatalf("expected insert to reuse block %d, got %d", h1.Block, h4.Block)
	}
}

func TestBlockMarkedFreeWhenEmpty(t *testing.T) {
	bs := newTestStore(t, 2)
	h1 := mustInsert(t, bs, 1, 10)

	if !bs.IsAllocated(h1.Block) {
		t.Fatalf("block should be allocated while it holds a live record")
	}
	if err := bs.Delete(h1); err != nil {
		t.Fatal(err)
	}
	if bs.IsAllocated(h1.Block) {
		t.Fatalf("block should be marked free once its last record is deleted")
	}
}

func TestOutOfCapacity(t *testing.T) {
	bs := newTestStore(t, 1)
	// newTestStore sizes the arena at four blocks; with one record per
	// block, the fifth insert has no block left to allocate.
	for id := uint32(1); id <= 4; id++ {
		mustInsert(t, bs, id, 10*id)
	}
	if _, err := bs.Insert(storage.NewRecord(5, "tt0000005", 5.0, 50)); !errors.Is(err, ErrOutOfCapacity) {
		t.Fatalf("got %v, want ErrOutOfCapacity", err)
	}
}

func TestLiveRecordsInSkipsTombstones(t *testing.T) {
	bs := newTestStore(t, 4)
	h1 := mustInsert(t, bs, 1, 10)
	mustInsert(t, bs, 2, 20)
	if err := bs.Delete(h1); err != nil {
		t.Fatal(err)
	}
	recs := bs.LiveRecordsIn(h1.Block)
	if len(recs) != 1 || recs[0].RecordID != 2 {
		t.Fatalf("got %+v", recs)
	}
}
