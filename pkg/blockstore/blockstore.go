// Package blockstore implements the fixed-size-block arena: a slot
// directory that grows forward from each block's head, record storage
// that grows backward from each block's tail, and a free-block list that
// tracks which blocks still have room for another insert.
//
// This is modeled on the teacher's pager.Pager (Allocate/Get/Free backed
// by an in-memory arena and an LRU-style container/list), generalized
// here into the simulated-disk free-list-and-directory design this
// package implements instead of page caching.
package blockstore

import (
	"container/list"
	"fmt"

	"ratingdb/pkg/storage"
)

// BlockStore is an in-memory arena of fixed-size blocks holding
// fixed-width records, with tombstone-reuse-on-insert and free-list
// bookkeeping on delete.
type BlockStore struct {
	blockSize  int
	maxRecords int
	maxBlocks  int

	blocks []*block
	// live tracks the number of non-tombstoned directory entries per
	// block. It is bookkeeping the block store keeps alongside the
	// arena, same as the allocated map below; neither lives inside the
	// block's own bytes.
	live []int
	// allocated marks whether a block still holds at least one live
	// record. A block can drop to allocated=false while staying in
	// freeList, since its tombstoned slots remain reusable.
	allocated []bool

	freeList  *list.List
	freeElems map[storage.BlockAddr]*list.Element
}

// New creates an empty arena sized per cfg.
func New(cfg storage.Config) *BlockStore {
	cfg = cfg.WithDefaults()
	recordCapacity := (cfg.BlockSize - slotDirOffset) / (storage.RecordSize + slotEntrySize)
	return &BlockStore{
		blockSize:  cfg.BlockSize,
		maxRecords: recordCapacity,
		maxBlocks:  cfg.MaxBlocks(),
		freeList:   list.New(),
		freeElems:  make(map[storage.BlockAddr]*list.Element),
	}
}

// MaxRecords reports how many records fit in one block.
func (bs *BlockStore) MaxRecords() int { return bs.maxRecords }

func (bs *BlockStore) pushFree(addr storage.BlockAddr) {
	if _, ok := bs.freeElems[addr]; ok {
		return
	}
	bs.freeElems[addr] = bs.freeList.PushFront(addr)
}

func (bs *BlockStore) popFree(addr storage.BlockAddr) {
	if el, ok := bs.freeElems[addr]; ok {
		bs.freeList.Remove(el)
		delete(bs.freeElems, addr)
	}
}

func (bs *BlockStore) allocateBlock() (storage.BlockAddr, error) {
	if len(bs.blocks) >= bs.maxBlocks {
		return 0, ErrOutOfCapacity
	}
	addr := storage.BlockAddr(len(bs.blocks))
	blk := newBlock(bs.blockSize)
	blk.setNumRecords(0)
	bs.blocks = append(bs.blocks, blk)
	bs.live = append(bs.live, 0)
	bs.allocated = append(bs.allocated, true)
	return addr, nil
}

// Insert places r in the front free block (allocating a fresh one if none
// has capacity), reusing the last tombstone found in that block's
// directory if one exists, else appending a new directory entry.
func (bs *BlockStore) Insert(r storage.Record) (storage.Handle, error) {
	var addr storage.BlockAddr
	if bs.freeList.Len() == 0 {
		a, err := bs.allocateBlock()
		if err != nil {
			return storage.Handle{}, err
		}
		addr = a
		bs.pushFree(addr)
	} else {
		addr = bs.freeList.Front().Value.(storage.BlockAddr)
	}

	blk := bs.blocks[addr]
	n := int(blk.numRecords())

	tombstone := -1
	for i := 0; i < n; i++ {
		_, idx := blk.slot(i)
		if idx == -1 {
			tombstone = i
		}
	}

	var pos int
	if tombstone >= 0 {
		pos = tombstone
	} else {
		pos = n
		blk.setNumRecords(uint32(n + 1))
	}

	blk.setRecord(int32(pos), r, storage.RecordSize)
	blk.setSlot(pos, r.RecordID, int32(pos))
	bs.live[addr]++
	bs.allocated[addr] = true

	if int(blk.numRecords()) == bs.maxRecords && bs.live[addr] == int(blk.numRecords()) {
		bs.popFree(addr)
	}

	return storage.Handle{Block: addr, RecordID: int32(r.RecordID)}, nil
}

// Retrieve looks up the live record referenced by h.
func (bs *BlockStore) Retrieve(h storage.Handle) (storage.Record, error) {
	if int(h.Block) >= len(bs.blocks) {
		return storage.Record{}, fmt.Errorf("blockstore: retrieve: %w", ErrRecordNotFound)
	}
	blk := bs.blocks[h.Block]
	n := int(blk.numRecords())
	for i := 0; i < n; i++ {
		recID, idx := blk.slot(i)
		if idx != -1 && recID == uint32(h.RecordID) {
			return blk.record(idx, storage.RecordSize), nil
		}
	}
	return storage.Record{}, fmt.Errorf("blockstore: retrieve: %w", ErrRecordNotFound)
}

// Delete tombstones the slot referenced by h. If the block was full
// before this delete, it regains free-list membership. If the block's
// live count reaches zero, it is marked free in the arena map (its slot
// stays assigned, but the block is available for wholesale reuse).
func (bs *BlockStore) Delete(h storage.Handle) error {
	if int(h.Block) >= len(bs.blocks) {
		return fmt.Errorf("blockstore: delete: %w", ErrRecordNotFound)
	}
	addr := h.Block
	blk := bs.blocks[addr]
	n := int(blk.numRecords())

	found := -1
	for i := 0; i < n; i++ {
		recID, idx := blk.slot(i)
		if idx != -1 && recID == uint32(h.RecordID) {
			found = i
			break
		}
	}
	if found == -1 {
		return fmt.Errorf("blockstore: delete: %w", ErrRecordNotFound)
	}

	wasFull := int(blk.numRecords()) == bs.maxRecords && bs.live[addr] == int(blk.numRecords())

	blk.setSlot(found, 0, -1)
	bs.live[addr]--

	if wasFull {
		bs.pushFree(addr)
	}
	if bs.live[addr] == 0 {
		bs.allocated[addr] = false
	}
	return nil
}

// IterBlocks returns every block address ever allocated, in allocation
// order. Used by the brute-force cross-check path only.
func (bs *BlockStore) IterBlocks() []storage.BlockAddr {
	addrs := make([]storage.BlockAddr, len(bs.blocks))
	for i := range bs.blocks {
		addrs[i] = storage.BlockAddr(i)
	}
	return addrs
}

// LiveRecordsIn returns every non-tombstoned record in the block at addr.
func (bs *BlockStore) LiveRecordsIn(addr storage.BlockAddr) []storage.Record {
	if int(addr) >= len(bs.blocks) {
		return nil
	}
	blk := bs.blocks[addr]
	n := int(blk.numRecords())
	out := make([]storage.Record, 0, bs.live[addr])
	for i := 0; i < n; i++ {
		_, idx := blk.slot(i)
		if idx != -1 {
			out = append(out, blk.record(idx, storage.RecordSize))
		}
	}
	return out
}

// IsAllocated reports whether the block at addr currently holds at least
// one live record.
func (bs *BlockStore) IsAllocated(addr storage.BlockAddr) bool {
	if int(addr) >= len(bs.allocated) {
		return false
	}
	return bs.allocated[addr]
}

// NumBlocks reports how many blocks have ever been allocated.
func (bs *BlockStore) NumBlocks() int { return len(bs.blocks) }
