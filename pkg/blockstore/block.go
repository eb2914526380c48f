package blockstore

import (
	"encoding/binary"

	"ratingdb/pkg/storage"
)

// slotEntrySize is the width of one directory entry: recordID(4) +
// indexOfRecord(4, signed, -1 marks a tombstone).
const slotEntrySize = 8

// numRecordsOffset is where the live directory length lives, at the head
// of every block.
const numRecordsOffset = 0
const slotDirOffset = 4

// block is one fixed-size arena slot: a directory that grows forward from
// slotDirOffset and record storage that grows backward from the tail,
// exactly mirroring the simulated-disk layout in the design this package
// is modeled on.
type block struct {
	buf []byte
}

func newBlock(size int) *block {
	return &block{buf: make([]byte, size)}
}

func (b *block) numRecords() uint32 {
	return binary.LittleEndian.Uint32(b.buf[numRecordsOffset : numRecordsOffset+4])
}

func (b *block) setNumRecords(n uint32) {
	binary.LittleEndian.PutUint32(b.buf[numRecordsOffset:numRecordsOffset+4], n)
}

func (b *block) slotOffset(i int) int {
	return slotDirOffset + i*slotEntrySize
}

// slot returns the directory entry at position i. idx == -1 means the
// slot is a tombstone.
func (b *block) slot(i int) (recordID uint32, idx int32) {
	off := b.slotOffset(i)
	recordID = binary.LittleEndian.Uint32(b.buf[off : off+4])
	idx = int32(binary.LittleEndian.Uint32(b.buf[off+4 : off+8]))
	return
}

func (b *block) setSlot(i int, recordID uint32, idx int32) {
	off := b.slotOffset(i)
	binary.LittleEndian.PutUint32(b.buf[off:off+4], recordID)
	binary.LittleEndian.PutUint32(b.buf[off+4:off+8], uint32(idx))
}

// recordOffset computes the tail-relative offset of the record physically
// stored at directory position idx.
func (b *block) recordOffset(idx int32, recordSize int) int {
	return len(b.buf) - (int(idx)+1)*recordSize
}

func (b *block) record(idx int32, recordSize int) storage.Record {
	off := b.recordOffset(idx, recordSize)
	return storage.DecodeRecord(b.buf[off : off+recordSize])
}

func (b *block) setRecord(idx int32, r storage.Record, recordSize int) {
	off := b.recordOffset(idx, recordSize)
	storage.EncodeRecord(b.buf[off:off+recordSize], r)
}
