package blockstore

import "errors"

var (
	// ErrOutOfCapacity is returned when the arena has no room left to
	// allocate another block.
	ErrOutOfCapacity = errors.New("blockstore: out of capacity")
	// ErrRecordNotFound is returned when a handle no longer resolves to a
	// live record.
	ErrRecordNotFound = errors.New("blockstore: record not found")
)
