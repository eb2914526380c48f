// Package bruteforce implements the linear-scan cross-check path: it
// walks every block in the store through its iterator, never reaching
// into the index, so it can serve as an independent oracle for the
// index-backed query path.
package bruteforce

import "ratingdb/pkg/storage"

// Store is the subset of the block store bruteforce needs.
type Store interface {
	IterBlocks() []storage.BlockAddr
	LiveRecordsIn(addr storage.BlockAddr) []storage.Record
}

// Scan returns every live record whose NumVotes falls in [lo, hi], along
// with the number of blocks it had to visit.
func Scan(store Store, lo, hi uint32) ([]storage.Record, int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	var out []storage.Record
	blocksVisited := 0
	for _, addr := range store.IterBlocks() {
		blocksVisited++
		for _, rec := range store.LiveRecordsIn(addr) {
			if rec.NumVotes >= lo && rec.NumVotes <= hi {
				out = append(out, rec)
			}
		}
	}
	return out, blocksVisited
}

// Retrieve does a plain linear scan for a single record id, bypassing
// the index entirely.
func Retrieve(store Store, recordID uint32) (storage.Record, bool) {
	for _, addr := range store.IterBlocks() {
		for _, rec := range store.LiveRecordsIn(addr) {
			if rec.RecordID == recordID {
				return rec, true
			}
		}
	}
	return storage.Record{}, false
}
