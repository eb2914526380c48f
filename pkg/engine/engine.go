// Package engine wires the block store and the index together into the
// Import/Find/Delete surface the CLI and the cross-check tests drive.
package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"ratingdb/internal/clock"
	"ratingdb/pkg/blockstore"
	"ratingdb/pkg/bptree"
	"ratingdb/pkg/storage"
)

// Engine ties a BlockStore and an Index together under one configuration,
// keeping them in sync on every mutation.
type Engine struct {
	cfg   storage.Config
	store *blockstore.BlockStore
	index *bptree.Index
	warn  io.Writer
}

// New builds an empty engine. Import-rejection and key-not-found warnings
// are written to warn; if warn is nil, they go to os.Stderr.
func New(cfg storage.Config, warn io.Writer) *Engine {
	cfg = cfg.WithDefaults()
	if warn == nil {
		warn = os.Stderr
	}
	return &Engine{
		cfg:   cfg,
		store: blockstore.New(cfg),
		index: bptree.New(cfg),
		warn:  warn,
	}
}

// ImportResult reports how many rows landed and how many were rejected.
type ImportResult struct {
	Imported int
	Rejected int
}

// Import inserts every record into the block store and indexes it by
// NumVotes. A record that the store rejects (arena exhausted) is counted
// but does not stop the import.
func (e *Engine) Import(records []storage.Record) ImportResult {
	var res ImportResult
	for _, r := range records {
		h, err := e.store.Insert(r)
		if err != nil {
			fmt.Fprintf(e.warn, "warning: import: record %d: %v\n", r.RecordID, err)
			res.Rejected++
			continue
		}
		e.index.Insert(r.NumVotes, h)
		res.Imported++
	}
	return res
}

// FindResult bundles the query's records with its cost and summary
// statistics, per the engine's introspection surface.
type FindResult struct {
	Records            []storage.Record
	IndexNodesAccessed int
	BlocksAccessed     int
	AverageRating      float32
	Elapsed            time.Duration
}

// Find returns every record whose NumVotes falls in [lo, hi].
func (e *Engine) Find(lo, hi uint32) (FindResult, error) {
	start := clock.Monotonic()

	handles := e.index.Find(lo, hi)
	blocksTouched := make(map[storage.BlockAddr]struct{}, len(handles))
	records := make([]storage.Record, 0, len(handles))
	var ratingSum float64

	for _, h := range handles {
		rec, err := e.store.Retrieve(h)
		if err != nil {
			return FindResult{}, fmt.Errorf("engine: find: %w", err)
		}
		records = append(records, rec)
		blocksTouched[h.Block] = struct{}{}
		ratingSum += float64(rec.AverageRating)
	}

	var avg float32
	if len(records) > 0 {
		avg = float32(ratingSum / float64(len(records)))
	}

	stats := e.index.Stats()
	return FindResult{
		Records:            records,
		IndexNodesAccessed: stats.IndexNodesAccessed + stats.OverflowNodesAccessed,
		BlocksAccessed:     len(blocksTouched),
		AverageRating:      avg,
		Elapsed:            clock.Since(start),
	}, nil
}

// Delete removes every record for key (its whole overflow chain, if
// any) from both the block store and the index. A missing key is
// reported to the warning sink and returns bptree.ErrKeyNotFound.
func (e *Engine) Delete(key uint32) (int, error) {
	handles := e.index.Find(key, key)
	if len(handles) == 0 {
		fmt.Fprintf(e.warn, "warning: delete: key %d not found\n", key)
		return 0, bptree.ErrKeyNotFound
	}
	for _, h := range handles {
		if err := e.store.Delete(h); err != nil {
			return 0, fmt.Errorf("engine: delete: %w", err)
		}
	}
	if err := e.index.Delete(key); err != nil {
		return 0, fmt.Errorf("engine: delete: %w", err)
	}
	return len(handles), nil
}

// Stats exposes the index's experiment counters alongside block store
// population, for the CLI's introspection commands.
type Stats struct {
	bptree.Stats
	NumBlocks int
}

func (e *Engine) Stats() Stats {
	return Stats{Stats: e.index.Stats(), NumBlocks: e.store.NumBlocks()}
}

// DumpTree writes the index's tree structure to w, for debugging.
func (e *Engine) DumpTree(w io.Writer) { e.index.DumpTree(w) }

// DumpRoot writes the root node's keys to w, the diagnostic printRoot
// surface from §6.3's introspection requirement.
func (e *Engine) DumpRoot(w io.Writer) { e.index.DumpRoot(w) }

// Store exposes the underlying block store, for the brute-force
// cross-check path.
func (e *Engine) Store() *blockstore.BlockStore { return e.store }
