// Package bptree implements a duplicate-key B+ tree index over
// num_votes, with overflow chains for repeated keys, sibling-linked
// leaves for range scans, and parent pointers for delete-time
// rebalancing.
//
// Nodes live in an arena addressed by slot id (NodeAddr) rather than by
// Go pointer, so a node reference never aliases a struct another part
// of the tree might be rewriting mid-rebalance.
package bptree

import (
	"sort"

	"ratingdb/pkg/storage"
)

// Sizes used only to derive MAX_KEYS from a block size; nodes are kept as
// typed Go slices rather than packed bytes; there is no on-disk format to
// keep stable, so the byte-packing discipline the block store uses for
// its records doesn't pay for itself here.
const (
	sizeOfHandle = 8  // storage.Handle: BlockAddr(4) + RecordID(4)
	sizeOfKey    = 4  // uint32 num_votes
	sizeOfHeader = 16 // numKeys(4) + parent handle(8) + isLeaf(4, padded)
)

func maxKeysForBlockSize(blockSize int) int {
	return (blockSize - sizeOfHeader - sizeOfHandle) / (sizeOfHandle + sizeOfKey)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Stats mirrors the experiment counters the index is expected to expose:
// node/overflow-node population, cumulative access and deletion counts,
// and tree height. IndexNodesAccessed and OverflowNodesAccessed reset at
// the start of every Find call.
type Stats struct {
	NodeCount             int
	OverflowNodeCount     int
	NodesDeleted          int
	OverflowNodesDeleted  int
	Height                int
	IndexNodesAccessed    int
	OverflowNodesAccessed int
}

// Index is the duplicate-key B+ tree over num_votes.
type Index struct {
	maxKeys         int
	minKeysLeaf     int
	minKeysInternal int

	arena   []*node
	freeIDs []NodeAddr

	root   NodeAddr
	height int

	stats Stats
}

// New creates an empty index whose fanout is derived from cfg.BlockSize.
func New(cfg storage.Config) *Index {
	cfg = cfg.WithDefaults()
	maxKeys := maxKeysForBlockSize(cfg.BlockSize)
	if maxKeys < 2 {
		maxKeys = 2
	}
	ix := &Index{
		maxKeys:         maxKeys,
		minKeysLeaf:     ceilDiv(maxKeys+1, 2),
		minKeysInternal: maxKeys / 2,
	}
	root := ix.allocNode(kindLeaf)
	root.parent = nilNode
	root.sibling = nilNode
	ix.root = root.id
	ix.height = 1
	ix.stats.Height = 1
	return ix
}

// MaxKeys reports the fanout derived from the configured block size.
func (ix *Index) MaxKeys() int { return ix.maxKeys }

// Stats returns a snapshot of the current counters.
func (ix *Index) Stats() Stats { return ix.stats }

func (ix *Index) allocNode(kind nodeKind) *node {
	var id NodeAddr
	if n := len(ix.freeIDs); n > 0 {
		id = ix.freeIDs[n-1]
		ix.freeIDs = ix.freeIDs[:n-1]
	} else {
		id = NodeAddr(len(ix.arena))
		ix.arena = append(ix.arena, nil)
	}
	nd := &node{kind: kind, id: id, parent: nilNode, sibling: nilNode, next: nilNode}
	ix.arena[id] = nd
	if kind == kindOverflow {
		ix.stats.OverflowNodeCount++
	} else {
		ix.stats.NodeCount++
	}
	return nd
}

func (ix *Index) freeNode(id NodeAddr) {
	nd := ix.arena[id]
	ix.arena[id] = nil
	ix.freeIDs = append(ix.freeIDs, id)
	if nd.kind == kindOverflow {
		ix.stats.OverflowNodeCount--
		ix.stats.OverflowNodesDeleted++
	} else {
		ix.stats.NodeCount--
		ix.stats.NodesDeleted++
	}
}

func (ix *Index) get(id NodeAddr) *node { return ix.arena[id] }

func (ix *Index) minKeysFor(nd *node) int {
	if nd.kind == kindLeaf {
		return ix.minKeysLeaf
	}
	return ix.minKeysInternal
}

// findLeaf descends from the root to the leaf that would hold key,
// counting every node touched along the way.
func (ix *Index) findLeaf(key uint32) NodeAddr {
	cur := ix.root
	for {
		nd := ix.get(cur)
		ix.stats.IndexNodesAccessed++
		if nd.kind == kindLeaf {
			return cur
		}
		i := 0
		for i < len(nd.keys) && key >= nd.keys[i] {
			i++
		}
		cur = nd.children[i]
	}
}

func indexOfChild(p *node, child NodeAddr) int {
	for i, c := range p.children {
		if c == child {
			return i
		}
	}
	return -1
}

func sortedPos(keys []uint32, key uint32) int {
	return sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
}
