package bptree

import "ratingdb/pkg/storage"

// NodeAddr is an arena slot id: nodes reference each other by id rather
// than by pointer, so there is never an aliased Go pointer into a node
// another goroutine might reallocate out from under it.
type NodeAddr int32

// nilNode marks the absence of a node reference (no parent, no sibling,
// no child, end of an overflow chain).
const nilNode NodeAddr = -1

type nodeKind uint8

const (
	kindLeaf nodeKind = iota
	kindInternal
	kindOverflow
)

// node is a tagged union over the three block kinds the index ever
// allocates. Only the fields relevant to its kind are populated; this
// mirrors how a directory page and a leaf page reuse one on-disk shape
// with a kind-dependent flag field.
type node struct {
	kind   nodeKind
	id     NodeAddr
	parent NodeAddr

	// leaf and internal both carry keys, sorted ascending.
	keys []uint32

	// leaf-only, parallel to keys.
	direct   []storage.Handle // valid when overflow[i] == nilNode
	overflow []NodeAddr       // overflow chain head, nilNode if this key has one handle
	sibling  NodeAddr         // right sibling leaf, for range scans

	// internal-only: len(children) == len(keys)+1
	children []NodeAddr

	// overflow-chain-only
	handles []storage.Handle
	next    NodeAddr
}

func (n *node) numKeys() int { return len(n.keys) }
