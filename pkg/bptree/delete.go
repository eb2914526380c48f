package bptree

import "ratingdb/pkg/storage"

// Delete removes one entry for key (and its whole overflow chain, if
// any) from the tree.
func (ix *Index) Delete(key uint32) error {
	leaf := ix.findLeaf(key)
	return ix.deleteEntry(leaf, key)
}

// deleteEntry removes key from nd, which may be a leaf (an indexed
// record) or an internal node (a separator key pulled down during a
// merge one level below). Both cases share the same post-removal
// discipline: repair the first ancestor that still names the old key,
// then rebalance if nd fell under its minimum occupancy.
func (ix *Index) deleteEntry(id NodeAddr, key uint32) error {
	nd := ix.get(id)
	i := sortedPos(nd.keys, key)
	if i >= len(nd.keys) || nd.keys[i] != key {
		return ErrKeyNotFound
	}

	if nd.kind == kindLeaf && nd.overflow[i] != nilNode {
		ix.freeOverflowChain(nd.overflow[i])
	}

	if nd.kind == kindLeaf {
		nd.keys = append(nd.keys[:i], nd.keys[i+1:]...)
		nd.direct = append(nd.direct[:i], nd.direct[i+1:]...)
		nd.overflow = append(nd.overflow[:i], nd.overflow[i+1:]...)
	} else {
		nd.keys = append(nd.keys[:i], nd.keys[i+1:]...)
		nd.children = append(nd.children[:i+1], nd.children[i+2:]...)
	}

	if i == 0 && len(nd.keys) > 0 {
		ix.repairAncestors(nd.parent, key, nd.keys[0])
	}

	if id == ix.root {
		return ix.maybeCollapseRoot()
	}
	if len(nd.keys) >= ix.minKeysFor(nd) {
		return nil
	}
	return ix.rebalance(nd)
}

func (ix *Index) freeOverflowChain(head NodeAddr) {
	cur := head
	for cur != nilNode {
		nd := ix.get(cur)
		next := nd.next
		ix.freeNode(cur)
		cur = next
	}
}

// repairAncestors walks up from parent looking for the first node whose
// separator key still equals oldKey, and rewrites it to newKey. Only one
// ancestor is ever rewritten: once a node's own leftmost key was the one
// removed, every ancestor that copied it down stops at the first match.
func (ix *Index) repairAncestors(parent NodeAddr, oldKey, newKey uint32) {
	cur := parent
	for cur != nilNode {
		nd := ix.get(cur)
		for i, k := range nd.keys {
			if k == oldKey {
				nd.keys[i] = newKey
				return
			}
		}
		cur = nd.parent
	}
}

func (ix *Index) rebalance(nd *node) error {
	parent := ix.get(nd.parent)
	pos := indexOfChild(parent, nd.id)

	if pos > 0 {
		left := ix.get(parent.children[pos-1])
		if len(left.keys)-1 >= ix.minKeysFor(left) {
			ix.borrowFromLeft(parent, pos, left, nd)
			return nil
		}
	}
	if pos < len(parent.children)-1 {
		right := ix.get(parent.children[pos+1])
		if len(right.keys)-1 >= ix.minKeysFor(right) {
			ix.borrowFromRight(parent, pos, nd, right)
			return nil
		}
	}

	if pos > 0 {
		left := ix.get(parent.children[pos-1])
		return ix.mergeSiblings(parent, left, nd)
	}
	right := ix.get(parent.children[pos+1])
	return ix.mergeSiblings(parent, nd, right)
}

func (ix *Index) borrowFromLeft(parent *node, pos int, left, nd *node) {
	li := len(left.keys) - 1
	if nd.kind == kindLeaf {
		k := left.keys[li]
		d := left.direct[li]
		ov := left.overflow[li]
		left.keys = left.keys[:li]
		left.direct = left.direct[:li]
		left.overflow = left.overflow[:li]

		nd.keys = append([]uint32{k}, nd.keys...)
		nd.direct = append([]storage.Handle{d}, nd.direct...)
		nd.overflow = append([]NodeAddr{ov}, nd.overflow...)

		parent.keys[pos-1] = nd.keys[0]
		return
	}

	c := left.children[len(left.children)-1]
	k := left.keys[li]
	left.keys = left.keys[:li]
	left.children = left.children[:len(left.children)-1]

	parentSep := parent.keys[pos-1]
	nd.keys = append([]uint32{parentSep}, nd.keys...)
	nd.children = append([]NodeAddr{c}, nd.children...)
	ix.get(c).parent = nd.id
	parent.keys[pos-1] = k
}

func (ix *Index) borrowFromRight(parent *node, pos int, nd, right *node) {
	if nd.kind == kindLeaf {
		k := right.keys[0]
		d := right.direct[0]
		ov := right.overflow[0]
		right.keys = right.keys[1:]
		right.direct = right.direct[1:]
		right.overflow = right.overflow[1:]

		nd.keys = append(nd.keys, k)
		nd.direct = append(nd.direct, d)
		nd.overflow = append(nd.overflow, ov)

		parent.keys[pos] = right.keys[0]
		return
	}

	c := right.children[0]
	k := right.keys[0]
	right.keys = right.keys[1:]
	right.children = right.children[1:]

	parentSep := parent.keys[pos]
	nd.keys = append(nd.keys, parentSep)
	nd.children = append(nd.children, c)
	ix.get(c).parent = nd.id
	parent.keys[pos] = k
}

// mergeSiblings folds right's entries into left, frees right, and
// removes the now-stale separator from parent (which may itself cascade
// into a further merge or a root collapse).
func (ix *Index) mergeSiblings(parent *node, left, right *node) error {
	// The key to remove from parent is always the separator parent itself
	// stores between left and right, not right's own first key: for an
	// internal right, right.keys[0] is min(subtree of right.children[1]),
	// one level deeper than what the parent separator equals (see
	// insert.go's promote, which places right.keys[0] as keyUp at the
	// left sibling's slot only for leaf splits).
	sepPos := indexOfChild(parent, left.id)
	sep := parent.keys[sepPos]

	if left.kind == kindLeaf {
		left.keys = append(left.keys, right.keys...)
		left.direct = append(left.direct, right.direct...)
		left.overflow = append(left.overflow, right.overflow...)
		left.sibling = right.sibling
	} else {
		left.keys = append(left.keys, sep)
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
		for _, c := range right.children {
			ix.get(c).parent = left.id
		}
	}

	ix.freeNode(right.id)
	return ix.deleteEntry(parent.id, sep)
}

// maybeCollapseRoot drops the root down one level when an internal root
// has been reduced to a single child.
func (ix *Index) maybeCollapseRoot() error {
	root := ix.get(ix.root)
	if root.kind == kindInternal && len(root.keys) == 0 {
		newRoot := root.children[0]
		ix.get(newRoot).parent = nilNode
		ix.freeNode(ix.root)
		ix.root = newRoot
		ix.height--
		ix.stats.Height = ix.height
	}
	return nil
}
