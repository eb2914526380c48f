package bptree

import "ratingdb/pkg/storage"

// Find returns every handle whose key falls in [lo, hi], walking leaf
// sibling links once the starting leaf is exhausted. Access counters
// reset at the start of every call.
func (ix *Index) Find(lo, hi uint32) []storage.Handle {
	ix.stats.IndexNodesAccessed = 0
	ix.stats.OverflowNodesAccessed = 0
	if lo > hi {
		lo, hi = hi, lo
	}

	var out []storage.Handle
	cur := ix.findLeaf(lo)
	for cur != nilNode {
		nd := ix.get(cur)
		if len(nd.keys) == 0 {
			return out
		}
		for i, k := range nd.keys {
			if k > hi {
				return out
			}
			if k >= lo {
				if nd.overflow[i] != nilNode {
					out = append(out, ix.collectOverflow(nd.overflow[i])...)
				} else {
					out = append(out, nd.direct[i])
				}
			}
		}
		if nd.keys[len(nd.keys)-1] > hi || nd.sibling == nilNode {
			return out
		}
		cur = nd.sibling
		ix.stats.IndexNodesAccessed++
	}
	return out
}

func (ix *Index) collectOverflow(head NodeAddr) []storage.Handle {
	var out []storage.Handle
	cur := head
	for cur != nilNode {
		nd := ix.get(cur)
		ix.stats.OverflowNodesAccessed++
		out = append(out, nd.handles...)
		cur = nd.next
	}
	return out
}
