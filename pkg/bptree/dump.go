package bptree

import (
	"fmt"
	"io"
	"strings"
)

// DumpRoot prints the root node's keys, mirroring the diagnostic
// printRoot helper the original experiment harness exposed.
func (ix *Index) DumpRoot(w io.Writer) {
	root := ix.get(ix.root)
	fmt.Fprintf(w, "root (%s): keys=%v\n", kindName(root.kind), root.keys)
}

// DumpTree prints the whole tree depth-first, indented by level.
func (ix *Index) DumpTree(w io.Writer) {
	ix.dumpNode(w, ix.root, 0)
}

func (ix *Index) dumpNode(w io.Writer, id NodeAddr, depth int) {
	nd := ix.get(id)
	indent := strings.Repeat("  ", depth)
	switch nd.kind {
	case kindLeaf:
		fmt.Fprintf(w, "%sleaf keys=%v\n", indent, nd.keys)
		for i, ov := range nd.overflow {
			if ov != nilNode {
				fmt.Fprintf(w, "%s  key %d overflow: %v\n", indent, nd.keys[i], ix.collectOverflow(ov))
			}
		}
	case kindInternal:
		fmt.Fprintf(w, "%sinternal keys=%v\n", indent, nd.keys)
		for _, c := range nd.children {
			ix.dumpNode(w, c, depth+1)
		}
	}
}

func kindName(k nodeKind) string {
	switch k {
	case kindLeaf:
		return "leaf"
	case kindInternal:
		return "internal"
	default:
		return "overflow"
	}
}
