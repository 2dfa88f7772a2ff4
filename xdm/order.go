package xdm

import "sort"

// pathStep identifies one hop from a parent to a child: its ordinal index
// among the parent's Element/Text/Comment children, or, with isAttr set, the
// attribute's position attrIdx on its element (attributes sort after their element's own position
// but before any of its children — spec.md glossary, "Document order").
type pathStep struct {
	index   int
	isAttr  bool
	attrIdx int
}

// pathTo returns the root-to-n chain of steps used to compare document
// order. Depth is typically small, so the O(depth + siblings) walk this
// performs is not a practical bottleneck for the scraping workloads this
// engine targets.
func pathTo(n Node) []pathStep {
	var steps []pathStep
	cur := n
	if cur.kind == AttributeKind {
		steps = append(steps, pathStep{isAttr: true, attrIdx: cur.attrIdx})
		cur = Node{doc: cur.doc, kind: ElementKind, id: cur.id}
	}
	for cur.kind != DocumentKind {
		idx := 0
		prev := cur.doc.Arena.PrevSibling(cur.id)
		for prev != 0 {
			idx++
			prev = cur.doc.Arena.PrevSibling(prev)
		}
		steps = append([]pathStep{{index: idx}}, steps...)
		cur = cur.Parent()
	}
	return steps
}

// Less reports whether a strictly precedes b in document order (spec.md
// §8 invariant 2: document order is total).
func Less(a, b Node) bool {
	if a.Equal(b) {
		return false
	}
	pa, pb := pathTo(a), pathTo(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		sa, sb := pa[i], pb[i]
		if sa.isAttr != sb.isAttr {
			// An attribute sorts before any child at the same depth (it is
			// attached "after" the element itself but "before" its
			// children), and attribute order among siblings follows
			// source order.
			return sa.isAttr
		}
		if sa.isAttr && sb.isAttr {
			if sa.attrIdx != sb.attrIdx {
				return sa.attrIdx < sb.attrIdx
			}
			continue
		}
		if sa.index != sb.index {
			return sa.index < sb.index
		}
	}
	return len(pa) < len(pb)
}

// SortAndDedup returns nodes sorted into document order with duplicates
// removed, as spec.md §3/§4.6/§8 invariant 3 requires of every node
// sequence produced by a path expression.
func SortAndDedup(nodes []Node) []Node {
	if len(nodes) <= 1 {
		return nodes
	}
	out := make([]Node, len(nodes))
	copy(out, nodes)
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	w := 1
	for r := 1; r < len(out); r++ {
		if !out[w-1].Equal(out[r]) {
			out[w] = out[r]
			w++
		}
	}
	return out[:w]
}
