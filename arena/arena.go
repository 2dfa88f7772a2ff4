// Package arena implements a generic, index-based tree store.
//
// Nodes are addressed by a stable integer ID rather than by pointer, so the
// parent/child/sibling links in node never form an owning reference cycle:
// the Arena is the sole owner of every node's storage, and IDs are only
// meaningful when dereferenced against the Arena that issued them.
package arena

import "iter"

// NodeID is a stable, arena-local identifier for a node. The zero value,
// NilNode, never identifies a real node.
type NodeID int32

// NilNode is the identifier of "no node" (e.g. the parent of the root, or
// a missing next sibling).
const NilNode NodeID = 0

const initialChunkSize = 128

type link struct {
	parent, firstChild, lastChild, prevSibling, nextSibling NodeID
}

// Arena is a generic, append-only tree store for payloads of type P. The
// zero value is not usable; use New.
type Arena[P any] struct {
	links   []link
	payload []P
}

// New returns an empty arena.
func New[P any]() *Arena[P] {
	a := &Arena[P]{}
	// index 0 is reserved for NilNode, so the first real node gets ID 1.
	a.links = make([]link, 1, initialChunkSize)
	a.payload = make([]P, 1, initialChunkSize)
	return a
}

// NewNode allocates a fresh, unattached node carrying payload and returns
// its ID. The node has no parent, children, or siblings until attached with
// AppendChild.
func (a *Arena[P]) NewNode(payload P) NodeID {
	id := NodeID(len(a.links))
	a.links = append(a.links, link{})
	a.payload = append(a.payload, payload)
	return id
}

// Payload returns a pointer to the payload stored for id, allowing in-place
// mutation (e.g. appending decoded text to a Text node, or recording an
// attribute on an Element).
func (a *Arena[P]) Payload(id NodeID) *P {
	return &a.payload[id]
}

// Parent returns the parent of id, or NilNode if id is the root or invalid.
func (a *Arena[P]) Parent(id NodeID) NodeID {
	if !a.valid(id) {
		return NilNode
	}
	return a.links[id].parent
}

// FirstChild returns the first child of id, or NilNode if it has none.
func (a *Arena[P]) FirstChild(id NodeID) NodeID {
	if !a.valid(id) {
		return NilNode
	}
	return a.links[id].firstChild
}

// LastChild returns the last child of id, or NilNode if it has none.
func (a *Arena[P]) LastChild(id NodeID) NodeID {
	if !a.valid(id) {
		return NilNode
	}
	return a.links[id].lastChild
}

// NextSibling returns the next sibling of id, or NilNode.
func (a *Arena[P]) NextSibling(id NodeID) NodeID {
	if !a.valid(id) {
		return NilNode
	}
	return a.links[id].nextSibling
}

// PrevSibling returns the previous sibling of id, or NilNode.
func (a *Arena[P]) PrevSibling(id NodeID) NodeID {
	if !a.valid(id) {
		return NilNode
	}
	return a.links[id].prevSibling
}

func (a *Arena[P]) valid(id NodeID) bool {
	return id != NilNode && int(id) < len(a.links)
}

// AppendChild attaches child as the last child of parent. child must be a
// freshly allocated node (NewNode) with no existing parent or siblings;
// AppendChild panics otherwise, mirroring the teacher's Node.AppendChild
// contract (a programmer-error guard, not a malformed-input path).
func (a *Arena[P]) AppendChild(parent, child NodeID) {
	if !a.valid(parent) {
		panic("arena: AppendChild called with invalid parent")
	}
	cl := &a.links[child]
	if cl.parent != NilNode || cl.prevSibling != NilNode || cl.nextSibling != NilNode {
		panic("arena: AppendChild called for an already-attached node")
	}
	pl := &a.links[parent]
	if pl.lastChild != NilNode {
		a.links[pl.lastChild].nextSibling = child
		cl.prevSibling = pl.lastChild
	} else {
		pl.firstChild = child
	}
	pl.lastChild = child
	cl.parent = parent
}

// Children returns an iterator over the immediate children of id in
// document order. It allocates nothing per step.
func (a *Arena[P]) Children(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for c := a.FirstChild(id); c != NilNode; c = a.NextSibling(c) {
			if !yield(c) {
				return
			}
		}
	}
}

// ChildrenReversed returns an iterator over the immediate children of id in
// reverse document order.
func (a *Arena[P]) ChildrenReversed(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		for c := a.LastChild(id); c != NilNode; c = a.PrevSibling(c) {
			if !yield(c) {
				return
			}
		}
	}
}

// DescendantsInDocumentOrder returns an iterator over all proper
// descendants of id, in pre-order (document order), without self.
func (a *Arena[P]) DescendantsInDocumentOrder(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		a.walk(id, yield)
	}
}

func (a *Arena[P]) walk(id NodeID, yield func(NodeID) bool) bool {
	for c := a.FirstChild(id); c != NilNode; c = a.NextSibling(c) {
		if !yield(c) {
			return false
		}
		if !a.walk(c, yield) {
			return false
		}
	}
	return true
}

// Following returns an iterator over every node after id in document order,
// excluding id's own descendants, per spec.md's following axis.
func (a *Arena[P]) Following(root, id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		inSelfSubtree := false
		reached := false
		var visit func(n NodeID) bool
		visit = func(n NodeID) bool {
			if n == id {
				reached = true
				inSelfSubtree = true
				for c := a.FirstChild(n); c != NilNode; c = a.NextSibling(c) {
					if !visit(c) {
						return false
					}
				}
				inSelfSubtree = false
				return true
			}
			if reached && !inSelfSubtree {
				if !yield(n) {
					return false
				}
			}
			wasIn := inSelfSubtree
			for c := a.FirstChild(n); c != NilNode; c = a.NextSibling(c) {
				if !visit(c) {
					return false
				}
			}
			inSelfSubtree = wasIn
			return true
		}
		visit(root)
	}
}

// Preceding returns an iterator, in reverse document order, over every node
// before id excluding id's own ancestors, per spec.md's preceding axis.
func (a *Arena[P]) Preceding(root, id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		ancestors := make(map[NodeID]bool)
		for p := a.Parent(id); p != NilNode; p = a.Parent(p) {
			ancestors[p] = true
		}
		// Collect every node in document order up to (excluding) id, skipping
		// id's own ancestors, then emit in reverse.
		var all []NodeID
		var preOrder func(n NodeID) bool
		preOrder = func(n NodeID) bool {
			if n == id {
				return false
			}
			if !ancestors[n] {
				all = append(all, n)
			}
			for c := a.FirstChild(n); c != NilNode; c = a.NextSibling(c) {
				if !preOrder(c) {
					return false
				}
			}
			return true
		}
		preOrder(root)
		for i := len(all) - 1; i >= 0; i-- {
			if !yield(all[i]) {
				return
			}
		}
	}
}

// Len reports the number of nodes allocated in the arena (including the
// reserved NilNode slot).
func (a *Arena[P]) Len() int {
	return len(a.links)
}
