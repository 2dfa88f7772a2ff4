package xdm

import (
	"iter"

	"github.com/htmlxpath/htmlxpath/html"
)

// NodeTest decides whether a candidate node matches a step's test (a name
// test, wildcard, or kind test — spec.md §4.5).
type NodeTest func(Node) bool

// AnyNode is the node test that matches everything.
func AnyNode(Node) bool { return true }

func filtered(seq iter.Seq[Node], test NodeTest) iter.Seq[Node] {
	if test == nil {
		test = AnyNode
	}
	return func(yield func(Node) bool) {
		for n := range seq {
			if test(n) {
				if !yield(n) {
					return
				}
			}
		}
	}
}

// Child is the child axis: immediate child element/text/comment nodes,
// forward (spec.md §4.5).
func Child(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(n.Children(), test)
}

// Descendant is the descendant axis: all descendants in document order,
// forward.
func Descendant(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if n.kind != DocumentKind && n.kind != ElementKind {
			return
		}
		for id := range n.doc.Arena.DescendantsInDocumentOrder(n.id) {
			if !yield(nodeFromID(n.doc, id)) {
				return
			}
		}
	}, test)
}

// DescendantOrSelf is self ∪ descendant, forward.
func DescendantOrSelf(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if !yield(n) {
			return
		}
		for d := range Descendant(n, AnyNode) {
			if !yield(d) {
				return
			}
		}
	}, test)
}

// Self is the singleton {self} axis, forward.
func Self(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) { yield(n) }, test)
}

// Parent is the singleton-or-empty parent axis, reverse.
func Parent(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		p := n.Parent()
		if !p.IsZero() {
			yield(p)
		}
	}, test)
}

// Ancestor is parents transitively, reverse (nearest first).
func Ancestor(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		for p := n.Parent(); !p.IsZero(); p = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}, test)
}

// AncestorOrSelf is self ∪ ancestor, reverse.
func AncestorOrSelf(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if !yield(n) {
			return
		}
		for p := n.Parent(); !p.IsZero(); p = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}, test)
}

// FollowingSibling is later siblings, forward.
func FollowingSibling(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if n.kind == AttributeKind || n.kind == DocumentKind {
			return
		}
		for s := n.doc.Arena.NextSibling(n.id); s != html.NilNode; s = n.doc.Arena.NextSibling(s) {
			if !yield(nodeFromID(n.doc, s)) {
				return
			}
		}
	}, test)
}

// PrecedingSibling is earlier siblings, reversed (nearest first), reverse.
func PrecedingSibling(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if n.kind == AttributeKind || n.kind == DocumentKind {
			return
		}
		for s := n.doc.Arena.PrevSibling(n.id); s != html.NilNode; s = n.doc.Arena.PrevSibling(s) {
			if !yield(nodeFromID(n.doc, s)) {
				return
			}
		}
	}, test)
}

// Following is nodes after self, excluding descendants, forward.
func Following(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if n.kind == AttributeKind {
			return
		}
		for id := range n.doc.Arena.Following(n.doc.Root, n.id) {
			if !yield(nodeFromID(n.doc, id)) {
				return
			}
		}
	}, test)
}

// Preceding is nodes before self, excluding ancestors, reverse.
func Preceding(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(func(yield func(Node) bool) {
		if n.kind == AttributeKind {
			return
		}
		for id := range n.doc.Arena.Preceding(n.doc.Root, n.id) {
			if !yield(nodeFromID(n.doc, id)) {
				return
			}
		}
	}, test)
}

// AttributeAxis is the attribute axis: attribute nodes of an element,
// forward.
func AttributeAxis(n Node, test NodeTest) iter.Seq[Node] {
	return filtered(n.Attributes(), test)
}
