// Package xdm projects an html.Document into the XPath Data Model: node
// kinds, string-values, expanded names, and axis iterators (spec.md §3,
// §4.5). It never mutates the underlying Document.
package xdm

import (
	"iter"

	"github.com/htmlxpath/htmlxpath/html"
)

// Kind enumerates the XDM node kinds spec.md §3 requires. Modeled on the
// tagged-variant style of chtml/shape.go's ShapeKind.
type Kind int

const (
	DocumentKind Kind = iota
	ElementKind
	AttributeKind
	TextKind
	CommentKind
	ProcessingInstructionKind
	NamespaceKind
)

func (k Kind) String() string {
	switch k {
	case DocumentKind:
		return "document-node"
	case ElementKind:
		return "element"
	case AttributeKind:
		return "attribute"
	case TextKind:
		return "text"
	case CommentKind:
		return "comment"
	case ProcessingInstructionKind:
		return "processing-instruction"
	case NamespaceKind:
		return "namespace"
	default:
		return "unknown"
	}
}

// Node is a handle into an XDM tree projected from a single html.Document.
// Two Nodes compare equal (by ==) iff they name the same node: same
// underlying Document, same Kind, same underlying html.NodeID, and — for
// synthesized attribute nodes — the same attribute index.
type Node struct {
	doc     *html.Document
	kind    Kind
	id      html.NodeID
	attrIdx int // meaningful only when kind == AttributeKind
}

// NewDocument returns the document-node handle for doc.
func NewDocument(doc *html.Document) Node {
	return Node{doc: doc, kind: DocumentKind, id: doc.Root}
}

// Kind returns the node's XDM kind.
func (n Node) Kind() Kind { return n.kind }

// Document returns the underlying html.Document this node belongs to.
func (n Node) Document() *html.Document { return n.doc }

// IsZero reports whether n is the zero Node (no document bound).
func (n Node) IsZero() bool { return n.doc == nil }

// elementPayload returns the Payload backing an Element or Document node.
func (n Node) elementPayload() *html.Payload {
	return n.doc.Arena.Payload(n.id)
}

// Name returns the local name of an Element or Attribute node, or "" for
// other kinds (spec.md §3/§4.5 name tests).
func (n Node) Name() string {
	switch n.kind {
	case ElementKind:
		return n.elementPayload().Name
	case AttributeKind:
		return n.elementPayload().Attrs[n.attrIdx].Name
	default:
		return ""
	}
}

// StringValue computes the XDM string-value (spec.md §3): the decoded text
// for Text, the raw body for Comment, the attribute's value for Attribute, the concatenation
// of descendant text for Element/Document.
func (n Node) StringValue() string {
	switch n.kind {
	case AttributeKind:
		return n.elementPayload().Attrs[n.attrIdx].Value
	default:
		return n.doc.StringValue(n.id)
	}
}

// Parent returns the parent node, or the zero Node if n is the document
// root. An attribute's parent is its owning element, even though the
// attribute is not among that element's children (spec.md §3).
func (n Node) Parent() Node {
	switch n.kind {
	case AttributeKind:
		return Node{doc: n.doc, kind: ElementKind, id: n.id}
	case DocumentKind:
		return Node{}
	default:
		p := n.doc.Arena.Parent(n.id)
		if p == html.NilNode {
			return Node{}
		}
		return nodeFromID(n.doc, p)
	}
}

func nodeFromID(doc *html.Document, id html.NodeID) Node {
	switch doc.Kind(id) {
	case html.DocumentNode:
		return Node{doc: doc, kind: DocumentKind, id: id}
	case html.ElementNode:
		return Node{doc: doc, kind: ElementKind, id: id}
	case html.TextNode:
		return Node{doc: doc, kind: TextKind, id: id}
	case html.CommentNode:
		return Node{doc: doc, kind: CommentKind, id: id}
	default:
		return Node{}
	}
}

// Children returns an iterator over n's immediate Element/Text/Comment
// children in document order. Attribute nodes are never among them (spec.md
// §3); Document/Element are the only kinds that can have children.
func (n Node) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n.kind != DocumentKind && n.kind != ElementKind {
			return
		}
		for c := range n.doc.Arena.Children(n.id) {
			if !yield(nodeFromID(n.doc, c)) {
				return
			}
		}
	}
}

// Attributes returns an iterator over n's attribute nodes in source order
// (the attribute axis, spec.md §4.5). Empty for non-Element kinds.
func (n Node) Attributes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if n.kind != ElementKind {
			return
		}
		attrs := n.elementPayload().Attrs
		for i := range attrs {
			if !yield(Node{doc: n.doc, kind: AttributeKind, id: n.id, attrIdx: i}) {
				return
			}
		}
	}
}

// Root returns the document-node ancestor of n.
func (n Node) Root() Node {
	return Node{doc: n.doc, kind: DocumentKind, id: n.doc.Root}
}

// Equal reports whether n and other identify the same XDM node.
func (n Node) Equal(other Node) bool {
	return n.doc == other.doc && n.kind == other.kind && n.id == other.id &&
		(n.kind != AttributeKind || n.attrIdx == other.attrIdx)
}
