// Package html implements a lenient, tag-soup tolerant HTML parser: a
// tokenizer (tokenizer.go) feeding a tree builder (builder.go) that produces
// an arena-backed Document. Malformed input never aborts parsing; problems
// are collected as Diagnostics alongside the returned Document.
package html

import (
	"strings"

	"github.com/htmlxpath/htmlxpath/arena"
)

// NodeID identifies a node within a Document's arena.
type NodeID = arena.NodeID

// NilNode is the identifier of "no node".
const NilNode = arena.NilNode

// NodeKind enumerates the payload variants spec.md §3 requires.
type NodeKind int

const (
	// DocumentNode is the distinguished root; exactly one per Document.
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// Attribute is a single name/value pair. Attribute names within an element
// are unique; later duplicates are dropped by the tokenizer (spec.md §3).
type Attribute struct {
	Name  string
	Value string
}

// Payload is the arena node payload for an HTML document.
type Payload struct {
	Kind NodeKind

	// Element fields.
	Name  string
	Attrs []Attribute

	// Text fields.
	Text string

	// Comment fields (raw body, no entity decoding).
	Comment string

	// Document fields.
	Doctype string
}

// Attr looks up an attribute by name on an Element payload, returning its
// value and whether it was present.
func (p *Payload) Attr(name string) (string, bool) {
	for _, a := range p.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// DiagnosticKind classifies a recoverable HTML parsing problem (spec.md §7).
type DiagnosticKind int

const (
	UnterminatedComment DiagnosticKind = iota
	DuplicateAttribute
	StrayEndTag
	UnexpectedEOF
	InvalidUTF8
)

func (k DiagnosticKind) String() string {
	switch k {
	case UnterminatedComment:
		return "unterminated comment"
	case DuplicateAttribute:
		return "duplicate attribute"
	case StrayEndTag:
		return "stray end tag"
	case UnexpectedEOF:
		return "unexpected eof"
	case InvalidUTF8:
		return "invalid utf-8"
	default:
		return "unknown"
	}
}

// Diagnostic is a single recoverable problem encountered while parsing.
// Diagnostics never abort parsing (spec.md §7).
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Offset  int
}

func (d Diagnostic) Error() string {
	return d.Message
}

// Document is an arena plus a distinguished root-node identifier, per
// spec.md §3.
type Document struct {
	Arena *arena.Arena[Payload]
	Root  NodeID
}

// Kind returns the node kind for id.
func (d *Document) Kind(id NodeID) NodeKind {
	return d.Arena.Payload(id).Kind
}

// StringValue computes the XDM string-value of a node: the concatenation of
// all descendant text for elements/document, the decoded text for a text
// node, and the raw body for a comment.
func (d *Document) StringValue(id NodeID) string {
	p := d.Arena.Payload(id)
	switch p.Kind {
	case TextNode:
		return p.Text
	case CommentNode:
		return p.Comment
	default:
		var b strings.Builder
		d.collectText(id, &b)
		return b.String()
	}
}

func (d *Document) collectText(id NodeID, b *strings.Builder) {
	for c := range d.Arena.Children(id) {
		p := d.Arena.Payload(c)
		switch p.Kind {
		case TextNode:
			b.WriteString(p.Text)
		case ElementNode:
			d.collectText(c, b)
		}
	}
}
