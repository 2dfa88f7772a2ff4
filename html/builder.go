package html

import (
	"github.com/htmlxpath/htmlxpath/arena"
)

// builder consumes a Tokenizer's token stream and builds a Document,
// maintaining an open-element stack the way chtml/parse.go's chtmlParser
// maintains its "oe" stack. It never panics on malformed input; problems
// are reported as Diagnostics (spec.md §4.3).
type builder struct {
	a     *arena.Arena[Payload]
	doc   NodeID
	oe    []NodeID // open-element stack
	diags []Diagnostic
}

// Parse parses HTML source text into a queryable Document. It never fails
// fatally; diagnostics describes every recoverable problem encountered.
func Parse(src string) (*Document, []Diagnostic) {
	b := &builder{a: arena.New[Payload]()}
	b.doc = b.a.NewNode(Payload{Kind: DocumentNode})
	b.oe = []NodeID{b.doc}

	z := NewTokenizer(src, &b.diags)
	for {
		tt := z.Next()
		switch tt {
		case EOFToken:
			b.closeRemaining()
			return &Document{Arena: b.a, Root: b.doc}, b.diags
		case TextToken:
			b.insertText(z.Text())
		case CommentToken:
			b.insertComment(z.Text())
		case DoctypeToken:
			b.setDoctype(z.Text())
		case StartTagToken:
			b.startElement(z.TagName(), z.Attrs(), z.SelfClosing())
		case EndTagToken:
			b.endElement(z.TagName())
		}
	}
}

func (b *builder) top() NodeID {
	return b.oe[len(b.oe)-1]
}

func (b *builder) push(id NodeID) {
	b.oe = append(b.oe, id)
}

func (b *builder) pop() NodeID {
	n := b.top()
	b.oe = b.oe[:len(b.oe)-1]
	return n
}

func (b *builder) emit(kind DiagnosticKind, msg string) {
	b.diags = append(b.diags, Diagnostic{Kind: kind, Message: msg})
}

// insertText attaches a text node at the current insertion point, merging
// with an adjacent preceding text sibling under the same parent (spec.md
// §4.3: "Text tokens are merged with the adjacent preceding text sibling").
func (b *builder) insertText(text string) {
	if text == "" {
		return
	}
	parent := b.top()
	if last := b.a.LastChild(parent); last != NilNode {
		p := b.a.Payload(last)
		if p.Kind == TextNode {
			p.Text += text
			return
		}
	}
	id := b.a.NewNode(Payload{Kind: TextNode, Text: text})
	b.a.AppendChild(parent, id)
}

func (b *builder) insertComment(body string) {
	id := b.a.NewNode(Payload{Kind: CommentNode, Comment: body})
	b.a.AppendChild(b.top(), id)
}

func (b *builder) setDoctype(name string) {
	doc := b.a.Payload(b.doc)
	doc.Doctype = name
}

// startElement handles both void and self-closing start tags per spec.md
// §4.3: void elements never push onto the stack; self-closing syntax on a
// non-void element is ignored (the element is pushed normally).
func (b *builder) startElement(name string, attrs []Attribute, selfClosing bool) {
	id := b.a.NewNode(Payload{Kind: ElementNode, Name: name, Attrs: attrs})
	b.a.AppendChild(b.top(), id)

	if isVoidElement(name) {
		// Void elements never push; subsequent content becomes their
		// sibling, even if the source used "/>" or not.
		return
	}
	if selfClosing {
		// Self-closing syntax on a non-void element is ignored: push the
		// element normally, content (if any) becomes its child, and it
		// must still be closed by a later end tag or EOF.
	}
	b.push(id)
}

// endElement handles an end tag for element name: pop until name is
// popped; if name is not on the stack, discard the end tag (spec.md §4.3).
func (b *builder) endElement(name string) {
	idx := -1
	for i := len(b.oe) - 1; i >= 1; i-- { // never match/pop the document root
		if b.a.Payload(b.oe[i]).Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.emit(StrayEndTag, "stray end tag </"+name+">")
		return
	}
	for len(b.oe)-1 >= idx {
		b.pop()
	}
}

// closeRemaining implicitly closes any elements still open at EOF (spec.md
// §4.3).
func (b *builder) closeRemaining() {
	for len(b.oe) > 1 {
		b.pop()
	}
}

