// Package xmlfixture loads golden XML documents for evaluator tests and
// walks them independently of the xdm package under test, so a test's
// expected-result derivation does not share a bug with the code it checks.
// Grounded on chtml/component.go's use of beevik/etree to parse and walk a
// component's template tree.
package xmlfixture

import (
	"strings"

	"github.com/beevik/etree"
)

// MustLoad parses src as XML and panics on malformed input; intended for
// table-driven tests where a bad fixture string is a test-authoring bug,
// not a runtime condition to handle.
func MustLoad(src string) *etree.Document {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		panic(err)
	}
	return doc
}

// Walk calls visit once per element in doc, in document order, with the
// chain of tag names from the root element down to and including el.
func Walk(doc *etree.Document, visit func(path []string, el *etree.Element)) {
	var rec func(el *etree.Element, path []string)
	rec = func(el *etree.Element, path []string) {
		here := append(append([]string{}, path...), el.Tag)
		visit(here, el)
		for _, child := range el.ChildElements() {
			rec(child, here)
		}
	}
	for _, root := range doc.ChildElements() {
		rec(root, nil)
	}
}

// TagNames collects every element's tag name in document order, handy for
// asserting the shape of a path-expression result without hand-building an
// xdm node sequence.
func TagNames(doc *etree.Document) []string {
	var names []string
	Walk(doc, func(_ []string, el *etree.Element) {
		names = append(names, el.Tag)
	})
	return names
}

// TextOf concatenates the character data directly under el, mirroring
// xdm.Node.StringValue()'s "text descendants, in order" rule for a single
// element without child elements of its own.
func TextOf(el *etree.Element) string {
	var b strings.Builder
	for _, child := range el.Child {
		if cd, ok := child.(*etree.CharData); ok {
			b.WriteString(cd.Data)
		}
	}
	return b.String()
}
