package xdm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlxpath/htmlxpath/html"
)

func mustParse(t *testing.T, src string) *html.Document {
	t.Helper()
	doc, diags := html.Parse(src)
	require.Empty(t, diags)
	return doc
}

func findByName(t *testing.T, root Node, name string) []Node {
	t.Helper()
	var out []Node
	for n := range Descendant(root, func(n Node) bool { return n.kind == ElementKind && n.Name() == name }) {
		out = append(out, n)
	}
	return out
}

func TestStringValueAndChildren(t *testing.T) {
	doc := mustParse(t, `<div><div class="foo"><span>yes</span></div><div class="bar"><span>no</span></div></div>`)
	root := NewDocument(doc)

	spans := findByName(t, root, "span")
	require.Len(t, spans, 2)
	assert.Equal(t, "yes", spans[0].StringValue())
	assert.Equal(t, "no", spans[1].StringValue())
}

func TestAttributesAreNotChildren(t *testing.T) {
	doc := mustParse(t, `<a href="x">text</a>`)
	root := NewDocument(doc)
	as := findByName(t, root, "a")
	require.Len(t, as, 1)
	a := as[0]

	for c := range a.Children() {
		assert.NotEqual(t, AttributeKind, c.kind)
	}

	var attrs []Node
	for at := range a.Attributes() {
		attrs = append(attrs, at)
	}
	require.Len(t, attrs, 1)
	assert.Equal(t, "href", attrs[0].Name())
	assert.Equal(t, "x", attrs[0].StringValue())
	assert.True(t, attrs[0].Parent().Equal(a))
}

func TestAxisSymmetryFollowingPrecedingSibling(t *testing.T) {
	doc := mustParse(t, `<a><b>1</b><b>2</b><b>3</b></a>`)
	root := NewDocument(doc)
	bs := findByName(t, root, "b")
	require.Len(t, bs, 3)

	var following []Node
	for n := range FollowingSibling(bs[0], AnyNode) {
		following = append(following, n)
	}
	require.Len(t, following, 2)
	assert.True(t, following[0].Equal(bs[1]))
	assert.True(t, following[1].Equal(bs[2]))

	var preceding []Node
	for n := range PrecedingSibling(bs[2], AnyNode) {
		preceding = append(preceding, n)
	}
	require.Len(t, preceding, 2)
	assert.True(t, preceding[0].Equal(bs[1]))
	assert.True(t, preceding[1].Equal(bs[0]))
}

func TestDocumentOrderTotalAndSortDedup(t *testing.T) {
	doc := mustParse(t, `<r><x id="1"/><x id="2"/></r>`)
	root := NewDocument(doc)
	xs := findByName(t, root, "x")
	require.Len(t, xs, 2)

	assert.True(t, Less(xs[0], xs[1]))
	assert.False(t, Less(xs[1], xs[0]))
	assert.False(t, Less(xs[0], xs[0]))

	dup := []Node{xs[1], xs[0], xs[1], xs[0]}
	out := SortAndDedup(dup)
	require.Len(t, out, 2)
	assert.True(t, out[0].Equal(xs[0]))
	assert.True(t, out[1].Equal(xs[1]))
}

func TestAttributeOrdersAfterElementBeforeChildren(t *testing.T) {
	doc := mustParse(t, `<e a="1"><child/></e>`)
	root := NewDocument(doc)
	es := findByName(t, root, "e")
	require.Len(t, es, 1)
	e := es[0]
	var attr Node
	for at := range e.Attributes() {
		attr = at
	}
	children := findByName(t, root, "child")
	require.Len(t, children, 1)

	assert.True(t, Less(e, attr))
	assert.True(t, Less(attr, children[0]))
}
