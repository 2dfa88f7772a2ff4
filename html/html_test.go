package html

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elementNames(t *testing.T, doc *Document) []string {
	t.Helper()
	var names []string
	var walk func(id NodeID)
	walk = func(id NodeID) {
		for c := range doc.Arena.Children(id) {
			p := doc.Arena.Payload(c)
			if p.Kind == ElementNode {
				names = append(names, p.Name)
			}
			walk(c)
		}
	}
	walk(doc.Root)
	return names
}

func TestParseSimpleDocument(t *testing.T) {
	doc, diags := Parse(`<html><body><div>Hello world</div></body></html>`)
	assert.Empty(t, diags)

	names := elementNames(t, doc)
	assert.Equal(t, []string{"html", "body", "div"}, names)
}

func TestParseVoidElementsNeverNest(t *testing.T) {
	doc, diags := Parse(`<parent><br/><br/></parent>`)
	assert.Empty(t, diags)

	var childCount int
	var parent NodeID
	for c := range doc.Arena.Children(doc.Root) {
		if doc.Arena.Payload(c).Name == "parent" {
			parent = c
		}
	}
	require.NotEqual(t, NilNode, parent)
	for c := range doc.Arena.Children(parent) {
		if doc.Arena.Payload(c).Name == "br" {
			childCount++
			assert.Equal(t, NilNode, doc.Arena.FirstChild(c), "void element must have no children")
		}
	}
	assert.Equal(t, 2, childCount)
}

func TestParseImplicitCloseAtEOF(t *testing.T) {
	doc, diags := Parse(`<div><span>unclosed`)
	assert.Empty(t, diags)
	var span NodeID
	for c := range doc.Arena.DescendantsInDocumentOrder(doc.Root) {
		if doc.Arena.Payload(c).Name == "span" {
			span = c
		}
	}
	require.NotEqual(t, NilNode, span)
	assert.Equal(t, "unclosed", doc.StringValue(span))
}

func TestParseStrayEndTagIsDiscarded(t *testing.T) {
	doc, diags := Parse(`<div>text</span></div>`)
	require.Len(t, diags, 1)
	assert.Equal(t, StrayEndTag, diags[0].Kind)
	assert.Equal(t, "text", doc.StringValue(doc.Root))
}

func TestParseDuplicateAttributeIgnored(t *testing.T) {
	doc, diags := Parse(`<a href="one" href="two">x</a>`)
	require.Len(t, diags, 1)
	assert.Equal(t, DuplicateAttribute, diags[0].Kind)

	var a NodeID
	for c := range doc.Arena.DescendantsInDocumentOrder(doc.Root) {
		if doc.Arena.Payload(c).Name == "a" {
			a = c
		}
	}
	v, ok := doc.Arena.Payload(a).Attr("href")
	require.True(t, ok)
	assert.Equal(t, "one", v)
}

func TestParseUnterminatedCommentIsRecoverable(t *testing.T) {
	doc, diags := Parse(`<div><!-- oops</div>`)
	require.Len(t, diags, 1)
	assert.Equal(t, UnterminatedComment, diags[0].Kind)
	assert.NotNil(t, doc)
}

func TestParseEntityDecoding(t *testing.T) {
	doc, diags := Parse(`<p>Tom &amp; Jerry &#60;3 &#x2764;</p>`)
	assert.Empty(t, diags)
	var p NodeID
	for c := range doc.Arena.DescendantsInDocumentOrder(doc.Root) {
		if doc.Arena.Payload(c).Name == "p" {
			p = c
		}
	}
	assert.Equal(t, "Tom & Jerry <3 ❤", doc.StringValue(p))
}

func TestParseRawTextScriptNotDecoded(t *testing.T) {
	doc, _ := Parse(`<script>if (a &lt; b) {}</script>`)
	var script NodeID
	for c := range doc.Arena.DescendantsInDocumentOrder(doc.Root) {
		if doc.Arena.Payload(c).Name == "script" {
			script = c
		}
	}
	require.NotEqual(t, NilNode, script)
	assert.Equal(t, "if (a &lt; b) {}", doc.StringValue(script))
}

func TestParseTextMergedAcrossEntities(t *testing.T) {
	doc, _ := Parse(`<p>a&amp;b</p>`)
	var p NodeID
	for c := range doc.Arena.DescendantsInDocumentOrder(doc.Root) {
		if doc.Arena.Payload(c).Name == "p" {
			p = c
		}
	}
	// exactly one merged text child, not three separate text nodes.
	count := 0
	for range doc.Arena.Children(p) {
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "a&b", doc.StringValue(p))
}

// TestParseMalformedCorpus is spec.md invariant 6: html_parse terminates and
// returns a valid document for every input in a corpus of malformed samples.
func TestParseMalformedCorpus(t *testing.T) {
	samples := []string{
		"",
		"<",
		"<<<<<",
		"<div",
		"<div>",
		"</div>",
		"<div></span></div>",
		"<a href=unterminated>",
		"<!--",
		"<!-- unterminated",
		"<![CDATA[ raw ]]>",
		"<!DOCTYPE html>",
		"<br><br/><hr>",
		"text & <b>bold</b> &amp more &",
		"<div class=foo id='bar'>nested <span>text</span></div>",
		"<TABLE><TR><TD>upper</TD></TR></TABLE>",
	}
	for _, s := range samples {
		doc, _ := Parse(s)
		require.NotNil(t, doc)
		assert.NotEqual(t, NilNode, doc.Root)
	}
}

func TestPayloadAttrEqual(t *testing.T) {
	p1 := Payload{Kind: ElementNode, Name: "a", Attrs: []Attribute{{Name: "x", Value: "1"}}}
	p2 := Payload{Kind: ElementNode, Name: "a", Attrs: []Attribute{{Name: "x", Value: "1"}}}
	if diff := cmp.Diff(p1, p2); diff != "" {
		t.Errorf("payloads differ: %s", diff)
	}
}
