package xpath

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlxpath/htmlxpath/html"
	"github.com/htmlxpath/htmlxpath/internal/xmlfixture"
	"github.com/htmlxpath/htmlxpath/xdm"
)

// TestDescendantOrderMatchesIndependentWalk cross-checks "//*" against a
// document-order element walk built from an independently parsed copy of the
// same markup (via etree, not this package's own html/xdm code), so a bug
// shared between the xpath evaluator and the html tree builder can't hide
// behind a test that only exercises this package's own types.
func TestDescendantOrderMatchesIndependentWalk(t *testing.T) {
	const src = `<r><a><b/><c/></a><d/></r>`

	doc, diags := html.Parse(src)
	require.Empty(t, diags)
	expr, err := Parse(`//*`)
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)

	got := make([]string, len(seq))
	for i, it := range seq {
		got[i] = it.Node.Name()
	}

	want := xmlfixture.TagNames(xmlfixture.MustLoad(src))
	assert.Equal(t, want, got)
}

// TestTextOfMatchesStringValue cross-checks a leaf element's string value
// against xmlfixture.TextOf's independent character-data concatenation.
func TestTextOfMatchesStringValue(t *testing.T) {
	const src = `<r><item>hello</item></r>`

	doc, diags := html.Parse(src)
	require.Empty(t, diags)
	expr, err := Parse(`//item`)
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)

	fixtureDoc := xmlfixture.MustLoad(src)
	var want string
	xmlfixture.Walk(fixtureDoc, func(_ []string, el *etree.Element) {
		if el.Tag == "item" {
			want = xmlfixture.TextOf(el)
		}
	})

	assert.Equal(t, want, seq[0].Node.StringValue())
}
