package xpath

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlxpath/htmlxpath/html"
	"github.com/htmlxpath/htmlxpath/xdm"
)

func run(t *testing.T, docSrc, xpathSrc string) Sequence {
	t.Helper()
	doc, diags := html.Parse(docSrc)
	require.Empty(t, diags)
	expr, err := Parse(xpathSrc)
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	return seq
}

func names(seq Sequence) []string {
	out := make([]string, len(seq))
	for i, it := range seq {
		out[i] = it.Node.Name()
	}
	return out
}

func TestAllDescendantDiv(t *testing.T) {
	seq := run(t, `<r><div id="a"/><p><div id="b"/></p></r>`, `//div`)
	require.Len(t, seq, 2)
	assert.Equal(t, "div", seq[0].Node.Name())
	assert.Equal(t, "div", seq[1].Node.Name())
}

func TestPredicateAndChildStep(t *testing.T) {
	src := `<r><div class="foo"><span>a</span></div><div class="bar"><span>b</span></div></r>`
	seq := run(t, src, `//div[@class='foo']/span`)
	require.Len(t, seq, 1)
	assert.Equal(t, "a", seq[0].Node.StringValue())
}

func TestCountFunction(t *testing.T) {
	seq := run(t, `<r><child/><child/><child/></r>`, `count(//child)`)
	require.Len(t, seq, 1)
	assert.Equal(t, NumberItem, seq[0].Kind)
	assert.Equal(t, 3.0, seq[0].Num)
}

func TestPositionalPredicate(t *testing.T) {
	seq := run(t, `<r><b>1</b><b>2</b><b>3</b></r>`, `//b[2]`)
	require.Len(t, seq, 1)
	assert.Equal(t, "2", seq[0].Node.StringValue())
}

func TestAttributeStep(t *testing.T) {
	seq := run(t, `<r><x id="1"/><x id="2"/></r>`, `//x/@id`)
	require.Len(t, seq, 2)
	assert.Equal(t, NodeItem, seq[0].Kind)
	assert.Equal(t, xdm.AttributeKind, seq[0].Node.Kind())
	assert.Equal(t, "1", seq[0].Node.StringValue())
	assert.Equal(t, "2", seq[1].Node.StringValue())
}

func TestTreatAsNode(t *testing.T) {
	seq := run(t, `<html><body/></html>`, `/html treat as node()`)
	require.Len(t, seq, 1)
	assert.Equal(t, "html", seq[0].Node.Name())
}

func TestTreatAsNodeFailsOnEmptySequence(t *testing.T) {
	doc, diags := html.Parse(`<html/>`)
	require.Empty(t, diags)
	expr, err := Parse(`//nonexistent treat as node()`)
	require.NoError(t, err)
	_, err = expr.Apply(xdm.NewDocument(doc))
	require.Error(t, err)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, TypeMismatch, evalErr.Kind)
}

// TestDeeplyNestedParens exercises the stack-safety invariant: 500+ levels
// of parenthesis nesting must parse without exhausting the call stack,
// since the parser collapses a run of "(" into one iterative loop rather
// than recursing per level.
func TestDeeplyNestedParens(t *testing.T) {
	const depth = 600
	src := strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	expr, err := Parse(src)
	require.NoError(t, err)

	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, 1.0, seq[0].Num)
}

func TestArithmeticAndComparison(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	cases := []struct {
		expr string
		want bool
	}{
		{"1 + 2 = 3", true},
		{"(1 + 2) * 2 = 6", true},
		{"10 idiv 3 = 3", true},
		{"10 mod 3 = 1", true},
		{"'a' < 'b'", true},
		{"2 to 4", false}, // not a boolean; checked separately below
	}
	for _, c := range cases[:len(cases)-1] {
		expr, err := Parse(c.expr)
		require.NoError(t, err, c.expr)
		seq, err := expr.Apply(xdm.NewDocument(doc))
		require.NoError(t, err, c.expr)
		require.Len(t, seq, 1, c.expr)
		assert.Equal(t, c.want, seq[0].Bool, c.expr)
	}

	expr, err := Parse("2 to 4")
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 3)
	for i, v := range []float64{2, 3, 4} {
		assert.Equal(t, v, seq[i].Num)
	}
}

func TestDivisionByZero(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("1 div 0")
	require.NoError(t, err)
	_, err = expr.Apply(xdm.NewDocument(doc))
	require.Error(t, err)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, DivisionByZero, evalErr.Kind)
}

func TestEvalErrorIsMatchesByKind(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("1 div 0")
	require.NoError(t, err)
	_, err = expr.Apply(xdm.NewDocument(doc))
	require.Error(t, err)

	assert.True(t, errors.Is(err, &EvalError{Kind: DivisionByZero}))
	assert.False(t, errors.Is(err, &EvalError{Kind: TypeMismatch}))
}

func TestDoubleDivisionByZeroYieldsInfinity(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("1.5 div 0")
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.True(t, math.IsInf(seq[0].Num, 1))
}

// TestFractionalArithmeticStringValue guards against truncating the
// fractional part of a non-integer arithmetic result when formatting it as
// a string: a prior bug hard-coded every "+"/"-"/"*" result as integer-typed,
// which made string(1.5 + 1) print "2" instead of "2.5".
func TestFractionalArithmeticStringValue(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("string(1.5 + 1)")
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, "2.5", seq[0].Str)
}

func TestUnknownFunctionSurfacesEvalError(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("no-such-function(1)")
	require.NoError(t, err)
	_, err = expr.Apply(xdm.NewDocument(doc))
	require.Error(t, err)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, UnknownFunction, evalErr.Kind)
}

func TestForLetQuantified(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)

	expr, err := Parse("for $x in (1, 2, 3) return $x * 2")
	require.NoError(t, err)
	seq, err := expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 3)
	assert.Equal(t, []float64{2, 4, 6}, []float64{seq[0].Num, seq[1].Num, seq[2].Num})

	expr, err = Parse("let $x := 10 return $x + 5")
	require.NoError(t, err)
	seq, err = expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, 15.0, seq[0].Num)

	expr, err = Parse("every $x in (1, 2, 3) satisfies $x > 0")
	require.NoError(t, err)
	seq, err = expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.True(t, seq[0].Bool)

	expr, err = Parse("some $x in (1, 2, 3) satisfies $x > 2")
	require.NoError(t, err)
	seq, err = expr.Apply(xdm.NewDocument(doc))
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.True(t, seq[0].Bool)
}

func TestMalformedExpressionProducesParseError(t *testing.T) {
	_, err := Parse("//div[")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestUnimplementedConstructParsesButFailsAtEval(t *testing.T) {
	doc, diags := html.Parse(`<r/>`)
	require.Empty(t, diags)
	expr, err := Parse("map { 'a': 1 }")
	require.NoError(t, err)
	_, err = expr.Apply(xdm.NewDocument(doc))
	require.Error(t, err)
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, Unimplemented, evalErr.Kind)
}

func TestStringFunctions(t *testing.T) {
	doc, diags := html.Parse(`<r>  hello   world  </r>`)
	require.Empty(t, diags)

	for _, c := range []struct {
		expr string
		want string
	}{
		{"normalize-space(//r)", "hello world"},
		{"substring('abcdef', 2, 3)", "bcd"},
		{"concat('a', 'b')", "ab"},
	} {
		expr, err := Parse(c.expr)
		require.NoError(t, err, c.expr)
		seq, err := expr.Apply(xdm.NewDocument(doc))
		require.NoError(t, err, c.expr)
		require.Len(t, seq, 1, c.expr)
		assert.Equal(t, c.want, seq[0].Str, c.expr)
	}
}

func TestUnionIntersectExcept(t *testing.T) {
	seq := run(t, `<r><a/><b/><c/></r>`, `(//a | //b)`)
	require.Len(t, seq, 2)

	seq = run(t, `<r><a/><b/><c/></r>`, `(//a | //b | //c) intersect (//b | //c)`)
	require.Len(t, seq, 2)

	seq = run(t, `<r><a/><b/><c/></r>`, `(//a | //b | //c) except //b`)
	require.Len(t, seq, 2)
	assert.ElementsMatch(t, []string{"a", "c"}, names(seq))
}

func TestNumberFormattingRoundTrip(t *testing.T) {
	assert.Equal(t, "3", formatXPathNumber(3, true))
	assert.Equal(t, "3.5", formatXPathNumber(3.5, false))
	n, err := strconv.ParseFloat("3.5", 64)
	require.NoError(t, err)
	assert.Equal(t, 3.5, n)
}
