package xpath

import "github.com/htmlxpath/htmlxpath/xdm"

// ItemKind distinguishes an Item's payload: an XDM node, or one of the
// three atomic types XPath 3.1's core arithmetic/comparison rules need
// (string, double, boolean). Decimal and integer are represented as double
// with IsInt set, per spec.md §4.6's promotion rules.
type ItemKind int

const (
	NodeItem ItemKind = iota
	StringItem
	NumberItem
	BooleanItem
)

// Item is a single member of an XDM sequence: either a node or an atomic
// value (spec.md §3).
type Item struct {
	Kind  ItemKind
	Node  xdm.Node
	Str   string
	Num   float64
	IsInt bool
	Bool  bool
}

func nodeItem(n xdm.Node) Item       { return Item{Kind: NodeItem, Node: n} }
func stringItem(s string) Item       { return Item{Kind: StringItem, Str: s} }
func boolItem(b bool) Item           { return Item{Kind: BooleanItem, Bool: b} }
func numberItem(v float64, isInt bool) Item {
	return Item{Kind: NumberItem, Num: v, IsInt: isInt}
}
func intItem(v int) Item { return numberItem(float64(v), true) }

// Sequence is an ordered, possibly-empty list of Items. Unlike a node-set,
// it is NOT implicitly deduplicated or sorted — callers that need document
// order (path steps, union/intersect/except) call xdm.SortAndDedup
// explicitly (spec.md §3).
type Sequence []Item

// StringValue returns fn:string()'s value for s (spec.md §4.7): empty
// string for an empty sequence, the atomized first item otherwise.
func (s Sequence) StringValue() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].stringValue()
}

func (it Item) stringValue() string {
	switch it.Kind {
	case NodeItem:
		return it.Node.StringValue()
	case StringItem:
		return it.Str
	case BooleanItem:
		if it.Bool {
			return "true"
		}
		return "false"
	case NumberItem:
		return formatXPathNumber(it.Num, it.IsInt)
	default:
		return ""
	}
}

// Function is the signature every built-in implements: given the dynamic
// context active at the call site and the already-evaluated argument
// sequences, produce a result sequence or fail (spec.md §4.7).
type Function func(ctx *Context, args []Sequence) (Sequence, error)

// ExpandedName keys the builtin registry by (namespace, local name, arity)
// per SPEC_FULL.md §10; namespace is always "" since spec.md's lexical-QName
// scope (§9 Open Question) never resolves a prefix to a real namespace URI.
type ExpandedName struct {
	Namespace string
	Local     string
	Arity     int
}

// Context is the XPath dynamic context: the focus triple (context item,
// position, size), the in-scope variable bindings, and the document the
// expression was applied against (spec.md §3, §9 "Focus management").
// Context is passed by value and never mutated in place — every
// sub-expression boundary that changes focus or binds a variable produces
// a new Context via withFocus/withVar, mirroring chtml/scope.go's
// copy-on-Spawn ScopeMap rather than a shared mutable environment.
type Context struct {
	Item     Item
	Position int
	Size     int
	HasFocus bool
	Vars     map[string]Sequence
	Root     xdm.Node
}

// NewContext builds the initial dynamic context for a document, with the
// context item set to the document node (spec.md §9).
func NewContext(root xdm.Node) *Context {
	return &Context{
		Item:     nodeItem(root),
		Position: 1,
		Size:     1,
		HasFocus: true,
		Vars:     map[string]Sequence{},
		Root:     root,
	}
}

// withFocus returns a new Context with the context item/position/size
// replaced, leaving variable bindings untouched.
func (c *Context) withFocus(item Item, position, size int) *Context {
	nc := *c
	nc.Item = item
	nc.Position = position
	nc.Size = size
	nc.HasFocus = true
	return &nc
}

// withVar returns a new Context binding name to val, copying the parent's
// variable map (spec.md §9; small maps in practice, so a full copy per
// binding keeps "never mutate in place" simple and correct).
func (c *Context) withVar(name string, val Sequence) *Context {
	nc := *c
	vars := make(map[string]Sequence, len(c.Vars)+1)
	for k, v := range c.Vars {
		vars[k] = v
	}
	vars[name] = val
	nc.Vars = vars
	return &nc
}

// Expression is a parsed, reusable XPath expression (spec.md §6). The zero
// value is not valid; construct with Parse.
type Expression struct {
	root Node
	src  string
}

// Source returns the original XPath text this Expression was parsed from.
func (e *Expression) Source() string { return e.src }

// Apply evaluates the expression with a fresh dynamic context whose context
// item and root are root (normally the document node from xdm.NewDocument),
// returning the result sequence (spec.md §6).
func (e *Expression) Apply(root xdm.Node) (Sequence, error) {
	ctx := NewContext(root)
	return eval(ctx, e.root)
}
