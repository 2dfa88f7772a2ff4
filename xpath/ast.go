package xpath

// Node is the common interface implemented by every AST node. The AST
// inventory below mirrors spec.md §6 exactly; every node is immutable once
// parsed (spec.md §3).
type Node interface {
	astNode()
	// Span returns the byte offset range in the original source this node
	// was parsed from, for error reporting (spec.md §4.6 "offending
	// sub-expression's source range").
	Span() (start, end int)
}

type base struct {
	start, end int
}

func (b base) Span() (int, int) { return b.start, b.end }

func (b *base) setSpan(start, end int) { b.start, b.end = start, end }

// Expr is a comma-separated sequence of ExprSingle (spec.md §6's top-level
// "Expr"). A single ExprSingle with no comma parses directly to that node,
// not wrapped in an Expr, matching how the teacher's expr.go keeps single
// expressions unwrapped.
type Expr struct {
	base
	Items []Node // each an ExprSingle variant
}

func (*Expr) astNode() {}

// ForExpr binds a sequence of variables in order, evaluating Return once per
// tuple of bound values.
type ForExpr struct {
	base
	Bindings []ForBinding
	Return   Node
}

func (*ForExpr) astNode() {}

type ForBinding struct {
	Var  string
	Seq  Node
}

// LetExpr binds variables to single sequence values (no iteration).
type LetExpr struct {
	base
	Bindings []LetBinding
	Return   Node
}

func (*LetExpr) astNode() {}

type LetBinding struct {
	Var   string
	Value Node
}

// QuantifiedExpr is "some $x in E satisfies P" / "every $x in E satisfies P".
type QuantifiedExpr struct {
	base
	Every      bool
	Bindings   []ForBinding
	Satisfies  Node
}

func (*QuantifiedExpr) astNode() {}

// IfExpr is "if (Cond) then Then else Else".
type IfExpr struct {
	base
	Cond, Then, Else Node
}

func (*IfExpr) astNode() {}

// BinOp names the operator of a flattened binary-operator-chain node.
type BinOp int

const (
	OpOr BinOp = iota
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpValueEq
	OpValueNe
	OpValueLt
	OpValueLe
	OpValueGt
	OpValueGe
	OpIs
	OpPrecedes // <<
	OpFollows  // >>
	OpConcat   // ||
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpUnion
	OpIntersect
	OpExcept
	OpTo // "to" range operator
)

// BinaryExpr is one link of a left-associative operator chain. The parser
// builds these iteratively in a loop (never by recursing back into the same
// precedence level), so a long "1+1+1+...+1" chain costs one stack frame
// total rather than one per operator (spec.md §9's stack-safety
// requirement). A single BinaryExpr covers OrExpr, AndExpr, ComparisonExpr,
// StringConcatExpr, RangeExpr, AdditiveExpr, MultiplicativeExpr, UnionExpr,
// and IntersectExceptExpr, distinguished by Op.
type BinaryExpr struct {
	base
	Op    BinOp
	Left  Node
	Right Node
}

func (*BinaryExpr) astNode() {}

// InstanceofExpr is "E instance of SequenceType".
type InstanceofExpr struct {
	base
	Operand Node
	Type    SequenceType
}

func (*InstanceofExpr) astNode() {}

// TreatExpr is "E treat as SequenceType".
type TreatExpr struct {
	base
	Operand Node
	Type    SequenceType
}

func (*TreatExpr) astNode() {}

// CastableExpr is "E castable as AtomicType ?".
type CastableExpr struct {
	base
	Operand  Node
	TypeName string
	Optional bool
}

func (*CastableExpr) astNode() {}

// CastExpr is "E cast as AtomicType ?".
type CastExpr struct {
	base
	Operand  Node
	TypeName string
	Optional bool
}

func (*CastExpr) astNode() {}

// ArrowExpr is "E => name(args...)" (or "E => $var(args...)").
type ArrowExpr struct {
	base
	Operand Node
	Target  Node // FunctionCall or VarRef naming the function item
}

func (*ArrowExpr) astNode() {}

// UnaryExpr is a run of leading +/- signs applied to Operand.
type UnaryExpr struct {
	base
	Negative bool
	Operand  Node
}

func (*UnaryExpr) astNode() {}

// SimpleMapExpr is "E1 ! E2 ! E3 ...", flattened like BinaryExpr chains.
type SimpleMapExpr struct {
	base
	Steps []Node
}

func (*SimpleMapExpr) astNode() {}

// PathExpr is a (possibly rooted) path: "/", "//", or a RelativePathExpr.
type PathExpr struct {
	base
	Rooted      bool // leading "/"
	RootedSlash bool // leading "//" (implies Rooted)
	Steps       []Node
}

func (*PathExpr) astNode() {}

// AxisKind enumerates the axes a ForwardStep/ReverseStep can name (spec.md
// §4.5 table).
type AxisKind int

const (
	AxisChild AxisKind = iota
	AxisDescendant
	AxisDescendantOrSelf
	AxisSelf
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisFollowingSibling
	AxisFollowing
	AxisPreceding
	AxisPrecedingSibling
	AxisAttribute
	AxisNamespace
)

// AxisStep is a StepExpr of the axis-step form: Axis::NodeTest[Predicates].
type AxisStep struct {
	base
	Axis       AxisKind
	Test       NodeTest
	Predicates []Node
}

func (*AxisStep) astNode() {}

// PostfixExpr is a StepExpr of the postfix form: a PrimaryExpr followed by
// zero or more predicates, argument lists, or lookups.
type PostfixExpr struct {
	base
	Primary Node
	Filters []PostfixFilter
}

func (*PostfixExpr) astNode() {}

// PostfixFilter is one suffix applied to a PostfixExpr's primary.
type PostfixFilter struct {
	Predicate Node   // non-nil for "[Predicate]"
	Args      []Node // non-nil (possibly empty) for "(Args)"
	Lookup    string // non-empty for "?name" / "?*" ("*" for wildcard)
}

// NodeTestKind distinguishes a name test, wildcard, or kind test.
type NodeTestKind int

const (
	TestName NodeTestKind = iota
	TestWildcard
	TestWildcardPrefix // "prefix:*"
	TestWildcardLocal  // "*:local"
	TestKind
)

// KindTestKind enumerates spec.md §4.5's kind tests.
type KindTestKind int

const (
	KindAnyNode KindTestKind = iota
	KindText
	KindComment
	KindElement
	KindAttribute
	KindDocumentNode
	KindProcessingInstruction
	KindNamespaceNode
)

// NodeTest is the test a step applies to candidate nodes (spec.md §4.5).
type NodeTest struct {
	Kind   NodeTestKind
	Name   string       // local name, or prefix/local half for the wildcard-half kinds
	Test   KindTestKind // meaningful when Kind == TestKind
	PIName string       // optional literal argument to processing-instruction(Name)
}

// Literal is a string/integer/decimal/double/boolean constant.
type Literal struct {
	base
	Kind  LiteralKind
	Str   string
	Num   float64
	IsInt bool
	Bool  bool
}

func (*Literal) astNode() {}

// LiteralKind enumerates Literal's payload variants.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
)

// VarRef is "$name".
type VarRef struct {
	base
	Name string
}

func (*VarRef) astNode() {}

// ContextItemExpr is ".".
type ContextItemExpr struct{ base }

func (*ContextItemExpr) astNode() {}

// FunctionCall is "name(args...)".
type FunctionCall struct {
	base
	Name string
	Args []Node
}

func (*FunctionCall) astNode() {}

// FunctionItemExpr is a named or inline function item reference; evaluating
// one raises EvalError{Kind: Unimplemented}. The parser never builds this
// node: an inline "function($a) { ... }" parses to an UnimplementedExpr, and
// a named reference such as "fn:contains#2" is a ParseError because the
// lexer does not accept '#'.
type FunctionItemExpr struct {
	base
	Raw string
}

func (*FunctionItemExpr) astNode() {}

// UnimplementedExpr represents any production the parser recognizes
// syntactically but does not evaluate (map/array constructors, unary
// lookup, inline function items, "?" argument placeholders). It always
// parses successfully;
// evaluation raises EvalError{Kind: Unimplemented} per spec.md §9's Open
// Question resolution.
type UnimplementedExpr struct {
	base
	Construct string
}

func (*UnimplementedExpr) astNode() {}

// SequenceType describes an "as SequenceType" clause (instance of/treat
// as/cast as use narrower forms, folded into this one shape for
// simplicity).
type SequenceType struct {
	EmptySequence bool
	Item          ItemType
	Occurrence    byte // 0, '?', '*', or '+'
}

// ItemType describes the item type half of a SequenceType.
type ItemType struct {
	AnyItem  bool
	Kind     *NodeTest // non-nil for a kind test / element()/attribute()
	AtomicQN string    // non-empty for an atomic type name like xs:string
}
