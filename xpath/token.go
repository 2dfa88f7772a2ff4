package xpath

// tokenKind enumerates the lexical token kinds the XPath lexer produces.
// Grounded on the token inventory in
// other_examples/gogo-agent-xmldom/xpath_parser.go (XPathTokenType),
// extended with the XPath 3.1 tokens that engine's XPath 1.0 subset lacks
// (string-concat "||", arrow "=>", quantifiers, "::" kind-test keywords).
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokError

	tokName     // NCName or QName segment (keywords are re-classified by the parser from context)
	tokString   // "..." or '...'
	tokNumber   // integer, decimal, or double literal
	tokVariable // $name

	tokSlash       // /
	tokSlashSlash  // //
	tokDot         // .
	tokDotDot      // ..
	tokAt          // @
	tokPipe        // |
	tokPlus        // +
	tokMinus       // -
	tokStar        // *
	tokComma       // ,
	tokColon       // :
	tokColonColon  // ::
	tokLParen      // (
	tokRParen      // )
	tokLBracket    // [
	tokRBracket    // ]
	tokLBrace      // {
	tokRBrace      // }
	tokEq          // =
	tokNe          // !=
	tokLt          // <
	tokLe          // <=
	tokGt          // >
	tokGe          // >=
	tokLtLt        // <<
	tokGtGt        // >>
	tokConcat      // ||
	tokArrow       // =>
	tokQuestion    // ?
	tokBang        // !  (simple map operator)
	tokDollarDollar
)

// token is a single lexical token with its source offset.
type token struct {
	kind   tokenKind
	text   string
	offset int
}

// keyword operator names that the parser recognizes contextually (XPath has
// no reserved words at the lexical level; "div", "and", "child" etc. are
// ordinary NCNames that the grammar treats specially in operator position).
const (
	kwAnd             = "and"
	kwOr              = "or"
	kwDiv             = "div"
	kwIDiv            = "idiv"
	kwMod             = "mod"
	kwUnion           = "union"
	kwIntersect       = "intersect"
	kwExcept          = "except"
	kwTo              = "to"
	kwEq              = "eq"
	kwNe              = "ne"
	kwLt              = "lt"
	kwLe              = "le"
	kwGt              = "gt"
	kwGe              = "ge"
	kwIs              = "is"
	kwFor             = "for"
	kwLet             = "let"
	kwSome            = "some"
	kwEvery           = "every"
	kwIf              = "if"
	kwThen            = "then"
	kwElse            = "else"
	kwIn              = "in"
	kwReturn          = "return"
	kwSatisfies       = "satisfies"
	kwInstance        = "instance"
	kwOf              = "of"
	kwTreat           = "treat"
	kwAs              = "as"
	kwCastable        = "castable"
	kwCast            = "cast"
	kwNode            = "node"
	kwText            = "text"
	kwComment         = "comment"
	kwElement         = "element"
	kwAttribute       = "attribute"
	kwDocumentNode    = "document-node"
	kwProcessingInstr = "processing-instruction"
	kwNamespaceNode   = "namespace-node"
	kwItem            = "item"
	kwEmptySequence   = "empty-sequence"
	kwSchemaElement   = "schema-element"
	kwSchemaAttribute = "schema-attribute"
	kwFunction        = "function"
	kwMap             = "map"
	kwArray           = "array"
)

// axisNames is the set of forward/reverse axis keywords spec.md §4.5 lists.
var axisNames = map[string]bool{
	"child": true, "descendant": true, "attribute": true, "self": true,
	"descendant-or-self": true, "following-sibling": true, "following": true,
	"namespace": true, "parent": true, "ancestor": true,
	"preceding-sibling": true, "preceding": true, "ancestor-or-self": true,
}
