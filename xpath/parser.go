package xpath

// parser is a recursive-descent parser over a pre-scanned token slice.
// Grounded on other_examples/gogo-agent-xmldom/xpath_parser.go's Pratt-style
// recursive descent, restructured around spec.md §4.4's full precedence
// ladder and its explicit stack-safety requirement (invariant 7): every
// left-associative chain (Or, And, arithmetic, union, path steps) is parsed
// with an iterative loop, and a run of directly nested "(" is consumed by a
// single loop in parseParenChain, so neither costs a Go stack frame per
// operator or per paren. Constructs that contain a full Expr (predicates,
// argument lists, if/for/let/quantified bodies, and a group such as
// "((1) + 2)" whose inner parens close early) recurse through parseExpr
// once per nesting level.
type parser struct {
	toks []token
	pos  int
}

// Parse compiles an XPath 3.1 expression string into a reusable Expression.
// This is the package's primary entry point (spec.md §6).
func Parse(src string) (*Expression, error) {
	toks, perr := lexAll(src)
	if perr != nil {
		return nil, perr
	}
	p := &parser{toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, p.unexpected("end of expression")
	}
	return &Expression{root: n, src: src}, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) at(offset int) token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // tokEOF
	}
	return p.toks[i]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) unexpected(expected string) *ParseError {
	t := p.cur()
	found := "end of expression"
	if t.kind != tokEOF {
		found = describeText(t.text)
	}
	return &ParseError{Offset: t.offset, Expected: expected, Found: found}
}

func (p *parser) expect(k tokenKind, desc string) (token, error) {
	if p.cur().kind != k {
		return token{}, p.unexpected(desc)
	}
	return p.advance(), nil
}

// isKeyword reports whether the current token is an unquoted name token
// spelling exactly kw, used throughout since XPath keywords are ordinary
// NCNames at the lexical level (spec.md §4.4).
func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.kind == tokName && t.text == kw
}

func (p *parser) isKeywordAt(offset int, kw string) bool {
	t := p.at(offset)
	return t.kind == tokName && t.text == kw
}

// ---- Expr : ExprSingle ("," ExprSingle)* ----

func (p *parser) parseExpr() (Node, error) {
	start := p.cur().offset
	first, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokComma {
		return first, nil
	}
	items := []Node{first}
	for p.cur().kind == tokComma {
		p.advance()
		next, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	return &Expr{base: base{start, p.prevEnd()}, Items: items}, nil
}

func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	t := p.toks[p.pos-1]
	return t.offset + len(t.text)
}

// ---- ExprSingle : ForExpr | LetExpr | QuantifiedExpr | IfExpr | OrExpr ----

func (p *parser) parseExprSingle() (Node, error) {
	switch {
	case p.isKeyword(kwFor):
		return p.parseForExpr()
	case p.isKeyword(kwLet):
		return p.parseLetExpr()
	case p.isKeyword(kwSome) || p.isKeyword(kwEvery):
		return p.parseQuantifiedExpr()
	case p.isKeyword(kwIf) && p.at(1).kind == tokLParen:
		return p.parseIfExpr()
	default:
		return p.parseOrExpr()
	}
}

func (p *parser) parseForExpr() (Node, error) {
	start := p.advance().offset // "for"
	var bindings []ForBinding
	for {
		if _, err := p.expect(tokVariable, "variable"); err != nil {
			return nil, err
		}
		name := p.toks[p.pos-1].text
		if p.isKeyword(kwIn) {
			p.advance()
		} else {
			return nil, p.unexpected("'in'")
		}
		seq, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ForBinding{Var: name, Seq: seq})
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if !p.isKeyword(kwReturn) {
		return nil, p.unexpected("'return'")
	}
	p.advance()
	ret, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	return &ForExpr{base: base{start, p.prevEnd()}, Bindings: bindings, Return: ret}, nil
}

func (p *parser) parseLetExpr() (Node, error) {
	start := p.advance().offset // "let"
	var bindings []LetBinding
	for {
		if _, err := p.expect(tokVariable, "variable"); err != nil {
			return nil, err
		}
		name := p.toks[p.pos-1].text
		// ":=" is lexed as tokColon immediately followed by tokEq.
		colon, err := p.expect(tokColon, "':='")
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokEq || p.cur().offset != colon.offset+1 {
			return nil, p.unexpected("':='")
		}
		p.advance()
		val, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, LetBinding{Var: name, Value: val})
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if !p.isKeyword(kwReturn) {
		return nil, p.unexpected("'return'")
	}
	p.advance()
	ret, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	return &LetExpr{base: base{start, p.prevEnd()}, Bindings: bindings, Return: ret}, nil
}

func (p *parser) parseQuantifiedExpr() (Node, error) {
	every := p.isKeyword(kwEvery)
	start := p.advance().offset // "some" / "every"
	var bindings []ForBinding
	for {
		if _, err := p.expect(tokVariable, "variable"); err != nil {
			return nil, err
		}
		name := p.toks[p.pos-1].text
		if !p.isKeyword(kwIn) {
			return nil, p.unexpected("'in'")
		}
		p.advance()
		seq, err := p.parseExprSingle()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ForBinding{Var: name, Seq: seq})
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if !p.isKeyword(kwSatisfies) {
		return nil, p.unexpected("'satisfies'")
	}
	p.advance()
	sat, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	return &QuantifiedExpr{base: base{start, p.prevEnd()}, Every: every, Bindings: bindings, Satisfies: sat}, nil
}

func (p *parser) parseIfExpr() (Node, error) {
	start := p.advance().offset // "if"
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	if !p.isKeyword(kwThen) {
		return nil, p.unexpected("'then'")
	}
	p.advance()
	then, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(kwElse) {
		return nil, p.unexpected("'else'")
	}
	p.advance()
	els, err := p.parseExprSingle()
	if err != nil {
		return nil, err
	}
	return &IfExpr{base: base{start, p.prevEnd()}, Cond: cond, Then: then, Else: els}, nil
}

// ---- binary precedence ladder, each level an iterative left-fold loop ----

func (p *parser) parseOrExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseAndExpr, func() (BinOp, bool) {
		if p.isKeyword(kwOr) {
			p.advance()
			return OpOr, true
		}
		return 0, false
	})
}

func (p *parser) parseAndExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseComparisonExpr, func() (BinOp, bool) {
		if p.isKeyword(kwAnd) {
			p.advance()
			return OpAnd, true
		}
		return 0, false
	})
}

// ComparisonExpr is non-associative: at most one comparison operator appears.
func (p *parser) parseComparisonExpr() (Node, error) {
	start := p.cur().offset
	left, err := p.parseStringConcatExpr()
	if err != nil {
		return nil, err
	}
	op, ok := p.matchComparisonOp()
	if !ok {
		return left, nil
	}
	right, err := p.parseStringConcatExpr()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{base: base{start, p.prevEnd()}, Op: op, Left: left, Right: right}, nil
}

func (p *parser) matchComparisonOp() (BinOp, bool) {
	switch p.cur().kind {
	case tokEq:
		p.advance()
		return OpEq, true
	case tokNe:
		p.advance()
		return OpNe, true
	case tokLt:
		p.advance()
		return OpLt, true
	case tokLe:
		p.advance()
		return OpLe, true
	case tokGt:
		p.advance()
		return OpGt, true
	case tokGe:
		p.advance()
		return OpGe, true
	case tokLtLt:
		p.advance()
		return OpPrecedes, true
	case tokGtGt:
		p.advance()
		return OpFollows, true
	}
	switch {
	case p.isKeyword(kwEq):
		p.advance()
		return OpValueEq, true
	case p.isKeyword(kwNe):
		p.advance()
		return OpValueNe, true
	case p.isKeyword(kwLt):
		p.advance()
		return OpValueLt, true
	case p.isKeyword(kwLe):
		p.advance()
		return OpValueLe, true
	case p.isKeyword(kwGt):
		p.advance()
		return OpValueGt, true
	case p.isKeyword(kwGe):
		p.advance()
		return OpValueGe, true
	case p.isKeyword(kwIs):
		p.advance()
		return OpIs, true
	}
	return 0, false
}

func (p *parser) parseStringConcatExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseRangeExpr, func() (BinOp, bool) {
		if p.cur().kind == tokConcat {
			p.advance()
			return OpConcat, true
		}
		return 0, false
	})
}

// RangeExpr is non-associative: "to" appears at most once.
func (p *parser) parseRangeExpr() (Node, error) {
	start := p.cur().offset
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(kwTo) {
		return left, nil
	}
	p.advance()
	right, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{base: base{start, p.prevEnd()}, Op: OpTo, Left: left, Right: right}, nil
}

func (p *parser) parseAdditiveExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseMultiplicativeExpr, func() (BinOp, bool) {
		switch p.cur().kind {
		case tokPlus:
			p.advance()
			return OpAdd, true
		case tokMinus:
			p.advance()
			return OpSub, true
		}
		return 0, false
	})
}

func (p *parser) parseMultiplicativeExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseUnionExpr, func() (BinOp, bool) {
		switch {
		case p.cur().kind == tokStar:
			p.advance()
			return OpMul, true
		case p.isKeyword(kwDiv):
			p.advance()
			return OpDiv, true
		case p.isKeyword(kwIDiv):
			p.advance()
			return OpIDiv, true
		case p.isKeyword(kwMod):
			p.advance()
			return OpMod, true
		}
		return 0, false
	})
}

func (p *parser) parseUnionExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseIntersectExceptExpr, func() (BinOp, bool) {
		if p.cur().kind == tokPipe || p.isKeyword(kwUnion) {
			p.advance()
			return OpUnion, true
		}
		return 0, false
	})
}

func (p *parser) parseIntersectExceptExpr() (Node, error) {
	return p.parseLeftAssoc(p.parseInstanceofExpr, func() (BinOp, bool) {
		switch {
		case p.isKeyword(kwIntersect):
			p.advance()
			return OpIntersect, true
		case p.isKeyword(kwExcept):
			p.advance()
			return OpExcept, true
		}
		return 0, false
	})
}

// parseLeftAssoc folds `next (opMatch next)*` into a left-leaning BinaryExpr
// chain using a plain loop, so chains of any length cost one stack frame.
func (p *parser) parseLeftAssoc(next func() (Node, error), opMatch func() (BinOp, bool)) (Node, error) {
	start := p.cur().offset
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := opMatch()
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{base: base{start, p.prevEnd()}, Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseInstanceofExpr() (Node, error) {
	start := p.cur().offset
	operand, err := p.parseTreatExpr()
	if err != nil {
		return nil, err
	}
	if !(p.isKeyword(kwInstance) && p.isKeywordAt(1, kwOf)) {
		return operand, nil
	}
	p.advance()
	p.advance()
	st, err := p.parseSequenceType()
	if err != nil {
		return nil, err
	}
	return &InstanceofExpr{base: base{start, p.prevEnd()}, Operand: operand, Type: st}, nil
}

func (p *parser) parseTreatExpr() (Node, error) {
	start := p.cur().offset
	operand, err := p.parseCastableExpr()
	if err != nil {
		return nil, err
	}
	if !(p.isKeyword(kwTreat) && p.isKeywordAt(1, kwAs)) {
		return operand, nil
	}
	p.advance()
	p.advance()
	st, err := p.parseSequenceType()
	if err != nil {
		return nil, err
	}
	return &TreatExpr{base: base{start, p.prevEnd()}, Operand: operand, Type: st}, nil
}

func (p *parser) parseCastableExpr() (Node, error) {
	start := p.cur().offset
	operand, err := p.parseCastExpr()
	if err != nil {
		return nil, err
	}
	if !(p.isKeyword(kwCastable) && p.isKeywordAt(1, kwAs)) {
		return operand, nil
	}
	p.advance()
	p.advance()
	name, optional, err := p.parseSingleType()
	if err != nil {
		return nil, err
	}
	return &CastableExpr{base: base{start, p.prevEnd()}, Operand: operand, TypeName: name, Optional: optional}, nil
}

func (p *parser) parseCastExpr() (Node, error) {
	start := p.cur().offset
	operand, err := p.parseArrowExpr()
	if err != nil {
		return nil, err
	}
	if !(p.isKeyword(kwCast) && p.isKeywordAt(1, kwAs)) {
		return operand, nil
	}
	p.advance()
	p.advance()
	name, optional, err := p.parseSingleType()
	if err != nil {
		return nil, err
	}
	return &CastExpr{base: base{start, p.prevEnd()}, Operand: operand, TypeName: name, Optional: optional}, nil
}

func (p *parser) parseSingleType() (string, bool, error) {
	name, err := p.expect(tokName, "type name")
	if err != nil {
		return "", false, err
	}
	optional := false
	if p.cur().kind == tokQuestion {
		p.advance()
		optional = true
	}
	return name.text, optional, nil
}

func (p *parser) parseArrowExpr() (Node, error) {
	start := p.cur().offset
	operand, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokArrow {
		p.advance()
		var target Node
		if p.cur().kind == tokVariable {
			v := p.advance()
			target = &VarRef{base: base{v.offset, p.prevEnd()}, Name: v.text}
		} else {
			name, err := p.expect(tokName, "function name")
			if err != nil {
				return nil, err
			}
			target = &FunctionCall{base: base{name.offset, name.offset + len(name.text)}, Name: name.text}
		}
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		args, err := p.parseArgumentList()
		if err != nil {
			return nil, err
		}
		if fc, ok := target.(*FunctionCall); ok {
			fc.Args = args
		}
		operand = &ArrowExpr{base: base{start, p.prevEnd()}, Operand: operand, Target: target}
	}
	return operand, nil
}

func (p *parser) parseUnaryExpr() (Node, error) {
	start := p.cur().offset
	negative := false
	seenSign := false
	for p.cur().kind == tokPlus || p.cur().kind == tokMinus {
		if p.cur().kind == tokMinus {
			negative = !negative
		}
		seenSign = true
		p.advance()
	}
	operand, err := p.parseSimpleMapExpr()
	if err != nil {
		return nil, err
	}
	if !seenSign {
		return operand, nil
	}
	return &UnaryExpr{base: base{start, p.prevEnd()}, Negative: negative, Operand: operand}, nil
}

func (p *parser) parseSimpleMapExpr() (Node, error) {
	start := p.cur().offset
	first, err := p.parsePathExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokBang {
		return first, nil
	}
	steps := []Node{first}
	for p.cur().kind == tokBang {
		p.advance()
		next, err := p.parsePathExpr()
		if err != nil {
			return nil, err
		}
		steps = append(steps, next)
	}
	return &SimpleMapExpr{base: base{start, p.prevEnd()}, Steps: steps}, nil
}

// ---- PathExpr / RelativePathExpr / StepExpr ----

func (p *parser) parsePathExpr() (Node, error) {
	start := p.cur().offset
	if p.cur().kind == tokSlashSlash {
		p.advance()
		steps, err := p.parseRelativePathExpr()
		if err != nil {
			return nil, err
		}
		return &PathExpr{base: base{start, p.prevEnd()}, Rooted: true, RootedSlash: true, Steps: steps}, nil
	}
	if p.cur().kind == tokSlash {
		p.advance()
		if !p.startsStep() {
			return &PathExpr{base: base{start, p.prevEnd()}, Rooted: true}, nil
		}
		steps, err := p.parseRelativePathExpr()
		if err != nil {
			return nil, err
		}
		return &PathExpr{base: base{start, p.prevEnd()}, Rooted: true, Steps: steps}, nil
	}
	steps, err := p.parseRelativePathExpr()
	if err != nil {
		return nil, err
	}
	if len(steps) == 1 {
		if _, isAxis := steps[0].(*AxisStep); !isAxis {
			return steps[0], nil
		}
	}
	return &PathExpr{base: base{start, p.prevEnd()}, Steps: steps}, nil
}

// startsStep reports whether the current token can begin a StepExpr, used
// to disambiguate a trailing bare "/" (root only) from "/step...".
func (p *parser) startsStep() bool {
	switch p.cur().kind {
	case tokEOF, tokRParen, tokRBracket, tokComma, tokRBrace:
		return false
	}
	return true
}

func (p *parser) parseRelativePathExpr() ([]Node, error) {
	first, err := p.parseStepExpr()
	if err != nil {
		return nil, err
	}
	steps := []Node{first}
	for p.cur().kind == tokSlash || p.cur().kind == tokSlashSlash {
		if p.cur().kind == tokSlashSlash {
			steps = append(steps, descendantOrSelfMarker(p.cur().offset))
		}
		p.advance()
		next, err := p.parseStepExpr()
		if err != nil {
			return nil, err
		}
		steps = append(steps, next)
	}
	return steps, nil
}

// descendantOrSelfMarker materializes the descendant-or-self::node() step
// that "//" implies between two explicit steps (spec.md §4.5 abbreviation).
func descendantOrSelfMarker(offset int) Node {
	return &AxisStep{base: base{offset, offset}, Axis: AxisDescendantOrSelf, Test: anyNodeTest}
}

var anyNodeTest = NodeTest{Kind: TestKind, Test: KindAnyNode}

var kindTestKeywords = map[string]KindTestKind{
	kwNode:            KindAnyNode,
	kwText:            KindText,
	kwComment:         KindComment,
	kwElement:         KindElement,
	kwAttribute:       KindAttribute,
	kwDocumentNode:    KindDocumentNode,
	kwProcessingInstr: KindProcessingInstruction,
	kwNamespaceNode:   KindNamespaceNode,
}

func (p *parser) parseStepExpr() (Node, error) {
	start := p.cur().offset
	switch p.cur().kind {
	case tokAt:
		p.advance()
		test, err := p.parseNodeTest()
		if err != nil {
			return nil, err
		}
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisAttribute, Test: test, Predicates: preds}, nil
	case tokDot:
		p.advance()
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisSelf, Test: anyNodeTest, Predicates: preds}, nil
	case tokDotDot:
		p.advance()
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisParent, Test: anyNodeTest, Predicates: preds}, nil
	case tokStar:
		p.advance()
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisChild, Test: NodeTest{Kind: TestWildcard}, Predicates: preds}, nil
	}
	if p.cur().kind == tokName {
		name := p.cur().text
		if axisNames[name] && p.at(1).kind == tokColonColon {
			axis := parseAxisName(name)
			p.advance()
			p.advance()
			test, err := p.parseNodeTest()
			if err != nil {
				return nil, err
			}
			preds, err := p.parsePredicateList()
			if err != nil {
				return nil, err
			}
			return &AxisStep{base: base{start, p.prevEnd()}, Axis: axis, Test: test, Predicates: preds}, nil
		}
		if _, ok := kindTestKeywords[name]; ok && p.at(1).kind == tokLParen {
			test, err := p.parseKindTest()
			if err != nil {
				return nil, err
			}
			preds, err := p.parsePredicateList()
			if err != nil {
				return nil, err
			}
			return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisChild, Test: test, Predicates: preds}, nil
		}
		if p.at(1).kind == tokLParen || ((name == kwMap || name == kwArray) && p.at(1).kind == tokLBrace) {
			return p.parsePostfixExpr()
		}
		p.advance()
		preds, err := p.parsePredicateList()
		if err != nil {
			return nil, err
		}
		return &AxisStep{base: base{start, p.prevEnd()}, Axis: AxisChild, Test: NodeTest{Kind: TestName, Name: name}, Predicates: preds}, nil
	}
	return p.parsePostfixExpr()
}

func parseAxisName(name string) AxisKind {
	switch name {
	case "child":
		return AxisChild
	case "descendant":
		return AxisDescendant
	case "attribute":
		return AxisAttribute
	case "self":
		return AxisSelf
	case "descendant-or-self":
		return AxisDescendantOrSelf
	case "following-sibling":
		return AxisFollowingSibling
	case "following":
		return AxisFollowing
	case "namespace":
		return AxisNamespace
	case "parent":
		return AxisParent
	case "ancestor":
		return AxisAncestor
	case "preceding-sibling":
		return AxisPrecedingSibling
	case "preceding":
		return AxisPreceding
	case "ancestor-or-self":
		return AxisAncestorOrSelf
	default:
		return AxisChild
	}
}

func (p *parser) parseNodeTest() (NodeTest, error) {
	if p.cur().kind == tokStar {
		p.advance()
		return NodeTest{Kind: TestWildcard}, nil
	}
	if name, ok := kindTestKeywords[p.cur().text]; ok && p.cur().kind == tokName && p.at(1).kind == tokLParen {
		return p.parseKindTestInto(name)
	}
	t, err := p.expect(tokName, "node test")
	if err != nil {
		return NodeTest{}, err
	}
	return NodeTest{Kind: TestName, Name: t.text}, nil
}

func (p *parser) parseKindTest() (NodeTest, error) {
	name := p.cur().text
	kind := kindTestKeywords[name]
	return p.parseKindTestInto(kind)
}

func (p *parser) parseKindTestInto(kind KindTestKind) (NodeTest, error) {
	p.advance() // keyword
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return NodeTest{}, err
	}
	test := NodeTest{Kind: TestKind, Test: kind}
	if kind == KindProcessingInstruction && p.cur().kind == tokName {
		test.PIName = p.advance().text
	} else if kind == KindProcessingInstruction && p.cur().kind == tokString {
		test.PIName = p.advance().text
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return NodeTest{}, err
	}
	return test, nil
}

func (p *parser) parsePredicateList() ([]Node, error) {
	var preds []Node
	for p.cur().kind == tokLBracket {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket, "']'"); err != nil {
			return nil, err
		}
		preds = append(preds, e)
	}
	return preds, nil
}

// ---- PostfixExpr : PrimaryExpr (Predicate | ArgumentList | Lookup)* ----

func (p *parser) parsePostfixExpr() (Node, error) {
	start := p.cur().offset
	primary, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	var filters []PostfixFilter
	for {
		switch p.cur().kind {
		case tokLBracket:
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tokRBracket, "']'"); err != nil {
				return nil, err
			}
			filters = append(filters, PostfixFilter{Predicate: e})
			continue
		case tokLParen:
			p.advance()
			args, err := p.parseArgumentList()
			if err != nil {
				return nil, err
			}
			filters = append(filters, PostfixFilter{Args: args})
			continue
		case tokQuestion:
			p.advance()
			name := "*"
			if p.cur().kind == tokName {
				name = p.advance().text
			} else if p.cur().kind != tokStar {
				return nil, p.unexpected("lookup key")
			} else {
				p.advance()
			}
			filters = append(filters, PostfixFilter{Lookup: name})
			continue
		}
		break
	}
	if len(filters) == 0 {
		return primary, nil
	}
	return &PostfixExpr{base: base{start, p.prevEnd()}, Primary: primary, Filters: filters}, nil
}

func (p *parser) parseArgumentList() ([]Node, error) {
	var args []Node
	if p.cur().kind == tokRParen {
		p.advance()
		return args, nil
	}
	for {
		if p.cur().kind == tokQuestion && (p.at(1).kind == tokComma || p.at(1).kind == tokRParen) {
			p.advance()
			args = append(args, &UnimplementedExpr{base: base{p.prevEnd(), p.prevEnd()}, Construct: "argument placeholder"})
		} else {
			a, err := p.parseExprSingle()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if p.cur().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// ---- PrimaryExpr ----

// parsePrimaryExpr, for "(" ExprSingle? ")", iteratively consumes every run
// of consecutive "(" before descending into the innermost expression, and
// iteratively consumes the matching ")" run afterward. Since grouping
// parentheses carry no semantics of their own, nested parens collapse to a
// single wrapped node rather than one AST layer per paren: "(((1)))" costs
// the same stack depth as "(1)" (spec.md §9 invariant 7: 500+ nested
// parens must parse without exhausting the call stack).
func (p *parser) parsePrimaryExpr() (Node, error) {
	switch p.cur().kind {
	case tokString:
		t := p.advance()
		return &Literal{base: base{t.offset, p.prevEnd()}, Kind: LitString, Str: t.text}, nil
	case tokNumber:
		return p.parseNumberLiteral()
	case tokVariable:
		t := p.advance()
		return &VarRef{base: base{t.offset, p.prevEnd()}, Name: t.text}, nil
	case tokLParen:
		return p.parseParenChain()
	case tokQuestion:
		start := p.advance().offset
		name := "*"
		if p.cur().kind == tokName {
			name = p.advance().text
		} else if p.cur().kind == tokStar {
			p.advance()
		}
		return &UnimplementedExpr{base: base{start, p.prevEnd()}, Construct: "unary lookup ?" + name}, nil
	}
	if p.cur().kind == tokName {
		name := p.cur().text
		switch name {
		case kwMap, kwArray:
			if p.at(1).kind == tokLBrace {
				start := p.cur().offset
				p.advance()
				n, err := p.parseBraceConstructor(name)
				if err != nil {
					return nil, err
				}
				n.(*UnimplementedExpr).start = start
				return n, nil
			}
		case kwFunction:
			if p.at(1).kind == tokLParen {
				return p.parseInlineFunction()
			}
		}
		if p.at(1).kind == tokLParen {
			return p.parseFunctionCall()
		}
	}
	if p.cur().kind == tokDot {
		t := p.advance()
		return &ContextItemExpr{base: base{t.offset, p.prevEnd()}}, nil
	}
	return nil, p.unexpected("expression")
}

func (p *parser) parseNumberLiteral() (Node, error) {
	t := p.advance()
	lit := &Literal{base: base{t.offset, p.prevEnd()}, Kind: LitNumber}
	isInt := true
	for i := 0; i < len(t.text); i++ {
		if t.text[i] == '.' || t.text[i] == 'e' || t.text[i] == 'E' {
			isInt = false
			break
		}
	}
	lit.IsInt = isInt
	val, err := parseXPathNumber(t.text)
	if err != nil {
		return nil, &ParseError{Offset: t.offset, Found: "malformed numeric literal " + describeText(t.text)}
	}
	lit.Num = val
	return lit, nil
}

func (p *parser) parseParenChain() (Node, error) {
	start := p.cur().offset
	firstPos := p.pos
	depth := 0
	for p.cur().kind == tokLParen {
		p.advance()
		depth++
	}
	var inner Node
	if p.cur().kind == tokRParen {
		inner = &Expr{base: base{p.cur().offset, p.cur().offset}}
	} else {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		inner = e
	}
	for i := 0; i < depth; i++ {
		if i > 0 && p.cur().kind != tokRParen {
			// An inner group closed before the outer ones, as in "((1) + 2)":
			// re-parse from just inside the outermost "(" so what follows the
			// inner group joins the outer expression.
			p.pos = firstPos + 1
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			inner, i = e, depth-1
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
	}
	if b, ok := inner.(interface{ setSpan(int, int) }); ok {
		b.setSpan(start, p.prevEnd())
	}
	return inner, nil
}

func (p *parser) parseFunctionCall() (Node, error) {
	t, err := p.expect(tokName, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	args, err := p.parseArgumentList()
	if err != nil {
		return nil, err
	}
	return &FunctionCall{base: base{t.offset, p.prevEnd()}, Name: t.text, Args: args}, nil
}

// parseInlineFunction recognizes "function(...) {...}" only far enough to
// skip it balanced; inline function items are unsupported beyond parsing.
func (p *parser) parseInlineFunction() (Node, error) {
	start := p.cur().offset
	p.advance() // "function"
	if err := p.skipBalanced(tokLParen, tokRParen); err != nil {
		return nil, err
	}
	if p.isKeyword(kwAs) {
		p.advance()
		if _, err := p.parseSequenceType(); err != nil {
			return nil, err
		}
	}
	if err := p.skipBalanced(tokLBrace, tokRBrace); err != nil {
		return nil, err
	}
	return &UnimplementedExpr{base: base{start, p.prevEnd()}, Construct: "inline function item"}, nil
}

func (p *parser) parseBraceConstructor(kind string) (Node, error) {
	start := p.prevEnd()
	if err := p.skipBalanced(tokLBrace, tokRBrace); err != nil {
		return nil, err
	}
	return &UnimplementedExpr{base: base{start, p.prevEnd()}, Construct: kind + " constructor"}, nil
}

// skipBalanced consumes tokens from the current position (which must be
// open) through its matching close, tracking nesting depth iteratively.
func (p *parser) skipBalanced(open, close tokenKind) error {
	if p.cur().kind != open {
		return p.unexpected("'('")
	}
	depth := 0
	for {
		switch p.cur().kind {
		case open:
			depth++
		case close:
			depth--
		case tokEOF:
			return p.unexpected("closing delimiter")
		}
		p.advance()
		if depth == 0 {
			return nil
		}
	}
}

// ---- SequenceType ----

func (p *parser) parseSequenceType() (SequenceType, error) {
	if p.isKeyword(kwEmptySequence) && p.at(1).kind == tokLParen {
		p.advance()
		p.advance()
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return SequenceType{}, err
		}
		return SequenceType{EmptySequence: true}, nil
	}
	item, err := p.parseItemType()
	if err != nil {
		return SequenceType{}, err
	}
	st := SequenceType{Item: item}
	switch p.cur().kind {
	case tokQuestion, tokStar, tokPlus:
		st.Occurrence = p.advance().text[0]
	}
	return st, nil
}

func (p *parser) parseItemType() (ItemType, error) {
	if p.isKeyword(kwItem) && p.at(1).kind == tokLParen {
		p.advance()
		p.advance()
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return ItemType{}, err
		}
		return ItemType{AnyItem: true}, nil
	}
	if p.cur().kind == tokName {
		if kind, ok := kindTestKeywords[p.cur().text]; ok && p.at(1).kind == tokLParen {
			test, err := p.parseKindTestInto(kind)
			if err != nil {
				return ItemType{}, err
			}
			return ItemType{Kind: &test}, nil
		}
		t := p.advance()
		return ItemType{AtomicQN: t.text}, nil
	}
	return ItemType{}, p.unexpected("type")
}
