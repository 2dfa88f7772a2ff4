package xpath

import (
	"math"
	"strconv"
	"strings"

	"github.com/htmlxpath/htmlxpath/xdm"
)

// eval is the evaluator's single dispatch point, mirroring chtml/expr.go's
// vm.Run (a runtime pass over an AST already validated by a separate parse
// stage). Every ExprSingle variant in spec.md §6 has a case here; AST nodes
// this engine does not implement evaluation for (UnimplementedExpr, and a
// few SequenceType/arrow corners) raise EvalError{Kind: Unimplemented}
// rather than panicking, per spec.md §9's Open Question resolution.
func eval(ctx *Context, n Node) (Sequence, error) {
	switch e := n.(type) {
	case *Expr:
		var out Sequence
		for _, item := range e.Items {
			s, err := eval(ctx, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s...)
		}
		return out, nil
	case *Literal:
		switch e.Kind {
		case LitString:
			return Sequence{stringItem(e.Str)}, nil
		case LitNumber:
			return Sequence{numberItem(e.Num, e.IsInt)}, nil
		case LitBool:
			return Sequence{boolItem(e.Bool)}, nil
		}
		return nil, newEvalError(TypeMismatch, n, "malformed literal")
	case *VarRef:
		v, ok := ctx.Vars[e.Name]
		if !ok {
			return nil, newEvalError(UnknownVariable, n, "$%s is not bound", e.Name)
		}
		return v, nil
	case *ContextItemExpr:
		if !ctx.HasFocus {
			return nil, newEvalError(BadAxisForContext, n, "no context item is bound here")
		}
		return Sequence{ctx.Item}, nil
	case *FunctionCall:
		return evalFunctionCall(ctx, e)
	case *ForExpr:
		return evalForExpr(ctx, e)
	case *LetExpr:
		return evalLetExpr(ctx, e)
	case *QuantifiedExpr:
		return evalQuantifiedExpr(ctx, e)
	case *IfExpr:
		cond, err := eval(ctx, e.Cond)
		if err != nil {
			return nil, err
		}
		ok, err := effectiveBooleanValue(n, cond)
		if err != nil {
			return nil, err
		}
		if ok {
			return eval(ctx, e.Then)
		}
		return eval(ctx, e.Else)
	case *BinaryExpr:
		return evalBinaryExpr(ctx, e)
	case *UnaryExpr:
		v, err := eval(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		num, isInt, err := atomizeNumber(n, v)
		if err != nil {
			return nil, err
		}
		if e.Negative {
			num = -num
		}
		return Sequence{numberItem(num, isInt)}, nil
	case *InstanceofExpr:
		v, err := eval(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		return Sequence{boolItem(matchesSequenceType(v, e.Type))}, nil
	case *TreatExpr:
		v, err := eval(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		if !matchesSequenceType(v, e.Type) {
			return nil, newEvalError(TypeMismatch, n, "value does not match the treat-as sequence type")
		}
		return v, nil
	case *CastableExpr:
		v, err := eval(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		_, castErr := castSingleton(v, e.TypeName)
		ok := castErr == nil
		if !ok && e.Optional && len(v) == 0 {
			ok = true
		}
		return Sequence{boolItem(ok)}, nil
	case *CastExpr:
		v, err := eval(ctx, e.Operand)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			if e.Optional {
				return Sequence{}, nil
			}
			return nil, newEvalError(TypeMismatch, n, "cannot cast an empty sequence to a non-optional type")
		}
		item, err := castSingleton(v, e.TypeName)
		if err != nil {
			return nil, err
		}
		return Sequence{item}, nil
	case *ArrowExpr:
		return nil, newEvalError(Unimplemented, n, "arrow function application is not implemented")
	case *SimpleMapExpr:
		return evalSimpleMapExpr(ctx, e)
	case *PathExpr:
		return evalPathExpr(ctx, e)
	case *PostfixExpr:
		return evalPostfixExpr(ctx, e)
	case *AxisStep:
		return evalAxisStepFromContext(ctx, e)
	case *UnimplementedExpr:
		return nil, newEvalError(Unimplemented, n, "%s is not implemented", e.Construct)
	case *FunctionItemExpr:
		return nil, newEvalError(Unimplemented, n, "function items are not implemented")
	}
	return nil, newEvalError(Unimplemented, n, "unrecognized expression node")
}

func evalForExpr(ctx *Context, e *ForExpr) (Sequence, error) {
	var out Sequence
	err := enumerateTuples(ctx, e.Bindings, func(c *Context) (bool, error) {
		s, err := eval(c, e.Return)
		if err != nil {
			return false, err
		}
		out = append(out, s...)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func evalQuantifiedExpr(ctx *Context, e *QuantifiedExpr) (Sequence, error) {
	satisfiedAll := true
	satisfiedAny := false
	err := enumerateTuples(ctx, e.Bindings, func(c *Context) (bool, error) {
		v, err := eval(c, e.Satisfies)
		if err != nil {
			return false, err
		}
		ok, err := effectiveBooleanValue(e, v)
		if err != nil {
			return false, err
		}
		satisfiedAny = satisfiedAny || ok
		satisfiedAll = satisfiedAll && ok
		if e.Every && !ok {
			return false, nil
		}
		if !e.Every && ok {
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if e.Every {
		return Sequence{boolItem(satisfiedAll)}, nil
	}
	return Sequence{boolItem(satisfiedAny)}, nil
}

// enumerateTuples calls visit once per Cartesian-product tuple of the
// binding sequences, in binding order. visit returns false to stop the
// enumeration early (e.g. a quantifier that already knows its answer)
// without that counting as an error.
func enumerateTuples(ctx *Context, bindings []ForBinding, visit func(*Context) (bool, error)) error {
	var rec func(idx int, c *Context) (bool, error)
	rec = func(idx int, c *Context) (bool, error) {
		if idx == len(bindings) {
			return visit(c)
		}
		b := bindings[idx]
		seq, err := eval(c, b.Seq)
		if err != nil {
			return false, err
		}
		for _, item := range seq {
			nc := c.withVar(b.Var, Sequence{item})
			cont, err := rec(idx+1, nc)
			if err != nil || !cont {
				return cont, err
			}
		}
		return true, nil
	}
	_, err := rec(0, ctx)
	return err
}

func evalLetExpr(ctx *Context, e *LetExpr) (Sequence, error) {
	c := ctx
	for _, b := range e.Bindings {
		v, err := eval(c, b.Value)
		if err != nil {
			return nil, err
		}
		c = c.withVar(b.Var, v)
	}
	return eval(c, e.Return)
}

func evalSimpleMapExpr(ctx *Context, e *SimpleMapExpr) (Sequence, error) {
	cur, err := eval(ctx, e.Steps[0])
	if err != nil {
		return nil, err
	}
	for _, step := range e.Steps[1:] {
		var next Sequence
		for i, item := range cur {
			c := ctx.withFocus(item, i+1, len(cur))
			s, err := eval(c, step)
			if err != nil {
				return nil, err
			}
			next = append(next, s...)
		}
		cur = next
	}
	return cur, nil
}

func evalBinaryExpr(ctx *Context, e *BinaryExpr) (Sequence, error) {
	switch e.Op {
	case OpOr, OpAnd:
		l, err := eval(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		lb, err := effectiveBooleanValue(e, l)
		if err != nil {
			return nil, err
		}
		if e.Op == OpOr && lb {
			return Sequence{boolItem(true)}, nil
		}
		if e.Op == OpAnd && !lb {
			return Sequence{boolItem(false)}, nil
		}
		r, err := eval(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		rb, err := effectiveBooleanValue(e, r)
		if err != nil {
			return nil, err
		}
		return Sequence{boolItem(rb)}, nil
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		ok, err := generalCompare(e.Op, l, r)
		if err != nil {
			return nil, err
		}
		return Sequence{boolItem(ok)}, nil
	case OpValueEq, OpValueNe, OpValueLt, OpValueLe, OpValueGt, OpValueGe:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		if len(l) == 0 || len(r) == 0 {
			return Sequence{}, nil
		}
		ok, err := valueCompare(e, e.Op, l, r)
		if err != nil {
			return nil, err
		}
		return Sequence{boolItem(ok)}, nil
	case OpIs, OpPrecedes, OpFollows:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		if len(l) == 0 || len(r) == 0 {
			return Sequence{}, nil
		}
		ok, err := nodeCompare(e, ctx, e.Op, l, r)
		if err != nil {
			return nil, err
		}
		return Sequence{boolItem(ok)}, nil
	case OpConcat:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return Sequence{stringItem(l.StringValue() + r.StringValue())}, nil
	case OpTo:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		if len(l) == 0 || len(r) == 0 {
			return Sequence{}, nil
		}
		lo, _, err := atomizeNumber(e, l)
		if err != nil {
			return nil, err
		}
		hi, _, err := atomizeNumber(e, r)
		if err != nil {
			return nil, err
		}
		var out Sequence
		for v := int64(lo); v <= int64(hi); v++ {
			out = append(out, intItem(int(v)))
		}
		return out, nil
	case OpAdd, OpSub, OpMul, OpDiv, OpIDiv, OpMod:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		if len(l) == 0 || len(r) == 0 {
			return Sequence{}, nil
		}
		ln, lIsInt, err := atomizeNumber(e, l)
		if err != nil {
			return nil, err
		}
		rn, rIsInt, err := atomizeNumber(e, r)
		if err != nil {
			return nil, err
		}
		return evalArithmetic(e, e.Op, ln, rn, lIsInt, rIsInt)
	case OpUnion, OpIntersect, OpExcept:
		l, r, err := evalPair(ctx, e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return evalNodeSetOp(e, e.Op, l, r)
	}
	return nil, newEvalError(Unimplemented, e, "unsupported binary operator")
}

func evalPair(ctx *Context, left, right Node) (Sequence, Sequence, error) {
	l, err := eval(ctx, left)
	if err != nil {
		return nil, nil, err
	}
	r, err := eval(ctx, right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// evalArithmetic applies op to operand values l and r, given whether each
// operand was integer-typed (spec.md §4.6): "+", "-", "*" and "mod" preserve
// int-ness (the result is integer-typed only when both operands are); "div"
// always yields a double-typed result; "idiv" always yields an integer
// result. For "div", a zero divisor is an error only when both operands are
// integers — otherwise it produces IEEE-754 ±Infinity/NaN; "idiv" and "mod"
// raise DivisionByZero for any zero divisor.
func evalArithmetic(n Node, op BinOp, l, r float64, lIsInt, rIsInt bool) (Sequence, error) {
	bothInt := lIsInt && rIsInt
	switch op {
	case OpAdd:
		return Sequence{numberItem(l+r, bothInt)}, nil
	case OpSub:
		return Sequence{numberItem(l-r, bothInt)}, nil
	case OpMul:
		return Sequence{numberItem(l*r, bothInt)}, nil
	case OpDiv:
		if r == 0 && bothInt {
			return nil, newEvalError(DivisionByZero, n, "division by zero")
		}
		return Sequence{numberItem(l/r, false)}, nil
	case OpIDiv:
		if r == 0 {
			return nil, newEvalError(DivisionByZero, n, "integer division by zero")
		}
		return Sequence{numberItem(math.Trunc(l/r), true)}, nil
	case OpMod:
		if r == 0 {
			return nil, newEvalError(DivisionByZero, n, "modulo by zero")
		}
		return Sequence{numberItem(math.Mod(l, r), bothInt)}, nil
	}
	return nil, newEvalError(TypeMismatch, n, "not an arithmetic operator")
}

func evalNodeSetOp(n Node, op BinOp, l, r Sequence) (Sequence, error) {
	lNodes, err := sequenceNodes(n, l)
	if err != nil {
		return nil, err
	}
	rNodes, err := sequenceNodes(n, r)
	if err != nil {
		return nil, err
	}
	rSet := map[xdm.Node]bool{}
	for _, rn := range rNodes {
		rSet[rn] = true
	}
	var out []xdm.Node
	switch op {
	case OpUnion:
		out = append(out, lNodes...)
		out = append(out, rNodes...)
	case OpIntersect:
		for _, ln := range lNodes {
			if rSet[ln] {
				out = append(out, ln)
			}
		}
	case OpExcept:
		for _, ln := range lNodes {
			if !rSet[ln] {
				out = append(out, ln)
			}
		}
	}
	sorted := xdm.SortAndDedup(out)
	result := make(Sequence, len(sorted))
	for i, nd := range sorted {
		result[i] = nodeItem(nd)
	}
	return result, nil
}

func sequenceNodes(n Node, seq Sequence) ([]xdm.Node, error) {
	nodes := make([]xdm.Node, 0, len(seq))
	for _, it := range seq {
		if it.Kind != NodeItem {
			return nil, newEvalError(TypeMismatch, n, "union/intersect/except require node sequences")
		}
		nodes = append(nodes, it.Node)
	}
	return nodes, nil
}

// atomizeNumber converts seq to a single xs:double value, along with
// whether the source item was integer-typed (spec.md §4.6's "exact integer
// arithmetic when both operands are integer" needs that flag preserved
// through atomization, not just the float64 value).
func atomizeNumber(n Node, seq Sequence) (float64, bool, error) {
	if len(seq) == 0 {
		return math.NaN(), false, nil
	}
	if len(seq) != 1 {
		return 0, false, newEvalError(TypeMismatch, n, "expected a singleton numeric value")
	}
	it := seq[0]
	switch it.Kind {
	case NumberItem:
		return it.Num, it.IsInt, nil
	case StringItem:
		v, err := stringToNumber(it.Str)
		return v, false, err
	case BooleanItem:
		if it.Bool {
			return 1, true, nil
		}
		return 0, true, nil
	case NodeItem:
		v, err := stringToNumber(it.Node.StringValue())
		return v, false, err
	}
	return 0, false, newEvalError(TypeMismatch, n, "cannot convert to a number")
}

func stringToNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), nil
	}
	return v, nil
}

func formatXPathNumber(v float64, isInt bool) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}
	if isInt || v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nodeLess(a, b xdm.Node) bool { return xdm.Less(a, b) }
