package xpath

import (
	"math"
	"strings"
)

// builtins is the (namespace, localName, arity) -> Function registry
// (spec.md §4.7, SPEC_FULL.md §10). It is populated once in init() and
// never written to again, the same monotonic "populate only, never evict"
// shape chtml/typefuncs.go's cast/type table uses, just keyed by arity too
// since XPath overloads functions like fn:substring by argument count.
var builtins map[ExpandedName]Function

func init() {
	builtins = map[ExpandedName]Function{
		{Local: "root", Arity: 0}:    fnRootImplicit,
		{Local: "root", Arity: 1}:    fnRoot,
		{Local: "not", Arity: 1}:     fnNot,
		{Local: "true", Arity: 0}:    fnTrue,
		{Local: "false", Arity: 0}:   fnFalse,
		{Local: "boolean", Arity: 1}: fnBoolean,

		{Local: "string", Arity: 0}:        fnStringImplicit,
		{Local: "string", Arity: 1}:        fnString,
		{Local: "concat", Arity: 2}:        fnConcat,
		{Local: "contains", Arity: 2}:      fnContains,
		{Local: "starts-with", Arity: 2}:   fnStartsWith,
		{Local: "ends-with", Arity: 2}:     fnEndsWith,
		{Local: "substring", Arity: 2}:     fnSubstring2,
		{Local: "substring", Arity: 3}:     fnSubstring3,
		{Local: "string-length", Arity: 0}: fnStringLengthImplicit,
		{Local: "string-length", Arity: 1}: fnStringLength,
		{Local: "normalize-space", Arity: 0}: fnNormalizeSpaceImplicit,
		{Local: "normalize-space", Arity: 1}: fnNormalizeSpace,
		{Local: "name", Arity: 0}:       fnNameImplicit,
		{Local: "name", Arity: 1}:       fnName,
		{Local: "local-name", Arity: 0}: fnLocalNameImplicit,
		{Local: "local-name", Arity: 1}: fnLocalName,
		// {Local: "text", Arity: 0} is reachable only as "fn:text()"; a bare
		// "text(" is always intercepted by parseStepExpr as the text() kind
		// test before a function call is ever considered, so this entry
		// never shadows that step syntax. It returns the context item's
		// string-value, not a text-node kind test.
		{Local: "text", Arity: 0}: fnTextImplicit,

		{Local: "number", Arity: 0}: fnNumberImplicit,
		{Local: "number", Arity: 1}: fnNumber,
		{Local: "sum", Arity: 1}:    fnSum,

		{Local: "position", Arity: 0}: fnPosition,
		{Local: "last", Arity: 0}:     fnLast,
		{Local: "count", Arity: 1}:    fnCount,
		{Local: "reverse", Arity: 1}:  fnReverse,
		{Local: "empty", Arity: 1}:    fnEmpty,
		{Local: "exists", Arity: 1}:   fnExists,
	}
}

// resolveFunctionName strips an "fn:" prefix if present; spec.md §9's
// lexical-QName scope never resolves a prefix to a real namespace URI, so
// "fn:" is the only recognized qualifier and is treated as a no-op.
func resolveFunctionName(name string) string {
	return strings.TrimPrefix(name, "fn:")
}

func evalFunctionCall(ctx *Context, e *FunctionCall) (Sequence, error) {
	args := make([]Sequence, len(e.Args))
	for i, a := range e.Args {
		v, err := eval(ctx, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	name := resolveFunctionName(e.Name)
	fn, ok := builtins[ExpandedName{Local: name, Arity: len(args)}]
	if !ok {
		return nil, newEvalError(UnknownFunction, e, "%s#%d is not a known function", name, len(args))
	}
	return fn(ctx, args)
}

func requireContextNode(ctx *Context) (Item, error) {
	if !ctx.HasFocus || ctx.Item.Kind != NodeItem {
		return Item{}, newEvalError(BadAxisForContext, nil, "this function requires a context node")
	}
	return ctx.Item, nil
}

func fnRootImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{nodeItem(it.Node.Root())}, nil
}

func fnRoot(ctx *Context, args []Sequence) (Sequence, error) {
	if len(args[0]) == 0 {
		return Sequence{}, nil
	}
	if args[0][0].Kind != NodeItem {
		return nil, newEvalError(TypeMismatch, nil, "root() requires a node argument")
	}
	return Sequence{nodeItem(args[0][0].Node.Root())}, nil
}

func fnNot(ctx *Context, args []Sequence) (Sequence, error) {
	b, err := effectiveBooleanValue(nil, args[0])
	if err != nil {
		return nil, err
	}
	return Sequence{boolItem(!b)}, nil
}

func fnTrue(ctx *Context, args []Sequence) (Sequence, error)  { return Sequence{boolItem(true)}, nil }
func fnFalse(ctx *Context, args []Sequence) (Sequence, error) { return Sequence{boolItem(false)}, nil }

func fnBoolean(ctx *Context, args []Sequence) (Sequence, error) {
	b, err := effectiveBooleanValue(nil, args[0])
	if err != nil {
		return nil, err
	}
	return Sequence{boolItem(b)}, nil
}

func fnStringImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{stringItem(it.stringValue())}, nil
}

func fnString(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{stringItem(args[0].StringValue())}, nil
}

func fnConcat(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{stringItem(args[0].StringValue() + args[1].StringValue())}, nil
}

func fnContains(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{boolItem(strings.Contains(args[0].StringValue(), args[1].StringValue()))}, nil
}

func fnStartsWith(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{boolItem(strings.HasPrefix(args[0].StringValue(), args[1].StringValue()))}, nil
}

func fnEndsWith(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{boolItem(strings.HasSuffix(args[0].StringValue(), args[1].StringValue()))}, nil
}

func fnSubstring2(ctx *Context, args []Sequence) (Sequence, error) {
	return substring(args[0].StringValue(), args[1], nil)
}

func fnSubstring3(ctx *Context, args []Sequence) (Sequence, error) {
	return substring(args[0].StringValue(), args[1], &args[2])
}

func substring(s string, startSeq Sequence, lenSeq *Sequence) (Sequence, error) {
	start, _, err := atomizeNumber(nil, startSeq)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	from := int(roundForSubstring(start)) - 1
	to := len(runes)
	if lenSeq != nil {
		l, _, err := atomizeNumber(nil, *lenSeq)
		if err != nil {
			return nil, err
		}
		to = from + int(roundForSubstring(l))
	}
	if from < 0 {
		from = 0
	}
	if to > len(runes) {
		to = len(runes)
	}
	if from >= to || from >= len(runes) {
		return Sequence{stringItem("")}, nil
	}
	return Sequence{stringItem(string(runes[from:to]))}, nil
}

func roundForSubstring(v float64) float64 {
	return math.Floor(v + 0.5)
}

func fnStringLengthImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{intItem(len([]rune(it.stringValue())))}, nil
}

func fnStringLength(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{intItem(len([]rune(args[0].StringValue())))}, nil
}

func fnNormalizeSpaceImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{stringItem(normalizeSpace(it.stringValue()))}, nil
}

func fnNormalizeSpace(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{stringItem(normalizeSpace(args[0].StringValue()))}, nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func fnNameImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{stringItem(it.Node.Name())}, nil
}

func fnName(ctx *Context, args []Sequence) (Sequence, error) {
	if len(args[0]) == 0 {
		return Sequence{stringItem("")}, nil
	}
	return Sequence{stringItem(args[0][0].Node.Name())}, nil
}

func fnLocalNameImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	return fnNameImplicit(ctx, args)
}

func fnLocalName(ctx *Context, args []Sequence) (Sequence, error) {
	return fnName(ctx, args)
}

func fnTextImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{stringItem(it.stringValue())}, nil
}

func fnNumberImplicit(ctx *Context, args []Sequence) (Sequence, error) {
	it, err := requireContextNode(ctx)
	if err != nil {
		return nil, err
	}
	v, _, err := atomizeNumber(nil, Sequence{it})
	if err != nil {
		return nil, err
	}
	return Sequence{numberItem(v, false)}, nil
}

func fnNumber(ctx *Context, args []Sequence) (Sequence, error) {
	v, _, err := atomizeNumber(nil, args[0])
	if err != nil {
		return nil, err
	}
	return Sequence{numberItem(v, false)}, nil
}

func fnSum(ctx *Context, args []Sequence) (Sequence, error) {
	total := 0.0
	allInt := true
	for _, it := range args[0] {
		v, isInt, err := atomizeNumber(nil, Sequence{it})
		if err != nil {
			return nil, err
		}
		total += v
		allInt = allInt && isInt
	}
	return Sequence{numberItem(total, allInt)}, nil
}

func fnPosition(ctx *Context, args []Sequence) (Sequence, error) {
	if !ctx.HasFocus {
		return nil, newEvalError(BadAxisForContext, nil, "position() requires a context position")
	}
	return Sequence{intItem(ctx.Position)}, nil
}

func fnLast(ctx *Context, args []Sequence) (Sequence, error) {
	if !ctx.HasFocus {
		return nil, newEvalError(BadAxisForContext, nil, "last() requires a context size")
	}
	return Sequence{intItem(ctx.Size)}, nil
}

func fnCount(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{intItem(len(args[0]))}, nil
}

func fnReverse(ctx *Context, args []Sequence) (Sequence, error) {
	in := args[0]
	out := make(Sequence, len(in))
	for i, it := range in {
		out[len(in)-1-i] = it
	}
	return out, nil
}

func fnEmpty(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{boolItem(len(args[0]) == 0)}, nil
}

func fnExists(ctx *Context, args []Sequence) (Sequence, error) {
	return Sequence{boolItem(len(args[0]) != 0)}, nil
}
