package xpath

import (
	"iter"

	"github.com/htmlxpath/htmlxpath/xdm"
)

// evalPathExpr evaluates a (possibly rooted) location path: the initial
// node sequence is the bound document for a rooted path or the current
// context node otherwise, then each step is applied per candidate node and
// the unioned results are sorted and deduplicated into document order
// before the next step sees them (spec.md §4.5/§4.6).
func evalPathExpr(ctx *Context, e *PathExpr) (Sequence, error) {
	var current []xdm.Node
	if e.RootedSlash {
		var descendants []xdm.Node
		for n := range xdm.DescendantOrSelf(ctx.Root, xdm.AnyNode) {
			descendants = append(descendants, n)
		}
		current = descendants
	} else if e.Rooted {
		current = []xdm.Node{ctx.Root}
	} else {
		if !ctx.HasFocus || ctx.Item.Kind != NodeItem {
			return nil, newEvalError(BadAxisForContext, e, "a relative path requires a node context item")
		}
		current = []xdm.Node{ctx.Item.Node}
	}

	var lastResult Sequence
	for si, step := range e.Steps {
		last := si == len(e.Steps)-1
		var nextNodes []xdm.Node
		var atomics Sequence
		for i, cn := range current {
			c := ctx.withFocus(nodeItem(cn), i+1, len(current))
			seq, err := evalStepAgainst(c, step, cn)
			if err != nil {
				return nil, err
			}
			for _, it := range seq {
				if it.Kind == NodeItem {
					nextNodes = append(nextNodes, it.Node)
				} else if last {
					atomics = append(atomics, it)
				} else {
					return nil, newEvalError(TypeMismatch, e, "a non-final path step must produce nodes")
				}
			}
		}
		sorted := xdm.SortAndDedup(nextNodes)
		current = sorted
		lastResult = make(Sequence, len(sorted))
		for i, n := range sorted {
			lastResult[i] = nodeItem(n)
		}
		lastResult = append(lastResult, atomics...)
	}
	if len(e.Steps) == 0 {
		// Bare "/" : the document node itself.
		return Sequence{nodeItem(current[0])}, nil
	}
	return lastResult, nil
}

// evalStepAgainst evaluates one StepExpr with cn as the context node.
func evalStepAgainst(ctx *Context, step Node, cn xdm.Node) (Sequence, error) {
	if axisStep, ok := step.(*AxisStep); ok {
		return evalAxisStep(ctx, axisStep, cn)
	}
	return eval(ctx, step)
}

func evalAxisStepFromContext(ctx *Context, e *AxisStep) (Sequence, error) {
	if !ctx.HasFocus || ctx.Item.Kind != NodeItem {
		return nil, newEvalError(BadAxisForContext, e, "an axis step requires a node context item")
	}
	return evalAxisStep(ctx, e, ctx.Item.Node)
}

func evalAxisStep(ctx *Context, e *AxisStep, cn xdm.Node) (Sequence, error) {
	test := xdmNodeTest(e.Test)
	iterFn, ok := axisIterators[e.Axis]
	if !ok {
		return nil, newEvalError(Unimplemented, e, "axis is not implemented")
	}
	var candidates []xdm.Node
	for n := range iterFn(cn, test) {
		candidates = append(candidates, n)
	}
	for _, pred := range e.Predicates {
		var err error
		candidates, err = filterByPredicate(ctx, pred, candidates)
		if err != nil {
			return nil, err
		}
	}
	out := make(Sequence, len(candidates))
	for i, n := range candidates {
		out[i] = nodeItem(n)
	}
	return out, nil
}

var axisIterators = map[AxisKind]func(xdm.Node, xdm.NodeTest) iter.Seq[xdm.Node]{
	AxisChild:            xdm.Child,
	AxisDescendant:       xdm.Descendant,
	AxisDescendantOrSelf: xdm.DescendantOrSelf,
	AxisSelf:             xdm.Self,
	AxisParent:           xdm.Parent,
	AxisAncestor:         xdm.Ancestor,
	AxisAncestorOrSelf:   xdm.AncestorOrSelf,
	AxisFollowingSibling: xdm.FollowingSibling,
	AxisFollowing:        xdm.Following,
	AxisPreceding:        xdm.Preceding,
	AxisPrecedingSibling: xdm.PrecedingSibling,
	AxisAttribute:        xdm.AttributeAxis,
}

// xdmNodeTest converts an AST NodeTest into the predicate the xdm axis
// iterators expect.
func xdmNodeTest(t NodeTest) xdm.NodeTest {
	switch t.Kind {
	case TestWildcard:
		return func(n xdm.Node) bool {
			return n.Kind() == xdm.ElementKind || n.Kind() == xdm.AttributeKind
		}
	case TestName:
		return func(n xdm.Node) bool {
			return (n.Kind() == xdm.ElementKind || n.Kind() == xdm.AttributeKind) && n.Name() == t.Name
		}
	case TestKind:
		return kindTest(t.Test)
	default:
		return xdm.AnyNode
	}
}

func kindTest(k KindTestKind) xdm.NodeTest {
	switch k {
	case KindAnyNode:
		return xdm.AnyNode
	case KindText:
		return func(n xdm.Node) bool { return n.Kind() == xdm.TextKind }
	case KindComment:
		return func(n xdm.Node) bool { return n.Kind() == xdm.CommentKind }
	case KindElement:
		return func(n xdm.Node) bool { return n.Kind() == xdm.ElementKind }
	case KindAttribute:
		return func(n xdm.Node) bool { return n.Kind() == xdm.AttributeKind }
	case KindDocumentNode:
		return func(n xdm.Node) bool { return n.Kind() == xdm.DocumentKind }
	case KindProcessingInstruction:
		return func(n xdm.Node) bool { return n.Kind() == xdm.ProcessingInstructionKind }
	case KindNamespaceNode:
		return func(n xdm.Node) bool { return n.Kind() == xdm.NamespaceKind }
	default:
		return xdm.AnyNode
	}
}

// filterByPredicate applies one "[Predicate]" to candidates, renumbering
// position()/last() relative to the list being filtered (spec.md §4.6): a
// predicate whose effective value is numeric selects the candidate at that
// (1-based, truncated) position; otherwise the predicate's boolean value
// decides inclusion.
func filterByPredicate(ctx *Context, pred Node, candidates []xdm.Node) ([]xdm.Node, error) {
	var out []xdm.Node
	for i, n := range candidates {
		c := ctx.withFocus(nodeItem(n), i+1, len(candidates))
		v, err := eval(c, pred)
		if err != nil {
			return nil, err
		}
		keep, err := predicateKeeps(pred, v, i+1)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, n)
		}
	}
	return out, nil
}

func predicateKeeps(pred Node, v Sequence, position int) (bool, error) {
	if len(v) == 1 && v[0].Kind == NumberItem {
		return int(v[0].Num) == position, nil
	}
	return effectiveBooleanValue(pred, v)
}

// evalPostfixExpr evaluates a PrimaryExpr followed by predicate/argument/
// lookup suffixes (spec.md §4.4's PostfixExpr).
func evalPostfixExpr(ctx *Context, e *PostfixExpr) (Sequence, error) {
	cur, err := eval(ctx, e.Primary)
	if err != nil {
		return nil, err
	}
	for _, f := range e.Filters {
		switch {
		case f.Predicate != nil:
			_, _, allNodes := splitNodes(cur)
			if allNodes {
				nodes := make([]xdm.Node, len(cur))
				for i, it := range cur {
					nodes[i] = it.Node
				}
				filtered, err := filterByPredicate(ctx, f.Predicate, nodes)
				if err != nil {
					return nil, err
				}
				cur = make(Sequence, len(filtered))
				for i, n := range filtered {
					cur[i] = nodeItem(n)
				}
				continue
			}
			filtered, err := filterSequenceByPredicate(ctx, f.Predicate, cur)
			if err != nil {
				return nil, err
			}
			cur = filtered
		case f.Args != nil:
			return nil, newEvalError(Unimplemented, e, "dynamic function calls are not implemented")
		case f.Lookup != "":
			return nil, newEvalError(Unimplemented, e, "lookup expressions are not implemented")
		}
	}
	return cur, nil
}

func splitNodes(seq Sequence) (nodes []xdm.Node, atomics Sequence, allNodes bool) {
	allNodes = true
	for _, it := range seq {
		if it.Kind == NodeItem {
			nodes = append(nodes, it.Node)
		} else {
			atomics = append(atomics, it)
			allNodes = false
		}
	}
	return
}

// filterSequenceByPredicate applies a predicate to a general (possibly
// atomic) sequence, for PostfixExpr filters over non-node primaries.
func filterSequenceByPredicate(ctx *Context, pred Node, seq Sequence) (Sequence, error) {
	var out Sequence
	for i, it := range seq {
		c := ctx.withFocus(it, i+1, len(seq))
		v, err := eval(c, pred)
		if err != nil {
			return nil, err
		}
		keep, err := predicateKeeps(pred, v, i+1)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, it)
		}
	}
	return out, nil
}
