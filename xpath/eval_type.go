package xpath

// matchesSequenceType implements just enough of "instance of"/"treat as"
// (spec.md §4.6, §9 Open Question: most SequenceType refinements are
// unimplemented, but the common occurrence-indicator and item-kind checks
// spec.md's examples exercise — e.g. "treat as node()" — are supported).
func matchesSequenceType(seq Sequence, st SequenceType) bool {
	if st.EmptySequence {
		return len(seq) == 0
	}
	switch st.Occurrence {
	case '?':
		if len(seq) > 1 {
			return false
		}
	case 0:
		if len(seq) != 1 {
			return false
		}
	case '+':
		if len(seq) == 0 {
			return false
		}
	case '*':
		// any length
	}
	for _, it := range seq {
		if !matchesItemType(it, st.Item) {
			return false
		}
	}
	return true
}

func matchesItemType(it Item, t ItemType) bool {
	if t.AnyItem {
		return true
	}
	if t.Kind != nil {
		if it.Kind != NodeItem {
			return false
		}
		return xdmNodeTest(*t.Kind)(it.Node)
	}
	switch t.AtomicQN {
	case "", "xs:anyAtomicType", "item":
		return true
	case "xs:string":
		return it.Kind == StringItem
	case "xs:boolean":
		return it.Kind == BooleanItem
	case "xs:double", "xs:decimal", "xs:float", "xs:integer", "xs:int", "xs:long":
		return it.Kind == NumberItem
	default:
		return true
	}
}

// castSingleton implements "cast as" for the handful of atomic types
// spec.md's ambient arithmetic/string rules already need: xs:string,
// xs:double/xs:decimal/xs:float, xs:integer and relatives, xs:boolean.
func castSingleton(seq Sequence, typeName string) (Item, error) {
	it := seq[0]
	switch typeName {
	case "xs:string":
		return stringItem(it.stringValue()), nil
	case "xs:boolean":
		b, err := effectiveBooleanValue(nil, Sequence{it})
		if err != nil {
			return Item{}, err
		}
		return boolItem(b), nil
	case "xs:double", "xs:decimal", "xs:float":
		v, _, err := atomizeNumber(nil, Sequence{it})
		if err != nil {
			return Item{}, err
		}
		return numberItem(v, false), nil
	case "xs:integer", "xs:int", "xs:long", "xs:short":
		v, _, err := atomizeNumber(nil, Sequence{it})
		if err != nil {
			return Item{}, err
		}
		return numberItem(float64(int64(v)), true), nil
	default:
		return Item{}, newEvalError(Unimplemented, nil, "cast as %s is not implemented", typeName)
	}
}
