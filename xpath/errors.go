package xpath

import (
	"errors"
	"fmt"
)

// ParseError is fatal to parsing a single xpath.Parse call (spec.md §7). It
// carries a byte offset into the source XPath, an expected-token
// description, and what was actually found, modeled on chtml/err.go's
// position-carrying error structs.
type ParseError struct {
	Offset   int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("xpath: unexpected %s at offset %d", e.Found, e.Offset)
	}
	return fmt.Sprintf("xpath: expected %s but found %s at offset %d", e.Expected, e.Found, e.Offset)
}

// Is reports whether target is a *ParseError at the same offset, the same
// identity check chtml/err.go's UnrecognizedArgumentError.Is does over its
// own identifying field.
func (e *ParseError) Is(target error) bool {
	var pe *ParseError
	if errors.As(target, &pe) {
		return e.Offset == pe.Offset
	}
	return false
}

// EvalErrorKind enumerates the evaluation error subvariants spec.md §7
// requires.
type EvalErrorKind int

const (
	TypeMismatch EvalErrorKind = iota
	UnknownFunction
	UnknownVariable
	ArityMismatch
	DivisionByZero
	Unimplemented
	BadAxisForContext
)

func (k EvalErrorKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case UnknownFunction:
		return "unknown function"
	case UnknownVariable:
		return "unknown variable"
	case ArityMismatch:
		return "arity mismatch"
	case DivisionByZero:
		return "division by zero"
	case Unimplemented:
		return "unimplemented"
	case BadAxisForContext:
		return "bad axis for context"
	default:
		return "eval error"
	}
}

// EvalError is fatal to one Expression.Apply call (spec.md §7). SpanStart/
// SpanEnd identify the offending sub-expression's source range.
type EvalError struct {
	Kind             EvalErrorKind
	Message          string
	SpanStart, SpanEnd int
}

func (e *EvalError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("xpath: %s", e.Kind)
	}
	return fmt.Sprintf("xpath: %s: %s", e.Kind, e.Message)
}

// Is reports whether target is a *EvalError of the same Kind, so callers can
// write errors.Is(err, &xpath.EvalError{Kind: xpath.DivisionByZero}) the way
// chtml/err.go's UnrecognizedArgumentError.Is compares by its own identifying
// field rather than requiring an exact Message/span match.
func (e *EvalError) Is(target error) bool {
	var ee *EvalError
	if errors.As(target, &ee) {
		return e.Kind == ee.Kind
	}
	return false
}

func newEvalError(kind EvalErrorKind, n Node, format string, args ...any) *EvalError {
	e := &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if n != nil {
		e.SpanStart, e.SpanEnd = n.Span()
	}
	return e
}
