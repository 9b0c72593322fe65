package types

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind uint8

const (
	InvalidConfiguration ErrorKind = iota
	InvalidIndex
	SizeMismatch
	MissingAncestor
	IncompleteLoad
	InvalidValue
)

var (
	ErrInvalidConfiguration = errors.New("sparsegrid: invalid configuration")
	ErrInvalidIndex         = errors.New("sparsegrid: invalid multi-index")
	ErrSizeMismatch         = errors.New("sparsegrid: size mismatch")
	ErrMissingAncestor      = errors.New("sparsegrid: missing ancestor")
	ErrIncompleteLoad       = errors.New("sparsegrid: needed points are not loaded")
	ErrInvalidValue         = errors.New("sparsegrid: invalid value")
)

var kindSentinels = []error{
	ErrInvalidConfiguration,
	ErrInvalidIndex,
	ErrSizeMismatch,
	ErrMissingAncestor,
	ErrIncompleteLoad,
	ErrInvalidValue,
}

func (k ErrorKind) Sentinel() error {
	if int(k) < len(kindSentinels) {
		return kindSentinels[k]
	}
	return nil
}

/*
GridError carries the context a caller needs to retry: the failing operation,
the node involved (if any) and the expected and actual counts for size errors.
*/
type GridError struct {
	Kind     ErrorKind
	Op       string
	Detail   string
	Node     MultiIndex
	Expected int
	Actual   int
	counts   bool
}

func NewError(kind ErrorKind, op, detail string) *GridError {
	return &GridError{Kind: kind, Op: op, Detail: detail}
}

func NewSizeError(op string, expected, actual int, detail string) *GridError {
	return NewCountError(SizeMismatch, op, expected, actual, detail)
}

// NewCountError reports a count the caller has to fix before retrying.
func NewCountError(kind ErrorKind, op string, expected, actual int, detail string) *GridError {
	return &GridError{
		Kind:     kind,
		Op:       op,
		Detail:   detail,
		Expected: expected,
		Actual:   actual,
		counts:   true,
	}
}

func NewNodeError(kind ErrorKind, op string, node MultiIndex, detail string) *GridError {
	return &GridError{Kind: kind, Op: op, Detail: detail, Node: node.Copy()}
}

func (e *GridError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Sentinel().Error())
	if e.Op != "" {
		fmt.Fprintf(&b, " in %s", e.Op)
	}
	if e.Node != nil {
		fmt.Fprintf(&b, ", node %s", e.Node)
	}
	if e.counts {
		fmt.Fprintf(&b, ", expected %d, have %d", e.Expected, e.Actual)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *GridError) Unwrap() error { return e.Kind.Sentinel() }

// KindOf extracts the ErrorKind of err, ok is false for foreign errors.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var ge *GridError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return
}
