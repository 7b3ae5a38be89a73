package typeinfo

import (
	"errors"
	"fmt"

	"typeinfo/pkg/ast"
	"typeinfo/pkg/scope"
)

var (
	// ErrMissingHints is returned when Resolve is called without a hints table.
	ErrMissingHints = errors.New("value hints are required")
	// ErrInvalidHint is returned when a hint carries no type value.
	ErrInvalidHint = errors.New("invalid value hint")

	// ErrUnknownSymbol is the scope lookup failure. The resolver reports a
	// method base with no binding as ErrUnresolvedBase.
	ErrUnknownSymbol            = scope.ErrUnknownSymbol
	ErrInvalidAssignmentTarget  = errors.New("invalid assignment target")
	ErrDynamicCallTarget        = errors.New("dynamic call target")
	ErrUnsupportedPropertyChain = errors.New("unsupported property chain")
	ErrUnresolvedBase           = errors.New("unresolved base")
	ErrUnresolvedObjectType     = errors.New("unresolved object type")
)

// Error is a resolution failure at a node. Kind is one of the Err* sentinels
// and is matched by errors.Is.
type Error struct {
	Kind  error
	N     ast.Node
	Scope string // scope chain visible at the failure, innermost first
	msg   string
}

func (e *Error) Error() string {
	if e.N != nil && e.N.Pos().IsValid() {
		return fmt.Sprintf("%s: %s", e.N.Pos(), e.msg)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.Kind }

// Message is the error text without the position prefix.
func (e *Error) Message() string { return e.msg }
