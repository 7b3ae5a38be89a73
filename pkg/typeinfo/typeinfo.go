// Package typeinfo propagates inferred type annotations over a syntax tree.
//
// It requires the live_val and fqn annotations written by the live-value pass,
// and writes type, type_fqn and is_constructor:
//   - on Call nodes that construct a class (helps detect constructors)
//   - on Attribute nodes used as method callees (helps resolve object methods)
package typeinfo

import (
	"fmt"
	"log"

	"typeinfo/pkg/ast"
	"typeinfo/pkg/types"
)

// Hint is the caller-supplied type of a top-level function parameter.
type Hint struct {
	TypeName string // dotted name, e.g. "tf.train.Optimizer"
	Type     types.Value
}

// Hints maps parameter names to their hint. A nil Hints is a usage error;
// an empty one is valid.
type Hints map[string]Hint

func (h Hints) Add(param, typeName string, t types.Value) Hints {
	h[param] = Hint{TypeName: typeName, Type: t}
	return h
}

func (h Hints) validate() error {
	if h == nil {
		return ErrMissingHints
	}
	for name, hint := range h {
		if types.IsNil(hint.Type) {
			return fmt.Errorf("%w: %q has no type", ErrInvalidHint, name)
		}
	}
	return nil
}

type Option func(*Resolver)

// WithLogger traces scope changes and every annotation written.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithReferences calls f for every name read, with the parameter or
// assignment target that bound the value visible at that point. Reads with no
// visible binding are not reported.
func WithReferences(f func(ref, site *ast.Name)) Option {
	return func(r *Resolver) {
		r.onRef = f
	}
}

// Resolve annotates root in place and returns it. The first failure aborts
// the traversal and is returned as a *Error.
func Resolve(root ast.Node, hints Hints, opts ...Option) (ast.Node, error) {
	r, err := NewResolver(hints, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Visit(root); err != nil {
		return nil, err
	}
	return root, nil
}
