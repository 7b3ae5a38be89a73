// Package anno holds the per-node annotation store shared by the analysis passes.
//
// Presence of a key is meaningful: a missing key means the fact is unknown,
// never that it has a default value.
package anno

import (
	"fmt"
	"maps"

	"typeinfo/pkg/types"
	"typeinfo/pkg/utils"
)

type Key string

const (
	// LiveVal is the concrete runtime value a name resolved to. Written upstream.
	LiveVal Key = "live_val"
	// FQN is the dotted origin path of LiveVal. Written upstream.
	FQN Key = "fqn"
	// Type is the class of the expression's runtime value.
	Type Key = "type"
	// TypeFQN is the dotted path of Type.
	TypeFQN Key = "type_fqn"
	// IsConstructor marks a call that instantiates a class.
	IsConstructor Key = "is_constructor"
)

// Store is an open-ended mapping from annotation key to value.
// The zero value is ready to use.
type Store struct {
	m map[Key]any
}

func (s *Store) Has(k Key) bool {
	_, ok := s.m[k]
	return ok
}

func (s *Store) Get(k Key) (any, bool) {
	v, ok := s.m[k]
	return v, ok
}

// MustGet panics if k is not set.
func (s *Store) MustGet(k Key) any {
	v, ok := s.m[k]
	if !ok {
		panic(fmt.Sprintf("annotation %q not set", k))
	}
	return v
}

func (s *Store) Set(k Key, v any) {
	if s.m == nil {
		s.m = make(map[Key]any)
	}
	s.m[k] = v
}

func (s *Store) Del(k Key) {
	delete(s.m, k)
}

func (s *Store) Len() int { return len(s.m) }

// Keys returns the set keys in sorted order.
func (s *Store) Keys() []Key {
	return utils.SortedKeys(s.m)
}

// Clone returns an independent copy of the store. Values are shared.
func (s *Store) Clone() *Store {
	return &Store{m: maps.Clone(s.m)}
}

// Value returns the annotation under k as a runtime value.
func (s *Store) Value(k Key) (types.Value, bool) {
	v, ok := s.m[k]
	if !ok {
		return nil, false
	}
	return utils.Cast[types.Value](v)
}

// Path returns the annotation under k as a dotted path.
func (s *Store) Path(k Key) (types.FQN, bool) {
	v, ok := s.m[k]
	if !ok {
		return nil, false
	}
	return utils.Cast[types.FQN](v)
}

func (s *Store) Bool(k Key) (bool, bool) {
	v, ok := s.m[k]
	if !ok {
		return false, false
	}
	return utils.Cast[bool](v)
}
