package anno

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"typeinfo/pkg/types"
)

func TestZeroStore(t *testing.T) {
	var s Store
	tassert.False(t, s.Has(Type))
	_, ok := s.Get(Type)
	tassert.False(t, ok)
	tassert.Equal(t, 0, s.Len())
	tassert.Empty(t, s.Keys())
	s.Del(Type)
}

func TestSetGet(t *testing.T) {
	var s Store
	c := &types.Class{Path: types.FQN{"Foo"}}
	s.Set(Type, c)
	s.Set(TypeFQN, types.FQN{"Foo"})
	s.Set(IsConstructor, true)

	v, ok := s.Value(Type)
	tassert.True(t, ok)
	tassert.Same(t, c, v)
	p, ok := s.Path(TypeFQN)
	tassert.True(t, ok)
	tassert.Equal(t, types.FQN{"Foo"}, p)
	b, ok := s.Bool(IsConstructor)
	tassert.True(t, ok)
	tassert.True(t, b)
	tassert.Equal(t, []Key{IsConstructor, Type, TypeFQN}, s.Keys())

	s.Set(IsConstructor, false)
	b, _ = s.Bool(IsConstructor)
	tassert.False(t, b)

	s.Del(IsConstructor)
	tassert.False(t, s.Has(IsConstructor))
}

func TestTypedAccessorsRejectOtherValues(t *testing.T) {
	var s Store
	s.Set(FQN, "not a path")
	_, ok := s.Path(FQN)
	tassert.False(t, ok)
	_, ok = s.Value(FQN)
	tassert.False(t, ok)
}

func TestMustGet(t *testing.T) {
	var s Store
	tassert.PanicsWithValue(t, `annotation "type" not set`, func() { s.MustGet(Type) })
	s.Set(Type, 1)
	tassert.Equal(t, 1, s.MustGet(Type))
}

func TestClone(t *testing.T) {
	var s Store
	s.Set(Type, 1)
	c := s.Clone()
	c.Set(TypeFQN, types.FQN{"x"})
	tassert.False(t, s.Has(TypeFQN))
	tassert.True(t, c.Has(Type))
}
