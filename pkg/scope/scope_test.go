package scope

import (
	"errors"
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeinfo/pkg/ast"
)

func TestGetWalksParents(t *testing.T) {
	c := NewChain()
	x := &ast.Name{ID: "x"}
	c.Bind(c.Root(), "x", x)
	child := c.ChildOf(c.Root())
	grandchild := c.ChildOf(child)

	tassert.True(t, c.Has(grandchild, "x"))
	tassert.False(t, c.HasDirect(grandchild, "x"))
	got, err := c.Get(grandchild, "x")
	require.NoError(t, err)
	tassert.Same(t, x, got)
	tassert.Equal(t, 2, c.Depth(grandchild))
	tassert.Equal(t, child, c.Parent(grandchild))
}

func TestGetUnknown(t *testing.T) {
	c := NewChain()
	child := c.ChildOf(c.Root())
	_, err := c.Get(child, "nope")
	tassert.True(t, errors.Is(err, ErrUnknownSymbol))
	tassert.EqualError(t, err, `unknown symbol: "nope"`)
	tassert.False(t, c.Has(child, "nope"))
}

func TestShadowing(t *testing.T) {
	c := NewChain()
	outer, inner := &ast.Name{ID: "outer"}, &ast.Name{ID: "inner"}
	c.Bind(c.Root(), "x", outer)

	child := c.ChildOf(c.Root())
	c.Bind(child, "x", inner)
	got, _ := c.Get(child, "x")
	tassert.Same(t, inner, got)
	c.Pop(child)

	got, _ = c.Get(c.Root(), "x")
	tassert.Same(t, outer, got)
	tassert.Equal(t, 1, c.Len())
}

func TestBindLastWriteWins(t *testing.T) {
	c := NewChain()
	a, b := &ast.Name{ID: "a"}, &ast.Name{ID: "b"}
	c.Bind(c.Root(), "x", a)
	c.Bind(c.Root(), "x", b)
	got, _ := c.Get(c.Root(), "x")
	tassert.Same(t, b, got)
}

func TestCopyIsIndependent(t *testing.T) {
	c := NewChain()
	child := c.ChildOf(c.Root())
	c.Bind(child, "x", &ast.Name{ID: "x"})

	cp := c.Copy(child)
	tassert.Equal(t, c.Parent(child), c.Parent(cp))
	tassert.True(t, c.HasDirect(cp, "x"))

	c.Bind(cp, "y", &ast.Name{ID: "y"})
	tassert.False(t, c.Has(child, "y"))
	c.Bind(child, "z", &ast.Name{ID: "z"})
	tassert.False(t, c.Has(cp, "z"))
}

func TestPopOutOfOrderPanics(t *testing.T) {
	c := NewChain()
	a := c.ChildOf(c.Root())
	c.ChildOf(a)
	tassert.Panics(t, func() { c.Pop(a) })
	tassert.Panics(t, func() { NewChain().Pop(0) })
}

func TestString(t *testing.T) {
	c := NewChain()
	c.Bind(c.Root(), "b", &ast.Name{ID: "b"})
	c.Bind(c.Root(), "a", &ast.Name{ID: "a"})
	child := c.ChildOf(c.Root())
	c.Bind(child, "x", &ast.Name{ID: "x"})
	tassert.Equal(t, "Scope1[x] -> Scope0[a b]", c.String(child))
}
