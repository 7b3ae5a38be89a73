// Package scope implements the nested symbol table used by the type-info pass.
//
// Frames live in an arena owned by a Chain and refer to their parent by ID, so
// no frame holds a pointer to another. Frames are released in strict reverse
// order of creation.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"typeinfo/pkg/ast"
	"typeinfo/pkg/utils"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// ID addresses a frame in a Chain.
type ID int

// None is the parent of the root frame.
const None ID = -1

type frame struct {
	parent ID
	values map[string]ast.Node
}

type Chain struct {
	frames []frame
}

// NewChain returns a chain holding only the root frame.
func NewChain() *Chain {
	c := &Chain{}
	c.push(None, make(map[string]ast.Node))
	return c
}

func (c *Chain) push(parent ID, values map[string]ast.Node) ID {
	c.frames = append(c.frames, frame{parent: parent, values: values})
	return ID(len(c.frames) - 1)
}

func (c *Chain) frame(id ID) *frame {
	if id < 0 || int(id) >= len(c.frames) {
		panic(fmt.Sprintf("scope: frame %d not live (%d frames)", id, len(c.frames)))
	}
	return &c.frames[id]
}

// Root returns the ID of the root frame.
func (c *Chain) Root() ID { return 0 }

// Len returns the number of live frames.
func (c *Chain) Len() int { return len(c.frames) }

func (c *Chain) Parent(id ID) ID { return c.frame(id).parent }

// Depth returns the number of ancestors of id.
func (c *Chain) Depth(id ID) int {
	d := 0
	for p := c.Parent(id); p != None; p = c.Parent(p) {
		d++
	}
	return d
}

// ChildOf creates an empty frame whose parent is parent.
func (c *Chain) ChildOf(parent ID) ID {
	c.frame(parent)
	return c.push(parent, make(map[string]ast.Node))
}

// Copy creates a frame with the same parent as id and a duplicate of its bindings.
// Writes to either frame are not visible in the other.
func (c *Chain) Copy(id ID) ID {
	f := c.frame(id)
	values := make(map[string]ast.Node, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	return c.push(f.parent, values)
}

// Pop releases id, which must be the most recently created live frame.
// The root frame cannot be released.
func (c *Chain) Pop(id ID) {
	last := ID(len(c.frames) - 1)
	if id != last || id == c.Root() {
		panic(fmt.Sprintf("scope: pop of frame %d out of order (top is %d)", id, last))
	}
	c.frames[last] = frame{}
	c.frames = c.frames[:last]
}

// Bind records expr as the value of name in frame id only.
func (c *Chain) Bind(id ID, name string, expr ast.Node) {
	c.frame(id).values[name] = expr
}

// Has reports whether name is bound in id or any of its ancestors.
func (c *Chain) Has(id ID, name string) bool {
	_, ok := c.lookup(id, name)
	return ok
}

// HasDirect reports whether name is bound in id itself.
func (c *Chain) HasDirect(id ID, name string) bool {
	_, ok := c.frame(id).values[name]
	return ok
}

// Get returns the innermost binding of name visible from id.
func (c *Chain) Get(id ID, name string) (ast.Node, error) {
	if v, ok := c.lookup(id, name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, name)
}

func (c *Chain) lookup(id ID, name string) (ast.Node, bool) {
	for cur := id; cur != None; cur = c.frame(cur).parent {
		if v, ok := c.frame(cur).values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Names returns the names bound directly in id, sorted.
func (c *Chain) Names(id ID) []string {
	return utils.SortedKeys(c.frame(id).values)
}

// String dumps the frames visible from id, innermost first.
func (c *Chain) String(id ID) string {
	var parts []string
	for cur := id; cur != None; cur = c.frame(cur).parent {
		parts = append(parts, fmt.Sprintf("Scope%d[%s]", cur, strings.Join(c.Names(cur), " ")))
	}
	return strings.Join(parts, " -> ")
}
