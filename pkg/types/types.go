package types

import (
	"fmt"
	"strings"
	"sync"

	"typeinfo/pkg/utils"
)

// FQN is a dotted origin path, one segment per element.
type FQN []string

// ParseFQN splits a dotted name into its segments.
func ParseFQN(s string) FQN {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

func (f FQN) String() string { return strings.Join(f, ".") }

func (f FQN) Equal(o FQN) bool {
	if len(f) != len(o) {
		return false
	}
	for i := range f {
		if f[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share the backing array.
func (f FQN) Clone() FQN {
	if f == nil {
		return nil
	}
	return append(FQN{}, f...)
}

// Value is a concrete runtime value an upstream pass bound a name to.
type Value interface {
	String() string
	FQN() FQN
	value()
}

type Class struct {
	Path FQN
}

func (c *Class) String() string { return fmt.Sprintf("<class %s>", c.Path) }
func (c *Class) FQN() FQN       { return c.Path }
func (c *Class) Name() string {
	if len(c.Path) == 0 {
		return ""
	}
	return c.Path[len(c.Path)-1]
}
func (*Class) value() {}

type Function struct {
	Path FQN
}

func (f *Function) String() string { return fmt.Sprintf("<function %s>", f.Path) }
func (f *Function) FQN() FQN       { return f.Path }
func (*Function) value()           {}

type Module struct {
	Path FQN
}

func (m *Module) String() string { return fmt.Sprintf("<module %s>", m.Path) }
func (m *Module) FQN() FQN       { return m.Path }
func (*Module) value()           {}

// Object is an instance of Class.
type Object struct {
	Class *Class
}

func (o *Object) String() string { return fmt.Sprintf("<%s object>", o.Class.Path) }
func (o *Object) FQN() FQN       { return o.Class.Path }
func (*Object) value()           {}

// IsClass reports whether v is a class object, i.e. calling it constructs an instance.
func IsClass(v any) bool {
	return utils.TryCast[*Class](v)
}

// IsNil reports whether v is nil or a nil pointer of one of the value types.
func IsNil(v Value) bool {
	switch v := v.(type) {
	case nil:
		return true
	case *Class:
		return v == nil
	case *Function:
		return v == nil
	case *Module:
		return v == nil
	case *Object:
		return v == nil
	}
	return false
}

// Registry interns classes by dotted name so that every mention of a class
// within one document resolves to the same *Class.
type Registry struct {
	mu      sync.Mutex
	classes map[string]*Class
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

func (r *Registry) Class(name string) *Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.classes[name]; ok {
		return c
	}
	c := &Class{Path: ParseFQN(name)}
	r.classes[name] = c
	return c
}

// Classes returns the interned class names.
func (r *Registry) Classes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return utils.SortedKeys(r.classes)
}
