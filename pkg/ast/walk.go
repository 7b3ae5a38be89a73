package ast

import (
	"fmt"
	"strings"

	"typeinfo/pkg/utils"
)

// Children returns the direct children of n in source order. Nil children are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	switch n := n.(type) {
	case *Module:
		add(n.Body...)
	case *FunctionDef:
		for _, a := range n.Args {
			add(a)
		}
		add(n.Body...)
	case *Name:
	case *Call:
		add(n.Func)
		add(n.Args...)
	case *Attribute:
		add(n.Value)
	case *Assign:
		add(n.Targets...)
		add(n.Value)
	case *For:
		add(n.Target, n.Iter)
		add(n.Body...)
		add(n.Orelse...)
	case *While:
		add(n.Test)
		add(n.Body...)
		add(n.Orelse...)
	case *If:
		add(n.Test)
		add(n.Body...)
		add(n.Orelse...)
	case *With:
		for _, it := range n.Items {
			add(it)
		}
		add(n.Body...)
	case *WithItem:
		add(n.ContextExpr, n.OptionalVars)
	case *Tuple:
		add(n.Elts...)
	case *Subscript:
		add(n.Value, n.Index)
	case *IndexedElement:
		add(n.Source)
	case *Other:
		add(n.Children...)
	default:
		panic(fmt.Sprintf("ast.Children: unexpected node %T", n))
	}
	return out
}

// Inspect traverses the tree depth-first. If f returns false the children of
// that node are skipped. f is called with nil after the children of a node
// have been visited, as go/ast does.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
	f(nil)
}

// NodeAt returns the innermost node whose span contains p, or nil.
func NodeAt(root Node, p Pos) Node {
	var found Node
	Inspect(root, func(n Node) bool {
		if n == nil {
			return false
		}
		if !n.Pos().IsValid() || !n.End().IsValid() {
			return true
		}
		if p.Before(n.Pos()) || n.End().Before(p) {
			return false
		}
		found = n
		return true
	})
	return found
}

// Format renders n as short source-like text, for diagnostics.
func Format(n Node) string {
	switch n := n.(type) {
	case nil:
		return "<nil>"
	case *Module:
		return "<module>"
	case *FunctionDef:
		return fmt.Sprintf("def %s(%s)", n.Name, utils.MapJoin(n.Args, func(a *Name) string { return a.ID }, ", "))
	case *Name:
		return n.ID
	case *Call:
		return fmt.Sprintf("%s(%s)", Format(n.Func), utils.MapJoin(n.Args, Format, ", "))
	case *Attribute:
		return Format(n.Value) + "." + n.Attr
	case *Assign:
		var sb strings.Builder
		for _, t := range n.Targets {
			sb.WriteString(Format(t))
			sb.WriteString(" = ")
		}
		sb.WriteString(Format(n.Value))
		return sb.String()
	case *For:
		return fmt.Sprintf("for %s in %s", Format(n.Target), Format(n.Iter))
	case *While:
		return "while " + Format(n.Test)
	case *If:
		return "if " + Format(n.Test)
	case *With:
		return "with " + utils.MapJoin(n.Items, func(it *WithItem) string { return Format(it) }, ", ")
	case *WithItem:
		if n.OptionalVars == nil {
			return Format(n.ContextExpr)
		}
		return Format(n.ContextExpr) + " as " + Format(n.OptionalVars)
	case *Tuple:
		s := utils.MapJoin(n.Elts, Format, ", ")
		if n.List {
			return "[" + s + "]"
		}
		return "(" + s + ")"
	case *Subscript:
		return fmt.Sprintf("%s[%s]", Format(n.Value), Format(n.Index))
	case *IndexedElement:
		return fmt.Sprintf("%s[%d]", Format(n.Source), n.Index)
	case *Other:
		return "<" + n.Name + ">"
	default:
		return fmt.Sprintf("%T", n)
	}
}
