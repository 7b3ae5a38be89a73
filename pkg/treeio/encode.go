package treeio

import (
	"github.com/pkg/errors"

	"typeinfo/pkg/anno"
	"typeinfo/pkg/ast"
	"typeinfo/pkg/types"
)

type encoder struct{}

func (e *encoder) list(ns []ast.Node) ([]*rawNode, error) {
	var out []*rawNode
	for _, n := range ns {
		r, err := e.node(n)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (e *encoder) optional(n ast.Node) (*rawNode, error) {
	if n == nil {
		return nil, nil
	}
	return e.node(n)
}

func ctxString(c ast.Ctx) string {
	if c == ast.Load {
		return ""
	}
	return c.String()
}

func (e *encoder) node(n ast.Node) (*rawNode, error) {
	r := &rawNode{
		Kind:    n.Kind().String(),
		Line:    n.Pos().Line,
		Col:     n.Pos().Column,
		EndLine: n.End().Line,
		EndCol:  n.End().Column,
	}
	var err error
	switch n := n.(type) {
	case *ast.Module:
		r.Body, err = e.list(n.Body)
	case *ast.FunctionDef:
		r.Name = n.Name
		for _, a := range n.Args {
			ra, err := e.node(a)
			if err != nil {
				return nil, err
			}
			// Parameters default to param ctx, so any other ctx is spelled out.
			ra.Ctx = a.Ctx.String()
			if a.Ctx == ast.Param {
				ra.Ctx = ""
			}
			r.Args = append(r.Args, ra)
		}
		r.Body, err = e.list(n.Body)
	case *ast.Name:
		r.ID, r.Ctx = n.ID, ctxString(n.Ctx)
	case *ast.Call:
		if r.Func, err = e.node(n.Func); err != nil {
			return nil, err
		}
		r.Args, err = e.list(n.Args)
	case *ast.Attribute:
		r.Attr, r.Ctx = n.Attr, ctxString(n.Ctx)
		r.Value, err = e.node(n.Value)
	case *ast.Assign:
		if r.Targets, err = e.list(n.Targets); err != nil {
			return nil, err
		}
		r.Value, err = e.node(n.Value)
	case *ast.For:
		if r.Target, err = e.node(n.Target); err != nil {
			return nil, err
		}
		if r.Iter, err = e.node(n.Iter); err != nil {
			return nil, err
		}
		if r.Body, err = e.list(n.Body); err != nil {
			return nil, err
		}
		r.Orelse, err = e.list(n.Orelse)
	case *ast.While:
		err = e.block(r, n.Test, n.Body, n.Orelse)
	case *ast.If:
		err = e.block(r, n.Test, n.Body, n.Orelse)
	case *ast.With:
		for _, it := range n.Items {
			ri := &rawItem{}
			if ri.Context, err = e.node(it.ContextExpr); err != nil {
				return nil, err
			}
			if ri.As, err = e.optional(it.OptionalVars); err != nil {
				return nil, err
			}
			r.Items = append(r.Items, ri)
		}
		r.Body, err = e.list(n.Body)
	case *ast.Tuple:
		if n.List {
			r.Kind = "list"
		}
		r.Ctx = ctxString(n.Ctx)
		r.Elts, err = e.list(n.Elts)
	case *ast.Subscript:
		r.Ctx = ctxString(n.Ctx)
		if r.Value, err = e.node(n.Value); err != nil {
			return nil, err
		}
		r.Index, err = e.node(n.Index)
	case *ast.IndexedElement:
		r.Elt = n.Index
		r.Value, err = e.node(n.Source)
	case *ast.Other:
		r.Name = n.Name
		r.Children, err = e.list(n.Children)
	default:
		return nil, errors.Errorf("cannot encode node %T", n)
	}
	if err != nil {
		return nil, err
	}
	if r.Anno, err = e.annotations(n.Anno()); err != nil {
		return nil, errors.Wrapf(err, "%s at %s", n.Kind(), n.Pos())
	}
	return r, nil
}

func (e *encoder) block(r *rawNode, test ast.Node, body, orelse []ast.Node) (err error) {
	if r.Test, err = e.node(test); err != nil {
		return err
	}
	if r.Body, err = e.list(body); err != nil {
		return err
	}
	r.Orelse, err = e.list(orelse)
	return err
}

func (e *encoder) annotations(s *anno.Store) (*rawAnno, error) {
	r := &rawAnno{}
	for _, k := range s.Keys() {
		v := s.MustGet(k)
		switch k {
		case anno.LiveVal, anno.Type:
			val, ok := v.(types.Value)
			if !ok {
				return nil, errors.Errorf("annotation %s: not a runtime value: %v", k, v)
			}
			rv := e.value(val)
			if k == anno.LiveVal {
				r.LiveVal = rv
			} else {
				r.Type = rv
			}
		case anno.FQN, anno.TypeFQN:
			p, ok := v.(types.FQN)
			if !ok {
				return nil, errors.Errorf("annotation %s: not a dotted path: %v", k, v)
			}
			if k == anno.FQN {
				r.FQN = p
			} else {
				r.TypeFQN = p
			}
		case anno.IsConstructor:
			b, ok := v.(bool)
			if !ok {
				return nil, errors.Errorf("annotation %s: not a bool: %v", k, v)
			}
			r.IsConstructor = &b
		}
	}
	if r.empty() {
		return nil, nil
	}
	return r, nil
}

func (e *encoder) value(v types.Value) *rawValue {
	switch v := v.(type) {
	case *types.Class:
		return &rawValue{Class: v.Path.String()}
	case *types.Function:
		return &rawValue{Function: v.Path.String()}
	case *types.Module:
		return &rawValue{Module: v.Path.String()}
	case *types.Object:
		return &rawValue{Object: v.Class.Path.String()}
	}
	return nil
}
