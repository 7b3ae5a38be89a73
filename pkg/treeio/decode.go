package treeio

import (
	"fmt"

	"github.com/pkg/errors"

	"typeinfo/pkg/anno"
	"typeinfo/pkg/ast"
	"typeinfo/pkg/types"
)

type decoder struct {
	reg *types.Registry
}

func (d *decoder) span(r *rawNode) ast.Span {
	return ast.Span{
		Start: ast.Pos{Line: r.Line, Column: r.Col},
		Stop:  ast.Pos{Line: r.EndLine, Column: r.EndCol},
	}
}

func (d *decoder) list(rs []*rawNode, path string) ([]ast.Node, error) {
	var out []ast.Node
	for i, r := range rs {
		n, err := d.node(r, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// required decodes a child that must be present.
func (d *decoder) required(r *rawNode, path string) (ast.Node, error) {
	if r == nil {
		return nil, errors.Errorf("%s: missing", path)
	}
	return d.node(r, path)
}

func (d *decoder) optional(r *rawNode, path string) (ast.Node, error) {
	if r == nil {
		return nil, nil
	}
	return d.node(r, path)
}

func (d *decoder) ctx(r *rawNode, path string, def ast.Ctx) (ast.Ctx, error) {
	if r.Ctx == "" {
		return def, nil
	}
	c, ok := ast.ParseCtx(r.Ctx)
	if !ok {
		return def, errors.Errorf("%s: unknown ctx %q", path, r.Ctx)
	}
	return c, nil
}

func (d *decoder) node(r *rawNode, path string) (ast.Node, error) {
	if r == nil {
		return nil, errors.Errorf("%s: null node", path)
	}
	n, err := d.build(r, path)
	if err != nil {
		return nil, err
	}
	if r.Anno != nil {
		if err := d.annotations(n.Anno(), r.Anno, path); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (d *decoder) build(r *rawNode, path string) (ast.Node, error) {
	sp := d.span(r)
	var err error
	switch r.Kind {
	case "module":
		n := &ast.Module{Span: sp}
		n.Body, err = d.list(r.Body, path+".body")
		return n, err
	case "functiondef":
		n := &ast.FunctionDef{Span: sp, Name: r.Name}
		for i, a := range r.Args {
			p := fmt.Sprintf("%s.args[%d]", path, i)
			arg, err := d.node(a, p)
			if err != nil {
				return nil, err
			}
			name, ok := arg.(*ast.Name)
			if !ok {
				return nil, errors.Errorf("%s: parameter must be a name, got %s", p, arg.Kind())
			}
			if a.Ctx == "" {
				name.Ctx = ast.Param
			}
			n.Args = append(n.Args, name)
		}
		n.Body, err = d.list(r.Body, path+".body")
		return n, err
	case "name":
		if r.ID == "" {
			return nil, errors.Errorf("%s: name without id", path)
		}
		c, err := d.ctx(r, path, ast.Load)
		return &ast.Name{Span: sp, ID: r.ID, Ctx: c}, err
	case "call":
		n := &ast.Call{Span: sp}
		if n.Func, err = d.required(r.Func, path+".func"); err != nil {
			return nil, err
		}
		n.Args, err = d.list(r.Args, path+".args")
		return n, err
	case "attribute":
		n := &ast.Attribute{Span: sp, Attr: r.Attr}
		if n.Value, err = d.required(r.Value, path+".value"); err != nil {
			return nil, err
		}
		n.Ctx, err = d.ctx(r, path, ast.Load)
		return n, err
	case "assign":
		n := &ast.Assign{Span: sp}
		if len(r.Targets) == 0 {
			return nil, errors.Errorf("%s: assign without targets", path)
		}
		if n.Targets, err = d.list(r.Targets, path+".targets"); err != nil {
			return nil, err
		}
		n.Value, err = d.required(r.Value, path+".value")
		return n, err
	case "for":
		n := &ast.For{Span: sp}
		if n.Target, err = d.required(r.Target, path+".target"); err != nil {
			return nil, err
		}
		if n.Iter, err = d.required(r.Iter, path+".iter"); err != nil {
			return nil, err
		}
		if n.Body, err = d.list(r.Body, path+".body"); err != nil {
			return nil, err
		}
		n.Orelse, err = d.list(r.Orelse, path+".orelse")
		return n, err
	case "while", "if":
		test, err := d.required(r.Test, path+".test")
		if err != nil {
			return nil, err
		}
		body, err := d.list(r.Body, path+".body")
		if err != nil {
			return nil, err
		}
		orelse, err := d.list(r.Orelse, path+".orelse")
		if err != nil {
			return nil, err
		}
		if r.Kind == "while" {
			return &ast.While{Span: sp, Test: test, Body: body, Orelse: orelse}, nil
		}
		return &ast.If{Span: sp, Test: test, Body: body, Orelse: orelse}, nil
	case "with":
		n := &ast.With{Span: sp}
		for i, it := range r.Items {
			p := fmt.Sprintf("%s.items[%d]", path, i)
			if it == nil {
				return nil, errors.Errorf("%s: null item", p)
			}
			item := &ast.WithItem{}
			if item.ContextExpr, err = d.required(it.Context, p+".context"); err != nil {
				return nil, err
			}
			if item.OptionalVars, err = d.optional(it.As, p+".as"); err != nil {
				return nil, err
			}
			item.Start, item.Stop = item.ContextExpr.Pos(), item.ContextExpr.End()
			if item.OptionalVars != nil {
				item.Stop = item.OptionalVars.End()
			}
			n.Items = append(n.Items, item)
		}
		n.Body, err = d.list(r.Body, path+".body")
		return n, err
	case "tuple", "list":
		n := &ast.Tuple{Span: sp, List: r.Kind == "list"}
		if n.Elts, err = d.list(r.Elts, path+".elts"); err != nil {
			return nil, err
		}
		n.Ctx, err = d.ctx(r, path, ast.Load)
		return n, err
	case "subscript":
		n := &ast.Subscript{Span: sp}
		if n.Value, err = d.required(r.Value, path+".value"); err != nil {
			return nil, err
		}
		if n.Index, err = d.required(r.Index, path+".index"); err != nil {
			return nil, err
		}
		n.Ctx, err = d.ctx(r, path, ast.Load)
		return n, err
	case "indexed":
		src, err := d.required(r.Value, path+".value")
		if err != nil {
			return nil, err
		}
		n := ast.NewIndexedElement(src, r.Elt)
		n.Span = sp
		return n, nil
	case "other", "":
		n := &ast.Other{Span: sp, Name: r.Name}
		n.Children, err = d.list(r.Children, path+".children")
		return n, err
	default:
		// Kinds the pass does not inspect are kept as opaque nodes.
		n := &ast.Other{Span: sp, Name: r.Kind}
		n.Children, err = d.list(r.Children, path+".children")
		return n, err
	}
}

func (d *decoder) annotations(s *anno.Store, r *rawAnno, path string) error {
	if r.LiveVal != nil {
		v, err := d.value(r.LiveVal, path+".anno.live_val")
		if err != nil {
			return err
		}
		s.Set(anno.LiveVal, v)
	}
	if r.FQN != nil {
		s.Set(anno.FQN, types.FQN(r.FQN))
	}
	if r.Type != nil {
		v, err := d.value(r.Type, path+".anno.type")
		if err != nil {
			return err
		}
		s.Set(anno.Type, v)
	}
	if r.TypeFQN != nil {
		s.Set(anno.TypeFQN, types.FQN(r.TypeFQN))
	}
	if r.IsConstructor != nil {
		s.Set(anno.IsConstructor, *r.IsConstructor)
	}
	return nil
}

func (d *decoder) value(r *rawValue, path string) (types.Value, error) {
	var out []types.Value
	if r.Class != "" {
		out = append(out, d.reg.Class(r.Class))
	}
	if r.Function != "" {
		out = append(out, &types.Function{Path: types.ParseFQN(r.Function)})
	}
	if r.Module != "" {
		out = append(out, &types.Module{Path: types.ParseFQN(r.Module)})
	}
	if r.Object != "" {
		out = append(out, &types.Object{Class: d.reg.Class(r.Object)})
	}
	if len(out) != 1 {
		return nil, errors.Errorf("%s: value must set exactly one of class, function, module, object", path)
	}
	return out[0], nil
}
