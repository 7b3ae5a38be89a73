package typeinfo

import (
	"fmt"
	"log"

	"typeinfo/pkg/anno"
	"typeinfo/pkg/ast"
	"typeinfo/pkg/scope"
	"typeinfo/pkg/types"
)

// Resolver walks a tree once, keeping a scope chain of the most recent value
// assigned to each symbol.
type Resolver struct {
	chain         *scope.Chain
	scope         scope.ID
	hints         Hints
	functionLevel int
	logger        *log.Logger

	// sites mirrors chain frame for frame, holding the name that made each binding.
	sites *scope.Chain
	onRef func(ref, site *ast.Name)
}

func NewResolver(hints Hints, opts ...Option) (*Resolver, error) {
	if err := hints.validate(); err != nil {
		return nil, err
	}
	chain := scope.NewChain()
	r := &Resolver{chain: chain, scope: chain.Root(), hints: hints}
	for _, opt := range opts {
		opt(r)
	}
	if r.onRef != nil {
		r.sites = scope.NewChain()
	}
	return r, nil
}

// Visit resolves n. Bindings made outside any function or block stay in the
// root frame and are visible to later calls.
func (r *Resolver) Visit(n ast.Node) error {
	return r.visit(n)
}

// Scope returns the chain and the current frame.
func (r *Resolver) Scope() (*scope.Chain, scope.ID) {
	return r.chain, r.scope
}

func (r *Resolver) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

func (r *Resolver) errorf(kind error, n ast.Node, format string, args ...any) error {
	err := &Error{Kind: kind, N: n, Scope: r.chain.String(r.scope), msg: fmt.Sprintf(format, args...)}
	r.logf("fail %v", err)
	return err
}

func (r *Resolver) withScope(clb func() error) error {
	parent := r.scope
	r.scope = r.chain.ChildOf(parent)
	if r.sites != nil {
		r.sites.ChildOf(parent)
	}
	r.logf("push scope %d (parent %d)", r.scope, parent)
	defer func() {
		r.logf("pop scope %d", r.scope)
		r.chain.Pop(r.scope)
		if r.sites != nil {
			r.sites.Pop(r.scope)
		}
		r.scope = parent
	}()
	return clb()
}

// bind makes expr the value of name in the current frame. site is the name
// node that introduced the binding.
func (r *Resolver) bind(name string, site *ast.Name, expr ast.Node) {
	r.chain.Bind(r.scope, name, expr)
	if r.sites != nil {
		r.sites.Bind(r.scope, name, site)
	}
	r.logf("bind %s = %s in scope %d", name, ast.Format(expr), r.scope)
}

func (r *Resolver) reference(n *ast.Name) {
	if r.sites == nil {
		return
	}
	if site, err := r.sites.Get(r.scope, n.ID); err == nil {
		r.onRef(n, site.(*ast.Name))
	}
}

func (r *Resolver) annotate(n ast.Node, k anno.Key, v any) {
	n.Anno().Set(k, v)
	r.logf("%s %s: %s = %v", n.Pos(), ast.Format(n), k, v)
}

func (r *Resolver) visit(n ast.Node) error {
	switch n := n.(type) {
	case *ast.FunctionDef:
		return r.visitFunctionDef(n)
	case *ast.For:
		if err := r.visitList([]ast.Node{n.Target, n.Iter}); err != nil {
			return err
		}
		return r.visitBlocks(n.Body, n.Orelse)
	case *ast.While:
		if err := r.visit(n.Test); err != nil {
			return err
		}
		return r.visitBlocks(n.Body, n.Orelse)
	case *ast.If:
		if err := r.visit(n.Test); err != nil {
			return err
		}
		return r.visitBlocks(n.Body, n.Orelse)
	case *ast.Name:
		return r.visitName(n)
	case *ast.Assign:
		if err := r.visitChildren(n); err != nil {
			return err
		}
		return r.processAssignment(n.Value, n.Targets)
	case *ast.With:
		return r.visitWith(n)
	case *ast.Call:
		return r.visitCall(n)
	case *ast.Module, *ast.Attribute, *ast.WithItem, *ast.Tuple, *ast.Subscript, *ast.IndexedElement, *ast.Other:
		return r.visitChildren(n)
	case nil:
		return nil
	default:
		return fmt.Errorf("typeinfo: unhandled node kind %T", n)
	}
}

func (r *Resolver) visitChildren(n ast.Node) error {
	return r.visitList(ast.Children(n))
}

func (r *Resolver) visitList(ns []ast.Node) error {
	for _, n := range ns {
		if err := r.visit(n); err != nil {
			return err
		}
	}
	return nil
}

// visitBlocks gives each block a frame of its own.
func (r *Resolver) visitBlocks(blocks ...[]ast.Node) error {
	for _, block := range blocks {
		if err := r.withScope(func() error { return r.visitList(block) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) visitFunctionDef(n *ast.FunctionDef) error {
	return r.withScope(func() error {
		r.functionLevel++
		defer func() { r.functionLevel-- }()
		for _, arg := range n.Args {
			if err := r.visit(arg); err != nil {
				return err
			}
		}
		return r.visitList(n.Body)
	})
}

func (r *Resolver) visitName(n *ast.Name) error {
	if n.Ctx == ast.Load {
		r.reference(n)
		return nil
	}
	if n.Ctx != ast.Param {
		return nil
	}
	holder := ast.NewPlaceholder(n)
	// Only the outermost parameter list is supplied by the caller.
	if hint, ok := r.hints[n.ID]; ok && r.functionLevel == 1 {
		fqn := types.ParseFQN(hint.TypeName)
		if fqn == nil {
			fqn = hint.Type.FQN().Clone()
		}
		r.annotate(holder, anno.Type, hint.Type)
		r.annotate(holder, anno.TypeFQN, fqn)
	}
	r.bind(n.ID, n, holder)
	return nil
}

// visitWith binds each item's target after visiting the item, so reads in the
// context expression see the earlier binding of a reused name.
func (r *Resolver) visitWith(n *ast.With) error {
	for _, item := range n.Items {
		if err := r.visitChildren(item); err != nil {
			return err
		}
		if item.OptionalVars == nil {
			continue
		}
		if err := r.processAssignment(item.ContextExpr, []ast.Node{item.OptionalVars}); err != nil {
			return err
		}
	}
	return r.visitList(n.Body)
}

func (r *Resolver) processAssignment(source ast.Node, targets []ast.Node) error {
	if call, ok := source.(*ast.Call); ok {
		r.markConstructor(call)
	}
	for _, t := range targets {
		switch t := t.(type) {
		case *ast.Tuple:
			for i, e := range t.Elts {
				name, ok := e.(*ast.Name)
				if !ok {
					return r.errorf(ErrInvalidAssignmentTarget, e, "don't know how to handle assignment to %s", ast.Format(e))
				}
				r.bind(name.ID, name, ast.NewIndexedElement(source, i))
			}
		case *ast.Name:
			r.bind(t.ID, t, source)
		case *ast.Attribute:
			// Attributes of self are accepted and not tracked.
			if !ast.IsSelf(t.Value) {
				return r.errorf(ErrInvalidAssignmentTarget, t,
					`don't know how to handle assignment to attributes of objects other than "self": [%s].%s`, ast.Format(t.Value), t.Attr)
			}
		default:
			return r.errorf(ErrInvalidAssignmentTarget, t, "don't know how to handle assignment to %s", ast.Format(t))
		}
	}
	return nil
}

func (r *Resolver) markConstructor(call *ast.Call) {
	fn := call.Func.Anno()
	v, ok := fn.Get(anno.LiveVal)
	if !ok || !types.IsClass(v) {
		return
	}
	cls := v.(*types.Class)
	fqn, ok := fn.Path(anno.FQN)
	if !ok {
		fqn = cls.FQN()
	}
	r.annotate(call, anno.IsConstructor, true)
	r.annotate(call, anno.Type, cls)
	r.annotate(call, anno.TypeFQN, fqn.Clone())
}

func (r *Resolver) visitCall(n *ast.Call) error {
	if !n.Func.Anno().Has(anno.LiveVal) {
		if err := r.resolveMethod(n); err != nil {
			return err
		}
	}
	return r.visitChildren(n)
}

// resolveMethod types the callee of base.method() from the value bound to base.
func (r *Resolver) resolveMethod(n *ast.Call) error {
	attr, ok := n.Func.(*ast.Attribute)
	if !ok {
		// foo = bar
		// foo()
		return r.errorf(ErrDynamicCallTarget, n, "don't know how to handle dynamic functions: %s", ast.Format(n.Func))
	}
	base, ok := attr.Value.(*ast.Name)
	if !ok {
		// foo = module.Foo()
		// foo.bar.baz()
		return r.errorf(ErrUnsupportedPropertyChain, attr, "don't know how to handle object properties yet: %s", ast.Format(attr))
	}
	source, err := r.chain.Get(r.scope, base.ID)
	if err != nil {
		return r.errorf(ErrUnresolvedBase, base, "no info on %q. Is it dynamically built?", base.ID)
	}
	t, ok := source.Anno().Value(anno.Type)
	if !ok {
		return r.errorf(ErrUnresolvedObjectType, base, "could not determine type of %q. Is it dynamic?", base.ID)
	}
	// type_fqn may be missing when type came from upstream.
	fqn, ok := source.Anno().Path(anno.TypeFQN)
	if !ok {
		fqn = t.FQN()
	}
	r.annotate(attr, anno.Type, t)
	r.annotate(attr, anno.TypeFQN, fqn.Clone())
	return nil
}
