// Package ast declares the syntax tree the type-info pass walks.
//
// The node set is closed: every concrete node type implements the unexported
// node method, and Kind enumerates them. Each node carries one annotation store.
package ast

import (
	"fmt"

	"typeinfo/pkg/anno"
)

// Pos is a 1-based source location. The zero Pos means unknown.
type Pos struct {
	Line, Column int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before o.
func (p Pos) Before(o Pos) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Column < o.Column)
}

type Kind int

const (
	KindInvalid Kind = iota
	KindModule
	KindFunctionDef
	KindName
	KindCall
	KindAttribute
	KindAssign
	KindFor
	KindWhile
	KindIf
	KindWith
	KindWithItem
	KindTuple
	KindSubscript
	KindIndexedElement
	KindOther
)

var kindNames = [...]string{
	KindInvalid:        "invalid",
	KindModule:         "module",
	KindFunctionDef:    "functiondef",
	KindName:           "name",
	KindCall:           "call",
	KindAttribute:      "attribute",
	KindAssign:         "assign",
	KindFor:            "for",
	KindWhile:          "while",
	KindIf:             "if",
	KindWith:           "with",
	KindWithItem:       "withitem",
	KindTuple:          "tuple",
	KindSubscript:      "subscript",
	KindIndexedElement: "indexed",
	KindOther:          "other",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Ctx is the expression context of a Name, Attribute, Tuple or Subscript.
type Ctx int

const (
	Load Ctx = iota
	Store
	Del
	Param
)

var ctxNames = [...]string{Load: "load", Store: "store", Del: "del", Param: "param"}

func (c Ctx) String() string {
	if c < 0 || int(c) >= len(ctxNames) {
		return fmt.Sprintf("Ctx(%d)", int(c))
	}
	return ctxNames[c]
}

func ParseCtx(s string) (Ctx, bool) {
	for i, n := range ctxNames {
		if n == s {
			return Ctx(i), true
		}
	}
	return Load, false
}

type Node interface {
	Pos() Pos
	End() Pos
	Kind() Kind
	Anno() *anno.Store
	node()
}

// Span is embedded in every node. It holds the source range and the annotations.
type Span struct {
	Start, Stop Pos
	annos       anno.Store
}

func (s *Span) Pos() Pos          { return s.Start }
func (s *Span) End() Pos          { return s.Stop }
func (s *Span) Anno() *anno.Store { return &s.annos }
func (*Span) node()               {}

// Module is the root of a parsed file.
type Module struct {
	Span
	Body []Node
}

// FunctionDef declares a function. Args are Name nodes in Param context.
type FunctionDef struct {
	Span
	Name string
	Args []*Name
	Body []Node
}

type Name struct {
	Span
	ID  string
	Ctx Ctx
}

type Call struct {
	Span
	Func Node
	Args []Node
}

// Attribute is Value.Attr.
type Attribute struct {
	Span
	Value Node
	Attr  string
	Ctx   Ctx
}

// Assign is Targets[0] = Targets[1] = ... = Value.
type Assign struct {
	Span
	Targets []Node
	Value   Node
}

type For struct {
	Span
	Target Node
	Iter   Node
	Body   []Node
	Orelse []Node
}

type While struct {
	Span
	Test   Node
	Body   []Node
	Orelse []Node
}

type If struct {
	Span
	Test   Node
	Body   []Node
	Orelse []Node
}

type With struct {
	Span
	Items []*WithItem
	Body  []Node
}

// WithItem is `ContextExpr as OptionalVars`. OptionalVars may be nil.
type WithItem struct {
	Span
	ContextExpr  Node
	OptionalVars Node
}

// Tuple is a tuple or list literal, or a destructuring target.
type Tuple struct {
	Span
	Elts []Node
	Ctx  Ctx
	List bool
}

type Subscript struct {
	Span
	Value Node
	Index Node
	Ctx   Ctx
}

// IndexedElement is synthesized by the type-info pass: it stands for element
// Index of Source after a destructuring assignment. It is never parsed.
type IndexedElement struct {
	Span
	Source Node
	Index  int
}

// Other is any node kind the type-info pass does not inspect, such as a
// return statement, a literal or a binary operation.
type Other struct {
	Span
	Name     string
	Children []Node
}

func (*Module) Kind() Kind         { return KindModule }
func (*FunctionDef) Kind() Kind    { return KindFunctionDef }
func (*Name) Kind() Kind           { return KindName }
func (*Call) Kind() Kind           { return KindCall }
func (*Attribute) Kind() Kind      { return KindAttribute }
func (*Assign) Kind() Kind         { return KindAssign }
func (*For) Kind() Kind            { return KindFor }
func (*While) Kind() Kind          { return KindWhile }
func (*If) Kind() Kind             { return KindIf }
func (*With) Kind() Kind           { return KindWith }
func (*WithItem) Kind() Kind       { return KindWithItem }
func (*Tuple) Kind() Kind          { return KindTuple }
func (*Subscript) Kind() Kind      { return KindSubscript }
func (*IndexedElement) Kind() Kind { return KindIndexedElement }
func (*Other) Kind() Kind          { return KindOther }

// NewIndexedElement returns the synthesized reference to element i of src.
func NewIndexedElement(src Node, i int) *IndexedElement {
	return &IndexedElement{Span: Span{Start: src.Pos(), Stop: src.End()}, Source: src, Index: i}
}

// NewPlaceholder returns a fresh Load-context Name standing in for a parameter.
func NewPlaceholder(param *Name) *Name {
	return &Name{Span: Span{Start: param.Start, Stop: param.Stop}, ID: param.ID, Ctx: Load}
}

// IsSelf reports whether n is the reserved self-reference name.
func IsSelf(n Node) bool {
	name, ok := n.(*Name)
	return ok && name.ID == SelfName
}

const SelfName = "self"
