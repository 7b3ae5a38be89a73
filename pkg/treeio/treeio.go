// Package treeio reads and writes annotated syntax-tree documents.
//
// A document is the output of the live-value pass: a tree whose names may
// already carry live_val and fqn, plus optional parameter hints.
package treeio

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"typeinfo/pkg/ast"
	"typeinfo/pkg/typeinfo"
	"typeinfo/pkg/types"
)

// CurrentVersion is written by Encode.
const CurrentVersion = "1.0.0"

var formatConstraint = func() *semver.Constraints {
	c, err := semver.NewConstraint(">= 1.0.0, < 2.0.0")
	if err != nil {
		panic(err)
	}
	return c
}()

type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case YAML, JSON:
		return f, nil
	case "yml":
		return YAML, nil
	}
	return "", errors.Errorf("unknown format %q (want yaml or json)", s)
}

type Document struct {
	Version  string
	Hints    typeinfo.Hints // nil when the document declares none
	Root     ast.Node
	Registry *types.Registry
}

// HintsOrEmpty returns the document hints, or an empty table.
func (d *Document) HintsOrEmpty() typeinfo.Hints {
	if d.Hints == nil {
		return typeinfo.Hints{}
	}
	return d.Hints
}

// CheckVersion reports whether v is a document version this package reads.
func CheckVersion(v string) error {
	if v == "" {
		return nil
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrapf(err, "document version %q", v)
	}
	if !formatConstraint.Check(sv) {
		return errors.Errorf("unsupported document version %s (want %s)", sv, formatConstraint)
	}
	return nil
}

// Decode parses a YAML or JSON document. Classes are interned in reg, or in a
// fresh registry when reg is nil.
func Decode(data []byte, reg *types.Registry) (*Document, error) {
	if reg == nil {
		reg = types.NewRegistry()
	}
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	if err := CheckVersion(raw.Version); err != nil {
		return nil, err
	}
	if raw.Tree == nil {
		return nil, errors.New("document has no tree")
	}
	d := &decoder{reg: reg}
	root, err := d.node(raw.Tree, "tree")
	if err != nil {
		return nil, err
	}
	doc := &Document{Version: raw.Version, Root: root, Registry: reg}
	if raw.Hints != nil {
		doc.Hints = hintsFrom(raw.Hints, reg)
	}
	return doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string, reg *types.Registry) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	doc, err := Decode(data, reg)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return doc, nil
}

// DecodeHints parses a `param: dotted.Type` mapping.
func DecodeHints(data []byte, reg *types.Registry) (typeinfo.Hints, error) {
	var m map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "decode hints")
	}
	return hintsFrom(m, reg), nil
}

// ReadHintsFile decodes the hints stored at path.
func ReadHintsFile(path string, reg *types.Registry) (typeinfo.Hints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	h, err := DecodeHints(data, reg)
	return h, errors.Wrap(err, path)
}

func hintsFrom(m map[string]string, reg *types.Registry) typeinfo.Hints {
	h := make(typeinfo.Hints, len(m))
	for param, typeName := range m {
		h.Add(param, typeName, reg.Class(typeName))
	}
	return h
}

// Encode writes doc in the requested format, including every annotation.
func Encode(doc *Document, f Format) ([]byte, error) {
	var e encoder
	tree, err := e.node(doc.Root)
	if err != nil {
		return nil, err
	}
	raw := rawDocument{Version: CurrentVersion, Tree: tree}
	if doc.Hints != nil {
		raw.Hints = make(map[string]string, len(doc.Hints))
		for param, h := range doc.Hints {
			raw.Hints[param] = h.TypeName
		}
	}
	switch f {
	case JSON:
		out, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode json")
		}
		return append(out, '\n'), nil
	case YAML, "":
		out, err := yaml.Marshal(raw)
		return out, errors.Wrap(err, "encode yaml")
	default:
		return nil, errors.Errorf("unknown format %q", f)
	}
}
