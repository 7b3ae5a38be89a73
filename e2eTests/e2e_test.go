package e2eTests

import (
	"path/filepath"
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeinfo/pkg/anno"
	"typeinfo/pkg/ast"
	"typeinfo/pkg/treeio"
	"typeinfo/pkg/typeinfo"
	"typeinfo/pkg/types"
)

func load(t *testing.T, name string) *treeio.Document {
	t.Helper()
	doc, err := treeio.ReadFile(filepath.Join("testdata", name), nil)
	require.NoError(t, err)
	return doc
}

// find returns the first node of kind k starting on line.
func find(root ast.Node, k ast.Kind, line int) ast.Node {
	var found ast.Node
	ast.Inspect(root, func(n ast.Node) bool {
		if n == nil || found != nil {
			return false
		}
		if n.Kind() == k && n.Pos().Line == line {
			found = n
			return false
		}
		return true
	})
	return found
}

func typeFQN(t *testing.T, n ast.Node) string {
	t.Helper()
	require.NotNil(t, n)
	fqn, ok := n.Anno().Path(anno.TypeFQN)
	require.True(t, ok, "%s has no type_fqn", ast.Format(n))
	return fqn.String()
}

func TestBlocks(t *testing.T) {
	doc := load(t, "blocks.yaml")
	_, err := typeinfo.Resolve(doc.Root, doc.HintsOrEmpty())
	require.NoError(t, err)

	ctor := find(doc.Root, ast.KindCall, 1)
	isCtor, _ := ctor.Anno().Bool(anno.IsConstructor)
	tassert.True(t, isCtor)
	tassert.Equal(t, "models.Model", typeFQN(t, ctor))

	tassert.Equal(t, "loaders.Loader", typeFQN(t, find(doc.Root, ast.KindAttribute, 4)))
	// The loop body frame is gone once the loop ends.
	fit := find(doc.Root, ast.KindAttribute, 5)
	tassert.Equal(t, "models.Model", typeFQN(t, fit))
	fitType, _ := fit.Anno().Value(anno.Type)
	modelClass, _ := ctor.(*ast.Call).Func.Anno().Value(anno.LiveVal)
	tassert.Same(t, modelClass, fitType)

	tassert.Equal(t, "pairs.Pair", typeFQN(t, find(doc.Root, ast.KindCall, 6)))
	// No fqn on the callee: the class path is used.
	tassert.Equal(t, "sess.Session", typeFQN(t, find(doc.Root, ast.KindCall, 7)))
	tassert.Equal(t, "sess.Session", typeFQN(t, find(doc.Root, ast.KindAttribute, 8)))
}

func TestResolveIsIdempotent(t *testing.T) {
	doc := load(t, "blocks.yaml")
	_, err := typeinfo.Resolve(doc.Root, doc.HintsOrEmpty())
	require.NoError(t, err)
	first, err := treeio.Encode(doc, treeio.YAML)
	require.NoError(t, err)

	again, err := treeio.Decode(first, nil)
	require.NoError(t, err)
	_, err = typeinfo.Resolve(again.Root, again.HintsOrEmpty())
	require.NoError(t, err)
	second, err := treeio.Encode(again, treeio.YAML)
	require.NoError(t, err)
	tassert.Equal(t, string(first), string(second))

	// Resolving the same tree twice in place changes nothing either.
	_, err = typeinfo.Resolve(again.Root, again.HintsOrEmpty())
	require.NoError(t, err)
	third, err := treeio.Encode(again, treeio.JSON)
	require.NoError(t, err)
	viaJSON, err := treeio.Decode(third, nil)
	require.NoError(t, err)
	fourth, err := treeio.Encode(viaJSON, treeio.YAML)
	require.NoError(t, err)
	tassert.Equal(t, string(first), string(fourth))
}

func TestHintsAreSharedWithTree(t *testing.T) {
	reg := types.NewRegistry()
	doc, err := treeio.ReadFile(filepath.Join("testdata", "hinted.yaml"), reg)
	require.NoError(t, err)
	tassert.Same(t, reg.Class("tf.train.Optimizer"), doc.Hints["opt"].Type)
}

func TestFailures(t *testing.T) {
	tests := []struct {
		file string
		kind error
		msg  string
	}{
		{"chain.yaml", typeinfo.ErrUnsupportedPropertyChain, "2:1: don't know how to handle object properties yet: foo.bar.baz"},
		{"dynamic.yaml", typeinfo.ErrDynamicCallTarget, "2:1: don't know how to handle dynamic functions: f"},
		{"attr_target.yaml", typeinfo.ErrInvalidAssignmentTarget, `1:1: don't know how to handle assignment to attributes of objects other than "self": [obj].x`},
		// Hints only apply to the outermost function's parameters.
		{"hinted.yaml", typeinfo.ErrUnresolvedObjectType, `3:9: could not determine type of "opt". Is it dynamic?`},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			doc := load(t, tt.file)
			root, err := typeinfo.Resolve(doc.Root, doc.HintsOrEmpty())
			tassert.Nil(t, root)
			require.ErrorIs(t, err, tt.kind)
			tassert.EqualError(t, err, tt.msg)
		})
	}
}
