package lsp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"os"
	"testing"
	"time"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uri = "file:///work/train.yaml"

type recorder struct {
	sent []lsp.PublishDiagnosticsParams
}

func (r *recorder) Notify(ctx context.Context, method string, params interface{}, opts ...jsonrpc2.CallOption) error {
	r.sent = append(r.sent, params.(lsp.PublishDiagnosticsParams))
	return nil
}

func newTestServer(t *testing.T) (*Server, *recorder) {
	t.Helper()
	s := NewServer()
	s.SetLogger(log.New(io.Discard, "", 0))
	rec := &recorder{}
	s.SetConn(rec)
	return s, rec
}

func trainSource(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../treeio/testdata/train.yaml")
	require.NoError(t, err)
	return string(b)
}

func open(t *testing.T, s *Server, text string) {
	t.Helper()
	require.NoError(t, s.DidOpen(context.Background(), lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, Text: text},
	}))
}

func at(line, char int) lsp.TextDocumentPositionParams {
	return lsp.TextDocumentPositionParams{
		TextDocument: lsp.TextDocumentIdentifier{URI: uri},
		Position:     lsp.Position{Line: line, Character: char},
	}
}

const failing = `tree:
  kind: module
  body:
    - kind: expr
      children:
        - kind: call
          line: 2
          col: 1
          end_line: 2
          end_col: 7
          func: {kind: attribute, attr: m, value: {kind: name, id: z, line: 2, col: 1, end_line: 2, end_col: 1}}
`

func TestDidOpenPublishesEmptyDiagnostics(t *testing.T) {
	s, rec := newTestServer(t)
	open(t, s, trainSource(t))
	require.Len(t, rec.sent, 1)
	tassert.Equal(t, lsp.DocumentURI(uri), rec.sent[0].URI)
	tassert.NotNil(t, rec.sent[0].Diagnostics)
	tassert.Empty(t, rec.sent[0].Diagnostics)
}

func TestResolveFailureBecomesDiagnostic(t *testing.T) {
	s, rec := newTestServer(t)
	open(t, s, failing)
	require.Len(t, rec.sent, 1)
	require.Len(t, rec.sent[0].Diagnostics, 1)
	d := rec.sent[0].Diagnostics[0]
	tassert.Equal(t, `no info on "z". Is it dynamically built?`, d.Message)
	tassert.Equal(t, "unresolved-base", d.Code)
	tassert.Equal(t, lsp.Range{Start: lsp.Position{Line: 1, Character: 0}, End: lsp.Position{Line: 1, Character: 1}}, d.Range)
	tassert.Equal(t, rec.sent[0].Diagnostics, s.Diagnostics(uri))
}

func TestDecodeFailureBecomesDiagnostic(t *testing.T) {
	s, rec := newTestServer(t)
	open(t, s, "tree: {kind: call}\n")
	require.Len(t, rec.sent[0].Diagnostics, 1)
	tassert.Contains(t, rec.sent[0].Diagnostics[0].Message, "tree.func: missing")

	hover, err := s.Hover(context.Background(), at(0, 0))
	require.NoError(t, err)
	tassert.Nil(t, hover)
}

func TestDidChangeClearsDiagnostics(t *testing.T) {
	s, rec := newTestServer(t)
	open(t, s, failing)
	require.NoError(t, s.DidChange(context.Background(), lsp.DidChangeTextDocumentParams{
		TextDocument:   lsp.VersionedTextDocumentIdentifier{TextDocumentIdentifier: lsp.TextDocumentIdentifier{URI: uri}},
		ContentChanges: []lsp.TextDocumentContentChangeEvent{{Text: trainSource(t)}},
	}))
	require.Len(t, rec.sent, 2)
	tassert.Empty(t, rec.sent[1].Diagnostics)
}

func TestHover(t *testing.T) {
	s, _ := newTestServer(t)
	open(t, s, trainSource(t))

	// Model() on line 2
	hover, err := s.Hover(context.Background(), at(1, 13))
	require.NoError(t, err)
	require.NotNil(t, hover)
	tassert.Equal(t, "constructs models.Model", hover.Contents[0].Value)

	// Model callee
	hover, _ = s.Hover(context.Background(), at(1, 9))
	require.NotNil(t, hover)
	tassert.Equal(t, "live: <class models.Model>", hover.Contents[0].Value)

	// y.fit on line 3
	hover, _ = s.Hover(context.Background(), at(2, 7))
	require.NotNil(t, hover)
	tassert.Equal(t, "type: models.Model", hover.Contents[0].Value)
}

func TestDefinition(t *testing.T) {
	s, _ := newTestServer(t)
	open(t, s, trainSource(t))

	// y in y.fit()
	locs, err := s.Definition(context.Background(), at(2, 4))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	tassert.Equal(t, lsp.Position{Line: 1, Character: 4}, locs[0].Range.Start)

	locs, _ = s.Definition(context.Background(), at(40, 0))
	tassert.Empty(t, locs)

	require.NoError(t, s.DidClose(context.Background(), lsp.DidCloseTextDocumentParams{TextDocument: lsp.TextDocumentIdentifier{URI: uri}}))
	locs, _ = s.Definition(context.Background(), at(2, 4))
	tassert.Empty(t, locs)
	tassert.Empty(t, s.defs.definitions)
	tassert.Nil(t, s.Diagnostics(uri))
}

// def f(opt):
//     opt
// def g(opt):
//     opt
const twoFunctions = `tree:
  kind: module
  body:
    - kind: functiondef
      name: f
      line: 1
      col: 1
      args: [{kind: name, id: opt, line: 1, col: 7, end_line: 1, end_col: 9}]
      body:
        - {kind: expr, children: [{kind: name, id: opt, line: 2, col: 5, end_line: 2, end_col: 7}]}
    - kind: functiondef
      name: g
      line: 3
      col: 1
      args: [{kind: name, id: opt, line: 3, col: 7, end_line: 3, end_col: 9}]
      body:
        - {kind: expr, children: [{kind: name, id: opt, line: 4, col: 5, end_line: 4, end_col: 7}]}
`

func TestDefinitionFollowsScopes(t *testing.T) {
	s, _ := newTestServer(t)
	open(t, s, twoFunctions)

	locs, err := s.Definition(context.Background(), at(3, 5))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	tassert.Equal(t, lsp.Position{Line: 2, Character: 6}, locs[0].Range.Start)

	locs, _ = s.Definition(context.Background(), at(1, 4))
	require.Len(t, locs, 1)
	tassert.Equal(t, lsp.Position{Line: 0, Character: 6}, locs[0].Range.Start)
}

type clientHandler struct {
	diags chan lsp.PublishDiagnosticsParams
}

func (c *clientHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Method != "textDocument/publishDiagnostics" || req.Params == nil {
		return
	}
	var p lsp.PublishDiagnosticsParams
	if err := json.Unmarshal(*req.Params, &p); err == nil {
		c.diags <- p
	}
}

func TestHandlerOverJSONRPC(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, b := net.Pipe()

	s, _ := newTestServer(t)
	serverConn := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(a, jsonrpc2.VSCodeObjectCodec{}), NewHandler(s))
	s.SetConn(serverConn)
	ch := &clientHandler{diags: make(chan lsp.PublishDiagnosticsParams, 1)}
	client := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(b, jsonrpc2.VSCodeObjectCodec{}), ch)
	defer client.Close()

	var init lsp.InitializeResult
	require.NoError(t, client.Call(ctx, "initialize", lsp.InitializeParams{RootURI: "file:///work"}, &init))
	tassert.True(t, init.Capabilities.HoverProvider)
	tassert.True(t, init.Capabilities.DefinitionProvider)

	require.NoError(t, client.Notify(ctx, "textDocument/didOpen", lsp.DidOpenTextDocumentParams{
		TextDocument: lsp.TextDocumentItem{URI: uri, Text: failing},
	}))
	select {
	case p := <-ch.diags:
		require.Len(t, p.Diagnostics, 1)
		tassert.Equal(t, "unresolved-base", p.Diagnostics[0].Code)
	case <-ctx.Done():
		t.Fatal("no diagnostics published")
	}

	err := client.Call(ctx, "textDocument/formatting", struct{}{}, nil)
	var rerr *jsonrpc2.Error
	require.ErrorAs(t, err, &rerr)
	tassert.Equal(t, int64(jsonrpc2.CodeMethodNotFound), rerr.Code)
}
