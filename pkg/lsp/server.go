package lsp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"typeinfo/pkg/anno"
	"typeinfo/pkg/ast"
	"typeinfo/pkg/treeio"
	"typeinfo/pkg/typeinfo"
)

// Notifier sends server-initiated notifications. *jsonrpc2.Conn implements it.
type Notifier interface {
	Notify(ctx context.Context, method string, params interface{}, opts ...jsonrpc2.CallOption) error
}

// Server is a language server over tree documents. Each open document is
// resolved on every change and failures are published as diagnostics.
type Server struct {
	mu        sync.Mutex
	documents map[string]*Document
	defs      *DefinitionManager
	conn      Notifier
	logger    *log.Logger
}

type Document struct {
	content     string
	doc         *treeio.Document
	diagnostics []lsp.Diagnostic
}

// NewServer creates a new language server instance
func NewServer() *Server {
	return &Server{
		documents: make(map[string]*Document),
		defs:      NewDefinitionManager(),
		logger:    log.New(os.Stderr, "[typeinfo-lsp] ", log.LstdFlags),
	}
}

func (s *Server) SetConn(conn Notifier) { s.conn = conn }

func (s *Server) SetLogger(l *log.Logger) { s.logger = l }

// Initialize handles the initialize request
func (s *Server) Initialize(ctx context.Context, params lsp.InitializeParams) (lsp.InitializeResult, error) {
	s.logger.Printf("Initializing language server for %s", params.RootURI)
	kind := lsp.TDSKFull
	return lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Kind: &kind,
			},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
	}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("Shutting down language server")
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params lsp.DidOpenTextDocumentParams) error {
	return s.updateDocument(ctx, string(params.TextDocument.URI), params.TextDocument.Text)
}

func (s *Server) DidChange(ctx context.Context, params lsp.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	return s.updateDocument(ctx, string(params.TextDocument.URI), content)
}

func (s *Server) DidClose(ctx context.Context, params lsp.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()
	s.defs.Forget(uri)
	return nil
}

// Diagnostics returns the diagnostics last published for uri.
func (s *Server) Diagnostics(uri string) []lsp.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.documents[uri]; ok {
		return d.diagnostics
	}
	return nil
}

func (s *Server) updateDocument(ctx context.Context, uri, content string) error {
	d := &Document{content: content, diagnostics: []lsp.Diagnostic{}}
	s.defs.Forget(uri)
	doc, err := treeio.Decode([]byte(content), nil)
	if err != nil {
		d.diagnostics = append(d.diagnostics, lsp.Diagnostic{
			Range:    lsp.Range{End: lsp.Position{Character: 1}},
			Severity: lsp.Error,
			Source:   "typeinfo",
			Message:  err.Error(),
		})
	} else {
		d.doc = doc
		refs := typeinfo.WithReferences(func(ref, site *ast.Name) {
			s.defs.AddReference(uri, ref, site)
		})
		if _, err := typeinfo.Resolve(doc.Root, doc.HintsOrEmpty(), refs); err != nil {
			d.diagnostics = append(d.diagnostics, toDiagnostic(err))
		}
	}

	s.mu.Lock()
	s.documents[uri] = d
	s.mu.Unlock()

	s.logger.Printf("Document %s: %d diagnostic(s)", uri, len(d.diagnostics))
	if s.conn != nil {
		return s.conn.Notify(ctx, "textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
			URI:         lsp.DocumentURI(uri),
			Diagnostics: d.diagnostics,
		})
	}
	return nil
}

func toDiagnostic(err error) lsp.Diagnostic {
	diag := lsp.Diagnostic{
		Range:    lsp.Range{End: lsp.Position{Character: 1}},
		Severity: lsp.Error,
		Source:   "typeinfo",
		Message:  err.Error(),
	}
	var rerr *typeinfo.Error
	if errors.As(err, &rerr) {
		diag.Message = rerr.Message()
		diag.Code = strings.ReplaceAll(rerr.Kind.Error(), " ", "-")
		if rerr.N != nil && rerr.N.Pos().IsValid() {
			diag.Range = nodeRange(rerr.N)
		}
	}
	return diag
}

func nodeRange(n ast.Node) lsp.Range {
	start := lsp.Position{Line: n.Pos().Line - 1, Character: n.Pos().Column - 1}
	end := lsp.Position{Line: start.Line, Character: start.Character + 1}
	if n.End().IsValid() {
		end = lsp.Position{Line: n.End().Line - 1, Character: n.End().Column}
	}
	return lsp.Range{Start: start, End: end}
}

func toPos(p lsp.Position) ast.Pos {
	return ast.Pos{Line: p.Line + 1, Column: p.Character + 1}
}

func (s *Server) nodeAt(uri string, p lsp.Position) ast.Node {
	s.mu.Lock()
	d, ok := s.documents[uri]
	s.mu.Unlock()
	if !ok || d.doc == nil {
		return nil
	}
	return ast.NodeAt(d.doc.Root, toPos(p))
}

// Hover shows the annotations of the innermost node under the cursor.
func (s *Server) Hover(ctx context.Context, params lsp.TextDocumentPositionParams) (*lsp.Hover, error) {
	n := s.nodeAt(string(params.TextDocument.URI), params.Position)
	if n == nil {
		return nil, nil
	}
	var lines []string
	a := n.Anno()
	if v, ok := a.Get(anno.LiveVal); ok {
		lines = append(lines, fmt.Sprintf("live: %v", v))
	}
	if fqn, ok := a.Path(anno.TypeFQN); ok {
		line := "type: " + fqn.String()
		if ctor, _ := a.Bool(anno.IsConstructor); ctor {
			line = "constructs " + fqn.String()
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	r := nodeRange(n)
	return &lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "text", Value: strings.Join(lines, "\n")}},
		Range:    &r,
	}, nil
}

// Definition jumps from a name read to the parameter or assignment target
// whose binding it sees.
func (s *Server) Definition(ctx context.Context, params lsp.TextDocumentPositionParams) ([]lsp.Location, error) {
	uri := string(params.TextDocument.URI)
	name, ok := s.nodeAt(uri, params.Position).(*ast.Name)
	if !ok {
		return []lsp.Location{}, nil
	}
	def, ok := s.defs.GetDefinition(uri, name)
	if !ok {
		return []lsp.Location{}, nil
	}
	return []lsp.Location{def.Location}, nil
}
