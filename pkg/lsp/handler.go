package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

type handler struct {
	server *Server
}

// NewHandler dispatches JSON-RPC requests to s.
func NewHandler(s *Server) jsonrpc2.Handler {
	return &handler{server: s}
}

func unmarshal(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return fmt.Errorf("%s: missing params", req.Method)
	}
	return json.Unmarshal(*req.Params, v)
}

func (h *handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	result, err := h.handle(ctx, conn, req)
	if req.Notif {
		if err != nil {
			h.server.logger.Printf("%s: %v", req.Method, err)
		}
		return
	}
	if err != nil {
		var rerr *jsonrpc2.Error
		if e, ok := err.(*jsonrpc2.Error); ok {
			rerr = e
		} else {
			rerr = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
		}
		_ = conn.ReplyWithError(ctx, req.ID, rerr)
		return
	}
	if err := conn.Reply(ctx, req.ID, result); err != nil {
		h.server.logger.Printf("failed to reply: %v", err)
	}
}

func parseError(err error) error {
	return &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
}

func (h *handler) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	case "initialize":
		var params lsp.InitializeParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return h.server.Initialize(ctx, params)

	case "initialized":
		return nil, nil

	case "shutdown":
		return nil, h.server.Shutdown(ctx)

	case "exit":
		return nil, conn.Close()

	case "textDocument/didOpen":
		var params lsp.DidOpenTextDocumentParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return nil, h.server.DidOpen(ctx, params)

	case "textDocument/didChange":
		var params lsp.DidChangeTextDocumentParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return nil, h.server.DidChange(ctx, params)

	case "textDocument/didClose":
		var params lsp.DidCloseTextDocumentParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return nil, h.server.DidClose(ctx, params)

	case "textDocument/hover":
		var params lsp.TextDocumentPositionParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return h.server.Hover(ctx, params)

	case "textDocument/definition":
		var params lsp.TextDocumentPositionParams
		if err := unmarshal(req, &params); err != nil {
			return nil, parseError(err)
		}
		return h.server.Definition(ctx, params)

	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not supported: %s", req.Method)}
	}
}
