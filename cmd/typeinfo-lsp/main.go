package main

import (
	"context"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"typeinfo/pkg/lsp"
)

func main() {
	server := lsp.NewServer()

	conn := jsonrpc2.NewConn(
		context.Background(),
		jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}),
		lsp.NewHandler(server),
	)
	server.SetConn(conn)

	// Wait for the connection to close
	<-conn.DisconnectNotify()
}

// stdrwc implements io.ReadWriteCloser for stdin/stdout
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error) {
	return os.Stdin.Read(p)
}

func (stdrwc) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
