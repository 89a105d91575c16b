// Package lsp exposes the ARC IR pipeline's accumulated diagnostics over the
// Language Server Protocol. This is the one outer-surface concern the core
// interacts with: a fixture file is recompiled on every open/change and the
// resulting diagnostics are republished. There is no completion or semantic
// token support here — there is no source-text grammar on this side of the
// pipeline to offer them for.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ori/internal/diagnostics"
)

// Compile runs a fixture's raw bytes through loading, lowering, and the
// pipeline, returning every diagnostic gathered along the way.
type Compile func(raw []byte) *diagnostics.Accumulator

// Handler implements the LSP server handlers for ARC IR fixture files.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	compile Compile
}

// NewHandler creates a Handler that recompiles with fn on every open/change.
func NewHandler(fn Compile) *Handler {
	return &Handler{
		content: make(map[string]string),
		compile: fn,
	}
}

// Initialize responds to the LSP client's initialize request and advertises
// the server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	return nil
}

// SetTrace handles the $/setTrace notification; tracing is not implemented.
func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// TextDocumentDidOpen recompiles the fixture and republishes diagnostics.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.recompile(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange recompiles the fixture and republishes diagnostics.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return h.recompile(ctx, uri, string(raw))
}

// TextDocumentDidClose forgets a document's cached content.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)

	return nil
}

func (h *Handler) recompile(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	diags := h.compile([]byte(text))
	sendDiagnosticNotification(ctx, uri, ConvertDiagnostics(diags.Errors()))
	return nil
}

// uriToPath converts a file:// URI to a platform-local file path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diags []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
