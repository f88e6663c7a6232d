// Package server implements a Language Server Protocol endpoint for
// LOLCODE sources: diagnostics, keyword hover and completion.
package server

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/lolcode/compiler"
	"github.com/chazu/lolcode/pkg/diag"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "lolcode-lsp"

var log = commonlog.GetLogger("lolcode.server")

// LspServer checks open documents through a Worker and answers editor
// requests from the document text.
type LspServer struct {
	worker *Worker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server. optimize selects whether checks run
// the AST optimizer, matching what a run would do.
func NewLSP(optimize bool) *LspServer {
	s := &LspServer{
		worker:  NewWorker(optimize),
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("LOLCODE LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.setDoc(uri, text)
	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.setDoc(uri, whole.Text)
			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) setDoc(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()
}

func (s *LspServer) doc(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.doc(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(word), nil
}

// complete offers keywords and the identifiers appearing in text that
// start with prefix. Keywords match case-sensitively like the lexer.
func complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	keywords := compiler.Keywords()
	sort.Strings(keywords)
	for _, word := range keywords {
		if strings.HasPrefix(word, prefix) {
			kind := protocol.CompletionItemKindKeyword
			detail := "keyword"
			wordCopy := word
			items = append(items, protocol.CompletionItem{
				Label:      word,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &wordCopy,
			})
		}
	}

	for _, name := range identifiers(text) {
		if name != prefix && strings.HasPrefix(name, prefix) {
			kind := protocol.CompletionItemKindVariable
			detail := "identifier"
			nameCopy := name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &nameCopy,
			})
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

// identifiers lexes text and returns its distinct identifiers in order of
// first appearance. Lexing stops at the first error.
func identifiers(text string) []string {
	lexer := compiler.NewLexer(text, 0, compiler.NewInterner())
	seen := make(map[string]bool)
	var names []string
	for {
		tok, err := lexer.Next()
		if err != nil || tok.Kind == compiler.TokenEOF {
			return names
		}
		if tok.Kind == compiler.TokenIdent && !seen[tok.Text] {
			seen[tok.Text] = true
			names = append(names, tok.Text)
		}
	}
}

func hover(word string) *protocol.Hover {
	doc, ok := keywordDocs[word]
	if !ok {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: "**" + word + "**\n\n" + doc,
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	checkErr, err := s.worker.Check(text)
	if err != nil {
		log.Errorf("checking %s: %s", uri, err)
		return
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toDiagnostics(text, checkErr),
	})
}

// toDiagnostics converts a pipeline error into LSP diagnostics for text.
// A nil error yields an empty, non-nil slice so the client clears stale
// markers.
func toDiagnostics(text string, err error) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	if err == nil {
		return diagnostics
	}

	sources := diag.NewSources()
	src := sources.Get(sources.Add("", text))

	var list diag.List
	switch e := err.(type) {
	case diag.List:
		list = e
	default:
		if d, ok := diag.As(err); ok {
			list = diag.List{d}
		}
	}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	if len(list) == 0 {
		return append(diagnostics, protocol.Diagnostic{
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		})
	}

	for _, d := range list {
		code := protocol.IntegerOrString{Value: d.Kind.Tag()}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: toPosition(src, d.Span.Start),
				End:   toPosition(src, d.Span.End),
			},
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return diagnostics
}

func toPosition(src *diag.Source, offset int) protocol.Position {
	pos := src.Position(offset)
	return protocol.Position{
		Line:      protocol.UInteger(pos.Line - 1),
		Character: protocol.UInteger(pos.Column - 1),
	}
}

// --- Text extraction helpers ---

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isWordChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isWordChar(rune(line[end])) {
		end++
	}

	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
