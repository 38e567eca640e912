package lsp

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/session"
)

const smGrammar = `
definitions  = { state | config } .
state        = "state" ID "{" { "initial" | "end" } "}" .
config       = "config" "{" { ID "=" value } "}" .
value        = NUMBER | ID .

WhiteSpace   = ( " " | "\n" ) { " " | "\n" } .
ID           = "a" … "z" { "a" … "z" } .
NUMBER       = "0" … "9" { "0" … "9" } .
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newServer(t *testing.T, configure func(*config.Language)) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sm.ebnf")
	writeFile(t, path, smGrammar)

	lang := &config.Language{
		ID:                "sm",
		Extensions:        []string{".sm"},
		Grammar:           path,
		TypedPrefix:       true,
		TriggerCharacters: []string{"{"},
	}
	if configure != nil {
		configure(lang)
	}
	lang.SetDefaults()

	s, err := NewServer(&config.Config{Languages: []*config.Language{lang}}, "test")
	require.NoError(t, err)
	return s, path
}

func open(t *testing.T, s *Server, uri, languageID, text string) {
	t.Helper()
	require.NoError(t, s.textDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: languageID, Version: 1, Text: text},
	}))
}

func complete(t *testing.T, s *Server, uri string, line, character int) []string {
	t.Helper()
	result, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)},
		},
	})
	require.NoError(t, err)
	if result == nil {
		return nil
	}
	list, ok := result.(*protocol.CompletionList)
	require.True(t, ok, "result is %T", result)
	labels := make([]string, len(list.Items))
	for i, item := range list.Items {
		labels[i] = item.Label
	}
	return labels
}

func change(uri string, version int32, changes ...any) *protocol.DidChangeTextDocumentParams {
	return &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                protocol.Integer(version),
		},
		ContentChanges: changes,
	}
}

func edit(startLine, startChar, endLine, endChar int, text string) protocol.TextDocumentContentChangeEvent {
	return protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(startLine), Character: protocol.UInteger(startChar)},
			End:   protocol.Position{Line: protocol.UInteger(endLine), Character: protocol.UInteger(endChar)},
		},
		Text: text,
	}
}

func content(t *testing.T, s *Server, uri string) string {
	t.Helper()
	doc, err := s.Documents().Document(uri)
	require.NoError(t, err)
	return doc.Content().String()
}

func TestByteColumn(t *testing.T) {
	line := "aé😀b"
	tests := []struct{ utf16, bytes int }{
		{0, 0}, {1, 1}, {2, 3}, {3, 3}, {4, 7}, {5, 8}, {9, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.bytes, byteColumn(line, tt.utf16), "utf16 column %d", tt.utf16)
	}
}

func TestUTF16Column(t *testing.T) {
	line := "aé😀b"
	tests := []struct{ bytes, utf16 int }{
		{0, 0}, {1, 1}, {3, 2}, {7, 4}, {8, 5}, {20, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.utf16, utf16Column(line, tt.bytes), "byte column %d", tt.bytes)
	}
}

func TestInitialize(t *testing.T) {
	s, _ := newServer(t, nil)
	result, err := s.initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, lsName, init.ServerInfo.Name)

	syncOpts, ok := init.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindIncremental, *syncOpts.Change)
	assert.Equal(t, []string{"{"}, init.Capabilities.CompletionProvider.TriggerCharacters)
}

func TestCompletion(t *testing.T) {
	s, _ := newServer(t, nil)
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "state s {\n")

	assert.ElementsMatch(t, []string{"initial", "end", "}"}, complete(t, s, uri, 0, 9))
	assert.ElementsMatch(t, []string{"state", "config"}, complete(t, s, uri, 0, 0))
}

func TestCompletion_TypedPrefix(t *testing.T) {
	s, _ := newServer(t, nil)
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "state s { in")

	assert.Equal(t, []string{"initial"}, complete(t, s, uri, 0, 12))

	result, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: 0, Character: 12},
		},
	})
	require.NoError(t, err)
	item := result.(*protocol.CompletionList).Items[0]
	assert.Equal(t, protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 10},
			End:   protocol.Position{Line: 0, Character: 12},
		},
		NewText: "initial",
	}, item.TextEdit)
}

func TestCompletion_NamedTokens(t *testing.T) {
	uri := "file:///work/a.sm"

	s, _ := newServer(t, nil)
	open(t, s, uri, "sm", "config { a =")
	assert.Empty(t, complete(t, s, uri, 0, 12))

	s, _ = newServer(t, func(l *config.Language) { l.NamedTokens = true })
	open(t, s, uri, "sm", "config { a =")
	assert.ElementsMatch(t, []string{"NUMBER", "ID"}, complete(t, s, uri, 0, 12))
}

func TestCompletion_PreferredRule(t *testing.T) {
	s, _ := newServer(t, func(l *config.Language) { l.PreferredRules = []string{"value"} })
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "config { a =")
	assert.Equal(t, []string{"value"}, complete(t, s, uri, 0, 12))
}

func TestCompletion_LanguageByExtension(t *testing.T) {
	s, _ := newServer(t, nil)

	open(t, s, "file:///work/b.sm", "plaintext", "")
	assert.ElementsMatch(t, []string{"state", "config"}, complete(t, s, "file:///work/b.sm", 0, 0))

	open(t, s, "file:///work/c.txt", "plaintext", "")
	assert.Nil(t, complete(t, s, "file:///work/c.txt", 0, 0))
}

func TestCompletion_UnknownDocument(t *testing.T) {
	s, _ := newServer(t, nil)
	_, err := s.textDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nope.sm"},
		},
	})
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestDidChange(t *testing.T) {
	s, _ := newServer(t, nil)
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "bc")

	// The second range is relative to the text after the first change.
	require.NoError(t, s.textDocumentDidChange(nil, change(uri, 2, edit(0, 0, 0, 0, "a"), edit(0, 1, 0, 2, "X"))))
	assert.Equal(t, "aXc", content(t, s, uri))

	require.NoError(t, s.textDocumentDidChange(nil, change(uri, 3, protocol.TextDocumentContentChangeEventWhole{Text: "é!\nz"})))
	assert.Equal(t, "é!\nz", content(t, s, uri))

	// Characters count UTF-16 code units: "!" starts at character 1.
	require.NoError(t, s.textDocumentDidChange(nil, change(uri, 4, edit(0, 1, 0, 2, "?"))))
	assert.Equal(t, "é?\nz", content(t, s, uri))

	doc, err := s.Documents().Document(uri)
	require.NoError(t, err)
	assert.EqualValues(t, 4, doc.Version())
}

func TestDidChange_Rejected(t *testing.T) {
	s, _ := newServer(t, nil)
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "abc")

	err := s.textDocumentDidChange(nil, change(uri, 2, edit(0, 0, 0, 1, "x"), edit(5, 0, 5, 0, "y")))
	assert.ErrorContains(t, err, "change 1")
	assert.Equal(t, "abc", content(t, s, uri))

	err = s.textDocumentDidChange(nil, change(uri, 3, "bogus"))
	assert.ErrorContains(t, err, "unsupported content change")

	err = s.textDocumentDidChange(nil, change("file:///other.sm", 2, edit(0, 0, 0, 0, "x")))
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestDidCloseAndShutdown(t *testing.T) {
	s, _ := newServer(t, nil)
	open(t, s, "file:///a.sm", "sm", "")
	open(t, s, "file:///a.sm", "sm", "")
	open(t, s, "file:///b.sm", "sm", "")

	closeDoc := func(uri string) error {
		return s.textDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
	}
	require.NoError(t, closeDoc("file:///a.sm"))
	assert.Equal(t, 1, s.Documents().OpenCount("file:///a.sm"))
	require.NoError(t, closeDoc("file:///a.sm"))
	assert.Equal(t, 0, s.Documents().OpenCount("file:///a.sm"))
	assert.Error(t, closeDoc("file:///a.sm"))

	require.NoError(t, s.shutdown(nil))
	assert.Empty(t, s.Documents().URIs())
}

func TestGrammarWatcher(t *testing.T) {
	s, path := newServer(t, nil)
	uri := "file:///work/a.sm"
	open(t, s, uri, "sm", "")

	w := NewGrammarWatcher(s, time.Hour)
	assert.Equal(t, 0, w.scan())

	grown := strings.Replace(smGrammar, "{ state | config }", "{ state | config | extra }", 1) +
		"extra = \"import\" ID .\n"
	writeFile(t, path, grown)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	assert.Equal(t, 1, w.scan())
	assert.ElementsMatch(t, []string{"state", "config", "import"}, complete(t, s, uri, 0, 0))

	// A broken grammar keeps the running version.
	writeFile(t, path, "definitions = missing .\n")
	later = later.Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.Equal(t, 0, w.scan())
	assert.ElementsMatch(t, []string{"state", "config", "import"}, complete(t, s, uri, 0, 0))
}
