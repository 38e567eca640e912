// Package lsp serves grammar based completion over the Language Server
// Protocol.
package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/session"
)

const lsName = "grammarls"

var log = commonlog.GetLogger("grammarls.lsp")

type Server struct {
	version string
	handler protocol.Handler
	server  *server.Server
	docs    *session.Tracker

	cfg   *config.Config
	mu    sync.RWMutex
	langs map[string]*config.Compiled

	// content changes are converted and applied one notification at a time
	editMu sync.Mutex
}

// NewServer compiles the languages of cfg and creates a server for them.
// A language whose grammar does not compile is logged and left out; it
// is an error only when no language is left.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	langs, err := cfg.CompileAll()
	if err != nil {
		if len(langs) == 0 {
			return nil, err
		}
		log.Errorf("%s", err)
	}

	ls := &Server{
		version: version,
		docs:    session.NewTracker(),
		cfg:     cfg,
		langs:   langs,
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls, nil
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) RunTCP(address string) error {
	return ls.server.RunTCP(address)
}

func (ls *Server) RunWebSocket(address string) error {
	return ls.server.RunWebSocket(address)
}

// Documents returns the documents the client has open.
func (ls *Server) Documents() *session.Tracker {
	return ls.docs
}

// Config returns the configuration the server was created with.
func (ls *Server) Config() *config.Config {
	return ls.cfg
}

// Reload recompiles lang and replaces the running version of it. On error
// the running version is kept.
func (ls *Server) Reload(lang *config.Language) error {
	compiled, err := lang.Compile()
	if err != nil {
		return err
	}
	ls.mu.Lock()
	ls.langs[lang.ID] = compiled
	ls.mu.Unlock()
	log.Infof("reloaded %s from %s", lang.ID, lang.Grammar)
	return nil
}

// language returns the compiled language for a document.
func (ls *Server) language(languageID, uri string) (*config.Compiled, bool) {
	lang, ok := ls.cfg.Find(languageID, uriToPath(uri))
	if !ok {
		return nil, false
	}
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	compiled, ok := ls.langs[lang.ID]
	return compiled, ok
}

func (ls *Server) triggerCharacters() []string {
	seen := make(map[string]bool)
	var chars []string
	for _, lang := range ls.cfg.Languages {
		for _, c := range lang.TriggerCharacters {
			if !seen[c] {
				seen[c] = true
				chars = append(chars, c)
			}
		}
	}
	return chars
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: ls.triggerCharacters(),
	}

	if params.ClientInfo != nil {
		log.Infof("initialize: client %s", params.ClientInfo.Name)
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	for id := range ls.langs {
		log.Infof("serving %s", id)
	}
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	n := ls.docs.CloseAll()
	log.Infof("shutdown: closed %d documents (%s)", n, ls.docs.Stats())
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	item := params.TextDocument
	ls.docs.DidOpen(item.URI, item.LanguageID, item.Version, item.Text)
	if _, ok := ls.language(item.LanguageID, item.URI); !ok {
		log.Debugf("no language for %s (%s)", item.URI, item.LanguageID)
	}
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	ls.editMu.Lock()
	defer ls.editMu.Unlock()

	doc, err := ls.docs.Document(uri)
	if err != nil {
		return err
	}
	changes, err := toDocumentChanges(doc, params.ContentChanges)
	if err != nil {
		return fmt.Errorf("%s: %w", uri, err)
	}
	_, err = ls.docs.DidChange(uri, params.TextDocument.Version, changes)
	return err
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	_, err := ls.docs.DidClose(params.TextDocument.URI)
	return err
}

func uriToPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err == nil {
			return filepath.Clean(parsed.Path)
		}
	}
	return uri
}

func boolPtr(b bool) *bool {
	return &b
}
