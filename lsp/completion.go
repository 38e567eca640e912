package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/grammarls/completion"
	"github.com/dhamidi/grammarls/config"
	"github.com/dhamidi/grammarls/document"
)

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	doc, err := ls.docs.Document(uri)
	if err != nil {
		return nil, err
	}
	lang, ok := ls.language(doc.LanguageID(), uri)
	if !ok {
		return nil, nil
	}

	snap := doc.Snapshot()
	pos, err := toDocumentPosition(snap, params.Position)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	candidates, err := lang.Completer.Complete(snap, pos)
	if err != nil {
		return nil, err
	}
	log.Debugf("completion %s at %s: %d tokens, %d rules, %d states visited",
		uri, pos, len(candidates.Tokens), len(candidates.Rules), candidates.Visited)

	replace, err := prefixRange(snap, pos, candidates.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return &protocol.CompletionList{
		IsIncomplete: candidates.Truncated,
		Items:        completionItems(lang, candidates, replace),
	}, nil
}

// prefixRange returns the range of the typed prefix ending at pos, or nil
// when nothing was typed.
func prefixRange(doc *document.Document, pos document.Position, prefix string) (*protocol.Range, error) {
	if prefix == "" || len(prefix) > pos.Column {
		return nil, nil
	}
	start, err := toProtocolPosition(doc, document.Position{Line: pos.Line, Column: pos.Column - len(prefix)})
	if err != nil {
		return nil, err
	}
	end, err := toProtocolPosition(doc, pos)
	if err != nil {
		return nil, err
	}
	return &protocol.Range{Start: start, End: end}, nil
}

// completionItems turns candidates into items in discovery order. Literal
// tokens become keywords; token productions are offered by name only when
// the language asks for it. Items not starting with the typed prefix are
// dropped, and the others replace it when replace is set.
func completionItems(lang *config.Compiled, c *completion.Candidates, replace *protocol.Range) []protocol.CompletionItem {
	a := lang.Grammar.Automaton()
	items := make([]protocol.CompletionItem, 0, len(c.Tokens)+len(c.Rules))

	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if !strings.HasPrefix(label, c.Prefix) {
			return
		}
		sortText := fmt.Sprintf("%04d", len(items))
		item := protocol.CompletionItem{
			Label:    label,
			Kind:     &kind,
			SortText: &sortText,
		}
		if detail != "" {
			item.Detail = &detail
		}
		if replace != nil {
			item.TextEdit = protocol.TextEdit{Range: *replace, NewText: label}
		}
		items = append(items, item)
	}

	for _, t := range c.Tokens {
		detail := ""
		if len(t.Contexts) > 0 && len(t.Contexts[0]) > 0 {
			ctx := t.Contexts[0]
			detail = a.RuleName(ctx[len(ctx)-1])
		}
		if text, ok := lang.Grammar.LiteralText(t.Type); ok {
			add(text, protocol.CompletionItemKindKeyword, detail)
			continue
		}
		if lang.Language.NamedTokens {
			add(t.Name, protocol.CompletionItemKindText, detail)
		}
	}

	for _, r := range c.Rules {
		detail := ""
		if len(r.Path) > 0 {
			detail = a.RuleName(r.Path[len(r.Path)-1])
		}
		add(r.Name, protocol.CompletionItemKindClass, detail)
	}

	return items
}
