package lsp

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/grammarls/document"
)

// byteColumn converts a column counted in UTF-16 code units to a byte
// column of line. A column past the end of the line is the end of the
// line, and a column inside a surrogate pair is the start of its rune.
func byteColumn(line string, col int) int {
	units := 0
	for i, r := range line {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > col {
			return i
		}
		units += n
	}
	return len(line)
}

// utf16Column converts a byte column of line to UTF-16 code units.
func utf16Column(line string, col int) int {
	if col > len(line) {
		col = len(line)
	}
	units := 0
	for i := 0; i < col; {
		r, size := utf8.DecodeRuneInString(line[i:])
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
		i += size
	}
	return units
}

func toDocumentPosition(doc *document.Document, p protocol.Position) (document.Position, error) {
	line := int(p.Line)
	content, err := doc.Line(line)
	if err != nil {
		return document.Position{}, fmt.Errorf("position %d:%d: %w", p.Line, p.Character, err)
	}
	return document.Position{Line: line, Column: byteColumn(content.String(), int(p.Character))}, nil
}

func toDocumentRange(doc *document.Document, r protocol.Range) (document.Range, error) {
	start, err := toDocumentPosition(doc, r.Start)
	if err != nil {
		return document.Range{}, err
	}
	end, err := toDocumentPosition(doc, r.End)
	if err != nil {
		return document.Range{}, err
	}
	return document.Range{Start: start, End: end}, nil
}

func toProtocolPosition(doc *document.Document, p document.Position) (protocol.Position, error) {
	content, err := doc.Line(p.Line)
	if err != nil {
		return protocol.Position{}, err
	}
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(utf16Column(content.String(), p.Column)),
	}, nil
}

// toDocumentChanges converts the content changes of one notification.
// Each change is positioned against the result of the ones before it, so
// they are converted against a scratch copy of doc that is edited along.
func toDocumentChanges(doc *document.Document, raw []any) ([]document.Change, error) {
	scratch := doc.Snapshot()
	changes := make([]document.Change, 0, len(raw))
	for i, r := range raw {
		switch c := r.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			scratch.SetText(c.Text)
			changes = append(changes, document.Change{Text: c.Text})
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				scratch.SetText(c.Text)
				changes = append(changes, document.Change{Text: c.Text})
				continue
			}
			rng, err := toDocumentRange(scratch, *c.Range)
			if err != nil {
				return nil, fmt.Errorf("change %d: %w", i, err)
			}
			if err := scratch.ApplyEdit(rng, c.Text); err != nil {
				return nil, fmt.Errorf("change %d: %w", i, err)
			}
			changes = append(changes, document.Change{Range: &rng, Text: c.Text})
		default:
			return nil, fmt.Errorf("change %d: unsupported content change %T", i, r)
		}
	}
	return changes, nil
}
