// Package document holds the text of an open document together with its
// line index, and applies edits to both as one step.
package document

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/grammarls/text"
)

var log = commonlog.GetLogger("grammarls.document")

// Document is the content of one document plus its line index. All
// methods are safe for concurrent use; an edit is never observed half
// applied.
type Document struct {
	mu         sync.RWMutex
	uri        string
	languageID string
	version    int32
	content    text.Text
	lines      *LineIndex
}

// New creates a document with the given content.
func New(uri, languageID string, version int32, content string) *Document {
	return &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		content:    text.New(content),
		lines:      BuildLineIndex(content),
	}
}

func (d *Document) URI() string {
	return d.uri
}

func (d *Document) LanguageID() string {
	return d.languageID
}

// Version returns the version attached by the last open or change.
func (d *Document) Version() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Content returns the current content.
func (d *Document) Content() text.Text {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.content
}

// Len returns the content length in bytes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.content.Len()
}

// LineCount returns the number of lines, at least 1.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lines.LineCount()
}

// Line returns the content of line without its delimiter.
func (d *Document) Line(line int) (text.Text, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, err := d.lines.Line(line)
	if err != nil {
		return text.Text{}, err
	}
	return d.content.Slice(entry.Start, entry.End())
}

// LineDelimiter returns the delimiter terminating line, or "" for the last line.
func (d *Document) LineDelimiter(line int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, err := d.lines.Line(line)
	if err != nil {
		return "", err
	}
	delim, err := d.content.Slice(entry.End(), entry.Next())
	if err != nil {
		return "", err
	}
	return delim.String(), nil
}

// DefaultLineDelimiter returns the first delimiter used in the document,
// or "\n" when the document has a single line.
func (d *Document) DefaultLineDelimiter() string {
	if d.LineCount() > 1 {
		if delim, err := d.LineDelimiter(0); err == nil {
			return delim
		}
	}
	return "\n"
}

// ToPosition converts offset to a position.
func (d *Document) ToPosition(offset int) (Position, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.toPosition(offset)
}

func (d *Document) toPosition(offset int) (Position, error) {
	line, err := d.lines.LineOf(offset)
	if err != nil {
		return Position{}, err
	}
	return Position{Line: line, Column: offset - d.lines.lines[line].Start}, nil
}

// ToRange converts the span [offset, offset+length) to a range.
func (d *Document) ToRange(offset, length int) (Range, error) {
	if length < 0 {
		return Range{}, fmt.Errorf("length %d: %w", length, ErrInvalidRange)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, err := d.toPosition(offset)
	if err != nil {
		return Range{}, err
	}
	end, err := d.toPosition(offset + length)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// Offset converts pos to an offset. It is the inverse of ToPosition; a
// column past the end of the line content is an error.
func (d *Document) Offset(pos Position) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return offsetIn(d.lines, pos)
}

func offsetIn(lines *LineIndex, pos Position) (int, error) {
	entry, err := lines.Line(pos.Line)
	if err != nil {
		return 0, err
	}
	if pos.Column < 0 || pos.Column > entry.Length {
		return 0, fmt.Errorf("column %d on line %d (length %d): %w", pos.Column, pos.Line, entry.Length, ErrOutOfRange)
	}
	return entry.Start + pos.Column, nil
}

// TextIn returns the content covered by r.
func (d *Document) TextIn(r Range) (text.Text, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, end, err := offsets(d.lines, r)
	if err != nil {
		return text.Text{}, err
	}
	return d.content.Slice(start, end)
}

// ApplyEdit replaces the text covered by r with newText.
func (d *Document) ApplyEdit(r Range, newText string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, err := replace(d.content, d.lines, r, newText)
	if err != nil {
		return err
	}
	d.content = content
	return nil
}

// SetText replaces the whole content.
func (d *Document) SetText(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.content = text.New(s)
	d.lines = BuildLineIndex(s)
}

// ApplyChanges applies changes in order, each against the result of the
// previous one, and records version. Either every change is applied or,
// on error, none is.
func (d *Document) ApplyChanges(version int32, changes []Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	content := d.content
	lines := d.lines
	if len(changes) > 1 {
		// A single change validates before mutating and can update the
		// live index in place; a batch works on a copy until it succeeds.
		lines = lines.Clone()
	}
	for i, change := range changes {
		if change.Range == nil {
			content = text.New(change.Text)
			lines = BuildLineIndex(change.Text)
			continue
		}
		next, err := replace(content, lines, *change.Range, change.Text)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		content = next
	}

	if version <= d.version && len(changes) > 0 {
		log.Warningf("%s: version %d applied after version %d", d.uri, version, d.version)
	}
	log.Debugf("%s: applied %d change(s), version %d, %d line(s)", d.uri, len(changes), version, lines.LineCount())
	d.content = content
	d.lines = lines
	d.version = version
	return nil
}

// Snapshot returns an independent copy that later edits do not affect.
func (d *Document) Snapshot() *Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Document{
		uri:        d.uri,
		languageID: d.languageID,
		version:    d.version,
		content:    d.content,
		lines:      d.lines.Clone(),
	}
}

func (d *Document) String() string {
	return fmt.Sprintf("Document(%s[%d], %d bytes)", d.uri, d.Version(), d.Len())
}

// replace applies one edit to lines in place and returns the new content.
// Nothing is modified when an error is returned.
func replace(content text.Text, lines *LineIndex, r Range, newText string) (text.Text, error) {
	start, end, err := offsets(lines, r)
	if err != nil {
		return text.Text{}, err
	}
	next, err := content.Replace(start, end, newText)
	if err != nil {
		return text.Text{}, err
	}
	if err := lines.Replace(content.String(), start, end, newText); err != nil {
		return text.Text{}, err
	}
	return next, nil
}

func offsets(lines *LineIndex, r Range) (int, int, error) {
	if r.End.Before(r.Start) {
		return 0, 0, fmt.Errorf("range %s: %w", r, ErrInvalidRange)
	}
	start, err := offsetIn(lines, r.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("range start: %w", err)
	}
	end, err := offsetIn(lines, r.End)
	if err != nil {
		return 0, 0, fmt.Errorf("range end: %w", err)
	}
	return start, end, nil
}
