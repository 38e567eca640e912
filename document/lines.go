package document

import (
	"fmt"
	"slices"
	"sort"
)

// LineEntry describes one line of a document. Length excludes the line
// delimiter; Delim is the delimiter length (0 for the last line, 1 for
// "\n" or "\r", 2 for "\r\n").
type LineEntry struct {
	Start  int
	Length int
	Delim  int
}

// End returns the offset just past the line content, before the delimiter.
func (e LineEntry) End() int {
	return e.Start + e.Length
}

// FullLength returns the line length including its delimiter.
func (e LineEntry) FullLength() int {
	return e.Length + e.Delim
}

// Next returns the start offset of the following line.
func (e LineEntry) Next() int {
	return e.Start + e.Length + e.Delim
}

// LineIndex maps offsets to lines and back. It always holds at least one
// line, and the last line never has a delimiter.
type LineIndex struct {
	lines []LineEntry
}

// BuildLineIndex scans s once and records every line, splitting on "\n",
// "\r\n" and bare "\r".
func BuildLineIndex(s string) *LineIndex {
	return &LineIndex{lines: scanLines(s, 0)}
}

// scanLines splits s into lines whose offsets are shifted by base.
// The returned slice always ends with an undelimited line, which is empty
// when s ends with a delimiter.
func scanLines(s string, base int) []LineEntry {
	var lines []LineEntry
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, LineEntry{Start: base + start, Length: i - start, Delim: 1})
			start = i + 1
		case '\r':
			delim := 1
			if i+1 < len(s) && s[i+1] == '\n' {
				delim = 2
			}
			lines = append(lines, LineEntry{Start: base + start, Length: i - start, Delim: delim})
			i += delim - 1
			start = i + 1
		}
	}
	return append(lines, LineEntry{Start: base + start, Length: len(s) - start})
}

// LineCount returns the number of lines, at least 1.
func (l *LineIndex) LineCount() int {
	return len(l.lines)
}

// Len returns the length of the indexed text.
func (l *LineIndex) Len() int {
	last := l.lines[len(l.lines)-1]
	return last.End()
}

// Line returns the entry for line.
func (l *LineIndex) Line(line int) (LineEntry, error) {
	if line < 0 || line >= len(l.lines) {
		return LineEntry{}, fmt.Errorf("line %d (%d lines): %w", line, len(l.lines), ErrOutOfRange)
	}
	return l.lines[line], nil
}

// LineOf returns the line containing offset. A delimiter belongs to the
// line it terminates; offset Len() belongs to the last line.
func (l *LineIndex) LineOf(offset int) (int, error) {
	if offset < 0 || offset > l.Len() {
		return 0, fmt.Errorf("offset %d (length %d): %w", offset, l.Len(), ErrOutOfRange)
	}
	i := sort.Search(len(l.lines), func(i int) bool {
		return l.lines[i].Start > offset
	})
	return i - 1, nil
}

// OffsetOf returns the offset of column on line. Columns past the end of
// the line content are clamped to it.
func (l *LineIndex) OffsetOf(line, column int) (int, error) {
	entry, err := l.Line(line)
	if err != nil {
		return 0, err
	}
	if column < 0 {
		return 0, fmt.Errorf("column %d: %w", column, ErrOutOfRange)
	}
	return entry.Start + min(column, entry.Length), nil
}

// Replace updates the index for content[start:end] being replaced by
// newText. content is the text before the edit and must be the text the
// index was built for. Only the lines touching the edit are rescanned;
// the lines after it are shifted.
func (l *LineIndex) Replace(content string, start, end int, newText string) error {
	if len(content) != l.Len() {
		return fmt.Errorf("content length %d does not match index length %d", len(content), l.Len())
	}
	if start < 0 || end > len(content) {
		return fmt.Errorf("replace [%d,%d) (length %d): %w", start, end, len(content), ErrOutOfRange)
	}
	if start > end {
		return fmt.Errorf("replace [%d,%d): %w", start, end, ErrInvalidRange)
	}

	first, _ := l.LineOf(start)
	last, _ := l.LineOf(end)

	// A bare "\r" ending the previous line would join with a leading "\n".
	if first > 0 && start == l.lines[first].Start {
		if prev := l.lines[first-1]; prev.Delim == 1 && content[prev.End()] == '\r' {
			first--
		}
	}

	regionStart := l.lines[first].Start
	regionEnd := l.lines[last].Next()
	region := content[regionStart:start] + newText + content[end:regionEnd]

	fresh := scanLines(region, regionStart)
	if last < len(l.lines)-1 {
		// The region ends with the delimiter of an untouched line; the
		// empty remainder is the start of the next line, already indexed.
		fresh = fresh[:len(fresh)-1]
	}

	delta := len(newText) - (end - start)
	l.lines = slices.Replace(l.lines, first, last+1, fresh...)
	for i := first + len(fresh); i < len(l.lines); i++ {
		l.lines[i].Start += delta
	}
	return nil
}

// Clone returns an independent copy of the index.
func (l *LineIndex) Clone() *LineIndex {
	return &LineIndex{lines: slices.Clone(l.lines)}
}
