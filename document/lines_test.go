package document

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildLineIndex(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []LineEntry
	}{
		{
			name: "empty",
			text: "",
			want: []LineEntry{{Start: 0, Length: 0, Delim: 0}},
		},
		{
			name: "no delimiter",
			text: "abc",
			want: []LineEntry{{Start: 0, Length: 3}},
		},
		{
			name: "trailing newline",
			text: "line1\nline2\n",
			want: []LineEntry{
				{Start: 0, Length: 5, Delim: 1},
				{Start: 6, Length: 5, Delim: 1},
				{Start: 12, Length: 0},
			},
		},
		{
			name: "mixed delimiters",
			text: "a\r\nb\rc\nd",
			want: []LineEntry{
				{Start: 0, Length: 1, Delim: 2},
				{Start: 3, Length: 1, Delim: 1},
				{Start: 5, Length: 1, Delim: 1},
				{Start: 7, Length: 1},
			},
		},
		{
			name: "blank lines",
			text: "\n\n",
			want: []LineEntry{
				{Start: 0, Length: 0, Delim: 1},
				{Start: 1, Length: 0, Delim: 1},
				{Start: 2, Length: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := BuildLineIndex(tt.text)
			if diff := cmp.Diff(tt.want, idx.lines); diff != "" {
				t.Errorf("BuildLineIndex(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestLineOf(t *testing.T) {
	idx := BuildLineIndex("line1\nline2\n")

	tests := []struct {
		offset int
		want   int
	}{
		{0, 0},
		{5, 0}, // the delimiter belongs to the line it ends
		{6, 1},
		{11, 1},
		{12, 2},
	}
	for _, tt := range tests {
		got, err := idx.LineOf(tt.offset)
		if err != nil {
			t.Fatalf("LineOf(%d): %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("LineOf(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}

	for _, offset := range []int{-1, 13} {
		if _, err := idx.LineOf(offset); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("LineOf(%d) error = %v, want ErrOutOfRange", offset, err)
		}
	}
}

func TestOffsetOf(t *testing.T) {
	idx := BuildLineIndex("ab\ncdef")

	got, err := idx.OffsetOf(1, 2)
	if err != nil || got != 5 {
		t.Errorf("OffsetOf(1, 2) = %d, %v; want 5", got, err)
	}

	// Columns past the line content clamp to it.
	got, err = idx.OffsetOf(0, 10)
	if err != nil || got != 2 {
		t.Errorf("OffsetOf(0, 10) = %d, %v; want 2", got, err)
	}

	if _, err := idx.OffsetOf(2, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("OffsetOf(2, 0) error = %v, want ErrOutOfRange", err)
	}
}

func TestReplaceDelimiterClassification(t *testing.T) {
	content := ""
	idx := BuildLineIndex(content)
	if idx.LineCount() != 1 || idx.lines[0].Length != 0 || idx.lines[0].Delim != 0 {
		t.Fatalf("empty index = %+v", idx.lines)
	}

	content = apply(t, idx, content, 0, 0, "1")
	if idx.LineCount() != 1 || idx.lines[0].FullLength() != 1 || idx.lines[0].Delim != 0 {
		t.Fatalf("after insert \"1\": %+v", idx.lines)
	}

	content = apply(t, idx, content, 0, 1, "1\n2")
	if idx.LineCount() != 2 {
		t.Fatalf("LineCount() = %d, want 2", idx.LineCount())
	}
	first, second := idx.lines[0], idx.lines[1]
	if first.FullLength() != 2 || content[first.End():first.Next()] != "\n" {
		t.Errorf("line 0 = %+v, want length 2 ending in \\n", first)
	}
	if second.FullLength() != 1 || second.Delim != 0 {
		t.Errorf("line 1 = %+v, want length 1 without delimiter", second)
	}
}

func TestReplaceMultiLine(t *testing.T) {
	content := "line1\nline2\n"
	idx := BuildLineIndex(content)

	line, err := idx.LineOf(12)
	if err != nil || line != 2 {
		t.Fatalf("LineOf(12) = %d, %v; want 2", line, err)
	}

	content = apply(t, idx, content, 0, 12, "4\n5")
	if content != "4\n5" {
		t.Fatalf("content = %q", content)
	}
	if idx.LineCount() != 2 {
		t.Errorf("LineCount() = %d, want 2", idx.LineCount())
	}
}

func TestReplaceWholeDocumentWithEmpty(t *testing.T) {
	content := "a\nb\nc"
	idx := BuildLineIndex(content)
	apply(t, idx, content, 0, len(content), "")
	if idx.LineCount() != 1 || idx.Len() != 0 {
		t.Errorf("after clearing: %+v", idx.lines)
	}
}

func TestReplaceJoinsCarriageReturn(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		start, end int
		newText    string
	}{
		{name: "insert newline after bare CR", content: "a\rb", start: 2, end: 2, newText: "\n"},
		{name: "delete between CR and LF", content: "a\rX\nb", start: 2, end: 3, newText: ""},
		{name: "insert CR before LF", content: "a\nb", start: 1, end: 1, newText: "\r"},
		{name: "split CRLF", content: "a\r\nb", start: 2, end: 2, newText: "X"},
		{name: "delete LF of CRLF", content: "a\r\nb", start: 2, end: 3, newText: ""},
		{name: "insert at end after CR", content: "a\r", start: 2, end: 2, newText: "\nz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := BuildLineIndex(tt.content)
			got := apply(t, idx, tt.content, tt.start, tt.end, tt.newText)
			want := BuildLineIndex(got)
			if diff := cmp.Diff(want.lines, idx.lines); diff != "" {
				t.Errorf("incremental index differs from rebuilt one for %q (-want +got):\n%s", got, diff)
			}
		})
	}
}

func TestReplaceRejectsInvalidRanges(t *testing.T) {
	content := "abc"
	idx := BuildLineIndex(content)

	if err := idx.Replace(content, 2, 1, ""); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidRange", err)
	}
	if err := idx.Replace(content, 0, 4, ""); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("past end error = %v, want ErrOutOfRange", err)
	}
	if err := idx.Replace("abcd", 0, 0, ""); err == nil {
		t.Error("expected error for mismatched content")
	}
	if idx.LineCount() != 1 || idx.Len() != 3 {
		t.Errorf("index changed after rejected edits: %+v", idx.lines)
	}
}

// TestReplaceMatchesRebuild applies random edits and checks the incremental
// index against a full rescan after every step.
func TestReplaceMatchesRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pieces := []string{"", "a", "bc", "\n", "\r", "\r\n", "x\ny", "\n\n", "z\r"}

	content := "start\r\nmiddle\rend\n"
	idx := BuildLineIndex(content)
	for step := 0; step < 500; step++ {
		start := rng.Intn(len(content) + 1)
		end := start + rng.Intn(len(content)-start+1)
		newText := pieces[rng.Intn(len(pieces))] + pieces[rng.Intn(len(pieces))]

		if err := idx.Replace(content, start, end, newText); err != nil {
			t.Fatalf("step %d: Replace(%d, %d, %q): %v", step, start, end, newText, err)
		}
		content = content[:start] + newText + content[end:]

		want := BuildLineIndex(content)
		if diff := cmp.Diff(want.lines, idx.lines); diff != "" {
			t.Fatalf("step %d: content %q (-want +got):\n%s", step, content, diff)
		}
		if len(content) > 200 {
			cut := strings.Index(content[100:], "\n")
			if cut >= 0 {
				if err := idx.Replace(content, 0, 100+cut, ""); err != nil {
					t.Fatalf("step %d: trim: %v", step, err)
				}
				content = content[100+cut:]
			}
		}
	}
}

func apply(t *testing.T, idx *LineIndex, content string, start, end int, newText string) string {
	t.Helper()
	if err := idx.Replace(content, start, end, newText); err != nil {
		t.Fatalf("Replace(%d, %d, %q): %v", start, end, newText, err)
	}
	return content[:start] + newText + content[end:]
}
