package text

import (
	"errors"
	"testing"
)

func TestSlice(t *testing.T) {
	txt := New("hello world")

	tests := []struct {
		name       string
		start, end int
		want       string
		wantErr    bool
	}{
		{name: "prefix", start: 0, end: 5, want: "hello"},
		{name: "suffix", start: 6, end: 11, want: "world"},
		{name: "empty", start: 3, end: 3, want: ""},
		{name: "whole", start: 0, end: 11, want: "hello world"},
		{name: "past end", start: 6, end: 12, wantErr: true},
		{name: "negative", start: -1, end: 2, wantErr: true},
		{name: "inverted", start: 4, end: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := txt.Slice(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfRange) {
					t.Fatalf("Slice(%d, %d) error = %v, want ErrOutOfRange", tt.start, tt.end, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Slice(%d, %d): %v", tt.start, tt.end, err)
			}
			if got.String() != tt.want {
				t.Errorf("Slice(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	before, after, err := New("abcdef").Split(2)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if before.String() != "ab" || after.String() != "cdef" {
		t.Errorf("Split(2) = %q, %q", before, after)
	}

	if _, _, err := New("abc").Split(4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Split(4) error = %v, want ErrOutOfRange", err)
	}
}

func TestReplace(t *testing.T) {
	orig := New("line1\nline2\n")

	got, err := orig.Replace(0, 12, "4\n5")
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got.String() != "4\n5" {
		t.Errorf("Replace = %q, want %q", got, "4\n5")
	}
	if orig.String() != "line1\nline2\n" {
		t.Errorf("input mutated: %q", orig)
	}

	if _, err := orig.Replace(3, 20, "x"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Replace past end error = %v, want ErrOutOfRange", err)
	}
}

func TestByteAt(t *testing.T) {
	txt := New("ab")
	if b, err := txt.ByteAt(1); err != nil || b != 'b' {
		t.Errorf("ByteAt(1) = %q, %v", b, err)
	}
	if _, err := txt.ByteAt(2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ByteAt(2) error = %v, want ErrOutOfRange", err)
	}
}
