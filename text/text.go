// Package text provides an immutable view over document content.
//
// A Text never changes once created. Slicing and splitting share the
// underlying storage; only Replace allocates.
package text

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when an offset lies outside the text.
var ErrOutOfRange = errors.New("out of range")

// Text is an immutable sequence of bytes. The zero value is the empty text.
type Text struct {
	s string
}

// New wraps s.
func New(s string) Text {
	return Text{s: s}
}

// FromBytes copies b into a new Text.
func FromBytes(b []byte) Text {
	return Text{s: string(b)}
}

// Len returns the length in bytes.
func (t Text) Len() int {
	return len(t.s)
}

// IsEmpty reports whether the text has no content.
func (t Text) IsEmpty() bool {
	return len(t.s) == 0
}

// String returns the content. No copy is made.
func (t Text) String() string {
	return t.s
}

// ByteAt returns the byte at offset i.
func (t Text) ByteAt(i int) (byte, error) {
	if i < 0 || i >= len(t.s) {
		return 0, fmt.Errorf("offset %d (length %d): %w", i, len(t.s), ErrOutOfRange)
	}
	return t.s[i], nil
}

// Slice returns the text in [start, end).
func (t Text) Slice(start, end int) (Text, error) {
	if err := t.checkRange(start, end); err != nil {
		return Text{}, err
	}
	return Text{s: t.s[start:end]}, nil
}

// Split returns the text before and after offset at.
func (t Text) Split(at int) (Text, Text, error) {
	if at < 0 || at > len(t.s) {
		return Text{}, Text{}, fmt.Errorf("split at %d (length %d): %w", at, len(t.s), ErrOutOfRange)
	}
	return Text{s: t.s[:at]}, Text{s: t.s[at:]}, nil
}

// Replace returns a new Text with [start, end) replaced by with.
func (t Text) Replace(start, end int, with string) (Text, error) {
	if err := t.checkRange(start, end); err != nil {
		return Text{}, err
	}
	var sb strings.Builder
	sb.Grow(len(t.s) - (end - start) + len(with))
	sb.WriteString(t.s[:start])
	sb.WriteString(with)
	sb.WriteString(t.s[end:])
	return Text{s: sb.String()}, nil
}

// Equal reports whether both texts hold the same content.
func (t Text) Equal(other Text) bool {
	return t.s == other.s
}

func (t Text) checkRange(start, end int) error {
	if start < 0 || end > len(t.s) || start > end {
		return fmt.Errorf("range [%d,%d) (length %d): %w", start, end, len(t.s), ErrOutOfRange)
	}
	return nil
}
