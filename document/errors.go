package document

import (
	"errors"

	"github.com/dhamidi/grammarls/text"
)

var (
	// ErrOutOfRange is returned for offsets, lines or columns outside the document.
	ErrOutOfRange = text.ErrOutOfRange

	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid range")
)
