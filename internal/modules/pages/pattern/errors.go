package pattern

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is wrapped by every *ParseError.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrEmptyPattern reports a template whose pattern is blank.
	ErrEmptyPattern = errors.New("empty pattern")
)

// ParseError describes where tokenizing failed.
type ParseError struct {
	Pos   int
	Delim byte
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid pattern at offset %d (%q): %s", e.Pos, e.Delim, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrInvalidPattern }
