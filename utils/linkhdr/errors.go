package linkhdr

import (
	"errors"
	"fmt"
)

var (
	ErrExpectedOpenAngle              = errors.New("expected '<' for uri")
	ErrExpectedCloseAngle             = errors.New("expected '>' for uri")
	ErrExpectedSeparatorOrTermination = errors.New("expected either ';' for next param, ',' for next uri or the end of the header")
	ErrMissingEquals                  = errors.New("expected '=' in param")
	ErrUnclosedQuote                  = errors.New(`unclosed '"' in param value`)

	// ErrRelativeURI is wrapped by InvalidURIError when a next link has no scheme.
	ErrRelativeURI = errors.New("uri is not absolute")
)

// SyntaxError is returned when the header does not match the Link grammar.
// Offset is the byte offset of the link-value that failed to parse.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid link header: link-value at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// InvalidURIError is returned when a next link can not be parsed as a URL.
type InvalidURIError struct {
	URI string
	Err error
}

func (e *InvalidURIError) Error() string {
	return fmt.Sprintf("invalid link header: invalid uri %q: %v", e.URI, e.Err)
}

func (e *InvalidURIError) Unwrap() error {
	return e.Err
}
