package track

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnexpectedRoot = errors.New("unexpected root element")
	ErrStructure      = errors.New("structural violation")
	ErrNumeric        = errors.New("malformed numeric or time value")
	ErrTruncated      = errors.New("truncated document")
)

// ParseError is a document-level failure. Kind is one of the Err* sentinels.
type ParseError struct {
	Kind   error
	Offset int64
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", e.Kind, e.Offset, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Kind }

func parseErr(kind error, off int64, format string, args ...any) error {
	return &ParseError{Kind: kind, Offset: off, Detail: fmt.Sprintf(format, args...)}
}

// tokenErr classifies an error returned by xml.Decoder.Token.
func tokenErr(err error, off int64) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		if strings.Contains(se.Msg, "unexpected EOF") {
			return parseErr(ErrTruncated, off, "line %d: %s", se.Line, se.Msg)
		}
		return parseErr(ErrStructure, off, "line %d: %s", se.Line, se.Msg)
	}
	return parseErr(ErrStructure, off, "%v", err)
}
