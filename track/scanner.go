package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// scanner is a forward-only token walker that tracks the chain of open elements.
type scanner struct {
	dec   *xml.Decoder
	stack []string
	text  strings.Builder
}

func newScanner(doc []byte) *scanner {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = true
	return &scanner{dec: dec}
}

// next returns the next token, keeping the element stack current.
// A clean end of input returns io.EOF; end of input with open elements is ErrTruncated.
func (s *scanner) next() (xml.Token, error) {
	tok, err := s.dec.Token()
	if errors.Is(err, io.EOF) {
		if len(s.stack) > 0 {
			return nil, parseErr(ErrTruncated, s.offset(), "input ended inside <%s>", s.top())
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, tokenErr(err, s.offset())
	}
	switch t := tok.(type) {
	case xml.StartElement:
		s.stack = append(s.stack, t.Name.Local)
		s.text.Reset()
	case xml.EndElement:
		s.stack = s.stack[:len(s.stack)-1]
	case xml.CharData:
		s.text.Write(t)
	}
	return tok, nil
}

// root reads up to the first start element and checks its local name.
func (s *scanner) root(want string) error {
	for {
		tok, err := s.next()
		if errors.Is(err, io.EOF) {
			return parseErr(ErrUnexpectedRoot, s.offset(), "no root element, want <%s>", want)
		}
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != want {
				return parseErr(ErrUnexpectedRoot, s.offset(), "got <%s>, want <%s>", se.Name.Local, want)
			}
			return nil
		}
	}
}

// skip consumes the rest of the innermost open element, including its end tag.
func (s *scanner) skip() error {
	if err := s.dec.Skip(); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return parseErr(ErrTruncated, s.offset(), "input ended inside <%s>", s.top())
		}
		return tokenErr(err, s.offset())
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

func (s *scanner) top() string {
	if len(s.stack) == 0 {
		return ""
	}
	return s.stack[len(s.stack)-1]
}

// parent is the element enclosing the innermost open element.
func (s *scanner) parent() string {
	if len(s.stack) < 2 {
		return ""
	}
	return s.stack[len(s.stack)-2]
}

// within reports whether the innermost open element sits directly inside want.
// Called right after a start element was pushed.
func (s *scanner) within(want string) bool { return s.parent() == want }

// inside reports whether the current element, now closed, sat directly in want.
// Called right after an end element was popped.
func (s *scanner) inside(want string) bool { return s.top() == want }

func (s *scanner) offset() int64 { return s.dec.InputOffset() }

// collected returns the character data seen since the last start element.
func (s *scanner) collected() string { return strings.TrimSpace(s.text.String()) }

func (s *scanner) float(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, parseErr(ErrNumeric, s.offset(), "%s %q: %v", field, raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, parseErr(ErrNumeric, s.offset(), "%s %q: not a finite number", field, raw)
	}
	return v, nil
}

func (s *scanner) timestamp(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, parseErr(ErrNumeric, s.offset(), "%s %q: %v", field, raw, err)
	}
	return t.UTC(), nil
}

func attr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// pointBuilder collects one point record across its child elements.
type pointBuilder struct {
	lat, lng *float64
	time     *time.Time
}

func (b *pointBuilder) reset() { *b = pointBuilder{} }

// build returns the finished sample, or false with a reason when a coordinate is missing.
func (b *pointBuilder) build() (Sample, string, bool) {
	switch {
	case b.lat == nil && b.lng == nil:
		return Sample{}, "missing latitude and longitude", false
	case b.lat == nil:
		return Sample{}, "missing latitude", false
	case b.lng == nil:
		return Sample{}, "missing longitude", false
	}
	return Sample{Position: Coordinate{Lat: *b.lat, Lng: *b.lng}, Time: b.time}, "", true
}
