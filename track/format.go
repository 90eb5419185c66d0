package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"go.uber.org/zap"
)

// Format is one XML track dialect.
type Format interface {
	Name() string
	// Sniff reports whether a document with this root element belongs to the format.
	Sniff(root xml.Name) bool
	// Parse decodes one document into samples, honouring the filter.
	// Dropped records are logged to log; document-level failures return a *ParseError.
	Parse(doc []byte, f Filter, log *zap.Logger) ([]Sample, error)
}

// Registry selects a Format by the document's root element.
type Registry struct {
	formats []Format
}

func NewRegistry(formats ...Format) *Registry {
	return &Registry{formats: formats}
}

// DefaultRegistry knows GPX and TCX.
func DefaultRegistry() *Registry {
	return NewRegistry(GPX{}, TCX{})
}

func (r *Registry) Register(f Format) { r.formats = append(r.formats, f) }

// Lookup returns the first registered format accepting root.
func (r *Registry) Lookup(root xml.Name) (Format, bool) {
	for _, f := range r.formats {
		if f.Sniff(root) {
			return f, true
		}
	}
	return nil, false
}

// Parse sniffs doc's root element and hands the document to the matching format.
func (r *Registry) Parse(doc []byte, f Filter, log *zap.Logger) ([]Sample, Format, error) {
	root, err := sniffRoot(doc)
	if err != nil {
		return nil, nil, err
	}
	format, ok := r.Lookup(root)
	if !ok {
		return nil, nil, parseErr(ErrUnexpectedRoot, 0, "no format for root <%s>", root.Local)
	}
	pts, err := format.Parse(doc, f, log)
	return pts, format, err
}

// sniffRoot returns the name of the first start element.
func sniffRoot(doc []byte) (xml.Name, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return xml.Name{}, parseErr(ErrUnexpectedRoot, dec.InputOffset(), "no root element")
		}
		if err != nil {
			return xml.Name{}, tokenErr(err, dec.InputOffset())
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name, nil
		}
	}
}
