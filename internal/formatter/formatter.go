package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mcncl/goflatten/internal/errors"
	"github.com/mcncl/goflatten/internal/models"
)

// Format identifies an output encoding
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// DefaultIndent is the indentation width used when none is configured
const DefaultIndent = 2

// ParseFormat maps a user-supplied name to an output Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "msgpack", "messagepack":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("%w: output format %q", errors.ErrUnsupportedFormat, name)
	}
}

// Binary reports whether the format produces non-text output
func (f Format) Binary() bool {
	return f == FormatMsgpack
}

// Formatter encodes documents, preserving mapping key order
type Formatter struct {
	format  Format
	indent  int
	compact bool
}

// Option configures a Formatter
type Option func(*Formatter)

// WithIndent sets the indentation width for JSON and YAML output
func WithIndent(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.indent = n
		}
	}
}

// WithCompact writes JSON on a single line
func WithCompact(compact bool) Option {
	return func(f *Formatter) {
		f.compact = compact
	}
}

// NewFormatter creates a new Formatter instance
func NewFormatter(format Format, opts ...Option) *Formatter {
	f := &Formatter{
		format: format,
		indent: DefaultIndent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns the encoded document
func (f *Formatter) Format(v models.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes v to w
func (f *Formatter) Write(w io.Writer, v models.Value) error {
	switch f.format {
	case FormatJSON, "":
		return f.writeJSON(w, v)
	case FormatYAML:
		return f.writeYAML(w, v)
	case FormatMsgpack:
		return writeMsgpack(w, v)
	default:
		return fmt.Errorf("%w: output format %q", errors.ErrUnsupportedFormat, f.format)
	}
}

func (f *Formatter) writeJSON(w io.Writer, v models.Value) error {
	var buf bytes.Buffer
	if err := f.encodeJSON(&buf, v, 0); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

func (f *Formatter) encodeJSON(buf *bytes.Buffer, v models.Value, level int) error {
	switch v.Kind() {
	case models.KindNull:
		buf.WriteString("null")
	case models.KindScalar:
		return encodeJSONScalar(buf, v.ScalarValue())
	case models.KindSequence:
		elems := v.Elems()
		if len(elems) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, e := range elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			f.newline(buf, level+1)
			if err := f.encodeJSON(buf, e, level+1); err != nil {
				return err
			}
		}
		f.newline(buf, level)
		buf.WriteByte(']')
	case models.KindMapping:
		m := v.Mapping()
		if m.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		i := 0
		for key, val := range m.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			f.newline(buf, level+1)
			if err := encodeJSONScalar(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if !f.compact {
				buf.WriteByte(' ')
			}
			if err := f.encodeJSON(buf, val, level+1); err != nil {
				return err
			}
		}
		f.newline(buf, level)
		buf.WriteByte('}')
	}
	return nil
}

func (f *Formatter) newline(buf *bytes.Buffer, level int) {
	if f.compact {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(" ", level*f.indent))
}

func encodeJSONScalar(buf *bytes.Buffer, s any) error {
	if n, ok := s.(json.Number); ok {
		if !isJSONNumber(string(n)) {
			return fmt.Errorf("invalid number literal %q", string(n))
		}
		buf.WriteString(string(n))
		return nil
	}
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return fmt.Errorf("failed to encode %T: %w", s, err)
	}
	buf.Write(b)
	return nil
}

// isJSONNumber reports whether s is a JSON number literal
func isJSONNumber(s string) bool {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) {
		return false
	}
	return json.Valid([]byte(s))
}
