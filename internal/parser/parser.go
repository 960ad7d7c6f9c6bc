package parser

import (
	"bytes"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mcncl/goflatten/internal/errors" // Custom errors package
	"github.com/mcncl/goflatten/internal/models"
)

// Format identifies an input encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied name to an input Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: input format %q", errors.ErrUnsupportedFormat, name)
	}
}

// FormatForPath guesses the input format from a file extension
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes one JSON value from an io.Reader, keeping object key order
func Parse(reader io.Reader) (models.Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.Document{}, errors.NewInputError("failed to read input", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Ensure numbers are read as json.Number

	root, err := decodeValue(decoder)
	if err != nil {
		if stderrors.Is(err, io.EOF) { // io.EOF before any token means empty input
			return models.Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return models.Document{}, wrapDecodeError(err)
	}

	// Anything but EOF after the root value means trailing data.
	if _, err := decoder.Token(); err == nil {
		return models.Document{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleJSON)
	} else if !stderrors.Is(err, io.EOF) {
		return models.Document{}, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	// The token stream does not check separators, so validate the raw input too.
	if !json.Valid(data) {
		return models.Document{}, syntaxError(data)
	}

	return models.Document{Root: root, RootKind: root.Kind()}, nil
}

// ParseWithFormat decodes a document in the given format
func ParseWithFormat(reader io.Reader, format Format) (models.Document, error) {
	switch format {
	case FormatYAML:
		return ParseYAML(reader)
	case FormatJSON, "":
		return Parse(reader)
	default:
		return models.Document{}, errors.NewInputError(fmt.Sprintf("unknown input format %q", format), errors.ErrUnsupportedFormat)
	}
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.Document, error) {
	return ParseStringWithFormat(jsonString, FormatJSON)
}

// ParseStringWithFormat parses a document in the given format from a string
func ParseStringWithFormat(input string, format Format) (models.Document, error) {
	if strings.TrimSpace(input) == "" {
		return models.Document{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return ParseWithFormat(strings.NewReader(input), format)
}

// ParseFile parses a document from a file path. The format is taken from the
// file extension.
func ParseFile(filePath string) (models.Document, error) {
	return ParseFileWithFormat(filePath, FormatForPath(filePath))
}

// ParseFileWithFormat parses a document in the given format from a file path
func ParseFileWithFormat(filePath string, format Format) (models.Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return models.Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return ParseWithFormat(file, format)
}

// decodeValue reads the next complete value from the token stream
func decodeValue(decoder *json.Decoder) (models.Value, error) {
	tok, err := decoder.Token()
	if err != nil {
		return models.Value{}, err
	}
	return decodeToken(decoder, tok)
}

func decodeToken(decoder *json.Decoder, tok json.Token) (models.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		default:
			return models.Value{}, fmt.Errorf("%w: unexpected delimiter %q", errors.ErrInvalidJSON, rune(t))
		}
	case nil:
		return models.Null(), nil
	case string, json.Number, bool:
		return models.Scalar(t), nil
	case float64:
		// Only reached if UseNumber is not honoured for this token.
		return models.Scalar(json.Number(strconv.FormatFloat(t, 'g', -1, 64))), nil
	default:
		return models.Value{}, fmt.Errorf("%w: unexpected token %T", errors.ErrInvalidJSON, tok)
	}
}

func decodeObject(decoder *json.Decoder) (models.Value, error) {
	m := models.NewMapping()
	for {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return models.Map(m), nil
		}
		key, ok := tok.(string)
		if !ok {
			return models.Value{}, fmt.Errorf("%w: object key must be a string, got %T", errors.ErrInvalidJSON, tok)
		}
		value, err := decodeValue(decoder)
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		m.Set(key, value)
	}
}

func decodeArray(decoder *json.Decoder) (models.Value, error) {
	elems := []models.Value{}
	for {
		tok, err := decoder.Token()
		if err != nil {
			return models.Value{}, unexpectedEOF(err)
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return models.Sequence(elems...), nil
		}
		value, err := decodeToken(decoder, tok)
		if err != nil {
			return models.Value{}, err
		}
		elems = append(elems, value)
	}
}

// unexpectedEOF turns an EOF inside a container into a syntax failure so it
// is not mistaken for empty input.
func unexpectedEOF(err error) error {
	if stderrors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected end of input", errors.ErrInvalidJSON)
	}
	return err
}

func wrapDecodeError(err error) error {
	var syntaxError *json.SyntaxError
	if stderrors.As(err, &syntaxError) {
		return errors.NewParsingError(
			fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
			errors.ErrInvalidJSON,
		)
	}
	if stderrors.Is(err, errors.ErrInvalidJSON) {
		message := strings.TrimPrefix(err.Error(), errors.ErrInvalidJSON.Error()+": ")
		return errors.NewParsingError(message, errors.ErrInvalidJSON)
	}
	return errors.NewParsingError(fmt.Sprintf("failed to decode JSON: %v", err), errors.ErrInvalidJSON)
}

// syntaxError reports where a full decode of data fails
func syntaxError(data []byte) error {
	var discard any
	if err := json.Unmarshal(data, &discard); err != nil {
		return wrapDecodeError(err)
	}
	return errors.NewParsingError("malformed JSON", errors.ErrInvalidJSON)
}
