// Package pointer resolves RFC 6901 JSON Pointers against document trees.
package pointer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mcncl/goflatten/internal/models"
)

var (
	// ErrInvalidPointer is returned for pointers that are not empty and do not start with '/'.
	ErrInvalidPointer = errors.New("invalid JSON pointer")
	// ErrNotFound is returned when a pointer does not address a value in the document.
	ErrNotFound = errors.New("value not found")
)

var (
	unescaper = strings.NewReplacer("~1", "/", "~0", "~")
	escaper   = strings.NewReplacer("~", "~0", "/", "~1")
)

// Escape encodes a mapping key as a reference token.
func Escape(token string) string {
	return escaper.Replace(token)
}

// Join appends an escaped token to a pointer.
func Join(ptr, token string) string {
	return ptr + "/" + Escape(token)
}

// Parse splits a pointer into unescaped reference tokens.
func Parse(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("%w: %q must be empty or start with '/'", ErrInvalidPointer, ptr)
	}
	parts := strings.Split(ptr[1:], "/")
	for i, p := range parts {
		parts[i] = unescaper.Replace(p)
	}
	return parts, nil
}

// Resolve returns the value v addresses with ptr. The empty pointer
// addresses the whole document.
func Resolve(v models.Value, ptr string) (models.Value, error) {
	tokens, err := Parse(ptr)
	if err != nil {
		return models.Value{}, err
	}

	current := v
	at := ""
	for _, token := range tokens {
		at = Join(at, token)
		switch current.Kind() {
		case models.KindMapping:
			next, ok := current.Mapping().Get(token)
			if !ok {
				return models.Value{}, fmt.Errorf("%w at %q", ErrNotFound, at)
			}
			current = next
		case models.KindSequence:
			idx, err := index(token, current.Len())
			if err != nil {
				return models.Value{}, fmt.Errorf("%w at %q: %v", ErrNotFound, at, err)
			}
			current = current.Elems()[idx]
		default:
			return models.Value{}, fmt.Errorf("%w at %q: cannot descend into %s", ErrNotFound, at, current.Kind())
		}
	}
	return current, nil
}

func index(token string, length int) (int, error) {
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", token)
	}
	idx, err := strconv.Atoi(token)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid array index %q", token)
	}
	if idx >= length {
		return 0, fmt.Errorf("index %d out of range (length %d)", idx, length)
	}
	return idx, nil
}

// Set returns a copy of v with value stored at ptr. Missing mapping entries
// along the way are created; "-" or an index equal to the length appends to
// a sequence. The empty pointer replaces the whole document.
func Set(v models.Value, ptr string, value models.Value) (models.Value, error) {
	tokens, err := Parse(ptr)
	if err != nil {
		return models.Value{}, err
	}
	return setAt(v, tokens, value, "")
}

func setAt(v models.Value, tokens []string, value models.Value, at string) (models.Value, error) {
	if len(tokens) == 0 {
		return value, nil
	}
	token, rest := tokens[0], tokens[1:]
	at = Join(at, token)

	switch v.Kind() {
	case models.KindMapping:
		child, ok := v.Mapping().Get(token)
		if !ok {
			child = models.Null()
		}
		updated, err := setAt(child, rest, value, at)
		if err != nil {
			return models.Value{}, err
		}
		m := v.Mapping().Clone()
		m.Set(token, updated)
		return models.Map(m), nil
	case models.KindSequence:
		elems := slices.Clone(v.Elems())
		idx := len(elems)
		if token != "-" {
			i, err := index(token, len(elems)+1)
			if err != nil {
				return models.Value{}, fmt.Errorf("%w at %q: %v", ErrNotFound, at, err)
			}
			idx = i
		}
		child := models.Null()
		if idx < len(elems) {
			child = elems[idx]
		}
		updated, err := setAt(child, rest, value, at)
		if err != nil {
			return models.Value{}, err
		}
		if idx == len(elems) {
			return models.Sequence(append(elems, updated)...), nil
		}
		elems[idx] = updated
		return models.Sequence(elems...), nil
	case models.KindNull:
		updated, err := setAt(models.Null(), rest, value, at)
		if err != nil {
			return models.Value{}, err
		}
		m := models.NewMapping()
		m.Set(token, updated)
		return models.Map(m), nil
	default:
		return models.Value{}, fmt.Errorf("%w at %q: cannot descend into %s", ErrNotFound, at, v.Kind())
	}
}

// Remove returns a copy of v without the value at ptr. A pointer that
// addresses nothing leaves v unchanged.
func Remove(v models.Value, ptr string) (models.Value, error) {
	tokens, err := Parse(ptr)
	if err != nil {
		return models.Value{}, err
	}
	if len(tokens) == 0 {
		return models.Value{}, fmt.Errorf("%w: cannot remove the whole document", ErrInvalidPointer)
	}
	return removeAt(v, tokens), nil
}

func removeAt(v models.Value, tokens []string) models.Value {
	token, rest := tokens[0], tokens[1:]

	switch v.Kind() {
	case models.KindMapping:
		child, ok := v.Mapping().Get(token)
		if !ok {
			return v
		}
		m := v.Mapping().Clone()
		if len(rest) == 0 {
			m.Delete(token)
		} else {
			m.Set(token, removeAt(child, rest))
		}
		return models.Map(m)
	case models.KindSequence:
		elems := slices.Clone(v.Elems())
		idx, err := index(token, len(elems))
		if err != nil {
			return v
		}
		if len(rest) == 0 {
			return models.Sequence(append(elems[:idx:idx], elems[idx+1:]...)...)
		}
		elems[idx] = removeAt(elems[idx], rest)
		return models.Sequence(elems...)
	default:
		return v
	}
}
