package transformer

import (
	stderrors "errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mcncl/goflatten/internal/flattener"
	"github.com/mcncl/goflatten/internal/models"
	"github.com/mcncl/goflatten/internal/pointer"
)

func builtins() map[string]Func {
	return map[string]Func{
		"copy":         copyValue,
		"remove":       removeValue,
		"generateUuid": generateUUID,
		"flatten":      flattenValue,
	}
}

// copyValue handles copy(from, to): the source value at from is written to
// the result at to. A missing from leaves the result unchanged.
func copyValue(source, result models.Value, arg string) (models.Value, error) {
	from, to, _ := strings.Cut(arg, ",")
	value, err := pointer.Resolve(source, strings.TrimSpace(from))
	if err != nil {
		if stderrors.Is(err, pointer.ErrNotFound) {
			return result, nil
		}
		return models.Value{}, err
	}
	return pointer.Set(result, strings.TrimSpace(to), value)
}

// removeValue handles remove(ptr).
func removeValue(_, result models.Value, arg string) (models.Value, error) {
	return pointer.Remove(result, strings.TrimSpace(arg))
}

// generateUUID handles generateUuid(ptr): a random UUID string is stored at ptr.
func generateUUID(_, result models.Value, arg string) (models.Value, error) {
	return pointer.Set(result, strings.TrimSpace(arg), models.Scalar(uuid.NewString()))
}

// flattenValue handles flatten() and flatten(ptr): the source, or the part of
// it at ptr, is flattened.
func flattenValue(source, _ models.Value, arg string) (models.Value, error) {
	value, err := pointer.Resolve(source, strings.TrimSpace(arg))
	if err != nil {
		return models.Value{}, err
	}
	return flattener.Flatten(value), nil
}
