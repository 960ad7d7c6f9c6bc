package pointer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/goflatten/internal/models"
)

func sampleDocument() models.Value {
	return models.FromInterface(map[string]any{
		"foo": []any{"bar", "baz"},
		"":    json.Number("0"),
		"a/b": json.Number("1"),
		"m~n": json.Number("8"),
		"nested": map[string]any{
			"items": []any{
				map[string]any{"id": json.Number("7")},
			},
		},
	})
}

func TestResolve(t *testing.T) {
	doc := sampleDocument()

	tests := []struct {
		name     string
		ptr      string
		expected models.Value
	}{
		{"whole document", "", doc},
		{"mapping key", "/foo", models.Sequence(models.Scalar("bar"), models.Scalar("baz"))},
		{"sequence index", "/foo/0", models.Scalar("bar")},
		{"empty key", "/", models.Scalar(json.Number("0"))},
		{"escaped slash", "/a~1b", models.Scalar(json.Number("1"))},
		{"escaped tilde", "/m~0n", models.Scalar(json.Number("8"))},
		{"deep path", "/nested/items/0/id", models.Scalar(json.Number("7"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := Resolve(doc, tt.ptr)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(actual))
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	doc := sampleDocument()

	tests := []struct {
		name    string
		ptr     string
		wantErr error
	}{
		{"missing prefix", "foo", ErrInvalidPointer},
		{"missing key", "/missing", ErrNotFound},
		{"index out of range", "/foo/2", ErrNotFound},
		{"negative index", "/foo/-1", ErrNotFound},
		{"leading zero index", "/foo/01", ErrNotFound},
		{"append marker", "/foo/-", ErrNotFound},
		{"descend into scalar", "/foo/0/x", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(doc, tt.ptr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolve_ErrorNamesPath(t *testing.T) {
	_, err := Resolve(sampleDocument(), "/nested/nope/deeper")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"/nested/nope"`)
}

func TestEscapeAndJoin(t *testing.T) {
	assert.Equal(t, "a~1b", Escape("a/b"))
	assert.Equal(t, "m~0n", Escape("m~n"))
	assert.Equal(t, "~01", Escape("~1"))
	assert.Equal(t, "/users/a~1b", Join("/users", "a/b"))
}

func TestParse(t *testing.T) {
	tokens, err := Parse("/a~1b/~01/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b", "~1", ""}, tokens)

	tokens, err = Parse("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestSet(t *testing.T) {
	doc := models.FromInterface(map[string]any{
		"list": []any{"a", "b"},
		"obj":  map[string]any{"x": json.Number("1")},
	})

	tests := []struct {
		name     string
		ptr      string
		expected any
	}{
		{"replace mapping entry", "/obj/x", map[string]any{"list": []any{"a", "b"}, "obj": map[string]any{"x": "v"}}},
		{"create missing path", "/new/deep", map[string]any{"list": []any{"a", "b"}, "obj": map[string]any{"x": json.Number("1")}, "new": map[string]any{"deep": "v"}}},
		{"replace sequence element", "/list/1", map[string]any{"list": []any{"a", "v"}, "obj": map[string]any{"x": json.Number("1")}}},
		{"append with dash", "/list/-", map[string]any{"list": []any{"a", "b", "v"}, "obj": map[string]any{"x": json.Number("1")}}},
		{"append with length", "/list/2", map[string]any{"list": []any{"a", "b", "v"}, "obj": map[string]any{"x": json.Number("1")}}},
		{"whole document", "", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Set(doc, tt.ptr, models.Scalar("v"))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Interface())
		})
	}

	// The input is never modified
	assert.Equal(t, map[string]any{"list": []any{"a", "b"}, "obj": map[string]any{"x": json.Number("1")}}, doc.Interface())
}

func TestSet_KeepsKeyOrder(t *testing.T) {
	m := models.NewMapping()
	m.Set("z", models.Scalar("1"))
	m.Set("a", models.Scalar("2"))

	got, err := Set(models.Map(m), "/z", models.Scalar("3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, got.Mapping().Keys())
}

func TestSet_Errors(t *testing.T) {
	doc := models.FromInterface(map[string]any{"list": []any{"a"}, "s": "scalar"})

	_, err := Set(doc, "/list/5", models.Null())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Set(doc, "/s/x", models.Null())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Set(doc, "nope", models.Null())
	assert.ErrorIs(t, err, ErrInvalidPointer)
}

func TestRemove(t *testing.T) {
	doc := models.FromInterface(map[string]any{
		"list": []any{"a", "b", "c"},
		"obj":  map[string]any{"x": json.Number("1"), "y": json.Number("2")},
	})

	got, err := Remove(doc, "/obj/x")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"list": []any{"a", "b", "c"}, "obj": map[string]any{"y": json.Number("2")}}, got.Interface())

	got, err = Remove(doc, "/list/1")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, got.Interface().(map[string]any)["list"])

	got, err = Remove(doc, "/missing/path")
	require.NoError(t, err)
	assert.True(t, doc.Equal(got))

	_, err = Remove(doc, "")
	assert.ErrorIs(t, err, ErrInvalidPointer)

	// The input is never modified
	assert.Equal(t, []any{"a", "b", "c"}, doc.Interface().(map[string]any)["list"])
}
