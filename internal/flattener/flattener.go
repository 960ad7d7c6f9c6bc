// Package flattener simplifies nested documents by collapsing singleton
// sequences and dropping empty mapping entries.
package flattener

import "github.com/mcncl/goflatten/internal/models"

// Flatten returns a structurally simplified copy of v.
//
// Sequences of length one are replaced by their flattened element, longer
// sequences are flattened element by element and empty sequences are returned
// as is. Mappings keep their key order but drop entries whose value is null or
// an empty sequence; the remaining values are flattened. Scalars pass through.
func Flatten(v models.Value) models.Value {
	switch v.Kind() {
	case models.KindSequence:
		elems := v.Elems()
		switch len(elems) {
		case 0:
			return models.Sequence()
		case 1:
			return Flatten(elems[0])
		}
		out := make([]models.Value, len(elems))
		for i, e := range elems {
			out[i] = Flatten(e)
		}
		return models.Sequence(out...)
	case models.KindMapping:
		out := models.NewMapping()
		for key, val := range v.Mapping().All() {
			if Omitted(val) {
				continue
			}
			out.Set(key, Flatten(val))
		}
		return models.Map(out)
	default:
		return v
	}
}

// Omitted reports whether a mapping entry holding v is dropped by Flatten.
func Omitted(v models.Value) bool {
	return v.IsNull() || v.IsEmptySequence()
}

// RenameKeys returns a copy of v with every mapping key passed through rename.
// When two keys rename to the same name the later value wins and the first
// position is kept.
func RenameKeys(v models.Value, rename func(string) string) models.Value {
	switch v.Kind() {
	case models.KindSequence:
		elems := v.Elems()
		out := make([]models.Value, len(elems))
		for i, e := range elems {
			out[i] = RenameKeys(e, rename)
		}
		return models.Sequence(out...)
	case models.KindMapping:
		out := models.NewMapping()
		for key, val := range v.Mapping().All() {
			out.Set(rename(key), RenameKeys(val, rename))
		}
		return models.Map(out)
	default:
		return v
	}
}
