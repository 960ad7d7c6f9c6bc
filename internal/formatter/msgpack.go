package formatter

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mcncl/goflatten/internal/models"
)

func writeMsgpack(w io.Writer, v models.Value) error {
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	if err := encodeMsgpack(enc, v); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// encodeMsgpack writes maps entry by entry so key order survives
func encodeMsgpack(enc *msgpack.Encoder, v models.Value) error {
	switch v.Kind() {
	case models.KindNull:
		return enc.EncodeNil()
	case models.KindScalar:
		return encodeMsgpackScalar(enc, v.ScalarValue())
	case models.KindSequence:
		if err := enc.EncodeArrayLen(v.Len()); err != nil {
			return err
		}
		for _, e := range v.Elems() {
			if err := encodeMsgpack(enc, e); err != nil {
				return err
			}
		}
		return nil
	case models.KindMapping:
		if err := enc.EncodeMapLen(v.Len()); err != nil {
			return err
		}
		for key, val := range v.Mapping().All() {
			if err := enc.EncodeString(key); err != nil {
				return err
			}
			if err := encodeMsgpack(enc, val); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown value kind %s", v.Kind())
	}
}

func encodeMsgpackScalar(enc *msgpack.Encoder, s any) error {
	switch t := s.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return enc.EncodeInt(i)
		}
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("invalid number literal %q", t.String())
		}
		return enc.EncodeFloat64(f)
	case string:
		return enc.EncodeString(t)
	case bool:
		return enc.EncodeBool(t)
	default:
		return enc.Encode(t)
	}
}
