package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// DecodeJSON parses a JSON document, keeping object keys in order.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", kerrors.ErrParse, err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("%w: trailing data after JSON value", kerrors.ErrParse)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not a string", keyTok)
				}
				child, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(members...), nil
		case '[':
			var items []Value
			for dec.More() {
				child, err := decodeJSONValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, child)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ArrayValue(items...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case json.Number:
		return NumberLiteral(t.String()), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case nil:
		return NullValue(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// EncodeJSON renders v as indented JSON followed by a newline.
func EncodeJSON(v Value) ([]byte, error) {
	var compact bytes.Buffer
	if err := writeJSON(&compact, v); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// MarshalJSON renders v as compact JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.boolean {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		if !json.Valid([]byte(v.text)) {
			return fmt.Errorf("invalid number literal %q", v.text)
		}
		buf.WriteString(v.text)
	case String:
		return writeJSONString(buf, v.text)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %v", v.kind)
	}
	return nil
}

// writeJSONString escapes s without HTML escaping, so values like
// "a<b&c" reach sops byte for byte.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
