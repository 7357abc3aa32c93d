package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalJSON renders v as JSON. Numeric values are emitted as a raw
// (unquoted) number token using their stored canonical lexeme, so wide
// integers and fractional values round-trip exactly instead of passing
// through a float64.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumeric:
		if v.num == "" {
			return nil, fmt.Errorf("value: empty numeric lexeme")
		}
		return []byte(v.num), nil
	case KindString:
		return json.Marshal(v.str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, el := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := el.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindMap:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON decodes data into v, preserving numeric lexemes exactly via
// json.Number instead of collapsing them into float64.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var any interface{}
	if err := dec.Decode(&any); err != nil {
		return err
	}
	*v = FromAny(any)
	return nil
}

// FromAny converts a generic decoded tree (as produced by
// json.Decoder.UseNumber, or structurally equivalent trees from YAML/TOML
// decoders) into a Value. Recognized leaf types: nil, bool, string,
// json.Number, float64, float32, int, int64, uint64. Recognized containers: []interface{}
// and map[string]interface{} (or map[interface{}]interface{}, as some YAML
// decoders produce for non-string keys coerced to their string form).
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Numeric(t.String())
	case float64:
		return Numeric(strconv.FormatFloat(t, 'g', -1, 64))
	case float32:
		return Numeric(strconv.FormatFloat(float64(t), 'g', -1, 32))
	case int:
		return Numeric(strconv.Itoa(t))
	case int64:
		return Numeric(strconv.FormatInt(t, 10))
	case uint64:
		return Numeric(strconv.FormatUint(t, 10))
	case []interface{}:
		els := make([]Value, len(t))
		for i, el := range t {
			els[i] = FromAny(el)
		}
		return Array(els)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[k] = FromAny(el)
		}
		return Map(m)
	case map[interface{}]interface{}:
		m := make(map[string]Value, len(t))
		for k, el := range t {
			m[fmt.Sprint(k)] = FromAny(el)
		}
		return Map(m)
	default:
		// Unrecognized scalar type from an exotic decoder: fall back to its
		// string form rather than losing the value entirely.
		return String(fmt.Sprint(t))
	}
}

// ToAny converts v into a generic tree of nil/bool/string/[]interface{}/
// map[string]interface{}, suitable for encoders (e.g. YAML, TOML) that
// accept `any` rather than Value directly. Numeric values are parsed back
// into int64 or float64 on a best-effort basis; a lexeme that round-trips
// through neither (e.g. one wider than 64 bits) is passed through as its
// original decimal string, which is lossy for encoders that do not accept
// string-typed numbers but preserves the information for those that do.
func ToAny(v Value) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumeric:
		if i, err := strconv.ParseInt(v.num, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(v.num, 64); err == nil {
			return f
		}
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, el := range v.arr {
			out[i] = ToAny(el)
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, el := range v.m {
			out[k] = ToAny(el)
		}
		return out
	default:
		return nil
	}
}
