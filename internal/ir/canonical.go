package ir

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON for hashing and
// golden comparison.
//
// Key differences from standard json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized
// 4. Floats use the shortest round-trip representation
// 5. No null (returns error)
func MarshalCanonical(v any) ([]byte, error) {
	irVal, err := FromGo(v)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(irVal)
}

func marshalCanonical(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case IRString:
		return marshalCanonicalString(string(val))
	case IRInt:
		return []byte(fmt.Sprintf("%d", val)), nil
	case IRFloat:
		return formatFloat(float64(val))
	case IRBool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case IRArray:
		return marshalCanonicalArray(val)
	case IRObject:
		return marshalCanonicalObject(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// NormalizeString returns the NFC form of s. Labels and names are compared
// in this form so visually identical strings collide.
func NormalizeString(s string) string {
	return norm.NFC.String(s)
}

// marshalCanonicalString produces canonical JSON string with NFC normalization.
// Only control characters, backslash, and quote are escaped.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := NormalizeString(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline, remove it
	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// Go escapes U+2028/U+2029 for JavaScript; RFC 8785 keeps them literal.
	result = unescapeU2028U2029(result)
	return result, nil
}

// unescapeU2028U2029 converts \u2028 and \u2029 escape sequences to literal
// characters, but preserves \\u2028/\\u2029 (escaped backslash followed by
// the text u2028/u2029).
func unescapeU2028U2029(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			// Escaped backslash: copy both bytes, never the start of an escape.
			out = append(out, '\\', '\\')
			i++
			continue
		}
		if i+6 <= len(data) && bytes.HasPrefix(data[i:], []byte(`\u202`)) &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

// marshalCanonicalArray marshals an array to canonical JSON.
func marshalCanonicalArray(arr IRArray) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// marshalCanonicalObject marshals an object to canonical JSON with RFC 8785 key ordering.
func marshalCanonicalObject(obj IRObject) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
