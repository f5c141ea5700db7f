package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing property values.
// Only IRNull, IRString, IRInt, IRFloat, IRBool, IRArray, and IRObject
// implement this.
type IRValue interface {
	irValue() // Sealed - only these types implement it
}

// IRNull represents a JSON null value in the IR.
// Using an explicit type ensures all IRValues satisfy the sealed interface.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString represents a string value in the IR.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value in the IR.
type IRInt int64

func (IRInt) irValue() {}

// IRFloat represents a dimension or other real-valued property.
// NaN and infinities cannot be represented and are rejected at the
// serialization boundary.
type IRFloat float64

func (IRFloat) irValue() {}

// IRBool represents a boolean value in the IR.
type IRBool bool

func (IRBool) irValue() {}

// IRArray represents an array of IRValue elements.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject represents a map of string keys to IRValue elements.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// CRITICAL: Go's sort.Strings uses UTF-8 which produces DIFFERENT order.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	// If all compared units are equal, shorter string comes first
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// AsFloat returns the numeric value of v as a float64.
// Reports false for non-numeric values.
func AsFloat(v IRValue) (float64, bool) {
	switch val := v.(type) {
	case IRInt:
		return float64(val), true
	case IRFloat:
		return float64(val), true
	default:
		return 0, false
	}
}

// Equal reports whether two values are equal. Numbers compare by value,
// so IRInt(3) equals IRFloat(3).
func Equal(a, b IRValue) bool {
	if fa, ok := AsFloat(a); ok {
		fb, ok := AsFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case IRNull:
		_, ok := b.(IRNull)
		return ok
	case IRString:
		bv, ok := b.(IRString)
		return ok && av == bv
	case IRBool:
		bv, ok := b.(IRBool)
		return ok && av == bv
	case IRArray:
		bv, ok := b.(IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case IRObject:
		bv, ok := b.(IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromGo converts a decoded YAML/JSON value into an IRValue.
// Accepts the shapes produced by encoding/json, gopkg.in/yaml.v3 and
// cue.Value.Decode.
func FromGo(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return IRInt(val), nil
	case float32:
		return checkFloat(float64(val))
	case float64:
		return checkFloat(val)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return IRInt(n), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return checkFloat(f)
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func checkFloat(f float64) (IRValue, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v", f)
	}
	return IRFloat(f), nil
}

// formatFloat renders a finite float in its shortest round-trip form.
func formatFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float %v", f)
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// MarshalJSON implements json.Marshaler for IRObject with sorted keys (RFC 8785 ordering).
// NOTE: This is NOT canonical marshaling - may have HTML escaping. Use
// MarshalCanonical for content-addressed hashing.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalIRValue marshals an IRValue to JSON bytes.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRFloat:
		return formatFloat(float64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemBytes, err := MarshalIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(elemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// UnmarshalIRValue decodes JSON produced by MarshalIRValue.
// Integers decode as IRInt, anything with a fraction or exponent as IRFloat.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}
