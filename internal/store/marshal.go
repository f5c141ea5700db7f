package store

import (
	"fmt"

	"github.com/roach88/featuregraph/internal/ir"
)

// marshalValue converts a property value to canonical JSON TEXT for storage.
func marshalValue(v ir.IRValue) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// unmarshalValue parses a stored value. Canonical JSON writes integral
// floats without a fraction, so float properties are restored from the kind.
func unmarshalValue(kind ir.PropertyKind, data string) (ir.IRValue, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	if n, ok := v.(ir.IRInt); ok && kind == ir.KindFloat {
		return ir.IRFloat(n), nil
	}
	return v, nil
}

// marshalTargets converts link target names to a canonical JSON array.
func marshalTargets(targets []string) (string, error) {
	arr := make(ir.IRArray, len(targets))
	for i, t := range targets {
		arr[i] = ir.IRString(t)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal targets: %w", err)
	}
	return string(data), nil
}

// unmarshalTargets parses a stored target list. Never returns nil.
func unmarshalTargets(data string) ([]string, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal targets: %w", err)
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		return nil, fmt.Errorf("unmarshal targets: expected array, got %T", v)
	}
	targets := make([]string, len(arr))
	for i, elem := range arr {
		s, ok := elem.(ir.IRString)
		if !ok {
			return nil, fmt.Errorf("unmarshal targets: element %d is %T", i, elem)
		}
		targets[i] = string(s)
	}
	return targets, nil
}
