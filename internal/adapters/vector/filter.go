package vector

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Matches evaluates f against metadata the way Pinecone does: list-valued
// fields match $eq and $in when any element matches.
func (f Filter) Matches(meta map[string]any) (bool, error) {
	for field, ops := range f {
		values := asList(meta[field])
		for op, operand := range ops {
			ok, err := evalOp(op, values, operand)
			if err != nil {
				return false, fmt.Errorf("field %q: %w", field, err)
			}
			if !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

func evalOp(op string, values []any, operand any) (bool, error) {
	switch op {
	case "$eq":
		return anyMatch(values, func(v any) bool { return equal(v, operand) }), nil
	case "$ne":
		return !anyMatch(values, func(v any) bool { return equal(v, operand) }), nil
	case "$in":
		set := asList(operand)
		return anyMatch(values, func(v any) bool { return contains(set, v) }), nil
	case "$nin":
		set := asList(operand)
		return !anyMatch(values, func(v any) bool { return contains(set, v) }), nil
	case "$gt", "$gte", "$lt", "$lte":
		want, ok := toFloat(operand)
		if !ok {
			return false, fmt.Errorf("%w: %s needs a number", ErrUnsupportedFilter, op)
		}
		return anyMatch(values, func(v any) bool {
			got, ok := toFloat(v)
			if !ok {
				return false
			}
			switch op {
			case "$gt":
				return got > want
			case "$gte":
				return got >= want
			case "$lt":
				return got < want
			default:
				return got <= want
			}
		}), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedFilter, op)
	}
}

func anyMatch(values []any, fn func(any) bool) bool {
	for _, v := range values {
		if fn(v) {
			return true
		}
	}
	return false
}

func contains(set []any, v any) bool {
	return anyMatch(set, func(s any) bool { return equal(s, v) })
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return sa == sb
	}
	return reflect.DeepEqual(a, b)
}

// asList flattens slices of any element type into []any. Scalars become a
// one-element list and nil an empty one.
func asList(v any) []any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
