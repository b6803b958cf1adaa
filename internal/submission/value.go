// Package submission models one form submission as an ordered tree of
// scalars, lists and nested records.
package submission

import "strings"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindScalar Kind = iota
	KindList
	KindMap
)

// Value is a scalar string, a list of values, or a nested record.
// The zero Value is the empty scalar.
type Value struct {
	kind   Kind
	scalar string
	list   []Value
	record *Record
}

// Scalar wraps a string.
func Scalar(s string) Value { return Value{kind: KindScalar, scalar: s} }

// List wraps a list of values.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Strings builds a list of scalars.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, item := range items {
		list[i] = Scalar(item)
	}
	return List(list...)
}

// Map wraps a nested record.
func Map(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindMap, record: r}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Str returns the scalar, or "" for lists and maps.
func (v Value) Str() string {
	if v.kind != KindScalar {
		return ""
	}
	return v.scalar
}

// Items returns the list elements, nil for other kinds.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Record returns the nested record, nil for other kinds.
func (v Value) Record() *Record {
	if v.kind != KindMap {
		return nil
	}
	return v.record
}

// IsEmpty follows form semantics: "", "0", an empty list and an empty map
// all count as no answer.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return v.record == nil || v.record.Len() == 0
	default:
		return v.scalar == "" || v.scalar == "0"
	}
}

// Flatten renders v as text. Lists are joined with ", "; maps render their
// scalar leaves in key order.
func (v Value) Flatten() string {
	switch v.kind {
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, item := range v.list {
			if s := item.Flatten(); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case KindMap:
		if v.record == nil {
			return ""
		}
		parts := make([]string, 0, v.record.Len())
		for _, key := range v.record.Keys() {
			child, _ := v.record.Get(key)
			if s := child.Flatten(); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return v.scalar
	}
}

// Interface converts v to plain Go values for JSON encoding.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		return v.record
	default:
		return v.scalar
	}
}
