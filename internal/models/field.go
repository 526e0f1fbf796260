package models

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value for partial updates. A field absent from the
// request leaves Set false; an explicit JSON null sets Null; anything else
// carries a value. Equality against the stored value is ambiguous when a
// value is legitimately reset to its original, so changed/unchanged is
// tagged explicitly instead.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// FieldOf wraps a concrete value.
func FieldOf[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// NullField marks a field as explicitly cleared.
func NullField[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Ptr returns a pointer view: nil for null, the value otherwise. Panics are
// avoided by design; an unset field also yields nil.
func (f Field[T]) Ptr() *T {
	if !f.Set || f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(data, []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
