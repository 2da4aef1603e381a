// Package optional provides a request field that distinguishes a key that was
// never sent from a key sent as null and from a key sent with a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a three-state JSON field.
//
//	absent        -> Set == false
//	"key": null   -> Set == true,  Null == true
//	"key": value  -> Set == true,  Null == false, Value holds the decoded value
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a field explicitly set to null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// HasValue reports whether the field was sent with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr returns a pointer to the value, or nil when unset or null.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// including when its value is null.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON renders unset and null fields as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
