// Package optional provides a tri-state JSON field that distinguishes a key that was
// not sent from one that was sent as null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds a request value in one of three states: absent, explicit null, or a value.
// The zero Field is absent.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Absent returns a Field that was not supplied.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Null returns a Field supplied as an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Of returns a Field supplied with a value.
func Of[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Present reports whether the field was supplied at all, null included.
func (f Field[T]) Present() bool { return f.present }

// IsNull reports whether the field was supplied as an explicit null.
func (f Field[T]) IsNull() bool { return f.present && f.null }

// HasValue reports whether the field was supplied with a non-null value.
func (f Field[T]) HasValue() bool { return f.present && !f.null }

// Value returns the supplied value and whether there was one.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.HasValue()
}

// Or returns the supplied value, or fallback when the field is absent.
// An explicit null yields the zero value of T.
func (f Field[T]) Or(fallback T) T {
	if !f.present {
		return fallback
	}
	return f.value
}

// UnmarshalJSON is only invoked by encoding/json when the key exists, which is what
// marks the field present.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON writes null for absent and null fields.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
