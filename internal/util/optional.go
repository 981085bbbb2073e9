// Package util carries the small generic helpers the rest of the module
// shares: optional values that map onto SQL NULL and JSON null, and random
// token generation for physical storage keys.
package util

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Optional is a value that may be absent, without pointer aliasing. The
// zero value is None. Records use it for nullable columns (an employee
// without a department, a file never opened) and it round-trips through
// both JSON and the SQL driver.
type Optional[T any] struct {
	Val   T
	IsSet bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Val: v, IsSet: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Unwrap returns the value and panics when absent. Callers check IsSet or
// use UnwrapOr unless absence is a programming error.
func (o Optional[T]) Unwrap() T {
	if !o.IsSet {
		panic("called Unwrap on a None value")
	}
	return o.Val
}

func (o Optional[T]) UnwrapOr(defaultVal T) T {
	if !o.IsSet {
		return defaultVal
	}
	return o.Val
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.IsSet {
		return []byte("null"), nil
	}
	return json.Marshal(o.Val)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		o.IsSet = false
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Val = v
	o.IsSet = true
	return nil
}

// Scan implements sql.Scanner. SQL NULL becomes None; otherwise the value
// is delegated to T's own Scanner when it has one.
func (o *Optional[T]) Scan(value any) error {
	if value == nil {
		var zero T
		o.Val = zero
		o.IsSet = false
		return nil
	}

	var v T
	switch t := any(&v).(type) {
	case sql.Scanner:
		if err := t.Scan(value); err != nil {
			return err
		}
	default:
		v = value.(T)
	}

	o.Val = v
	o.IsSet = true
	return nil
}

// Value implements driver.Valuer. None becomes SQL NULL; otherwise the
// value is delegated to T's own Valuer when it has one.
func (o Optional[T]) Value() (driver.Value, error) {
	if !o.IsSet {
		return nil, nil
	}
	switch t := any(o.Val).(type) {
	case driver.Valuer:
		return t.Value()
	default:
		return o.Val, nil
	}
}

func (o Optional[T]) String() string {
	if !o.IsSet {
		return ""
	}
	return fmt.Sprintf("%v", o.Val)
}
