package config

import (
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// paramValue is a value of a param that can be updated when config is refreshed.
// Values are safe to read while being refreshed
type paramValue interface {
	setValue(newVal interface{}) error
}

type holder[T any] struct {
	v *atomic.Value
}

func newHolder[T any](initial T) holder[T] {
	h := holder[T]{v: &atomic.Value{}}
	h.v.Store(initial)
	return h
}

func (h holder[T]) load() T {
	return h.v.Load().(T)
}

// store keeps previous value if raw can not be converted
func (h holder[T]) store(kind string, raw interface{}, convert func(raw interface{}) (T, bool)) error {
	val, ok := convert(raw)
	if !ok {
		return errors.Errorf("Expected %s value but got: %v(%[2]T)", kind, raw)
	}
	h.v.Store(val)
	return nil
}

func toString(raw interface{}) (string, bool) {
	v, ok := raw.(string)
	return v, ok
}

// toInt accepts json numbers without fractional part and numeric strings
func toInt(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), v == math.Trunc(v)
	case float32:
		return int(v), float64(v) == math.Trunc(float64(v))
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	}
	return 0, false
}

func toBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

func toDuration(raw interface{}) (time.Duration, bool) {
	switch v := raw.(type) {
	case time.Duration:
		return v, true
	case string:
		d, err := time.ParseDuration(v)
		return d, err == nil
	}
	return 0, false
}

// StringVal represents a string param value
type StringVal struct{ holder[string] }

// NewStringVal creates a string value instance.
// Avoid using directly for anything other than unit testing
func NewStringVal(initialValue string) StringVal { return StringVal{newHolder(initialValue)} }

// Value returns current value of the param
func (val StringVal) Value() string { return val.load() }

func (val StringVal) setValue(newVal interface{}) error { return val.store("string", newVal, toString) }

// IntVal represents an int param value
type IntVal struct{ holder[int] }

// NewIntVal creates an int value instance.
// Avoid using directly for anything other than unit testing
func NewIntVal(initialValue int) IntVal { return IntVal{newHolder(initialValue)} }

// Value returns current value of the param
func (val IntVal) Value() int { return val.load() }

func (val IntVal) setValue(newVal interface{}) error { return val.store("int", newVal, toInt) }

// BoolVal represents a bool param value
type BoolVal struct{ holder[bool] }

// NewBoolVal creates a bool value instance.
// Avoid using directly for anything other than unit testing
func NewBoolVal(initialValue bool) BoolVal { return BoolVal{newHolder(initialValue)} }

// Value returns current value of the param
func (val BoolVal) Value() bool { return val.load() }

func (val BoolVal) setValue(newVal interface{}) error { return val.store("bool", newVal, toBool) }

// DurationVal represents a duration param value
type DurationVal struct{ holder[time.Duration] }

// NewDurationVal creates a duration value instance.
// Avoid using directly for anything other than unit testing
func NewDurationVal(initialValue time.Duration) DurationVal {
	return DurationVal{newHolder(initialValue)}
}

// Value returns current value of the param
func (val DurationVal) Value() time.Duration { return val.load() }

func (val DurationVal) setValue(newVal interface{}) error {
	return val.store("duration", newVal, toDuration)
}
