// Package worldstate provides the sparse key/value snapshot that goals,
// action preconditions and action effects are expressed in.
package worldstate

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Kind identifies the dynamic type carried by a Value.
type Kind uint8

// Supported value kinds.
const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindObject
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "object":
		return KindObject, nil
	default:
		return KindInvalid, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Value is a dynamically typed world-state value.
// The zero Value is invalid and never equal to anything.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	o    any
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value. All NaNs are folded into one
// that equals itself.
func Float(f float64) Value {
	switch {
	case f == 0:
		f = 0 // fold -0
	case math.IsNaN(f):
		f = math.NaN()
	}
	return Value{kind: KindFloat, f: f}
}

// Object returns an opaque object reference. Objects compare by reference.
func Object(o any) Value { return Value{kind: KindObject, o: o} }

// Kind returns the value kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value carries a kind.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float payload. Integers widen to float.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsObject returns the object payload.
func (v Value) AsObject() (any, bool) { return v.o, v.kind == KindObject }

// Interface returns the payload as a plain Go value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindObject:
		return v.o
	default:
		return nil
	}
}

// Equal reports whether two values are equal. Scalars compare by value,
// objects by reference.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindObject:
		return sameReference(v.o, other.o)
	default:
		return false
	}
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindObject:
		if v.o == nil {
			return "<nil>"
		}
		return fmt.Sprintf("<%T>", v.o)
	default:
		return "<invalid>"
	}
}

// FromInterface converts a plain Go value to a Value. Unknown types become
// objects.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	default:
		return Object(x)
	}
}

func sameReference(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if ra.Kind() == reflect.Slice && ra.Len() != rb.Len() {
			return false
		}
		return ra.Pointer() == rb.Pointer()
	}
	if ra.Comparable() {
		return a == b
	}
	return false
}
