package worldstate

import (
	"fmt"
	"sort"
	"sync"
)

// Key identifies a fact in a world state.
type Key string

// TypedKey binds a key name to a Go type so that typed access through Put
// and Lookup cannot store a value of the wrong kind.
type TypedKey[T any] struct {
	name Key
	kind Kind
}

// Name returns the key name.
func (k TypedKey[T]) Name() Key { return k.name }

// Kind returns the declared kind.
func (k TypedKey[T]) Kind() Kind { return k.kind }

// String returns the key name.
func (k TypedKey[T]) String() string { return string(k.name) }

// BoolKey declares a boolean key in the default registry.
func BoolKey(name string) TypedKey[bool] {
	return TypedKey[bool]{name: DefaultRegistry.MustDeclare(Key(name), KindBool), kind: KindBool}
}

// IntKey declares an integer key in the default registry.
func IntKey(name string) TypedKey[int64] {
	return TypedKey[int64]{name: DefaultRegistry.MustDeclare(Key(name), KindInt), kind: KindInt}
}

// FloatKey declares a float key in the default registry.
func FloatKey(name string) TypedKey[float64] {
	return TypedKey[float64]{name: DefaultRegistry.MustDeclare(Key(name), KindFloat), kind: KindFloat}
}

// ObjectKey declares an object key in the default registry. T is usually a
// pointer type since objects compare by reference.
func ObjectKey[T any](name string) TypedKey[T] {
	return TypedKey[T]{name: DefaultRegistry.MustDeclare(Key(name), KindObject), kind: KindObject}
}

// Put stores v under k.
func Put[T any](s *State, k TypedKey[T], v T) {
	var val Value
	switch k.kind {
	case KindBool:
		val = Bool(any(v).(bool))
	case KindInt:
		val = Int(any(v).(int64))
	case KindFloat:
		val = Float(any(v).(float64))
	default:
		val = Object(v)
	}
	s.Set(k.name, val)
}

// Lookup returns the value stored under k. It reports false when the key is
// absent or holds a value of another type.
func Lookup[T any](s *State, k TypedKey[T]) (T, bool) {
	var zero T
	v, ok := s.Get(k.name)
	if !ok || v.Kind() != k.kind {
		return zero, false
	}
	t, ok := v.Interface().(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Registry records the kind of every declared key.
type Registry struct {
	mu    sync.RWMutex
	kinds map[Key]Kind
}

// DefaultRegistry holds keys declared through the typed key constructors.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Key]Kind)}
}

// Declare records key with kind. Redeclaring a key with the same kind is a
// no-op; a different kind is rejected.
func (r *Registry) Declare(key Key, kind Kind) error {
	if key == "" {
		return ErrEmptyKey
	}
	if kind == KindInvalid {
		return fmt.Errorf("%w: %s", ErrUnknownKind, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.kinds[key]; ok && existing != kind {
		return fmt.Errorf("%w: %s declared as %s, not %s", ErrKindMismatch, key, existing, kind)
	}
	r.kinds[key] = kind
	return nil
}

// MustDeclare is like Declare but panics on conflict. It is meant for
// package-level key declarations.
func (r *Registry) MustDeclare(key Key, kind Kind) Key {
	if err := r.Declare(key, kind); err != nil {
		panic(err)
	}
	return key
}

// Lookup returns the declared kind of key.
func (r *Registry) Lookup(key Key) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[key]
	return k, ok
}

// Check validates that v may be stored under key. Undeclared keys are accepted.
func (r *Registry) Check(key Key, v Value) error {
	kind, ok := r.Lookup(key)
	if !ok {
		return nil
	}
	if v.Kind() != kind {
		return fmt.Errorf("%w: %s expects %s, got %s", ErrKindMismatch, key, kind, v.Kind())
	}
	return nil
}

// CheckState validates every entry of s.
func (r *Registry) CheckState(s *State) error {
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		if err := r.Check(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Keys returns all declared keys in sorted order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]Key, 0, len(r.kinds))
	for k := range r.kinds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
