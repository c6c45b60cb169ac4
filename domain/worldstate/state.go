package worldstate

import (
	"encoding/binary"
	"math"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NoLimit disables the early stop in MissingCount.
const NoLimit = 0

// State is a sparse mapping from keys to values. A missing key means the
// fact is unknown, never a default value.
//
// State is not safe for concurrent mutation. The planner only ever works on
// clones, and an agent's memory is written by its own tick.
type State struct {
	values map[Key]Value
}

// New creates an empty state.
func New() *State {
	return &State{values: make(map[Key]Value)}
}

// FromMap creates a state from plain Go values.
func FromMap(m map[string]any) *State {
	s := &State{values: make(map[Key]Value, len(m))}
	for k, v := range m {
		s.values[Key(k)] = FromInterface(v)
	}
	return s
}

// With sets key to v and returns s for chaining.
func (s *State) With(key Key, v Value) *State {
	s.Set(key, v)
	return s
}

// Set stores v under key.
func (s *State) Set(key Key, v Value) {
	if s.values == nil {
		s.values = make(map[Key]Value)
	}
	s.values[key] = v
}

// SetBool stores a boolean.
func (s *State) SetBool(key Key, b bool) { s.Set(key, Bool(b)) }

// SetInt stores an integer.
func (s *State) SetInt(key Key, i int64) { s.Set(key, Int(i)) }

// SetFloat stores a float.
func (s *State) SetFloat(key Key, f float64) { s.Set(key, Float(f)) }

// SetObject stores an object reference.
func (s *State) SetObject(key Key, o any) { s.Set(key, Object(o)) }

// Get returns the value under key.
func (s *State) Get(key Key) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Has reports whether key is present.
func (s *State) Has(key Key) bool {
	_, ok := s.Get(key)
	return ok
}

// Remove deletes key.
func (s *State) Remove(key Key) {
	if s == nil {
		return
	}
	delete(s.values, key)
}

// Clear removes all keys.
func (s *State) Clear() {
	if s == nil {
		return
	}
	clear(s.values)
}

// Len returns the number of keys.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Keys returns the keys in sorted order.
func (s *State) Keys() []Key {
	if s == nil {
		return nil
	}
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Range calls fn for every entry in unspecified order until fn returns false.
func (s *State) Range(fn func(Key, Value) bool) {
	if s == nil {
		return
	}
	for k, v := range s.values {
		if !fn(k, v) {
			return
		}
	}
}

// Clone returns a deep copy of the key/value map. Object references are
// shared.
func (s *State) Clone() *State {
	c := &State{values: make(map[Key]Value, s.Len())}
	if s == nil {
		return c
	}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

// Apply returns a clone of s with every entry of effects written over it.
func (s *State) Apply(effects *State) *State {
	c := s.Clone()
	effects.Range(func(k Key, v Value) bool {
		c.values[k] = v
		return true
	})
	return c
}

// MeetsGoal reports whether every entry of goal is present in s with an
// equal value. An empty goal is always met.
func (s *State) MeetsGoal(goal *State) bool {
	return s.MissingCount(goal, 1) == 0
}

// MissingCount counts goal entries that are absent or different in s. When
// stopAt is positive counting stops once it is reached.
func (s *State) MissingCount(goal *State, stopAt int) int {
	missing := 0
	goal.Range(func(k Key, want Value) bool {
		got, ok := s.Get(k)
		if !ok || !got.Equal(want) {
			missing++
			if stopAt > 0 && missing >= stopAt {
				return false
			}
		}
		return true
	})
	return missing
}

// CollectMissing returns the goal entries not satisfied by s.
func (s *State) CollectMissing(goal *State) *State {
	out := New()
	goal.Range(func(k Key, want Value) bool {
		got, ok := s.Get(k)
		if !ok || !got.Equal(want) {
			out.values[k] = want
		}
		return true
	})
	return out
}

// Equal reports whether both states hold the same keys with equal values.
func (s *State) Equal(other *State) bool {
	if s.Len() != other.Len() {
		return false
	}
	equal := true
	s.Range(func(k Key, v Value) bool {
		ov, ok := other.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
		}
		return equal
	})
	return equal
}

// Hash returns a hash that is independent of insertion order and agrees
// with Equal: equal states always hash the same.
func (s *State) Hash() uint64 {
	var sum uint64
	var buf [9]byte
	s.Range(func(k Key, v Value) bool {
		d := xxhash.New()
		_, _ = d.WriteString(string(k))
		buf[0] = byte(v.kind)
		switch v.kind {
		case KindBool:
			var b uint64
			if v.b {
				b = 1
			}
			binary.LittleEndian.PutUint64(buf[1:], b)
		case KindInt:
			binary.LittleEndian.PutUint64(buf[1:], uint64(v.i))
		case KindFloat:
			binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v.f))
		default:
			binary.LittleEndian.PutUint64(buf[1:], 0)
		}
		_, _ = d.Write(buf[:])
		sum += mix(d.Sum64())
		return true
	})
	return sum
}

// String renders the state with sorted keys.
func (s *State) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := s.Get(k)
		b.WriteString(string(k))
		b.WriteByte('=')
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Map returns the state as plain Go values.
func (s *State) Map() map[string]any {
	m := make(map[string]any, s.Len())
	s.Range(func(k Key, v Value) bool {
		m[string(k)] = v.Interface()
		return true
	})
	return m
}

// mix spreads entry hashes before they are summed so that
// structurally similar entries do not cancel out.
func mix(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return h
}
