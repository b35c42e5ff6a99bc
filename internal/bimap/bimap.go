// Package bimap provides a one-to-one map that can be queried and mutated
// from either side.
package bimap

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyBound is reported when Put is given a key that is already mapped.
	ErrKeyBound = errors.New("bimap: key already bound")
	// ErrValueBound is reported when Put is given a value that is already mapped.
	ErrValueBound = errors.New("bimap: value already bound")
)

// BindingError describes a rejected Put.
type BindingError struct {
	Key   any
	Value any
	Err   error // ErrKeyBound or ErrValueBound
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%v (key=%v, value=%v)", e.Err, e.Key, e.Value)
}

func (e *BindingError) Unwrap() error { return e.Err }

// Map is a bijective map. The zero value is not usable; call New.
//
// Map is not safe for concurrent use. Owners serialize access.
type Map[K, V comparable] struct {
	forward map[K]V
	inverse map[V]K
}

// New returns an empty map.
func New[K, V comparable]() *Map[K, V] {
	return &Map[K, V]{
		forward: make(map[K]V),
		inverse: make(map[V]K),
	}
}

// Put adds the pair k <-> v. It never overwrites: if k or v already takes
// part in a pair, Put returns a *BindingError and leaves the map unchanged.
func (m *Map[K, V]) Put(k K, v V) error {
	if _, ok := m.forward[k]; ok {
		return &BindingError{Key: k, Value: v, Err: ErrKeyBound}
	}
	if _, ok := m.inverse[v]; ok {
		return &BindingError{Key: k, Value: v, Err: ErrValueBound}
	}
	m.forward[k] = v
	m.inverse[v] = k
	return nil
}

// MustPut is Put for callers that treat a duplicate binding as a bug.
func (m *Map[K, V]) MustPut(k K, v V) {
	if err := m.Put(k, v); err != nil {
		panic(err)
	}
}

// Get returns the value bound to k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.forward[k]
	return v, ok
}

// GetKey returns the key bound to v.
func (m *Map[K, V]) GetKey(v V) (K, bool) {
	k, ok := m.inverse[v]
	return k, ok
}

func (m *Map[K, V]) ContainsKey(k K) bool {
	_, ok := m.forward[k]
	return ok
}

func (m *Map[K, V]) ContainsValue(v V) bool {
	_, ok := m.inverse[v]
	return ok
}

// RemoveKey drops the pair containing k and returns its value.
func (m *Map[K, V]) RemoveKey(k K) (V, bool) {
	v, ok := m.forward[k]
	if !ok {
		return v, false
	}
	delete(m.forward, k)
	delete(m.inverse, v)
	return v, true
}

// RemoveValue drops the pair containing v and returns its key.
func (m *Map[K, V]) RemoveValue(v V) (K, bool) {
	k, ok := m.inverse[v]
	if !ok {
		return k, false
	}
	delete(m.inverse, v)
	delete(m.forward, k)
	return k, true
}

// UpdateKey rebinds v to k, dropping whatever key v had before. It fails
// if k is bound to some other value.
func (m *Map[K, V]) UpdateKey(k K, v V) error {
	old, hadOld := m.RemoveValue(v)
	if err := m.Put(k, v); err != nil {
		if hadOld {
			m.forward[old] = v
			m.inverse[v] = old
		}
		return err
	}
	return nil
}

// UpdateValue rebinds k to v, dropping whatever value k had before. It
// fails if v is bound to some other key.
func (m *Map[K, V]) UpdateValue(k K, v V) error {
	old, hadOld := m.RemoveKey(k)
	if err := m.Put(k, v); err != nil {
		if hadOld {
			m.forward[k] = old
			m.inverse[old] = k
		}
		return err
	}
	return nil
}

// UpdatePair binds k <-> v, dropping any pair that contained either side.
func (m *Map[K, V]) UpdatePair(k K, v V) {
	m.RemoveKey(k)
	m.RemoveValue(v)
	m.forward[k] = v
	m.inverse[v] = k
}

// Clear removes every pair.
func (m *Map[K, V]) Clear() {
	m.forward = make(map[K]V)
	m.inverse = make(map[V]K)
}

func (m *Map[K, V]) Len() int { return len(m.forward) }

// Keys returns a snapshot of the keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.forward))
	for k := range m.forward {
		out = append(out, k)
	}
	return out
}

// Values returns a snapshot of the values in unspecified order.
func (m *Map[K, V]) Values() []V {
	out := make([]V, 0, len(m.inverse))
	for v := range m.inverse {
		out = append(out, v)
	}
	return out
}

// ToMap returns a copy of the forward direction.
func (m *Map[K, V]) ToMap() map[K]V {
	out := make(map[K]V, len(m.forward))
	for k, v := range m.forward {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := New[K, V]()
	for k, v := range m.forward {
		c.forward[k] = v
		c.inverse[v] = k
	}
	return c
}

// Inverse returns an independent copy with keys and values swapped.
// Mutating the result does not affect m.
func (m *Map[K, V]) Inverse() *Map[V, K] {
	inv := New[V, K]()
	for k, v := range m.forward {
		inv.forward[v] = k
		inv.inverse[k] = v
	}
	return inv
}
