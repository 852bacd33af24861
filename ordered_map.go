package skemajson

import (
	"iter"
	"reflect"
)

// OrderedMap is an insertion-ordered associative table. Fields hold it by
// pointer (*OrderedMap[K, V]); reads rebuild it in document order.
type OrderedMap[K comparable, V any] struct {
	index map[K]int
	keys  []K
	vals  []V
}

// NewOrderedMap allocates an OrderedMap sized for n entries.
func NewOrderedMap[K comparable, V any](n int) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int, n), keys: make([]K, 0, n), vals: make([]V, 0, n)}
}

// Set inserts or replaces the value for k. Replacing keeps the original position.
func (m *OrderedMap[K, V]) Set(k K, v V) {
	if m.index == nil {
		m.index = make(map[K]int)
	}
	if i, ok := m.index[k]; ok {
		m.vals[i] = v
		return
	}
	m.index[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Get returns the value for k.
func (m *OrderedMap[K, V]) Get(k K) (V, bool) {
	if m != nil {
		if i, ok := m.index[k]; ok {
			return m.vals[i], true
		}
	}
	var zero V
	return zero, false
}

// Delete removes k, preserving the order of the remaining entries.
func (m *OrderedMap[K, V]) Delete(k K) {
	if m == nil {
		return
	}
	i, ok := m.index[k]
	if !ok {
		return
	}
	delete(m.index, k)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
}

func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	return append([]K(nil), m.keys...)
}

// All iterates entries in insertion order.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if m == nil {
			return
		}
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// orderedShape lets the map codec drive any OrderedMap instantiation through
// reflection.
type orderedShape interface {
	orderedTypes() (key, value reflect.Type)
	orderedLen() int
	orderedEntry(i int) (key, value reflect.Value)
	orderedPut(key, value reflect.Value)
	orderedInit(n int)
}

var orderedShapeType = reflect.TypeOf((*orderedShape)(nil)).Elem()

func (m *OrderedMap[K, V]) orderedTypes() (reflect.Type, reflect.Type) {
	return reflect.TypeOf((*K)(nil)).Elem(), reflect.TypeOf((*V)(nil)).Elem()
}

func (m *OrderedMap[K, V]) orderedLen() int { return m.Len() }

func (m *OrderedMap[K, V]) orderedEntry(i int) (reflect.Value, reflect.Value) {
	return reflect.ValueOf(&m.keys[i]).Elem(), reflect.ValueOf(&m.vals[i]).Elem()
}

func (m *OrderedMap[K, V]) orderedPut(k, v reflect.Value) {
	kk, _ := k.Interface().(K)
	vv, _ := v.Interface().(V)
	m.Set(kk, vv)
}

func (m *OrderedMap[K, V]) orderedInit(n int) {
	m.index = make(map[K]int, n)
	m.keys = make([]K, 0, n)
	m.vals = make([]V, 0, n)
}

// isOrderedMapType reports whether t is *OrderedMap[K, V].
func isOrderedMapType(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct && t.Implements(orderedShapeType)
}

// isOrderedMapValueType reports whether t is OrderedMap[K, V] held by value.
func isOrderedMapValueType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(orderedShapeType)
}
