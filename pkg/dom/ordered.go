package dom

import "iter"

type entry[V any] struct {
	key   string
	value V
}

// OrderedMap is a string-keyed map that iterates in insertion order.
// Setting an existing key keeps its position. Deleting a key and setting
// it again moves it to the end.
//
// The zero value is ready to use.
type OrderedMap[V any] struct {
	entries []entry[V]
	index   map[string]int
}

// Set inserts or updates key.
func (m *OrderedMap[V]) Set(key string, value V) {
	if i, ok := m.index[key]; ok {
		m.entries[i].value = value
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, entry[V]{key: key, value: value})
}

// Get returns the value for key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.entries[i].value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (m *OrderedMap[V]) Delete(key string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	copy(m.entries[i:], m.entries[i+1:])
	var zero entry[V]
	m.entries[len(m.entries)-1] = zero
	m.entries = m.entries[:len(m.entries)-1]
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].key] = j
	}
	return true
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	return len(m.entries)
}

// Keys returns the keys in iteration order.
func (m *OrderedMap[V]) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.key
	}
	return keys
}

// All yields entries in iteration order.
// The map must not be modified during iteration.
func (m *OrderedMap[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, e := range m.entries {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Clear removes every entry.
func (m *OrderedMap[V]) Clear() {
	m.entries = nil
	m.index = nil
}
