// Package bag provides an ordered key/value container with layered merge
// semantics. Bags back a connector's and a request's headers, query
// parameters, body fields and config options.
package bag

import "sort"

// Bag is an ordered mapping with unique keys. Insertion order is preserved
// and is the order used when a bag is serialized (headers, query strings).
type Bag struct {
	keys   []string
	values map[string]any
}

// New creates an empty bag.
func New() *Bag {
	return &Bag{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// FromMap creates a bag from a map. Map iteration order is not deterministic,
// so keys are inserted in sorted order.
func FromMap(m map[string]any) *Bag {
	b := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

// FromStringMap creates a bag from a string map, keys in sorted order.
func FromStringMap(m map[string]string) *Bag {
	b := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

// Set stores a value under key. Setting an existing key replaces its value
// but keeps the key's original position.
func (b *Bag) Set(key string, value any) *Bag {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
	return b
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// GetString returns the value under key rendered as a string, or "" when the
// key is absent or the value is not a string.
func (b *Bag) GetString(key string) string {
	if v, ok := b.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Has reports whether key is present.
func (b *Bag) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Remove deletes key from the bag.
func (b *Bag) Remove(key string) *Bag {
	if _, ok := b.values[key]; !ok {
		return b
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	return b
}

// Len returns the number of entries.
func (b *Bag) Len() int {
	return len(b.keys)
}

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)
	return keys
}

// All returns a copy of the entries as a map. Order is lost; use Pairs when
// order matters.
func (b *Bag) All() map[string]any {
	m := make(map[string]any, len(b.values))
	for k, v := range b.values {
		m[k] = v
	}
	return m
}

// Pair is a single bag entry.
type Pair struct {
	Key   string
	Value any
}

// Pairs returns the entries in insertion order.
func (b *Bag) Pairs() []Pair {
	pairs := make([]Pair, 0, len(b.keys))
	for _, k := range b.keys {
		pairs = append(pairs, Pair{Key: k, Value: b.values[k]})
	}
	return pairs
}

// Clone returns an independent copy of the bag. Values are copied shallowly.
func (b *Bag) Clone() *Bag {
	c := &Bag{
		keys:   make([]string, len(b.keys)),
		values: make(map[string]any, len(b.values)),
	}
	copy(c.keys, b.keys)
	for k, v := range b.values {
		c.values[k] = v
	}
	return c
}

// Merge combines bags into a new bag without mutating any source. Later bags
// overwrite earlier ones by key; an overwritten entry keeps the position it
// had in the earlier bag (stable merge).
func Merge(bags ...*Bag) *Bag {
	merged := New()
	for _, b := range bags {
		if b == nil {
			continue
		}
		for _, k := range b.keys {
			merged.Set(k, b.values[k])
		}
	}
	return merged
}
