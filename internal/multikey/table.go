// Package multikey provides a map whose values can be found by either of two unique keys.
package multikey

import (
	"fmt"
	"typerecon/internal/metadata"
)

// ErrDuplicateKey is returned when either key of an added value is already present.
var ErrDuplicateKey = fmt.Errorf("%w: duplicate key", metadata.ErrInputConsistency)

// Table stores values in insertion order and indexes them by a primary and an optional secondary key.
type Table[K1, K2 comparable, V any] struct {
	values    []V
	primary   map[K1]int
	secondary map[K2]int
}

func New[K1, K2 comparable, V any]() *Table[K1, K2, V] {
	return &Table[K1, K2, V]{
		primary:   make(map[K1]int),
		secondary: make(map[K2]int),
	}
}

// Add inserts value under both keys. Nothing is inserted if either key already exists.
func (table *Table[K1, K2, V]) Add(key K1, secondaryKey K2, value V) error {
	if _, found := table.primary[key]; found {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	if _, found := table.secondary[secondaryKey]; found {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, secondaryKey)
	}
	table.secondary[secondaryKey] = table.insert(key, value)
	return nil
}

// AddPrimary inserts value that has no secondary key.
func (table *Table[K1, K2, V]) AddPrimary(key K1, value V) error {
	if _, found := table.primary[key]; found {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	table.insert(key, value)
	return nil
}

func (table *Table[K1, K2, V]) insert(key K1, value V) int {
	position := len(table.values)
	table.values = append(table.values, value)
	table.primary[key] = position
	return position
}

func (table *Table[K1, K2, V]) Get(key K1) (value V, found bool) {
	position, found := table.primary[key]
	if !found {
		return value, false
	}
	return table.values[position], true
}

func (table *Table[K1, K2, V]) GetBySecondary(key K2) (value V, found bool) {
	position, found := table.secondary[key]
	if !found {
		return value, false
	}
	return table.values[position], true
}

func (table *Table[K1, K2, V]) ContainsKey(key K1) bool {
	_, found := table.primary[key]
	return found
}

func (table *Table[K1, K2, V]) ContainsSecondary(key K2) bool {
	_, found := table.secondary[key]
	return found
}

// Values returns the stored values in insertion order.
func (table *Table[K1, K2, V]) Values() []V {
	return table.values
}

func (table *Table[K1, K2, V]) Len() int {
	return len(table.values)
}

func (table *Table[K1, K2, V]) Clear() {
	table.values = nil
	clear(table.primary)
	clear(table.secondary)
}
