package model

import (
	"fmt"
	"typerecon/internal/metadata"

	"github.com/elliotchance/orderedmap/v2"
)

// StringLiteral is one decoded string literal. Key is the address of the literal's usage
// record, or its ordinal for formats without a usage table.
type StringLiteral struct {
	Key  uint64
	Text string
}

// StringTable holds the string literals of an application in discovery order.
type StringTable struct {
	literals *orderedmap.OrderedMap[uint64, string]
}

func NewStringTable() *StringTable {
	return &StringTable{literals: orderedmap.NewOrderedMap[uint64, string]()}
}

// Add a literal. Keys are unique.
func (table *StringTable) Add(key uint64, text string) error {
	if existing, found := table.literals.Get(key); found {
		return fmt.Errorf("%w: string literal %#x is both %q and %q", metadata.ErrInputConsistency, key, existing, text)
	}
	table.literals.Set(key, text)
	return nil
}

func (table *StringTable) Get(key uint64) (string, bool) {
	return table.literals.Get(key)
}

func (table *StringTable) Len() int { return table.literals.Len() }

// Literals returns every literal in insertion order.
func (table *StringTable) Literals() []StringLiteral {
	literals := make([]StringLiteral, 0, table.literals.Len())
	for el := table.literals.Front(); el != nil; el = el.Next() {
		literals = append(literals, StringLiteral{Key: el.Key, Text: el.Value})
	}
	return literals
}

func (table *StringTable) Clear() {
	table.literals = orderedmap.NewOrderedMap[uint64, string]()
}
