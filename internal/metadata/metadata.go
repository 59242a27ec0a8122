// Package metadata holds the metadata tables of a compiled application and the
// binary-resident registration tables that connect them to the compiled code.
package metadata

import (
	"typerecon/internal/image"
	"typerecon/internal/stream"
)

// Metadata is the set of flat, index-addressed tables from the metadata file.
type Metadata struct {
	Version float64

	// Strings is a heap of NUL-terminated names addressed by byte offset.
	Strings        []byte
	StringLiterals []string

	TypeDefinitions          []TypeDefinition
	Methods                  []MethodDefinition
	Parameters               []ParameterDefinition
	Fields                   []FieldDefinition
	Properties               []PropertyDefinition
	Events                   []EventDefinition
	GenericContainers        []GenericContainer
	GenericParameters        []GenericParameter
	GenericConstraintIndices []int32
	InterfaceIndices         []int32
	NestedTypeIndices        []int32
}

// Registration holds the tables found in the compiled binary.
type Registration struct {
	// TypeReferences is the type usage table: the address of the runtime type record
	// for every usage index.
	TypeReferences []uint64
	// MethodPointers holds the compiled address of each method definition, 0 when absent.
	MethodPointers []uint64

	MethodSpecs []MethodSpec
	// GenericInsts holds the address of each generic instantiation record.
	GenericInsts []uint64
	// GenericMethodPointers holds the compiled address of each method spec, 0 when absent.
	GenericMethodPointers []uint64

	// MetadataUsages is nil for formats that predate the usage table.
	MetadataUsages []MetadataUsage
}

// Package is everything needed to rebuild the managed type system of one application.
type Package struct {
	Metadata     *Metadata
	Registration *Registration
	Image        image.Image
}

func (p *Package) HasMetadataUsages() bool {
	return p.Registration.MetadataUsages != nil
}

// Record returns the entry at index in table, or an IndexError naming the table.
func Record[T any](table []T, name string, index int32) (*T, error) {
	if index < 0 || int(index) >= len(table) {
		return nil, &IndexError{Table: name, Index: int64(index), Len: len(table)}
	}
	return &table[index], nil
}

// Range returns the entries [start, start+count) of table.
func Range[T any](table []T, name string, start int32, count int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	if count < 0 {
		return nil, &IndexError{Table: name, Index: int64(count), Len: len(table)}
	}
	if start < 0 || int(start)+count > len(table) {
		return nil, &IndexError{Table: name, Index: int64(start) + int64(count) - 1, Len: len(table)}
	}
	return table[start : int(start)+count], nil
}

// String reads a name from the string heap.
func (m *Metadata) String(index int32) (string, error) {
	if index < 0 || int(index) >= len(m.Strings) {
		return "", &IndexError{Table: "strings", Index: int64(index), Len: len(m.Strings)}
	}
	s, err := stream.NewReader(m.Strings[index:], 0).ReadCString()
	if err != nil {
		return "", Corrupt(err)
	}
	return s, nil
}

func (m *Metadata) TypeDefinition(index int32) (*TypeDefinition, error) {
	return Record(m.TypeDefinitions, "type definitions", index)
}

func (m *Metadata) Method(index int32) (*MethodDefinition, error) {
	return Record(m.Methods, "methods", index)
}

func (m *Metadata) GenericContainer(index int32) (*GenericContainer, error) {
	return Record(m.GenericContainers, "generic containers", index)
}

func (m *Metadata) GenericParameter(index int32) (*GenericParameter, error) {
	return Record(m.GenericParameters, "generic parameters", index)
}

func (m *Metadata) StringLiteral(index uint32) (string, error) {
	if int(index) >= len(m.StringLiterals) {
		return "", &IndexError{Table: "string literals", Index: int64(index), Len: len(m.StringLiterals)}
	}
	return m.StringLiterals[index], nil
}

// TypeReference returns the address of the runtime type record for a usage index.
func (r *Registration) TypeReference(index int32) (uint64, error) {
	va, err := Record(r.TypeReferences, "type references", index)
	if err != nil {
		return 0, err
	}
	return *va, nil
}

func (r *Registration) MethodSpec(index int32) (*MethodSpec, error) {
	return Record(r.MethodSpecs, "method specs", index)
}

func (r *Registration) GenericInst(index int32) (uint64, error) {
	va, err := Record(r.GenericInsts, "generic instantiations", index)
	if err != nil {
		return 0, err
	}
	return *va, nil
}

// MethodPointer returns the compiled address of a method definition, if it has one.
func (r *Registration) MethodPointer(index int32) (uint64, bool) {
	if index < 0 || int(index) >= len(r.MethodPointers) || r.MethodPointers[index] == 0 {
		return 0, false
	}
	return r.MethodPointers[index], true
}

// GenericMethodPointer returns the compiled address of a method spec, if it has one.
func (r *Registration) GenericMethodPointer(index int32) (uint64, bool) {
	if index < 0 || int(index) >= len(r.GenericMethodPointers) || r.GenericMethodPointers[index] == 0 {
		return 0, false
	}
	return r.GenericMethodPointers[index], true
}
