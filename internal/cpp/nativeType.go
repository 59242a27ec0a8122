// Package cpp models the native declarations generated for managed types and methods.
package cpp

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindPrimitive Kind = iota
	KindStruct
	KindValue
	KindReference
	KindFields
	KindVTable
	KindStatics
	KindFnPtr
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindStruct:
		return "struct"
	case KindValue:
		return "value"
	case KindReference:
		return "reference"
	case KindFields:
		return "fields"
	case KindVTable:
		return "vtable"
	case KindStatics:
		return "statics"
	case KindFnPtr:
		return "fnptr"
	}
	return "unknown"
}

// Ref is a use of a native type, by value or through a pointer.
type Ref struct {
	Type    *NativeType
	Pointer bool
	// Count is the length of a fixed-size array, zero for a scalar.
	Count int
}

func (ref Ref) String() string {
	if ref.Type == nil {
		return "void"
	}
	name := ref.Type.Name
	if ref.Pointer {
		name += "*"
	}
	return name
}

type Field struct {
	Name string
	Ref  Ref
}

func (field Field) declaration() string {
	if field.Ref.Count > 0 {
		return fmt.Sprintf("%s %s[%d];", field.Ref, field.Name, field.Ref.Count)
	}
	return fmt.Sprintf("%s %s;", field.Ref, field.Name)
}

// NativeType is one generated or baseline native declaration.
type NativeType struct {
	Name     string
	Kind     Kind
	Group    string
	Baseline bool

	Fields []Field
	// Base is the inherited type when the target compiler supports struct inheritance.
	Base *NativeType

	Return Ref
	Params []Field
}

func (t *NativeType) String() string { return t.Name }

func (t *NativeType) IsStruct() bool {
	return t.Kind != KindPrimitive && t.Kind != KindFnPtr
}

// Dependencies returns the types t needs by value. Types it only points to need a forward
// declaration and are not included.
func (t *NativeType) Dependencies() []*NativeType {
	var deps []*NativeType
	seen := make(map[*NativeType]bool)
	add := func(ref Ref) {
		if ref.Type == nil || ref.Pointer || ref.Type == t || seen[ref.Type] {
			return
		}
		seen[ref.Type] = true
		deps = append(deps, ref.Type)
	}
	if t.Base != nil {
		add(Ref{Type: t.Base})
	}
	for _, field := range t.Fields {
		add(field.Ref)
	}
	add(t.Return)
	for _, param := range t.Params {
		add(param.Ref)
	}
	return deps
}

// Declaration renders t as a C declaration.
func (t *NativeType) Declaration() string {
	switch t.Kind {
	case KindPrimitive:
		return ""
	case KindFnPtr:
		params := make([]string, len(t.Params))
		for i, param := range t.Params {
			params[i] = fmt.Sprintf("%s %s", param.Ref, param.Name)
		}
		return fmt.Sprintf("typedef %s (*%s)(%s);", t.Return, t.Name, strings.Join(params, ", "))
	}

	var sb strings.Builder
	sb.WriteString("struct " + t.Name)
	if t.Base != nil {
		sb.WriteString(" : " + t.Base.Name)
	}
	sb.WriteString(" {\n")
	for _, field := range t.Fields {
		sb.WriteString("    " + field.declaration() + "\n")
	}
	sb.WriteString("};")
	return sb.String()
}

// Compiler selects the inheritance style of generated structs.
type Compiler int

const (
	// MSVC embeds the base fields block as the first member, named "_".
	MSVC Compiler = iota
	// GCC declares the base fields block as a base struct.
	GCC
)

func (c Compiler) String() string {
	if c == GCC {
		return "gcc"
	}
	return "msvc"
}

func ParseCompiler(name string) (Compiler, error) {
	switch strings.ToLower(name) {
	case "msvc", "":
		return MSVC, nil
	case "gcc", "clang":
		return GCC, nil
	}
	return MSVC, fmt.Errorf("cpp: unknown compiler %q", name)
}
