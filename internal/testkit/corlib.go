package testkit

import (
	"typerecon/internal/metadata"

	"github.com/microsoft/go-winmd/flags"
)

// Corlib holds the definition indices and usages of the base class library types every
// package needs for implicit base types and primitive tags.
type Corlib struct {
	Object, ValueType, Enum, Array, String, Int32, Boolean, Void, Nullable int32

	ObjectRef, ValueTypeRef, EnumRef, StringRef, Int32Ref, BooleanRef, VoidRef int32

	// NullableT is the generic parameter index of Nullable`1.
	NullableT int32
}

const (
	publicClass  = uint32(metadata.TypePublic)
	publicSealed = uint32(metadata.TypePublic | metadata.TypeSealed)
)

// AddCorlib adds the System types that resolution relies on.
func (builder *Builder) AddCorlib() Corlib {
	var c Corlib
	c.Object = builder.AddType("System", "Object", publicClass)
	c.ObjectRef = builder.DefRef(c.Object)

	c.ValueType = builder.AddType("System", "ValueType", publicClass|uint32(metadata.TypeAbstract))
	builder.SetParent(c.ValueType, c.ObjectRef)
	c.ValueTypeRef = builder.DefRef(c.ValueType)

	c.Enum = builder.AddType("System", "Enum", publicClass|uint32(metadata.TypeAbstract))
	builder.SetParent(c.Enum, c.ValueTypeRef)
	c.EnumRef = builder.DefRef(c.Enum)

	c.Array = builder.AddType("System", "Array", publicClass|uint32(metadata.TypeAbstract))
	builder.SetParent(c.Array, c.ObjectRef)

	c.String = builder.AddType("System", "String", publicSealed)
	builder.SetParent(c.String, c.ObjectRef)

	for _, primitive := range []struct {
		name string
		def  *int32
	}{{"Int32", &c.Int32}, {"Boolean", &c.Boolean}, {"Void", &c.Void}} {
		*primitive.def = builder.AddType("System", primitive.name, publicSealed)
		builder.SetValueType(*primitive.def)
		builder.SetParent(*primitive.def, c.ValueTypeRef)
	}

	c.Nullable = builder.AddType("System", "Nullable`1", publicSealed)
	builder.SetValueType(c.Nullable)
	builder.SetParent(c.Nullable, c.ValueTypeRef)
	c.NullableT = builder.AddGenericParameters(c.Nullable, "T")[0]

	c.StringRef = builder.BuiltinRef(flags.ElementType_STRING)
	c.Int32Ref = builder.BuiltinRef(flags.ElementType_I4)
	c.BooleanRef = builder.BuiltinRef(flags.ElementType_BOOLEAN)
	c.VoidRef = builder.BuiltinRef(flags.ElementType_VOID)
	return c
}
