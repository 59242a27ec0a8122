package metadata

// TypeAttributes mirrors the type flag bits stored in TypeDefinition.Flags.
type TypeAttributes uint32

const (
	TypeVisibilityMask    TypeAttributes = 0x00000007
	TypeNotPublic         TypeAttributes = 0x00000000
	TypePublic            TypeAttributes = 0x00000001
	TypeNestedPublic      TypeAttributes = 0x00000002
	TypeNestedPrivate     TypeAttributes = 0x00000003
	TypeNestedFamily      TypeAttributes = 0x00000004
	TypeNestedAssembly    TypeAttributes = 0x00000005
	TypeNestedFamANDAssem TypeAttributes = 0x00000006
	TypeNestedFamORAssem  TypeAttributes = 0x00000007

	TypeClassSemanticsMask TypeAttributes = 0x00000020
	TypeClass              TypeAttributes = 0x00000000
	TypeInterface          TypeAttributes = 0x00000020

	TypeAbstract     TypeAttributes = 0x00000080
	TypeSealed       TypeAttributes = 0x00000100
	TypeSpecialName  TypeAttributes = 0x00000400
	TypeImport       TypeAttributes = 0x00001000
	TypeSerializable TypeAttributes = 0x00002000
)

type flagRule struct {
	mask  uint32
	value uint32
	attr  TypeAttributes
}

// typeFlagTable lists every flag the reflection layer understands. Visibility values are
// exclusive within their mask; the remaining entries are independent bits.
var typeFlagTable = []flagRule{
	{uint32(TypeVisibilityMask), 0x0, TypeNotPublic},
	{uint32(TypeVisibilityMask), 0x1, TypePublic},
	{uint32(TypeVisibilityMask), 0x2, TypeNestedPublic},
	{uint32(TypeVisibilityMask), 0x3, TypeNestedPrivate},
	{uint32(TypeVisibilityMask), 0x4, TypeNestedFamily},
	{uint32(TypeVisibilityMask), 0x5, TypeNestedAssembly},
	{uint32(TypeVisibilityMask), 0x6, TypeNestedFamANDAssem},
	{uint32(TypeVisibilityMask), 0x7, TypeNestedFamORAssem},
	{0x00000080, 0x00000080, TypeAbstract},
	{0x00000100, 0x00000100, TypeSealed},
	{0x00000400, 0x00000400, TypeSpecialName},
	{0x00001000, 0x00001000, TypeImport},
	{0x00002000, 0x00002000, TypeSerializable},
	{0x00000020, 0x00000020, TypeInterface},
}

// DecodeTypeAttributes converts raw definition flags into TypeAttributes.
// Bits that are not in the flag table are dropped.
func DecodeTypeAttributes(raw uint32) TypeAttributes {
	var attrs TypeAttributes
	for _, rule := range typeFlagTable {
		if raw&rule.mask == rule.value {
			attrs |= rule.attr
		}
	}
	return attrs
}

type MethodAttributes uint16

const (
	MethodMemberAccessMask MethodAttributes = 0x0007
	MethodPrivate          MethodAttributes = 0x0001
	MethodFamANDAssem      MethodAttributes = 0x0002
	MethodAssembly         MethodAttributes = 0x0003
	MethodFamily           MethodAttributes = 0x0004
	MethodFamORAssem       MethodAttributes = 0x0005
	MethodPublic           MethodAttributes = 0x0006
	MethodStatic           MethodAttributes = 0x0010
	MethodFinal            MethodAttributes = 0x0020
	MethodVirtual          MethodAttributes = 0x0040
	MethodAbstract         MethodAttributes = 0x0400
	MethodSpecialName      MethodAttributes = 0x0800
)

// FieldAttributes are carried in the attrs bits of a field's type record.
type FieldAttributes uint16

const (
	FieldStatic   FieldAttributes = 0x0010
	FieldInitOnly FieldAttributes = 0x0020
	FieldLiteral  FieldAttributes = 0x0040
)

type GenericParameterAttributes uint16

const (
	GenericCovariant                      GenericParameterAttributes = 0x0001
	GenericContravariant                  GenericParameterAttributes = 0x0002
	GenericReferenceTypeConstraint        GenericParameterAttributes = 0x0004
	GenericNotNullableValueTypeConstraint GenericParameterAttributes = 0x0008
	GenericDefaultConstructorConstraint   GenericParameterAttributes = 0x0010
)
