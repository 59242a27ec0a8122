package metadata

// Records of the metadata file. Index fields refer to other tables; -1 means "none".
// Fields named *TypeIndex / ParentIndex / ReturnType refer to the type usage table
// (Registration.TypeReferences), not to TypeDefinitions.

type TypeDefinition struct {
	NameIndex             int32
	NamespaceIndex        int32
	ByvalTypeIndex        int32
	DeclaringTypeIndex    int32
	ParentIndex           int32
	ElementTypeIndex      int32
	GenericContainerIndex int32
	Flags                 uint32

	FieldStart       int32
	MethodStart      int32
	EventStart       int32
	PropertyStart    int32
	NestedTypesStart int32
	InterfacesStart  int32

	MethodCount     uint16
	PropertyCount   uint16
	FieldCount      uint16
	EventCount      uint16
	NestedTypeCount uint16
	InterfacesCount uint16

	// Bit 0: value type, bit 1: enum.
	Bitfield uint32
	Token    uint32
}

func (d *TypeDefinition) IsValueType() bool { return d.Bitfield&1 == 1 }

func (d *TypeDefinition) IsEnum() bool { return (d.Bitfield>>1)&1 == 1 }

type MethodDefinition struct {
	NameIndex             int32
	DeclaringType         int32 // type definition index
	ReturnType            int32
	ParameterStart        int32
	GenericContainerIndex int32
	Token                 uint32
	Flags                 uint16
	IFlags                uint16
	Slot                  uint16
	ParameterCount        uint16
}

type ParameterDefinition struct {
	NameIndex int32
	Token     uint32
	TypeIndex int32
}

type FieldDefinition struct {
	NameIndex int32
	TypeIndex int32
	Token     uint32
}

// PropertyDefinition accessors are method indices relative to the declaring type's MethodStart.
type PropertyDefinition struct {
	NameIndex int32
	Get       int32
	Set       int32
	Attrs     uint32
	Token     uint32
}

type EventDefinition struct {
	NameIndex int32
	TypeIndex int32
	Add       int32
	Remove    int32
	Raise     int32
	Token     uint32
}

// GenericContainer owns a contiguous run of generic parameters.
// OwnerIndex is a method definition index when IsMethod is non-zero, else a type definition index.
type GenericContainer struct {
	OwnerIndex            int32
	TypeArgc              int32
	IsMethod              int32
	GenericParameterStart int32
}

type GenericParameter struct {
	OwnerIndex       int32 // generic container index
	NameIndex        int32
	ConstraintsStart int16
	ConstraintsCount int16
	Num              uint16
	Flags            uint16
}

// MethodSpec describes a generic method instantiation. The *IndexIndex fields refer to
// Registration.GenericInsts; -1 means no class or method arguments.
type MethodSpec struct {
	MethodDefinitionIndex int32
	ClassIndexIndex       int32
	MethodIndexIndex      int32
}

type UsageKind uint32

const (
	UsageTypeInfo      UsageKind = 1
	UsageType          UsageKind = 2
	UsageMethodDef     UsageKind = 3
	UsageFieldInfo     UsageKind = 4
	UsageStringLiteral UsageKind = 5
	UsageMethodRef     UsageKind = 6
)

func (u UsageKind) String() string {
	switch u {
	case UsageTypeInfo:
		return "TypeInfo"
	case UsageType:
		return "Type"
	case UsageMethodDef:
		return "MethodDef"
	case UsageFieldInfo:
		return "FieldInfo"
	case UsageStringLiteral:
		return "StringLiteral"
	case UsageMethodRef:
		return "MethodRef"
	}
	return "Unknown"
}

// MetadataUsage maps the address of a runtime metadata pointer in the binary to the
// metadata item it is initialized with.
type MetadataUsage struct {
	Type           UsageKind
	Index          uint32
	VirtualAddress uint64
}
