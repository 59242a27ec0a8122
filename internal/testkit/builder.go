// Package testkit builds small but internally consistent metadata packages for tests.
package testkit

import (
	"fmt"
	"typerecon/internal/image"
	"typerecon/internal/metadata"

	"github.com/microsoft/go-winmd/flags"
)

const (
	imageBase = 0x10000
	usageBase = 0x800000
)

type Param struct {
	Name string
	Type int32
}

type typeMembers struct {
	fields     []metadata.FieldDefinition
	properties []metadata.PropertyDefinition
	events     []metadata.EventDefinition
	interfaces []int32
	nested     []int32
}

// Builder accumulates metadata tables and writes the runtime records they refer to.
// Methods of one type must be added before methods of the next type.
type Builder struct {
	version float64
	writer  *image.Writer

	metadata     metadata.Metadata
	registration metadata.Registration

	strings map[string]int32
	records []image.TypeRecord
	defRefs map[int32]int32
	members []typeMembers
	exports []image.Export
}

func NewBuilder(bits int, version float64) *Builder {
	builder := &Builder{
		version: version,
		writer:  image.NewWriter(imageBase, bits),
		strings: map[string]int32{"": 0},
		defRefs: make(map[int32]int32),
	}
	builder.metadata.Version = version
	builder.metadata.Strings = []byte{0}
	return builder
}

// String interns s into the string heap.
func (builder *Builder) String(s string) int32 {
	if index, found := builder.strings[s]; found {
		return index
	}
	index := int32(len(builder.metadata.Strings))
	builder.metadata.Strings = append(append(builder.metadata.Strings, s...), 0)
	builder.strings[s] = index
	return index
}

// TypeRef writes a runtime type record and returns its usage index.
func (builder *Builder) TypeRef(tag flags.ElementType, datapoint uint64, attrs uint16) int32 {
	record := image.TypeRecord{Datapoint: datapoint, Type: tag, Attrs: attrs}
	builder.records = append(builder.records, record)
	builder.registration.TypeReferences = append(builder.registration.TypeReferences, record.Write(builder.writer))
	return int32(len(builder.registration.TypeReferences) - 1)
}

func (builder *Builder) BuiltinRef(tag flags.ElementType) int32 {
	return builder.TypeRef(tag, 0, 0)
}

// DefRef returns the usage index referring to a type definition, creating it on first use.
// Value types must be marked before they are first referenced.
func (builder *Builder) DefRef(def int32) int32 {
	if usage, found := builder.defRefs[def]; found {
		return usage
	}
	tag := flags.ElementType_CLASS
	if builder.metadata.TypeDefinitions[def].IsValueType() {
		tag = flags.ElementType_VALUETYPE
	}
	usage := builder.TypeRef(tag, uint64(def), 0)
	builder.defRefs[def] = usage
	return usage
}

func (builder *Builder) typeAddress(usage int32) uint64 {
	return builder.registration.TypeReferences[usage]
}

// GenericInst writes an instantiation record over the given type usages and registers it.
func (builder *Builder) GenericInst(args ...int32) int32 {
	builder.registration.GenericInsts = append(builder.registration.GenericInsts, builder.writeGenericInst(args))
	return int32(len(builder.registration.GenericInsts) - 1)
}

func (builder *Builder) writeGenericInst(args []int32) uint64 {
	words := make([]uint64, len(args))
	for i, arg := range args {
		words[i] = builder.typeAddress(arg)
	}
	argv := image.WriteWordArray(builder.writer, words)
	return image.GenericInst{TypeArgc: uint64(len(args)), TypeArgv: argv}.Write(builder.writer)
}

func (builder *Builder) GenericInstRef(def int32, args ...int32) int32 {
	class := image.GenericClass{
		TypeDefinitionIndex: uint64(def),
		ClassInst:           builder.writeGenericInst(args),
	}.Write(builder.writer)
	return builder.TypeRef(flags.ElementType_GENERICINST, class, 0)
}

func (builder *Builder) ArrayRef(elem int32, rank uint8) int32 {
	descriptor := image.ArrayType{ElementType: builder.typeAddress(elem), Rank: rank}.Write(builder.writer)
	return builder.TypeRef(flags.ElementType_ARRAY, descriptor, 0)
}

func (builder *Builder) SzArrayRef(elem int32) int32 {
	return builder.TypeRef(flags.ElementType_SZARRAY, builder.typeAddress(elem), 0)
}

func (builder *Builder) PointerRef(elem int32) int32 {
	return builder.TypeRef(flags.ElementType_PTR, builder.typeAddress(elem), 0)
}

func (builder *Builder) VarRef(param int32) int32 {
	return builder.TypeRef(flags.ElementType_VAR, uint64(param), 0)
}

func (builder *Builder) MVarRef(param int32) int32 {
	return builder.TypeRef(flags.ElementType_MVAR, uint64(param), 0)
}

// AddType adds a type definition with no members and returns its definition index.
func (builder *Builder) AddType(namespace, name string, typeFlags uint32) int32 {
	builder.metadata.TypeDefinitions = append(builder.metadata.TypeDefinitions, metadata.TypeDefinition{
		NameIndex:             builder.String(name),
		NamespaceIndex:        builder.String(namespace),
		ByvalTypeIndex:        -1,
		DeclaringTypeIndex:    -1,
		ParentIndex:           -1,
		ElementTypeIndex:      -1,
		GenericContainerIndex: -1,
		Flags:                 typeFlags,
		MethodStart:           -1,
	})
	builder.members = append(builder.members, typeMembers{})
	return int32(len(builder.metadata.TypeDefinitions) - 1)
}

func (builder *Builder) definition(def int32) *metadata.TypeDefinition {
	return &builder.metadata.TypeDefinitions[def]
}

func (builder *Builder) SetParent(def, parent int32) {
	builder.definition(def).ParentIndex = parent
}

func (builder *Builder) SetValueType(def int32) {
	builder.definition(def).Bitfield |= 1
}

// SetEnum marks def as an enumeration with the given underlying type and parent.
func (builder *Builder) SetEnum(def, underlying, parent int32) {
	d := builder.definition(def)
	d.Bitfield |= 3
	d.ElementTypeIndex = underlying
	d.ParentIndex = parent
}

// SetDeclaring nests def inside outer.
func (builder *Builder) SetDeclaring(def, outer int32) {
	builder.definition(def).DeclaringTypeIndex = builder.DefRef(outer)
	builder.members[outer].nested = append(builder.members[outer].nested, def)
}

func (builder *Builder) AddInterface(def, usage int32) {
	builder.members[def].interfaces = append(builder.members[def].interfaces, usage)
}

// AddField adds a field. Non-zero attrs produce a dedicated type record carrying them.
func (builder *Builder) AddField(def int32, name string, usage int32, attrs uint16) {
	if attrs != 0 {
		record := builder.records[usage]
		usage = builder.TypeRef(record.Type, record.Datapoint, attrs)
	}
	builder.members[def].fields = append(builder.members[def].fields, metadata.FieldDefinition{
		NameIndex: builder.String(name),
		TypeIndex: usage,
	})
}

// AddMethod adds a method to def and returns its method definition index.
func (builder *Builder) AddMethod(def int32, name string, methodFlags uint16, returnType int32, params ...Param) int32 {
	d := builder.definition(def)
	index := int32(len(builder.metadata.Methods))
	if d.MethodStart == -1 {
		d.MethodStart = index
	} else if d.MethodStart+int32(d.MethodCount) != index {
		panic(fmt.Sprintf("testkit: methods of type %d are not contiguous", def))
	}
	d.MethodCount++

	start := int32(len(builder.metadata.Parameters))
	for _, param := range params {
		builder.metadata.Parameters = append(builder.metadata.Parameters, metadata.ParameterDefinition{
			NameIndex: builder.String(param.Name),
			TypeIndex: param.Type,
		})
	}
	builder.metadata.Methods = append(builder.metadata.Methods, metadata.MethodDefinition{
		NameIndex:             builder.String(name),
		DeclaringType:         def,
		ReturnType:            returnType,
		ParameterStart:        start,
		GenericContainerIndex: -1,
		Flags:                 methodFlags,
		ParameterCount:        uint16(len(params)),
	})
	return index
}

// SetSignature replaces the return type and parameters of a method, typically once its own
// generic parameters exist.
func (builder *Builder) SetSignature(method, returnType int32, params ...Param) {
	m := &builder.metadata.Methods[method]
	m.ReturnType = returnType
	m.ParameterStart = int32(len(builder.metadata.Parameters))
	m.ParameterCount = uint16(len(params))
	for _, param := range params {
		builder.metadata.Parameters = append(builder.metadata.Parameters, metadata.ParameterDefinition{
			NameIndex: builder.String(param.Name),
			TypeIndex: param.Type,
		})
	}
}

// SetMethodPointer records the compiled address of a method.
func (builder *Builder) SetMethodPointer(method int32, va uint64) {
	for int(method) >= len(builder.registration.MethodPointers) {
		builder.registration.MethodPointers = append(builder.registration.MethodPointers, 0)
	}
	builder.registration.MethodPointers[method] = va
}

// AddProperty adds a property whose accessors are global method indices, or -1.
func (builder *Builder) AddProperty(def int32, name string, get, set int32) {
	start := builder.definition(def).MethodStart
	relative := func(method int32) int32 {
		if method < 0 {
			return -1
		}
		return method - start
	}
	builder.members[def].properties = append(builder.members[def].properties, metadata.PropertyDefinition{
		NameIndex: builder.String(name),
		Get:       relative(get),
		Set:       relative(set),
	})
}

func (builder *Builder) AddEvent(def int32, name string, usage, add, remove int32) {
	start := builder.definition(def).MethodStart
	builder.members[def].events = append(builder.members[def].events, metadata.EventDefinition{
		NameIndex: builder.String(name),
		TypeIndex: usage,
		Add:       add - start,
		Remove:    remove - start,
		Raise:     -1,
	})
}

func (builder *Builder) addContainer(owner int32, isMethod bool, names []string) (int32, []int32) {
	container := int32(len(builder.metadata.GenericContainers))
	start := int32(len(builder.metadata.GenericParameters))
	params := make([]int32, len(names))
	for i, name := range names {
		builder.metadata.GenericParameters = append(builder.metadata.GenericParameters, metadata.GenericParameter{
			OwnerIndex: container,
			NameIndex:  builder.String(name),
			Num:        uint16(i),
		})
		params[i] = start + int32(i)
	}
	var method int32
	if isMethod {
		method = 1
	}
	builder.metadata.GenericContainers = append(builder.metadata.GenericContainers, metadata.GenericContainer{
		OwnerIndex:            owner,
		TypeArgc:              int32(len(names)),
		IsMethod:              method,
		GenericParameterStart: start,
	})
	return container, params
}

// AddGenericParameters makes def a generic type definition and returns the parameter indices.
func (builder *Builder) AddGenericParameters(def int32, names ...string) []int32 {
	container, params := builder.addContainer(def, false, names)
	builder.definition(def).GenericContainerIndex = container
	return params
}

func (builder *Builder) AddMethodGenericParameters(method int32, names ...string) []int32 {
	container, params := builder.addContainer(method, true, names)
	builder.metadata.Methods[method].GenericContainerIndex = container
	return params
}

func (builder *Builder) SetConstraints(param int32, usages ...int32) {
	p := &builder.metadata.GenericParameters[param]
	p.ConstraintsStart = int16(len(builder.metadata.GenericConstraintIndices))
	p.ConstraintsCount = int16(len(usages))
	builder.metadata.GenericConstraintIndices = append(builder.metadata.GenericConstraintIndices, usages...)
}

func (builder *Builder) SetGenericParameterFlags(param int32, attrs metadata.GenericParameterAttributes) {
	builder.metadata.GenericParameters[param].Flags = uint16(attrs)
}

// AddMethodSpec adds a generic method instantiation. Nil argument lists are recorded as absent.
func (builder *Builder) AddMethodSpec(method int32, classArgs, methodArgs []int32) int32 {
	spec := metadata.MethodSpec{MethodDefinitionIndex: method, ClassIndexIndex: -1, MethodIndexIndex: -1}
	if classArgs != nil {
		spec.ClassIndexIndex = builder.GenericInst(classArgs...)
	}
	if methodArgs != nil {
		spec.MethodIndexIndex = builder.GenericInst(methodArgs...)
	}
	builder.registration.MethodSpecs = append(builder.registration.MethodSpecs, spec)
	return int32(len(builder.registration.MethodSpecs) - 1)
}

func (builder *Builder) SetGenericMethodPointer(spec int32, va uint64) {
	for int(spec) >= len(builder.registration.GenericMethodPointers) {
		builder.registration.GenericMethodPointers = append(builder.registration.GenericMethodPointers, 0)
	}
	builder.registration.GenericMethodPointers[spec] = va
}

func (builder *Builder) AddStringLiteral(s string) uint32 {
	builder.metadata.StringLiterals = append(builder.metadata.StringLiterals, s)
	return uint32(len(builder.metadata.StringLiterals) - 1)
}

// EnableUsages gives the package a usage table, even if it stays empty.
func (builder *Builder) EnableUsages() {
	if builder.registration.MetadataUsages == nil {
		builder.registration.MetadataUsages = []metadata.MetadataUsage{}
	}
}

// AddUsage appends a metadata usage and returns the address it was assigned.
func (builder *Builder) AddUsage(kind metadata.UsageKind, index uint32) uint64 {
	builder.EnableUsages()
	va := uint64(usageBase + 8*len(builder.registration.MetadataUsages))
	builder.registration.MetadataUsages = append(builder.registration.MetadataUsages, metadata.MetadataUsage{
		Type:           kind,
		Index:          index,
		VirtualAddress: va,
	})
	return va
}

// MappedAddress reserves a small block of mapped code and returns its address.
func (builder *Builder) MappedAddress() uint64 {
	builder.writer.Align(16)
	return builder.writer.Bytes([]byte{0xc3, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc})
}

func (builder *Builder) AddExport(name string, va uint64) {
	builder.exports = append(builder.exports, image.Export{Name: name, VirtualAddress: va})
}

// Build lays out the member tables and returns the package with its backing image.
func (builder *Builder) Build() (*metadata.Package, *image.Memory) {
	md := builder.metadata
	md.TypeDefinitions = append([]metadata.TypeDefinition(nil), builder.metadata.TypeDefinitions...)
	md.Fields, md.Properties, md.Events, md.InterfaceIndices, md.NestedTypeIndices = nil, nil, nil, nil, nil

	for i := range md.TypeDefinitions {
		d := &md.TypeDefinitions[i]
		members := builder.members[i]
		d.ByvalTypeIndex = builder.DefRef(int32(i))
		if d.MethodStart == -1 {
			d.MethodStart = 0
		}

		d.FieldStart, d.FieldCount = int32(len(md.Fields)), uint16(len(members.fields))
		md.Fields = append(md.Fields, members.fields...)
		d.PropertyStart, d.PropertyCount = int32(len(md.Properties)), uint16(len(members.properties))
		md.Properties = append(md.Properties, members.properties...)
		d.EventStart, d.EventCount = int32(len(md.Events)), uint16(len(members.events))
		md.Events = append(md.Events, members.events...)
		d.InterfacesStart, d.InterfacesCount = int32(len(md.InterfaceIndices)), uint16(len(members.interfaces))
		md.InterfaceIndices = append(md.InterfaceIndices, members.interfaces...)
		d.NestedTypesStart, d.NestedTypeCount = int32(len(md.NestedTypeIndices)), uint16(len(members.nested))
		md.NestedTypeIndices = append(md.NestedTypeIndices, members.nested...)
	}
	md.Strings = append([]byte(nil), builder.metadata.Strings...)

	registration := builder.registration
	for len(registration.MethodPointers) < len(md.Methods) {
		registration.MethodPointers = append(registration.MethodPointers, 0)
	}
	for len(registration.GenericMethodPointers) < len(registration.MethodSpecs) {
		registration.GenericMethodPointers = append(registration.GenericMethodPointers, 0)
	}

	mem := image.NewMemory(builder.writer.Bits(), builder.version)
	segment := builder.writer.Segment()
	mem.AddSegment(segment.VirtualAddress, segment.Data)
	for _, export := range builder.exports {
		mem.AddExport(export.Name, export.VirtualAddress)
	}

	return &metadata.Package{Metadata: &md, Registration: &registration, Image: mem}, mem
}
