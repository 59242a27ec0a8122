// Package reflection rebuilds the managed type system from metadata tables and the runtime
// type records of the compiled binary.
package reflection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"typerecon/internal/image"
	"typerecon/internal/metadata"

	"fortio.org/safecast"
	"github.com/microsoft/go-winmd/flags"
)

var ErrTypeNotFound = errors.New("reflection: type not found")

// The map of element types to the full names of the types they stand for
var builtInElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_VOID:       "System.Void",
	flags.ElementType_BOOLEAN:    "System.Boolean",
	flags.ElementType_CHAR:       "System.Char",
	flags.ElementType_I1:         "System.SByte",
	flags.ElementType_U1:         "System.Byte",
	flags.ElementType_I2:         "System.Int16",
	flags.ElementType_U2:         "System.UInt16",
	flags.ElementType_I4:         "System.Int32",
	flags.ElementType_U4:         "System.UInt32",
	flags.ElementType_I8:         "System.Int64",
	flags.ElementType_U8:         "System.UInt64",
	flags.ElementType_R4:         "System.Single",
	flags.ElementType_R8:         "System.Double",
	flags.ElementType_STRING:     "System.String",
	flags.ElementType_TYPEDBYREF: "System.TypedReference",
	flags.ElementType_I:          "System.IntPtr",
	flags.ElementType_U:          "System.UIntPtr",
	flags.ElementType_OBJECT:     "System.Object",
}

type compositeKey struct {
	element *TypeInfo
	rank    int
	pointer bool
}

type instanceKey struct {
	definition int32
	arguments  string
}

// TypeModel owns every managed type and method materialized from one package.
// It is mutated while types are resolved and must not be shared between goroutines
// until resolution has finished.
type TypeModel struct {
	Package *metadata.Package

	typesByDefinitionIndex   []*TypeInfo
	typesByFullName          map[string]*TypeInfo
	typesByAddress           map[uint64]*TypeInfo
	composites               map[compositeKey]*TypeInfo
	instances                map[instanceKey]*TypeInfo
	genericParameters        map[int32]*TypeInfo
	methodsByDefinitionIndex []*MethodBase
	genericMethods           []*MethodBase

	allDefinitions bool
	nextID         int
}

func NewTypeModel(pkg *metadata.Package) *TypeModel {
	return &TypeModel{
		Package:                  pkg,
		typesByDefinitionIndex:   make([]*TypeInfo, len(pkg.Metadata.TypeDefinitions)),
		typesByFullName:          make(map[string]*TypeInfo),
		typesByAddress:           make(map[uint64]*TypeInfo),
		composites:               make(map[compositeKey]*TypeInfo),
		instances:                make(map[instanceKey]*TypeInfo),
		genericParameters:        make(map[int32]*TypeInfo),
		methodsByDefinitionIndex: make([]*MethodBase, len(pkg.Metadata.Methods)),
		genericMethods:           make([]*MethodBase, len(pkg.Registration.MethodSpecs)),
	}
}

func (model *TypeModel) newType(kind Kind) *TypeInfo {
	model.nextID++
	return &TypeInfo{model: model, id: model.nextID, kind: kind, Index: -1, declaringTypeIndex: -1}
}

// Resolve returns the type referred to by an entry of the type usage table.
func (model *TypeModel) Resolve(usage int32) (*TypeInfo, error) {
	va, err := model.Package.Registration.TypeReference(usage)
	if err != nil {
		return nil, err
	}
	return model.ResolveFromAddress(va)
}

// GetTypeFromUsage is an alias of Resolve.
func (model *TypeModel) GetTypeFromUsage(usage int32) (*TypeInfo, error) {
	return model.Resolve(usage)
}

func (model *TypeModel) resolveAll(usages []int32) ([]*TypeInfo, error) {
	types := make([]*TypeInfo, len(usages))
	for i, usage := range usages {
		t, err := model.Resolve(usage)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func (model *TypeModel) readTypeRecord(va uint64) (image.TypeRecord, error) {
	record, err := image.ReadMappedObject[image.TypeRecord](model.Package.Image, va)
	if err != nil {
		return record, metadata.Corrupt(err)
	}
	return record, nil
}

func datapointIndex(record image.TypeRecord) (int32, error) {
	index, err := safecast.Conv[int32](record.Datapoint)
	if err != nil {
		return 0, metadata.Corrupt(fmt.Errorf("type record datapoint 0x%x: %w", record.Datapoint, err))
	}
	return index, nil
}

// ResolveFromAddress returns the type described by the runtime type record at va.
func (model *TypeModel) ResolveFromAddress(va uint64) (*TypeInfo, error) {
	if t, found := model.typesByAddress[va]; found {
		return t, nil
	}
	record, err := model.readTypeRecord(va)
	if err != nil {
		return nil, err
	}
	t, err := model.resolveRecord(record)
	if err != nil {
		return nil, fmt.Errorf("resolving type record at 0x%x: %w", va, err)
	}
	model.typesByAddress[va] = t
	return t, nil
}

// GetTypeFromVirtualAddress is an alias of ResolveFromAddress.
func (model *TypeModel) GetTypeFromVirtualAddress(va uint64) (*TypeInfo, error) {
	return model.ResolveFromAddress(va)
}

func (model *TypeModel) resolveRecord(record image.TypeRecord) (*TypeInfo, error) {
	switch record.Type {
	case flags.ElementType_CLASS, flags.ElementType_VALUETYPE:
		index, err := datapointIndex(record)
		if err != nil {
			return nil, err
		}
		return model.ResolveDefinition(index)

	case flags.ElementType_GENERICINST:
		class, err := image.ReadMappedObject[image.GenericClass](model.Package.Image, record.Datapoint)
		if err != nil {
			return nil, metadata.Corrupt(err)
		}
		index, err := safecast.Conv[int32](class.TypeDefinitionIndex)
		if err != nil {
			return nil, metadata.Corrupt(err)
		}
		definition, err := model.ResolveDefinition(index)
		if err != nil {
			return nil, err
		}
		args, err := model.readInstArguments(class.ClassInst)
		if err != nil {
			return nil, err
		}
		return model.Instantiate(definition, args)

	case flags.ElementType_ARRAY:
		descriptor, err := image.ReadMappedObject[image.ArrayType](model.Package.Image, record.Datapoint)
		if err != nil {
			return nil, metadata.Corrupt(err)
		}
		element, err := model.ResolveFromAddress(descriptor.ElementType)
		if err != nil {
			return nil, err
		}
		return model.ArrayOf(element, int(descriptor.Rank)), nil

	case flags.ElementType_SZARRAY, flags.ElementType_PTR:
		element, err := model.ResolveFromAddress(record.Datapoint)
		if err != nil {
			return nil, err
		}
		if record.Type == flags.ElementType_PTR {
			return model.PointerTo(element), nil
		}
		// Heap arrays always have one dimension
		return model.ArrayOf(element, 1), nil

	case flags.ElementType_VAR, flags.ElementType_MVAR:
		index, err := datapointIndex(record)
		if err != nil {
			return nil, err
		}
		return model.genericParameter(index)
	}

	if name, found := builtInElementTypes[record.Type]; found {
		return model.builtin(name)
	}
	return nil, fmt.Errorf("%w: 0x%x", metadata.ErrUnknownTypeTag, uint8(record.Type))
}

// readInstArguments resolves the argument list of the generic instantiation record at va.
func (model *TypeModel) readInstArguments(va uint64) ([]*TypeInfo, error) {
	img := model.Package.Image
	inst, err := image.ReadMappedObject[image.GenericInst](img, va)
	if err != nil {
		return nil, metadata.Corrupt(err)
	}
	argc, err := safecast.Conv[int](inst.TypeArgc)
	if err != nil {
		return nil, metadata.Corrupt(err)
	}
	pointers, err := image.ReadMappedWordArray(img, inst.TypeArgv, argc)
	if err != nil {
		return nil, metadata.Corrupt(err)
	}
	args := make([]*TypeInfo, len(pointers))
	for i, pointer := range pointers {
		if args[i], err = model.ResolveFromAddress(pointer); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// ResolveDefinition returns the canonical type for a type definition index.
func (model *TypeModel) ResolveDefinition(index int32) (*TypeInfo, error) {
	md := model.Package.Metadata
	definition, err := md.TypeDefinition(index)
	if err != nil {
		return nil, err
	}
	if t := model.typesByDefinitionIndex[index]; t != nil {
		return t, nil
	}

	t := model.newType(kindOf(definition))
	t.Index = index
	t.Definition = definition
	t.Attributes = metadata.DecodeTypeAttributes(definition.Flags)
	t.definition = &definitionPayload{baseTypeUsage: definition.ParentIndex, enumUnderlyingUsage: -1}
	if t.namespace, err = md.String(definition.NamespaceIndex); err != nil {
		return nil, err
	}
	if t.baseName, err = md.String(definition.NameIndex); err != nil {
		return nil, err
	}

	// Registered before its members so that they can refer back to it.
	model.typesByDefinitionIndex[index] = t
	if err := model.populateDefinition(t); err != nil {
		model.typesByDefinitionIndex[index] = nil
		return nil, fmt.Errorf("type definition %d (%s.%s): %w", index, t.namespace, t.baseName, err)
	}
	model.typesByFullName[t.FullName()] = t
	return t, nil
}

func (model *TypeModel) populateDefinition(t *TypeInfo) error {
	md := model.Package.Metadata
	definition := t.Definition

	// Nested type?
	if definition.DeclaringTypeIndex >= 0 {
		va, err := model.Package.Registration.TypeReference(definition.DeclaringTypeIndex)
		if err != nil {
			return err
		}
		record, err := model.readTypeRecord(va)
		if err != nil {
			return err
		}
		declaringIndex, err := datapointIndex(record)
		if err != nil {
			return err
		}
		if _, err := model.ResolveDefinition(declaringIndex); err != nil {
			return fmt.Errorf("resolving declaring type: %w", err)
		}
		t.declaringTypeIndex = declaringIndex
	}

	if definition.IsEnum() {
		t.definition.enumUnderlyingUsage = definition.ElementTypeIndex
	}

	interfaces, err := metadata.Range(md.InterfaceIndices, "interface indices", definition.InterfacesStart, int(definition.InterfacesCount))
	if err != nil {
		return err
	}
	t.definition.interfaceUsages = interfaces

	nested, err := metadata.Range(md.NestedTypeIndices, "nested type indices", definition.NestedTypesStart, int(definition.NestedTypeCount))
	if err != nil {
		return err
	}
	t.definition.nestedTypeIndices = nested

	// Generic type definition?
	if definition.GenericContainerIndex >= 0 {
		params, err := model.newGenericParameters(definition.GenericContainerIndex, t, nil)
		if err != nil {
			return err
		}
		t.definition.genericParameters = params
	}

	return model.populateMembers(t)
}

func (model *TypeModel) populateMembers(t *TypeInfo) error {
	md := model.Package.Metadata
	definition := t.Definition
	members := &t.definition.members

	fields, err := metadata.Range(md.Fields, "fields", definition.FieldStart, int(definition.FieldCount))
	if err != nil {
		return err
	}
	for i, field := range fields {
		name, err := md.String(field.NameIndex)
		if err != nil {
			return err
		}
		va, err := model.Package.Registration.TypeReference(field.TypeIndex)
		if err != nil {
			return err
		}
		record, err := model.readTypeRecord(va)
		if err != nil {
			return err
		}
		members.fields = append(members.fields, &FieldInfo{
			model:         model,
			Index:         definition.FieldStart + int32(i),
			Name:          name,
			Attributes:    metadata.FieldAttributes(record.Attrs),
			declaringType: t,
			typeUsage:     field.TypeIndex,
		})
	}

	for i := 0; i < int(definition.MethodCount); i++ {
		method, err := model.newMethod(definition.MethodStart+int32(i), t)
		if err != nil {
			return err
		}
		if method.IsConstructor() {
			members.constructors = append(members.constructors, method)
		} else {
			members.methods = append(members.methods, method)
		}
	}

	accessor := func(relative int32) (*MethodBase, error) {
		if relative < 0 {
			return nil, nil
		}
		index := definition.MethodStart + relative
		if index >= definition.MethodStart+int32(definition.MethodCount) {
			return nil, &metadata.IndexError{Table: "methods of " + t.baseName, Index: int64(relative), Len: int(definition.MethodCount)}
		}
		return model.methodsByDefinitionIndex[index], nil
	}

	properties, err := metadata.Range(md.Properties, "properties", definition.PropertyStart, int(definition.PropertyCount))
	if err != nil {
		return err
	}
	for _, property := range properties {
		info := &PropertyInfo{declaringType: t}
		if info.Name, err = md.String(property.NameIndex); err != nil {
			return err
		}
		if info.GetMethod, err = accessor(property.Get); err != nil {
			return err
		}
		if info.SetMethod, err = accessor(property.Set); err != nil {
			return err
		}
		members.properties = append(members.properties, info)
	}

	events, err := metadata.Range(md.Events, "events", definition.EventStart, int(definition.EventCount))
	if err != nil {
		return err
	}
	for _, event := range events {
		info := &EventInfo{model: model, declaringType: t, typeUsage: event.TypeIndex}
		if info.Name, err = md.String(event.NameIndex); err != nil {
			return err
		}
		if info.AddMethod, err = accessor(event.Add); err != nil {
			return err
		}
		if info.RemoveMethod, err = accessor(event.Remove); err != nil {
			return err
		}
		if info.RaiseMethod, err = accessor(event.Raise); err != nil {
			return err
		}
		members.events = append(members.events, info)
	}
	return nil
}

func (model *TypeModel) newMethod(index int32, declaringType *TypeInfo) (*MethodBase, error) {
	md := model.Package.Metadata
	definition, err := md.Method(index)
	if err != nil {
		return nil, err
	}
	name, err := md.String(definition.NameIndex)
	if err != nil {
		return nil, err
	}
	method := &MethodBase{
		model:         model,
		Index:         index,
		Definition:    definition,
		Name:          name,
		Attributes:    metadata.MethodAttributes(definition.Flags),
		declaringType: declaringType,
		specIndex:     -1,
	}
	method.virtualAddress, method.hasAddress = model.Package.Registration.MethodPointer(index)
	model.methodsByDefinitionIndex[index] = method

	if definition.GenericContainerIndex >= 0 {
		if method.genericParameters, err = model.newGenericParameters(definition.GenericContainerIndex, declaringType, method); err != nil {
			return nil, err
		}
	}
	return method, nil
}

// newGenericParameters materializes one parameter per slot of a generic container, in order.
func (model *TypeModel) newGenericParameters(containerIndex int32, owner *TypeInfo, method *MethodBase) ([]*TypeInfo, error) {
	md := model.Package.Metadata
	container, err := md.GenericContainer(containerIndex)
	if err != nil {
		return nil, err
	}
	if container.TypeArgc < 0 || int(container.TypeArgc) > len(md.GenericParameters) {
		return nil, metadata.Corrupt(fmt.Errorf("generic container %d declares %d parameters", containerIndex, container.TypeArgc))
	}
	params := make([]*TypeInfo, container.TypeArgc)
	for i := range params {
		index := container.GenericParameterStart + int32(i)
		param, err := md.GenericParameter(index)
		if err != nil {
			return nil, err
		}
		t := model.newType(KindGenericParameter)
		// Same visibility attributes as declaring type
		t.Attributes = owner.Attributes
		t.declaringTypeIndex = owner.Index
		if t.baseName, err = md.String(param.NameIndex); err != nil {
			return nil, err
		}
		t.parameter = &parameterPayload{
			index:           index,
			position:        int(param.Num),
			attributes:      metadata.GenericParameterAttributes(param.Flags),
			constraintStart: int32(param.ConstraintsStart),
			constraintCount: int(param.ConstraintsCount),
			declaringMethod: method,
		}
		model.genericParameters[index] = t
		params[i] = t
	}
	return params, nil
}

// genericParameter resolves a generic parameter by materializing the type or method owning it.
func (model *TypeModel) genericParameter(index int32) (*TypeInfo, error) {
	if t, found := model.genericParameters[index]; found {
		return t, nil
	}
	md := model.Package.Metadata
	param, err := md.GenericParameter(index)
	if err != nil {
		return nil, err
	}
	container, err := md.GenericContainer(param.OwnerIndex)
	if err != nil {
		return nil, err
	}
	if container.IsMethod != 0 {
		_, err = model.ResolveMethod(container.OwnerIndex)
	} else {
		_, err = model.ResolveDefinition(container.OwnerIndex)
	}
	if err != nil {
		return nil, err
	}
	if t, found := model.genericParameters[index]; found {
		return t, nil
	}
	return nil, metadata.Corrupt(fmt.Errorf("generic parameter %d is not declared by its container %d", index, param.OwnerIndex))
}

// ResolveMethod returns the method for a method definition index.
func (model *TypeModel) ResolveMethod(index int32) (*MethodBase, error) {
	definition, err := model.Package.Metadata.Method(index)
	if err != nil {
		return nil, err
	}
	if method := model.methodsByDefinitionIndex[index]; method != nil {
		return method, nil
	}
	if _, err := model.ResolveDefinition(definition.DeclaringType); err != nil {
		return nil, err
	}
	if method := model.methodsByDefinitionIndex[index]; method != nil {
		return method, nil
	}
	return nil, metadata.Corrupt(fmt.Errorf("method %d is not declared by type %d", index, definition.DeclaringType))
}

// Methods resolves every method definition in ascending index order.
func (model *TypeModel) Methods() ([]*MethodBase, error) {
	for index := range model.methodsByDefinitionIndex {
		if _, err := model.ResolveMethod(int32(index)); err != nil {
			return nil, err
		}
	}
	return model.methodsByDefinitionIndex, nil
}

// ResolveMethodSpec returns the generic method instantiation for a method spec index.
func (model *TypeModel) ResolveMethodSpec(index int32) (*MethodBase, error) {
	registration := model.Package.Registration
	spec, err := registration.MethodSpec(index)
	if err != nil {
		return nil, err
	}
	if method := model.genericMethods[index]; method != nil {
		return method, nil
	}

	definition, err := model.ResolveMethod(spec.MethodDefinitionIndex)
	if err != nil {
		return nil, err
	}
	declaringType := definition.declaringType
	if spec.ClassIndexIndex >= 0 {
		args, err := model.genericInstArguments(spec.ClassIndexIndex)
		if err != nil {
			return nil, err
		}
		if declaringType, err = model.Instantiate(declaringType, args); err != nil {
			return nil, err
		}
	}
	var methodArgs []*TypeInfo
	if spec.MethodIndexIndex >= 0 {
		if methodArgs, err = model.genericInstArguments(spec.MethodIndexIndex); err != nil {
			return nil, err
		}
	}

	method := &MethodBase{
		model:             model,
		Index:             definition.Index,
		Definition:        definition.Definition,
		Name:              definition.Name,
		Attributes:        definition.Attributes,
		declaringType:     declaringType,
		genericArguments:  methodArgs,
		genericDefinition: definition,
		specIndex:         index,
	}
	method.virtualAddress, method.hasAddress = registration.GenericMethodPointer(index)
	model.genericMethods[index] = method
	return method, nil
}

func (model *TypeModel) genericInstArguments(index int32) ([]*TypeInfo, error) {
	va, err := model.Package.Registration.GenericInst(index)
	if err != nil {
		return nil, err
	}
	return model.readInstArguments(va)
}

// GenericMethods resolves every generic method instantiation in method spec order.
func (model *TypeModel) GenericMethods() ([]*MethodBase, error) {
	for index := range model.genericMethods {
		if _, err := model.ResolveMethodSpec(int32(index)); err != nil {
			return nil, fmt.Errorf("method spec %d: %w", index, err)
		}
	}
	return model.genericMethods, nil
}

func (model *TypeModel) materializeAll() error {
	if model.allDefinitions {
		return nil
	}
	for index := range model.typesByDefinitionIndex {
		if _, err := model.ResolveDefinition(int32(index)); err != nil {
			return err
		}
	}
	model.allDefinitions = true
	return nil
}

// Types returns every type definition in index order.
func (model *TypeModel) Types() ([]*TypeInfo, error) {
	if err := model.materializeAll(); err != nil {
		return nil, err
	}
	return model.typesByDefinitionIndex, nil
}

// TypeByFullName finds a type definition by its full name.
func (model *TypeModel) TypeByFullName(name string) (*TypeInfo, error) {
	if t, found := model.typesByFullName[name]; found {
		return t, nil
	}
	if err := model.materializeAll(); err != nil {
		return nil, err
	}
	if t, found := model.typesByFullName[name]; found {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, name)
}

// builtin finds a type the runtime itself depends on; its absence means the input is corrupt.
func (model *TypeModel) builtin(name string) (*TypeInfo, error) {
	t, err := model.TypeByFullName(name)
	if err != nil {
		return nil, metadata.Corrupt(err)
	}
	return t, nil
}

func (model *TypeModel) newElementType(element *TypeInfo, kind Kind, rank int) *TypeInfo {
	t := model.newType(kind)
	t.Index = element.Index
	t.Definition = element.Definition
	t.Attributes = element.Attributes
	t.namespace = element.Namespace()
	t.baseName = element.baseName
	t.element = &elementPayload{element: element, rank: rank}
	return t
}

// ArrayOf returns the array type of the given rank over element.
func (model *TypeModel) ArrayOf(element *TypeInfo, rank int) *TypeInfo {
	key := compositeKey{element: element, rank: rank}
	if t, found := model.composites[key]; found {
		return t
	}
	t := model.newElementType(element, KindArray, rank)
	model.composites[key] = t
	return t
}

func (model *TypeModel) PointerTo(element *TypeInfo) *TypeInfo {
	key := compositeKey{element: element, pointer: true}
	if t, found := model.composites[key]; found {
		return t
	}
	t := model.newElementType(element, KindPointer, 1)
	model.composites[key] = t
	return t
}

func argumentKey(args []*TypeInfo) string {
	ids := make([]string, len(args))
	for i, arg := range args {
		ids[i] = strconv.Itoa(arg.id)
	}
	return strings.Join(ids, ",")
}

// Instantiate returns the closed instantiation of a generic type definition.
func (model *TypeModel) Instantiate(definition *TypeInfo, args []*TypeInfo) (*TypeInfo, error) {
	params := definition.GenericTypeParameters()
	if len(params) == 0 {
		return nil, metadata.Corrupt(fmt.Errorf("%s is not a generic type definition", definition.Name()))
	}
	if len(args) != len(params) {
		return nil, metadata.Corrupt(fmt.Errorf("%s takes %d type arguments, got %d", definition.Name(), len(params), len(args)))
	}
	key := instanceKey{definition: definition.Index, arguments: argumentKey(args)}
	if t, found := model.instances[key]; found {
		return t, nil
	}

	t := model.newType(definition.kind)
	t.Index = definition.Index
	t.Definition = definition.Definition
	t.Attributes = definition.Attributes
	t.namespace = definition.namespace
	t.baseName = definition.baseName
	t.declaringTypeIndex = definition.declaringTypeIndex
	t.instance = &instancePayload{definition: definition, arguments: append([]*TypeInfo(nil), args...)}
	model.instances[key] = t
	return t, nil
}

// Substitute replaces generic parameters in t with the given type and method arguments.
// Parameters without a matching argument are left in place.
func (model *TypeModel) Substitute(t *TypeInfo, typeArgs, methodArgs []*TypeInfo) (*TypeInfo, error) {
	if t == nil || !t.ContainsGenericParameters() {
		return t, nil
	}
	switch {
	case t.parameter != nil:
		args := typeArgs
		if t.parameter.declaringMethod != nil {
			args = methodArgs
		}
		if t.parameter.position < len(args) {
			return args[t.parameter.position], nil
		}
		return t, nil

	case t.element != nil:
		element, err := model.Substitute(t.element.element, typeArgs, methodArgs)
		if err != nil {
			return nil, err
		}
		if t.kind == KindPointer {
			return model.PointerTo(element), nil
		}
		return model.ArrayOf(element, t.element.rank), nil

	case t.instance != nil:
		args, err := model.substituteAll(t.instance.arguments, typeArgs, methodArgs)
		if err != nil {
			return nil, err
		}
		return model.Instantiate(t.instance.definition, args)
	}
	return t, nil
}

func (model *TypeModel) substituteAll(types []*TypeInfo, typeArgs, methodArgs []*TypeInfo) ([]*TypeInfo, error) {
	substituted := make([]*TypeInfo, len(types))
	for i, t := range types {
		s, err := model.Substitute(t, typeArgs, methodArgs)
		if err != nil {
			return nil, err
		}
		substituted[i] = s
	}
	return substituted, nil
}
