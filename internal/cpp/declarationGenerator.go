package cpp

import (
	"fmt"
	"strconv"
	"typerecon/internal/reflection"
)

// arrayVectorLength is the nominal length of the element vector in array objects.
const arrayVectorLength = 32

// The map of managed primitive types to the header types that represent them
var primitiveTypes = map[string]string{
	"System.Void":    "void",
	"System.Boolean": "bool",
	"System.Char":    "uint16_t",
	"System.SByte":   "int8_t",
	"System.Byte":    "uint8_t",
	"System.Int16":   "int16_t",
	"System.UInt16":  "uint16_t",
	"System.Int32":   "int32_t",
	"System.UInt32":  "uint32_t",
	"System.Int64":   "int64_t",
	"System.UInt64":  "uint64_t",
	"System.Single":  "float",
	"System.Double":  "double",
	"System.IntPtr":  "intptr_t",
	"System.UIntPtr": "uintptr_t",
}

// GeneratedType holds the native declarations produced for one managed type.
// Arrays only have a reference representation.
type GeneratedType struct {
	Type *reflection.TypeInfo

	VTable    *NativeType
	Statics   *NativeType
	Fields    *NativeType
	Value     *NativeType
	Reference *NativeType
}

// Declarations lists the declarations in the order they must be emitted.
func (generated *GeneratedType) Declarations() []*NativeType {
	var declarations []*NativeType
	for _, t := range []*NativeType{generated.VTable, generated.Statics, generated.Fields, generated.Value, generated.Reference} {
		if t != nil {
			declarations = append(declarations, t)
		}
	}
	return declarations
}

type generationState int

const (
	reserved generationState = iota
	inProgress
	complete
)

type generatedEntry struct {
	GeneratedType
	state generationState
}

// DeclarationGenerator produces native declarations for managed types and methods into a
// TypeCollection. Types are completed depth-first over their by-value dependencies, so every
// declaration is produced after the declarations it embeds.
type DeclarationGenerator struct {
	types    *TypeCollection
	compiler Compiler

	entries map[*reflection.TypeInfo]*generatedEntry
	queue   []*generatedEntry
	done    []*generatedEntry
	methods map[*reflection.MethodBase]*NativeType
}

func NewDeclarationGenerator(types *TypeCollection, compiler Compiler) *DeclarationGenerator {
	return &DeclarationGenerator{
		types:    types,
		compiler: compiler,
		entries:  make(map[*reflection.TypeInfo]*generatedEntry),
		methods:  make(map[*reflection.MethodBase]*NativeType),
	}
}

// HasDeclarations reports whether t gets native declarations of its own.
func HasDeclarations(t *reflection.TypeInfo) bool {
	return !t.IsPointer() && !t.ContainsGenericParameters()
}

func (generator *DeclarationGenerator) baseline(name string) (*NativeType, error) {
	t, found := generator.types.Get(name)
	if !found {
		return nil, fmt.Errorf("cpp: header baseline does not declare %s", name)
	}
	return t, nil
}

func (generator *DeclarationGenerator) newType(name string, kind Kind) (*NativeType, error) {
	t := &NativeType{Name: generator.types.UniqueName(name), Kind: kind}
	if err := generator.types.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

func nativeName(t *reflection.TypeInfo) string {
	if t.IsArray() {
		name := Sanitize(t.ElementType().FullName()) + "__Array"
		if rank := t.GetArrayRank(); rank > 1 {
			name += strconv.Itoa(rank) + "D"
		}
		return name
	}
	return Sanitize(t.FullName())
}

// reserve names the declarations of t so others can point to them, and queues t for completion.
func (generator *DeclarationGenerator) reserve(t *reflection.TypeInfo) (*generatedEntry, error) {
	if entry, found := generator.entries[t]; found {
		return entry, nil
	}
	entry := &generatedEntry{GeneratedType: GeneratedType{Type: t}}
	name := nativeName(t)
	var err error
	switch {
	case t.IsArray():
		entry.Reference, err = generator.newType(name, KindReference)
	case t.IsValueType():
		if entry.Fields, err = generator.newType(name+"__Fields", KindFields); err != nil {
			return nil, err
		}
		if entry.Value, err = generator.newType(name, KindValue); err != nil {
			return nil, err
		}
		entry.Reference, err = generator.newType(name+"__Boxed", KindReference)
	default:
		if entry.Fields, err = generator.newType(name+"__Fields", KindFields); err != nil {
			return nil, err
		}
		entry.Reference, err = generator.newType(name, KindReference)
	}
	if err != nil {
		return nil, err
	}
	generator.entries[t] = entry
	generator.queue = append(generator.queue, entry)
	return entry, nil
}

// IncludeType queues t, or the type it points to, for declaration generation.
func (generator *DeclarationGenerator) IncludeType(t *reflection.TypeInfo) error {
	for t.IsPointer() {
		t = t.ElementType()
	}
	if !HasDeclarations(t) {
		return nil
	}
	_, err := generator.reserve(t)
	return err
}

// IncludeMethod queues the declaring type, return type and parameter types of a method.
func (generator *DeclarationGenerator) IncludeMethod(method *reflection.MethodBase) error {
	if err := generator.IncludeType(method.DeclaringType()); err != nil {
		return err
	}
	returnType, err := method.ReturnType()
	if err != nil {
		return err
	}
	if err := generator.IncludeType(returnType); err != nil {
		return err
	}
	parameters, err := method.Parameters()
	if err != nil {
		return err
	}
	for _, p := range parameters {
		if err := generator.IncludeType(p.ParameterType); err != nil {
			return err
		}
	}
	return nil
}

// GenerateRemainingTypeDeclarations completes every queued type and returns the types
// completed since the previous call, dependencies first.
func (generator *DeclarationGenerator) GenerateRemainingTypeDeclarations() ([]*GeneratedType, error) {
	for len(generator.queue) > 0 {
		entry := generator.queue[0]
		generator.queue = generator.queue[1:]
		if err := generator.complete(entry); err != nil {
			return nil, err
		}
	}
	generated := make([]*GeneratedType, len(generator.done))
	for i, entry := range generator.done {
		generated[i] = &entry.GeneratedType
	}
	generator.done = nil
	return generated, nil
}

// Generated returns the declarations of a managed type that has been completed.
func (generator *DeclarationGenerator) Generated(t *reflection.TypeInfo) (*GeneratedType, bool) {
	entry, found := generator.entries[t]
	if !found || entry.state != complete {
		return nil, false
	}
	return &entry.GeneratedType, true
}

// complete fills in the declarations of an entry after completing what it embeds.
func (generator *DeclarationGenerator) complete(entry *generatedEntry) error {
	if entry.state != reserved {
		return nil
	}
	entry.state = inProgress
	t := entry.Type

	var err error
	if t.IsArray() {
		err = generator.completeArray(entry)
	} else {
		err = generator.completeType(entry)
	}
	if err != nil {
		return fmt.Errorf("generating declarations for %s: %w", t.FullName(), err)
	}
	entry.state = complete
	generator.done = append(generator.done, entry)
	return nil
}

// objectHeader is the leading klass and monitor pair of every managed object.
func (generator *DeclarationGenerator) objectHeader() ([]Field, error) {
	class, err := generator.baseline("Il2CppClass")
	if err != nil {
		return nil, err
	}
	void, err := generator.baseline("void")
	if err != nil {
		return nil, err
	}
	return []Field{
		{Name: "klass", Ref: Ref{Type: class, Pointer: true}},
		{Name: "monitor", Ref: Ref{Type: void, Pointer: true}},
	}, nil
}

func (generator *DeclarationGenerator) completeArray(entry *generatedEntry) error {
	header, err := generator.objectHeader()
	if err != nil {
		return err
	}
	bounds, err := generator.baseline("Il2CppArrayBounds")
	if err != nil {
		return err
	}
	length, err := generator.baseline("uintptr_t")
	if err != nil {
		return err
	}
	element, err := generator.storageRef(entry.Type.ElementType())
	if err != nil {
		return err
	}
	element.Count = arrayVectorLength
	entry.Reference.Fields = append(header,
		Field{Name: "bounds", Ref: Ref{Type: bounds, Pointer: true}},
		Field{Name: "max_length", Ref: Ref{Type: length}},
		Field{Name: "vector", Ref: element},
	)
	return nil
}

func (generator *DeclarationGenerator) completeType(entry *generatedEntry) error {
	t := entry.Type
	members := newMemberNames()

	// Value types never inherit fields
	var base *generatedEntry
	if !t.IsValueType() {
		baseType, err := t.BaseType()
		if err != nil {
			return err
		}
		if baseType != nil && HasDeclarations(baseType) {
			if base, err = generator.reserve(baseType); err != nil {
				return err
			}
			if err := generator.complete(base); err != nil {
				return err
			}
		}
	}
	if base != nil {
		generator.inherit(entry.Fields, base.Fields, members)
	}

	var statics []Field
	staticNames := newMemberNames()
	for _, field := range t.DeclaredFields() {
		if field.IsLiteral() {
			continue
		}
		fieldType, err := field.FieldType()
		if err != nil {
			return err
		}
		if field.IsStatic() {
			ref, err := generator.staticRef(fieldType)
			if err != nil {
				return err
			}
			statics = append(statics, Field{Name: staticNames.add(field.Name), Ref: ref})
			continue
		}
		ref, err := generator.storageRef(fieldType)
		if err != nil {
			return err
		}
		entry.Fields.Fields = append(entry.Fields.Fields, Field{Name: members.add(field.Name), Ref: ref})
	}

	name := nativeName(t)
	if len(statics) > 0 {
		var err error
		if entry.Statics, err = generator.newType(name+"__StaticFields", KindStatics); err != nil {
			return err
		}
		entry.Statics.Fields = statics
	}

	if err := generator.completeVTable(entry, base, name); err != nil {
		return err
	}

	header, err := generator.objectHeader()
	if err != nil {
		return err
	}
	fields := Field{Name: "fields", Ref: Ref{Type: entry.Fields}}
	if entry.Value != nil {
		entry.Value.Fields = []Field{fields}
	}
	entry.Reference.Fields = append(header, fields)
	return nil
}

func (generator *DeclarationGenerator) completeVTable(entry *generatedEntry, base *generatedEntry, name string) error {
	var virtuals []*reflection.MethodBase
	for _, method := range entry.Type.DeclaredMethods() {
		if method.IsVirtual() {
			virtuals = append(virtuals, method)
		}
	}
	if len(virtuals) == 0 && (base == nil || base.VTable == nil) {
		return nil
	}

	invokeData, err := generator.baseline("VirtualInvokeData")
	if err != nil {
		return err
	}
	if entry.VTable, err = generator.newType(name+"__VTable", KindVTable); err != nil {
		return err
	}
	members := newMemberNames()
	if base != nil && base.VTable != nil {
		generator.inherit(entry.VTable, base.VTable, members)
	}
	for _, method := range virtuals {
		entry.VTable.Fields = append(entry.VTable.Fields, Field{Name: members.add(method.Name), Ref: Ref{Type: invokeData}})
	}
	return nil
}

// inherit makes derived extend base in the style of the target compiler.
func (generator *DeclarationGenerator) inherit(derived, base *NativeType, members *memberNames) {
	if generator.compiler == GCC {
		derived.Base = base
		return
	}
	derived.Fields = append(derived.Fields, Field{Name: members.add("_"), Ref: Ref{Type: base}})
}

// storageRef returns how a value of type t is stored in a field or passed as a parameter.
// staticRef is the storage of a static field. A value type that embeds a type still being
// completed is stored by pointer and left queued, so its own layout keeps that type by value.
func (generator *DeclarationGenerator) staticRef(t *reflection.TypeInfo) (Ref, error) {
	if t.IsValueType() && HasDeclarations(t) {
		if _, found := primitiveTypes[t.FullName()]; !found {
			cyclic, err := generator.embedsInProgress(t, make(map[*reflection.TypeInfo]bool))
			if err != nil {
				return Ref{}, err
			}
			if cyclic {
				entry, err := generator.reserve(t)
				if err != nil {
					return Ref{}, err
				}
				return Ref{Type: entry.Value, Pointer: true}, nil
			}
		}
	}
	return generator.storageRef(t)
}

// embedsInProgress reports whether t, or a value type it holds by value, is being completed.
func (generator *DeclarationGenerator) embedsInProgress(t *reflection.TypeInfo, visited map[*reflection.TypeInfo]bool) (bool, error) {
	if visited[t] {
		return false, nil
	}
	visited[t] = true
	if entry, found := generator.entries[t]; found && entry.state != reserved {
		return entry.state == inProgress, nil
	}
	for _, field := range t.DeclaredFields() {
		if field.IsStatic() || field.IsLiteral() {
			continue
		}
		fieldType, err := field.FieldType()
		if err != nil {
			return false, err
		}
		if !fieldType.IsValueType() || !HasDeclarations(fieldType) {
			continue
		}
		if _, found := primitiveTypes[fieldType.FullName()]; found {
			continue
		}
		if cyclic, err := generator.embedsInProgress(fieldType, visited); cyclic || err != nil {
			return cyclic, err
		}
	}
	return false, nil
}

func (generator *DeclarationGenerator) storageRef(t *reflection.TypeInfo) (Ref, error) {
	if name, found := primitiveTypes[t.FullName()]; found {
		if primitive, found := generator.types.Get(name); found {
			return Ref{Type: primitive}, nil
		}
	}

	switch {
	case t.IsPointer():
		element, err := generator.storageRef(t.ElementType())
		if err != nil {
			return Ref{}, err
		}
		if element.Pointer || element.Count > 0 {
			void, err := generator.baseline("void")
			return Ref{Type: void, Pointer: true}, err
		}
		return Ref{Type: element.Type, Pointer: true}, nil

	case t.ContainsGenericParameters():
		object, err := generator.baseline("Il2CppObject")
		return Ref{Type: object, Pointer: true}, err
	}

	entry, err := generator.reserve(t)
	if err != nil {
		return Ref{}, err
	}
	if entry.Value == nil {
		return Ref{Type: entry.Reference, Pointer: true}, nil
	}

	// A value type that is still being completed can only be referred to through a pointer
	if entry.state == inProgress {
		return Ref{Type: entry.Value, Pointer: true}, nil
	}
	if err := generator.complete(entry); err != nil {
		return Ref{}, err
	}
	return Ref{Type: entry.Value}, nil
}

// GenerateMethodDeclaration returns the function pointer type of a method, creating it on the
// first call. Types used by the method must have been included and generated beforehand.
func (generator *DeclarationGenerator) GenerateMethodDeclaration(method *reflection.MethodBase) (*NativeType, error) {
	if fnPtr, found := generator.methods[method]; found {
		return fnPtr, nil
	}

	fnPtr, err := generator.newType(method.FullName()+"_ftn", KindFnPtr)
	if err != nil {
		return nil, err
	}
	generator.methods[method] = fnPtr
	members := newMemberNames()

	if !method.IsStatic() {
		this, err := generator.thisRef(method.DeclaringType())
		if err != nil {
			return nil, err
		}
		fnPtr.Params = append(fnPtr.Params, Field{Name: members.add("__this"), Ref: this})
	}

	returnType, err := method.ReturnType()
	if err != nil {
		return nil, err
	}
	if fnPtr.Return, err = generator.storageRef(returnType); err != nil {
		return nil, err
	}

	parameters, err := method.Parameters()
	if err != nil {
		return nil, err
	}
	for _, p := range parameters {
		ref, err := generator.storageRef(p.ParameterType)
		if err != nil {
			return nil, err
		}
		fnPtr.Params = append(fnPtr.Params, Field{Name: members.add(p.Name), Ref: ref})
	}

	methodInfo, err := generator.baseline("MethodInfo")
	if err != nil {
		return nil, err
	}
	fnPtr.Params = append(fnPtr.Params, Field{Name: members.add("method"), Ref: Ref{Type: methodInfo, Pointer: true}})
	return fnPtr, nil
}

// thisRef is the type of the implicit instance parameter.
func (generator *DeclarationGenerator) thisRef(t *reflection.TypeInfo) (Ref, error) {
	if !HasDeclarations(t) {
		object, err := generator.baseline("Il2CppObject")
		return Ref{Type: object, Pointer: true}, err
	}
	entry, err := generator.reserve(t)
	if err != nil {
		return Ref{}, err
	}
	if entry.Value != nil {
		return Ref{Type: entry.Value, Pointer: true}, nil
	}
	return Ref{Type: entry.Reference, Pointer: true}, nil
}

// memberNames keeps the member names of one struct unique and valid.
type memberNames struct {
	used map[string]bool
}

func newMemberNames() *memberNames {
	return &memberNames{used: make(map[string]bool)}
}

func (names *memberNames) add(name string) string {
	base := name
	if name != "_" && name != "__this" {
		base = Sanitize(name)
	}
	unique := base
	for i := 1; names.used[unique]; i++ {
		unique = base + "_" + strconv.Itoa(i)
	}
	names.used[unique] = true
	return unique
}
