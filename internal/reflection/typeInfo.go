package reflection

import (
	"errors"
	"fmt"
	"strings"
	"typerecon/internal/metadata"
)

var ErrNotEnum = errors.New("reflection: type is not an enumeration")

type Kind int

const (
	KindClass Kind = iota
	KindValueType
	KindInterface
	KindEnum
	KindArray
	KindPointer
	KindGenericParameter
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindValueType:
		return "valuetype"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	case KindGenericParameter:
		return "generic parameter"
	}
	return "unknown"
}

const (
	ConstructorName     = ".ctor"
	TypeConstructorName = ".cctor"
)

// Full names of types that have a C# keyword.
var csharpKeywords = map[string]string{
	"System.Object":  "object",
	"System.Boolean": "bool",
	"System.Byte":    "byte",
	"System.SByte":   "sbyte",
	"System.Char":    "char",
	"System.Decimal": "decimal",
	"System.Double":  "double",
	"System.Single":  "float",
	"System.Int16":   "short",
	"System.UInt16":  "ushort",
	"System.Int32":   "int",
	"System.UInt32":  "uint",
	"System.Int64":   "long",
	"System.UInt64":  "ulong",
	"System.String":  "string",
	"System.Void":    "void",
}

var primitiveNames = []string{
	"Boolean", "Byte", "SByte", "Int16", "UInt16", "Int32", "UInt32", "Int64", "UInt64",
	"IntPtr", "UIntPtr", "Char", "Decimal", "Double", "Single",
}

// lazy caches the result of a deferred resolution. Failed resolutions are not cached.
type lazy[T any] struct {
	resolved bool
	value    T
}

func (l *lazy[T]) get(resolve func() (T, error)) (T, error) {
	if l.resolved {
		return l.value, nil
	}
	value, err := resolve()
	if err != nil {
		return value, err
	}
	l.value, l.resolved = value, true
	return value, nil
}

type members struct {
	fields       []*FieldInfo
	constructors []*MethodBase
	methods      []*MethodBase
	properties   []*PropertyInfo
	events       []*EventInfo
}

// definitionPayload belongs to types read from a type definition record.
type definitionPayload struct {
	baseTypeUsage       int32
	enumUnderlyingUsage int32
	interfaceUsages     []int32
	nestedTypeIndices   []int32
	genericParameters   []*TypeInfo
	members             members

	baseType       lazy[*TypeInfo]
	interfaces     lazy[[]*TypeInfo]
	nestedTypes    lazy[[]*TypeInfo]
	enumUnderlying lazy[*TypeInfo]
}

// instancePayload belongs to closed generic instantiations.
type instancePayload struct {
	definition *TypeInfo
	arguments  []*TypeInfo

	baseType   lazy[*TypeInfo]
	interfaces lazy[[]*TypeInfo]
	members    *members
}

// elementPayload belongs to arrays and pointers.
type elementPayload struct {
	element *TypeInfo
	rank    int
}

// parameterPayload belongs to generic type and method parameters.
type parameterPayload struct {
	index           int32
	position        int
	attributes      metadata.GenericParameterAttributes
	constraintStart int32
	constraintCount int
	declaringMethod *MethodBase

	constraints lazy[[]*TypeInfo]
}

// TypeInfo is the canonical node for one managed type. Exactly one of the payloads is set;
// which one is decided by the constructor that created the node.
type TypeInfo struct {
	model *TypeModel
	id    int
	kind  Kind

	// Index is the type definition index. Arrays and pointers carry their element's,
	// generic parameters carry -1.
	Index      int32
	Definition *metadata.TypeDefinition
	Attributes metadata.TypeAttributes

	namespace          string
	baseName           string
	declaringTypeIndex int32

	definition *definitionPayload
	instance   *instancePayload
	element    *elementPayload
	parameter  *parameterPayload
}

func kindOf(definition *metadata.TypeDefinition) Kind {
	switch {
	case metadata.TypeAttributes(definition.Flags)&metadata.TypeInterface != 0:
		return KindInterface
	case definition.IsEnum():
		return KindEnum
	case definition.IsValueType():
		return KindValueType
	}
	return KindClass
}

func (t *TypeInfo) Kind() Kind { return t.kind }

func (t *TypeInfo) String() string { return t.Name() }

// BaseName is the name from the definition, including any generic arity suffix.
func (t *TypeInfo) BaseName() string { return t.baseName }

// UnmangledBaseName is the base name without the generic arity suffix.
func (t *TypeInfo) UnmangledBaseName() string { return stripArity(t.baseName) }

func (t *TypeInfo) Namespace() string {
	if t.namespace == "" {
		if declaring := t.DeclaringType(); declaring != nil {
			return declaring.Namespace()
		}
	}
	return t.namespace
}

// DeclaringType is the enclosing type of a nested type or the owner of a generic parameter.
func (t *TypeInfo) DeclaringType() *TypeInfo {
	if t.declaringTypeIndex < 0 {
		return nil
	}
	return t.model.typesByDefinitionIndex[t.declaringTypeIndex]
}

func (t *TypeInfo) IsNested() bool { return t.declaringTypeIndex >= 0 }

func (t *TypeInfo) HasElementType() bool { return t.element != nil }

func (t *TypeInfo) ElementType() *TypeInfo {
	if t.element == nil {
		return nil
	}
	return t.element.element
}

func (t *TypeInfo) IsArray() bool { return t.kind == KindArray }

func (t *TypeInfo) IsPointer() bool { return t.kind == KindPointer }

func (t *TypeInfo) GetArrayRank() int {
	if t.element == nil {
		return 0
	}
	return t.element.rank
}

func (t *TypeInfo) IsGenericParameter() bool { return t.parameter != nil }

func (t *TypeInfo) IsGenericTypeParameter() bool {
	return t.parameter != nil && t.parameter.declaringMethod == nil
}

func (t *TypeInfo) IsGenericMethodParameter() bool {
	return t.parameter != nil && t.parameter.declaringMethod != nil
}

// DeclaringMethod is the owning method of a generic method parameter.
func (t *TypeInfo) DeclaringMethod() *MethodBase {
	if t.parameter == nil {
		return nil
	}
	return t.parameter.declaringMethod
}

func (t *TypeInfo) GenericParameterPosition() int {
	if t.parameter == nil {
		return -1
	}
	return t.parameter.position
}

func (t *TypeInfo) GenericParameterAttributes() metadata.GenericParameterAttributes {
	if t.parameter == nil {
		return 0
	}
	return t.parameter.attributes
}

// GenericTypeParameters is non-empty only for open generic type definitions.
func (t *TypeInfo) GenericTypeParameters() []*TypeInfo {
	if t.definition == nil {
		return nil
	}
	return t.definition.genericParameters
}

// GenericTypeArguments is non-empty only for closed generic instantiations.
func (t *TypeInfo) GenericTypeArguments() []*TypeInfo {
	if t.instance == nil {
		return nil
	}
	return t.instance.arguments
}

// GetGenericTypeDefinition returns the open definition of a closed instantiation.
func (t *TypeInfo) GetGenericTypeDefinition() *TypeInfo {
	if t.instance != nil {
		return t.instance.definition
	}
	if t.IsGenericTypeDefinition() {
		return t
	}
	return nil
}

func (t *TypeInfo) IsGenericTypeDefinition() bool { return len(t.GenericTypeParameters()) > 0 }

func (t *TypeInfo) IsGenericType() bool { return t.instance != nil || t.IsGenericTypeDefinition() }

// ContainsGenericParameters reports whether the type still refers to an unbound generic parameter.
func (t *TypeInfo) ContainsGenericParameters() bool {
	switch {
	case t.parameter != nil:
		return true
	case t.element != nil:
		return t.element.element.ContainsGenericParameters()
	case t.instance != nil:
		for _, arg := range t.instance.arguments {
			if arg.ContainsGenericParameters() {
				return true
			}
		}
		return false
	}
	return t.IsGenericTypeDefinition()
}

func (t *TypeInfo) visibility() metadata.TypeAttributes {
	return t.Attributes & metadata.TypeVisibilityMask
}

func (t *TypeInfo) IsPublic() bool { return t.visibility() == metadata.TypePublic }
func (t *TypeInfo) IsNotPublic() bool { return t.visibility() == metadata.TypeNotPublic }
func (t *TypeInfo) IsNestedPublic() bool { return t.visibility() == metadata.TypeNestedPublic }
func (t *TypeInfo) IsNestedPrivate() bool { return t.visibility() == metadata.TypeNestedPrivate }
func (t *TypeInfo) IsNestedFamily() bool { return t.visibility() == metadata.TypeNestedFamily }
func (t *TypeInfo) IsNestedAssembly() bool { return t.visibility() == metadata.TypeNestedAssembly }
func (t *TypeInfo) IsNestedFamANDAssem() bool { return t.visibility() == metadata.TypeNestedFamANDAssem }
func (t *TypeInfo) IsNestedFamORAssem() bool { return t.visibility() == metadata.TypeNestedFamORAssem }
func (t *TypeInfo) IsAbstract() bool { return t.Attributes&metadata.TypeAbstract != 0 }
func (t *TypeInfo) IsSealed() bool { return t.Attributes&metadata.TypeSealed != 0 }
func (t *TypeInfo) IsSpecialName() bool { return t.Attributes&metadata.TypeSpecialName != 0 }
func (t *TypeInfo) IsImport() bool { return t.Attributes&metadata.TypeImport != 0 }
func (t *TypeInfo) IsSerializable() bool { return t.Attributes&metadata.TypeSerializable != 0 }
func (t *TypeInfo) IsInterface() bool { return t.kind == KindInterface }
func (t *TypeInfo) IsEnum() bool { return t.kind == KindEnum }
func (t *TypeInfo) IsClass() bool { return t.kind == KindClass }

// IsValueType reports whether instances are stored by value. Enumerations are value types.
func (t *TypeInfo) IsValueType() bool { return t.kind == KindValueType || t.kind == KindEnum }

func (t *TypeInfo) IsPrimitive() bool {
	if t.element != nil || t.parameter != nil || t.Namespace() != "System" {
		return false
	}
	for _, name := range primitiveNames {
		if t.baseName == name {
			return true
		}
	}
	return false
}

// RequiresUnsafeContext reports whether using the type needs an unsafe context.
func (t *TypeInfo) RequiresUnsafeContext() bool {
	return t.IsPointer() || (t.element != nil && t.element.element.RequiresUnsafeContext())
}

func (t *TypeInfo) suffix() string {
	switch t.kind {
	case KindArray:
		return "[" + strings.Repeat(",", t.element.rank-1) + "]"
	case KindPointer:
		return "*"
	}
	return ""
}

func genericList(open, close string, types []*TypeInfo, name func(*TypeInfo) string) string {
	if len(types) == 0 {
		return ""
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = name(t)
	}
	sep := ","
	if open == "<" {
		sep = ", "
	}
	return open + strings.Join(names, sep) + close
}

// Name is the display name: declaring types joined by '+', then generic parameters or arguments.
func (t *TypeInfo) Name() string {
	if t.parameter != nil {
		return t.baseName
	}
	if t.element != nil {
		return t.element.element.Name() + t.suffix()
	}
	var name strings.Builder
	if declaring := t.DeclaringType(); declaring != nil {
		name.WriteString(declaring.Name() + "+")
	}
	name.WriteString(t.baseName)
	namespace := t.Namespace()
	argumentName := func(arg *TypeInfo) string {
		if arg.Namespace() != namespace {
			if full := arg.FullName(); full != "" {
				return full
			}
		}
		return arg.Name()
	}
	name.WriteString(genericList("[", "]", t.GenericTypeParameters(), argumentName))
	name.WriteString(genericList("[", "]", t.GenericTypeArguments(), argumentName))
	return name.String()
}

// FullName is the namespace-qualified name. Generic parameters have no full name.
func (t *TypeInfo) FullName() string {
	if t.parameter != nil {
		return ""
	}
	if t.element != nil {
		element := t.element.element.FullName()
		if element == "" {
			return ""
		}
		return element + t.suffix()
	}
	var name strings.Builder
	if declaring := t.DeclaringType(); declaring != nil {
		name.WriteString(declaring.FullName() + "+")
	} else if t.namespace != "" {
		name.WriteString(t.namespace + ".")
	}
	name.WriteString(t.baseName)
	argumentName := func(arg *TypeInfo) string {
		if full := arg.FullName(); full != "" {
			return full
		}
		return arg.Name()
	}
	name.WriteString(genericList("[", "]", t.GenericTypeParameters(), argumentName))
	name.WriteString(genericList("[", "]", t.GenericTypeArguments(), argumentName))
	return name.String()
}

func (t *TypeInfo) definitionFullName() string {
	return t.Namespace() + "." + t.baseName
}

func (t *TypeInfo) isNullableInstance() bool {
	return t.instance != nil && len(t.instance.arguments) > 0 && t.definitionFullName() == "System.Nullable`1"
}

// CSharpName is the unscoped name as written in C#.
func (t *TypeInfo) CSharpName() string {
	if t.element != nil {
		return t.element.element.CSharpName() + t.suffix()
	}
	if t.isNullableInstance() {
		return t.instance.arguments[0].CSharpName() + "?"
	}
	name, found := csharpKeywords[t.definitionFullName()]
	if !found || t.parameter != nil {
		name = stripArity(t.baseName)
	}
	csharpName := func(arg *TypeInfo) string { return arg.CSharpName() }
	name += genericList("<", ">", t.GenericTypeParameters(), csharpName)
	return name + genericList("<", ">", t.GenericTypeArguments(), csharpName)
}

// CSharpTypeDeclarationName is the name as written in the type's own declaration.
func (t *TypeInfo) CSharpTypeDeclarationName() string {
	if t.element != nil {
		return t.element.element.CSharpTypeDeclarationName() + t.suffix()
	}
	plainName := func(arg *TypeInfo) string { return arg.Name() }
	return stripArity(t.baseName) +
		genericList("<", ">", t.GenericTypeParameters(), plainName) +
		genericList("<", ">", t.GenericTypeArguments(), plainName)
}

func (t *TypeInfo) AccessModifierString() (string, error) {
	switch t.visibility() {
	case metadata.TypePublic, metadata.TypeNestedPublic:
		return "public ", nil
	case metadata.TypeNotPublic, metadata.TypeNestedAssembly:
		return "internal ", nil
	case metadata.TypeNestedPrivate:
		return "private ", nil
	case metadata.TypeNestedFamily:
		return "protected ", nil
	case metadata.TypeNestedFamORAssem:
		return "protected internal ", nil
	case metadata.TypeNestedFamANDAssem:
		return "private protected ", nil
	}
	return "", fmt.Errorf("reflection: unknown access modifier 0x%x on %s", uint32(t.visibility()), t.Name())
}

// ModifierString is the full declaration prefix, such as "public static class ".
func (t *TypeInfo) ModifierString() (string, error) {
	access, err := t.AccessModifierString()
	if err != nil {
		return "", err
	}
	modifiers := []string{access}
	if t.IsAbstract() && t.IsSealed() {
		modifiers = append(modifiers, "static ")
	} else {
		if t.IsAbstract() && !t.IsInterface() {
			modifiers = append(modifiers, "abstract ")
		}
		if t.IsSealed() && !t.IsValueType() {
			modifiers = append(modifiers, "sealed ")
		}
	}
	switch {
	case t.IsInterface():
		modifiers = append(modifiers, "interface ")
	case t.IsEnum():
		modifiers = append(modifiers, "enum ")
	case t.IsValueType():
		modifiers = append(modifiers, "struct ")
	default:
		modifiers = append(modifiers, "class ")
	}
	return strings.Join(modifiers, ""), nil
}

// BaseType resolves the parent type. Pointers, interfaces and System.Object have none;
// other types without an explicit parent derive from System.Array or System.Object.
func (t *TypeInfo) BaseType() (*TypeInfo, error) {
	switch {
	case t.kind == KindPointer:
		return nil, nil
	case t.instance != nil:
		return t.instance.baseType.get(func() (*TypeInfo, error) {
			base, err := t.instance.definition.BaseType()
			if err != nil || base == nil {
				return base, err
			}
			return t.model.Substitute(base, t.instance.arguments, nil)
		})
	case t.definition != nil && t.definition.baseTypeUsage >= 0:
		return t.definition.baseType.get(func() (*TypeInfo, error) {
			return t.model.Resolve(t.definition.baseTypeUsage)
		})
	case t.kind == KindArray:
		return t.model.builtin("System.Array")
	case t.kind == KindInterface:
		return nil, nil
	case t.parameter == nil && t.namespace == "System" && t.baseName == "Object":
		return nil, nil
	}
	return t.model.builtin("System.Object")
}

func (t *TypeInfo) declaration() *definitionPayload {
	if t.instance != nil {
		return t.instance.definition.definition
	}
	return t.definition
}

// ImplementedInterfaces resolves the interfaces declared by the type.
func (t *TypeInfo) ImplementedInterfaces() ([]*TypeInfo, error) {
	if t.instance != nil {
		return t.instance.interfaces.get(func() ([]*TypeInfo, error) {
			open, err := t.instance.definition.ImplementedInterfaces()
			if err != nil {
				return nil, err
			}
			return t.model.substituteAll(open, t.instance.arguments, nil)
		})
	}
	if t.definition == nil {
		return nil, nil
	}
	return t.definition.interfaces.get(func() ([]*TypeInfo, error) {
		return t.model.resolveAll(t.definition.interfaceUsages)
	})
}

func (t *TypeInfo) DeclaredNestedTypes() ([]*TypeInfo, error) {
	definition := t.declaration()
	if definition == nil {
		return nil, nil
	}
	return definition.nestedTypes.get(func() ([]*TypeInfo, error) {
		nested := make([]*TypeInfo, len(definition.nestedTypeIndices))
		for i, index := range definition.nestedTypeIndices {
			n, err := t.model.ResolveDefinition(index)
			if err != nil {
				return nil, fmt.Errorf("resolving nested type %d of %s: %w", index, t.Name(), err)
			}
			nested[i] = n
		}
		return nested, nil
	})
}

// GetEnumUnderlyingType returns nil for types that are not enumerations.
func (t *TypeInfo) GetEnumUnderlyingType() (*TypeInfo, error) {
	definition := t.declaration()
	if !t.IsEnum() || definition == nil {
		return nil, nil
	}
	return definition.enumUnderlying.get(func() (*TypeInfo, error) {
		return t.model.Resolve(definition.enumUnderlyingUsage)
	})
}

func (t *TypeInfo) GetEnumNames() ([]string, error) {
	if !t.IsEnum() {
		return nil, fmt.Errorf("%w: %s", ErrNotEnum, t.Name())
	}
	var names []string
	for _, field := range t.DeclaredFields() {
		if field.Name != "value__" {
			names = append(names, field.Name)
		}
	}
	return names, nil
}

// GetGenericParameterConstraints resolves the constraint list of a generic parameter.
func (t *TypeInfo) GetGenericParameterConstraints() ([]*TypeInfo, error) {
	if t.parameter == nil || t.parameter.constraintCount == 0 {
		return nil, nil
	}
	p := t.parameter
	return p.constraints.get(func() ([]*TypeInfo, error) {
		usages, err := metadata.Range(t.model.Package.Metadata.GenericConstraintIndices, "generic constraints", p.constraintStart, p.constraintCount)
		if err != nil {
			return nil, err
		}
		return t.model.resolveAll(usages)
	})
}

func (t *TypeInfo) members() *members {
	switch {
	case t.definition != nil:
		return &t.definition.members
	case t.instance != nil:
		if t.instance.members == nil {
			t.instance.members = t.instance.definition.definition.members.rebind(t)
		}
		return t.instance.members
	}
	return &members{}
}

func (t *TypeInfo) DeclaredFields() []*FieldInfo { return t.members().fields }

func (t *TypeInfo) DeclaredConstructors() []*MethodBase { return t.members().constructors }

func (t *TypeInfo) DeclaredMethods() []*MethodBase { return t.members().methods }

func (t *TypeInfo) DeclaredProperties() []*PropertyInfo { return t.members().properties }

func (t *TypeInfo) DeclaredEvents() []*EventInfo { return t.members().events }

// Get a field by its name
func (t *TypeInfo) GetField(name string) *FieldInfo {
	for _, field := range t.DeclaredFields() {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Get a method by its name
func (t *TypeInfo) GetMethod(name string) *MethodBase {
	for _, method := range t.DeclaredMethods() {
		if method.Name == name {
			return method
		}
	}
	return nil
}

// Get all overloads with given name
func (t *TypeInfo) GetMethods(name string) []*MethodBase {
	var overloads []*MethodBase
	for _, method := range t.DeclaredMethods() {
		if method.Name == name {
			overloads = append(overloads, method)
		}
	}
	return overloads
}

func (t *TypeInfo) GetProperty(name string) *PropertyInfo {
	for _, property := range t.DeclaredProperties() {
		if property.Name == name {
			return property
		}
	}
	return nil
}

// GetAllMethods returns declared methods followed by those of every base type.
func (t *TypeInfo) GetAllMethods() ([]*MethodBase, error) {
	var methods []*MethodBase
	for current := t; current != nil; {
		methods = append(methods, current.DeclaredMethods()...)
		base, err := current.BaseType()
		if err != nil {
			return nil, err
		}
		current = base
	}
	return methods, nil
}

// stripArity removes the generic arity suffix from every segment of a dotted name.
func stripArity(name string) string {
	if !strings.Contains(name, "`") {
		return name
	}
	segments := strings.Split(name, ".")
	for i, segment := range segments {
		if tick := strings.Index(segment, "`"); tick >= 0 {
			segments[i] = segment[:tick]
		}
	}
	return strings.Join(segments, ".")
}
