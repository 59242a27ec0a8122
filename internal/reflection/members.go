package reflection

import (
	"fmt"
	"strings"
	"typerecon/internal/metadata"
)

// MethodBase is a method or constructor. Generic method instantiations share the
// definition record of their generic method definition.
type MethodBase struct {
	model *TypeModel

	Index      int32
	Definition *metadata.MethodDefinition
	Name       string
	Attributes metadata.MethodAttributes

	declaringType     *TypeInfo
	genericParameters []*TypeInfo
	genericArguments  []*TypeInfo
	genericDefinition *MethodBase
	specIndex         int32

	virtualAddress uint64
	hasAddress     bool

	returnType lazy[*TypeInfo]
	parameters lazy[[]*ParameterInfo]
}

func (method *MethodBase) String() string { return method.FullName() }

func (method *MethodBase) DeclaringType() *TypeInfo { return method.declaringType }

// VirtualAddress is the address of the compiled code, if the method was compiled.
func (method *MethodBase) VirtualAddress() (uint64, bool) {
	return method.virtualAddress, method.hasAddress
}

func (method *MethodBase) IsConstructor() bool {
	return method.Name == ConstructorName || method.Name == TypeConstructorName
}

func (method *MethodBase) IsStatic() bool {
	return method.Attributes&metadata.MethodStatic != 0
}

func (method *MethodBase) IsVirtual() bool {
	return method.Attributes&metadata.MethodVirtual != 0
}

func (method *MethodBase) IsAbstract() bool {
	return method.Attributes&metadata.MethodAbstract != 0
}

// GenericTypeParameters is non-empty only for generic method definitions.
func (method *MethodBase) GenericTypeParameters() []*TypeInfo { return method.genericParameters }

// GenericTypeArguments is non-empty only for generic method instantiations.
func (method *MethodBase) GenericTypeArguments() []*TypeInfo { return method.genericArguments }

func (method *MethodBase) IsGenericMethodDefinition() bool { return len(method.genericParameters) > 0 }

func (method *MethodBase) IsGenericMethod() bool {
	return method.IsGenericMethodDefinition() || method.genericDefinition != nil
}

// GetGenericMethodDefinition returns the definition a method instantiation was created from.
func (method *MethodBase) GetGenericMethodDefinition() *MethodBase {
	if method.genericDefinition != nil {
		return method.genericDefinition
	}
	return method
}

// SpecIndex is the method spec index of a generic method instantiation, otherwise -1.
func (method *MethodBase) SpecIndex() int32 { return method.specIndex }

func (method *MethodBase) ContainsGenericParameters() bool {
	if method.declaringType.ContainsGenericParameters() || method.IsGenericMethodDefinition() {
		return true
	}
	for _, arg := range method.genericArguments {
		if arg.ContainsGenericParameters() {
			return true
		}
	}
	return false
}

// FullName is the declaring type's full name, the method name and any method arguments.
func (method *MethodBase) FullName() string {
	argumentName := func(arg *TypeInfo) string {
		if full := arg.FullName(); full != "" {
			return full
		}
		return arg.Name()
	}
	return method.declaringType.FullName() + "." + method.Name +
		genericList("[", "]", method.genericArguments, argumentName) +
		genericList("[", "]", method.genericParameters, argumentName)
}

func (method *MethodBase) substitute(t *TypeInfo) (*TypeInfo, error) {
	return method.model.Substitute(t, method.declaringType.GenericTypeArguments(), method.genericArguments)
}

func (method *MethodBase) ReturnType() (*TypeInfo, error) {
	return method.returnType.get(func() (*TypeInfo, error) {
		t, err := method.model.Resolve(method.Definition.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("resolving return type of %s: %w", method.Name, err)
		}
		return method.substitute(t)
	})
}

func (method *MethodBase) Parameters() ([]*ParameterInfo, error) {
	return method.parameters.get(func() ([]*ParameterInfo, error) {
		md := method.model.Package.Metadata
		definitions, err := metadata.Range(md.Parameters, "parameters", method.Definition.ParameterStart, int(method.Definition.ParameterCount))
		if err != nil {
			return nil, err
		}
		parameters := make([]*ParameterInfo, len(definitions))
		for i, definition := range definitions {
			name, err := md.String(definition.NameIndex)
			if err != nil {
				return nil, err
			}
			t, err := method.model.Resolve(definition.TypeIndex)
			if err != nil {
				return nil, fmt.Errorf("resolving parameter %s of %s: %w", name, method.Name, err)
			}
			if t, err = method.substitute(t); err != nil {
				return nil, err
			}
			parameters[i] = &ParameterInfo{Name: name, Position: i, ParameterType: t, Member: method}
		}
		return parameters, nil
	})
}

// Signature renders the method as "ReturnType Name(ParamType, ...)" using C# names.
func (method *MethodBase) Signature() (string, error) {
	returnType, err := method.ReturnType()
	if err != nil {
		return "", err
	}
	parameters, err := method.Parameters()
	if err != nil {
		return "", err
	}
	names := make([]string, len(parameters))
	for i, p := range parameters {
		names[i] = p.ParameterType.CSharpName()
	}
	return fmt.Sprintf("%s %s(%s)", returnType.CSharpName(), method.Name, strings.Join(names, ", ")), nil
}

// rebind returns a copy of the method declared by an instantiation of its declaring type.
func (method *MethodBase) rebind(declaringType *TypeInfo) *MethodBase {
	return &MethodBase{
		model:             method.model,
		Index:             method.Index,
		Definition:        method.Definition,
		Name:              method.Name,
		Attributes:        method.Attributes,
		declaringType:     declaringType,
		genericParameters: method.genericParameters,
		specIndex:         -1,
	}
}

type ParameterInfo struct {
	Name          string
	Position      int
	ParameterType *TypeInfo
	Member        *MethodBase
}

type FieldInfo struct {
	model *TypeModel

	Index      int32
	Name       string
	Attributes metadata.FieldAttributes

	declaringType *TypeInfo
	typeUsage     int32
	fieldType     lazy[*TypeInfo]
}

func (field *FieldInfo) DeclaringType() *TypeInfo { return field.declaringType }

func (field *FieldInfo) IsStatic() bool { return field.Attributes&metadata.FieldStatic != 0 }

func (field *FieldInfo) IsLiteral() bool { return field.Attributes&metadata.FieldLiteral != 0 }

// FieldType resolves the field's type, substituting the declaring type's generic arguments.
func (field *FieldInfo) FieldType() (*TypeInfo, error) {
	return field.fieldType.get(func() (*TypeInfo, error) {
		t, err := field.model.Resolve(field.typeUsage)
		if err != nil {
			return nil, fmt.Errorf("resolving type of field %s: %w", field.Name, err)
		}
		return field.model.Substitute(t, field.declaringType.GenericTypeArguments(), nil)
	})
}

type PropertyInfo struct {
	Name          string
	GetMethod     *MethodBase
	SetMethod     *MethodBase
	declaringType *TypeInfo
}

func (property *PropertyInfo) DeclaringType() *TypeInfo { return property.declaringType }

// PropertyType is the getter's return type, or the type of the setter's last parameter.
func (property *PropertyInfo) PropertyType() (*TypeInfo, error) {
	if property.GetMethod != nil {
		return property.GetMethod.ReturnType()
	}
	if property.SetMethod == nil {
		return nil, nil
	}
	parameters, err := property.SetMethod.Parameters()
	if err != nil || len(parameters) == 0 {
		return nil, err
	}
	return parameters[len(parameters)-1].ParameterType, nil
}

type EventInfo struct {
	model *TypeModel

	Name          string
	AddMethod     *MethodBase
	RemoveMethod  *MethodBase
	RaiseMethod   *MethodBase
	declaringType *TypeInfo
	typeUsage     int32
}

func (event *EventInfo) DeclaringType() *TypeInfo { return event.declaringType }

func (event *EventInfo) EventHandlerType() (*TypeInfo, error) {
	t, err := event.model.Resolve(event.typeUsage)
	if err != nil {
		return nil, err
	}
	return event.model.Substitute(t, event.declaringType.GenericTypeArguments(), nil)
}

// rebind copies the members of a generic type definition onto one of its instantiations.
func (definition *members) rebind(declaringType *TypeInfo) *members {
	bound := &members{}
	methods := make(map[*MethodBase]*MethodBase)
	rebindMethod := func(method *MethodBase) *MethodBase {
		if method == nil {
			return nil
		}
		if copied, found := methods[method]; found {
			return copied
		}
		copied := method.rebind(declaringType)
		methods[method] = copied
		return copied
	}

	for _, field := range definition.fields {
		bound.fields = append(bound.fields, &FieldInfo{
			model:         field.model,
			Index:         field.Index,
			Name:          field.Name,
			Attributes:    field.Attributes,
			declaringType: declaringType,
			typeUsage:     field.typeUsage,
		})
	}
	for _, constructor := range definition.constructors {
		bound.constructors = append(bound.constructors, rebindMethod(constructor))
	}
	for _, method := range definition.methods {
		bound.methods = append(bound.methods, rebindMethod(method))
	}
	for _, property := range definition.properties {
		bound.properties = append(bound.properties, &PropertyInfo{
			Name:          property.Name,
			GetMethod:     rebindMethod(property.GetMethod),
			SetMethod:     rebindMethod(property.SetMethod),
			declaringType: declaringType,
		})
	}
	for _, event := range definition.events {
		bound.events = append(bound.events, &EventInfo{
			model:         event.model,
			Name:          event.Name,
			AddMethod:     rebindMethod(event.AddMethod),
			RemoveMethod:  rebindMethod(event.RemoveMethod),
			RaiseMethod:   rebindMethod(event.RaiseMethod),
			declaringType: declaringType,
			typeUsage:     event.typeUsage,
		})
	}
	return bound
}
