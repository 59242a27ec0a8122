package model

import (
	"fmt"
	"typerecon/internal/cpp"
	"typerecon/internal/metadata"
	"typerecon/internal/reflection"
)

// Provenance groups stamped on everything created while a build phase is active
const (
	GroupHeaders        = cpp.HeaderGroup
	GroupMethods        = "types_from_methods"
	GroupGenericMethods = "types_from_generic_methods"
	GroupUsages         = "types_from_usages"
)

// AppType correlates a managed type with its native declarations and the addresses of its
// runtime metadata. Addresses are zero until the usage table reports them.
type AppType struct {
	Type          *reflection.TypeInfo
	ReferenceType *cpp.NativeType
	ValueType     *cpp.NativeType

	TypeClassAddress  uint64
	TypeRefPtrAddress uint64

	Group string
}

func (appType *AppType) String() string { return appType.Type.FullName() }

// HasNativeType reports whether the managed type has native declarations of its own.
// Generic type definitions only ever appear through their runtime metadata.
func (appType *AppType) HasNativeType() bool { return appType.ReferenceType != nil }

func (appType *AppType) setTypeClassAddress(va uint64) error {
	if appType.TypeClassAddress != 0 {
		return fmt.Errorf("%w: type info of %s found at %#x and %#x",
			metadata.ErrInputConsistency, appType.Type, appType.TypeClassAddress, va)
	}
	appType.TypeClassAddress = va
	return nil
}

// AppMethod correlates a managed method with its native function pointer type.
type AppMethod struct {
	Method *reflection.MethodBase
	FnPtr  *cpp.NativeType

	MethodInfoPtrAddress uint64

	Group string
}

func (method *AppMethod) String() string { return method.Method.FullName() }

// VirtualAddress is the address of the compiled method body, if there is one.
func (method *AppMethod) VirtualAddress() (uint64, bool) { return method.Method.VirtualAddress() }

func (method *AppMethod) setMethodInfoPtrAddress(va uint64) error {
	if method.MethodInfoPtrAddress != 0 {
		return fmt.Errorf("%w: method info of %s found at %#x and %#x",
			metadata.ErrInputConsistency, method.Method, method.MethodInfoPtrAddress, va)
	}
	method.MethodInfoPtrAddress = va
	return nil
}

// AppExport is an exported API function of the binary with its header signature.
type AppExport struct {
	Name           string
	VirtualAddress uint64
	FnPtr          *cpp.NativeType
}
