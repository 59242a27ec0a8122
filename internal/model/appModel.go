// Package model correlates the managed types and methods of an application with the native
// declarations generated for them, and keeps those declarations in emission order.
package model

import (
	"fmt"
	"typerecon/internal/cpp"
	"typerecon/internal/headers"
	"typerecon/internal/image"
	"typerecon/internal/metadata"
	"typerecon/internal/multikey"
	"typerecon/internal/reflection"

	"fortio.org/safecast"
	"github.com/apex/log"
)

type BuildOptions struct {
	Compiler cpp.Compiler
	// Headers is the header baseline. The embedded default bundle is used when nil.
	Headers *headers.Bundle
	// FrameworkVersion is checked against the version range of the bundle when set.
	FrameworkVersion string
}

// AppModel is the managed/native correlation of one application.
// Build mutates every table; queries are safe to share once Build has returned.
type AppModel struct {
	TypeModel *reflection.TypeModel
	exports   []image.Export

	Types         *multikey.Table[*reflection.TypeInfo, *cpp.NativeType, *AppType]
	Methods       *multikey.Table[*reflection.MethodBase, *cpp.NativeType, *AppMethod]
	AvailableAPIs *multikey.Table[string, uint64, *AppExport]
	Strings       *StringTable
	CppTypes      *cpp.TypeCollection

	declarations []*cpp.NativeType
	generator    *cpp.DeclarationGenerator
	group        string
}

// New creates an empty model over the types of typeModel.
func New(typeModel *reflection.TypeModel) *AppModel {
	model := &AppModel{TypeModel: typeModel}
	if img := typeModel.Package.Image; img != nil {
		model.exports = img.Exports()
	}
	model.reset()
	return model
}

func (model *AppModel) reset() {
	model.Types = multikey.New[*reflection.TypeInfo, *cpp.NativeType, *AppType]()
	model.Methods = multikey.New[*reflection.MethodBase, *cpp.NativeType, *AppMethod]()
	model.AvailableAPIs = multikey.New[string, uint64, *AppExport]()
	model.Strings = NewStringTable()
	model.CppTypes = nil
	model.declarations = nil
	model.generator = nil
	model.group = ""
}

// Build correlates every compiled method, generic method instantiation and metadata usage
// with native declarations. A failed build leaves the model unusable until the next Build.
func (model *AppModel) Build(options BuildOptions) error {
	model.reset()

	if err := model.buildBaseline(options); err != nil {
		return fmt.Errorf("loading header baseline: %w", err)
	}
	if err := model.buildMethods(); err != nil {
		return fmt.Errorf("compiled methods: %w", err)
	}
	if err := model.buildGenericMethods(); err != nil {
		return fmt.Errorf("generic methods: %w", err)
	}

	pkg := model.TypeModel.Package
	if pkg.HasMetadataUsages() {
		if err := model.buildUsages(); err != nil {
			return fmt.Errorf("metadata usages: %w", err)
		}
	} else {
		model.setGroup(GroupUsages)
		for i, text := range pkg.Metadata.StringLiterals {
			if err := model.Strings.Add(uint64(i), text); err != nil {
				return err
			}
		}
	}

	log.WithFields(log.Fields{
		"types":        model.Types.Len(),
		"methods":      model.Methods.Len(),
		"declarations": len(model.declarations),
		"literals":     model.Strings.Len(),
		"apis":         model.AvailableAPIs.Len(),
	}).Info("built application model")
	return nil
}

func (model *AppModel) setGroup(group string) {
	model.group = group
	model.CppTypes.SetGroup(group)
}

func (model *AppModel) buildBaseline(options BuildOptions) error {
	bundle := options.Headers
	if bundle == nil {
		var err error
		if bundle, err = headers.Default(); err != nil {
			return err
		}
	}

	version := model.TypeModel.Package.Metadata.Version
	if bundle.MetadataVersion != 0 && bundle.MetadataVersion != version {
		log.Warnf("header bundle %s targets metadata version %v but the binary uses %v", bundle.Name, bundle.MetadataVersion, version)
	}
	if options.FrameworkVersion != "" {
		supported, err := bundle.Supports(options.FrameworkVersion)
		if err != nil {
			log.Warnf("cannot compare framework version with header bundle %s: %v", bundle.Name, err)
		} else if !supported {
			log.Warnf("framework version %s is outside the range %s of header bundle %s",
				options.FrameworkVersion, bundle.VersionRange(), bundle.Name)
		}
	}

	var err error
	if model.CppTypes, err = cpp.FromHeaders(bundle); err != nil {
		return err
	}
	model.generator = cpp.NewDeclarationGenerator(model.CppTypes, options.Compiler)
	model.setGroup(GroupHeaders)

	img := model.TypeModel.Package.Image
	for _, export := range model.exports {
		fnPtr, found := model.CppTypes.TypedefAlias(export.Name)
		if !found {
			continue
		}
		if img == nil || !img.IsMapped(export.VirtualAddress) {
			log.WithField("export", export.Name).Debugf("export address %#x is not mapped", export.VirtualAddress)
			continue
		}
		if model.AvailableAPIs.ContainsKey(export.Name) || model.AvailableAPIs.ContainsSecondary(export.VirtualAddress) {
			log.WithField("export", export.Name).Debugf("export address %#x is already known", export.VirtualAddress)
			continue
		}
		api := &AppExport{Name: export.Name, VirtualAddress: export.VirtualAddress, FnPtr: fnPtr}
		if err := model.AvailableAPIs.Add(api.Name, api.VirtualAddress, api); err != nil {
			return err
		}
	}
	return nil
}

func (model *AppModel) buildMethods() error {
	model.setGroup(GroupMethods)
	methods, err := model.TypeModel.Methods()
	if err != nil {
		return err
	}
	for _, method := range methods {
		if _, found := method.VirtualAddress(); !found {
			continue
		}
		if _, err := model.includeMethod(method); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
	return nil
}

func (model *AppModel) buildGenericMethods() error {
	model.setGroup(GroupGenericMethods)
	methods, err := model.TypeModel.GenericMethods()
	if err != nil {
		return err
	}
	for _, method := range methods {
		if _, found := method.VirtualAddress(); !found {
			continue
		}
		if _, err := model.includeMethod(method); err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
	}
	return nil
}

func (model *AppModel) buildUsages() error {
	model.setGroup(GroupUsages)
	pkg := model.TypeModel.Package
	for _, usage := range pkg.Registration.MetadataUsages {
		if err := model.addUsage(usage); err != nil {
			return fmt.Errorf("%s usage %d at %#x: %w", usage.Type, usage.Index, usage.VirtualAddress, err)
		}
	}
	return nil
}

func (model *AppModel) addUsage(usage metadata.MetadataUsage) error {
	switch usage.Type {
	case metadata.UsageStringLiteral:
		text, err := model.TypeModel.Package.Metadata.StringLiteral(usage.Index)
		if err != nil {
			return err
		}
		return model.Strings.Add(usage.VirtualAddress, text)

	case metadata.UsageTypeInfo, metadata.UsageType:
		index, err := safecast.Conv[int32](usage.Index)
		if err != nil {
			return metadata.Corrupt(err)
		}
		t, err := model.TypeModel.Resolve(index)
		if err != nil {
			return err
		}
		entry, err := model.includeType(t)
		if err != nil {
			return err
		}
		if usage.Type == metadata.UsageTypeInfo {
			return entry.setTypeClassAddress(usage.VirtualAddress)
		}
		if entry.TypeRefPtrAddress != 0 {
			log.WithField("type", t.FullName()).Debugf("type reference at %#x already found at %#x", usage.VirtualAddress, entry.TypeRefPtrAddress)
			return nil
		}
		entry.TypeRefPtrAddress = usage.VirtualAddress
		return nil

	case metadata.UsageMethodDef, metadata.UsageMethodRef:
		index, err := safecast.Conv[int32](usage.Index)
		if err != nil {
			return metadata.Corrupt(err)
		}
		var method *reflection.MethodBase
		if usage.Type == metadata.UsageMethodDef {
			method, err = model.TypeModel.ResolveMethod(index)
		} else {
			method, err = model.TypeModel.ResolveMethodSpec(index)
		}
		if err != nil {
			return err
		}
		entry, err := model.includeMethod(method)
		if err != nil {
			return err
		}
		return entry.setMethodInfoPtrAddress(usage.VirtualAddress)

	case metadata.UsageFieldInfo:
		log.Debugf("skipping field info usage %d", usage.Index)
		return nil
	}
	return metadata.Corrupt(fmt.Errorf("unknown usage kind %d", usage.Type))
}

// includeType generates the native declarations of t and returns its correlation entry,
// creating one without a native side for types that have no declarations.
func (model *AppModel) includeType(t *reflection.TypeInfo) (*AppType, error) {
	if err := model.generator.IncludeType(t); err != nil {
		return nil, err
	}
	if err := model.addTypes(); err != nil {
		return nil, err
	}
	if entry, found := model.Types.Get(t); found {
		return entry, nil
	}
	entry := &AppType{Type: t, Group: model.group}
	if err := model.Types.AddPrimary(t, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// includeMethod generates the declarations a method uses, then its function pointer type.
func (model *AppModel) includeMethod(method *reflection.MethodBase) (*AppMethod, error) {
	if entry, found := model.Methods.Get(method); found {
		return entry, nil
	}
	if err := model.generator.IncludeMethod(method); err != nil {
		return nil, err
	}
	if err := model.addTypes(); err != nil {
		return nil, err
	}
	fnPtr, err := model.generator.GenerateMethodDeclaration(method)
	if err != nil {
		return nil, err
	}
	model.declarations = append(model.declarations, fnPtr)

	entry := &AppMethod{Method: method, FnPtr: fnPtr, Group: model.group}
	if err := model.Methods.Add(method, fnPtr, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// addTypes drains the generator into the emission list and records the new types.
func (model *AppModel) addTypes() error {
	generated, err := model.generator.GenerateRemainingTypeDeclarations()
	if err != nil {
		return err
	}
	for _, g := range generated {
		model.declarations = append(model.declarations, g.Declarations()...)
		if model.Types.ContainsKey(g.Type) {
			continue
		}
		entry := &AppType{Type: g.Type, ReferenceType: g.Reference, ValueType: g.Value, Group: model.group}
		if err := model.Types.Add(g.Type, g.Reference, entry); err != nil {
			return err
		}
	}
	return nil
}

// DependencyOrderedCppTypes returns every generated declaration in emission order.
func (model *AppModel) DependencyOrderedCppTypes() []*cpp.NativeType {
	return append([]*cpp.NativeType(nil), model.declarations...)
}

// CheckEmissionOrder verifies the emission list of the last build.
func (model *AppModel) CheckEmissionOrder() error {
	return CheckEmissionOrder(model.declarations)
}

// GetCppTypeGroup returns the native types of a group in creation order.
func (model *AppModel) GetCppTypeGroup(group string) []*cpp.NativeType {
	if model.CppTypes == nil {
		return nil
	}
	return model.CppTypes.GetTypeGroup(group)
}

// GetDependencyOrderedCppTypeGroup returns the native types of a group in emission order.
// Header types are already in declaration order.
func (model *AppModel) GetDependencyOrderedCppTypeGroup(group string) []*cpp.NativeType {
	if group == GroupHeaders {
		return model.GetCppTypeGroup(group)
	}
	var types []*cpp.NativeType
	for _, t := range model.declarations {
		if t.Group == group {
			types = append(types, t)
		}
	}
	return types
}

func (model *AppModel) GetTypeGroup(group string) []*AppType {
	var types []*AppType
	for _, t := range model.Types.Values() {
		if t.Group == group {
			types = append(types, t)
		}
	}
	return types
}

func (model *AppModel) GetMethodGroup(group string) []*AppMethod {
	var methods []*AppMethod
	for _, m := range model.Methods.Values() {
		if m.Group == group {
			methods = append(methods, m)
		}
	}
	return methods
}

// GetType finds the correlation entry of a managed type.
func (model *AppModel) GetType(t *reflection.TypeInfo) (*AppType, bool) {
	return model.Types.Get(t)
}

// GetTypeFromNative finds the managed type a native reference type was generated for.
func (model *AppModel) GetTypeFromNative(native *cpp.NativeType) (*AppType, bool) {
	return model.Types.GetBySecondary(native)
}

// GetMethodFromNative finds the managed method a function pointer type was generated for.
func (model *AppModel) GetMethodFromNative(fnPtr *cpp.NativeType) (*AppMethod, bool) {
	return model.Methods.GetBySecondary(fnPtr)
}
