package generation

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"typerecon/internal/cpp"
	"typerecon/internal/model"

	"github.com/dave/jennifer/jen"
)

// The map of header primitive types to the Go types with the same layout
var goPrimitives = map[string]string{
	"bool":      "bool",
	"char":      "byte",
	"int8_t":    "int8",
	"uint8_t":   "uint8",
	"int16_t":   "int16",
	"uint16_t":  "uint16",
	"int32_t":   "int32",
	"uint32_t":  "uint32",
	"int64_t":   "int64",
	"uint64_t":  "uint64",
	"intptr_t":  "int",
	"uintptr_t": "uintptr",
	"float":     "float32",
	"double":    "float64",
}

type Generator struct {
	Types       []*cpp.NativeType
	Methods     []*model.AppMethod
	APIs        []*model.AppExport
	Literals    []model.StringLiteral
	PackageName string
	OutputPath  string
}

func NewGenerator(packageName string, outputPath string) Generator {
	return Generator{
		PackageName: packageName,
		OutputPath:  outputPath,
	}
}

// RegisterModel queues the header baseline, the emission list, the methods, the APIs and
// the literals of a built model.
func (generator *Generator) RegisterModel(app *model.AppModel) {
	for _, t := range app.GetDependencyOrderedCppTypeGroup(model.GroupHeaders) {
		generator.RegisterType(t)
	}
	for _, t := range app.DependencyOrderedCppTypes() {
		generator.RegisterType(t)
	}
	for _, method := range app.Methods.Values() {
		generator.RegisterMethod(method)
	}
	generator.APIs = append(generator.APIs, app.AvailableAPIs.Values()...)
	generator.Literals = append(generator.Literals, app.Strings.Literals()...)
}

func (generator *Generator) RegisterMethod(method *model.AppMethod) {
	generator.Methods = append(generator.Methods, method)
}

func (generator *Generator) RegisterType(t *cpp.NativeType) {
	if t.Kind != cpp.KindPrimitive {
		generator.Types = append(generator.Types, t)
	}
}

// Groups returns the groups of the registered types in first-use order.
func (generator *Generator) Groups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, t := range generator.Types {
		if !seen[t.Group] {
			seen[t.Group] = true
			groups = append(groups, t.Group)
		}
	}
	return groups
}

// Generate writes one file per type group, then the method, API and literal tables.
func (generator *Generator) Generate(path string) error {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return err
	}

	for _, group := range generator.Groups() {
		if err := generator.save(generator.TypesFile(group), path, group); err != nil {
			return err
		}
	}
	if err := generator.save(generator.MethodsFile(), path, "methods"); err != nil {
		return err
	}
	return generator.save(generator.StringsFile(), path, "strings")
}

func (generator *Generator) save(file *jen.File, path, name string) error {
	if err := file.Save(filepath.Join(path, name+".go")); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (generator *Generator) newFile() *jen.File {
	file := jen.NewFile(generator.PackageName)
	file.HeaderComment("Code generated by typerecon. DO NOT EDIT.")
	return file
}

func identifier(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}

func (generator *Generator) writeRef(ref cpp.Ref) *jen.Statement {
	statement := jen.Null()
	if ref.Count > 0 {
		statement.Index(jen.Lit(ref.Count))
	}
	if ref.Type == nil || ref.Type.Name == "void" {
		if ref.Pointer {
			return statement.Qual("unsafe", "Pointer")
		}
		return statement.Struct()
	}
	if ref.Pointer {
		statement.Op("*")
	}
	if primitive, found := goPrimitives[ref.Type.Name]; found {
		return statement.Id(primitive)
	}
	return statement.Id(ref.Type.Name)
}

func (generator *Generator) writeField(field cpp.Field, group *jen.Group) {
	group.Id(identifier(field.Name)).Add(generator.writeRef(field.Ref))
}

func (generator *Generator) generateStruct(t *cpp.NativeType, file *jen.File) {
	file.Commentf("%s (%s)", t.Name, t.Kind)
	file.Type().Id(t.Name).StructFunc(func(g *jen.Group) {
		if t.Base != nil {
			g.Id(t.Base.Name)
		}
		for _, field := range t.Fields {
			generator.writeField(field, g)
		}
	})
}

func (generator *Generator) generateFnPtr(t *cpp.NativeType, file *jen.File) {
	signature := jen.Func().ParamsFunc(func(g *jen.Group) {
		for _, param := range t.Params {
			generator.writeField(param, g)
		}
	})
	if t.Return.Type != nil && (t.Return.Pointer || t.Return.Type.Name != "void") {
		signature.Add(generator.writeRef(t.Return))
	}
	file.Type().Id(t.Name).Add(signature)
}

// TypesFile renders the registered types of one group in registration order.
func (generator *Generator) TypesFile(group string) *jen.File {
	file := generator.newFile()
	for _, t := range generator.Types {
		if t.Group != group {
			continue
		}
		if t.Kind == cpp.KindFnPtr {
			generator.generateFnPtr(t, file)
		} else {
			generator.generateStruct(t, file)
		}
	}
	return file
}

// MethodsFile renders the addresses of every registered method and API.
func (generator *Generator) MethodsFile() *jen.File {
	file := generator.newFile()

	file.Type().Id("Method").Struct(
		jen.Id("Name").String(),
		jen.Id("Signature").String(),
		jen.Id("Address").Uint64(),
		jen.Id("MethodInfo").Uint64(),
	)
	file.Var().Id("Methods").Op("=").Index().Id("Method").ValuesFunc(func(g *jen.Group) {
		for _, method := range generator.Methods {
			address, _ := method.VirtualAddress()
			g.Values(jen.Dict{
				jen.Id("Name"):       jen.Lit(method.String()),
				jen.Id("Signature"):  jen.Lit(method.FnPtr.Name),
				jen.Id("Address"):    jen.Lit(address),
				jen.Id("MethodInfo"): jen.Lit(method.MethodInfoPtrAddress),
			})
		}
	})

	file.Type().Id("API").Struct(
		jen.Id("Name").String(),
		jen.Id("Signature").String(),
		jen.Id("Address").Uint64(),
	)
	file.Var().Id("APIs").Op("=").Index().Id("API").ValuesFunc(func(g *jen.Group) {
		for _, api := range generator.APIs {
			g.Values(jen.Dict{
				jen.Id("Name"):      jen.Lit(api.Name),
				jen.Id("Signature"): jen.Lit(api.FnPtr.Name),
				jen.Id("Address"):   jen.Lit(api.VirtualAddress),
			})
		}
	})
	return file
}

// StringsFile renders the string literal table.
func (generator *Generator) StringsFile() *jen.File {
	file := generator.newFile()
	file.Var().Id("StringLiterals").Op("=").Map(jen.Uint64()).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, literal := range generator.Literals {
			d[jen.Lit(literal.Key)] = jen.Lit(literal.Text)
		}
	}))
	return file
}
