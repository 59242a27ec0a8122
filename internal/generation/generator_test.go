package generation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"typerecon/internal/cpp"
	"typerecon/internal/metadata"
	"typerecon/internal/model"
	"typerecon/internal/reflection"
	"typerecon/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// squash collapses whitespace so rendered code can be matched independently of alignment.
func squash(code string) string {
	return strings.Join(strings.Fields(code), " ")
}

func buildModel(t *testing.T, compiler cpp.Compiler) *model.AppModel {
	t.Helper()
	b := testkit.NewBuilder(64, 24.2)
	c := b.AddCorlib()
	public := uint32(metadata.TypePublic)

	vector := b.AddType("Game", "Vector2", public|uint32(metadata.TypeSealed))
	b.SetValueType(vector)
	b.SetParent(vector, c.ValueTypeRef)
	vectorRef := b.DefRef(vector)
	b.AddField(vector, "x", c.Int32Ref, 0)
	b.AddField(vector, "type", c.Int32Ref, 0)

	entity := b.AddType("Game", "Entity", public)
	b.SetParent(entity, c.ObjectRef)
	b.AddField(entity, "id", c.Int32Ref, 0)

	player := b.AddType("Game", "Player", public)
	b.SetParent(player, b.DefRef(entity))
	b.AddField(player, "position", vectorRef, 0)
	b.AddField(player, "cells", b.SzArrayRef(vectorRef), 0)
	move := b.AddMethod(player, "Move", uint16(metadata.MethodPublic), c.VoidRef, testkit.Param{Name: "delta", Type: vectorRef})
	b.SetMethodPointer(move, 0x401000)
	name := b.AddMethod(player, "GetName", uint16(metadata.MethodPublic), c.StringRef)
	b.SetMethodPointer(name, 0x402000)

	b.AddUsage(metadata.UsageStringLiteral, b.AddStringLiteral("hello"))
	b.AddUsage(metadata.UsageMethodDef, uint32(move))
	b.AddExport("il2cpp_init", b.MappedAddress())

	pkg, _ := b.Build()
	app := model.New(reflection.NewTypeModel(pkg))
	require.NoError(t, app.Build(model.BuildOptions{Compiler: compiler}))
	return app
}

func TestTypesFile(t *testing.T) {
	generator := NewGenerator("il2cpp", t.TempDir())
	generator.RegisterModel(buildModel(t, cpp.MSVC))
	assert.Equal(t, []string{model.GroupHeaders, model.GroupMethods}, generator.Groups())

	baseline := squash(generator.TypesFile(model.GroupHeaders).GoString())
	assert.Contains(t, baseline, "package il2cpp")
	assert.Contains(t, baseline, "type Il2CppObject struct { klass *Il2CppClass monitor unsafe.Pointer }")
	assert.Contains(t, baseline, "type il2cpp_object_new_ftn func(klass *Il2CppClass) *Il2CppObject")
	assert.NotContains(t, baseline, "type int32_t")

	generated := squash(generator.TypesFile(model.GroupMethods).GoString())
	assert.Contains(t, generated, "Code generated by typerecon. DO NOT EDIT.")
	assert.Contains(t, generated, "type Game_Vector2__Fields struct { x int32 type_ int32 }")
	assert.Contains(t, generated, "type Game_Player__Fields struct { _ Game_Entity__Fields position Game_Vector2 cells *Game_Vector2__Array }")
	assert.Contains(t, generated, "type Game_Player struct { klass *Il2CppClass monitor unsafe.Pointer fields Game_Player__Fields }")
	assert.Contains(t, generated, "vector [32]Game_Vector2")
	assert.Contains(t, generated, "type Game_Player_Move_ftn func(__this *Game_Player, delta Game_Vector2, method *MethodInfo)")
	assert.Contains(t, generated, "type Game_Player_GetName_ftn func(__this *Game_Player, method *MethodInfo) *System_String")

	// Declarations keep the emission order
	assert.Less(t, strings.Index(generated, "type Game_Entity__Fields "), strings.Index(generated, "type Game_Player__Fields "))
}

func TestGCCTypesFile(t *testing.T) {
	generator := NewGenerator("il2cpp", t.TempDir())
	generator.RegisterModel(buildModel(t, cpp.GCC))

	generated := squash(generator.TypesFile(model.GroupMethods).GoString())
	assert.Contains(t, generated, "type Game_Player__Fields struct { Game_Entity__Fields position Game_Vector2")
}

func TestMethodsAndStringsFiles(t *testing.T) {
	generator := NewGenerator("il2cpp", t.TempDir())
	generator.RegisterModel(buildModel(t, cpp.MSVC))
	require.Len(t, generator.Methods, 2)
	require.Len(t, generator.APIs, 1)

	methods := squash(generator.MethodsFile().GoString())
	assert.Contains(t, methods, "var Methods = []Method{")
	assert.Contains(t, methods, `Name: "Game.Player.Move"`)
	assert.Contains(t, methods, `Signature: "Game_Player_Move_ftn"`)
	assert.Contains(t, methods, `Name: "il2cpp_init"`)
	assert.Contains(t, methods, `Signature: "il2cpp_init_ftn"`)

	literals := squash(generator.StringsFile().GoString())
	assert.Contains(t, literals, "var StringLiterals = map[uint64]string{")
	assert.Contains(t, literals, `"hello"`)
}

func TestGenerate(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out")
	generator := NewGenerator("il2cpp", output)
	generator.RegisterModel(buildModel(t, cpp.MSVC))
	require.NoError(t, generator.Generate(output))

	for _, name := range []string{model.GroupHeaders, model.GroupMethods, "methods", "strings"} {
		content, err := os.ReadFile(filepath.Join(output, name+".go"))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(content), "// Code generated by typerecon. DO NOT EDIT."), name)
	}
}
