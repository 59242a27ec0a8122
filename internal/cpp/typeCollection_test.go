package cpp

import (
	"testing"
	"typerecon/internal/headers"
	"typerecon/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHeaders(t *testing.T) {
	bundle, err := headers.Default()
	require.NoError(t, err)
	types, err := FromHeaders(bundle)
	require.NoError(t, err)

	object, found := types.Get("Il2CppObject")
	require.True(t, found)
	assert.Equal(t, KindStruct, object.Kind)
	assert.True(t, object.Baseline)
	assert.Equal(t, HeaderGroup, object.Group)
	class, _ := types.Get("Il2CppClass")
	assert.Equal(t, Ref{Type: class, Pointer: true}, object.Fields[0].Ref)
	assert.Empty(t, object.Dependencies())

	integer, found := types.Get("int32_t")
	require.True(t, found)
	assert.Equal(t, KindPrimitive, integer.Kind)
	assert.False(t, integer.IsStruct())
	assert.Empty(t, integer.Declaration())

	newObject, found := types.TypedefAlias("il2cpp_object_new")
	require.True(t, found)
	assert.Equal(t, KindFnPtr, newObject.Kind)
	assert.Equal(t, "il2cpp_object_new_ftn", newObject.Name)
	assert.Equal(t, "Il2CppObject*", newObject.Return.String())
	_, found = types.TypedefAlias("il2cpp_object_new_ftn")
	assert.False(t, found)

	assert.Equal(t, []string{
		"il2cpp_init",
		"il2cpp_shutdown",
		"il2cpp_object_new",
		"il2cpp_string_new",
		"il2cpp_class_from_name",
		"il2cpp_method_get_name",
	}, types.APINames())
	assert.Len(t, types.GetTypeGroup(HeaderGroup), types.Len())
	assert.Empty(t, types.GetTypeGroup("generated"))
}

func TestAddAndGroups(t *testing.T) {
	types := NewTypeCollection()
	types.SetGroup("first")
	require.NoError(t, types.Add(&NativeType{Name: "A", Kind: KindStruct}))
	require.NoError(t, types.Add(&NativeType{Name: "B", Kind: KindStruct, Group: "pinned"}))
	types.SetGroup("second")
	require.NoError(t, types.Add(&NativeType{Name: "C", Kind: KindStruct}))
	assert.Equal(t, "second", types.Group())

	err := types.Add(&NativeType{Name: "A", Kind: KindStruct})
	assert.ErrorIs(t, err, ErrDuplicateType)
	assert.ErrorIs(t, err, metadata.ErrInputConsistency)

	names := func(list []*NativeType) []string {
		var names []string
		for _, t := range list {
			names = append(names, t.Name)
		}
		return names
	}
	assert.Equal(t, []string{"A", "B", "C"}, names(types.Types()))
	assert.Equal(t, []string{"A"}, names(types.GetTypeGroup("first")))
	assert.Equal(t, []string{"B"}, names(types.GetTypeGroup("pinned")))
	assert.Equal(t, []string{"C"}, names(types.GetTypeGroup("second")))
}

func TestSanitize(t *testing.T) {
	for name, want := range map[string]string{
		"System.Collections.Generic.List`1[System.Int32]": "System_Collections_Generic_List_1_System_Int32",
		"Game.Outer+Foo":   "Game_Outer_Foo",
		"1stPlace":         "_1stPlace",
		"<Module>":         "_Module",
		"":                 "_",
		"already_valid_42": "already_valid_42",
	} {
		assert.Equal(t, want, Sanitize(name), name)
	}
}

func TestUniqueName(t *testing.T) {
	types := NewTypeCollection()
	assert.Equal(t, "Game_Foo", types.UniqueName("Game.Foo"))
	require.NoError(t, types.Add(&NativeType{Name: "Game_Foo"}))
	assert.Equal(t, "Game_Foo_1", types.UniqueName("Game.Foo"))
	require.NoError(t, types.Add(&NativeType{Name: "Game_Foo_1"}))
	assert.Equal(t, "Game_Foo_2", types.UniqueName("Game+Foo"))
}

func TestDeclaration(t *testing.T) {
	integer := &NativeType{Name: "int32_t", Kind: KindPrimitive, Baseline: true}
	void := &NativeType{Name: "void", Kind: KindPrimitive, Baseline: true}
	base := &NativeType{Name: "Base__Fields", Kind: KindFields}
	derived := &NativeType{
		Name: "Derived__Fields",
		Kind: KindFields,
		Base: base,
		Fields: []Field{
			{Name: "count", Ref: Ref{Type: integer}},
			{Name: "next", Ref: Ref{Type: base, Pointer: true}},
			{Name: "items", Ref: Ref{Type: integer, Count: 4}},
		},
	}
	assert.Equal(t, "struct Derived__Fields : Base__Fields {\n"+
		"    int32_t count;\n"+
		"    Base__Fields* next;\n"+
		"    int32_t items[4];\n"+
		"};", derived.Declaration())
	assert.Equal(t, []*NativeType{base, integer}, derived.Dependencies())

	fnPtr := &NativeType{
		Name:   "Run_ftn",
		Kind:   KindFnPtr,
		Params: []Field{{Name: "data", Ref: Ref{Type: void, Pointer: true}}},
	}
	assert.Equal(t, "typedef void (*Run_ftn)(void* data);", fnPtr.Declaration())
	assert.Empty(t, fnPtr.Dependencies())
	assert.Equal(t, "fnptr", fnPtr.Kind.String())
}

func TestParseCompiler(t *testing.T) {
	for name, want := range map[string]Compiler{"": MSVC, "MSVC": MSVC, "gcc": GCC, "clang": GCC} {
		compiler, err := ParseCompiler(name)
		require.NoError(t, err)
		assert.Equal(t, want, compiler, name)
	}
	_, err := ParseCompiler("tcc")
	assert.Error(t, err)
	assert.Equal(t, "gcc", GCC.String())
}
