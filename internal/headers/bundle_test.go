package headers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBundle(t *testing.T) {
	bundle, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 24.2, bundle.MetadataVersion)
	assert.Equal(t, "2019.4.0 - 2020.3.99", bundle.VersionRange())

	object, found := bundle.TryGetType("Il2CppObject")
	require.True(t, found)
	assert.Equal(t, KindStruct, object.Kind)
	assert.Equal(t, Field{Name: "klass", Type: "Il2CppClass", Pointer: true}, object.Fields[0])

	api, found := bundle.TryGetAPI("il2cpp_object_new")
	require.True(t, found)
	assert.Equal(t, Field{Type: "Il2CppObject", Pointer: true}, api.Return)
	assert.Len(t, api.Params, 1)

	_, found = bundle.TryGetAPI("il2cpp_missing")
	assert.False(t, found)
}

func TestSupports(t *testing.T) {
	bundle, err := Default()
	require.NoError(t, err)

	for framework, want := range map[string]bool{
		"2019.4.0":  true,
		"2020.1.17": true,
		"2020.3.99": true,
		"2018.4.36": false,
		"2021.1.0":  false,
	} {
		supported, err := bundle.Supports(framework)
		require.NoError(t, err)
		assert.Equal(t, want, supported, framework)
	}

	_, err = bundle.Supports("not a version")
	assert.Error(t, err)
}

func TestInvalidBundles(t *testing.T) {
	tests := map[string]string{
		"bad version": `min_version = "soon"`,
		"empty range": `
min_version = "2020.1.0"
max_version = "2019.1.0"`,
		"unknown kind": `
min_version = "2020.1.0"
[[types]]
name = "x"
kind = "union"`,
		"duplicate type": `
min_version = "2020.1.0"
[[types]]
name = "int32_t"
kind = "primitive"
[[types]]
name = "int32_t"
kind = "primitive"`,
		"undeclared field type": `
min_version = "2020.1.0"
[[types]]
name = "Pair"
kind = "struct"
fields = [{ name = "first", type = "int32_t" }]`,
		"undeclared api type": `
min_version = "2020.1.0"
[[apis]]
name = "il2cpp_init"
return = { type = "int32_t" }`,
	}
	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(source))
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}

	_, err := Decode([]byte("min_version = "))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "headers.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "open ended"
min_version = "2021.2.0"
metadata_version = 29

[[types]]
name = "void"
kind = "primitive"

[[apis]]
name = "il2cpp_shutdown"
return = { type = "void" }
`), 0o644))

	bundle, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2021.2.0+", bundle.VersionRange())
	supported, err := bundle.Supports("2030.1.0")
	require.NoError(t, err)
	assert.True(t, supported)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
