package reflection

import (
	"testing"
	"typerecon/internal/image"
	"typerecon/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefinitionIsCanonical(t *testing.T) {
	f, model := newFixtureModel(t)

	types, err := model.Types()
	require.NoError(t, err)
	require.Len(t, types, len(model.Package.Metadata.TypeDefinitions))
	for i, info := range types {
		again, err := model.ResolveDefinition(int32(i))
		require.NoError(t, err)
		assert.Same(t, info, again)
	}

	intList := definition(t, model, f.intList)
	assert.Same(t, intList, usage(t, model, f.intListRef))

	byName, err := model.TypeByFullName("Game.IntList")
	require.NoError(t, err)
	assert.Same(t, intList, byName)

	_, err = model.TypeByFullName("Game.Missing")
	assert.ErrorIs(t, err, ErrTypeNotFound)
}

func TestKindsAndModifiers(t *testing.T) {
	f, model := newFixtureModel(t)
	tests := []struct {
		index    int32
		kind     Kind
		modifier string
	}{
		{f.thing, KindClass, "public class "},
		{f.iThing, KindInterface, "public interface "},
		{f.color, KindEnum, "public enum "},
		{f.util, KindClass, "public static class "},
		{f.corlib.Int32, KindValueType, "public struct "},
		{f.corlib.ValueType, KindClass, "public abstract class "},
		{f.corlib.String, KindClass, "public sealed class "},
		{f.outerFoo, KindClass, "public class "},
	}
	for _, test := range tests {
		info := definition(t, model, test.index)
		assert.Equal(t, test.kind, info.Kind(), info.Name())
		modifier, err := info.ModifierString()
		require.NoError(t, err)
		assert.Equal(t, test.modifier, modifier, info.Name())
	}

	color := definition(t, model, f.color)
	assert.True(t, color.IsValueType())
	assert.True(t, definition(t, model, f.corlib.Int32).IsPrimitive())
	assert.False(t, definition(t, model, f.corlib.String).IsPrimitive())
	assert.True(t, definition(t, model, f.outerFoo).IsNestedPublic())
}

func TestImplicitBaseTypes(t *testing.T) {
	f, model := newFixtureModel(t)
	object := definition(t, model, f.corlib.Object)

	base := func(info *TypeInfo) *TypeInfo {
		t.Helper()
		b, err := info.BaseType()
		require.NoError(t, err)
		return b
	}

	assert.Nil(t, base(object))
	assert.Nil(t, base(definition(t, model, f.iThing)))
	assert.Nil(t, base(usage(t, model, f.intPointer)))
	assert.Same(t, object, base(definition(t, model, f.thing)))
	assert.Same(t, object, base(definition(t, model, f.other)))
	assert.Same(t, object, base(definition(t, model, f.list).GenericTypeParameters()[0]))
	assert.Same(t, definition(t, model, f.corlib.ValueType), base(definition(t, model, f.corlib.Int32)))
	assert.Same(t, definition(t, model, f.corlib.Enum), base(definition(t, model, f.color)))
	assert.Same(t, definition(t, model, f.corlib.Array), base(usage(t, model, f.intMatrix)))
}

func TestArraysAndPointers(t *testing.T) {
	f, model := newFixtureModel(t)
	int32Type := definition(t, model, f.corlib.Int32)

	matrix := usage(t, model, f.intMatrix)
	assert.True(t, matrix.IsArray())
	assert.Equal(t, 2, matrix.GetArrayRank())
	assert.Equal(t, "Int32[,]", matrix.Name())
	assert.Equal(t, "System.Int32[,]", matrix.FullName())
	assert.Equal(t, "int[,]", matrix.CSharpName())
	assert.Same(t, int32Type, matrix.ElementType())
	assert.Empty(t, matrix.DeclaredFields())
	assert.Empty(t, matrix.DeclaredMethods())
	assert.Empty(t, matrix.DeclaredProperties())

	pointer := usage(t, model, f.intPointer)
	assert.True(t, pointer.IsPointer())
	assert.True(t, pointer.RequiresUnsafeContext())
	assert.Equal(t, "Int32*", pointer.Name())
	assert.Equal(t, "int*", pointer.CSharpName())
	assert.Same(t, pointer, model.PointerTo(int32Type))

	vector := usage(t, model, f.intArray)
	assert.Same(t, vector, usage(t, model, f.intArrayRank1))
	assert.Same(t, vector, model.ArrayOf(int32Type, 1))
	assert.NotSame(t, vector, matrix)

	open := usage(t, model, f.tArray)
	assert.Equal(t, "", open.FullName())
	assert.Equal(t, "T[]", open.Name())
	assert.True(t, open.ContainsGenericParameters())
}

func TestGenericInstances(t *testing.T) {
	f, model := newFixtureModel(t)
	int32Type := definition(t, model, f.corlib.Int32)
	list := definition(t, model, f.list)

	require.Len(t, list.GenericTypeParameters(), 1)
	assert.Empty(t, list.GenericTypeArguments())
	assert.True(t, list.IsGenericTypeDefinition())
	assert.True(t, list.ContainsGenericParameters())
	assert.Equal(t, "System.Collections.Generic.List`1[T]", list.FullName())
	assert.Equal(t, "List<T>", list.CSharpName())

	inst := usage(t, model, f.listOfInt)
	assert.Same(t, list, inst.GetGenericTypeDefinition())
	assert.Equal(t, []*TypeInfo{int32Type}, inst.GenericTypeArguments())
	assert.Empty(t, inst.GenericTypeParameters())
	assert.True(t, inst.IsGenericType())
	assert.False(t, inst.IsGenericTypeDefinition())
	assert.False(t, inst.ContainsGenericParameters())
	assert.Equal(t, "List`1[System.Int32]", inst.Name())
	assert.Equal(t, "System.Collections.Generic.List`1[System.Int32]", inst.FullName())
	assert.Equal(t, "List<int>", inst.CSharpName())

	again, err := model.Instantiate(list, []*TypeInfo{int32Type})
	require.NoError(t, err)
	assert.Same(t, inst, again)

	items := inst.GetField("_items")
	require.NotNil(t, items)
	itemsType, err := items.FieldType()
	require.NoError(t, err)
	assert.Same(t, model.ArrayOf(int32Type, 1), itemsType)
	assert.Same(t, inst, items.DeclaringType())

	openItems, err := list.GetField("_items").FieldType()
	require.NoError(t, err)
	assert.Equal(t, "T[]", openItems.Name())

	add := inst.GetMethod("Add")
	require.NotNil(t, add)
	assert.Same(t, inst, add.DeclaringType())
	params, err := add.Parameters()
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Same(t, int32Type, params[0].ParameterType)
	assert.Len(t, inst.DeclaredConstructors(), 1)

	_, err = model.Instantiate(definition(t, model, f.thing), []*TypeInfo{int32Type})
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)
	_, err = model.Instantiate(list, nil)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)
}

func TestClosedGenericBaseType(t *testing.T) {
	f, model := newFixtureModel(t)
	intList := definition(t, model, f.intList)

	base, err := intList.BaseType()
	require.NoError(t, err)
	assert.Same(t, usage(t, model, f.listOfInt), base)

	methods, err := intList.GetAllMethods()
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "Add", methods[0].Name)
	assert.Same(t, base, methods[0].DeclaringType())
}

func TestGenericParameters(t *testing.T) {
	f, model := newFixtureModel(t)
	list := definition(t, model, f.list)

	param := usage(t, model, f.tArray).ElementType()
	require.NotNil(t, param)
	assert.Same(t, list.GenericTypeParameters()[0], param)
	assert.True(t, param.IsGenericTypeParameter())
	assert.False(t, param.IsGenericMethodParameter())
	assert.Same(t, list, param.DeclaringType())
	assert.Nil(t, param.DeclaringMethod())
	assert.Equal(t, 0, param.GenericParameterPosition())
	assert.Equal(t, "", param.FullName())
	assert.Equal(t, "T", param.Name())

	holderT := definition(t, model, f.holder).GenericTypeParameters()[0]
	constraints, err := holderT.GetGenericParameterConstraints()
	require.NoError(t, err)
	assert.Equal(t, []*TypeInfo{definition(t, model, f.iThing)}, constraints)
	assert.Equal(t, metadata.GenericReferenceTypeConstraint, holderT.GenericParameterAttributes())
}

func TestGenericMethodParameterResolvesItsMethod(t *testing.T) {
	f, model := newFixtureModel(t)

	// Resolved before anything else so the owning method is materialized on demand
	param := usage(t, model, f.uRef)
	assert.True(t, param.IsGenericMethodParameter())

	identity, err := model.ResolveMethod(f.identity)
	require.NoError(t, err)
	assert.Same(t, identity, param.DeclaringMethod())
	assert.Same(t, definition(t, model, f.util), param.DeclaringType())
	assert.Equal(t, []*TypeInfo{param}, identity.GenericTypeParameters())
	assert.True(t, identity.IsGenericMethodDefinition())
	assert.True(t, identity.ContainsGenericParameters())
	assert.True(t, identity.IsStatic())
}

func TestMethodSpecs(t *testing.T) {
	f, model := newFixtureModel(t)
	stringType := definition(t, model, f.corlib.String)

	identity, err := model.ResolveMethodSpec(f.identityOfString)
	require.NoError(t, err)
	assert.Equal(t, []*TypeInfo{stringType}, identity.GenericTypeArguments())
	assert.Empty(t, identity.GenericTypeParameters())
	assert.False(t, identity.ContainsGenericParameters())
	assert.Equal(t, f.identityOfString, identity.SpecIndex())
	assert.Equal(t, "Game.Util.Identity[System.String]", identity.FullName())

	definitionMethod, err := model.ResolveMethod(f.identity)
	require.NoError(t, err)
	assert.Same(t, definitionMethod, identity.GetGenericMethodDefinition())

	returnType, err := identity.ReturnType()
	require.NoError(t, err)
	assert.Same(t, stringType, returnType)
	signature, err := identity.Signature()
	require.NoError(t, err)
	assert.Equal(t, "string Identity(string)", signature)

	va, found := identity.VirtualAddress()
	assert.True(t, found)
	assert.Equal(t, uint64(identityAddress), va)

	add, err := model.ResolveMethodSpec(f.addOfInt)
	require.NoError(t, err)
	assert.Same(t, usage(t, model, f.listOfInt), add.DeclaringType())
	params, err := add.Parameters()
	require.NoError(t, err)
	assert.Same(t, definition(t, model, f.corlib.Int32), params[0].ParameterType)
	_, found = add.VirtualAddress()
	assert.False(t, found)

	all, err := model.GenericMethods()
	require.NoError(t, err)
	assert.Equal(t, []*MethodBase{identity, add}, all)
}

func TestMethodsAndProperties(t *testing.T) {
	f, model := newFixtureModel(t)
	thing := definition(t, model, f.thing)

	require.Len(t, thing.DeclaredConstructors(), 1)
	assert.True(t, thing.DeclaredConstructors()[0].IsConstructor())
	require.Len(t, thing.DeclaredMethods(), 1)
	assert.Nil(t, thing.GetMethod("Missing"))

	getCount := thing.GetMethod("get_Count")
	require.NotNil(t, getCount)
	va, found := getCount.VirtualAddress()
	assert.True(t, found)
	assert.Equal(t, uint64(getCountAddress), va)

	count := thing.GetProperty("Count")
	require.NotNil(t, count)
	assert.Same(t, getCount, count.GetMethod)
	assert.Nil(t, count.SetMethod)
	propertyType, err := count.PropertyType()
	require.NoError(t, err)
	assert.Same(t, definition(t, model, f.corlib.Int32), propertyType)

	interfaces, err := thing.ImplementedInterfaces()
	require.NoError(t, err)
	assert.Equal(t, []*TypeInfo{definition(t, model, f.iThing)}, interfaces)

	methods, err := model.Methods()
	require.NoError(t, err)
	assert.Len(t, methods, len(model.Package.Metadata.Methods))
	for _, method := range methods {
		assert.NotNil(t, method.DeclaringType(), method.Name)
	}
}

func TestOverloadsAndEvents(t *testing.T) {
	f, model := newFixtureModel(t)
	signal := definition(t, model, f.signal)

	emits := signal.GetMethods("Emit")
	require.Len(t, emits, 2)
	assert.Same(t, signal.GetMethod("Emit"), emits[0])
	assert.Empty(t, signal.GetMethods("Missing"))

	require.Len(t, signal.DeclaredEvents(), 1)
	fired := signal.DeclaredEvents()[0]
	assert.Equal(t, "Fired", fired.Name)
	assert.Same(t, signal, fired.DeclaringType())
	assert.Same(t, signal.GetMethod("add_Fired"), fired.AddMethod)
	assert.Same(t, signal.GetMethod("remove_Fired"), fired.RemoveMethod)
	assert.Nil(t, fired.RaiseMethod)
	handler, err := fired.EventHandlerType()
	require.NoError(t, err)
	assert.Same(t, signal.GenericTypeParameters()[0], handler)

	inst := usage(t, model, f.signalOfInt)
	require.Len(t, inst.GetMethods("Emit"), 2)
	require.Len(t, inst.DeclaredEvents(), 1)
	handler, err = inst.DeclaredEvents()[0].EventHandlerType()
	require.NoError(t, err)
	assert.Same(t, definition(t, model, f.corlib.Int32), handler)
}

func TestEnums(t *testing.T) {
	f, model := newFixtureModel(t)
	color := definition(t, model, f.color)

	underlying, err := color.GetEnumUnderlyingType()
	require.NoError(t, err)
	assert.Same(t, definition(t, model, f.corlib.Int32), underlying)

	names, err := color.GetEnumNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Red", "Green"}, names)

	red := color.GetField("Red")
	require.NotNil(t, red)
	assert.True(t, red.IsStatic())
	assert.True(t, red.IsLiteral())
	assert.False(t, color.GetField("value__").IsStatic())

	thing := definition(t, model, f.thing)
	_, err = thing.GetEnumNames()
	assert.ErrorIs(t, err, ErrNotEnum)
	underlying, err = thing.GetEnumUnderlyingType()
	require.NoError(t, err)
	assert.Nil(t, underlying)
}

func TestNestedTypes(t *testing.T) {
	f, model := newFixtureModel(t)

	// The nested type comes first so its declaring type is resolved on demand
	foo := definition(t, model, f.outerFoo)
	outer := definition(t, model, f.outer)

	assert.True(t, foo.IsNested())
	assert.Same(t, outer, foo.DeclaringType())
	assert.Equal(t, "Game", foo.Namespace())
	assert.Equal(t, "Outer+Foo", foo.Name())
	assert.Equal(t, "Game.Outer+Foo", foo.FullName())

	nested, err := outer.DeclaredNestedTypes()
	require.NoError(t, err)
	assert.Equal(t, []*TypeInfo{foo}, nested)

	byName, err := model.TypeByFullName("Game.Outer+Foo")
	require.NoError(t, err)
	assert.Same(t, foo, byName)
}

func TestCorruptInput(t *testing.T) {
	f, model := newFixtureModel(t)

	_, err := model.Resolve(f.unknownTag)
	assert.ErrorIs(t, err, metadata.ErrUnknownTypeTag)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)

	_, err = model.Resolve(f.dangling)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)
	var indexErr *metadata.IndexError
	assert.ErrorAs(t, err, &indexErr)

	_, err = model.Resolve(1 << 20)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)

	_, err = model.ResolveDefinition(-1)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)

	_, err = model.ResolveFromAddress(0xdead0000)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)

	_, err = model.ResolveMethodSpec(99)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)
}

func TestCorruptCounts(t *testing.T) {
	f, pkg := buildFixture()
	pkg.Metadata.GenericParameters[f.holderT].ConstraintsCount = -1
	holder, err := NewTypeModel(pkg).ResolveDefinition(f.holder)
	require.NoError(t, err)
	_, err = holder.GenericTypeParameters()[0].GetGenericParameterConstraints()
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)

	for _, argc := range []int32{-1, 1 << 20} {
		f, pkg := buildFixture()
		container := pkg.Metadata.TypeDefinitions[f.list].GenericContainerIndex
		pkg.Metadata.GenericContainers[container].TypeArgc = argc
		_, err := NewTypeModel(pkg).ResolveDefinition(f.list)
		assert.ErrorIs(t, err, metadata.ErrStructuralCorruption, "argc %d", argc)
	}

	_, pkg = buildFixture()
	w := image.NewWriter(0x7ff000000000, 64)
	argv := w.Pos()
	w.Word(0)
	va := image.GenericInst{TypeArgc: 1 << 62, TypeArgv: argv}.Write(w)
	pkg.Image.(*image.Memory).AddSegment(w.Segment().VirtualAddress, w.Segment().Data)
	_, err = NewTypeModel(pkg).readInstArguments(va)
	assert.ErrorIs(t, err, metadata.ErrStructuralCorruption)
}
