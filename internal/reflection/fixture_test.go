package reflection

import (
	"testing"
	"typerecon/internal/metadata"
	"typerecon/internal/testkit"

	"github.com/microsoft/go-winmd/flags"
	"github.com/stretchr/testify/require"
)

const (
	public       = uint32(metadata.TypePublic)
	nestedPublic = uint32(metadata.TypeNestedPublic)
	publicMethod = uint16(metadata.MethodPublic)
	staticMethod = uint16(metadata.MethodPublic | metadata.MethodStatic)

	identityAddress = 0x401000
	getCountAddress = 0x402000
)

// fixture is a small program covering every kind of type usage.
type fixture struct {
	corlib testkit.Corlib

	outer, outerFoo, barFoo, bazFoo, other, global int32
	thing, iThing, color, util, list, holder, slot  int32
	intList                                         int32

	listT, holderT, slotT, identityU int32

	getCount, listAdd, identity int32

	listOfInt, intListRef, nullableInt                     int32
	intArray, intArrayRank1, intMatrix, intPointer, tArray int32
	uRef, unknownTag, dangling                             int32

	identityOfString, addOfInt int32

	signal, signalOfInt int32
}

func buildFixture() (*fixture, *metadata.Package) {
	b := testkit.NewBuilder(64, 24.2)
	f := &fixture{corlib: b.AddCorlib()}
	c := f.corlib

	f.outer = b.AddType("Game", "Outer", public)
	b.SetParent(f.outer, c.ObjectRef)
	f.outerFoo = b.AddType("", "Foo", nestedPublic)
	b.SetDeclaring(f.outerFoo, f.outer)
	f.barFoo = b.AddType("Bar", "Foo", public)
	f.bazFoo = b.AddType("Baz", "Foo", public)
	f.other = b.AddType("Game", "Other", public)
	f.global = b.AddType("", "Global", public)

	f.iThing = b.AddType("Game", "IThing", public|uint32(metadata.TypeInterface|metadata.TypeAbstract))
	f.thing = b.AddType("Game", "Thing", public)
	b.SetParent(f.thing, c.ObjectRef)
	b.AddInterface(f.thing, b.DefRef(f.iThing))
	f.getCount = b.AddMethod(f.thing, "get_Count", publicMethod, c.Int32Ref)
	b.AddMethod(f.thing, ConstructorName, publicMethod, c.VoidRef)
	b.SetMethodPointer(f.getCount, getCountAddress)
	b.AddProperty(f.thing, "Count", f.getCount, -1)

	f.color = b.AddType("Game", "Color", public|uint32(metadata.TypeSealed))
	b.SetEnum(f.color, c.Int32Ref, c.EnumRef)
	b.AddField(f.color, "value__", c.Int32Ref, 0)
	literal := uint16(metadata.FieldStatic | metadata.FieldLiteral)
	b.AddField(f.color, "Red", b.DefRef(f.color), literal)
	b.AddField(f.color, "Green", b.DefRef(f.color), literal)

	f.list = b.AddType("System.Collections.Generic", "List`1", public)
	b.SetParent(f.list, c.ObjectRef)
	f.listT = b.AddGenericParameters(f.list, "T")[0]
	tRef := b.VarRef(f.listT)
	f.tArray = b.SzArrayRef(tRef)
	b.AddField(f.list, "_items", f.tArray, 0)
	b.AddField(f.list, "_size", c.Int32Ref, 0)
	b.AddMethod(f.list, ConstructorName, publicMethod, c.VoidRef)
	f.listAdd = b.AddMethod(f.list, "Add", publicMethod, c.VoidRef, testkit.Param{Name: "item", Type: tRef})
	f.listOfInt = b.GenericInstRef(f.list, c.Int32Ref)

	f.intList = b.AddType("Game", "IntList", public)
	b.SetParent(f.intList, f.listOfInt)
	f.intListRef = b.DefRef(f.intList)

	f.holder = b.AddType("Game", "Holder`1", public)
	f.holderT = b.AddGenericParameters(f.holder, "T")[0]
	b.SetConstraints(f.holderT, b.DefRef(f.iThing))
	b.SetGenericParameterFlags(f.holderT, metadata.GenericReferenceTypeConstraint)
	f.slot = b.AddType("", "Slot", nestedPublic)
	b.SetDeclaring(f.slot, f.holder)
	f.slotT = b.AddGenericParameters(f.slot, "T")[0]
	b.SetConstraints(f.slotT, b.DefRef(f.iThing))

	f.util = b.AddType("Game", "Util", public|uint32(metadata.TypeAbstract|metadata.TypeSealed))
	f.identity = b.AddMethod(f.util, "Identity", staticMethod, c.VoidRef)
	f.identityU = b.AddMethodGenericParameters(f.identity, "U")[0]
	f.uRef = b.MVarRef(f.identityU)
	b.SetSignature(f.identity, f.uRef, testkit.Param{Name: "value", Type: f.uRef})

	f.identityOfString = b.AddMethodSpec(f.identity, nil, []int32{c.StringRef})
	b.SetGenericMethodPointer(f.identityOfString, identityAddress)
	f.addOfInt = b.AddMethodSpec(f.listAdd, []int32{c.Int32Ref}, nil)

	f.signal = b.AddType("Game", "Signal`1", public)
	b.SetParent(f.signal, c.ObjectRef)
	signalT := b.VarRef(b.AddGenericParameters(f.signal, "T")[0])
	b.AddMethod(f.signal, "Emit", publicMethod, c.VoidRef)
	b.AddMethod(f.signal, "Emit", publicMethod, c.VoidRef, testkit.Param{Name: "value", Type: signalT})
	addFired := b.AddMethod(f.signal, "add_Fired", publicMethod, c.VoidRef, testkit.Param{Name: "value", Type: signalT})
	removeFired := b.AddMethod(f.signal, "remove_Fired", publicMethod, c.VoidRef, testkit.Param{Name: "value", Type: signalT})
	b.AddEvent(f.signal, "Fired", signalT, addFired, removeFired)
	f.signalOfInt = b.GenericInstRef(f.signal, c.Int32Ref)

	f.nullableInt = b.GenericInstRef(c.Nullable, c.Int32Ref)
	f.intArray = b.SzArrayRef(c.Int32Ref)
	f.intArrayRank1 = b.ArrayRef(c.Int32Ref, 1)
	f.intMatrix = b.ArrayRef(c.Int32Ref, 2)
	f.intPointer = b.PointerRef(c.Int32Ref)
	f.unknownTag = b.TypeRef(flags.ElementType(0x7f), 0, 0)
	f.dangling = b.TypeRef(flags.ElementType_CLASS, 9999, 0)

	pkg, _ := b.Build()
	return f, pkg
}

func newFixtureModel(t *testing.T) (*fixture, *TypeModel) {
	t.Helper()
	f, pkg := buildFixture()
	return f, NewTypeModel(pkg)
}

func definition(t *testing.T, model *TypeModel, index int32) *TypeInfo {
	t.Helper()
	info, err := model.ResolveDefinition(index)
	require.NoError(t, err)
	return info
}

func usage(t *testing.T, model *TypeModel, index int32) *TypeInfo {
	t.Helper()
	info, err := model.Resolve(index)
	require.NoError(t, err)
	return info
}
