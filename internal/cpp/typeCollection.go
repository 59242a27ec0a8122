package cpp

import (
	"fmt"
	"strconv"
	"strings"
	"typerecon/internal/headers"
	"typerecon/internal/metadata"

	"github.com/elliotchance/orderedmap/v2"
)

// HeaderGroup is the group of every type seeded from a header bundle.
const HeaderGroup = "types_from_headers"

var ErrDuplicateType = fmt.Errorf("%w: duplicate native type", metadata.ErrInputConsistency)

// TypeCollection is the native type namespace. Types keep their insertion order.
type TypeCollection struct {
	types   *orderedmap.OrderedMap[string, *NativeType]
	aliases *orderedmap.OrderedMap[string, *NativeType]
	group   string
}

func NewTypeCollection() *TypeCollection {
	return &TypeCollection{
		types:   orderedmap.NewOrderedMap[string, *NativeType](),
		aliases: orderedmap.NewOrderedMap[string, *NativeType](),
	}
}

// FromHeaders creates a collection holding the types and API signatures of a header bundle.
func FromHeaders(bundle *headers.Bundle) (*TypeCollection, error) {
	collection := NewTypeCollection()
	collection.SetGroup(HeaderGroup)

	for _, t := range bundle.Types {
		kind := KindStruct
		if t.Kind == headers.KindPrimitive {
			kind = KindPrimitive
		}
		if err := collection.Add(&NativeType{Name: t.Name, Kind: kind, Baseline: true}); err != nil {
			return nil, err
		}
	}

	ref := func(f headers.Field) (Ref, error) {
		t, found := collection.Get(f.Type)
		if !found {
			return Ref{}, fmt.Errorf("header type %s is not declared", f.Type)
		}
		return Ref{Type: t, Pointer: f.Pointer}, nil
	}
	fields := func(from []headers.Field) ([]Field, error) {
		var fields []Field
		for _, f := range from {
			r, err := ref(f)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: f.Name, Ref: r})
		}
		return fields, nil
	}

	for _, t := range bundle.Types {
		native, _ := collection.Get(t.Name)
		var err error
		if native.Fields, err = fields(t.Fields); err != nil {
			return nil, err
		}
	}

	for _, api := range bundle.APIs {
		fnPtr := &NativeType{Name: api.Name + "_ftn", Kind: KindFnPtr, Baseline: true}
		var err error
		if fnPtr.Return, err = ref(api.Return); err != nil {
			return nil, err
		}
		if fnPtr.Params, err = fields(api.Params); err != nil {
			return nil, err
		}
		if err := collection.Add(fnPtr); err != nil {
			return nil, err
		}
		collection.aliases.Set(api.Name, fnPtr)
	}
	return collection, nil
}

// SetGroup sets the group stamped on types added from now on.
func (collection *TypeCollection) SetGroup(group string) { collection.group = group }

func (collection *TypeCollection) Group() string { return collection.group }

// Add registers t under its name, stamping the current group if t has none.
func (collection *TypeCollection) Add(t *NativeType) error {
	if _, found := collection.types.Get(t.Name); found {
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
	}
	if t.Group == "" {
		t.Group = collection.group
	}
	collection.types.Set(t.Name, t)
	return nil
}

func (collection *TypeCollection) Get(name string) (*NativeType, bool) {
	return collection.types.Get(name)
}

func (collection *TypeCollection) Len() int { return collection.types.Len() }

// Types returns every type in insertion order.
func (collection *TypeCollection) Types() []*NativeType {
	types := make([]*NativeType, 0, collection.types.Len())
	for el := collection.types.Front(); el != nil; el = el.Next() {
		types = append(types, el.Value)
	}
	return types
}

// GetTypeGroup returns the types of one group in insertion order.
func (collection *TypeCollection) GetTypeGroup(group string) []*NativeType {
	var types []*NativeType
	for el := collection.types.Front(); el != nil; el = el.Next() {
		if el.Value.Group == group {
			types = append(types, el.Value)
		}
	}
	return types
}

// TypedefAlias finds the function pointer type declared for an exported API name.
func (collection *TypeCollection) TypedefAlias(name string) (*NativeType, bool) {
	return collection.aliases.Get(name)
}

// APINames returns the names of every declared API in header order.
func (collection *TypeCollection) APINames() []string {
	names := make([]string, 0, collection.aliases.Len())
	for el := collection.aliases.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// Sanitize turns an arbitrary name into a valid C identifier.
func Sanitize(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	identifier := strings.TrimRight(sb.String(), "_")
	if identifier == "" {
		return "_"
	}
	return identifier
}

// UniqueName sanitizes name and suffixes it until no type in the collection uses it.
func (collection *TypeCollection) UniqueName(name string) string {
	base := Sanitize(name)
	unique := base
	for i := 1; ; i++ {
		if _, found := collection.types.Get(unique); !found {
			return unique
		}
		unique = base + "_" + strconv.Itoa(i)
	}
}
