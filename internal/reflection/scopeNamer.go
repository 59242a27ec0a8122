package reflection

import (
	"context"
	"strconv"
	"strings"
	"typerecon/internal/metadata"

	"github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const nameCacheSize = 8192

// Scope is the lexical context a type name is rendered in: the type currently being
// declared, if any, and the namespaces imported by using directives.
type Scope struct {
	Current    *TypeInfo
	Namespaces []string
}

func (scope Scope) key() string {
	id := -1
	if scope.Current != nil {
		id = scope.Current.id
	}
	return strconv.Itoa(id) + "|" + strings.Join(scope.Namespaces, ";")
}

type nameKey struct {
	t     *TypeInfo
	scope string
	full  bool
}

// Namer renders minimally qualified type names. Every type definition is materialized when
// the Namer is created, so rendering never touches the metadata and is safe for concurrent use.
type Namer struct {
	fullNames   map[string]struct{}
	nestedTypes map[*TypeInfo][]*TypeInfo
	cache       *lru.Cache[nameKey, string]
}

func NewNamer(model *TypeModel) (*Namer, error) {
	types, err := model.Types()
	if err != nil {
		return nil, err
	}
	namer := &Namer{
		fullNames:   make(map[string]struct{}, len(model.typesByFullName)),
		nestedTypes: make(map[*TypeInfo][]*TypeInfo),
	}
	for _, name := range maps.Keys(model.typesByFullName) {
		namer.fullNames[name] = struct{}{}
	}
	for _, t := range types {
		nested, err := t.DeclaredNestedTypes()
		if err != nil {
			return nil, err
		}
		if len(nested) > 0 {
			namer.nestedTypes[t] = nested
		}
	}
	if namer.cache, err = lru.New[nameKey, string](nameCacheSize); err != nil {
		return nil, err
	}
	return namer, nil
}

func definitionOf(t *TypeInfo) *TypeInfo {
	if t.instance != nil {
		return t.instance.definition
	}
	return t
}

func indexFrom(s, sep string, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], sep)
	if i < 0 {
		return -1
	}
	return i + from
}

// commonPrefix advances diff past every leading segment that using and declaring share.
func commonPrefix(using, declaring, sep string, diff int) int {
	for {
		u, d := indexFrom(using, sep, diff), indexFrom(declaring, sep, diff)
		if u != d || u == -1 || using[:u] != declaring[:d] {
			return diff
		}
		diff = u + 1
	}
}

// ScopedFullName returns the minimally qualified name needed to refer to t from within scope.
// Generic arguments are not included.
func (namer *Namer) ScopedFullName(t *TypeInfo, scope Scope) string {
	key := nameKey{t: t, scope: scope.key(), full: true}
	if name, found := namer.cache.Get(key); found {
		return name
	}
	name := namer.scopedFullName(t, scope)
	namer.cache.Add(key, name)
	return name
}

func (namer *Namer) scopedFullName(t *TypeInfo, scope Scope) string {
	if t.element != nil {
		return namer.scopedFullName(t.element.element, scope)
	}
	if t.parameter != nil {
		return t.baseName
	}

	usingScope := ""
	if scope.Current != nil {
		usingScope = scope.Current.FullName()
	}
	declaringType := t.DeclaringType()
	declaringScope := t.Namespace()
	if declaringType != nil {
		declaringScope = declaringType.FullName()
	}

	// Used inside the scope it is declared in
	if strings.HasPrefix(usingScope+".", declaringScope+".") || strings.HasPrefix(usingScope+"+", declaringScope+"+") {
		return t.baseName
	}

	scopedName := t.baseName
	if declaringScope != "" {
		diff := commonPrefix(usingScope+".", declaringScope, ".", 0)
		diff = commonPrefix(usingScope+"+", declaringScope, "+", diff)
		sep := "."
		if declaringType != nil {
			sep = "+"
		}
		scopedName = declaringScope[diff:] + sep + t.baseName
	}
	qualified := strings.ReplaceAll(scopedName, "+", ".")

	// Longest using directive that brings the type into scope; the first one wins a tie
	usingRef := ""
	for _, namespace := range scope.Namespaces {
		if len(namespace) > len(usingRef) && strings.HasPrefix(scopedName, namespace+".") {
			usingRef = namespace
		}
	}
	minimal := scopedName
	if usingRef != "" {
		minimal = scopedName[len(usingRef)+1:]
	}

	firstPart := strings.Split(strings.Split(minimal, ".")[0], "+")[0]

	// An enclosing type, or a type nested in one, with the same name hides this one
	for d := scope.Current; d != nil; d = d.DeclaringType() {
		if d.baseName == firstPart {
			return qualified
		}
		for _, nested := range namer.nestedTypes[definitionOf(d)] {
			if nested.baseName == firstPart && nested != definitionOf(t) {
				return qualified
			}
		}
	}

	// Two using directives that both provide the first part make it ambiguous
	providers := 0
	for _, namespace := range scope.Namespaces {
		if _, found := namer.fullNames[namespace+"."+firstPart]; found {
			providers++
		}
	}
	if providers > 1 {
		return qualified
	}

	return strings.ReplaceAll(minimal, "+", ".")
}

// ScopedName returns the C# name of t as it must be written within scope, including
// generic arguments, array and pointer suffixes and keyword names.
func (namer *Namer) ScopedName(t *TypeInfo, scope Scope) string {
	key := nameKey{t: t, scope: scope.key()}
	if name, found := namer.cache.Get(key); found {
		return name
	}
	name := namer.scopedName(t, scope)
	namer.cache.Add(key, name)
	return name
}

func (namer *Namer) scopedName(t *TypeInfo, scope Scope) string {
	if t.element != nil {
		return namer.ScopedName(t.element.element, scope) + t.suffix()
	}
	if t.parameter != nil {
		return t.baseName
	}
	if t.isNullableInstance() {
		return namer.ScopedName(t.instance.arguments[0], scope) + "?"
	}

	name, found := csharpKeywords[t.definitionFullName()]
	if !found {
		name = stripArity(namer.ScopedFullName(t, scope))
	}
	scoped := func(arg *TypeInfo) string { return namer.ScopedName(arg, scope) }
	name += genericList("<", ">", t.GenericTypeParameters(), scoped)
	return name + genericList("<", ">", t.GenericTypeArguments(), scoped)
}

// RenderAll renders the scoped names of types using up to jobs goroutines.
func (namer *Namer) RenderAll(ctx context.Context, types []*TypeInfo, scope Scope, jobs int) ([]string, error) {
	names := make([]string, len(types))
	if len(types) == 0 {
		return names, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(types))))
	for i, t := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			names[i] = namer.ScopedName(t, scope)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return names, nil
}

// TypeConstraints renders the "where" clause of a generic parameter, or "" if it has none.
func (namer *Namer) TypeConstraints(t *TypeInfo, scope Scope) (string, error) {
	if t.parameter == nil {
		return "", nil
	}
	constraints, err := t.GetGenericParameterConstraints()
	if err != nil {
		return "", err
	}
	attributes := t.parameter.attributes
	if attributes == 0 && len(constraints) == 0 {
		return "", nil
	}

	// Constraints of an outer type's parameter are inherited by its nested types
	if t.parameter.declaringMethod == nil {
		if declaring := t.DeclaringType(); declaring != nil && declaring.IsNested() {
			for _, p := range declaring.DeclaringType().GenericTypeParameters() {
				if p.baseName == t.baseName {
					return "", nil
				}
			}
		}
	}

	var list []string
	for _, c := range constraints {
		if c.FullName() != "System.ValueType" {
			list = append(list, namer.ScopedName(c, scope))
		}
	}
	if attributes&metadata.GenericNotNullableValueTypeConstraint != 0 {
		list = append(list, "struct")
	}
	if attributes&metadata.GenericReferenceTypeConstraint != 0 {
		list = append(list, "class")
	}
	if attributes&metadata.GenericDefaultConstructorConstraint != 0 && !slices.Contains(list, "struct") {
		// new() must be the last constraint specified
		list = append(list, "new()")
	}
	return "where " + t.baseName + " : " + strings.Join(list, ", "), nil
}
