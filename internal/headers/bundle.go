// Package headers loads the native header baselines that describe the runtime's own
// structures and exported API before any managed type is processed.
package headers

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-version"
)

//go:embed default.toml
var defaultBundle []byte

var ErrInvalidBundle = errors.New("headers: invalid bundle")

type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindStruct    Kind = "struct"
)

// Field is a struct member, API parameter or return value.
type Field struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Pointer bool   `toml:"pointer"`
}

type Type struct {
	Name   string  `toml:"name"`
	Kind   Kind    `toml:"kind"`
	Fields []Field `toml:"fields"`
}

// API is the signature of a function exported by the runtime.
type API struct {
	Name   string  `toml:"name"`
	Return Field   `toml:"return"`
	Params []Field `toml:"params"`
}

// Bundle is one versioned set of header types and API signatures.
type Bundle struct {
	Name            string  `toml:"name"`
	MinVersion      string  `toml:"min_version"`
	MaxVersion      string  `toml:"max_version"`
	MetadataVersion float64 `toml:"metadata_version"`
	Types           []Type  `toml:"types"`
	APIs            []API   `toml:"apis"`

	minimum *version.Version
	maximum *version.Version
}

// Default returns the bundle compiled into the binary.
func Default() (*Bundle, error) {
	return Decode(defaultBundle)
}

func Decode(data []byte) (*Bundle, error) {
	var bundle Bundle
	if _, err := toml.Decode(string(data), &bundle); err != nil {
		return nil, fmt.Errorf("decoding header bundle: %w", err)
	}
	if err := bundle.validate(); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func Load(path string) (*Bundle, error) {
	var bundle Bundle
	if _, err := toml.DecodeFile(path, &bundle); err != nil {
		return nil, fmt.Errorf("reading header bundle %s: %w", path, err)
	}
	if err := bundle.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &bundle, nil
}

func (bundle *Bundle) validate() error {
	var err error
	if bundle.minimum, err = version.NewVersion(bundle.MinVersion); err != nil {
		return fmt.Errorf("%w: min_version %q: %w", ErrInvalidBundle, bundle.MinVersion, err)
	}
	if bundle.MaxVersion != "" {
		if bundle.maximum, err = version.NewVersion(bundle.MaxVersion); err != nil {
			return fmt.Errorf("%w: max_version %q: %w", ErrInvalidBundle, bundle.MaxVersion, err)
		}
		if bundle.maximum.LessThan(bundle.minimum) {
			return fmt.Errorf("%w: version range %s is empty", ErrInvalidBundle, bundle.VersionRange())
		}
	}

	declared := make(map[string]bool, len(bundle.Types))
	for _, t := range bundle.Types {
		if t.Name == "" {
			return fmt.Errorf("%w: type without a name", ErrInvalidBundle)
		}
		if declared[t.Name] {
			return fmt.Errorf("%w: type %s declared twice", ErrInvalidBundle, t.Name)
		}
		if t.Kind != KindPrimitive && t.Kind != KindStruct {
			return fmt.Errorf("%w: type %s has unknown kind %q", ErrInvalidBundle, t.Name, t.Kind)
		}
		declared[t.Name] = true
	}

	known := func(owner string, f Field) error {
		if !declared[f.Type] {
			return fmt.Errorf("%w: %s refers to undeclared type %q", ErrInvalidBundle, owner, f.Type)
		}
		return nil
	}
	for _, t := range bundle.Types {
		for _, f := range t.Fields {
			if err := known(t.Name+"."+f.Name, f); err != nil {
				return err
			}
		}
	}
	apis := make(map[string]bool, len(bundle.APIs))
	for _, api := range bundle.APIs {
		if apis[api.Name] {
			return fmt.Errorf("%w: API %s declared twice", ErrInvalidBundle, api.Name)
		}
		apis[api.Name] = true
		if err := known(api.Name, api.Return); err != nil {
			return err
		}
		for _, p := range api.Params {
			if err := known(api.Name+"."+p.Name, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// VersionRange renders the framework versions the bundle applies to.
func (bundle *Bundle) VersionRange() string {
	if bundle.MaxVersion == "" {
		return bundle.MinVersion + "+"
	}
	return bundle.MinVersion + " - " + bundle.MaxVersion
}

// Supports reports whether the framework version lies within the bundle's range.
func (bundle *Bundle) Supports(framework string) (bool, error) {
	v, err := version.NewVersion(framework)
	if err != nil {
		return false, fmt.Errorf("framework version %q: %w", framework, err)
	}
	if v.LessThan(bundle.minimum) {
		return false, nil
	}
	return bundle.maximum == nil || !v.GreaterThan(bundle.maximum), nil
}

// Tries to find a type by its name
func (bundle *Bundle) TryGetType(name string) (Type, bool) {
	for _, t := range bundle.Types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}

// Tries to find an API by its exported name
func (bundle *Bundle) TryGetAPI(name string) (API, bool) {
	for _, api := range bundle.APIs {
		if api.Name == name {
			return api, true
		}
	}
	return API{}, false
}
