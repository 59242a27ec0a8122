// Package config reads the TOML configuration of the typerecon tool.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"typerecon/internal/cpp"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPackageName = "il2cpp"
	DefaultOutputPath  = "./output/"
)

type Config struct {
	// Path is the file the configuration was loaded from, empty for defaults.
	Path string `toml:"-"`

	Input  InputConfig  `toml:"input"`
	Output OutputConfig `toml:"output"`
	Naming NamingConfig `toml:"naming"`
}

type InputConfig struct {
	Snapshot string `toml:"snapshot"`
	// Headers is a header bundle file; the embedded bundle is used when empty.
	Headers          string `toml:"headers"`
	FrameworkVersion string `toml:"framework_version"`
}

type OutputConfig struct {
	Compiler    string `toml:"compiler"`
	PackageName string `toml:"package"`
	Path        string `toml:"path"`
}

type NamingConfig struct {
	Usings []string `toml:"usings"`
	Jobs   int      `toml:"jobs"`
}

func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Compiler:    cpp.MSVC.String(),
			PackageName: DefaultPackageName,
			Path:        DefaultOutputPath,
		},
		Naming: NamingConfig{Jobs: 1},
	}
}

// Load reads a configuration file over the defaults. Relative paths in the file are
// resolved against the directory of the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("input", "snapshot") || strings.TrimSpace(cfg.Input.Snapshot) == "" {
		return nil, fmt.Errorf("%s: missing [input].snapshot", path)
	}
	cfg.Path = path

	root := filepath.Dir(path)
	cfg.Input.Snapshot = resolve(root, cfg.Input.Snapshot)
	cfg.Input.Headers = resolve(root, cfg.Input.Headers)
	if meta.IsDefined("output", "path") {
		cfg.Output.Path = resolve(root, cfg.Output.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

func (cfg *Config) Validate() error {
	if _, err := cfg.Compiler(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Output.PackageName) == "" {
		return fmt.Errorf("[output].package must not be empty")
	}
	if cfg.Naming.Jobs < 1 {
		return fmt.Errorf("[naming].jobs must be positive, got %d", cfg.Naming.Jobs)
	}
	return nil
}

func (cfg *Config) Compiler() (cpp.Compiler, error) {
	return cpp.ParseCompiler(cfg.Output.Compiler)
}
