package main

import (
	"fmt"
	"os"
	"typerecon/internal"
	"typerecon/internal/config"
	"typerecon/internal/headers"
	"typerecon/internal/metadata"
	"typerecon/internal/model"
	"typerecon/internal/reflection"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

var (
	rootOpts = struct {
		configPath       string
		snapshotPath     string
		headersPath      string
		compiler         string
		frameworkVersion string
		verbose          bool
	}{}

	rootCmd = &cobra.Command{
		Use:           "typerecon",
		Short:         "Rebuild managed types and native declarations of a compiled application",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.New(os.Stderr))
			if rootOpts.verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootOpts.configPath, "config", "c", "", "The path to the TOML configuration file.")
	flags.StringVarP(&rootOpts.snapshotPath, "snapshot", "s", "", "The path to the metadata snapshot. Overrides [input].snapshot.")
	flags.StringVar(&rootOpts.headersPath, "headers", "", "The path to a header bundle. Default: the embedded bundle")
	flags.StringVar(&rootOpts.compiler, "compiler", "", "The target compiler, msvc or gcc. Overrides [output].compiler.")
	flags.StringVar(&rootOpts.frameworkVersion, "framework-version", "", "The framework version the application was built with.")
	flags.BoolVarP(&rootOpts.verbose, "verbose", "v", false, "Log debug messages.")

	rootCmd.AddCommand(buildCmd, orderCmd, typesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("typerecon failed")
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, if any, and applies the command line overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if rootOpts.configPath != "" {
		var err error
		if cfg, err = config.Load(rootOpts.configPath); err != nil {
			return nil, err
		}
	}
	if rootOpts.snapshotPath != "" {
		cfg.Input.Snapshot = rootOpts.snapshotPath
	}
	if rootOpts.headersPath != "" {
		cfg.Input.Headers = rootOpts.headersPath
	}
	if rootOpts.compiler != "" {
		cfg.Output.Compiler = rootOpts.compiler
	}
	if rootOpts.frameworkVersion != "" {
		cfg.Input.FrameworkVersion = rootOpts.frameworkVersion
	}
	if cfg.Input.Snapshot == "" {
		return nil, fmt.Errorf("no snapshot given, use --snapshot or [input].snapshot")
	}
	return cfg, cfg.Validate()
}

func loadTypeModel(cfg *config.Config) (*reflection.TypeModel, error) {
	pkg, err := metadata.LoadSnapshot(cfg.Input.Snapshot)
	if err != nil {
		return nil, err
	}
	log.WithField("snapshot", cfg.Input.Snapshot).Infof("loaded metadata version %v", pkg.Metadata.Version)
	return reflection.NewTypeModel(pkg), nil
}

func buildModel(cfg *config.Config) (*model.AppModel, error) {
	typeModel, err := loadTypeModel(cfg)
	if err != nil {
		return nil, err
	}

	compiler, err := cfg.Compiler()
	if err != nil {
		return nil, err
	}
	options := model.BuildOptions{Compiler: compiler, FrameworkVersion: cfg.Input.FrameworkVersion}
	if cfg.Input.Headers != "" {
		if options.Headers, err = headers.Load(cfg.Input.Headers); err != nil {
			return nil, err
		}
	} else {
		// The embedded bundle ships with the binary
		options.Headers, err = headers.Default()
		internal.PanicOnError(err)
	}

	app := model.New(typeModel)
	if err := app.Build(options); err != nil {
		return nil, err
	}
	return app, nil
}
