package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"typerecon/internal/generation"

	"github.com/apex/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	buildOpts = struct {
		output      string
		packageName string
		force       bool
	}{}

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the application model and write the native declarations",
		Long:  "Correlate every compiled method and metadata usage with native declarations, verify their emission order and render them as Go source.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if buildOpts.output != "" {
				cfg.Output.Path = buildOpts.output
			}
			if buildOpts.packageName != "" {
				cfg.Output.PackageName = buildOpts.packageName
			}

			app, err := buildModel(cfg)
			if err != nil {
				return err
			}
			if err := app.CheckEmissionOrder(); err != nil {
				return err
			}

			err = os.Mkdir(cfg.Output.Path, os.ModePerm)
			if err != nil && !errors.Is(err, fs.ErrExist) {
				return err
			}
			if err := ClearDirectoryIfNotEmpty(cfg.Output.Path, buildOpts.force, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			generator := generation.NewGenerator(cfg.Output.PackageName, cfg.Output.Path)
			generator.RegisterModel(app)
			if err := generator.Generate(cfg.Output.Path); err != nil {
				return err
			}

			log.WithField("path", cfg.Output.Path).Infof("wrote %d declarations and %d methods",
				len(generator.Types), len(generator.Methods))
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "done")
			return nil
		},
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildOpts.output, "out", "o", "", "The path where all generated files will be placed. Overrides [output].path.")
	buildCmd.Flags().StringVarP(&buildOpts.packageName, "package", "p", "", "The name of the package with generated code. Overrides [output].package.")
	buildCmd.Flags().BoolVarP(&buildOpts.force, "force", "f", false, "Clean the output directory without asking.")
}

// ClearDirectoryIfNotEmpty removes the directory at path if it has any content. Unless silent
// is set, the confirmation prompt is written to out and the answer read from in.
func ClearDirectoryIfNotEmpty(path string, silent bool, in io.Reader, out io.Writer) error {
	directory, err := os.Open(path)
	if err != nil {
		return err
	}
	defer directory.Close()

	_, err = directory.Readdirnames(1)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	if !silent {
		var response string
		fmt.Fprint(out, "Output directory is not empty. Continuation will result in removing all output file. Proceed? [Y/n]")
		fmt.Fscan(in, &response)
		if strings.ToUpper(response) != "Y" {
			return errors.New("explicit agreement was not given")
		}
	}

	log.Infof("cleaning output directory %s", path)
	return os.RemoveAll(path)
}
