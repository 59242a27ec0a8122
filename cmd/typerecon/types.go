package main

import (
	"fmt"
	"typerecon/internal/reflection"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	typesOpts = struct {
		usings      []string
		jobs        int
		constraints bool
	}{}

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "Print the scoped name of every type definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("using") {
				cfg.Naming.Usings = typesOpts.usings
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Naming.Jobs = typesOpts.jobs
			}

			typeModel, err := loadTypeModel(cfg)
			if err != nil {
				return err
			}
			namer, err := reflection.NewNamer(typeModel)
			if err != nil {
				return err
			}
			types, err := typeModel.Types()
			if err != nil {
				return err
			}

			scope := reflection.Scope{Namespaces: cfg.Naming.Usings}
			names, err := namer.RenderAll(cmd.Context(), types, scope, cfg.Naming.Jobs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			nameColor := color.New(color.FgCyan)
			for i, t := range types {
				modifiers, err := t.ModifierString()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s%s\n", modifiers, nameColor.Sprint(names[i]))
				if !typesOpts.constraints {
					continue
				}
				for _, parameter := range t.GenericTypeParameters() {
					clause, err := namer.TypeConstraints(parameter, reflection.Scope{Current: t, Namespaces: scope.Namespaces})
					if err != nil {
						return err
					}
					if clause != "" {
						fmt.Fprintf(out, "    %s\n", clause)
					}
				}
			}
			return nil
		},
	}
)

func init() {
	typesCmd.Flags().StringSliceVarP(&typesOpts.usings, "using", "u", nil, "Imported namespaces. Overrides [naming].usings.")
	typesCmd.Flags().IntVarP(&typesOpts.jobs, "jobs", "j", 1, "Number of goroutines rendering names. Overrides [naming].jobs.")
	typesCmd.Flags().BoolVar(&typesOpts.constraints, "constraints", false, "Also print generic parameter constraints.")
}
