package main

import (
	"fmt"
	"typerecon/internal/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	orderOpts = struct {
		group    string
		baseline bool
	}{}

	// The colors the provenance groups are printed in
	groupColors = map[string]*color.Color{
		model.GroupHeaders:        color.New(color.FgHiBlack),
		model.GroupMethods:        color.New(color.FgCyan),
		model.GroupGenericMethods: color.New(color.FgMagenta),
		model.GroupUsages:         color.New(color.FgYellow),
	}

	orderCmd = &cobra.Command{
		Use:   "order",
		Short: "Print the native declarations in emission order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildModel(cfg)
			if err != nil {
				return err
			}

			declarations := app.DependencyOrderedCppTypes()
			if orderOpts.group != "" {
				declarations = app.GetDependencyOrderedCppTypeGroup(orderOpts.group)
			}
			if orderOpts.baseline {
				declarations = append(app.GetDependencyOrderedCppTypeGroup(model.GroupHeaders), declarations...)
			}

			out := cmd.OutOrStdout()
			for i, declaration := range declarations {
				groupColor, found := groupColors[declaration.Group]
				if !found {
					groupColor = color.New(color.Reset)
				}
				fmt.Fprintf(out, "%6d %-10s %s %s\n", i, declaration.Kind, declaration.Name, groupColor.Sprint(declaration.Group))
			}

			if err := app.CheckEmissionOrder(); err != nil {
				color.New(color.FgRed).Fprintln(out, err)
				return err
			}
			return nil
		},
	}
)

func init() {
	orderCmd.Flags().StringVarP(&orderOpts.group, "group", "g", "", "Only print the declarations of one group.")
	orderCmd.Flags().BoolVar(&orderOpts.baseline, "baseline", false, "Also print the header baseline types.")
}
