package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModesCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List feed modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			registry, err := a.config.Registry()
			if err != nil {
				return err
			}
			defs := registry.List()

			if format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{"modes": defs})
			}

			w := cmd.OutOrStdout()
			for _, def := range defs {
				fmt.Fprintf(w, "%-10s %-9s %s\n", def.Mode, def.Source, def.SearchTemplate)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json")

	return cmd
}
