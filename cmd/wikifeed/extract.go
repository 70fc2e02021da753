package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pevans/wikifeed/extract"
	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "extract FILE|-",
		Short: "Split article HTML into sections",
		Long: "Reads rendered article HTML from FILE, or from standard input when FILE is -, " +
			"and prints the sections found in its content container.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			sections, err := extract.ParseReader(r)
			if err != nil {
				return err
			}

			if format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{"sections": sections})
			}
			printSections(cmd.OutOrStdout(), sections)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json")

	return cmd
}
