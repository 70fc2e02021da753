package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/pevans/wikifeed/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage served articles",
	}

	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryDeleteCmd(a),
		newHistoryClearCmd(a),
	)

	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var (
		mode   string
		since  string
		limit  int
		offset int
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List served articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "compact":
			default:
				return fmt.Errorf("invalid format %q: must be table, json or compact", format)
			}

			filter := history.Filter{Limit: limit, Offset: offset}
			if mode != "" {
				m := feedmode.Mode(strings.ToLower(mode))
				filter.Mode = &m
			}
			if since != "" {
				d, err := parseDuration(since)
				if err != nil {
					return err
				}
				t := time.Now().Add(-d)
				filter.Since = &t
			}

			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(filter)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "json":
				return printJSON(w, map[string]any{"entries": entries, "total": len(entries)})
			case "compact":
				printHistoryCompact(w, entries)
			default:
				printHistoryTable(w, entries, offset)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "only entries served in this mode")
	cmd.Flags().StringVar(&since, "since", "", "only entries served within this duration (e.g. 24h, 7d, 2w)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json, compact")

	return cmd
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENTRY_ID",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry ID: %s", args[0])
			}

			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(entryID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", entryID)
			return nil
		},
	}
}

func newHistoryClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Clear()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
			return nil
		},
	}
}
