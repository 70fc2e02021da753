package main

import (
	"fmt"
	"strings"

	"github.com/pevans/wikifeed/article"
	"github.com/pevans/wikifeed/feedmode"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newNextCmd(a *app) *cobra.Command {
	var (
		mode     string
		sections bool
		format   string
		lat, lon float64
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Fetch the next article for a feed mode",
		Example: "  wikifeed next --mode art\n" +
			"  wikifeed next --mode nearby --lat 48.8584 --lon 2.2945 --sections",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return fmt.Errorf("--lat and --lon must be given together")
			}

			orchestrator, err := a.newOrchestrator()
			if err != nil {
				return err
			}
			if latSet {
				orchestrator.SetLocation(lat, lon)
			}

			m := feedmode.Mode(strings.ToLower(mode))

			var art *article.Article
			if cmd.Flags().Changed("sections") {
				art, err = orchestrator.FetchArticleWithSections(cmd.Context(), m, sections)
			} else {
				art, err = orchestrator.FetchArticle(cmd.Context(), m)
			}
			if err != nil {
				return err
			}

			store, err := a.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				if _, err := store.Record(art, m); err != nil {
					a.logger.Warn("Failed to record history", zap.String("article_id", art.ID), zap.Error(err))
				}
			}

			if format == "json" {
				return printJSON(cmd.OutOrStdout(), articleView{Article: art, Mode: m, ReadingTime: art.ReadingTime()})
			}
			printArticleTable(cmd.OutOrStdout(), art, m)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(feedmode.Random), "feed mode (see 'wikifeed modes')")
	cmd.Flags().BoolVarP(&sections, "sections", "s", false, "include the full article body split into sections")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude for location modes")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude for location modes")

	return cmd
}

// articleView is the JSON shape printed by next.
type articleView struct {
	*article.Article
	Mode        feedmode.Mode `json:"mode"`
	ReadingTime int           `json:"reading_time"`
}

func validateFormat(format string) error {
	switch format {
	case "table", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q: must be table or json", format)
	}
}
