package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScrapeCmd() *cobra.Command {
	var (
		venueID int64
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one venue or every venue now",
		Long: `Runs a scrape in the foreground and prints the outcome per venue.
A venue succeeds when at least one concert was saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (venueID > 0) == all {
				return errors.New("exactly one of --venue or --all is required")
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			scraper := appInstance.Scraper()
			out := cmd.OutOrStdout()

			if !all {
				ok := scraper.ScrapeVenue(cmd.Context(), venueID)
				fmt.Fprintf(out, "venue %d: %s\n", venueID, outcome(ok))
				if !ok {
					return fmt.Errorf("scrape of venue %d failed", venueID)
				}
				return nil
			}

			results := scraper.ScrapeAllVenues(cmd.Context())
			ids := make([]int64, 0, len(results))
			for id := range results {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			succeeded := 0
			for _, id := range ids {
				if results[id] {
					succeeded++
				}
				fmt.Fprintf(out, "venue %d: %s\n", id, outcome(results[id]))
			}
			appInstance.Logger().Info("scrape of all venues finished",
				zap.Int("succeeded", succeeded),
				zap.Int("total", len(results)),
			)
			if succeeded == 0 && len(results) > 0 {
				return errors.New("no venue was scraped successfully")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&venueID, "venue", 0, "id of the venue to scrape")
	cmd.Flags().BoolVar(&all, "all", false, "scrape every venue")
	return cmd
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
