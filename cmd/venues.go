package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/dispatcher"
)

func newVenuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "venues",
		Short: "Manage the venues that are scraped",
	}
	cmd.AddCommand(newVenuesAddCmd(), newVenuesListCmd(), newVenuesDeleteCmd())
	return cmd
}

func newVenuesAddCmd() *cobra.Command {
	var scraperType string
	cmd := &cobra.Command{
		Use:   "add NAME URL",
		Short: "Register a venue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			venue, err := dispatcher.PrepareVenue(args[0], args[1], scraperType)
			if err != nil {
				return err
			}
			created, err := appInstance.Store().CreateVenue(cmd.Context(), venue)
			if err != nil {
				return fmt.Errorf("create venue: %w", err)
			}
			appInstance.Logger().Info("venue added",
				zap.Int64("venue_id", created.ID),
				zap.String("venue_name", created.Name),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", created.ID, created.Name, created.URL)
			return nil
		},
	}
	cmd.Flags().StringVar(&scraperType, "type", "generic", "scraper type tag")
	return cmd
}

func newVenuesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List venues and when they were last scraped",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			venues, err := appInstance.Store().ListVenues(cmd.Context())
			if err != nil {
				return fmt.Errorf("list venues: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tLAST SCRAPED\tURL")
			for _, v := range venues {
				last := "never"
				if v.LastScraped != nil {
					last = v.LastScraped.Format(time.DateTime)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.ScraperType, last, v.URL)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write venues: %w", err)
			}
			return nil
		},
	}
}

func newVenuesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a venue and its concerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid venue id %q: %w", args[0], err)
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.Store().DeleteVenue(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete venue %d: %w", id, err)
			}
			appInstance.Logger().Info("venue deleted", zap.Int64("venue_id", id))
			return nil
		},
	}
}
