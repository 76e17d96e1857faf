// Package cmd defines the CLI commands of the concert-crawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/concert-crawler/internal/app"
	"github.com/JakeFAU/concert-crawler/internal/config"
	"github.com/JakeFAU/concert-crawler/internal/worker"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is what the commands need from the application container. Tests inject
// a fake through newApp.
type App interface {
	Logger() *zap.Logger
	Store() app.Store
	Scraper() worker.Scraper
	Migrate(ctx context.Context) error
	Run(ctx context.Context) error
	Close(ctx context.Context)
}

// newApp is the application factory.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}

type rootFlags struct {
	configFile string
	devLog     bool
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "concert-crawler",
		Short: "Scrapes classical concert listings from venue websites.",
		Long: `concert-crawler fetches the concert calendars of registered venues,
extracts title, date, performers and repertoire, and keeps them in a
relational store that can be filtered over HTTP.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if flags.devLog {
				cfg.Logging.Development = true
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close(context.WithoutCancel(cmd.Context()))
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVar(&flags.devLog, "dev-log", false, "force human-readable development logging")

	cmd.AddCommand(
		newServeCmd(),
		newScrapeCmd(),
		newMigrateCmd(),
		newVenuesCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
