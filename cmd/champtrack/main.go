// Command champtrack inspects and seeds ChampTrack family data.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/interface/cli/presenter"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger

	plainOutput bool
	logLevel    string

	rootCmd = &cobra.Command{
		Use:           "champtrack",
		Short:         "Family sports, nutrition and rewards organizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			level := cfg.Observability.LogLevel
			if logLevel != "" {
				level = logLevel
			}
			log = logger.New(logger.Options{
				Output: os.Stderr,
				Level:  logger.ParseLevel(level),
				Format: logger.Format(cfg.Observability.LogFormat),
			}).Named("cli")
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "disable colors")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(demoCmd, seedCmd, snapshotCmd, migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateRollbackCmd)

	demoCmd.Flags().IntVar(&conflictDays, "days", 7, "days to check for conflicts")
	snapshotCmd.Flags().StringVar(&familyFlag, "family", "", "family id (default SYNC_FAMILY_ID)")
	snapshotCmd.Flags().IntVar(&conflictDays, "days", 7, "days to check for conflicts")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newPresenter() *presenter.Presenter {
	styles := presenter.DefaultStyles()
	if plainOutput {
		styles = presenter.PlainStyles()
	}
	return presenter.New(styles, cfg.App.Location)
}
