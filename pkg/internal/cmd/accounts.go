package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/services"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/storage"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Run the account hard deletion pass",
	Long:  "Finds accounts soft deleted past the legal grace period and irreversibly removes them with all their dependent data.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadSettings(cmd); err != nil {
			return err
		}

		config, err := services.ConfigFromViper()
		if err != nil {
			return err
		}
		dryRun := resolveDryRun(cmd, config)

		drv, err := storage.NewDriverFromConfig("permanent")
		if err != nil {
			return err
		}

		mx := metrics.NewMetrics()
		executor := services.NewDeletionExecutor(database.C, drv, mx, dryRun)
		purger := services.NewGormAccountPurger(database.C, executor)
		reaper := services.NewAccountReaper(database.C, purger, mx, config.GracePeriodDays, dryRun)

		stats, err := reaper.RunCleanup(cmd.Context())
		if err != nil {
			return err
		}
		if stats.AccountsFailed > 0 {
			return fmt.Errorf("account cleanup finished with %d failures", stats.AccountsFailed)
		}
		return nil
	},
}
