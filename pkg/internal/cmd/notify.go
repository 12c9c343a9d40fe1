package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/services"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Record and send pre-expiry warnings",
	Long:  "Warns artifact owners ahead of their retention cutoff. Each (account, artifact, day) is warned at most once.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadSettings(cmd); err != nil {
			return err
		}

		config, err := services.ConfigFromViper()
		if err != nil {
			return err
		}
		dryRun := resolveDryRun(cmd, config)

		resolver := services.NewPolicyResolver(config.Windows)
		notifier := services.NewExpiryNotifier(database.C, resolver, services.LogSender{}, config.NotifyAheadDays, dryRun)

		stats, err := notifier.RunNotifyPass(cmd.Context())
		if err != nil {
			return err
		}
		if stats.Failed > 0 {
			return fmt.Errorf("notification pass finished with %d failures", stats.Failed)
		}
		return nil
	},
}
