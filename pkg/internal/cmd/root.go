package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/cache"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/services"
)

var rootCmd = &cobra.Command{
	Use:          "janitor",
	Short:        "The data retention & deletion engine",
	Long:         "Janitor enforces plan based retention windows on generated content artifacts and performs regulatory hard deletion of accounts past their grace period.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the settings file")
	rootCmd.PersistentFlags().Bool("dry-run", false, "report what would be deleted without deleting anything")

	rootCmd.AddCommand(
		artifactsCmd,
		accountsCmd,
		notifyCmd,
		daemonCmd,
	)
}

// loadSettings wires viper, the database and the cache store. A database that
// cannot be reached at all aborts the whole run before anything is attempted.
func loadSettings(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); len(path) > 0 {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.SetConfigName("settings")
		viper.SetConfigType("toml")
	}

	viper.SetDefault("cleanup.windows.free", 30)
	viper.SetDefault("cleanup.windows.basic", 90)
	viper.SetDefault("cleanup.windows.pro", 365)
	viper.SetDefault("cleanup.grace_period_days", 30)
	viper.SetDefault("cleanup.notify_ahead_days", 7)

	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	if err := database.NewSource(); err != nil {
		return err
	} else if err := database.RunMigration(database.C); err != nil {
		return err
	}

	return cache.NewStore()
}

// resolveDryRun gives an explicit --dry-run flag precedence over the
// configured default; the default only applies when the flag is untouched.
func resolveDryRun(cmd *cobra.Command, config services.Config) bool {
	if cmd.Flags().Changed("dry-run") {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return dryRun
	}
	return config.DryRun
}

func Execute() error {
	return rootCmd.Execute()
}
