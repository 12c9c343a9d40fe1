package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pkg "git.solsynth.dev/hypernet/janitor/pkg/internal"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/services"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/storage"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the engine on its own schedule",
	Long:  "Keeps the engine resident and runs the cleanup, hard deletion and notification passes on their configured cron specs, with a metrics endpoint.",
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
		resolver := services.NewPolicyResolver(config.Windows)
		scanner := services.NewExpiryScanner(database.C)
		executor := services.NewDeletionExecutor(database.C, drv, mx, dryRun)
		coordinator := services.NewCleanupCoordinator(database.C, resolver, scanner, executor, mx, dryRun)
		purger := services.NewGormAccountPurger(database.C, executor)
		reaper := services.NewAccountReaper(database.C, purger, mx, config.GracePeriodDays, dryRun)
		notifier := services.NewExpiryNotifier(database.C, resolver, services.LogSender{}, config.NotifyAheadDays, dryRun)

		// Timed tasks
		quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
		quartz.AddFunc(viper.GetString("daemon.cron.artifacts"), func() {
			if _, err := coordinator.CleanupFleet(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("An error occurred when running the fleet cleanup...")
			}
		})
		quartz.AddFunc(viper.GetString("daemon.cron.accounts"), func() {
			if _, err := reaper.RunCleanup(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("An error occurred when running the account hard deletion pass...")
			}
		})
		quartz.AddFunc(viper.GetString("daemon.cron.notify"), func() {
			if _, err := notifier.RunNotifyPass(cmd.Context()); err != nil {
				log.Error().Err(err).Msg("An error occurred when running the notification pass...")
			}
		})
		quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
		quartz.Start()

		// Admin surface, metrics and health only
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			AppName:               "Hypernet.Janitor",
		})
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		app.Get("/.well-known/health", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		go func() {
			if err := app.Listen(viper.GetString("daemon.bind")); err != nil {
				log.Fatal().Err(err).Msg("An error occurred when starting the admin server.")
			}
		}()

		log.Info().Msgf("Janitor v%s is started...", pkg.AppVersion)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msgf("Janitor v%s is quitting...", pkg.AppVersion)

		quartz.Stop()
		return app.Shutdown()
	},
}

func init() {
	viper.SetDefault("daemon.bind", "0.0.0.0:8445")
	viper.SetDefault("daemon.cron.artifacts", "@midnight")
	viper.SetDefault("daemon.cron.accounts", "@midnight")
	viper.SetDefault("daemon.cron.notify", "@every 12h")
}
