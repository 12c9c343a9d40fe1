package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/services"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/storage"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Run the artifact retention cleanup",
	Long:  "Scans for artifacts past their plan's retention window and deletes their payloads and metadata. Without --org the whole fleet is cleaned.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadSettings(cmd); err != nil {
			return err
		}

		slug, _ := cmd.Flags().GetString("org")
		gdpr, _ := cmd.Flags().GetBool("gdpr")
		progress, _ := cmd.Flags().GetBool("progress")
		if gdpr && len(slug) == 0 {
			return fmt.Errorf("--gdpr requires --org, erasure requests are per organization")
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
		if progress {
			coordinator.EnableProgress()
		}

		if len(slug) > 0 {
			services.FlushOrganizationCache(slug)
			org, err := services.GetOrganizationBySlug(slug)
			if err != nil {
				return fmt.Errorf("unable to find organization %s: %v", slug, err)
			}
			run, err := coordinator.CleanupOrganization(cmd.Context(), org, gdpr)
			if err != nil {
				return err
			}
			if run.ArtifactsFailed > 0 {
				return fmt.Errorf("cleanup finished with %d failed artifacts", run.ArtifactsFailed)
			}
			return nil
		}

		fleet, err := coordinator.CleanupFleet(cmd.Context())
		if err != nil {
			return err
		}
		if fleet.OrgsFailed > 0 || fleet.TotalArtifactsFailed > 0 {
			return fmt.Errorf("fleet cleanup finished with %d failed organizations and %d failed artifacts",
				fleet.OrgsFailed, fleet.TotalArtifactsFailed)
		}
		return nil
	},
}

func init() {
	artifactsCmd.Flags().String("org", "", "limit the run to one organization by slug")
	artifactsCmd.Flags().Bool("gdpr", false, "erasure request: delete everything regardless of retention entitlement")
	artifactsCmd.Flags().Bool("progress", false, "show a progress bar during the fleet pass")
}
