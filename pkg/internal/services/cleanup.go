package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/google/uuid"
	"github.com/k0kubun/go-ansi"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

// CleanupRun is the outcome report of one organization's cleanup pass.
// RetentionDays is -1 when the resolved window was unlimited.
type CleanupRun struct {
	OrganizationID   uint          `json:"organization_id"`
	Plan             string        `json:"plan"`
	RetentionDays    int           `json:"retention_days"`
	GdprOverride     bool          `json:"gdpr_override"`
	DryRun           bool          `json:"dry_run"`
	ArtifactsFound   int64         `json:"artifacts_found"`
	ArtifactsDeleted int64         `json:"artifacts_deleted"`
	ArtifactsFailed  int64         `json:"artifacts_failed"`
	BytesFreed       int64         `json:"bytes_freed"`
	Elapsed          time.Duration `json:"elapsed"`
}

type FleetRun struct {
	TotalOrgs             int64         `json:"total_orgs"`
	OrgsFailed            int64         `json:"orgs_failed"`
	TotalArtifactsFound   int64         `json:"total_artifacts_found"`
	TotalArtifactsDeleted int64         `json:"total_artifacts_deleted"`
	TotalArtifactsFailed  int64         `json:"total_artifacts_failed"`
	TotalBytesFreed       int64         `json:"total_bytes_freed"`
	DryRun                bool          `json:"dry_run"`
	Elapsed               time.Duration `json:"elapsed"`
}

type expiredLister interface {
	ListExpired(ctx context.Context, cutoff time.Time, orgId *uint) ([]models.ContentArtifact, error)
}

type artifactDeleter interface {
	DeleteArtifact(ctx context.Context, meta models.ContentArtifact, plan string) Outcome
}

// CleanupCoordinator drives expiry cleanup for one organization at a time and
// across the whole fleet.
type CleanupCoordinator struct {
	db       *gorm.DB
	resolver *PolicyResolver
	scanner  expiredLister
	executor artifactDeleter
	metrics  *metrics.Metrics
	dryRun   bool
	progress bool

	now func() time.Time
}

func NewCleanupCoordinator(db *gorm.DB, resolver *PolicyResolver, scanner expiredLister, executor artifactDeleter, mx *metrics.Metrics, dryRun bool) *CleanupCoordinator {
	return &CleanupCoordinator{
		db:       db,
		resolver: resolver,
		scanner:  scanner,
		executor: executor,
		metrics:  mx,
		dryRun:   dryRun,
		now:      time.Now,
	}
}

// EnableProgress turns on the console progress bar during fleet passes.
func (c *CleanupCoordinator) EnableProgress() {
	c.progress = true
}

// CleanupOrganization runs one organization's retention pass. Unlimited plans
// are exempt and skip the scan entirely unless the GDPR override puts every
// artifact in scope regardless of age.
func (c *CleanupCoordinator) CleanupOrganization(ctx context.Context, org models.Organization, gdprOverride bool) (CleanupRun, error) {
	start := c.now()
	window := c.resolver.Resolve(org.Plan)

	run := CleanupRun{
		OrganizationID: org.ID,
		Plan:           org.Plan,
		RetentionDays:  window.Days(),
		GdprOverride:   gdprOverride,
		DryRun:         c.dryRun,
	}

	if window.Unlimited() && !gdprOverride {
		log.Debug().Uint("org", org.ID).Str("plan", org.Plan).Msg("Organization is exempt from retention cleanup, skipping...")
		return run, nil
	}

	cutoff := c.resolver.CutoffFor(org.Plan, start, gdprOverride)

	artifacts, err := c.scanner.ListExpired(ctx, *cutoff, lo.ToPtr(org.ID))
	if err != nil {
		return run, fmt.Errorf("unable to scan expired artifacts: %v", err)
	}
	run.ArtifactsFound = int64(len(artifacts))

	for _, artifact := range artifacts {
		outcome := c.executor.DeleteArtifact(ctx, artifact, org.Plan)
		if outcome.Err != nil {
			run.ArtifactsFailed++
			c.metrics.ObserveItemFailure("artifacts")
			log.Error().Err(outcome.Err).
				Uint("org", org.ID).
				Uint("id", artifact.ID).
				Msg("An artifact deletion failed, it will be retried on the next run...")
			continue
		}
		run.ArtifactsDeleted++
		run.BytesFreed += outcome.BytesFreed
	}

	run.Elapsed = time.Since(start)
	c.metrics.ObserveRun("org_cleanup", run.Elapsed, run.ArtifactsFound, run.BytesFreed)

	log.Info().
		Str("mode", lo.Ternary(c.dryRun, "DRY RUN", "LIVE")).
		Uint("org", org.ID).
		Str("plan", org.Plan).
		Bool("gdpr_override", gdprOverride).
		Int64("found", run.ArtifactsFound).
		Int64("deleted", run.ArtifactsDeleted).
		Int64("failed", run.ArtifactsFailed).
		Int64("bytes_freed", run.BytesFreed).
		Dur("elapsed", run.Elapsed).
		Msg("Organization cleanup accomplished.")

	return run, nil
}

// CleanupFleet walks every organization and folds the per-org runs into fleet
// totals. One organization failing never stops the rest.
func (c *CleanupCoordinator) CleanupFleet(ctx context.Context) (FleetRun, error) {
	start := c.now()
	runId := uuid.NewString()
	fleet := FleetRun{DryRun: c.dryRun}

	var orgs []models.Organization
	if err := c.db.WithContext(ctx).Find(&orgs).Error; err != nil {
		return fleet, fmt.Errorf("unable to list organizations: %v", err)
	}

	var bar *progressbar.ProgressBar
	if c.progress {
		bar = progressbar.NewOptions(len(orgs),
			progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("Cleaning up the fleet..."),
		)
	}

	for _, org := range orgs {
		fleet.TotalOrgs++
		run, err := c.CleanupOrganization(ctx, org, false)
		if err != nil {
			fleet.OrgsFailed++
			log.Error().Err(err).Uint("org", org.ID).Msg("An organization cleanup failed, moving on...")
		} else {
			fleet.TotalArtifactsFound += run.ArtifactsFound
			fleet.TotalArtifactsDeleted += run.ArtifactsDeleted
			fleet.TotalArtifactsFailed += run.ArtifactsFailed
			fleet.TotalBytesFreed += run.BytesFreed
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	fleet.Elapsed = time.Since(start)
	c.metrics.ObserveRun("fleet_cleanup", fleet.Elapsed, fleet.TotalArtifactsFound, fleet.TotalBytesFreed)

	log.Info().
		Str("run_id", runId).
		Str("mode", lo.Ternary(c.dryRun, "DRY RUN", "LIVE")).
		Int64("orgs", fleet.TotalOrgs).
		Int64("orgs_failed", fleet.OrgsFailed).
		Int64("deleted", fleet.TotalArtifactsDeleted).
		Int64("failed", fleet.TotalArtifactsFailed).
		Int64("bytes_freed", fleet.TotalBytesFreed).
		Dur("elapsed", fleet.Elapsed).
		Msg("Fleet cleanup accomplished.")

	return fleet, nil
}
