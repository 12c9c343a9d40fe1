package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type AccountCleanupStats struct {
	AccountsEligible int64         `json:"accounts_eligible"`
	AccountsDeleted  int64         `json:"accounts_deleted"`
	AccountsFailed   int64         `json:"accounts_failed"`
	ArtifactsRemoved int64         `json:"artifacts_removed"`
	BytesFreed       int64         `json:"bytes_freed"`
	DryRun           bool          `json:"dry_run"`
	Elapsed          time.Duration `json:"elapsed"`
}

type accountPurger interface {
	PurgeAccount(ctx context.Context, acct models.Account) (artifactsRemoved int64, bytesFreed int64, err error)
}

// AccountReaper hard deletes accounts whose soft deletion passed the legal
// grace period. The soft deletion itself happens elsewhere; this is only the
// terminal transition.
type AccountReaper struct {
	db              *gorm.DB
	purger          accountPurger
	metrics         *metrics.Metrics
	gracePeriodDays int
	dryRun          bool

	now func() time.Time
}

func NewAccountReaper(db *gorm.DB, purger accountPurger, mx *metrics.Metrics, gracePeriodDays int, dryRun bool) *AccountReaper {
	return &AccountReaper{
		db:              db,
		purger:          purger,
		metrics:         mx,
		gracePeriodDays: gracePeriodDays,
		dryRun:          dryRun,
		now:             time.Now,
	}
}

// ListEligible selects accounts with a soft-delete marker older than the grace
// period that are also inactive. Already hard-deleted rows are simply gone, so
// re-running after a partial pass converges on the remainder.
func (r *AccountReaper) ListEligible(ctx context.Context) ([]models.Account, error) {
	cutoff := r.now().AddDate(0, 0, -r.gracePeriodDays)

	var accounts []models.Account
	if err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Where("deleted_at <= ?", cutoff).
		Where("is_active = ?", false).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *AccountReaper) RunCleanup(ctx context.Context) (AccountCleanupStats, error) {
	start := r.now()
	runId := uuid.NewString()
	stats := AccountCleanupStats{DryRun: r.dryRun}

	accounts, err := r.ListEligible(ctx)
	if err != nil {
		return stats, fmt.Errorf("unable to list eligible accounts: %v", err)
	}
	stats.AccountsEligible = int64(len(accounts))

	for _, acct := range accounts {
		if r.dryRun {
			log.Info().
				Uint("id", acct.ID).
				Str("email", acct.EmailAddress).
				Time("deleted_at", acct.DeletedAt.Time).
				Msg("[DRY RUN] Would hard delete this account...")
			stats.AccountsDeleted++
			continue
		}

		removed, freed, err := r.purger.PurgeAccount(ctx, acct)
		stats.ArtifactsRemoved += removed
		stats.BytesFreed += freed
		if err != nil {
			stats.AccountsFailed++
			r.metrics.ObserveItemFailure("accounts")
			log.Error().Err(err).Uint("id", acct.ID).Msg("An account hard deletion failed, moving on...")
			continue
		}

		stats.AccountsDeleted++
		log.Info().Uint("id", acct.ID).Int64("artifacts", removed).Msg("An account was hard deleted.")
	}

	stats.Elapsed = time.Since(start)
	r.metrics.ObserveRun("account_cleanup", stats.Elapsed, stats.AccountsEligible, stats.BytesFreed)

	log.Info().
		Str("run_id", runId).
		Str("mode", lo.Ternary(r.dryRun, "DRY RUN", "LIVE")).
		Int64("eligible", stats.AccountsEligible).
		Int64("deleted", stats.AccountsDeleted).
		Int64("failed", stats.AccountsFailed).
		Int64("bytes_freed", stats.BytesFreed).
		Dur("elapsed", stats.Elapsed).
		Msg("Account hard deletion pass accomplished.")

	return stats, nil
}

// GormAccountPurger removes everything one account owns: artifacts through the
// deletion executor, then the dependent rows and the account row itself inside
// one transaction.
type GormAccountPurger struct {
	db       *gorm.DB
	executor artifactDeleter
}

func NewGormAccountPurger(db *gorm.DB, executor artifactDeleter) *GormAccountPurger {
	return &GormAccountPurger{db: db, executor: executor}
}

func (p *GormAccountPurger) PurgeAccount(ctx context.Context, acct models.Account) (int64, int64, error) {
	var jobs []models.GenerationJob
	if err := p.db.WithContext(ctx).Unscoped().
		Where("account_id = ?", acct.ID).
		Find(&jobs).Error; err != nil {
		return 0, 0, fmt.Errorf("unable to list account jobs: %v", err)
	}

	planByOrg := make(map[uint]string)
	orgIds := lo.Uniq(lo.Map(jobs, func(job models.GenerationJob, _ int) uint {
		return job.OrganizationID
	}))
	if len(orgIds) > 0 {
		var orgs []models.Organization
		if err := p.db.WithContext(ctx).Where("id IN ?", orgIds).Find(&orgs).Error; err != nil {
			return 0, 0, fmt.Errorf("unable to resolve owning organizations: %v", err)
		}
		for _, org := range orgs {
			planByOrg[org.ID] = org.Plan
		}
	}
	planByJob := make(map[uint]string)
	for _, job := range jobs {
		planByJob[job.ID] = planByOrg[job.OrganizationID]
	}

	var artifacts []models.ContentArtifact
	if len(jobs) > 0 {
		jobIds := lo.Map(jobs, func(job models.GenerationJob, _ int) uint {
			return job.ID
		})
		if err := p.db.WithContext(ctx).Unscoped().
			Where("job_id IN ?", jobIds).
			Find(&artifacts).Error; err != nil {
			return 0, 0, fmt.Errorf("unable to list account artifacts: %v", err)
		}
	}

	var removed, freed int64
	for _, artifact := range artifacts {
		outcome := p.executor.DeleteArtifact(ctx, artifact, planByJob[artifact.JobID])
		if outcome.Err != nil {
			// Leave the account intact so the whole purge can be retried later
			return removed, freed, fmt.Errorf("unable to remove artifact %s: %v", artifact.Uuid, outcome.Err)
		}
		removed++
		freed += outcome.BytesFreed
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("account_id = ?", acct.ID).Delete(&models.RetentionNotification{}).Error; err != nil {
			return fmt.Errorf("unable to delete retention notifications: %v", err)
		}
		if err := tx.Unscoped().Where("account_id = ?", acct.ID).Delete(&models.AuthSession{}).Error; err != nil {
			return fmt.Errorf("unable to delete sessions: %v", err)
		}
		if err := tx.Unscoped().Where("account_id = ?", acct.ID).Delete(&models.OrgMembership{}).Error; err != nil {
			return fmt.Errorf("unable to delete memberships: %v", err)
		}
		if err := tx.Unscoped().Where("account_id = ?", acct.ID).Delete(&models.GenerationJob{}).Error; err != nil {
			return fmt.Errorf("unable to delete jobs: %v", err)
		}
		if err := tx.Unscoped().Delete(&models.Account{}, acct.ID).Error; err != nil {
			return fmt.Errorf("unable to delete account row: %v", err)
		}
		return nil
	})
	if err != nil {
		return removed, freed, err
	}

	return removed, freed, nil
}
