package services

import (
	"context"
	"fmt"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotifyStats struct {
	Candidates int64         `json:"candidates"`
	Recorded   int64         `json:"recorded"`
	Sent       int64         `json:"sent"`
	Failed     int64         `json:"failed"`
	DryRun     bool          `json:"dry_run"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Sender delivers one pre-expiry warning. Content and formatting belong to the
// notification service; the engine only tracks that a delivery was attempted.
type Sender interface {
	Send(ctx context.Context, acct models.Account, artifact models.ContentArtifact, expiresAt time.Time) error
}

// LogSender is the default sender, it only writes an operational log line.
type LogSender struct{}

func (LogSender) Send(_ context.Context, acct models.Account, artifact models.ContentArtifact, expiresAt time.Time) error {
	log.Info().
		Uint("account", acct.ID).
		Uint("artifact", artifact.ID).
		Time("expires_at", expiresAt).
		Msg("An artifact pre-expiry warning was issued.")
	return nil
}

// ExpiryNotifier warns owners about artifacts that will expire soon. The
// unique (account, artifact, date) index makes repeated same-day invocations
// record nothing twice.
type ExpiryNotifier struct {
	db        *gorm.DB
	resolver  *PolicyResolver
	sender    Sender
	aheadDays int
	dryRun    bool

	now func() time.Time
}

func NewExpiryNotifier(db *gorm.DB, resolver *PolicyResolver, sender Sender, aheadDays int, dryRun bool) *ExpiryNotifier {
	return &ExpiryNotifier{
		db:        db,
		resolver:  resolver,
		sender:    sender,
		aheadDays: aheadDays,
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// ListExpiring finds the artifacts of one organization that are still inside
// the retention window but will fall out of it within the look-ahead.
func (n *ExpiryNotifier) ListExpiring(ctx context.Context, org models.Organization) ([]models.ContentArtifact, error) {
	window := n.resolver.Resolve(org.Plan)
	if window.Unlimited() {
		return nil, nil
	}

	cutoff := *window.Cutoff(n.now())
	horizon := cutoff.AddDate(0, 0, n.aheadDays)

	var artifacts []models.ContentArtifact
	if err := n.db.WithContext(ctx).
		Joins("JOIN generation_jobs ON generation_jobs.id = content_artifacts.job_id").
		Where("generation_jobs.organization_id = ?", org.ID).
		Where("content_artifacts.created_at > ?", cutoff).
		Where("content_artifacts.created_at <= ?", horizon).
		Preload("Job").
		Find(&artifacts).Error; err != nil {
		return nil, err
	}

	return artifacts, nil
}

func (n *ExpiryNotifier) RunNotifyPass(ctx context.Context) (NotifyStats, error) {
	start := n.now()
	stats := NotifyStats{DryRun: n.dryRun}

	var orgs []models.Organization
	if err := n.db.WithContext(ctx).Find(&orgs).Error; err != nil {
		return stats, fmt.Errorf("unable to list organizations: %v", err)
	}

	today := datatypes.Date(start)

	for _, org := range orgs {
		window := n.resolver.Resolve(org.Plan)
		if window.Unlimited() {
			continue
		}

		artifacts, err := n.ListExpiring(ctx, org)
		if err != nil {
			log.Error().Err(err).Uint("org", org.ID).Msg("Unable to scan expiring artifacts, moving on...")
			continue
		}
		stats.Candidates += int64(len(artifacts))

		for _, artifact := range artifacts {
			if n.dryRun {
				continue
			}

			notification := models.RetentionNotification{
				NotifyDate: today,
				AccountID:  artifact.Job.AccountID,
				ArtifactID: artifact.ID,
			}
			tx := n.db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&notification)
			if tx.Error != nil {
				stats.Failed++
				log.Error().Err(tx.Error).Uint("artifact", artifact.ID).Msg("Unable to record a retention notification...")
				continue
			}
			if tx.RowsAffected == 0 {
				// Already warned today
				continue
			}
			stats.Recorded++

			var acct models.Account
			if err := n.db.WithContext(ctx).First(&acct, artifact.Job.AccountID).Error; err != nil {
				stats.Failed++
				n.markDelivery(ctx, &notification, err)
				continue
			}

			expiresAt := artifact.CreatedAt.AddDate(0, 0, window.Days())
			err := n.sender.Send(ctx, acct, artifact, expiresAt)
			n.markDelivery(ctx, &notification, err)
			if err != nil {
				stats.Failed++
				log.Error().Err(err).Uint("artifact", artifact.ID).Msg("A pre-expiry warning delivery failed...")
				continue
			}
			stats.Sent++
		}
	}

	stats.Elapsed = time.Since(start)

	log.Info().
		Str("mode", lo.Ternary(n.dryRun, "DRY RUN", "LIVE")).
		Int64("candidates", stats.Candidates).
		Int64("recorded", stats.Recorded).
		Int64("sent", stats.Sent).
		Int64("failed", stats.Failed).
		Dur("elapsed", stats.Elapsed).
		Msg("Pre-expiry notification pass accomplished.")

	return stats, nil
}

func (n *ExpiryNotifier) markDelivery(ctx context.Context, notification *models.RetentionNotification, cause error) {
	if cause == nil {
		notification.DeliveredAt = lo.ToPtr(n.now())
	} else {
		notification.DeliveryError = cause.Error()
	}
	if err := n.db.WithContext(ctx).Save(notification).Error; err != nil {
		log.Error().Err(err).Uint("id", notification.ID).Msg("Unable to record a notification delivery outcome...")
	}
}
