package services

import (
	"context"
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"gorm.io/gorm"
)

// ExpiryScanner finds artifacts whose creation time sits behind the cutoff of
// their owning organization. It never mutates anything.
type ExpiryScanner struct {
	db *gorm.DB
}

func NewExpiryScanner(db *gorm.DB) *ExpiryScanner {
	return &ExpiryScanner{db: db}
}

// ListExpired returns the full expired set as a materialized slice, optionally
// narrowed to a single organization. Callers get a finite batch, not a cursor,
// which keeps deletion batches bounded.
func (s *ExpiryScanner) ListExpired(ctx context.Context, cutoff time.Time, orgId *uint) ([]models.ContentArtifact, error) {
	tx := s.db.WithContext(ctx).
		Joins("JOIN generation_jobs ON generation_jobs.id = content_artifacts.job_id").
		Where("content_artifacts.created_at <= ?", cutoff)
	if orgId != nil {
		tx = tx.Where("generation_jobs.organization_id = ?", *orgId)
	}

	var artifacts []models.ContentArtifact
	if err := tx.Find(&artifacts).Error; err != nil {
		return nil, err
	}

	return artifacts, nil
}
