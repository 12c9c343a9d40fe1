package services

import (
	"context"
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/metrics"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Outcome is the per-artifact deletion result. Failures are values here, never
// exceptions crossing a batch boundary.
type Outcome struct {
	ArtifactID uint
	BytesFreed int64
	Err        error
}

type DeletionExecutor struct {
	db      *gorm.DB
	drv     storage.Driver
	metrics *metrics.Metrics
	dryRun  bool
}

func NewDeletionExecutor(db *gorm.DB, drv storage.Driver, mx *metrics.Metrics, dryRun bool) *DeletionExecutor {
	return &DeletionExecutor{
		db:      db,
		drv:     drv,
		metrics: mx,
		dryRun:  dryRun,
	}
}

// DeleteArtifactFile removes the artifact's object storage payload and reports
// how many bytes that freed. In dry run mode the size probe still runs but the
// destructive call never does. An already absent payload counts as freed zero
// bytes, so a re-run after a partial failure converges instead of erroring.
func (e *DeletionExecutor) DeleteArtifactFile(ctx context.Context, meta models.ContentArtifact) (int64, error) {
	if meta.StorageKey == nil {
		// Record-only artifact, nothing stored
		return 0, nil
	}

	size, err := e.drv.Stat(ctx, *meta.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("unable to probe object size: %v", err)
	}

	if e.dryRun {
		return size, nil
	}

	if err := e.drv.Remove(ctx, *meta.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("unable to remove object: %v", err)
	}

	return size, nil
}

// DeleteArtifactRecords drops each metadata row on its own, so one failing row
// cannot take the rest of the batch down with it.
func (e *DeletionExecutor) DeleteArtifactRecords(ctx context.Context, batch []models.ContentArtifact) (deleted int, failed int) {
	for _, meta := range batch {
		if e.dryRun {
			deleted++
			continue
		}
		if err := e.db.WithContext(ctx).Unscoped().Delete(&models.ContentArtifact{}, meta.ID).Error; err != nil {
			failed++
			log.Error().Err(err).Uint("id", meta.ID).Str("uuid", meta.Uuid).Msg("An artifact record deletion failed...")
			continue
		}
		deleted++
	}

	return
}

// DeleteArtifact performs the full deletion of one artifact: payload first,
// metadata row second. The row is only touched once the payload outcome is
// known good, so a failed file deletion leaves the artifact visible for the
// next scheduled run to retry.
func (e *DeletionExecutor) DeleteArtifact(ctx context.Context, meta models.ContentArtifact, plan string) Outcome {
	out := Outcome{ArtifactID: meta.ID}

	freed, err := e.DeleteArtifactFile(ctx, meta)
	if err != nil {
		out.Err = err
		return out
	}
	out.BytesFreed = freed

	if _, failed := e.DeleteArtifactRecords(ctx, []models.ContentArtifact{meta}); failed > 0 {
		out.Err = fmt.Errorf("unable to delete artifact record %d", meta.ID)
		return out
	}

	if !e.dryRun {
		e.metrics.ObserveArtifactDeleted(plan, freed)
	}

	return out
}
