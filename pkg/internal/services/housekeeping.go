package services

import (
	"time"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/database"
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Dependent rows that other subsystems soft delete and forget about. Accounts
// are deliberately absent here, the reaper owns those. Jobs are handled
// separately below because they are the only path from an artifact to its
// owning organization.
var housekeepingRange = []any{
	&models.AuthSession{},
	&models.OrgMembership{},
	&models.RetentionNotification{},
}

// DoAutoDatabaseCleanup permanently drops ancillary rows that were soft
// deleted more than thirty days ago. Runs from the daemon schedule.
func DoAutoDatabaseCleanup() {
	RunDatabaseHousekeeping(database.C, time.Now())
}

func RunDatabaseHousekeeping(db *gorm.DB, now time.Time) int64 {
	deadline := now.AddDate(0, 0, -30)
	log.Debug().Time("deadline", deadline).Msg("Now housekeeping the database...")

	var count int64
	for _, model := range housekeepingRange {
		tx := db.Unscoped().Delete(model, "deleted_at IS NOT NULL AND deleted_at <= ?", deadline)
		if tx.Error != nil {
			log.Error().Err(tx.Error).Msg("An error occurred when doing database housekeeping...")
		}
		count += tx.RowsAffected
	}

	// A job row may only go once every artifact it owns is gone. The expiry
	// scan and the account purge both reach artifacts through their job, so
	// dropping the job first would strand the payloads forever.
	tx := db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at <= ?", deadline).
		Where("NOT EXISTS (SELECT 1 FROM content_artifacts WHERE content_artifacts.job_id = generation_jobs.id)").
		Delete(&models.GenerationJob{})
	if tx.Error != nil {
		log.Error().Err(tx.Error).Msg("An error occurred when doing database housekeeping...")
	}
	count += tx.RowsAffected

	log.Debug().Int64("affected", count).Msg("Database housekeeping accomplished.")

	return count
}
