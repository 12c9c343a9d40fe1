package database

import (
	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.AuthSession{},
	&models.Organization{},
	&models.OrgMembership{},
	&models.GenerationJob{},
	&models.ContentArtifact{},
	&models.RetentionNotification{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(
		AutoMaintainRange...,
	); err != nil {
		return err
	}

	return nil
}
