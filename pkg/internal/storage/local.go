package storage

import (
	"context"
	"os"
	"path/filepath"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
)

type LocalDriver struct {
	config models.LocalDestination
}

func NewLocalDriver(config models.LocalDestination) *LocalDriver {
	return &LocalDriver{config: config}
}

func (d *LocalDriver) Stat(_ context.Context, key string) (int64, error) {
	info, err := os.Stat(filepath.Join(d.config.Path, key))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	return info.Size(), nil
}

func (d *LocalDriver) Remove(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(d.config.Path, key))
	if err != nil && os.IsNotExist(err) {
		return ErrNotFound
	}

	return err
}
