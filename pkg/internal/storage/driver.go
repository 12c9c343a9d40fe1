package storage

import (
	"context"
	"errors"
	"fmt"

	"git.solsynth.dev/hypernet/janitor/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
)

// ErrNotFound is returned by Stat when no object exists under the given key.
// Callers treat a missing object as already cleaned, not as a failure.
var ErrNotFound = errors.New("object not found")

// Driver is the object storage collaborator. Stat is the non-destructive size
// probe; Remove is the only destructive call.
type Driver interface {
	Stat(ctx context.Context, key string) (int64, error)
	Remove(ctx context.Context, key string) error
}

// NewDriverFromConfig builds a driver out of the destination section in the
// settings file, e.g. destinations.permanent.
func NewDriverFromConfig(section string) (Driver, error) {
	destMap := viper.GetStringMap(fmt.Sprintf("destinations.%s", section))

	var dest models.BaseDestination
	rawDest, _ := jsoniter.Marshal(destMap)
	_ = jsoniter.Unmarshal(rawDest, &dest)

	switch dest.Type {
	case models.DestinationTypeLocal:
		var destConfigured models.LocalDestination
		_ = jsoniter.Unmarshal(rawDest, &destConfigured)
		return NewLocalDriver(destConfigured), nil
	case models.DestinationTypeS3:
		var destConfigured models.S3Destination
		_ = jsoniter.Unmarshal(rawDest, &destConfigured)
		return NewS3Driver(destConfigured)
	default:
		return nil, fmt.Errorf("invalid destination: unsupported protocol %s", dest.Type)
	}
}
