package services

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validation = validator.New(validator.WithRequiredStructEnabled())

type RetentionWindows struct {
	FreeDays  int `json:"free_days" validate:"gte=0"`
	BasicDays int `json:"basic_days" validate:"gte=0"`
	ProDays   int `json:"pro_days" validate:"gte=0"`
}

// Config carries everything the engine reads from settings. It is built once
// at startup and handed to the services explicitly, so tests can inject
// arbitrary windows without touching viper.
type Config struct {
	DryRun          bool             `json:"dry_run"`
	GracePeriodDays int              `json:"grace_period_days" validate:"gte=0"`
	NotifyAheadDays int              `json:"notify_ahead_days" validate:"gte=0"`
	Windows         RetentionWindows `json:"windows"`
}

func DefaultRetentionWindows() RetentionWindows {
	return RetentionWindows{
		FreeDays:  30,
		BasicDays: 90,
		ProDays:   365,
	}
}

func ConfigFromViper() (Config, error) {
	config := Config{
		DryRun:          viper.GetBool("cleanup.dry_run_default"),
		GracePeriodDays: viper.GetInt("cleanup.grace_period_days"),
		NotifyAheadDays: viper.GetInt("cleanup.notify_ahead_days"),
		Windows: RetentionWindows{
			FreeDays:  viper.GetInt("cleanup.windows.free"),
			BasicDays: viper.GetInt("cleanup.windows.basic"),
			ProDays:   viper.GetInt("cleanup.windows.pro"),
		},
	}

	if err := validation.Struct(config); err != nil {
		return config, fmt.Errorf("invalid cleanup settings: %v", err)
	}

	return config, nil
}
