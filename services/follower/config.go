package follower

import (
	"math"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

const maxFrequencyHz = 200

// Config describes how often the follower runs the controller and how long an episode may
// last.
type Config struct {
	FrequencyHz float64 `json:"frequency_hz"`
	// Timeout is a Go duration string; empty means no limit.
	Timeout string `json:"timeout,omitempty"`
	// MaxAcceleration, when positive, bounds the change of each side speed per second.
	MaxAcceleration float64 `json:"max_acceleration,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.FrequencyHz == 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "frequency_hz")
	}
	if !(cfg.FrequencyHz > 0) || cfg.FrequencyHz > maxFrequencyHz {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("frequency_hz shouldn't be negative or above %dHz, got %v", maxFrequencyHz, cfg.FrequencyHz))
	}
	if !(cfg.MaxAcceleration >= 0) || math.IsInf(cfg.MaxAcceleration, 0) {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("max_acceleration must be non-negative and finite, got %v", cfg.MaxAcceleration))
	}
	if _, err := cfg.timeout(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// Period returns the time between two control cycles.
func (cfg *Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / cfg.FrequencyHz)
}

func (cfg *Config) timeout() (time.Duration, error) {
	if cfg.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "timeout")
	}
	if d < 0 {
		return 0, errors.Errorf("timeout cannot be negative, got %v", d)
	}
	return d, nil
}
