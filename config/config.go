// Package config defines the configuration of a path following run.
package config

import (
	"math"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/pursuit/components/base/fake"
	"go.viam.com/pursuit/control"
	"go.viam.com/pursuit/logging"
	"go.viam.com/pursuit/path"
	"go.viam.com/pursuit/services/follower"
)

// Config describes a path following run: the controller tuning, the follower rate, the
// simulated base and the path to follow.
type Config struct {
	// ConfigFilePath is the file the config was read from, if any.
	ConfigFilePath string `json:"-"`

	Controller control.PurePursuitConfig `json:"controller"`
	Follower   follower.Config           `json:"follower"`
	Base       fake.Config               `json:"base"`

	// Path is given inline, or loaded from PathFile relative to the config file.
	Path     *path.Path `json:"path,omitempty"`
	PathFile string     `json:"path_file,omitempty"`
	// PathSpacing, when positive, injects waypoints so no path segment is longer than it.
	PathSpacing float64 `json:"path_spacing,omitempty"`

	LogLevel logging.Level `json:"log_level,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	if err := c.Controller.Validate("controller"); err != nil {
		return err
	}
	if err := c.Follower.Validate("follower"); err != nil {
		return err
	}
	if err := c.Base.Validate("base"); err != nil {
		return err
	}
	if !(c.PathSpacing >= 0) || math.IsInf(c.PathSpacing, 0) {
		return goutils.NewConfigValidationError("path_spacing",
			errors.Errorf("must be non-negative and finite, got %v", c.PathSpacing))
	}
	if c.Path == nil {
		if c.PathFile == "" {
			return goutils.NewConfigValidationFieldRequiredError("path", "path")
		}
		return goutils.NewConfigValidationError("path_file", errors.Errorf("%q was not loaded", c.PathFile))
	}
	if c.Path.Len() == 0 {
		return goutils.NewConfigValidationError("path", path.ErrEmptyPath)
	}
	return nil
}
