package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/pursuit/path"
)

// Read reads a config from the given file. Environment variables are expanded before
// parsing, and a path_file is resolved relative to the config file.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	cfg := Config{ConfigFilePath: originalPath}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	if err := cfg.loadPath(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadPath() error {
	if err := c.readPathFile(); err != nil {
		return err
	}
	if c.Path == nil || c.PathSpacing <= 0 {
		return nil
	}
	dense, err := c.Path.Densify(c.PathSpacing)
	if err != nil {
		return goutils.NewConfigValidationError("path_spacing", err)
	}
	c.Path = dense
	return nil
}

func (c *Config) readPathFile() error {
	if c.PathFile == "" {
		return nil
	}
	if c.Path != nil {
		return goutils.NewConfigValidationError("path", errors.New("only one of path and path_file may be set"))
	}
	pathFile := c.PathFile
	if !filepath.IsAbs(pathFile) && c.ConfigFilePath != "" {
		pathFile = filepath.Join(filepath.Dir(c.ConfigFilePath), pathFile)
	}
	p, err := path.ReadFile(pathFile)
	if err != nil {
		return goutils.NewConfigValidationError("path_file", err)
	}
	c.Path = p
	return nil
}
