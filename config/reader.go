package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/airside-sim/tugscan/logging"
)

// Read reads a config from the given file. Environment variables referenced as $VAR or
// ${VAR} are expanded before decoding, and relative paths are taken relative to the file.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath
	if originalPath != "" {
		cfg.resolvePaths(filepath.Dir(originalPath))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	logger.Debugw("config read", "path", originalPath, "surfaces", len(cfg.Surfaces), "orientations", cfg.Orientations)
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Tug.URDF, &c.Tug.Mesh, &c.Aircraft.URDF, &c.Aircraft.Mesh, &c.Scene.Path, &c.Scan.ExportDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
