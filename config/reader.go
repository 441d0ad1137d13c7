package config

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/slicerar/arview/logging"
)

// Read reads a config from the given file, expanding environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies where, if applicable, the
// file the reader originated from. Relative calibration file paths are resolved against it.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var cfg Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if originalPath != "" {
		dir := filepath.Dir(originalPath)
		for i := range cfg.Intrinsics {
			if f := cfg.Intrinsics[i].File; f != "" && !filepath.IsAbs(f) {
				cfg.Intrinsics[i].File = filepath.Join(dir, f)
			}
		}
	}
	logger.Debugw("read config", "path", originalPath, "transforms", len(cfg.Transforms),
		"intrinsics", len(cfg.Intrinsics), "videos", len(cfg.Videos))
	return &cfg, nil
}
