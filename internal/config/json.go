package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
	"github.com/dmitrijs2005/gophdiary/internal/timex"
)

// JSONConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero so a partial file only overrides
// what it names.
type JSONConfig struct {
	DatabaseDSN     *string         `json:"database_dsn"`
	ChunkSize       *int            `json:"chunk_size"`
	Workers         *int            `json:"workers"`
	LogLevel        *string         `json:"log_level"`
	MaxImageSide    *int            `json:"max_image_side"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.DatabaseDSN != nil {
		cfg.DatabaseDSN = *jc.DatabaseDSN
	}
	if jc.ChunkSize != nil {
		cfg.ChunkSize = *jc.ChunkSize
	}
	if jc.Workers != nil {
		cfg.Workers = *jc.Workers
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.MaxImageSide != nil {
		cfg.MaxImageSide = *jc.MaxImageSide
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	return nil
}
