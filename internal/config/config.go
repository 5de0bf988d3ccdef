package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Config holds runtime settings for the diary.
type Config struct {
	// DatabaseDSN is the SQLite database file (or ":memory:").
	DatabaseDSN string
	// ChunkSize bounds the size of one stored media chunk, in bytes.
	ChunkSize int
	// Workers bounds the number of concurrently running mutation tasks.
	Workers int
	LogLevel string
	// MaxImageSide downscales attached images so neither side exceeds it.
	MaxImageSide int
	// ShutdownTimeout limits how long exit waits for background saves.
	ShutdownTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "diary.db"
	c.ChunkSize = common.DefaultChunkSize
	c.Workers = 4
	c.LogLevel = "info"
	c.MaxImageSide = 2048
	c.ShutdownTimeout = 10 * time.Second
}

// Validate reports settings the storage layer cannot work with.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty: %w", common.ErrInvalidArgument)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size %d: %w", c.ChunkSize, common.ErrInvalidArgument)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers %d: %w", c.Workers, common.ErrInvalidArgument)
	}
	if c.MaxImageSide < 0 {
		return fmt.Errorf("max image side %d: %w", c.MaxImageSide, common.ErrInvalidArgument)
	}
	return nil
}

// LoadConfig constructs a Config from os.Args: defaults, then the JSON file
// (if any), then flags. Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
