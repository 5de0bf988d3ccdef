package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophdiary/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. Only the flags listed
// here are considered; anything else on the command line is ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-s", "-w", "-l", "-m"})

	fs := flag.NewFlagSet("diary", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite database path")
	fs.IntVar(&cfg.ChunkSize, "s", cfg.ChunkSize, "media chunk size in bytes")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "background mutation workers")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.IntVar(&cfg.MaxImageSide, "m", cfg.MaxImageSide, "longest image side after normalization")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
