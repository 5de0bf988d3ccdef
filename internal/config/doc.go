// Package config loads runtime configuration for the diary CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   SQLite database path (":memory:" for a throwaway diary)
//	-s int      media chunk size in bytes
//	-w int      number of background mutation workers
//	-l string   log level: debug, info, warn, error
//	-m int      longest image side after normalization (0 keeps the size)
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "database_dsn": "/home/me/.diary/diary.db",
//	  "chunk_size": 1048576,
//	  "workers": 4,
//	  "log_level": "info",
//	  "max_image_side": 2048,
//	  "shutdown_timeout": "10s"
//	}
//
// Environment variables are not read.
package config
