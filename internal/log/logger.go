// Package log configures the process-wide zerolog logger used by the absorb
// command. Library packages never call it; they accept a zerolog.Logger
// option and default to zerolog.Nop().
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LevelEnv overrides the level when Config.Level is empty.
const LevelEnv = "ABSORB_LOG_LEVEL"

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stderr)
	Service string    // optional service name attached to every log entry
	Version string    // optional build version attached to every log entry
}

var (
	mu   sync.RWMutex
	base = zerolog.Nop()
)

// New builds a logger from cfg without touching the global one.
// An unknown level falls back to info.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	raw := cfg.Level
	if raw == "" {
		raw = os.Getenv(LevelEnv)
	}
	if raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	service := cfg.Service
	if service == "" {
		service = "absorb"
	}

	ctx := zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service)
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}

	return ctx.Logger()
}

// Configure replaces the global logger. Safe to call more than once; the
// command calls it again after the configuration file is loaded.
func Configure(cfg Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	l := New(cfg)

	mu.Lock()
	base = l
	mu.Unlock()
}

// Base returns the configured base logger (a no-op logger until Configure).
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) zerolog.Logger {
	ctx := Base().With()
	if build != nil {
		build(&ctx)
	}

	return ctx.Logger()
}
