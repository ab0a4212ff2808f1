// Package sessionmeter implements the sessionmeter command: it reads session
// logs from an input stream and writes billing metrics, flattened streams or
// device streams as JSON.
package sessionmeter

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap/zapcore"

	"github.com/chrisconley/sessionmeter/internal/tracker"
)

const (
	ModeTrack   = "track"
	ModeFlatten = "flatten"
	ModeStreams = "streams"
)

// Config holds sessionmeter command configuration.
type Config struct {
	Mode     string `env:"SESSIONMETER_MODE" envDefault:"track"`
	TTL      string `env:"SESSIONMETER_TTL"`
	Batch    bool   `env:"SESSIONMETER_BATCH"`
	Workers  int    `env:"SESSIONMETER_WORKERS"`
	LogLevel string `env:"SESSIONMETER_LOG_LEVEL" envDefault:"info"`
}

// ParseConfig parses environment and flags. Flags win over environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = tracker.DefaultWorkers
	}

	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "output mode (track|flatten|streams)")
	fs.StringVar(&cfg.TTL, "ttl", cfg.TTL, "connection TTL used when an input omits ttl")
	fs.BoolVar(&cfg.Batch, "batch", cfg.Batch, "read newline-delimited session inputs")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "sessions tracked concurrently in batch mode")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Mode {
	case ModeTrack, ModeFlatten, ModeStreams:
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}
