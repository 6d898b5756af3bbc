// Package logging builds the diagnostics logger. Diagnostics always go to a
// separate sink from converted data.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Format names a log line layout.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatCustom Format = "custom"
)

// Config holds logger settings.
type Config struct {
	Level  string
	Format Format
	Colors bool
}

// DefaultConfig logs warnings and errors as plain text.
func DefaultConfig() Config {
	return Config{Level: "warn", Format: FormatText}
}

// Validate checks the level and format.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatCustom:
		return nil
	default:
		return fmt.Errorf("unsupported log format: %q", c.Format)
	}
}

// New returns a logger writing to out, or to stderr when out is nil.
func New(cfg Config, out io.Writer) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}

	level, _ := logrus.ParseLevel(cfg.Level)
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)

	switch cfg.Format {
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case FormatCustom:
		log.SetFormatter(&CustomFormatter{Timestamp: true, Colors: cfg.Colors})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
			DisableColors:   !cfg.Colors,
			ForceColors:     cfg.Colors,
		})
	}
	return log, nil
}
