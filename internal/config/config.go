// Package config resolves run settings from flags, CSV2JSONL_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oleg578/csv2jsonl"
	"github.com/oleg578/csv2jsonl/internal/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CSV2JSONL_NO_INFERENCE=true.
const EnvPrefix = "CSV2JSONL"

// Keys, shared by flags (with '-'), env vars and config files.
const (
	KeyDelimiter   = "delimiter"
	KeyTabs        = "tabs"
	KeyIndent      = "indent"
	KeyNoInference = "no_inference"
	KeyDecompress  = "decompress"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyLogColors   = "log_colors"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved, immutable configuration of one run.
type Config struct {
	Delimiter   byte
	Tabs        bool
	Format      csv2jsonl.Format
	Mode        csv2jsonl.Mode
	Compression csv2jsonl.Compression
	Logging     logging.Config
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDelimiter, ",")
	v.SetDefault(KeyTabs, false)
	v.SetDefault(KeyNoInference, false)
	v.SetDefault(KeyDecompress, "auto")
	v.SetDefault(KeyLogLevel, logging.DefaultConfig().Level)
	v.SetDefault(KeyLogFormat, string(logging.DefaultConfig().Format))
	v.SetDefault(KeyLogColors, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name maps to a known key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range []string{
		KeyDelimiter, KeyTabs, KeyIndent, KeyNoInference,
		KeyDecompress, KeyLogLevel, KeyLogFormat, KeyLogColors,
	} {
		flag := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// ReadFile merges a config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load validates the settings in v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Tabs: v.GetBool(KeyTabs),
		Mode: csv2jsonl.InferTypes,
		Logging: logging.Config{
			Level:  v.GetString(KeyLogLevel),
			Format: logging.Format(v.GetString(KeyLogFormat)),
			Colors: v.GetBool(KeyLogColors),
		},
	}

	delim := v.GetString(KeyDelimiter)
	if len(delim) != 1 {
		return Config{}, fmt.Errorf("%w: delimiter must be a single byte, got %q", ErrInvalid, delim)
	}
	cfg.Delimiter = delim[0]

	if v.GetBool(KeyNoInference) {
		cfg.Mode = csv2jsonl.NoInference
	}

	cfg.Format = csv2jsonl.Compact
	if v.IsSet(KeyIndent) {
		width := v.GetInt(KeyIndent)
		if width < 0 {
			return Config{}, fmt.Errorf("%w: indent must not be negative, got %d", ErrInvalid, width)
		}
		cfg.Format = csv2jsonl.Indent(width)
	}

	comp, err := csv2jsonl.ParseCompression(v.GetString(KeyDecompress))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Compression = comp

	if err := cfg.Logging.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// Options translates the configuration into converter options.
func (c Config) Options() []csv2jsonl.Option {
	opts := []csv2jsonl.Option{
		csv2jsonl.WithDelimiter(c.Delimiter),
		csv2jsonl.WithMode(c.Mode),
		csv2jsonl.WithFormat(c.Format),
		csv2jsonl.WithCompression(c.Compression),
	}
	if c.Tabs {
		opts = append(opts, csv2jsonl.WithTabs())
	}
	return opts
}
