package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds settings read from featuregraph.yaml and FEATUREGRAPH_*
// environment variables. Command flags override it.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	// Path is used by commands that need a database when --db is not given.
	Path string `mapstructure:"path"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn or error
	Format string `mapstructure:"format"` // text or json
}

// LoadConfig reads configuration. An explicit path must exist; without one,
// featuregraph.yaml is looked up in the working directory and may be absent.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("FEATUREGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("featuregraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the diagnostic logger. Verbose forces debug level.
func NewLogger(cfg LogConfig, verbose bool, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", cfg.Level)
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", cfg.Format)
	}
}
