// Package config resolves storyboard settings from defaults, STORYBOARD_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "STORYBOARD"

// Config holds the runtime settings shared by the CLI and the web server.
type Config struct {
	Port          string
	MaxImages     int
	MaxFileSize   uint64
	DecodeTimeout time.Duration
	Concurrency   int
	SessionTTL    time.Duration
	LogLevel      string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:          "8888",
		MaxImages:     4,
		MaxFileSize:   10 * 1000 * 1000,
		DecodeTimeout: 10 * time.Second,
		Concurrency:   0,
		SessionTTL:    time.Hour,
		LogLevel:      "info",
	}
}

// RegisterFlags adds the shared flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("max-images", d.MaxImages, "Maximum number of images per storyboard")
	fs.String("max-file-size", humanize.Bytes(d.MaxFileSize), "Maximum size of a single image (e.g. 10MB)")
	fs.Duration("decode-timeout", d.DecodeTimeout, "Per-image decode timeout")
	fs.Int("concurrency", d.Concurrency, "Maximum simultaneous decodes per batch (0 for one per image)")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
}

// Load resolves the configuration. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	d := Default()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", d.Port)
	v.SetDefault("max-images", d.MaxImages)
	v.SetDefault("max-file-size", humanize.Bytes(d.MaxFileSize))
	v.SetDefault("decode-timeout", d.DecodeTimeout)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("session-ttl", d.SessionTTL)
	v.SetDefault("log-level", d.LogLevel)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	size, err := humanize.ParseBytes(v.GetString("max-file-size"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid max-file-size %q: %w", v.GetString("max-file-size"), err)
	}

	cfg := Config{
		Port:          v.GetString("port"),
		MaxImages:     v.GetInt("max-images"),
		MaxFileSize:   size,
		DecodeTimeout: v.GetDuration("decode-timeout"),
		Concurrency:   v.GetInt("concurrency"),
		SessionTTL:    v.GetDuration("session-ttl"),
		LogLevel:      v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings for values the pipeline cannot work with.
func (c Config) Validate() error {
	if c.MaxImages <= 0 {
		return fmt.Errorf("max-images must be positive, got %d", c.MaxImages)
	}
	if c.MaxFileSize == 0 {
		return fmt.Errorf("max-file-size must be positive")
	}
	if c.DecodeTimeout <= 0 {
		return fmt.Errorf("decode-timeout must be positive, got %s", c.DecodeTimeout)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log-level %q", level)
	}
	return l, nil
}
