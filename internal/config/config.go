// Package config loads hxbridge CLI configuration using Viper.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pthm/hxbridge"
)

// DefaultPath is the project-local config file.
const DefaultPath = "hxbridge.yml"

// Config holds the values shared by the host and surface commands.
type Config struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	Transport string `mapstructure:"transport" yaml:"transport"`
	NATSURL   string `mapstructure:"nats_url" yaml:"nats_url"`
	Codec     string `mapstructure:"codec" yaml:"codec"`
	Key       string `mapstructure:"key" yaml:"key,omitempty"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var keys = []string{"addr", "transport", "nats_url", "codec", "key", "log_level", "log_format"}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:      "127.0.0.1:8080",
		Transport: "ws",
		NATSURL:   "embedded",
		Codec:     "json",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load resolves configuration with precedence
// flags > HXBRIDGE_* env > config file > defaults.
//
// An empty path reads DefaultPath when it exists. flags may be nil; a
// flag named like a key with dashes ("nats-url") overrides it when set.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("nats_url", def.NATSURL)
	v.SetDefault("codec", def.Codec)
	v.SetDefault("key", "")
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	v.SetEnvPrefix("HXBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", k, err)
		}
	}

	if path == "" && fileExists(DefaultPath) {
		path = DefaultPath
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, k := range keys {
			if f := flags.Lookup(strings.ReplaceAll(k, "_", "-")); f != nil {
				if err := v.BindPFlag(k, f); err != nil {
					return nil, fmt.Errorf("binding %s flag: %w", k, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated values and that protected codecs have a key.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case "ws", "nats":
	default:
		errs = append(errs, fmt.Errorf("transport must be ws or nats, got %q", c.Transport))
	}
	switch c.Codec {
	case "json":
	case "signed", "sealed":
		if c.Key == "" {
			errs = append(errs, fmt.Errorf("codec %s needs a key", c.Codec))
		}
	default:
		errs = append(errs, fmt.Errorf("codec must be json, signed or sealed, got %q", c.Codec))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", hxbridge.ErrInvalidConfig, err)
	}
	return nil
}

// NewCodec builds the envelope codec.
func (c *Config) NewCodec() (hxbridge.Codec, error) {
	return hxbridge.NewCodec(c.Codec, []byte(c.Key))
}

// NewLogger builds a slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Write saves cfg as YAML. The key is never written.
func Write(path string, cfg Config) error {
	cfg.Key = ""
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
