package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/pthm/hxbridge"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != Default() {
		t.Errorf("Load() = %+v, want %+v", *cfg, Default())
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	file := "addr: 0.0.0.0:9000\ntransport: nats\ncodec: signed\nkey: from-file\nlog_level: debug\n"
	if err := os.WriteFile(DefaultPath, []byte(file), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HXBRIDGE_KEY", "from-env")
	t.Setenv("HXBRIDGE_CODEC", "sealed")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", "", "")
	flags.String("nats-url", "", "")
	if err := flags.Parse([]string{"--nats-url", "nats://broker:4222"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name, got, want string
	}{
		{"addr from file", cfg.Addr, "0.0.0.0:9000"},
		{"transport from file", cfg.Transport, "nats"},
		{"codec from env", cfg.Codec, "sealed"},
		{"key from env", cfg.Key, "from-env"},
		{"nats_url from flag", cfg.NATSURL, "nats://broker:4222"},
		{"log_level from file", cfg.LogLevel, "debug"},
		{"log_format default", cfg.LogFormat, "text"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"), nil)
	if err == nil {
		t.Fatal("Load() with missing file should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad transport", func(c *Config) { c.Transport = "carrier-pigeon" }, false},
		{"signed without key", func(c *Config) { c.Codec = "signed" }, false},
		{"sealed with key", func(c *Config) { c.Codec = "sealed"; c.Key = "k" }, true},
		{"bad codec", func(c *Config) { c.Codec = "xml" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, hxbridge.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "component_id", "t1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	if !strings.Contains(out, `"component_id":"t1"`) {
		t.Errorf("json output missing attribute: %s", out)
	}
}

func TestNewCodec(t *testing.T) {
	cfg := Default()
	cfg.Codec = "signed"
	cfg.Key = "secret"
	if _, err := cfg.NewCodec(); err != nil {
		t.Errorf("NewCodec() error = %v", err)
	}
}

func TestWriteOmitsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hxbridge.yml")
	cfg := Default()
	cfg.Key = "secret"

	if err := Write(path, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("key written to disk")
	}

	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Addr != cfg.Addr {
		t.Errorf("Addr = %q, want %q", loaded.Addr, cfg.Addr)
	}
}
