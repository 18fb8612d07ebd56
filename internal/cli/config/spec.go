package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the configuration of stockvoice-cli.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Session SessionConfig `koanf:"session"`
	Output  OutputConfig  `koanf:"output"`
	Log     LogConfig     `koanf:"log"`

	// FileLoaded reports whether Load found the configuration file.
	FileLoaded bool `koanf:"-"`
}

// ServerConfig describes the backend the gateway talks to.
type ServerConfig struct {
	Address string            `koanf:"address"`
	Timeout time.Duration     `koanf:"timeout"`
	Headers map[string]string `koanf:"headers"`
	CAFile  string            `koanf:"cafile"` // extra PEM roots for HTTPS
}

// SessionConfig locates the durable session store.
type SessionConfig struct {
	Dir     string `koanf:"dir"`
	KeyFile string `koanf:"keyfile"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	Format string `koanf:"format"` // table, json, yaml
	Wide   bool   `koanf:"wide"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Defaults.
const (
	DefaultAddress = "http://localhost:3000/api"
	DefaultTimeout = 10 * time.Second
	DefaultOutput  = "table"
	DefaultLevel   = "warn"
	DefaultFormat  = "text"
)

// HomeDir returns ~/.stockvoice, or .stockvoice when the home directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stockvoice"
	}
	return filepath.Join(home, ".stockvoice")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "cli.yaml")
}

// DefaultHistoryPath returns the shell history file path.
func DefaultHistoryPath() string {
	return filepath.Join(HomeDir(), "history")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: DefaultAddress,
			Timeout: DefaultTimeout,
			Headers: map[string]string{},
		},
		Session: SessionConfig{
			Dir:     filepath.Join(HomeDir(), "session"),
			KeyFile: filepath.Join(HomeDir(), "session.key"),
		},
		Output: OutputConfig{
			Format: DefaultOutput,
		},
		Log: LogConfig{
			Level:  DefaultLevel,
			Format: DefaultFormat,
		},
	}
}

// Map returns the configuration as nested maps with durations as strings.
// It feeds both koanf defaults and the YAML file.
func (c *Config) Map() map[string]any {
	headers := make(map[string]any, len(c.Server.Headers))
	for k, v := range c.Server.Headers {
		headers[k] = v
	}

	return map[string]any{
		"server": map[string]any{
			"address": c.Server.Address,
			"timeout": c.Server.Timeout.String(),
			"headers": headers,
			"cafile":  c.Server.CAFile,
		},
		"session": map[string]any{
			"dir":     c.Session.Dir,
			"keyfile": c.Session.KeyFile,
		},
		"output": map[string]any{
			"format": c.Output.Format,
			"wide":   c.Output.Wide,
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	}
}
