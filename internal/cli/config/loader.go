package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/stockvoice-go/internal/infra/confloader"
	"github.com/yndnr/stockvoice-go/internal/telemetry/logger"
)

// EnvKeys lists the keys that may be set from STOCKVOICE_* variables.
var EnvKeys = []string{
	"server.address",
	"server.timeout",
	"server.cafile",
	"session.dir",
	"session.keyfile",
	"output.format",
	"output.wide",
	"log.level",
	"log.format",
}

// Load merges defaults, the file at path, the environment and overrides.
// An empty path means the default path. A missing file is not an error.
func Load(path string, overrides map[string]any) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := &Config{}
	l := confloader.NewLoader(
		confloader.WithDefaults(Default().Map()),
		confloader.WithConfigFile(path, true),
		confloader.WithEnvKeys(EnvKeys...),
		confloader.WithOverrides(overrides),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	cfg.FileLoaded = l.FileLoaded()

	cfg.Session.Dir = ExpandHome(cfg.Session.Dir)
	cfg.Session.KeyFile = ExpandHome(cfg.Session.KeyFile)
	cfg.Server.CAFile = ExpandHome(cfg.Server.CAFile)
	if cfg.Server.Headers == nil {
		cfg.Server.Headers = map[string]string{}
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Server.Address)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.address: %q is not an absolute http(s) URL", c.Server.Address))
	}
	if c.Server.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("server.timeout: must be positive, got %s", c.Server.Timeout))
	}
	if c.Server.CAFile != "" {
		if _, err := os.Stat(c.Server.CAFile); err != nil {
			errs = append(errs, fmt.Errorf("server.cafile: %w", err))
		}
	}
	if c.Session.Dir == "" {
		errs = append(errs, errors.New("session.dir: required"))
	}
	if c.Session.KeyFile == "" {
		errs = append(errs, errors.New("session.keyfile: required"))
	}

	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print: header values with credential-like
// names are hidden and JWT-looking values are masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Server.Headers = make(map[string]string, len(c.Server.Headers))
	for k, v := range c.Server.Headers {
		if logger.IsSensitiveKey(k) {
			v = "***REDACTED***"
		} else {
			v = logger.RedactString(v)
		}
		out.Server.Headers[k] = v
	}
	return &out
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg.Map())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
