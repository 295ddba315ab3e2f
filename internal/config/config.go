package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr               string        `yaml:"addr"`
		WebDir             string        `yaml:"webDir"`
		SessionIdleTimeout time.Duration `yaml:"sessionIdleTimeout"`
		SweepInterval      time.Duration `yaml:"sweepInterval"`
		AllowedOrigins     []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Backend struct {
		URL string `yaml:"url"`
	} `yaml:"backend"`

	Console struct {
		NoticeTTL time.Duration `yaml:"noticeTTL"`
	} `yaml:"console"`

	Archive struct {
		Path string `yaml:"path"`
	} `yaml:"archive"`

	Telemetry struct {
		ServiceName  string `yaml:"serviceName"`
		OTLPEndpoint string `yaml:"otlpEndpoint"`
	} `yaml:"telemetry"`
}

func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":8090"
	cfg.Server.WebDir = "web"
	cfg.Server.SessionIdleTimeout = 2 * time.Hour
	cfg.Server.SweepInterval = time.Minute
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Backend.URL = "http://localhost:8000"
	cfg.Console.NoticeTTL = 6 * time.Second
	cfg.Archive.Path = "reports.db"
	cfg.Telemetry.ServiceName = "infringement-console"
	return &cfg
}

// Load reads an optional YAML file over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Backend.URL, "INFRINGE_BACKEND_URL")
	set(&c.Server.Addr, "INFRINGE_ADDR")
	set(&c.Server.WebDir, "INFRINGE_WEB_DIR")
	set(&c.Archive.Path, "INFRINGE_ARCHIVE_PATH")
	set(&c.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	set(&c.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Backend.URL) == "" {
		errs = append(errs, errors.New("backend.url is required"))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.SessionIdleTimeout <= 0 {
		errs = append(errs, errors.New("server.sessionIdleTimeout must be positive"))
	}
	if c.Server.SweepInterval <= 0 {
		errs = append(errs, errors.New("server.sweepInterval must be positive"))
	}
	if c.Console.NoticeTTL <= 0 {
		errs = append(errs, errors.New("console.noticeTTL must be positive"))
	}
	return errors.Join(errs...)
}
