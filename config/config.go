// Package config loads the golaunch YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nomis52/golaunch/logging"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr       = ":8080"
	defaultRetrievalTimeout = 30 * time.Second
	defaultMetricsPrefix    = "golaunch"
	defaultJobName          = "golaunch"
	defaultHistorySize      = 100
	defaultLogEntries       = 1000

	redacted = "REDACTED"
)

// Config is the complete application configuration.
type Config struct {
	// ListenAddr is the HTTP listen address of the server.
	ListenAddr string           `yaml:"listen_addr"`
	TLS        TLSConfig        `yaml:"tls"`
	Logging    logging.Config   `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	History    HistoryConfig    `yaml:"history"`
	Intents    []IntentConfig   `yaml:"intents"`
	Schedules  []ScheduleConfig `yaml:"schedules"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// Enabled reports whether TLS is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// MonitoringConfig holds metrics settings. VictoriaMetricsURL enables push
// mode for one-shot runs; the server always exposes /metrics.
type MonitoringConfig struct {
	VictoriaMetricsURL string `yaml:"victoriametrics_url"`
	MetricsPrefix      string `yaml:"metrics_prefix"`
	JobName            string `yaml:"jobname"`
}

// RetrievalConfig configures how module content is fetched.
type RetrievalConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	// RootDir anchors relative file locators.
	RootDir string `yaml:"root_dir"`
	// SSH enables ssh:// locators.
	SSH *SSHConfig `yaml:"ssh,omitempty"`
}

// SSHConfig holds the credentials for ssh:// locators.
type SSHConfig struct {
	User           string `yaml:"user"`
	PrivateKeyFile string `yaml:"private_key_file"`
	KnownHostsFile string `yaml:"known_hosts_file"`
}

// HistoryConfig bounds what the server remembers about ended activities.
type HistoryConfig struct {
	// Size is the number of ended activities kept.
	Size int `yaml:"size"`
	// LogEntries is the number of captured log entries kept per activity.
	LogEntries int `yaml:"log_entries"`
}

// IntentConfig maps an intent name to a module locator.
type IntentConfig struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// ScheduleConfig launches an intent on a cron schedule.
type ScheduleConfig struct {
	Intent string `yaml:"intent"`
	// Cron is a 5-field cron expression.
	Cron      string         `yaml:"cron"`
	Params    map[string]any `yaml:"params,omitempty"`
	Container string         `yaml:"container,omitempty"`
	// Timeout cancels the activity if it has not ended. Zero means no limit.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.TLS.CertFile != "" && c.TLS.KeyFile == "" || c.TLS.CertFile == "" && c.TLS.KeyFile != "" {
		errs = append(errs, errors.New("tls: cert_file and key_file must be set together"))
	}
	if c.Retrieval.Timeout < 0 {
		errs = append(errs, errors.New("retrieval: timeout must not be negative"))
	}
	if ssh := c.Retrieval.SSH; ssh != nil && ssh.PrivateKeyFile == "" {
		errs = append(errs, errors.New("retrieval.ssh: private_key_file is required"))
	}
	if c.Monitoring.VictoriaMetricsURL != "" {
		if _, err := url.ParseRequestURI(c.Monitoring.VictoriaMetricsURL); err != nil {
			errs = append(errs, fmt.Errorf("monitoring: invalid victoriametrics_url: %w", err))
		}
	}
	if c.History.Size < 0 || c.History.LogEntries < 0 {
		errs = append(errs, errors.New("history: sizes must not be negative"))
	}

	seen := make(map[string]bool, len(c.Intents))
	for n, in := range c.Intents {
		switch {
		case in.Name == "":
			errs = append(errs, fmt.Errorf("intents[%d]: name is required", n))
		case seen[in.Name]:
			errs = append(errs, fmt.Errorf("intents[%d]: duplicate intent %q", n, in.Name))
		}
		if in.Source == "" {
			errs = append(errs, fmt.Errorf("intents[%d]: source is required", n))
		}
		seen[in.Name] = true
	}

	for n, s := range c.Schedules {
		if !seen[s.Intent] {
			errs = append(errs, fmt.Errorf("schedules[%d]: unknown intent %q", n, s.Intent))
		}
		if strings.TrimSpace(s.Cron) == "" {
			errs = append(errs, fmt.Errorf("schedules[%d]: cron is required", n))
		}
		if s.Timeout < 0 {
			errs = append(errs, fmt.Errorf("schedules[%d]: timeout must not be negative", n))
		}
	}

	return errors.Join(errs...)
}

// SetDefaults sets default values for optional fields.
func (c *Config) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.Retrieval.Timeout == 0 {
		c.Retrieval.Timeout = defaultRetrievalTimeout
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.History.Size == 0 {
		c.History.Size = defaultHistorySize
	}
	if c.History.LogEntries == 0 {
		c.History.LogEntries = defaultLogEntries
	}
	c.Logging.SetDefaults()
}

// IntentMap returns the configured intents keyed by name.
func (c *Config) IntentMap() map[string]string {
	m := make(map[string]string, len(c.Intents))
	for _, in := range c.Intents {
		m[in.Name] = in.Source
	}
	return m
}

// Redacted returns a copy safe to show over HTTP: key paths and URL
// credentials are replaced.
func (c Config) Redacted() Config {
	if c.TLS.KeyFile != "" {
		c.TLS.KeyFile = redacted
	}
	if c.Retrieval.SSH != nil {
		ssh := *c.Retrieval.SSH
		if ssh.PrivateKeyFile != "" {
			ssh.PrivateKeyFile = redacted
		}
		c.Retrieval.SSH = &ssh
	}
	if u, err := url.Parse(c.Monitoring.VictoriaMetricsURL); err == nil && u.User != nil {
		c.Monitoring.VictoriaMetricsURL = u.Redacted()
	}
	// Share nothing mutable with the original.
	c.Intents = append([]IntentConfig(nil), c.Intents...)
	c.Schedules = append([]ScheduleConfig(nil), c.Schedules...)
	return c
}

// LoadConfig reads the YAML config file at path, applies defaults and
// validates it.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
