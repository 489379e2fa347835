package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"latencygen/internal/dataset"
	"latencygen/internal/generator"
)

const (
	DefaultGatewayURL  = "http://localhost:9091"
	DefaultJob         = "fake_latency_test"
	DefaultInstance    = "manual"
	DefaultTimeoutSec  = 5
	DefaultIntervalSec = 10
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"

	// EnvGateway overrides gateway.url when set.
	EnvGateway = "LATENCYGEN_GATEWAY"
)

// DefaultNodes is the node list used when no config file names one.
var DefaultNodes = []string{"node-a", "node-b", "node-c", "node-d"}

// DefaultSTUNServers are queried when stun.instance_from_stun is set without
// an explicit server list.
var DefaultSTUNServers = []string{"stun.l.google.com:19302", "stun1.l.google.com:19302"}

// Config is the full generator configuration.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Generator GeneratorConfig `yaml:"generator"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Log       LogConfig       `yaml:"log"`
	STUN      STUNConfig      `yaml:"stun,omitempty"`
	// Listen enables the self-observability endpoint, e.g. ":9100".
	Listen  string `yaml:"listen,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// GatewayConfig addresses the Pushgateway. A URL that already contains
// /metrics/job/ is used as is and Job/Instance are ignored.
type GatewayConfig struct {
	URL        string `yaml:"url"`
	Job        string `yaml:"job"`
	Instance   string `yaml:"instance"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type GeneratorConfig struct {
	Mode       string        `yaml:"mode"`
	Nodes      []string      `yaml:"nodes"`
	Custom     []dataset.Row `yaml:"custom,omitempty"`
	CustomFile string        `yaml:"custom_file,omitempty"`
	LatencyMin float64       `yaml:"latency_min"`
	LatencyMax float64       `yaml:"latency_max"`
	Seed       uint64        `yaml:"seed,omitempty"`
}

type ScheduleConfig struct {
	IntervalSec float64 `yaml:"interval_sec"`
	Once        bool    `yaml:"once,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type STUNConfig struct {
	InstanceFromSTUN bool     `yaml:"instance_from_stun,omitempty"`
	Servers          []string `yaml:"servers,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		Generator: GeneratorConfig{
			Nodes: append([]string(nil), DefaultNodes...),
		},
	}
	ApplyDefaults(&cfg)
	return cfg
}

// Load reads and parses a YAML config file on top of Default. A file that
// sets generator.nodes replaces the default list, even with an empty one.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv applies environment overrides. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvGateway)); v != "" {
		cfg.Gateway.URL = v
	}
}

// Validate performs validation of values that would make the run meaningless.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Gateway.URL) == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if !strings.Contains(cfg.Gateway.URL, "/metrics/job/") && cfg.Gateway.Job == "" {
		return fmt.Errorf("gateway.job is required")
	}
	if cfg.Gateway.TimeoutSec < 0 {
		return fmt.Errorf("gateway.timeout_sec must be >= 0")
	}
	if _, err := generator.ParseMode(cfg.Generator.Mode); err != nil {
		return fmt.Errorf("generator.mode: %w", err)
	}
	if cfg.Generator.LatencyMin < 0 {
		return fmt.Errorf("generator.latency_min must be >= 0")
	}
	if cfg.Generator.LatencyMax < cfg.Generator.LatencyMin {
		return fmt.Errorf("generator.latency_max must be >= latency_min")
	}
	for i, n := range cfg.Generator.Nodes {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("generator.nodes[%d] is empty", i)
		}
	}
	if cfg.Schedule.IntervalSec <= 0 {
		return fmt.Errorf("schedule.interval_sec must be > 0")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid", cfg.Log.Format)
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = DefaultGatewayURL
	}
	if cfg.Gateway.Job == "" {
		cfg.Gateway.Job = DefaultJob
	}
	if cfg.Gateway.Instance == "" {
		cfg.Gateway.Instance = DefaultInstance
	}
	if cfg.Gateway.TimeoutSec == 0 {
		cfg.Gateway.TimeoutSec = DefaultTimeoutSec
	}

	if cfg.Generator.Mode == "" {
		cfg.Generator.Mode = string(generator.ModePaired)
	}
	if cfg.Generator.LatencyMin == 0 && cfg.Generator.LatencyMax == 0 {
		cfg.Generator.LatencyMin = generator.DefaultMin
		cfg.Generator.LatencyMax = generator.DefaultMax
	}

	if cfg.Schedule.IntervalSec == 0 {
		cfg.Schedule.IntervalSec = DefaultIntervalSec
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	if cfg.STUN.InstanceFromSTUN && len(cfg.STUN.Servers) == 0 {
		cfg.STUN.Servers = append([]string(nil), DefaultSTUNServers...)
	}
}
