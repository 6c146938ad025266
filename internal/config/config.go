package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the runlog release.
const Version = "0.3.0"

// Config holds all runlog collector configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Output          OutputConfig  `yaml:"output"`
	Collect         CollectConfig `yaml:"collect"`
	ShowVersion     bool          `yaml:"-"`
}

// OutputConfig selects where envelopes end up.
type OutputConfig struct {
	Root                      string `yaml:"root"`
	Format                    string `yaml:"format"`   // "txt" or "json"
	SpecRoot                  string `yaml:"spec_root"` // stripped from spec paths
	PrintLogsToConsole        string `yaml:"print_logs_to_console"`
	PrintLogsToFile           string `yaml:"print_logs_to_file"`
	IncludeSuccessfulHookLogs bool   `yaml:"include_successful_hook_logs"`
	HistoryDB                 string `yaml:"history_db"` // empty disables history
}

// CollectConfig tunes the test-process side.
type CollectConfig struct {
	Types  []string `yaml:"types"` // empty keeps every type
	WaitMS int      `yaml:"wait_ms"`
}

// Wait returns the configured wait hint.
func (c CollectConfig) Wait() time.Duration {
	return time.Duration(c.WaitMS) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:          "127.0.0.1:7357",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		Output: OutputConfig{
			Root:               "logs",
			Format:             "txt",
			PrintLogsToConsole: "onFail",
			PrintLogsToFile:    "always",
		},
		Collect: CollectConfig{WaitMS: 5},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// RUNLOG_CONFIG (if any), then RUNLOG_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("RUNLOG_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Listen = getenv("RUNLOG_LISTEN", cfg.Listen)
	cfg.LogLevel = getenv("RUNLOG_LOG_LEVEL", cfg.LogLevel)
	cfg.ShutdownTimeout = getenvDuration("RUNLOG_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.ShowVersion = getenvBool("RUNLOG_VERSION", cfg.ShowVersion)

	o := &cfg.Output
	o.Root = getenv("RUNLOG_OUTPUT_ROOT", o.Root)
	o.Format = getenv("RUNLOG_OUTPUT_FORMAT", o.Format)
	o.SpecRoot = getenv("RUNLOG_SPEC_ROOT", o.SpecRoot)
	o.PrintLogsToConsole = getenv("RUNLOG_PRINT_LOGS_TO_CONSOLE", o.PrintLogsToConsole)
	o.PrintLogsToFile = getenv("RUNLOG_PRINT_LOGS_TO_FILE", o.PrintLogsToFile)
	o.IncludeSuccessfulHookLogs = getenvBool("RUNLOG_INCLUDE_SUCCESSFUL_HOOK_LOGS", o.IncludeSuccessfulHookLogs)
	o.HistoryDB = getenv("RUNLOG_HISTORY_DB", o.HistoryDB)

	if v := os.Getenv("RUNLOG_COLLECT_TYPES"); v != "" {
		cfg.Collect.Types = splitList(v)
	}
	cfg.Collect.WaitMS = getenvInt("RUNLOG_WAIT_MS", cfg.Collect.WaitMS)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is required (RUNLOG_LISTEN)"))
	}
	if c.Output.Root == "" {
		errs = append(errs, errors.New("output root is required (RUNLOG_OUTPUT_ROOT)"))
	}
	switch c.Output.Format {
	case "txt", "json":
	default:
		errs = append(errs, fmt.Errorf("output format %q must be txt or json", c.Output.Format))
	}
	for name, v := range map[string]string{
		"print_logs_to_console": c.Output.PrintLogsToConsole,
		"print_logs_to_file":    c.Output.PrintLogsToFile,
	} {
		switch v {
		case "onFail", "always", "never":
		default:
			errs = append(errs, fmt.Errorf("%s %q must be onFail, always or never", name, v))
		}
	}
	if c.Collect.WaitMS < 0 {
		errs = append(errs, fmt.Errorf("wait_ms %d must not be negative", c.Collect.WaitMS))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout %v must be positive", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
