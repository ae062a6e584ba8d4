package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Privet harness.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Printer   PrinterConfig   `yaml:"printer"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Privet    PrivetConfig    `yaml:"privet"`
	Status    StatusConfig    `yaml:"status"`
	Console   ConsoleConfig   `yaml:"console"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// PrinterConfig identifies the printer under test.
type PrinterConfig struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	IPv4  string `yaml:"ipv4"`
	Port  int    `yaml:"port"`

	// User is the account email sent on Privet register calls.
	User string `yaml:"user"`
}

// CloudConfig contains settings for the cloud print service.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// PrivetConfig contains settings for the local Privet protocol.
type PrivetConfig struct {
	Timeout int `yaml:"timeout"` // seconds

	// ClaimPollAttempts caps the getClaimToken poll loop.
	// The protocol default is 5; lower values are useful in tests.
	ClaimPollAttempts int `yaml:"claim_poll_attempts"`

	// ClaimPollDelay is the pause between claim token polls in milliseconds.
	// The protocol itself specifies no pacing, so this is a policy knob.
	// Zero disables the delay.
	ClaimPollDelay int `yaml:"claim_poll_delay"`
}

// StatusConfig controls the device status refresh loop.
type StatusConfig struct {
	// RefreshAttempts is the total number of batch attempts made before
	// an incomplete snapshot is accepted (1 initial + N-1 retries).
	RefreshAttempts int `yaml:"refresh_attempts"`

	// RetryDelay is the pause between batch attempts in milliseconds.
	RetryDelay int `yaml:"retry_delay"`
}

// ConsoleConfig selects and configures the management console backend.
type ConsoleConfig struct {
	// Kind selects the console implementation: "cloud" or "snmp".
	Kind string     `yaml:"kind"`
	SNMP SNMPConfig `yaml:"snmp"`
}

// SNMPConfig contains settings for the SNMP console backend.
type SNMPConfig struct {
	Community string `yaml:"community"`
	Port      int    `yaml:"port"`
	Timeout   int    `yaml:"timeout"` // seconds
	Retries   int    `yaml:"retries"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SimulatorConfig contains settings for the built-in device simulator.
type SimulatorConfig struct {
	Listen string `yaml:"listen"`

	// ClaimPendingPolls is how many getClaimToken polls report
	// pending_user_action before a claim token is issued.
	ClaimPendingPolls int `yaml:"claim_pending_polls"`

	// FailClaim makes getClaimToken return a terminal error instead of
	// a token, for exercising the failure path.
	FailClaim bool `yaml:"fail_claim"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PRIVETHARNESS_SECTION_KEY
// For example: PRIVETHARNESS_PRINTER_IPV4, PRIVETHARNESS_CLOUD_BASE_URL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Printer: PrinterConfig{
			Name: "printer-under-test",
			Port: 8080,
		},
		Cloud: CloudConfig{
			Timeout: 30,
		},
		Privet: PrivetConfig{
			Timeout:           10,
			ClaimPollAttempts: 5,
			ClaimPollDelay:    1000,
		},
		Status: StatusConfig{
			RefreshAttempts: 4,
			RetryDelay:      500,
		},
		Console: ConsoleConfig{
			Kind: "cloud",
			SNMP: SNMPConfig{
				Community: "public",
				Port:      161,
				Timeout:   5,
				Retries:   1,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/privetharness.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Simulator: SimulatorConfig{
			Listen:            "127.0.0.1:8080",
			ClaimPendingPolls: 2,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PRIVETHARNESS_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRIVETHARNESS_PRINTER_IPV4"); v != "" {
		cfg.Printer.IPv4 = v
	}
	if v := os.Getenv("PRIVETHARNESS_PRINTER_USER"); v != "" {
		cfg.Printer.User = v
	}
	if v := os.Getenv("PRIVETHARNESS_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("PRIVETHARNESS_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PRIVETHARNESS_SNMP_COMMUNITY"); v != "" {
		cfg.Console.SNMP.Community = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Printer.IPv4 == "" {
		errs = append(errs, "printer.ipv4 is required")
	} else if net.ParseIP(c.Printer.IPv4) == nil {
		errs = append(errs, "printer.ipv4 is not a valid IP address")
	}
	if c.Printer.Port < 1 || c.Printer.Port > 65535 {
		errs = append(errs, "printer.port must be between 1 and 65535")
	}
	if c.Printer.User == "" {
		errs = append(errs, "printer.user is required")
	}

	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}

	if c.Privet.ClaimPollAttempts < 1 {
		errs = append(errs, "privet.claim_poll_attempts must be at least 1")
	}
	if c.Privet.ClaimPollDelay < 0 {
		errs = append(errs, "privet.claim_poll_delay must not be negative")
	}

	if c.Status.RefreshAttempts < 1 {
		errs = append(errs, "status.refresh_attempts must be at least 1")
	}

	switch c.Console.Kind {
	case "cloud", "snmp":
	default:
		errs = append(errs, "console.kind must be \"cloud\" or \"snmp\"")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CloudTimeout returns the cloud HTTP timeout as a Duration.
func (c *Config) CloudTimeout() time.Duration {
	return time.Duration(c.Cloud.Timeout) * time.Second
}

// PrivetTimeout returns the Privet HTTP timeout as a Duration.
func (c *Config) PrivetTimeout() time.Duration {
	return time.Duration(c.Privet.Timeout) * time.Second
}

// ClaimPollDelay returns the claim token poll pacing as a Duration.
func (c *Config) ClaimPollDelay() time.Duration {
	return time.Duration(c.Privet.ClaimPollDelay) * time.Millisecond
}

// StatusRetryDelay returns the status refresh pacing as a Duration.
func (c *Config) StatusRetryDelay() time.Duration {
	return time.Duration(c.Status.RetryDelay) * time.Millisecond
}
