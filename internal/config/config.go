// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Records    RecordsConfig    `yaml:"records"`
	Google     GoogleConfig     `yaml:"google"`
	Local      LocalConfig      `yaml:"local"`
	Mail       MailConfig       `yaml:"mail"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bindAddress"`
	EnableCORS   bool   `yaml:"enableCors"`
	AllowOrigins string `yaml:"allowOrigins"`
	ReadTimeout  int    `yaml:"readTimeoutSeconds"`
	WriteTimeout int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout  int    `yaml:"idleTimeoutSeconds"`
	BodyLimit    string `yaml:"bodyLimit"`
}

// RecordsConfig selects the settlement record store.
// URI may be sqlite://path, a bare file path, or postgres://...
type RecordsConfig struct {
	URI string `yaml:"uri"`
}

// GoogleConfig holds the cloud drive and sheet targets.
// Without a credentials file the local backends are used.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentialsFile"`
	ParentFolderID  string `yaml:"parentFolderId"`
	SpreadsheetID   string `yaml:"spreadsheetId"`
	SheetRange      string `yaml:"sheetRange"`
}

// LocalConfig holds the filesystem fallbacks for drive and ledger.
type LocalConfig struct {
	DriveDirectory string `yaml:"driveDirectory"`
	LedgerFile     string `yaml:"ledgerFile"`
	LedgerSheet    string `yaml:"ledgerSheet"`
}

// MailConfig contains outbound SMTP settings
type MailConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	Subject      string `yaml:"subject"`
	Organization string `yaml:"organization"`
}

// ProcessingConfig tunes the background stage
type ProcessingConfig struct {
	BackgroundTimeoutSeconds int `yaml:"backgroundTimeoutSeconds"`
	UploadConcurrency        int `yaml:"uploadConcurrency"`
	JobRetentionMinutes      int `yaml:"jobRetentionMinutes"`
	CleanupIntervalMinutes   int `yaml:"cleanupIntervalMinutes"`
	ShutdownTimeoutSeconds   int `yaml:"shutdownTimeoutSeconds"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level          string `yaml:"level"`
	RequestLogging bool   `yaml:"requestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8080,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  60,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "50M",
		},
		Records: RecordsConfig{
			URI: "sqlite://./data/settlements.db",
		},
		Google: GoogleConfig{
			ParentFolderID: "1qvtYTfZ_Etl5lvyuZMk_uRaJ4TBIHkha",
			SpreadsheetID:  "1r0hlNxm7PxDDIIkvXchBsY9q6gcd0yhLpImWJ8hWHsU",
			SheetRange:     "Sheet1!A2",
		},
		Local: LocalConfig{
			DriveDirectory: "./data/drive",
			LedgerFile:     "./data/ledger.xlsx",
			LedgerSheet:    "Sheet1",
		},
		Mail: MailConfig{
			Host:         "smtp.gmail.com",
			Port:         587,
			Subject:      "Settlement Form Submission Confirmation",
			Organization: "Your Organization",
		},
		Processing: ProcessingConfig{
			BackgroundTimeoutSeconds: 300,
			UploadConcurrency:        0,
			JobRetentionMinutes:      60,
			CleanupIntervalMinutes:   5,
			ShutdownTimeoutSeconds:   30,
		},
		Logging: LoggingConfig{
			Level:          "info",
			RequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with defaults. Environment overrides are applied in both cases.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Settlement service configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// MONGO_URI is still honoured so older deployment manifests keep working.
	if uri := firstEnv("RECORDS_URI", "MONGO_URI"); uri != "" {
		c.Records.URI = uri
	}

	if creds := os.Getenv("GOOGLE_CLOUD_CREDENTIALS"); creds != "" {
		c.Google.CredentialsFile = creds
	}

	if user := os.Getenv("EMAIL_USER"); user != "" {
		c.Mail.Username = user
		if c.Mail.From == "" {
			c.Mail.From = user
		}
	}
	if pass := os.Getenv("EMAIL_PASS"); pass != "" {
		c.Mail.Password = pass
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(configDir, p)
	}

	c.Local.DriveDirectory = resolve(c.Local.DriveDirectory)
	c.Local.LedgerFile = resolve(c.Local.LedgerFile)
	c.Google.CredentialsFile = resolve(c.Google.CredentialsFile)

	if path, ok := strings.CutPrefix(c.Records.URI, "sqlite://"); ok {
		c.Records.URI = "sqlite://" + resolve(path)
	}
}

// Validate checks that the settings required at startup are present
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Records.URI == "" {
		return errors.New("records uri is required (RECORDS_URI)")
	}
	if c.Mail.Username == "" || c.Mail.Password == "" {
		return errors.New("mail credentials are required (EMAIL_USER, EMAIL_PASS)")
	}
	if c.Mail.Host == "" {
		return errors.New("mail host is required")
	}
	if c.Google.ParentFolderID == "" {
		return errors.New("parent folder id is required")
	}
	return nil
}

// UsesGoogle reports whether cloud credentials are configured.
func (c *AppConfig) UsesGoogle() bool {
	return c.Google.CredentialsFile != ""
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// BackgroundTimeout bounds one submission's folder/upload/ledger stage.
func (c *AppConfig) BackgroundTimeout() time.Duration {
	return time.Duration(c.Processing.BackgroundTimeoutSeconds) * time.Second
}

// EnsureDirectories creates the local data directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Local.DriveDirectory, filepath.Dir(c.Local.LedgerFile)}
	if path, ok := strings.CutPrefix(c.Records.URI, "sqlite://"); ok {
		dirs = append(dirs, filepath.Dir(path))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
