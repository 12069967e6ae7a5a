/*
Package configs is responsible for loading and parsing the application's configuration settings.

Values come from environment variables. When CONFIG_FILE names a YAML file, it is read first
and any environment variable that is set overrides the matching file value.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"

	defaultPort          = 8080
	defaultDataDir       = "./data"
	defaultTimezone      = "Asia/Kolkata"
	defaultSessionSecret = "studyhive_insecure_dev_secret_change_me"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment   string `yaml:"environment"`
	Port          int    `yaml:"port"`
	PowDifficulty int    `yaml:"powDifficulty"`
	LogLevel      string `yaml:"logLevel"`
	Timezone      string `yaml:"timezone"`

	// Security Settings
	AllowedOrigins []string `yaml:"allowedOrigins"`
	SessionSecret  string   `yaml:"sessionSecret"`

	// Storage Settings. DatabaseDSN selects the PostgreSQL backend; otherwise
	// records live as JSON files under DataDir.
	DataDir     string `yaml:"dataDir"`
	DatabaseDSN string `yaml:"databaseUrl"`

	// S3 Storage Settings
	S3BucketName      string `yaml:"s3BucketName"`
	S3Endpoint        string `yaml:"s3Endpoint"`
	S3AccessKeyID     string `yaml:"s3AccessKeyId"`
	S3SecretAccessKey string `yaml:"s3SecretAccessKey"`

	location *time.Location
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// S3Enabled reports whether object storage is configured.
func (c *AppConfig) S3Enabled() bool {
	return c.S3BucketName != ""
}

// UsePostgres reports whether the PostgreSQL backend is selected.
func (c *AppConfig) UsePostgres() bool {
	return c.DatabaseDSN != ""
}

// Location returns the time zone study jam dates and times are read in.
func (c *AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// LoadConfig reads and validates the application configuration.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.DatabaseDSN, "DATABASE_URL")
	setString(&cfg.S3BucketName, "S3_BUCKET_NAME")
	setString(&cfg.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.S3SecretAccessKey, "S3_SECRET_ACCESS_KEY")

	if err := setInt(&cfg.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&cfg.PowDifficulty, "POW_DIFFICULTY"); err != nil {
		return err
	}

	if originsStr, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = splitOrigins(originsStr)
	}

	return nil
}

func (c *AppConfig) validate() error {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}

	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.PowDifficulty < 0 || c.PowDifficulty > 8 {
		return fmt.Errorf("POW_DIFFICULTY must be between 0 and 8, got %d", c.PowDifficulty)
	}

	if c.AllowedOrigins == nil {
		c.AllowedOrigins = []string{}
	}

	if c.SessionSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("SESSION_SECRET environment variable is required in %s environment for security", c.Environment)
		}
		c.SessionSecret = defaultSessionSecret
	}

	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}

	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	s3Values := []string{c.S3BucketName, c.S3Endpoint, c.S3AccessKeyID, c.S3SecretAccessKey}
	set := 0
	for _, v := range s3Values {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(s3Values) {
		return fmt.Errorf("S3_BUCKET_NAME, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	*dst = n
	return nil
}

func splitOrigins(s string) []string {
	origins := []string{}
	for _, origin := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
