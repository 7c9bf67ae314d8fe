package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"newsrelay/internal/domain/models"
)

// Authentication schemes understood by the discovery client
const (
	AuthIAM    = "iam"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

//go:embed defaults/discovery.yaml
var defaultsYAML []byte

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	StaticDir   string
	LogDir      string
	LogMaxFiles int

	// Discovery service
	DiscoveryAPIKey  string
	DiscoveryURL     string
	DiscoveryTimeout time.Duration // 0 = no client-side timeout
	AuthType         string
	AuthURL          string
	Scope            models.Scope
}

// discoveryDefaults mirrors defaults/discovery.yaml
type discoveryDefaults struct {
	Discovery struct {
		models.Scope `yaml:",inline"`
		AuthType     string `yaml:"auth_type"`
		AuthURL      string `yaml:"auth_url"`
	} `yaml:"discovery"`
}

// Load reads configuration from the environment on top of the embedded defaults.
// It returns an error instead of exiting so the caller decides how to fail.
func Load() (*Config, error) {
	var defaults discoveryDefaults
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}
	d := defaults.Discovery

	count, err := getEnvInt("DISCOVERY_COUNT", d.Count)
	if err != nil {
		return nil, err
	}
	logMaxFiles, err := getEnvInt("LOG_MAX_FILES", DefaultLogMaxFiles)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("DISCOVERY_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "7000"),
		Environment: getEnv("ENVIRONMENT", "dev"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		StaticDir:   getEnv("STATIC_DIR", "public"),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: logMaxFiles,

		DiscoveryAPIKey:  os.Getenv("DISCOVERY_API_KEY"),
		DiscoveryURL:     strings.TrimRight(os.Getenv("DISCOVERY_URL"), "/"),
		DiscoveryTimeout: timeout,
		AuthType:         strings.ToLower(getEnv("DISCOVERY_AUTH_TYPE", d.AuthType)),
		AuthURL:          getEnv("DISCOVERY_AUTH_URL", d.AuthURL),
		Scope: models.Scope{
			EnvironmentID: getEnv("DISCOVERY_ENVIRONMENT_ID", d.EnvironmentID),
			CollectionID:  getEnv("DISCOVERY_COLLECTION_ID", d.CollectionID),
			Version:       getEnv("DISCOVERY_VERSION", d.Version),
			Count:         count,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings. Error keys are the environment variable names.
func (c *Config) Validate() error {
	return validation.Errors{
		"DISCOVERY_API_KEY": validation.Validate(c.DiscoveryAPIKey, validation.Required),
		"DISCOVERY_URL":     validation.Validate(c.DiscoveryURL, validation.Required, is.URL),
		"DISCOVERY_AUTH_TYPE": validation.Validate(c.AuthType,
			validation.Required, validation.In(AuthIAM, AuthBearer, AuthBasic)),
		"DISCOVERY_AUTH_URL": validation.Validate(c.AuthURL,
			validation.When(c.AuthType == AuthIAM, validation.Required, is.URL)),
		"DISCOVERY_ENVIRONMENT_ID": validation.Validate(c.Scope.EnvironmentID, validation.Required),
		"DISCOVERY_COLLECTION_ID":  validation.Validate(c.Scope.CollectionID, validation.Required),
		"DISCOVERY_VERSION":        validation.Validate(c.Scope.Version, validation.Required),
		"DISCOVERY_COUNT":          validation.Validate(c.Scope.Count, validation.Required, validation.Min(1)),
		"PORT":                     validation.Validate(c.Port, validation.Required, is.Port),
	}.Filter()
}

// MissingCredentials reports whether err, as returned by Load, rejects the
// Discovery API key or service URL.
func MissingCredentials(err error) bool {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return false
	}
	_, key := verrs["DISCOVERY_API_KEY"]
	_, url := verrs["DISCOVERY_URL"]
	return key || url
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	return i, nil
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return d, nil
}
