// Package core contains the business logic of tdi: configuration loading,
// record validation, hierarchy reconciliation, and the snapshot schema.
package core

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigName is the base name of the YAML configuration file.
	ConfigName = ".tdiconfig"
	// ConfigFile is the file name written by SaveConfig.
	ConfigFile = ConfigName + ".yaml"
	// TokenEnvVar is the environment variable holding the Todoist API token.
	TokenEnvVar = "TODOIST_API_TOKEN"
	// DefaultBaseURL is the Todoist REST API root.
	DefaultBaseURL = "https://api.todoist.com/rest/v2"
)

// ConfigurationManager defines the interface for loading, saving, and
// validating the tdi configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	SaveConfig(cfg *models.Config, force bool) (string, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML configuration file and the environment.
type viperConfigManager struct {
	// basePath is the directory where .tdiconfig.yaml resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads the
// configuration file relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a Config populated with the built-in defaults.
func DefaultConfig() *models.Config {
	return &models.Config{
		API: models.APIConfig{
			BaseURL:       DefaultBaseURL,
			MaxAttempts:   5,
			BackoffFactor: 1,
		},
		Files: models.FilesConfig{
			Snapshot: "todoist_data.jsonl",
			Schema:   "todoist_schema.json",
			Events:   ".tdi_events.jsonl",
		},
	}
}

// LoadConfig reads .tdiconfig.yaml from the base path using Viper. A missing
// file is not an error: defaults apply. The API token can always be supplied
// through TODOIST_API_TOKEN, which takes precedence over the file.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("api.token", "")
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.max_attempts", cfg.API.MaxAttempts)
	v.SetDefault("api.backoff_factor", cfg.API.BackoffFactor)
	v.SetDefault("files.snapshot", cfg.Files.Snapshot)
	v.SetDefault("files.schema", cfg.Files.Schema)
	v.SetDefault("files.events", cfg.Files.Events)
	if err := v.BindEnv("api.token", TokenEnvVar); err != nil {
		return nil, fmt.Errorf("binding %s: %w", TokenEnvVar, err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFile, err)
		}
	}

	cfg.API.Token = strings.TrimSpace(v.GetString("api.token"))
	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.MaxAttempts = v.GetInt("api.max_attempts")
	cfg.API.BackoffFactor = v.GetFloat64("api.backoff_factor")
	cfg.Files.Snapshot = v.GetString("files.snapshot")
	cfg.Files.Schema = v.GetString("files.schema")
	cfg.Files.Events = v.GetString("files.events")

	return cfg, nil
}

// SaveConfig writes cfg as YAML to .tdiconfig.yaml in the base path and
// returns the written path. The token is never persisted. An existing file is
// only replaced when force is set.
func (cm *viperConfigManager) SaveConfig(cfg *models.Config, force bool) (string, error) {
	if err := cm.ValidateConfig(cfg); err != nil {
		return "", err
	}

	path := filepath.Join(cm.basePath, ConfigFile)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	out := *cfg
	out.API.Token = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// single error listing every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api.base_url %q must be an absolute http(s) URL", cfg.API.BaseURL))
	}
	if cfg.API.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("api.max_attempts must be at least 1, got %d", cfg.API.MaxAttempts))
	}
	if cfg.API.BackoffFactor < 0 {
		errs = append(errs, fmt.Sprintf("api.backoff_factor must be non-negative, got %g", cfg.API.BackoffFactor))
	}
	if strings.TrimSpace(cfg.Files.Snapshot) == "" {
		errs = append(errs, "files.snapshot must not be empty")
	}
	if strings.TrimSpace(cfg.Files.Schema) == "" {
		errs = append(errs, "files.schema must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ResolvePath joins a configured file path onto basePath unless it is already
// absolute. An empty path stays empty.
func ResolvePath(basePath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}
