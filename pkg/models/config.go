package models

// APIConfig holds settings for talking to the Todoist REST API.
type APIConfig struct {
	Token         string  `yaml:"token,omitempty" mapstructure:"token"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	MaxAttempts   int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
}

// FilesConfig names the local files the sync reads and writes. Relative paths
// are resolved against the base directory.
type FilesConfig struct {
	Snapshot string `yaml:"snapshot" mapstructure:"snapshot"`
	Schema   string `yaml:"schema" mapstructure:"schema"`
	Events   string `yaml:"events" mapstructure:"events"`
}

// Config is the full tdi configuration read from .tdiconfig via Viper.
type Config struct {
	API   APIConfig   `yaml:"api" mapstructure:"api"`
	Files FilesConfig `yaml:"files" mapstructure:"files"`
}
