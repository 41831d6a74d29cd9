package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/integration"
	"github.com/valter-silva-au/todoist-interlingua/internal/observability"
	"github.com/valter-silva-au/todoist-interlingua/internal/storage"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath   string
	Config     *models.Config
	ConfigMgr  core.ConfigurationManager
	Reconciler core.Reconciler
	Snapshots  *storage.SnapshotStore
	Journal    *observability.Journal
	Events     core.EventLogger

	// ConfigErr is set when the configuration file could not be used.
	// Commands other than init and version refuse to run while it is set.
	ConfigErr error
)

// ErrMissingToken is returned by commands that talk to the API when no token
// was given by flag, environment, or configuration.
var ErrMissingToken = errors.New("API token is required")

// APIClient is the part of the Todoist client the commands use.
type APIClient interface {
	integration.Fetcher
	integration.Poster
}

// NewAPIClient builds the API client for a token. Tests replace it.
var NewAPIClient = func(token string) APIClient {
	cfg := currentConfig()
	return integration.NewClient(integration.ClientConfig{
		BaseURL:       cfg.API.BaseURL,
		Token:         token,
		MaxAttempts:   cfg.API.MaxAttempts,
		BackoffFactor: cfg.API.BackoffFactor,
	})
}

func currentConfig() *models.Config {
	if Config != nil {
		return Config
	}
	return core.DefaultConfig()
}

// resolveToken picks the token from the flag, then the loaded configuration
// (which already folds in TODOIST_API_TOKEN), then the raw environment.
func resolveToken(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if Config != nil && Config.API.Token != "" {
		return Config.API.Token, nil
	}
	if token := os.Getenv(core.TokenEnvVar); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

func filePath(path string) string {
	return core.ResolvePath(BasePath, path)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
