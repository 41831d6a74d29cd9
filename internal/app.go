// Package internal provides the App struct that wires all components of tdi
// together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/valter-silva-au/todoist-interlingua/internal/cli"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/observability"
	"github.com/valter-silva-au/todoist-interlingua/internal/storage"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

// HomeEnvVar overrides the base directory lookup.
const HomeEnvVar = "TDI_HOME"

// App holds all service dependencies of tdi.
type App struct {
	BasePath string

	// Configuration. ConfigErr is set when .tdiconfig.yaml could not be
	// loaded or is invalid; Config then holds the defaults.
	ConfigMgr core.ConfigurationManager
	Config    *models.Config
	ConfigErr error

	// Core services
	Reconciler core.Reconciler

	// Storage layer
	Snapshots *storage.SnapshotStore

	// Observability
	Journal *observability.Journal
}

// NewApp creates and wires all components of tdi. basePath is the directory
// holding .tdiconfig.yaml, the snapshot, the schema, and the event journal.
//
// A broken configuration does not fail NewApp: it is recorded in ConfigErr
// and reported by the commands that depend on it, so `tdi init --force` can
// still replace the file.
func NewApp(basePath string) (*App, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base directory %s is not a directory", basePath)
	}
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err == nil {
		if vErr := app.ConfigMgr.ValidateConfig(cfg); vErr != nil {
			err = fmt.Errorf("%s: %w", filepath.Join(basePath, core.ConfigFile), vErr)
		}
	}
	if err != nil {
		app.ConfigErr = err
		cfg = core.DefaultConfig()
	}
	app.Config = cfg

	// --- Core and storage ---
	app.Reconciler = core.NewReconciler()
	app.Snapshots = storage.NewSnapshotStore(core.ResolvePath(basePath, cfg.Files.Snapshot))

	// --- Observability ---
	// The journal opens its file on the first entry.
	var events core.EventLogger
	if cfg.Files.Events != "" {
		app.Journal = observability.NewJournal(core.ResolvePath(basePath, cfg.Files.Events), uuid.NewString())
		events = app.Journal
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = app.Config
	cli.ConfigErr = app.ConfigErr
	cli.ConfigMgr = app.ConfigMgr
	cli.Reconciler = app.Reconciler
	cli.Snapshots = app.Snapshots
	cli.Journal = app.Journal
	cli.Events = events

	return app, nil
}

// Close releases resources held by the App, such as the journal file handle.
// It is safe to call Close on an App without a journal.
func (a *App) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// ResolveBasePath determines the tdi base directory. It checks the TDI_HOME
// env var, then walks up from the current directory looking for
// .tdiconfig.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
