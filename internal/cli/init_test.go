package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/todoist-interlingua/internal/core"
)

func TestInitCommand_NilConfigManager(t *testing.T) {
	setupServices(t)
	ConfigMgr = nil

	_, _, err := run(initCmd)
	if err == nil || !strings.Contains(err.Error(), "configuration manager not initialized") {
		t.Errorf("error = %v, want not initialized", err)
	}
}

func TestInitCommand_WritesDefaults(t *testing.T) {
	env := setupServices(t)

	stdout, _, err := run(initCmd)
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	path := filepath.Join(env.dir, core.ConfigFile)
	if !strings.Contains(stdout, "Created "+path) {
		t.Errorf("unexpected output: %s", stdout)
	}

	cfg, err := core.NewConfigurationManager(env.dir).LoadConfig()
	if err != nil {
		t.Fatalf("loading written config: %v", err)
	}
	if cfg.API.BaseURL != core.DefaultBaseURL || cfg.Files.Snapshot != "todoist_data.jsonl" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestInitCommand_RefusesOverwriteWithoutForce(t *testing.T) {
	env := setupServices(t)
	path := filepath.Join(env.dir, core.ConfigFile)
	if err := os.WriteFile(path, []byte("api:\n  max_attempts: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := run(initCmd)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("error = %v, want already exists", err)
	}

	initForce = true
	if _, _, err := run(initCmd); err != nil {
		t.Fatalf("init --force error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "max_attempts: 2") {
		t.Error("--force did not replace the file")
	}
}
