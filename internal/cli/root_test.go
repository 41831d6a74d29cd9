package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/todoist-interlingua/internal/core"
)

func TestSetVersionInfo(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() {
		appVersion, appCommit, appDate = origVersion, origCommit, origDate
	}()

	SetVersionInfo("1.2.3", "abc1234", "2026-02-13")

	if appVersion != "1.2.3" {
		t.Errorf("appVersion = %q, want 1.2.3", appVersion)
	}
	if appCommit != "abc1234" {
		t.Errorf("appCommit = %q, want abc1234", appCommit)
	}
	if appDate != "2026-02-13" {
		t.Errorf("appDate = %q, want 2026-02-13", appDate)
	}
}

func TestExecute_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"nonexistent-command"})
	defer rootCmd.SetArgs(nil)

	err := Execute()
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecute_VersionSubcommand(t *testing.T) {
	origVersion, origCommit, origDate := appVersion, appCommit, appDate
	defer func() {
		appVersion, appCommit, appDate = origVersion, origCommit, origDate
	}()
	SetVersionInfo("test-ver", "test-commit", "test-date")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"tdi test-ver", "commit: test-commit", "built:  test-date"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("version output missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestCommands_Registration(t *testing.T) {
	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range []string{"pull", "validate", "push", "generate-schema", "init", "log", "version"} {
		if !registered[name] {
			t.Errorf("%s command not registered on root", name)
		}
	}
}

func TestCommands_TokenFlags(t *testing.T) {
	for _, cmd := range []string{"pull", "push"} {
		c, _, err := rootCmd.Find([]string{cmd})
		if err != nil {
			t.Fatalf("finding %s: %v", cmd, err)
		}
		if c.Flags().Lookup("api-token") == nil {
			t.Errorf("%s has no --api-token flag", cmd)
		}
	}
	if pushCmd.Flags().Lookup("dry-run") == nil {
		t.Error("push has no --dry-run flag")
	}
}

func TestExecute_BrokenConfigBlocksSyncCommands(t *testing.T) {
	setupServices(t)
	ConfigErr = errors.New("api.max_attempts must be at least 1")
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	defer rootCmd.SetArgs(nil)

	for _, name := range []string{"pull", "validate", "push", "generate-schema", "log"} {
		rootCmd.SetArgs([]string{name})
		err := Execute()
		if err == nil || !strings.Contains(err.Error(), "api.max_attempts") || !strings.Contains(err.Error(), "tdi init --force") {
			t.Errorf("%s: error = %v, want the configuration error", name, err)
		}
	}

	rootCmd.SetArgs([]string{"version"})
	if err := Execute(); err != nil {
		t.Errorf("version should run with a broken configuration: %v", err)
	}
}

func TestExecute_InitForceRepairsBrokenConfig(t *testing.T) {
	env := setupServices(t)
	path := filepath.Join(env.dir, core.ConfigFile)
	if err := os.WriteFile(path, []byte("api: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, ConfigErr = ConfigMgr.LoadConfig()
	if ConfigErr == nil {
		t.Fatal("expected the malformed file to fail loading")
	}

	var stdout bytes.Buffer
	initCmd.SetOut(&stdout)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"init", "--force"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("init --force error = %v", err)
	}
	if _, err := ConfigMgr.LoadConfig(); err != nil {
		t.Errorf("config still broken after init --force: %v", err)
	}
}
