package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	app "github.com/valter-silva-au/todoist-interlingua/internal"
	"github.com/valter-silva-au/todoist-interlingua/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	// Variables already in the environment win over .env.
	if err := godotenv.Load(filepath.Join(basePath, ".env")); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
		os.Exit(1)
	}

	a, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tdi: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
