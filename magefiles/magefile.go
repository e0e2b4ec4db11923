//go:build mage

// Package main contains Mage build targets for protsearch developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	versionPkg = "github.com/kailas-cloud/protsearch/internal/version"
)

// binaries maps output names to their main packages.
var binaries = map[string]string{
	"protsearch":     "./cmd/protsearch",
	"protsearch-cli": "./cmd/protsearch-cli",
}

// Default target when mage runs without arguments.
var Default = Build

func ldflags() string {
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	ver := os.Getenv("VERSION")
	if ver == "" {
		ver = "dev"
	}
	return fmt.Sprintf("-s -w -X %[1]s.Version=%[2]s -X %[1]s.Commit=%[3]s -X %[1]s.Date=%[4]s",
		versionPkg, ver, commit, time.Now().UTC().Format(time.RFC3339))
}

// Build compiles the server and the CLI into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	flags := ldflags()
	for name, pkg := range binaries {
		out := filepath.Join(binDir, name)
		if err := sh.RunV("go", "build", "-ldflags", flags, "-o", out, pkg); err != nil {
			return fmt.Errorf("go build %s: %w", pkg, err)
		}
		fmt.Printf("Built %s\n", out)
	}
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Lint runs go vet and golangci-lint when it is installed.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	if _, err := sh.Output("golangci-lint", "version"); err != nil {
		fmt.Println("golangci-lint not installed, skipping")
		return nil
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Run starts the server with the local config.
func Run() error {
	mg.Deps(Build)
	return sh.RunWithV(map[string]string{"ENV": "local"}, filepath.Join(binDir, "protsearch"))
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
