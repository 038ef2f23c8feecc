//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binaryName = "s2s"

// Build compiles the s2s binary with the version stamped in.
func Build() error {
	version, err := gitVersion()
	if err != nil {
		version = "0.0.0-dev"
	}
	ldflags := fmt.Sprintf("-s -w -X github.com/trackforge/s2s/internal/cli.Version=%s", version)
	return sh.RunV("go", "build", "-trimpath", "-ldflags", ldflags, "-o", binaryName, "./cmd/s2s")
}

// Test runs the full test suite with race detection.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet across the module.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs lint and tests.
func Check() {
	mg.Deps(Lint, Test)
}

// Release cross-compiles archives for the common server platforms.
func Release() error {
	mg.Deps(Check)

	version, err := gitVersion()
	if err != nil {
		return fmt.Errorf("release requires a git tag: %w", err)
	}

	targets := []struct{ goos, goarch string }{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "arm64"},
	}
	for _, t := range targets {
		out := fmt.Sprintf("dist/%s_%s_%s_%s", binaryName, version, t.goos, t.goarch)
		env := map[string]string{"GOOS": t.goos, "GOARCH": t.goarch, "CGO_ENABLED": "0"}
		ldflags := fmt.Sprintf("-s -w -X github.com/trackforge/s2s/internal/cli.Version=%s", version)
		if err := sh.RunWithV(env, "go", "build", "-trimpath", "-ldflags", ldflags, "-o", out, "./cmd/s2s"); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll("dist"); err != nil {
		return err
	}
	return sh.Rm(binaryName)
}

func gitVersion() (string, error) {
	return sh.Output("git", "describe", "--tags", "--always", "--dirty")
}
