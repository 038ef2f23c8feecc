// Package selfupdate upgrades the running binary from GitHub releases.
package selfupdate

import (
	"fmt"

	"github.com/blang/semver"
	gh "github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Repository is the GitHub slug releases are published under.
const Repository = "trackforge/s2s"

// Status describes the installed version relative to the latest release.
type Status struct {
	Current      semver.Version
	Latest       semver.Version
	UpToDate     bool
	ReleaseNotes string
}

// Check queries GitHub for the latest release without applying anything.
func Check(currentVersion string) (*Status, error) {
	current, err := semver.ParseTolerant(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", currentVersion, err)
	}

	latest, found, err := gh.DetectLatest(Repository)
	if err != nil {
		return nil, fmt.Errorf("release lookup failed: %w", err)
	}
	if !found {
		return &Status{Current: current, Latest: current, UpToDate: true}, nil
	}

	return &Status{
		Current:      current,
		Latest:       latest.Version,
		UpToDate:     latest.Version.LTE(current),
		ReleaseNotes: latest.ReleaseNotes,
	}, nil
}

// Apply replaces the running executable with the latest release binary.
// Returns the resulting status; no-op when already current.
func Apply(currentVersion string) (*Status, error) {
	current, err := semver.ParseTolerant(currentVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid current version %q: %w", currentVersion, err)
	}

	latest, err := gh.UpdateSelf(current, Repository)
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}

	return &Status{
		Current:      current,
		Latest:       latest.Version,
		UpToDate:     latest.Version.LTE(current),
		ReleaseNotes: latest.ReleaseNotes,
	}, nil
}
