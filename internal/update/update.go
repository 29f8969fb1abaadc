// Package update provides version checking and self-update over GitHub
// releases.
package update

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
)

const (
	repoOwner = "voidlock"
	repoName  = "gaffer"
)

// Release describes an available release.
type Release struct {
	Version      string
	ReleaseNotes string
}

// isDev reports whether the running binary is an unreleased build.
func isDev(version string) bool {
	v := strings.TrimPrefix(version, "v")
	return v == "" || v == "dev"
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create github source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return updater, nil
}

// Check reports whether a newer release exists. Dev builds never see
// updates.
func Check(ctx context.Context, currentVersion string) (*Release, bool, error) {
	if isDev(currentVersion) {
		return nil, false, nil
	}

	updater, err := newUpdater()
	if err != nil {
		return nil, false, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("detect latest version: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	release := &Release{Version: latest.Version(), ReleaseNotes: latest.ReleaseNotes}
	current := strings.TrimPrefix(currentVersion, "v")
	return release, latest.GreaterThan(current), nil
}

// Apply replaces the running binary with the latest release.
func Apply(ctx context.Context, currentVersion string) (*Release, error) {
	if isDev(currentVersion) {
		return nil, fmt.Errorf("cannot update a dev build")
	}

	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, fmt.Errorf("detect latest version: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no releases found")
	}

	current := strings.TrimPrefix(currentVersion, "v")
	if !latest.GreaterThan(current) {
		return nil, fmt.Errorf("already at latest version (%s)", currentVersion)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}

	return &Release{Version: latest.Version(), ReleaseNotes: latest.ReleaseNotes}, nil
}
