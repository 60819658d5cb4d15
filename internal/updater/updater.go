// Package updater replaces the statusled binary with the latest GitHub
// release, keeping one backup of the previous binary for rollback.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/statusled/internal/version"
)

// DefaultRepository is the GitHub slug releases are fetched from.
const DefaultRepository = "smazurov/statusled"

// Options configures an Updater.
type Options struct {
	Repository string // GitHub slug, defaults to DefaultRepository
	Prerelease bool   // include prereleases
	BackupDir  string // defaults to <user cache dir>/statusled/backup
	Logger     *slog.Logger
}

// UpdateInfo describes the latest release relative to the running binary.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseURL      string    `json:"release_url,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitzero"`
	AssetSize       int       `json:"asset_size,omitempty"`
	UpdateAvailable bool      `json:"update_available"`
}

// Updater checks for, applies and rolls back binary updates.
type Updater struct {
	repo    selfupdate.Repository
	updater *selfupdate.Updater
	backups *backups
	logger  *slog.Logger
}

// New creates an updater backed by GitHub releases. Release archives are
// verified against the release's checksums.txt.
func New(opts Options) (*Updater, error) {
	if opts.Repository == "" {
		opts.Repository = DefaultRepository
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	u, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Validator:  &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	dir := opts.BackupDir
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate cache directory: %w", err)
		}
		dir = filepath.Join(cache, "statusled", "backup")
	}

	return &Updater{
		repo:    selfupdate.ParseSlug(opts.Repository),
		updater: u,
		backups: newBackups(dir, logger),
		logger:  logger,
	}, nil
}

// Check queries the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, *selfupdate.Release, error) {
	release, found, err := u.updater.DetectLatest(ctx, u.repo)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	if !found {
		return nil, nil, ErrNoRelease
	}

	current := version.Version
	info := &UpdateInfo{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		UpdateAvailable: isOutdated(current, release.GreaterThan),
	}
	if info.UpdateAvailable {
		info.ReleaseURL = release.URL
		info.PublishedAt = release.PublishedAt
		info.AssetSize = release.AssetByteSize
	}
	return info, release, nil
}

// Apply installs the latest release over the running executable after
// backing it up. When already current it returns the info together with
// ErrUpToDate.
func (u *Updater) Apply(ctx context.Context) (*UpdateInfo, error) {
	info, release, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, fmt.Errorf("%w: %s", ErrUpToDate, info.CurrentVersion)
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get executable path: %w", ErrApplyFailed, err)
	}
	if err := checkWritable(filepath.Dir(exe)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	if err := u.backups.create(exe, info.CurrentVersion); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}

	u.logger.Info("Applying update", "from", info.CurrentVersion, "to", info.LatestVersion)
	if err := u.updater.UpdateTo(ctx, release, exe); err != nil {
		if restoreErr := u.backups.restore(); restoreErr != nil {
			u.logger.Error("Automatic rollback failed", "error", restoreErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrApplyFailed, err)
	}
	return info, nil
}

// Rollback restores the binary saved by the last Apply and returns its version.
func (u *Updater) Rollback() (string, error) {
	if !u.backups.available() {
		return "", ErrNoBackup
	}
	if err := u.backups.restore(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRollbackFailed, err)
	}
	return u.backups.version(), nil
}

// isOutdated reports whether current should be replaced. Development
// builds are always outdated.
func isOutdated(current string, greaterThan func(string) bool) bool {
	return current == "dev" || greaterThan(current)
}

// checkWritable verifies that files can be created in dir.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".statusled.update.*")
	if err != nil {
		return fmt.Errorf("no write permission to %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
