package updater

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	backupFilename     = "statusled.backup"
	backupInfoFilename = "backup.json"
)

type backupInfo struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	ExecPath  string    `json:"exec_path"`
}

// backups keeps a single copy of the previous executable.
type backups struct {
	mu     sync.RWMutex
	dir    string
	info   *backupInfo
	logger *slog.Logger
}

func newBackups(dir string, logger *slog.Logger) *backups {
	b := &backups{dir: dir, logger: logger}
	b.load()
	return b
}

func (b *backups) load() {
	data, err := os.ReadFile(filepath.Join(b.dir, backupInfoFilename))
	if err != nil {
		return
	}

	var info backupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		b.logger.Warn("Failed to parse backup info", "error", err)
		return
	}
	if _, err := os.Stat(filepath.Join(b.dir, backupFilename)); err != nil {
		b.logger.Warn("Backup file missing", "dir", b.dir)
		return
	}

	b.mu.Lock()
	b.info = &info
	b.mu.Unlock()
}

// create copies execPath into the backup directory and records version.
func (b *backups) create(execPath, version string) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyFile(execPath, filepath.Join(b.dir, backupFilename)); err != nil {
		return err
	}

	info := backupInfo{Version: version, CreatedAt: time.Now(), ExecPath: execPath}
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal backup info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, backupInfoFilename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup info: %w", err)
	}

	b.mu.Lock()
	b.info = &info
	b.mu.Unlock()

	b.logger.Info("Backup created", "version", version, "dir", b.dir)
	return nil
}

// restore puts the backup back in place. The executable is replaced by
// rename, which works while the old binary is still running.
func (b *backups) restore() error {
	b.mu.RLock()
	info := b.info
	b.mu.RUnlock()
	if info == nil {
		return errors.New("no backup available")
	}

	staged := info.ExecPath + ".rollback"
	if err := copyFile(filepath.Join(b.dir, backupFilename), staged); err != nil {
		return err
	}
	if err := os.Rename(staged, info.ExecPath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to replace executable: %w", err)
	}

	b.logger.Info("Backup restored", "version", info.Version)
	return nil
}

func (b *backups) available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info != nil
}

func (b *backups) version() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.info == nil {
		return ""
	}
	return b.info.Version
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
