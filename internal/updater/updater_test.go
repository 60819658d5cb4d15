package updater

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIsOutdated(t *testing.T) {
	newer := func(string) bool { return true }
	older := func(string) bool { return false }

	tests := []struct {
		name    string
		current string
		greater func(string) bool
		want    bool
	}{
		{"dev build", "dev", older, true},
		{"newer release", "v1.0.0", newer, true},
		{"current", "v1.1.0", older, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOutdated(tt.current, tt.greater); got != tt.want {
				t.Errorf("isOutdated(%q) = %v, want %v", tt.current, got, tt.want)
			}
		})
	}
}

func TestBackups_CreateAndRestore(t *testing.T) {
	root := t.TempDir()
	exe := filepath.Join(root, "statusled")
	if err := os.WriteFile(exe, []byte("old binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(root, "backup")
	b := newBackups(dir, quietLogger())
	if b.available() {
		t.Fatal("available() = true before any backup")
	}

	if err := b.create(exe, "v1.0.0"); err != nil {
		t.Fatalf("create() error = %v", err)
	}
	if err := os.WriteFile(exe, []byte("new binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	// A fresh instance picks the backup up from disk.
	reloaded := newBackups(dir, quietLogger())
	if !reloaded.available() || reloaded.version() != "v1.0.0" {
		t.Fatalf("reloaded backup = (%v, %q), want (true, v1.0.0)", reloaded.available(), reloaded.version())
	}

	if err := reloaded.restore(); err != nil {
		t.Fatalf("restore() error = %v", err)
	}
	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old binary" {
		t.Errorf("executable = %q after restore, want old binary", data)
	}
	if _, err := os.Stat(exe + ".rollback"); !os.IsNotExist(err) {
		t.Errorf("staged rollback file left behind: %v", err)
	}
}

func TestBackups_IgnoresMissingBinary(t *testing.T) {
	dir := t.TempDir()
	info := `{"version":"v0.9.0","exec_path":"/usr/bin/statusled"}`
	if err := os.WriteFile(filepath.Join(dir, backupInfoFilename), []byte(info), 0o644); err != nil {
		t.Fatal(err)
	}

	b := newBackups(dir, quietLogger())
	if b.available() {
		t.Error("available() = true with metadata but no backup binary")
	}
	if err := b.restore(); err == nil {
		t.Error("restore() succeeded without a backup")
	}
}

func TestCheckWritable(t *testing.T) {
	dir := t.TempDir()
	if err := checkWritable(dir); err != nil {
		t.Errorf("checkWritable(tempdir) error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	if err := checkWritable(filepath.Join(dir, "missing")); err == nil {
		t.Error("checkWritable(missing dir) succeeded")
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	u, err := New(Options{BackupDir: t.TempDir(), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := u.Rollback(); !errors.Is(err, ErrNoBackup) {
		t.Errorf("Rollback() error = %v, want ErrNoBackup", err)
	}
}
