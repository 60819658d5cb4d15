package updater

import "errors"

// Errors returned by Check, Apply and Rollback. Underlying causes are
// wrapped alongside them, so test with errors.Is.
var (
	ErrCheckFailed    = errors.New("update check failed")
	ErrNoRelease      = errors.New("repository not found or has no releases")
	ErrUpToDate       = errors.New("already up to date")
	ErrNotWritable    = errors.New("executable cannot be replaced")
	ErrBackupFailed   = errors.New("backup failed")
	ErrApplyFailed    = errors.New("update failed")
	ErrNoBackup       = errors.New("no backup available")
	ErrRollbackFailed = errors.New("rollback failed")
)
