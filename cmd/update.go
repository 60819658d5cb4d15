package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/systemd"
	"github.com/smazurov/statusled/internal/updater"
	"github.com/spf13/cobra"
)

// CreateUpdateCmd creates the update command, which replaces the binary
// with the latest release and restarts the daemon unit.
func CreateUpdateCmd() *cobra.Command {
	var (
		opts      updater.Options
		checkOnly bool
		rollback  bool
		unit      string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update statusled to the latest release",
		Long: "Downloads the latest GitHub release, verifies its checksum and replaces the running binary. " +
			"The previous binary is kept for --rollback. The daemon unit is restarted afterwards.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Logger = logging.GetLogger("updater")
			u, err := updater.New(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch {
			case rollback:
				restored, err := u.Rollback()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rolled back to %s\n", restored)

			case checkOnly:
				info, _, err := u.Check(ctx)
				if err != nil {
					return err
				}
				if info.UpdateAvailable {
					fmt.Fprintf(out, "update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
				} else {
					fmt.Fprintf(out, "up to date (%s)\n", info.CurrentVersion)
				}
				return nil

			default:
				info, err := u.Apply(ctx)
				if errors.Is(err, updater.ErrUpToDate) {
					fmt.Fprintf(out, "up to date (%s)\n", info.CurrentVersion)
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "updated %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			}

			return restartUnit(ctx, unit, out)
		},
	}

	cmd.Flags().StringVar(&opts.Repository, "repo", updater.DefaultRepository, "GitHub repository to fetch releases from")
	cmd.Flags().BoolVar(&opts.Prerelease, "prerelease", false, "Include prereleases")
	cmd.Flags().StringVar(&opts.BackupDir, "backup-dir", "", "Backup directory (default: user cache dir)")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the binary replaced by the last update")
	cmd.Flags().StringVar(&unit, "unit", "statusled.service", "systemd unit to restart afterwards; empty skips the restart")
	cmd.MarkFlagsMutuallyExclusive("check", "rollback")
	return cmd
}

func restartUnit(ctx context.Context, unit string, out io.Writer) error {
	if unit == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	m, err := systemd.NewManager(ctx)
	if err != nil {
		return fmt.Errorf("binary replaced but %s not restarted: %w", unit, err)
	}
	defer m.Close()

	if err := m.RestartUnit(ctx, unit); err != nil {
		return fmt.Errorf("binary replaced but %s not restarted: %w", unit, err)
	}
	fmt.Fprintf(out, "restarted %s\n", unit)
	return nil
}
