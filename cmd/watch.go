package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/nats"
	"github.com/spf13/cobra"
)

// CreateWatchCmd creates the watch command, which prints every indicator
// status change published by the daemon.
func CreateWatchCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print indicator status changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub := nats.NewPublisher(url, "watch", logging.GetLogger("nats"))
			if err := pub.Connect(); err != nil {
				return fmt.Errorf("connect to %s: %w", url, err)
			}
			defer pub.Close()

			out := cmd.OutOrStdout()
			unsubscribe, err := pub.SubscribeStatus(func(msg nats.StatusMessage) {
				fmt.Fprintln(out, formatStatus(msg))
			})
			if err != nil {
				return err
			}
			defer unsubscribe()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "nats", defaultNATSURL, "NATS server URL")
	return cmd
}

func formatStatus(msg nats.StatusMessage) string {
	line := fmt.Sprintf("%s  %-11s connected=%t suspended=%t", msg.Timestamp, msg.Pattern, msg.Connected, msg.Suspended)
	if msg.Remaining > 0 {
		line += fmt.Sprintf(" remaining=%d", msg.Remaining)
	}
	if msg.Degraded {
		line += " degraded"
	}
	return line
}
