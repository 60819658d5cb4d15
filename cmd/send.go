package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/nats"
	"github.com/spf13/cobra"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// CreateSendCmd creates the send command, which publishes one device event
// to a running daemon over NATS.
func CreateSendCmd() *cobra.Command {
	var url string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <event> <value>",
		Short: "Publish a device event to the daemon",
		Long:  "Publishes one device event on the daemon's NATS server. Events: " + eventKinds + ".",
		Example: `  statusled send profile 2
  statusled send activity sleep
  statusled send connection false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0], args[1])
			if err != nil {
				return err
			}

			pub := nats.NewPublisher(url, "send", logging.GetLogger("nats"))
			if err := pub.Connect(); err != nil {
				return fmt.Errorf("connect to %s: %w", url, err)
			}
			defer pub.Close()

			if err := pub.Publish(ev); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := pub.Flush(ctx); err != nil {
				return fmt.Errorf("flush: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sent %s %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "nats", defaultNATSURL, "NATS server URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Time to wait for the server to acknowledge")
	return cmd
}
