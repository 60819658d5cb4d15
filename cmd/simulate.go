package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/statusled/internal/config"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/indicator"
	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/logging"
	"github.com/spf13/cobra"
)

// CreateSimulateCmd creates the simulate command, which runs the indicator
// against a console line and takes device events from stdin.
func CreateSimulateCmd() *cobra.Command {
	var (
		configFile string
		hold       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the indicator on the terminal",
		Long: "Runs the indicator with a console LED. Type one event per line (" + eventKinds +
			"), 'status' to print the current state, or 'quit'. When input ends the indicator keeps " +
			"running until interrupted, or for --hold if set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "warn", Format: "text"})

			timings, err := config.LoadIndicatorTimings(configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), timings, hold)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Configuration file with [indicator] timings")
	cmd.Flags().DurationVar(&hold, "hold", 0, "How long to keep running after input ends (0 waits for interrupt)")
	return cmd
}

// lockedWriter serializes writes from the scheduler loop and the prompt.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// runSimulation feeds events read from in to an indicator drawing on out.
// After in is exhausted the indicator keeps running until ctx is done or,
// when hold is positive, until hold has elapsed.
func runSimulation(ctx context.Context, in io.Reader, out io.Writer, timings indicator.Timings, hold time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w := &lockedWriter{w: out}
	bus := events.New()

	manager := indicator.NewManager(indicator.ManagerOptions{
		Line:     led.NewConsole(w),
		EventBus: bus,
		Timings:  &timings,
		Logger:   logging.GetLogger("indicator"),
	})
	if err := manager.Start(); err != nil {
		return err
	}
	defer manager.Stop()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "status":
			st, err := manager.Status(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "pattern=%s connected=%t suspended=%t\n", st.Pattern, st.Connected, st.Suspended)
			continue
		}

		if len(fields) != 2 {
			fmt.Fprintf(w, "usage: <event> <value>, events: %s\n", eventKinds)
			continue
		}
		ev, err := parseEvent(fields[0], fields[1])
		if err != nil {
			fmt.Fprintln(w, err)
			continue
		}
		bus.Publish(ev)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if hold > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, hold)
		defer cancel()
	}
	<-ctx.Done()
	return nil
}
