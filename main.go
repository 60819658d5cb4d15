package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/smazurov/statusled/cmd"
	"github.com/smazurov/statusled/internal/api"
	"github.com/smazurov/statusled/internal/bluez"
	"github.com/smazurov/statusled/internal/config"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/indicator"
	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/logging"
	"github.com/smazurov/statusled/internal/metrics"
	"github.com/smazurov/statusled/internal/metrics/exporters"
	"github.com/smazurov/statusled/internal/nats"
	"github.com/smazurov/statusled/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"/etc/statusled/config.toml"`

	// Server settings
	Port         string `help:"HTTP listen address" short:"p" default:":8091" toml:"server.port" env:"SERVER_PORT"`
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// LED settings
	LedDriver string `help:"Output line driver (auto, sysfs, gpio, none)" default:"auto" toml:"led.driver" env:"LED_DRIVER"`
	LedName   string `help:"sysfs LED name; empty selects the board default" toml:"led.name" env:"LED_NAME"`
	LedPin    int    `help:"BCM pin for the gpio driver" default:"17" toml:"led.pin" env:"LED_PIN"`
	LedInvert bool   `help:"LED is wired active-low" default:"false" toml:"led.invert" env:"LED_INVERT"`

	// NATS settings
	NatsEnabled bool `help:"Run the embedded NATS server and event bridge" default:"true" toml:"nats.enabled" env:"NATS_ENABLED"`
	NatsPort    int  `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// BlueZ settings
	BluezEnabled  bool   `help:"Follow host connections through BlueZ" default:"true" toml:"bluez.enabled" env:"BLUEZ_ENABLED"`
	BluezAdapter  string `help:"Bluetooth adapter" default:"hci0" toml:"bluez.adapter" env:"BLUEZ_ADAPTER"`
	BluezAddress  string `help:"Only track this host address" toml:"bluez.address" env:"BLUEZ_ADDRESS"`
	BluetoothUnit string `help:"systemd unit of the Bluetooth daemon" default:"bluetooth.service" toml:"bluez.unit" env:"BLUEZ_UNIT"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(config.LoadLoggingConfig(opts.Config))
		logger := logging.GetLogger("main")

		timings, err := config.LoadIndicatorTimings(opts.Config)
		if err != nil {
			logger.Warn("Invalid indicator timings, using defaults", "error", err)
			timings = indicator.DefaultTimings()
		}

		if opts.LedPin < 0 || opts.LedPin > 255 {
			logger.Error("LED pin out of range", "pin", opts.LedPin)
			os.Exit(1)
		}

		eventBus := events.New()

		// Metrics
		var recorder indicator.Recorder
		var promHandler http.Handler
		if opts.MetricsEnabled {
			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			recorder = metrics.NewIndicatorRecorder(registry)
			promHandler = exporters.HTTPHandler(registry)
		}

		// NATS
		var natsServer *nats.Server
		var bridge *nats.Bridge
		if opts.NatsEnabled {
			natsServer = nats.NewServer(nats.ServerOptions{
				Port:   opts.NatsPort,
				Logger: logging.GetLogger("nats"),
			})
		}

		var monitor *bluez.Monitor
		if opts.BluezEnabled {
			monitor, err = bluez.NewMonitor(bluez.Options{
				Adapter: opts.BluezAdapter,
				Address: opts.BluezAddress,
				Bus:     eventBus,
				Logger:  logging.GetLogger("bluez"),
			})
			if err != nil {
				logger.Error("Invalid BlueZ settings", "error", err)
				os.Exit(1)
			}
		}

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		watcher := config.NewConfigWatcher(opts.Config, config.LoadFile, logging.GetLogger("config"))

		ctx, cancel := context.WithCancel(context.Background())
		var (
			line        led.Line
			manager     *indicator.Manager
			server      *api.Server
			sysd        *systemd.Manager
			unsubStatus func()
		)

		hooks.OnStart(func() {
			var lineErr error
			line, lineErr = led.New(led.Config{
				Driver: opts.LedDriver,
				Name:   opts.LedName,
				Pin:    uint8(opts.LedPin),
				Invert: opts.LedInvert,
			}, logging.GetLogger("led"))
			if lineErr != nil {
				logger.Error("Failed to configure LED", "error", lineErr)
				os.Exit(1)
			}

			// Ground truth must be live before the indicator boots, or
			// reconciliation would override bus events with a stale value.
			var probe indicator.ConnectionProbe
			if monitor != nil {
				if startErr := monitor.Start(ctx); startErr != nil {
					logger.Warn("BlueZ unavailable, reconciliation disabled", "error", startErr)
					monitor = nil
				} else {
					probe = monitor
				}
			}

			manager = indicator.NewManager(indicator.ManagerOptions{
				Line:     line,
				EventBus: eventBus,
				Probe:    probe,
				Timings:  &timings,
				Recorder: recorder,
				Logger:   logging.GetLogger("indicator"),
			})
			if startErr := manager.Start(); startErr != nil {
				logger.Warn("Indicator not running", "error", startErr)
			}

			if natsServer != nil {
				if startErr := natsServer.Start(); startErr != nil {
					logger.Warn("Failed to start NATS server", "error", startErr)
				} else {
					bridge = nats.NewBridge(natsServer.ClientURL(), eventBus, logging.GetLogger("nats"))
					if startErr := bridge.Start(); startErr != nil {
						logger.Warn("Failed to start NATS bridge", "error", startErr)
					}
				}
			}

			watcher.OnReload(func(f config.File) {
				logging.ApplyLevels(f.Logging)
				t, reloadErr := f.Indicator.Timings()
				if reloadErr != nil {
					logger.Warn("Ignoring invalid indicator timings", "error", reloadErr)
					return
				}
				if reloadErr := manager.UpdateTimings(t); reloadErr != nil {
					logger.Warn("Failed to apply indicator timings", "error", reloadErr)
				}
			})
			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Config watcher not running", "error", startErr)
			}
			go reloadOnHangup(ctx, watcher.Reload, logger)

			apiOpts := &api.Options{
				AuthUsername:      opts.AuthUsername,
				AuthPassword:      opts.AuthPassword,
				EventBus:          eventBus,
				Indicator:         manager,
				PrometheusHandler: promHandler,
				BluetoothUnit:     opts.BluetoothUnit,
				Reconciling:       probe != nil,
			}
			if m, sdErr := systemd.NewManager(ctx); sdErr != nil {
				logger.Debug("systemd D-Bus unavailable", "error", sdErr)
			} else {
				sysd = m
				apiOpts.SystemdManager = sysd
				if state, stErr := sysd.ServiceState(ctx, opts.BluetoothUnit); stErr == nil && state != "active" {
					logger.Warn("Bluetooth service is not active", "unit", opts.BluetoothUnit, "state", state)
				}
			}
			server = api.NewServer(apiOpts)

			unsubStatus = eventBus.Subscribe(func(e events.IndicatorStatusEvent) {
				notifier.Status(fmt.Sprintf("LED pattern: %s", e.Pattern))
			})
			notifier.Ready()
			go notifier.RunWatchdog(ctx)

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if unsubStatus != nil {
				unsubStatus()
			}
			if bridge != nil {
				bridge.Stop()
			}
			if natsServer != nil {
				natsServer.Stop()
			}
			if manager != nil {
				manager.Stop()
			}
			if monitor != nil {
				monitor.Stop()
			}
			if sysd != nil {
				sysd.Close()
			}
			cancel()

			if closeErr := led.Close(line); closeErr != nil {
				logger.Warn("Error releasing LED", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "statusled"
	cli.Root().Short = "Status LED indicator daemon"

	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateWatchCmd())
	cli.Root().AddCommand(cmd.CreateSimulateCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

// reloadOnHangup re-reads the configuration file on SIGHUP.
func reloadOnHangup(ctx context.Context, reload func(), logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("SIGHUP received, reloading configuration")
			reload()
		}
	}
}
