package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecfan/ecfan/internal/api"
	"github.com/ecfan/ecfan/internal/configuration"
	"github.com/ecfan/ecfan/internal/controller"
	"github.com/ecfan/ecfan/internal/duty"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/persistence"
	"github.com/ecfan/ecfan/internal/statistics"
	"github.com/ecfan/ecfan/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sys/unix"
)

const (
	defaultStatisticsPort = 9000
	defaultApiPort        = 9001
	shutdownTimeout       = 5 * time.Second
)

func RunDaemon() {
	if unix.Geteuid() != 0 {
		ui.Fatal("Fan control requires root permissions to access the embedded controller, please run ecfan as root")
	}

	config := configuration.CurrentConfig

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize database at %s: %v", config.DbPath, err)
	}

	transport, err := ec.OpenTransport(ec.DevPortPath)
	if err != nil {
		if errors.Is(err, ec.ErrPortAccessDenied) {
			ui.FatalWithoutStacktrace("Access to the EC ports was denied: %v", err)
		}
		ui.Fatal("Unable to open EC ports: %v", err)
	}
	defer func() {
		_ = transport.Close()
	}()

	fanController, err := InitializeObjects(config, transport, pers)
	if err != nil {
		ui.Fatal("Unable to initialize fan controller: %v", err)
	}

	providers := []statistics.StatusProvider{fanController}
	statistics.Register(statistics.NewTelemetryCollector(providers))
	statistics.Register(statistics.NewControllerCollector(providers))

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		if config.Statistics.Enabled {
			// === Prometheus Exporter
			port := normalizePort(config.Statistics.Port, defaultStatisticsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

			g.Add(func() error {
				ui.Info("Serving metrics on :%d/metrics", port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		if config.Api.Enabled {
			// === REST API
			port := normalizePort(config.Api.Port, defaultApiPort)
			addr := fmt.Sprintf("%s:%d", config.Api.Host, port)
			rest := api.CreateRestService(fanController, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)

			g.Add(func() error {
				ui.Info("Serving REST API on %s", addr)
				if err := rest.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					ui.Error("Cannot start REST API (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping REST API...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer timeoutCancel()
				if err := rest.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST API: " + err.Error())
				}
			})
		}
	}
	{
		// === fan controller
		g.Add(func() error {
			err := fanController.Run(ctx)
			ui.Info("Fan controller for %s stopped.", fanController.GetId())
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Something went wrong: %v", err)
			}
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

		g.Add(func() error {
			select {
			case s := <-sig:
				ui.Info("Received %s signal, exiting...", s)
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		_ = transport.Close()
		os.Exit(1)
	} else {
		ui.Info("Done.")
	}
}

// InitializeObjects creates the telemetry source and the fan controller driving the given transport.
func InitializeObjects(config configuration.Configuration, transport *ec.Transport, pers persistence.Persistence) (controller.FanController, error) {
	if config.Source == ec.SourceTypeDebugFs {
		if _, err := os.Stat(config.DebugFsPath); err != nil {
			ui.Info("Loading EC debug module...")
			if err := ec.LoadDebugModule(); err != nil {
				ui.Warning("Unable to load EC debug module: %v", err)
			}
		}
	}

	source, err := ec.NewSource(config.Source, transport, config.DebugFsPath)
	if err != nil {
		return nil, err
	}
	ec.SourceMap.Set(source.GetId(), source)

	dutyController := duty.NewController(config.DutyConfig())
	for _, rule := range dutyController.GetLadder() {
		ui.Debug("Ladder rule: %s", rule)
	}

	return controller.NewFanController(source, transport, pers, dutyController, controller.OptionsFromConfig(config)), nil
}

func normalizePort(port int, fallback int) int {
	if port <= 0 || port >= 65535 {
		return fallback
	}
	return port
}
