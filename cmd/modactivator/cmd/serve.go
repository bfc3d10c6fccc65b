package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modactivator"
	"github.com/GoCodeAlone/modactivator/config"
	"github.com/GoCodeAlone/modactivator/diagnostics"
	"github.com/GoCodeAlone/modactivator/feeders"
	"github.com/GoCodeAlone/modactivator/lifecycle"
)

// EnvPrefix prefixes every environment variable read by serve.
const EnvPrefix = "MODACTIVATOR"

var ErrUnsupportedConfigFormat = errors.New("unsupported config format")

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <plan>",
		Short: "Start a plan and serve its diagnostics until interrupted",
		Long: `Start every module of the plan, serve the HTTP diagnostics surface and
log a state snapshot on the configured schedule. SIGINT or SIGTERM shuts
the modules down in reverse start order.

Configuration is read from defaults, then the --config file (YAML, TOML or
JSON), then MODACTIVATOR_* environment variables.

Examples:
  modactivator serve plan.yaml
  modactivator serve plan.yaml --config modactivator.yaml --addr :8089`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			addr, _ := cmd.Flags().GetString("addr")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, serveOptions{
				PlanPath:   args[0],
				ConfigPath: configPath,
				Addr:       addr,
				LogOutput:  cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file")
	cmd.Flags().String("addr", "", "Diagnostics listen address (overrides configuration)")

	return cmd
}

type serveOptions struct {
	PlanPath   string
	ConfigPath string
	Addr       string
	LogOutput  io.Writer

	// Ready is called with the diagnostics address once modules are started.
	Ready func(addr string)
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			loader.AddFeeder(feeders.NewYamlFeeder(path))
		case ".toml":
			loader.AddFeeder(feeders.NewTomlFeeder(path))
		case ".json":
			loader.AddFeeder(feeders.NewJSONFeeder(path))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, filepath.Ext(path))
		}
	}
	loader.AddFeeder(feeders.NewEnvFeeder(EnvPrefix))

	cfg := config.Default()
	if err := loader.Load(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Diagnostics.Addr = opts.Addr
	}
	logger := newLogger(cfg.LogLevel, opts.LogOutput)

	plan, err := LoadPlan(opts.PlanPath)
	if err != nil {
		return err
	}
	orch, err := plan.Orchestrator(io.Discard,
		modactivator.WithConfig(cfg),
		modactivator.WithLogger(logger),
		modactivator.WithObserver(eventLogger(logger)),
	)
	if err != nil {
		return err
	}

	// Scheduled before StartAll so a bad schedule leaves no module running.
	snapshots, err := scheduleSnapshots(cfg.Diagnostics.SnapshotSchedule, logger, orch)
	if err != nil {
		return err
	}

	res, err := orch.StartAll(ctx)
	if err != nil {
		return err
	}
	if !res.OK() {
		logger.Warn("Some modules failed to start", "failed", res.FailedModules(), "skipped", res.SkippedModules())
	}

	if snapshots != nil {
		snapshots.Start()
		defer snapshots.Stop()
	}

	addr := ""
	var srv *http.Server
	if cfg.Diagnostics.Enabled {
		ln, err := net.Listen("tcp", cfg.Diagnostics.Addr)
		if err != nil {
			_, _ = orch.Shutdown(context.WithoutCancel(ctx))
			return fmt.Errorf("listen %s: %w", cfg.Diagnostics.Addr, err)
		}
		addr = ln.Addr().String()
		srv = &http.Server{
			Handler:           diagnostics.NewHandler(orch, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Diagnostics server failed", "error", err)
			}
		}()
		logger.Info("Diagnostics server listening", "addr", addr)
	}

	if opts.Ready != nil {
		opts.Ready(addr)
	}
	<-ctx.Done()
	logger.Info("Shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Diagnostics server shutdown failed", "error", err)
		}
	}

	res, err = orch.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.Err()
	}
	return nil
}

// scheduleSnapshots returns a cron that logs state snapshots on schedule,
// or nil when schedule is empty. The cron is not started.
func scheduleSnapshots(schedule string, logger *slog.Logger, orch *modactivator.Orchestrator) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { logSnapshot(logger, orch) }); err != nil {
		return nil, fmt.Errorf("schedule snapshot: %w", err)
	}
	return c, nil
}

func logSnapshot(logger *slog.Logger, orch *modactivator.Orchestrator) {
	states := orch.States()
	counts := map[lifecycle.State]int{}
	for _, s := range states {
		counts[s]++
	}
	logger.Info("Module state snapshot",
		"modules", len(states),
		"started", counts[lifecycle.Started],
		"stopped", counts[lifecycle.Stopped],
		"failed", counts[lifecycle.Failed],
	)
	for _, id := range orch.Modules() {
		logger.Debug("Module state", "module", id, "state", states[id])
	}
}

func eventLogger(logger *slog.Logger) modactivator.Observer {
	return modactivator.NewFunctionalObserver("cli-event-log", func(_ context.Context, event cloudevents.Event) error {
		logger.Debug("Lifecycle event", "type", event.Type(), "id", event.ID(), "data", string(event.Data()))
		return nil
	})
}
