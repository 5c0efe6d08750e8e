package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/devtools"
	"github.com/vango-dev/observable/pkg/snapshot"
)

// shutdownTimeout bounds the graceful shutdown of the devtools server.
const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	port     int
	host     string
	readOnly bool
	demo     bool
	tick     time.Duration
	restore  string
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the devtools inspector",
		Long: `Start the devtools inspector over a store of cells.

The inspector lists, reads and writes cells as JSON, streams their
changes over WebSocket, saves and restores snapshots, and exposes
Prometheus metrics at /metrics when metrics are enabled.

Examples:
  observable serve --demo
  observable serve --port=8080 --read-only
  observable serve --demo --restore=latest.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if opts.port > 0 {
				cfg.Devtools.Port = opts.port
			}
			if opts.host != "" {
				cfg.Devtools.Host = opts.host
			}
			if opts.readOnly {
				cfg.Devtools.ReadOnly = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on (default from observable.json)")
	cmd.Flags().StringVarP(&opts.host, "host", "H", "", "Host to bind to (default from observable.json)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Reject writes, restores and deletes")
	cmd.Flags().BoolVar(&opts.demo, "demo", false, "Seed the demo cells")
	cmd.Flags().DurationVar(&opts.tick, "tick", time.Second, "Interval at which the demo advances the ticks cell (0 disables)")
	cmd.Flags().StringVar(&opts.restore, "restore", "", "Restore this snapshot key on start")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, opts serveOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	printBanner()
	fmt.Println("  serve")
	fmt.Println()

	if opts.demo {
		d, err := seedDemo(a.store, a.logger)
		if err != nil {
			return err
		}
		success("Seeded %d demo cells", a.store.Len())
		if opts.tick > 0 {
			go d.runTicker(ctx, opts.tick, a.logger)
		}
	}

	if opts.restore != "" {
		doc, err := snapshot.Restore(ctx, a.store, a.backend, opts.restore)
		if err != nil {
			return errors.Classify(err, "E302")
		}
		success("Restored %q (%d cells, taken %s)", opts.restore, len(doc.Cells), doc.TakenAt.Format(time.RFC3339))
	}

	devCfg := devtools.Config{
		Store:     a.store,
		Logger:    a.logger,
		ReadOnly:  cfg.Devtools.ReadOnly,
		Snapshots: a.backend,
	}
	if a.registry != nil {
		devCfg.Metrics = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}
	srv := devtools.New(devCfg)

	httpServer := &http.Server{
		Addr:              cfg.DevtoolsAddress(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	success("Inspector running at %s", cfg.DevtoolsURL())
	info("policy: %s, snapshots: %s", cfg.EnforceActions(), cfg.Snapshot.Backend)
	if cfg.Devtools.ReadOnly {
		warn("read-only mode")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\n\n  Shutting down...")
	case err := <-errCh:
		if err != nil {
			return errors.Classify(err, "E401")
		}
	}

	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
