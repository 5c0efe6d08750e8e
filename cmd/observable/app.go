package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vango-dev/observable/internal/config"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/instrument"
	"github.com/vango-dev/observable/pkg/observable"
	"github.com/vango-dev/observable/pkg/snapshot"
	"github.com/vango-dev/observable/pkg/store"
)

// defaultRegion is used for S3 when no region is configured.
const defaultRegion = "us-east-1"

// app holds everything a command needs to host cells.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	ctx      *observable.Context
	store    *store.Store
	backend  snapshot.Backend

	shutdown func(context.Context) error
}

// loadConfig reads observable.json from --config or the working directory
// and applies the global flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
		if _, err := cfg.LogLevel(); err != nil {
			return nil, errors.New("E104").Wrap(err)
		}
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newApp builds the reactive context with the spies selected by cfg, an empty
// store bound to it, and the snapshot backend.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := newLogger(cfg)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		shutdown: func(context.Context) error { return nil },
	}

	var spies []observable.Spy
	if cfg.Log.Spy {
		spies = append(spies, instrument.Logger(logger))
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		spies = append(spies, instrument.Metrics(
			instrument.WithNamespace(cfg.Metrics.Namespace),
			instrument.WithRegistry(a.registry),
		))
	}
	if cfg.Tracing.Enabled {
		tp, shutdown, err := setupTracing(ctx, cfg.Tracing)
		if err != nil {
			return nil, errors.Newf(errors.CategoryConfig, "tracing setup failed").Wrap(err)
		}
		a.shutdown = shutdown
		spies = append(spies, instrument.Tracing(
			instrument.WithTracerName(cfg.Tracing.TracerName),
			instrument.WithTracerProvider(tp),
			instrument.WithIncludeValues(cfg.Tracing.IncludeValues),
		))
	}

	a.ctx = observable.NewContext(
		observable.WithEnforceActions(cfg.EnforceActions()),
		observable.WithSpy(spies...),
	)
	a.store = store.New(store.WithContext(a.ctx), store.WithLogger(logger))
	a.backend = newBackend(cfg.Snapshot)
	return a, nil
}

// Close flushes pending spans.
func (a *app) Close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("tracing shutdown failed", "error", err)
	}
}

// newBackend returns the snapshot backend selected by cfg.
func newBackend(cfg config.SnapshotConfig) snapshot.Backend {
	if cfg.Backend == config.BackendS3 {
		return snapshot.NewS3Backend(newS3Client(cfg), cfg.Bucket, cfg.Prefix)
	}
	return snapshot.NewMemoryBackend()
}

// newS3Client creates an S3 client from the snapshot settings. Static
// credentials are taken from the AWS_* environment variables when set.
func newS3Client(cfg config.SnapshotConfig) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
	}
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AccessKeyID,
					SecretAccessKey: cfg.SecretAccessKey,
					SessionToken:    cfg.SessionToken,
					Source:          "observable environment",
				}, nil
			},
		))
	}
	if cfg.Endpoint != "" {
		// S3-compatible stores (MinIO, R2) expect path-style addressing.
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}
