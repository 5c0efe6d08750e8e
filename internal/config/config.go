package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/vango-dev/observable/internal/errors"
	"github.com/vango-dev/observable/pkg/observable"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "observable.json"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7070

	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "github.com/vango-dev/observable"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "observable"

	// DefaultSnapshotKey is the key snapshot commands use when none is given.
	DefaultSnapshotKey = "latest.json"
)

// Snapshot backends.
const (
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete observable.json configuration.
type Config struct {
	// Devtools contains inspector server configuration.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Reactivity contains the mutation policy.
	Reactivity ReactivityConfig `json:"reactivity,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Snapshot contains snapshot storage configuration.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" env:"OBSERVABLE_DEVTOOLS_HOST"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" env:"OBSERVABLE_DEVTOOLS_PORT"`

	// ReadOnly rejects writes and snapshot restores.
	ReadOnly bool `json:"readOnly,omitempty" env:"OBSERVABLE_DEVTOOLS_READ_ONLY"`
}

// ReactivityConfig contains the settings of the reactive context.
type ReactivityConfig struct {
	// EnforceActions is one of "never", "observed" or "always".
	EnforceActions string `json:"enforceActions,omitempty" env:"OBSERVABLE_ENFORCE_ACTIONS"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty" env:"OBSERVABLE_LOG_LEVEL"`

	// Spy logs every cell event at debug level when set.
	Spy bool `json:"spy,omitempty" env:"OBSERVABLE_LOG_SPY"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs the tracing spy.
	Enabled bool `json:"enabled,omitempty" env:"OBSERVABLE_TRACING_ENABLED"`

	// TracerName is the instrumentation name of the tracer.
	TracerName string `json:"tracerName,omitempty" env:"OBSERVABLE_TRACER_NAME"`

	// IncludeValues records old and new values as span attributes.
	IncludeValues bool `json:"includeValues,omitempty"`

	// Endpoint is the OTLP/HTTP collector URL. Spans go to the global
	// provider when empty.
	Endpoint string `json:"endpoint,omitempty" env:"OBSERVABLE_OTEL_ENDPOINT"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled installs the metrics spy and mounts /metrics.
	Enabled bool `json:"enabled" env:"OBSERVABLE_METRICS_ENABLED"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" env:"OBSERVABLE_METRICS_NAMESPACE"`
}

// SnapshotConfig contains snapshot storage settings.
type SnapshotConfig struct {
	// Backend is "memory" or "s3".
	Backend string `json:"backend,omitempty" env:"OBSERVABLE_SNAPSHOT_BACKEND"`

	// Bucket is the S3 bucket name.
	Bucket string `json:"bucket,omitempty" env:"OBSERVABLE_SNAPSHOT_BUCKET"`

	// Prefix is prepended to every snapshot key.
	Prefix string `json:"prefix,omitempty" env:"OBSERVABLE_SNAPSHOT_PREFIX"`

	// Region is the AWS region.
	Region string `json:"region,omitempty" env:"OBSERVABLE_SNAPSHOT_REGION"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO or R2.
	Endpoint string `json:"endpoint,omitempty" env:"OBSERVABLE_SNAPSHOT_ENDPOINT"`

	// Credentials are only read from the environment.
	AccessKeyID     string `json:"-" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"-" env:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `json:"-" env:"AWS_SESSION_TOKEN"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Devtools: DevtoolsConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Reactivity: ReactivityConfig{
			EnforceActions: observable.EnforceNever.String(),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Snapshot: SnapshotConfig{
			Backend: BackendMemory,
		},
	}
}

// Load loads configuration from the given directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'observable init' to write a default configuration")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			Wrap(err).
			WithLocationFromJSON(path, data, err).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	return cfg.finish()
}

// finish applies environment overrides and defaults, then validates.
func (c *Config) finish() (*Config, error) {
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides fields from OBSERVABLE_* environment variables and reads
// S3 credentials from the standard AWS_* ones.
// Unset variables leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("E108").Wrap(err)
	}
	return nil
}

// Save writes the configuration to its original path.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E107").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E107").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}
	if c.Reactivity.EnforceActions == "" {
		c.Reactivity.EnforceActions = observable.EnforceNever.String()
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendMemory
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Devtools.Port < 1 || c.Devtools.Port > 65535 {
		return errors.New("E102").
			WithDetail("devtools.port must be between 1 and 65535, got " + strconv.Itoa(c.Devtools.Port))
	}
	if _, ok := observable.ParseEnforceActions(c.Reactivity.EnforceActions); !ok {
		return errors.New("E103").
			WithSuggestion(`Use "never", "observed" or "always"`)
	}
	if _, err := c.LogLevel(); err != nil {
		return errors.New("E104").Wrap(err)
	}
	switch c.Snapshot.Backend {
	case BackendMemory:
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("E106").
				WithExample(`"snapshot": {"backend": "s3", "bucket": "my-state"}`)
		}
	default:
		return errors.New("E105").
			WithDetail(`snapshot.backend must be "memory" or "s3", got "` + c.Snapshot.Backend + `"`)
	}
	return nil
}

// EnforceActions returns the parsed mutation policy.
func (c *Config) EnforceActions() observable.EnforceActions {
	mode, _ := observable.ParseEnforceActions(c.Reactivity.EnforceActions)
	return mode
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// DevtoolsAddress returns the devtools listen address (host:port).
func (c *Config) DevtoolsAddress() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// DevtoolsURL returns the full devtools URL.
func (c *Config) DevtoolsURL() string {
	return "http://" + c.DevtoolsAddress()
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing observable.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'observable init' to write a default configuration")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent holding observable.json. Without a file the defaults
// are used, still subject to environment overrides.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New().finish()
	}

	return Load(root)
}
