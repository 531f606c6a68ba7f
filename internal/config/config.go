package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/routekit/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "routekit.json"

	// TOMLConfigFileName is the name of the TOML configuration file.
	TOMLConfigFileName = "routekit.toml"

	// DefaultPort is the default inspector server port.
	DefaultPort = 7070

	// DefaultHost is the default inspector server host.
	DefaultHost = "localhost"

	// DefaultManifest is the default route manifest path.
	DefaultManifest = "routes.json"

	// DefaultTransitionTimeout bounds how long a leave transition may take.
	DefaultTransitionTimeout = 2 * time.Second
)

// Config represents routekit.json or routekit.toml.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Manifest is the route manifest path or s3://bucket/key URL.
	Manifest string `json:"manifest,omitempty" toml:"manifest,omitempty"`

	// Strict rejects duplicate paths and names instead of ignoring them.
	Strict bool `json:"strict,omitempty" toml:"strict,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" toml:"log,omitempty"`

	// Transition contains leave/enter transition configuration.
	Transition TransitionConfig `json:"transition,omitempty" toml:"transition,omitempty"`

	// Dev contains inspector server configuration.
	Dev DevConfig `json:"dev,omitempty" toml:"dev,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" toml:"metrics,omitempty"`

	// S3 configures manifest loading from S3.
	S3 S3Config `json:"s3,omitempty" toml:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// TransitionConfig contains leave/enter transition configuration.
type TransitionConfig struct {
	// Target is the selector of the elements that animate.
	Target string `json:"target,omitempty" toml:"target,omitempty"`

	// Class is added to the target elements while leaving.
	Class string `json:"class,omitempty" toml:"class,omitempty"`

	// Timeout is a duration string (e.g., "2s").
	Timeout string `json:"timeout,omitempty" toml:"timeout,omitempty"`

	// Event overrides the completion event name.
	Event string `json:"event,omitempty" toml:"event,omitempty"`
}

// DevConfig contains inspector server settings.
type DevConfig struct {
	// Port is the port to run the inspector on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Document is an HTML file loaded as the in-memory document.
	Document string `json:"document,omitempty" toml:"document,omitempty"`

	// Tracing enables OpenTelemetry spans for navigations.
	Tracing bool `json:"tracing,omitempty" toml:"tracing,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and records navigation metrics.
	Enabled *bool `json:"enabled,omitempty" toml:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
}

// S3Config configures the S3 client used for s3:// manifests.
type S3Config struct {
	Region       string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" toml:"usePathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	enabled := true
	return &Config{
		Manifest: DefaultManifest,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transition: TransitionConfig{
			Timeout: DefaultTransitionTimeout.String(),
		},
		Dev: DevConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Metrics: MetricsConfig{
			Enabled:   &enabled,
			Namespace: "routekit",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
	}
}

// Load reads configuration from the specified directory. routekit.json
// takes precedence over routekit.toml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E006").
		WithDetail("No " + ConfigFileName + " or " + TOMLConfigFileName + " found in " + dir).
		WithSuggestion("Run 'routekit init' or create " + ConfigFileName + " manually")
}

// LoadFile reads configuration from the specified file path. The format
// follows the extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E006").
				WithFile(path).
				WithSuggestion("Check the --config flag")
		}
		return nil, errors.New("E005").WithFile(path).Wrap(err)
	}

	cfg := New()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.New("E005").
				WithFile(path).
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid TOML")
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E005").
			WithFile(path).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var data []byte
	if isTOML(path) {
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(c); err != nil {
			return errors.New("E005").Wrap(err)
		}
		data = []byte(sb.String())
	} else {
		var err error
		data, err = json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("E005").Wrap(err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E005").WithFile(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
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
	d := New()
	if c.Manifest == "" {
		c.Manifest = d.Manifest
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Transition.Timeout == "" {
		c.Transition.Timeout = d.Transition.Timeout
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = d.Dev.Port
	}
	if c.Dev.Host == "" {
		c.Dev.Host = d.Dev.Host
	}
	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = d.Metrics.Enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.S3.Region == "" {
		c.S3.Region = d.S3.Region
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E007").
			WithDetail("dev.port must be between 0 and 65535")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E007").
			WithDetail(err.Error()).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New("E007").
			WithDetail(fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}
	if c.Transition.Timeout != "" {
		d, err := time.ParseDuration(c.Transition.Timeout)
		if err != nil || d < 0 {
			return errors.New("E007").
				WithDetail(fmt.Sprintf("transition.timeout %q is not a positive duration", c.Transition.Timeout))
		}
	}
	if c.Transition.Class != "" && c.Transition.Target == "" {
		return errors.New("E007").
			WithDetail("transition.class requires transition.target")
	}
	return nil
}

// TransitionTimeout returns the parsed transition timeout.
func (c *Config) TransitionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Transition.Timeout)
	if err != nil {
		return DefaultTransitionTimeout
	}
	return d
}

// MetricsEnabled reports whether navigation metrics are on.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// DevAddress returns the address string for the inspector server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the full URL for the inspector server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// ManifestPath resolves the manifest against the config directory.
// s3:// URLs are returned unchanged.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest)
}

// DocumentPath resolves the inspector document, or "" if unset.
func (c *Config) DocumentPath() string {
	if c.Dev.Document == "" {
		return ""
	}
	return c.resolve(c.Dev.Document)
}

func (c *Config) resolve(path string) string {
	if strings.HasPrefix(path, "s3://") || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Logger builds a slog.Logger from the log settings.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	var lv slog.LevelVar
	lv.Set(level)

	opts := &slog.HandlerOptions{Level: &lv}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log.level %q is not a valid level", s)
	}
	return level, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
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
			return "", errors.New("E006").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
