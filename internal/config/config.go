package config

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/treepatch/internal/errors"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"treepatch.yaml", "treepatch.yml", "treepatch.json"}

const (
	// DefaultAddr is the default listen address of the live host.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes bounds POSTed batches.
	DefaultMaxBodyBytes = 1 << 20

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "treepatch"
)

// Config is the complete treepatch configuration.
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Render   RenderConfig   `json:"render" yaml:"render"`
	Applier  ApplierConfig  `json:"applier" yaml:"applier"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Log      LogConfig      `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig configures the live host.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr" validate:"required,hostname_port"`

	// PathPrefix mounts every route under a prefix.
	PathPrefix string `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty" validate:"omitempty,startswith=/"`

	// Title is the document title served at the root route.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// MaxBodyBytes bounds request bodies and websocket messages.
	MaxBodyBytes int64 `json:"maxBodyBytes" yaml:"maxBodyBytes" validate:"min=64"`
}

// RenderConfig configures serialization.
type RenderConfig struct {
	Pretty bool   `json:"pretty,omitempty" yaml:"pretty,omitempty"`
	Indent string `json:"indent,omitempty" yaml:"indent,omitempty" validate:"max=8"`

	// Minify runs output through the HTML minifier. It cannot be combined
	// with Pretty.
	Minify bool `json:"minify,omitempty" yaml:"minify,omitempty" validate:"excluded_with=Pretty"`
}

// ApplierConfig configures tree appliers.
type ApplierConfig struct {
	// StrictDescent rejects Down into text nodes immediately.
	StrictDescent bool `json:"strictDescent,omitempty" yaml:"strictDescent,omitempty"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	Backend   string `json:"backend" yaml:"backend" validate:"oneof=memory s3"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty" validate:"required_if=Backend s3"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	PathStyle bool   `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" validate:"max=64"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			PathPrefix:   "/",
			Title:        "treepatch",
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Render: RenderConfig{
			Indent: "  ",
		},
		Snapshot: SnapshotConfig{
			Backend: "memory",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the specified directory, trying each of
// ConfigFileNames in turn.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigRead).
		WithDetail("No treepatch.yaml or treepatch.json found in " + dir).
		WithSuggestion("Create treepatch.yaml or run without --config to use defaults")
}

// LoadFile reads and validates configuration from path. Files ending in
// .json are parsed as JSON and everything else as YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg := Default()
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path in the format its
// extension selects.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their file key rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		problem := field + " failed " + fe.Tag()
		if fe.Param() != "" {
			problem += "=" + fe.Param()
		}
		problems = append(problems, problem)
	}
	e := errors.New(errors.CodeConfigInvalid).WithDetail(strings.Join(problems, "; "))
	if c.configPath != "" {
		e = e.WithSuggestion("Fix " + c.configPath)
	}
	return e
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
