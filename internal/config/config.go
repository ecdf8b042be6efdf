package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/casualjim/parley/pkg/jsonx"
	"github.com/casualjim/parley/shape"
	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfig names the config file to load instead of DefaultFile.
	EnvConfig = "PARLEY_CONFIG"
	// EnvLogLevel overrides log_level from the file.
	EnvLogLevel = "PARLEY_LOG_LEVEL"

	DefaultFile = "parley.yaml"
)

// Config is the configuration of the parley command.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Links    []LinkConfig `yaml:"links"`
}

// LinkConfig declares a static link: a fixed value served under a name.
type LinkConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	// Schema is a JSON Schema document describing Value. Without one the
	// link is declared as any.
	Schema map[string]any `yaml:"schema,omitempty"`
	Value  any            `yaml:"value"`
}

// Shape returns the declared shape of the link.
func (l LinkConfig) Shape() (*shape.Shape, error) {
	if len(l.Schema) == 0 {
		return shape.NewScalar(shape.Any), nil
	}
	doc, err := jsonx.Marshal(l.Schema)
	if err != nil {
		return nil, fmt.Errorf("link %s: schema: %w", l.Name, err)
	}
	s, err := shape.FromSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("link %s: %w", l.Name, err)
	}
	return s, nil
}

// CheckValue validates Value against Schema. Links without a schema accept
// any value.
func (l LinkConfig) CheckValue() error {
	if len(l.Schema) == 0 {
		return nil
	}
	doc, err := jsonx.Marshal(l.Schema)
	if err != nil {
		return fmt.Errorf("link %s: schema: %w", l.Name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("link.json", bytes.NewReader(doc)); err != nil {
		return fmt.Errorf("link %s: schema: %w", l.Name, err)
	}
	sch, err := compiler.Compile("link.json")
	if err != nil {
		return fmt.Errorf("link %s: schema: %w", l.Name, err)
	}

	raw, err := jsonx.Marshal(l.Value)
	if err != nil {
		return fmt.Errorf("link %s: value: %w", l.Name, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("link %s: value: %w", l.Name, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("link %s: value does not match schema: %w", l.Name, err)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// DefaultPath returns the config file named by PARLEY_CONFIG, or DefaultFile.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultFile
}

// Load reads the YAML config at path. A missing file at the default path is
// not an error, the defaults are used instead.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == DefaultFile:
		data = nil
	case err != nil:
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	if len(data) > 0 {
		// Substitute environment variables: ${VAR} and ${VAR:-default}
		data = []byte(ExpandEnvVars(string(data)))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the value of VAR. ${VAR:-default} falls
// back to default when VAR is unset or empty; a plain ${VAR} that is unset is
// left alone.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		def, hasDefault := groups[2], strings.Contains(match, ":-")

		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if hasDefault {
			return def
		}
		return match
	})
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every problem with cfg at once.
func Validate(cfg *Config) error {
	var errs []string

	if !slices.Contains(logLevels, strings.ToLower(cfg.LogLevel)) {
		errs = append(errs, fmt.Sprintf("log_level must be one of: %s", strings.Join(logLevels, ", ")))
	}

	seen := make(map[string]bool, len(cfg.Links))
	for i, l := range cfg.Links {
		if l.Name == "" {
			errs = append(errs, fmt.Sprintf("links[%d]: name is required", i))
			continue
		}
		if seen[l.Name] {
			errs = append(errs, fmt.Sprintf("links[%d]: duplicate name %s", i, l.Name))
		}
		seen[l.Name] = true
		if _, err := l.Shape(); err != nil {
			errs = append(errs, fmt.Sprintf("links[%d]: %v", i, err))
			continue
		}
		if err := l.CheckValue(); err != nil {
			errs = append(errs, fmt.Sprintf("links[%d]: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
