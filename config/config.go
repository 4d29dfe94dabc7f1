// Package config loads the settings of a database session and builds the
// provider and driver they describe.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults
//  2. an optional YAML file (orma.yaml)
//  3. ORMA_ prefixed environment variables, e.g. ORMA_DIALECT or ORMA_LOG_LEVEL
//  4. explicit overrides passed to Load
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/syssam/orma/dialect/sql"
	"github.com/syssam/orma/naming"
	"github.com/syssam/orma/provider"
)

// FileName is the default name of the config file.
const FileName = "orma.yaml"

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ORMA_"

// Config describes one database session.
type Config struct {
	Dialect       string `koanf:"dialect"`
	DSN           string `koanf:"dsn"`
	Driver        string `koanf:"driver"` // database/sql driver name, empty for the bundled one.
	Parameterized bool   `koanf:"parameterized"`
	Paging        string `koanf:"paging"` // empty keeps the dialect default.
	// MaxIdentifierLength overrides the dialect ceiling when positive.
	MaxIdentifierLength int          `koanf:"max_identifier_length"`
	CaseSensitiveLike   bool         `koanf:"case_sensitive_like"`
	Naming              NamingConfig `koanf:"naming"`
	Log                 LogConfig    `koanf:"log"`
}

// NamingConfig selects the naming strategy.
type NamingConfig struct {
	Strategy  string `koanf:"strategy"` // default, lower, upper or underscore.
	Prefix    string `koanf:"prefix"`
	Pluralize bool   `koanf:"pluralize"`
}

// LogConfig configures the statement logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn or error.
	Format string `koanf:"format"` // text or json.
	Output string `koanf:"output"` // stderr, stdout or discard.
}

var defaults = map[string]any{
	"dialect":       "sqlite",
	"dsn":           ":memory:",
	"parameterized": true,
	"naming": map[string]any{
		"strategy": "default",
	},
	"log": map[string]any{
		"level":  "info",
		"format": "text",
		"output": "stderr",
	},
}

// Load reads the configuration. An empty path skips the file layer; a path
// that does not exist is an error. Overrides use dotted keys such as
// "log.level".
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	// ORMA_LOG_LEVEL -> log.level, ORMA_MAX_IDENTIFIER_LENGTH -> max_identifier_length
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env vars: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("config: load overrides: %w", err)
		}
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find returns the path of the config file in dir, or "" when there is none.
func Find(dir string) string {
	for _, name := range []string{FileName, "orma.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sections are the nested keys whose first underscore separates the section
// from the field name.
var sections = []string{"naming", "log"}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := provider.ByName(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	if c.Paging != "" {
		if _, err := ParsePaging(c.Paging); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MaxIdentifierLength < 0 {
		errs = append(errs, fmt.Errorf("config: max_identifier_length must not be negative, got %d", c.MaxIdentifierLength))
	}
	if _, err := c.Naming.Build(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log format %q", c.Log.Format))
	}
	switch strings.ToLower(c.Log.Output) {
	case "", "stderr", "stdout", "discard":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log output %q", c.Log.Output))
	}
	return errors.Join(errs...)
}

// ParsePaging returns the paging strategy with the given name, e.g.
// "row-number".
func ParsePaging(s string) (provider.Paging, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p := provider.PagingLimitOffset; p <= provider.PagingRowNum; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("config: unknown paging strategy %q", s)
}

// Build returns the configured naming strategy.
func (n NamingConfig) Build() (naming.Strategy, error) {
	var base naming.Strategy
	switch strings.ToLower(n.Strategy) {
	case "", "default":
		base = naming.Default{}
	case "lower":
		base = naming.LowerCase()
	case "upper":
		base = naming.UpperCase()
	case "underscore", "snake":
		base = naming.Underscore()
	default:
		return nil, fmt.Errorf("config: unknown naming strategy %q", n.Strategy)
	}
	if n.Pluralize {
		base = naming.Pluralized{Next: base}
	}
	if n.Prefix != "" {
		base = naming.Prefix{Prefix: n.Prefix, Next: base}
	}
	return base, nil
}

// Provider builds a new provider for the configured dialect. Each call
// returns an independent provider.
func (c *Config) Provider() (*provider.Provider, error) {
	s, err := c.Naming.Build()
	if err != nil {
		return nil, err
	}
	opts := []provider.Option{
		provider.WithNamingStrategy(s),
		provider.WithParameterized(c.Parameterized),
		provider.WithCaseSensitiveLike(c.CaseSensitiveLike),
	}
	if c.Paging != "" {
		pg, err := ParsePaging(c.Paging)
		if err != nil {
			return nil, err
		}
		opts = append(opts, provider.WithPaging(pg))
	}
	if c.MaxIdentifierLength > 0 {
		opts = append(opts, provider.WithMaxIdentifierLength(c.MaxIdentifierLength))
	}
	return provider.ByName(c.Dialect, opts...)
}

// Logger builds the statement logger.
func (c *Config) Logger() (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	var w io.Writer
	switch strings.ToLower(c.Log.Output) {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	case "discard":
		w = io.Discard
	default:
		return nil, fmt.Errorf("config: unknown log output %q", c.Log.Output)
	}
	return NewLogger(w, c.Log.Format, level), nil
}

// NewLogger returns a text or JSON logger writing to w.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: unknown log level %q", s)
	}
	return l, nil
}

// Open builds the provider and opens a driver for it.
func (c *Config) Open() (*sql.Driver, error) {
	p, err := c.Provider()
	if err != nil {
		return nil, err
	}
	log, err := c.Logger()
	if err != nil {
		return nil, err
	}
	opts := []sql.OpenOption{sql.WithOptions(sql.WithLogger(log))}
	if c.Driver != "" {
		opts = append(opts, sql.WithDriverName(c.Driver))
	}
	return sql.Open(p, c.DSN, opts...)
}
