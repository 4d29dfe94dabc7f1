package config_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma/config"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/schema"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, ":memory:", cfg.DSN)
	assert.True(t, cfg.Parameterized)
	assert.Equal(t, "default", cfg.Naming.Strategy)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadLayers(t *testing.T) {
	path := writeFile(t, `
dialect: postgres
dsn: postgres://localhost/app
paging: row-number
max_identifier_length: 31
naming:
  strategy: underscore
  prefix: app_
log:
  level: debug
  format: json
`)

	t.Run("File", func(t *testing.T) {
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Dialect)
		assert.Equal(t, "postgres://localhost/app", cfg.DSN)
		assert.Equal(t, "row-number", cfg.Paging)
		assert.Equal(t, 31, cfg.MaxIdentifierLength)
		assert.Equal(t, "underscore", cfg.Naming.Strategy)
		assert.Equal(t, "app_", cfg.Naming.Prefix)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		// Defaults survive keys the file does not set.
		assert.True(t, cfg.Parameterized)
		assert.Equal(t, "stderr", cfg.Log.Output)
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("ORMA_DIALECT", "mysql")
		t.Setenv("ORMA_LOG_LEVEL", "warn")
		t.Setenv("ORMA_NAMING_PLURALIZE", "true")
		t.Setenv("ORMA_MAX_IDENTIFIER_LENGTH", "20")
		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "mysql", cfg.Dialect)
		assert.Equal(t, "warn", cfg.Log.Level)
		assert.True(t, cfg.Naming.Pluralize)
		assert.Equal(t, 20, cfg.MaxIdentifierLength)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("ORMA_DIALECT", "mysql")
		cfg, err := config.Load(path, map[string]any{
			"dialect":       "oracle",
			"parameterized": false,
			"log.output":    "discard",
		})
		require.NoError(t, err)
		assert.Equal(t, "oracle", cfg.Dialect)
		assert.False(t, cfg.Parameterized)
		assert.Equal(t, "discard", cfg.Log.Output)
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config: read")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "dialect: [sqlite"), nil)
		require.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := config.Load("", map[string]any{
			"dialect":               "db2",
			"paging":                "cursor",
			"max_identifier_length": -1,
			"naming.strategy":       "camel",
			"log.level":             "loud",
			"log.format":            "xml",
			"log.output":            "syslog",
		})
		require.Error(t, err)
		for _, msg := range []string{
			`unknown dialect "db2"`,
			`unknown paging strategy "cursor"`,
			"max_identifier_length must not be negative",
			`unknown naming strategy "camel"`,
			`unknown log level "loud"`,
			`unknown log format "xml"`,
			`unknown log output "syslog"`,
		} {
			assert.Contains(t, err.Error(), msg)
		}
	})
}

func TestFind(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Empty(t, config.Find(dir))
	path := filepath.Join(dir, "orma.yml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: sqlite\n"), 0o600))
	assert.Equal(t, path, config.Find(dir))
	path = filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("dialect: sqlite\n"), 0o600))
	assert.Equal(t, path, config.Find(dir))
}

func TestParsePaging(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want provider.Paging
	}{
		{"limit-offset", provider.PagingLimitOffset},
		{"offset-fetch", provider.PagingOffsetFetch},
		{"first-skip", provider.PagingFirstSkip},
		{" Row-Number ", provider.PagingRowNumber},
		{"rownum", provider.PagingRowNum},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.ParsePaging(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := config.ParsePaging("keyset")
	assert.Error(t, err)
}

func TestNamingBuild(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cfg   config.NamingConfig
		table string
		col   string
	}{
		{"Default", config.NamingConfig{}, "OrderLine", "UnitPrice"},
		{"Lower", config.NamingConfig{Strategy: "lower"}, "orderline", "unitprice"},
		{"Upper", config.NamingConfig{Strategy: "upper"}, "ORDERLINE", "UNITPRICE"},
		{"Underscore", config.NamingConfig{Strategy: "underscore"}, "order_line", "unit_price"},
		{"Pluralize", config.NamingConfig{Strategy: "underscore", Pluralize: true}, "order_lines", "unit_price"},
		{"Prefix", config.NamingConfig{Strategy: "underscore", Prefix: "app_"}, "app_order_line", "unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.cfg.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.table, s.TableName("OrderLine"))
			assert.Equal(t, tt.col, s.ColumnName("UnitPrice"))
		})
	}
}

func TestProvider(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Dialect:             "sqlserver2008",
		Paging:              "row-number",
		MaxIdentifierLength: 10,
		Naming:              config.NamingConfig{Strategy: "lower"},
	}
	p, err := cfg.Provider()
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLServer, p.Dialect())
	assert.Equal(t, provider.PagingRowNumber, p.Capabilities().Paging)
	assert.Equal(t, 10, p.Capabilities().MaxIdentifierLength)
	assert.False(t, p.Parameterized())
	assert.Equal(t, "prsnrcrd", p.TableName(schema.NewTable("PersonRecord")))

	// Each call builds an independent provider.
	other, err := cfg.Provider()
	require.NoError(t, err)
	assert.NotSame(t, p, other)
}

func TestLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := config.NewLogger(&buf, "json", slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	cfg := &config.Config{Log: config.LogConfig{Level: "debug", Output: "discard"}}
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

func TestOpen(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		cfg, err := config.Load("", map[string]any{"log.output": "discard"})
		require.NoError(t, err)
		drv, err := cfg.Open()
		require.NoError(t, err)
		defer drv.Close()
		assert.Equal(t, dialect.SQLite, drv.Dialect())
		require.NoError(t, drv.DB().PingContext(context.Background()))
	})

	t.Run("NotBundled", func(t *testing.T) {
		cfg, err := config.Load("", map[string]any{"dialect": "firebird", "log.output": "discard"})
		require.NoError(t, err)
		_, err = cfg.Open()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no bundled driver")
	})
}
