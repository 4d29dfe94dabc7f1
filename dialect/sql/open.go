package sql

import (
	"database/sql"
	"fmt"

	// Drivers for the engines with a pure Go database/sql driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
)

// driverNames maps dialects to the database/sql driver registered for
// them. Oracle and Firebird drivers are not bundled; register one and pass
// its name with WithDriverName, or use OpenDB.
var driverNames = map[string]string{
	dialect.SQLite:    "sqlite",
	dialect.MySQL:     "mysql",
	dialect.Postgres:  "pgx",
	dialect.SQLServer: "sqlserver",
}

// DriverName returns the database/sql driver name used for dialect d.
func DriverName(d string) (string, bool) {
	name, ok := driverNames[d]
	return name, ok
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	driverName string
	opts       []Option
}

// WithDriverName selects the registered database/sql driver, e.g.
// "postgres" for lib/pq instead of pgx.
func WithDriverName(name string) OpenOption {
	return func(c *openConfig) { c.driverName = name }
}

// WithOptions passes driver options to the opened Driver.
func WithOptions(opts ...Option) OpenOption {
	return func(c *openConfig) { c.opts = append(c.opts, opts...) }
}

// Open opens a connection pool for the dialect of p.
func Open(p *provider.Provider, source string, opts ...OpenOption) (*Driver, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.driverName == "" {
		name, ok := DriverName(p.Dialect())
		if !ok {
			return nil, fmt.Errorf("dialect/sql: no bundled driver for dialect %q", p.Dialect())
		}
		cfg.driverName = name
	}
	db, err := sql.Open(cfg.driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(p, db, cfg.opts...), nil
}
