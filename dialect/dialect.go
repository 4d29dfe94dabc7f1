package dialect

import (
	"context"
	"database/sql/driver"
)

// Dialect names for the supported database engines.
const (
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
	MySQL     = "mysql"
	Postgres  = "postgres"
	Oracle    = "oracle"
	Firebird  = "firebird"
)

// Names lists every supported dialect in a stable order.
var Names = []string{SQLite, SQLServer, MySQL, Postgres, Oracle, Firebird}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// compiled statements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	// The provided context is used until the transaction is committed or rolled back.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

// Valid reports whether name is a supported dialect.
func Valid(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
