// Package dialect names the supported database engines and defines the
// driver interfaces used to execute compiled statements.
//
// # Supported Dialects
//
//	dialect.SQLite    = "sqlite"
//	dialect.SQLServer = "sqlserver"
//	dialect.MySQL     = "mysql"
//	dialect.Postgres  = "postgres"
//	dialect.Oracle    = "oracle"
//	dialect.Firebird  = "firebird"
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The SQL text handed to a Driver is produced by the query and provider
// packages. See dialect/sql for the database/sql based implementation.
package dialect
