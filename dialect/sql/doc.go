// Package sql executes statements compiled by the query and provider
// packages over database/sql.
//
// A Driver pairs a connection pool with the provider the statements were
// compiled for, and runs the key protocol of compiled inserts:
//
//	drv, err := sql.Open(provider.SQLite(), "file:app.db")
//	if err != nil {
//		return err
//	}
//	if err := drv.CreateTables(ctx, people); err != nil {
//		return err
//	}
//	ins, err := query.New(drv.Provider(), people).ToInsertStatement(schema.Row{"Name": "Ann"})
//	if err != nil {
//		return err
//	}
//	id, err := drv.Insert(ctx, ins)
//
// Drivers for SQLite (modernc.org/sqlite), MySQL, PostgreSQL (pgx or lib/pq)
// and SQL Server are registered by this package. Oracle and Firebird need a
// driver registered by the application, passed through WithDriverName or
// OpenDB.
//
// Constraint violations reported by the drivers are wrapped in an
// orma.ConstraintError; ConstraintKind tells them apart.
package sql
