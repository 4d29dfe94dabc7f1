package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/orma"
	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// ExecStatement executes a compiled statement and returns the number of
// affected rows.
func (c Conn) ExecStatement(ctx context.Context, stmt provider.Statement) (n int64, rerr error) {
	ex, release, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { rerr = errors.Join(rerr, release()) }()
	res, err := c.exec(ctx, ex, stmt.SQL, stmt.Args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryStatement runs a compiled query. The caller closes the rows, which
// also releases a connection pinned for session variables.
func (c Conn) QueryStatement(ctx context.Context, stmt provider.Statement) (*Rows, error) {
	rows := &Rows{}
	if err := c.Query(ctx, stmt.SQL, stmt.Args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// QueryInt64 returns the first column of the first row of query. A query
// without rows fails with sql.ErrNoRows.
func (c Conn) QueryInt64(ctx context.Context, query string, args ...any) (n int64, rerr error) {
	ex, release, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { rerr = errors.Join(rerr, release()) }()
	return c.queryInt64(ctx, ex, query, args)
}

func (c Conn) queryInt64(ctx context.Context, ex ExecQuerier, query string, args []any) (n int64, rerr error) {
	rows, err := c.query(ctx, ex, query, args)
	if err != nil {
		return 0, err
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, sql.ErrNoRows
	}
	var v sql.NullInt64
	if err := rows.Scan(&v); err != nil {
		return 0, fmt.Errorf("dialect/sql: scan: %w", err)
	}
	return v.Int64, rows.Err()
}

// pin returns ex bound to a single connection, so statements reading
// connection state see the effects of the previous ones.
func pin(ctx context.Context, ex ExecQuerier) (ExecQuerier, func() error, error) {
	db, ok := ex.(*sql.DB)
	if !ok {
		return ex, func() error { return nil }, nil
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Close, nil
}

// Insert executes a compiled INSERT and returns the generated key following
// its strategy. Tables without a generated key return 0.
func (c Conn) Insert(ctx context.Context, ins *provider.Insert) (id int64, rerr error) {
	sess, done, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { rerr = errors.Join(rerr, done()) }()
	switch ins.Strategy {
	case provider.IDReturning:
		return c.queryInt64(ctx, sess, ins.SQL, ins.Args)
	case provider.IDSequence:
		if ins.IDArg < 0 || ins.IDArg >= len(ins.Args) {
			return 0, orma.NewInvalidArgumentError(c.p.Name(), "Insert(key)", "no argument for the sequence key")
		}
		ex, release, err := pin(ctx, sess)
		if err != nil {
			return 0, err
		}
		defer func() { rerr = errors.Join(rerr, release()) }()
		if id, err = c.queryInt64(ctx, ex, ins.SequenceSQL, nil); err != nil {
			return 0, fmt.Errorf("dialect/sql: next key: %w", err)
		}
		args := slices.Clone(ins.Args)
		args[ins.IDArg] = id
		if _, err := c.exec(ctx, ex, ins.SQL, args); err != nil {
			return 0, err
		}
		return id, nil
	case provider.IDLastInsertID:
		ex, release, err := pin(ctx, sess)
		if err != nil {
			return 0, err
		}
		defer func() { rerr = errors.Join(rerr, release()) }()
		res, err := c.exec(ctx, ex, ins.SQL, ins.Args)
		if err != nil {
			return 0, err
		}
		if id, err = res.LastInsertId(); err == nil || ins.LastIDSQL == "" {
			return id, err
		}
		return c.queryInt64(ctx, ex, ins.LastIDSQL, nil)
	}
	_, err = c.exec(ctx, sess, ins.SQL, ins.Args)
	return 0, err
}

func (c Conn) exists(ctx context.Context, query string) (bool, error) {
	n, err := c.QueryInt64(ctx, query)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TableExists reports whether the table t exists.
func (c Conn) TableExists(ctx context.Context, t *schema.Table) (bool, error) {
	return c.exists(ctx, c.p.ToTableExistsStatement(t))
}

// ColumnExists reports whether the table t has the column of f.
func (c Conn) ColumnExists(ctx context.Context, t *schema.Table, f *field.Descriptor) (bool, error) {
	return c.exists(ctx, c.p.ToColumnExistsStatement(t, f))
}

// SequenceExists reports whether the sequence backing the key f of t
// exists.
func (c Conn) SequenceExists(ctx context.Context, t *schema.Table, f *field.Descriptor) (bool, error) {
	query, err := c.p.ToSequenceExistsStatement(t, f)
	if err != nil {
		return false, err
	}
	return c.exists(ctx, query)
}

// CreateTables creates tables with their sequences, indexes and triggers.
// Tables that already exist are skipped. The definitions are validated
// before anything is executed; warnings are logged.
func (c Conn) CreateTables(ctx context.Context, tables ...*schema.Table) error {
	result := schema.Validate(tables...)
	if err := result.Err(); err != nil {
		return err
	}
	for _, w := range result.Warnings {
		c.logger().WarnContext(ctx, "table definition", "dialect", c.p.Dialect(), "table", w.Table, "field", w.Field, "warning", w.Message)
	}
	var missing []*schema.Table
	for _, t := range tables {
		ok, err := c.TableExists(ctx, t)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	stmts, err := c.p.ToCreateTableStatements(missing...)
	if err != nil {
		return err
	}
	return c.execAll(ctx, stmts)
}

// DropTables drops tables and their sequences, dependent tables first.
func (c Conn) DropTables(ctx context.Context, tables ...*schema.Table) error {
	return c.execAll(ctx, c.p.ToDropTableStatements(tables...))
}

func (c Conn) execAll(ctx context.Context, stmts []string) (rerr error) {
	ex, release, err := c.session(ctx)
	if err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, release()) }()
	for _, s := range stmts {
		if _, err := c.exec(ctx, ex, s, nil); err != nil {
			return err
		}
	}
	return nil
}
