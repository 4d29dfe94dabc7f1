package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
)

// validIdentifierRe validates session variable names (alphanumeric,
// underscores, dots for scope.name).
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// discard is the logger used when none is configured.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Driver executes statements compiled by a provider over a database/sql
// connection pool.
type Driver struct {
	Conn
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger logs every statement at debug level and failures at error
// level.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDriver creates a new Driver with the given Conn.
func NewDriver(c Conn, opts ...Option) *Driver {
	if c.log == nil {
		c.log = discard
	}
	d := &Driver{Conn: c}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OpenDB wraps the given database/sql.DB with a Driver rendering through p.
func OpenDB(p *provider.Provider, db *sql.DB, opts ...Option) *Driver {
	return NewDriver(Conn{ExecQuerier: db, p: p}, opts...)
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Driver interface.
func (d Driver) Dialect() string { return d.p.Dialect() }

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (*Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{ExecQuerier: tx, p: d.p, log: d.log, observe: d.observe},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection pool.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a transaction with the statement helpers of Conn.
type Tx struct {
	Conn
	driver.Tx
}

// ctxVarsKey is the key used for attaching and reading the context variables.
type ctxVarsKey struct{}

// sessionVars holds session variables to set before every statement.
type sessionVars struct {
	vars []struct{ k, v string }
}

// WithVar returns a new context that holds the session variable to be
// executed before every statement.
func WithVar(ctx context.Context, name, value string) context.Context {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	sv.vars = append(sv.vars[:len(sv.vars):len(sv.vars)], struct{ k, v string }{k: name, v: value})
	return context.WithValue(ctx, ctxVarsKey{}, sv)
}

// VarFromContext returns the session variable value from the context.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	for i := len(sv.vars) - 1; i >= 0; i-- {
		if sv.vars[i].k == name {
			return sv.vars[i].v, true
		}
	}
	return "", false
}

// WithIntVar calls WithVar with the string representation of the value.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier. It is shared by
// Driver and Tx.
type Conn struct {
	ExecQuerier
	p       *provider.Provider
	log     *slog.Logger
	observe observer
}

// observer is called after every statement a Conn executes.
type observer func(ctx context.Context, query string, args []any, d time.Duration, err error, isQuery bool)

// Provider returns the provider the statements are compiled with.
func (c Conn) Provider() *provider.Provider { return c.p }

func (c Conn) logger() *slog.Logger {
	if c.log == nil {
		return discard
	}
	return c.log
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: set session vars: %w", err)
	}
	if cf != nil {
		defer func() { rerr = errors.Join(rerr, cf()) }()
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.exec(ctx, ex, query, argv); err != nil {
			return err
		}
	case *sql.Result:
		res, err := c.exec(ctx, ex, query, argv)
		if err != nil {
			return err
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: set session vars: %w", err)
	}
	rows, err := c.query(ctx, ex, query, argv)
	if err != nil {
		if cf != nil {
			err = errors.Join(err, cf())
		}
		return err
	}
	*vr = Rows{rows}
	if cf != nil {
		vr.ColumnScanner = rowsWithCloser{rows, cf}
	}
	return nil
}

func (c Conn) exec(ctx context.Context, ex ExecQuerier, query string, args []any) (sql.Result, error) {
	c.logger().DebugContext(ctx, "exec", "dialect", c.p.Name(), "query", query, "args", args)
	start := time.Now()
	res, err := ex.ExecContext(ctx, query, args...)
	if c.observe != nil {
		c.observe(ctx, query, args, time.Since(start), err, false)
	}
	if err != nil {
		err = classify(err)
		c.logger().ErrorContext(ctx, "exec failed", "query", query, "error", err)
		return nil, fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return res, nil
}

func (c Conn) query(ctx context.Context, ex ExecQuerier, query string, args []any) (*sql.Rows, error) {
	c.logger().DebugContext(ctx, "query", "dialect", c.p.Name(), "query", query, "args", args)
	start := time.Now()
	rows, err := ex.QueryContext(ctx, query, args...)
	if c.observe != nil {
		c.observe(ctx, query, args, time.Since(start), err, true)
	}
	if err != nil {
		err = classify(err)
		c.logger().ErrorContext(ctx, "query failed", "query", query, "error", err)
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return rows, nil
}

// session returns the ExecQuerier of one operation with the session
// variables of ctx set, and the function releasing it.
func (c Conn) session(ctx context.Context) (ExecQuerier, func() error, error) {
	ex, cf, err := c.maySetVars(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("dialect/sql: set session vars: %w", err)
	}
	if cf == nil {
		cf = func() error { return nil }
	}
	return ex, cf, nil
}

// maySetVars sets the session variables before executing a statement.
func (c Conn) maySetVars(ctx context.Context) (ExecQuerier, func() error, error) {
	sv, _ := ctx.Value(ctxVarsKey{}).(sessionVars)
	if len(sv.vars) == 0 {
		return c.ExecQuerier, nil, nil
	}
	var (
		ex    ExecQuerier  // Underlying ExecQuerier.
		cf    func() error // Close function.
		reset []string     // Reset variables.
		seen  = make(map[string]struct{}, len(sv.vars))
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, cf = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("unsupported ExecQuerier type: %T", c.ExecQuerier)
	}
	for _, s := range sv.vars {
		if !isValidIdentifier(s.k) {
			if cf != nil {
				_ = cf()
			}
			return nil, nil, fmt.Errorf("invalid session variable name: %q", s.k)
		}
		if _, ok := seen[s.k]; !ok {
			switch c.p.Dialect() {
			case dialect.Postgres:
				reset = append(reset, "RESET "+s.k)
			case dialect.MySQL:
				reset = append(reset, "SET "+s.k+" = NULL")
			}
			seen[s.k] = struct{}{}
		}
		if _, err := ex.ExecContext(ctx, "SET "+s.k+" = "+c.p.Quote(s.v)); err != nil {
			if cf != nil {
				err = errors.Join(err, cf())
			}
			return nil, nil, err
		}
	}
	// Pooled connections are cleaned before they are returned, even when
	// ctx was canceled.
	if cls := cf; cf != nil && len(reset) > 0 {
		cf = func() error {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(cleanupCtx, q); err != nil {
					return errors.Join(err, cls())
				}
			}
			return cls()
		}
	}
	return ex, cf, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// rowsWithCloser wraps the ColumnScanner interface with a custom Close hook.
type rowsWithCloser struct {
	ColumnScanner
	closer func() error
}

// Close closes the underlying ColumnScanner and calls the custom closer.
func (r rowsWithCloser) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.closer())
}
