package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/query"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

func people() *schema.Table {
	return schema.NewTable("Person",
		field.Int64("Id").PrimaryKey().AutoIncrement(),
		field.String("Name").Size(50).Unique(),
	)
}

func tags() *schema.Table {
	return schema.NewTable("Tag",
		field.String("Code").Size(10).PrimaryKey(),
		field.String("Label").Nullable(),
	)
}

func mockDriver(t *testing.T, p *provider.Provider, opts ...Option) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return OpenDB(p, db, opts...), mock
}

func TestWithVars(t *testing.T) {
	drv, mock := mockDriver(t, provider.Postgres())
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	rows := &Rows{}
	err := drv.Query(WithVar(context.Background(), "foo", "bar"), "SELECT 1", []any{}, rows)
	require.NoError(t, err)
	require.NoError(t, rows.Close(), "rows should be closed to release the connection")
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET foo = 'baz'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "Tag"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("RESET foo").WillReturnResult(sqlmock.NewResult(0, 0))
	ctx := WithVar(WithVar(context.Background(), "foo", "bar"), "foo", "baz")
	v, ok := VarFromContext(ctx, "foo")
	require.True(t, ok)
	assert.Equal(t, "baz", v)
	require.NoError(t, drv.Exec(ctx, `DELETE FROM "Tag"`, []any{}, nil))
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Query(WithVar(context.Background(), "foo", "bar"), "SELECT 1", []any{}, rows))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	t.Run("MySQLQuoting", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.MySQL())
		mock.ExpectExec(`SET x = 'it''s a\\b'`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DO 1").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("SET x = NULL").WillReturnResult(sqlmock.NewResult(0, 0))
		require.NoError(t, drv.Exec(WithVar(context.Background(), "x", `it's a\b`), "DO 1", []any{}, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("InvalidName", func(t *testing.T) {
		drv, _ := mockDriver(t, provider.Postgres())
		err := drv.Exec(WithVar(context.Background(), "x; DROP TABLE t", "1"), "SELECT 1", []any{}, nil)
		require.ErrorContains(t, err, "invalid session variable name")
	})
}

func TestWithVarsHelpers(t *testing.T) {
	t.Parallel()
	ctx := WithVar(context.Background(), "app.tenant", "7")
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
		run    func(*Driver) error
	}{
		{
			name: "ExecStatement",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM "Tag"`).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			run: func(d *Driver) error {
				_, err := d.ExecStatement(ctx, provider.Statement{SQL: `DELETE FROM "Tag"`})
				return err
			},
		},
		{
			name: "QueryStatement",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT "Code" FROM "Tag"`).WillReturnRows(sqlmock.NewRows([]string{"Code"}).AddRow("a"))
			},
			run: func(d *Driver) error {
				rows, err := d.QueryStatement(ctx, provider.Statement{SQL: `SELECT "Code" FROM "Tag"`})
				if err != nil {
					return err
				}
				for rows.Next() {
				}
				return rows.Close()
			},
		},
		{
			name: "QueryInt64",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT COUNT(*) FROM "Tag"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
			},
			run: func(d *Driver) error {
				_, err := d.QueryInt64(ctx, `SELECT COUNT(*) FROM "Tag"`)
				return err
			},
		},
		{
			name: "DropTables",
			expect: func(m sqlmock.Sqlmock) {
				for _, s := range provider.Postgres().ToDropTableStatements(tags()) {
					m.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
				}
			},
			run: func(d *Driver) error {
				return d.DropTables(ctx, tags())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			drv, mock := mockDriver(t, provider.Postgres())
			mock.ExpectExec("SET app.tenant = '7'").WillReturnResult(sqlmock.NewResult(0, 0))
			tt.expect(mock)
			mock.ExpectExec("RESET app.tenant").WillReturnResult(sqlmock.NewResult(0, 0))
			require.NoError(t, tt.run(drv))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOpenDB(t *testing.T) {
	for _, p := range []*provider.Provider{provider.Postgres(), provider.MySQL(), provider.SQLite(), provider.Oracle()} {
		t.Run(p.Name(), func(t *testing.T) {
			drv, _ := mockDriver(t, p)
			assert.Equal(t, p.Dialect(), drv.Dialect())
			assert.Same(t, p, drv.Provider())
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("Bundled", func(t *testing.T) {
		drv, err := Open(provider.SQLite(), ":memory:")
		require.NoError(t, err)
		require.NoError(t, drv.Close())
	})
	t.Run("NotBundled", func(t *testing.T) {
		_, err := Open(provider.Firebird(), "db.fdb")
		require.ErrorContains(t, err, "no bundled driver")
	})
	t.Run("DriverName", func(t *testing.T) {
		name, ok := DriverName(dialect.Postgres)
		assert.True(t, ok)
		assert.Equal(t, "pgx", name)
		_, ok = DriverName(dialect.Oracle)
		assert.False(t, ok)
	})
}

func TestDriverExec(t *testing.T) {
	drv, mock := mockDriver(t, provider.Postgres())
	ctx := context.Background()

	t.Run("Result", func(t *testing.T) {
		mock.ExpectExec(`UPDATE "Tag" SET "Label" = $1`).WithArgs("x").WillReturnResult(sqlmock.NewResult(0, 3))
		var res Result
		require.NoError(t, drv.Exec(ctx, `UPDATE "Tag" SET "Label" = $1`, []any{"x"}, &res))
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.EqualValues(t, 3, n)
	})
	t.Run("InvalidArgs", func(t *testing.T) {
		err := drv.Exec(ctx, "SELECT 1", "x", nil)
		require.ErrorContains(t, err, "expect []any for args")
		err = drv.Query(ctx, "SELECT 1", []any{}, new(int))
		require.ErrorContains(t, err, "expect *sql.Rows")
	})
	t.Run("Statement", func(t *testing.T) {
		stmt, err := query.New(drv.Provider(), tags()).Where(query.String("Code").EQ("a")).ToDeleteStatement()
		require.NoError(t, err)
		mock.ExpectExec(`DELETE FROM "Tag" WHERE "Code" = $1`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
		n, err := drv.ExecStatement(ctx, stmt)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
	t.Run("QueryStatement", func(t *testing.T) {
		stmt, err := query.New(drv.Provider(), tags()).Select(query.C("Label")).Where(query.String("Code").EQ("a")).ToSelectStatement()
		require.NoError(t, err)
		mock.ExpectQuery(`SELECT "Label" FROM "Tag" WHERE "Code" = $1`).WithArgs("a").
			WillReturnRows(sqlmock.NewRows([]string{"Label"}).AddRow("first"))
		rows, err := drv.QueryStatement(ctx, stmt)
		require.NoError(t, err)
		defer rows.Close()
		require.True(t, rows.Next())
		var label string
		require.NoError(t, rows.Scan(&label))
		assert.Equal(t, "first", label)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	row := schema.Row{"Name": "Ann"}

	t.Run("LastInsertID", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.SQLite())
		ins, err := query.New(drv.Provider(), people()).ToInsertStatement(row)
		require.NoError(t, err)
		require.Equal(t, provider.IDLastInsertID, ins.Strategy)
		mock.ExpectExec(ins.SQL).WithArgs("Ann").WillReturnResult(sqlmock.NewResult(7, 1))
		id, err := drv.Insert(ctx, ins)
		require.NoError(t, err)
		assert.EqualValues(t, 7, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("LastInsertIDQuery", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.SQLite())
		ins, err := query.New(drv.Provider(), people()).ToInsertStatement(row)
		require.NoError(t, err)
		require.NotEmpty(t, ins.LastIDSQL)
		mock.ExpectExec(ins.SQL).WithArgs("Ann").WillReturnResult(sqlmock.NewErrorResult(errors.New("unsupported")))
		mock.ExpectQuery(ins.LastIDSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
		id, err := drv.Insert(ctx, ins)
		require.NoError(t, err)
		assert.EqualValues(t, 5, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Returning", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.Postgres())
		ins, err := query.New(drv.Provider(), people()).ToInsertStatement(row)
		require.NoError(t, err)
		require.Equal(t, provider.IDReturning, ins.Strategy)
		mock.ExpectQuery(ins.SQL).WithArgs("Ann").WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(9))
		id, err := drv.Insert(ctx, ins)
		require.NoError(t, err)
		assert.EqualValues(t, 9, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Sequence", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.Oracle())
		ins, err := query.New(drv.Provider(), people()).ToInsertStatement(row)
		require.NoError(t, err)
		require.Equal(t, provider.IDSequence, ins.Strategy)
		mock.ExpectQuery(ins.SequenceSQL).WillReturnRows(sqlmock.NewRows([]string{"NEXTVAL"}).AddRow(11))
		mock.ExpectExec(ins.SQL).WithArgs(int64(11), "Ann").WillReturnResult(sqlmock.NewResult(0, 1))
		id, err := drv.Insert(ctx, ins)
		require.NoError(t, err)
		assert.EqualValues(t, 11, id)
		assert.Nil(t, ins.Args[ins.IDArg], "the compiled statement is not modified")
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("None", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.SQLServer())
		ins, err := query.New(drv.Provider(), tags()).ToInsertStatement(schema.Row{"Code": "a", "Label": "first"})
		require.NoError(t, err)
		require.Equal(t, provider.IDNone, ins.Strategy)
		mock.ExpectExec(ins.SQL).WithArgs("a", "first").WillReturnResult(sqlmock.NewResult(0, 1))
		id, err := drv.Insert(ctx, ins)
		require.NoError(t, err)
		assert.Zero(t, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("Tx", func(t *testing.T) {
		drv, mock := mockDriver(t, provider.Postgres())
		ins, err := query.New(drv.Provider(), people()).ToInsertStatement(row)
		require.NoError(t, err)
		mock.ExpectBegin()
		mock.ExpectQuery(ins.SQL).WithArgs("Ann").WillReturnRows(sqlmock.NewRows([]string{"Id"}).AddRow(3))
		mock.ExpectRollback()
		tx, err := drv.BeginTx(ctx, nil)
		require.NoError(t, err)
		id, err := tx.Insert(ctx, ins)
		require.NoError(t, err)
		assert.EqualValues(t, 3, id)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	p := provider.Postgres()
	tbl := people()
	name, _ := tbl.Field("Name")
	drv, mock := mockDriver(t, p)

	mock.ExpectQuery(p.ToTableExistsStatement(tbl)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	ok, err := drv.TableExists(ctx, tbl)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(p.ToColumnExistsStatement(tbl, name)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	ok, err = drv.ColumnExists(ctx, tbl, name)
	require.NoError(t, err)
	assert.False(t, ok)

	seq, err := p.ToSequenceExistsStatement(tbl, tbl.PrimaryKey())
	require.NoError(t, err)
	mock.ExpectQuery(seq).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	ok, err = drv.SequenceExists(ctx, tbl, tbl.PrimaryKey())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())

	t.Run("Unsupported", func(t *testing.T) {
		drv, _ := mockDriver(t, provider.SQLite())
		_, err := drv.SequenceExists(ctx, tbl, tbl.PrimaryKey())
		assert.True(t, orma.IsUnsupportedExpression(err))
	})
}

func TestCreateTables(t *testing.T) {
	ctx := context.Background()
	p := provider.Postgres()
	drv, mock := mockDriver(t, p)
	stmts, err := p.ToCreateTableStatements(people())
	require.NoError(t, err)

	mock.ExpectQuery(p.ToTableExistsStatement(people())).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(p.ToTableExistsStatement(tags())).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	for _, s := range stmts {
		mock.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, drv.CreateTables(ctx, people(), tags()))

	for _, s := range p.ToDropTableStatements(people()) {
		mock.ExpectExec(s).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, drv.DropTables(ctx, people()))
	require.NoError(t, mock.ExpectationsWereMet())

	t.Run("Invalid", func(t *testing.T) {
		drv, mock := mockDriver(t, p)
		orders := schema.NewTable("Order",
			field.Int64("Id").PrimaryKey(),
			field.Int64("PersonId").References("Person", "Nickname"),
		)
		err := drv.CreateTables(ctx, people(), orders)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-existent field Person.Nickname")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv, mock := mockDriver(t, provider.SQLite(), WithLogger(log))
	mock.ExpectExec(`DELETE FROM "Tag"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "Person"`).WillReturnError(errors.New("no such table: Person"))

	_, err := drv.ExecStatement(context.Background(), provider.Statement{SQL: `DELETE FROM "Tag"`})
	require.NoError(t, err)
	_, err = drv.ExecStatement(context.Background(), provider.Statement{SQL: `DELETE FROM "Person"`})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"exec"`)
	assert.Contains(t, out, `"dialect":"sqlite"`)
	assert.Contains(t, out, `"msg":"exec failed"`)
	assert.Contains(t, out, "no such table")
}
