package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

func TestIDStrategy(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p    *Provider
		want IDStrategy
	}{
		{SQLite(), IDLastInsertID},
		{MySQL(), IDLastInsertID},
		{Postgres(), IDReturning},
		{SQLServer(), IDReturning},
		{Oracle(), IDSequence},
		{Oracle12(), IDSequence},
		{Firebird(), IDSequence},
		{Firebird3(), IDReturning},
		{Postgres(WithIDStrategy(IDSequence)), IDSequence},
		{Postgres(WithIDStrategy(IDLastInsertID)), IDLastInsertID},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name()+"/"+tt.want.String(), func(t *testing.T) {
			got, key, err := tt.p.IDStrategy(personTable())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Id", key.Name)
		})
	}

	t.Run("NoKey", func(t *testing.T) {
		got, key, err := SQLite().IDStrategy(docTable())
		require.NoError(t, err)
		assert.Equal(t, IDNone, got)
		assert.Nil(t, key)
	})
	t.Run("Unsupported", func(t *testing.T) {
		for _, p := range []*Provider{
			SQLite(WithIDStrategy(IDSequence)),
			MySQL(WithIDStrategy(IDReturning)),
			Oracle(WithIDStrategy(IDLastInsertID)),
		} {
			_, _, err := p.IDStrategy(personTable())
			assert.True(t, orma.IsUnsupportedExpression(err), p.Name())
		}
	})
}

func TestInsertStatement(t *testing.T) {
	t.Parallel()
	parts := func(p *Provider) InsertParts {
		s, key, err := p.IDStrategy(personTable())
		require.NoError(t, err)
		return InsertParts{
			Table:    personTable(),
			Key:      key,
			Strategy: s,
			Columns:  []string{p.QuoteName("Name")},
			Values:   []string{p.Placeholder(1)},
			Args:     []any{"Ann"},
		}
	}
	t.Run("LastInsertID", func(t *testing.T) {
		ins, err := SQLite().InsertStatement(parts(SQLite()))
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "Person" ("Name") VALUES (?)`, ins.SQL)
		assert.Equal(t, "SELECT last_insert_rowid()", ins.LastIDSQL)
		assert.Equal(t, []any{"Ann"}, ins.Args)
	})
	t.Run("Returning", func(t *testing.T) {
		ins, err := Postgres().InsertStatement(parts(Postgres()))
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "Person" ("Name") VALUES ($1) RETURNING "Id"`, ins.SQL)
		assert.Equal(t, `"Id"`, ins.IDColumn)

		ins, err = Firebird3().InsertStatement(parts(Firebird3()))
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO Person (Name) VALUES (?) RETURNING Id`, ins.SQL)
	})
	t.Run("Output", func(t *testing.T) {
		ins, err := SQLServer().InsertStatement(parts(SQLServer()))
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO [Person] ([Name]) OUTPUT INSERTED.[Id] VALUES (@p1)`, ins.SQL)
	})
	t.Run("Sequence", func(t *testing.T) {
		p := Oracle()
		in := parts(p)
		in.Columns = []string{"Id", "Name"}
		in.Values = []string{":1", ":2"}
		in.Args = []any{nil, "Ann"}
		ins, err := p.InsertStatement(in)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO Person (Id, Name) VALUES (:1, :2)`, ins.SQL)
		assert.Equal(t, "SELECT Person_Id_seq.NEXTVAL FROM DUAL", ins.SequenceSQL)
		assert.Equal(t, 0, ins.IDArg)

		assert.Equal(t, "SELECT GEN_ID(Person_Id_seq, 1) FROM RDB$DATABASE", Firebird().SequenceSQL(personTable(), personTable().Fields[0]))
		assert.Equal(t, `SELECT nextval('"Person_Id_seq"')`, Postgres().SequenceSQL(personTable(), personTable().Fields[0]))

		_, err = p.InsertStatement(parts(p))
		assert.True(t, orma.IsInvalidArgument(err))
	})
	t.Run("DefaultValues", func(t *testing.T) {
		for p, want := range map[*Provider]string{
			SQLite():    `INSERT INTO "Person" DEFAULT VALUES`,
			MySQL():     "INSERT INTO `Person` () VALUES ()",
			Postgres():  `INSERT INTO "Person" DEFAULT VALUES RETURNING "Id"`,
			SQLServer(): `INSERT INTO [Person] OUTPUT INSERTED.[Id] DEFAULT VALUES`,
		} {
			in := parts(p)
			in.Columns, in.Values, in.Args = nil, nil, nil
			ins, err := p.InsertStatement(in)
			require.NoError(t, err)
			assert.Equal(t, want, ins.SQL, p.Name())
		}
		_, err := Oracle().InsertStatement(InsertParts{Table: docTable()})
		assert.True(t, orma.IsInvalidArgument(err))
	})
	t.Run("Mismatch", func(t *testing.T) {
		in := parts(SQLite())
		in.Values = nil
		_, err := SQLite().InsertStatement(in)
		assert.True(t, orma.IsInvalidArgument(err))
	})
}

func TestUpdateDelete(t *testing.T) {
	t.Parallel()
	tbl := schema.NewTable("Person", field.Int("Id").PrimaryKey()).WithSchema("hr")
	got, err := Postgres().UpdateStatement(tbl, []string{`"Name" = $1`}, `"Id" = $2`)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "hr"."Person" SET "Name" = $1 WHERE "Id" = $2`, got)
	_, err = Postgres().UpdateStatement(tbl, nil, "")
	assert.True(t, orma.IsInvalidArgument(err))

	assert.Equal(t, `DELETE FROM "hr"."Person"`, Postgres().DeleteStatement(tbl, ""))
	assert.Equal(t, `DELETE FROM [hr].[Person] WHERE [Id] = @p1`, SQLServer().DeleteStatement(tbl, "[Id] = @p1"))
}
