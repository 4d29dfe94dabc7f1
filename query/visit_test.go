package query

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma"
	"github.com/syssam/orma/provider"
)

// where compiles pred as the WHERE clause of a query over people and
// returns the clause and its arguments.
func where(t *testing.T, p *provider.Provider, pred Node) (string, []any) {
	t.Helper()
	stmt, err := New(p, people()).Select(C("Id")).Where(pred).ToSelectStatement()
	require.NoError(t, err)
	_, clause, ok := strings.Cut(stmt.SQL, " WHERE ")
	require.True(t, ok, stmt.SQL)
	return clause, stmt.Args
}

// selected compiles n as the only projection of a query over people and
// returns the select list.
func selected(t *testing.T, p *provider.Provider, n Node) string {
	t.Helper()
	stmt, err := New(p, people()).Select(n).ToSelectStatement()
	require.NoError(t, err)
	i := strings.LastIndex(stmt.SQL, " FROM ")
	require.Positive(t, i, stmt.SQL)
	return strings.TrimPrefix(stmt.SQL[:i], "SELECT ")
}

type predicateCase struct {
	name string
	p    *provider.Provider
	pred Node
	want string
	args []any
}

func runPredicates(t *testing.T, tests []predicateCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := tt.p
			if p == nil {
				p = provider.SQLite()
			}
			got, args := where(t, p, tt.pred)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, args)
			assert.NotContains(t, got, "= NULL")
		})
	}
}

func TestNullSemantics(t *testing.T) {
	t.Parallel()
	city := "NY"
	runPredicates(t, []predicateCase{
		{name: "eq nil", pred: EQ(C("City"), Value(nil)), want: `"City" IS NULL`},
		{name: "neq nil", pred: NEQ(C("City"), Value(nil)), want: `"City" IS NOT NULL`},
		{name: "nil on the left", pred: EQ(Value(nil), C("City")), want: `"City" IS NULL`},
		{name: "typed nil pointer", pred: Typed[*string]("City").EQ(nil), want: `"City" IS NULL`},
		{name: "typed nil pointer neq", pred: Typed[*string]("City").NEQ(nil), want: `"City" IS NOT NULL`},
		{name: "pointer", pred: Typed[*string]("City").EQ(&city), want: `"City" = ?`, args: []any{"NY"}},
		{name: "is null", pred: IsNull(C("City")), want: `"City" IS NULL`},
		{name: "not null", pred: String("City").NotNull(), want: `"City" IS NOT NULL`},
		{name: "nil eq nil", pred: EQ(Value(nil), Value(nil)), want: `1 = 1`},
		{name: "nil neq nil", pred: NEQ(Value(nil), Value(nil)), want: `1 = 0`},
		{name: "oracle", p: provider.Oracle(), pred: EQ(C("City"), Value(nil)), want: `City IS NULL`},
	})
}

func TestInList(t *testing.T) {
	t.Parallel()
	runPredicates(t, []predicateCase{
		{name: "variadic", pred: Int("Age").In(1, 2, 3), want: `"Age" IN (?, ?, ?)`, args: []any{int64(1), int64(2), int64(3)}},
		{name: "slice", pred: InSlice(C("Age"), []int{1, 2, 3}), want: `"Age" IN (?, ?, ?)`, args: []any{int64(1), int64(2), int64(3)}},
		{name: "spread", pred: In(C("Age"), []any{1, 2, 3}...), want: `"Age" IN (?, ?, ?)`, args: []any{int64(1), int64(2), int64(3)}},
		{name: "not in", pred: String("City").NotIn("NY", "LA"), want: `"City" NOT IN (?, ?)`, args: []any{"NY", "LA"}},
		{name: "null item", pred: In(C("City"), "NY", nil), want: `("City" IN (?) OR "City" IS NULL)`, args: []any{"NY"}},
		{name: "not in null item", pred: NotIn(C("City"), "NY", nil), want: `("City" NOT IN (?) AND "City" IS NOT NULL)`, args: []any{"NY"}},
		{name: "only null", pred: In(C("City"), nil), want: `"City" IS NULL`},
		{name: "empty", pred: In(C("Age")), want: `1 = 0`},
		{name: "empty not in", pred: NotIn(C("Age")), want: `1 = 1`},
		{name: "empty postgres", p: provider.Postgres(), pred: InSlice(C("Age"), []int{}), want: `FALSE`},
		{name: "postgres", p: provider.Postgres(), pred: Int64("Id").In(7, 8), want: `"Id" IN ($1, $2)`, args: []any{int64(7), int64(8)}},
		{name: "oracle", p: provider.Oracle(), pred: String("City").In("NY", "LA"), want: `City IN (:1, :2)`, args: []any{"NY", "LA"}},
		{name: "expression items", pred: In(C("Age"), C("Id"), Add(C("Id"), Value(1))), want: `"Age" IN ("Id", ("Id" + ?))`, args: []any{int64(1)}},
	})

	t.Run("Inline", func(t *testing.T) {
		stmt, err := New(provider.SQLServer(), people()).Parameterized(false).Select(C("Id")).Where(String("City").In("NY", "LA")).ToSelectStatement()
		require.NoError(t, err)
		assert.Equal(t, `SELECT [Id] FROM [Person] WHERE [City] IN (N'NY', N'LA')`, stmt.SQL)
		assert.Empty(t, stmt.Args)
	})
	t.Run("Subquery", func(t *testing.T) {
		p := provider.Postgres()
		sub := New(p, orders()).Select(C("PersonId")).Where(Int("Quantity").GT(5))
		got, args := where(t, p, And(String("Name").EQ("Ann"), InQuery(C("Id"), sub), Int("Age").LT(60)))
		assert.Equal(t, `"Name" = $1 AND "Id" IN (SELECT "PersonId" FROM "Order" WHERE "Quantity" > $2) AND "Age" < $3`, got)
		assert.Equal(t, []any{"Ann", int64(5), int64(60)}, args)

		got, _ = where(t, p, NotInQuery(C("Id"), sub))
		assert.Equal(t, `"Id" NOT IN (SELECT "PersonId" FROM "Order" WHERE "Quantity" > $1)`, got)
	})
	t.Run("SubqueryError", func(t *testing.T) {
		sub := New(provider.SQLite(), orders()).Take(-1)
		e := New(provider.SQLite(), people()).Where(InQuery(C("Id"), sub))
		assert.True(t, orma.IsInvalidArgument(e.Err()))
	})
	t.Run("InvalidRight", func(t *testing.T) {
		e := New(provider.SQLite(), people()).Where(BinaryNode{Op: OpIn, L: C("Age"), R: C("Id")})
		assert.True(t, orma.IsInvalidArgument(e.Err()))
	})
}

func TestBoolPredicates(t *testing.T) {
	t.Parallel()
	runPredicates(t, []predicateCase{
		{name: "sqlite column", pred: Bool("Active"), want: `"Active" = 1`},
		{name: "postgres column", p: provider.Postgres(), pred: Bool("Active"), want: `"Active"`},
		{name: "sqlserver column", p: provider.SQLServer(), pred: Bool("Active"), want: `[Active] = 1`},
		{name: "firebird3 column", p: provider.Firebird3(), pred: Bool("Active"), want: `Active`},
		{name: "not", pred: Not(Bool("Active")), want: `NOT ("Active" = 1)`},
		{name: "postgres not", p: provider.Postgres(), pred: Not(Bool("Active")), want: `NOT ("Active")`},
		{name: "or", pred: Or(Bool("Active"), Int("Age").GT(1)), want: `"Active" = 1 OR "Age" > ?`, args: []any{int64(1)}},
		{name: "eq", pred: Bool("Active").EQ(true), want: `"Active" = ?`, args: []any{int64(1)}},
		{name: "postgres eq", p: provider.Postgres(), pred: Bool("Active").EQ(false), want: `"Active" = $1`, args: []any{false}},
		{name: "constant", pred: Value(true), want: `1 = 1`},
		{name: "postgres constant", p: provider.Postgres(), pred: Value(false), want: `FALSE`},
		{name: "and true", pred: And(Value(true), Int("Age").GT(1)), want: `"Age" > ?`, args: []any{int64(1)}},
		{name: "or false", pred: Or(Value(false), Int("Age").GT(1)), want: `"Age" > ?`, args: []any{int64(1)}},
		{
			name: "grouping",
			pred: Or(And(String("Name").EQ("Ann"), Int("Age").GT(20)), And(String("City").EQ("LA"), Not(Bool("Active")))),
			want: `("Name" = ? AND "Age" > ?) OR ("City" = ? AND NOT ("Active" = 1))`,
			args: []any{"Ann", int64(20), "LA"},
		},
		{
			name: "flattened",
			pred: And(And(Int("Age").GT(1), Int("Age").LT(9)), Int("Id").NEQ(3)),
			want: `"Age" > ? AND "Age" < ? AND "Id" <> ?`,
			args: []any{int64(1), int64(9), int64(3)},
		},
	})
}

func TestConstantFolding(t *testing.T) {
	t.Parallel()
	runPredicates(t, []predicateCase{
		{name: "arithmetic", pred: GT(C("Age"), Add(Value(10), Value(8))), want: `"Age" > 18`},
		{name: "negation", pred: EQ(C("Age"), Neg(Value(5))), want: `"Age" = -5`},
		{name: "upper", pred: EQ(C("Name"), Upper(Value("ann"))), want: `"Name" = 'ANN'`},
		{name: "concat", pred: EQ(C("Name"), Concat(Value("a"), Value("b"))), want: `"Name" = 'ab'`},
		{name: "string plus", pred: EQ(C("Name"), Add(Value("a"), Value("b"))), want: `"Name" = 'ab'`},
		{name: "substring", pred: EQ(C("Name"), Substring(Value("hello"), 1, 3)), want: `"Name" = 'ell'`},
		{name: "length", pred: EQ(C("Age"), Length(Value("héllo"))), want: `"Age" = 5`},
		{name: "comparison", pred: GT(Value(2), Value(1)), want: `1 = 1`},
		{name: "not", pred: Not(EQ(Value(1), Value(1))), want: `1 = 0`},
		{
			name: "decimal",
			pred: EQ(C("Salary"), Mul(Value(decimal.NewFromInt(2)), Value(decimal.RequireFromString("1.25")))),
			want: `"Salary" = 2.5`,
		},
		{name: "division by zero", pred: EQ(C("Age"), Div(Value(1), Value(0))), want: `"Age" = (? / ?)`, args: []any{int64(1), int64(0)}},
		{name: "arguments in text order", pred: EQ(Value(5), Add(C("Age"), Value(3))), want: `? = ("Age" + ?)`, args: []any{int64(5), int64(3)}},
	})
}

func TestLike(t *testing.T) {
	t.Parallel()
	runPredicates(t, []predicateCase{
		{name: "sqlite prefix", pred: String("Name").HasPrefix("A_b%"), want: `"Name" LIKE ? ESCAPE '\'`, args: []any{`A\_b\%%`}},
		{name: "postgres contains", p: provider.Postgres(), pred: String("Name").Contains("ann"), want: `"Name" ILIKE $1`, args: []any{"%ann%"}},
		{name: "oracle suffix", p: provider.Oracle(), pred: String("Name").HasSuffix("son"), want: `UPPER(Name) LIKE UPPER(:1) ESCAPE '\'`, args: []any{"%son"}},
		{name: "oracle case sensitive", p: provider.Oracle(provider.WithCaseSensitiveLike(true)), pred: String("Name").HasSuffix("son"), want: `Name LIKE :1 ESCAPE '\'`, args: []any{"%son"}},
		{name: "sqlserver brackets", p: provider.SQLServer(), pred: String("Name").Contains("5%"), want: `[Name] LIKE @p1`, args: []any{"%5[%]%"}},
		{name: "mysql backslash", p: provider.MySQL(), pred: String("Name").HasPrefix(`a\b`), want: "`Name` LIKE ?", args: []any{`a\\b%`}},
		{name: "column pattern", pred: Call("startsWith", C("Name"), C("City")), want: `"Name" LIKE ("City" || '%') ESCAPE '\'`},
		{name: "equal fold", pred: String("Name").EqualFold("ann"), want: `UPPER("Name") = UPPER(?)`, args: []any{"ann"}},
	})

	t.Run("NonStringPattern", func(t *testing.T) {
		e := New(provider.SQLite(), people()).Where(Call("contains", C("Name"), Value(3)))
		assert.True(t, orma.IsInvalidArgument(e.Err()))
	})
	t.Run("Inline", func(t *testing.T) {
		stmt, err := New(provider.SQLite(), people()).Parameterized(false).Select(C("Id")).Where(String("Name").Contains("it's")).ToSelectStatement()
		require.NoError(t, err)
		assert.Equal(t, `SELECT "Id" FROM "Person" WHERE "Name" LIKE '%it''s%' ESCAPE '\'`, stmt.SQL)
	})
}

func TestFunctions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		p    *provider.Provider
		n    Node
		want string
	}{
		{"sqlite substring", provider.SQLite(), As(Substring(C("Name"), 0, 2), "S"), `SUBSTR("Name", 1, 2) AS "S"`},
		{"firebird substring", provider.Firebird(), As(String("Name").Substring(0, 2), "S"), `SUBSTRING(Name FROM 1 FOR 2) AS S`},
		{"sqlserver substring", provider.SQLServer(), Substring(C("Name"), 2), `SUBSTRING([Name], 3, LEN([Name]))`},
		{"column start", provider.SQLite(), Call("substring", C("Name"), C("Age")), `SUBSTR("Name", ("Age" + 1))`},
		{"sqlserver length", provider.SQLServer(), String("Name").Length(), `LEN([Name])`},
		{"mysql length", provider.MySQL(), Length(C("Name")), "CHAR_LENGTH(`Name`)"},
		{"sqlserver trim", provider.SQLServer(), Trim(C("Name")), `LTRIM(RTRIM([Name]))`},
		{"lower", provider.Postgres(), String("Name").Lower(), `LOWER("Name")`},
		{"coalesce", provider.SQLite(), Coalesce(C("City"), Value("n/a")), `COALESCE("City", 'n/a')`},
		{"sqlserver coalesce", provider.SQLServer(), Coalesce(C("City"), Value("n/a")), `COALESCE([City], N'n/a')`},
		{"arithmetic", provider.SQLite(), As(Mod(Mul(C("Age"), Value(2)), Value(7)), "X"), `(("Age" * 2) % 7) AS "X"`},
		{"oracle mod", provider.Oracle(), As(Mod(C("Age"), Value(7)), "X"), `MOD(Age, 7) AS X`},
		{"round", provider.SQLite(), Call("round", C("Salary")), `ROUND("Salary", 0)`},
		{"raw", provider.SQLite(), As(SQL("julianday('now')"), "Now"), `julianday('now') AS "Now"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, selected(t, tt.p, tt.n))
		})
	}

	t.Run("NegativeStart", func(t *testing.T) {
		e := New(provider.SQLite(), people()).Select(Substring(C("Name"), -1))
		assert.True(t, orma.IsInvalidArgument(e.Err()))
	})
	t.Run("Arity", func(t *testing.T) {
		e := New(provider.SQLite(), people()).Select(Call("upper", C("Name"), C("City")))
		assert.True(t, orma.IsInvalidArgument(e.Err()))
	})
}

func TestNumber(t *testing.T) {
	t.Parallel()
	ps := &params{args: []any{"a", "b"}}
	marker := func(i string) string { return mark + i + mark }
	sql, args := ps.number(provider.Postgres(), "x = "+marker("1")+" AND y = "+marker("0")+" OR x = "+marker("1"))
	assert.Equal(t, "x = $1 AND y = $2 OR x = $3", sql)
	assert.Equal(t, []any{"b", "a", "b"}, args)

	sql, args = (&params{}).number(provider.SQLite(), "x = 1")
	assert.Equal(t, "x = 1", sql)
	assert.Nil(t, args)
}

func TestNULText(t *testing.T) {
	t.Parallel()
	const text = "a\x000\x00b"
	tests := []struct {
		name string
		q    func(*Expression) *Expression
		is   func(error) bool
	}{
		{"inline literal", func(e *Expression) *Expression { return e.Select(As(Value(text), "V")) }, orma.IsConversionError},
		{"inline pattern", func(e *Expression) *Expression {
			return e.Parameterized(false).Select(C("Id")).Where(String("Name").Contains(text))
		}, orma.IsConversionError},
		{"raw", func(e *Expression) *Expression { return e.Select(C("Id")).WhereRaw("\"Name\" = '" + text + "'") }, orma.IsInvalidArgument},
		{"alias", func(e *Expression) *Expression { return e.Select(As(C("Name"), text)) }, orma.IsInvalidArgument},
		{"alias ref", func(e *Expression) *Expression { return e.Select(C("Name")).OrderBy(Alias(text)) }, orma.IsInvalidArgument},
		{"column", func(e *Expression) *Expression { return e.Select(C(text)) }, orma.IsInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.q(New(provider.SQLite(), people())).ToSelectStatement()
			require.Error(t, err)
			assert.True(t, tt.is(err), err.Error())
		})
	}

	t.Run("Bound", func(t *testing.T) {
		t.Parallel()
		stmt, err := New(provider.Postgres(), people()).Select(C("Id")).Where(EQ(C("Name"), Value(text)), Int("Age").GT(3)).ToSelectStatement()
		require.NoError(t, err)
		assert.Equal(t, `SELECT "Id" FROM "Person" WHERE "Name" = $1 AND "Age" > $2`, stmt.SQL)
		assert.Equal(t, []any{text, int64(3)}, stmt.Args)
	})
}
