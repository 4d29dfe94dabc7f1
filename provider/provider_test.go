package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/naming"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

func TestByName(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]string{
		"sqlite":        "sqlite",
		"SQLite3":       "sqlite",
		"mysql":         "mysql",
		"mysql5":        "mysql5",
		"pgx":           "postgres",
		"mssql":         "sqlserver",
		"sqlserver2008": "sqlserver2008",
		"oracle":        "oracle11",
		"oracle12":      "oracle12",
		"firebird":      "firebird2.5",
		" firebird3 ":   "firebird3",
	} {
		p, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, p.Name(), name)
	}
	_, err := ByName("db2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"db2"`)
	assert.Contains(t, Names(), "postgres")
	assert.IsIncreasing(t, Names())
	for _, name := range Names() {
		p, err := ByName(name)
		require.NoError(t, err)
		assert.True(t, dialect.Valid(p.Dialect()), name)
	}
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "?", SQLite().Placeholder(3))
	assert.Equal(t, "?", MySQL().Placeholder(3))
	assert.Equal(t, "?", Firebird().Placeholder(3))
	assert.Equal(t, "$3", Postgres().Placeholder(3))
	assert.Equal(t, "@p3", SQLServer().Placeholder(3))
	assert.Equal(t, ":3", Oracle().Placeholder(3))
}

func TestQuoteName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p    *Provider
		name string
		want string
	}{
		{SQLite(), "Name", `"Name"`},
		{SQLite(), `we"ird`, `"we""ird"`},
		{MySQL(), "Name", "`Name`"},
		{MySQL(), "we`ird", "`we``ird`"},
		{Postgres(), "Name", `"Name"`},
		{SQLServer(), "Name", "[Name]"},
		{SQLServer(), "we]ird", "[we]]ird]"},
		{Oracle(), "Name", "Name"},
		{Oracle(), "ORDER", `"ORDER"`},
		{Oracle(), "order", `"order"`},
		{Oracle(), "_private", `"_private"`},
		{Oracle(), "with space", `"with space"`},
		{Firebird(), "Person", "Person"},
		{Firebird(), "Position", `"Position"`},
	}
	for _, tt := range tests {
		t.Run(tt.p.Name()+"/"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.QuoteName(tt.name))
		})
	}
}

func TestCatalogName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "PERSON", Oracle().CatalogName("Person"))
	assert.Equal(t, "Order", Oracle().CatalogName("Order"))
	assert.Equal(t, "Person", Postgres().CatalogName("Person"))
}

func TestQuoteTable(t *testing.T) {
	t.Parallel()
	tbl := schema.NewTable("Person", field.Int("Id").PrimaryKey()).WithSchema("hr")
	assert.Equal(t, `"hr"."Person"`, Postgres().QuoteTable(tbl))
	assert.Equal(t, "[hr].[Person]", SQLServer().QuoteTable(tbl))
	assert.Equal(t, `"hr"."Person"."Id"`, Postgres().QualifiedColumn(tbl, tbl.Fields[0]))

	p := Postgres(WithNamingStrategy(naming.Chain(naming.Pluralized{}, naming.Underscore())))
	tbl = schema.NewTable("OrderLine", field.Int("UnitPrice"))
	assert.Equal(t, `"order_lines"`, p.QuoteTable(tbl))
	assert.Equal(t, `"unit_price"`, p.QuoteColumn(tbl.Fields[0]))
	assert.Equal(t, "order_lines_unit_price_seq", p.SequenceName(tbl, tbl.Fields[0]))

	tbl = schema.NewTable("Person", field.Int("Id").StorageKey("person_id")).WithAlias("people")
	assert.Equal(t, `"people"`, Postgres().QuoteTable(tbl))
	assert.Equal(t, `"person_id"`, Postgres().QuoteColumn(tbl.Fields[0]))
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `'O''Brien'`, SQLite().Quote("O'Brien"))
	assert.Equal(t, `'a\\b'`, MySQL().Quote(`a\b`))
	assert.Equal(t, `'a\b'`, Postgres().Quote(`a\b`))
	assert.Equal(t, `N'O''Brien'`, SQLServer().Quote("O'Brien"))
}

func TestBoolLiteral(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "TRUE", Postgres().BoolLiteral(true))
	assert.Equal(t, "1", SQLite().BoolLiteral(true))
	assert.Equal(t, "0", SQLServer().BoolLiteral(false))
	assert.Equal(t, "FALSE", Firebird3().BoolLiteral(false))
	assert.Equal(t, "0", Firebird().BoolLiteral(false))
}

func TestWith(t *testing.T) {
	t.Parallel()
	base := Postgres()
	p := base.With(WithParameterized(false), WithPaging(PagingRowNumber), WithMaxIdentifierLength(10))
	assert.True(t, base.Parameterized())
	assert.False(t, p.Parameterized())
	assert.Equal(t, PagingLimitOffset, base.Paging())
	assert.Equal(t, PagingRowNumber, p.Paging())
	assert.Equal(t, 63, base.Capabilities().MaxIdentifierLength)
	assert.Equal(t, 10, p.Capabilities().MaxIdentifierLength)
}

func TestIdentifierLimit(t *testing.T) {
	t.Parallel()
	p := Firebird()
	long := "CustomerShippingAddressLineNumber"
	require.Greater(t, len(long), 31)
	assert.LessOrEqual(t, len(p.Ident(long)), 31)
	assert.Equal(t, p.Ident(long), p.Ident(long))

	t.Run("Distinct", func(t *testing.T) {
		tbl := schema.NewTable("Address",
			field.Int("Id").PrimaryKey(),
			field.String("CustomerShippingAddressLineNumberOne"),
			field.String("CustomerBillingAddressLineNumberTwo"),
		)
		require.NoError(t, p.CheckTable(tbl))
		a, b := p.ColumnName(tbl.Fields[1]), p.ColumnName(tbl.Fields[2])
		assert.NotEqual(t, a, b)
		assert.LessOrEqual(t, len(a), 31)
		assert.LessOrEqual(t, len(b), 31)
	})

	t.Run("Collision", func(t *testing.T) {
		tbl := schema.NewTable("Address",
			field.Int("Id").PrimaryKey(),
			field.String("CustomerShippingAddressLineNumberForTheInvoiceOfTheWarehouseStockAlpha1"),
			field.String("CustomerShippingAddressLineNumberForTheInvoiceOfTheWarehouseStockAlpha2"),
		)
		err := p.CheckTable(tbl)
		require.Error(t, err)
		assert.True(t, orma.IsNameTooLong(err))
		var nerr *orma.NameTooLongError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, 31, nerr.Max)
		assert.Equal(t, "firebird2.5", nerr.Dialect)
	})

	t.Run("Unlimited", func(t *testing.T) {
		assert.Equal(t, long, SQLite().Ident(long))
	})
}
