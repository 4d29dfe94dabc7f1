package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

func messages(errs []*schema.ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func TestValidate(t *testing.T) {
	t.Parallel()
	person := func() *schema.Table {
		return schema.NewTable("Person",
			field.Int64("Id").PrimaryKey().AutoIncrement(),
			field.String("Name"),
		)
	}

	t.Run("Valid", func(t *testing.T) {
		orders := schema.NewTable("Order",
			field.Int64("Id").PrimaryKey().AutoIncrement(),
			field.Int32("PersonId").References("Person", "").OnDelete(field.Cascade),
			field.Int64("Customer").References("Customer", ""),
		)
		result := schema.Validate(person(), orders)
		assert.False(t, result.HasErrors())
		assert.False(t, result.HasWarnings())
		assert.NoError(t, result.Err())
		assert.Equal(t, "No issues found", result.String())
	})

	t.Run("DuplicateTable", func(t *testing.T) {
		result := schema.Validate(person(), schema.NewTable("PERSON", field.Int64("Id").PrimaryKey()))
		require.True(t, result.HasErrors())
		assert.Contains(t, messages(result.Errors), "PERSON: duplicate table name")
	})

	t.Run("References", func(t *testing.T) {
		keyless := schema.NewTable("Log", field.String("Line"))
		pair := schema.NewTable("Pair", field.Int64("A").PrimaryKey(), field.Int64("B").PrimaryKey())
		orders := schema.NewTable("Order",
			field.Int64("Id").PrimaryKey(),
			field.Int64("PersonId").References("Person", "Nickname"),
			field.Int64("LogId").References("Log", ""),
			field.Int64("PairId").References("Pair", ""),
			field.String("Owner").References("Person", ""),
			field.Int64("Editor").References("Person", "").OnDelete(field.SetNull),
		)
		result := schema.Validate(person(), keyless, pair, orders)
		assert.ElementsMatch(t, []string{
			"Order.PersonId: foreign key references non-existent field Person.Nickname",
			`Order.LogId: foreign key references table "Log" without primary key`,
			`Order.PairId: foreign key references composite primary key of "Pair"`,
			"Order.Editor: ON DELETE SET NULL requires a nullable field",
		}, messages(result.Errors))
		assert.ElementsMatch(t, []string{
			"Log: table has no primary key",
			"Order.Owner: foreign key type string differs from referenced int64",
		}, messages(result.Warnings))
		assert.ErrorContains(t, result.Err(), "schema: invalid tables: ")
	})

	t.Run("Fields", func(t *testing.T) {
		tbl := schema.NewTable("Item",
			field.Int64("Id").PrimaryKey().Nullable(),
			field.Int64("Seq").Sequence("item_seq"),
			field.Enum("Status"),
			field.Int64("Total").Computed("Qty * Price").Default(0),
			field.Int64("Version").RowVersion(),
		)
		result := schema.ValidateTable(tbl)
		assert.ElementsMatch(t, []string{
			"Item.Id: primary key field must not be nullable",
			"Item.Total: computed field cannot have a default value",
		}, messages(result.Errors))
		assert.ElementsMatch(t, []string{
			"Item.Seq: generated key is not part of the primary key",
			"Item.Status: enum field has no values",
		}, messages(result.Warnings))
		assert.Contains(t, result.String(), "Errors:\n  - Item.Id")
		assert.Contains(t, result.String(), "Warnings:\n  - Item.Seq")
	})

	t.Run("RowVersionWithoutKey", func(t *testing.T) {
		result := schema.ValidateTable(schema.NewTable("Audit", field.String("Line"), field.Int64("Version").RowVersion()))
		assert.ElementsMatch(t, []string{
			"Audit: table has no primary key",
			"Audit.Version: row version without primary key cannot identify updated rows",
		}, messages(result.Warnings))
	})

	t.Run("DefinitionErrors", func(t *testing.T) {
		result := schema.ValidateTable(schema.NewTable("Empty"))
		require.True(t, result.HasErrors())
		assert.Contains(t, messages(result.Errors), `Empty: schema: table "Empty" has no fields`)
	})
}
