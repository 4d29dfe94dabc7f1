package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
	"github.com/syssam/orma/schema/mixin"
)

func TestSchemaBaseMixin(t *testing.T) {
	m := mixin.Schema{}
	assert.Nil(t, m.Fields())
	assert.Nil(t, m.Indexes())
}

func TestWithMixins(t *testing.T) {
	tbl := schema.NewTable("Person",
		field.String("Name"),
	).WithMixins(mixin.ID{}, mixin.Time{}, mixin.Version{})
	require.NoError(t, tbl.Err())

	names := make([]string, 0, len(tbl.Fields))
	for _, f := range tbl.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Id", "CreatedAt", "UpdatedAt", "RowVersion", "Name"}, names)
	assert.Equal(t, "Id", tbl.PrimaryKey().Name)
	assert.Equal(t, "RowVersion", tbl.RowVersion().Name)
}

func TestIDSequence(t *testing.T) {
	fields := mixin.ID{Sequence: "person_seq"}.Fields()
	require.Len(t, fields, 1)
	fd := fields[0].Descriptor()
	assert.Equal(t, "person_seq", fd.Sequence)
	assert.True(t, fd.AutoIncrement)
}

func TestTenantSoftDelete(t *testing.T) {
	tbl := schema.NewTable("Invoice",
		field.Decimal("Total").Precision(15, 2),
	).WithMixins(mixin.UUID{}, mixin.TenantID{}, mixin.SoftDelete{})
	require.NoError(t, tbl.Err())

	pk := tbl.PrimaryKey()
	require.NotNil(t, pk)
	assert.Equal(t, field.TypeUUID, pk.Type)
	assert.False(t, pk.Generated())

	tenant, ok := tbl.Field("TenantId")
	require.True(t, ok)
	assert.True(t, tenant.Indexed)
	assert.Equal(t, 64, tenant.Size)

	deleted, ok := tbl.Field("DeletedAt")
	require.True(t, ok)
	assert.True(t, deleted.Nullable)
	require.Len(t, tbl.Indexes, 1)
	assert.Equal(t, []string{"DeletedAt"}, tbl.Indexes[0].Fields)
}
