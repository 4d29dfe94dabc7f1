package field_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/schema/field"
)

func TestInt(t *testing.T) {
	fd := field.Int64("Id").
		PrimaryKey().
		AutoIncrement().
		Comment("comment").
		Descriptor()
	assert.Equal(t, "Id", fd.Name)
	assert.Equal(t, field.TypeInt64, fd.Type)
	assert.True(t, fd.PrimaryKey)
	assert.True(t, fd.AutoIncrement)
	assert.True(t, fd.Generated())
	assert.Equal(t, "comment", fd.Comment)
	assert.NoError(t, fd.Err)

	fd = field.Int("Age").
		Default(10).
		Nullable().
		SchemaType(map[string]string{
			dialect.SQLite:   "numeric",
			dialect.Postgres: "int_type",
		}).
		Descriptor()
	assert.Equal(t, 10, fd.Default)
	assert.True(t, fd.Nullable)
	assert.Equal(t, "numeric", fd.SchemaType[dialect.SQLite])
	assert.Equal(t, "int_type", fd.SchemaType[dialect.Postgres])

	assert.Equal(t, field.TypeInt8, field.Int8("age").Descriptor().Type)
	assert.Equal(t, field.TypeInt16, field.Int16("age").Descriptor().Type)
	assert.Equal(t, field.TypeInt32, field.Int32("age").Descriptor().Type)
	assert.Equal(t, field.TypeUint, field.Uint("age").Descriptor().Type)
	assert.Equal(t, field.TypeUint8, field.Uint8("age").Descriptor().Type)
	assert.Equal(t, field.TypeUint16, field.Uint16("age").Descriptor().Type)
	assert.Equal(t, field.TypeUint32, field.Uint32("age").Descriptor().Type)
	assert.Equal(t, field.TypeUint64, field.Uint64("age").Descriptor().Type)
}

func TestString(t *testing.T) {
	fd := field.String("Name").Descriptor()
	assert.Equal(t, field.TypeString, fd.Type)
	assert.Equal(t, 255, fd.Size)

	fd = field.String("Name").Size(50).StorageKey("full_name").Descriptor()
	assert.Equal(t, 50, fd.Size)
	assert.Equal(t, "full_name", fd.Column())

	fd = field.Text("Bio").Descriptor()
	assert.Zero(t, fd.Size)
	assert.Equal(t, "Bio", fd.Column())

	fd = field.String("Name").Size(-1).Descriptor()
	assert.Error(t, fd.Err)
}

func TestDecimal(t *testing.T) {
	fd := field.Decimal("Price").Precision(15, 2).Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, field.TypeDecimal, fd.Type)
	assert.Equal(t, 15, fd.Size)
	assert.Equal(t, 2, fd.Scale)

	fd = field.Decimal("Price").Precision(2, 15).Descriptor()
	assert.Error(t, fd.Err)

	fd = field.String("Name").Precision(15, 2).Descriptor()
	assert.ErrorContains(t, fd.Err, "precision is not supported")
}

func TestDescriptorErrors(t *testing.T) {
	tests := []struct {
		name string
		b    *field.Builder
		err  string
	}{
		{"missing_name", field.Int(""), "missing field name"},
		{"auto_increment_string", field.String("Code").AutoIncrement(), "auto increment requires an integer type"},
		{"sequence_time", field.Time("At").Sequence("seq"), "sequence requires an integer type"},
		{"row_version_bytes", field.Bytes("Rv").RowVersion(), "row version requires an integer type"},
		{"duplicate_enum", field.Enum("Status").Values("a", "b", "a"), "duplicate enum value"},
		{"on_delete_without_reference", field.Int64("PersonId").OnDelete(field.Cascade), "OnDelete without References"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := tt.b.Descriptor()
			require.Error(t, fd.Err)
			assert.Contains(t, fd.Err.Error(), tt.err)
		})
	}
}

func TestDescriptorIdempotent(t *testing.T) {
	b := field.String("Code").AutoIncrement()
	first := b.Descriptor().Err.Error()
	assert.Equal(t, first, b.Descriptor().Err.Error())
}

func TestForeignKey(t *testing.T) {
	fd := field.Int64("PersonId").
		References("Person", "Id").
		OnDelete(field.Cascade).
		OnUpdate(field.NoAction).
		ForeignKeyName("fk_order_person").
		Descriptor()
	require.NoError(t, fd.Err)
	require.NotNil(t, fd.ForeignKey)
	assert.Equal(t, "Person", fd.ForeignKey.Table)
	assert.Equal(t, "Id", fd.ForeignKey.Column)
	assert.Equal(t, field.Cascade, fd.ForeignKey.OnDelete)
	assert.Equal(t, field.NoAction, fd.ForeignKey.OnUpdate)
	assert.Equal(t, "fk_order_person", fd.ForeignKey.Name)
}

func TestTypeString(t *testing.T) {
	typ := field.TypeBool
	assert.Equal(t, "bool", typ.String())
	typ = field.TypeInvalid
	assert.Equal(t, "invalid", typ.String())
	typ = 22
	assert.Equal(t, "invalid", typ.String())
	assert.Equal(t, "decimal.Decimal", field.TypeDecimal.String())
}

func TestTypeNumeric(t *testing.T) {
	typ := field.TypeBool
	assert.False(t, typ.Numeric())
	typ = field.TypeUint8
	assert.True(t, typ.Numeric())
	assert.True(t, field.TypeDecimal.Numeric())
	assert.False(t, field.TypeDecimal.Integer())
	assert.True(t, field.TypeUint16.Unsigned())
	assert.Equal(t, 16, field.TypeUint16.Bits())
}

func TestTypeValid(t *testing.T) {
	typ := field.TypeBool
	assert.True(t, typ.Valid())
	typ = 0
	assert.False(t, typ.Valid())
	typ = 22
	assert.False(t, typ.Valid())
}

// TestFieldTypeInfo tests type information methods.
func TestFieldTypeInfo(t *testing.T) {
	tests := []struct {
		name     string
		typ      field.Type
		numeric  bool
		valid    bool
		constNam string
	}{
		{"TypeBool", field.TypeBool, false, true, "TypeBool"},
		{"TypeInt", field.TypeInt, true, true, "TypeInt"},
		{"TypeInt64", field.TypeInt64, true, true, "TypeInt64"},
		{"TypeUint64", field.TypeUint64, true, true, "TypeUint64"},
		{"TypeFloat64", field.TypeFloat64, true, true, "TypeFloat64"},
		{"TypeDecimal", field.TypeDecimal, true, true, "TypeDecimal"},
		{"TypeString", field.TypeString, false, true, "TypeString"},
		{"TypeTime", field.TypeTime, false, true, "TypeTime"},
		{"TypeBytes", field.TypeBytes, false, true, "TypeBytes"},
		{"TypeJSON", field.TypeJSON, false, true, "TypeJSON"},
		{"TypeUUID", field.TypeUUID, false, true, "TypeUUID"},
		{"TypeEnum", field.TypeEnum, false, true, "TypeEnum"},
		{"TypeOther", field.TypeOther, false, true, "TypeOther"},
		{"TypeInvalid", field.TypeInvalid, false, false, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.numeric, tt.typ.Numeric(), "Numeric() mismatch")
			assert.Equal(t, tt.valid, tt.typ.Valid(), "Valid() mismatch")
			assert.Equal(t, tt.constNam, tt.typ.ConstName(), "ConstName() mismatch")
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := field.ParseType("Decimal")
	require.NoError(t, err)
	assert.Equal(t, field.TypeDecimal, typ)
	typ, err = field.ParseType(" int64 ")
	require.NoError(t, err)
	assert.Equal(t, field.TypeInt64, typ)
	_, err = field.ParseType("money")
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	type Status string
	type Count int16
	tests := []struct {
		v    any
		want field.Type
	}{
		{nil, field.TypeInvalid},
		{true, field.TypeBool},
		{"x", field.TypeString},
		{Status("a"), field.TypeString},
		{1, field.TypeInt},
		{int8(1), field.TypeInt8},
		{Count(1), field.TypeInt16},
		{int64(1), field.TypeInt64},
		{uint32(1), field.TypeUint32},
		{float32(1), field.TypeFloat32},
		{1.5, field.TypeFloat64},
		{[]byte("x"), field.TypeBytes},
		{time.Now(), field.TypeTime},
		{uuid.New(), field.TypeUUID},
		{decimal.NewFromInt(1), field.TypeDecimal},
		{new(int64), field.TypeInt64},
		{struct{}{}, field.TypeOther},
		{map[string]any{}, field.TypeOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, field.TypeOf(tt.v), "%T", tt.v)
	}
}
