package field

import (
	"errors"
	"fmt"
	"strings"
)

// ReferenceOption defines the referential action of a foreign key.
type ReferenceOption string

// Referential actions.
const (
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	Restrict   ReferenceOption = "RESTRICT"
	SetDefault ReferenceOption = "SET DEFAULT"
	NoAction   ReferenceOption = "NO ACTION"
)

// ForeignKey describes a reference from a field to a column of another table.
type ForeignKey struct {
	Table    string // Logical name of the referenced table.
	Column   string // Logical name of the referenced column. Empty means its primary key.
	Name     string // Optional constraint name.
	OnDelete ReferenceOption
	OnUpdate ReferenceOption
}

// A Descriptor for field configuration.
type Descriptor struct {
	Name          string            // logical field name.
	Alias         string            // physical column name, overrides the naming strategy.
	Type          Type              // field type.
	Size          int               // max length of strings and bytes, precision of decimals.
	Scale         int               // scale of decimals.
	Nullable      bool              // column accepts NULL.
	PrimaryKey    bool              // part of the primary key.
	AutoIncrement bool              // value generated by the database on insert.
	Sequence      string            // explicit sequence name used to generate the value.
	Default       any               // default value rendered through the type converter.
	DefaultExpr   string            // raw SQL default expression.
	Unique        bool              // unique index on the column.
	Indexed       bool              // non-unique index on the column.
	Computed      string            // SQL expression of a computed column.
	RowVersion    bool              // maintained by the database on every update.
	ForeignKey    *ForeignKey       // optional foreign key.
	SchemaType    map[string]string // override default column type per dialect.
	EnumValues    []string          // enum values.
	Comment       string            // field comment.
	Err           error
}

// Column returns the physical column name before the naming strategy.
func (d *Descriptor) Column() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

// Generated reports whether the database produces the value of the field.
func (d *Descriptor) Generated() bool {
	return d.AutoIncrement || d.Sequence != "" || d.Computed != "" || d.RowVersion
}

// Builder is the fluent builder for all field types.
type Builder struct {
	desc *Descriptor
	err  error
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// Bool returns a new Field with type bool.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Int returns a new Field with type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Int8 returns a new Field with type int8.
func Int8(name string) *Builder { return newBuilder(name, TypeInt8) }

// Int16 returns a new Field with type int16.
func Int16(name string) *Builder { return newBuilder(name, TypeInt16) }

// Int32 returns a new Field with type int32.
func Int32(name string) *Builder { return newBuilder(name, TypeInt32) }

// Int64 returns a new Field with type int64.
func Int64(name string) *Builder { return newBuilder(name, TypeInt64) }

// Uint returns a new Field with type uint.
func Uint(name string) *Builder { return newBuilder(name, TypeUint) }

// Uint8 returns a new Field with type uint8.
func Uint8(name string) *Builder { return newBuilder(name, TypeUint8) }

// Uint16 returns a new Field with type uint16.
func Uint16(name string) *Builder { return newBuilder(name, TypeUint16) }

// Uint32 returns a new Field with type uint32.
func Uint32(name string) *Builder { return newBuilder(name, TypeUint32) }

// Uint64 returns a new Field with type uint64.
func Uint64(name string) *Builder { return newBuilder(name, TypeUint64) }

// Float32 returns a new Field with type float32.
func Float32(name string) *Builder { return newBuilder(name, TypeFloat32) }

// Float returns a new Field with type float64.
func Float(name string) *Builder { return newBuilder(name, TypeFloat64) }

// Float64 returns a new Field with type float64.
func Float64(name string) *Builder { return newBuilder(name, TypeFloat64) }

// Decimal returns a new Field with type decimal.Decimal.
//
//	field.Decimal("Price").Precision(15, 2)
func Decimal(name string) *Builder { return newBuilder(name, TypeDecimal) }

// String returns a new Field with type string. The default size is 255.
func String(name string) *Builder {
	b := newBuilder(name, TypeString)
	b.desc.Size = 255
	return b
}

// Text returns a new unbounded string Field.
func Text(name string) *Builder { return newBuilder(name, TypeString) }

// Time returns a new Field with type time.Time.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// UUID returns a new Field with type uuid.UUID.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// Bytes returns a new Field with type []byte.
func Bytes(name string) *Builder { return newBuilder(name, TypeBytes) }

// JSON returns a new Field stored as JSON text.
func JSON(name string) *Builder { return newBuilder(name, TypeJSON) }

// Other returns a new Field stored as a serialized binary value.
func Other(name string) *Builder { return newBuilder(name, TypeOther) }

// Enum returns a new Field with type enum.
//
//	field.Enum("Status").Values("active", "disabled")
func Enum(name string) *Builder {
	b := newBuilder(name, TypeEnum)
	b.desc.Size = 32
	return b
}

// Of returns a new Field with the given type.
func Of(name string, t Type) *Builder {
	b := newBuilder(name, t)
	switch t {
	case TypeString:
		b.desc.Size = 255
	case TypeEnum:
		b.desc.Size = 32
	}
	return b
}

// StorageKey sets the physical column name of the field.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.Alias = key
	return b
}

// Nullable indicates that this field accepts NULL values.
func (b *Builder) Nullable() *Builder {
	b.desc.Nullable = true
	return b
}

// Optional is an alias of Nullable.
func (b *Builder) Optional() *Builder {
	return b.Nullable()
}

// PrimaryKey marks the field as part of the primary key.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	return b
}

// AutoIncrement indicates that the database generates the value on insert.
func (b *Builder) AutoIncrement() *Builder {
	b.desc.AutoIncrement = true
	return b
}

// Sequence sets the sequence used to generate the value of the field.
func (b *Builder) Sequence(name string) *Builder {
	b.desc.Sequence = name
	return b
}

// Size sets the maximum length of string and bytes fields.
func (b *Builder) Size(n int) *Builder {
	if n < 0 {
		b.err = errors.Join(b.err, fmt.Errorf("field %q: size must not be negative", b.desc.Name))
	}
	b.desc.Size = n
	return b
}

// MaxLen is an alias of Size.
func (b *Builder) MaxLen(n int) *Builder {
	return b.Size(n)
}

// Precision sets the precision and scale of decimal and float fields.
func (b *Builder) Precision(precision, scale int) *Builder {
	switch {
	case b.desc.Type != TypeDecimal && !b.desc.Type.Float():
		b.err = errors.Join(b.err, fmt.Errorf("field %q: precision is not supported by type %s", b.desc.Name, b.desc.Type))
	case precision <= 0 || scale < 0 || scale > precision:
		b.err = errors.Join(b.err, fmt.Errorf("field %q: invalid precision (%d,%d)", b.desc.Name, precision, scale))
	}
	b.desc.Size, b.desc.Scale = precision, scale
	return b
}

// Default sets the default value of the field.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// DefaultExpr sets a raw SQL default expression, e.g. CURRENT_TIMESTAMP.
func (b *Builder) DefaultExpr(expr string) *Builder {
	b.desc.DefaultExpr = expr
	return b
}

// Unique makes the field unique within all rows of the table.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// Indexed adds a non-unique index on the field.
func (b *Builder) Indexed() *Builder {
	b.desc.Indexed = true
	return b
}

// Computed sets the SQL expression of a computed column.
func (b *Builder) Computed(expr string) *Builder {
	b.desc.Computed = expr
	return b
}

// RowVersion marks the field as an optimistic concurrency token.
func (b *Builder) RowVersion() *Builder {
	b.desc.RowVersion = true
	return b
}

// References adds a foreign key to the given table column. An empty column
// refers to the primary key of the table.
func (b *Builder) References(table, column string) *Builder {
	if b.desc.ForeignKey == nil {
		b.desc.ForeignKey = &ForeignKey{}
	}
	b.desc.ForeignKey.Table, b.desc.ForeignKey.Column = table, column
	return b
}

// OnDelete sets the ON DELETE action of the foreign key.
func (b *Builder) OnDelete(opt ReferenceOption) *Builder {
	if b.desc.ForeignKey == nil {
		b.err = errors.Join(b.err, fmt.Errorf("field %q: OnDelete without References", b.desc.Name))
		return b
	}
	b.desc.ForeignKey.OnDelete = opt
	return b
}

// OnUpdate sets the ON UPDATE action of the foreign key.
func (b *Builder) OnUpdate(opt ReferenceOption) *Builder {
	if b.desc.ForeignKey == nil {
		b.err = errors.Join(b.err, fmt.Errorf("field %q: OnUpdate without References", b.desc.Name))
		return b
	}
	b.desc.ForeignKey.OnUpdate = opt
	return b
}

// ForeignKeyName sets the constraint name of the foreign key.
func (b *Builder) ForeignKeyName(name string) *Builder {
	if b.desc.ForeignKey != nil {
		b.desc.ForeignKey.Name = name
	}
	return b
}

// SchemaType overrides the default database type with a custom
// schema type (per dialect) for the field.
//
//	field.Float("Amount").
//		SchemaType(map[string]string{
//			dialect.MySQL:    "decimal(6,2)",
//			dialect.Postgres: "numeric",
//		})
func (b *Builder) SchemaType(types map[string]string) *Builder {
	b.desc.SchemaType = types
	return b
}

// Values adds given values to the enum values.
func (b *Builder) Values(values ...string) *Builder {
	b.desc.EnumValues = append(b.desc.EnumValues, values...)
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	d := b.desc
	errs := []error{b.err}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("field: missing field name"))
	}
	if d.AutoIncrement && !d.Type.Integer() {
		errs = append(errs, fmt.Errorf("field %q: auto increment requires an integer type, got %s", d.Name, d.Type))
	}
	if d.Sequence != "" && !d.Type.Integer() {
		errs = append(errs, fmt.Errorf("field %q: sequence requires an integer type, got %s", d.Name, d.Type))
	}
	if d.RowVersion && !d.Type.Integer() {
		errs = append(errs, fmt.Errorf("field %q: row version requires an integer type, got %s", d.Name, d.Type))
	}
	if d.Type == TypeEnum {
		seen := make(map[string]struct{}, len(d.EnumValues))
		for _, v := range d.EnumValues {
			if _, ok := seen[v]; ok {
				errs = append(errs, fmt.Errorf("field %q: duplicate enum value %q", d.Name, v))
			}
			seen[v] = struct{}{}
		}
	}
	d.Err = errors.Join(errs...)
	return d
}
