// Package field provides fluent builders for describing the columns of a
// mapped table.
//
// Field names are logical names. The physical column name is produced by the
// naming strategy of the active provider, unless StorageKey overrides it:
//
//	field.Int64("Id").PrimaryKey().AutoIncrement()
//	field.String("Name").Size(50)
//	field.Decimal("Price").Precision(15, 2)
//	field.Int64("PersonId").References("Person", "Id").OnDelete(field.Cascade)
//	field.Int64("Version").RowVersion()
//
// A Descriptor is immutable once a table has been defined. Builder errors are
// collected in Descriptor.Err and surface when the table is validated.
package field
