// Package schema describes mapped tables: an ordered list of field
// descriptors plus indexes, an optional database schema and a physical alias.
//
// Tables are defined once and treated as immutable afterwards:
//
//	person := schema.NewTable("Person",
//	    field.Int64("Id").PrimaryKey().AutoIncrement(),
//	    field.String("Name").Size(50),
//	    field.String("City").Size(50).Indexed(),
//	)
//
// Tables can also be decoded from YAML documents with DecodeYAML.
//
// Sub-packages:
//
//   - [field]: Field builders for table columns
//   - [index]: Index builders
//   - [mixin]: Reusable field sets
package schema
