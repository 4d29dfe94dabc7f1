package mixin

import (
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
	"github.com/syssam/orma/schema/index"
)

// Schema is the default implementation for the schema.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []schema.Field { return nil }

// Indexes returns the indexes of the mixin.
func (Schema) Indexes() []schema.Index { return nil }

var _ schema.Mixin = (*Schema)(nil)

// ID adds an auto-increment int64 primary key named Id.
type ID struct {
	Schema
	// Sequence names the sequence used by dialects without identity columns.
	Sequence string
}

// Fields returns the primary key field.
func (m ID) Fields() []schema.Field {
	f := field.Int64("Id").PrimaryKey().AutoIncrement()
	if m.Sequence != "" {
		f.Sequence(m.Sequence)
	}
	return []schema.Field{f}
}

// Time adds CreatedAt and UpdatedAt timestamp fields.
type Time struct {
	Schema
}

// Fields returns the time tracking fields.
func (Time) Fields() []schema.Field {
	return []schema.Field{
		field.Time("CreatedAt").DefaultExpr("CURRENT_TIMESTAMP"),
		field.Time("UpdatedAt").Nullable(),
	}
}

// Version adds a RowVersion field used for optimistic concurrency.
type Version struct {
	Schema
}

// Fields returns the row version field.
func (Version) Fields() []schema.Field {
	return []schema.Field{
		field.Int64("RowVersion").RowVersion().Default(1),
	}
}

// UUID adds a uuid primary key named Id. Values are supplied by the caller.
type UUID struct {
	Schema
}

// Fields returns the primary key field.
func (UUID) Fields() []schema.Field {
	return []schema.Field{field.UUID("Id").PrimaryKey()}
}

// SoftDelete adds a nullable DeletedAt timestamp. Rows are marked instead of
// removed; filter on DeletedAt IS NULL to read live rows.
type SoftDelete struct {
	Schema
}

// Fields returns the deletion timestamp field.
func (SoftDelete) Fields() []schema.Field {
	return []schema.Field{field.Time("DeletedAt").Nullable()}
}

// Indexes returns an index on the deletion timestamp.
func (SoftDelete) Indexes() []schema.Index {
	return []schema.Index{index.Fields("DeletedAt")}
}

// TenantID adds an indexed TenantId field for row level multi-tenancy.
type TenantID struct {
	Schema
}

// Fields returns the tenant field.
func (TenantID) Fields() []schema.Field {
	return []schema.Field{field.String("TenantId").Size(64).Indexed()}
}
