// Package index provides builders for table indexes.
package index

// A Descriptor for index configuration.
type Descriptor struct {
	Unique     bool     // unique index.
	Fields     []string // logical field names.
	StorageKey string   // index name. Generated from the table and fields when empty.
}

// Builder for indexes on fields.
type Builder struct {
	desc *Descriptor
}

// Fields creates an index on the given logical fields.
//
//	index.Fields("LastName", "FirstName").Unique()
func Fields(fields ...string) *Builder {
	return &Builder{desc: &Descriptor{Fields: fields}}
}

// Unique sets the index to be a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the name of the index in the database.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Descriptor implements the Index interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
