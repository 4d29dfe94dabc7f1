package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/orma/schema/field"
	"github.com/syssam/orma/schema/index"
)

type (
	// Field is implemented by field builders.
	Field interface {
		Descriptor() *field.Descriptor
	}
	// Index is implemented by index builders.
	Index interface {
		Descriptor() *index.Descriptor
	}
	// Mixin is a reusable set of fields and indexes.
	Mixin interface {
		Fields() []Field
		Indexes() []Index
	}
)

// Row holds column values keyed by logical field name. It is the payload of
// row-driven INSERT and UPDATE statements.
type Row map[string]any

// Table describes a mapped table.
type Table struct {
	Name    string // logical name.
	Alias   string // physical name, overrides the naming strategy.
	Schema  string // optional database schema.
	Fields  []*field.Descriptor
	Indexes []*index.Descriptor
}

// NewTable returns a table with the given logical name and fields.
func NewTable(name string, fields ...Field) *Table {
	t := &Table{Name: name}
	for _, f := range fields {
		t.Fields = append(t.Fields, f.Descriptor())
	}
	return t
}

// WithSchema sets the database schema of the table.
func (t *Table) WithSchema(s string) *Table {
	t.Schema = s
	return t
}

// WithAlias sets the physical name of the table.
func (t *Table) WithAlias(a string) *Table {
	t.Alias = a
	return t
}

// WithIndexes appends the given indexes to the table.
func (t *Table) WithIndexes(idx ...Index) *Table {
	for _, i := range idx {
		t.Indexes = append(t.Indexes, i.Descriptor())
	}
	return t
}

// WithMixins prepends the fields and appends the indexes of the given mixins.
func (t *Table) WithMixins(mixins ...Mixin) *Table {
	var fields []*field.Descriptor
	for _, m := range mixins {
		for _, f := range m.Fields() {
			fields = append(fields, f.Descriptor())
		}
		t.WithIndexes(m.Indexes()...)
	}
	t.Fields = append(fields, t.Fields...)
	return t
}

// Physical returns the table name before the naming strategy is applied.
func (t *Table) Physical() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Field returns the field with the given logical name. Lookup falls back to
// a case-insensitive match and to the physical column alias.
func (t *Table) Field(name string) (*field.Descriptor, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range t.Fields {
		if strings.EqualFold(f.Name, name) || (f.Alias != "" && strings.EqualFold(f.Alias, name)) {
			return f, true
		}
	}
	return nil, false
}

// PrimaryKeys returns the primary key fields in declaration order.
func (t *Table) PrimaryKeys() []*field.Descriptor {
	var pks []*field.Descriptor
	for _, f := range t.Fields {
		if f.PrimaryKey {
			pks = append(pks, f)
		}
	}
	return pks
}

// PrimaryKey returns the single primary key field, or nil when the table has
// no primary key or a composite one.
func (t *Table) PrimaryKey() *field.Descriptor {
	if pks := t.PrimaryKeys(); len(pks) == 1 {
		return pks[0]
	}
	return nil
}

// RowVersion returns the row version field, or nil.
func (t *Table) RowVersion() *field.Descriptor {
	for _, f := range t.Fields {
		if f.RowVersion {
			return f
		}
	}
	return nil
}

// Generated returns the field whose value the database generates on insert,
// or nil.
func (t *Table) Generated() *field.Descriptor {
	for _, f := range t.Fields {
		if f.AutoIncrement || f.Sequence != "" {
			return f
		}
	}
	return nil
}

// Err returns the validation errors of the table definition.
func (t *Table) Err() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("schema: missing table name"))
	}
	if len(t.Fields) == 0 {
		errs = append(errs, fmt.Errorf("schema: table %q has no fields", t.Name))
	}
	if strings.ContainsRune(t.Name+t.Alias+t.Schema, 0) {
		errs = append(errs, fmt.Errorf("schema: table %q: name contains a NUL byte", t.Name))
	}
	seen := make(map[string]struct{}, len(t.Fields))
	generated := 0
	for _, f := range t.Fields {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("schema: table %q: %w", t.Name, f.Err))
		}
		if strings.ContainsRune(f.Name+f.Alias, 0) {
			errs = append(errs, fmt.Errorf("schema: table %q: field %q: name contains a NUL byte", t.Name, f.Name))
		}
		key := strings.ToLower(f.Name)
		if _, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("schema: table %q: duplicate field %q", t.Name, f.Name))
		}
		seen[key] = struct{}{}
		if f.AutoIncrement || f.Sequence != "" {
			generated++
		}
	}
	if generated > 1 {
		errs = append(errs, fmt.Errorf("schema: table %q: only one generated key is supported", t.Name))
	}
	for _, idx := range t.Indexes {
		if len(idx.Fields) == 0 {
			errs = append(errs, fmt.Errorf("schema: table %q: index without fields", t.Name))
		}
		for _, name := range idx.Fields {
			if _, ok := t.Field(name); !ok {
				errs = append(errs, fmt.Errorf("schema: table %q: index references unknown field %q", t.Name, name))
			}
		}
	}
	return errors.Join(errs...)
}
