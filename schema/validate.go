package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/orma/schema/field"
)

// ValidationError is a problem found in a set of table definitions.
type ValidationError struct {
	Table   string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of Validate. Errors prevent DDL from
// being generated; warnings describe definitions that generate DDL but
// limit the statements the tables support.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors joined into one, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema: invalid tables: %s", strings.Join(msgs, "; "))
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

func (r *ValidationResult) errorf(table, field, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: table, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(table, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: table, Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateTable validates a single table definition.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	if err := t.Err(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			result.errorf(t.Name, "", "%s", line)
		}
	}
	pks := t.PrimaryKeys()
	if len(pks) == 0 {
		result.warnf(t.Name, "", "table has no primary key")
		if t.RowVersion() != nil {
			result.warnf(t.Name, t.RowVersion().Name, "row version without primary key cannot identify updated rows")
		}
	}
	for _, f := range pks {
		if f.Nullable {
			result.errorf(t.Name, f.Name, "primary key field must not be nullable")
		}
	}
	if g := t.Generated(); g != nil && !g.PrimaryKey {
		result.warnf(t.Name, g.Name, "generated key is not part of the primary key")
	}
	for _, f := range t.Fields {
		if f.Type == field.TypeEnum && len(f.EnumValues) == 0 {
			result.warnf(t.Name, f.Name, "enum field has no values")
		}
		if f.Computed != "" && f.Default != nil {
			result.errorf(t.Name, f.Name, "computed field cannot have a default value")
		}
	}
	return result
}

// Validate validates tables and the foreign keys between them. References
// to tables outside the set are left to the database.
//
//	result := schema.Validate(people, orders)
//	if err := result.Err(); err != nil {
//	    return err
//	}
func Validate(tables ...*Table) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]*Table, len(tables))
	for _, t := range tables {
		key := strings.ToLower(t.Name)
		if _, ok := names[key]; ok {
			result.errorf(t.Name, "", "duplicate table name")
		}
		names[key] = t
		tr := ValidateTable(t)
		result.Errors = append(result.Errors, tr.Errors...)
		result.Warnings = append(result.Warnings, tr.Warnings...)
	}
	for _, t := range tables {
		for _, f := range t.Fields {
			fk := f.ForeignKey
			if fk == nil {
				continue
			}
			rt, ok := names[strings.ToLower(fk.Table)]
			if !ok {
				continue
			}
			validateReference(t, f, rt, result)
		}
	}
	return result
}

func validateReference(t *Table, f *field.Descriptor, rt *Table, result *ValidationResult) {
	fk := f.ForeignKey
	var target *field.Descriptor
	if fk.Column != "" {
		rf, ok := rt.Field(fk.Column)
		if !ok {
			result.errorf(t.Name, f.Name, "foreign key references non-existent field %s.%s", rt.Name, fk.Column)
			return
		}
		target = rf
	} else {
		pks := rt.PrimaryKeys()
		switch len(pks) {
		case 0:
			result.errorf(t.Name, f.Name, "foreign key references table %q without primary key", rt.Name)
			return
		case 1:
			target = pks[0]
		default:
			result.errorf(t.Name, f.Name, "foreign key references composite primary key of %q", rt.Name)
			return
		}
	}
	if target.Type != f.Type && !(target.Type.Integer() && f.Type.Integer()) {
		result.warnf(t.Name, f.Name, "foreign key type %s differs from referenced %s", f.Type, target.Type)
	}
	if fk.OnDelete == field.SetNull && !f.Nullable {
		result.errorf(t.Name, f.Name, "ON DELETE SET NULL requires a nullable field")
	}
}
