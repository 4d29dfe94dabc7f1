// Package naming maps logical table, column, schema and sequence names to
// physical SQL identifiers.
//
// Strategies are pure string transforms. The same strategy must be used for
// DDL and DML that reference the same logical names; a provider holds exactly
// one and applies it everywhere.
package naming

import (
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Strategy maps logical names to physical identifiers.
type Strategy interface {
	TableName(name string) string
	ColumnName(name string) string
	SchemaName(name string) string
	// SequenceName returns the sequence name generated for a table column
	// without an explicit sequence.
	SequenceName(table, column string) string
}

// Default is the identity strategy. Sequences are named <table>_<column>_seq.
type Default struct{}

// TableName returns name unchanged.
func (Default) TableName(name string) string { return name }

// ColumnName returns name unchanged.
func (Default) ColumnName(name string) string { return name }

// SchemaName returns name unchanged.
func (Default) SchemaName(name string) string { return name }

// SequenceName returns <table>_<column>_seq.
func (Default) SequenceName(table, column string) string {
	return table + "_" + column + "_seq"
}

// Func adapts a single transform to a Strategy applied to every name.
type Func func(string) string

// TableName applies f.
func (f Func) TableName(name string) string { return f(name) }

// ColumnName applies f.
func (f Func) ColumnName(name string) string { return f(name) }

// SchemaName applies f.
func (f Func) SchemaName(name string) string { return f(name) }

// SequenceName applies f to the default sequence name.
func (f Func) SequenceName(table, column string) string {
	return f(Default{}.SequenceName(table, column))
}

var upper = cases.Upper(language.Und)

// LowerCase returns a strategy producing lower-case identifiers.
func LowerCase() Strategy { return Func(strings.ToLower) }

// UpperCase returns a strategy producing upper-case identifiers.
func UpperCase() Strategy { return Func(upper.String) }

// Underscore returns a strategy producing snake_case identifiers, e.g.
// "OrderLine" becomes "order_line".
func Underscore() Strategy { return Func(strcase.ToSnake) }

// Prefix prepends a fixed prefix to table names and delegates the rest.
type Prefix struct {
	Prefix string
	Next   Strategy
}

func (p Prefix) next() Strategy {
	if p.Next == nil {
		return Default{}
	}
	return p.Next
}

// TableName returns the prefixed table name.
func (p Prefix) TableName(name string) string { return p.Prefix + p.next().TableName(name) }

// ColumnName delegates to the next strategy.
func (p Prefix) ColumnName(name string) string { return p.next().ColumnName(name) }

// SchemaName delegates to the next strategy.
func (p Prefix) SchemaName(name string) string { return p.next().SchemaName(name) }

// SequenceName delegates to the next strategy with the prefixed table name.
func (p Prefix) SequenceName(table, column string) string {
	return p.next().SequenceName(p.Prefix+table, column)
}

// Pluralized pluralizes table names before delegating, e.g. "Person"
// becomes "People".
type Pluralized struct {
	Next Strategy
}

func (p Pluralized) next() Strategy {
	if p.Next == nil {
		return Default{}
	}
	return p.Next
}

// TableName returns the pluralized table name.
func (p Pluralized) TableName(name string) string {
	return p.next().TableName(plural(name))
}

// ColumnName delegates to the next strategy.
func (p Pluralized) ColumnName(name string) string { return p.next().ColumnName(name) }

// SchemaName delegates to the next strategy.
func (p Pluralized) SchemaName(name string) string { return p.next().SchemaName(name) }

// SequenceName delegates to the next strategy with the pluralized table name.
func (p Pluralized) SequenceName(table, column string) string {
	return p.next().SequenceName(plural(table), column)
}

// plural pluralizes name, matching the inflection rules without regard to
// case. The unchanged prefix keeps its case; an upper-case name stays upper
// case.
func plural(name string) string {
	lower := strings.ToLower(name)
	if len(lower) != len(name) {
		return inflect.Pluralize(name)
	}
	p := inflect.Pluralize(lower)
	k := 0
	for k < len(lower) && k < len(p) && lower[k] == p[k] {
		k++
	}
	tail := p[k:]
	if strings.ToUpper(name) == name {
		tail = strings.ToUpper(tail)
	}
	return name[:k] + tail
}

// Restricted shortens every identifier produced by the next strategy to at
// most Max characters.
type Restricted struct {
	Max  int
	Next Strategy
}

func (r Restricted) next() Strategy {
	if r.Next == nil {
		return Default{}
	}
	return r.Next
}

// TableName returns the shortened table name.
func (r Restricted) TableName(name string) string {
	return Shorten(r.next().TableName(name), r.Max)
}

// ColumnName returns the shortened column name.
func (r Restricted) ColumnName(name string) string {
	return Shorten(r.next().ColumnName(name), r.Max)
}

// SchemaName returns the shortened schema name.
func (r Restricted) SchemaName(name string) string {
	return Shorten(r.next().SchemaName(name), r.Max)
}

// SequenceName returns the shortened sequence name.
func (r Restricted) SequenceName(table, column string) string {
	return Shorten(r.next().SequenceName(table, column), r.Max)
}

// chain applies strategies in order, feeding each output into the next.
type chain []Strategy

// Chain returns a strategy applying the given strategies in order.
//
//	naming.Chain(naming.Pluralized{}, naming.Underscore())
func Chain(strategies ...Strategy) Strategy {
	return chain(strategies)
}

func (c chain) TableName(name string) string {
	for _, s := range c {
		name = s.TableName(name)
	}
	return name
}

func (c chain) ColumnName(name string) string {
	for _, s := range c {
		name = s.ColumnName(name)
	}
	return name
}

func (c chain) SchemaName(name string) string {
	for _, s := range c {
		name = s.SchemaName(name)
	}
	return name
}

func (c chain) SequenceName(table, column string) string {
	if len(c) == 0 {
		return Default{}.SequenceName(table, column)
	}
	for _, s := range c[:len(c)-1] {
		table, column = s.TableName(table), s.ColumnName(column)
	}
	return c[len(c)-1].SequenceName(table, column)
}
