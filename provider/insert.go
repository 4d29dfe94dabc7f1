package provider

import (
	"strings"

	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// Insert is a compiled INSERT statement tagged with the protocol that
// obtains its generated key. Exactly one protocol applies per statement.
type Insert struct {
	Statement
	Strategy IDStrategy
	// IDColumn is the quoted generated key column, empty for IDNone.
	IDColumn string
	// SequenceSQL returns the next key. Under IDSequence it runs first and
	// its result is bound to Args[IDArg].
	SequenceSQL string
	IDArg       int
	// LastIDSQL returns the key generated by the INSERT on the same
	// connection, under IDLastInsertID.
	LastIDSQL string
}

// InsertParts are the rendered pieces of an INSERT statement.
type InsertParts struct {
	Table    *schema.Table
	Key      *field.Descriptor // generated key, nil when none.
	Strategy IDStrategy
	Columns  []string // quoted column names.
	Values   []string // rendered values, parallel to Columns.
	Args     []any
}

// IDStrategy resolves the key protocol for inserts into t. It returns
// IDNone and a nil field when t has no generated key.
func (p *Provider) IDStrategy(t *schema.Table) (IDStrategy, *field.Descriptor, error) {
	key := t.Generated()
	if key == nil {
		return IDNone, nil, nil
	}
	switch s := p.caps.ID; s {
	case IDNone:
		return IDNone, key, nil
	case IDLastInsertID:
		if p.caps.LastIDSQL == "" {
			return 0, nil, p.unsupported("IDStrategy(" + s.String() + ")")
		}
		return s, key, nil
	case IDReturning:
		if p.caps.Returning == ReturningNone {
			return 0, nil, p.unsupported("IDStrategy(" + s.String() + ")")
		}
		return s, key, nil
	case IDSequence:
		if !p.caps.Sequences || p.caps.SequenceNext == nil {
			return 0, nil, p.unsupported("IDStrategy(" + s.String() + ")")
		}
		return s, key, nil
	default:
		return 0, nil, p.unsupported("IDStrategy(" + s.String() + ")")
	}
}

// SequenceSQL renders the query fetching the next value of the sequence
// backing key.
func (p *Provider) SequenceSQL(t *schema.Table, key *field.Descriptor) string {
	return "SELECT " + p.caps.SequenceNext(p.QuoteSequence(t, key)) + p.caps.Dual
}

// InsertStatement assembles an INSERT. Under IDSequence the first column
// must be the generated key, bound to the first argument.
func (p *Provider) InsertStatement(parts InsertParts) (*Insert, error) {
	if len(parts.Columns) != len(parts.Values) {
		return nil, p.invalid("Insert(values)", "column and value counts differ")
	}
	ins := &Insert{Strategy: parts.Strategy}
	if parts.Key != nil && parts.Strategy != IDNone {
		ins.IDColumn = p.QuoteColumn(parts.Key)
	}
	var (
		b      strings.Builder
		output string
	)
	b.WriteString("INSERT INTO ")
	b.WriteString(p.QuoteTable(parts.Table))
	switch parts.Strategy {
	case IDReturning:
		if p.caps.Returning == ReturningOutput {
			output = " OUTPUT INSERTED." + ins.IDColumn
		}
	case IDSequence:
		if len(parts.Columns) == 0 || parts.Columns[0] != ins.IDColumn || len(parts.Args) == 0 {
			return nil, p.invalid("Insert(key)", "the sequence key must be the first bound column")
		}
		ins.SequenceSQL = p.SequenceSQL(parts.Table, parts.Key)
	case IDLastInsertID:
		ins.LastIDSQL = p.caps.LastIDSQL
	}
	if len(parts.Columns) == 0 {
		if p.caps.DefaultValues == "" {
			return nil, p.invalid("Insert(fields)", "a row without values is not supported")
		}
		if strings.HasPrefix(p.caps.DefaultValues, "(") {
			b.WriteByte(' ')
			b.WriteString(p.caps.DefaultValues)
		} else {
			b.WriteString(output)
			b.WriteByte(' ')
			b.WriteString(p.caps.DefaultValues)
		}
	} else {
		b.WriteString(" (")
		b.WriteString(strings.Join(parts.Columns, ", "))
		b.WriteByte(')')
		b.WriteString(output)
		b.WriteString(" VALUES (")
		b.WriteString(strings.Join(parts.Values, ", "))
		b.WriteByte(')')
	}
	if parts.Strategy == IDReturning && p.caps.Returning == ReturningClause {
		b.WriteString(" RETURNING ")
		b.WriteString(ins.IDColumn)
	}
	ins.SQL, ins.Args = b.String(), parts.Args
	return ins, nil
}

// UpdateStatement assembles an UPDATE of t from rendered assignments and an
// optional predicate.
func (p *Provider) UpdateStatement(t *schema.Table, sets []string, where string) (string, error) {
	if len(sets) == 0 {
		return "", p.invalid("Update(fields)", "no columns to update")
	}
	s := "UPDATE " + p.QuoteTable(t) + " SET " + strings.Join(sets, ", ")
	if where != "" {
		s += " WHERE " + where
	}
	return s, nil
}

// DeleteStatement assembles a DELETE from t with an optional predicate.
func (p *Provider) DeleteStatement(t *schema.Table, where string) string {
	s := "DELETE FROM " + p.QuoteTable(t)
	if where != "" {
		s += " WHERE " + where
	}
	return s
}
