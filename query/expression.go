package query

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/syssam/orma"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// Statement is compiled SQL text with its ordered parameters.
type Statement = provider.Statement

type (
	join struct {
		kind  string
		table *schema.Table
		on    Node
	}
	set struct {
		f *field.Descriptor
		v Node
	}
)

// Expression accumulates the clauses of one statement over a table and
// compiles them for its provider. It is not safe for concurrent use; build
// one per statement or goroutine.
//
// Clauses are validated when added. The first error is kept, returned by
// Err and by every terminal method.
type Expression struct {
	p            *provider.Provider
	table        *schema.Table
	parameterize *bool
	selects      []Node
	distinct     bool
	where        Node
	joins        []join
	groupBy      []Node
	having       Node
	orderBy      []OrderNode
	offset       int
	rows         *int
	insertFields []*field.Descriptor
	updateFields []*field.Descriptor
	sets         []set
	raw          *RawNode
	err          error
}

// New returns an expression over table t compiled for provider p.
func New(p *provider.Provider, t *schema.Table) *Expression {
	e := &Expression{p: p, table: t}
	if t == nil {
		e.err = orma.NewInvalidArgumentError(p.Name(), "New(table)", "nil table")
		return e
	}
	if err := p.CheckTable(t); err != nil {
		e.err = err
	}
	return e
}

// Raw returns an expression selecting from a caller supplied statement.
// Each ? outside quoted text and comments is bound to the next argument.
// Ordering and paging apply to the raw statement as a whole.
//
//	query.Raw(p, "SELECT Name FROM Person WHERE Age > ?", 18).OrderBy(query.C("Name"))
func Raw(p *provider.Provider, sql string, args ...any) *Expression {
	e := &Expression{p: p, raw: &RawNode{SQL: sql, Args: args}}
	if strings.TrimSpace(sql) == "" {
		e.err = orma.NewInvalidArgumentError(p.Name(), "Raw(sql)", "empty statement")
	}
	return e
}

// Err returns the first error recorded while adding clauses.
func (e *Expression) Err() error { return e.err }

// Provider returns the provider the expression compiles for.
func (e *Expression) Provider() *provider.Provider { return e.p }

// Table returns the queried table.
func (e *Expression) Table() *schema.Table { return e.table }

func (e *Expression) fail(err error) *Expression {
	if e.err == nil && err != nil {
		e.err = err
	}
	return e
}

func (e *Expression) invalid(arg, reason string) *Expression {
	return e.fail(orma.NewInvalidArgumentError(e.p.Name(), arg, reason))
}

// check compiles a clause in isolation and records its error.
func (e *Expression) check(fn func(*compiler) error) {
	if e.err != nil {
		return
	}
	c := newCompiler(e, nil)
	c.lenient = true
	e.fail(fn(c))
}

func (e *Expression) parameterized() bool {
	if e.parameterize != nil {
		return *e.parameterize
	}
	return e.p.Parameterized()
}

// tables returns the queried table followed by the joined tables.
func (e *Expression) tables() []*schema.Table {
	ts := make([]*schema.Table, 0, len(e.joins)+1)
	if e.table != nil {
		ts = append(ts, e.table)
	}
	for _, j := range e.joins {
		ts = append(ts, j.table)
	}
	return ts
}

// Parameterized overrides the parameterization of the provider: bound
// parameters when true, inline literals when false.
func (e *Expression) Parameterized(b bool) *Expression {
	e.parameterize = &b
	return e
}

// Where adds predicates combined with AND to the WHERE clause. Calling it
// without arguments clears the clause.
func (e *Expression) Where(preds ...Node) *Expression {
	if len(preds) == 0 {
		e.where = nil
		return e
	}
	pred := And(preds...)
	if pred == nil {
		return e
	}
	e.check(func(c *compiler) error {
		_, err := c.predicate(pred)
		return err
	})
	e.where = And(e.where, pred)
	return e
}

// And is an alias of Where.
func (e *Expression) And(pred Node) *Expression { return e.Where(pred) }

// Or combines the WHERE clause with pred using OR.
func (e *Expression) Or(pred Node) *Expression {
	if pred == nil {
		return e
	}
	e.check(func(c *compiler) error {
		_, err := c.predicate(pred)
		return err
	})
	e.where = Or(e.where, pred)
	return e
}

// WhereRaw adds a caller supplied predicate. Each ? outside quoted text and
// comments is bound to the next argument.
func (e *Expression) WhereRaw(sql string, args ...any) *Expression {
	return e.Where(SQL(sql, args...))
}

// Select sets the projection. Calling it without arguments selects every
// column of the table.
func (e *Expression) Select(nodes ...Node) *Expression {
	e.distinct = false
	return e.project(nodes)
}

// SelectDistinct sets a projection without duplicate rows.
func (e *Expression) SelectDistinct(nodes ...Node) *Expression {
	e.project(nodes)
	e.distinct = true
	return e
}

func (e *Expression) project(nodes []Node) *Expression {
	e.selects = nil
	for _, n := range nodes {
		if n == nil {
			return e.invalid("Select", "nil column")
		}
		e.check(func(c *compiler) error {
			_, err := c.expr(n)
			return err
		})
	}
	e.selects = slices.Clone(nodes)
	return e
}

// Project selects the columns of t matching the fields of into by logical
// name, aliased to the physical column names of into.
func (e *Expression) Project(into *schema.Table) *Expression {
	if e.table == nil || into == nil {
		return e.invalid("Project", "nil table")
	}
	nodes := make([]Node, 0, len(into.Fields))
	for _, f := range into.Fields {
		src, ok := e.table.Field(f.Name)
		if !ok {
			return e.fail(orma.NewSchemaMismatchError(e.p.Name(), e.table.Name, f.Name))
		}
		var n Node = Col(e.table.Name, src.Name)
		if name := e.p.ColumnName(f); name != e.p.ColumnName(src) {
			n = As(n, name)
		}
		nodes = append(nodes, n)
	}
	return e.Select(nodes...)
}

// Join adds an INNER JOIN of t. A nil on infers the condition from the
// foreign keys between t and the tables already in the query.
func (e *Expression) Join(t *schema.Table, on Node) *Expression {
	return e.join("INNER JOIN", t, on)
}

// LeftJoin adds a LEFT JOIN of t.
func (e *Expression) LeftJoin(t *schema.Table, on Node) *Expression {
	return e.join("LEFT JOIN", t, on)
}

// RightJoin adds a RIGHT JOIN of t.
func (e *Expression) RightJoin(t *schema.Table, on Node) *Expression {
	return e.join("RIGHT JOIN", t, on)
}

// FullJoin adds a FULL JOIN of t.
func (e *Expression) FullJoin(t *schema.Table, on Node) *Expression {
	if e.p.Dialect() == dialect.MySQL {
		return e.fail(orma.NewUnsupportedExpressionError(e.p.Name(), "FULL JOIN"))
	}
	return e.join("FULL JOIN", t, on)
}

// CrossJoin adds a CROSS JOIN of t.
func (e *Expression) CrossJoin(t *schema.Table) *Expression {
	if t == nil {
		return e.invalid("CrossJoin", "nil table")
	}
	e.joins = append(e.joins, join{kind: "CROSS JOIN", table: t})
	return e
}

func (e *Expression) join(kind string, t *schema.Table, on Node) *Expression {
	if t == nil {
		return e.invalid(kind, "nil table")
	}
	if e.table == nil {
		return e.invalid(kind, "joins require a table")
	}
	if err := e.p.CheckTable(t); err != nil {
		return e.fail(err)
	}
	if on == nil {
		var ok bool
		if on, ok = e.relation(t); !ok {
			return e.invalid(kind, "no foreign key relates "+t.Name+" to the query")
		}
	}
	e.joins = append(e.joins, join{kind: kind, table: t, on: on})
	e.check(func(c *compiler) error {
		_, err := c.predicate(on)
		return err
	})
	return e
}

// relation infers the join condition of t from foreign keys in either
// direction.
func (e *Expression) relation(t *schema.Table) (Node, bool) {
	refers := func(from *schema.Table, f *field.Descriptor, to *schema.Table) (Node, bool) {
		fk := f.ForeignKey
		if fk == nil || !strings.EqualFold(fk.Table, to.Name) {
			return nil, false
		}
		target := to.PrimaryKey()
		if fk.Column != "" {
			target, _ = to.Field(fk.Column)
		}
		if target == nil {
			return nil, false
		}
		return EQ(Col(from.Name, f.Name), Col(to.Name, target.Name)), true
	}
	for _, s := range e.tables() {
		for _, f := range s.Fields {
			if on, ok := refers(s, f, t); ok {
				return on, true
			}
		}
		for _, f := range t.Fields {
			if on, ok := refers(t, f, s); ok {
				return on, true
			}
		}
	}
	return nil, false
}

func orderTerms(nodes []Node, desc bool) []OrderNode {
	return lo.Map(nodes, func(n Node, _ int) OrderNode {
		if o, ok := n.(OrderNode); ok {
			return o
		}
		return OrderNode{X: n, Desc: desc}
	})
}

func (e *Expression) order(terms []OrderNode, reset bool) *Expression {
	if reset {
		e.orderBy = nil
	}
	for _, o := range terms {
		if o.X == nil {
			return e.invalid("OrderBy", "nil term")
		}
		e.check(func(c *compiler) error {
			_, err := c.expr(o.X)
			return err
		})
	}
	e.orderBy = append(e.orderBy, terms...)
	return e
}

// OrderBy replaces the ordering. Terms are columns, expressions, Alias
// references to the projection, Ordinal positions or Asc/Desc wrappers.
// Calling it without arguments clears the ordering.
func (e *Expression) OrderBy(nodes ...Node) *Expression {
	return e.order(orderTerms(nodes, false), true)
}

// OrderByDescending replaces the ordering with descending terms.
func (e *Expression) OrderByDescending(nodes ...Node) *Expression {
	return e.order(orderTerms(nodes, true), true)
}

// ThenBy appends ascending terms to the ordering.
func (e *Expression) ThenBy(nodes ...Node) *Expression {
	return e.order(orderTerms(nodes, false), false)
}

// ThenByDescending appends descending terms to the ordering.
func (e *Expression) ThenByDescending(nodes ...Node) *Expression {
	return e.order(orderTerms(nodes, true), false)
}

// GroupBy sets the GROUP BY clause. Calling it without arguments clears it.
func (e *Expression) GroupBy(nodes ...Node) *Expression {
	e.groupBy = nil
	for _, n := range nodes {
		if n == nil {
			return e.invalid("GroupBy", "nil term")
		}
		e.check(func(c *compiler) error {
			_, err := c.expr(n)
			return err
		})
	}
	e.groupBy = slices.Clone(nodes)
	return e
}

// Having sets the HAVING predicate. A nil predicate clears it.
func (e *Expression) Having(pred Node) *Expression {
	e.having = nil
	if pred == nil {
		return e
	}
	e.check(func(c *compiler) error {
		_, err := c.predicate(pred)
		return err
	})
	e.having = pred
	return e
}

// Limit returns at most rows rows from the first row.
func (e *Expression) Limit(rows int) *Expression {
	e.offset = 0
	return e.Take(rows)
}

// Range skips offset rows and returns at most rows rows.
func (e *Expression) Range(offset, rows int) *Expression {
	return e.Skip(offset).Take(rows)
}

// Skip skips the first offset rows.
func (e *Expression) Skip(offset int) *Expression {
	if offset < 0 {
		return e.invalid("Skip(offset)", "must not be negative")
	}
	e.offset = offset
	return e
}

// Take returns at most rows rows.
func (e *Expression) Take(rows int) *Expression {
	if rows < 0 {
		return e.invalid("Take(rows)", "must not be negative")
	}
	e.rows = &rows
	return e
}

// ClearLimits removes the offset and the row limit.
func (e *Expression) ClearLimits() *Expression {
	e.offset, e.rows = 0, nil
	return e
}

func (e *Expression) fields(op string, names []string) ([]*field.Descriptor, bool) {
	if e.table == nil {
		e.invalid(op, "requires a table")
		return nil, false
	}
	fs := make([]*field.Descriptor, 0, len(names))
	for _, n := range names {
		f, ok := e.table.Field(n)
		if !ok {
			e.fail(orma.NewSchemaMismatchError(e.p.Name(), e.table.Name, n))
			return nil, false
		}
		fs = append(fs, f)
	}
	return fs, true
}

// Insert restricts the columns of ToInsertStatement to the given fields.
// Calling it without arguments removes the restriction.
func (e *Expression) Insert(fields ...string) *Expression {
	if fs, ok := e.fields("Insert", fields); ok {
		e.insertFields = fs
	}
	return e
}

// Update restricts the columns of ToUpdateStatement to the given fields.
// Calling it without arguments removes the restriction.
func (e *Expression) Update(fields ...string) *Expression {
	if fs, ok := e.fields("Update", fields); ok {
		e.updateFields = fs
	}
	return e
}

// Set adds an explicit assignment to ToUpdateStatement. v is a constant or
// a node, e.g. query.Add(query.C("Visits"), query.Value(1)).
func (e *Expression) Set(column string, v any) *Expression {
	fs, ok := e.fields("Set", []string{column})
	if !ok {
		return e
	}
	n := Value(v)
	e.check(func(c *compiler) error {
		_, err := c.assign(fs[0], n)
		return err
	})
	e.sets = append(e.sets, set{f: fs[0], v: n})
	return e
}

// ToSelectStatement compiles the SELECT statement.
func (e *Expression) ToSelectStatement() (Statement, error) {
	return e.selectStatement(false)
}

// ToCountStatement compiles a statement counting the rows the SELECT
// statement returns.
func (e *Expression) ToCountStatement() (Statement, error) {
	return e.selectStatement(true)
}

func (e *Expression) selectStatement(count bool) (Statement, error) {
	if e.err != nil {
		return Statement{}, e.err
	}
	c := newCompiler(e, nil)
	parts, err := c.selectParts()
	if err != nil {
		return Statement{}, err
	}
	var sql string
	if count {
		sql, err = e.p.CountStatement(parts)
	} else {
		sql, err = e.p.SelectStatement(parts)
	}
	if err != nil {
		return Statement{}, err
	}
	sql, args := c.params.number(e.p, sql)
	return Statement{SQL: sql, Args: args}, nil
}

// selectParts renders the clauses of a SELECT. Projections, grouping and
// ordering are rendered inline, since paging strategies repeat them.
func (c *compiler) selectParts() (provider.SelectParts, error) {
	e := c.e
	var s provider.SelectParts
	if e.raw != nil {
		sql, err := c.raw(*e.raw)
		if err != nil {
			return s, err
		}
		s.Raw = sql
	} else {
		var err error
		if s.Columns, err = c.columns(); err != nil {
			return s, err
		}
		if s.From, err = c.from(); err != nil {
			return s, err
		}
		if e.where != nil {
			if s.Where, err = c.predicate(e.where); err != nil {
				return s, err
			}
		}
		if len(e.groupBy) > 0 {
			if s.GroupBy, err = c.list(e.groupBy); err != nil {
				return s, err
			}
		}
		if e.having != nil {
			if s.Having, err = c.predicate(e.having); err != nil {
				return s, err
			}
		}
		s.Distinct = e.distinct
		switch {
		case s.GroupBy != "":
			s.DefaultOrderBy = s.GroupBy
		case e.distinct:
			s.DefaultOrderBy = strings.Join(lo.Map(s.Columns, func(col provider.SelectColumn, _ int) string { return col.SQL }), ", ")
		default:
			s.DefaultOrderBy = c.primaryKeyOrder()
		}
	}
	var err error
	if s.OrderBy, s.WindowOrderBy, err = c.orderBy(); err != nil {
		return s, err
	}
	s.Offset, s.Rows = e.offset, e.rows
	return s, nil
}

// columns renders the projection and records it for alias and ordinal
// references.
func (c *compiler) columns() ([]provider.SelectColumn, error) {
	e := c.e
	nodes := e.selects
	if len(nodes) == 0 {
		nodes = lo.Map(e.table.Fields, func(f *field.Descriptor, _ int) Node {
			return Col(e.table.Name, f.Name)
		})
	}
	cols := make([]provider.SelectColumn, 0, len(nodes))
	err := c.withInline(func() error {
		for _, n := range nodes {
			var col provider.SelectColumn
			if a, ok := n.(AliasNode); ok {
				col.Alias, n = a.Name, a.X
			}
			v, err := c.visit(n)
			if err != nil {
				return err
			}
			if f, ok := v.(fragment); ok && f.col != nil {
				col.Name = c.p.ColumnName(f.col)
			}
			if col.SQL, err = c.render(v); err != nil {
				return err
			}
			cols = append(cols, col)
			c.projections = append(c.projections, projection{sql: col.SQL, alias: col.OutputName()})
		}
		return nil
	})
	return cols, err
}

func (c *compiler) from() (string, error) {
	var b strings.Builder
	b.WriteString(c.p.QuoteTable(c.e.table))
	for _, j := range c.e.joins {
		b.WriteByte(' ')
		b.WriteString(j.kind)
		b.WriteByte(' ')
		b.WriteString(c.p.QuoteTable(j.table))
		if j.on != nil {
			on, err := c.predicate(j.on)
			if err != nil {
				return "", err
			}
			b.WriteString(" ON ")
			b.WriteString(on)
		}
	}
	return b.String(), nil
}

func (c *compiler) list(nodes []Node) (string, error) {
	parts := make([]string, len(nodes))
	err := c.withInline(func() error {
		for i, n := range nodes {
			s, err := c.expr(n)
			if err != nil {
				return err
			}
			parts[i] = s
		}
		return nil
	})
	return strings.Join(parts, ", "), err
}

func (c *compiler) primaryKeyOrder() string {
	pks := c.e.table.PrimaryKeys()
	return strings.Join(lo.Map(pks, func(f *field.Descriptor, _ int) string {
		if c.qualify {
			return c.p.QualifiedColumn(c.e.table, f)
		}
		return c.p.QuoteColumn(f)
	}), ", ")
}

// orderBy renders the ORDER BY terms, and the same terms with alias and
// ordinal references expanded for use in window functions.
func (c *compiler) orderBy() (order, window string, err error) {
	if len(c.e.orderBy) == 0 {
		return "", "", nil
	}
	terms := make([]string, len(c.e.orderBy))
	expanded := make([]string, len(c.e.orderBy))
	err = c.withInline(func() error {
		for i, o := range c.e.orderBy {
			dir := ""
			if o.Desc {
				dir = " DESC"
			}
			switch x := o.X.(type) {
			case AliasRef:
				terms[i] = c.p.QuoteName(x.Name) + dir
			case OrdinalNode:
				terms[i] = strconv.Itoa(x.N) + dir
			}
			s, err := c.expr(o.X)
			if err != nil {
				return err
			}
			if terms[i] == "" {
				terms[i] = s + dir
			}
			expanded[i] = s + dir
		}
		return nil
	})
	return strings.Join(terms, ", "), strings.Join(expanded, ", "), err
}

// rawColumn renders a column reference of a raw expression, which has no
// table to resolve against. The name is quoted as given.
func (c *compiler) rawColumn(col ColumnNode) (fragment, bool) {
	if c.e.table != nil {
		return fragment{}, false
	}
	return fragment{sql: c.p.QuoteName(col.Field)}, true
}

// assign renders the value assigned to f in a SET clause.
func (c *compiler) assign(f *field.Descriptor, n Node) (string, error) {
	v, err := c.visit(n)
	if err != nil {
		return "", err
	}
	if l, ok := v.(literal); ok {
		if err := c.p.Converters().CheckField(f, l.v); err != nil {
			return "", err
		}
	}
	return c.render(infer(v, fragment{typ: f.Type}))
}

// value renders a row value of f as a bound parameter or an inline literal.
func (c *compiler) value(f *field.Descriptor, v any) (string, error) {
	v = normalize(v)
	if c.inline {
		return c.p.Converters().FieldLiteral(f, v)
	}
	dv, err := c.p.Converters().FieldValue(f, v)
	if err != nil {
		return "", err
	}
	return c.arg(dv), nil
}

// rowValues maps the row to fields of the table. Unknown keys fail with a
// SchemaMismatchError.
func (e *Expression) rowValues(row schema.Row) (map[*field.Descriptor]any, error) {
	keys := lo.Keys(row)
	slices.Sort(keys)
	values := make(map[*field.Descriptor]any, len(row))
	for _, k := range keys {
		f, ok := e.table.Field(k)
		if !ok {
			return nil, orma.NewSchemaMismatchError(e.p.Name(), e.table.Name, k)
		}
		values[f] = row[k]
	}
	return values, nil
}

func writable(f *field.Descriptor) bool {
	return !f.Generated()
}

// ToInsertStatement compiles an INSERT of row, tagged with the protocol
// returning the generated key. Generated, computed and row version columns
// are left to the database. Without an Insert restriction, fields missing
// from row are omitted so their defaults apply.
func (e *Expression) ToInsertStatement(row schema.Row) (*provider.Insert, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.table == nil {
		return nil, orma.NewInvalidArgumentError(e.p.Name(), "Insert", "requires a table")
	}
	values, err := e.rowValues(row)
	if err != nil {
		return nil, err
	}
	strategy, key, err := e.p.IDStrategy(e.table)
	if err != nil {
		return nil, err
	}
	c := newCompiler(e, nil)
	parts := provider.InsertParts{Table: e.table, Key: key, Strategy: strategy}
	if strategy == provider.IDSequence {
		// The key is always bound: the driver fetches it first.
		parts.Columns = append(parts.Columns, e.p.QuoteColumn(key))
		parts.Values = append(parts.Values, c.arg(nil))
	}
	fields, restricted := e.table.Fields, len(e.insertFields) > 0
	if restricted {
		fields = e.insertFields
	}
	for _, f := range fields {
		if !writable(f) {
			continue
		}
		v, ok := values[f]
		if !ok && !restricted {
			continue
		}
		s, err := c.value(f, v)
		if err != nil {
			return nil, err
		}
		parts.Columns = append(parts.Columns, e.p.QuoteColumn(f))
		parts.Values = append(parts.Values, s)
	}
	parts.Args = c.params.args
	ins, err := e.p.InsertStatement(parts)
	if err != nil {
		return nil, err
	}
	ins.SQL, ins.Args = c.params.number(e.p, ins.SQL)
	return ins, nil
}

// ToUpdateStatement compiles an UPDATE. Explicit Set assignments come
// first, followed by the non-key fields of row. The predicate is the WHERE
// clause, or the primary key values of row when no WHERE was given. A row
// version value in row is added to the predicate.
func (e *Expression) ToUpdateStatement(row schema.Row) (Statement, error) {
	if e.err != nil {
		return Statement{}, e.err
	}
	if e.table == nil {
		return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Update", "requires a table")
	}
	if len(e.joins) > 0 {
		return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Update", "joins are not supported")
	}
	values, err := e.rowValues(row)
	if err != nil {
		return Statement{}, err
	}
	c := newCompiler(e, nil)
	var sets []string
	for _, s := range e.sets {
		v, err := c.assign(s.f, s.v)
		if err != nil {
			return Statement{}, err
		}
		sets = append(sets, e.p.QuoteColumn(s.f)+" = "+v)
	}
	fields, restricted := e.table.Fields, len(e.updateFields) > 0
	if restricted {
		fields = e.updateFields
	}
	for _, f := range fields {
		if f.PrimaryKey || !writable(f) {
			continue
		}
		v, ok := values[f]
		if !ok && !restricted {
			continue
		}
		s, err := c.value(f, v)
		if err != nil {
			return Statement{}, err
		}
		sets = append(sets, e.p.QuoteColumn(f)+" = "+s)
	}
	pred := e.where
	if pred == nil {
		pks := e.table.PrimaryKeys()
		for _, pk := range pks {
			v, ok := values[pk]
			if !ok {
				return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Update(where)", "requires Where or the primary key values")
			}
			pred = And(pred, EQ(Col(e.table.Name, pk.Name), TypedValue(v, pk.Type)))
		}
		if pred == nil {
			return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Update(where)", "requires Where or the primary key values")
		}
	}
	if rv := e.table.RowVersion(); rv != nil {
		if v, ok := values[rv]; ok {
			pred = And(pred, EQ(Col(e.table.Name, rv.Name), TypedValue(v, rv.Type)))
		}
	}
	where, err := c.predicate(pred)
	if err != nil {
		return Statement{}, err
	}
	sql, err := e.p.UpdateStatement(e.table, sets, where)
	if err != nil {
		return Statement{}, err
	}
	sql, args := c.params.number(e.p, sql)
	return Statement{SQL: sql, Args: args}, nil
}

// ToDeleteStatement compiles a DELETE of the rows matching the WHERE
// clause. Without a WHERE clause every row is deleted.
func (e *Expression) ToDeleteStatement() (Statement, error) {
	if e.err != nil {
		return Statement{}, e.err
	}
	if e.table == nil {
		return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Delete", "requires a table")
	}
	if len(e.joins) > 0 {
		return Statement{}, orma.NewInvalidArgumentError(e.p.Name(), "Delete", "joins are not supported")
	}
	c := newCompiler(e, nil)
	var where string
	if e.where != nil {
		var err error
		if where, err = c.predicate(e.where); err != nil {
			return Statement{}, err
		}
	}
	sql, args := c.params.number(e.p, e.p.DeleteStatement(e.table, where))
	return Statement{SQL: sql, Args: args}, nil
}
