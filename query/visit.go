package query

import (
	"strconv"
	"strings"

	"github.com/syssam/orma"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// sqlValue is the result of visiting a node: either a rendered fragment or
// a constant that is not rendered yet.
type sqlValue interface {
	sqlValue()
}

type (
	// fragment is rendered SQL. It is never quoted again.
	fragment struct {
		sql  string
		typ  field.Type
		pred bool              // a boolean predicate rather than a value.
		col  *field.Descriptor // set for plain column references.
	}
	// literal is a constant rendered through the converter, either inline
	// or as a bound parameter.
	literal struct {
		v      any
		typ    field.Type
		folded bool // computed at compile time; always rendered inline.
	}
)

func (fragment) sqlValue() {}
func (literal) sqlValue()  {}

// params collects bound arguments in placeholder order. It is shared with
// subqueries.
type params struct {
	args []any
}

// projection is a rendered select item, used to resolve aliases and
// ordinals.
type projection struct {
	sql   string
	alias string
}

// compiler visits the nodes of one expression. It is not safe for
// concurrent use and is discarded after compiling one statement.
type compiler struct {
	p           *provider.Provider
	e           *Expression
	params      *params
	inline      bool // render constants as literals.
	qualify     bool // qualify columns with their table.
	projections []projection
	// lenient accepts alias and ordinal references before the projection
	// is known, when clauses are validated as they are added.
	lenient bool
}

func newCompiler(e *Expression, ps *params) *compiler {
	if ps == nil {
		ps = &params{}
	}
	return &compiler{
		p:       e.p,
		e:       e,
		params:  ps,
		inline:  !e.parameterized(),
		qualify: len(e.joins) > 0,
	}
}

func (c *compiler) unsupported(expr string) error {
	return orma.NewUnsupportedExpressionError(c.p.Name(), expr)
}

func (c *compiler) invalid(arg, reason string) error {
	return orma.NewInvalidArgumentError(c.p.Name(), arg, reason)
}

// withInline runs fn rendering constants inline.
func (c *compiler) withInline(fn func() error) error {
	prev := c.inline
	c.inline = true
	defer func() { c.inline = prev }()
	return fn()
}

// resolve finds the table and field referenced by col.
func (c *compiler) resolve(col ColumnNode) (*schema.Table, *field.Descriptor, error) {
	tables := c.e.tables()
	if col.Table != "" {
		for _, t := range tables {
			if strings.EqualFold(t.Name, col.Table) || (t.Alias != "" && strings.EqualFold(t.Alias, col.Table)) {
				if f, ok := t.Field(col.Field); ok {
					return t, f, nil
				}
				return nil, nil, orma.NewSchemaMismatchError(c.p.Name(), t.Name, col.Field)
			}
		}
		return nil, nil, orma.NewSchemaMismatchError(c.p.Name(), col.Table, col.Field)
	}
	for _, t := range tables {
		if f, ok := t.Field(col.Field); ok {
			return t, f, nil
		}
	}
	return nil, nil, orma.NewSchemaMismatchError(c.p.Name(), c.e.table.Name, col.Field)
}

func (c *compiler) column(col ColumnNode) (fragment, error) {
	if err := c.text("C(name)", col.Table+col.Field); err != nil {
		return fragment{}, err
	}
	if f, ok := c.rawColumn(col); ok {
		return f, nil
	}
	t, f, err := c.resolve(col)
	if err != nil {
		return fragment{}, err
	}
	sql := c.p.QuoteColumn(f)
	if c.qualify {
		sql = c.p.QualifiedColumn(t, f)
	}
	return fragment{sql: sql, typ: f.Type, col: f}, nil
}

// visit compiles n without rendering constants.
func (c *compiler) visit(n Node) (sqlValue, error) {
	switch n := n.(type) {
	case nil:
		return nil, c.invalid("expression", "nil node")
	case columnar:
		return c.column(n.column())
	case ValueNode:
		return literal{v: normalize(n.Value), typ: n.Type}, nil
	case BinaryNode:
		return c.binary(n)
	case UnaryNode:
		return c.unary(n)
	case CallNode:
		return c.call(n)
	case SubqueryNode:
		s, err := c.subquery(n.Query)
		if err != nil {
			return nil, err
		}
		return fragment{sql: "(" + s + ")"}, nil
	case RawNode:
		s, err := c.raw(n)
		if err != nil {
			return nil, err
		}
		return fragment{sql: s}, nil
	case AliasNode:
		if err := c.text("As(alias)", n.Name); err != nil {
			return nil, err
		}
		return c.visit(n.X)
	case AliasRef:
		if err := c.text("Alias(name)", n.Name); err != nil {
			return nil, err
		}
		for _, p := range c.projections {
			if strings.EqualFold(p.alias, n.Name) {
				return fragment{sql: p.sql}, nil
			}
		}
		if c.lenient {
			return fragment{sql: c.p.QuoteName(n.Name)}, nil
		}
		return nil, c.invalid("Alias("+n.Name+")", "no projection has this alias")
	case OrdinalNode:
		if n.N >= 1 && n.N <= len(c.projections) {
			return fragment{sql: c.projections[n.N-1].sql}, nil
		}
		if c.lenient && n.N >= 1 {
			return fragment{sql: strconv.Itoa(n.N)}, nil
		}
		return nil, c.invalid("Ordinal("+strconv.Itoa(n.N)+")", "out of range of the projection")
	case ListNode:
		return nil, c.invalid("list", "a list is only valid on the right side of IN")
	case OrderNode:
		return nil, c.invalid("order", "ordering is only valid in OrderBy")
	}
	return nil, c.unsupported("node")
}

// render returns the SQL of v, binding or inlining constants.
func (c *compiler) render(v sqlValue) (string, error) {
	switch v := v.(type) {
	case fragment:
		return v.sql, nil
	case literal:
		return c.bind(v)
	}
	return "", c.unsupported("value")
}

func (c *compiler) bind(l literal) (string, error) {
	if l.v == nil {
		return "NULL", nil
	}
	if c.inline || l.folded {
		return c.p.Literal(l.typ, l.v)
	}
	v, err := c.p.Converters().DbValue(l.typ, l.v)
	if err != nil {
		return "", err
	}
	return c.arg(v), nil
}

// mark delimits the index of a bound argument in compiled SQL until the
// statement is numbered.
const mark = "\x00"

// text rejects caller supplied text that could be mistaken for a marker.
func (c *compiler) text(arg, s string) error {
	if strings.Contains(s, mark) {
		return c.invalid(arg, "must not contain a NUL byte")
	}
	return nil
}

// arg appends a bound argument and returns its marker.
func (c *compiler) arg(v any) string {
	c.params.args = append(c.params.args, v)
	return mark + strconv.Itoa(len(c.params.args)-1) + mark
}

// number replaces the argument markers of sql with placeholders and orders
// the arguments as their markers appear in the text. A marker repeated by a
// rewrite of the statement repeats its argument.
func (ps *params) number(p *provider.Provider, sql string) (string, []any) {
	if len(ps.args) == 0 {
		return sql, nil
	}
	var (
		b    strings.Builder
		args = make([]any, 0, len(ps.args))
	)
	for {
		i := strings.Index(sql, mark)
		if i < 0 {
			break
		}
		j := strings.Index(sql[i+1:], mark)
		if j < 0 {
			break
		}
		k, err := strconv.Atoi(sql[i+1 : i+1+j])
		if err != nil || k >= len(ps.args) {
			b.WriteString(sql[:i+1])
			sql = sql[i+1:]
			continue
		}
		b.WriteString(sql[:i])
		args = append(args, ps.args[k])
		b.WriteString(p.Placeholder(len(args)))
		sql = sql[i+2+j:]
	}
	b.WriteString(sql)
	return b.String(), args
}

// expr compiles n to SQL.
func (c *compiler) expr(n Node) (string, error) {
	v, err := c.visit(n)
	if err != nil {
		return "", err
	}
	return c.render(v)
}

// predicate compiles n in a boolean position. Bare boolean columns and
// constants are turned into comparisons on engines without a boolean type.
func (c *compiler) predicate(n Node) (string, error) {
	v, err := c.visit(n)
	if err != nil {
		return "", err
	}
	return c.test(v)
}

func (c *compiler) test(v sqlValue) (string, error) {
	switch v := v.(type) {
	case fragment:
		if v.pred || v.typ != field.TypeBool || c.p.NativeBoolean() {
			return v.sql, nil
		}
		return v.sql + " = " + c.p.BoolLiteral(true), nil
	case literal:
		b, ok := v.v.(bool)
		if !ok {
			return "", c.invalid("predicate", "a constant predicate must be a bool")
		}
		if c.p.NativeBoolean() {
			return c.p.BoolLiteral(b), nil
		}
		if b {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}
	return "", c.unsupported("predicate")
}

// infer types an untyped constant after the other operand.
func infer(v, other sqlValue) sqlValue {
	l, ok := v.(literal)
	if !ok || l.typ.Valid() {
		return v
	}
	switch o := other.(type) {
	case fragment:
		l.typ = o.typ
	case literal:
		l.typ = o.typ
	}
	return l
}

func isNull(v sqlValue) bool {
	l, ok := v.(literal)
	return ok && l.v == nil
}

func (c *compiler) binary(n BinaryNode) (sqlValue, error) {
	switch {
	case n.Op.logical():
		return c.logical(n)
	case n.Op == OpIn || n.Op == OpNotIn:
		return c.in(n)
	}
	l, err := c.visit(n.L)
	if err != nil {
		return nil, err
	}
	r, err := c.visit(n.R)
	if err != nil {
		return nil, err
	}
	l, r = infer(l, r), infer(r, l)
	ll, lok := l.(literal)
	rl, rok := r.(literal)
	if lok && rok {
		if v, ok := foldBinary(n.Op, ll, rl); ok {
			return v, nil
		}
	}
	if (n.Op == OpEQ || n.Op == OpNEQ) && (isNull(l) || isNull(r)) {
		x := l
		if isNull(l) {
			x = r
		}
		if isNull(x) {
			return folded(n.Op == OpEQ), nil
		}
		s, err := c.render(x)
		if err != nil {
			return nil, err
		}
		if n.Op == OpEQ {
			return fragment{sql: s + " IS NULL", pred: true}, nil
		}
		return fragment{sql: s + " IS NOT NULL", pred: true}, nil
	}
	ls, err := c.render(l)
	if err != nil {
		return nil, err
	}
	rs, err := c.render(r)
	if err != nil {
		return nil, err
	}
	if n.Op.comparison() {
		return fragment{sql: ls + " " + n.Op.String() + " " + rs, pred: true}, nil
	}
	typ := typeOf(l)
	if !typ.Valid() {
		typ = typeOf(r)
	}
	switch {
	case n.Op == OpAdd && typ.Textual():
		return fragment{sql: c.p.Concat(ls, rs), typ: typ}, nil
	case n.Op == OpMod:
		return fragment{sql: c.p.Mod(ls, rs), typ: typ}, nil
	}
	return fragment{sql: "(" + ls + " " + n.Op.String() + " " + rs + ")", typ: typ}, nil
}

func typeOf(v sqlValue) field.Type {
	switch v := v.(type) {
	case fragment:
		return v.typ
	case literal:
		if v.typ.Valid() {
			return v.typ
		}
		return field.TypeOf(v.v)
	}
	return field.TypeInvalid
}

// logical renders a chain of AND or OR. Nested chains of the other
// operator are parenthesized.
func (c *compiler) logical(n BinaryNode) (sqlValue, error) {
	var operands []Node
	var flatten func(Node)
	flatten = func(x Node) {
		if b, ok := x.(BinaryNode); ok && b.Op == n.Op {
			flatten(b.L)
			flatten(b.R)
			return
		}
		operands = append(operands, x)
	}
	flatten(n)
	parts := make([]string, 0, len(operands))
	for _, x := range operands {
		v, err := c.visit(x)
		if err != nil {
			return nil, err
		}
		if l, ok := v.(literal); ok {
			if b, ok := l.v.(bool); ok && len(operands) > 1 {
				// TRUE AND x is x, FALSE OR x is x.
				if (n.Op == OpAnd && b) || (n.Op == OpOr && !b) {
					continue
				}
			}
		}
		s, err := c.test(v)
		if err != nil {
			return nil, err
		}
		switch x := x.(type) {
		case BinaryNode:
			if x.Op.logical() {
				s = "(" + s + ")"
			}
		case RawNode:
			if len(operands) > 1 {
				s = "(" + s + ")"
			}
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return folded(n.Op == OpAnd), nil
	}
	return fragment{sql: strings.Join(parts, " "+n.Op.String()+" "), pred: true}, nil
}

// in renders IN and NOT IN. NULL items match NULL values, and an empty
// list matches nothing.
func (c *compiler) in(n BinaryNode) (sqlValue, error) {
	x, err := c.visit(n.L)
	if err != nil {
		return nil, err
	}
	xs, err := c.render(x)
	if err != nil {
		return nil, err
	}
	not := n.Op == OpNotIn
	switch r := n.R.(type) {
	case ListNode:
		var (
			items   []string
			hasNull bool
		)
		for _, item := range r.Items {
			v, err := c.visit(item)
			if err != nil {
				return nil, err
			}
			if isNull(v) {
				hasNull = true
				continue
			}
			s, err := c.render(infer(v, x))
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		var sql string
		switch {
		case len(items) == 0 && !hasNull:
			if not {
				return folded(true), nil
			}
			return folded(false), nil
		case len(items) == 0 && not:
			sql = xs + " IS NOT NULL"
		case len(items) == 0:
			sql = xs + " IS NULL"
		case not && hasNull:
			sql = "(" + xs + " NOT IN (" + strings.Join(items, ", ") + ") AND " + xs + " IS NOT NULL)"
		case hasNull:
			sql = "(" + xs + " IN (" + strings.Join(items, ", ") + ") OR " + xs + " IS NULL)"
		default:
			sql = xs + " " + n.Op.String() + " (" + strings.Join(items, ", ") + ")"
		}
		return fragment{sql: sql, pred: true}, nil
	case SubqueryNode:
		s, err := c.subquery(r.Query)
		if err != nil {
			return nil, err
		}
		return fragment{sql: xs + " " + n.Op.String() + " (" + s + ")", pred: true}, nil
	case RawNode:
		s, err := c.raw(r)
		if err != nil {
			return nil, err
		}
		return fragment{sql: xs + " " + n.Op.String() + " (" + s + ")", pred: true}, nil
	}
	return nil, c.invalid(n.Op.String(), "the right side must be a list, a subquery or raw SQL")
}

func (c *compiler) unary(n UnaryNode) (sqlValue, error) {
	switch n.Op {
	case OpNot:
		v, err := c.visit(n.X)
		if err != nil {
			return nil, err
		}
		if l, ok := v.(literal); ok {
			if b, ok := l.v.(bool); ok {
				return folded(!b), nil
			}
		}
		s, err := c.test(v)
		if err != nil {
			return nil, err
		}
		return fragment{sql: "NOT (" + s + ")", pred: true}, nil
	case OpNeg:
		v, err := c.visit(n.X)
		if err != nil {
			return nil, err
		}
		if l, ok := v.(literal); ok {
			if r, ok := foldBinary(OpSub, literal{v: int64(0)}, l); ok {
				return r, nil
			}
		}
		s, err := c.render(v)
		if err != nil {
			return nil, err
		}
		return fragment{sql: "-(" + s + ")", typ: typeOf(v)}, nil
	case OpIsNull, OpNotNull:
		v, err := c.visit(n.X)
		if err != nil {
			return nil, err
		}
		if l, ok := v.(literal); ok {
			return folded((l.v == nil) == (n.Op == OpIsNull)), nil
		}
		s, err := c.render(v)
		if err != nil {
			return nil, err
		}
		return fragment{sql: s + " " + n.Op.String(), pred: true}, nil
	}
	return nil, c.unsupported(n.Op.String())
}

func (c *compiler) call(n CallNode) (sqlValue, error) {
	name := strings.ToLower(n.Name)
	switch name {
	case "startswith", "endswith", "contains":
		return c.like(name, n.Args)
	case "equalfold":
		if len(n.Args) != 2 {
			return nil, c.invalid(n.Name, "wrong number of arguments")
		}
		a, b, err := c.pair(n.Args[0], n.Args[1])
		if err != nil {
			return nil, err
		}
		return fragment{sql: c.p.EqualFold(a, b), pred: true}, nil
	case "substring":
		return c.substring(n)
	}
	vals := make([]sqlValue, len(n.Args))
	lits := make([]literal, 0, len(n.Args))
	for i, a := range n.Args {
		v, err := c.visit(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		if l, ok := v.(literal); ok {
			lits = append(lits, l)
		}
	}
	if len(lits) == len(vals) && len(vals) > 0 {
		if v, ok := foldCall(name, lits); ok {
			return v, nil
		}
	}
	args := make([]string, len(vals))
	for i, v := range vals {
		if i > 0 {
			v = infer(v, vals[0])
		}
		s, err := c.render(v)
		if err != nil {
			return nil, err
		}
		args[i] = s
	}
	sql, err := c.p.Call(name, args...)
	if err != nil {
		return nil, err
	}
	var typ field.Type
	switch name {
	case "count", "countdistinct", "length":
		typ = field.TypeInt64
	case "upper", "lower", "trim", "concat":
		typ = field.TypeString
	case "avg":
		typ = field.TypeFloat64
	default:
		if len(vals) > 0 {
			typ = typeOf(vals[0])
		}
	}
	return fragment{sql: sql, typ: typ}, nil
}

func (c *compiler) pair(a, b Node) (string, string, error) {
	av, err := c.visit(a)
	if err != nil {
		return "", "", err
	}
	bv, err := c.visit(b)
	if err != nil {
		return "", "", err
	}
	as, err := c.render(infer(av, bv))
	if err != nil {
		return "", "", err
	}
	bs, err := c.render(infer(bv, av))
	if err != nil {
		return "", "", err
	}
	return as, bs, nil
}

// like renders the pattern predicates. Constant patterns have their
// wildcards escaped.
func (c *compiler) like(name string, args []Node) (sqlValue, error) {
	if len(args) != 2 {
		return nil, c.invalid(name, "wrong number of arguments")
	}
	x, err := c.expr(args[0])
	if err != nil {
		return nil, err
	}
	v, err := c.visit(args[1])
	if err != nil {
		return nil, err
	}
	var pattern string
	switch v := v.(type) {
	case literal:
		s, ok := v.v.(string)
		if !ok {
			return nil, c.invalid(name, "the pattern must be a string")
		}
		s = c.p.EscapeLike(s)
		switch name {
		case "startswith":
			s += "%"
		case "endswith":
			s = "%" + s
		default:
			s = "%" + s + "%"
		}
		if pattern, err = c.bind(literal{v: s, typ: field.TypeString}); err != nil {
			return nil, err
		}
	case fragment:
		wild := c.p.Quote("%")
		switch name {
		case "startswith":
			pattern = c.p.Concat(v.sql, wild)
		case "endswith":
			pattern = c.p.Concat(wild, v.sql)
		default:
			pattern = c.p.Concat(wild, v.sql, wild)
		}
	}
	return fragment{sql: c.p.Like(x, pattern, false), pred: true}, nil
}

// substring shifts the 0-based start index to the 1-based SQL index.
func (c *compiler) substring(n CallNode) (sqlValue, error) {
	if len(n.Args) < 2 || len(n.Args) > 3 {
		return nil, c.invalid(n.Name, "wrong number of arguments")
	}
	xv, err := c.visit(n.Args[0])
	if err != nil {
		return nil, err
	}
	start, err := c.visit(n.Args[1])
	if err != nil {
		return nil, err
	}
	var length sqlValue
	if len(n.Args) == 3 {
		if length, err = c.visit(n.Args[2]); err != nil {
			return nil, err
		}
	}
	if v, ok := foldSubstring(xv, start, length); ok {
		return v, nil
	}
	x, err := c.render(xv)
	if err != nil {
		return nil, err
	}
	var from string
	switch v := start.(type) {
	case literal:
		i, ok := toNumber(v.v)
		if !ok || !i.isInt || i.i < 0 {
			return nil, c.invalid(n.Name, "the start index must be a non-negative integer")
		}
		from = strconv.FormatInt(i.i+1, 10)
	case fragment:
		from = "(" + v.sql + " + 1)"
	}
	var count string
	switch v := length.(type) {
	case literal:
		i, ok := toNumber(v.v)
		if !ok || !i.isInt || i.i < 0 {
			return nil, c.invalid(n.Name, "the length must be a non-negative integer")
		}
		count = strconv.FormatInt(i.i, 10)
	case fragment:
		count = v.sql
	}
	return fragment{sql: c.p.Substring(x, from, count), typ: field.TypeString}, nil
}

// raw binds the arguments of a raw fragment to its ? markers. Markers
// inside string literals, quoted identifiers and comments are left alone.
func (c *compiler) raw(n RawNode) (string, error) {
	if err := c.text("SQL(sql)", n.SQL); err != nil {
		return "", err
	}
	sc := rawScanner{
		brackets:  c.p.Dialect() == dialect.SQLServer || c.p.Dialect() == dialect.SQLite,
		backslash: c.p.Converters().Options().BackslashEscape,
	}
	var (
		b    strings.Builder
		next int
		sql  = n.SQL
	)
	for i := 0; i < len(sql); i++ {
		if j := sc.skip(sql, i); j > i {
			b.WriteString(sql[i:j])
			i = j - 1
			continue
		}
		if sql[i] != '?' {
			b.WriteByte(sql[i])
			continue
		}
		if next >= len(n.Args) {
			return "", c.invalid("SQL(args)", "fewer arguments than markers")
		}
		s, err := c.bind(literal{v: normalize(n.Args[next])})
		if err != nil {
			return "", err
		}
		next++
		b.WriteString(s)
	}
	if next != len(n.Args) {
		return "", c.invalid("SQL(args)", "more arguments than markers")
	}
	return b.String(), nil
}

// rawScanner finds the spans of raw SQL that cannot hold a marker.
type rawScanner struct {
	brackets  bool // [quoted] identifiers.
	backslash bool // backslash escapes in string literals.
}

// skip returns the end of the literal, quoted identifier or comment
// starting at sql[i], or i when none starts there. An unterminated span
// runs to the end of sql.
func (sc rawScanner) skip(sql string, i int) int {
	switch ch := sql[i]; {
	case ch == '\'' || ch == '"':
		for k := i + 1; k < len(sql); k++ {
			switch {
			case sc.backslash && sql[k] == '\\':
				k++
			case sql[k] == ch:
				return k + 1
			}
		}
		return len(sql)
	case ch == '`':
		return until(sql, i+1, "`")
	case ch == '[' && sc.brackets:
		return until(sql, i+1, "]")
	case strings.HasPrefix(sql[i:], "--"):
		return until(sql, i+2, "\n")
	case strings.HasPrefix(sql[i:], "/*"):
		return until(sql, i+2, "*/")
	}
	return i
}

// until returns the index after the first end in sql[from:], or len(sql).
func until(sql string, from int, end string) int {
	if k := strings.Index(sql[from:], end); k >= 0 {
		return from + k + len(end)
	}
	return len(sql)
}

// subquery compiles q sharing the bound arguments of the outer statement.
func (c *compiler) subquery(q *Expression) (string, error) {
	if q == nil {
		return "", c.invalid("subquery", "nil expression")
	}
	if q.err != nil {
		return "", q.err
	}
	sub := newCompiler(q, c.params)
	sub.p = c.p
	sub.inline = sub.inline || c.inline
	parts, err := sub.selectParts()
	if err != nil {
		return "", err
	}
	return c.p.SelectStatement(parts)
}

// foldSubstring evaluates substring over a constant string with constant
// bounds.
func foldSubstring(x, start, length sqlValue) (literal, bool) {
	l, ok := x.(literal)
	if !ok {
		return literal{}, false
	}
	s, ok := l.v.(string)
	if !ok {
		return literal{}, false
	}
	sv, ok := start.(literal)
	if !ok {
		return literal{}, false
	}
	from, ok := toNumber(sv.v)
	if !ok || !from.isInt || from.i < 0 {
		return literal{}, false
	}
	r := []rune(s)
	i := min(int(from.i), len(r))
	j := len(r)
	if length != nil {
		lv, ok := length.(literal)
		if !ok {
			return literal{}, false
		}
		n, ok := toNumber(lv.v)
		if !ok || !n.isInt || n.i < 0 {
			return literal{}, false
		}
		j = min(i+int(n.i), len(r))
	}
	return folded(string(r[i:j])), true
}
