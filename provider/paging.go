package provider

import (
	"strconv"
	"strings"
)

// SelectColumn is one rendered projection.
type SelectColumn struct {
	SQL   string // rendered expression.
	Name  string // output name of a plain column reference.
	Alias string // explicit alias.
}

// OutputName returns the name of the column in the result set, or empty
// for an unaliased expression.
func (c SelectColumn) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// SelectParts are the rendered clauses of a SELECT statement, without
// keywords.
type SelectParts struct {
	Distinct bool
	Columns  []SelectColumn
	From     string // table and joins.
	Where    string
	GroupBy  string
	Having   string
	OrderBy  string
	// WindowOrderBy is OrderBy with alias and ordinal references replaced by
	// their expressions, for use inside OVER clauses.
	WindowOrderBy string
	// DefaultOrderBy orders by the primary key. It is used by paging
	// strategies that need a deterministic order.
	DefaultOrderBy string
	Offset         int
	Rows           *int // nil means unbounded.
	// Raw is a complete SELECT statement used instead of the clauses above.
	Raw string
}

func (s SelectParts) paged() bool { return s.Offset > 0 || s.Rows != nil }

func (s SelectParts) order() string {
	if s.OrderBy != "" {
		return s.OrderBy
	}
	return s.DefaultOrderBy
}

func (s SelectParts) windowOrder() string {
	switch {
	case s.WindowOrderBy != "":
		return s.WindowOrderBy
	case s.OrderBy != "":
		return s.OrderBy
	}
	return s.DefaultOrderBy
}

// SelectStatement assembles a SELECT statement, applying the paging
// strategy of the dialect to Offset and Rows.
func (p *Provider) SelectStatement(s SelectParts) (string, error) {
	return p.selectStatement(s, false)
}

// CountStatement assembles a statement counting the rows SelectStatement
// would return.
func (p *Provider) CountStatement(s SelectParts) (string, error) {
	if s.Raw == "" && !s.Distinct && s.GroupBy == "" && !s.paged() {
		return "SELECT COUNT(*)" + p.tail(s), nil
	}
	if !s.paged() {
		s.OrderBy, s.WindowOrderBy = "", ""
	}
	inner, err := p.selectStatement(s, true)
	if err != nil {
		return "", err
	}
	return "SELECT COUNT(*) FROM (" + inner + ")" + p.derived("_count"), nil
}

func (p *Provider) selectStatement(s SelectParts, counting bool) (string, error) {
	if s.Offset < 0 {
		return "", p.invalid("Skip(offset)", "must not be negative")
	}
	if s.Rows != nil && *s.Rows < 0 {
		return "", p.invalid("Take(rows)", "must not be negative")
	}
	if s.Raw != "" {
		return p.rawSelect(s, counting)
	}
	cols := p.columns(s.Columns, counting)
	if !s.paged() {
		return p.head(s.Distinct, "") + cols + p.tail(s) + p.orderBy(s.OrderBy), nil
	}
	rows := -1
	if s.Rows != nil {
		rows = *s.Rows
	}
	switch p.caps.Paging {
	case PagingLimitOffset:
		return p.head(s.Distinct, "") + cols + p.tail(s) + p.orderBy(s.OrderBy) + p.limitOffset(s.Offset, rows), nil
	case PagingOffsetFetch:
		return p.offsetFetch(s, cols, rows)
	case PagingFirstSkip:
		return p.head(s.Distinct, firstSkip(s.Offset, rows)) + cols + p.tail(s) + p.orderBy(s.OrderBy), nil
	case PagingRowNumber:
		return p.rowNumber(s, rows, counting)
	case PagingRowNum:
		return p.rowNum(s, rows, counting)
	}
	return "", p.unsupported("paging " + p.caps.Paging.String())
}

// head renders SELECT with an optional paging prefix and DISTINCT.
func (p *Provider) head(distinct bool, prefix string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	if distinct {
		b.WriteString("DISTINCT ")
	}
	return b.String()
}

// top renders SELECT with a SQL Server TOP clause, which follows DISTINCT.
func (p *Provider) top(distinct bool, rows int) string {
	if distinct {
		return "SELECT DISTINCT TOP (" + strconv.Itoa(rows) + ") "
	}
	return "SELECT TOP (" + strconv.Itoa(rows) + ") "
}

// tail renders the FROM, WHERE, GROUP BY and HAVING clauses.
func (p *Provider) tail(s SelectParts) string {
	var b strings.Builder
	b.WriteString(" FROM ")
	b.WriteString(s.From)
	if s.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where)
	}
	if s.GroupBy != "" {
		b.WriteString(" GROUP BY ")
		b.WriteString(s.GroupBy)
	}
	if s.Having != "" {
		b.WriteString(" HAVING ")
		b.WriteString(s.Having)
	}
	return b.String()
}

func (p *Provider) orderBy(order string) string {
	if order == "" {
		return ""
	}
	return " ORDER BY " + order
}

func (p *Provider) derived(alias string) string {
	if p.caps.TableAliasAS {
		return " AS " + p.QuoteName(alias)
	}
	return " " + p.QuoteName(alias)
}

// columns renders the projection. Nameless expressions get an alias when
// the statement is wrapped in a derived table.
func (p *Provider) columns(cols []SelectColumn, wrapped bool) string {
	if len(cols) == 0 {
		return "*"
	}
	if wrapped {
		inner, _ := p.windowColumns(cols)
		return inner
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.SQL
		if c.Alias != "" {
			parts[i] += " AS " + p.QuoteName(c.Alias)
		}
	}
	return strings.Join(parts, ", ")
}

// windowColumns renders the projection of a derived table with unique
// output names, and the outer projection restoring the original names.
func (p *Provider) windowColumns(cols []SelectColumn) (inner, outer string) {
	if len(cols) == 0 {
		return "*", "*"
	}
	seen := make(map[string]int, len(cols))
	in := make([]string, len(cols))
	out := make([]string, len(cols))
	for i, c := range cols {
		name, alias := c.OutputName(), c.Alias
		if name == "" {
			name = "_c" + strconv.Itoa(i+1)
			alias = name
		}
		key := strings.ToLower(name)
		if n := seen[key]; n > 0 {
			alias = name + "_" + strconv.Itoa(n+1)
		}
		seen[key]++
		in[i] = c.SQL
		out[i] = p.QuoteName(name)
		if alias != "" {
			in[i] += " AS " + p.QuoteName(alias)
			if alias != name {
				out[i] = p.QuoteName(alias) + " AS " + p.QuoteName(name)
			}
		}
	}
	return strings.Join(in, ", "), strings.Join(out, ", ")
}

func (p *Provider) limitOffset(offset, rows int) string {
	switch {
	case rows >= 0 && offset > 0:
		return " LIMIT " + strconv.Itoa(rows) + " OFFSET " + strconv.Itoa(offset)
	case rows >= 0:
		return " LIMIT " + strconv.Itoa(rows)
	case p.caps.UnboundedLimit != "":
		return " LIMIT " + p.caps.UnboundedLimit + " OFFSET " + strconv.Itoa(offset)
	default:
		return " OFFSET " + strconv.Itoa(offset)
	}
}

func firstSkip(offset, rows int) string {
	var parts []string
	if rows >= 0 {
		parts = append(parts, "FIRST "+strconv.Itoa(rows))
	}
	if offset > 0 {
		parts = append(parts, "SKIP "+strconv.Itoa(offset))
	}
	return strings.Join(parts, " ")
}

func offsetFetchClause(offset, rows int) string {
	if offset == 0 && rows >= 0 {
		return " FETCH FIRST " + strconv.Itoa(rows) + " ROWS ONLY"
	}
	s := " OFFSET " + strconv.Itoa(offset) + " ROWS"
	if rows >= 0 {
		s += " FETCH NEXT " + strconv.Itoa(rows) + " ROWS ONLY"
	}
	return s
}

func (p *Provider) offsetFetch(s SelectParts, cols string, rows int) (string, error) {
	order := s.order()
	if s.Offset == 0 && rows >= 0 {
		if p.caps.Top {
			return p.top(s.Distinct, rows) + cols + p.tail(s) + p.orderBy(order), nil
		}
		return p.head(s.Distinct, "") + cols + p.tail(s) + p.orderBy(order) + offsetFetchClause(0, rows), nil
	}
	if order == "" {
		return "", p.invalid("Skip(offset)", "paging requires an ORDER BY or a primary key")
	}
	return p.head(s.Distinct, "") + cols + p.tail(s) + p.orderBy(order) + offsetFetchClause(s.Offset, rows), nil
}

// rowNumber pages with ROW_NUMBER() in a derived table. DISTINCT is applied
// as GROUP BY, since row numbers would make every row distinct.
func (p *Provider) rowNumber(s SelectParts, rows int, counting bool) (string, error) {
	if s.Offset == 0 && p.caps.Top {
		cols := p.columns(s.Columns, counting)
		return p.top(s.Distinct, rows) + cols + p.tail(s) + p.orderBy(s.order()), nil
	}
	order := s.windowOrder()
	if order == "" {
		return "", p.invalid("Skip(offset)", "row-number paging requires an ORDER BY or a primary key")
	}
	if s.Distinct {
		if s.GroupBy != "" {
			return "", p.invalid("SelectDistinct", "DISTINCT cannot be combined with GROUP BY under row-number paging")
		}
		exprs := make([]string, len(s.Columns))
		for i, c := range s.Columns {
			exprs[i] = c.SQL
		}
		s.GroupBy, s.Distinct = strings.Join(exprs, ", "), false
	}
	inner, outer := p.windowColumns(s.Columns)
	rn := p.QuoteName("_rn")
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(outer)
	b.WriteString(" FROM (SELECT ")
	b.WriteString(inner)
	b.WriteString(", ROW_NUMBER() OVER (ORDER BY ")
	b.WriteString(order)
	b.WriteString(") AS ")
	b.WriteString(rn)
	b.WriteString(p.tail(s))
	b.WriteString(")")
	b.WriteString(p.derived("_page"))
	b.WriteString(" WHERE ")
	b.WriteString(rn)
	b.WriteString(" > ")
	b.WriteString(strconv.Itoa(s.Offset))
	if rows >= 0 {
		b.WriteString(" AND ")
		b.WriteString(rn)
		b.WriteString(" <= ")
		b.WriteString(strconv.Itoa(s.Offset + rows))
	}
	if !counting {
		b.WriteString(" ORDER BY ")
		b.WriteString(rn)
	}
	return b.String(), nil
}

// rowNum pages with Oracle ROWNUM over an ordered inline view.
func (p *Provider) rowNum(s SelectParts, rows int, counting bool) (string, error) {
	order := s.order()
	if order == "" {
		return "", p.invalid("Skip(offset)", "rownum paging requires an ORDER BY or a primary key")
	}
	inner, outer := p.windowColumns(s.Columns)
	body := p.head(s.Distinct, "") + inner + p.tail(s) + p.orderBy(order)
	return p.wrapRowNum(outer, body, s.Offset, rows, counting), nil
}

func (p *Provider) wrapRowNum(outer, body string, offset, rows int, counting bool) string {
	q, rn := p.QuoteName("_q"), p.QuoteName("_rn")
	if offset == 0 {
		return "SELECT " + outer + " FROM (" + body + ")" + p.derived("_q") + " WHERE ROWNUM <= " + strconv.Itoa(rows)
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(outer)
	b.WriteString(" FROM (SELECT ")
	b.WriteString(q)
	b.WriteString(".*, ROWNUM ")
	b.WriteString(rn)
	b.WriteString(" FROM (")
	b.WriteString(body)
	b.WriteString(")")
	b.WriteString(p.derived("_q"))
	if rows >= 0 {
		b.WriteString(" WHERE ROWNUM <= ")
		b.WriteString(strconv.Itoa(offset + rows))
	}
	b.WriteString(") WHERE ")
	b.WriteString(rn)
	b.WriteString(" > ")
	b.WriteString(strconv.Itoa(offset))
	if !counting {
		b.WriteString(" ORDER BY ")
		b.WriteString(rn)
	}
	return b.String()
}

// selectPrefix reports whether raw starts with the SELECT keyword.
func selectPrefix(raw string) bool {
	if len(raw) <= len("SELECT") || !strings.EqualFold(raw[:len("SELECT")], "SELECT") {
		return false
	}
	switch raw[len("SELECT")] {
	case ' ', '\t', '\n', '\r', '(', '*':
		return true
	}
	return false
}

// distinctPrefix reports whether raw starts with SELECT DISTINCT and returns
// the text that follows it.
func distinctPrefix(raw string) (string, bool) {
	if !selectPrefix(raw) {
		return "", false
	}
	rest := strings.TrimLeft(raw[len("SELECT"):], " \t\r\n")
	if len(rest) <= len("DISTINCT") || !strings.EqualFold(rest[:len("DISTINCT")], "DISTINCT") {
		return "", false
	}
	switch rest[len("DISTINCT")] {
	case ' ', '\t', '\n', '\r':
		return strings.TrimLeft(rest[len("DISTINCT"):], " \t\r\n"), true
	}
	return "", false
}

// rawSelect pages a caller supplied statement. Strategies that rewrite the
// projection require the statement to start with SELECT; windowed
// strategies require an explicit order.
func (p *Provider) rawSelect(s SelectParts, counting bool) (string, error) {
	raw := strings.TrimSpace(s.Raw)
	raw = strings.TrimSuffix(raw, ";")
	if !s.paged() {
		return raw + p.orderBy(s.OrderBy), nil
	}
	rows := -1
	if s.Rows != nil {
		rows = *s.Rows
	}
	insert := func(prefix string) (string, error) {
		if !selectPrefix(raw) {
			return "", p.invalid("Raw(sql)", "paging requires a statement starting with SELECT")
		}
		return "SELECT " + prefix + raw[len("SELECT"):] + p.orderBy(s.OrderBy), nil
	}
	switch p.caps.Paging {
	case PagingLimitOffset:
		return raw + p.orderBy(s.OrderBy) + p.limitOffset(s.Offset, rows), nil
	case PagingFirstSkip:
		return insert(firstSkip(s.Offset, rows))
	case PagingOffsetFetch:
		if s.OrderBy == "" {
			if p.caps.Top && s.Offset == 0 {
				if rest, ok := distinctPrefix(raw); ok {
					return p.top(true, rows) + rest + p.orderBy(s.OrderBy), nil
				}
				return insert("TOP (" + strconv.Itoa(rows) + ")")
			}
			if p.caps.Top {
				return "", p.invalid("Raw(sql)", "paging requires OrderBy")
			}
		}
		return raw + p.orderBy(s.OrderBy) + offsetFetchClause(s.Offset, rows), nil
	case PagingRowNumber:
		if s.OrderBy == "" {
			return "", p.invalid("Raw(sql)", "row-number paging requires OrderBy")
		}
		rn := p.QuoteName("_rn")
		var b strings.Builder
		b.WriteString("SELECT * FROM (SELECT ")
		b.WriteString(p.QuoteName("_raw"))
		b.WriteString(".*, ROW_NUMBER() OVER (ORDER BY ")
		b.WriteString(s.OrderBy)
		b.WriteString(") AS ")
		b.WriteString(rn)
		b.WriteString(" FROM (")
		b.WriteString(raw)
		b.WriteString(")")
		b.WriteString(p.derived("_raw"))
		b.WriteString(")")
		b.WriteString(p.derived("_page"))
		b.WriteString(" WHERE ")
		b.WriteString(rn)
		b.WriteString(" > ")
		b.WriteString(strconv.Itoa(s.Offset))
		if rows >= 0 {
			b.WriteString(" AND " + rn + " <= " + strconv.Itoa(s.Offset+rows))
		}
		if !counting {
			b.WriteString(" ORDER BY " + rn)
		}
		return b.String(), nil
	case PagingRowNum:
		if s.OrderBy == "" {
			return "", p.invalid("Raw(sql)", "rownum paging requires OrderBy")
		}
		return p.wrapRowNum("*", raw+p.orderBy(s.OrderBy), s.Offset, rows, counting), nil
	}
	return "", p.unsupported("paging " + p.caps.Paging.String())
}
