package query

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/syssam/orma/schema/field"
)

// columnar is implemented by the column node and the typed fields.
type columnar interface {
	Node
	column() ColumnNode
}

func (c ColumnNode) column() ColumnNode { return c }

// C returns a reference to a field by logical name. A "Table.Field" name
// references a joined table.
//
//	query.C("City")
//	query.C("Order.Total")
func C(name string) ColumnNode {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return ColumnNode{Table: name[:i], Field: name[i+1:]}
	}
	return ColumnNode{Field: name}
}

// Col returns a reference to field of table.
func Col(table, name string) ColumnNode {
	return ColumnNode{Table: table, Field: name}
}

// Field is a column typed by its Go value type. It provides predicate
// methods accepting values of that type.
//
//	var age = query.Int("Age")
//	q.Where(age.GTE(18), age.LT(65))
type Field[T any] struct {
	col ColumnNode
}

func (Field[T]) node() {}

func (f Field[T]) column() ColumnNode { return f.col }

// Typed returns a field of type T.
func Typed[T any](name string) Field[T] { return Field[T]{col: C(name)} }

// Name returns the logical field name.
func (f Field[T]) Name() string { return f.col.Field }

// EQ returns a predicate that checks if the field equals v. A nil v
// renders IS NULL.
func (f Field[T]) EQ(v T) Node { return EQ(f, Value(v)) }

// NEQ returns a predicate that checks if the field does not equal v. A nil
// v renders IS NOT NULL.
func (f Field[T]) NEQ(v T) Node { return NEQ(f, Value(v)) }

// GT returns a predicate that checks if the field is greater than v.
func (f Field[T]) GT(v T) Node { return GT(f, Value(v)) }

// GTE returns a predicate that checks if the field is greater than or equal to v.
func (f Field[T]) GTE(v T) Node { return GTE(f, Value(v)) }

// LT returns a predicate that checks if the field is less than v.
func (f Field[T]) LT(v T) Node { return LT(f, Value(v)) }

// LTE returns a predicate that checks if the field is less than or equal to v.
func (f Field[T]) LTE(v T) Node { return LTE(f, Value(v)) }

// In returns a predicate that checks if the field value is in vs.
func (f Field[T]) In(vs ...T) Node { return InSlice(f, vs) }

// NotIn returns a predicate that checks if the field value is not in vs.
func (f Field[T]) NotIn(vs ...T) Node { return NotInSlice(f, vs) }

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[T]) IsNull() Node { return IsNull(f) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[T]) NotNull() Node { return NotNull(f) }

// As names the field in a projection.
func (f Field[T]) As(name string) Node { return As(f, name) }

// Asc orders by the field ascending.
func (f Field[T]) Asc() Node { return Asc(f) }

// Desc orders by the field descending.
func (f Field[T]) Desc() Node { return Desc(f) }

// StringField is a string column with pattern and string function helpers.
type StringField struct {
	Field[string]
}

// Contains returns a predicate that checks if the field contains s.
func (f StringField) Contains(s string) Node { return Contains(f, s) }

// HasPrefix returns a predicate that checks if the field starts with s.
func (f StringField) HasPrefix(s string) Node { return StartsWith(f, s) }

// HasSuffix returns a predicate that checks if the field ends with s.
func (f StringField) HasSuffix(s string) Node { return EndsWith(f, s) }

// EqualFold returns a predicate that checks if the field equals s, ignoring case.
func (f StringField) EqualFold(s string) Node {
	return CallNode{Name: "equalFold", Args: []Node{f, Value(s)}}
}

// Upper returns the upper-cased field.
func (f StringField) Upper() Node { return Upper(f) }

// Lower returns the lower-cased field.
func (f StringField) Lower() Node { return Lower(f) }

// Length returns the character length of the field.
func (f StringField) Length() Node { return Length(f) }

// Trim returns the field without surrounding spaces.
func (f StringField) Trim() Node { return Trim(f) }

// Substring returns the substring starting at the 0-based index start.
func (f StringField) Substring(start int, length ...int) Node {
	return Substring(f, start, length...)
}

// String returns a string field.
func String(name string) StringField { return StringField{Field[string]{col: C(name)}} }

// Int returns an int field.
func Int(name string) Field[int] { return Typed[int](name) }

// Int64 returns an int64 field.
func Int64(name string) Field[int64] { return Typed[int64](name) }

// Float returns a float64 field.
func Float(name string) Field[float64] { return Typed[float64](name) }

// Bool returns a bool field. It can be used as a predicate by itself.
func Bool(name string) Field[bool] { return Typed[bool](name) }

// Time returns a time field.
func Time(name string) Field[time.Time] { return Typed[time.Time](name) }

// UUID returns a uuid field.
func UUID(name string) Field[uuid.UUID] { return Typed[uuid.UUID](name) }

// Decimal returns a decimal field.
func Decimal(name string) Field[decimal.Decimal] { return Typed[decimal.Decimal](name) }

// Bytes returns a bytes field.
func Bytes(name string) Field[[]byte] { return Typed[[]byte](name) }

// Value returns a constant node. Nodes are returned unchanged.
func Value(v any) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	return ValueNode{Value: v}
}

// TypedValue returns a constant rendered with the converter of t.
func TypedValue(v any, t field.Type) Node { return ValueNode{Value: v, Type: t} }

// EQ returns a = b. Comparing with a nil constant renders IS NULL.
func EQ(a, b Node) Node { return BinaryNode{Op: OpEQ, L: a, R: b} }

// NEQ returns a <> b. Comparing with a nil constant renders IS NOT NULL.
func NEQ(a, b Node) Node { return BinaryNode{Op: OpNEQ, L: a, R: b} }

// LT returns a < b.
func LT(a, b Node) Node { return BinaryNode{Op: OpLT, L: a, R: b} }

// LTE returns a <= b.
func LTE(a, b Node) Node { return BinaryNode{Op: OpLTE, L: a, R: b} }

// GT returns a > b.
func GT(a, b Node) Node { return BinaryNode{Op: OpGT, L: a, R: b} }

// GTE returns a >= b.
func GTE(a, b Node) Node { return BinaryNode{Op: OpGTE, L: a, R: b} }

// Add returns a + b.
func Add(a, b Node) Node { return BinaryNode{Op: OpAdd, L: a, R: b} }

// Sub returns a - b.
func Sub(a, b Node) Node { return BinaryNode{Op: OpSub, L: a, R: b} }

// Mul returns a * b.
func Mul(a, b Node) Node { return BinaryNode{Op: OpMul, L: a, R: b} }

// Div returns a / b.
func Div(a, b Node) Node { return BinaryNode{Op: OpDiv, L: a, R: b} }

// Mod returns a % b.
func Mod(a, b Node) Node { return BinaryNode{Op: OpMod, L: a, R: b} }

// Neg returns -x.
func Neg(x Node) Node { return UnaryNode{Op: OpNeg, X: x} }

func combine(op Op, preds []Node) Node {
	preds = lo.Filter(preds, func(n Node, _ int) bool { return n != nil })
	if len(preds) == 0 {
		return nil
	}
	n := preds[0]
	for _, p := range preds[1:] {
		n = BinaryNode{Op: op, L: n, R: p}
	}
	return n
}

// And returns the conjunction of preds. Nil predicates are skipped.
func And(preds ...Node) Node { return combine(OpAnd, preds) }

// Or returns the disjunction of preds. Nil predicates are skipped.
func Or(preds ...Node) Node { return combine(OpOr, preds) }

// Not negates pred.
func Not(pred Node) Node { return UnaryNode{Op: OpNot, X: pred} }

// IsNull returns x IS NULL.
func IsNull(x Node) Node { return UnaryNode{Op: OpIsNull, X: x} }

// NotNull returns x IS NOT NULL.
func NotNull(x Node) Node { return UnaryNode{Op: OpNotNull, X: x} }

func list(values []any) ListNode {
	return ListNode{Items: lo.Map(values, func(v any, _ int) Node { return Value(v) })}
}

// In returns x IN (values...). Values may be constants or nodes.
func In(x Node, values ...any) Node {
	return BinaryNode{Op: OpIn, L: x, R: list(values)}
}

// NotIn returns x NOT IN (values...).
func NotIn(x Node, values ...any) Node {
	return BinaryNode{Op: OpNotIn, L: x, R: list(values)}
}

// InSlice returns x IN (vs...).
func InSlice[T any](x Node, vs []T) Node {
	return BinaryNode{Op: OpIn, L: x, R: ListNode{Items: lo.Map(vs, func(v T, _ int) Node { return Value(v) })}}
}

// NotInSlice returns x NOT IN (vs...).
func NotInSlice[T any](x Node, vs []T) Node {
	return BinaryNode{Op: OpNotIn, L: x, R: ListNode{Items: lo.Map(vs, func(v T, _ int) Node { return Value(v) })}}
}

// InQuery returns x IN (SELECT ...).
func InQuery(x Node, q *Expression) Node {
	return BinaryNode{Op: OpIn, L: x, R: SubqueryNode{Query: q}}
}

// NotInQuery returns x NOT IN (SELECT ...).
func NotInQuery(x Node, q *Expression) Node {
	return BinaryNode{Op: OpNotIn, L: x, R: SubqueryNode{Query: q}}
}

// Call calls the function name. See the provider for the supported names.
func Call(name string, args ...Node) Node { return CallNode{Name: name, Args: args} }

// Count returns COUNT(x), or COUNT(*) without arguments.
func Count(x ...Node) Node { return CallNode{Name: "count", Args: x} }

// CountDistinct returns COUNT(DISTINCT x).
func CountDistinct(x Node) Node { return CallNode{Name: "countDistinct", Args: []Node{x}} }

// Sum returns SUM(x).
func Sum(x Node) Node { return CallNode{Name: "sum", Args: []Node{x}} }

// Min returns MIN(x).
func Min(x Node) Node { return CallNode{Name: "min", Args: []Node{x}} }

// Max returns MAX(x).
func Max(x Node) Node { return CallNode{Name: "max", Args: []Node{x}} }

// Avg returns AVG(x).
func Avg(x Node) Node { return CallNode{Name: "avg", Args: []Node{x}} }

// Upper returns UPPER(x).
func Upper(x Node) Node { return CallNode{Name: "upper", Args: []Node{x}} }

// Lower returns LOWER(x).
func Lower(x Node) Node { return CallNode{Name: "lower", Args: []Node{x}} }

// Length returns the character length of x.
func Length(x Node) Node { return CallNode{Name: "length", Args: []Node{x}} }

// Trim returns x without leading and trailing spaces.
func Trim(x Node) Node { return CallNode{Name: "trim", Args: []Node{x}} }

// Substring returns the substring of x starting at the 0-based index start.
func Substring(x Node, start int, length ...int) Node {
	args := []Node{x, Value(start)}
	if len(length) > 0 {
		args = append(args, Value(length[0]))
	}
	return CallNode{Name: "substring", Args: args}
}

// Concat returns the string concatenation of parts.
func Concat(parts ...Node) Node { return CallNode{Name: "concat", Args: parts} }

// Coalesce returns the first non-null argument.
func Coalesce(xs ...Node) Node { return CallNode{Name: "coalesce", Args: xs} }

// StartsWith returns a predicate matching x against the literal prefix s.
func StartsWith(x Node, s string) Node {
	return CallNode{Name: "startsWith", Args: []Node{x, Value(s)}}
}

// EndsWith returns a predicate matching x against the literal suffix s.
func EndsWith(x Node, s string) Node {
	return CallNode{Name: "endsWith", Args: []Node{x, Value(s)}}
}

// Contains returns a predicate matching x against the literal substring s.
func Contains(x Node, s string) Node {
	return CallNode{Name: "contains", Args: []Node{x, Value(s)}}
}

// As names x in a projection.
func As(x Node, name string) Node { return AliasNode{X: x, Name: name} }

// Alias refers to a projection by its alias, e.g. in ORDER BY.
func Alias(name string) Node { return AliasRef{Name: name} }

// Ordinal refers to the n-th projection, starting at 1.
func Ordinal(n int) Node { return OrdinalNode{N: n} }

// Asc orders by x ascending.
func Asc(x Node) Node { return OrderNode{X: x} }

// Desc orders by x descending.
func Desc(x Node) Node { return OrderNode{X: x, Desc: true} }

// SQL returns a raw SQL fragment. Each ? outside quoted text and comments
// is bound to the next argument.
//
//	q.Where(query.SQL("julianday(?) - julianday(Created) > 30", now))
func SQL(sql string, args ...any) Node { return RawNode{SQL: sql, Args: args} }
