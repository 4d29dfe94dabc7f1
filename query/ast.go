package query

import (
	"github.com/syssam/orma/schema/field"
)

// Node is a node of an expression tree. The set of nodes is closed: trees
// are built with the helpers of this package and compiled by a provider
// aware visitor.
type Node interface {
	node()
}

// Op is the operator of unary and binary nodes.
type Op int

// Operators.
const (
	OpEQ Op = iota
	OpNEQ
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpIn
	OpNotIn
	OpNot
	OpNeg
	OpIsNull
	OpNotNull
)

var ops = [...]string{
	OpEQ:      "=",
	OpNEQ:     "<>",
	OpLT:      "<",
	OpLTE:     "<=",
	OpGT:      ">",
	OpGTE:     ">=",
	OpAnd:     "AND",
	OpOr:      "OR",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpIn:      "IN",
	OpNotIn:   "NOT IN",
	OpNot:     "NOT",
	OpNeg:     "-",
	OpIsNull:  "IS NULL",
	OpNotNull: "IS NOT NULL",
}

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	if o >= 0 && int(o) < len(ops) {
		return ops[o]
	}
	return "?"
}

func (o Op) comparison() bool { return o >= OpEQ && o <= OpGTE }

func (o Op) arithmetic() bool { return o >= OpAdd && o <= OpMod }

func (o Op) logical() bool { return o == OpAnd || o == OpOr }

type (
	// ColumnNode references a field of the queried table or of a joined
	// table. An empty Table resolves the field against the queried table
	// first and then against the joins in order.
	ColumnNode struct {
		Table string
		Field string
	}

	// ValueNode is a constant. An invalid Type is inferred from the value
	// or from the column it is compared with.
	ValueNode struct {
		Value any
		Type  field.Type
	}

	// BinaryNode applies a binary operator.
	BinaryNode struct {
		Op   Op
		L, R Node
	}

	// UnaryNode applies a unary operator.
	UnaryNode struct {
		Op Op
		X  Node
	}

	// CallNode calls a function by name, e.g. "upper" or "startsWith".
	CallNode struct {
		Name string
		Args []Node
	}

	// ListNode is the right side of IN.
	ListNode struct {
		Items []Node
	}

	// SubqueryNode embeds another expression, e.g. the right side of IN.
	SubqueryNode struct {
		Query *Expression
	}

	// RawNode is caller supplied SQL. Each ? outside quoted text and
	// comments is bound to the next argument.
	RawNode struct {
		SQL  string
		Args []any
	}

	// AliasNode names a projected expression.
	AliasNode struct {
		X    Node
		Name string
	}

	// AliasRef refers to a projection by its alias.
	AliasRef struct {
		Name string
	}

	// OrdinalNode refers to the n-th projection, starting at 1.
	OrdinalNode struct {
		N int
	}

	// OrderNode is an ORDER BY term.
	OrderNode struct {
		X    Node
		Desc bool
	}
)

func (ColumnNode) node()   {}
func (ValueNode) node()    {}
func (BinaryNode) node()   {}
func (UnaryNode) node()    {}
func (CallNode) node()     {}
func (ListNode) node()     {}
func (SubqueryNode) node() {}
func (RawNode) node()      {}
func (AliasNode) node()    {}
func (AliasRef) node()     {}
func (OrdinalNode) node()  {}
func (OrderNode) node()    {}
