package query

import (
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/syssam/orma/schema/field"
)

// normalize dereferences pointers. A nil pointer is nil.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func folded(v any) literal {
	return literal{v: v, typ: field.TypeOf(v), folded: true}
}

type number struct {
	i     int64
	f     float64
	d     decimal.Decimal
	isInt bool
	isDec bool
}

func toNumber(v any) (number, bool) {
	if d, ok := v.(decimal.Decimal); ok {
		return number{d: d, isDec: true}, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int(), f: float64(rv.Int()), isInt: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return number{f: float64(u)}, true
		}
		return number{i: int64(u), f: float64(u), isInt: true}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float()}, true
	}
	return number{}, false
}

func (n number) decimal() decimal.Decimal {
	switch {
	case n.isDec:
		return n.d
	case n.isInt:
		return decimal.NewFromInt(n.i)
	}
	return decimal.NewFromFloat(n.f)
}

func compareResult(op Op, c int) bool {
	switch op {
	case OpEQ:
		return c == 0
	case OpNEQ:
		return c != 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	}
	return false
}

// foldBinary evaluates op over two constants. It reports false when the
// operation cannot be evaluated without the database.
func foldBinary(op Op, l, r literal) (literal, bool) {
	if l.v == nil || r.v == nil {
		return literal{}, false
	}
	if ln, ok := toNumber(l.v); ok {
		rn, ok := toNumber(r.v)
		if !ok {
			return literal{}, false
		}
		return foldNumbers(op, ln, rn)
	}
	switch lv := l.v.(type) {
	case string:
		rv, ok := r.v.(string)
		if !ok {
			return literal{}, false
		}
		switch {
		case op == OpAdd:
			return folded(lv + rv), true
		case op.comparison():
			return folded(compareResult(op, strings.Compare(lv, rv))), true
		}
	case bool:
		rv, ok := r.v.(bool)
		if !ok {
			return literal{}, false
		}
		switch op {
		case OpEQ:
			return folded(lv == rv), true
		case OpNEQ:
			return folded(lv != rv), true
		case OpAnd:
			return folded(lv && rv), true
		case OpOr:
			return folded(lv || rv), true
		}
	case time.Time:
		rv, ok := r.v.(time.Time)
		if ok && op.comparison() {
			return folded(compareResult(op, lv.Compare(rv))), true
		}
	}
	return literal{}, false
}

func foldNumbers(op Op, l, r number) (literal, bool) {
	if l.isDec || r.isDec {
		ld, rd := l.decimal(), r.decimal()
		switch {
		case op.comparison():
			return folded(compareResult(op, ld.Cmp(rd))), true
		case op == OpAdd:
			return folded(ld.Add(rd)), true
		case op == OpSub:
			return folded(ld.Sub(rd)), true
		case op == OpMul:
			return folded(ld.Mul(rd)), true
		case op == OpDiv && !rd.IsZero():
			return folded(ld.Div(rd)), true
		case op == OpMod && !rd.IsZero():
			return folded(ld.Mod(rd)), true
		}
		return literal{}, false
	}
	if l.isInt && r.isInt {
		switch {
		case op.comparison():
			c := 0
			if l.i < r.i {
				c = -1
			} else if l.i > r.i {
				c = 1
			}
			return folded(compareResult(op, c)), true
		case op == OpAdd:
			return folded(l.i + r.i), true
		case op == OpSub:
			return folded(l.i - r.i), true
		case op == OpMul:
			return folded(l.i * r.i), true
		case op == OpDiv && r.i != 0:
			return folded(l.i / r.i), true
		case op == OpMod && r.i != 0:
			return folded(l.i % r.i), true
		}
		return literal{}, false
	}
	switch {
	case op.comparison():
		c := 0
		if l.f < r.f {
			c = -1
		} else if l.f > r.f {
			c = 1
		}
		return folded(compareResult(op, c)), true
	case op == OpAdd:
		return folded(l.f + r.f), true
	case op == OpSub:
		return folded(l.f - r.f), true
	case op == OpMul:
		return folded(l.f * r.f), true
	case op == OpDiv && r.f != 0:
		return folded(l.f / r.f), true
	}
	return literal{}, false
}

// foldCall evaluates string functions over constant arguments.
func foldCall(name string, args []literal) (literal, bool) {
	strs := make([]string, len(args))
	for i, a := range args {
		s, ok := a.v.(string)
		if !ok {
			return literal{}, false
		}
		strs[i] = s
	}
	switch {
	case name == "upper" && len(strs) == 1:
		return folded(strings.ToUpper(strs[0])), true
	case name == "lower" && len(strs) == 1:
		return folded(strings.ToLower(strs[0])), true
	case name == "trim" && len(strs) == 1:
		return folded(strings.Trim(strs[0], " ")), true
	case name == "length" && len(strs) == 1:
		return folded(int64(utf8.RuneCountInString(strs[0]))), true
	case name == "concat" && len(strs) > 0:
		return folded(strings.Join(strs, "")), true
	}
	return literal{}, false
}
