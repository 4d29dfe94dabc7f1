package converter

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/syssam/orma/schema/field"
)

var (
	errOverflow   = errors.New("value out of range")
	errNotInteger = errors.New("value is not an integer")
	errNotFinite  = errors.New("value is not finite")
	errNUL        = errors.New("NUL byte in string literal")
)

func errNotNull(name string) error {
	return fmt.Errorf("field %q does not accept NULL", name)
}

func errTooLong(name string, size int) error {
	return fmt.Errorf("field %q is limited to %d characters", name, size)
}

func errPrecision(name string, precision, scale int) error {
	return fmt.Errorf("field %q does not fit DECIMAL(%d,%d)", name, precision, scale)
}

// fitsDecimal reports whether d has at most precision digits, scale of them
// after the decimal point.
func fitsDecimal(d decimal.Decimal, precision, scale int) bool {
	if !d.Equal(d.Truncate(int32(scale))) {
		return false
	}
	return d.Abs().Truncate(0).LessThan(decimal.New(1, int32(precision-scale)))
}

func errEnum(name string, values []string) error {
	return fmt.Errorf("field %q accepts only %s", name, strings.Join(values, ", "))
}

func errType(v any) error {
	return fmt.Errorf("unexpected type %T", v)
}

// asString returns the string value of string kinds and []byte.
func asString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// asInt64 returns the value of integer kinds as int64, and reports overflow
// of unsigned values.
func asInt64(v any) (n int64, unsigned uint64, isUnsigned, ok bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), 0, false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 0, rv.Uint(), true, true
	}
	return 0, 0, false, false
}

type boolConverter struct {
	opts Options
}

func (c *boolConverter) ColumnDefinition(int, int) string { return c.opts.Columns.Bool }

func (c *boolConverter) value(v any) (bool, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Bool {
		return false, c.opts.conversionError(field.TypeBool, v, errType(v))
	}
	return rv.Bool(), nil
}

func (c *boolConverter) ToQuotedLiteral(v any) (string, error) {
	b, err := c.value(v)
	if err != nil {
		return "", err
	}
	switch {
	case c.opts.NativeBool && b:
		return "TRUE", nil
	case c.opts.NativeBool:
		return "FALSE", nil
	case b:
		return "1", nil
	default:
		return "0", nil
	}
}

func (c *boolConverter) ToDbValue(v any) (any, error) {
	b, err := c.value(v)
	if err != nil {
		return nil, err
	}
	if c.opts.NativeBool {
		return b, nil
	}
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

func (c *boolConverter) FromDbValue(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case []byte:
		return c.parse(string(v))
	case string:
		return c.parse(v)
	}
	if n, u, unsigned, ok := asInt64(raw); ok {
		return n != 0 || (unsigned && u != 0), nil
	}
	return nil, c.opts.conversionError(field.TypeBool, raw, errType(raw))
}

func (c *boolConverter) parse(s string) (any, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, c.opts.conversionError(field.TypeBool, s, err)
	}
	return b, nil
}

type intConverter struct {
	opts Options
	typ  field.Type
}

func (c *intConverter) ColumnDefinition(int, int) string {
	cols := c.opts.Columns
	switch c.typ {
	case field.TypeInt8:
		return cols.Int8
	case field.TypeInt16, field.TypeUint8:
		return cols.Int16
	case field.TypeInt32, field.TypeUint16:
		return cols.Int32
	case field.TypeUint, field.TypeUint64:
		return cols.Uint64
	default:
		return cols.Int64
	}
}

// bounds returns the inclusive range of the converter type.
func (c *intConverter) bounds() (min int64, max uint64) {
	bits := c.typ.Bits()
	if c.typ.Unsigned() {
		if bits == 64 {
			return 0, math.MaxUint64
		}
		return 0, 1<<bits - 1
	}
	return -1 << (bits - 1), 1<<(bits-1) - 1
}

// check range-checks an integer value and returns it as int64 or uint64.
func (c *intConverter) check(v any) (int64, uint64, bool, error) {
	n, u, unsigned, ok := asInt64(v)
	if !ok {
		return 0, 0, false, c.opts.conversionError(c.typ, v, errType(v))
	}
	min, max := c.bounds()
	switch {
	case unsigned && u > max:
		return 0, 0, false, c.opts.conversionError(c.typ, v, errOverflow)
	case !unsigned && (n < min || (n > 0 && uint64(n) > max)):
		return 0, 0, false, c.opts.conversionError(c.typ, v, errOverflow)
	}
	return n, u, unsigned, nil
}

func (c *intConverter) ToQuotedLiteral(v any) (string, error) {
	n, u, unsigned, err := c.check(v)
	if err != nil {
		return "", err
	}
	if unsigned {
		return strconv.FormatUint(u, 10), nil
	}
	return strconv.FormatInt(n, 10), nil
}

func (c *intConverter) ToDbValue(v any) (any, error) {
	n, u, unsigned, err := c.check(v)
	if err != nil {
		return nil, err
	}
	if unsigned {
		if u > math.MaxInt64 {
			return nil, c.opts.conversionError(c.typ, v, errOverflow)
		}
		return int64(u), nil
	}
	return n, nil
}

func (c *intConverter) FromDbValue(raw any) (any, error) {
	var s string
	switch v := raw.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	case float64:
		if v != math.Trunc(v) {
			return nil, c.opts.conversionError(c.typ, raw, errNotInteger)
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, c.opts.conversionError(c.typ, raw, errNotInteger)
		}
		s = strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		if _, _, _, err := c.check(raw); err != nil {
			return nil, err
		}
		n, u, unsigned, _ := asInt64(raw)
		if unsigned {
			return c.cast(0, u, true), nil
		}
		return c.cast(n, 0, false), nil
	}
	s = strings.TrimSpace(s)
	if c.typ.Unsigned() {
		u, err := strconv.ParseUint(s, 10, c.typ.Bits())
		if err != nil {
			return nil, c.opts.conversionError(c.typ, raw, err)
		}
		return c.cast(0, u, true), nil
	}
	n, err := strconv.ParseInt(s, 10, c.typ.Bits())
	if err != nil {
		return nil, c.opts.conversionError(c.typ, raw, err)
	}
	return c.cast(n, 0, false), nil
}

// cast converts a range-checked value to the Go type of the converter.
func (c *intConverter) cast(n int64, u uint64, unsigned bool) any {
	if unsigned {
		n = int64(u)
	} else {
		u = uint64(n)
	}
	switch c.typ {
	case field.TypeInt8:
		return int8(n)
	case field.TypeInt16:
		return int16(n)
	case field.TypeInt32:
		return int32(n)
	case field.TypeInt:
		return int(n)
	case field.TypeUint8:
		return uint8(u)
	case field.TypeUint16:
		return uint16(u)
	case field.TypeUint32:
		return uint32(u)
	case field.TypeUint:
		return uint(u)
	case field.TypeUint64:
		return u
	default:
		return n
	}
}

type floatConverter struct {
	opts Options
	typ  field.Type
}

func (c *floatConverter) ColumnDefinition(int, int) string {
	if c.typ == field.TypeFloat32 {
		return c.opts.Columns.Float32
	}
	return c.opts.Columns.Float64
}

func (c *floatConverter) value(v any) (float64, error) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		n, u, unsigned, ok := asInt64(v)
		switch {
		case ok && unsigned:
			f = float64(u)
		case ok:
			f = float64(n)
		default:
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Float32 && rv.Kind() != reflect.Float64 {
				return 0, c.opts.conversionError(c.typ, v, errType(v))
			}
			f = rv.Float()
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, c.opts.conversionError(c.typ, v, errNotFinite)
	}
	if c.typ == field.TypeFloat32 && math.Abs(f) > math.MaxFloat32 {
		return 0, c.opts.conversionError(c.typ, v, errOverflow)
	}
	return f, nil
}

func (c *floatConverter) ToQuotedLiteral(v any) (string, error) {
	f, err := c.value(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'g', -1, c.typ.Bits()), nil
}

func (c *floatConverter) ToDbValue(v any) (any, error) {
	return c.value(v)
}

func (c *floatConverter) FromDbValue(raw any) (any, error) {
	var f float64
	switch v := raw.(type) {
	case []byte:
		p, err := strconv.ParseFloat(strings.TrimSpace(string(v)), c.typ.Bits())
		if err != nil {
			return nil, c.opts.conversionError(c.typ, raw, err)
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(v), c.typ.Bits())
		if err != nil {
			return nil, c.opts.conversionError(c.typ, raw, err)
		}
		f = p
	default:
		p, err := c.value(raw)
		if err != nil {
			return nil, err
		}
		f = p
	}
	if c.typ == field.TypeFloat32 {
		return float32(f), nil
	}
	return f, nil
}

type decimalConverter struct {
	opts Options
}

// Default precision and scale of decimal columns.
const (
	DefaultPrecision = 18
	DefaultScale     = 12
)

func (c *decimalConverter) ColumnDefinition(size, scale int) string {
	if size <= 0 {
		size, scale = DefaultPrecision, DefaultScale
	}
	return c.opts.Columns.Decimal(size, scale)
}

func (c *decimalConverter) value(v any) (decimal.Decimal, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v != nil {
			return *v, nil
		}
	case decimal.NullDecimal:
		if v.Valid {
			return v.Decimal, nil
		}
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, c.opts.conversionError(field.TypeDecimal, v, errNotFinite)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Decimal{}, c.opts.conversionError(field.TypeDecimal, v, err)
		}
		return d, nil
	case []byte:
		return c.value(string(v))
	default:
		n, u, unsigned, ok := asInt64(v)
		switch {
		case ok && unsigned:
			return decimal.NewFromBigInt(new(big.Int).SetUint64(u), 0), nil
		case ok:
			return decimal.NewFromInt(n), nil
		}
	}
	return decimal.Decimal{}, c.opts.conversionError(field.TypeDecimal, v, errType(v))
}

func (c *decimalConverter) ToQuotedLiteral(v any) (string, error) {
	d, err := c.value(v)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func (c *decimalConverter) ToDbValue(v any) (any, error) {
	d, err := c.value(v)
	if err != nil {
		return nil, err
	}
	return d.String(), nil
}

func (c *decimalConverter) FromDbValue(raw any) (any, error) {
	return c.value(raw)
}

type stringConverter struct {
	opts Options
	typ  field.Type
}

func (c *stringConverter) ColumnDefinition(size, _ int) string {
	if size <= 0 {
		return c.opts.Columns.Text
	}
	return c.opts.Columns.String(size)
}

func (c *stringConverter) value(v any) (string, error) {
	if s, ok := asString(v); ok {
		return s, nil
	}
	if s, ok := v.(fmt.Stringer); ok && c.typ == field.TypeEnum {
		return s.String(), nil
	}
	return "", c.opts.conversionError(c.typ, v, errType(v))
}

func (c *stringConverter) ToQuotedLiteral(v any) (string, error) {
	s, err := c.value(v)
	if err != nil {
		return "", err
	}
	return c.opts.quoteText(c.typ, s)
}

func (c *stringConverter) ToDbValue(v any) (any, error) {
	return c.value(v)
}

func (c *stringConverter) FromDbValue(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return nil, c.opts.conversionError(c.typ, raw, errType(raw))
}
