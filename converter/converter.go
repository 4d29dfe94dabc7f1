// Package converter maps Go values to column types, SQL literals and driver
// parameters, and maps driver values back to Go values.
//
// Every converter honors the round-trip contract
//
//	FromDbValue(ToDbValue(x)) == x
//
// for every value x representable in its column type. A Registry is immutable:
// Register returns a modified copy, so registries can be shared by concurrent
// sessions.
package converter

import (
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/syssam/orma"
	"github.com/syssam/orma/schema/field"
)

// Converter converts one field type.
type Converter interface {
	// ColumnDefinition returns the column type for the given size and scale.
	// Zero values select the dialect default.
	ColumnDefinition(size, scale int) string
	// ToQuotedLiteral renders v as an inline SQL literal.
	ToQuotedLiteral(v any) (string, error)
	// ToDbValue converts v to the parameter value expected by the driver.
	ToDbValue(v any) (any, error)
	// FromDbValue converts a driver value back to the Go type of the field.
	FromDbValue(raw any) (any, error)
}

// Columns holds the column types of a dialect.
type Columns struct {
	Bool    string
	Int8    string
	Int16   string
	Int32   string
	Int64   string
	Uint64  string
	Float32 string
	Float64 string
	Time    string
	UUID    string
	Bytes   string
	JSON    string
	Other   string
	Text    string // unbounded strings.
	String  func(size int) string
	Decimal func(precision, scale int) string
}

// Options configure the converters of one dialect.
type Options struct {
	Dialect string
	Columns Columns
	// NativeBool renders TRUE/FALSE literals and binds bool parameters.
	// Otherwise booleans are 1/0 literals and int64 parameters.
	NativeBool bool
	// BackslashEscape doubles backslashes inside string literals.
	BackslashEscape bool
	// UnicodePrefix is prepended to string literals, e.g. N.
	UnicodePrefix string
	// BytesLiteral renders a binary literal. Defaults to X'..'.
	BytesLiteral func([]byte) string
	// TimeLiteral renders a timestamp literal. Defaults to a quoted
	// 'YYYY-MM-DD HH:MM:SS.fffffffff' string.
	TimeLiteral func(time.Time) string
	// UUIDValue converts a UUID to its parameter value. Defaults to the
	// canonical string form.
	UUIDValue func(uuid.UUID) any
	// UUIDNative converts driver specific UUID representations.
	UUIDNative func(raw any) (uuid.UUID, bool, error)
}

// Quote renders s as a string literal.
func (o Options) Quote(s string) string {
	if o.BackslashEscape && strings.Contains(s, `\`) {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	if strings.Contains(s, "'") {
		s = strings.ReplaceAll(s, "'", "''")
	}
	return o.UnicodePrefix + "'" + s + "'"
}

// quoteText renders s as a string literal of type t. NUL cannot appear in
// literal text.
func (o Options) quoteText(t field.Type, s string) (string, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return "", o.conversionError(t, s, errNUL)
	}
	return o.Quote(s), nil
}

func (o Options) bytesLiteral(b []byte) string {
	if o.BytesLiteral != nil {
		return o.BytesLiteral(b)
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}

// TimeFormat is the default layout of timestamp literals.
const TimeFormat = "2006-01-02 15:04:05.999999999"

func (o Options) timeLiteral(t time.Time) string {
	if o.TimeLiteral != nil {
		return o.TimeLiteral(t)
	}
	return "'" + t.Format(TimeFormat) + "'"
}

func (o Options) conversionError(t field.Type, v any, err error) error {
	return orma.NewConversionError(o.Dialect, t.String(), v, err)
}

// Registry holds the converter of every field type for one dialect.
type Registry struct {
	opts  Options
	convs map[field.Type]Converter
}

// New returns a registry with the default converters for the given options.
func New(opts Options) *Registry {
	r := &Registry{opts: opts, convs: make(map[field.Type]Converter)}
	r.convs[field.TypeBool] = &boolConverter{opts: opts}
	for _, t := range []field.Type{
		field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt, field.TypeInt64,
		field.TypeUint8, field.TypeUint16, field.TypeUint32, field.TypeUint, field.TypeUint64,
	} {
		r.convs[t] = &intConverter{opts: opts, typ: t}
	}
	r.convs[field.TypeFloat32] = &floatConverter{opts: opts, typ: field.TypeFloat32}
	r.convs[field.TypeFloat64] = &floatConverter{opts: opts, typ: field.TypeFloat64}
	r.convs[field.TypeDecimal] = &decimalConverter{opts: opts}
	r.convs[field.TypeString] = &stringConverter{opts: opts, typ: field.TypeString}
	r.convs[field.TypeEnum] = &stringConverter{opts: opts, typ: field.TypeEnum}
	r.convs[field.TypeTime] = &timeConverter{opts: opts}
	r.convs[field.TypeUUID] = &uuidConverter{opts: opts}
	r.convs[field.TypeBytes] = &bytesConverter{opts: opts}
	r.convs[field.TypeJSON] = JSON[any](opts)
	r.convs[field.TypeOther] = Msgpack[any](opts)
	return r
}

// Options returns the options the registry was built with.
func (r *Registry) Options() Options { return r.opts }

// Dialect returns the dialect name of the registry.
func (r *Registry) Dialect() string { return r.opts.Dialect }

// Register returns a copy of the registry using c for type t.
func (r *Registry) Register(t field.Type, c Converter) *Registry {
	convs := make(map[field.Type]Converter, len(r.convs)+1)
	for k, v := range r.convs {
		convs[k] = v
	}
	convs[t] = c
	return &Registry{opts: r.opts, convs: convs}
}

// Get returns the converter of type t.
func (r *Registry) Get(t field.Type) (Converter, error) {
	c, ok := r.convs[t]
	if !ok {
		return nil, orma.NewUnsupportedExpressionError(r.opts.Dialect, "converter for "+t.String())
	}
	return c, nil
}

// ColumnDefinition returns the column type of f. A SchemaType entry for the
// dialect takes precedence.
func (r *Registry) ColumnDefinition(f *field.Descriptor) (string, error) {
	if typ, ok := f.SchemaType[r.opts.Dialect]; ok && typ != "" {
		return typ, nil
	}
	c, err := r.Get(f.Type)
	if err != nil {
		return "", err
	}
	return c.ColumnDefinition(f.Size, f.Scale), nil
}

// Literal renders v as an SQL literal of type t. An invalid t infers the type
// from v.
func (r *Registry) Literal(t field.Type, v any) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	if !t.Valid() {
		t = field.TypeOf(v)
	}
	c, err := r.Get(t)
	if err != nil {
		return "", err
	}
	return c.ToQuotedLiteral(v)
}

// DbValue converts v to the driver parameter of type t. An invalid t infers
// the type from v.
func (r *Registry) DbValue(t field.Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !t.Valid() {
		t = field.TypeOf(v)
	}
	c, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return c.ToDbValue(v)
}

// FromDbValue converts a driver value to the Go type of t.
func (r *Registry) FromDbValue(t field.Type, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	c, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return c.FromDbValue(raw)
}

// CheckField validates v against the constraints of f: nullability, string
// size, enum values and decimal precision.
func (r *Registry) CheckField(f *field.Descriptor, v any) error {
	if v == nil {
		if !f.Nullable && !f.Generated() && f.Default == nil && f.DefaultExpr == "" {
			return r.opts.conversionError(f.Type, v, errNotNull(f.Name))
		}
		return nil
	}
	if f.Type == field.TypeDecimal && f.Size > 0 {
		d, err := (&decimalConverter{opts: r.opts}).value(v)
		if err != nil {
			return err
		}
		if !fitsDecimal(d, f.Size, f.Scale) {
			return r.opts.conversionError(f.Type, v, errPrecision(f.Name, f.Size, f.Scale))
		}
		return nil
	}
	if !f.Type.Textual() {
		return nil
	}
	s, ok := asString(v)
	if !ok {
		return nil
	}
	if f.Size > 0 && utf8.RuneCountInString(s) > f.Size {
		return r.opts.conversionError(f.Type, v, errTooLong(f.Name, f.Size))
	}
	if f.Type == field.TypeEnum && len(f.EnumValues) > 0 {
		for _, e := range f.EnumValues {
			if e == s {
				return nil
			}
		}
		return r.opts.conversionError(f.Type, v, errEnum(f.Name, f.EnumValues))
	}
	return nil
}

// FieldLiteral validates v against f and renders it as a literal.
func (r *Registry) FieldLiteral(f *field.Descriptor, v any) (string, error) {
	if err := r.CheckField(f, v); err != nil {
		return "", err
	}
	return r.Literal(f.Type, v)
}

// FieldValue validates v against f and converts it to a driver parameter.
func (r *Registry) FieldValue(f *field.Descriptor, v any) (any, error) {
	if err := r.CheckField(f, v); err != nil {
		return nil, err
	}
	return r.DbValue(f.Type, v)
}
