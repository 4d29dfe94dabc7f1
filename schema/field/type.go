package field

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeOther
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	endTypes
)

var (
	typeNames = [...]string{
		TypeInvalid: "invalid",
		TypeBool:    "bool",
		TypeTime:    "time.Time",
		TypeJSON:    "json.RawMessage",
		TypeUUID:    "uuid.UUID",
		TypeBytes:   "[]byte",
		TypeEnum:    "string",
		TypeString:  "string",
		TypeOther:   "other",
		TypeInt:     "int",
		TypeInt8:    "int8",
		TypeInt16:   "int16",
		TypeInt32:   "int32",
		TypeInt64:   "int64",
		TypeUint:    "uint",
		TypeUint8:   "uint8",
		TypeUint16:  "uint16",
		TypeUint32:  "uint32",
		TypeUint64:  "uint64",
		TypeFloat32: "float32",
		TypeFloat64: "float64",
		TypeDecimal: "decimal.Decimal",
	}
	constNames = [...]string{
		TypeJSON:    "TypeJSON",
		TypeUUID:    "TypeUUID",
		TypeTime:    "TypeTime",
		TypeEnum:    "TypeEnum",
		TypeBytes:   "TypeBytes",
		TypeOther:   "TypeOther",
		TypeDecimal: "TypeDecimal",
	}
	// yamlNames holds the lower-case names accepted by ParseType.
	yamlNames = map[string]Type{
		"bool":    TypeBool,
		"time":    TypeTime,
		"json":    TypeJSON,
		"uuid":    TypeUUID,
		"bytes":   TypeBytes,
		"enum":    TypeEnum,
		"string":  TypeString,
		"other":   TypeOther,
		"int8":    TypeInt8,
		"int16":   TypeInt16,
		"int32":   TypeInt32,
		"int":     TypeInt,
		"int64":   TypeInt64,
		"uint8":   TypeUint8,
		"uint16":  TypeUint16,
		"uint32":  TypeUint32,
		"uint":    TypeUint,
		"uint64":  TypeUint64,
		"float32": TypeFloat32,
		"float64": TypeFloat64,
		"decimal": TypeDecimal,
	}
)

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt8 && t < endTypes
}

// Integer reports if the given type is an integer type.
func (t Type) Integer() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

// Unsigned reports if the given type is an unsigned integer type.
func (t Type) Unsigned() bool {
	return t >= TypeUint8 && t <= TypeUint64
}

// Float reports if the given type is a float type.
func (t Type) Float() bool {
	return t == TypeFloat32 || t == TypeFloat64
}

// Textual reports if the given type is stored as character data.
func (t Type) Textual() bool {
	return t == TypeString || t == TypeEnum
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// ConstName returns the constant name of a info type.
// It's used by entc for printing the constant name in templates.
func (t Type) ConstName() string {
	switch {
	case !t.Valid():
		return typeNames[TypeInvalid]
	case int(t) < len(constNames) && constNames[t] != "":
		return constNames[t]
	default:
		return "Type" + titleCaser.String(typeNames[t])
	}
}

// ParseType parses a lower-case type name such as "int64" or "decimal".
func ParseType(s string) (Type, error) {
	if t, ok := yamlNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// Bits returns the storage width of integer and float types, or 0.
func (t Type) Bits() int {
	switch t {
	case TypeInt8, TypeUint8:
		return 8
	case TypeInt16, TypeUint16:
		return 16
	case TypeInt32, TypeUint32, TypeFloat32:
		return 32
	case TypeInt, TypeInt64, TypeUint, TypeUint64, TypeFloat64:
		return 64
	}
	return 0
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// TypeOf infers the field type of a Go value. Pointers are dereferenced and
// named types resolve to their underlying kind. Unknown values map to TypeOther.
func TypeOf(v any) Type {
	switch v.(type) {
	case nil:
		return TypeInvalid
	case bool:
		return TypeBool
	case string:
		return TypeString
	case []byte:
		return TypeBytes
	case time.Time:
		return TypeTime
	case uuid.UUID:
		return TypeUUID
	case decimal.Decimal:
		return TypeDecimal
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	switch rt {
	case timeType:
		return TypeTime
	case uuidType:
		return TypeUUID
	case decimalType:
		return TypeDecimal
	}
	switch rt.Kind() {
	case reflect.Bool:
		return TypeBool
	case reflect.String:
		return TypeString
	case reflect.Int:
		return TypeInt
	case reflect.Int8:
		return TypeInt8
	case reflect.Int16:
		return TypeInt16
	case reflect.Int32:
		return TypeInt32
	case reflect.Int64:
		return TypeInt64
	case reflect.Uint:
		return TypeUint
	case reflect.Uint8:
		return TypeUint8
	case reflect.Uint16:
		return TypeUint16
	case reflect.Uint32:
		return TypeUint32
	case reflect.Uint64:
		return TypeUint64
	case reflect.Float32:
		return TypeFloat32
	case reflect.Float64:
		return TypeFloat64
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return TypeBytes
		}
	}
	return TypeOther
}
