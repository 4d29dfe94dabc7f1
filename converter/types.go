package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/orma/schema/field"
)

var errLayout = errors.New("unrecognized time layout")

// timeLayouts are tried in order when a driver returns timestamps as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	TimeFormat,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

type timeConverter struct {
	opts Options
}

func (c *timeConverter) ColumnDefinition(int, int) string { return c.opts.Columns.Time }

func (c *timeConverter) value(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	}
	return time.Time{}, c.opts.conversionError(field.TypeTime, v, errType(v))
}

func (c *timeConverter) parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, c.opts.conversionError(field.TypeTime, s, errLayout)
}

func (c *timeConverter) ToQuotedLiteral(v any) (string, error) {
	t, err := c.value(v)
	if err != nil {
		return "", err
	}
	return c.opts.timeLiteral(t), nil
}

func (c *timeConverter) ToDbValue(v any) (any, error) {
	return c.value(v)
}

func (c *timeConverter) FromDbValue(raw any) (any, error) {
	return c.value(raw)
}

type uuidConverter struct {
	opts Options
}

func (c *uuidConverter) ColumnDefinition(int, int) string { return c.opts.Columns.UUID }

func (c *uuidConverter) value(v any) (uuid.UUID, error) {
	if c.opts.UUIDNative != nil {
		if id, ok, err := c.opts.UUIDNative(v); ok || err != nil {
			if err != nil {
				return uuid.Nil, c.opts.conversionError(field.TypeUUID, v, err)
			}
			return id, nil
		}
	}
	switch v := v.(type) {
	case uuid.UUID:
		return v, nil
	case *uuid.UUID:
		if v != nil {
			return *v, nil
		}
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return uuid.Nil, c.opts.conversionError(field.TypeUUID, v, err)
		}
		return id, nil
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		id, err := uuid.ParseBytes(bytes.TrimSpace(v))
		if err != nil {
			return uuid.Nil, c.opts.conversionError(field.TypeUUID, v, err)
		}
		return id, nil
	}
	return uuid.Nil, c.opts.conversionError(field.TypeUUID, v, errType(v))
}

func (c *uuidConverter) ToQuotedLiteral(v any) (string, error) {
	id, err := c.value(v)
	if err != nil {
		return "", err
	}
	return "'" + id.String() + "'", nil
}

func (c *uuidConverter) ToDbValue(v any) (any, error) {
	id, err := c.value(v)
	if err != nil {
		return nil, err
	}
	if c.opts.UUIDValue != nil {
		return c.opts.UUIDValue(id), nil
	}
	return id.String(), nil
}

func (c *uuidConverter) FromDbValue(raw any) (any, error) {
	return c.value(raw)
}

type bytesConverter struct {
	opts Options
}

func (c *bytesConverter) ColumnDefinition(int, int) string { return c.opts.Columns.Bytes }

func (c *bytesConverter) value(v any) ([]byte, error) {
	switch v := v.(type) {
	case []byte:
		return bytes.Clone(v), nil
	case string:
		return []byte(v), nil
	case json.RawMessage:
		return bytes.Clone(v), nil
	}
	return nil, c.opts.conversionError(field.TypeBytes, v, errType(v))
}

func (c *bytesConverter) ToQuotedLiteral(v any) (string, error) {
	b, err := c.value(v)
	if err != nil {
		return "", err
	}
	return c.opts.bytesLiteral(b), nil
}

func (c *bytesConverter) ToDbValue(v any) (any, error) {
	return c.value(v)
}

func (c *bytesConverter) FromDbValue(raw any) (any, error) {
	return c.value(raw)
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONConverter stores values of type T as JSON text.
type JSONConverter[T any] struct {
	opts Options
}

// JSON returns a converter storing T as JSON text.
func JSON[T any](opts Options) *JSONConverter[T] {
	return &JSONConverter[T]{opts: opts}
}

// ColumnDefinition implements Converter.
func (c *JSONConverter[T]) ColumnDefinition(int, int) string { return c.opts.Columns.JSON }

func (c *JSONConverter[T]) encode(v any) (string, error) {
	switch v := v.(type) {
	case json.RawMessage:
		return string(v), nil
	case []byte:
		if jsonAPI.Valid(v) {
			return string(v), nil
		}
	}
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return "", c.opts.conversionError(field.TypeJSON, v, err)
	}
	return string(b), nil
}

// ToQuotedLiteral implements Converter.
func (c *JSONConverter[T]) ToQuotedLiteral(v any) (string, error) {
	s, err := c.encode(v)
	if err != nil {
		return "", err
	}
	return c.opts.quoteText(field.TypeJSON, s)
}

// ToDbValue implements Converter.
func (c *JSONConverter[T]) ToDbValue(v any) (any, error) {
	return c.encode(v)
}

// FromDbValue implements Converter.
func (c *JSONConverter[T]) FromDbValue(raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, c.opts.conversionError(field.TypeJSON, raw, errType(raw))
	}
	var out T
	if err := jsonAPI.Unmarshal(data, &out); err != nil {
		return nil, c.opts.conversionError(field.TypeJSON, raw, err)
	}
	return out, nil
}

// MsgpackConverter stores values of type T as a msgpack encoded blob.
type MsgpackConverter[T any] struct {
	opts Options
}

// Msgpack returns a converter storing T as a msgpack blob.
func Msgpack[T any](opts Options) *MsgpackConverter[T] {
	return &MsgpackConverter[T]{opts: opts}
}

// ColumnDefinition implements Converter.
func (c *MsgpackConverter[T]) ColumnDefinition(int, int) string { return c.opts.Columns.Other }

func (c *MsgpackConverter[T]) encode(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, c.opts.conversionError(field.TypeOther, v, err)
	}
	return b, nil
}

// ToQuotedLiteral implements Converter.
func (c *MsgpackConverter[T]) ToQuotedLiteral(v any) (string, error) {
	b, err := c.encode(v)
	if err != nil {
		return "", err
	}
	return c.opts.bytesLiteral(b), nil
}

// ToDbValue implements Converter.
func (c *MsgpackConverter[T]) ToDbValue(v any) (any, error) {
	return c.encode(v)
}

// FromDbValue implements Converter.
func (c *MsgpackConverter[T]) FromDbValue(raw any) (any, error) {
	data, ok := raw.([]byte)
	if !ok {
		return nil, c.opts.conversionError(field.TypeOther, raw, errType(raw))
	}
	var out T
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, c.opts.conversionError(field.TypeOther, raw, err)
	}
	return out, nil
}
