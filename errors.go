package orma

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the compiler error taxonomy. Every typed error below
// matches its sentinel through errors.Is.
var (
	// ErrUnsupportedExpression is returned when an expression has no
	// translation for the active dialect.
	ErrUnsupportedExpression = errors.New("orma: unsupported expression")

	// ErrInvalidArgument is returned for arguments that can never compile,
	// such as a negative limit or an empty required field list.
	ErrInvalidArgument = errors.New("orma: invalid argument")

	// ErrSchemaMismatch is returned when a referenced column does not exist
	// in the source table.
	ErrSchemaMismatch = errors.New("orma: schema mismatch")

	// ErrNameTooLong is returned when an identifier exceeds the dialect limit
	// and shortening it collides with another identifier.
	ErrNameTooLong = errors.New("orma: name too long")

	// ErrConversion is returned when a value cannot be represented in the
	// target column type.
	ErrConversion = errors.New("orma: conversion failed")
)

// on renders the dialect suffix used by all error messages.
func on(dialect string) string {
	if dialect == "" {
		return ""
	}
	return " (dialect " + dialect + ")"
}

// UnsupportedExpressionError reports an operator or function call that the
// dialect cannot translate.
type UnsupportedExpressionError struct {
	Dialect string
	Expr    string
}

// Error returns the error string.
func (e *UnsupportedExpressionError) Error() string {
	return fmt.Sprintf("orma: unsupported expression %s%s", e.Expr, on(e.Dialect))
}

// Is reports whether the target error matches UnsupportedExpressionError.
func (e *UnsupportedExpressionError) Is(err error) bool {
	return err == ErrUnsupportedExpression
}

// NewUnsupportedExpressionError returns a new UnsupportedExpressionError.
func NewUnsupportedExpressionError(dialect, expr string) *UnsupportedExpressionError {
	return &UnsupportedExpressionError{Dialect: dialect, Expr: expr}
}

// IsUnsupportedExpression returns true if the error is an UnsupportedExpressionError.
func IsUnsupportedExpression(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedExpressionError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedExpression)
}

// InvalidArgumentError reports an argument rejected at clause construction.
type InvalidArgumentError struct {
	Dialect string
	Arg     string // Name of the argument or clause, e.g. "Limit(rows)".
	Reason  string
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("orma: invalid argument %s: %s%s", e.Arg, e.Reason, on(e.Dialect))
}

// Is reports whether the target error matches InvalidArgumentError.
func (e *InvalidArgumentError) Is(err error) bool {
	return err == ErrInvalidArgument
}

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(dialect, arg, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Dialect: dialect, Arg: arg, Reason: reason}
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidArgumentError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidArgument)
}

// SchemaMismatchError reports a field with no matching source column.
type SchemaMismatchError struct {
	Dialect string
	Table   string
	Column  string
}

// Error returns the error string.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("orma: table %q has no column matching %q%s", e.Table, e.Column, on(e.Dialect))
}

// Is reports whether the target error matches SchemaMismatchError.
func (e *SchemaMismatchError) Is(err error) bool {
	return err == ErrSchemaMismatch
}

// NewSchemaMismatchError returns a new SchemaMismatchError.
func NewSchemaMismatchError(dialect, table, column string) *SchemaMismatchError {
	return &SchemaMismatchError{Dialect: dialect, Table: table, Column: column}
}

// IsSchemaMismatch returns true if the error is a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaMismatchError
	return errors.As(err, &e) || errors.Is(err, ErrSchemaMismatch)
}

// NameTooLongError reports an identifier whose shortened form collides with
// the shortened form of another identifier in the same scope.
type NameTooLongError struct {
	Dialect   string
	Name      string
	Other     string // The distinct identifier that shortened to the same value.
	Shortened string
	Max       int
}

// Error returns the error string.
func (e *NameTooLongError) Error() string {
	if e.Other == "" {
		return fmt.Sprintf("orma: identifier %q exceeds %d characters%s", e.Name, e.Max, on(e.Dialect))
	}
	return fmt.Sprintf("orma: identifiers %q and %q both shorten to %q (max %d characters)%s",
		e.Other, e.Name, e.Shortened, e.Max, on(e.Dialect))
}

// Is reports whether the target error matches NameTooLongError.
func (e *NameTooLongError) Is(err error) bool {
	return err == ErrNameTooLong
}

// IsNameTooLong returns true if the error is a NameTooLongError.
func IsNameTooLong(err error) bool {
	if err == nil {
		return false
	}
	var e *NameTooLongError
	return errors.As(err, &e) || errors.Is(err, ErrNameTooLong)
}

// ConversionError reports a value that cannot be represented in a column type.
type ConversionError struct {
	Dialect string
	Type    string // Target column or Go type.
	Value   any
	Err     error
}

// Error returns the error string.
func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("orma: cannot convert %T(%v) to %s%s", e.Value, e.Value, e.Type, on(e.Dialect))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether the target error matches ConversionError.
func (e *ConversionError) Is(err error) bool {
	return err == ErrConversion
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// NewConversionError returns a new ConversionError.
func NewConversionError(dialect, typ string, value any, err error) *ConversionError {
	return &ConversionError{Dialect: dialect, Type: typ, Value: value, Err: err}
}

// IsConversionError returns true if the error is a ConversionError.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConversionError
	return errors.As(err, &e) || errors.Is(err, ErrConversion)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("orma: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "orma: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("orma: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
