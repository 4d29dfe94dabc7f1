package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/orma"
)

// Kind is the class of a constraint violation.
type Kind int

// Constraint violation kinds.
const (
	KindNone Kind = iota
	KindUnique
	KindForeignKey
	KindCheck
	KindNotNull
)

var kindNames = [...]string{"none", "unique", "foreign key", "check", "not null"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlBadNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQL Server error numbers for constraint violations.
const (
	mssqlNotNull         = 515
	mssqlConstraint      = 547 // foreign key and check constraints
	mssqlDuplicateIndex  = 2601
	mssqlDuplicateUnique = 2627
)

// ConstraintKind classifies a driver error. Errors of drivers outside the
// supported set are matched on their message.
func ConstraintKind(err error) Kind {
	if err == nil {
		return KindNone
	}
	if e, ok := asError[*pgconn.PgError](err); ok {
		return pgKind(e.Code)
	}
	if e, ok := asError[*pq.Error](err); ok {
		return pgKind(string(e.Code))
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		switch e.Number {
		case mysqlDuplicateEntry:
			return KindUnique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return KindForeignKey
		case mysqlCheckConstraintViolate:
			return KindCheck
		case mysqlBadNull:
			return KindNotNull
		}
		return KindNone
	}
	if e, ok := asError[mssql.Error](err); ok {
		switch e.Number {
		case mssqlDuplicateIndex, mssqlDuplicateUnique:
			return KindUnique
		case mssqlConstraint:
			if strings.Contains(e.Message, "CHECK") {
				return KindCheck
			}
			return KindForeignKey
		case mssqlNotNull:
			return KindNotNull
		}
		return KindNone
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		switch e.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return KindUnique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return KindForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return KindCheck
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return KindNotNull
		}
	}
	msg := err.Error()
	switch {
	case containsAny(msg,
		"UNIQUE constraint failed",                      // SQLite
		"violates unique constraint",                    // Postgres
		"ORA-00001",                                     // Oracle
		"violation of PRIMARY or UNIQUE KEY constraint", // Firebird
	):
		return KindUnique
	case containsAny(msg,
		"FOREIGN KEY constraint failed",
		"violates foreign key constraint",
		"ORA-02291", "ORA-02292",
		"violation of FOREIGN KEY constraint",
	):
		return KindForeignKey
	case containsAny(msg,
		"CHECK constraint failed",
		"violates check constraint",
		"ORA-02290",
	):
		return KindCheck
	case containsAny(msg,
		"NOT NULL constraint failed",
		"violates not-null constraint",
		"ORA-01400",
	):
		return KindNotNull
	}
	return KindNone
}

func pgKind(code string) Kind {
	switch code {
	case pgUniqueViolation:
		return KindUnique
	case pgForeignKeyViolation:
		return KindForeignKey
	case pgCheckViolation:
		return KindCheck
	case pgNotNullViolation:
		return KindNotNull
	}
	return KindNone
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool { return ConstraintKind(err) == KindUnique }

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool { return ConstraintKind(err) == KindForeignKey }

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool { return ConstraintKind(err) == KindCheck }

// classify wraps constraint violations in an orma.ConstraintError. The
// driver error stays in the chain.
func classify(err error) error {
	if orma.IsConstraintError(err) {
		return err
	}
	if k := ConstraintKind(err); k != KindNone {
		return orma.NewConstraintError(k.String()+": "+err.Error(), err)
	}
	return err
}

// asError attempts to extract an error of type T from the error chain.
func asError[T error](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
