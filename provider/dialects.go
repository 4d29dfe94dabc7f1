package provider

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/samber/lo"

	"github.com/syssam/orma/converter"
	"github.com/syssam/orma/dialect"
)

func words(s string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		m[w] = struct{}{}
	}
	return m
}

var (
	oracleReserved = words(`ACCESS ADD ALL ALTER AND ANY AS ASC AUDIT BETWEEN BY CHAR CHECK
		CLUSTER COLUMN COMMENT COMPRESS CONNECT CREATE CURRENT DATE DECIMAL DEFAULT DELETE DESC
		DISTINCT DROP ELSE EXCLUSIVE EXISTS FILE FLOAT FOR FROM GRANT GROUP HAVING IDENTIFIED
		IMMEDIATE IN INCREMENT INDEX INITIAL INSERT INTEGER INTERSECT INTO IS LEVEL LIKE LOCK LONG
		MAXEXTENTS MINUS MLSLABEL MODE MODIFY NOAUDIT NOCOMPRESS NOT NOWAIT NULL NUMBER OF OFFLINE
		ON ONLINE OPTION OR ORDER PCTFREE PRIOR PUBLIC RAW RENAME RESOURCE REVOKE ROW ROWID ROWNUM
		ROWS SELECT SESSION SET SHARE SIZE SMALLINT START SUCCESSFUL SYNONYM SYSDATE TABLE THEN TO
		TRIGGER UID UNION UNIQUE UPDATE USER VALIDATE VALUES VARCHAR VARCHAR2 VIEW WHENEVER WHERE WITH`)

	firebirdReserved = words(`ADD ADMIN ALL ALTER AND ANY AS AT AVG BEGIN BETWEEN BIGINT
		BIT_LENGTH BLOB BOOLEAN BOTH BY CASE CAST CHAR CHARACTER CHECK CLOSE COLLATE COLUMN COMMIT
		CONNECT CONSTRAINT COUNT CREATE CROSS CURRENT CURRENT_DATE CURRENT_TIME CURRENT_TIMESTAMP
		CURRENT_USER CURSOR DATE DAY DEC DECIMAL DECLARE DEFAULT DELETE DISCONNECT DISTINCT DOUBLE
		DROP ELSE END ESCAPE EXECUTE EXISTS EXTERNAL EXTRACT FALSE FETCH FILTER FLOAT FOR FOREIGN
		FROM FULL FUNCTION GLOBAL GRANT GROUP HAVING HOUR IN INDEX INNER INSERT INT INTEGER INTO IS
		JOIN LEADING LEFT LIKE LONG LOWER MAX MERGE MIN MINUTE MONTH NATURAL NCHAR NO NOT NULL
		NUMERIC OF OFFSET ON ONLY OPEN OR ORDER OUTER PARAMETER PLAN POSITION PRECISION PRIMARY
		PROCEDURE REAL RECORD_VERSION RECREATE REFERENCES RETURNING REVOKE RIGHT ROLLBACK ROW_COUNT
		ROWS SAVEPOINT SECOND SELECT SET SIMILAR SMALLINT SOME START SUM TABLE THEN TIME TIMESTAMP
		TO TRAILING TRIGGER TRIM TRUE UNION UNIQUE UNKNOWN UPDATE UPPER USER USING VALUE VALUES
		VARCHAR VARIABLE VARYING VIEW WHEN WHERE WHILE WITH YEAR`)
)

func sized(format string) func(int) string {
	return func(n int) string { return fmt.Sprintf(format, n) }
}

func decimalType(name string, maxPrecision int) func(p, s int) string {
	return func(p, s int) string {
		if maxPrecision > 0 && p > maxPrecision {
			p = maxPrecision
			s = min(s, p)
		}
		return fmt.Sprintf("%s(%d,%d)", name, p, s)
	}
}

func timestampLiteral(prefix, layout string) func(time.Time) string {
	return func(t time.Time) string { return prefix + "'" + t.Format(layout) + "'" }
}

// SQLite returns the SQLite provider.
func SQLite(opts ...Option) *Provider {
	return newProvider(Capabilities{
		Dialect:        dialect.SQLite,
		QuoteOpen:      `"`,
		QuoteClose:     `"`,
		QuoteAlways:    true,
		Placeholder:    PlaceholderQuestion,
		Paging:         PagingLimitOffset,
		UnboundedLimit: "-1",
		TableAliasAS:   true,
		ID:             IDLastInsertID,
		LastIDSQL:      "SELECT last_insert_rowid()",
		AutoIncrement:  AutoIncrementKeyword,
		DefaultValues:  "DEFAULT VALUES",
		LikeFoldsCase:  true,
		LikeEscape:     LikeEscapeClause,
		Substring:      substr,
		Length:         fn("LENGTH"),
		Concat:         pipes,
		Trim:           trim,

		ForeignKeyOnUpdate: true,
	}, converter.Options{
		Dialect: dialect.SQLite,
		Columns: converter.Columns{
			Bool:    "INTEGER",
			Int8:    "INTEGER",
			Int16:   "INTEGER",
			Int32:   "INTEGER",
			Int64:   "INTEGER",
			Uint64:  "INTEGER",
			Float32: "REAL",
			Float64: "REAL",
			Time:    "DATETIME",
			UUID:    "CHAR(36)",
			Bytes:   "BLOB",
			JSON:    "TEXT",
			Other:   "BLOB",
			Text:    "TEXT",
			String:  sized("VARCHAR(%d)"),
			Decimal: decimalType("DECIMAL", 0),
		},
	}).With(opts...)
}

func mysqlOptions(json, timeType string) converter.Options {
	return converter.Options{
		Dialect:         dialect.MySQL,
		BackslashEscape: true,
		Columns: converter.Columns{
			Bool:    "TINYINT(1)",
			Int8:    "TINYINT",
			Int16:   "SMALLINT",
			Int32:   "INT",
			Int64:   "BIGINT",
			Uint64:  "BIGINT UNSIGNED",
			Float32: "FLOAT",
			Float64: "DOUBLE",
			Time:    timeType,
			UUID:    "CHAR(36)",
			Bytes:   "LONGBLOB",
			JSON:    json,
			Other:   "LONGBLOB",
			Text:    "LONGTEXT",
			String:  sized("VARCHAR(%d)"),
			Decimal: decimalType("DECIMAL", 65),
		},
	}
}

func mysqlCapabilities() Capabilities {
	return Capabilities{
		Dialect:             dialect.MySQL,
		QuoteOpen:           "`",
		QuoteClose:          "`",
		QuoteAlways:         true,
		MaxIdentifierLength: 64,
		Placeholder:         PlaceholderQuestion,
		Paging:              PagingLimitOffset,
		UnboundedLimit:      "18446744073709551615",
		TableAliasAS:        true,
		ID:                  IDLastInsertID,
		LastIDSQL:           "SELECT LAST_INSERT_ID()",
		AutoIncrement:       AutoIncrementKeyword,
		Identity:            "AUTO_INCREMENT",
		DefaultValues:       "() VALUES ()",
		LikeFoldsCase:       true,
		LikeEscape:          LikeEscapeDefault,
		Substring:           substring,
		Length:              fn("CHAR_LENGTH"),
		Concat:              concatFunc,
		Trim:                trim,
		ForeignKeyOnUpdate:  true,
	}
}

// MySQL returns the MySQL 8 provider.
func MySQL(opts ...Option) *Provider {
	return newProvider(mysqlCapabilities(), mysqlOptions("JSON", "DATETIME(6)")).With(opts...)
}

// MySQL5 returns the MySQL 5 provider. JSON is stored as text and columns
// cannot be renamed in place.
func MySQL5(opts ...Option) *Provider {
	caps := mysqlCapabilities()
	caps.Version = "5"
	return newProvider(caps, mysqlOptions("LONGTEXT", "DATETIME")).With(opts...)
}

// Postgres returns the PostgreSQL provider.
func Postgres(opts ...Option) *Provider {
	return newProvider(Capabilities{
		Dialect:             dialect.Postgres,
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		QuoteAlways:         true,
		MaxIdentifierLength: 63,
		Placeholder:         PlaceholderDollar,
		Paging:              PagingLimitOffset,
		TableAliasAS:        true,
		ID:                  IDReturning,
		LastIDSQL:           "SELECT lastval()",
		Sequences:           true,
		SequenceDefaults:    true,
		Returning:           ReturningClause,
		AutoIncrement:       AutoIncrementSerial,
		DefaultValues:       "DEFAULT VALUES",
		NativeBoolean:       true,
		ILike:               true,
		LikeEscape:          LikeEscapeDefault,
		Substring:           substr,
		Length:              fn("LENGTH"),
		Concat:              pipes,
		Trim:                trim,
		SequenceNext: func(seq string) string {
			return "nextval('" + strings.ReplaceAll(seq, "'", "''") + "')"
		},
		ForeignKeyOnUpdate: true,
	}, converter.Options{
		Dialect:    dialect.Postgres,
		NativeBool: true,
		Columns: converter.Columns{
			Bool:    "BOOLEAN",
			Int8:    "SMALLINT",
			Int16:   "SMALLINT",
			Int32:   "INTEGER",
			Int64:   "BIGINT",
			Uint64:  "NUMERIC(20,0)",
			Float32: "REAL",
			Float64: "DOUBLE PRECISION",
			Time:    "TIMESTAMP",
			UUID:    "UUID",
			Bytes:   "BYTEA",
			JSON:    "JSONB",
			Other:   "BYTEA",
			Text:    "TEXT",
			String:  sized("VARCHAR(%d)"),
			Decimal: decimalType("NUMERIC", 1000),
		},
		BytesLiteral: func(b []byte) string { return `'\x` + hex.EncodeToString(b) + "'" },
		UUIDValue:    func(id uuid.UUID) any { return pgtype.UUID{Bytes: id, Valid: true} },
		UUIDNative: func(raw any) (uuid.UUID, bool, error) {
			v, ok := raw.(pgtype.UUID)
			if !ok {
				return uuid.Nil, false, nil
			}
			if !v.Valid {
				return uuid.Nil, true, fmt.Errorf("invalid pgtype.UUID")
			}
			return uuid.UUID(v.Bytes), true, nil
		},
	}).With(opts...)
}

func sqlServerCapabilities() Capabilities {
	return Capabilities{
		Dialect:             dialect.SQLServer,
		QuoteOpen:           "[",
		QuoteClose:          "]",
		QuoteAlways:         true,
		MaxIdentifierLength: 128,
		Placeholder:         PlaceholderAtP,
		Paging:              PagingOffsetFetch,
		TableAliasAS:        true,
		Top:                 true,
		ID:                  IDReturning,
		LastIDSQL:           "SELECT CAST(@@IDENTITY AS BIGINT)",
		Returning:           ReturningOutput,
		AutoIncrement:       AutoIncrementIdentity,
		Identity:            "IDENTITY(1,1)",
		DefaultValues:       "DEFAULT VALUES",
		LikeFoldsCase:       true,
		LikeEscape:          LikeEscapeBrackets,
		Substring: func(expr, start, length string) string {
			if length == "" {
				length = "LEN(" + expr + ")"
			}
			return substring(expr, start, length)
		},
		Length:             fn("LEN"),
		Concat:             concatFunc,
		Trim:               func(expr string) string { return "LTRIM(RTRIM(" + expr + "))" },
		ForeignKeyOnUpdate: true,
	}
}

func sqlServerOptions() converter.Options {
	return converter.Options{
		Dialect:       dialect.SQLServer,
		UnicodePrefix: "N",
		Columns: converter.Columns{
			Bool:    "BIT",
			Int8:    "SMALLINT",
			Int16:   "SMALLINT",
			Int32:   "INT",
			Int64:   "BIGINT",
			Uint64:  "DECIMAL(20,0)",
			Float32: "REAL",
			Float64: "FLOAT",
			Time:    "DATETIME2",
			UUID:    "UNIQUEIDENTIFIER",
			Bytes:   "VARBINARY(MAX)",
			JSON:    "NVARCHAR(MAX)",
			Other:   "VARBINARY(MAX)",
			Text:    "NVARCHAR(MAX)",
			String: func(n int) string {
				if n > 4000 {
					return "NVARCHAR(MAX)"
				}
				return fmt.Sprintf("NVARCHAR(%d)", n)
			},
			Decimal: decimalType("DECIMAL", 38),
		},
		BytesLiteral: func(b []byte) string { return "0x" + strings.ToUpper(hex.EncodeToString(b)) },
		TimeLiteral:  timestampLiteral("", "2006-01-02T15:04:05.9999999"),
		UUIDValue:    func(id uuid.UUID) any { return mssql.UniqueIdentifier(id) },
		UUIDNative: func(raw any) (uuid.UUID, bool, error) {
			switch v := raw.(type) {
			case mssql.UniqueIdentifier:
				return uuid.UUID(v), true, nil
			case []byte:
				if len(v) != 16 {
					return uuid.Nil, false, nil
				}
				var u mssql.UniqueIdentifier
				if err := u.Scan(v); err != nil {
					return uuid.Nil, true, err
				}
				return uuid.UUID(u), true, nil
			}
			return uuid.Nil, false, nil
		},
	}
}

// SQLServer returns the SQL Server 2012+ provider.
func SQLServer(opts ...Option) *Provider {
	return newProvider(sqlServerCapabilities(), sqlServerOptions()).With(opts...)
}

// SQLServer2008 returns the SQL Server 2008 provider. Paging uses
// ROW_NUMBER() and strings are concatenated with +.
func SQLServer2008(opts ...Option) *Provider {
	caps := sqlServerCapabilities()
	caps.Version = "2008"
	caps.Paging = PagingRowNumber
	caps.Concat = func(parts ...string) string { return "(" + strings.Join(parts, " + ") + ")" }
	return newProvider(caps, sqlServerOptions()).With(opts...)
}

func oracleCapabilities() Capabilities {
	return Capabilities{
		Dialect:             dialect.Oracle,
		Version:             "11",
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		Reserved:            oracleReserved,
		MaxIdentifierLength: 30,
		Placeholder:         PlaceholderColon,
		Paging:              PagingRowNum,
		ID:                  IDSequence,
		Sequences:           true,
		AutoIncrement:       AutoIncrementSequenceTrigger,
		LikeEscape:          LikeEscapeClause,
		ModFunction:         true,
		Substring:           substr,
		Length:              fn("LENGTH"),
		Concat:              pipes,
		Trim:                trim,
		SequenceNext:        func(seq string) string { return seq + ".NEXTVAL" },
		Dual:                " FROM DUAL",
	}
}

func oracleOptions() converter.Options {
	return converter.Options{
		Dialect: dialect.Oracle,
		Columns: converter.Columns{
			Bool:    "NUMBER(1)",
			Int8:    "NUMBER(3)",
			Int16:   "NUMBER(5)",
			Int32:   "NUMBER(10)",
			Int64:   "NUMBER(19)",
			Uint64:  "NUMBER(20)",
			Float32: "BINARY_FLOAT",
			Float64: "BINARY_DOUBLE",
			Time:    "TIMESTAMP",
			UUID:    "VARCHAR2(36)",
			Bytes:   "BLOB",
			JSON:    "CLOB",
			Other:   "BLOB",
			Text:    "CLOB",
			String: func(n int) string {
				if n > 4000 {
					return "CLOB"
				}
				return fmt.Sprintf("VARCHAR2(%d CHAR)", n)
			},
			Decimal: decimalType("NUMBER", 38),
		},
		BytesLiteral: func(b []byte) string { return "HEXTORAW('" + strings.ToUpper(hex.EncodeToString(b)) + "')" },
		TimeLiteral:  timestampLiteral("TIMESTAMP ", "2006-01-02 15:04:05.999999999"),
	}
}

// Oracle returns the Oracle 11g provider. Keys come from sequences and
// paging uses ROWNUM.
func Oracle(opts ...Option) *Provider {
	return newProvider(oracleCapabilities(), oracleOptions()).With(opts...)
}

// Oracle12 returns the Oracle 12c provider with OFFSET/FETCH paging and
// sequence column defaults.
func Oracle12(opts ...Option) *Provider {
	caps := oracleCapabilities()
	caps.Version = "12"
	caps.Paging = PagingOffsetFetch
	caps.AutoIncrement = AutoIncrementSequenceDefault
	caps.SequenceDefaults = true
	caps.MaxIdentifierLength = 128
	return newProvider(caps, oracleOptions()).With(opts...)
}

func firebirdCapabilities() Capabilities {
	return Capabilities{
		Dialect:             dialect.Firebird,
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		Reserved:            firebirdReserved,
		MaxIdentifierLength: 31,
		Placeholder:         PlaceholderQuestion,
		Paging:              PagingFirstSkip,
		TableAliasAS:        true,
		ID:                  IDSequence,
		Sequences:           true,
		AutoIncrement:       AutoIncrementSequenceTrigger,
		DefaultValues:       "DEFAULT VALUES",
		LikeEscape:          LikeEscapeClause,
		ModFunction:         true,
		Substring: func(expr, start, length string) string {
			if length == "" {
				return "SUBSTRING(" + expr + " FROM " + start + ")"
			}
			return "SUBSTRING(" + expr + " FROM " + start + " FOR " + length + ")"
		},
		Length:             fn("CHAR_LENGTH"),
		Concat:             pipes,
		Trim:               trim,
		SequenceNext:       func(seq string) string { return "GEN_ID(" + seq + ", 1)" },
		Dual:               " FROM RDB$DATABASE",
		ForeignKeyOnUpdate: true,
	}
}

func firebirdOptions(boolType string, native bool) converter.Options {
	return converter.Options{
		Dialect:    dialect.Firebird,
		NativeBool: native,
		Columns: converter.Columns{
			Bool:    boolType,
			Int8:    "SMALLINT",
			Int16:   "SMALLINT",
			Int32:   "INTEGER",
			Int64:   "BIGINT",
			Uint64:  "BIGINT",
			Float32: "FLOAT",
			Float64: "DOUBLE PRECISION",
			Time:    "TIMESTAMP",
			UUID:    "CHAR(36)",
			Bytes:   "BLOB SUB_TYPE 0",
			JSON:    "BLOB SUB_TYPE TEXT",
			Other:   "BLOB SUB_TYPE 0",
			Text:    "BLOB SUB_TYPE TEXT",
			String:  sized("VARCHAR(%d)"),
			Decimal: decimalType("DECIMAL", 18),
		},
		TimeLiteral: timestampLiteral("TIMESTAMP ", "2006-01-02 15:04:05.9999"),
	}
}

// Firebird returns the Firebird 2.5 provider. Keys come from generators and
// paging uses FIRST/SKIP.
func Firebird(opts ...Option) *Provider {
	caps := firebirdCapabilities()
	caps.Version = "2.5"
	return newProvider(caps, firebirdOptions("SMALLINT", false)).With(opts...)
}

// Firebird3 returns the Firebird 3 provider with native booleans, identity
// columns and RETURNING.
func Firebird3(opts ...Option) *Provider {
	caps := firebirdCapabilities()
	caps.Version = "3"
	caps.NativeBoolean = true
	caps.ID = IDReturning
	caps.Returning = ReturningClause
	caps.AutoIncrement = AutoIncrementIdentity
	caps.Identity = "GENERATED BY DEFAULT AS IDENTITY"
	return newProvider(caps, firebirdOptions("BOOLEAN", true)).With(opts...)
}

var constructors = map[string]func(...Option) *Provider{
	"sqlite":        SQLite,
	"sqlite3":       SQLite,
	"mysql":         MySQL,
	"mysql8":        MySQL,
	"mysql5":        MySQL5,
	"postgres":      Postgres,
	"postgresql":    Postgres,
	"pgx":           Postgres,
	"sqlserver":     SQLServer,
	"mssql":         SQLServer,
	"sqlserver2008": SQLServer2008,
	"oracle":        Oracle,
	"oracle11":      Oracle,
	"oracle12":      Oracle12,
	"firebird":      Firebird,
	"firebird25":    Firebird,
	"firebird3":     Firebird3,
}

// ByName returns the provider registered under name, e.g. "postgres" or
// "sqlserver2008".
func ByName(name string, opts ...Option) (*Provider, error) {
	c, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("provider: unknown dialect %q", name)
	}
	return c(opts...), nil
}

// Names returns the registered provider names in sorted order.
func Names() []string {
	names := lo.Keys(constructors)
	slices.Sort(names)
	return names
}
