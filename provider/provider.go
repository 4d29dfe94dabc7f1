package provider

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/orma"
	"github.com/syssam/orma/converter"
	"github.com/syssam/orma/naming"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// Placeholder is the style of bound parameter markers.
type Placeholder int

// Placeholder styles.
const (
	PlaceholderQuestion Placeholder = iota // ?
	PlaceholderDollar                      // $1
	PlaceholderAtP                         // @p1
	PlaceholderColon                       // :1
)

// Paging is the strategy used to render Limit/Skip.
type Paging int

// Paging strategies.
const (
	PagingLimitOffset Paging = iota // LIMIT n OFFSET m
	PagingOffsetFetch               // OFFSET m ROWS FETCH NEXT n ROWS ONLY
	PagingFirstSkip                 // SELECT FIRST n SKIP m
	PagingRowNumber                 // ROW_NUMBER() OVER (ORDER BY ...) in a derived table
	PagingRowNum                    // Oracle ROWNUM over two nested subqueries
)

var pagingNames = [...]string{"limit-offset", "offset-fetch", "first-skip", "row-number", "rownum"}

// String returns the name of the strategy.
func (p Paging) String() string {
	if p >= 0 && int(p) < len(pagingNames) {
		return pagingNames[p]
	}
	return "paging(" + strconv.Itoa(int(p)) + ")"
}

// Windowed reports whether the strategy numbers rows in a subquery.
func (p Paging) Windowed() bool {
	return p == PagingRowNumber || p == PagingRowNum
}

// IDStrategy is the protocol used to obtain a generated key after INSERT.
type IDStrategy int

// Id strategies.
const (
	IDNone         IDStrategy = iota // no generated key.
	IDLastInsertID                   // connection scoped last insert id.
	IDReturning                      // RETURNING or OUTPUT INSERTED clause.
	IDSequence                       // sequence value fetched before the INSERT.
)

var idNames = [...]string{"none", "last-insert-id", "returning", "sequence"}

// String returns the name of the strategy.
func (s IDStrategy) String() string {
	if s >= 0 && int(s) < len(idNames) {
		return idNames[s]
	}
	return "id(" + strconv.Itoa(int(s)) + ")"
}

// AutoIncrement is the DDL form of database generated keys.
type AutoIncrement int

// Auto increment styles.
const (
	AutoIncrementKeyword          AutoIncrement = iota // column keyword, e.g. AUTO_INCREMENT.
	AutoIncrementSerial                                // SERIAL column types.
	AutoIncrementIdentity                              // identity column clause.
	AutoIncrementSequenceTrigger                       // sequence and BEFORE INSERT trigger.
	AutoIncrementSequenceDefault                       // sequence as column default.
)

// Returning is the form of the clause returning generated keys.
type Returning int

// Returning styles.
const (
	ReturningNone   Returning = iota
	ReturningClause           // INSERT ... RETURNING col
	ReturningOutput           // INSERT ... OUTPUT INSERTED.col VALUES ...
)

// LikeEscape is the way LIKE wildcards are escaped.
type LikeEscape int

// LIKE escape styles.
const (
	LikeEscapeClause   LikeEscape = iota // backslash with an ESCAPE '\' clause.
	LikeEscapeDefault                    // backslash is the default escape.
	LikeEscapeBrackets                   // wildcards wrapped in brackets.
)

// Capabilities describe the grammar of one dialect version. Versions are
// composed by copying a base and overriding fields.
type Capabilities struct {
	Dialect string // dialect name, e.g. dialect.SQLite.
	Version string // version label, empty for the latest.

	QuoteOpen  string
	QuoteClose string
	// QuoteAlways quotes every identifier. Otherwise only reserved words and
	// names that are not valid unquoted identifiers are quoted, and the
	// engine folds the rest to upper case.
	QuoteAlways         bool
	Reserved            map[string]struct{}
	MaxIdentifierLength int

	Placeholder Placeholder
	Paging      Paging
	// UnboundedLimit is the row count rendered when only an offset is given.
	// Empty omits the LIMIT clause.
	UnboundedLimit string
	// TableAliasAS reports whether derived tables are aliased with AS.
	TableAliasAS bool
	// Top renders a first page without offset as SELECT TOP (n).
	Top bool

	ID        IDStrategy
	LastIDSQL string
	Sequences bool
	// SequenceDefaults reports whether a column default can draw from a
	// sequence. Otherwise sequence backed keys use a trigger.
	SequenceDefaults bool
	Returning        Returning
	AutoIncrement    AutoIncrement
	// Identity is the identity clause of AutoIncrementIdentity columns.
	Identity string
	// DefaultValues inserts a row of defaults. Empty means unsupported.
	DefaultValues string

	NativeBoolean bool
	// LikeFoldsCase reports whether LIKE is case insensitive by default.
	LikeFoldsCase bool
	// ILike reports whether the engine has a case insensitive ILIKE.
	ILike      bool
	LikeEscape LikeEscape
	// ModFunction renders the remainder as MOD(a, b) instead of a % b.
	ModFunction bool

	Substring    func(expr, start, length string) string
	Length       func(expr string) string
	Concat       func(parts ...string) string
	Trim         func(expr string) string
	SequenceNext func(seq string) string
	Dual         string // FROM clause of scalar selects, e.g. " FROM DUAL".

	ForeignKeyOnUpdate bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithNamingStrategy sets the naming strategy.
func WithNamingStrategy(s naming.Strategy) Option {
	return func(p *Provider) {
		if s != nil {
			p.naming = s
		}
	}
}

// WithConverters sets the converter registry.
func WithConverters(r *converter.Registry) Option {
	return func(p *Provider) {
		if r != nil {
			p.conv = r
		}
	}
}

// WithPaging overrides the paging strategy.
func WithPaging(s Paging) Option {
	return func(p *Provider) { p.caps.Paging = s }
}

// WithIDStrategy overrides the id generation strategy.
func WithIDStrategy(s IDStrategy) Option {
	return func(p *Provider) { p.caps.ID = s }
}

// WithParameterized selects bound parameters (true) or inline literals.
func WithParameterized(b bool) Option {
	return func(p *Provider) { p.parameterized = b }
}

// WithCaseSensitiveLike disables the case insensitive LIKE rendering on
// engines whose LIKE is case sensitive.
func WithCaseSensitiveLike(b bool) Option {
	return func(p *Provider) { p.caseSensitiveLike = b }
}

// WithMaxIdentifierLength overrides the identifier length ceiling. Zero
// disables shortening.
func WithMaxIdentifierLength(n int) Option {
	return func(p *Provider) { p.caps.MaxIdentifierLength = n }
}

// Provider renders the dialect specific parts of statements. A Provider is
// immutable and safe for concurrent use; With returns a reconfigured copy.
type Provider struct {
	caps              Capabilities
	naming            naming.Strategy
	conv              *converter.Registry
	parameterized     bool
	caseSensitiveLike bool
}

func newProvider(caps Capabilities, opts converter.Options) *Provider {
	return &Provider{
		caps:          caps,
		naming:        naming.Default{},
		conv:          converter.New(opts),
		parameterized: true,
	}
}

// With returns a copy of the provider with the given options applied.
func (p *Provider) With(opts ...Option) *Provider {
	c := *p
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Dialect returns the dialect name.
func (p *Provider) Dialect() string { return p.caps.Dialect }

// Name returns the dialect name and version label.
func (p *Provider) Name() string {
	if p.caps.Version == "" {
		return p.caps.Dialect
	}
	return p.caps.Dialect + p.caps.Version
}

// Capabilities returns a copy of the dialect capabilities.
func (p *Provider) Capabilities() Capabilities { return p.caps }

// Naming returns the naming strategy.
func (p *Provider) Naming() naming.Strategy { return p.naming }

// Converters returns the converter registry.
func (p *Provider) Converters() *converter.Registry { return p.conv }

// Parameterized reports whether values are bound as parameters.
func (p *Provider) Parameterized() bool { return p.parameterized }

// Paging returns the paging strategy.
func (p *Provider) Paging() Paging { return p.caps.Paging }

// NativeBoolean reports whether the engine has a boolean type usable as a
// predicate.
func (p *Provider) NativeBoolean() bool { return p.caps.NativeBoolean }

// Placeholder returns the marker of the i-th bound parameter, starting at 1.
func (p *Provider) Placeholder(i int) string {
	switch p.caps.Placeholder {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(i)
	case PlaceholderAtP:
		return "@p" + strconv.Itoa(i)
	case PlaceholderColon:
		return ":" + strconv.Itoa(i)
	default:
		return "?"
	}
}

var plainIdentRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$]*$`)

// needsQuote reports whether name must be quoted.
func (p *Provider) needsQuote(name string) bool {
	if p.caps.QuoteAlways || !plainIdentRe.MatchString(name) {
		return true
	}
	_, ok := p.caps.Reserved[strings.ToUpper(name)]
	return ok
}

// QuoteName quotes a single identifier. Embedded quote characters are
// doubled.
func (p *Provider) QuoteName(name string) string {
	if !p.needsQuote(name) {
		return name
	}
	return p.caps.QuoteOpen + strings.ReplaceAll(name, p.caps.QuoteClose, p.caps.QuoteClose+p.caps.QuoteClose) + p.caps.QuoteClose
}

// CatalogName returns name as stored in the system catalog.
func (p *Provider) CatalogName(name string) string {
	if p.needsQuote(name) {
		return name
	}
	return strings.ToUpper(name)
}

// Ident shortens a physical identifier to the dialect ceiling.
func (p *Provider) Ident(name string) string {
	return naming.Shorten(name, p.caps.MaxIdentifierLength)
}

// TableName returns the physical name of t.
func (p *Provider) TableName(t *schema.Table) string {
	return p.Ident(p.naming.TableName(t.Physical()))
}

// SchemaName returns the physical schema of t, or empty.
func (p *Provider) SchemaName(t *schema.Table) string {
	if t.Schema == "" {
		return ""
	}
	return p.Ident(p.naming.SchemaName(t.Schema))
}

// ColumnName returns the physical name of f.
func (p *Provider) ColumnName(f *field.Descriptor) string {
	return p.Ident(p.naming.ColumnName(f.Column()))
}

// SequenceName returns the physical sequence name of a generated field.
func (p *Provider) SequenceName(t *schema.Table, f *field.Descriptor) string {
	if f.Sequence != "" {
		return p.Ident(f.Sequence)
	}
	return p.Ident(p.naming.SequenceName(t.Physical(), f.Column()))
}

// QuoteTable returns the quoted, schema qualified table name.
func (p *Provider) QuoteTable(t *schema.Table) string {
	name := p.QuoteName(p.TableName(t))
	if s := p.SchemaName(t); s != "" {
		return p.QuoteName(s) + "." + name
	}
	return name
}

// QuoteColumn returns the quoted column name of f.
func (p *Provider) QuoteColumn(f *field.Descriptor) string {
	return p.QuoteName(p.ColumnName(f))
}

// QualifiedColumn returns the column of f qualified by its table.
func (p *Provider) QualifiedColumn(t *schema.Table, f *field.Descriptor) string {
	return p.QuoteTable(t) + "." + p.QuoteColumn(f)
}

// QuoteSequence returns the quoted, schema qualified sequence name.
func (p *Provider) QuoteSequence(t *schema.Table, f *field.Descriptor) string {
	name := p.QuoteName(p.SequenceName(t, f))
	if s := p.SchemaName(t); s != "" {
		return p.QuoteName(s) + "." + name
	}
	return name
}

// CheckTable validates t and reports physical name collisions caused by
// identifier shortening.
func (p *Provider) CheckTable(t *schema.Table) error {
	if err := t.Err(); err != nil {
		return err
	}
	scope := naming.NewScope(p.Name(), p.caps.MaxIdentifierLength)
	for _, f := range t.Fields {
		if _, err := scope.Name(p.naming.ColumnName(f.Column())); err != nil {
			return err
		}
	}
	return nil
}

// Literal renders v as an SQL literal of type t.
func (p *Provider) Literal(t field.Type, v any) (string, error) {
	return p.conv.Literal(t, v)
}

// BoolLiteral returns the literal of b.
func (p *Provider) BoolLiteral(b bool) string {
	s, _ := p.conv.Literal(field.TypeBool, b)
	return s
}

// Quote renders s as a string literal.
func (p *Provider) Quote(s string) string {
	return p.conv.Options().Quote(s)
}

func (p *Provider) unsupported(expr string) error {
	return orma.NewUnsupportedExpressionError(p.Name(), expr)
}

func (p *Provider) invalid(arg, reason string) error {
	return orma.NewInvalidArgumentError(p.Name(), arg, reason)
}

// Statement is compiled SQL text with its ordered parameters.
type Statement struct {
	SQL  string
	Args []any
}

// String returns the SQL text.
func (s Statement) String() string { return s.SQL }
