package provider

import (
	"strings"

	"github.com/samber/lo"

	"github.com/syssam/orma"
	"github.com/syssam/orma/dialect"
	"github.com/syssam/orma/naming"
	"github.com/syssam/orma/schema"
	"github.com/syssam/orma/schema/field"
)

// scope returns a namespace for constraint, index and trigger names.
func (p *Provider) scope() *naming.Scope {
	return naming.NewScope(p.Name(), p.caps.MaxIdentifierLength)
}

// qualify prefixes name with the schema of t.
func (p *Provider) qualify(t *schema.Table, name string) string {
	if s := p.SchemaName(t); s != "" {
		return p.QuoteName(s) + "." + p.QuoteName(name)
	}
	return p.QuoteName(name)
}

// generatedKey reports whether the database generates the value of f on
// insert.
func generatedKey(f *field.Descriptor) bool {
	return f.AutoIncrement || f.Sequence != ""
}

// keyStyle returns the DDL form of the generated key f.
func (p *Provider) keyStyle(f *field.Descriptor) AutoIncrement {
	if f.Sequence != "" && p.caps.Sequences {
		if p.caps.SequenceDefaults {
			return AutoIncrementSequenceDefault
		}
		return AutoIncrementSequenceTrigger
	}
	return p.caps.AutoIncrement
}

// UsesSequence reports whether the generated key f draws from a sequence.
func (p *Provider) UsesSequence(f *field.Descriptor) bool {
	if !generatedKey(f) || !p.caps.Sequences {
		return false
	}
	s := p.keyStyle(f)
	return s == AutoIncrementSequenceTrigger || s == AutoIncrementSequenceDefault
}

func serialType(t field.Type) string {
	switch t {
	case field.TypeInt8, field.TypeInt16, field.TypeUint8:
		return "SMALLSERIAL"
	case field.TypeInt32, field.TypeUint16:
		return "SERIAL"
	}
	return "BIGSERIAL"
}

// ColumnDefinition renders the definition of f inside CREATE TABLE. The
// second result reports whether the definition declares the primary key.
func (p *Provider) ColumnDefinition(t *schema.Table, f *field.Descriptor, soloPK bool) (string, bool, error) {
	name := p.QuoteColumn(f)
	typ, err := p.conv.ColumnDefinition(f)
	if err != nil {
		return "", false, err
	}
	if f.Computed != "" {
		switch p.caps.Dialect {
		case dialect.SQLServer:
			return name + " AS (" + f.Computed + ")", false, nil
		case dialect.Firebird:
			return name + " " + typ + " COMPUTED BY (" + f.Computed + ")", false, nil
		case dialect.Postgres:
			return name + " " + typ + " GENERATED ALWAYS AS (" + f.Computed + ") STORED", false, nil
		default:
			return name + " " + typ + " GENERATED ALWAYS AS (" + f.Computed + ")", false, nil
		}
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte(' ')
	if generatedKey(f) {
		switch p.keyStyle(f) {
		case AutoIncrementKeyword:
			if p.caps.Dialect == dialect.SQLite {
				if soloPK {
					return name + " INTEGER PRIMARY KEY AUTOINCREMENT", true, nil
				}
				return name + " INTEGER NOT NULL", false, nil
			}
			return name + " " + typ + " NOT NULL " + p.caps.Identity, false, nil
		case AutoIncrementSerial:
			return name + " " + serialType(f.Type) + " NOT NULL", false, nil
		case AutoIncrementIdentity:
			return name + " " + typ + " " + p.caps.Identity + " NOT NULL", false, nil
		case AutoIncrementSequenceDefault:
			return name + " " + typ + " DEFAULT " + p.caps.SequenceNext(p.QuoteSequence(t, f)) + " NOT NULL", false, nil
		case AutoIncrementSequenceTrigger:
			return name + " " + typ + " NOT NULL", false, nil
		}
	}
	b.WriteString(typ)
	def, err := p.defaultValue(f)
	if err != nil {
		return "", false, err
	}
	if def != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(def)
	}
	switch {
	case !f.Nullable || f.PrimaryKey:
		b.WriteString(" NOT NULL")
	case p.caps.Dialect == dialect.SQLServer:
		b.WriteString(" NULL")
	}
	if f.Comment != "" && p.caps.Dialect == dialect.MySQL {
		b.WriteString(" COMMENT ")
		b.WriteString(p.Quote(f.Comment))
	}
	return b.String(), false, nil
}

func (p *Provider) defaultValue(f *field.Descriptor) (string, error) {
	switch {
	case f.DefaultExpr != "":
		return f.DefaultExpr, nil
	case f.Default != nil:
		return p.conv.FieldLiteral(f, f.Default)
	case f.RowVersion:
		return "1", nil
	}
	return "", nil
}

// ToCreateTableStatement renders CREATE TABLE for t. Foreign keys are
// resolved against refs and t itself.
func (p *Provider) ToCreateTableStatement(t *schema.Table, refs ...*schema.Table) (string, error) {
	return p.createTable(t, refs, p.scope())
}

func (p *Provider) createTable(t *schema.Table, refs []*schema.Table, scope *naming.Scope) (string, error) {
	if err := p.CheckTable(t); err != nil {
		return "", err
	}
	pks := t.PrimaryKeys()
	defs := make([]string, 0, len(t.Fields)+1)
	inlinePK := false
	for _, f := range t.Fields {
		def, pk, err := p.ColumnDefinition(t, f, len(pks) == 1 && f.PrimaryKey)
		if err != nil {
			return "", err
		}
		inlinePK = inlinePK || pk
		defs = append(defs, def)
	}
	if len(pks) > 0 && !inlinePK {
		defs = append(defs, "PRIMARY KEY ("+p.columnList(pks)+")")
	}
	for _, f := range t.Fields {
		if f.ForeignKey == nil {
			continue
		}
		fk, err := p.foreignKey(t, f, refs, scope)
		if err != nil {
			return "", err
		}
		defs = append(defs, fk)
	}
	return "CREATE TABLE " + p.QuoteTable(t) + " (" + strings.Join(defs, ", ") + ")", nil
}

func (p *Provider) columnList(fields []*field.Descriptor) string {
	return strings.Join(lo.Map(fields, func(f *field.Descriptor, _ int) string {
		return p.QuoteColumn(f)
	}), ", ")
}

func findTable(name string, tables []*schema.Table) *schema.Table {
	for _, t := range tables {
		if t != nil && t.Name == name {
			return t
		}
	}
	for _, t := range tables {
		if t != nil && strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// reference returns the quoted table and column list referenced by the
// foreign key of f.
func (p *Provider) reference(t *schema.Table, f *field.Descriptor, refs []*schema.Table) (string, string, error) {
	fk := f.ForeignKey
	if rt := findTable(fk.Table, append([]*schema.Table{t}, refs...)); rt != nil {
		if fk.Column != "" {
			rf, ok := rt.Field(fk.Column)
			if !ok {
				return "", "", p.schemaMismatch(rt.Name, fk.Column)
			}
			return p.QuoteTable(rt), p.QuoteColumn(rf), nil
		}
		if pks := rt.PrimaryKeys(); len(pks) > 0 {
			return p.QuoteTable(rt), p.columnList(pks), nil
		}
		return "", "", p.invalid("References("+fk.Table+")", "referenced table has no primary key")
	}
	table := p.QuoteName(p.Ident(p.naming.TableName(fk.Table)))
	if fk.Column != "" {
		return table, p.QuoteName(p.Ident(p.naming.ColumnName(fk.Column))), nil
	}
	if p.caps.Dialect == dialect.MySQL {
		return "", "", p.invalid("References("+fk.Table+")", "the referenced column is required")
	}
	return table, "", nil
}

func (p *Provider) foreignKey(t *schema.Table, f *field.Descriptor, refs []*schema.Table, scope *naming.Scope) (string, error) {
	fk := f.ForeignKey
	table, cols, err := p.reference(t, f, refs)
	if err != nil {
		return "", err
	}
	name := fk.Name
	if name == "" {
		name = "fk_" + p.TableName(t) + "_" + p.ColumnName(f)
	}
	if name, err = scope.Name(name); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("CONSTRAINT ")
	b.WriteString(p.QuoteName(name))
	b.WriteString(" FOREIGN KEY (")
	b.WriteString(p.QuoteColumn(f))
	b.WriteString(") REFERENCES ")
	b.WriteString(table)
	if cols != "" {
		b.WriteString(" (")
		b.WriteString(cols)
		b.WriteString(")")
	}
	del, err := p.referenceAction("OnDelete", fk.OnDelete, true)
	if err != nil {
		return "", err
	}
	if del != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(del)
	}
	upd, err := p.referenceAction("OnUpdate", fk.OnUpdate, p.caps.ForeignKeyOnUpdate)
	if err != nil {
		return "", err
	}
	if upd != "" {
		b.WriteString(" ON UPDATE ")
		b.WriteString(upd)
	}
	return b.String(), nil
}

// referenceAction maps a referential action to the dialect. Actions that
// match the engine default are omitted where the clause is not supported.
func (p *Provider) referenceAction(kind string, opt field.ReferenceOption, supported bool) (string, error) {
	if opt == "" {
		return "", nil
	}
	noAction := opt == field.NoAction || opt == field.Restrict
	switch {
	case !supported && noAction:
		return "", nil
	case !supported:
		return "", p.unsupported(kind + "(" + string(opt) + ")")
	case p.caps.Dialect == dialect.Oracle && noAction:
		return "", nil
	case p.caps.Dialect == dialect.Oracle && opt == field.SetDefault:
		return "", p.unsupported(kind + "(" + string(opt) + ")")
	case p.caps.Dialect == dialect.SQLServer && opt == field.Restrict:
		return string(field.NoAction), nil
	}
	return string(opt), nil
}

func (p *Provider) schemaMismatch(table, column string) error {
	return orma.NewSchemaMismatchError(p.Name(), table, column)
}

type indexDef struct {
	unique bool
	fields []*field.Descriptor
	name   string
}

// indexes collects the declared indexes and the unique or indexed fields.
func (p *Provider) indexes(t *schema.Table) ([]indexDef, error) {
	var defs []indexDef
	for _, f := range t.Fields {
		if f.PrimaryKey || (!f.Unique && !f.Indexed) {
			continue
		}
		defs = append(defs, indexDef{unique: f.Unique, fields: []*field.Descriptor{f}})
	}
	for _, idx := range t.Indexes {
		d := indexDef{unique: idx.Unique, name: idx.StorageKey}
		for _, name := range idx.Fields {
			f, ok := t.Field(name)
			if !ok {
				return nil, p.schemaMismatch(t.Name, name)
			}
			d.fields = append(d.fields, f)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// ToCreateIndexStatements renders CREATE INDEX for the indexes of t and its
// unique or indexed fields.
func (p *Provider) ToCreateIndexStatements(t *schema.Table) ([]string, error) {
	return p.createIndexes(t, p.scope())
}

func (p *Provider) createIndexes(t *schema.Table, scope *naming.Scope) ([]string, error) {
	defs, err := p.indexes(t)
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(defs))
	for _, d := range defs {
		name := d.name
		if name == "" {
			prefix := "idx_"
			if d.unique {
				prefix = "uidx_"
			}
			name = prefix + p.TableName(t) + "_" + strings.Join(lo.Map(d.fields, func(f *field.Descriptor, _ int) string {
				return p.ColumnName(f)
			}), "_")
		}
		if name, err = scope.Name(name); err != nil {
			return nil, err
		}
		kind := "INDEX "
		if d.unique {
			kind = "UNIQUE INDEX "
		}
		stmts = append(stmts, "CREATE "+kind+p.QuoteName(name)+" ON "+p.QuoteTable(t)+" ("+p.columnList(d.fields)+")")
	}
	return stmts, nil
}

// ToCreateSequenceStatements renders CREATE SEQUENCE for the sequence
// backed keys of t.
func (p *Provider) ToCreateSequenceStatements(t *schema.Table) ([]string, error) {
	if err := p.CheckTable(t); err != nil {
		return nil, err
	}
	var stmts []string
	for _, f := range t.Fields {
		if p.UsesSequence(f) {
			stmts = append(stmts, "CREATE SEQUENCE "+p.QuoteSequence(t, f))
		}
	}
	return stmts, nil
}

// ToDropSequenceStatements renders DROP SEQUENCE for the sequence backed
// keys of t.
func (p *Provider) ToDropSequenceStatements(t *schema.Table) []string {
	var stmts []string
	for _, f := range t.Fields {
		if p.UsesSequence(f) {
			stmts = append(stmts, "DROP SEQUENCE "+p.QuoteSequence(t, f))
		}
	}
	return stmts
}

// ToDropTableStatement renders DROP TABLE for t.
func (p *Provider) ToDropTableStatement(t *schema.Table) string {
	return "DROP TABLE " + p.QuoteTable(t)
}

// ToPostCreateTableStatements renders the triggers and comments that follow
// CREATE TABLE: key generation triggers, row version triggers and column
// comments.
func (p *Provider) ToPostCreateTableStatements(t *schema.Table) ([]string, error) {
	return p.postCreate(t, p.scope())
}

func (p *Provider) postCreate(t *schema.Table, scope *naming.Scope) ([]string, error) {
	if err := p.CheckTable(t); err != nil {
		return nil, err
	}
	var stmts []string
	for _, f := range t.Fields {
		if !p.UsesSequence(f) || p.keyStyle(f) != AutoIncrementSequenceTrigger {
			continue
		}
		name, err := scope.Name("trg_" + p.TableName(t) + "_" + p.ColumnName(f))
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, p.keyTrigger(t, f, name))
	}
	if rv := t.RowVersion(); rv != nil {
		name, err := scope.Name("trg_" + p.TableName(t) + "_" + p.ColumnName(rv))
		if err != nil {
			return nil, err
		}
		rs, err := p.rowVersionTrigger(t, rv, name)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, rs...)
	}
	switch p.caps.Dialect {
	case dialect.Postgres, dialect.Oracle, dialect.Firebird:
		for _, f := range t.Fields {
			if f.Comment != "" {
				stmts = append(stmts, "COMMENT ON COLUMN "+p.QualifiedColumn(t, f)+" IS "+p.Quote(f.Comment))
			}
		}
	}
	return stmts, nil
}

func (p *Provider) keyTrigger(t *schema.Table, f *field.Descriptor, name string) string {
	col, seq := p.QuoteColumn(f), p.QuoteSequence(t, f)
	if p.caps.Dialect == dialect.Oracle {
		return "CREATE OR REPLACE TRIGGER " + p.qualify(t, name) + " BEFORE INSERT ON " + p.QuoteTable(t) +
			" FOR EACH ROW WHEN (NEW." + col + " IS NULL) BEGIN SELECT " + p.caps.SequenceNext(seq) +
			" INTO :NEW." + col + p.caps.Dual + "; END;"
	}
	return "CREATE TRIGGER " + p.QuoteName(name) + " FOR " + p.QuoteTable(t) +
		" ACTIVE BEFORE INSERT POSITION 0 AS BEGIN IF (NEW." + col + " IS NULL) THEN NEW." + col +
		" = " + p.caps.SequenceNext(seq) + "; END"
}

// rowVersionFunction returns the name of the PostgreSQL trigger function.
func (p *Provider) rowVersionFunction(t *schema.Table, rv *field.Descriptor) string {
	return p.Ident("fn_" + p.TableName(t) + "_" + p.ColumnName(rv))
}

// rowVersionTrigger increments the row version on every update.
func (p *Provider) rowVersionTrigger(t *schema.Table, rv *field.Descriptor, name string) ([]string, error) {
	table, col := p.QuoteTable(t), p.QuoteColumn(rv)
	switch p.caps.Dialect {
	case dialect.SQLite:
		return []string{"CREATE TRIGGER " + p.qualify(t, name) + " AFTER UPDATE ON " + p.QuoteName(p.TableName(t)) +
			" FOR EACH ROW WHEN NEW." + col + " = OLD." + col + " BEGIN UPDATE " + p.QuoteName(p.TableName(t)) +
			" SET " + col + " = OLD." + col + " + 1 WHERE rowid = NEW.rowid; END"}, nil
	case dialect.MySQL:
		return []string{"CREATE TRIGGER " + p.qualify(t, name) + " BEFORE UPDATE ON " + table +
			" FOR EACH ROW SET NEW." + col + " = OLD." + col + " + 1"}, nil
	case dialect.Postgres:
		fn := p.qualify(t, p.rowVersionFunction(t, rv))
		return []string{
			"CREATE OR REPLACE FUNCTION " + fn + "() RETURNS TRIGGER AS $$ BEGIN NEW." + col + " := OLD." + col +
				" + 1; RETURN NEW; END; $$ LANGUAGE plpgsql",
			"CREATE TRIGGER " + p.QuoteName(name) + " BEFORE UPDATE ON " + table + " FOR EACH ROW EXECUTE PROCEDURE " + fn + "()",
		}, nil
	case dialect.Oracle:
		return []string{"CREATE OR REPLACE TRIGGER " + p.qualify(t, name) + " BEFORE UPDATE ON " + table +
			" FOR EACH ROW BEGIN :NEW." + col + " := :OLD." + col + " + 1; END;"}, nil
	case dialect.Firebird:
		return []string{"CREATE TRIGGER " + p.QuoteName(name) + " FOR " + table +
			" ACTIVE BEFORE UPDATE POSITION 0 AS BEGIN NEW." + col + " = OLD." + col + " + 1; END"}, nil
	case dialect.SQLServer:
		pks := t.PrimaryKeys()
		if len(pks) == 0 {
			return nil, p.invalid("RowVersion("+rv.Name+")", "row version triggers require a primary key")
		}
		on := lo.Map(pks, func(f *field.Descriptor, _ int) string {
			return table + "." + p.QuoteColumn(f) + " = inserted." + p.QuoteColumn(f)
		})
		return []string{"CREATE TRIGGER " + p.qualify(t, name) + " ON " + table + " AFTER UPDATE AS BEGIN SET NOCOUNT ON; UPDATE " +
			table + " SET " + col + " = " + table + "." + col + " + 1 FROM " + table + " INNER JOIN inserted ON " +
			strings.Join(on, " AND ") + "; END"}, nil
	}
	return nil, p.unsupported("RowVersion(" + rv.Name + ")")
}

// ToAddColumnStatement renders ALTER TABLE adding f to t.
func (p *Provider) ToAddColumnStatement(t *schema.Table, f *field.Descriptor) (string, error) {
	def, _, err := p.ColumnDefinition(t, f, false)
	if err != nil {
		return "", err
	}
	prefix := "ALTER TABLE " + p.QuoteTable(t)
	switch p.caps.Dialect {
	case dialect.Oracle:
		return prefix + " ADD (" + def + ")", nil
	case dialect.SQLServer, dialect.Firebird:
		return prefix + " ADD " + def, nil
	}
	return prefix + " ADD COLUMN " + def, nil
}

// ToAlterColumnStatement renders ALTER TABLE changing the type and
// nullability of f.
func (p *Provider) ToAlterColumnStatement(t *schema.Table, f *field.Descriptor) (string, error) {
	typ, err := p.conv.ColumnDefinition(f)
	if err != nil {
		return "", err
	}
	prefix, col := "ALTER TABLE "+p.QuoteTable(t), p.QuoteColumn(f)
	null := " NULL"
	if !f.Nullable || f.PrimaryKey {
		null = " NOT NULL"
	}
	switch p.caps.Dialect {
	case dialect.MySQL:
		def, _, err := p.ColumnDefinition(t, f, false)
		if err != nil {
			return "", err
		}
		return prefix + " MODIFY COLUMN " + def, nil
	case dialect.Postgres:
		nn := "DROP NOT NULL"
		if null == " NOT NULL" {
			nn = "SET NOT NULL"
		}
		return prefix + " ALTER COLUMN " + col + " TYPE " + typ + ", ALTER COLUMN " + col + " " + nn, nil
	case dialect.SQLServer:
		return prefix + " ALTER COLUMN " + col + " " + typ + null, nil
	case dialect.Oracle:
		return prefix + " MODIFY (" + col + " " + typ + ")", nil
	case dialect.Firebird:
		return prefix + " ALTER COLUMN " + col + " TYPE " + typ, nil
	}
	return "", p.unsupported("AlterColumn(" + f.Name + ")")
}

// ToRenameColumnStatement renders the statement renaming the column of the
// logical field from to f.
func (p *Provider) ToRenameColumnStatement(t *schema.Table, from string, f *field.Descriptor) (string, error) {
	old := p.Ident(p.naming.ColumnName(from))
	prefix := "ALTER TABLE " + p.QuoteTable(t)
	switch {
	case p.caps.Dialect == dialect.MySQL && p.caps.Version == "5":
		def, _, err := p.ColumnDefinition(t, f, false)
		if err != nil {
			return "", err
		}
		return prefix + " CHANGE COLUMN " + p.QuoteName(old) + " " + def, nil
	case p.caps.Dialect == dialect.SQLServer:
		return "EXEC sp_rename " + p.Quote(p.QuoteTable(t)+"."+p.QuoteName(old)) + ", " +
			p.Quote(p.ColumnName(f)) + ", " + p.Quote("COLUMN"), nil
	case p.caps.Dialect == dialect.Firebird:
		return prefix + " ALTER COLUMN " + p.QuoteName(old) + " TO " + p.QuoteColumn(f), nil
	}
	return prefix + " RENAME COLUMN " + p.QuoteName(old) + " TO " + p.QuoteColumn(f), nil
}

// currentSchema returns the catalog predicate value for the schema of t.
func (p *Provider) currentSchema(t *schema.Table) string {
	if s := p.SchemaName(t); s != "" {
		return p.Quote(p.CatalogName(s))
	}
	switch p.caps.Dialect {
	case dialect.MySQL:
		return "DATABASE()"
	case dialect.Postgres:
		return "CURRENT_SCHEMA()"
	case dialect.SQLServer:
		return "SCHEMA_NAME()"
	case dialect.Oracle:
		return "SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')"
	}
	return ""
}

// ToTableExistsStatement renders a query returning the number of tables
// named like t.
func (p *Provider) ToTableExistsStatement(t *schema.Table) string {
	name := p.Quote(p.CatalogName(p.TableName(t)))
	switch p.caps.Dialect {
	case dialect.SQLite:
		return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = " + name
	case dialect.Postgres:
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = " + p.currentSchema(t) + " AND table_name = " + name
	case dialect.Oracle:
		return "SELECT COUNT(*) FROM ALL_TABLES WHERE OWNER = " + p.currentSchema(t) + " AND TABLE_NAME = " + name
	case dialect.Firebird:
		return "SELECT COUNT(*) FROM RDB$RELATIONS WHERE TRIM(RDB$RELATION_NAME) = " + name
	}
	return "SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = " + p.currentSchema(t) + " AND TABLE_NAME = " + name
}

// ToColumnExistsStatement renders a query returning the number of columns
// of t named like f.
func (p *Provider) ToColumnExistsStatement(t *schema.Table, f *field.Descriptor) string {
	table, col := p.Quote(p.CatalogName(p.TableName(t))), p.Quote(p.CatalogName(p.ColumnName(f)))
	switch p.caps.Dialect {
	case dialect.SQLite:
		return "SELECT COUNT(*) FROM pragma_table_info(" + table + ") WHERE name = " + col
	case dialect.Postgres:
		return "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = " + p.currentSchema(t) +
			" AND table_name = " + table + " AND column_name = " + col
	case dialect.Oracle:
		return "SELECT COUNT(*) FROM ALL_TAB_COLUMNS WHERE OWNER = " + p.currentSchema(t) +
			" AND TABLE_NAME = " + table + " AND COLUMN_NAME = " + col
	case dialect.Firebird:
		return "SELECT COUNT(*) FROM RDB$RELATION_FIELDS WHERE TRIM(RDB$RELATION_NAME) = " + table +
			" AND TRIM(RDB$FIELD_NAME) = " + col
	}
	return "SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = " + p.currentSchema(t) +
		" AND TABLE_NAME = " + table + " AND COLUMN_NAME = " + col
}

// ToSequenceExistsStatement renders a query returning the number of
// sequences backing the key f of t.
func (p *Provider) ToSequenceExistsStatement(t *schema.Table, f *field.Descriptor) (string, error) {
	name := p.Quote(p.CatalogName(p.SequenceName(t, f)))
	switch p.caps.Dialect {
	case dialect.Postgres:
		return "SELECT COUNT(*) FROM information_schema.sequences WHERE sequence_schema = " + p.currentSchema(t) +
			" AND sequence_name = " + name, nil
	case dialect.Oracle:
		return "SELECT COUNT(*) FROM ALL_SEQUENCES WHERE SEQUENCE_OWNER = " + p.currentSchema(t) +
			" AND SEQUENCE_NAME = " + name, nil
	case dialect.Firebird:
		return "SELECT COUNT(*) FROM RDB$GENERATORS WHERE TRIM(RDB$GENERATOR_NAME) = " + name, nil
	case dialect.SQLServer:
		return "SELECT COUNT(*) FROM sys.sequences WHERE name = " + name, nil
	}
	return "", p.unsupported("SequenceExists(" + f.Name + ")")
}

// sortTables orders tables so that referenced tables come first. Cycles
// and references to unknown tables keep the given order.
func sortTables(tables []*schema.Table) []*schema.Table {
	var (
		sorted  = make([]*schema.Table, 0, len(tables))
		state   = make(map[*schema.Table]int, len(tables))
		visit   func(t *schema.Table)
		visited = 2
	)
	visit = func(t *schema.Table) {
		if state[t] != 0 {
			return
		}
		state[t] = 1
		for _, f := range t.Fields {
			if f.ForeignKey == nil {
				continue
			}
			if rt := findTable(f.ForeignKey.Table, tables); rt != nil && rt != t {
				visit(rt)
			}
		}
		state[t] = visited
		sorted = append(sorted, t)
	}
	for _, t := range tables {
		visit(t)
	}
	return sorted
}

// ToCreateTableStatements renders the ordered DDL creating tables:
// sequences, tables, indexes and triggers. Referenced tables are created
// first, and all generated names share one scope.
func (p *Provider) ToCreateTableStatements(tables ...*schema.Table) ([]string, error) {
	scope := p.scope()
	var stmts []string
	for _, t := range sortTables(tables) {
		seqs, err := p.ToCreateSequenceStatements(t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, seqs...)
		create, err := p.createTable(t, tables, scope)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, create)
		idx, err := p.createIndexes(t, scope)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, idx...)
		post, err := p.postCreate(t, scope)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, post...)
	}
	return stmts, nil
}

// ToDropTableStatements renders the ordered DDL dropping tables and their
// sequences, dependent tables first.
func (p *Provider) ToDropTableStatements(tables ...*schema.Table) []string {
	sorted := sortTables(tables)
	var stmts []string
	for i := len(sorted) - 1; i >= 0; i-- {
		t := sorted[i]
		stmts = append(stmts, p.ToDropTableStatement(t))
		stmts = append(stmts, p.ToDropSequenceStatements(t)...)
		if rv := t.RowVersion(); rv != nil && p.caps.Dialect == dialect.Postgres {
			stmts = append(stmts, "DROP FUNCTION IF EXISTS "+p.qualify(t, p.rowVersionFunction(t, rv))+"()")
		}
	}
	return stmts
}
