package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/syssam/orma/schema/field"
	"github.com/syssam/orma/schema/index"
)

// tablesYAML is the document layout accepted by DecodeYAML.
//
//	tables:
//	  - name: Person
//	    fields:
//	      - {name: Id, type: int64, primary_key: true, auto_increment: true}
//	      - {name: Name, type: string, size: 50}
//	    indexes:
//	      - {fields: [Name], unique: true}
type tablesYAML struct {
	Tables []tableYAML `yaml:"tables"`
}

type tableYAML struct {
	Name    string      `yaml:"name"`
	Alias   string      `yaml:"alias"`
	Schema  string      `yaml:"schema"`
	Fields  []fieldYAML `yaml:"fields"`
	Indexes []indexYAML `yaml:"indexes"`
}

type fieldYAML struct {
	Name          string            `yaml:"name"`
	Type          string            `yaml:"type"`
	Alias         string            `yaml:"alias"`
	Size          int               `yaml:"size"`
	Scale         int               `yaml:"scale"`
	Nullable      bool              `yaml:"nullable"`
	PrimaryKey    bool              `yaml:"primary_key"`
	AutoIncrement bool              `yaml:"auto_increment"`
	Sequence      string            `yaml:"sequence"`
	Default       any               `yaml:"default"`
	DefaultExpr   string            `yaml:"default_expr"`
	Unique        bool              `yaml:"unique"`
	Indexed       bool              `yaml:"indexed"`
	Computed      string            `yaml:"computed"`
	RowVersion    bool              `yaml:"row_version"`
	References    *referenceYAML    `yaml:"references"`
	SchemaType    map[string]string `yaml:"schema_type"`
	Values        []string          `yaml:"values"`
	Comment       string            `yaml:"comment"`
}

type referenceYAML struct {
	Table    string `yaml:"table"`
	Column   string `yaml:"column"`
	Name     string `yaml:"name"`
	OnDelete string `yaml:"on_delete"`
	OnUpdate string `yaml:"on_update"`
}

type indexYAML struct {
	Fields []string `yaml:"fields"`
	Unique bool     `yaml:"unique"`
	Name   string   `yaml:"name"`
}

// DecodeYAML decodes table definitions from a YAML document. Unknown keys
// are rejected.
func DecodeYAML(data []byte) ([]*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc tablesYAML
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	tables := make([]*Table, 0, len(doc.Tables))
	for _, ty := range doc.Tables {
		t, err := ty.table()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func (ty tableYAML) table() (*Table, error) {
	fields := make([]Field, 0, len(ty.Fields))
	for _, fy := range ty.Fields {
		typ, err := field.ParseType(fy.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: table %q field %q: %w", ty.Name, fy.Name, err)
		}
		b := field.Of(fy.Name, typ).
			StorageKey(fy.Alias).
			Sequence(fy.Sequence).
			DefaultExpr(fy.DefaultExpr).
			Computed(fy.Computed).
			Comment(fy.Comment).
			SchemaType(fy.SchemaType).
			Values(fy.Values...)
		switch {
		case typ == field.TypeDecimal && fy.Size > 0:
			b.Precision(fy.Size, fy.Scale)
		case fy.Size > 0:
			b.Size(fy.Size)
		}
		if fy.Default != nil {
			b.Default(fy.Default)
		}
		if fy.Nullable {
			b.Nullable()
		}
		if fy.PrimaryKey {
			b.PrimaryKey()
		}
		if fy.AutoIncrement {
			b.AutoIncrement()
		}
		if fy.Unique {
			b.Unique()
		}
		if fy.Indexed {
			b.Indexed()
		}
		if fy.RowVersion {
			b.RowVersion()
		}
		if r := fy.References; r != nil {
			b.References(r.Table, r.Column).ForeignKeyName(r.Name)
			if r.OnDelete != "" {
				b.OnDelete(field.ReferenceOption(r.OnDelete))
			}
			if r.OnUpdate != "" {
				b.OnUpdate(field.ReferenceOption(r.OnUpdate))
			}
		}
		fields = append(fields, b)
	}
	t := NewTable(ty.Name, fields...).WithAlias(ty.Alias).WithSchema(ty.Schema)
	for _, iy := range ty.Indexes {
		b := index.Fields(iy.Fields...).StorageKey(iy.Name)
		if iy.Unique {
			b.Unique()
		}
		t.WithIndexes(b)
	}
	if err := t.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
