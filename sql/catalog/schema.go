package catalog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"beetdb/sql"
)

// Schema validation failures for CREATE TABLE definitions.
var (
	ErrNoColumns           = errors.New("catalog: table has no columns")
	ErrDuplicateColumn     = errors.New("catalog: duplicate column name")
	ErrNoPrimaryKey        = errors.New("catalog: no primary key")
	ErrMultiplePrimaryKeys = errors.New("catalog: multiple primary key definitions")
	ErrUnknownPrimaryKey   = errors.New("catalog: primary key references unknown column")
	ErrNullablePrimaryKey  = errors.New("catalog: primary key column cannot be nullable")
	ErrMissingLength       = errors.New("catalog: sized type requires an explicit length")
	ErrInvalidDataType     = errors.New("catalog: invalid column data type")
)

// Column describes one table column. Identity is the name within its
// owning table.
type Column struct {
	Name      string       `json:"name"`
	DataType  sql.DataType `json:"data_type"`
	MaxLength uint32       `json:"max_length,omitempty"`
	Nullable  bool         `json:"nullable"`
	Unique    bool         `json:"unique,omitempty"`
}

func (c *Column) Validate() error {
	switch c.DataType {
	case sql.BoolType, sql.IntType, sql.FloatType:
		if c.MaxLength != 0 {
			return errors.Wrap(ErrInvalidDataType, "column "+c.Name+" has a length on a fixed-width type")
		}
	case sql.CharType, sql.VarcharType, sql.BinaryType, sql.VarbinaryType:
		if c.MaxLength == 0 {
			return errors.Wrap(ErrMissingLength, "column "+c.Name)
		}
	default:
		return errors.Wrap(ErrInvalidDataType, "column "+c.Name)
	}
	return nil
}

// StorageSize is the worst-case on-disk size of a value in this column.
func (c *Column) StorageSize() int {
	return c.DataType.StorageSize(c.MaxLength)
}

// TypeString renders the column type with its declared length, e.g.
// VARCHAR(20).
func (c *Column) TypeString() string {
	if c.DataType.Sized() {
		return fmt.Sprintf("%s(%d)", c.DataType, c.MaxLength)
	}
	return c.DataType.String()
}

func (c *Column) String() string {
	var builder strings.Builder
	builder.WriteString(c.Name + " " + c.TypeString())
	if !c.Nullable {
		builder.WriteString(" NOT NULL")
	}
	if c.Unique {
		builder.WriteString(" UNIQUE")
	}
	return builder.String()
}

// Table is one table schema: name, ordered columns, and the primary-key
// column names.
type Table struct {
	Name       string    `json:"name"`
	Columns    []*Column `json:"columns"`
	PrimaryKey []string  `json:"primary_key"`
}

// FindColumn returns the column with the exact name, or nil.
func (t *Table) FindColumn(name string) *Column {
	for _, column := range t.Columns {
		if column.Name == name {
			return column
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, column := range t.Columns {
		if column.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the table definition in isolation: non-empty columns,
// unique column names, valid column types, and a primary key naming
// existing non-nullable columns.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return errors.Wrap(ErrNoColumns, "table "+t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, column := range t.Columns {
		if seen[column.Name] {
			return errors.Wrap(ErrDuplicateColumn, "table "+t.Name+" column "+column.Name)
		}
		seen[column.Name] = true
		if err := column.Validate(); err != nil {
			return err
		}
	}

	if len(t.PrimaryKey) == 0 {
		return errors.Wrap(ErrNoPrimaryKey, "table "+t.Name)
	}
	for _, name := range t.PrimaryKey {
		column := t.FindColumn(name)
		if column == nil {
			return errors.Wrap(ErrUnknownPrimaryKey, "table "+t.Name+" key "+name)
		}
		if column.Nullable {
			return errors.Wrap(ErrNullablePrimaryKey, "table "+t.Name+" key "+name)
		}
	}
	return nil
}

// RowSize is the worst-case encoded row size: the sum of each column's
// fixed size or declared maximum.
func (t *Table) RowSize() int {
	size := 0
	for _, column := range t.Columns {
		size += column.StorageSize()
	}
	return size
}

// Clone returns a deep copy owning none of the original's data.
func (t *Table) Clone() *Table {
	clone := &Table{
		Name:       t.Name,
		Columns:    make([]*Column, len(t.Columns)),
		PrimaryKey: append([]string(nil), t.PrimaryKey...),
	}
	for i, column := range t.Columns {
		copied := *column
		clone.Columns[i] = &copied
	}
	return clone
}

func (t *Table) String() string {
	var parts []string
	for _, column := range t.Columns {
		parts = append(parts, column.String())
	}
	parts = append(parts, "PRIMARY KEY ("+strings.Join(t.PrimaryKey, ", ")+")")
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  "))
}
