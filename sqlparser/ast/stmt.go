package ast

import "beetdb/sql"

// Statement is the closed variant set produced by the parser. Every
// variant has a matching bound form and a binding procedure in the binder.
type Statement interface {
	stmt()
}

// ColumnDef is an unvalidated column definition inside CREATE TABLE.
// MaxLength is zero when the declaration carried no length.
type ColumnDef struct {
	Name       string
	Type       sql.DataType
	MaxLength  uint32
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

type CreateTableStmt struct {
	Name    string
	Columns []*ColumnDef
	// PrimaryKey holds a table-level PRIMARY KEY (a, b) clause. Column-level
	// PRIMARY KEY markers live on the ColumnDef.
	PrimaryKey []string
}

func (c *CreateTableStmt) stmt() {}

// SelectItem is one projected expression, or the bare * when Star is set.
type SelectItem struct {
	Star  bool
	Expr  Expression
	Alias string
}

type OrderItem struct {
	Column *Field
	Desc   bool
}

type SelectStmt struct {
	Projection []*SelectItem
	Table      string
	Where      Expression
	GroupBy    []*Field
	OrderBy    []*OrderItem
}

func (s *SelectStmt) stmt() {}

type InsertStmt struct {
	Table   string
	Columns []string
	Rows    [][]Expression
}

func (i *InsertStmt) stmt() {}

type Assignment struct {
	Column string
	Expr   Expression
}

type UpdateStmt struct {
	Table string
	Set   []*Assignment
	Where Expression
}

func (u *UpdateStmt) stmt() {}

type DeleteStmt struct {
	Table string
	Where Expression
}

func (d *DeleteStmt) stmt() {}
