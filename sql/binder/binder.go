package binder

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"beetdb/pager"
	"beetdb/sql"
	"beetdb/sql/catalog"
	"beetdb/sqlparser/ast"
)

// Binder resolves names and checks types, turning a parsed statement into
// a BoundStatement. It reads the catalog and never mutates it, except for
// the durable side effect CREATE TABLE requires.
type Binder struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Binder {
	return &Binder{catalog: c}
}

// Bind dispatches over the closed statement variant set.
func (b *Binder) Bind(stmt ast.Statement) (BoundStatement, error) {
	switch v := stmt.(type) {
	case *ast.CreateTableStmt:
		return b.bindCreateTable(v)
	case *ast.SelectStmt:
		return b.bindSelect(v)
	case *ast.InsertStmt:
		return b.bindInsert(v)
	case *ast.UpdateStmt:
		return b.bindUpdate(v)
	case *ast.DeleteStmt:
		return b.bindDelete(v)
	}
	return nil, errors.New("binder: unknown statement")
}

func (b *Binder) resolveTable(name string) (*catalog.Table, error) {
	table := b.catalog.FindTable(name)
	if table == nil {
		return nil, &UnknownTableError{Table: name}
	}
	return table, nil
}

// resolveColumn looks the name up in the resolved table, case-sensitive.
// A qualifier, if present, must match the table.
func resolveColumn(table *catalog.Table, field *ast.Field) (*ColumnRef, error) {
	if field.Table != "" && field.Table != table.Name {
		return nil, &UnknownTableError{Table: field.Table}
	}
	idx := table.ColumnIndex(field.Column)
	if idx < 0 {
		return nil, &UnknownColumnError{Table: table.Name, Column: field.Column}
	}
	return &ColumnRef{Table: table.Name, Column: table.Columns[idx], Index: idx}, nil
}

// bindExpression type-checks an expression against the table's schema.
// table may be nil for constant contexts such as insert value lists, where
// column references are invalid.
func (b *Binder) bindExpression(table *catalog.Table, expr ast.Expression) (Expr, error) {
	switch v := expr.(type) {
	case *ast.Field:
		if table == nil {
			return nil, errors.New("binder: column reference " + v.Column + " in constant expression")
		}
		return resolveColumn(table, v)

	case *ast.Literal:
		return &Literal{Value: v.Value}, nil

	case *ast.BinaryExpr:
		left, err := b.bindExpression(table, v.L)
		if err != nil {
			return nil, err
		}
		right, err := b.bindExpression(table, v.R)
		if err != nil {
			return nil, err
		}
		dataType, err := binaryResultType(v.Op, left.DataType(), right.DataType())
		if err != nil {
			return nil, err
		}
		return &Binary{Op: v.Op, L: left, R: right, dataType: dataType}, nil

	case *ast.UnaryExpr:
		operand, err := b.bindExpression(table, v.Operand)
		if err != nil {
			return nil, err
		}
		dataType, err := unaryResultType(v.Op, operand.DataType())
		if err != nil {
			return nil, err
		}
		return &Unary{Op: v.Op, Operand: operand, dataType: dataType}, nil
	}
	return nil, errors.New("binder: unknown expression")
}

// binaryResultType is the operator's allowed-type table: logical operators
// take booleans, comparisons take operands of one family and yield a
// boolean, arithmetic takes numerics and widens Int < Float, concatenation
// takes text and never crosses into binary.
func binaryResultType(op ast.BinaryOperator, left sql.DataType, right sql.DataType) (sql.DataType, error) {
	mismatch := &TypeMismatchError{Operator: op.String(), Left: left, Right: right}
	switch {
	case op.Logical():
		if left != sql.BoolType || right != sql.BoolType {
			return 0, mismatch
		}
		return sql.BoolType, nil

	case op.Comparison():
		if !left.SameFamily(right) {
			return 0, mismatch
		}
		return sql.BoolType, nil

	case op.Arithmetic():
		if !left.Numeric() || !right.Numeric() {
			return 0, mismatch
		}
		if op == ast.OpModulo && (left != sql.IntType || right != sql.IntType) {
			return 0, mismatch
		}
		return sql.WidenNumeric(left, right), nil

	case op == ast.OpConcat:
		if !left.Text() || !right.Text() {
			return 0, mismatch
		}
		return sql.VarcharType, nil
	}
	return 0, errors.New("binder: unknown operator " + op.String())
}

func unaryResultType(op ast.UnaryOperator, operand sql.DataType) (sql.DataType, error) {
	switch op {
	case ast.OpIsNull, ast.OpIsNotNull:
		return sql.BoolType, nil
	case ast.OpNot:
		if operand != sql.BoolType {
			return 0, &TypeMismatchError{Operator: op.String(), Left: operand, Right: sql.BoolType}
		}
		return sql.BoolType, nil
	case ast.OpNegate:
		if !operand.Numeric() {
			return 0, &TypeMismatchError{Operator: op.String(), Left: operand, Right: sql.IntType}
		}
		return operand, nil
	}
	return 0, errors.New("binder: unknown operator " + op.String())
}

// bindWhere type-checks a WHERE clause and requires it to be boolean.
func (b *Binder) bindWhere(table *catalog.Table, where ast.Expression) (Expr, error) {
	if where == nil {
		return nil, nil
	}
	expr, err := b.bindExpression(table, where)
	if err != nil {
		return nil, err
	}
	if expr.DataType() != sql.BoolType {
		return nil, &TypeMismatchError{Operator: "WHERE", Left: expr.DataType(), Right: sql.BoolType}
	}
	return expr, nil
}

func (b *Binder) bindSelect(stmt *ast.SelectStmt) (BoundStatement, error) {
	table, err := b.resolveTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	bound := &BoundSelect{Table: table}
	for _, item := range stmt.Projection {
		if item.Star {
			// * expands to every column in table-definition order.
			for i, column := range table.Columns {
				bound.Projection = append(bound.Projection, &BoundProjection{
					Name: column.Name,
					Expr: &ColumnRef{Table: table.Name, Column: column, Index: i},
				})
			}
			continue
		}

		expr, err := b.bindExpression(table, item.Expr)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			if field, ok := item.Expr.(*ast.Field); ok {
				name = field.Column
			} else {
				// Unaliased computed projections get a positional name.
				name = fmt.Sprintf("column%d", len(bound.Projection)+1)
			}
		}
		bound.Projection = append(bound.Projection, &BoundProjection{Name: name, Expr: expr})
	}

	if bound.Where, err = b.bindWhere(table, stmt.Where); err != nil {
		return nil, err
	}

	for _, field := range stmt.GroupBy {
		ref, err := resolveColumn(table, field)
		if err != nil {
			return nil, err
		}
		bound.GroupBy = append(bound.GroupBy, ref)
	}
	for _, item := range stmt.OrderBy {
		ref, err := resolveColumn(table, item.Column)
		if err != nil {
			return nil, err
		}
		bound.OrderBy = append(bound.OrderBy, &BoundOrder{Column: ref, Desc: item.Desc})
	}
	return bound, nil
}

func (b *Binder) bindInsert(stmt *ast.InsertStmt) (BoundStatement, error) {
	table, err := b.resolveTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	bound := &BoundInsert{Table: table}
	if len(stmt.Columns) == 0 {
		for i, column := range table.Columns {
			bound.Columns = append(bound.Columns, &ColumnRef{Table: table.Name, Column: column, Index: i})
		}
	} else {
		seen := make(map[string]bool, len(stmt.Columns))
		for _, name := range stmt.Columns {
			if seen[name] {
				return nil, pkgerrors.Wrap(catalog.ErrDuplicateColumn, "insert into "+table.Name+" column "+name)
			}
			seen[name] = true
			ref, err := resolveColumn(table, &ast.Field{Column: name})
			if err != nil {
				return nil, err
			}
			bound.Columns = append(bound.Columns, ref)
		}
	}

	for _, row := range stmt.Rows {
		if len(row) != len(bound.Columns) {
			return nil, &ArityMismatchError{Table: table.Name, Want: len(bound.Columns), Got: len(row)}
		}

		values := make([]sql.Value, len(row))
		for i, expr := range row {
			// Value lists are constant expressions; fold them now so
			// constraint checks see the concrete value.
			constant, err := b.bindExpression(nil, expr)
			if err != nil {
				return nil, err
			}
			value, err := constant.Evaluate(nil)
			if err != nil {
				return nil, err
			}
			if err := checkValue(table.Name, bound.Columns[i].Column, value); err != nil {
				return nil, err
			}
			values[i] = value
		}
		bound.Rows = append(bound.Rows, values)
	}
	return bound, nil
}

// checkValue enforces the column's type, NOT NULL, and maximum-length
// constraints on a concrete value. Uniqueness is left to execution, since
// it needs a storage lookup.
func checkValue(tableName string, column *catalog.Column, value sql.Value) error {
	if value.IsNull() {
		if !column.Nullable {
			return &NullConstraintError{Table: tableName, Column: column.Name}
		}
		return nil
	}
	if !assignable(value.Type, column.DataType) {
		return &TypeMismatchError{
			Operator: "assign",
			Left:     value.Type,
			Right:    column.DataType,
			Column:   column.Name,
		}
	}
	if column.DataType.Sized() {
		if length := value.Length(); length > int(column.MaxLength) {
			return &LengthConstraintError{
				Table:  tableName,
				Column: column.Name,
				Limit:  column.MaxLength,
				Length: length,
			}
		}
	}
	return nil
}

// assignable reports whether a value type may be stored in a column type:
// exact kinds, within the text and binary families, and Int widening to
// Float. Float never narrows to Int.
func assignable(value sql.DataType, column sql.DataType) bool {
	switch {
	case value == column:
		return true
	case value == sql.IntType && column == sql.FloatType:
		return true
	case value.Text() && column.Text():
		return true
	case value.Binary() && column.Binary():
		return true
	}
	return false
}

func (b *Binder) bindUpdate(stmt *ast.UpdateStmt) (BoundStatement, error) {
	table, err := b.resolveTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	bound := &BoundUpdate{Table: table}
	for _, assign := range stmt.Set {
		ref, err := resolveColumn(table, &ast.Field{Column: assign.Column})
		if err != nil {
			return nil, err
		}
		expr, err := b.bindExpression(table, assign.Expr)
		if err != nil {
			return nil, err
		}
		if err := checkAssignment(table.Name, ref.Column, expr); err != nil {
			return nil, err
		}
		bound.Assignments = append(bound.Assignments, &BoundAssignment{Column: ref, Expr: expr})
	}

	if bound.Where, err = b.bindWhere(table, stmt.Where); err != nil {
		return nil, err
	}
	return bound, nil
}

// checkAssignment applies the insert constraint rules to a SET expression.
// Length can only be checked statically for literal values; computed text
// stays bounded by the column check at storage time.
func checkAssignment(tableName string, column *catalog.Column, expr Expr) error {
	if literal, ok := expr.(*Literal); ok {
		return checkValue(tableName, column, literal.Value)
	}
	if !assignable(expr.DataType(), column.DataType) {
		return &TypeMismatchError{
			Operator: "assign",
			Left:     expr.DataType(),
			Right:    column.DataType,
			Column:   column.Name,
		}
	}
	return nil
}

func (b *Binder) bindDelete(stmt *ast.DeleteStmt) (BoundStatement, error) {
	table, err := b.resolveTable(stmt.Table)
	if err != nil {
		return nil, err
	}

	bound := &BoundDelete{Table: table}
	if bound.Where, err = b.bindWhere(table, stmt.Where); err != nil {
		return nil, err
	}
	return bound, nil
}

// bindCreateTable validates the definition in isolation, checks the
// worst-case row size against the page payload, and creates the table.
// This is the one binder operation with a durable side effect.
func (b *Binder) bindCreateTable(stmt *ast.CreateTableStmt) (BoundStatement, error) {
	schema := &catalog.Table{Name: stmt.Name, PrimaryKey: stmt.PrimaryKey}

	for _, def := range stmt.Columns {
		schema.Columns = append(schema.Columns, &catalog.Column{
			Name:      def.Name,
			DataType:  def.Type,
			MaxLength: def.MaxLength,
			Nullable:  !def.NotNull && !def.PrimaryKey,
			Unique:    def.Unique || def.PrimaryKey,
		})
		if def.PrimaryKey {
			if len(stmt.PrimaryKey) > 0 {
				return nil, pkgerrors.Wrap(catalog.ErrMultiplePrimaryKeys, "table "+stmt.Name)
			}
			if len(schema.PrimaryKey) > 0 {
				return nil, pkgerrors.Wrap(catalog.ErrMultiplePrimaryKeys, "table "+stmt.Name)
			}
			schema.PrimaryKey = append(schema.PrimaryKey, def.Name)
		}
	}

	// A table-level PRIMARY KEY clause implies NOT NULL on its columns,
	// like the column-level marker. Names it lists that don't exist are
	// caught by Validate below.
	for _, name := range schema.PrimaryKey {
		if column := schema.FindColumn(name); column != nil {
			column.Nullable = false
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if size := schema.RowSize(); size > pager.PagePayload {
		return nil, &RowTooLargeError{Table: schema.Name, Size: size, Limit: pager.PagePayload}
	}

	if err := b.catalog.CreateTable(schema); err != nil {
		return nil, err
	}
	return &BoundCreateTable{Table: schema}, nil
}
