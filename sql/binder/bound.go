package binder

import (
	"errors"

	"beetdb/sql"
	"beetdb/sql/catalog"
	"beetdb/sqlparser/ast"
)

// BoundStatement is the validated mirror of the ast.Statement variant set.
// Every name inside it is resolved against the catalog and every
// expression carries an inferred DataType; the execution engine consumes
// it without re-validating. Bound statements are immutable after binding.
type BoundStatement interface {
	boundStmt()
}

type BoundCreateTable struct {
	Table *catalog.Table
}

func (b *BoundCreateTable) boundStmt() {}

type BoundProjection struct {
	Name string
	Expr Expr
}

type BoundOrder struct {
	Column *ColumnRef
	Desc   bool
}

type BoundSelect struct {
	Table      *catalog.Table
	Projection []*BoundProjection
	Where      Expr
	GroupBy    []*ColumnRef
	OrderBy    []*BoundOrder
}

func (b *BoundSelect) boundStmt() {}

type BoundInsert struct {
	Table   *catalog.Table
	Columns []*ColumnRef
	// Rows holds the constant-folded value lists, one per inserted row,
	// aligned with Columns.
	Rows [][]sql.Value
}

func (b *BoundInsert) boundStmt() {}

type BoundAssignment struct {
	Column *ColumnRef
	Expr   Expr
}

type BoundUpdate struct {
	Table       *catalog.Table
	Assignments []*BoundAssignment
	Where       Expr
}

func (b *BoundUpdate) boundStmt() {}

type BoundDelete struct {
	Table *catalog.Table
	Where Expr
}

func (b *BoundDelete) boundStmt() {}

// Expr is a type-checked expression over one table's rows. Evaluate takes
// a row in table column order.
type Expr interface {
	DataType() sql.DataType
	Evaluate(row []sql.Value) (sql.Value, error)
}

// ColumnRef is a resolved column reference: the full column plus its
// position in the table's column order.
type ColumnRef struct {
	Table  string
	Column *catalog.Column
	Index  int
}

func (c *ColumnRef) DataType() sql.DataType {
	return c.Column.DataType
}

func (c *ColumnRef) Evaluate(row []sql.Value) (sql.Value, error) {
	if c.Index >= len(row) {
		return sql.Value{}, errors.New("binder: row is missing column " + c.Column.Name)
	}
	return row[c.Index], nil
}

type Literal struct {
	Value sql.Value
}

func (l *Literal) DataType() sql.DataType {
	return l.Value.Type
}

func (l *Literal) Evaluate([]sql.Value) (sql.Value, error) {
	return l.Value, nil
}

type Binary struct {
	Op       ast.BinaryOperator
	L        Expr
	R        Expr
	dataType sql.DataType
}

func (b *Binary) DataType() sql.DataType {
	return b.dataType
}

func (b *Binary) Evaluate(row []sql.Value) (sql.Value, error) {
	left, err := b.L.Evaluate(row)
	if err != nil {
		return sql.Value{}, err
	}
	right, err := b.R.Evaluate(row)
	if err != nil {
		return sql.Value{}, err
	}

	// Null operands propagate: any operation on NULL yields NULL.
	if left.IsNull() || right.IsNull() {
		return sql.Null(), nil
	}

	switch {
	case b.Op.Logical():
		l, r := left.Value.(bool), right.Value.(bool)
		if b.Op == ast.OpAnd {
			return sql.NewBool(l && r), nil
		}
		return sql.NewBool(l || r), nil

	case b.Op.Comparison():
		res, ok := left.Compare(right)
		if !ok {
			return sql.Value{}, errors.New("binder: incomparable values " + left.String() + " and " + right.String())
		}
		switch b.Op {
		case ast.OpEqual:
			return sql.NewBool(res == 0), nil
		case ast.OpNotEqual:
			return sql.NewBool(res != 0), nil
		case ast.OpLessThan:
			return sql.NewBool(res < 0), nil
		case ast.OpLessThanOrEqual:
			return sql.NewBool(res <= 0), nil
		case ast.OpGreaterThan:
			return sql.NewBool(res > 0), nil
		case ast.OpGreaterThanOrEqual:
			return sql.NewBool(res >= 0), nil
		}

	case b.Op.Arithmetic():
		return evaluateArithmetic(b.Op, left, right)

	case b.Op == ast.OpConcat:
		return sql.NewString(left.Value.(string) + right.Value.(string)), nil
	}
	return sql.Value{}, errors.New("binder: unknown operator " + b.Op.String())
}

func evaluateArithmetic(op ast.BinaryOperator, left sql.Value, right sql.Value) (sql.Value, error) {
	if left.Type == sql.IntType && right.Type == sql.IntType {
		l, r := left.Value.(int64), right.Value.(int64)
		switch op {
		case ast.OpAdd:
			return sql.NewInt(l + r), nil
		case ast.OpSubtract:
			return sql.NewInt(l - r), nil
		case ast.OpMultiply:
			return sql.NewInt(l * r), nil
		case ast.OpDivide:
			if r == 0 {
				return sql.Value{}, errors.New("binder: division by zero")
			}
			return sql.NewInt(l / r), nil
		case ast.OpModulo:
			if r == 0 {
				return sql.Value{}, errors.New("binder: division by zero")
			}
			return sql.NewInt(l % r), nil
		}
	}

	l, r := left.Float(), right.Float()
	switch op {
	case ast.OpAdd:
		return sql.NewFloat(l + r), nil
	case ast.OpSubtract:
		return sql.NewFloat(l - r), nil
	case ast.OpMultiply:
		return sql.NewFloat(l * r), nil
	case ast.OpDivide:
		if r == 0 {
			return sql.Value{}, errors.New("binder: division by zero")
		}
		return sql.NewFloat(l / r), nil
	case ast.OpModulo:
		return sql.Value{}, errors.New("binder: modulo requires integer operands")
	}
	return sql.Value{}, errors.New("binder: unknown arithmetic operator " + op.String())
}

type Unary struct {
	Op       ast.UnaryOperator
	Operand  Expr
	dataType sql.DataType
}

func (u *Unary) DataType() sql.DataType {
	return u.dataType
}

func (u *Unary) Evaluate(row []sql.Value) (sql.Value, error) {
	value, err := u.Operand.Evaluate(row)
	if err != nil {
		return sql.Value{}, err
	}

	switch u.Op {
	case ast.OpIsNull:
		return sql.NewBool(value.IsNull()), nil
	case ast.OpIsNotNull:
		return sql.NewBool(!value.IsNull()), nil
	}

	if value.IsNull() {
		return sql.Null(), nil
	}
	switch u.Op {
	case ast.OpNot:
		return sql.NewBool(!value.Value.(bool)), nil
	case ast.OpNegate:
		if value.Type == sql.IntType {
			return sql.NewInt(-value.Value.(int64)), nil
		}
		return sql.NewFloat(-value.Value.(float64)), nil
	}
	return sql.Value{}, errors.New("binder: unknown operator " + u.Op.String())
}
