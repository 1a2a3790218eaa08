package ast

import "beetdb/sql"

type Expression interface {
	expression()
}

// Field is a column reference, optionally qualified with a table name.
type Field struct {
	Table  string
	Column string
}

func (f *Field) expression() {}

type Literal struct {
	Value sql.Value
}

func (l *Literal) expression() {}

type BinaryOperator byte

const (
	OpAnd BinaryOperator = iota + 1
	OpOr
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpConcat
)

func (o BinaryOperator) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulo:
		return "%"
	case OpConcat:
		return "||"
	}
	return ""
}

// Comparison reports whether the operator compares its operands and yields
// a boolean.
func (o BinaryOperator) Comparison() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		return true
	}
	return false
}

// Arithmetic reports whether the operator requires numeric operands.
func (o BinaryOperator) Arithmetic() bool {
	switch o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpModulo:
		return true
	}
	return false
}

// Logical reports whether the operator requires boolean operands.
func (o BinaryOperator) Logical() bool {
	return o == OpAnd || o == OpOr
}

type BinaryExpr struct {
	Op BinaryOperator
	L  Expression
	R  Expression
}

func (b *BinaryExpr) expression() {}

type UnaryOperator byte

const (
	OpNot UnaryOperator = iota + 1
	OpNegate
	OpIsNull
	OpIsNotNull
)

func (o UnaryOperator) String() string {
	switch o {
	case OpNot:
		return "NOT"
	case OpNegate:
		return "-"
	case OpIsNull:
		return "IS NULL"
	case OpIsNotNull:
		return "IS NOT NULL"
	}
	return ""
}

type UnaryExpr struct {
	Op      UnaryOperator
	Operand Expression
}

func (u *UnaryExpr) expression() {}
