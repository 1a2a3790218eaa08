package binder

import (
	"fmt"

	"beetdb/sql"
)

// Binding failures carry the offending names and types so callers can
// render a precise message without re-resolving anything.

type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return "binder: unknown table " + e.Table
}

type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return "binder: unknown column " + e.Column + " in table " + e.Table
}

type TypeMismatchError struct {
	Operator string
	Left     sql.DataType
	Right    sql.DataType
	// Column is set when the mismatch is a value bound against a column.
	Column string
}

func (e *TypeMismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("binder: cannot %s %s value to %s column %s", e.Operator, e.Left, e.Right, e.Column)
	}
	return fmt.Sprintf("binder: operator %s cannot be applied to %s and %s", e.Operator, e.Left, e.Right)
}

type ArityMismatchError struct {
	Table string
	Want  int
	Got   int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("binder: insert into %s expects %d values, got %d", e.Table, e.Want, e.Got)
}

type NullConstraintError struct {
	Table  string
	Column string
}

func (e *NullConstraintError) Error() string {
	return "binder: NULL value not allowed for column " + e.Column + " in table " + e.Table
}

type LengthConstraintError struct {
	Table  string
	Column string
	Limit  uint32
	Length int
}

func (e *LengthConstraintError) Error() string {
	return fmt.Sprintf("binder: value of length %d exceeds limit %d for column %s in table %s",
		e.Length, e.Limit, e.Column, e.Table)
}

type RowTooLargeError struct {
	Table string
	Size  int
	Limit int
}

func (e *RowTooLargeError) Error() string {
	return fmt.Sprintf("binder: worst-case row size %d for table %s exceeds page payload %d",
		e.Size, e.Table, e.Limit)
}
