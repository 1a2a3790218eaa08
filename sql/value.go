package sql

import (
	"encoding/hex"
	"strconv"
)

// DataType is the closed set of scalar kinds a column or expression may
// carry. NullType only ever appears on literals and expression results,
// never on a column definition.
type DataType byte

const (
	NullType      DataType = 0x01
	BoolType      DataType = 0x02
	IntType       DataType = 0x03
	FloatType     DataType = 0x04
	CharType      DataType = 0x05
	VarcharType   DataType = 0x06
	BinaryType    DataType = 0x07
	VarbinaryType DataType = 0x08
)

func (d DataType) String() string {
	switch d {
	case NullType:
		return "NULL"
	case BoolType:
		return "BOOL"
	case IntType:
		return "INT"
	case FloatType:
		return "FLOAT"
	case CharType:
		return "CHAR"
	case VarcharType:
		return "VARCHAR"
	case BinaryType:
		return "BINARY"
	case VarbinaryType:
		return "VARBINARY"
	}
	return ""
}

func (d DataType) Numeric() bool {
	return d == IntType || d == FloatType
}

func (d DataType) Text() bool {
	return d == CharType || d == VarcharType
}

func (d DataType) Binary() bool {
	return d == BinaryType || d == VarbinaryType
}

// Sized reports whether the kind requires an explicit length on a column
// definition. Char and Binary store exactly that many bytes, Varchar and
// Varbinary up to that many.
func (d DataType) Sized() bool {
	return d.Text() || d.Binary()
}

// Variable reports whether the kind is variable-length on disk.
func (d DataType) Variable() bool {
	return d == VarcharType || d == VarbinaryType
}

// SameFamily reports whether two types are comparable: numeric with
// numeric, text with text, binary with binary, bool with bool. Null is
// comparable with everything.
func (d DataType) SameFamily(other DataType) bool {
	if d == NullType || other == NullType {
		return true
	}
	switch {
	case d.Numeric():
		return other.Numeric()
	case d.Text():
		return other.Text()
	case d.Binary():
		return other.Binary()
	}
	return d == other
}

// FixedSize is the on-disk size of a fixed-width kind, or -1 for kinds
// whose size comes from the column's declared length.
func (d DataType) FixedSize() int {
	switch d {
	case BoolType:
		return 1
	case IntType, FloatType:
		return 8
	}
	return -1
}

// StorageSize is the worst-case on-disk size for a value of this kind
// bounded by maxLength. Variable-length kinds carry a 4-byte length prefix.
func (d DataType) StorageSize(maxLength uint32) int {
	if size := d.FixedSize(); size >= 0 {
		return size
	}
	if d.Variable() {
		return 4 + int(maxLength)
	}
	return int(maxLength)
}

// WidenNumeric is the result type of arithmetic over two numeric types,
// following the widening order Int < Float.
func WidenNumeric(a DataType, b DataType) DataType {
	if a == FloatType || b == FloatType {
		return FloatType
	}
	return IntType
}

// Value is a tagged scalar. Int values hold int64, Float float64, Bool
// bool, text kinds string, binary kinds []byte, Null nil.
type Value struct {
	Type  DataType
	Value any
}

func Null() Value              { return Value{Type: NullType} }
func NewBool(v bool) Value     { return Value{Type: BoolType, Value: v} }
func NewInt(v int64) Value     { return Value{Type: IntType, Value: v} }
func NewFloat(v float64) Value { return Value{Type: FloatType, Value: v} }
func NewString(v string) Value { return Value{Type: VarcharType, Value: v} }
func NewBytes(v []byte) Value  { return Value{Type: VarbinaryType, Value: v} }

func (v Value) IsNull() bool {
	return v.Type == NullType
}

// Length is the byte length of a text or binary value, -1 for other kinds.
func (v Value) Length() int {
	switch v.Type {
	case CharType, VarcharType:
		return len(v.Value.(string))
	case BinaryType, VarbinaryType:
		return len(v.Value.([]byte))
	}
	return -1
}

// Float returns the numeric value widened to float64.
func (v Value) Float() float64 {
	if v.Type == IntType {
		return float64(v.Value.(int64))
	}
	return v.Value.(float64)
}

func (v Value) String() string {
	switch v.Type {
	case NullType:
		return "NULL"
	case BoolType:
		if v.Value.(bool) {
			return "TRUE"
		}
		return "FALSE"
	case IntType:
		return strconv.FormatInt(v.Value.(int64), 10)
	case FloatType:
		return strconv.FormatFloat(v.Value.(float64), 'g', -1, 64)
	case CharType, VarcharType:
		return v.Value.(string)
	case BinaryType, VarbinaryType:
		return "0x" + hex.EncodeToString(v.Value.([]byte))
	}
	return ""
}

// Compare orders two values, nulls first. The second return is false when
// the values belong to different families and have no defined order.
func (v Value) Compare(other Value) (int, bool) {
	if v.Type == NullType && other.Type == NullType {
		return 0, true
	}
	if v.Type == NullType {
		return -1, true
	}
	if other.Type == NullType {
		return 1, true
	}
	if !v.Type.SameFamily(other.Type) {
		return 0, false
	}
	switch {
	case v.Type == BoolType:
		a, b := v.Value.(bool), other.Value.(bool)
		if a == b {
			return 0, true
		}
		if !a {
			return -1, true
		}
		return 1, true
	case v.Type.Numeric():
		a, b := v.Float(), other.Float()
		if a == b {
			return 0, true
		}
		if a < b {
			return -1, true
		}
		return 1, true
	case v.Type.Text():
		a, b := v.Value.(string), other.Value.(string)
		if a == b {
			return 0, true
		}
		if a < b {
			return -1, true
		}
		return 1, true
	case v.Type.Binary():
		return compareBytes(v.Value.([]byte), other.Value.([]byte)), true
	}
	return 0, false
}

func compareBytes(a []byte, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Equal reports value equality across the numeric family, so 1 = 1.0.
func Equal(a Value, b Value) bool {
	res, ok := a.Compare(b)
	return ok && res == 0
}
