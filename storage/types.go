package storage

import (
	"fmt"
	"strings"
)

// DataType identifies a column's data type.
type DataType uint8

const (
	TypeInteger DataType = iota
	TypeFloat
	TypeString
	TypeBoolean
)

func (d DataType) String() string {
	switch d {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeBoolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType resolves a type keyword (case-insensitive) to a DataType.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToUpper(s) {
	case "INTEGER":
		return TypeInteger, nil
	case "FLOAT":
		return TypeFloat, nil
	case "STRING":
		return TypeString, nil
	case "BOOLEAN":
		return TypeBoolean, nil
	default:
		return 0, &UnknownTypeError{Name: s}
	}
}

// ColumnDef describes a column in a table.
type ColumnDef struct {
	Name     string
	DataType DataType
	Nullable bool // stored for completeness; no operation consults it
}

// TableDef describes the schema of a table. Values returned by the
// catalog are copies; mutating them has no effect on the stored table.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnIndex returns the position of the named column, or -1.
// Names are matched exactly.
func (d *TableDef) ColumnIndex(name string) int {
	for i, col := range d.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Row is a single row of data. Values are in column-definition order and
// there is always exactly one value per column of the owning table.
type Row struct {
	Values []Value
}

// NewRow builds a row from the given values.
func NewRow(values ...Value) Row {
	return Row{Values: values}
}

// Len returns the number of values in the row.
func (r Row) Len() int { return len(r.Values) }

// Value returns the value at position i.
func (r Row) Value(i int) (Value, error) {
	if i < 0 || i >= len(r.Values) {
		return Value{}, &IndexError{Kind: "value", Index: i, Len: len(r.Values)}
	}
	return r.Values[i], nil
}

// clone returns a row that shares no backing array with r.
func (r Row) clone() Row {
	vals := make([]Value, len(r.Values))
	copy(vals, r.Values)
	return Row{Values: vals}
}

// RowIterator streams rows from a scan.
type RowIterator interface {
	Next() (Row, bool)
	Close() error
}

// -------------------------------------------------------------------------
// Typed errors. The executor maps them to SQLSTATE codes.
// -------------------------------------------------------------------------

// TableExistsError is returned when creating a table that already exists.
type TableExistsError struct{ Name string }

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("table %q already exists", e.Name)
}

// TableNotFoundError is returned when referencing a table that does not exist.
type TableNotFoundError struct{ Name string }

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q does not exist", e.Name)
}

// ColumnNotFoundError is returned when referencing a column that does not exist.
type ColumnNotFoundError struct{ Column, Table string }

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q does not exist in table %q", e.Column, e.Table)
}

// ColumnExistsError is returned when adding a column that already exists.
type ColumnExistsError struct {
	Column string
	Table  string
}

func (e *ColumnExistsError) Error() string {
	return fmt.Sprintf("column %q of table %q already exists", e.Column, e.Table)
}

// ValueCountError is returned when the number of values doesn't match
// the number of columns they are meant to fill.
type ValueCountError struct{ Columns, Values int }

func (e *ValueCountError) Error() string {
	return fmt.Sprintf("column count (%d) does not match value count (%d)", e.Columns, e.Values)
}

// UnknownTypeError is returned for a type keyword outside the supported set.
type UnknownTypeError struct{ Name string }

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown column type %q (supported: INTEGER, FLOAT, STRING, BOOLEAN)", e.Name)
}

// ConversionError is returned when a literal cannot be converted to the
// declared type of its target column.
type ConversionError struct {
	Literal string
	Type    DataType
	Err     error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("error converting value %q to %s: %v", e.Literal, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// TypeMismatchError is returned when a typed value is stored in a column
// of a different type.
type TypeMismatchError struct {
	Column   string
	Expected DataType
	Got      DataType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q is of type %s but value is of type %s", e.Column, e.Expected, e.Got)
}

// IndexError is returned for direct positional access outside a table's
// rows or a row's values.
type IndexError struct {
	Kind  string // "row", "column" or "value"
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (length %d)", e.Kind, e.Index, e.Len)
}
