package storage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single cell: a tagged union over the four column types.
// Only the field matching Type is meaningful; the others stay at their
// zero values.
type Value struct {
	Type DataType

	I64 int64   // TypeInteger
	F64 float64 // TypeFloat
	S   string  // TypeString
	B   bool    // TypeBoolean
}

func IntValue(v int64) Value     { return Value{Type: TypeInteger, I64: v} }
func FloatValue(v float64) Value { return Value{Type: TypeFloat, F64: v} }
func StringValue(v string) Value { return Value{Type: TypeString, S: v} }
func BoolValue(v bool) Value     { return Value{Type: TypeBoolean, B: v} }

// DefaultValue returns the zero value used to backfill a column of type
// dt: 0, 0.0, "" or false.
func DefaultValue(dt DataType) Value {
	switch dt {
	case TypeInteger:
		return IntValue(0)
	case TypeFloat:
		return FloatValue(0)
	case TypeString:
		return StringValue("")
	case TypeBoolean:
		return BoolValue(false)
	default:
		panic(fmt.Sprintf("storage: no default for data type %d", dt))
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(v.I64, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case TypeString:
		return v.S
	case TypeBoolean:
		if v.B {
			return "true"
		}
		return "false"
	default:
		return "?"
	}
}

// Equal reports whether v and o have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeInteger:
		return v.I64 == o.I64
	case TypeFloat:
		return v.F64 == o.F64
	case TypeString:
		return v.S == o.S
	case TypeBoolean:
		return v.B == o.B
	default:
		return false
	}
}

var errNotFinite = errors.New("value is not a finite number")

// ParseValue converts a literal token to a Value of type dt.
//
// Surrounding single quotes are stripped from every literal before
// conversion. Booleans compare case-insensitively against "true"; any
// other literal is false rather than an error.
func ParseValue(dt DataType, literal string) (Value, error) {
	s := unquote(literal)

	switch dt {
	case TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, &ConversionError{Literal: s, Type: dt, Err: numErr(err)}
		}
		return IntValue(n), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, &ConversionError{Literal: s, Type: dt, Err: numErr(err)}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, &ConversionError{Literal: s, Type: dt, Err: errNotFinite}
		}
		return FloatValue(f), nil

	case TypeString:
		return StringValue(s), nil

	case TypeBoolean:
		return BoolValue(strings.EqualFold(s, "true")), nil

	default:
		return Value{}, &ConversionError{Literal: s, Type: dt, Err: fmt.Errorf("unsupported data type %d", dt)}
	}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

// numErr strips the strconv function name and input echo from err, since
// ConversionError already names the literal.
func numErr(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
