package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Value encoding: 1-byte type tag followed by type-specific data.
//
//	tagInteger (1): 8 bytes int64 big-endian
//	tagFloat   (2): 8 bytes IEEE 754 bits big-endian
//	tagString  (3): uint32 length + bytes
//	tagBoolean (4): 1 byte (0=false, 1=true)
const (
	tagInteger byte = 1
	tagFloat   byte = 2
	tagString  byte = 3
	tagBoolean byte = 4
)

// encodeValue appends the binary encoding of v to buf.
func encodeValue(buf []byte, v Value) ([]byte, error) {
	switch v.Type {
	case TypeInteger:
		buf = append(buf, tagInteger)
		return binary.BigEndian.AppendUint64(buf, uint64(v.I64)), nil
	case TypeFloat:
		buf = append(buf, tagFloat)
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(v.F64)), nil
	case TypeString:
		buf = append(buf, tagString)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.S)))
		return append(buf, v.S...), nil
	case TypeBoolean:
		buf = append(buf, tagBoolean)
		if v.B {
			return append(buf, 1), nil
		}
		return append(buf, 0), nil
	default:
		return nil, fmt.Errorf("cannot encode value of data type %d", v.Type)
	}
}

// decodeValue reads one value from data, returning the value and the
// remaining bytes.
func decodeValue(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		return Value{}, nil, fmt.Errorf("empty value data")
	}
	tag := data[0]
	data = data[1:]

	switch tag {
	case tagInteger:
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("truncated integer value")
		}
		return IntValue(int64(binary.BigEndian.Uint64(data[:8]))), data[8:], nil
	case tagFloat:
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("truncated float value")
		}
		return FloatValue(math.Float64frombits(binary.BigEndian.Uint64(data[:8]))), data[8:], nil
	case tagString:
		if len(data) < 4 {
			return Value{}, nil, fmt.Errorf("truncated string length")
		}
		n := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return Value{}, nil, fmt.Errorf("truncated string value")
		}
		return StringValue(string(data[:n])), data[n:], nil
	case tagBoolean:
		if len(data) < 1 {
			return Value{}, nil, fmt.Errorf("truncated boolean value")
		}
		return BoolValue(data[0] != 0), data[1:], nil
	default:
		return Value{}, nil, fmt.Errorf("unknown value tag %d", tag)
	}
}

// encodeRow appends a uint16 count followed by each encoded value.
func encodeRow(buf []byte, row Row) ([]byte, error) {
	if len(row.Values) > math.MaxUint16 {
		return nil, fmt.Errorf("row has too many values: %d", len(row.Values))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(row.Values)))
	for i, v := range row.Values {
		var err error
		if buf, err = encodeValue(buf, v); err != nil {
			return nil, fmt.Errorf("value[%d]: %w", i, err)
		}
	}
	return buf, nil
}

// decodeRow reads a uint16 count and that many values from data.
func decodeRow(data []byte) (Row, []byte, error) {
	if len(data) < 2 {
		return Row{}, nil, fmt.Errorf("truncated value count")
	}
	count := binary.BigEndian.Uint16(data[:2])
	data = data[2:]

	values := make([]Value, count)
	for i := range values {
		var err error
		values[i], data, err = decodeValue(data)
		if err != nil {
			return Row{}, nil, fmt.Errorf("value[%d]: %w", i, err)
		}
	}
	return Row{Values: values}, data, nil
}

// encodeString appends a uint16-length-prefixed string.
func encodeString(buf []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, fmt.Errorf("name too long: %d bytes", len(s))
	}
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...), nil
}

// decodeString reads a uint16-length-prefixed string.
func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, fmt.Errorf("truncated string length")
	}
	n := binary.BigEndian.Uint16(data[:2])
	data = data[2:]
	if len(data) < int(n) {
		return "", nil, fmt.Errorf("truncated string data")
	}
	return string(data[:n]), data[n:], nil
}
