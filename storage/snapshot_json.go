package storage

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// JSON snapshot layout:
//
//	{"version":1,"tables":[{"name":"t","columns":[{"name":"a","type":"INTEGER","nullable":true}],"rows":[[1]]}]}
//
// Each row is an array of JSON scalars, one per column, decoded against
// the column's declared type.
type jsonSnapshot struct {
	Version int         `json:"version"`
	Tables  []jsonTable `json:"tables"`
}

type jsonTable struct {
	Name    string              `json:"name"`
	Columns []jsonColumn        `json:"columns"`
	Rows    [][]json.RawMessage `json:"rows"`
}

type jsonColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

func writeJSONSnapshot(w io.Writer, snaps []TableSnapshot) error {
	doc := jsonSnapshot{Version: snapshotCurrentVersion, Tables: make([]jsonTable, 0, len(snaps))}
	for _, s := range snaps {
		jt := jsonTable{
			Name:    s.Name,
			Columns: make([]jsonColumn, len(s.Columns)),
			Rows:    make([][]json.RawMessage, len(s.Rows)),
		}
		for i, col := range s.Columns {
			jt.Columns[i] = jsonColumn{Name: col.Name, Type: col.DataType.String(), Nullable: col.Nullable}
		}
		for i, row := range s.Rows {
			cells := make([]json.RawMessage, len(row.Values))
			for j, v := range row.Values {
				raw, err := marshalJSONValue(v)
				if err != nil {
					return fmt.Errorf("table %q row %d: %w", s.Name, i, err)
				}
				cells[j] = raw
			}
			jt.Rows[i] = cells
		}
		doc.Tables = append(doc.Tables, jt)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json snapshot: %w", err)
	}
	return nil
}

func marshalJSONValue(v Value) (json.RawMessage, error) {
	switch v.Type {
	case TypeInteger:
		return json.Marshal(v.I64)
	case TypeFloat:
		return json.Marshal(v.F64)
	case TypeString:
		return json.Marshal(v.S)
	case TypeBoolean:
		return json.Marshal(v.B)
	default:
		return nil, fmt.Errorf("cannot encode value of data type %d", v.Type)
	}
}

func readJSONSnapshot(r io.Reader) ([]TableSnapshot, error) {
	var doc jsonSnapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json snapshot: %w", err)
	}
	if doc.Version > snapshotCurrentVersion {
		return nil, &SnapshotVersionError{Version: uint16(doc.Version), Supported: snapshotCurrentVersion}
	}

	snaps := make([]TableSnapshot, 0, len(doc.Tables))
	for _, jt := range doc.Tables {
		s := TableSnapshot{
			Name:    jt.Name,
			Columns: make([]ColumnDef, len(jt.Columns)),
			Rows:    make([]Row, len(jt.Rows)),
		}
		for i, jc := range jt.Columns {
			dt, err := ParseDataType(jc.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q: %w", jt.Name, err)
			}
			s.Columns[i] = ColumnDef{Name: jc.Name, DataType: dt, Nullable: jc.Nullable}
		}
		for i, cells := range jt.Rows {
			if len(cells) != len(s.Columns) {
				return nil, fmt.Errorf("table %q row %d: %w", jt.Name, i,
					&ValueCountError{Columns: len(s.Columns), Values: len(cells)})
			}
			vals := make([]Value, len(cells))
			for j, raw := range cells {
				v, err := unmarshalJSONValue(s.Columns[j].DataType, raw)
				if err != nil {
					return nil, fmt.Errorf("table %q row %d column %q: %w", jt.Name, i, s.Columns[j].Name, err)
				}
				vals[j] = v
			}
			s.Rows[i] = Row{Values: vals}
		}
		snaps = append(snaps, s)
	}
	return snaps, nil
}

func unmarshalJSONValue(dt DataType, raw json.RawMessage) (Value, error) {
	switch dt {
	case TypeInteger:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case TypeFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	default:
		return Value{}, fmt.Errorf("unsupported data type %d", dt)
	}
}
