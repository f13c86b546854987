package storage

import (
	"fmt"
	"sort"
	"unsafe"
)

// TableMemory is an estimate of the heap memory held by one table.
type TableMemory struct {
	Table      string
	Rows       int
	SchemaSize int64 // column definitions
	RowSize    int64 // row slices, values and string payloads
}

// Total returns SchemaSize + RowSize.
func (m TableMemory) Total() int64 { return m.SchemaSize + m.RowSize }

var (
	tableSize  = int64(unsafe.Sizeof(Table{}))
	columnSize = int64(unsafe.Sizeof(ColumnDef{}))
	rowSize    = int64(unsafe.Sizeof(Row{}))
	valueSize  = int64(unsafe.Sizeof(Value{}))
)

// MemoryUsage estimates the memory held by the table. Slices count their
// capacity, not their length; strings count their bytes.
func (t *Table) MemoryUsage() TableMemory {
	m := TableMemory{Table: t.name, Rows: len(t.rows)}

	m.SchemaSize = tableSize + int64(len(t.name)) + int64(cap(t.columns))*columnSize
	for _, c := range t.columns {
		m.SchemaSize += int64(len(c.Name))
	}

	m.RowSize = int64(cap(t.rows)) * rowSize
	for _, r := range t.rows {
		m.RowSize += int64(cap(r.Values)) * valueSize
		for _, v := range r.Values {
			if v.Type == TypeString {
				m.RowSize += int64(len(v.S))
			}
		}
	}
	return m
}

// MemoryUsage returns an estimate per table, sorted by table name.
func (c *Catalog) MemoryUsage() []TableMemory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TableMemory, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t.MemoryUsage())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// HumanBytes formats a byte count with a binary unit suffix.
func HumanBytes(b int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
