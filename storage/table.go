package storage

// Table holds the schema and row data for a single table. Every row holds
// exactly len(columns) values, value i belonging to column i.
//
// Table does no locking of its own. Tables owned by a Catalog are only
// reachable through Catalog methods, which hold the catalog lock.
type Table struct {
	name    string
	columns []ColumnDef
	rows    []Row
}

// NewTable builds an empty table with the given columns. Column names
// must be unique.
func NewTable(name string, columns []ColumnDef) (*Table, error) {
	t := &Table{name: name, columns: make([]ColumnDef, 0, len(columns))}
	for _, col := range columns {
		if _, err := ParseDataType(col.DataType.String()); err != nil {
			return nil, err
		}
		if t.ColumnIndex(col.Name) >= 0 {
			return nil, &ColumnExistsError{Column: col.Name, Table: name}
		}
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Def returns a copy of the table's schema.
func (t *Table) Def() *TableDef {
	cols := make([]ColumnDef, len(t.columns))
	copy(cols, t.columns)
	return &TableDef{Name: t.name, Columns: cols}
}

// Columns returns a copy of the column list in declared order.
func (t *Table) Columns() []ColumnDef { return t.Def().Columns }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the column definition at position i.
func (t *Table) Column(i int) (ColumnDef, error) {
	if i < 0 || i >= len(t.columns) {
		return ColumnDef{}, &IndexError{Kind: "column", Index: i, Len: len(t.columns)}
	}
	return t.columns[i], nil
}

// AddColumn appends col to the schema and appends the type default to
// every existing row, so positions keep matching.
func (t *Table) AddColumn(col ColumnDef) error {
	if t.ColumnIndex(col.Name) >= 0 {
		return &ColumnExistsError{Column: col.Name, Table: t.name}
	}
	def := DefaultValue(col.DataType)
	t.columns = append(t.columns, col)
	for i := range t.rows {
		t.rows[i].Values = append(t.rows[i].Values, def)
	}
	return nil
}

// DropColumn removes the named column and the value at the same position
// from every row. Remaining columns keep their relative order.
func (t *Table) DropColumn(name string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return &ColumnNotFoundError{Column: name, Table: t.name}
	}

	cols := make([]ColumnDef, 0, len(t.columns)-1)
	cols = append(cols, t.columns[:idx]...)
	cols = append(cols, t.columns[idx+1:]...)
	t.columns = cols

	for i := range t.rows {
		old := t.rows[i].Values
		vals := make([]Value, 0, len(old)-1)
		vals = append(vals, old[:idx]...)
		vals = append(vals, old[idx+1:]...)
		t.rows[i].Values = vals
	}
	return nil
}

// InsertRow appends a full-width row whose value types match the schema.
func (t *Table) InsertRow(row Row) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.rows = append(t.rows, row.clone())
	return nil
}

// Insert maps named columns + literal values to a full row in column
// order. Columns not named get their type default. Nothing is stored
// unless every column resolves and every literal converts.
func (t *Table) Insert(columns []string, literals []string) error {
	if len(columns) != len(literals) {
		return &ValueCountError{Columns: len(columns), Values: len(literals)}
	}

	vals := make([]Value, len(t.columns))
	for i, col := range t.columns {
		vals[i] = DefaultValue(col.DataType)
	}
	for i, name := range columns {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return &ColumnNotFoundError{Column: name, Table: t.name}
		}
		v, err := ParseValue(t.columns[idx].DataType, literals[i])
		if err != nil {
			return err
		}
		vals[idx] = v
	}

	t.rows = append(t.rows, Row{Values: vals})
	return nil
}

// Row returns a copy of the row at position i.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.rows) {
		return Row{}, &IndexError{Kind: "row", Index: i, Len: len(t.rows)}
	}
	return t.rows[i].clone(), nil
}

// UpdateRow replaces the row at position i.
func (t *Table) UpdateRow(i int, row Row) error {
	if i < 0 || i >= len(t.rows) {
		return &IndexError{Kind: "row", Index: i, Len: len(t.rows)}
	}
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.rows[i] = row.clone()
	return nil
}

// UpdateValue replaces a single value, addressed by row and column position.
func (t *Table) UpdateValue(rowIdx, colIdx int, v Value) error {
	if rowIdx < 0 || rowIdx >= len(t.rows) {
		return &IndexError{Kind: "row", Index: rowIdx, Len: len(t.rows)}
	}
	col, err := t.Column(colIdx)
	if err != nil {
		return err
	}
	if v.Type != col.DataType {
		return &TypeMismatchError{Column: col.Name, Expected: col.DataType, Got: v.Type}
	}
	t.rows[rowIdx].Values[colIdx] = v
	return nil
}

// DeleteRow removes the row at position i.
func (t *Table) DeleteRow(i int) error {
	if i < 0 || i >= len(t.rows) {
		return &IndexError{Kind: "row", Index: i, Len: len(t.rows)}
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// Scan returns an iterator over the stored rows in insertion order. The
// rows are not copied: they are only valid while the caller holds
// whatever lock guards the table, and must not be modified.
func (t *Table) Scan() RowIterator {
	return &sliceIterator{rows: t.rows}
}

func (t *Table) checkRow(row Row) error {
	if len(row.Values) != len(t.columns) {
		return &ValueCountError{Columns: len(t.columns), Values: len(row.Values)}
	}
	for i, col := range t.columns {
		if row.Values[i].Type != col.DataType {
			return &TypeMismatchError{Column: col.Name, Expected: col.DataType, Got: row.Values[i].Type}
		}
	}
	return nil
}

// sliceIterator is a RowIterator backed by an in-memory slice.
type sliceIterator struct {
	rows []Row
	pos  int
}

func (it *sliceIterator) Next() (Row, bool) {
	if it.pos >= len(it.rows) {
		return Row{}, false
	}
	row := it.rows[it.pos]
	it.pos++
	return row, true
}

func (it *sliceIterator) Close() error { return nil }
