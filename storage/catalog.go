package storage

import (
	"sort"
	"sync"
)

// Catalog maps table names to tables. It is safe for concurrent use:
// schema changes and inserts hold the write lock for the whole operation,
// so a reader never observes a row whose width differs from the column
// count.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// CreateTable validates the full column list and registers a new empty
// table. Nothing is registered if any column is rejected.
func (c *Catalog) CreateTable(name string, columns []ColumnDef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; exists {
		return &TableExistsError{Name: name}
	}
	t, err := NewTable(name, columns)
	if err != nil {
		return err
	}
	c.tables[name] = t
	return nil
}

// DropTable removes a table and all of its rows.
func (c *Catalog) DropTable(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tables[name]; !exists {
		return &TableNotFoundError{Name: name}
	}
	delete(c.tables, name)
	return nil
}

// GetTable returns a copy of the named table's schema.
func (c *Catalog) GetTable(name string) (*TableDef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[name]
	if !ok {
		return nil, &TableNotFoundError{Name: name}
	}
	return t.Def(), nil
}

// ListTables returns all table names in ascending order.
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddColumn appends a column to the named table and backfills every
// existing row with the column type's default.
func (c *Catalog) AddColumn(table string, col ColumnDef) error {
	return c.Update(table, func(t *Table) error {
		return t.AddColumn(col)
	})
}

// DropColumn removes a column from the named table along with its value
// in every row.
func (c *Catalog) DropColumn(table, column string) error {
	return c.Update(table, func(t *Table) error {
		return t.DropColumn(column)
	})
}

// Insert converts literals to the types of the named columns and appends
// one row. Columns not named get their type default.
func (c *Catalog) Insert(table string, columns, literals []string) error {
	return c.Update(table, func(t *Table) error {
		return t.Insert(columns, literals)
	})
}

// InsertRow appends an already typed full-width row.
func (c *Catalog) InsertRow(table string, row Row) error {
	return c.Update(table, func(t *Table) error {
		return t.InsertRow(row)
	})
}

// View calls fn with the named table while holding the read lock. The
// table must not be retained or modified after fn returns.
func (c *Catalog) View(name string, fn func(*Table) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[name]
	if !ok {
		return &TableNotFoundError{Name: name}
	}
	return fn(t)
}

// Update calls fn with the named table while holding the write lock.
func (c *Catalog) Update(name string, fn func(*Table) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tables[name]
	if !ok {
		return &TableNotFoundError{Name: name}
	}
	return fn(t)
}

// TableSnapshot is a detached copy of one table, used by the snapshot
// codecs.
type TableSnapshot struct {
	Name    string
	Columns []ColumnDef
	Rows    []Row
}

// Snapshot returns a deep copy of every table, sorted by name.
func (c *Catalog) Snapshot() []TableSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	snaps := make([]TableSnapshot, 0, len(names))
	for _, name := range names {
		t := c.tables[name]
		rows := make([]Row, len(t.rows))
		for i, r := range t.rows {
			rows[i] = r.clone()
		}
		snaps = append(snaps, TableSnapshot{Name: name, Columns: t.Columns(), Rows: rows})
	}
	return snaps
}

// Restore replaces the catalog contents with snaps. Every snapshot is
// validated before anything is swapped in, so a bad snapshot leaves the
// catalog unchanged.
func (c *Catalog) Restore(snaps []TableSnapshot) error {
	tables := make(map[string]*Table, len(snaps))
	for _, s := range snaps {
		if _, dup := tables[s.Name]; dup {
			return &TableExistsError{Name: s.Name}
		}
		t, err := NewTable(s.Name, s.Columns)
		if err != nil {
			return err
		}
		for _, r := range s.Rows {
			if err := t.InsertRow(r); err != nil {
				return err
			}
		}
		tables[s.Name] = t
	}

	c.mu.Lock()
	c.tables = tables
	c.mu.Unlock()
	return nil
}
