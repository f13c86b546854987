package executor

import (
	"errors"
	"fmt"
	"time"

	"rowdb/parser"
	"rowdb/storage"
)

// Executor parses a command line and runs it against a catalog,
// returning a Result for the shell or the wire protocol.
type Executor struct {
	catalog *storage.Catalog
}

// New creates an Executor backed by the given catalog.
func New(catalog *storage.Catalog) *Executor {
	return &Executor{catalog: catalog}
}

// Catalog returns the catalog the executor runs against.
func (e *Executor) Catalog() *storage.Catalog { return e.catalog }

// Execute runs a single statement (no tracing overhead). Failures are
// returned as *QueryError; reported outcomes come back as a Result with
// NoticeKind set.
func (e *Executor) Execute(sql string) (*Result, error) {
	return e.execute(sql, nil)
}

// ExecuteTraced runs a single statement with timing instrumentation.
func (e *Executor) ExecuteTraced(sql string) (*Result, *Trace, error) {
	tr := &Trace{}
	start := time.Now()
	result, err := e.execute(sql, tr)
	tr.Total = time.Since(start)
	if result != nil {
		tr.RowsReturned = int64(len(result.Rows))
		tr.Notice = result.NoticeKind
	}
	return result, tr, err
}

func (e *Executor) execute(sql string, tr *Trace) (*Result, error) {
	var parseStart time.Time
	if tr != nil {
		parseStart = time.Now()
	}

	stmt, err := parser.Parse(sql)

	if tr != nil {
		tr.Parse = time.Since(parseStart)
	}
	if err != nil {
		return nil, WrapError(e.tableErrorFirst(err))
	}

	var execStart time.Time
	if tr != nil {
		execStart = time.Now()
		defer func() { tr.Exec = time.Since(execStart) }()
	}

	switch s := stmt.(type) {
	case *parser.Notice:
		return noticeResult(s), nil
	case *parser.CreateTableStmt:
		if tr != nil {
			tr.StmtType = "CREATE TABLE"
			tr.Table = s.Name
		}
		return e.execCreateTable(s)
	case *parser.DropTableStmt:
		if tr != nil {
			tr.StmtType = "DROP TABLE"
			tr.Table = s.Name
		}
		return e.execDropTable(s)
	case *parser.AlterTableAddColumnStmt:
		if tr != nil {
			tr.StmtType = "ALTER TABLE"
			tr.Table = s.Table
		}
		return e.execAlterTableAddColumn(s)
	case *parser.AlterTableDropColumnStmt:
		if tr != nil {
			tr.StmtType = "ALTER TABLE"
			tr.Table = s.Table
		}
		return e.execAlterTableDropColumn(s)
	case *parser.InsertStmt:
		if tr != nil {
			tr.StmtType = "INSERT"
			tr.Table = s.Table
		}
		return e.execInsert(s)
	case *parser.SelectStmt:
		if tr != nil {
			tr.StmtType = "SELECT"
			tr.Table = s.Table
		}
		return e.execSelect(s)
	default:
		return nil, &QueryError{Code: CodeSyntaxError, Message: fmt.Sprintf("unsupported statement type %T", stmt)}
	}
}

// tableErrorFirst replaces a syntax error that follows the target table
// name with the table's catalog problem, if it has one: an existing table
// for CREATE TABLE, a missing table for the other commands.
func (e *Executor) tableErrorFirst(err error) error {
	var se *parser.SyntaxError
	if !errors.As(err, &se) || se.Table == "" {
		return err
	}
	_, lookupErr := e.catalog.GetTable(se.Table)
	exists := lookupErr == nil
	switch {
	case se.Command == "CREATE TABLE" && exists:
		return &storage.TableExistsError{Name: se.Table}
	case se.Command != "CREATE TABLE" && !exists:
		return &storage.TableNotFoundError{Name: se.Table}
	}
	return err
}

func noticeResult(n *parser.Notice) *Result {
	r := &Result{Notice: n.Message}
	switch n.Kind {
	case parser.NoticeEmptyQuery:
		r.NoticeKind = NoticeEmptyQuery
	case parser.NoticeUnknownCommand:
		r.NoticeKind = NoticeUnknownCommand
	case parser.NoticeInvalidSelect:
		r.NoticeKind = NoticeInvalidSelect
		r.Tag = "SELECT 0"
	case parser.NoticeUnsupportedWhere:
		r.NoticeKind = NoticeUnsupportedWhere
		r.Tag = "SELECT 0"
	default:
		r.NoticeKind = NoticeUnknownCommand
	}
	return r
}

// -------------------------------------------------------------------------
// Statement executors
// -------------------------------------------------------------------------

func (e *Executor) execCreateTable(s *parser.CreateTableStmt) (*Result, error) {
	// Report an existing table ahead of problems in the column list.
	// CreateTable checks again under the catalog lock.
	if _, err := e.catalog.GetTable(s.Name); err == nil {
		return nil, WrapError(&storage.TableExistsError{Name: s.Name})
	}

	cols := make([]storage.ColumnDef, len(s.Columns))
	for i, c := range s.Columns {
		dt, err := storage.ParseDataType(c.DataType)
		if err != nil {
			return nil, WrapError(err)
		}
		cols[i] = storage.ColumnDef{Name: c.Name, DataType: dt, Nullable: true}
	}

	if err := e.catalog.CreateTable(s.Name, cols); err != nil {
		return nil, WrapError(err)
	}
	return &Result{Tag: "CREATE TABLE", Message: s.Name + " created."}, nil
}

func (e *Executor) execDropTable(s *parser.DropTableStmt) (*Result, error) {
	if err := e.catalog.DropTable(s.Name); err != nil {
		return nil, WrapError(err)
	}
	return &Result{Tag: "DROP TABLE", Message: "Table " + s.Name + " dropped."}, nil
}

func (e *Executor) execAlterTableAddColumn(s *parser.AlterTableAddColumnStmt) (*Result, error) {
	err := e.catalog.Update(s.Table, func(t *storage.Table) error {
		if t.ColumnIndex(s.Column.Name) >= 0 {
			return &storage.ColumnExistsError{Column: s.Column.Name, Table: s.Table}
		}
		dt, err := storage.ParseDataType(s.Column.DataType)
		if err != nil {
			return err
		}
		return t.AddColumn(storage.ColumnDef{Name: s.Column.Name, DataType: dt, Nullable: true})
	})
	if err != nil {
		return nil, WrapError(err)
	}
	return &Result{Tag: "ALTER TABLE", Message: "Column " + s.Column.Name + " added successfully."}, nil
}

func (e *Executor) execAlterTableDropColumn(s *parser.AlterTableDropColumnStmt) (*Result, error) {
	if err := e.catalog.DropColumn(s.Table, s.Column); err != nil {
		return nil, WrapError(err)
	}
	return &Result{Tag: "ALTER TABLE", Message: "Column " + s.Column + " dropped successfully."}, nil
}

func (e *Executor) execInsert(s *parser.InsertStmt) (*Result, error) {
	if err := e.catalog.Insert(s.Table, s.Columns, s.Values); err != nil {
		return nil, WrapError(err)
	}
	return &Result{Tag: "INSERT 0 1", Message: "1 row inserted."}, nil
}

func (e *Executor) execSelect(s *parser.SelectStmt) (*Result, error) {
	var result *Result
	err := e.catalog.View(s.Table, func(t *storage.Table) error {
		// Resolve the projection to column positions.
		var idx []int
		if s.Star {
			idx = make([]int, t.ColumnCount())
			for i := range idx {
				idx[i] = i
			}
		} else {
			idx = make([]int, len(s.Columns))
			for i, name := range s.Columns {
				pos := t.ColumnIndex(name)
				if pos < 0 {
					result = &Result{
						Tag:        "SELECT 0",
						Notice:     fmt.Sprintf("Column %q does not exist", name),
						NoticeKind: NoticeColumnNotFound,
					}
					return nil
				}
				idx[i] = pos
			}
		}
		if len(idx) == 0 {
			// Every column has been dropped.
			result = &Result{
				Tag:        "SELECT 0",
				Notice:     "No columns specified",
				NoticeKind: NoticeInvalidSelect,
			}
			return nil
		}

		cols := make([]Column, len(idx))
		for i, pos := range idx {
			def, err := t.Column(pos)
			if err != nil {
				return err
			}
			cols[i] = Column{Name: def.Name, Type: def.DataType}
		}

		rows := make([][]storage.Value, 0, t.RowCount())
		it := t.Scan()
		defer it.Close()
		for {
			row, ok := it.Next()
			if !ok {
				break
			}
			out := make([]storage.Value, len(idx))
			for i, pos := range idx {
				out[i] = row.Values[pos]
			}
			rows = append(rows, out)
		}

		result = &Result{Columns: cols, Rows: rows, Tag: fmt.Sprintf("SELECT %d", len(rows))}
		return nil
	})

	var tnf *storage.TableNotFoundError
	if errors.As(err, &tnf) {
		return &Result{
			Tag:        "SELECT 0",
			Notice:     "Table " + s.Table + " does not exist",
			NoticeKind: NoticeTableNotFound,
		}, nil
	}
	if err != nil {
		return nil, WrapError(err)
	}
	return result, nil
}
