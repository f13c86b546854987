package executor

import (
	"errors"
	"fmt"
	"testing"

	"rowdb/parser"
	"rowdb/storage"
)

func setup(t *testing.T) *Executor {
	t.Helper()
	return New(storage.NewCatalog())
}

func exec(t *testing.T, e *Executor, sql string) *Result {
	t.Helper()
	r, err := e.Execute(sql)
	if err != nil {
		t.Fatalf("Execute(%q): %v", sql, err)
	}
	return r
}

// execErr runs sql, expects a *QueryError with the given code, and
// returns it.
func execErr(t *testing.T, e *Executor, sql, code string) *QueryError {
	t.Helper()
	_, err := e.Execute(sql)
	if err == nil {
		t.Fatalf("Execute(%q): expected error %s", sql, code)
	}
	var qe *QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Execute(%q): expected *QueryError, got %T: %v", sql, err, err)
	}
	if qe.Code != code {
		t.Fatalf("Execute(%q): code = %s, want %s (%v)", sql, qe.Code, code, err)
	}
	return qe
}

func execNotice(t *testing.T, e *Executor, sql string, kind NoticeKind) *Result {
	t.Helper()
	r := exec(t, e, sql)
	if r.NoticeKind != kind {
		t.Fatalf("Execute(%q): notice = %s, want %s (%q)", sql, r.NoticeKind, kind, r.Notice)
	}
	if r.Columns != nil || r.Rows != nil {
		t.Fatalf("Execute(%q): notice result carries rows", sql)
	}
	return r
}

// rowStrings renders each result row as "v1|v2|...".
func rowStrings(r *Result) []string {
	out := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		s := ""
		for j, v := range row {
			if j > 0 {
				s += "|"
			}
			s += v.String()
		}
		out[i] = s
	}
	return out
}

func checkRows(t *testing.T, r *Result, want ...string) {
	t.Helper()
	got := rowStrings(r)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("rows = %q, want %q", got, want)
	}
}

// checkWidths verifies every row of table has one value per column.
func checkWidths(t *testing.T, e *Executor, table string) {
	t.Helper()
	err := e.Catalog().View(table, func(tbl *storage.Table) error {
		it := tbl.Scan()
		defer it.Close()
		for i := 0; ; i++ {
			row, ok := it.Next()
			if !ok {
				return nil
			}
			if row.Len() != tbl.ColumnCount() {
				return fmt.Errorf("row %d has %d values, %d columns", i, row.Len(), tbl.ColumnCount())
			}
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

// -------------------------------------------------------------------------
// Full round-trip tests
// -------------------------------------------------------------------------

func TestExecutor_CreateInsertSelect(t *testing.T) {
	e := setup(t)

	r := exec(t, e, "CREATE TABLE t ( a INTEGER, b STRING )")
	if r.Tag != "CREATE TABLE" || r.Message != "t created." {
		t.Errorf("create: tag %q message %q", r.Tag, r.Message)
	}

	r = exec(t, e, "INSERT INTO t ( a, b ) VALUES ( 1, 'x' )")
	if r.Tag != "INSERT 0 1" || r.Message != "1 row inserted." {
		t.Errorf("insert: tag %q message %q", r.Tag, r.Message)
	}

	r = exec(t, e, "SELECT * FROM t")
	if r.Tag != "SELECT 1" {
		t.Errorf("tag = %q, want SELECT 1", r.Tag)
	}
	if len(r.Columns) != 2 || r.Columns[0].Name != "a" || r.Columns[1].Name != "b" {
		t.Fatalf("columns = %+v", r.Columns)
	}
	checkRows(t, r, "1|x")
}

func TestExecutor_FullInsertDeclaredOrder(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE p ( id INTEGER, score FLOAT, name STRING, ok BOOLEAN )")
	exec(t, e, "INSERT INTO p ( ok, name, score, id ) VALUES ( TRUE, 'ann', 2.5, 7 )")

	r := exec(t, e, "SELECT * FROM p")
	checkRows(t, r, "7|2.5|ann|true")
	wantTypes := []storage.DataType{storage.TypeInteger, storage.TypeFloat, storage.TypeString, storage.TypeBoolean}
	for i, dt := range wantTypes {
		if r.Columns[i].Type != dt {
			t.Errorf("column %d type = %s, want %s", i, r.Columns[i].Type, dt)
		}
	}
}

func TestExecutor_PartialInsertDefaults(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE p ( id INTEGER, score FLOAT, name STRING, ok BOOLEAN )")
	exec(t, e, "INSERT INTO p ( id ) VALUES ( 1 )")
	exec(t, e, "INSERT INTO p ( score ) VALUES ( 1.5 )")
	exec(t, e, "INSERT INTO p ( name ) VALUES ( 'n' )")
	exec(t, e, "INSERT INTO p ( ok ) VALUES ( true )")
	exec(t, e, "INSERT INTO p ( ) VALUES ( )")

	r := exec(t, e, "SELECT * FROM p")
	checkRows(t, r,
		"1|0||false",
		"0|1.5||false",
		"0|0|n|false",
		"0|0||true",
		"0|0||false",
	)
}

func TestExecutor_SelectProjection(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER, b STRING, c BOOLEAN )")
	exec(t, e, "INSERT INTO t ( a, b, c ) VALUES ( 1, 'x', true )")
	exec(t, e, "INSERT INTO t ( a, b, c ) VALUES ( 2, 'y', false )")

	r := exec(t, e, "SELECT c, a FROM t;")
	if len(r.Columns) != 2 || r.Columns[0].Name != "c" || r.Columns[1].Name != "a" {
		t.Fatalf("columns = %+v", r.Columns)
	}
	checkRows(t, r, "true|1", "false|2")

	r = exec(t, e, "SELECT a, a FROM t")
	checkRows(t, r, "1|1", "2|2")
}

func TestExecutor_SelectEmptyTable(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	r := exec(t, e, "SELECT * FROM t")
	if r.Tag != "SELECT 0" || len(r.Rows) != 0 || len(r.Columns) != 1 {
		t.Fatalf("got %+v", r)
	}
}

func TestExecutor_BooleanQuirk(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE b ( v BOOLEAN )")
	for _, lit := range []string{"true", "TRUE", "'True'", "1", "yes", "false", "'x'"} {
		exec(t, e, "INSERT INTO b ( v ) VALUES ( "+lit+" )")
	}
	r := exec(t, e, "SELECT v FROM b")
	checkRows(t, r, "true", "true", "true", "false", "false", "false", "false")
}

func TestExecutor_QuotedValues(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE q ( s STRING, n INTEGER )")
	exec(t, e, `INSERT INTO q ( s, n ) VALUES ( 'a, (b) c', '42' )`)
	exec(t, e, `INSERT INTO q ( s, n ) VALUES ( "dq", 1 )`)
	r := exec(t, e, "SELECT * FROM q")
	checkRows(t, r, "a, (b) c|42", `"dq"|1`)
}

// -------------------------------------------------------------------------
// DROP TABLE
// -------------------------------------------------------------------------

func TestExecutor_CreateThenDrop(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	r := exec(t, e, "DROP TABLE t")
	if r.Tag != "DROP TABLE" || r.Message != "Table t dropped." {
		t.Errorf("drop: tag %q message %q", r.Tag, r.Message)
	}

	_, err := e.Catalog().GetTable("t")
	var tnf *storage.TableNotFoundError
	if !errors.As(err, &tnf) {
		t.Fatalf("lookup after drop: expected TableNotFoundError, got %v", err)
	}

	qe := execErr(t, e, "DROP TABLE t", CodeUndefinedTable)
	if !errors.As(qe, &tnf) {
		t.Error("QueryError does not unwrap to TableNotFoundError")
	}
}

// -------------------------------------------------------------------------
// ALTER TABLE
// -------------------------------------------------------------------------

func TestExecutor_AlterAddBackfillsNRows(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE users ( id INTEGER )")
	const n = 6
	for i := 0; i < n; i++ {
		exec(t, e, fmt.Sprintf("INSERT INTO users ( id ) VALUES ( %d )", i))
	}

	r := exec(t, e, "ALTER TABLE users ADD email STRING")
	if r.Tag != "ALTER TABLE" || r.Message != "Column email added successfully." {
		t.Errorf("alter: tag %q message %q", r.Tag, r.Message)
	}
	checkWidths(t, e, "users")

	r = exec(t, e, "SELECT email FROM users")
	if len(r.Rows) != n {
		t.Fatalf("got %d rows, want %d", len(r.Rows), n)
	}
	for i, row := range r.Rows {
		if !row[0].Equal(storage.StringValue("")) {
			t.Errorf("row %d email = %#v", i, row[0])
		}
	}
}

func TestExecutor_AlterAddDefaultsPerType(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( id INTEGER )")
	exec(t, e, "INSERT INTO t ( id ) VALUES ( 1 )")
	exec(t, e, "ALTER TABLE t ADD i INTEGER")
	exec(t, e, "ALTER TABLE t ADD f FLOAT")
	exec(t, e, "ALTER TABLE t ADD s STRING")
	exec(t, e, "ALTER TABLE t ADD b BOOLEAN")
	checkRows(t, exec(t, e, "SELECT * FROM t"), "1|0|0||false")
}

func TestExecutor_AlterDropColumn(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER, b STRING, c BOOLEAN )")
	exec(t, e, "INSERT INTO t ( a, b, c ) VALUES ( 1, 'x', true )")
	exec(t, e, "INSERT INTO t ( a, b, c ) VALUES ( 2, 'y', false )")

	r := exec(t, e, "ALTER TABLE t DROP COLUMN b")
	if r.Message != "Column b dropped successfully." {
		t.Errorf("message = %q", r.Message)
	}
	checkWidths(t, e, "t")

	r = exec(t, e, "SELECT * FROM t")
	if len(r.Columns) != 2 || r.Columns[0].Name != "a" || r.Columns[1].Name != "c" {
		t.Fatalf("columns = %+v", r.Columns)
	}
	checkRows(t, r, "1|true", "2|false")
}

func TestExecutor_AlterSequenceKeepsWidths(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	stmts := []string{
		"INSERT INTO t ( a ) VALUES ( 1 )",
		"ALTER TABLE t ADD b STRING",
		"INSERT INTO t ( b ) VALUES ( 'q' )",
		"ALTER TABLE t ADD c FLOAT",
		"ALTER TABLE t DROP COLUMN a",
		"INSERT INTO t ( c ) VALUES ( 3.25 )",
		"ALTER TABLE t DROP COLUMN c",
		"ALTER TABLE t ADD d BOOLEAN",
	}
	for _, sql := range stmts {
		exec(t, e, sql)
		checkWidths(t, e, "t")
	}
	checkRows(t, exec(t, e, "SELECT * FROM t"), "|false", "q|false", "|false")
}

func TestExecutor_AlterErrors(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")

	execErr(t, e, "ALTER TABLE t ADD a STRING", CodeDuplicateColumn)
	execErr(t, e, "ALTER TABLE t ADD b DATE", CodeUndefinedObject)
	execErr(t, e, "ALTER TABLE t DROP COLUMN zz", CodeUndefinedColumn)
	execErr(t, e, "ALTER TABLE nope ADD b STRING", CodeUndefinedTable)
	execErr(t, e, "ALTER TABLE nope DROP COLUMN a", CodeUndefinedTable)
	execErr(t, e, "ALTER TABLE t ALTER COLUMN a STRING", CodeSyntaxError)
	execErr(t, e, "ALTER TABLE t DROP a", CodeSyntaxError)

	// Table existence is reported before the column and type checks.
	execErr(t, e, "ALTER TABLE nope ADD a DATE", CodeUndefinedTable)
	// Duplicate column is reported before the type check.
	execErr(t, e, "ALTER TABLE t ADD a DATE", CodeDuplicateColumn)
}

// -------------------------------------------------------------------------
// CREATE / INSERT errors
// -------------------------------------------------------------------------

func TestExecutor_CreateErrors(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")

	execErr(t, e, "CREATE TABLE t ( b STRING )", CodeDuplicateTable)
	// An existing table is reported ahead of a bad type.
	execErr(t, e, "CREATE TABLE t ( b VARCHAR )", CodeDuplicateTable)

	qe := execErr(t, e, "CREATE TABLE u ( a INTEGER, b VARCHAR )", CodeUndefinedObject)
	var ute *storage.UnknownTypeError
	if !errors.As(qe, &ute) || ute.Name != "VARCHAR" {
		t.Errorf("expected UnknownTypeError naming VARCHAR, got %v", qe)
	}
	execErr(t, e, "CREATE TABLE u ( a INTEGER, a STRING )", CodeDuplicateColumn)
	execErr(t, e, "CREATE TABLE u ( a INTEGER", CodeSyntaxError)
	execErr(t, e, "CREATE TABLE u a INTEGER", CodeSyntaxError)

	// None of the failed creates registered a table.
	if got := e.Catalog().ListTables(); len(got) != 1 || got[0] != "t" {
		t.Fatalf("tables = %v, want [t]", got)
	}
}

func TestExecutor_CreateTypeKeywordCaseInsensitive(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a integer, b Float, c string, d boolean )")
	def, err := e.Catalog().GetTable("t")
	if err != nil {
		t.Fatal(err)
	}
	if def.Columns[1].DataType != storage.TypeFloat {
		t.Errorf("b type = %s", def.Columns[1].DataType)
	}
	for _, col := range def.Columns {
		if !col.Nullable {
			t.Errorf("column %s not nullable", col.Name)
		}
	}
}

func TestExecutor_InsertErrors(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER, f FLOAT )")

	execErr(t, e, "INSERT INTO nope ( a ) VALUES ( 1 )", CodeUndefinedTable)

	qe := execErr(t, e, "INSERT INTO t ( a, f ) VALUES ( 1 )", CodeSyntaxError)
	var vce *storage.ValueCountError
	if !errors.As(qe, &vce) || vce.Columns != 2 || vce.Values != 1 {
		t.Errorf("expected ValueCountError 2/1, got %v", qe)
	}
	if qe.Message != "column count (2) does not match value count (1)" {
		t.Errorf("message = %q", qe.Message)
	}

	execErr(t, e, "INSERT INTO t ( zz ) VALUES ( 1 )", CodeUndefinedColumn)

	qe = execErr(t, e, "INSERT INTO t ( a ) VALUES ( abc )", CodeInvalidTextRepr)
	var ce *storage.ConversionError
	if !errors.As(qe, &ce) || ce.Literal != "abc" {
		t.Errorf("expected ConversionError for abc, got %v", qe)
	}
	execErr(t, e, "INSERT INTO t ( f ) VALUES ( 'NaN' )", CodeInvalidTextRepr)
	execErr(t, e, "INSERT INTO t ( a ) VALUES 1", CodeSyntaxError)
	execErr(t, e, "INSERT INTO t VALUES ( 1 )", CodeSyntaxError)

	r := exec(t, e, "SELECT * FROM t")
	if len(r.Rows) != 0 {
		t.Fatalf("failed inserts stored %d rows", len(r.Rows))
	}
}

func TestExecutor_TableCheckedBeforeSyntax(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")

	tests := []struct {
		sql  string
		code string
	}{
		{"CREATE TABLE t a INTEGER", CodeDuplicateTable},
		{"CREATE TABLE t ( a INTEGER", CodeDuplicateTable},
		{"INSERT INTO missing a VALUES 1", CodeUndefinedTable},
		{"INSERT INTO missing ( a ) VALUES 1", CodeUndefinedTable},
		{"DROP TABLE missing extra", CodeUndefinedTable},
		{"ALTER TABLE missing RENAME a", CodeUndefinedTable},

		// The table is fine, so the syntax error stands.
		{"CREATE TABLE u a INTEGER", CodeSyntaxError},
		{"INSERT INTO t a VALUES 1", CodeSyntaxError},
		{"DROP TABLE t extra", CodeSyntaxError},
		{"ALTER TABLE t RENAME a", CodeSyntaxError},

		// No table name was read.
		{"INSERT INTO", CodeSyntaxError},
	}
	for _, tt := range tests {
		execErr(t, e, tt.sql, tt.code)
	}
	if got := e.Catalog().ListTables(); len(got) != 1 || got[0] != "t" {
		t.Fatalf("tables = %v, want [t]", got)
	}
}

// -------------------------------------------------------------------------
// Reported outcomes
// -------------------------------------------------------------------------

func TestExecutor_SelectMissingTable(t *testing.T) {
	e := setup(t)
	r := execNotice(t, e, "SELECT name FROM missing_table", NoticeTableNotFound)
	if r.Notice != "Table missing_table does not exist" {
		t.Errorf("notice = %q", r.Notice)
	}
	if r.Tag != "SELECT 0" {
		t.Errorf("tag = %q", r.Tag)
	}
}

func TestExecutor_SelectMissingColumn(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	exec(t, e, "INSERT INTO t ( a ) VALUES ( 1 )")
	r := execNotice(t, e, "SELECT a, nope FROM t", NoticeColumnNotFound)
	if r.Notice != `Column "nope" does not exist` {
		t.Errorf("notice = %q", r.Notice)
	}
}

func TestExecutor_SelectAfterAllColumnsDropped(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	exec(t, e, "INSERT INTO t ( a ) VALUES ( 1 )")
	exec(t, e, "ALTER TABLE t DROP COLUMN a")

	r := execNotice(t, e, "SELECT * FROM t", NoticeInvalidSelect)
	if r.Notice != "No columns specified" {
		t.Errorf("notice = %q", r.Notice)
	}
	if r.Tag != "SELECT 0" {
		t.Errorf("tag = %q", r.Tag)
	}
}

func TestExecutor_Notices(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")

	tests := []struct {
		sql  string
		kind NoticeKind
		msg  string
	}{
		{"", NoticeEmptyQuery, "Empty query"},
		{";", NoticeEmptyQuery, "Empty query"},
		{"FROB t", NoticeUnknownCommand, "Unknown command: FROB"},
		{"SELECT *", NoticeInvalidSelect, "Invalid SELECT statement"},
		{"SELECT a b c", NoticeInvalidSelect, "Invalid SELECT statement: missing FROM clause"},
		{"SELECT * FROM t WHERE a = 1", NoticeUnsupportedWhere, "WHERE clause is not supported"},
	}
	for _, tt := range tests {
		r := execNotice(t, e, tt.sql, tt.kind)
		if r.Notice != tt.msg {
			t.Errorf("Execute(%q) notice = %q, want %q", tt.sql, r.Notice, tt.msg)
		}
	}
}

func TestExecutor_NoticeIsNotError(t *testing.T) {
	e := setup(t)
	r, err := e.Execute("SELECT * FROM nowhere")
	if err != nil {
		t.Fatalf("reported outcome returned an error: %v", err)
	}
	if !r.IsNotice() {
		t.Fatal("IsNotice = false")
	}
	if r2 := exec(t, e, "CREATE TABLE nowhere ( a INTEGER )"); r2.IsNotice() {
		t.Fatal("statement result marked as notice")
	}
}

// -------------------------------------------------------------------------
// Errors and tracing
// -------------------------------------------------------------------------

func TestWrapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{&parser.SyntaxError{Message: "x"}, CodeSyntaxError},
		{&storage.TableExistsError{Name: "t"}, CodeDuplicateTable},
		{&storage.TableNotFoundError{Name: "t"}, CodeUndefinedTable},
		{&storage.ColumnExistsError{Column: "c", Table: "t"}, CodeDuplicateColumn},
		{&storage.ColumnNotFoundError{Column: "c", Table: "t"}, CodeUndefinedColumn},
		{&storage.ValueCountError{Columns: 1, Values: 2}, CodeSyntaxError},
		{&storage.UnknownTypeError{Name: "X"}, CodeUndefinedObject},
		{&storage.ConversionError{Literal: "x", Type: storage.TypeInteger, Err: errors.New("bad")}, CodeInvalidTextRepr},
		{&storage.IndexError{Kind: "row", Index: 3, Len: 1}, CodeArraySubscript},
		{&storage.TypeMismatchError{Column: "c"}, CodeDatatypeMismatch},
		{fmt.Errorf("wrapped: %w", &storage.TableNotFoundError{Name: "t"}), CodeUndefinedTable},
		{errors.New("boom"), CodeInternalError},
	}
	for _, tt := range tests {
		err := WrapError(tt.err)
		var qe *QueryError
		if !errors.As(err, &qe) {
			t.Fatalf("WrapError(%v) = %T", tt.err, err)
		}
		if qe.Code != tt.code {
			t.Errorf("WrapError(%v).Code = %s, want %s", tt.err, qe.Code, tt.code)
		}
		if qe.Message != tt.err.Error() {
			t.Errorf("message = %q, want %q", qe.Message, tt.err.Error())
		}
	}

	if WrapError(nil) != nil {
		t.Error("WrapError(nil) != nil")
	}
	orig := &QueryError{Code: "XX001", Message: "m"}
	if WrapError(orig) != error(orig) {
		t.Error("WrapError rewrapped a QueryError")
	}
}

func TestExecuteTraced(t *testing.T) {
	e := setup(t)
	exec(t, e, "CREATE TABLE t ( a INTEGER )")
	exec(t, e, "INSERT INTO t ( a ) VALUES ( 1 )")
	exec(t, e, "INSERT INTO t ( a ) VALUES ( 2 )")

	r, tr, err := e.ExecuteTraced("SELECT * FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Rows) != 2 {
		t.Fatalf("rows = %d", len(r.Rows))
	}
	if tr.StmtType != "SELECT" || tr.Table != "t" || tr.RowsReturned != 2 {
		t.Errorf("trace = %+v", tr)
	}
	if tr.Total < tr.Parse {
		t.Errorf("total %s < parse %s", tr.Total, tr.Parse)
	}

	_, tr, _ = e.ExecuteTraced("SELECT * FROM nope")
	if tr.Notice != NoticeTableNotFound {
		t.Errorf("trace notice = %s", tr.Notice)
	}
	if s := tr.String(); s == "" {
		t.Error("empty trace line")
	}

	_, tr, err = e.ExecuteTraced("DROP TABLE")
	if err == nil || tr.StmtType != "" {
		t.Errorf("syntax error trace: err=%v stmt=%q", err, tr.StmtType)
	}
}
