package parser

// Statement is the interface implemented by all statement AST nodes.
// The unexported marker method restricts implementations to this package.
type Statement interface {
	statementNode()
}

// ColumnDef describes a column in CREATE TABLE or ALTER TABLE ADD. The type
// keyword is kept as written; the executor resolves it.
type ColumnDef struct {
	Name     string
	DataType string
}

// CreateTableStmt: CREATE TABLE <name> ( <col> <type> [, <col> <type>]* )
type CreateTableStmt struct {
	Name    string
	Columns []ColumnDef
}

// DropTableStmt: DROP TABLE <name>
type DropTableStmt struct {
	Name string
}

// AlterTableAddColumnStmt: ALTER TABLE <table> ADD <col> <type>
type AlterTableAddColumnStmt struct {
	Table  string
	Column ColumnDef
}

// AlterTableDropColumnStmt: ALTER TABLE <table> DROP COLUMN <col>
type AlterTableDropColumnStmt struct {
	Table  string
	Column string
}

// InsertStmt: INSERT [INTO] <table> ( <cols> ) VALUES ( <literals> )
// Values holds the literal tokens as written, quotes included.
type InsertStmt struct {
	Table   string
	Columns []string
	Values  []string
}

// SelectStmt: SELECT <* | col [, col]*> FROM <table>
type SelectStmt struct {
	Table   string
	Star    bool
	Columns []string // nil when Star
}

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeEmptyQuery NoticeKind = iota + 1
	NoticeUnknownCommand
	NoticeInvalidSelect
	NoticeUnsupportedWhere
)

// Notice is produced for input that is reported back to the user rather
// than rejected with an error: an empty line, an unknown command, a
// malformed SELECT, or a SELECT with a WHERE clause.
type Notice struct {
	Kind    NoticeKind
	Message string
}

func (*CreateTableStmt) statementNode()          {}
func (*DropTableStmt) statementNode()            {}
func (*AlterTableAddColumnStmt) statementNode()  {}
func (*AlterTableDropColumnStmt) statementNode() {}
func (*InsertStmt) statementNode()               {}
func (*SelectStmt) statementNode()               {}
func (*Notice) statementNode()                   {}
