package executor

import "rowdb/storage"

// Column describes a column in a query result.
type Column struct {
	Name string
	Type storage.DataType
}

// TypeOID returns the PostgreSQL type OID used to describe the column on
// the wire.
func (c Column) TypeOID() int32 {
	switch c.Type {
	case storage.TypeInteger:
		return OIDInt8
	case storage.TypeFloat:
		return OIDFloat8
	case storage.TypeBoolean:
		return OIDBool
	default:
		return OIDText
	}
}

// TypeSize returns the PostgreSQL type size in bytes (-1 for variable length).
func (c Column) TypeSize() int16 {
	switch c.Type {
	case storage.TypeInteger, storage.TypeFloat:
		return 8
	case storage.TypeBoolean:
		return 1
	default:
		return -1
	}
}

// PostgreSQL type OIDs for the four supported types.
const (
	OIDInt8   int32 = 20  // INT8 / BIGINT
	OIDFloat8 int32 = 701 // FLOAT8 / DOUBLE PRECISION
	OIDText   int32 = 25  // TEXT
	OIDBool   int32 = 16  // BOOLEAN
)

// NoticeKind classifies a reported outcome.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeEmptyQuery
	NoticeUnknownCommand
	NoticeInvalidSelect
	NoticeUnsupportedWhere
	NoticeTableNotFound
	NoticeColumnNotFound
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeNone:
		return "none"
	case NoticeEmptyQuery:
		return "empty query"
	case NoticeUnknownCommand:
		return "unknown command"
	case NoticeInvalidSelect:
		return "invalid select"
	case NoticeUnsupportedWhere:
		return "unsupported where"
	case NoticeTableNotFound:
		return "table not found"
	case NoticeColumnNotFound:
		return "column not found"
	default:
		return "unknown"
	}
}

// Result is the outcome of executing a single statement that did not
// fail. Exactly one of these holds:
//   - Notice is set: the input was reported back without effect;
//   - Columns is set: a SELECT result;
//   - otherwise a statement ran and Message confirms it.
type Result struct {
	// Columns is set for SELECT results. nil for non-SELECT.
	Columns []Column

	// Rows holds the projected values for SELECT, one slice per row in
	// the order of Columns.
	Rows [][]storage.Value

	// Tag is the CommandComplete tag, e.g. "SELECT 2", "INSERT 0 1".
	// Empty for notices that did not run a statement.
	Tag string

	// Message is the confirmation line for statements that ran, such as
	// "1 row inserted.".
	Message string

	// Notice and NoticeKind describe a reported outcome.
	Notice     string
	NoticeKind NoticeKind
}

// IsNotice reports whether the result is a reported outcome.
func (r *Result) IsNotice() bool { return r.NoticeKind != NoticeNone }
