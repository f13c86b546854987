package executor

import (
	"fmt"
	"time"
)

// Trace captures timing and metadata for a single statement execution.
// Only populated when tracing is enabled (ExecuteTraced).
type Trace struct {
	Total        time.Duration
	Parse        time.Duration // tokenizer + parser
	Exec         time.Duration // catalog calls
	RowsReturned int64
	Table        string
	StmtType     string // "SELECT", "INSERT", etc.
	Notice       NoticeKind
}

// String formats the trace as a single log line.
func (tr *Trace) String() string {
	if tr == nil {
		return "no trace available"
	}
	stmt := tr.StmtType
	if stmt == "" {
		stmt = "-"
	}
	s := fmt.Sprintf("stmt=%s", stmt)
	if tr.Table != "" {
		s += fmt.Sprintf(" table=%s", tr.Table)
	}
	s += fmt.Sprintf(" parse=%s exec=%s total=%s rows=%d", tr.Parse, tr.Exec, tr.Total, tr.RowsReturned)
	if tr.Notice != NoticeNone {
		s += fmt.Sprintf(" notice=%q", tr.Notice.String())
	}
	return s
}
