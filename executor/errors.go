package executor

import (
	"errors"

	"rowdb/parser"
	"rowdb/storage"
)

// QueryError is an error with a PostgreSQL SQLSTATE code. The wire
// front end sends Code in the ErrorResponse; Err keeps the typed cause
// reachable through errors.As.
type QueryError struct {
	Code    string
	Message string
	Err     error
}

func (e *QueryError) Error() string { return e.Message }

func (e *QueryError) Unwrap() error { return e.Err }

// SQLSTATE codes used by the executor.
const (
	CodeSyntaxError      = "42601"
	CodeDuplicateTable   = "42P07"
	CodeUndefinedTable   = "42P01"
	CodeDuplicateColumn  = "42701"
	CodeUndefinedColumn  = "42703"
	CodeUndefinedObject  = "42704"
	CodeInvalidTextRepr  = "22P02"
	CodeArraySubscript   = "2202E"
	CodeDatatypeMismatch = "42804"
	CodeInternalError    = "XX000"
)

// WrapError converts a parser or storage error into a *QueryError with
// the matching SQLSTATE code. It returns nil for a nil error and leaves an
// existing *QueryError unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return err
	}
	return &QueryError{Code: sqlState(err), Message: err.Error(), Err: err}
}

func sqlState(err error) string {
	var (
		syntax    *parser.SyntaxError
		tblExists *storage.TableExistsError
		tblMiss   *storage.TableNotFoundError
		colExists *storage.ColumnExistsError
		colMiss   *storage.ColumnNotFoundError
		count     *storage.ValueCountError
		typ       *storage.UnknownTypeError
		conv      *storage.ConversionError
		index     *storage.IndexError
		mismatch  *storage.TypeMismatchError
	)
	switch {
	case errors.As(err, &syntax):
		return CodeSyntaxError
	case errors.As(err, &tblExists):
		return CodeDuplicateTable
	case errors.As(err, &tblMiss):
		return CodeUndefinedTable
	case errors.As(err, &colExists):
		return CodeDuplicateColumn
	case errors.As(err, &colMiss):
		return CodeUndefinedColumn
	case errors.As(err, &count):
		return CodeSyntaxError
	case errors.As(err, &typ):
		return CodeUndefinedObject
	case errors.As(err, &conv):
		return CodeInvalidTextRepr
	case errors.As(err, &index):
		return CodeArraySubscript
	case errors.As(err, &mismatch):
		return CodeDatatypeMismatch
	default:
		return CodeInternalError
	}
}
