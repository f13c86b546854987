package shell

import (
	"fmt"
	"io"
	"strings"

	"rowdb/executor"
)

// renderResult writes a SELECT result as a header line, a separator with
// one run of dashes per column name, then one line per row.
func renderResult(w io.Writer, r *executor.Result) {
	names := make([]string, len(r.Columns))
	dashes := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
		dashes[i] = strings.Repeat("-", len(c.Name))
	}
	fmt.Fprintln(w, strings.Join(names, " | "))
	fmt.Fprintln(w, strings.Join(dashes, "-+-"))

	cells := make([]string, len(r.Columns))
	for _, row := range r.Rows {
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(w, strings.Join(cells, " | "))
	}
}
