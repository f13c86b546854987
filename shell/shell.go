// Package shell implements the interactive line-oriented front end: one
// command per line, a handful of meta-commands, and table rendering of
// SELECT results.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"rowdb/executor"
	"rowdb/storage"
	"rowdb/version"
)

const prompt = "db> "

// Options controls the interactive decorations of a Shell.
type Options struct {
	// Interactive prints the banner, the help menu and a prompt before
	// every line. Scripted input usually leaves it off.
	Interactive bool
}

// Shell reads commands from in and writes their output to out.
type Shell struct {
	exec *executor.Executor
	in   io.Reader
	out  io.Writer
	opts Options
}

// New creates a shell running statements through exec.
func New(exec *executor.Executor, in io.Reader, out io.Writer, opts Options) *Shell {
	return &Shell{exec: exec, in: in, out: out, opts: opts}
}

// Run processes lines until exit/quit or the end of input. It returns
// only input errors; statement failures are printed and the loop goes on.
func (s *Shell) Run() error {
	if s.opts.Interactive {
		fmt.Fprintf(s.out, "Welcome to rowdb, %s\n", version.String())
		s.printMenu()
	}

	sc := bufio.NewScanner(s.in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		if s.opts.Interactive {
			fmt.Fprint(s.out, "\n"+prompt)
		}
		if !sc.Scan() {
			if s.opts.Interactive {
				fmt.Fprintln(s.out)
			}
			return sc.Err()
		}
		if !s.handleLine(strings.TrimRight(sc.Text(), "\r")) {
			return nil
		}
	}
}

// handleLine runs one input line and reports whether the loop continues.
func (s *Shell) handleLine(line string) bool {
	switch {
	case line == "exit" || line == "quit":
		fmt.Fprintln(s.out, "Goodbye!")
		return false
	case line == "help":
		s.printMenu()
	case line == "list":
		s.listTables()
	case line == "memory":
		s.showMemory()
	case line == "demo":
		s.runDemo()
	case isMeta(line, "save"):
		s.save(metaArg(line, "save"))
	case isMeta(line, "load"):
		s.load(metaArg(line, "load"))
	case strings.TrimSpace(line) == "":
	default:
		s.execute(line)
	}
	return true
}

func isMeta(line, cmd string) bool {
	return line == cmd || strings.HasPrefix(line, cmd+" ")
}

func metaArg(line, cmd string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, cmd))
}

// execute runs a statement and prints its outcome. It returns false when
// the statement failed.
func (s *Shell) execute(line string) bool {
	result, err := s.exec.Execute(line)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return false
	}
	switch {
	case result.IsNotice():
		if result.Notice != "" {
			fmt.Fprintln(s.out, result.Notice)
		}
	case result.Columns != nil:
		renderResult(s.out, result)
	default:
		fmt.Fprintln(s.out, result.Message)
	}
	return true
}

func (s *Shell) listTables() {
	cat := s.exec.Catalog()
	names := cat.ListTables()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No tables.")
		return
	}
	fmt.Fprintln(s.out, "Tables:")
	for _, name := range names {
		var cols, rows int
		err := cat.View(name, func(t *storage.Table) error {
			cols, rows = t.ColumnCount(), t.RowCount()
			return nil
		})
		if err != nil {
			// Dropped by another client since ListTables.
			continue
		}
		fmt.Fprintf(s.out, "  %s (%d columns, %d rows)\n", name, cols, rows)
	}
}

func (s *Shell) showMemory() {
	usage := s.exec.Catalog().MemoryUsage()
	if len(usage) == 0 {
		fmt.Fprintln(s.out, "No tables.")
		return
	}
	var total int64
	for _, m := range usage {
		total += m.Total()
		fmt.Fprintf(s.out, "  %s: %s (%d rows)\n", m.Table, storage.HumanBytes(m.Total()), m.Rows)
	}
	fmt.Fprintf(s.out, "Total: %s\n", storage.HumanBytes(total))
}

func (s *Shell) save(file string) {
	if file == "" {
		fmt.Fprintln(s.out, "Usage: save filename")
		return
	}
	if err := s.exec.Catalog().SaveFile(file); err != nil {
		fmt.Fprintf(s.out, "Failed to save database to %s: %v\n", file, err)
		return
	}
	fmt.Fprintf(s.out, "Database saved to %s\n", file)
}

func (s *Shell) load(file string) {
	if file == "" {
		fmt.Fprintln(s.out, "Usage: load filename")
		return
	}
	if err := s.exec.Catalog().LoadFile(file); err != nil {
		fmt.Fprintf(s.out, "Failed to load database from %s: %v\n", file, err)
		return
	}
	fmt.Fprintf(s.out, "Database loaded from %s\n", file)
}

func (s *Shell) printMenu() {
	fmt.Fprint(s.out, menu)
}

const menu = `
Commands:
  CREATE TABLE name (col TYPE, ...)
  DROP TABLE name
  ALTER TABLE name ADD col TYPE
  ALTER TABLE name DROP COLUMN col
  INSERT INTO name (col, ...) VALUES (val, ...)
  SELECT * FROM name
  SELECT col, ... FROM name
  list            show all tables
  memory          estimate memory held by each table
  demo            run a demonstration
  save <file>     save the database (.json for JSON)
  load <file>     load a saved database
  help            show this menu
  exit            leave the shell

Supported types: INTEGER, FLOAT, STRING, BOOLEAN
`

// demoSteps is the scripted sequence run by the demo meta-command.
var demoSteps = []struct {
	title string
	sql   []string
}{
	{"Creating table users", []string{
		"CREATE TABLE users (id INTEGER, name STRING, age INTEGER, active BOOLEAN)",
	}},
	{"Inserting users", []string{
		"INSERT INTO users (id, name, age, active) VALUES (1, 'John Doe', 25, true)",
		"INSERT INTO users (id, name, age, active) VALUES (2, 'Jane Smith', 30, true)",
		"INSERT INTO users (id, name, age, active) VALUES (3, 'Bob Johnson', 22, false)",
	}},
	{"All users", []string{"SELECT * FROM users"}},
	{"Names and ages", []string{"SELECT name, age FROM users"}},
	{"Creating table products", []string{
		"CREATE TABLE products (id INTEGER, name STRING, price FLOAT, in_stock BOOLEAN)",
	}},
	{"Inserting products", []string{
		"INSERT INTO products (id, name, price, in_stock) VALUES (1, 'Laptop', 999.99, true)",
		"INSERT INTO products (id, name, price, in_stock) VALUES (2, 'Mouse', 25.50, true)",
		"INSERT INTO products (id, name, price, in_stock) VALUES (3, 'Keyboard', 75.00, false)",
	}},
	{"All products", []string{"SELECT * FROM products"}},
	{"Adding column email to users", []string{"ALTER TABLE users ADD email STRING"}},
	{"Users after ALTER", []string{"SELECT * FROM users"}},
}

func (s *Shell) runDemo() {
	fmt.Fprintln(s.out, "Running demo")
	for i, step := range demoSteps {
		fmt.Fprintf(s.out, "\n%d. %s\n", i+1, step.title)
		for _, sql := range step.sql {
			fmt.Fprintf(s.out, "%s%s\n", prompt, sql)
			if !s.execute(sql) {
				fmt.Fprintln(s.out, "Demo stopped.")
				return
			}
		}
	}
	fmt.Fprintln(s.out, "\nDemo complete.")
}
