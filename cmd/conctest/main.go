package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"

	"rowdb/config"
	"rowdb/executor"
	"rowdb/server"
	"rowdb/storage"
)

func main() {
	fmt.Println("rowdb concurrency test")
	fmt.Println("======================")

	port, shutdown := startServer()
	defer shutdown()

	fmt.Printf("Starting server on port %d...\n\n", port)

	passed, failed := 0, 0
	for _, sc := range []struct {
		name string
		fn   func(int) bool
	}{
		{"Setup", scenarioSetup},
		{"Concurrent reads", scenarioConcurrentReads},
		{"Reads during writes", scenarioReadsDuringWrites},
		{"Reads during schema changes", scenarioReadsDuringAlter},
		{"Concurrent writes", scenarioConcurrentWrites},
	} {
		if sc.fn(port) {
			passed++
		} else {
			failed++
		}
	}

	fmt.Printf("\n%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func startServer() (port int, shutdown func()) {
	cfg := &config.Config{
		Port:     0, // OS-assigned
		User:     "admin",
		Password: "test",
	}

	exec := executor.New(storage.NewCatalog())
	srv := server.New(cfg, exec)

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			fatalf("server: %v", err)
		}
	}()

	// Wait for the listener to be ready.
	for i := 0; i < 100; i++ {
		if addr := srv.Addr(); addr != nil {
			port = addr.(*net.TCPAddr).Port
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if port == 0 {
		fatalf("server did not start within 1s")
	}

	shutdown = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return port, shutdown
}

func connect(port int) *pgx.Conn {
	connStr := fmt.Sprintf("host=127.0.0.1 port=%d user=admin password=test sslmode=disable", port)
	cfg, err := pgx.ParseConfig(connStr)
	if err != nil {
		fatalf("parse config: %v", err)
	}
	cfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	conn, err := pgx.ConnectConfig(context.Background(), cfg)
	if err != nil {
		fatalf("connect: %v", err)
	}
	return conn
}

func scenarioSetup(port int) bool {
	start := time.Now()
	conn := connect(port)
	defer conn.Close(context.Background())

	_, err := conn.Exec(context.Background(),
		"CREATE TABLE conc (id INTEGER, val STRING)")
	if err != nil {
		return fail("Setup", "CREATE TABLE: %v", err)
	}

	for i := 1; i <= 100; i++ {
		_, err := conn.Exec(context.Background(),
			fmt.Sprintf("INSERT INTO conc (id, val) VALUES (%d, 'row%d')", i, i))
		if err != nil {
			return fail("Setup", "INSERT %d: %v", i, err)
		}
	}

	count, err := countRows(conn)
	if err != nil {
		return fail("Setup", "count: %v", err)
	}
	if count != 100 {
		return fail("Setup", "expected 100 rows, got %d", count)
	}

	return pass("Setup", "created table, inserted 100 rows", time.Since(start))
}

func scenarioConcurrentReads(port int) bool {
	start := time.Now()
	const goroutines = 10
	const queriesPerGoroutine = 50

	var wg sync.WaitGroup
	var errCount atomic.Int64

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := connect(port)
			defer conn.Close(context.Background())

			for q := 0; q < queriesPerGoroutine; q++ {
				n, err := countRows(conn)
				if err != nil || n != 100 {
					errCount.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	errs := errCount.Load()
	total := goroutines * queriesPerGoroutine
	if errs > 0 {
		return fail("Concurrent reads", "%d errors out of %d queries", errs, total)
	}
	return pass("Concurrent reads",
		fmt.Sprintf("%d goroutines × %d queries = %d total, 0 errors", goroutines, queriesPerGoroutine, total),
		time.Since(start))
}

func scenarioReadsDuringWrites(port int) bool {
	start := time.Now()
	const readers = 10

	var wg sync.WaitGroup
	var errCount atomic.Int64
	var minCount, maxCount atomic.Int64
	minCount.Store(999999)

	// Writer goroutine: insert rows 101-200.
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn := connect(port)
		defer conn.Close(context.Background())

		for i := 101; i <= 200; i++ {
			_, err := conn.Exec(context.Background(),
				fmt.Sprintf("INSERT INTO conc (id, val) VALUES (%d, 'row%d')", i, i))
			if err != nil {
				errCount.Add(1)
			}
		}
	}()

	// Reader goroutines: repeatedly count rows while writes happen.
	for g := 0; g < readers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := connect(port)
			defer conn.Close(context.Background())

			for q := 0; q < 50; q++ {
				count, err := countRows(conn)
				if err != nil {
					errCount.Add(1)
					continue
				}
				// Update min/max atomically.
				for {
					cur := minCount.Load()
					if count >= cur || minCount.CompareAndSwap(cur, count) {
						break
					}
				}
				for {
					cur := maxCount.Load()
					if count <= cur || maxCount.CompareAndSwap(cur, count) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	errs := errCount.Load()
	lo, hi := minCount.Load(), maxCount.Load()

	if errs > 0 {
		return fail("Reads during writes", "%d errors", errs)
	}
	if lo < 100 || hi > 200 {
		return fail("Reads during writes", "counts out of range: [%d..%d]", lo, hi)
	}

	// Verify final count.
	conn := connect(port)
	defer conn.Close(context.Background())
	finalCount, err := countRows(conn)
	if err != nil {
		return fail("Reads during writes", "final count: %v", err)
	}
	if finalCount != 200 {
		return fail("Reads during writes", "final count %d, expected 200", finalCount)
	}

	return pass("Reads during writes",
		fmt.Sprintf("100 rows inserted while reading, counts in [%d..%d], 0 errors", lo, hi),
		time.Since(start))
}

func scenarioConcurrentWrites(port int) bool {
	start := time.Now()
	const goroutines = 10
	const rowsPerGoroutine = 10

	var wg sync.WaitGroup
	var errCount atomic.Int64

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			conn := connect(port)
			defer conn.Close(context.Background())

			base := 201 + g*rowsPerGoroutine
			for i := 0; i < rowsPerGoroutine; i++ {
				id := base + i
				_, err := conn.Exec(context.Background(),
					fmt.Sprintf("INSERT INTO conc (id, val) VALUES (%d, 'row%d')", id, id))
				if err != nil {
					errCount.Add(1)
				}
			}
		}(g)
	}
	wg.Wait()

	errs := errCount.Load()
	if errs > 0 {
		return fail("Concurrent writes", "%d insert errors", errs)
	}

	conn := connect(port)
	defer conn.Close(context.Background())
	count, err := countRows(conn)
	if err != nil {
		return fail("Concurrent writes", "final count: %v", err)
	}
	if count != 300 {
		return fail("Concurrent writes", "final count %d, expected 300", count)
	}

	return pass("Concurrent writes",
		fmt.Sprintf("%d goroutines × %d rows = %d inserts, final count %d",
			goroutines, rowsPerGoroutine, goroutines*rowsPerGoroutine, count),
		time.Since(start))
}

func scenarioReadsDuringAlter(port int) bool {
	start := time.Now()
	const readers = 10
	const alters = 20

	var wg sync.WaitGroup
	var errCount, widthErrs atomic.Int64
	stop := make(chan struct{})

	// Writer goroutine: add and drop a column repeatedly.
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stop)
		conn := connect(port)
		defer conn.Close(context.Background())

		for i := 0; i < alters; i++ {
			col := fmt.Sprintf("extra%d", i)
			if _, err := conn.Exec(context.Background(), "ALTER TABLE conc ADD "+col+" INTEGER"); err != nil {
				errCount.Add(1)
				continue
			}
			if _, err := conn.Exec(context.Background(), "ALTER TABLE conc DROP COLUMN "+col); err != nil {
				errCount.Add(1)
			}
		}
	}()

	// Reader goroutines: every row must be as wide as the row description.
	var queries atomic.Int64
	for g := 0; g < readers; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := connect(port)
			defer conn.Close(context.Background())

			for {
				select {
				case <-stop:
					return
				default:
				}
				rows, err := conn.Query(context.Background(), "SELECT * FROM conc")
				if err != nil {
					errCount.Add(1)
					continue
				}
				width := len(rows.FieldDescriptions())
				for rows.Next() {
					if len(rows.RawValues()) != width {
						widthErrs.Add(1)
					}
				}
				rows.Close()
				if rows.Err() != nil {
					errCount.Add(1)
				}
				queries.Add(1)
			}
		}()
	}
	wg.Wait()

	if errs := errCount.Load(); errs > 0 {
		return fail("Reads during schema changes", "%d errors", errs)
	}
	if n := widthErrs.Load(); n > 0 {
		return fail("Reads during schema changes", "%d rows did not match their row description", n)
	}

	conn := connect(port)
	defer conn.Close(context.Background())
	rows, err := conn.Query(context.Background(), "SELECT * FROM conc")
	if err != nil {
		return fail("Reads during schema changes", "final select: %v", err)
	}
	width := len(rows.FieldDescriptions())
	rows.Close()
	if width != 2 {
		return fail("Reads during schema changes", "final width %d, expected 2", width)
	}

	return pass("Reads during schema changes",
		fmt.Sprintf("%d ADD/DROP pairs, %d consistent reads, 0 errors", alters, queries.Load()),
		time.Since(start))
}

// countRows counts the rows of conc with SELECT *, checking each row's
// width against the row description.
func countRows(conn *pgx.Conn) (int64, error) {
	rows, err := conn.Query(context.Background(), "SELECT * FROM conc")
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	width := len(rows.FieldDescriptions())
	var n int64
	for rows.Next() {
		if got := len(rows.RawValues()); got != width {
			return 0, fmt.Errorf("row %d has %d values, row description has %d", n, got, width)
		}
		n++
	}
	return n, rows.Err()
}

func pass(name, detail string, d time.Duration) bool {
	fmt.Printf("[PASS] %s: %s (%dms)\n", name, detail, d.Milliseconds())
	return true
}

func fail(name, format string, args ...any) bool {
	fmt.Printf("[FAIL] %s: %s\n", name, fmt.Sprintf(format, args...))
	return false
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal: "+format+"\n", args...)
	os.Exit(2)
}
