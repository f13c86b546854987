package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"rowdb/config"
	"rowdb/executor"
	"rowdb/pgwire"
	"rowdb/storage"
	"rowdb/version"
)

// Connection handles the lifecycle of a single client connection:
// startup handshake → authentication → query loop.
type Connection struct {
	conn   net.Conn
	reader *pgwire.Reader
	writer *pgwire.Writer
	cfg    *config.Config
	exec   *executor.Executor
}

func newConnection(conn net.Conn, cfg *config.Config, exec *executor.Executor) *Connection {
	return &Connection{
		conn:   conn,
		reader: pgwire.NewReader(conn),
		writer: pgwire.NewWriter(conn),
		cfg:    cfg,
		exec:   exec,
	}
}

// Handle runs the full connection lifecycle and closes the connection on return.
func (c *Connection) Handle() {
	defer c.conn.Close()

	if err := c.startup(); err != nil {
		log.Printf("connection %s: startup: %v", c.conn.RemoteAddr(), err)
		return
	}

	log.Printf("connection %s: authenticated", c.conn.RemoteAddr())
	c.queryLoop()
	log.Printf("connection %s: disconnected", c.conn.RemoteAddr())
}

// startup performs the PostgreSQL startup handshake and cleartext password
// authentication. It handles optional SSL negotiation.
func (c *Connection) startup() error {
	for {
		msg, isSSL, err := c.reader.ReadStartup()
		if err != nil {
			return fmt.Errorf("read startup: %w", err)
		}
		if isSSL {
			if err := c.writer.WriteSSLRefuse(); err != nil {
				return fmt.Errorf("refuse SSL: %w", err)
			}
			if err := c.writer.Flush(); err != nil {
				return err
			}
			continue
		}

		user := msg.Parameters["user"]
		if user != c.cfg.User {
			c.sendFatalError("28000", fmt.Sprintf("authentication failed for user %q", user))
			return fmt.Errorf("unknown user: %s", user)
		}

		if err := c.writer.WriteAuthCleartextPassword(); err != nil {
			return err
		}
		if err := c.writer.Flush(); err != nil {
			return err
		}

		msgType, payload, err := c.reader.ReadMessage()
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if msgType != pgwire.MsgPasswordMessage {
			return fmt.Errorf("expected PasswordMessage, got '%c'", msgType)
		}

		if password := pgwire.QueryText(payload); password != c.cfg.Password {
			c.sendFatalError("28P01", fmt.Sprintf("password authentication failed for user %q", user))
			return fmt.Errorf("bad password for user: %s", user)
		}

		if err := c.writer.WriteAuthOk(); err != nil {
			return err
		}
		serverParams := [][2]string{
			{"server_version", version.ServerVersion()},
			{"server_encoding", "UTF8"},
			{"client_encoding", "UTF8"},
			{"DateStyle", "ISO, MDY"},
		}
		for _, p := range serverParams {
			if err := c.writer.WriteParameterStatus(p[0], p[1]); err != nil {
				return err
			}
		}
		if err := c.writer.WriteBackendKeyData(int32(os.Getpid()), 0); err != nil {
			return err
		}
		if err := c.writer.WriteReadyForQuery(pgwire.TxIdle); err != nil {
			return err
		}
		return c.writer.Flush()
	}
}

// queryLoop reads and responds to client messages until the client
// disconnects or a write error occurs.
func (c *Connection) queryLoop() {
	for {
		msgType, payload, err := c.reader.ReadMessage()
		if err != nil {
			if err != io.EOF {
				log.Printf("connection %s: read: %v", c.conn.RemoteAddr(), err)
			}
			return
		}

		switch msgType {
		case pgwire.MsgQuery:
			if err := c.handleQuery(pgwire.QueryText(payload)); err != nil {
				log.Printf("connection %s: write: %v", c.conn.RemoteAddr(), err)
				return
			}
		case pgwire.MsgTerminate:
			return
		default:
			log.Printf("connection %s: unsupported message type '%c'", c.conn.RemoteAddr(), msgType)
		}
	}
}

// handleQuery runs one command line and writes the response.
func (c *Connection) handleQuery(query string) error {
	if isSetCommand(query) {
		// psql sends SET during startup; the command language has no SET.
		if err := c.writer.WriteCommandComplete("SET"); err != nil {
			return err
		}
		return c.sendReady()
	}

	result, err := c.execute(query)
	if err != nil {
		code := executor.CodeInternalError
		var qe *executor.QueryError
		if errors.As(err, &qe) {
			code = qe.Code
		}
		if werr := c.writer.WriteErrorResponse(pgwire.SeverityError, code, err.Error()); werr != nil {
			return werr
		}
		return c.sendReady()
	}

	if result.IsNotice() {
		if result.NoticeKind != executor.NoticeEmptyQuery {
			if err := c.writer.WriteNoticeResponse(result.Notice); err != nil {
				return err
			}
		}
		if result.Tag == "" {
			if err := c.writer.WriteEmptyQueryResponse(); err != nil {
				return err
			}
			return c.sendReady()
		}
	}

	// SELECT: send RowDescription + DataRows + CommandComplete.
	if result.Columns != nil {
		cols := make([]pgwire.ColumnInfo, len(result.Columns))
		for i, rc := range result.Columns {
			cols[i] = pgwire.ColumnInfo{
				Name:         rc.Name,
				DataTypeOID:  rc.TypeOID(),
				DataTypeSize: rc.TypeSize(),
				TypeModifier: -1,
			}
		}
		if err := c.writer.WriteRowDescription(cols); err != nil {
			return err
		}
		vals := make([][]byte, len(result.Columns))
		for _, row := range result.Rows {
			for i, v := range row {
				vals[i] = encodeText(v)
			}
			if err := c.writer.WriteDataRow(vals); err != nil {
				return err
			}
		}
	}

	if err := c.writer.WriteCommandComplete(result.Tag); err != nil {
		return err
	}
	return c.sendReady()
}

// execute runs query, logging a trace line when statement logging is on.
func (c *Connection) execute(query string) (*executor.Result, error) {
	if c.cfg.LogLevel < 1 {
		return c.exec.Execute(query)
	}
	result, tr, err := c.exec.ExecuteTraced(query)
	if err != nil {
		log.Printf("connection %s: %q: %s err=%v", c.conn.RemoteAddr(), query, tr, err)
	} else {
		log.Printf("connection %s: %q: %s", c.conn.RemoteAddr(), query, tr)
	}
	return result, err
}

// encodeText renders a value in PostgreSQL text format.
func encodeText(v storage.Value) []byte {
	switch v.Type {
	case storage.TypeInteger:
		return strconv.AppendInt(nil, v.I64, 10)
	case storage.TypeFloat:
		return strconv.AppendFloat(nil, v.F64, 'g', -1, 64)
	case storage.TypeBoolean:
		if v.B {
			return []byte("t")
		}
		return []byte("f")
	default:
		return []byte(v.S)
	}
}

func isSetCommand(query string) bool {
	fields := strings.Fields(query)
	return len(fields) > 0 && strings.EqualFold(fields[0], "SET")
}

// sendReady sends ReadyForQuery and flushes the write buffer.
func (c *Connection) sendReady() error {
	if err := c.writer.WriteReadyForQuery(pgwire.TxIdle); err != nil {
		return err
	}
	return c.writer.Flush()
}

// sendFatalError writes a FATAL error response and flushes. Errors are
// ignored since the connection is about to close.
func (c *Connection) sendFatalError(code, message string) {
	c.writer.WriteErrorResponse(pgwire.SeverityFatal, code, message)
	c.writer.Flush()
}
