package parser

import "fmt"

// SyntaxError reports input that matches a known command but not its
// grammar. Pos is the byte offset of the offending token, or the input
// length when the input ended too early.
//
// When the error comes after the target table name, Command and Table are
// set so the caller can report a catalog problem with that table first.
type SyntaxError struct {
	Message string
	Token   string // "" at end of input
	Pos     int

	Command string // "CREATE TABLE", "DROP TABLE", "ALTER TABLE" or "INSERT"
	Table   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at end of input: %s", e.Message)
	}
	return fmt.Sprintf("syntax error at or near %q (position %d): %s", e.Token, e.Pos, e.Message)
}

// parser walks a token slice. Use the exported Parse function as the
// public entry point.
type parser struct {
	toks []Token
	pos  int
	end  int // input length, reported for errors at end of input

	cmd   string
	table string // target table once its name has been read
}

// Parse tokenizes input and parses it into a single statement.
//
// Input that should be reported rather than rejected (empty input, an
// unknown command, a malformed SELECT, WHERE) yields a *Notice and a nil
// error.
func Parse(input string) (Statement, error) {
	toks := Tokenize(input)
	if len(toks) == 0 {
		return &Notice{Kind: NoticeEmptyQuery, Message: "Empty query"}, nil
	}

	p := &parser{toks: toks, end: len(input)}
	first := toks[0]
	switch {
	case first.Is("create") && p.peek(1).Is("table"):
		return p.parseCreateTable()
	case first.Is("drop") && p.peek(1).Is("table"):
		return p.parseDropTable()
	case first.Is("alter") && p.peek(1).Is("table"):
		return p.parseAlterTable()
	case first.Is("insert"):
		return p.parseInsert()
	case first.Is("select"):
		return p.parseSelect(), nil
	default:
		return &Notice{Kind: NoticeUnknownCommand, Message: "Unknown command: " + first.Literal}, nil
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

func (p *parser) cur() Token { return p.peek(0) }

func (p *parser) peek(n int) Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return Token{Type: TokenEOF, Pos: p.end}
}

func (p *parser) next() { p.pos++ }

func (p *parser) errorf(format string, args ...any) error {
	tok := p.cur()
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Token:   tok.Literal,
		Pos:     tok.Pos,
		Command: p.cmd,
		Table:   p.table,
	}
}

func (p *parser) expect(t TokenType) (Token, error) {
	tok := p.cur()
	if tok.Type != t {
		return tok, p.errorf("expected %s", t)
	}
	p.next()
	return tok, nil
}

func (p *parser) expectWord(what string) (string, error) {
	tok := p.cur()
	if tok.Type != TokenWord {
		return "", p.errorf("expected %s", what)
	}
	p.next()
	return tok.Literal, nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.cur().Is(kw) {
		return p.errorf("expected %s", kw)
	}
	p.next()
	return nil
}

func (p *parser) expectEnd() error {
	if p.cur().Type != TokenEOF {
		return p.errorf("unexpected token after statement")
	}
	return nil
}

// parseWordList parses "( w [, w]* )" or "( )".
func (p *parser) parseWordList(what string) ([]string, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	words := []string{}
	if p.cur().Type == TokenRParen {
		p.next()
		return words, nil
	}
	for {
		w, err := p.expectWord(what)
		if err != nil {
			return nil, err
		}
		words = append(words, w)
		if p.cur().Type == TokenComma {
			p.next()
			continue
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return words, nil
	}
}

// -------------------------------------------------------------------------
// Statement parsing
// -------------------------------------------------------------------------

func (p *parser) parseCreateTable() (*CreateTableStmt, error) {
	p.pos = 2 // skip CREATE TABLE
	p.cmd = "CREATE TABLE"
	name, err := p.expectWord("table name")
	if err != nil {
		return nil, err
	}
	p.table = name
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Name: name}
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.cur().Type == TokenComma {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.expectWord("column name")
	if err != nil {
		return ColumnDef{}, err
	}
	typ, err := p.expectWord("column type")
	if err != nil {
		return ColumnDef{}, err
	}
	return ColumnDef{Name: name, DataType: typ}, nil
}

func (p *parser) parseDropTable() (*DropTableStmt, error) {
	p.pos = 2 // skip DROP TABLE
	p.cmd = "DROP TABLE"
	name, err := p.expectWord("table name")
	if err != nil {
		return nil, err
	}
	p.table = name
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &DropTableStmt{Name: name}, nil
}

func (p *parser) parseAlterTable() (Statement, error) {
	p.pos = 2 // skip ALTER TABLE
	p.cmd = "ALTER TABLE"
	table, err := p.expectWord("table name")
	if err != nil {
		return nil, err
	}
	p.table = table

	switch {
	case p.cur().Is("add"):
		p.next()
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return &AlterTableAddColumnStmt{Table: table, Column: col}, nil

	case p.cur().Is("drop"):
		p.next()
		if err := p.expectKeyword("COLUMN"); err != nil {
			return nil, err
		}
		col, err := p.expectWord("column name")
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		return &AlterTableDropColumnStmt{Table: table, Column: col}, nil

	default:
		return nil, p.errorf("expected ADD or DROP COLUMN")
	}
}

func (p *parser) parseInsert() (*InsertStmt, error) {
	p.next() // skip INSERT
	p.cmd = "INSERT"
	if p.cur().Is("into") {
		p.next()
	}
	table, err := p.expectWord("table name")
	if err != nil {
		return nil, err
	}
	p.table = table
	cols, err := p.parseWordList("column name")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	vals, err := p.parseWordList("value")
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return &InsertStmt{Table: table, Columns: cols, Values: vals}, nil
}

// parseSelect never fails: malformed input becomes a Notice.
func (p *parser) parseSelect() Statement {
	if len(p.toks) < 4 {
		return &Notice{Kind: NoticeInvalidSelect, Message: "Invalid SELECT statement"}
	}

	from := 0
	for i := 1; i < len(p.toks); i++ {
		if p.toks[i].Is("from") {
			from = i
			break
		}
	}
	if from == 0 || from == len(p.toks)-1 || p.toks[from+1].Type != TokenWord {
		return &Notice{Kind: NoticeInvalidSelect, Message: "Invalid SELECT statement: missing FROM clause"}
	}

	stmt := &SelectStmt{Table: p.toks[from+1].Literal}
	if p.toks[1].Type == TokenWord && p.toks[1].Literal == "*" {
		stmt.Star = true
	} else {
		for _, tok := range p.toks[1:from] {
			if tok.Type == TokenWord {
				stmt.Columns = append(stmt.Columns, tok.Literal)
			}
		}
		if len(stmt.Columns) == 0 {
			return &Notice{Kind: NoticeInvalidSelect, Message: "No columns specified"}
		}
	}

	if rest := p.toks[from+2:]; len(rest) > 0 {
		if rest[0].Is("where") {
			return &Notice{Kind: NoticeUnsupportedWhere, Message: "WHERE clause is not supported"}
		}
		return &Notice{Kind: NoticeInvalidSelect,
			Message: fmt.Sprintf("Invalid SELECT statement: unexpected %q after table name", rest[0].Literal)}
	}
	return stmt
}
