package parser

import (
	"fmt"
	"strings"
)

// TokenType identifies the kind of token produced by the lexer.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenWord             // any run of non-separator characters, quotes included
	TokenLParen           // (
	TokenRParen           // )
	TokenComma            // ,
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenWord:   "WORD",
	TokenLParen: "(",
	TokenRParen: ")",
	TokenComma:  ",",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexical token. Literal is the exact source text; for
// quoted words the quote characters are kept.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset in the input
}

// Is reports whether the token is a word equal to keyword, ignoring case.
func (t Token) Is(keyword string) bool {
	return t.Type == TokenWord && strings.EqualFold(t.Literal, keyword)
}
