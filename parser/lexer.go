package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer splits a command line into tokens.
//
// Whitespace separates words and is dropped. '(', ')' and ',' are tokens
// of their own and end any word in progress. A quote (' or ") opens a
// span that runs to the next matching quote; inside it whitespace and
// punctuation are ordinary characters. The quotes stay in the word. An
// unterminated quote runs to the end of the input.
type Lexer struct {
	input string
	pos   int  // current byte position
	width int  // byte width of current rune
	ch    rune // current character
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	if len(input) > 0 {
		l.ch, l.width = utf8.DecodeRuneInString(input)
	}
	return l
}

func (l *Lexer) eof() bool { return l.pos >= len(l.input) }

func (l *Lexer) advance() {
	l.pos += l.width
	if l.pos >= len(l.input) {
		l.ch = 0
		l.width = 0
	} else {
		l.ch, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	start := l.pos

	if l.eof() {
		return Token{Type: TokenEOF, Pos: start}
	}
	switch l.ch {
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Literal: "(", Pos: start}
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Literal: ")", Pos: start}
	case ',':
		l.advance()
		return Token{Type: TokenComma, Literal: ",", Pos: start}
	default:
		return l.readWord(start)
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.eof() && unicode.IsSpace(l.ch) {
		l.advance()
	}
}

func (l *Lexer) readWord(start int) Token {
	var quote rune
	for !l.eof() {
		switch {
		case quote != 0:
			if l.ch == quote {
				quote = 0
			}
		case l.ch == '\'' || l.ch == '"':
			quote = l.ch
		case isSeparator(l.ch):
			return Token{Type: TokenWord, Literal: l.input[start:l.pos], Pos: start}
		}
		l.advance()
	}
	return Token{Type: TokenWord, Literal: l.input[start:l.pos], Pos: start}
}

func isSeparator(ch rune) bool {
	return ch == '(' || ch == ')' || ch == ',' || unicode.IsSpace(ch)
}

// Tokenize splits input into tokens, without the trailing EOF token.
//
// Trailing whitespace is trimmed first; then a ';' ending the final word
// is removed, and the word is dropped if nothing is left of it.
func Tokenize(input string) []Token {
	input = strings.TrimRightFunc(input, unicode.IsSpace)
	l := NewLexer(input)

	var toks []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenEOF {
			break
		}
		toks = append(toks, tok)
	}

	if n := len(toks); n > 0 && toks[n-1].Type == TokenWord {
		last := &toks[n-1]
		last.Literal = strings.TrimSuffix(last.Literal, ";")
		if last.Literal == "" {
			toks = toks[:n-1]
		}
	}
	return toks
}
