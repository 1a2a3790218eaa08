package parser

import (
	"errors"
	"strings"
	"unicode"
)

type tokenKind byte

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenKeyword
	tokenNumber
	tokenString
	tokenHexBlob
	tokenSymbol
)

type token struct {
	kind tokenKind
	text string
}

var keywords = map[string]bool{
	"AND": true, "AS": true, "ASC": true, "BINARY": true, "BLOB": true,
	"BOOL": true, "BOOLEAN": true, "BY": true, "CHAR": true, "CREATE": true,
	"DELETE": true, "DESC": true, "DOUBLE": true, "FALSE": true, "FLOAT": true,
	"FROM": true, "GROUP": true, "INSERT": true, "INT": true, "INTEGER": true,
	"INTO": true, "IS": true, "KEY": true, "NOT": true, "NULL": true,
	"OR": true, "ORDER": true, "PRIMARY": true, "SELECT": true, "SET": true,
	"TABLE": true, "TEXT": true, "TRUE": true, "UNIQUE": true, "UPDATE": true,
	"VALUES": true, "VARBINARY": true, "VARCHAR": true, "WHERE": true,
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF}, nil
	}

	c := l.input[l.pos]
	switch {
	case c == '\'':
		return l.lexString()
	case (c == 'x' || c == 'X') && l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'':
		l.pos++
		tok, err := l.lexString()
		if err != nil {
			return tok, err
		}
		tok.kind = tokenHexBlob
		return tok, nil
	case isDigit(rune(c)):
		return l.lexNumber()
	case isIdentStart(rune(c)):
		return l.lexIdent()
	}
	return l.lexSymbol()
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) lexString() (token, error) {
	// Opening quote, then everything to the closing quote. '' escapes a
	// single quote.
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\'' {
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				sb.WriteByte('\'')
				l.pos += 2
				continue
			}
			l.pos++
			return token{kind: tokenString, text: sb.String()}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, errors.New("unterminated string literal")
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	seenDot := false
	for l.pos < len(l.input) {
		c := rune(l.input[l.pos])
		if c == '.' && !seenDot {
			seenDot = true
			l.pos++
			continue
		}
		if !isDigit(c) {
			break
		}
		l.pos++
	}
	return token{kind: tokenNumber, text: l.input[start:l.pos]}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(rune(l.input[l.pos])) {
		l.pos++
	}
	text := l.input[start:l.pos]
	if keywords[strings.ToUpper(text)] {
		return token{kind: tokenKeyword, text: strings.ToUpper(text)}, nil
	}
	return token{kind: tokenIdent, text: text}, nil
}

var twoCharSymbols = map[string]bool{
	"!=": true, "<>": true, "<=": true, ">=": true, "||": true,
}

func (l *lexer) lexSymbol() (token, error) {
	if l.pos+1 < len(l.input) && twoCharSymbols[l.input[l.pos:l.pos+2]] {
		text := l.input[l.pos : l.pos+2]
		l.pos += 2
		return token{kind: tokenSymbol, text: text}, nil
	}
	switch c := l.input[l.pos]; c {
	case '(', ')', ',', ';', '=', '<', '>', '+', '-', '*', '/', '%', '.':
		l.pos++
		return token{kind: tokenSymbol, text: string(c)}, nil
	}
	return token{}, errors.New("unexpected character " + string(l.input[l.pos]))
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c)
}
