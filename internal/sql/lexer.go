// Package sql implements the tokeniser and recursive-descent parser that
// turn SQL text into a SelectStmt AST.
package sql

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

const (
	TkError = iota
	TkEof

	TkId
	TkInt
	TkReal
	TkStr

	// keywords -- case-sensitive upper, per the grammar
	TkSelect
	TkFrom
	TkWhere
	TkInner
	TkJoin
	TkOn
	TkGroup
	TkBy
	TkHaving
	TkOrder
	TkAsc
	TkDesc
	TkLimit
	TkAs
	TkAnd
	TkOr

	// punctuation
	TkComma
	TkSemicolon
	TkDot
	TkLPar
	TkRPar

	TkAdd
	TkSub
	TkMul
	TkDiv

	TkEq
	TkNe
	TkLt
	TkLe
	TkGt
	TkGe
)

var keywords = map[string]int{
	"SELECT": TkSelect,
	"FROM":   TkFrom,
	"WHERE":  TkWhere,
	"INNER":  TkInner,
	"JOIN":   TkJoin,
	"ON":     TkOn,
	"GROUP":  TkGroup,
	"BY":     TkBy,
	"HAVING": TkHaving,
	"ORDER":  TkOrder,
	"ASC":    TkAsc,
	"DESC":   TkDesc,
	"LIMIT":  TkLimit,
	"AS":     TkAs,
	"AND":    TkAnd,
	"OR":     TkOr,
}

type Lexeme struct {
	Text string
	Int  int64
	Real float64
}

type Lexer struct {
	Source string
	Cursor int
	Token  int
	Lexeme Lexeme
}

func newLexer(source string) *Lexer {
	return &Lexer{Source: source, Cursor: 0, Token: TkError}
}

func (self *Lexer) nextRune() (rune, int) {
	if self.Cursor >= len(self.Source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.Source[self.Cursor:])
}

func (self *Lexer) nextRune2() rune {
	r, _ := utf8.DecodeRuneInString(self.Source[self.Cursor+1:])
	return r
}

func (self *Lexer) yield(tk int, sz int) int {
	self.Token = tk
	self.Cursor += sz
	return tk
}

func (self *Lexer) eof() int {
	self.Token = TkEof
	return TkEof
}

func (self *Lexer) pos(where int) (int, int) {
	line, col, idx := 1, 1, 0
	for idx < where && idx < len(self.Source) {
		r, sz := utf8.DecodeRuneInString(self.Source[idx:])
		if r == '\n' {
			line++
			col = 1
		}
		idx += sz
		col++
	}
	return line, col
}

func (self *Lexer) dinfo() string {
	line, col := self.pos(self.Cursor)
	return fmt.Sprintf("around position(%d:%d)", line, col)
}

func (self *Lexer) err(msg string) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(), msg)
	self.Token = TkError
	return TkError
}

func (self *Lexer) errE(err error) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(), err)
	self.Token = TkError
	return TkError
}

func isIdChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdLeadingChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// lexNum scans an unsigned NUMBER literal; the grammar has no negative
// number literal (unary minus is a binary SUB applied to a following
// expression, matching the grammar's lack of a unary-minus production). A
// fractional part is accepted even though §4.1's lexical layer only names
// integer literals, since the expression leaves include double literals
// (original_source's parser accepts `digit+ '.' digit+`).
func (self *Lexer) lexNum(c rune) int {
	buf := &bytes.Buffer{}
	buf.WriteRune(c)
	self.Cursor++
	hasDot := false

	for {
		r, sz := self.nextRune()
		if r >= '0' && r <= '9' {
			buf.WriteRune(r)
			self.Cursor += sz
			continue
		}
		if r == '.' && !hasDot && self.nextRune2() >= '0' && self.nextRune2() <= '9' {
			hasDot = true
			buf.WriteRune(r)
			self.Cursor += sz
			continue
		}
		break
	}

	if hasDot {
		f, err := strconv.ParseFloat(buf.String(), 64)
		if err != nil {
			return self.errE(err)
		}
		self.Lexeme.Real = f
		self.Token = TkReal
		return TkReal
	}

	i, err := strconv.ParseInt(buf.String(), 10, 64)
	if err != nil {
		return self.errE(err)
	}
	self.Lexeme.Int = i
	self.Token = TkInt
	return TkInt
}

func (self *Lexer) lexStr() int {
	buf := &bytes.Buffer{}
	self.Cursor++ // skip opening quote

	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError && sz == 0 {
			return self.err("string literal is not closed by quote properly")
		}
		if c == '\'' {
			self.Cursor += sz
			break
		}
		buf.WriteRune(c)
		self.Cursor += sz
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkStr
	return TkStr
}

func (self *Lexer) lexIdOrKeyword(c rune) int {
	if !isIdLeadingChar(c) {
		return self.err("invalid leading character of identifier")
	}

	buf := &bytes.Buffer{}
	buf.WriteRune(c)
	self.Cursor++

	for {
		r, sz := self.nextRune()
		if r == utf8.RuneError || !isIdChar(r) {
			break
		}
		buf.WriteRune(r)
		self.Cursor += sz
	}

	text := buf.String()
	if tk, ok := keywords[text]; ok {
		self.Token = tk
		return tk
	}

	self.Lexeme.Text = text
	self.Token = TkId
	return TkId
}

func (self *Lexer) Next() int {
	if self.Token == TkEof {
		return TkEof
	}
	return self.next()
}

func (self *Lexer) next() int {
	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError && sz == 0 {
			return self.eof()
		}

		switch c {
		case ' ', '\t', '\r', '\n':
			self.Cursor++
			continue

		case ',':
			return self.yield(TkComma, 1)
		case ';':
			return self.yield(TkSemicolon, 1)
		case '.':
			return self.yield(TkDot, 1)
		case '(':
			return self.yield(TkLPar, 1)
		case ')':
			return self.yield(TkRPar, 1)
		case '+':
			return self.yield(TkAdd, 1)
		case '-':
			return self.yield(TkSub, 1)
		case '*':
			return self.yield(TkMul, 1)
		case '/':
			return self.yield(TkDiv, 1)
		case '=':
			return self.yield(TkEq, 1)
		case '!':
			if self.nextRune2() == '=' {
				return self.yield(TkNe, 2)
			}
			return self.err("unknown operator character '!'")
		case '<':
			if self.nextRune2() == '=' {
				return self.yield(TkLe, 2)
			}
			return self.yield(TkLt, 1)
		case '>':
			if self.nextRune2() == '=' {
				return self.yield(TkGe, 2)
			}
			return self.yield(TkGt, 1)
		case '\'':
			return self.lexStr()
		default:
			if c >= '0' && c <= '9' {
				return self.lexNum(c)
			}
			return self.lexIdOrKeyword(c)
		}
	}
}
