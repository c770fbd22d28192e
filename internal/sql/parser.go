package sql

import "fmt"

// Parser is a precedence-climbing recursive-descent parser over the token
// stream produced by Lexer. Errors are fatal at the statement level: the
// first one encountered aborts parsing and is returned to the caller.
type Parser struct {
	L *Lexer
}

func NewParser(source string) *Parser {
	p := &Parser{L: newLexer(source)}
	p.L.Next()
	return p
}

func (self *Parser) tok() int { return self.L.Token }

func (self *Parser) err(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("parse error %s: %s", self.L.dinfo(), msg)
}

func (self *Parser) expect(tk int, what string) error {
	if self.tok() != tk {
		return self.err("expected %s", what)
	}
	self.L.Next()
	return nil
}

// Parse consumes one SELECT statement (an optional trailing semicolon is
// allowed and skipped).
func Parse(source string) (*SelectStmt, error) {
	p := NewParser(source)
	stmt, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if p.tok() == TkSemicolon {
		p.L.Next()
	}
	if p.tok() != TkEof {
		return nil, p.err("unexpected trailing input")
	}
	return stmt, nil
}

func (self *Parser) parseSelect() (*SelectStmt, error) {
	if self.tok() != TkSelect {
		return nil, self.err("expected SELECT")
	}
	self.L.Next()

	items, err := self.parseSelectList()
	if err != nil {
		return nil, err
	}

	if err := self.expect(TkFrom, "FROM"); err != nil {
		return nil, err
	}

	from, err := self.parseTableRef()
	if err != nil {
		return nil, err
	}

	stmt := &SelectStmt{Items: items, From: from}

	for self.tok() == TkInner || self.tok() == TkJoin {
		join, err := self.parseJoin()
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, *join)
	}

	if self.tok() == TkWhere {
		self.L.Next()
		w, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = w
	}

	if self.tok() == TkGroup {
		self.L.Next()
		if err := self.expect(TkBy, "BY"); err != nil {
			return nil, err
		}
		exprs, err := self.parseExprList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = exprs

		if self.tok() == TkHaving {
			self.L.Next()
			h, err := self.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Having = h
		}
	}

	if self.tok() == TkOrder {
		self.L.Next()
		if err := self.expect(TkBy, "BY"); err != nil {
			return nil, err
		}
		for {
			item, err := self.parseOrderItem()
			if err != nil {
				return nil, err
			}
			stmt.OrderBy = append(stmt.OrderBy, *item)
			if self.tok() == TkComma {
				self.L.Next()
				continue
			}
			break
		}
	}

	if self.tok() == TkLimit {
		self.L.Next()
		if self.tok() != TkInt {
			return nil, self.err("expected a number after LIMIT")
		}
		n := self.L.Lexeme.Int
		stmt.Limit = &n
		self.L.Next()
	}

	return stmt, nil
}

func (self *Parser) parseSelectList() ([]SelectItem, error) {
	if self.tok() == TkMul {
		self.L.Next()
		return nil, nil
	}

	var items []SelectItem
	for {
		item, err := self.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
		if self.tok() == TkComma {
			self.L.Next()
			continue
		}
		break
	}
	return items, nil
}

func (self *Parser) parseSelectItem() (*SelectItem, error) {
	e, err := self.parseExpr()
	if err != nil {
		return nil, err
	}
	item := &SelectItem{Value: e}
	if self.tok() == TkAs {
		self.L.Next()
		if self.tok() != TkId {
			return nil, self.err("expected an identifier after AS")
		}
		item.Alias = self.L.Lexeme.Text
		self.L.Next()
	}
	return item, nil
}

func (self *Parser) parseTableRef() (TableRef, error) {
	if self.tok() != TkId {
		return TableRef{}, self.err("expected a table name")
	}
	ref := TableRef{Name: self.L.Lexeme.Text}
	self.L.Next()

	if self.tok() == TkId {
		ref.Alias = self.L.Lexeme.Text
		self.L.Next()
	}
	return ref, nil
}

func (self *Parser) parseJoin() (*JoinClause, error) {
	if self.tok() == TkInner {
		self.L.Next()
	}
	if err := self.expect(TkJoin, "JOIN"); err != nil {
		return nil, err
	}
	table, err := self.parseTableRef()
	if err != nil {
		return nil, err
	}
	if err := self.expect(TkOn, "ON"); err != nil {
		return nil, err
	}
	on, err := self.parseExpr()
	if err != nil {
		return nil, err
	}
	return &JoinClause{Table: table, On: on}, nil
}

func (self *Parser) parseOrderItem() (*OrderItem, error) {
	e, err := self.parseExpr()
	if err != nil {
		return nil, err
	}
	item := &OrderItem{Value: e}
	switch self.tok() {
	case TkAsc:
		self.L.Next()
	case TkDesc:
		item.Desc = true
		self.L.Next()
	}
	return item, nil
}

func (self *Parser) parseExprList() ([]Expr, error) {
	var out []Expr
	for {
		e, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if self.tok() == TkComma {
			self.L.Next()
			continue
		}
		break
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// expr := or_expr
// or_expr := and_expr ('OR' and_expr)*
// and_expr := cmp_expr ('AND' cmp_expr)*
// cmp_expr := add_expr [CMP add_expr]     -- non-associative
// add_expr := mul_expr (('+'|'-') mul_expr)*
// mul_expr := factor (('*'|'/') factor)*
// factor := '(' expr ')' | primary

func (self *Parser) parseExpr() (Expr, error) { return self.parseOr() }

func (self *Parser) parseOr() (Expr, error) {
	l, err := self.parseAnd()
	if err != nil {
		return nil, err
	}
	for self.tok() == TkOr {
		self.L.Next()
		r, err := self.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: OpOr, L: l, R: r}
	}
	return l, nil
}

func (self *Parser) parseAnd() (Expr, error) {
	l, err := self.parseCmp()
	if err != nil {
		return nil, err
	}
	for self.tok() == TkAnd {
		self.L.Next()
		r, err := self.parseCmp()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: OpAnd, L: l, R: r}
	}
	return l, nil
}

func cmpOp(tk int) (BinOp, bool) {
	switch tk {
	case TkEq:
		return OpEq, true
	case TkNe:
		return OpNe, true
	case TkLt:
		return OpLt, true
	case TkLe:
		return OpLe, true
	case TkGt:
		return OpGt, true
	case TkGe:
		return OpGe, true
	default:
		return 0, false
	}
}

func (self *Parser) parseCmp() (Expr, error) {
	l, err := self.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOp(self.tok()); ok {
		self.L.Next()
		r, err := self.parseAdd()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, L: l, R: r}, nil
	}
	return l, nil
}

func (self *Parser) parseAdd() (Expr, error) {
	l, err := self.parseMul()
	if err != nil {
		return nil, err
	}
	for self.tok() == TkAdd || self.tok() == TkSub {
		op := OpAdd
		if self.tok() == TkSub {
			op = OpSub
		}
		self.L.Next()
		r, err := self.parseMul()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (self *Parser) parseMul() (Expr, error) {
	l, err := self.parseFactor()
	if err != nil {
		return nil, err
	}
	for self.tok() == TkMul || self.tok() == TkDiv {
		op := OpMul
		if self.tok() == TkDiv {
			op = OpDiv
		}
		self.L.Next()
		r, err := self.parseFactor()
		if err != nil {
			return nil, err
		}
		l = &BinaryExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (self *Parser) parseFactor() (Expr, error) {
	if self.tok() == TkLPar {
		self.L.Next()
		e, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := self.expect(TkRPar, ")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return self.parsePrimary()
}

// isIdentLike reports whether the current token can serve as the identifier
// half of qualified_ident. SUM/COUNT/AVG are lexed as plain identifiers (see
// lexer.go's keyword table, which does not include them), so this is just
// TkId in this grammar's token set.
func (self *Parser) isIdentLike() bool { return self.tok() == TkId }

func (self *Parser) parsePrimary() (Expr, error) {
	switch self.tok() {
	case TkInt:
		v := self.L.Lexeme.Int
		self.L.Next()
		return &IntLit{Value: v}, nil

	case TkReal:
		v := self.L.Lexeme.Real
		self.L.Next()
		return &DoubleLit{Value: v}, nil

	case TkStr:
		v := self.L.Lexeme.Text
		self.L.Next()
		return &StringLit{Value: v}, nil

	case TkMul:
		// bare '*' used as COUNT(*)'s argument
		self.L.Next()
		return &ColumnRef{Name: "*"}, nil

	case TkId:
		first := self.L.Lexeme.Text
		self.L.Next()

		if self.tok() == TkDot {
			self.L.Next()
			if !self.isIdentLike() {
				return nil, self.err("expected an identifier after '.'")
			}
			second := self.L.Lexeme.Text
			self.L.Next()
			return &ColumnRef{Qualifier: first, Name: second}, nil
		}

		if self.tok() == TkLPar {
			self.L.Next()
			var args []Expr
			if self.tok() != TkRPar {
				list, err := self.parseExprList()
				if err != nil {
					return nil, err
				}
				args = list
			}
			if err := self.expect(TkRPar, ")"); err != nil {
				return nil, err
			}
			return &FuncCall{Name: first, Args: args}, nil
		}

		return &ColumnRef{Name: first}, nil

	default:
		return nil, self.err("unexpected token in expression")
	}
}
