package parser

import (
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"beetdb/sql"
	"beetdb/sqlparser/ast"
)

// Parser turns one SQL statement into its ast.Statement variant. It checks
// syntax only; name resolution and type checking happen in the binder.
type Parser struct {
	lexer lexer
	tok   token
	err   error
}

// Parse parses a single statement, optionally terminated by a semicolon.
func Parse(input string) (ast.Statement, error) {
	p := &Parser{lexer: lexer{input: input}}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}

	var stmt ast.Statement
	switch {
	case p.isKeyword("CREATE"):
		stmt = p.parseCreateTable()
	case p.isKeyword("SELECT"):
		stmt = p.parseSelect()
	case p.isKeyword("INSERT"):
		stmt = p.parseInsert()
	case p.isKeyword("UPDATE"):
		stmt = p.parseUpdate()
	case p.isKeyword("DELETE"):
		stmt = p.parseDelete()
	default:
		return nil, errors.New("parser: unexpected " + p.describe())
	}
	if p.err != nil {
		return nil, p.err
	}

	if p.isSymbol(";") {
		p.advance()
	}
	if p.tok.kind != tokenEOF {
		return nil, errors.New("parser: trailing input after statement: " + p.describe())
	}
	return stmt, nil
}

func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lexer.next()
	if err != nil {
		p.fail("parser: " + err.Error())
		return
	}
	p.tok = tok
}

func (p *Parser) fail(msg string) {
	if p.err == nil {
		p.err = errors.New(msg)
	}
}

func (p *Parser) describe() string {
	if p.tok.kind == tokenEOF {
		return "end of statement"
	}
	return "'" + p.tok.text + "'"
}

func (p *Parser) isKeyword(kw string) bool {
	return p.tok.kind == tokenKeyword && p.tok.text == kw
}

func (p *Parser) isSymbol(sym string) bool {
	return p.tok.kind == tokenSymbol && p.tok.text == sym
}

func (p *Parser) expectKeyword(kw string) {
	if !p.isKeyword(kw) {
		p.fail("parser: expected " + kw + ", got " + p.describe())
		return
	}
	p.advance()
}

func (p *Parser) expectSymbol(sym string) {
	if !p.isSymbol(sym) {
		p.fail("parser: expected '" + sym + "', got " + p.describe())
		return
	}
	p.advance()
}

func (p *Parser) ident() string {
	if p.tok.kind != tokenIdent {
		p.fail("parser: expected identifier, got " + p.describe())
		return ""
	}
	name := p.tok.text
	p.advance()
	return name
}

func (p *Parser) parseCreateTable() ast.Statement {
	p.expectKeyword("CREATE")
	p.expectKeyword("TABLE")
	stmt := &ast.CreateTableStmt{Name: p.ident()}
	p.expectSymbol("(")

	for p.err == nil {
		if p.isKeyword("PRIMARY") {
			p.advance()
			p.expectKeyword("KEY")
			p.expectSymbol("(")
			for p.err == nil {
				stmt.PrimaryKey = append(stmt.PrimaryKey, p.ident())
				if !p.isSymbol(",") {
					break
				}
				p.advance()
			}
			p.expectSymbol(")")
		} else {
			stmt.Columns = append(stmt.Columns, p.parseColumnDef())
		}
		if !p.isSymbol(",") {
			break
		}
		p.advance()
	}
	p.expectSymbol(")")
	return stmt
}

func (p *Parser) parseColumnDef() *ast.ColumnDef {
	def := &ast.ColumnDef{Name: p.ident()}
	def.Type, def.MaxLength = p.parseDataType()

	for p.err == nil {
		switch {
		case p.isKeyword("PRIMARY"):
			p.advance()
			p.expectKeyword("KEY")
			def.PrimaryKey = true
		case p.isKeyword("NOT"):
			p.advance()
			p.expectKeyword("NULL")
			def.NotNull = true
		case p.isKeyword("NULL"):
			p.advance()
		case p.isKeyword("UNIQUE"):
			p.advance()
			def.Unique = true
		default:
			return def
		}
	}
	return def
}

func (p *Parser) parseDataType() (sql.DataType, uint32) {
	if p.tok.kind != tokenKeyword {
		p.fail("parser: expected data type, got " + p.describe())
		return 0, 0
	}

	var dataType sql.DataType
	switch p.tok.text {
	case "INT", "INTEGER":
		dataType = sql.IntType
	case "FLOAT", "DOUBLE":
		dataType = sql.FloatType
	case "BOOL", "BOOLEAN":
		dataType = sql.BoolType
	case "CHAR":
		dataType = sql.CharType
	case "VARCHAR", "TEXT":
		dataType = sql.VarcharType
	case "BINARY":
		dataType = sql.BinaryType
	case "VARBINARY", "BLOB":
		dataType = sql.VarbinaryType
	default:
		p.fail("parser: expected data type, got " + p.describe())
		return 0, 0
	}
	p.advance()

	var maxLength uint32
	if p.isSymbol("(") {
		p.advance()
		if p.tok.kind != tokenNumber {
			p.fail("parser: expected length, got " + p.describe())
			return 0, 0
		}
		n, err := strconv.ParseUint(p.tok.text, 10, 32)
		if err != nil {
			p.fail("parser: invalid length " + p.tok.text)
			return 0, 0
		}
		maxLength = uint32(n)
		p.advance()
		p.expectSymbol(")")
	}
	return dataType, maxLength
}

func (p *Parser) parseSelect() ast.Statement {
	p.expectKeyword("SELECT")
	stmt := &ast.SelectStmt{}

	for p.err == nil {
		item := &ast.SelectItem{}
		if p.isSymbol("*") {
			p.advance()
			item.Star = true
		} else {
			item.Expr = p.parseExpression()
			if p.isKeyword("AS") {
				p.advance()
				item.Alias = p.ident()
			} else if p.tok.kind == tokenIdent {
				item.Alias = p.ident()
			}
		}
		stmt.Projection = append(stmt.Projection, item)
		if !p.isSymbol(",") {
			break
		}
		p.advance()
	}

	p.expectKeyword("FROM")
	stmt.Table = p.ident()

	if p.isKeyword("WHERE") {
		p.advance()
		stmt.Where = p.parseExpression()
	}
	if p.isKeyword("GROUP") {
		p.advance()
		p.expectKeyword("BY")
		for p.err == nil {
			stmt.GroupBy = append(stmt.GroupBy, p.parseField())
			if !p.isSymbol(",") {
				break
			}
			p.advance()
		}
	}
	if p.isKeyword("ORDER") {
		p.advance()
		p.expectKeyword("BY")
		for p.err == nil {
			item := &ast.OrderItem{Column: p.parseField()}
			if p.isKeyword("ASC") {
				p.advance()
			} else if p.isKeyword("DESC") {
				p.advance()
				item.Desc = true
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if !p.isSymbol(",") {
				break
			}
			p.advance()
		}
	}
	return stmt
}

func (p *Parser) parseField() *ast.Field {
	field := &ast.Field{Column: p.ident()}
	if p.isSymbol(".") {
		p.advance()
		field.Table = field.Column
		field.Column = p.ident()
	}
	return field
}

func (p *Parser) parseInsert() ast.Statement {
	p.expectKeyword("INSERT")
	p.expectKeyword("INTO")
	stmt := &ast.InsertStmt{Table: p.ident()}

	if p.isSymbol("(") {
		p.advance()
		for p.err == nil {
			stmt.Columns = append(stmt.Columns, p.ident())
			if !p.isSymbol(",") {
				break
			}
			p.advance()
		}
		p.expectSymbol(")")
	}

	p.expectKeyword("VALUES")
	for p.err == nil {
		p.expectSymbol("(")
		var row []ast.Expression
		for p.err == nil {
			row = append(row, p.parseExpression())
			if !p.isSymbol(",") {
				break
			}
			p.advance()
		}
		p.expectSymbol(")")
		stmt.Rows = append(stmt.Rows, row)
		if !p.isSymbol(",") {
			break
		}
		p.advance()
	}
	return stmt
}

func (p *Parser) parseUpdate() ast.Statement {
	p.expectKeyword("UPDATE")
	stmt := &ast.UpdateStmt{Table: p.ident()}
	p.expectKeyword("SET")

	for p.err == nil {
		assign := &ast.Assignment{Column: p.ident()}
		p.expectSymbol("=")
		assign.Expr = p.parseExpression()
		stmt.Set = append(stmt.Set, assign)
		if !p.isSymbol(",") {
			break
		}
		p.advance()
	}

	if p.isKeyword("WHERE") {
		p.advance()
		stmt.Where = p.parseExpression()
	}
	return stmt
}

func (p *Parser) parseDelete() ast.Statement {
	p.expectKeyword("DELETE")
	p.expectKeyword("FROM")
	stmt := &ast.DeleteStmt{Table: p.ident()}
	if p.isKeyword("WHERE") {
		p.advance()
		stmt.Where = p.parseExpression()
	}
	return stmt
}

// Expression precedence, loosest first: OR, AND, NOT, comparisons,
// IS [NOT] NULL, additive (+ - ||), multiplicative (* / %), unary minus.

func (p *Parser) parseExpression() ast.Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expression {
	expr := p.parseAnd()
	for p.isKeyword("OR") {
		p.advance()
		expr = &ast.BinaryExpr{Op: ast.OpOr, L: expr, R: p.parseAnd()}
	}
	return expr
}

func (p *Parser) parseAnd() ast.Expression {
	expr := p.parseNot()
	for p.isKeyword("AND") {
		p.advance()
		expr = &ast.BinaryExpr{Op: ast.OpAnd, L: expr, R: p.parseNot()}
	}
	return expr
}

func (p *Parser) parseNot() ast.Expression {
	if p.isKeyword("NOT") {
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[string]ast.BinaryOperator{
	"=":  ast.OpEqual,
	"!=": ast.OpNotEqual,
	"<>": ast.OpNotEqual,
	"<":  ast.OpLessThan,
	"<=": ast.OpLessThanOrEqual,
	">":  ast.OpGreaterThan,
	">=": ast.OpGreaterThanOrEqual,
}

func (p *Parser) parseComparison() ast.Expression {
	expr := p.parseAdditive()
	if p.tok.kind == tokenSymbol {
		if op, ok := comparisonOps[p.tok.text]; ok {
			p.advance()
			return &ast.BinaryExpr{Op: op, L: expr, R: p.parseAdditive()}
		}
	}
	if p.isKeyword("IS") {
		p.advance()
		op := ast.OpIsNull
		if p.isKeyword("NOT") {
			p.advance()
			op = ast.OpIsNotNull
		}
		p.expectKeyword("NULL")
		return &ast.UnaryExpr{Op: op, Operand: expr}
	}
	return expr
}

func (p *Parser) parseAdditive() ast.Expression {
	expr := p.parseMultiplicative()
	for p.err == nil {
		var op ast.BinaryOperator
		switch {
		case p.isSymbol("+"):
			op = ast.OpAdd
		case p.isSymbol("-"):
			op = ast.OpSubtract
		case p.isSymbol("||"):
			op = ast.OpConcat
		default:
			return expr
		}
		p.advance()
		expr = &ast.BinaryExpr{Op: op, L: expr, R: p.parseMultiplicative()}
	}
	return expr
}

func (p *Parser) parseMultiplicative() ast.Expression {
	expr := p.parseUnary()
	for p.err == nil {
		var op ast.BinaryOperator
		switch {
		case p.isSymbol("*"):
			op = ast.OpMultiply
		case p.isSymbol("/"):
			op = ast.OpDivide
		case p.isSymbol("%"):
			op = ast.OpModulo
		default:
			return expr
		}
		p.advance()
		expr = &ast.BinaryExpr{Op: op, L: expr, R: p.parseUnary()}
	}
	return expr
}

func (p *Parser) parseUnary() ast.Expression {
	if p.isSymbol("-") {
		p.advance()
		return &ast.UnaryExpr{Op: ast.OpNegate, Operand: p.parseUnary()}
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() ast.Expression {
	switch {
	case p.isSymbol("("):
		p.advance()
		expr := p.parseExpression()
		p.expectSymbol(")")
		return expr
	case p.tok.kind == tokenNumber:
		text := p.tok.text
		p.advance()
		if strings.Contains(text, ".") {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				p.fail("parser: invalid number " + text)
				return nil
			}
			return &ast.Literal{Value: sql.NewFloat(f)}
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			p.fail("parser: invalid number " + text)
			return nil
		}
		return &ast.Literal{Value: sql.NewInt(n)}
	case p.tok.kind == tokenString:
		text := p.tok.text
		p.advance()
		return &ast.Literal{Value: sql.NewString(text)}
	case p.tok.kind == tokenHexBlob:
		text := p.tok.text
		p.advance()
		blob, err := hex.DecodeString(text)
		if err != nil {
			p.fail("parser: invalid hex literal x'" + text + "'")
			return nil
		}
		return &ast.Literal{Value: sql.NewBytes(blob)}
	case p.isKeyword("TRUE"):
		p.advance()
		return &ast.Literal{Value: sql.NewBool(true)}
	case p.isKeyword("FALSE"):
		p.advance()
		return &ast.Literal{Value: sql.NewBool(false)}
	case p.isKeyword("NULL"):
		p.advance()
		return &ast.Literal{Value: sql.Null()}
	case p.tok.kind == tokenIdent:
		return p.parseField()
	}
	p.fail("parser: expected expression, got " + p.describe())
	return nil
}
