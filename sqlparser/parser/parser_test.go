package parser

import (
	"testing"

	"beetdb/sql"
	"beetdb/sqlparser/ast"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20) NOT NULL UNIQUE, bio VARCHAR(100));")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	create, ok := stmt.(*ast.CreateTableStmt)
	if !ok {
		t.Fatalf("expected CreateTableStmt, got %T", stmt)
	}

	if create.Name != "users" {
		t.Errorf("expected table users, got %s", create.Name)
	}
	if len(create.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(create.Columns))
	}

	id := create.Columns[0]
	if id.Name != "id" || id.Type != sql.IntType || !id.PrimaryKey {
		t.Errorf("unexpected id column %+v", id)
	}
	name := create.Columns[1]
	if name.Type != sql.VarcharType || name.MaxLength != 20 || !name.NotNull || !name.Unique {
		t.Errorf("unexpected name column %+v", name)
	}
	bio := create.Columns[2]
	if bio.Type != sql.VarcharType || bio.MaxLength != 100 || bio.NotNull {
		t.Errorf("unexpected bio column %+v", bio)
	}
}

func TestParseCreateTableCompositeKey(t *testing.T) {
	stmt, err := Parse("CREATE TABLE grades (student INT, course INT, grade FLOAT, PRIMARY KEY (student, course))")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	create := stmt.(*ast.CreateTableStmt)
	if len(create.PrimaryKey) != 2 || create.PrimaryKey[0] != "student" || create.PrimaryKey[1] != "course" {
		t.Errorf("unexpected primary key %v", create.PrimaryKey)
	}
}

func TestParseSelect(t *testing.T) {
	stmt, err := Parse("SELECT name, id * 2 AS double_id FROM users WHERE id = 1 AND active GROUP BY name ORDER BY id DESC, name")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	sel := stmt.(*ast.SelectStmt)

	if sel.Table != "users" {
		t.Errorf("expected table users, got %s", sel.Table)
	}
	if len(sel.Projection) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(sel.Projection))
	}
	if sel.Projection[1].Alias != "double_id" {
		t.Errorf("expected alias double_id, got %s", sel.Projection[1].Alias)
	}

	where, ok := sel.Where.(*ast.BinaryExpr)
	if !ok || where.Op != ast.OpAnd {
		t.Fatalf("expected AND at the top of WHERE, got %#v", sel.Where)
	}
	if len(sel.GroupBy) != 1 || sel.GroupBy[0].Column != "name" {
		t.Errorf("unexpected group by %v", sel.GroupBy)
	}
	if len(sel.OrderBy) != 2 || !sel.OrderBy[0].Desc || sel.OrderBy[1].Desc {
		t.Errorf("unexpected order by %v", sel.OrderBy)
	}
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	sel := stmt.(*ast.SelectStmt)
	if len(sel.Projection) != 1 || !sel.Projection[0].Star {
		t.Errorf("expected a single * projection, got %v", sel.Projection)
	}
}

func TestParseQualifiedField(t *testing.T) {
	stmt, err := Parse("SELECT users.name FROM users")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	sel := stmt.(*ast.SelectStmt)
	field := sel.Projection[0].Expr.(*ast.Field)
	if field.Table != "users" || field.Column != "name" {
		t.Errorf("unexpected field %+v", field)
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO users (id, name) VALUES (1, 'it''s'), (2, NULL)")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	insert := stmt.(*ast.InsertStmt)

	if insert.Table != "users" || len(insert.Columns) != 2 {
		t.Fatalf("unexpected insert %+v", insert)
	}
	if len(insert.Rows) != 2 || len(insert.Rows[0]) != 2 {
		t.Fatalf("expected 2 rows of 2 values, got %v", insert.Rows)
	}

	name := insert.Rows[0][1].(*ast.Literal)
	if name.Value.Value != "it's" {
		t.Errorf("expected escaped quote, got %q", name.Value.Value)
	}
	null := insert.Rows[1][1].(*ast.Literal)
	if !null.Value.IsNull() {
		t.Error("expected NULL literal")
	}
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse("UPDATE users SET name = 'bob', score = score + 1.5 WHERE id = 2")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	update := stmt.(*ast.UpdateStmt)

	if len(update.Set) != 2 || update.Set[1].Column != "score" {
		t.Fatalf("unexpected assignments %v", update.Set)
	}
	add := update.Set[1].Expr.(*ast.BinaryExpr)
	if add.Op != ast.OpAdd {
		t.Errorf("expected +, got %s", add.Op)
	}
	lit := add.R.(*ast.Literal)
	if lit.Value.Type != sql.FloatType {
		t.Errorf("expected float literal, got %s", lit.Value.Type)
	}
	if update.Where == nil {
		t.Error("expected WHERE clause")
	}
}

func TestParseDelete(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE name IS NOT NULL")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	del := stmt.(*ast.DeleteStmt)
	unary, ok := del.Where.(*ast.UnaryExpr)
	if !ok || unary.Op != ast.OpIsNotNull {
		t.Fatalf("expected IS NOT NULL, got %#v", del.Where)
	}
}

func TestParsePrecedence(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = 1 OR b = 2 AND c < 3 + 4 * 5")
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	where := stmt.(*ast.SelectStmt).Where

	or, ok := where.(*ast.BinaryExpr)
	if !ok || or.Op != ast.OpOr {
		t.Fatalf("expected OR at the top, got %#v", where)
	}
	and := or.R.(*ast.BinaryExpr)
	if and.Op != ast.OpAnd {
		t.Fatalf("expected AND on the right of OR, got %s", and.Op)
	}
	less := and.R.(*ast.BinaryExpr)
	if less.Op != ast.OpLessThan {
		t.Fatalf("expected < under AND, got %s", less.Op)
	}
	add := less.R.(*ast.BinaryExpr)
	if add.Op != ast.OpAdd {
		t.Fatalf("expected + under <, got %s", add.Op)
	}
	mul := add.R.(*ast.BinaryExpr)
	if mul.Op != ast.OpMultiply {
		t.Fatalf("expected * under +, got %s", mul.Op)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"DROP TABLE users",
		"SELECT FROM users",
		"SELECT * users",
		"CREATE TABLE t (id INT",
		"INSERT INTO t VALUES 1",
		"UPDATE t SET = 5",
		"SELECT * FROM t WHERE x = 'unterminated",
		"SELECT * FROM t; extra",
	}
	for _, input := range tests {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected parse error for %q", input)
		}
	}
}
