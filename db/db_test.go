package db

import (
	"errors"
	"path/filepath"
	"testing"

	"beetdb/sql"
	"beetdb/sql/binder"
	"beetdb/sql/catalog"
	"beetdb/storage"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	database, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustExecute(t *testing.T, session *Session, query string) storage.ResultSet {
	t.Helper()
	result, err := session.Execute(query)
	if err != nil {
		t.Fatalf("failed to execute %q: %v", query, err)
	}
	return result
}

func TestEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)
	session := database.Session()

	mustExecute(t, session, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20))")
	mustExecute(t, session, "INSERT INTO users VALUES (1, 'ada'), (2, 'grace')")

	result := mustExecute(t, session, "SELECT name FROM users WHERE id = 1")
	query := result.(*storage.QueryResult)
	if len(query.Columns) != 1 || query.Columns[0] != "name" {
		t.Errorf("unexpected columns %v", query.Columns)
	}
	if len(query.Rows) != 1 || query.Rows[0][0].Value != "ada" {
		t.Errorf("unexpected rows %v", query.Rows)
	}

	_, err := session.Execute("SELECT ghost FROM users")
	var unknown *binder.UnknownColumnError
	if !errors.As(err, &unknown) || unknown.Column != "ghost" {
		t.Fatalf("expected UnknownColumnError for ghost, got %v", err)
	}

	_, err = session.Execute("SELECT * FROM ghosts")
	var unknownTable *binder.UnknownTableError
	if !errors.As(err, &unknownTable) {
		t.Fatalf("expected UnknownTableError, got %v", err)
	}
}

func TestCompositePrimaryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)
	session := database.Session()

	mustExecute(t, session, "CREATE TABLE grades (student INT, course INT, grade FLOAT, PRIMARY KEY (student, course))")
	mustExecute(t, session, "INSERT INTO grades VALUES (1, 1, 3.5), (1, 2, 4.0)")

	_, err := session.Execute("INSERT INTO grades VALUES (1, 1, 2.0)")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on repeated key pair, got %v", err)
	}

	result := mustExecute(t, session, "SELECT grade FROM grades WHERE student = 1 ORDER BY course")
	rows := result.(*storage.QueryResult).Rows
	if len(rows) != 2 || rows[0][0].Value != 3.5 || rows[1][0].Value != 4.0 {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestSchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	session := database.Session()
	mustExecute(t, session, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20))")
	mustExecute(t, session, "INSERT INTO users VALUES (1, 'ada')")
	if err := database.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	reopened := openTestDB(t, path)
	table := reopened.Catalog().FindTable("users")
	if table == nil {
		t.Fatal("expected users to survive reopen")
	}
	if len(table.Columns) != 2 || table.Columns[1].MaxLength != 20 {
		t.Errorf("unexpected reloaded schema %+v", table)
	}

	// The schema is durable; rows are not.
	result := mustExecute(t, reopened.Session(), "SELECT * FROM users")
	if rows := result.(*storage.QueryResult).Rows; len(rows) != 0 {
		t.Errorf("expected no rows after reopen, got %v", rows)
	}

	// The reloaded schema still enforces its constraints.
	_, err = reopened.Session().Execute("CREATE TABLE users (id INT PRIMARY KEY)")
	if !errors.Is(err, catalog.ErrDuplicateTable) {
		t.Fatalf("expected ErrDuplicateTable, got %v", err)
	}
}

func TestConstraintsThroughSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)
	session := database.Session()

	mustExecute(t, session, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20))")

	tests := []struct {
		name  string
		query string
		check func(error) bool
	}{
		{
			name:  "arity mismatch",
			query: "INSERT INTO users VALUES (1)",
			check: func(err error) bool {
				var e *binder.ArityMismatchError
				return errors.As(err, &e)
			},
		},
		{
			name:  "null primary key",
			query: "INSERT INTO users VALUES (NULL, 'x')",
			check: func(err error) bool {
				var e *binder.NullConstraintError
				return errors.As(err, &e)
			},
		},
		{
			name:  "name too long",
			query: "INSERT INTO users VALUES (1, '123456789012345678901')",
			check: func(err error) bool {
				var e *binder.LengthConstraintError
				return errors.As(err, &e)
			},
		},
		{
			name:  "wrong type",
			query: "INSERT INTO users VALUES ('one', 'x')",
			check: func(err error) bool {
				var e *binder.TypeMismatchError
				return errors.As(err, &e)
			},
		},
		{
			name:  "non-boolean where",
			query: "SELECT * FROM users WHERE name",
			check: func(err error) bool {
				var e *binder.TypeMismatchError
				return errors.As(err, &e)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := session.Execute(tt.query)
			if !tt.check(err) {
				t.Fatalf("unexpected error for %q: %v", tt.query, err)
			}
		})
	}

	mustExecute(t, session, "INSERT INTO users VALUES (1, 'ada')")
	_, err := session.Execute("INSERT INTO users VALUES (1, 'bob')")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUpdateAndDeleteThroughSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)
	session := database.Session()

	mustExecute(t, session, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20))")
	mustExecute(t, session, "INSERT INTO users VALUES (1, 'ada'), (2, 'grace'), (3, 'edsger')")

	result := mustExecute(t, session, "UPDATE users SET name = 'alan' WHERE id = 2")
	if result.(*storage.UpdateResult).Count != 1 {
		t.Fatal("expected one updated row")
	}

	result = mustExecute(t, session, "DELETE FROM users WHERE id = 3")
	if result.(*storage.DeleteResult).Count != 1 {
		t.Fatal("expected one deleted row")
	}

	result = mustExecute(t, session, "SELECT name FROM users ORDER BY id DESC")
	rows := result.(*storage.QueryResult).Rows
	if len(rows) != 2 || rows[0][0].Value != "alan" || rows[1][0].Value != "ada" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestSessionIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)

	a, b := database.Session(), database.Session()
	if a.ID() == b.ID() {
		t.Error("expected distinct session ids")
	}
}

func TestProjectionExpressions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := openTestDB(t, path)
	session := database.Session()

	mustExecute(t, session, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT(20))")
	mustExecute(t, session, "INSERT INTO users VALUES (2, 'ada')")

	result := mustExecute(t, session, "SELECT id * 10 AS scaled, name || '!' FROM users")
	query := result.(*storage.QueryResult)
	if query.Columns[0] != "scaled" || query.Columns[1] != "column2" {
		t.Errorf("unexpected columns %v", query.Columns)
	}
	if query.Rows[0][0].Value != int64(20) || query.Rows[0][1].Value != "ada!" {
		t.Errorf("unexpected rows %v", query.Rows)
	}
	if query.Rows[0][1].Type != sql.VarcharType {
		t.Errorf("expected VARCHAR concat result, got %s", query.Rows[0][1].Type)
	}
}
