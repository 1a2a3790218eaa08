// Package db ties the engine together: it owns the pager, the catalog,
// and the execution engine for one database file, and runs statements
// through parse, bind, and execute.
package db

import (
	"github.com/google/uuid"

	"beetdb/logger"
	"beetdb/pager"
	"beetdb/sql/binder"
	"beetdb/sql/catalog"
	"beetdb/sqlparser/parser"
	"beetdb/storage"
)

// DB is one open database. The catalog is owned by the handle, created at
// open and released at close, so multiple databases can coexist in one
// process. Access is single-writer; DB does not synchronize internally.
type DB struct {
	pager   *pager.Pager
	catalog *catalog.Catalog
	engine  *storage.Engine
	binder  *binder.Binder
}

// Open opens or creates the database file, loads the catalog from the
// metadata page, and registers a row store for every cataloged table.
func Open(path string) (*DB, error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	c, err := catalog.Load(p)
	if err != nil {
		p.Close()
		return nil, err
	}

	engine := storage.NewEngine()
	for _, table := range c.Tables() {
		engine.Register(table)
	}

	logger.Infof("db: opened %s with %d tables", path, len(c.Tables()))
	return &DB{
		pager:   p,
		catalog: c,
		engine:  engine,
		binder:  binder.New(c),
	}, nil
}

func (db *DB) Close() error {
	return db.pager.Close()
}

func (db *DB) Catalog() *catalog.Catalog {
	return db.catalog
}

// Session is one statement stream against the database.
type Session struct {
	id uuid.UUID
	db *DB
}

func (db *DB) Session() *Session {
	s := &Session{id: uuid.New(), db: db}
	logger.Debugf("db: session %s opened", s.id)
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Execute runs one SQL statement: parse, bind against the catalog, then
// hand the bound statement to the engine. Binding failures surface
// synchronously; nothing is retried.
func (s *Session) Execute(query string) (storage.ResultSet, error) {
	stmt, err := parser.Parse(query)
	if err != nil {
		return nil, err
	}

	bound, err := s.db.binder.Bind(stmt)
	if err != nil {
		logger.Debugf("db: session %s bind failed: %v", s.id, err)
		return nil, err
	}
	return s.db.engine.Execute(bound)
}
