// Package storage executes bound statements against in-memory row stores
// ordered by primary key. Rows are not durable; only the catalog's
// metadata page is. The engine trusts the binder: every statement it sees
// has resolved names and validated types.
package storage

import (
	"sort"
	"strings"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"beetdb/logger"
	"beetdb/sql"
	"beetdb/sql/binder"
	"beetdb/sql/catalog"
)

var (
	ErrDuplicateKey    = errors.New("storage: primary key already exists")
	ErrUniqueViolation = errors.New("storage: unique constraint violation")
	ErrMissingValue    = errors.New("storage: missing value for non-nullable column")
)

const btreeDegree = 32

type rowItem struct {
	key []sql.Value
	row []sql.Value
}

func (r *rowItem) Less(than btree.Item) bool {
	other := than.(*rowItem)
	for i := range r.key {
		if i >= len(other.key) {
			return false
		}
		res, _ := r.key[i].Compare(other.key[i])
		if res != 0 {
			return res < 0
		}
	}
	return len(r.key) < len(other.key)
}

type tableStore struct {
	schema *catalog.Table
	pk     []int
	rows   *btree.BTree
}

func newTableStore(schema *catalog.Table) *tableStore {
	store := &tableStore{
		schema: schema,
		rows:   btree.New(btreeDegree),
	}
	for _, name := range schema.PrimaryKey {
		store.pk = append(store.pk, schema.ColumnIndex(name))
	}
	return store
}

func (t *tableStore) key(row []sql.Value) []sql.Value {
	key := make([]sql.Value, len(t.pk))
	for i, idx := range t.pk {
		key[i] = row[idx]
	}
	return key
}

func (t *tableStore) scan() [][]sql.Value {
	var rows [][]sql.Value
	t.rows.Ascend(func(item btree.Item) bool {
		rows = append(rows, item.(*rowItem).row)
		return true
	})
	return rows
}

func (t *tableStore) insert(row []sql.Value) error {
	item := &rowItem{key: t.key(row), row: row}
	if t.rows.Has(item) {
		return errors.Wrapf(ErrDuplicateKey, "table %s", t.schema.Name)
	}
	for i, column := range t.schema.Columns {
		if !column.Unique || row[i].IsNull() {
			continue
		}
		if t.columnValueExists(i, row[i]) {
			return errors.Wrapf(ErrUniqueViolation, "table %s column %s value %s",
				t.schema.Name, column.Name, row[i])
		}
	}
	t.rows.ReplaceOrInsert(item)
	return nil
}

func (t *tableStore) columnValueExists(index int, value sql.Value) bool {
	found := false
	t.rows.Ascend(func(item btree.Item) bool {
		if sql.Equal(item.(*rowItem).row[index], value) {
			found = true
			return false
		}
		return true
	})
	return found
}

// Engine holds one row store per cataloged table.
type Engine struct {
	tables map[string]*tableStore
}

func NewEngine() *Engine {
	return &Engine{tables: make(map[string]*tableStore)}
}

// Register creates an empty row store for a cataloged table. The database
// handle calls this at open for every table the catalog loaded.
func (e *Engine) Register(schema *catalog.Table) {
	e.tables[schema.Name] = newTableStore(schema)
}

func (e *Engine) store(name string) *tableStore {
	store, ok := e.tables[name]
	if !ok {
		// The binder resolved this table against the catalog, so a
		// missing store is a registration bug, not a user error.
		logger.Panicf("storage: no row store for table %s", name)
	}
	return store
}

// Execute runs one bound statement and returns its result set.
func (e *Engine) Execute(stmt binder.BoundStatement) (ResultSet, error) {
	switch v := stmt.(type) {
	case *binder.BoundCreateTable:
		e.Register(v.Table)
		return &CreateTableResult{Name: v.Table.Name}, nil
	case *binder.BoundInsert:
		return e.executeInsert(v)
	case *binder.BoundSelect:
		return e.executeSelect(v)
	case *binder.BoundUpdate:
		return e.executeUpdate(v)
	case *binder.BoundDelete:
		return e.executeDelete(v)
	}
	return nil, errors.New("storage: unknown bound statement")
}

func (e *Engine) executeInsert(stmt *binder.BoundInsert) (ResultSet, error) {
	store := e.store(stmt.Table.Name)
	for _, values := range stmt.Rows {
		row := make([]sql.Value, len(stmt.Table.Columns))
		for i := range row {
			row[i] = sql.Null()
		}
		for i, ref := range stmt.Columns {
			row[ref.Index] = values[i]
		}
		// Columns omitted from the insert list default to NULL, which
		// non-nullable columns reject here.
		for i, column := range stmt.Table.Columns {
			if row[i].IsNull() && !column.Nullable {
				return nil, errors.Wrapf(ErrMissingValue, "table %s column %s",
					stmt.Table.Name, column.Name)
			}
		}
		if err := store.insert(row); err != nil {
			return nil, err
		}
	}
	return &InsertResult{Count: len(stmt.Rows)}, nil
}

// filter evaluates a WHERE predicate; rows evaluating to anything but TRUE
// (including NULL) are dropped.
func filter(rows [][]sql.Value, where binder.Expr) ([][]sql.Value, error) {
	if where == nil {
		return rows, nil
	}
	var matched [][]sql.Value
	for _, row := range rows {
		result, err := where.Evaluate(row)
		if err != nil {
			return nil, err
		}
		if result.Type == sql.BoolType && result.Value.(bool) {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (e *Engine) executeSelect(stmt *binder.BoundSelect) (ResultSet, error) {
	store := e.store(stmt.Table.Name)

	rows, err := filter(store.scan(), stmt.Where)
	if err != nil {
		return nil, err
	}
	if len(stmt.GroupBy) > 0 {
		rows = groupRows(rows, stmt.GroupBy)
	}
	if len(stmt.OrderBy) > 0 {
		sort.Stable(&orderSorter{rows: rows, orders: stmt.OrderBy})
	}

	result := &QueryResult{}
	for _, projection := range stmt.Projection {
		result.Columns = append(result.Columns, projection.Name)
	}
	for _, row := range rows {
		projected := make([]sql.Value, len(stmt.Projection))
		for i, projection := range stmt.Projection {
			if projected[i], err = projection.Expr.Evaluate(row); err != nil {
				return nil, err
			}
		}
		result.Rows = append(result.Rows, projected)
	}
	return result, nil
}

// groupRows keeps the first row of each group key, in scan order.
func groupRows(rows [][]sql.Value, groupBy []*binder.ColumnRef) [][]sql.Value {
	seen := make(map[string]bool)
	var grouped [][]sql.Value
	for _, row := range rows {
		parts := make([]string, len(groupBy))
		for i, ref := range groupBy {
			parts[i] = row[ref.Index].String()
		}
		key := strings.Join(parts, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		grouped = append(grouped, row)
	}
	return grouped
}

type orderSorter struct {
	rows   [][]sql.Value
	orders []*binder.BoundOrder
}

func (s *orderSorter) Len() int {
	return len(s.rows)
}

func (s *orderSorter) Swap(i, j int) {
	s.rows[i], s.rows[j] = s.rows[j], s.rows[i]
}

func (s *orderSorter) Less(i, j int) bool {
	for _, order := range s.orders {
		a := s.rows[i][order.Column.Index]
		b := s.rows[j][order.Column.Index]
		res, ok := a.Compare(b)
		if !ok || res == 0 {
			continue
		}
		if order.Desc {
			res = -res
		}
		return res < 0
	}
	return false
}

func (e *Engine) executeUpdate(stmt *binder.BoundUpdate) (ResultSet, error) {
	store := e.store(stmt.Table.Name)

	matched, err := filter(store.scan(), stmt.Where)
	if err != nil {
		return nil, err
	}

	updated := make([][]sql.Value, len(matched))
	for i, row := range matched {
		next := append([]sql.Value(nil), row...)
		for _, assign := range stmt.Assignments {
			value, err := assign.Expr.Evaluate(row)
			if err != nil {
				return nil, err
			}
			if value.IsNull() && !assign.Column.Column.Nullable {
				return nil, errors.Wrapf(ErrMissingValue, "table %s column %s",
					stmt.Table.Name, assign.Column.Column.Name)
			}
			next[assign.Column.Index] = value
		}
		updated[i] = next
	}

	for _, row := range matched {
		store.rows.Delete(&rowItem{key: store.key(row)})
	}
	for i, row := range updated {
		if err := store.insert(row); err != nil {
			// Undo the statement so a constraint violation on one row
			// leaves the table exactly as it was.
			for _, inserted := range updated[:i] {
				store.rows.Delete(&rowItem{key: store.key(inserted)})
			}
			for _, original := range matched {
				store.rows.ReplaceOrInsert(&rowItem{key: store.key(original), row: original})
			}
			return nil, err
		}
	}
	return &UpdateResult{Count: len(updated)}, nil
}

func (e *Engine) executeDelete(stmt *binder.BoundDelete) (ResultSet, error) {
	store := e.store(stmt.Table.Name)

	matched, err := filter(store.scan(), stmt.Where)
	if err != nil {
		return nil, err
	}
	for _, row := range matched {
		store.rows.Delete(&rowItem{key: store.key(row)})
	}
	return &DeleteResult{Count: len(matched)}, nil
}

type ResultSet interface {
	resultSet()
}

type CreateTableResult struct {
	Name string
}

func (c *CreateTableResult) resultSet() {}

type InsertResult struct {
	Count int
}

func (i *InsertResult) resultSet() {}

type UpdateResult struct {
	Count int
}

func (u *UpdateResult) resultSet() {}

type DeleteResult struct {
	Count int
}

func (d *DeleteResult) resultSet() {}

type QueryResult struct {
	Columns []string
	Rows    [][]sql.Value
}

func (q *QueryResult) resultSet() {}
