package catalog

import (
	"encoding/json"

	"github.com/pkg/errors"

	"beetdb/logger"
	"beetdb/pager"
)

var (
	ErrDuplicateTable   = errors.New("catalog: table already exists")
	ErrMetadataOverflow = errors.New("catalog: encoded table set exceeds metadata page capacity")
	ErrCorruptMetadata  = errors.New("catalog: corrupt metadata page")
)

// MetadataStore is the slice of the page manager the catalog depends on:
// page 0 read and durable write.
type MetadataStore interface {
	ReadMetadata() (*pager.MetadataPage, error)
	WriteMetadata(*pager.MetadataPage) error
}

// Catalog is the authoritative in-memory set of table schemas for one
// database, mirrored to the metadata page on every mutation. It is not
// internally synchronized; callers serialize access above this layer.
type Catalog struct {
	store  MetadataStore
	tables []*Table
}

// Load reads the metadata page and decodes the stored table set. The
// catalog owns independent copies of the decoded tables.
func Load(store MetadataStore) (*Catalog, error) {
	meta, err := store.ReadMetadata()
	if err != nil {
		return nil, err
	}

	c := &Catalog{store: store}
	if meta.TablesLen == 0 {
		return c, nil
	}

	var tables []*Table
	if err := json.Unmarshal(meta.Tables[:meta.TablesLen], &tables); err != nil {
		return nil, errors.Wrap(ErrCorruptMetadata, err.Error())
	}
	for _, table := range tables {
		if err := table.Validate(); err != nil {
			return nil, errors.Wrap(ErrCorruptMetadata, err.Error())
		}
	}
	c.tables = tables

	logger.Debugf("catalog: loaded %d tables from metadata page", len(tables))
	return c, nil
}

// FindTable returns the table with the exact name, or nil. The returned
// pointer is a read-only borrow, valid until the next mutating call.
func (c *Catalog) FindTable(name string) *Table {
	for _, table := range c.tables {
		if table.Name == name {
			return table
		}
	}
	return nil
}

// Tables returns the table set in creation order.
func (c *Catalog) Tables() []*Table {
	return c.tables
}

// CreateTable appends a copy of the table and persists the full set to the
// metadata page. The in-memory catalog is only mutated once the page write
// has been acknowledged, so a failed persist leaves both sides unchanged.
func (c *Catalog) CreateTable(table *Table) error {
	if c.FindTable(table.Name) != nil {
		return errors.Wrap(ErrDuplicateTable, "table "+table.Name)
	}

	candidate := append(append([]*Table(nil), c.tables...), table.Clone())
	if err := c.persist(candidate); err != nil {
		return err
	}
	c.tables = candidate

	logger.Infof("catalog: created table %s", table.Name)
	return nil
}

// UpdateTable replaces the stored table with the same name and persists.
// Calling it for a name not present in the catalog is a contract breach by
// the caller, which must already have resolved the table; it panics rather
// than risk persisting inconsistent metadata.
func (c *Catalog) UpdateTable(table *Table) error {
	idx := -1
	for i, existing := range c.tables {
		if existing.Name == table.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		logger.Panicf("catalog: update of unknown table %s", table.Name)
	}

	candidate := append([]*Table(nil), c.tables...)
	candidate[idx] = table.Clone()
	if err := c.persist(candidate); err != nil {
		return err
	}
	c.tables = candidate

	logger.Infof("catalog: updated table %s", table.Name)
	return nil
}

// persist encodes the candidate table set into a fresh metadata page and
// writes it through the page manager. Encoding and the capacity check
// happen before any page byte changes.
func (c *Catalog) persist(tables []*Table) error {
	meta, err := serialize(tables)
	if err != nil {
		return err
	}
	return c.store.WriteMetadata(meta)
}

func serialize(tables []*Table) (*pager.MetadataPage, error) {
	meta := &pager.MetadataPage{}
	if len(tables) == 0 {
		return meta, nil
	}

	encoded, err := json.Marshal(tables)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: encode table set")
	}
	if len(encoded) > pager.MetadataCapacity {
		return nil, errors.Wrapf(ErrMetadataOverflow, "%d of %d bytes", len(encoded), pager.MetadataCapacity)
	}

	copy(meta.Tables[:], encoded)
	meta.TablesLen = uint32(len(encoded))
	return meta, nil
}
