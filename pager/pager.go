// Package pager provides fixed-size page I/O over a single database file.
// Page 0 is reserved for the database metadata page.
package pager

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	PageSize = 4096
	// PagePayload is the page body available to the storage layer after
	// the page header bytes.
	PagePayload = 4080
	// MetadataCapacity is the byte region of the metadata page that holds
	// the encoded table set.
	MetadataCapacity = 4080
)

type PageID uint32

const MetadataPageID PageID = 0

type Page struct {
	ID   PageID
	Data [PageSize]byte
}

// MetadataPage is the decoded form of page 0. The first TablesLen bytes of
// Tables are meaningful; the rest must be zero.
type MetadataPage struct {
	Tables    [MetadataCapacity]byte
	TablesLen uint32
}

// Pager reads and writes fixed-size pages in a single file, held under an
// exclusive lock for the lifetime of the Pager.
type Pager struct {
	file     *os.File
	numPages uint32
}

// Open opens or creates the database file, takes the file lock, and makes
// sure the metadata page exists.
func Open(path string) (*Pager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "pager: create directory")
		}
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "pager: open file")
	}
	if err := lockFileNonBlocking(file); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "pager: lock file")
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "pager: stat file")
	}

	p := &Pager{
		file:     file,
		numPages: uint32(stat.Size() / PageSize),
	}

	if p.numPages == 0 {
		if err := p.UpdatePage(&Page{ID: MetadataPageID}); err != nil {
			file.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *Pager) Close() error {
	return p.file.Close()
}

func (p *Pager) NumPages() uint32 {
	return p.numPages
}

// GetPage reads the page with the given id.
func (p *Pager) GetPage(id PageID) (*Page, error) {
	if uint32(id) >= p.numPages {
		return nil, errors.Errorf("pager: page %d does not exist", id)
	}

	page := &Page{ID: id}
	if _, err := p.file.ReadAt(page.Data[:], int64(id)*PageSize); err != nil {
		return nil, errors.Wrapf(err, "pager: read page %d", id)
	}
	return page, nil
}

// UpdatePage writes the page back and syncs it to disk. The write is not
// acknowledged until fsync returns.
func (p *Pager) UpdatePage(page *Page) error {
	n, err := p.file.WriteAt(page.Data[:], int64(page.ID)*PageSize)
	if err != nil {
		return errors.Wrapf(err, "pager: write page %d", page.ID)
	}
	if n != PageSize {
		return errors.Errorf("pager: partial write of page %d: %d of %d bytes", page.ID, n, PageSize)
	}
	if err := p.file.Sync(); err != nil {
		return errors.Wrapf(err, "pager: sync page %d", page.ID)
	}
	if uint32(page.ID) >= p.numPages {
		p.numPages = uint32(page.ID) + 1
	}
	return nil
}

// AllocatePage appends a zeroed page to the file and returns it.
func (p *Pager) AllocatePage() (*Page, error) {
	page := &Page{ID: PageID(p.numPages)}
	if err := p.UpdatePage(page); err != nil {
		return nil, err
	}
	return page, nil
}

// Metadata page layout: bytes 0..3 hold TablesLen little-endian, bytes
// 4..4+MetadataCapacity hold the table region. The remaining bytes of the
// page are zero.

// ReadMetadata decodes page 0.
func (p *Pager) ReadMetadata() (*MetadataPage, error) {
	page, err := p.GetPage(MetadataPageID)
	if err != nil {
		return nil, err
	}

	meta := &MetadataPage{
		TablesLen: binary.LittleEndian.Uint32(page.Data[:4]),
	}
	if meta.TablesLen > MetadataCapacity {
		return nil, errors.Errorf("pager: metadata length %d exceeds capacity %d", meta.TablesLen, MetadataCapacity)
	}
	copy(meta.Tables[:], page.Data[4:4+MetadataCapacity])
	return meta, nil
}

// WriteMetadata encodes the metadata page and writes it durably to page 0.
func (p *Pager) WriteMetadata(meta *MetadataPage) error {
	if meta.TablesLen > MetadataCapacity {
		return errors.Errorf("pager: metadata length %d exceeds capacity %d", meta.TablesLen, MetadataCapacity)
	}

	page := &Page{ID: MetadataPageID}
	binary.LittleEndian.PutUint32(page.Data[:4], meta.TablesLen)
	copy(page.Data[4:4+MetadataCapacity], meta.Tables[:])
	return p.UpdatePage(page)
}
