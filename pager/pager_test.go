package pager

import (
	"bytes"
	"path/filepath"
	"testing"
)

func newTestPager(t *testing.T) *Pager {
	t.Helper()

	path := filepath.Join(t.TempDir(), "beet.db")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open pager: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpenCreatesMetadataPage(t *testing.T) {
	p := newTestPager(t)

	if p.NumPages() != 1 {
		t.Fatalf("expected 1 page after open, got %d", p.NumPages())
	}

	meta, err := p.ReadMetadata()
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if meta.TablesLen != 0 {
		t.Errorf("expected empty metadata, got length %d", meta.TablesLen)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beet.db")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open pager: %v", err)
	}

	meta := &MetadataPage{TablesLen: 11}
	copy(meta.Tables[:], []byte("hello pages"))
	if err := p.WriteMetadata(meta); err != nil {
		t.Fatalf("failed to write metadata: %v", err)
	}
	p.Close()

	p2, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen pager: %v", err)
	}
	defer p2.Close()

	got, err := p2.ReadMetadata()
	if err != nil {
		t.Fatalf("failed to read metadata: %v", err)
	}
	if got.TablesLen != 11 {
		t.Errorf("expected length 11, got %d", got.TablesLen)
	}
	if !bytes.Equal(got.Tables[:11], []byte("hello pages")) {
		t.Errorf("expected %q, got %q", "hello pages", got.Tables[:11])
	}
}

func TestWriteMetadataOverCapacity(t *testing.T) {
	p := newTestPager(t)

	meta := &MetadataPage{TablesLen: MetadataCapacity + 1}
	if err := p.WriteMetadata(meta); err == nil {
		t.Fatal("expected error writing metadata over capacity")
	}
}

func TestGetPageOutOfRange(t *testing.T) {
	p := newTestPager(t)

	if _, err := p.GetPage(7); err == nil {
		t.Fatal("expected error reading nonexistent page")
	}
}

func TestAllocateAndUpdatePage(t *testing.T) {
	p := newTestPager(t)

	page, err := p.AllocatePage()
	if err != nil {
		t.Fatalf("failed to allocate page: %v", err)
	}
	if page.ID != 1 {
		t.Errorf("expected page id 1, got %d", page.ID)
	}

	copy(page.Data[:], []byte("row data"))
	if err := p.UpdatePage(page); err != nil {
		t.Fatalf("failed to update page: %v", err)
	}

	got, err := p.GetPage(page.ID)
	if err != nil {
		t.Fatalf("failed to read page: %v", err)
	}
	if !bytes.Equal(got.Data[:8], []byte("row data")) {
		t.Errorf("expected %q, got %q", "row data", got.Data[:8])
	}
}

func TestOpenLocksFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beet.db")
	p, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open pager: %v", err)
	}
	defer p.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected second open of a locked file to fail")
	}
}
