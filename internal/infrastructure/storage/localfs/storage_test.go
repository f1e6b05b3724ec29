package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveThenOpenRoundTrips(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "abc_invoice.pdf", strings.NewReader("%PDF-1.4")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rc, err := storage.Open(context.Background(), "abc_invoice.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Fatalf("unexpected content: %q", data)
	}
}

func TestPathJoinsBaseDir(t *testing.T) {
	dir := t.TempDir()
	storage, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := filepath.Join(dir, "abc_invoice.pdf")
	if got := storage.Path("abc_invoice.pdf"); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
}

func TestOpenMissingKeyFails(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "nope.pdf"); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
