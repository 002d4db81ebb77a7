package bundle

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readEntries(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	entries := make(map[string]string)
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar next: %v", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}
		entries[hdr.Name] = string(content)
	}
	return entries
}

func TestDeployWritesTarAndCreatesDirs(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "dir", "title-x.tar")

	b := New(
		Item{Name: "title.id", Content: "!v100!Rev\n"},
		Item{Name: "extra.id", Content: "second"},
	)
	if err := b.Deploy(target); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	entries := readEntries(t, target)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries["title.id"] != "!v100!Rev\n" {
		t.Fatalf("title.id = %q", entries["title.id"])
	}
	if entries["extra.id"] != "second" {
		t.Fatalf("extra.id = %q", entries["extra.id"])
	}
}

func TestDeployIsByteIdenticalAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	b := New(Item{Name: "section.id", Content: "!v049!^cX"})

	first := filepath.Join(dir, "a.tar")
	second := filepath.Join(dir, "b.tar")
	if err := b.Deploy(first); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if err := b.Deploy(second); err != nil {
		t.Fatalf("deploy: %v", err)
	}

	a, _ := os.ReadFile(first)
	bb, _ := os.ReadFile(second)
	if !bytes.Equal(a, bb) {
		t.Fatal("archives differ between runs")
	}
}
