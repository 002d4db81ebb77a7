// Package bundle packages rendered text blobs into a deployable tar
// archive.
package bundle

import (
	"archive/tar"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Item is one named text blob inside a bundle.
type Item struct {
	Name    string
	Content string
}

// Bundle is an ordered set of items bound for a single archive.
type Bundle struct {
	items []Item
}

func New(items ...Item) *Bundle {
	return &Bundle{items: items}
}

// Deploy writes the bundle as a tar archive at target, creating any
// missing directories on the way. The archive is built in memory first
// so a failed build never leaves a partial file behind.
func (b *Bundle) Deploy(target string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for _, item := range b.items {
		data := []byte(item.Content)
		hdr := &tar.Header{
			Name:    item.Name,
			Mode:    0o644,
			Size:    int64(len(data)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tar header %s: %w", item.Name, err)
		}
		if _, err := tw.Write(data); err != nil {
			return fmt.Errorf("tar write %s: %w", item.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	return nil
}
