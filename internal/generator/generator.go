// Package generator sequences collector, renderer and packager into one
// bundle-generation run.
package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"bundlegen/internal/bundle"
	"bundlegen/internal/catalog"
	"bundlegen/internal/collector"
	"bundlegen/internal/render"
)

// ErrUnknownResource is returned for any resource kind other than
// title, issue or section.
var ErrUnknownResource = errors.New("generator: unknown resource kind")

// ProgressFunc receives run progress events. fields carries
// event-specific values (offset, count, archive name).
type ProgressFunc func(event, resource string, fields map[string]any)

// Result describes one finished generation run.
type Result struct {
	Filename string
	Records  int
}

// Generator builds one resource bundle per call. It owns the renderers
// and the clock; the catalog client is shared across runs, collectors
// and their caches are not.
type Generator struct {
	client *catalog.Client

	// Progress is optional; nil means no progress reporting.
	Progress ProgressFunc

	// now is swapped out in tests for deterministic filenames.
	now func() time.Time

	titleRenderer   *render.Renderer
	issueRenderer   *render.Renderer
	sectionRenderer *render.Renderer
}

func New(client *catalog.Client) *Generator {
	return &Generator{
		client:          client,
		now:             time.Now,
		titleRenderer:   render.MustNew("title", render.TitleRecord),
		issueRenderer:   render.MustNew("issue", render.IssueRecord),
		sectionRenderer: render.MustNew("section", render.SectionRecord),
	}
}

// Generate runs the full pipeline for one resource kind and returns the
// archive filename created under targetDir. Everything is collected and
// rendered before anything touches the filesystem, so a failed run
// deploys nothing.
func (g *Generator) Generate(ctx context.Context, resource, targetDir, collection string) (*Result, error) {
	var (
		coll     collector.Collector
		renderer *render.Renderer
	)

	switch resource {
	case "title":
		c := collector.NewTitle(g.client, collection)
		coll, renderer = c, g.titleRenderer
	case "issue":
		c := collector.NewIssue(g.client, collection)
		coll, renderer = c, g.issueRenderer
	case "section":
		c := collector.NewSection(g.client, collection)
		coll, renderer = c, g.sectionRenderer
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, resource)
	}

	if g.Progress != nil {
		if fp, ok := coll.(interface{ Fetcher() *catalog.Fetcher }); ok {
			fp.Fetcher().OnPage = func(offset, count int) {
				g.Progress("page_fetched", resource, map[string]any{"offset": offset, "count": count})
			}
		}
	}

	var records []collector.Record
	err := coll.Collect(ctx, func(rec collector.Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	text, err := renderer.RenderList(records)
	if err != nil {
		return nil, err
	}

	filename := g.filename(resource)
	pack := bundle.New(bundle.Item{Name: resource + ".id", Content: text})
	if err := pack.Deploy(filepath.Join(targetDir, filename)); err != nil {
		return nil, err
	}

	return &Result{Filename: filename, Records: len(records)}, nil
}

// filename builds <prefix>-YYYYMMDD-HH:MM:SS:micros.tar.
func (g *Generator) filename(prefix string) string {
	now := g.now()
	return fmt.Sprintf("%s-%s:%06d.tar", prefix, now.Format("20060102-15:04:05"), now.Nanosecond()/1000)
}
