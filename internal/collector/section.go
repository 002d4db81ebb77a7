package collector

import (
	"context"
	"fmt"

	"bundlegen/internal/catalog"
)

// Section denormalizes the section taxonomy of each journal. It walks
// the same journal collection as Title but keeps only the section
// structure, so sponsor, creator and status history fields are dropped
// outright.
type Section struct {
	base
}

func NewSection(client *catalog.Client, collection string) *Section {
	return &Section{base: newBase(client, "journals", collection)}
}

func (s *Section) Resource() string { return "section" }

func (s *Section) Collect(ctx context.Context, fn func(Record) error) error {
	return s.fetcher.Each(ctx, func(obj Record) error {
		rec, err := s.transform(ctx, obj)
		if err != nil {
			return fmt.Errorf("section record: %w", err)
		}
		return fn(rec)
	})
}

func (s *Section) transform(ctx context.Context, obj Record) (Record, error) {
	delete(obj, "collections")
	delete(obj, "issues")
	delete(obj, "resource_uri")
	delete(obj, "sponsors")
	delete(obj, "creator")
	delete(obj, "pub_status_history")

	raw, err := listField(obj, "sections")
	if err != nil {
		return nil, err
	}

	sections := make([]Record, 0, len(raw))
	for _, ref := range raw {
		str, ok := ref.(string)
		if !ok {
			return nil, fmt.Errorf("section reference is %T, want string", ref)
		}
		id, err := catalog.RefID(str)
		if err != nil {
			return nil, err
		}
		resolved, err := s.resolver.ResolveFields(ctx, "sections", id, "id", "code", "titles")
		if err != nil {
			return nil, err
		}
		sections = append(sections, resolved)
	}
	obj["sections"] = sections

	return obj, nil
}
