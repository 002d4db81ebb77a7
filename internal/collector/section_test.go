package collector

import (
	"context"
	"testing"
)

func TestSectionTransform(t *testing.T) {
	fake := &fakeCatalog{
		details: map[string]Record{
			"sections/10": {
				"id":   10,
				"code": "RSP-ORIG",
				"titles": []any{
					[]any{"en", "Original Articles"},
				},
			},
			"sections/11": {
				"id":     11,
				"code":   "RSP-REV",
				"titles": []any{[]any{"en", "Reviews"}},
			},
		},
	}

	raw := roundTrip(t, Record{
		"title":              "Revista de Saúde Pública",
		"collections":        []any{"/api/v1/collections/1/"},
		"issues":             []any{"/api/v1/issues/1/"},
		"resource_uri":       "/api/v1/journals/70/",
		"sponsors":           []any{"/api/v1/sponsors/1/"},
		"creator":            "/api/v1/users/1/",
		"pub_status_history": []any{},
		"sections":           []any{"/api/v1/sections/10/", "/api/v1/sections/11/"},
	})

	c := NewSection(fake.start(t), "")
	rec, err := c.transform(context.Background(), raw)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	for _, field := range []string{"collections", "issues", "resource_uri", "sponsors", "creator", "pub_status_history"} {
		if _, ok := rec[field]; ok {
			t.Fatalf("field %q should have been dropped", field)
		}
	}

	sections, ok := rec["sections"].([]Record)
	if !ok || len(sections) != 2 {
		t.Fatalf("sections = %v", rec["sections"])
	}
	if sections[0]["code"] != "RSP-ORIG" || sections[1]["code"] != "RSP-REV" {
		t.Fatalf("section order not preserved: %v", sections)
	}
	for i, s := range sections {
		if _, ok := s["id"]; !ok {
			t.Fatalf("section %d missing id", i)
		}
		if _, ok := s["titles"]; !ok {
			t.Fatalf("section %d missing titles", i)
		}
	}
}

func TestSectionCollectsFromJournalsEndpoint(t *testing.T) {
	fake := &fakeCatalog{
		details: map[string]Record{
			"sections/10": {"id": 10, "code": "X", "titles": []any{}},
		},
		list: map[string][]Record{
			"journals": {
				{
					"title":    "Rev",
					"sections": []any{"/api/v1/sections/10/"},
				},
				{
					"title":      "Trashed",
					"is_trashed": true,
					"sections":   []any{},
				},
			},
		},
	}

	c := NewSection(fake.start(t), "")
	var got []Record
	err := c.Collect(context.Background(), func(rec Record) error {
		got = append(got, rec)
		return nil
	})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("collected %d records, want 1", len(got))
	}
	if got[0]["title"] != "Rev" {
		t.Fatalf("record = %v", got[0])
	}
}
