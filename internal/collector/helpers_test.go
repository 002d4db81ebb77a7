package collector

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bundlegen/internal/catalog"
)

// fakeCatalog serves detail endpoints from a fixed map and, when list
// is non-nil, a single-page journals/issues listing.
type fakeCatalog struct {
	details map[string]Record
	list    map[string][]Record
}

func (f *fakeCatalog) start(t *testing.T) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.Trim(r.URL.Path, "/")

		if objects, ok := f.list[key]; ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"objects": objects,
				"meta":    map[string]any{"next": nil},
			})
			return
		}
		if rec, ok := f.details[key]; ok {
			_ = json.NewEncoder(w).Encode(rec)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return catalog.NewClient(srv.URL, "", "")
}

// roundTrip pushes a record through JSON so its values carry the types
// a real catalog response would have (float64 numbers, []any lists).
func roundTrip(t *testing.T, rec Record) Record {
	t.Helper()
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}
