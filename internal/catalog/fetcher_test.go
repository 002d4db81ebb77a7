package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// pagedCatalog serves a journals list of n items split into pages of
// ItemsPerRequest, marking every item whose index is in trashed as
// soft-deleted.
func pagedCatalog(t *testing.T, n int, trashed map[int]bool) (*httptest.Server, *int) {
	t.Helper()
	fetches := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/journals/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fetches++

		var offset, limit int
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)

		objects := make([]map[string]any, 0, limit)
		for i := offset; i < offset+limit && i < n; i++ {
			objects = append(objects, map[string]any{
				"id":         i,
				"is_trashed": trashed[i],
			})
		}

		var next *string
		if offset+limit < n {
			u := "/journals/?offset=next"
			next = &u
		}

		resp := map[string]any{
			"objects": objects,
			"meta":    map[string]any{"next": next},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &fetches
}

func TestFetcherWalksAllPages(t *testing.T) {
	srv, fetches := pagedCatalog(t, 120, nil)

	client := NewClient(srv.URL, "", "")
	f := NewFetcher(client, "journals", "")
	f.sleep = func(time.Duration) { t.Fatal("unexpected sleep") }

	var got int
	err := f.Each(context.Background(), func(Record) error {
		got++
		return nil
	})
	if err != nil {
		t.Fatalf("each returned error: %v", err)
	}
	if got != 120 {
		t.Fatalf("got %d records, want 120", got)
	}
	if *fetches != 3 {
		t.Fatalf("got %d page fetches, want 3", *fetches)
	}
}

func TestFetcherDropsTrashedWithoutShiftingOffsets(t *testing.T) {
	trashed := map[int]bool{3: true, 51: true, 52: true}
	srv, fetches := pagedCatalog(t, 120, trashed)

	client := NewClient(srv.URL, "", "")
	f := NewFetcher(client, "journals", "")

	var got int
	var offsets []int
	f.OnPage = func(offset, count int) { offsets = append(offsets, offset) }

	err := f.Each(context.Background(), func(rec Record) error {
		if v, _ := rec["is_trashed"].(bool); v {
			t.Fatal("trashed record leaked through")
		}
		got++
		return nil
	})
	if err != nil {
		t.Fatalf("each returned error: %v", err)
	}
	if got != 117 {
		t.Fatalf("got %d records, want 117", got)
	}
	if *fetches != 3 {
		t.Fatalf("got %d page fetches, want 3", *fetches)
	}
	for i, off := range offsets {
		if off != i*ItemsPerRequest {
			t.Fatalf("offset %d at page %d, want %d", off, i, i*ItemsPerRequest)
		}
	}
}

// flakyDoer fails the first n requests at transport level, then hands
// off to a real client.
type flakyDoer struct {
	failures int
	calls    int
	next     HTTPDoer
}

func (d *flakyDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.calls <= d.failures {
		return nil, errors.New("connection refused")
	}
	return d.next.Do(req)
}

func TestFetcherRetriesWithLinearBackoff(t *testing.T) {
	srv, _ := pagedCatalog(t, 10, nil)

	client := NewClient(srv.URL, "", "")
	client.HTTP = &flakyDoer{failures: 2, next: http.DefaultClient}

	f := NewFetcher(client, "journals", "")
	var slept []time.Duration
	f.sleep = func(d time.Duration) { slept = append(slept, d) }

	var got int
	if err := f.Each(context.Background(), func(Record) error { got++; return nil }); err != nil {
		t.Fatalf("each returned error: %v", err)
	}
	if got != 10 {
		t.Fatalf("got %d records, want 10", got)
	}

	want := []time.Duration{0, 5 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("slept %v, want %v", slept, want)
		}
	}
}

func TestFetcherFailsAfterRetryBudget(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", "")
	client.HTTP = &flakyDoer{failures: 11, next: http.DefaultClient}

	f := NewFetcher(client, "journals", "")
	var slept []time.Duration
	f.sleep = func(d time.Duration) { slept = append(slept, d) }

	err := f.Each(context.Background(), func(Record) error { return nil })
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("got %v, want ErrResourceUnavailable", err)
	}
	if len(slept) != 10 {
		t.Fatalf("slept %d times, want 10", len(slept))
	}
}

func TestFetcherSuccessResetsRetryCounter(t *testing.T) {
	// one failure before each of the two pages: both must be retried
	// from a clean counter.
	n := 60
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		var offset int
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)

		objects := make([]map[string]any, 0)
		for i := offset; i < offset+ItemsPerRequest && i < n; i++ {
			objects = append(objects, map[string]any{"id": i})
		}
		var next *string
		if offset+ItemsPerRequest < n {
			u := "more"
			next = &u
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"objects": objects,
			"meta":    map[string]any{"next": next},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	doer := &againAndAgain{next: http.DefaultClient}
	client.HTTP = doer

	f := NewFetcher(client, "journals", "")
	var slept []time.Duration
	f.sleep = func(d time.Duration) { slept = append(slept, d) }

	var got int
	if err := f.Each(context.Background(), func(Record) error { got++; return nil }); err != nil {
		t.Fatalf("each returned error: %v", err)
	}
	if got != 60 {
		t.Fatalf("got %d records, want 60", got)
	}
	// counter reset after the first page: the second failure waits 0s
	// again instead of escalating.
	want := []time.Duration{0, 0}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Fatalf("slept %v, want %v", slept, want)
	}
}

// againAndAgain fails every odd-numbered request.
type againAndAgain struct {
	calls int
	next  HTTPDoer
}

func (d *againAndAgain) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.calls%2 == 1 {
		return nil, errors.New("connection reset")
	}
	return d.next.Do(req)
}

func TestFetcherDoesNotRetryBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	f := NewFetcher(client, "journals", "")
	f.sleep = func(time.Duration) { t.Fatal("unexpected sleep") }

	err := f.Each(context.Background(), func(Record) error { return nil })
	if err == nil || errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("got %v, want a non-retried status error", err)
	}
}

func TestRefID(t *testing.T) {
	cases := []struct {
		ref  string
		want string
		ok   bool
	}{
		{"/api/v1/journals/2647/", "2647", true},
		{"/api/v1/users/1", "1", true},
		{"70", "70", true},
		{"", "", false},
		{"///", "", false},
	}
	for _, tc := range cases {
		got, err := RefID(tc.ref)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("RefID(%q) = %q, %v; want %q", tc.ref, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrBadReference) {
			t.Fatalf("RefID(%q) err = %v, want ErrBadReference", tc.ref, err)
		}
	}
}
