// Package collector turns raw catalog records into flat, fully
// denormalized records ready for legacy rendering. Three collectors
// exist, one per resource bundle kind, sharing the paginated fetcher
// and the memoized reference resolver.
package collector

import (
	"context"
	"fmt"
	"strconv"

	"bundlegen/internal/catalog"
)

// Record is a denormalized record, field name to value.
type Record = catalog.Record

// Collector walks one catalog collection and emits denormalized
// records in catalog order.
type Collector interface {
	// Resource names the bundle kind this collector produces.
	Resource() string

	// Collect visits every record. A record that cannot be
	// denormalized aborts the walk; no skip-and-continue.
	Collect(ctx context.Context, fn func(Record) error) error
}

// LangGroup is an ordered grouping of values by language. Languages
// appear in first-seen order, values keep their source order within a
// language. A slice is used instead of a map so the order survives
// rendering.
type LangGroup struct {
	Language string   `json:"language"`
	Titles   []string `json:"titles"`
}

// base bundles the fetch and resolve plumbing every collector needs.
type base struct {
	fetcher  *catalog.Fetcher
	resolver *catalog.Resolver
}

func newBase(client *catalog.Client, endpoint, collection string) base {
	return base{
		fetcher:  catalog.NewFetcher(client, endpoint, collection),
		resolver: catalog.NewResolver(client),
	}
}

// Fetcher exposes the underlying page fetcher, mainly so callers can
// attach a page progress hook.
func (b *base) Fetcher() *catalog.Fetcher { return b.fetcher }

// stringField reads a required string field; absence is a malformed
// record and fails the run.
func stringField(rec Record, name string) (string, error) {
	v, ok := rec[name]
	if !ok {
		return "", fmt.Errorf("record has no field %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, want string", name, v)
	}
	return s, nil
}

// optString reads an optional field, reporting it present only when it
// is a non-empty string.
func optString(rec Record, name string) (string, bool) {
	s, ok := rec[name].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// listField reads a required list field.
func listField(rec Record, name string) ([]any, error) {
	v, ok := rec[name]
	if !ok {
		return nil, fmt.Errorf("record has no field %q", name)
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is %T, want list", name, v)
	}
	return l, nil
}

// denseDate compacts an ISO-ish timestamp: the first ten characters
// with the hyphens removed, e.g. 2012-07-18T17:47:09.5 -> 20120718.
func denseDate(s string) string {
	if len(s) > 10 {
		s = s[:10]
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// denseDateField rewrites a timestamp field in place.
func denseDateField(rec Record, name string) error {
	s, err := stringField(rec, name)
	if err != nil {
		return err
	}
	rec[name] = denseDate(s)
	return nil
}

// intField coerces a numeric field to int. JSON numbers decode as
// float64, so both are accepted.
func intField(rec Record, name string) (int, bool) {
	switch n := rec[name].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// numString renders a scalar the way the legacy records expect:
// whole numbers without an exponent or decimal point.
func numString(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
