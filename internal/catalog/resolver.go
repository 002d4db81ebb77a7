package catalog

import (
	"context"
	"fmt"
)

// Resolver answers "what is field X of resource Y" questions against
// detail endpoints, memoizing per (endpoint, id) so the same resource is
// fetched over the network at most once per Resolver lifetime. One
// Resolver belongs to one collection run and is not shared.
//
// A single-slot cache of the last fetched resource sits in front of the
// field memo to speed up bursts of lookups on one resource; it holds at
// most one entry.
type Resolver struct {
	client *Client

	// memo holds fields already resolved, keyed endpoint -> id -> field.
	memo map[string]map[string]map[string]any

	lastKey string
	last    Record
}

func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		memo:   make(map[string]map[string]map[string]any),
	}
}

// Resolve returns one field of the resource at endpoint/id. A resource
// that cannot be fetched or that lacks the field fails the lookup; no
// stale or partial value is substituted.
func (r *Resolver) Resolve(ctx context.Context, endpoint, id, field string) (any, error) {
	fields := r.fieldsFor(endpoint, id)
	if v, ok := fields[field]; ok {
		return v, nil
	}

	rec, err := r.fetch(ctx, endpoint, id)
	if err != nil {
		return nil, err
	}
	v, ok := rec[field]
	if !ok {
		return nil, fmt.Errorf("resolve %s/%s: no field %q", endpoint, id, field)
	}
	fields[field] = v
	return v, nil
}

// ResolveFields resolves several fields of one resource. The field memo
// and the last-resource slot guarantee a single fetch however many
// fields are asked for.
func (r *Resolver) ResolveFields(ctx context.Context, endpoint, id string, fields ...string) (Record, error) {
	out := make(Record, len(fields))
	for _, field := range fields {
		v, err := r.Resolve(ctx, endpoint, id, field)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

func (r *Resolver) fieldsFor(endpoint, id string) map[string]any {
	byID, ok := r.memo[endpoint]
	if !ok {
		byID = make(map[string]map[string]any)
		r.memo[endpoint] = byID
	}
	fields, ok := byID[id]
	if !ok {
		fields = make(map[string]any)
		byID[id] = fields
	}
	return fields
}

func (r *Resolver) fetch(ctx context.Context, endpoint, id string) (Record, error) {
	key := endpoint + "-" + id
	if r.lastKey == key && r.last != nil {
		return r.last, nil
	}

	rec, err := r.client.FetchResource(ctx, endpoint, id)
	if err != nil {
		return nil, err
	}

	// the slot holds one resource at a time
	r.lastKey = key
	r.last = rec
	return rec, nil
}
