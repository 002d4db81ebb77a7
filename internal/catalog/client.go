package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrConnection marks transport-level failures (DNS, refused connection,
// timeout). Only these are worth retrying; a bad status or a decode
// failure means the catalog answered and retrying won't change anything.
var ErrConnection = errors.New("catalog: connection failed")

// ErrBadReference is returned when a resource reference string has no
// usable identifier segment.
var ErrBadReference = errors.New("catalog: malformed resource reference")

// Record is one catalog object as decoded from JSON.
type Record = map[string]any

// Page is one batch of list results plus the continuation marker.
type Page struct {
	Objects []Record
	HasNext bool
}

// HTTPDoer is the part of *http.Client the catalog client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the REST catalog. List endpoints take offset/limit,
// detail endpoints take a single identifier. Credentials ride along as
// username/api_key query parameters on every request.
type Client struct {
	BaseURL  string
	Username string
	APIKey   string
	HTTP     HTTPDoer
}

func NewClient(baseURL, username, apiKey string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Username: strings.TrimSpace(username),
		APIKey:   strings.TrimSpace(apiKey),
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

type pageEnvelope struct {
	Objects []Record `json:"objects"`
	Meta    struct {
		Next *string `json:"next"`
	} `json:"meta"`
}

// FetchPage fetches one page of a list endpoint. collection is optional.
func (c *Client) FetchPage(ctx context.Context, endpoint string, offset, limit int, collection string) (Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if collection != "" {
		q.Set("collection", collection)
	}

	body, err := c.get(ctx, "/"+endpoint+"/", q)
	if err != nil {
		return Page{}, err
	}

	var env pageEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Page{}, fmt.Errorf("decode %s page: %w", endpoint, err)
	}

	return Page{
		Objects: env.Objects,
		HasNext: env.Meta.Next != nil && *env.Meta.Next != "",
	}, nil
}

// FetchResource fetches the full attribute set of one object from a
// detail endpoint.
func (c *Client) FetchResource(ctx context.Context, endpoint, id string) (Record, error) {
	body, err := c.get(ctx, "/"+endpoint+"/"+id+"/", nil)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", endpoint, id, err)
	}
	return rec, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	if c.Username != "" {
		q.Set("username", c.Username)
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}

	u := c.BaseURL + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrConnection, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnection, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned %d for %s", resp.StatusCode, path)
	}
	return body, nil
}

// RefID extracts the identifier from a reference string such as
// "/api/v1/journals/2647/": the last non-empty path segment.
func RefID(ref string) (string, error) {
	parts := strings.Split(strings.Trim(ref, "/"), "/")
	id := parts[len(parts)-1]
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return id, nil
}
