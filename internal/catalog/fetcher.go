package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	// ItemsPerRequest is the fixed list page size.
	ItemsPerRequest = 50

	// MaxRetries is how many consecutive connection failures are
	// tolerated before a page fetch is declared permanently failed.
	MaxRetries = 10

	// BackoffStep is the linear backoff unit: before retry N the
	// fetcher sleeps N*BackoffStep.
	BackoffStep = 5 * time.Second
)

// ErrResourceUnavailable is returned once the retry budget for a page
// fetch is exhausted. It wraps the last connection error.
var ErrResourceUnavailable = errors.New("catalog: resource unavailable")

// Fetcher iterates a list endpoint page by page, retrying transient
// connection failures and dropping soft-deleted records. Offsets always
// advance by the page size, independent of how many records survive the
// trashed filter.
type Fetcher struct {
	Client     *Client
	Endpoint   string
	Collection string

	// OnPage, when set, is called after each successful page fetch
	// with the page offset and the number of raw objects returned.
	OnPage func(offset, count int)

	// sleep is swapped out in tests to avoid real waits.
	sleep func(time.Duration)
}

func NewFetcher(client *Client, endpoint, collection string) *Fetcher {
	return &Fetcher{
		Client:     client,
		Endpoint:   endpoint,
		Collection: collection,
		sleep:      time.Sleep,
	}
}

// Each visits every non-trashed record of the endpoint in catalog order.
// A non-nil error from fn aborts the iteration and is returned as is.
func (f *Fetcher) Each(ctx context.Context, fn func(Record) error) error {
	offset := 0
	errCount := 0

	for {
		page, err := f.Client.FetchPage(ctx, f.Endpoint, offset, ItemsPerRequest, f.Collection)
		if err != nil {
			if !errors.Is(err, ErrConnection) {
				return err
			}
			if errCount >= MaxRetries {
				log.Printf("[catalog] giving up on %s after %d attempts: %v", f.Endpoint, errCount+1, err)
				return fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
			}
			wait := time.Duration(errCount) * BackoffStep
			log.Printf("[catalog] connection to %s failed, waiting %s to retry", f.Endpoint, wait)
			f.sleep(wait)
			errCount++
			continue
		}

		if f.OnPage != nil {
			f.OnPage(offset, len(page.Objects))
		}

		for _, obj := range page.Objects {
			if trashed, _ := obj["is_trashed"].(bool); trashed {
				continue
			}
			if err := fn(obj); err != nil {
				return err
			}
		}

		if !page.HasNext {
			return nil
		}
		offset += ItemsPerRequest
		errCount = 0
	}
}
