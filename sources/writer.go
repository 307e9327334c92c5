package sources

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kova98/gigscout.api/data"
)

// ListingStore is the part of the listing repository the writer needs.
type ListingStore interface {
	ExistingURLs(ctx context.Context, urls []string) ([]string, error)
	InsertListings(ctx context.Context, listings []data.Listing) (int, error)
}

// Writer persists only listings whose external URL is not stored yet.
type Writer struct {
	store ListingStore
}

func NewWriter(store ListingStore) *Writer {
	return &Writer{store: store}
}

// Persist returns the number of listings actually inserted. Repeated URLs in
// the batch keep their first occurrence.
func (w *Writer) Persist(ctx context.Context, listings []data.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	batch := make([]data.Listing, 0, len(listings))
	urls := make([]string, 0, len(listings))
	inBatch := make(map[string]struct{}, len(listings))
	for _, l := range listings {
		if _, ok := inBatch[l.ExternalURL]; ok {
			continue
		}
		inBatch[l.ExternalURL] = struct{}{}
		batch = append(batch, l)
		urls = append(urls, l.ExternalURL)
	}

	existing, err := w.store.ExistingURLs(ctx, urls)
	if err != nil {
		return 0, errors.Wrap(err, "persist listings: existing urls")
	}
	stored := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		stored[u] = struct{}{}
	}

	fresh := make([]data.Listing, 0, len(batch))
	for _, l := range batch {
		if _, ok := stored[l.ExternalURL]; !ok {
			fresh = append(fresh, l)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	saved, err := w.store.InsertListings(ctx, fresh)
	if err != nil {
		return 0, errors.Wrap(err, "persist listings: insert")
	}
	return saved, nil
}
