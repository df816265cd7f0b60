package internal

import (
	"context"
	"fmt"
	"time"
)

// CatalogSource fetches the format catalog
type CatalogSource interface {
	SupportedFormats(ctx context.Context) (Catalog, error)
}

// FetchCatalog fetches the catalog and resolves the entry for t. Any failure,
// including a response without t, is reported as CatalogUnavailableError.
func FetchCatalog(ctx context.Context, source CatalogSource, t ConversionType) (Catalog, FormatEntry, error) {
	catalog, err := source.SupportedFormats(ctx)
	if err != nil {
		return nil, FormatEntry{}, &CatalogUnavailableError{ConversionType: t, Err: err}
	}
	entry, err := catalog.Entry(t)
	if err != nil {
		return catalog, FormatEntry{}, err
	}
	return catalog, entry, nil
}

// CachedCatalog serves the catalog from a CatalogStore while it is younger than TTL
type CachedCatalog struct {
	source  CatalogSource
	store   *CatalogStore
	ttl     time.Duration
	refresh bool
	now     func() time.Time
}

// NewCachedCatalog wraps source with store. refresh forces a re-fetch on first use.
func NewCachedCatalog(source CatalogSource, store *CatalogStore, ttl time.Duration, refresh bool) *CachedCatalog {
	return &CachedCatalog{
		source:  source,
		store:   store,
		ttl:     ttl,
		refresh: refresh,
		now:     time.Now,
	}
}

// SupportedFormats returns the cached catalog when fresh, otherwise fetches and stores it.
func (c *CachedCatalog) SupportedFormats(ctx context.Context) (Catalog, error) {
	if c.store != nil && !c.refresh && c.ttl > 0 {
		catalog, fetchedAt, err := c.store.Load()
		switch {
		case err != nil:
			LogWarn("Failed to read catalog cache: %v", err)
		case catalog != nil && c.now().Sub(fetchedAt) < c.ttl:
			LogDebug("Loaded catalog from cache (fetched %s)", fetchedAt.Format(time.RFC3339))
			return catalog, nil
		}
	}

	catalog, err := c.source.SupportedFormats(ctx)
	if err != nil {
		return nil, err
	}
	c.refresh = false

	if c.store != nil {
		if err := c.store.Save(catalog, c.now()); err != nil {
			LogWarn("Failed to cache catalog: %v", err)
		} else {
			LogDebug("Cached catalog with %d conversion type(s)", len(catalog))
		}
	}
	return catalog, nil
}

// DescribeEntry renders "in: a, b -> out: c, d" for listings.
func DescribeEntry(entry FormatEntry) string {
	return fmt.Sprintf("in: %s -> out: %s", joinOrDash(entry.InputFormats), joinOrDash(entry.OutputFormats))
}

func joinOrDash(formats []string) string {
	if len(formats) == 0 {
		return "-"
	}
	out := formats[0]
	for _, f := range formats[1:] {
		out += ", " + f
	}
	return out
}
