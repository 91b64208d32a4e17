// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/ihm-report/internal/cache"
)

// Kind names a metric record in the cache.
type Kind string

const (
	KindComposition    Kind = "composition"
	KindGeometry       Kind = "geometry"
	KindExcludedVolume Kind = "excluded_volume"
	KindSASData        Kind = "sas_data"
	KindSASFit         Kind = "sas_fit"
	KindCrossLink      Kind = "crosslink"
)

// Cache is the subset of the cache store the stages use.
type Cache interface {
	Get(ctx context.Context, key cache.Key, out any) (bool, error)
	Put(ctx context.Context, key cache.Key, v any) error
}

// Cached returns the record of the given kind for p. When useCache is true
// and the cache holds a record for the same entry and digest, load is not
// called. Freshly loaded records are written back whenever c is non-nil,
// so a run with the cache disabled still refreshes it.
func Cached[T any](ctx context.Context, c Cache, useCache bool, p Provider, kind Kind, w io.Writer, load func(context.Context) (T, error)) (T, error) {
	var zero T
	key := cache.Key{EntryID: p.EntryID(), Kind: string(kind), Digest: p.Digest()}

	if c != nil && useCache {
		var v T
		ok, err := c.Get(ctx, key, &v)
		if err != nil {
			return zero, err
		}
		if ok {
			fmt.Fprintf(w, "  %s: cached\n", kind)
			return v, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		return zero, fmt.Errorf("loading %s metrics: %w", kind, err)
	}
	fmt.Fprintf(w, "  %s: loaded\n", kind)

	if c != nil {
		if err := c.Put(ctx, key, v); err != nil {
			return zero, err
		}
	}
	return v, nil
}
