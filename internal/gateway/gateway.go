// Package gateway orchestrates the cache-or-fetch movie lookup flow:
// local store first, then provider search with bounded-concurrency
// detail enrichment and idempotent persistence.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/cinego/internal/catalog"
	"github.com/vmunix/cinego/pkg/omdb"
)

// Provider fetches movie metadata from the external service.
type Provider interface {
	Search(ctx context.Context, term string) ([]omdb.SearchResult, error)
	Detail(ctx context.Context, imdbID string) (*omdb.Movie, error)
}

// Store persists movie records.
type Store interface {
	FindByTitle(ctx context.Context, term string) ([]*catalog.Movie, error)
	Upsert(ctx context.Context, m *catalog.Movie) error
}

// Config holds lookup behavior settings.
type Config struct {
	// MaxConcurrency bounds how many detail fetches run at once.
	MaxConcurrency int
	// CacheTTL marks stored records older than this as stale.
	// Zero means records never go stale.
	CacheTTL time.Duration
}

// Gateway serves movie lookups from the store, falling back to the
// provider on a miss and persisting what it fetched.
type Gateway struct {
	store    Store
	provider Provider
	cfg      Config
	log      *slog.Logger
}

// New creates a lookup gateway.
func New(store Store, provider Provider, cfg Config, log *slog.Logger) *Gateway {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		store:    store,
		provider: provider,
		cfg:      cfg,
		log:      log,
	}
}

// Lookup returns all movie records matching query. A stored match is
// served without contacting the provider; otherwise the provider is
// searched, each candidate is enriched with full detail, and the
// results are upserted before being returned in candidate order.
func (g *Gateway) Lookup(ctx context.Context, query string) ([]*catalog.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	cached, err := g.store.FindByTitle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find by title: %w", err)
	}
	if len(cached) > 0 && g.fresh(cached) {
		g.log.Debug("cache hit", "query", query, "results", len(cached))
		return cached, nil
	}

	g.log.Debug("cache miss, querying provider", "query", query)

	candidates, err := g.provider.Search(ctx, query)
	if err != nil {
		var noResults *omdb.NoResultsError
		if errors.As(err, &noResults) {
			return nil, &NotFoundError{Message: noResults.Message}
		}
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(candidates) == 0 {
		return nil, &NotFoundError{Message: "Movie not found!"}
	}

	enriched, err := g.enrich(ctx, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]*catalog.Movie, 0, len(enriched))
	for _, m := range enriched {
		if m == nil {
			continue
		}
		if err := g.store.Upsert(ctx, m); err != nil {
			return nil, fmt.Errorf("persist %s: %w", m.IMDBID, err)
		}
		results = append(results, m)
	}

	g.log.Info("lookup resolved from provider",
		"query", query,
		"candidates", len(candidates),
		"returned", len(results),
	)
	return results, nil
}

// enrich fetches full detail for each candidate with bounded
// concurrency. The returned slice is candidate-ordered; a slot is nil
// when that candidate's fetch failed. All candidates failing means the
// provider is down and fails the lookup.
func (g *Gateway) enrich(ctx context.Context, candidates []omdb.SearchResult) ([]*catalog.Movie, error) {
	enriched := make([]*catalog.Movie, len(candidates))
	var failed atomic.Int64

	grp := &errgroup.Group{}
	grp.SetLimit(g.cfg.MaxConcurrency)

	for i, c := range candidates {
		grp.Go(func() error {
			movie, err := g.provider.Detail(ctx, c.IMDBID)
			if err != nil {
				// One bad candidate degrades the result set, it
				// doesn't abort the batch.
				failed.Add(1)
				g.log.Warn("detail fetch failed", "imdb_id", c.IMDBID, "error", err)
				return nil
			}
			enriched[i] = recordFromDetail(movie)
			return nil
		})
	}
	_ = grp.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed.Load() == int64(len(candidates)) {
		return nil, fmt.Errorf("enrich %d candidates: %w", len(candidates), ErrProviderUnavailable)
	}
	return enriched, nil
}

// fresh reports whether every record is within the cache TTL. A partly
// stale match is treated as a miss so the whole result set gets
// refetched together.
func (g *Gateway) fresh(records []*catalog.Movie) bool {
	if g.cfg.CacheTTL <= 0 {
		return true
	}
	cutoff := time.Now().Add(-g.cfg.CacheTTL)
	for _, m := range records {
		if m.FetchedAt.Before(cutoff) {
			return false
		}
	}
	return true
}

func recordFromDetail(m *omdb.Movie) *catalog.Movie {
	return &catalog.Movie{
		IMDBID:   m.IMDBID,
		Title:    m.Title,
		Year:     m.Year,
		Genre:    m.Genre,
		Plot:     m.Plot,
		Director: m.Director,
		Poster:   m.Poster,
		Rating:   m.Rating,
	}
}
