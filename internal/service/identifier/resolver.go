package identifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/slug"
)

var ErrEmptySlug = errors.New("name has no characters usable in a slug")

// Resolver turns display names into stable identifiers.
type Resolver struct {
	categories repository.CategoryRepository
	cache      *cache.Cache
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewResolver caches resolved category ids for ttl. Categories are never
// deleted so a long ttl is safe.
func NewResolver(categories repository.CategoryRepository, ttl, cleanup time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		categories: categories,
		cache:      cache.New(ttl, cleanup),
		logger:     logger.With().Str("component", "identifier").Logger(),
		metrics:    m,
	}
}

func (r *Resolver) Slug(name string) string {
	return slug.Make(name)
}

// ResolveCategory returns the id of the category whose slug matches name,
// creating it if needed. A concurrent creator winning the insert is not an
// error: the winner's row is read back and used.
func (r *Resolver) ResolveCategory(ctx context.Context, name string) (uuid.UUID, error) {
	key := slug.Make(name)
	if key == "" {
		return uuid.Nil, fmt.Errorf("category %q: %w", name, ErrEmptySlug)
	}
	if id, ok := r.cache.Get(key); ok {
		return id.(uuid.UUID), nil
	}

	existing, err := r.categories.GetBySlug(ctx, key)
	switch {
	case err == nil:
		return r.remember(key, existing.ID), nil
	case !errors.Is(err, repository.ErrNotFound):
		return uuid.Nil, err
	}

	category := &model.Category{Name: name, Slug: key}
	err = r.categories.Create(ctx, category)
	if err == nil {
		return r.remember(key, category.ID), nil
	}
	if !repository.IsConflict(err, repository.ConstraintCategorySlug) {
		return uuid.Nil, err
	}

	r.logger.Debug().Str("slug", key).Msg("Category created concurrently, reading winner")
	if r.metrics != nil {
		r.metrics.Conflicts.WithLabelValues(repository.ConstraintCategorySlug).Inc()
	}
	winner, err := r.categories.GetBySlug(ctx, key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read category after conflict: %w", err)
	}
	return r.remember(key, winner.ID), nil
}

func (r *Resolver) remember(key string, id uuid.UUID) uuid.UUID {
	r.cache.SetDefault(key, id)
	return id
}
