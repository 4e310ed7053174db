// Package search implements exact-match and ranked retrieval over a catalog.
package search

import (
	"fmt"
	"sort"
	"strings"

	"restaurant-agent/internal/catalog"
	"restaurant-agent/internal/models"
)

// DefaultLimit bounds ranked results when the query sets no limit.
const DefaultLimit = 5

// Engine is stateless apart from its catalog handle and is safe for
// concurrent use.
type Engine struct {
	catalog      *catalog.Catalog
	defaultLimit int
}

type Option func(*Engine)

// WithDefaultLimit overrides DefaultLimit. Non-positive values are ignored.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

func NewEngine(c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: c, defaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Search dispatches on mode. An empty mode means ranked.
func (e *Engine) Search(mode models.SearchMode, q models.SearchQuery) ([]models.Restaurant, error) {
	switch mode {
	case models.SearchModeRanked, "":
		return e.Ranked(q), nil
	case models.SearchModeExact:
		return e.ExactMatch(q), nil
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}

// ExactMatch returns every restaurant whose specified fields equal the query,
// in catalog order, without a limit.
func (e *Engine) ExactMatch(q models.SearchQuery) []models.Restaurant {
	out := []models.Restaurant{}
	e.catalog.Each(func(r models.Restaurant) bool {
		if Matches(q, r, models.SearchModeExact) {
			out = append(out, r)
		}
		return true
	})
	return out
}

// Ranked filters by thresholds, orders by Less and truncates to the query
// limit (or the default) after sorting. Restaurants tied on all three sort
// keys have no defined relative order.
func (e *Engine) Ranked(q models.SearchQuery) []models.Restaurant {
	limit := e.defaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	if limit <= 0 {
		return []models.Restaurant{}
	}

	candidates := []models.Restaurant{}
	e.catalog.Each(func(r models.Restaurant) bool {
		if Matches(q, r, models.SearchModeRanked) {
			candidates = append(candidates, r)
		}
		return true
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return Less(candidates[i], candidates[j])
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// Less orders by distance ascending, then rating descending, then price ascending.
func Less(a, b models.Restaurant) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.Price < b.Price
}

const (
	noResultsSummary = "I couldn't find any restaurants matching your criteria."
	resultsHeader    = "I found the following restaurants for you:"
)

// Summarize renders results as the agent's reply text.
func Summarize(restaurants []models.Restaurant) string {
	if len(restaurants) == 0 {
		return noResultsSummary
	}

	var sb strings.Builder
	sb.WriteString(resultsHeader)
	for _, r := range restaurants {
		fmt.Fprintf(&sb, "\n- %s (Rating: %d, Distance: %d, Price: %d, Cuisine: %s)",
			r.Name, r.Rating, r.Distance, r.Price, r.Cuisine)
	}
	return sb.String()
}
