// Package catalog holds the read-only restaurant collection and the loaders
// that populate it.
package catalog

import (
	"context"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

// Catalog is an immutable snapshot. It is built once and may be shared by
// any number of goroutines without locking.
type Catalog struct {
	restaurants []models.Restaurant
	byID        map[int]int
}

// New copies restaurants into a new catalog. Later duplicates of an id are
// dropped so ids stay unique.
func New(restaurants []models.Restaurant) *Catalog {
	c := &Catalog{
		restaurants: make([]models.Restaurant, 0, len(restaurants)),
		byID:        make(map[int]int, len(restaurants)),
	}
	for _, r := range restaurants {
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		c.byID[r.ID] = len(c.restaurants)
		c.restaurants = append(c.restaurants, r)
	}
	return c
}

func (c *Catalog) Len() int { return len(c.restaurants) }

// All returns every restaurant in load order. The slice is a copy.
func (c *Catalog) All() []models.Restaurant {
	out := make([]models.Restaurant, len(c.restaurants))
	copy(out, c.restaurants)
	return out
}

// Each calls fn for every restaurant in load order without copying the
// collection; fn returning false stops the walk.
func (c *Catalog) Each(fn func(models.Restaurant) bool) {
	for _, r := range c.restaurants {
		if !fn(r) {
			return
		}
	}
}

func (c *Catalog) Get(id int) (models.Restaurant, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return models.Restaurant{}, false
	}
	return c.restaurants[idx], true
}

// Lookup resolves ids in the given order, skipping ids the catalog does not hold.
func (c *Catalog) Lookup(ids []int) []models.Restaurant {
	out := make([]models.Restaurant, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.Get(id); ok {
			out = append(out, r)
		}
	}
	return out
}

// Source produces catalog records from some backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.Restaurant, error)
}

// Load builds a catalog from src.
func Load(ctx context.Context, src Source, log logger.Logger) (*Catalog, error) {
	restaurants, err := src.Load(ctx)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(src.Name(), err)
	}

	c := New(restaurants)
	metrics.CatalogRestaurants.WithLabelValues(src.Name()).Set(float64(c.Len()))
	log.Info("catalog loaded", map[string]interface{}{
		"source":      src.Name(),
		"restaurants": c.Len(),
	})
	return c, nil
}
