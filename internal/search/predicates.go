package search

import (
	"strings"

	"restaurant-agent/internal/models"
)

// predicate reports whether r satisfies one field of q under mode. A nil
// query field always matches.
type predicate func(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool

// predicates is the single filter set shared by both modes.
var predicates = []predicate{
	matchName,
	matchRating,
	matchDistance,
	matchPrice,
	matchCuisine,
}

// Matches reports whether r satisfies every specified field of q under mode.
func Matches(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	for _, p := range predicates {
		if !p(q, r, mode) {
			return false
		}
	}
	return true
}

func matchName(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	if q.Name == nil {
		return true
	}
	if mode == models.SearchModeExact {
		return strings.EqualFold(r.Name, *q.Name)
	}
	return containsFold(r.Name, *q.Name)
}

func matchRating(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	if q.Rating == nil {
		return true
	}
	if mode == models.SearchModeExact {
		return r.Rating == *q.Rating
	}
	return r.Rating >= *q.Rating
}

func matchDistance(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	if q.Distance == nil {
		return true
	}
	if mode == models.SearchModeExact {
		return r.Distance == *q.Distance
	}
	return r.Distance <= *q.Distance
}

func matchPrice(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	if q.Price == nil {
		return true
	}
	if mode == models.SearchModeExact {
		return r.Price == *q.Price
	}
	return r.Price <= *q.Price
}

func matchCuisine(q models.SearchQuery, r models.Restaurant, mode models.SearchMode) bool {
	if q.Cuisine == nil {
		return true
	}
	if mode == models.SearchModeExact {
		return r.Cuisine == *q.Cuisine
	}
	return containsFold(r.Cuisine, *q.Cuisine)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
