// internal/models/query.go
package models

// SearchQuery is a caller-supplied filter set. A nil field imposes no constraint.
type SearchQuery struct {
	Name     *string `json:"name,omitempty"`
	Rating   *int    `json:"rating,omitempty"`
	Distance *int    `json:"distance,omitempty"`
	Price    *int    `json:"price,omitempty"`
	Cuisine  *string `json:"cuisine,omitempty"`
	Limit    *int    `json:"limit,omitempty"`
}

// SearchMode selects the retrieval policy of the search engine.
type SearchMode string

const (
	SearchModeRanked SearchMode = "ranked"
	SearchModeExact  SearchMode = "exact"
)

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
