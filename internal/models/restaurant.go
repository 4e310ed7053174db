// internal/models/restaurant.go
package models

// Restaurant is an immutable catalog entry. Higher Rating is better; lower
// Distance and Price are better.
type Restaurant struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Distance  int    `json:"distance"`
	Price     int    `json:"price"`
	CuisineID int    `json:"cuisineId"`
	Cuisine   string `json:"cuisine"`
}

// Cuisine is a row of the cuisine-name table.
type Cuisine struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UnknownCuisine is used when a restaurant references a cuisine id the table does not contain.
const UnknownCuisine = "Unknown"

// IDs returns the identifiers of restaurants in slice order.
func IDs(restaurants []Restaurant) []int {
	ids := make([]int, 0, len(restaurants))
	for _, r := range restaurants {
		ids = append(ids, r.ID)
	}
	return ids
}
