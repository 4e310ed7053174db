// internal/workers/catalog/search-restaurants/models.go
package searchrestaurants

import "restaurant-agent/internal/models"

type Input struct {
	Query models.SearchQuery `json:"query"`
	Mode  models.SearchMode  `json:"mode"`
}

type Output struct {
	Restaurants   []models.Restaurant `json:"restaurants"`
	RestaurantIDs []int               `json:"restaurantIds"`
	Count         int                 `json:"count"`
}
