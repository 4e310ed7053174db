// Package catalogtest provides a small fixed catalog for tests.
package catalogtest

import (
	"restaurant-agent/internal/catalog"
	"restaurant-agent/internal/models"
)

// Restaurants returns the fixture rows in load order.
func Restaurants() []models.Restaurant {
	return []models.Restaurant{
		{ID: 1, Name: "Deliciousgenix", Rating: 4, Distance: 1, Price: 10, CuisineID: 1, Cuisine: "Spanish"},
		{ID: 2, Name: "Cuts Delicious", Rating: 3, Distance: 9, Price: 25, CuisineID: 2, Cuisine: "Korean"},
		{ID: 3, Name: "Fine Delicious", Rating: 4, Distance: 5, Price: 45, CuisineID: 3, Cuisine: "Italian"},
		{ID: 4, Name: "Local Delicious", Rating: 5, Distance: 4, Price: 20, CuisineID: 4, Cuisine: "Greek"},
		{ID: 5, Name: "Deliciouszilla", Rating: 4, Distance: 1, Price: 15, CuisineID: 5, Cuisine: "Chinese"},
		{ID: 6, Name: "Wish Chow", Rating: 3, Distance: 1, Price: 40, CuisineID: 6, Cuisine: "American"},
	}
}

func Catalog() *catalog.Catalog {
	return catalog.New(Restaurants())
}
