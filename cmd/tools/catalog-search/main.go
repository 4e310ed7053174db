// cmd/tools/catalog-search/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"restaurant-agent/internal/catalog"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/search"
)

func main() {
	restaurantsPath := flag.String("restaurants", "data/restaurants.csv", "Path to restaurants CSV")
	cuisinesPath := flag.String("cuisines", "data/cuisines.csv", "Path to cuisines CSV")
	name := flag.String("name", "", "Restaurant name fragment")
	rating := flag.Int("rating", -1, "Minimum customer rating (1-5)")
	distance := flag.Int("distance", -1, "Maximum distance in miles")
	price := flag.Int("price", -1, "Maximum average price")
	cuisine := flag.String("cuisine", "", "Cuisine name fragment")
	limit := flag.Int("limit", -1, "Maximum number of results")
	exact := flag.Bool("exact", false, "Use exact-match mode instead of ranked search")
	asJSON := flag.Bool("json", false, "Print results as JSON")
	verbose := flag.Bool("v", false, "Log skipped catalog rows")
	flag.Parse()

	log := logger.NewNoOpLogger()
	if *verbose {
		log = logger.NewStructured("debug", "console")
	}

	cat, err := catalog.Load(context.Background(), catalog.NewCSVSource(*restaurantsPath, *cuisinesPath, log), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	query := models.SearchQuery{
		Name:     optionalString(*name),
		Rating:   optionalInt(*rating),
		Distance: optionalInt(*distance),
		Price:    optionalInt(*price),
		Cuisine:  optionalString(*cuisine),
		Limit:    optionalInt(*limit),
	}

	mode := models.SearchModeRanked
	if *exact {
		mode = models.SearchModeExact
	}

	results, err := search.NewEngine(cat).Search(mode, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding results: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(search.Summarize(results))
}

// -1 marks a numeric flag as unset.
func optionalInt(v int) *int {
	if v < 0 {
		return nil
	}
	return models.IntPtr(v)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return models.StringPtr(v)
}
