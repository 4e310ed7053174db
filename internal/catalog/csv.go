package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

// CSVSource reads restaurants.csv (id,name,customer_rating,distance,price,cuisine_id)
// and cuisines.csv (id,name). Both files start with a header row.
type CSVSource struct {
	RestaurantsPath string
	CuisinesPath    string
	logger          logger.Logger
}

func NewCSVSource(restaurantsPath, cuisinesPath string, log logger.Logger) *CSVSource {
	return &CSVSource{
		RestaurantsPath: restaurantsPath,
		CuisinesPath:    cuisinesPath,
		logger:          log.With(map[string]interface{}{"component": "catalog.csv"}),
	}
}

func (s *CSVSource) Name() string { return "csv" }

func (s *CSVSource) Load(ctx context.Context) ([]models.Restaurant, error) {
	cf, err := os.Open(s.CuisinesPath)
	if err != nil {
		return nil, fmt.Errorf("open cuisines: %w", err)
	}
	defer cf.Close()

	cuisines, err := ParseCuisines(cf, s.logger)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rf, err := os.Open(s.RestaurantsPath)
	if err != nil {
		return nil, fmt.Errorf("open restaurants: %w", err)
	}
	defer rf.Close()

	return ParseRestaurants(rf, cuisines, s.logger)
}

// ParseCuisines reads the cuisine table into an id → name map.
func ParseCuisines(r io.Reader, log logger.Logger) (map[int]string, error) {
	out := map[int]string{}
	err := eachRow(r, func(line int, parts []string) {
		if len(parts) < 2 {
			skipRow(log, "cuisines", line, "not enough columns")
			return
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			skipRow(log, "cuisines", line, "invalid number format")
			return
		}
		out[id] = parts[1]
	})
	if err != nil {
		return nil, fmt.Errorf("read cuisines: %w", err)
	}
	return out, nil
}

// ParseRestaurants reads restaurant rows, resolving cuisine ids against
// cuisines. Malformed rows are logged and skipped.
func ParseRestaurants(r io.Reader, cuisines map[int]string, log logger.Logger) ([]models.Restaurant, error) {
	var out []models.Restaurant
	err := eachRow(r, func(line int, parts []string) {
		if len(parts) < 6 {
			skipRow(log, "restaurants", line, "not enough columns")
			return
		}

		nums := make([]int, 0, 5)
		for _, idx := range []int{0, 2, 3, 4, 5} {
			n, err := strconv.Atoi(parts[idx])
			if err != nil {
				skipRow(log, "restaurants", line, "invalid number format")
				return
			}
			nums = append(nums, n)
		}

		cuisine, ok := cuisines[nums[4]]
		if !ok {
			cuisine = models.UnknownCuisine
		}

		out = append(out, models.Restaurant{
			ID:        nums[0],
			Name:      parts[1],
			Rating:    nums[1],
			Distance:  nums[2],
			Price:     nums[3],
			CuisineID: nums[4],
			Cuisine:   cuisine,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read restaurants: %w", err)
	}
	return out, nil
}

// eachRow skips the header and blank lines and hands trimmed fields to fn
// along with the 1-based line number.
func eachRow(r io.Reader, fn func(line int, parts []string)) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		parts := strings.Split(text, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		fn(line, parts)
	}
	return scanner.Err()
}

func skipRow(log logger.Logger, table string, line int, reason string) {
	metrics.CatalogRowsSkipped.WithLabelValues("csv").Inc()
	log.Warn("skipping malformed catalog row", map[string]interface{}{
		"table":  table,
		"line":   line,
		"reason": reason,
	})
}
