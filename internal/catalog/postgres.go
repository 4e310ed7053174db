package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

const restaurantsQuery = `
SELECT r.id, r.name, r.customer_rating, r.distance, r.price, r.cuisine_id,
       COALESCE(c.name, 'Unknown')
FROM restaurants r
LEFT JOIN cuisines c ON c.id = r.cuisine_id
ORDER BY r.id`

// PostgresSource loads the catalog from the restaurants and cuisines tables.
type PostgresSource struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSource(db *sql.DB, log logger.Logger) *PostgresSource {
	return &PostgresSource{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "catalog.postgres"}),
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, restaurantsQuery)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	var out []models.Restaurant
	for rows.Next() {
		var (
			r         models.Restaurant
			name      sql.NullString
			rating    sql.NullInt64
			distance  sql.NullInt64
			price     sql.NullInt64
			cuisineID sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &name, &rating, &distance, &price, &cuisineID, &r.Cuisine); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		if !name.Valid || !rating.Valid || !distance.Valid || !price.Valid || !cuisineID.Valid {
			metrics.CatalogRowsSkipped.WithLabelValues("postgres").Inc()
			s.logger.Warn("skipping restaurant with null columns", map[string]interface{}{"id": r.ID})
			continue
		}

		r.Name = name.String
		r.Rating = int(rating.Int64)
		r.Distance = int(distance.Int64)
		r.Price = int(price.Int64)
		r.CuisineID = int(cuisineID.Int64)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}

	return out, nil
}
