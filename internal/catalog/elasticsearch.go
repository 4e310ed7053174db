package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

// maxIndexDocuments is the default index.max_result_window.
const maxIndexDocuments = 10000

// ElasticsearchSource loads the catalog from a restaurants index whose
// documents carry id, name, rating, distance, price, cuisine_id and cuisine.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchSource {
	return &ElasticsearchSource{
		client: client,
		index:  index,
		logger: log.With(map[string]interface{}{"component": "catalog.elasticsearch", "index": index}),
	}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type esDocument struct {
	ID        *int   `json:"id"`
	Name      string `json:"name"`
	Rating    *int   `json:"rating"`
	Distance  *int   `json:"distance"`
	Price     *int   `json:"price"`
	CuisineID int    `json:"cuisine_id"`
	Cuisine   string `json:"cuisine"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Load(ctx context.Context) ([]models.Restaurant, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
		"size":  maxIndexDocuments,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", s.index, res.Status())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]models.Restaurant, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		if doc.ID == nil || doc.Name == "" || doc.Rating == nil || doc.Distance == nil || doc.Price == nil {
			metrics.CatalogRowsSkipped.WithLabelValues("elasticsearch").Inc()
			s.logger.Warn("skipping incomplete restaurant document", map[string]interface{}{"name": doc.Name})
			continue
		}

		cuisine := doc.Cuisine
		if cuisine == "" {
			cuisine = models.UnknownCuisine
		}
		out = append(out, models.Restaurant{
			ID:        *doc.ID,
			Name:      doc.Name,
			Rating:    *doc.Rating,
			Distance:  *doc.Distance,
			Price:     *doc.Price,
			CuisineID: doc.CuisineID,
			Cuisine:   cuisine,
		})
	}

	return out, nil
}
