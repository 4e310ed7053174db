// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"restaurant-agent/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

var ErrCatalogIndexMissing = errors.New("CATALOG_INDEX_MISSING")

// CatalogIndex is the search cluster plus the index holding restaurant documents.
type CatalogIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func OpenCatalogIndex(cfg config.ElasticsearchConfig, index string) (*CatalogIndex, error) {
	esCfg := elasticsearch.Config{Addresses: cfg.Addresses}
	if len(esCfg.Addresses) == 0 && cfg.URL != "" {
		esCfg.Addresses = []string{cfg.URL}
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &CatalogIndex{Client: client, Index: index}, nil
}

// Ping succeeds when the cluster answers and the catalog index exists.
func (c *CatalogIndex) Ping(ctx context.Context) error {
	res, err := c.Client.Indices.Exists([]string{c.Index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrCatalogIndexMissing, c.Index)
	case res.IsError():
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// Close satisfies Conn; the client keeps no connection to release.
func (c *CatalogIndex) Close() error { return nil }
