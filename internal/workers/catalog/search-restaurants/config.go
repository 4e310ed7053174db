// internal/workers/catalog/search-restaurants/config.go
package searchrestaurants

import "time"

type Config struct {
	Timeout time.Duration
}
