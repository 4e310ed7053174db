// internal/workers/catalog/search-restaurants/handler_test.go
package searchrestaurants

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-agent/internal/catalog/catalogtest"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/search"
)

// ==========================
// Test Logger Implementation
// ==========================

type BenchmarkLogger struct{}

func (b *BenchmarkLogger) Info(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Warn(msg string, fields map[string]interface{})  {}
func (b *BenchmarkLogger) Error(msg string, fields map[string]interface{}) {}
func (b *BenchmarkLogger) With(fields map[string]interface{}) Logger       { return b }

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler() *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, search.NewEngine(catalogtest.Catalog()), &BenchmarkLogger{})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantIDs   []int
		wantErr   bool
	}{
		{name: "default mode is ranked", variables: `{"query":{}}`, wantIDs: []int{1, 5, 6, 4, 3}},
		{name: "ranked with limit", variables: `{"query":{"cuisine":"an","limit":2},"mode":"ranked"}`, wantIDs: []int{1, 6}},
		{name: "exact", variables: `{"query":{"rating":4},"mode":"exact"}`, wantIDs: []int{1, 3, 5}},
		{name: "exact with no match", variables: `{"query":{"name":"Nowhere"},"mode":"exact"}`, wantIDs: []int{}},
		{name: "unknown mode", variables: `{"query":{},"mode":"fuzzy"}`, wantErr: true},
		{name: "negative price", variables: `{"query":{"price":-5}}`, wantErr: true},
		{name: "negative rating in exact mode", variables: `{"query":{"rating":-1},"mode":"exact"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input Input
			require.NoError(t, json.Unmarshal([]byte(tt.variables), &input))

			out, err := createTestHandler().Execute(context.Background(), &input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, out.RestaurantIDs)
			assert.Equal(t, len(tt.wantIDs), out.Count)
			assert.Len(t, out.Restaurants, out.Count)
		})
	}
}

func BenchmarkHandler_Execute(b *testing.B) {
	h := createTestHandler()
	input := &Input{Query: models.SearchQuery{Rating: models.IntPtr(3)}}
	for i := 0; i < b.N; i++ {
		_, _ = h.Execute(context.Background(), input)
	}
}
