package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/validation"
	"restaurant-agent/internal/models"
)

const defaultSlotTokens = 200

const slotPrompt = `Extract restaurant search parameters from the user message.
If a parameter is not mentioned, leave it null.

Respond with a single JSON object and nothing else, using these fields:
{"name": string|null, "rating": integer|null, "distance": integer|null, "price": integer|null, "cuisine": string|null, "limit": integer|null}
rating is the minimum rating, distance and price are maximums, limit is how many results the user wants.

User message: %s`

var slotSchema = validation.MustCompile("search-slots", `{
	"type": "object",
	"properties": {
		"name":     {"type": ["string", "null"]},
		"rating":   {"type": ["integer", "null"], "minimum": 0},
		"distance": {"type": ["integer", "null"], "minimum": 0},
		"price":    {"type": ["integer", "null"], "minimum": 0},
		"cuisine":  {"type": ["string", "null"]},
		"limit":    {"type": ["integer", "null"], "minimum": 1}
	}
}`)

type slotDocument struct {
	Name     *string      `json:"name"`
	Rating   *json.Number `json:"rating"`
	Distance *json.Number `json:"distance"`
	Price    *json.Number `json:"price"`
	Cuisine  *string      `json:"cuisine"`
	Limit    *json.Number `json:"limit"`
}

// Extractor turns a free-text request into a SearchQuery.
type Extractor struct {
	backend   Backend
	maxTokens int
	logger    logger.Logger
}

type ExtractorOption func(*Extractor)

// WithSlotTokens caps the completion length of a slot extraction call.
func WithSlotTokens(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

func NewExtractor(backend Backend, log logger.Logger, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		backend:   backend,
		maxTokens: defaultSlotTokens,
		logger:    log.With(map[string]interface{}{"component": "oracle.extractor"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fills only the fields the message mentions. Upstream errors are
// returned unchanged; empty or malformed output yields ErrSlotExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, message string) (models.SearchQuery, error) {
	raw, err := e.backend.Complete(ctx, fmt.Sprintf(slotPrompt, message), e.maxTokens)
	if errors.Is(err, ErrEmptyCompletion) {
		return models.SearchQuery{}, fmt.Errorf("%w: %v", ErrSlotExtractionFailed, err)
	}
	if err != nil {
		return models.SearchQuery{}, err
	}

	q, err := ParseSlots(raw)
	if err != nil {
		e.logger.Warn("slot extraction output rejected", map[string]interface{}{
			"raw":   raw,
			"error": err.Error(),
		})
		return models.SearchQuery{}, err
	}
	return q, nil
}

// ParseSlots decodes a model reply into a SearchQuery. The reply may wrap the
// JSON object in prose or a code fence.
func ParseSlots(raw string) (models.SearchQuery, error) {
	doc, ok := isolateObject(raw)
	if !ok {
		return models.SearchQuery{}, fmt.Errorf("%w: no JSON object in reply", ErrSlotExtractionFailed)
	}

	result, err := slotSchema.ValidateJSON([]byte(doc))
	if err != nil {
		return models.SearchQuery{}, fmt.Errorf("%w: %v", ErrSlotExtractionFailed, err)
	}
	if !result.Valid {
		return models.SearchQuery{}, fmt.Errorf("%w: %s", ErrSlotExtractionFailed, result.Error())
	}

	var slots slotDocument
	if err := json.Unmarshal([]byte(doc), &slots); err != nil {
		return models.SearchQuery{}, fmt.Errorf("%w: %v", ErrSlotExtractionFailed, err)
	}

	q := models.SearchQuery{
		Name:    nonBlank(slots.Name),
		Cuisine: nonBlank(slots.Cuisine),
	}
	for _, f := range []struct {
		in  *json.Number
		out **int
	}{
		{slots.Rating, &q.Rating},
		{slots.Distance, &q.Distance},
		{slots.Price, &q.Price},
		{slots.Limit, &q.Limit},
	} {
		n, err := wholeNumber(f.in)
		if err != nil {
			return models.SearchQuery{}, fmt.Errorf("%w: %v", ErrSlotExtractionFailed, err)
		}
		*f.out = n
	}
	return q, nil
}

func isolateObject(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func wholeNumber(n *json.Number) (*int, error) {
	if n == nil {
		return nil, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return nil, fmt.Errorf("%s is not a usable integer", n.String())
	}
	v := int(f)
	return &v, nil
}
