package searchrestaurants

import (
	"fmt"

	"restaurant-agent/internal/common/validation"
)

var inputSchema = validation.MustCompile("search-restaurants-input", `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"mode": {"enum": ["", "ranked", "exact"]},
		"query": {
			"type": "object",
			"properties": {
				"name":     {"type": "string"},
				"cuisine":  {"type": "string"},
				"rating":   {"type": "integer", "minimum": 0},
				"distance": {"type": "integer", "minimum": 0},
				"price":    {"type": "integer", "minimum": 0},
				"limit":    {"type": "integer"}
			}
		}
	}
}`)

func validateInput(input *Input) error {
	res, err := inputSchema.Validate(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidInput, res.Error())
	}
	return nil
}
