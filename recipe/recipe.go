// Package recipe defines the structured recipe record produced by the
// synthesis stage, the error taxonomy shared by all pipeline stages, and the
// flat text rendering used by the file sink.
package recipe

import (
	"fmt"
	"strings"
)

// Metadata carries the per-serving and timing figures extracted for a recipe.
// All fields are required; a response missing any of them does not validate.
type Metadata struct {
	PrepTimeMinutes    int     `json:"prep_time"`
	CookTimeMinutes    int     `json:"cook_time"`
	TotalTimeMinutes   int     `json:"total_time"`
	Servings           int     `json:"servings"`
	CaloriesPerServing float64 `json:"calories_per_serving"`
	ProteinPerServing  float64 `json:"protein_per_serving"`
	CarbsPerServing    float64 `json:"carbs_per_serving"`
	FatPerServing      float64 `json:"fat_per_serving"`
	PricePerServing    float64 `json:"price_per_serving"`
}

// Record is the structured output of the synthesis stage.
type Record struct {
	Title        string   `json:"title"`
	Meta         Metadata `json:"metadata"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Validate checks that every required field is present and plausible. A record
// that fails validation is treated as "not a cooking video" rather than a
// malformed response, since the model omits fields exactly when the transcript
// gave it nothing to extract.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("missing title")
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("missing ingredients")
	}
	if len(r.Instructions) == 0 {
		return fmt.Errorf("missing instructions")
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing) == "" {
			return fmt.Errorf("empty ingredient at index %d", i)
		}
	}
	for i, step := range r.Instructions {
		if strings.TrimSpace(step) == "" {
			return fmt.Errorf("empty instruction at index %d", i)
		}
	}
	if r.Meta.Servings <= 0 {
		return fmt.Errorf("servings must be positive, got %d", r.Meta.Servings)
	}
	if r.Meta.PrepTimeMinutes < 0 || r.Meta.CookTimeMinutes < 0 || r.Meta.TotalTimeMinutes < 0 {
		return fmt.Errorf("negative time field")
	}
	if r.Meta.CaloriesPerServing < 0 || r.Meta.ProteinPerServing < 0 || r.Meta.CarbsPerServing < 0 || r.Meta.FatPerServing < 0 || r.Meta.PricePerServing < 0 {
		return fmt.Errorf("negative per-serving field")
	}
	return nil
}
