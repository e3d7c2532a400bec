// Package synthesis turns a caption transcript into a structured recipe with a
// single schema-constrained Gemini completion request.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/onnwee/recipe-scribe/recipe"
)

// DefaultModel is used when GEMINI_MODEL is unset.
const DefaultModel = "gemini-2.0-flash"

// notCookingSentinel is the value the model is instructed to emit for
// non-cooking transcripts. Detection is only as reliable as the model's
// adherence to the instruction; no independent validation is layered on top.
const notCookingSentinel = "not a cooking video"

const systemInstruction = `You are an expert chef who creates clear, structured recipes from cooking video transcripts.
Respond with a single JSON object and nothing else, using exactly this shape:
{
  "title": string,
  "metadata": {
    "prep_time": integer minutes,
    "cook_time": integer minutes,
    "total_time": integer minutes,
    "servings": integer,
    "calories_per_serving": number,
    "protein_per_serving": number grams,
    "carbs_per_serving": number grams,
    "fat_per_serving": number grams,
    "price_per_serving": number
  },
  "ingredients": [string, ...],
  "instructions": [string, ...]
}
List all ingredients together, not categorized. If an ingredient appears multiple times, combine the quantities.
Use units of g, ml, tablespoon, teaspoon, or pieces. Keep instructions short and understandable, 6-8 steps.
Estimate metadata values from the transcript when they are not stated outright.
If the transcript is not from a cooking video presenting a recipe, respond with exactly: {"error": "` + notCookingSentinel + `"}`

var promptTemplate = template.Must(template.New("prompt").Parse(
	`Create a recipe based on this video transcript:

{{ .Transcript }}`))

// generateFunc issues one completion request and returns the raw response
// text. Tests substitute a stub; production wraps the Gemini client.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Synthesizer issues one blocking completion call per transcript and parses
// the JSON response into a recipe.Record.
type Synthesizer struct {
	model    string
	generate generateFunc
}

// New builds a Synthesizer backed by the Gemini API. The response MIME type is
// pinned to JSON so no local repair logic is needed; parse failures still
// surface as recipe.ErrMalformedResponse rather than crashing.
func New(ctx context.Context, apiKey, model string) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing gemini api key")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}
	s := &Synthesizer{model: model}
	s.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return s, nil
}

// Synthesize sends the transcript to the completion service and parses the
// response. Fails with recipe.ErrNotCookingContent when the model emits the
// sentinel or omits required fields, and recipe.ErrMalformedResponse when the
// response is not the expected shape.
func (s *Synthesizer) Synthesize(ctx context.Context, transcript string) (*recipe.Record, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("%w: empty transcript", recipe.ErrMalformedResponse)
	}
	var buf strings.Builder
	if err := promptTemplate.Execute(&buf, struct{ Transcript string }{transcript}); err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}
	raw, err := s.generate(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("%w: completion request: %v", recipe.ErrMalformedResponse, err)
	}
	return parseResponse(raw)
}

// parseResponse is the tagged parse of the model output: sentinel, valid
// record, or malformed.
func parseResponse(raw string) (*recipe.Record, error) {
	cleaned := stripFences(raw)
	var out struct {
		Error string `json:"error"`
		recipe.Record
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", recipe.ErrMalformedResponse, err)
	}
	if strings.EqualFold(strings.TrimSpace(out.Error), notCookingSentinel) {
		return nil, fmt.Errorf("%w: model sentinel", recipe.ErrNotCookingContent)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: unexpected error value %q", recipe.ErrMalformedResponse, out.Error)
	}
	rec := out.Record
	if err := rec.Validate(); err != nil {
		// Missing fields mean the model had no recipe to extract.
		return nil, fmt.Errorf("%w: %v", recipe.ErrNotCookingContent, err)
	}
	return &rec, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the JSON response MIME type.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
