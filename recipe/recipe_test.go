package recipe

import (
	"errors"
	"strings"
	"testing"
)

func validRecord() *Record {
	return &Record{
		Title: "Pancakes",
		Meta: Metadata{
			PrepTimeMinutes:    10,
			CookTimeMinutes:    20,
			TotalTimeMinutes:   30,
			Servings:           4,
			CaloriesPerServing: 250,
			ProteinPerServing:  8,
			CarbsPerServing:    30.5,
			FatPerServing:      10,
			PricePerServing:    1.25,
		},
		Ingredients:  []string{"200 g flour", "2 pieces eggs", "300 ml milk"},
		Instructions: []string{"Preheat oven", "Mix flour and eggs", "Bake 20 minutes"},
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Record)
		wantErr     bool
		errContains string
	}{
		{name: "valid record", mutate: func(r *Record) {}},
		{
			name:        "missing title",
			mutate:      func(r *Record) { r.Title = "  " },
			wantErr:     true,
			errContains: "title",
		},
		{
			name:        "no ingredients",
			mutate:      func(r *Record) { r.Ingredients = nil },
			wantErr:     true,
			errContains: "ingredients",
		},
		{
			name:        "no instructions",
			mutate:      func(r *Record) { r.Instructions = []string{} },
			wantErr:     true,
			errContains: "instructions",
		},
		{
			name:        "blank ingredient",
			mutate:      func(r *Record) { r.Ingredients[1] = "" },
			wantErr:     true,
			errContains: "empty ingredient",
		},
		{
			name:        "zero servings",
			mutate:      func(r *Record) { r.Meta.Servings = 0 },
			wantErr:     true,
			errContains: "servings",
		},
		{
			name:        "negative cook time",
			mutate:      func(r *Record) { r.Meta.CookTimeMinutes = -5 },
			wantErr:     true,
			errContains: "negative time",
		},
		{
			name:        "negative calories",
			mutate:      func(r *Record) { r.Meta.CaloriesPerServing = -1 },
			wantErr:     true,
			errContains: "per-serving",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(rec)
			err := rec.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() = nil, want error containing %q", tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Validate() error = %v, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	// Every taxonomy entry must map to a distinct, non-generic message.
	errs := []error{
		ErrInvalidLink,
		ErrTranscriptUnavailable,
		ErrNotCookingContent,
		ErrMalformedResponse,
		ErrSinkWrite,
		ErrUnauthorized,
	}
	seen := map[string]bool{}
	for _, e := range errs {
		msg := UserMessage(e)
		if msg == msgGeneric {
			t.Errorf("UserMessage(%v) fell through to generic message", e)
		}
		if seen[msg] {
			t.Errorf("UserMessage(%v) duplicates another taxonomy message: %q", e, msg)
		}
		seen[msg] = true
	}
	if got := UserMessage(errors.New("boom")); got != msgGeneric {
		t.Errorf("UserMessage(unknown) = %q, want generic", got)
	}
}
