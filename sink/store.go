package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/onnwee/recipe-scribe/recipe"
)

// Store inserts records into the recipes table: one column per metadata field,
// ingredients and instructions as JSONB. Each write creates a new row keyed by
// a fresh UUID; sinking the same record twice yields two rows. A rejected
// insert surfaces as recipe.ErrSinkWrite with no compensation for anything
// already written.
type Store struct {
	DB *sql.DB
}

func (s *Store) Kind() string { return "store" }

func (s *Store) Write(ctx context.Context, rec *recipe.Record) (*Result, error) {
	id := uuid.New().String()
	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal ingredients: %v", recipe.ErrSinkWrite, err)
	}
	instructions, err := json.Marshal(rec.Instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal instructions: %v", recipe.ErrSinkWrite, err)
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO recipes
		(id, title, prep_time_minutes, cook_time_minutes, total_time_minutes, servings,
		 calories_per_serving, protein_per_serving, carbs_per_serving, fat_per_serving, price_per_serving,
		 ingredients, instructions, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())`,
		id, rec.Title,
		rec.Meta.PrepTimeMinutes, rec.Meta.CookTimeMinutes, rec.Meta.TotalTimeMinutes, rec.Meta.Servings,
		rec.Meta.CaloriesPerServing, rec.Meta.ProteinPerServing, rec.Meta.CarbsPerServing, rec.Meta.FatPerServing, rec.Meta.PricePerServing,
		ingredients, instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: insert recipe: %v", recipe.ErrSinkWrite, err)
	}
	return &Result{RecordID: id}, nil
}
