package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/recipe-scribe/db"
	"github.com/onnwee/recipe-scribe/recipe"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db       *sql.DB
	ctx      context.Context
	dataDir  string
	sinkKind string
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, database *sql.DB, dataDir, sinkKind string) *Handlers {
	return &Handlers{
		db:       database,
		ctx:      ctx,
		dataDir:  dataDir,
		sinkKind: sinkKind,
	}
}

// HandleStatus reports operational state: configured sink, stored recipe count,
// and the timestamp of the last handled command.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := map[string]any{
		"time": time.Now().UTC().Format(time.RFC3339),
		"sink": h.sinkKind,
	}

	var count int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err == nil {
		resp["recipes_stored"] = count
	}
	var requests int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests`).Scan(&requests); err == nil {
		resp["commands_handled"] = requests
	}
	if last, err := db.GetKV(ctx, h.db, "last_command_at"); err == nil && last != "" {
		resp["last_command_at"] = last
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// HandleRecipesList returns stored recipes newest first. ?limit bounds the
// page size.
func (h *Handlers) HandleRecipesList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	recipes, err := db.ListRecipes(r.Context(), h.db, limit)
	if err != nil {
		http.Error(w, "failed to list recipes", http.StatusInternalServerError)
		return
	}
	if recipes == nil {
		recipes = []*db.StoredRecipe{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recipes)
}

// HandleRecipeByID serves one stored recipe. ?format=text renders the plain
// text file form instead of JSON.
func (h *Handlers) HandleRecipeByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/recipes/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	stored, err := db.GetRecipe(r.Context(), h.db, id)
	if err == sql.ErrNoRows {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load recipe", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+recipe.Filename(stored.Title)+`"`)
		_, _ = w.Write(recipe.RenderText(storedToRecord(stored)))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stored)
}

func storedToRecord(s *db.StoredRecipe) *recipe.Record {
	return &recipe.Record{
		Title: s.Title,
		Meta: recipe.Metadata{
			PrepTimeMinutes:    s.PrepTimeMinutes,
			CookTimeMinutes:    s.CookTimeMinutes,
			TotalTimeMinutes:   s.TotalTimeMinutes,
			Servings:           s.Servings,
			CaloriesPerServing: s.CaloriesPerServing,
			ProteinPerServing:  s.ProteinPerServing,
			CarbsPerServing:    s.CarbsPerServing,
			FatPerServing:      s.FatPerServing,
			PricePerServing:    s.PricePerServing,
		},
		Ingredients:  s.Ingredients,
		Instructions: s.Instructions,
	}
}
