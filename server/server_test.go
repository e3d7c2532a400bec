package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onnwee/recipe-scribe/db"
	"github.com/onnwee/recipe-scribe/recipe"
	"github.com/onnwee/recipe-scribe/sink"
	"github.com/onnwee/recipe-scribe/testutil"
)

func newTestMux(t *testing.T) (http.Handler, *sql.DB, string) {
	t.Helper()
	database := testutil.SetupTestDB(t)
	dataDir := t.TempDir()
	return NewMux(context.Background(), database, dataDir, "store"), database, dataDir
}

func storePancakes(t *testing.T, database *sql.DB) string {
	t.Helper()
	rec := &recipe.Record{
		Title: "Fluffy Pancakes",
		Meta: recipe.Metadata{
			PrepTimeMinutes: 10, CookTimeMinutes: 15, TotalTimeMinutes: 25, Servings: 4,
			CaloriesPerServing: 350, ProteinPerServing: 8, CarbsPerServing: 45, FatPerServing: 12, PricePerServing: 1.5,
		},
		Ingredients:  []string{"2 cups flour", "2 eggs"},
		Instructions: []string{"Mix.", "Cook."},
	}
	res, err := (&sink.Store{DB: database}).Write(context.Background(), rec)
	if err != nil {
		t.Fatalf("storing fixture: %v", err)
	}
	return res.RecordID
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestMux(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestReadyzReady(t *testing.T) {
	h, _, _ := newTestMux(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ready" {
		t.Fatalf("expected status=ready, got %q", resp["status"])
	}
}

func TestReadyzNotReadyMissingDataDir(t *testing.T) {
	database := testutil.SetupTestDB(t)
	h := NewMux(context.Background(), database, filepath.Join(t.TempDir(), "missing"), "file")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d, body=%s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["failed_check"] != "data_dir" {
		t.Fatalf("expected failed_check=data_dir, got %q", resp["failed_check"])
	}
}

func TestStatus(t *testing.T) {
	h, database, _ := newTestMux(t)
	storePancakes(t, database)
	if err := db.SetKV(context.Background(), database, "last_command_at", "2026-08-26T12:00:00Z"); err != nil {
		t.Fatalf("seeding kv: %v", err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["sink"] != "store" {
		t.Fatalf("sink = %v", resp["sink"])
	}
	if resp["recipes_stored"] != float64(1) {
		t.Fatalf("recipes_stored = %v", resp["recipes_stored"])
	}
	if resp["last_command_at"] != "2026-08-26T12:00:00Z" {
		t.Fatalf("last_command_at = %v", resp["last_command_at"])
	}
}

func TestRecipesListAndGet(t *testing.T) {
	h, database, _ := newTestMux(t)
	id := storePancakes(t, database)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rr.Code)
	}
	var list []*db.StoredRecipe
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("list = %+v", list)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/"+id, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	var got db.StoredRecipe
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	if got.Title != "Fluffy Pancakes" {
		t.Fatalf("title = %q", got.Title)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/00000000-0000-0000-0000-000000000000", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing: expected 404, got %d", rr.Code)
	}
}

func TestRecipeTextFormat(t *testing.T) {
	h, database, _ := newTestMux(t)
	id := storePancakes(t, database)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/"+id+"?format=text", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "fluffy_pancakes.txt") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	parsed, err := recipe.ParseText(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("parsing text body: %v", err)
	}
	if parsed.Title != "Fluffy Pancakes" {
		t.Fatalf("title = %q", parsed.Title)
	}
}

func TestFilesServed(t *testing.T) {
	h, _, dataDir := newTestMux(t)
	if err := os.WriteFile(filepath.Join(dataDir, "fluffy_pancakes.txt"), []byte("### Recipe: Fluffy Pancakes\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/files/fluffy_pancakes.txt", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "### Recipe: Fluffy Pancakes") {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestCorrelationHeader(t *testing.T) {
	h, _, _ := newTestMux(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("missing generated correlation id")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-fixed")
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Correlation-ID"); got != "corr-fixed" {
		t.Fatalf("correlation id = %q, want corr-fixed", got)
	}
}
