package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/onnwee/recipe-scribe/recipe"
)

func pancakes() *recipe.Record {
	return &recipe.Record{
		Title: "Pancakes",
		Meta: recipe.Metadata{
			PrepTimeMinutes:    10,
			CookTimeMinutes:    20,
			TotalTimeMinutes:   30,
			Servings:           4,
			CaloriesPerServing: 250,
			ProteinPerServing:  8,
			CarbsPerServing:    30,
			FatPerServing:      10,
			PricePerServing:    1.5,
		},
		Ingredients:  []string{"200 g flour", "2 pieces eggs"},
		Instructions: []string{"Preheat oven", "Mix flour and eggs", "Bake 20 minutes"},
	}
}

func TestFileSinkWrite(t *testing.T) {
	dir := t.TempDir()
	s := &File{Dir: filepath.Join(dir, "recipes")} // exercises MkdirAll

	res, err := s.Write(context.Background(), pancakes())
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if res.Filename != "pancakes.txt" {
		t.Errorf("Filename = %q, want pancakes.txt", res.Filename)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	content := string(data)

	// Title, metadata, ingredients, instructions in that order.
	order := []string{"### Recipe: Pancakes", "Servings: 4", "Ingredients:", "- 200 g flour", "Instructions:", "1. Preheat oven"}
	pos := -1
	for _, m := range order {
		idx := strings.Index(content, m)
		if idx < 0 {
			t.Fatalf("output missing %q", m)
		}
		if idx <= pos {
			t.Errorf("%q out of order", m)
		}
		pos = idx
	}

	// Same title writes to the same slug.
	res2, err := s.Write(context.Background(), pancakes())
	if err != nil {
		t.Fatalf("second Write() error: %v", err)
	}
	if res2.Path != res.Path {
		t.Errorf("second write path = %q, want %q", res2.Path, res.Path)
	}
}

func TestFileSinkUnwritableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission bits are not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	s := &File{Dir: filepath.Join(dir, "nested")}
	_, err := s.Write(context.Background(), pancakes())
	if err == nil {
		t.Fatal("Write() = nil error, want failure")
	}
	if !strings.Contains(err.Error(), "sink write failed") {
		t.Errorf("error = %v, want wrapped ErrSinkWrite", err)
	}
}
