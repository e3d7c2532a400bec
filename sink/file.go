package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onnwee/recipe-scribe/recipe"
)

// File renders records into the flat text layout and writes them under Dir.
// The file name is a sanitized slug of the recipe title; an existing file with
// the same name is overwritten (same title, fresher extraction).
type File struct {
	Dir string
}

func (f *File) Kind() string { return "file" }

func (f *File) Write(ctx context.Context, rec *recipe.Record) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", recipe.ErrSinkWrite, err)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", recipe.ErrSinkWrite, f.Dir, err)
	}
	name := recipe.Filename(rec.Title)
	path := filepath.Join(f.Dir, name)
	if err := os.WriteFile(path, recipe.RenderText(rec), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", recipe.ErrSinkWrite, path, err)
	}
	return &Result{Filename: name, Path: path}, nil
}
