// Package sink delivers completed recipe records to their destination: a flat
// text file under the data directory, or a row in the Postgres recipe store.
package sink

import (
	"context"

	"github.com/onnwee/recipe-scribe/recipe"
)

// Result describes where a record ended up. Filename/Path are set by the file
// sink, RecordID by the store sink.
type Result struct {
	Filename string
	Path     string
	RecordID string
}

// Sink writes one record to its destination. Writing the same record twice
// produces two independent outputs; deduplication is deliberately not
// attempted.
type Sink interface {
	Write(ctx context.Context, rec *recipe.Record) (*Result, error)
	Kind() string
}
