package sheets

import (
	"context"

	"carteira/internal/storage"
)

// Ports for outbound adapters.
type (
	// RowAppender pushes one exported transaction row to the backing
	// spreadsheet and returns a reference to where it landed.
	RowAppender interface {
		Append(ctx context.Context, row storage.ExportRow) (rowRef string, err error)
	}
)
