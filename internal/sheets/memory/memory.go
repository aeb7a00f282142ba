// Package memory is an in-memory spreadsheet adapter used in tests and
// local development without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "carteira/internal/sheets"
	"carteira/internal/storage"
)

type Appender struct {
	mu   sync.Mutex
	rows []storage.ExportRow
}

var _ ports.RowAppender = (*Appender)(nil)

func New() *Appender {
	return &Appender{}
}

func (a *Appender) Append(_ context.Context, row storage.ExportRow) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, row)
	return fmt.Sprintf("memory!A%d", len(a.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (a *Appender) Rows() []storage.ExportRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]storage.ExportRow, len(a.rows))
	copy(out, a.rows)
	return out
}
