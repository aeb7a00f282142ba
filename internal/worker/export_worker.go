// Package worker runs the background side of the ledger: spreadsheet
// export and goal total synchronization, both fed by AMQP events with a
// polling backup for missed messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"carteira/internal/amqp"
	"carteira/internal/services"
	"carteira/internal/sheets"
	"carteira/internal/storage"
)

// ExportWorker pushes ledger rows to the spreadsheet and keeps goal
// totals in sync.
type ExportWorker struct {
	storage   *storage.Repository
	appender  sheets.RowAppender
	goals     *services.GoalSyncProcessor
	batchSize int
}

func NewExportWorker(storage *storage.Repository, appender sheets.RowAppender, goals *services.GoalSyncProcessor, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		goals:     goals,
		batchSize: batchSize,
	}
}

// HandleEvent processes one transaction event: goal totals first, then
// the spreadsheet push for creates. Delete events only touch goals; the
// spreadsheet keeps its historical rows.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if w.goals != nil {
		if err := w.goals.HandleEvent(ctx, msg); err != nil {
			return fmt.Errorf("sync goals: %w", err)
		}
	}

	if msg.Action != amqp.ActionCreate {
		return nil
	}
	return w.ProcessPendingRows(ctx)
}

// ProcessPendingRows exports unexported rows in creation order. It runs
// after every create event and periodically as a backup for lost
// messages.
func (w *ExportWorker) ProcessPendingRows(ctx context.Context) error {
	if w.appender == nil {
		slog.WarnContext(ctx, "No spreadsheet appender configured, skipping export")
		return nil
	}

	pending, err := w.storage.ListUnexportedTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported rows: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Exporting pending rows", "count", len(pending))

	for _, row := range pending {
		ref, err := w.appender.Append(ctx, row)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export row",
				"transaction_id", row.ID, "error", err)
			return fmt.Errorf("append row %s: %w", row.ID, err)
		}
		if err := w.storage.MarkExported(ctx, row.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark row exported",
				"transaction_id", row.ID, "error", err)
			// The export itself succeeded; the row will be retried and
			// appended twice, which the sheet id column makes visible.
			continue
		}
		slog.InfoContext(ctx, "Row exported",
			"transaction_id", row.ID, "sheets_ref", ref)
	}

	return nil
}

// StartupCheck drains the export backlog accumulated while the worker
// was down.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Checking export backlog on startup")
	return w.ProcessPendingRows(ctx)
}
