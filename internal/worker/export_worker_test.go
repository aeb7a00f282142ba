package worker

import (
	"context"
	"path/filepath"
	"testing"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/services"
	"carteira/internal/sheets/memory"
	"carteira/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedTransaction(t *testing.T, repo *storage.Repository, id string) {
	t.Helper()
	tx := core.Transaction{
		ID:          id,
		Type:        core.Debit,
		Value:       core.Money{Cents: 4500},
		Date:        core.NewDate(2025, 4, 10),
		Category:    "Alimentação",
		Description: "Mercado",
		Method:      core.MethodPix,
	}
	if err := repo.CreateTransaction(context.Background(), "user-1", tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func TestHandleEventExportsCreatedRow(t *testing.T) {
	repo := newTestStorage(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, services.NewGoalSyncProcessor(repo), 10)
	ctx := context.Background()

	seedTransaction(t, repo, "tx-1")

	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", "user-1", amqp.ActionCreate)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	rows := appender.Rows()
	if len(rows) != 1 {
		t.Fatalf("exported %d rows, want 1", len(rows))
	}
	if rows[0].ID != "tx-1" || rows[0].ValueCents != 4500 {
		t.Errorf("exported row = %+v", rows[0])
	}

	// The row is marked exported, a second event must not re-append it.
	if err := w.ProcessPendingRows(ctx); err != nil {
		t.Fatalf("ProcessPendingRows: %v", err)
	}
	if len(appender.Rows()) != 1 {
		t.Errorf("row exported twice")
	}
}

func TestHandleEventDeleteSkipsExport(t *testing.T) {
	repo := newTestStorage(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, services.NewGoalSyncProcessor(repo), 10)
	ctx := context.Background()

	seedTransaction(t, repo, "tx-1")
	if _, err := repo.SoftDeleteTransaction(ctx, "user-1", "tx-1"); err != nil {
		t.Fatalf("SoftDeleteTransaction: %v", err)
	}

	if err := w.HandleEvent(ctx, amqp.NewTransactionEventMessage("tx-1", "user-1", amqp.ActionDelete)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(appender.Rows()) != 0 {
		t.Errorf("delete event exported %d rows, want 0", len(appender.Rows()))
	}
}

func TestStartupCheckDrainsBacklog(t *testing.T) {
	repo := newTestStorage(t)
	appender := memory.New()
	w := NewExportWorker(repo, appender, nil, 10)
	ctx := context.Background()

	seedTransaction(t, repo, "tx-1")
	seedTransaction(t, repo, "tx-2")

	if err := w.StartupCheck(ctx); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if len(appender.Rows()) != 2 {
		t.Errorf("exported %d rows, want 2", len(appender.Rows()))
	}
}

func TestProcessPendingRowsWithoutAppender(t *testing.T) {
	repo := newTestStorage(t)
	w := NewExportWorker(repo, nil, nil, 10)

	seedTransaction(t, repo, "tx-1")
	if err := w.ProcessPendingRows(context.Background()); err != nil {
		t.Errorf("missing appender should be non-fatal, got %v", err)
	}
}
