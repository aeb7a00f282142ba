package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carteira/internal/core"
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

func fixedTemplate(id string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        core.Debit,
		Value:       core.Money{Cents: 120000},
		Date:        date,
		Category:    "Moradia",
		Description: "Aluguel",
		Method:      core.MethodPix,
		IsFixed:     true,
		IsConfirmed: true,
	}
}

func TestProcessDueTransactionsCreatesInstance(t *testing.T) {
	repo := newTestStorage(t)
	ledger := NewLedgerService(repo, nil)
	processor := NewRecurringProcessor(repo, ledger)
	ctx := context.Background()

	if err := repo.CreateTransaction(ctx, "user-1", fixedTemplate("fix-mar", core.NewDate(2025, 3, 5))); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	created, err := processor.ProcessDueTransactions(ctx, time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueTransactions: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	april, err := repo.ListTransactionsByMonth(ctx, "user-1", 2025, 4)
	if err != nil {
		t.Fatalf("ListTransactionsByMonth: %v", err)
	}
	if len(april) != 1 {
		t.Fatalf("got %d april transactions, want 1", len(april))
	}
	instance := april[0]
	if instance.Date.Day() != 5 {
		t.Errorf("instance day = %d, want anchor day 5", instance.Date.Day())
	}
	if instance.IsConfirmed {
		t.Error("materialized instance should start unconfirmed")
	}
	if !instance.IsFixed {
		t.Error("instance should stay part of the fixed series")
	}
	if instance.ID == "fix-mar" {
		t.Error("instance should get its own id")
	}
}

func TestProcessDueTransactionsSkipsBeforeAnchorDay(t *testing.T) {
	repo := newTestStorage(t)
	processor := NewRecurringProcessor(repo, NewLedgerService(repo, nil))
	ctx := context.Background()

	if err := repo.CreateTransaction(ctx, "user-1", fixedTemplate("fix-mar", core.NewDate(2025, 3, 20))); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	created, err := processor.ProcessDueTransactions(ctx, time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ProcessDueTransactions: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d before anchor day, want 0", created)
	}
}

func TestProcessDueTransactionsOncePerMonth(t *testing.T) {
	repo := newTestStorage(t)
	processor := NewRecurringProcessor(repo, NewLedgerService(repo, nil))
	ctx := context.Background()

	if err := repo.CreateTransaction(ctx, "user-1", fixedTemplate("fix-mar", core.NewDate(2025, 3, 5))); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	now := time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)
	if _, err := processor.ProcessDueTransactions(ctx, now); err != nil {
		t.Fatalf("first run: %v", err)
	}
	created, err := processor.ProcessDueTransactions(ctx, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if created != 0 {
		t.Errorf("second run created = %d, want 0", created)
	}
}

func TestNextInstanceClampsShortMonths(t *testing.T) {
	template := fixedTemplate("fix-jan", core.NewDate(2025, 1, 31))

	due, date := nextInstance(template, core.NewDate(2025, 2, 28))
	if !due {
		t.Fatal("day-31 series should be due on Feb 28")
	}
	if date.Day() != 28 {
		t.Errorf("instance day = %d, want 28", date.Day())
	}

	if due, _ := nextInstance(template, core.NewDate(2025, 2, 27)); due {
		t.Error("series should not be due before the clamped anchor day")
	}
}
