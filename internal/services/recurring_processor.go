package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/core"
	"carteira/internal/storage"
)

// RecurringProcessor materializes fixed transactions. Each series (same
// description, category, method and card for a user) yields one new
// instance per month, anchored on the day of the latest instance.
type RecurringProcessor struct {
	storage *storage.Repository
	ledger  *LedgerService
}

func NewRecurringProcessor(storage *storage.Repository, ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		ledger:  ledger,
	}
}

// ProcessDueTransactions creates this month's instance for every fixed
// series whose latest instance is in a prior month and whose anchor day
// has been reached. Returns how many instances were created.
func (p *RecurringProcessor) ProcessDueTransactions(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.ledger == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListLatestFixedTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load fixed transaction templates: %w", err)
	}

	today := core.DateOf(now)
	created := 0

	for userID, series := range templates {
		for _, template := range series {
			due, instanceDate := nextInstance(template, today)
			if !due {
				continue
			}

			instance := template
			instance.ID = ""
			instance.Date = instanceDate
			instance.IsConfirmed = false
			instance.InvoiceKey = nil

			if _, err := p.ledger.CreateTransaction(ctx, userID, instance); err != nil {
				slog.ErrorContext(ctx, "Failed to create fixed transaction instance",
					"user_id", userID,
					"description", template.Description,
					"error", err)
				continue
			}

			created++
			slog.InfoContext(ctx, "Created fixed transaction instance",
				"user_id", userID,
				"description", template.Description,
				"date", instanceDate.Format("2006-01-02"),
				"amount_cents", template.Value.Cents)
		}
	}

	slog.InfoContext(ctx, "Fixed transaction processing complete", "created", created)
	return created, nil
}

// nextInstance reports whether a series is due this month, and on which
// date the new instance lands. The anchor day is clamped to the length of
// the current month, so a day-31 series falls on Feb 28.
func nextInstance(template core.Transaction, today core.Date) (bool, core.Date) {
	if template.Date.SameMonth(today.Year(), today.Month()) {
		return false, core.Date{}
	}
	if template.Date.After(today) {
		return false, core.Date{}
	}

	anchor := template.Date.Day()
	if last := today.DaysInMonth(); anchor > last {
		anchor = last
	}
	if today.Day() < anchor {
		return false, core.Date{}
	}
	return true, core.NewDate(today.Year(), today.Month(), anchor)
}
