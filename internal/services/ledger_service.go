// Package services orchestrates the ledger across SQLite, AMQP and the
// pure calculation code.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"carteira/internal/amqp"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/storage"
)

// LedgerService handles transaction writes: validate, persist, publish.
type LedgerService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateTransaction validates and saves a transaction, then publishes a
// create event. The event is best effort: a broker outage never fails the
// request, the row is already durable in SQLite.
func (s *LedgerService) CreateTransaction(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.stampInvoiceKey(ctx, userID, &t)

	if err := s.storage.CreateTransaction(ctx, userID, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishEvent(ctx, t.ID, userID, amqp.ActionCreate); err != nil {
		fields := applog.NewFields().
			WithUser(userID).
			WithOperation(applog.OpCreate).
			WithTransaction(t.ID, t.Value.Cents, t.Category).
			WithError(err)
		slog.ErrorContext(ctx, "Failed to publish create event", fields.ToSlice()...)
	}

	return t, nil
}

// DeleteTransaction soft deletes a transaction and publishes a delete
// event so the worker can reverse goal totals.
func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if _, err := s.storage.SoftDeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	if err := s.publishEvent(ctx, id, userID, amqp.ActionDelete); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete event",
			"transaction_id", id, "error", err)
	}

	return nil
}

// stampInvoiceKey fills the invoice reference on a card payment that
// arrived without one. The default is the most recently closed cycle,
// the bill actually being settled, not the one still accruing. Invoice
// reconciliation joins on this key; the description match only covers
// rows written before the key existed.
func (s *LedgerService) stampInvoiceKey(ctx context.Context, userID string, t *core.Transaction) {
	if t.InvoiceKey != nil || t.Category != core.CategoryCardPayment ||
		t.CardID == "" || !t.Method.IsCash() {
		return
	}
	card, err := s.storage.GetCard(ctx, userID, t.CardID)
	if err != nil {
		slog.WarnContext(ctx, "Card lookup failed, payment left without invoice key",
			"card_id", t.CardID, "error", err)
		return
	}
	key := core.CycleKeyOf(t.Date, card.ClosingDay).Prev()
	t.InvoiceKey = &key
}

func (s *LedgerService) publishEvent(ctx context.Context, id, userID, action string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "action", action)
		return nil
	}
	return s.amqpClient.PublishTransactionEvent(ctx, id, userID, action)
}

// Close closes both storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
