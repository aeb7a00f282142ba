package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage"
)

// GoalSyncProcessor keeps goal running totals in step with the ledger.
// It consumes transaction events and applies the matching delta to every
// goal whose category and date window cover the transaction.
type GoalSyncProcessor struct {
	storage *storage.Repository
}

func NewGoalSyncProcessor(storage *storage.Repository) *GoalSyncProcessor {
	return &GoalSyncProcessor{storage: storage}
}

// HandleEvent applies one transaction event. A missing transaction is
// dropped, not retried: the row is gone and requeueing cannot bring it
// back.
func (p *GoalSyncProcessor) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	sign, err := deltaSignFor(msg.Action)
	if err != nil {
		slog.WarnContext(ctx, "Dropping event with unknown action",
			"transaction_id", msg.TransactionID, "action", msg.Action)
		return nil
	}

	t, err := p.storage.GetTransactionAny(ctx, msg.UserID, msg.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Dropping event for missing transaction",
			"transaction_id", msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	goals, err := p.storage.ListGoalsByCategory(ctx, msg.UserID, t.Category)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}

	for _, g := range goals {
		updated := core.ApplyTransactionDelta(g, t, sign)
		if updated.CurrentValue == g.CurrentValue {
			continue
		}
		if err := p.storage.UpdateGoalCurrent(ctx, msg.UserID, g.ID, updated.CurrentValue.Cents); err != nil {
			return fmt.Errorf("update goal %s: %w", g.ID, err)
		}
		slog.InfoContext(ctx, "Goal total adjusted",
			"goal_id", g.ID,
			"transaction_id", t.ID,
			"current_cents", updated.CurrentValue.Cents)
	}

	return nil
}

func deltaSignFor(action string) (core.DeltaSign, error) {
	switch action {
	case amqp.ActionCreate:
		return core.DeltaAdd, nil
	case amqp.ActionDelete:
		return core.DeltaRemove, nil
	default:
		return 0, fmt.Errorf("unknown action %q", action)
	}
}
