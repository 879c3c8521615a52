// Package services holds the business operations that compose stores and
// messaging. The rule throughout: the local write is the source of truth,
// event publication is best-effort and never fails the operation.
package services

import (
	"context"
	"fmt"
	"time"

	"financia/internal/amqp"
	"financia/internal/core"
	"financia/internal/log"
	"financia/internal/store"
)

// EventPublisher is the slice of the AMQP client the registrar needs.
// Nil-able by design: running without a broker just skips events.
type EventPublisher interface {
	PublishExpenseRegistered(ctx context.Context, msg *amqp.ExpenseRegisteredMessage) error
}

// Registrar persists expenses durably and announces them to the sync worker.
type Registrar struct {
	appender store.ExpenseAppender
	events   EventPublisher
	logger   *log.Logger
}

func NewRegistrar(appender store.ExpenseAppender, events EventPublisher, logger *log.Logger) *Registrar {
	return &Registrar{
		appender: appender,
		events:   events,
		logger:   logger.WithComponent("registrar"),
	}
}

// Register appends the expense to the local store, then publishes an event
// for the mirror worker. A publish failure is logged and swallowed: the
// expense is already safe on disk and the mirror can be reconciled later.
func (r *Registrar) Register(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}

	ref, err := r.appender.AppendExpense(ctx, e)
	if err != nil {
		return "", fmt.Errorf("append expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense registered",
		"ref", ref,
		"client_id", e.ClientID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)

	if r.events != nil {
		msg := &amqp.ExpenseRegisteredMessage{
			Ref:         ref,
			ClientID:    e.ClientID,
			Date:        e.Date.ISO(),
			Category:    e.Category,
			Description: e.Description,
			AmountCents: e.Amount.Cents,
			Timestamp:   time.Now(),
		}
		if err := r.events.PublishExpenseRegistered(ctx, msg); err != nil {
			r.logger.WarnContext(ctx, "Expense event publish failed, mirror will lag",
				"ref", ref, "error", err)
		}
	}

	return ref, nil
}
