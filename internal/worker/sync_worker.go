// Package worker mirrors registered expenses into the SQLite analytics
// store. The flat files stay the source of truth; the mirror exists so
// reporting queries never touch the live data directory.
package worker

import (
	"context"
	"fmt"
	"strconv"

	"financia/internal/amqp"
	"financia/internal/core"
	"financia/internal/log"
	"financia/internal/store/sqlite"
)

type SyncWorker struct {
	mirror *sqlite.Repository
	logger *log.Logger
}

func New(mirror *sqlite.Repository, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		mirror: mirror,
		logger: logger.WithComponent("sync-worker"),
	}
}

// HandleExpenseMessage inserts one registered expense into the mirror.
// Returning an error makes the consumer nack-requeue the delivery.
func (w *SyncWorker) HandleExpenseMessage(ctx context.Context, msg *amqp.ExpenseRegisteredMessage) error {
	date, err := core.ParseDate(msg.Date)
	if err != nil {
		// A bad date will never parse on retry; surface it loudly but let
		// the caller decide the ack policy.
		return fmt.Errorf("expense %s has invalid date %q: %w", msg.Ref, msg.Date, err)
	}

	e := core.Expense{
		ClientID:    msg.ClientID,
		Date:        date,
		Category:    msg.Category,
		Description: msg.Description,
		Amount:      core.Money{Cents: msg.AmountCents},
	}

	ref, err := w.mirror.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("mirror expense %s: %w", msg.Ref, err)
	}

	w.logger.InfoContext(ctx, "Expense mirrored",
		"source_ref", msg.Ref,
		"mirror_ref", ref,
		"client_id", msg.ClientID)
	return nil
}

// ReportClient logs how many rows the mirror holds for a client. Run at
// startup it gives a quick signal when the mirror has fallen behind.
func (w *SyncWorker) ReportClient(ctx context.Context, clientID string) {
	id, err := strconv.Atoi(clientID)
	if err != nil {
		w.logger.WarnContext(ctx, "Cannot report non-numeric client id", "client_id", clientID)
		return
	}
	n, err := w.mirror.CountForClient(ctx, id)
	if err != nil {
		w.logger.WarnContext(ctx, "Mirror count failed", "client_id", clientID, "error", err)
		return
	}
	w.logger.InfoContext(ctx, "Mirror row count", "client_id", clientID, "rows", n)
}
