package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"financia/internal/amqp"
	"financia/internal/log"
	"financia/internal/store/sqlite"
)

func newTestWorker(t *testing.T) (*SyncWorker, *sqlite.Repository) {
	t.Helper()
	repo, err := sqlite.NewRepository(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return New(repo, logger), repo
}

func msg(ref, clientID, date string, cents int64) *amqp.ExpenseRegisteredMessage {
	return &amqp.ExpenseRegisteredMessage{
		Ref:         ref,
		ClientID:    clientID,
		Date:        date,
		Category:    "Transporte",
		Description: "Taxi",
		AmountCents: cents,
		Timestamp:   time.Now(),
	}
}

func TestHandleExpenseMessage(t *testing.T) {
	w, repo := newTestWorker(t)
	ctx := context.Background()

	if err := w.HandleExpenseMessage(ctx, msg("row:1", "1001", "2025-03-15", 4550)); err != nil {
		t.Fatalf("HandleExpenseMessage: %v", err)
	}

	records, err := repo.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("mirror has %d rows, want 1", len(records))
	}
	got := records[0]
	if got.ClientID != 1001 || got.Category != "Transporte" || got.Amount.Cents != 4550 || got.Date.ISO() != "2025-03-15" {
		t.Errorf("mirrored row = %+v", got)
	}

	n, err := repo.CountForClient(ctx, 1001)
	if err != nil {
		t.Fatalf("CountForClient: %v", err)
	}
	if n != 1 {
		t.Errorf("CountForClient = %d, want 1", n)
	}
}

func TestHandleExpenseMessageBadDate(t *testing.T) {
	w, repo := newTestWorker(t)
	ctx := context.Background()

	if err := w.HandleExpenseMessage(ctx, msg("row:2", "1001", "not-a-date", 100)); err == nil {
		t.Fatal("expected error for invalid date")
	}
	if records, _ := repo.LoadHistory(ctx); len(records) != 0 {
		t.Errorf("bad message must not reach the mirror, found %d rows", len(records))
	}
}

func TestHandleExpenseMessageInvalidExpense(t *testing.T) {
	w, _ := newTestWorker(t)
	// Zero amount fails domain validation inside the repository.
	if err := w.HandleExpenseMessage(context.Background(), msg("row:3", "1001", "2025-03-15", 0)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestReportClientDoesNotPanic(t *testing.T) {
	w, _ := newTestWorker(t)
	ctx := context.Background()
	w.ReportClient(ctx, "1001")
	w.ReportClient(ctx, "not-numeric")
}
