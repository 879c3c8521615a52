package store

import (
	"context"
	"errors"

	"financia/internal/core"
)

// ErrHistoryUnavailable reports that the history backing file (or table)
// could not be read at all. Callers must keep this distinct from an empty
// result after filtering; the two produce different user-facing messages.
var ErrHistoryUnavailable = errors.New("history store unavailable")

// Ports for the record-store adapters.
type (
	// ClientReader loads the client document. Implementations degrade to an
	// empty map on any read or parse failure; they never return an error.
	ClientReader interface {
		LoadClients(ctx context.Context) map[string]core.Client
	}

	// HistoryReader loads the full history table. A missing backing file
	// yields ErrHistoryUnavailable.
	HistoryReader interface {
		LoadHistory(ctx context.Context) ([]core.HistoryRecord, error)
	}

	// ExpenseAppender durably registers a new expense and returns an opaque
	// row reference.
	ExpenseAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)
