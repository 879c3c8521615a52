// Package sqlite provides a SQLite-backed history store. It serves the
// same ports as the flat-file store and doubles as the analytics mirror
// kept up to date by the sync worker.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"financia/internal/core"
	"financia/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadHistory implements store.HistoryReader over the expenses table.
func (r *Repository) LoadHistory(ctx context.Context) ([]core.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT client_id, date, category, amount_cents FROM expenses ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []core.HistoryRecord
	for rows.Next() {
		var (
			clientID int
			dateStr  string
			category string
			cents    int64
		)
		if err := rows.Scan(&clientID, &dateStr, &category, &cents); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			slog.WarnContext(ctx, "Skipping history row with bad date", "date", dateStr)
			continue
		}
		out = append(out, core.HistoryRecord{
			ClientID: clientID,
			Date:     date,
			Category: category,
			Amount:   core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

// AppendExpense implements store.ExpenseAppender.
func (r *Repository) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	clientID, err := strconv.Atoi(e.ClientID)
	if err != nil {
		return "", fmt.Errorf("client id %q is not numeric: %w", e.ClientID, err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (client_id, date, category, amount_cents, description)
		 VALUES (?, ?, ?, ?, ?)`,
		clientID, e.Date.ISO(), e.Category, e.Amount.Cents, e.Description)
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"client_id", clientID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	return strconv.FormatInt(id, 10), nil
}

// CountForClient returns the number of mirrored rows for a client. The
// worker uses it for its startup consistency report.
func (r *Repository) CountForClient(ctx context.Context, clientID int) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE client_id = ?`, clientID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

var _ store.HistoryReader = (*Repository)(nil)
var _ store.ExpenseAppender = (*Repository)(nil)
