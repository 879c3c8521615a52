// Package file implements the default flat-file record store: a JSON
// document of clients keyed by id, and a CSV table of history rows.
package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"financia/internal/core"
	"financia/internal/store"
)

const historyHeader = "client_id,date,category,amount"

// Store reads and writes the two flat files. A single mutex guards both;
// the system assumes one active session per file pair, so this only
// protects tool calls within a turn from the registration write path.
type Store struct {
	mu          sync.Mutex
	clientsPath string
	historyPath string
}

type clientDoc struct {
	Name               string           `json:"name"`
	CurrentBalance     float64          `json:"current_balance"`
	RecentTransactions []transactionDoc `json:"recent_transactions"`
}

type transactionDoc struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func New(clientsPath, historyPath string) *Store {
	return &Store{clientsPath: clientsPath, historyPath: historyPath}
}

// NewFromDir builds a store over the conventional file names inside dir.
func NewFromDir(dir string) *Store {
	return New(filepath.Join(dir, "clients.json"), filepath.Join(dir, "history.csv"))
}

// LoadClients reads the JSON client document. On any read or parse failure
// it returns an empty map; the tool layer turns an absent client into a
// not-found sentence, so this degrades cleanly instead of propagating.
func (s *Store) LoadClients(ctx context.Context) map[string]core.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadClientsLocked(ctx)
}

func (s *Store) loadClientsLocked(ctx context.Context) map[string]core.Client {
	out := make(map[string]core.Client)

	raw, err := os.ReadFile(s.clientsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.WarnContext(ctx, "Client store read failed", "path", s.clientsPath, "error", err)
		}
		return out
	}
	var docs map[string]clientDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		slog.WarnContext(ctx, "Client store parse failed", "path", s.clientsPath, "error", err)
		return out
	}

	for id, doc := range docs {
		c := core.Client{
			ID:      id,
			Name:    doc.Name,
			Balance: core.Money{Cents: core.CentsFromFloat(doc.CurrentBalance)},
		}
		for _, t := range doc.RecentTransactions {
			d, err := core.ParseDate(t.Date)
			if err != nil {
				slog.WarnContext(ctx, "Skipping transaction with bad date", "client_id", id, "date", t.Date)
				continue
			}
			c.Recent = append(c.Recent, core.Transaction{
				Date:        d,
				Amount:      core.Money{Cents: core.CentsFromFloat(t.Amount)},
				Description: t.Description,
			})
		}
		out[id] = c
	}
	return out
}

// LoadHistory reads the CSV history table. A missing file yields
// store.ErrHistoryUnavailable; malformed rows are skipped with a warning so
// one bad line does not take the whole table down.
func (s *Store) LoadHistory(ctx context.Context) ([]core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadHistoryLocked(ctx)
}

func (s *Store) loadHistoryLocked(ctx context.Context) ([]core.HistoryRecord, error) {
	f, err := os.Open(s.historyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrHistoryUnavailable
		}
		return nil, fmt.Errorf("open history store: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history store: %w", err)
	}

	var out []core.HistoryRecord
	for i, row := range rows {
		if i == 0 && row[0] == "client_id" {
			continue // header
		}
		rec, err := parseHistoryRow(row)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed history row", "line", i+1, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseHistoryRow(row []string) (core.HistoryRecord, error) {
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("client_id %q: %w", row[0], err)
	}
	date, err := core.ParseDate(row[1])
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("date %q: %w", row[1], err)
	}
	cents, err := core.ParseDecimalToCents(row[3])
	if err != nil {
		return core.HistoryRecord{}, fmt.Errorf("amount %q: %w", row[3], err)
	}
	return core.HistoryRecord{
		ClientID: id,
		Date:     date,
		Category: row[2],
		Amount:   core.Money{Cents: cents},
	}, nil
}

// AppendExpense appends a row to the history CSV and prepends the entry to
// the client's recent-transactions list, keeping the two views consistent
// from this point forward.
func (s *Store) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := s.appendHistoryLocked(e)
	if err != nil {
		return "", err
	}

	// Best effort: the history table is the system of record, the embedded
	// recent list is a convenience view.
	if err := s.updateRecentLocked(e); err != nil {
		slog.WarnContext(ctx, "Recent-transactions update failed", "client_id", e.ClientID, "error", err)
	}

	slog.InfoContext(ctx, "Expense appended to history store",
		"ref", ref,
		"client_id", e.ClientID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	return ref, nil
}

func (s *Store) appendHistoryLocked(e core.Expense) (string, error) {
	_, statErr := os.Stat(s.historyPath)
	newFile := errors.Is(statErr, fs.ErrNotExist)

	if newFile {
		if err := os.MkdirAll(filepath.Dir(s.historyPath), 0o755); err != nil {
			return "", fmt.Errorf("create data directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.historyPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open history store for append: %w", err)
	}
	defer f.Close()

	if newFile {
		if _, err := f.WriteString(historyHeader + "\n"); err != nil {
			return "", fmt.Errorf("write history header: %w", err)
		}
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{e.ClientID, e.Date.ISO(), e.Category, e.Amount.Format()}); err != nil {
		return "", fmt.Errorf("write history row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush history row: %w", err)
	}

	info, err := os.Stat(s.historyPath)
	if err != nil {
		return "row", nil
	}
	return "row:" + strconv.FormatInt(info.Size(), 10), nil
}

func (s *Store) updateRecentLocked(e core.Expense) error {
	raw, err := os.ReadFile(s.clientsPath)
	if err != nil {
		return fmt.Errorf("read client store: %w", err)
	}
	var docs map[string]clientDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("parse client store: %w", err)
	}
	doc, ok := docs[e.ClientID]
	if !ok {
		return fmt.Errorf("client %s not in store", e.ClientID)
	}

	entry := transactionDoc{Date: e.Date.ISO(), Amount: e.Amount.Float(), Description: e.Description}
	doc.RecentTransactions = append([]transactionDoc{entry}, doc.RecentTransactions...)
	docs[e.ClientID] = doc

	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal client store: %w", err)
	}
	if err := os.WriteFile(s.clientsPath, out, 0o644); err != nil {
		return fmt.Errorf("write client store: %w", err)
	}
	return nil
}
