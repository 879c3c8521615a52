package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"financia/internal/core"
	"financia/internal/store"
)

const clientsFixture = `{
  "1001": {
    "name": "David",
    "current_balance": 2500.75,
    "recent_transactions": [
      {"date": "2025-03-10", "amount": 45.50, "description": "Supermarket"},
      {"date": "2025-03-08", "amount": 12.00, "description": "Bus pass"}
    ]
  },
  "1002": {
    "name": "Maria",
    "current_balance": 130.00,
    "recent_transactions": []
  }
}`

const historyFixture = `client_id,date,category,amount
1001,2025-01-10,Alimentacion,45.50
1001,2025-02-15,Transporte,12.00
1002,2025-01-20,Ocio,80.00
`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clients.json"), []byte(clientsFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "history.csv"), []byte(historyFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	return NewFromDir(dir)
}

func TestLoadClients(t *testing.T) {
	s := newTestStore(t)

	clients := s.LoadClients(context.Background())
	if len(clients) != 2 {
		t.Fatalf("loaded %d clients, want 2", len(clients))
	}

	david, ok := clients["1001"]
	if !ok {
		t.Fatal("client 1001 missing")
	}
	if david.Name != "David" {
		t.Errorf("name = %q, want David", david.Name)
	}
	if david.Balance.Cents != 250075 {
		t.Errorf("balance cents = %d, want 250075", david.Balance.Cents)
	}
	if len(david.Recent) != 2 {
		t.Fatalf("recent = %d entries, want 2", len(david.Recent))
	}
	if david.Recent[0].Description != "Supermarket" || david.Recent[0].Amount.Cents != 4550 {
		t.Errorf("first recent = %+v", david.Recent[0])
	}
}

func TestLoadClientsMissingFileDegradesToEmpty(t *testing.T) {
	s := NewFromDir(t.TempDir())
	clients := s.LoadClients(context.Background())
	if len(clients) != 0 {
		t.Errorf("missing file should yield empty map, got %d clients", len(clients))
	}
}

func TestLoadClientsCorruptFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clients.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir)
	if clients := s.LoadClients(context.Background()); len(clients) != 0 {
		t.Errorf("corrupt file should yield empty map, got %d clients", len(clients))
	}
}

func TestLoadHistory(t *testing.T) {
	s := newTestStore(t)

	records, err := s.LoadHistory(context.Background())
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("loaded %d records, want 3", len(records))
	}
	first := records[0]
	if first.ClientID != 1001 || first.Category != "Alimentacion" || first.Amount.Cents != 4550 {
		t.Errorf("first record = %+v", first)
	}
}

func TestLoadHistoryMissingFile(t *testing.T) {
	s := NewFromDir(t.TempDir())
	_, err := s.LoadHistory(context.Background())
	if !errors.Is(err, store.ErrHistoryUnavailable) {
		t.Errorf("missing history error = %v, want ErrHistoryUnavailable", err)
	}
}

func TestLoadHistorySkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	bad := "client_id,date,category,amount\n" +
		"1001,2025-01-10,Alimentacion,45.50\n" +
		"notanid,2025-01-11,Ocio,10.00\n" +
		"1001,bad-date,Ocio,10.00\n" +
		"1001,2025-01-12,Ocio,notanumber\n"
	if err := os.WriteFile(filepath.Join(dir, "history.csv"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir)

	records, err := s.LoadHistory(context.Background())
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("loaded %d records, want 1 (malformed rows skipped)", len(records))
	}
}

func TestAppendExpense(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := core.Expense{
		ClientID:    "1001",
		Date:        core.NewDate(2025, 3, 15),
		Category:    "Ocio",
		Description: "Cinema tickets",
		Amount:      core.Money{Cents: 7000},
	}

	ref, err := s.AppendExpense(ctx, e)
	if err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}
	if ref == "" {
		t.Error("expected non-empty row reference")
	}

	// The history table gained the row.
	records, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory after append: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("history has %d records after append, want 4", len(records))
	}
	last := records[len(records)-1]
	if last.ClientID != 1001 || last.Category != "Ocio" || last.Amount.Cents != 7000 {
		t.Errorf("appended record = %+v", last)
	}

	// The client's recent list got the entry prepended.
	david := s.LoadClients(ctx)["1001"]
	if len(david.Recent) != 3 {
		t.Fatalf("recent has %d entries after append, want 3", len(david.Recent))
	}
	if david.Recent[0].Description != "Cinema tickets" {
		t.Errorf("newest recent entry = %+v, want the appended expense first", david.Recent[0])
	}
}

func TestAppendExpenseCreatesHistoryFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clients.json"), []byte(clientsFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromDir(dir)
	ctx := context.Background()

	e := core.Expense{
		ClientID:    "1002",
		Date:        core.NewDate(2025, 4, 1),
		Category:    "Salud",
		Description: "Pharmacy",
		Amount:      core.Money{Cents: 2500},
	}
	if _, err := s.AppendExpense(ctx, e); err != nil {
		t.Fatalf("AppendExpense on fresh file: %v", err)
	}

	records, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("history has %d records, want 1", len(records))
	}
}

func TestAppendExpenseRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	e := core.Expense{ClientID: "1001"} // missing everything else
	if _, err := s.AppendExpense(context.Background(), e); err == nil {
		t.Error("expected validation error")
	}
}
