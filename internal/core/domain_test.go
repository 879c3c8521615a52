package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid", "2025-03-15", "2025-03-15", false},
		{"whitespace", " 2025-03-15 ", "2025-03-15", false},
		{"wrong layout", "15/03/2025", "", true},
		{"month out of range", "2025-13-01", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if got.ISO() != tt.want {
				t.Errorf("ParseDate(%q).ISO() = %q, want %q", tt.input, got.ISO(), tt.want)
			}
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		ClientID:    "1001",
		Date:        NewDate(2025, 3, 15),
		Category:    "Transporte",
		Description: "Taxi to the airport",
		Amount:      Money{Cents: 4550},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(e *Expense)
		wantErr error
	}{
		{"empty client id", func(e *Expense) { e.ClientID = "  " }, ErrEmptyClientID},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
		{"empty description", func(e *Expense) { e.Description = "" }, ErrEmptyDescription},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -100} }, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("description too long", func(t *testing.T) {
		e := valid
		e.Description = strings.Repeat("x", 201)
		if err := e.Validate(); err == nil {
			t.Error("expected error for 201-character description")
		}
	})
}
