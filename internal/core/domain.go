package core

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day without a time component. All store files use
	// the ISO layout YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one entry of a client's embedded recent list.
	Transaction struct {
		Date        Date
		Amount      Money
		Description string
	}

	// Client is the account holder whose finances are being discussed.
	Client struct {
		ID      string
		Name    string
		Balance Money
		Recent  []Transaction
	}

	// HistoryRecord is one row of the tabular history store, the system of
	// record for period aggregation and charting.
	HistoryRecord struct {
		ClientID int
		Date     Date
		Category string
		Amount   Money
	}

	// Expense is a new spending entry to be registered durably.
	Expense struct {
		ClientID    string
		Date        Date
		Category    string
		Description string
		Amount      Money
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyClientID    = errors.New("empty client id")
)

// ParseDate parses an ISO date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(dateLayout)
}

// IsEmpty returns true if the date is zero (optional bounds use the zero value).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ClientID) == "" {
		return ErrEmptyClientID
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Amount.Validate()
}
