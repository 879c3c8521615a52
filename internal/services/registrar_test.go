package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"financia/internal/amqp"
	"financia/internal/core"
	"financia/internal/log"
)

type stubAppender struct {
	ref  string
	err  error
	last core.Expense
}

func (s *stubAppender) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	s.last = e
	return s.ref, s.err
}

type stubPublisher struct {
	err       error
	published []*amqp.ExpenseRegisteredMessage
}

func (s *stubPublisher) PublishExpenseRegistered(ctx context.Context, msg *amqp.ExpenseRegisteredMessage) error {
	s.published = append(s.published, msg)
	return s.err
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func validExpense() core.Expense {
	return core.Expense{
		ClientID:    "1001",
		Date:        core.NewDate(2025, 3, 15),
		Category:    "Transporte",
		Description: "Taxi",
		Amount:      core.Money{Cents: 4550},
	}
}

func TestRegisterPublishesEvent(t *testing.T) {
	appender := &stubAppender{ref: "row:42"}
	events := &stubPublisher{}
	r := NewRegistrar(appender, events, quietLogger())

	ref, err := r.Register(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if ref != "row:42" {
		t.Errorf("ref = %q, want row:42", ref)
	}
	if len(events.published) != 1 {
		t.Fatalf("published %d events, want 1", len(events.published))
	}
	msg := events.published[0]
	if msg.Ref != "row:42" || msg.ClientID != "1001" || msg.Date != "2025-03-15" || msg.AmountCents != 4550 {
		t.Errorf("event = %+v", msg)
	}
}

func TestRegisterWithoutPublisher(t *testing.T) {
	appender := &stubAppender{ref: "row:1"}
	r := NewRegistrar(appender, nil, quietLogger())

	if _, err := r.Register(context.Background(), validExpense()); err != nil {
		t.Fatalf("Register without publisher: %v", err)
	}
}

func TestRegisterPublishFailureIsSwallowed(t *testing.T) {
	appender := &stubAppender{ref: "row:7"}
	events := &stubPublisher{err: errors.New("broker down")}
	r := NewRegistrar(appender, events, quietLogger())

	ref, err := r.Register(context.Background(), validExpense())
	if err != nil {
		t.Fatalf("publish failure must not fail registration: %v", err)
	}
	if ref != "row:7" {
		t.Errorf("ref = %q, want row:7", ref)
	}
}

func TestRegisterAppendFailure(t *testing.T) {
	appender := &stubAppender{err: errors.New("disk full")}
	events := &stubPublisher{}
	r := NewRegistrar(appender, events, quietLogger())

	if _, err := r.Register(context.Background(), validExpense()); err == nil {
		t.Fatal("expected append error")
	}
	if len(events.published) != 0 {
		t.Error("no event may be published when the local write fails")
	}
}

func TestRegisterRejectsInvalidExpense(t *testing.T) {
	appender := &stubAppender{}
	r := NewRegistrar(appender, nil, quietLogger())

	e := validExpense()
	e.Description = ""
	if _, err := r.Register(context.Background(), e); err == nil {
		t.Fatal("expected validation error")
	}
	if appender.last.ClientID != "" {
		t.Error("invalid expense must not reach the appender")
	}
}
