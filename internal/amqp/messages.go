package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseRegisteredMessage carries a newly registered expense to the sync
// worker. It is self-contained so the worker never needs to read the flat
// files back.
type ExpenseRegisteredMessage struct {
	Ref         string    `json:"ref"`
	ClientID    string    `json:"client_id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseRegisteredMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRegisteredMessageFromJSON creates a message from JSON bytes.
func ExpenseRegisteredMessageFromJSON(data []byte) (*ExpenseRegisteredMessage, error) {
	var msg ExpenseRegisteredMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
