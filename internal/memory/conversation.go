// Package memory persists the chat transcript. The whole ordered message
// list is rewritten on every append, so a crash loses at most the turn in
// flight. The file is plain UTF-8 JSON, human-readable on purpose.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one persisted chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is the durable, ordered transcript of a session.
type Conversation struct {
	mu   sync.Mutex
	path string
	msgs []Message
}

// Open loads the persisted transcript if one exists; otherwise it seeds
// the in-memory sequence with the fixed greeting. The seed is not written
// until the first append.
func Open(path, greeting string) (*Conversation, error) {
	c := &Conversation{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read conversation store: %w", err)
		}
		c.msgs = []Message{{Role: RoleAssistant, Content: greeting}}
		return c, nil
	}
	if err := json.Unmarshal(raw, &c.msgs); err != nil {
		return nil, fmt.Errorf("parse conversation store: %w", err)
	}
	if len(c.msgs) == 0 {
		c.msgs = []Message{{Role: RoleAssistant, Content: greeting}}
	}
	return c, nil
}

// Append adds a message and immediately persists the whole sequence.
func (c *Conversation) Append(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.msgs = append(c.msgs, m)
	if err := c.persistLocked(); err != nil {
		// Roll back so memory and disk stay consistent.
		c.msgs = c.msgs[:len(c.msgs)-1]
		return err
	}
	return nil
}

func (c *Conversation) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create conversation directory: %w", err)
	}
	out, err := json.MarshalIndent(c.msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	if err := os.WriteFile(c.path, out, 0o644); err != nil {
		return fmt.Errorf("write conversation store: %w", err)
	}
	return nil
}

// Messages returns a copy of the ordered transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of messages in the transcript.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs)
}
