package memory

import (
	"os"
	"path/filepath"
	"testing"
)

const greeting = "Hello! I am your financial advisor."

func TestOpenSeedsGreeting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")

	c, err := Open(path, greeting)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("new conversation has %d messages, want 1", c.Len())
	}
	msgs := c.Messages()
	if msgs[0].Role != RoleAssistant || msgs[0].Content != greeting {
		t.Errorf("seed = %+v, want assistant greeting", msgs[0])
	}

	// The seed is not persisted until the first append.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should not exist before the first append")
	}
}

func TestAppendPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")

	c, err := Open(path, greeting)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	turns := []Message{
		{Role: RoleUser, Content: "How much money do I have?"},
		{Role: RoleAssistant, Content: "Your balance is 2500.75 Bs."},
		{Role: RoleUser, Content: "Thanks!"},
	}
	for _, m := range turns {
		if err := c.Append(m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	reloaded, err := Open(path, greeting)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.Len() != 4 {
		t.Fatalf("reloaded %d messages, want 4", reloaded.Len())
	}
	msgs := reloaded.Messages()
	if msgs[0].Content != greeting {
		t.Errorf("first message = %q, want greeting", msgs[0].Content)
	}
	for i, want := range turns {
		if msgs[i+1] != want {
			t.Errorf("message %d = %+v, want %+v", i+1, msgs[i+1], want)
		}
	}
}

func TestOpenEmptyFileSeedsGreeting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Open(path, greeting)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("empty file should reseed the greeting, got %d messages", c.Len())
	}
}

func TestOpenCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, greeting); err == nil {
		t.Error("expected parse error for corrupt transcript")
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversation.json")
	c, err := Open(path, greeting)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	msgs := c.Messages()
	msgs[0].Content = "tampered"
	if c.Messages()[0].Content != greeting {
		t.Error("Messages must return a copy, not the backing slice")
	}
}
