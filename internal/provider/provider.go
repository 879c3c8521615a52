// Package provider defines the unified interface and shared types for all
// LLM providers. Each adapter (openai.go, anthropic.go) converts the unified
// request into its vendor API format and normalizes the response back.
package provider

import (
	"context"
	"encoding/json"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeToolUse    ContentType = "tool_use"
	ContentTypeToolResult ContentType = "tool_result"
)

// Content is a single content block within a message.
type Content struct {
	Type       ContentType
	Text       string
	ToolUseID  string          // tool_use / tool_result
	ToolName   string          // tool_use
	ToolInput  json.RawMessage // tool_use
	ToolResult string          // tool_result
	IsError    bool            // tool_result
}

// Message is a single message in the conversation history.
type Message struct {
	Role    Role
	Content []Content
}

// ToolSchema describes a tool sent to the LLM (JSON Schema format).
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema properties
}

// ChatRequest is the unified request format sent to a provider.
type ChatRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolSchema
	SystemPrompt string
	MaxTokens    int
}

// ToolCallRequest represents a tool call requested by the LLM.
type ToolCallRequest struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Usage records token consumption for an API call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ChatResponse is the normalized result of one completion call. Text and
// ToolCalls can both be set; an empty ToolCalls slice means the model is
// done with the turn.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCallRequest
	Usage     Usage
}

// Provider is the unified interface for all LLM providers.
// Implementors are responsible for:
//  1. Converting the unified ChatRequest into the provider's API request format
//  2. Normalizing the provider's response into a ChatResponse
//  3. Handling provider-specific error codes
type Provider interface {
	// Chat runs one non-streaming completion over the full conversation.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier, e.g. "openai", "anthropic".
	Name() string

	// DefaultModel returns the model used when ChatRequest.Model is empty.
	DefaultModel() string
}
