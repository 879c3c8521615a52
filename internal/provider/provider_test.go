package provider

import (
	"encoding/json"
	"testing"
)

func TestOpenAIProvider_Metadata(t *testing.T) {
	p := NewOpenAIProvider("key", "", "gpt-4o")
	if p.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", p.Name())
	}
	if p.DefaultModel() != "gpt-4o" {
		t.Errorf("expected model 'gpt-4o', got %q", p.DefaultModel())
	}
}

func TestOpenAIProvider_DefaultModelFallback(t *testing.T) {
	p := NewOpenAIProvider("key", "", "")
	if p.DefaultModel() != "gpt-4o-mini" {
		t.Errorf("expected fallback model 'gpt-4o-mini', got %q", p.DefaultModel())
	}
}

func TestOpenAIProvider_BuildMessages(t *testing.T) {
	p := NewOpenAIProvider("key", "", "gpt-4o-mini")

	req := &ChatRequest{
		SystemPrompt: "You are a financial advisor.",
		Messages: []Message{
			{Role: RoleUser, Content: []Content{{Type: ContentTypeText, Text: "how much do I have?"}}},
			{Role: RoleAssistant, Content: []Content{
				{Type: ContentTypeToolUse, ToolUseID: "call_1", ToolName: "get_balance", ToolInput: json.RawMessage(`{"client_id":"1001"}`)},
			}},
			{Role: RoleUser, Content: []Content{
				{Type: ContentTypeToolResult, ToolUseID: "call_1", ToolResult: "2500.75 Bs."},
			}},
		},
	}

	msgs := p.buildMessages(req)
	// system + user + assistant(tool_use) + tool result
	if len(msgs) != 4 {
		t.Fatalf("built %d messages, want 4", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Error("first message should be the system prompt")
	}
	if msgs[1].OfUser == nil {
		t.Error("second message should be the user text")
	}
	assistant := msgs[2].OfAssistant
	if assistant == nil || len(assistant.ToolCalls) != 1 {
		t.Fatalf("third message should be an assistant tool call, got %+v", msgs[2])
	}
	if assistant.ToolCalls[0].ID != "call_1" || assistant.ToolCalls[0].Function.Name != "get_balance" {
		t.Errorf("tool call = %+v", assistant.ToolCalls[0])
	}
	if msgs[3].OfTool == nil {
		t.Error("fourth message should be a tool result")
	}
}

func TestOpenAIProvider_BuildTools(t *testing.T) {
	p := NewOpenAIProvider("key", "", "gpt-4o-mini")

	tools := p.buildTools([]ToolSchema{
		{Name: "get_balance", Description: "Check the balance.", Parameters: map[string]any{"client_id": map[string]any{"type": "string"}}},
	})
	if len(tools) != 1 {
		t.Fatalf("built %d tools, want 1", len(tools))
	}
	fn := tools[0].Function
	if fn.Name != "get_balance" {
		t.Errorf("tool name = %q", fn.Name)
	}
	if fn.Parameters["type"] != "object" {
		t.Errorf("parameters type = %v, want object", fn.Parameters["type"])
	}
	if _, ok := fn.Parameters["properties"]; !ok {
		t.Error("parameters missing properties")
	}
}

func TestAnthropicProvider_Metadata(t *testing.T) {
	p := NewAnthropicProvider("claude-test")
	if p.Name() != "anthropic" {
		t.Errorf("expected name 'anthropic', got %q", p.Name())
	}
	if p.DefaultModel() != "claude-test" {
		t.Errorf("expected model 'claude-test', got %q", p.DefaultModel())
	}
}

func TestAnthropicProvider_BuildMessages(t *testing.T) {
	p := NewAnthropicProvider("claude-test")

	msgs := p.buildMessages([]Message{
		{Role: RoleUser, Content: []Content{{Type: ContentTypeText, Text: "hello"}}},
		{Role: RoleAssistant, Content: []Content{
			{Type: ContentTypeToolUse, ToolUseID: "call_1", ToolName: "get_balance", ToolInput: json.RawMessage(`{}`)},
		}},
		{Role: RoleUser, Content: []Content{
			{Type: ContentTypeToolResult, ToolUseID: "call_1", ToolResult: "ok", IsError: false},
		}},
	})
	if len(msgs) != 3 {
		t.Fatalf("built %d messages, want 3", len(msgs))
	}
	if len(msgs[1].Content) != 1 || msgs[1].Content[0].OfToolUse == nil {
		t.Errorf("assistant tool_use block missing: %+v", msgs[1])
	}
	if msgs[2].Content[0].OfToolResult == nil {
		t.Errorf("tool_result block missing: %+v", msgs[2])
	}
}

func TestAnthropicProvider_BuildTools(t *testing.T) {
	p := NewAnthropicProvider("claude-test")

	tools := p.buildTools([]ToolSchema{
		{Name: "get_balance", Description: "Check the balance.", Parameters: map[string]any{"client_id": map[string]any{"type": "string"}}},
	})
	if len(tools) != 1 {
		t.Fatalf("built %d tools, want 1", len(tools))
	}
	if tools[0].OfTool == nil || tools[0].OfTool.Name != "get_balance" {
		t.Errorf("tool = %+v", tools[0])
	}
}
