// Package agent runs the conversational loop: it feeds the persisted
// transcript plus the registered tools to an LLM provider, executes the
// tool calls the model requests, and keeps going until the model produces
// a plain text answer for the client.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"financia/internal/log"
	"financia/internal/memory"
	"financia/internal/provider"
	"financia/internal/tools"
)

// Reply is the outcome of one full chat turn.
type Reply struct {
	Text string
	// DataChanged is set when any executed tool mutated stored data, so the
	// caller knows to invalidate derived views.
	DataChanged bool
}

type Agent struct {
	llm      provider.Provider
	model    string
	tools    []tools.Definition
	clientID string
	maxIters int
	logger   *log.Logger
	now      func() time.Time
}

func New(llm provider.Provider, model string, defs []tools.Definition, clientID string, maxIters int, logger *log.Logger) *Agent {
	if model == "" {
		model = llm.DefaultModel()
	}
	if maxIters <= 0 {
		maxIters = 8
	}
	return &Agent{
		llm:      llm,
		model:    model,
		tools:    defs,
		clientID: clientID,
		maxIters: maxIters,
		logger:   logger,
		now:      time.Now,
	}
}

// Respond appends the user's message to the conversation, runs the tool
// loop, persists the final assistant answer and returns it. The transcript
// is durable before the first provider call, so a provider failure never
// loses what the user typed.
func (a *Agent) Respond(ctx context.Context, conv *memory.Conversation, userInput string) (Reply, error) {
	if err := conv.Append(memory.Message{Role: memory.RoleUser, Content: userInput}); err != nil {
		return Reply{}, fmt.Errorf("persist user message: %w", err)
	}

	turnID := uuid.NewString()
	msgs := a.buildMessages(conv.Messages())
	schemas := a.toolSchemas()
	system := SystemPrompt(a.now())

	var dataChanged bool
	for iter := 0; iter < a.maxIters; iter++ {
		resp, err := a.llm.Chat(ctx, &provider.ChatRequest{
			Model:        a.model,
			SystemPrompt: system,
			Messages:     msgs,
			Tools:        schemas,
		})
		if err != nil {
			return Reply{}, fmt.Errorf("chat completion: %w", err)
		}
		a.logger.DebugContext(ctx, "Completion received",
			"turn_id", turnID,
			"iteration", iter,
			"tool_calls", len(resp.ToolCalls),
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens)

		if len(resp.ToolCalls) == 0 {
			if err := conv.Append(memory.Message{Role: memory.RoleAssistant, Content: resp.Text}); err != nil {
				return Reply{}, fmt.Errorf("persist assistant message: %w", err)
			}
			return Reply{Text: resp.Text, DataChanged: dataChanged}, nil
		}

		assistant := provider.Message{Role: provider.RoleAssistant}
		if resp.Text != "" {
			assistant.Content = append(assistant.Content, provider.Content{
				Type: provider.ContentTypeText,
				Text: resp.Text,
			})
		}
		results := provider.Message{Role: provider.RoleUser}
		for _, call := range resp.ToolCalls {
			assistant.Content = append(assistant.Content, provider.Content{
				Type:      provider.ContentTypeToolUse,
				ToolUseID: call.ID,
				ToolName:  call.Name,
				ToolInput: call.Input,
			})
			res, ok := a.execTool(ctx, turnID, call)
			dataChanged = dataChanged || res.DataChanged
			results.Content = append(results.Content, provider.Content{
				Type:       provider.ContentTypeToolResult,
				ToolUseID:  call.ID,
				ToolResult: res.Text,
				IsError:    !ok,
			})
		}
		msgs = append(msgs, assistant, results)
	}

	return Reply{}, fmt.Errorf("tool loop did not settle after %d iterations", a.maxIters)
}

func (a *Agent) execTool(ctx context.Context, turnID string, call provider.ToolCallRequest) (tools.Result, bool) {
	for i := range a.tools {
		if a.tools[i].Name != call.Name {
			continue
		}
		start := a.now()
		res := a.tools[i].Handler(ctx, call.Input)
		a.logger.InfoContext(ctx, "Tool executed",
			"turn_id", turnID,
			"tool", call.Name,
			"duration_ms", time.Since(start).Milliseconds(),
			"data_changed", res.DataChanged)
		return res, true
	}
	a.logger.WarnContext(ctx, "Unknown tool requested", "turn_id", turnID, "tool", call.Name)
	return tools.Result{Text: "tool not found"}, false
}

// buildMessages maps the persisted transcript into provider messages. The
// session's client id is injected as a silent prefix on the newest user
// message only, so the model always knows who it is talking to without the
// id ever appearing in the visible transcript.
func (a *Agent) buildMessages(persisted []memory.Message) []provider.Message {
	lastUser := -1
	for i, m := range persisted {
		if m.Role == memory.RoleUser {
			lastUser = i
		}
	}

	out := make([]provider.Message, 0, len(persisted))
	for i, m := range persisted {
		role := provider.RoleUser
		if m.Role == memory.RoleAssistant {
			role = provider.RoleAssistant
		}
		text := m.Content
		if i == lastUser {
			text = fmt.Sprintf("I am the client with ID %s. %s", a.clientID, text)
		}
		out = append(out, provider.Message{
			Role:    role,
			Content: []provider.Content{{Type: provider.ContentTypeText, Text: text}},
		})
	}
	return out
}

func (a *Agent) toolSchemas() []provider.ToolSchema {
	out := make([]provider.ToolSchema, 0, len(a.tools))
	for _, t := range a.tools {
		out = append(out, provider.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		})
	}
	return out
}
