// Package tools defines the callable capabilities exposed to the language
// model. Every tool takes JSON input and answers with prose: failures are
// encoded as human-readable sentences, never as errors, so the model can
// relay them conversationally. A tool that mutated the record store also
// reports DataChanged, which forces a refresh of the cached dashboard
// aggregates on the next render.
package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Result is the structured outcome of one tool invocation.
type Result struct {
	Text        string
	DataChanged bool
}

// Definition describes one tool: its wire name, the natural-language
// description the model reasons over, the JSON Schema of its input, and
// the handler that executes it.
type Definition struct {
	Name        string
	Description string
	Schema      map[string]any
	Handler     func(ctx context.Context, input json.RawMessage) Result
}

// Fixed user-facing sentences. The unavailable and empty-period messages
// are distinct on purpose: a missing backing file and a filter that
// matched nothing are different outcomes.
const (
	msgClientNotFound     = "Error: client not found in the database."
	msgNoRecent           = "No recent transactions recorded for this client."
	msgHistoryUnavailable = "Error: the historical expense database is unavailable."
	msgEmptyPeriod        = "No transactions found in the requested period."
)

// GenerateSchema derives the JSON Schema properties for a tool input
// struct from its jsonschema tags.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	props := make(map[string]any)
	if schema.Properties == nil {
		return props
	}
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = pair.Value
	}
	return props
}

func invalidInput(err error) Result {
	return Result{Text: "Error: could not understand the tool input (" + err.Error() + ")."}
}
