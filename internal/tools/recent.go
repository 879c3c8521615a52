package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"financia/internal/store"
)

type recentExpensesInput struct {
	ClientID string `json:"client_id" jsonschema_description:"Client identifier, for example \"1001\"."`
}

// NewRecentExpensesTool lists the client's embedded recent-transactions
// view, formatted one entry per line for the model to analyze.
func NewRecentExpensesTool(clients store.ClientReader) Definition {
	return Definition{
		Name: "get_recent_expenses",
		Description: "Useful to obtain the client's latest transactions and expenses. " +
			"Ideal to analyze what the client has been spending money on. " +
			"Parameter: client_id (string), for example \"1001\".",
		Schema: GenerateSchema[recentExpensesInput](),
		Handler: func(ctx context.Context, input json.RawMessage) Result {
			var in recentExpensesInput
			if err := json.Unmarshal(input, &in); err != nil {
				return invalidInput(err)
			}

			client, ok := clients.LoadClients(ctx)[in.ClientID]
			if !ok {
				return Result{Text: msgClientNotFound}
			}
			if len(client.Recent) == 0 {
				return Result{Text: msgNoRecent}
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Recent expense history for %s:\n", client.Name)
			for _, t := range client.Recent {
				fmt.Fprintf(&b, "- Date: %s | Amount: %s Bs. | Detail: %s\n",
					t.Date.ISO(), t.Amount.Format(), t.Description)
			}
			return Result{Text: b.String()}
		},
	}
}
