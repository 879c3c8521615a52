package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"financia/internal/store"
)

type balanceInput struct {
	ClientID string `json:"client_id" jsonschema_description:"Client identifier, for example \"1001\"."`
}

// NewBalanceTool looks up the current account balance of a client.
func NewBalanceTool(clients store.ClientReader) Definition {
	return Definition{
		Name: "get_balance",
		Description: "Useful to check the current balance available in the client's bank account. " +
			"Returns the amount in Bolivianos (Bs.). Parameter: client_id (string), for example \"1001\".",
		Schema: GenerateSchema[balanceInput](),
		Handler: func(ctx context.Context, input json.RawMessage) Result {
			var in balanceInput
			if err := json.Unmarshal(input, &in); err != nil {
				return invalidInput(err)
			}

			client, ok := clients.LoadClients(ctx)[in.ClientID]
			if !ok {
				return Result{Text: msgClientNotFound}
			}
			return Result{Text: fmt.Sprintf(
				"The current balance of %s's account is %s Bs.",
				client.Name, client.Balance.Format())}
		},
	}
}
