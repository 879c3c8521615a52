package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"financia/internal/core"
	"financia/internal/store"
)

// ExpenseRegistrar persists a new expense durably. The services package
// provides the production implementation.
type ExpenseRegistrar interface {
	Register(ctx context.Context, e core.Expense) (rowRef string, err error)
}

type registerExpenseInput struct {
	ClientID    string  `json:"client_id" jsonschema_description:"Client identifier, for example \"1001\"."`
	Date        string  `json:"date,omitempty" jsonschema_description:"Date of the expense in YYYY-MM-DD format. Defaults to today when omitted."`
	Description string  `json:"description" jsonschema_description:"Short free-text description of what was bought."`
	Category    string  `json:"category" jsonschema_description:"Spending category you classified the expense under, e.g. Transporte, Alimentacion."`
	Amount      float64 `json:"amount" jsonschema_description:"Amount spent in Bolivianos, e.g. 45.50."`
}

// NewRegisterExpenseTool appends a new expense to the history store and to
// the client's recent-transactions list. Unlike the read-only tools it
// reports DataChanged so the dashboard caches are invalidated.
func NewRegisterExpenseTool(clients store.ClientReader, registrar ExpenseRegistrar, now func() time.Time) Definition {
	if now == nil {
		now = time.Now
	}
	return Definition{
		Name: "register_expense",
		Description: "Useful when the client mentions they made a new expense. Registers the expense " +
			"durably and classifies it under the category you provide. Parameters: client_id (string), " +
			"date (YYYY-MM-DD, optional, defaults to today), description (string), category (string), " +
			"amount (number, in Bolivianos).",
		Schema: GenerateSchema[registerExpenseInput](),
		Handler: func(ctx context.Context, input json.RawMessage) Result {
			var in registerExpenseInput
			if err := json.Unmarshal(input, &in); err != nil {
				return invalidInput(err)
			}

			if _, ok := clients.LoadClients(ctx)[in.ClientID]; !ok {
				return Result{Text: msgClientNotFound}
			}

			date := core.Date{Time: now().UTC().Truncate(24 * time.Hour)}
			if in.Date != "" {
				var err error
				if date, err = core.ParseDate(in.Date); err != nil {
					return Result{Text: "Error: date must use the YYYY-MM-DD format."}
				}
			}

			e := core.Expense{
				ClientID:    in.ClientID,
				Date:        date,
				Category:    in.Category,
				Description: in.Description,
				Amount:      core.Money{Cents: core.CentsFromFloat(in.Amount)},
			}
			if err := e.Validate(); err != nil {
				return Result{Text: "Error: the expense could not be registered (" + err.Error() + ")."}
			}

			ref, err := registrar.Register(ctx, e)
			if err != nil {
				slog.ErrorContext(ctx, "Expense registration failed", "client_id", e.ClientID, "error", err)
				return Result{Text: "Error: the expense could not be saved to the database."}
			}

			return Result{
				Text: fmt.Sprintf(
					"Expense registered successfully (%s): %s — %s Bs. under category %s on %s.",
					ref, e.Description, e.Amount.Format(), e.Category, e.Date.ISO()),
				DataChanged: true,
			}
		},
	}
}
