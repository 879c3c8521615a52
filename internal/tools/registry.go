package tools

import (
	"time"

	"financia/internal/store"
)

// Registry returns the four banking tools wired against the given stores.
func Registry(clients store.ClientReader, history store.HistoryReader, registrar ExpenseRegistrar) []Definition {
	return []Definition{
		NewBalanceTool(clients),
		NewRecentExpensesTool(clients),
		NewPeriodStatsTool(history),
		NewRegisterExpenseTool(clients, registrar, time.Now),
	}
}
