package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"financia/internal/core"
	"financia/internal/store"
)

type periodStatsInput struct {
	ClientID  string `json:"client_id" jsonschema_description:"Client identifier, for example \"1001\"."`
	StartDate string `json:"start_date,omitempty" jsonschema_description:"Start of the period in YYYY-MM-DD format, inclusive (optional)."`
	EndDate   string `json:"end_date,omitempty" jsonschema_description:"End of the period in YYYY-MM-DD format, inclusive (optional)."`
}

// NewPeriodStatsTool aggregates history rows by category over an optional
// inclusive date range.
func NewPeriodStatsTool(history store.HistoryReader) Definition {
	return Definition{
		Name: "analyze_period_statistics",
		Description: "Useful to obtain a statistical summary of expenses grouped by category. " +
			"Use it to answer questions about days, weeks, months or years. Parameters: " +
			"client_id (string), start_date (YYYY-MM-DD, optional), end_date (YYYY-MM-DD, optional). " +
			"Returns the total spent per category in the requested period.",
		Schema: GenerateSchema[periodStatsInput](),
		Handler: func(ctx context.Context, input json.RawMessage) Result {
			var in periodStatsInput
			if err := json.Unmarshal(input, &in); err != nil {
				return invalidInput(err)
			}

			records, err := history.LoadHistory(ctx)
			if err != nil {
				if !errors.Is(err, store.ErrHistoryUnavailable) {
					slog.ErrorContext(ctx, "History load failed", "error", err)
				}
				return Result{Text: msgHistoryUnavailable}
			}

			clientID, err := strconv.Atoi(strings.TrimSpace(in.ClientID))
			if err != nil {
				// Non-numeric ids cannot match any history row.
				return Result{Text: msgEmptyPeriod}
			}

			var from, to core.Date
			if in.StartDate != "" {
				if from, err = core.ParseDate(in.StartDate); err != nil {
					return Result{Text: "Error: start_date must use the YYYY-MM-DD format."}
				}
			}
			if in.EndDate != "" {
				if to, err = core.ParseDate(in.EndDate); err != nil {
					return Result{Text: "Error: end_date must use the YYYY-MM-DD format."}
				}
			}

			var mine []core.HistoryRecord
			for _, r := range records {
				if r.ClientID == clientID {
					mine = append(mine, r)
				}
			}
			filtered := core.FilterPeriod(mine, from, to)
			if len(filtered) == 0 {
				return Result{Text: msgEmptyPeriod}
			}

			summary := core.Summarize(filtered, from, to)
			return Result{Text: formatSummary(summary, in.StartDate, in.EndDate)}
		},
	}
}

func formatSummary(s core.PeriodSummary, startDate, endDate string) string {
	period := "Full History"
	switch {
	case startDate != "" && endDate != "":
		period = fmt.Sprintf("from %s to %s", startDate, endDate)
	case startDate != "":
		period = fmt.Sprintf("from %s", startDate)
	case endDate != "":
		period = fmt.Sprintf("until %s", endDate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- Expense Summary (%s) ---\n", period)
	fmt.Fprintf(&b, "Total Spent: %s Bs.\n", s.Total.Format())
	b.WriteString("Breakdown by category:\n")
	for _, c := range s.ByCategory {
		fmt.Fprintf(&b, "- %s: %s Bs.\n", c.Name, c.Amount.Format())
	}
	return b.String()
}
