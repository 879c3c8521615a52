package core

import "sort"

// CategoryAmount is an amount aggregated under one category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PeriodSummary aggregates history rows over an optional date range.
// Categories are kept in sorted name order; that order is part of the
// tool-output contract and must stay stable.
type PeriodSummary struct {
	From       Date // zero when unbounded
	To         Date // zero when unbounded
	Total      Money
	ByCategory []CategoryAmount
}

// MonthAmount is the total spent in one calendar month ("2006-01").
type MonthAmount struct {
	Month  string
	Amount Money
}

// FilterPeriod returns the records within the inclusive [from, to] range.
// A zero bound leaves that side open.
func FilterPeriod(records []HistoryRecord, from, to Date) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(records))
	for _, r := range records {
		if !from.IsEmpty() && r.Date.Before(from.Time) {
			continue
		}
		if !to.IsEmpty() && r.Date.After(to.Time) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize groups records by category and sums amounts. The grand total
// always equals the sum of the category sums exactly, since both are
// accumulated in cents.
func Summarize(records []HistoryRecord, from, to Date) PeriodSummary {
	sums := make(map[string]int64)
	var total int64
	for _, r := range records {
		sums[r.Category] += r.Amount.Cents
		total += r.Amount.Cents
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	s := PeriodSummary{From: from, To: to, Total: Money{Cents: total}}
	for _, name := range names {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: sums[name]}})
	}
	return s
}

// MonthlyTotals sums records per calendar month in chronological order.
func MonthlyTotals(records []HistoryRecord) []MonthAmount {
	sums := make(map[string]int64)
	for _, r := range records {
		sums[r.Date.Format("2006-01")] += r.Amount.Cents
	}
	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthAmount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthAmount{Month: m, Amount: Money{Cents: sums[m]}})
	}
	return out
}
