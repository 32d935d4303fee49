package core

import (
	"sort"
	"time"
)

// MonthSummary describes how a jar moved during one calendar month.
// Budget is the single largest top-up of the month, Spent is what left the
// jar after accounting for that top-up.
type MonthSummary struct {
	StartBalance int64
	Budget       int64
	EndBalance   int64
	Spent        int64
}

// AvailableMonths returns the distinct months touched by the given
// transaction times, as first-of-month UTC dates in ascending order.
func AvailableMonths(times []int64) []time.Time {
	seen := make(map[time.Time]struct{}, len(times))
	for _, ts := range times {
		t := time.Unix(ts, 0).UTC()
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		seen[month] = struct{}{}
	}

	months := make([]time.Time, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// SummarizeMonth computes the MonthSummary for the transactions of a single
// month. Transactions outside [month, month+1) are ignored; ties on time are
// broken by transaction id. An empty month yields the zero summary.
func SummarizeMonth(txs []Transaction, month time.Time) MonthSummary {
	from, to := MonthBounds(month)

	inMonth := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Time >= from && tx.Time < to {
			inMonth = append(inMonth, tx)
		}
	}
	if len(inMonth) == 0 {
		return MonthSummary{}
	}

	sort.Slice(inMonth, func(i, j int) bool {
		if inMonth[i].Time != inMonth[j].Time {
			return inMonth[i].Time < inMonth[j].Time
		}
		return inMonth[i].ID < inMonth[j].ID
	})

	var budget int64
	for _, tx := range inMonth {
		if tx.Amount > budget {
			budget = tx.Amount
		}
	}

	start := inMonth[0].Balance
	end := inMonth[len(inMonth)-1].Balance
	return MonthSummary{
		StartBalance: start,
		Budget:       budget,
		EndBalance:   end,
		Spent:        start - end - budget,
	}
}
