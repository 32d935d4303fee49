package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"monohelper/internal/core"
)

// ReportStore is the storage surface for daily report composition.
type ReportStore interface {
	CardTransactionsBetween(ctx context.Context, tgID, from, to int64) ([]core.Transaction, error)
	GetCurrency(ctx context.Context, code int) (core.Currency, error)
	ListReportSubscribers(ctx context.Context) ([]int64, error)
}

// ReportService builds the plain-text daily card report. Spends are matched
// greedily against same-day incomes to show which of them were compensated.
type ReportService struct {
	store ReportStore
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// Subscribers returns tg_ids with the daily report enabled.
func (s *ReportService) Subscribers(ctx context.Context) ([]int64, error) {
	return s.store.ListReportSubscribers(ctx)
}

// DailyReport composes the report for one user covering the calendar day of
// the given time in UTC. An empty string means there was nothing to report.
func (s *ReportService) DailyReport(ctx context.Context, tgID int64, day time.Time) (string, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	txs, err := s.store.CardTransactionsBetween(ctx, tgID, start.Unix(), end.Unix())
	if err != nil {
		return "", fmt.Errorf("daily transactions of %d: %w", tgID, err)
	}
	if len(txs) == 0 {
		return "", nil
	}

	var spends, incomes []core.Transaction
	for _, tx := range txs {
		if tx.Amount < 0 {
			spends = append(spends, tx)
		} else if tx.Amount > 0 {
			incomes = append(incomes, tx)
		}
	}

	var totalSpent, totalIncome int64
	for _, tx := range spends {
		totalSpent += -tx.Amount
	}
	for _, tx := range incomes {
		totalIncome += tx.Amount
	}

	// Greedy matching: each spend eats income until the pool runs dry,
	// whatever remains is uncovered.
	incomePool := totalIncome
	var uncovered []core.Transaction
	for _, tx := range spends {
		amount := -tx.Amount
		if incomePool >= amount {
			incomePool -= amount
		} else {
			uncovered = append(uncovered, tx)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Звіт за %s\n\n", start.Format("2006-01-02"))
	for _, tx := range spends {
		fmt.Fprintf(&b, "− %s  %s\n", s.formatted(ctx, -tx.Amount, tx.CurrencyCode), describe(tx))
	}
	for _, tx := range incomes {
		fmt.Fprintf(&b, "+ %s  %s\n", s.formatted(ctx, tx.Amount, tx.CurrencyCode), describe(tx))
	}

	fmt.Fprintf(&b, "\nВитрати: %s\n", s.formatted(ctx, totalSpent, defaultCurrency(txs)))
	fmt.Fprintf(&b, "Надходження: %s\n", s.formatted(ctx, totalIncome, defaultCurrency(txs)))
	if len(uncovered) > 0 {
		fmt.Fprintf(&b, "\nНе покрито надходженнями:\n")
		for _, tx := range uncovered {
			fmt.Fprintf(&b, "− %s  %s\n", s.formatted(ctx, -tx.Amount, tx.CurrencyCode), describe(tx))
		}
	} else if incomePool > 0 {
		fmt.Fprintf(&b, "Залишок надходжень: %s\n", s.formatted(ctx, incomePool, defaultCurrency(txs)))
	}

	return b.String(), nil
}

func (s *ReportService) formatted(ctx context.Context, cents int64, currencyCode int) string {
	name := ""
	if currency, err := s.store.GetCurrency(ctx, currencyCode); err == nil {
		name = currency.Name
	}
	return core.FormatAmount(cents, name)
}

func describe(tx core.Transaction) string {
	desc := strings.TrimSpace(tx.Description)
	if desc == "" {
		return "(без опису)"
	}
	return desc
}

func defaultCurrency(txs []core.Transaction) int {
	for _, tx := range txs {
		if tx.CurrencyCode != 0 {
			return tx.CurrencyCode
		}
	}
	return 980
}
