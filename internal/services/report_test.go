package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"monohelper/internal/core"
)

type fakeReportStore struct {
	txs         []core.Transaction
	subscribers []int64
}

func (f *fakeReportStore) CardTransactionsBetween(ctx context.Context, tgID, from, to int64) ([]core.Transaction, error) {
	return f.txs, nil
}

func (f *fakeReportStore) GetCurrency(ctx context.Context, code int) (core.Currency, error) {
	if code == 980 {
		return core.Currency{Code: 980, Name: "UAH"}, nil
	}
	return core.Currency{}, core.ErrNotFound
}

func (f *fakeReportStore) ListReportSubscribers(ctx context.Context) ([]int64, error) {
	return f.subscribers, nil
}

func TestReportService_DailyReport(t *testing.T) {
	day := time.Date(2025, 7, 14, 21, 0, 0, 0, time.UTC)
	store := &fakeReportStore{txs: []core.Transaction{
		{ID: "a", Amount: -15000, CurrencyCode: 980, Description: "Сільпо"},
		{ID: "b", Amount: -40000, CurrencyCode: 980, Description: "Оренда"},
		{ID: "c", Amount: 30000, CurrencyCode: 980, Description: "Переказ"},
	}}
	svc := NewReportService(store)

	report, err := svc.DailyReport(context.Background(), 7, day)
	if err != nil {
		t.Fatalf("DailyReport() error = %v", err)
	}

	if !strings.Contains(report, "Звіт за 2025-07-14") {
		t.Errorf("report missing header:\n%s", report)
	}
	if !strings.Contains(report, "Витрати: 550.00 UAH") {
		t.Errorf("report wrong spend total:\n%s", report)
	}
	if !strings.Contains(report, "Надходження: 300.00 UAH") {
		t.Errorf("report wrong income total:\n%s", report)
	}
	// 150 spend is covered by the 300 income pool, the 400 rent is not
	if !strings.Contains(report, "Не покрито надходженнями:") || !strings.Contains(report, "Оренда") {
		t.Errorf("report missing uncovered section:\n%s", report)
	}
}

func TestReportService_DailyReport_IncomeSurplus(t *testing.T) {
	store := &fakeReportStore{txs: []core.Transaction{
		{ID: "a", Amount: -10000, CurrencyCode: 980, Description: "Кава"},
		{ID: "b", Amount: 50000, CurrencyCode: 980},
	}}
	svc := NewReportService(store)

	report, err := svc.DailyReport(context.Background(), 7, time.Now())
	if err != nil {
		t.Fatalf("DailyReport() error = %v", err)
	}
	if !strings.Contains(report, "Залишок надходжень: 400.00 UAH") {
		t.Errorf("report missing income surplus:\n%s", report)
	}
	if !strings.Contains(report, "(без опису)") {
		t.Errorf("report missing placeholder for empty description:\n%s", report)
	}
}

func TestReportService_DailyReport_Empty(t *testing.T) {
	svc := NewReportService(&fakeReportStore{})

	report, err := svc.DailyReport(context.Background(), 7, time.Now())
	if err != nil {
		t.Fatalf("DailyReport() error = %v", err)
	}
	if report != "" {
		t.Errorf("DailyReport() = %q, want empty for a quiet day", report)
	}
}
