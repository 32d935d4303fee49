package core

import (
	"testing"
	"time"
)

func unixAt(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).Unix()
}

func TestAvailableMonths(t *testing.T) {
	times := []int64{
		unixAt(2025, time.July, 14, 10),
		unixAt(2025, time.July, 2, 8),
		unixAt(2025, time.May, 31, 23),
		unixAt(2025, time.July, 14, 10),
	}

	got := AvailableMonths(times)
	want := []time.Time{
		time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}

	if len(got) != len(want) {
		t.Fatalf("AvailableMonths() = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("AvailableMonths()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAvailableMonths_Empty(t *testing.T) {
	if got := AvailableMonths(nil); len(got) != 0 {
		t.Errorf("AvailableMonths(nil) = %v, want empty", got)
	}
}

func TestSummarizeMonth(t *testing.T) {
	month := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		txs  []Transaction
		want MonthSummary
	}{
		{
			name: "empty month yields zero summary",
			txs: []Transaction{
				{ID: "a", Time: unixAt(2025, time.June, 5, 12), Amount: 100, Balance: 100},
			},
			want: MonthSummary{},
		},
		{
			name: "budget is the single largest top-up",
			txs: []Transaction{
				{ID: "a", Time: unixAt(2025, time.July, 1, 9), Amount: 50000, Balance: 60000},
				{ID: "b", Time: unixAt(2025, time.July, 3, 9), Amount: -15000, Balance: 45000},
				{ID: "c", Time: unixAt(2025, time.July, 5, 9), Amount: 2000, Balance: 47000},
				{ID: "d", Time: unixAt(2025, time.July, 20, 9), Amount: -7000, Balance: 40000},
			},
			want: MonthSummary{StartBalance: 60000, Budget: 50000, EndBalance: 40000, Spent: -30000},
		},
		{
			name: "no positive amounts means zero budget",
			txs: []Transaction{
				{ID: "a", Time: unixAt(2025, time.July, 2, 9), Amount: -1000, Balance: 9000},
				{ID: "b", Time: unixAt(2025, time.July, 9, 9), Amount: -4000, Balance: 5000},
			},
			want: MonthSummary{StartBalance: 9000, Budget: 0, EndBalance: 5000, Spent: 4000},
		},
		{
			name: "equal times break the tie by id",
			txs: []Transaction{
				{ID: "z", Time: unixAt(2025, time.July, 10, 9), Amount: -500, Balance: 1500},
				{ID: "a", Time: unixAt(2025, time.July, 10, 9), Amount: 2000, Balance: 2000},
			},
			want: MonthSummary{StartBalance: 2000, Budget: 2000, EndBalance: 1500, Spent: -1500},
		},
		{
			name: "neighbouring months are ignored",
			txs: []Transaction{
				{ID: "a", Time: unixAt(2025, time.June, 30, 23), Amount: 9999, Balance: 9999},
				{ID: "b", Time: unixAt(2025, time.July, 15, 12), Amount: -100, Balance: 900},
				{ID: "c", Time: unixAt(2025, time.August, 1, 0), Amount: 8888, Balance: 8888},
			},
			want: MonthSummary{StartBalance: 900, Budget: 0, EndBalance: 900, Spent: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SummarizeMonth(tt.txs, month); got != tt.want {
				t.Errorf("SummarizeMonth() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
