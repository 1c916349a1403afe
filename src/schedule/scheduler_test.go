package schedule

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMonthlyInterest(t *testing.T) {
	tests := []struct {
		name string
		loan string
		want string
	}{
		{name: "even division", loan: "15000", want: "150"},
		{name: "small loan truncates", loan: "999", want: "9"},
		{name: "one dollar truncates to zero", loan: "1", want: "0"},
		{name: "large loan", loan: "1000000", want: "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyInterest(decimal.RequireFromString(tt.loan))
			if got.String() != tt.want {
				t.Fatalf("MonthlyInterest(%s) = %s, want %s", tt.loan, got.String(), tt.want)
			}
		})
	}
}

func TestGenerateScheduleCompleteness(t *testing.T) {
	start := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	loan := decimal.RequireFromString("15000")

	obligations, err := Generate(7, "0xabc", loan, start)
	if err != nil {
		t.Fatalf("unexpected error generating schedule: %v", err)
	}

	if len(obligations) != 12 {
		t.Fatalf("expected 12 obligations, got %d", len(obligations))
	}

	for i, obligation := range obligations {
		if obligation.PositionID != 7 {
			t.Fatalf("obligation %d has position id %d", i, obligation.PositionID)
		}
		if obligation.Sequence != i {
			t.Fatalf("obligation %d has sequence %d", i, obligation.Sequence)
		}
		if !obligation.AmountUSD.Equal(decimal.RequireFromString("150")) {
			t.Fatalf("obligation %d amount = %s, want 150", i, obligation.AmountUSD.String())
		}
		if obligation.Paid || obligation.Late || obligation.DaysLate != 0 {
			t.Fatalf("obligation %d not created in clean state: %+v", i, obligation)
		}

		wantDue := start.AddDate(0, 0, (i+1)*30)
		if !obligation.DueDate.Equal(wantDue) {
			t.Fatalf("obligation %d due %s, want %s", i, obligation.DueDate, wantDue)
		}
	}

	// Strictly increasing due dates, 30 days apart.
	for i := 1; i < len(obligations); i++ {
		gap := obligations[i].DueDate.Sub(obligations[i-1].DueDate)
		if gap != 30*24*time.Hour {
			t.Fatalf("gap between obligation %d and %d is %s, want 720h", i-1, i, gap)
		}
	}
}
