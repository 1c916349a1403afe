package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"loanledger/src/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.PaymentObligation{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func newTestSweeper(t *testing.T, db *gorm.DB, now time.Time) *Sweeper {
	t.Helper()

	nullLogger, _ := logrustest.NewNullLogger()
	s := New(db, logrus.NewEntry(nullLogger))
	s.Now = func() time.Time { return now }

	return s
}

func seedObligation(t *testing.T, db *gorm.DB, seq int, due time.Time, paid bool) model.PaymentObligation {
	t.Helper()

	obligation := model.PaymentObligation{
		PositionID: 1,
		Sequence:   seq,
		Owner:      "0xborrower",
		AmountUSD:  decimal.RequireFromString("150"),
		DueDate:    due,
		Paid:       paid,
	}
	if paid {
		paidAt := due
		obligation.PaidDate = &paidAt
	}
	if err := db.Create(&obligation).Error; err != nil {
		t.Fatalf("failed to seed obligation: %v", err)
	}

	return obligation
}

func TestSweepFlagsLatePastThreshold(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)

	tenDaysOverdue := seedObligation(t, db, 0, now.AddDate(0, 0, -10), false)
	threeDaysOverdue := seedObligation(t, db, 1, now.AddDate(0, 0, -3), false)
	paidLongAgo := seedObligation(t, db, 2, now.AddDate(0, 0, -10), true)
	notDueYet := seedObligation(t, db, 3, now.AddDate(0, 0, 5), false)

	s := newTestSweeper(t, db, now)

	updated, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != 2 {
		t.Fatalf("updated = %d, want 2", updated)
	}

	var stored model.PaymentObligation

	if err := db.First(&stored, tenDaysOverdue.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if !stored.Late || stored.DaysLate != 10 {
		t.Fatalf("ten days overdue should be late: %+v", stored)
	}

	stored = model.PaymentObligation{}
	if err := db.First(&stored, threeDaysOverdue.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if stored.Late || stored.DaysLate != 3 {
		t.Fatalf("three days overdue is under the threshold: %+v", stored)
	}

	// Paid rows keep whatever lateness they were settled with.
	stored = model.PaymentObligation{}
	if err := db.First(&stored, paidLongAgo.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if stored.Late || stored.DaysLate != 0 {
		t.Fatalf("sweep must never touch a paid obligation: %+v", stored)
	}

	stored = model.PaymentObligation{}
	if err := db.First(&stored, notDueYet.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if stored.Late || stored.DaysLate != 0 {
		t.Fatalf("future obligation must be untouched: %+v", stored)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)

	seedObligation(t, db, 0, now.AddDate(0, 0, -10), false)
	seedObligation(t, db, 1, now.AddDate(0, 0, -3), false)

	s := newTestSweeper(t, db, now)

	if _, err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	updated, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("second sweep with a fixed clock updated %d rows, want 0", updated)
	}
}

func TestSweepAdvancesWithClock(t *testing.T) {
	db := newTestDB(t)
	start := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)

	seeded := seedObligation(t, db, 0, start.AddDate(0, 0, -5), false)

	s := newTestSweeper(t, db, start)
	if _, err := s.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	// Three days later the same obligation crosses the threshold.
	s.Now = func() time.Time { return start.AddDate(0, 0, 3) }

	updated, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want 1", updated)
	}

	var stored model.PaymentObligation
	if err := db.First(&stored, seeded.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if !stored.Late || stored.DaysLate != 8 {
		t.Fatalf("expected late with 8 days, got %+v", stored)
	}
}
