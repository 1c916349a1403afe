package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
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

	if err := db.AutoMigrate(&model.PaymentObligation{}, &model.Credential{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedObligation(t *testing.T, db *gorm.DB, owner string, positionID uint, seq int, due time.Time) model.PaymentObligation {
	t.Helper()

	obligation := model.PaymentObligation{
		PositionID: positionID,
		Sequence:   seq,
		Owner:      owner,
		AmountUSD:  decimal.RequireFromString("150"),
		DueDate:    due,
	}
	if err := db.Create(&obligation).Error; err != nil {
		t.Fatalf("failed to seed obligation: %v", err)
	}

	return obligation
}

func seedCredential(t *testing.T, db *gorm.DB, owner string, positionID uint) {
	t.Helper()

	credential := model.Credential{PositionID: positionID, Owner: owner, CreditScore: 50}
	if err := db.Create(&credential).Error; err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
}

func TestRecordPaymentLateAfterTenDays(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -10)

	seedCredential(t, db, owner, 1)
	seedObligation(t, db, owner, 1, 0, due)

	paymentLedger := NewLedger(db)
	paymentLedger.Now = func() time.Time { return now }

	amount := decimal.RequireFromString("150")
	obligation, err := paymentLedger.RecordPayment(context.Background(), owner, 1, &amount)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !obligation.Paid || !obligation.Late || obligation.DaysLate != 10 {
		t.Fatalf("expected paid late by 10 days, got %+v", obligation)
	}
	if obligation.PaidDate == nil || !obligation.PaidDate.Equal(now) {
		t.Fatalf("expected paid date %s, got %v", now, obligation.PaidDate)
	}

	// Lateness is persisted, not just reported.
	var stored model.PaymentObligation
	if err := db.First(&stored, obligation.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if !stored.Paid || !stored.Late || stored.DaysLate != 10 {
		t.Fatalf("stored obligation not settled as late: %+v", stored)
	}

	// One late payment drops the score from 50 to 40, durably.
	var credential model.Credential
	if err := db.Where("position_id = ?", 1).First(&credential).Error; err != nil {
		t.Fatalf("failed to reload credential: %v", err)
	}
	if credential.CreditScore != 40 || credential.LateCount != 1 || credential.OnTimeCount != 0 {
		t.Fatalf("unexpected credential after late payment: %+v", credential)
	}
}

func TestRecordPaymentOnTime(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)

	seedCredential(t, db, owner, 1)
	seedObligation(t, db, owner, 1, 0, now.AddDate(0, 0, 5))

	paymentLedger := NewLedger(db)
	paymentLedger.Now = func() time.Time { return now }

	obligation, err := paymentLedger.RecordPayment(context.Background(), owner, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !obligation.Paid || obligation.Late || obligation.DaysLate != 0 {
		t.Fatalf("expected on-time settlement, got %+v", obligation)
	}

	var credential model.Credential
	if err := db.Where("position_id = ?", 1).First(&credential).Error; err != nil {
		t.Fatalf("failed to reload credential: %v", err)
	}
	if credential.CreditScore != 55 || credential.OnTimeCount != 1 {
		t.Fatalf("unexpected credential after on-time payment: %+v", credential)
	}
}

func TestRecordPaymentAmountMismatchLeavesObligationUnpaid(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)

	seedCredential(t, db, owner, 1)
	seeded := seedObligation(t, db, owner, 1, 0, now.AddDate(0, 0, -1))

	paymentLedger := NewLedger(db)
	paymentLedger.Now = func() time.Time { return now }

	almost := decimal.RequireFromString("149.99")
	_, err := paymentLedger.RecordPayment(context.Background(), owner, 1, &almost)
	if !errors.Is(err, ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	var stored model.PaymentObligation
	if err := db.First(&stored, seeded.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if stored.Paid {
		t.Fatal("rejected payment must not settle the obligation")
	}
}

func TestRecordPaymentSettlesEarliestFirst(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	seedCredential(t, db, owner, 1)
	for i := 0; i < 3; i++ {
		seedObligation(t, db, owner, 1, i, now.AddDate(0, 0, (i+1)*30))
	}

	paymentLedger := NewLedger(db)
	paymentLedger.Now = func() time.Time { return now }

	for want := 0; want < 3; want++ {
		obligation, err := paymentLedger.RecordPayment(context.Background(), owner, 1, nil)
		if err != nil {
			t.Fatalf("payment %d failed: %v", want, err)
		}
		if obligation.Sequence != want {
			t.Fatalf("payment %d settled sequence %d", want, obligation.Sequence)
		}
	}

	_, err := paymentLedger.RecordPayment(context.Background(), owner, 1, nil)
	if !errors.Is(err, ErrNoUnpaidObligation) {
		t.Fatalf("expected ErrNoUnpaidObligation after full settlement, got %v", err)
	}

	// Three on-time payments: 50 + 3*5.
	var credential model.Credential
	if err := db.Where("position_id = ?", 1).First(&credential).Error; err != nil {
		t.Fatalf("failed to reload credential: %v", err)
	}
	if credential.CreditScore != 65 || credential.OnTimeCount != 3 || credential.LateCount != 0 {
		t.Fatalf("unexpected credential after three payments: %+v", credential)
	}
}

func TestGetNextUnpaidDoesNotMutate(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	seeded := seedObligation(t, db, owner, 1, 0, now.AddDate(0, 0, 30))

	paymentLedger := NewLedger(db)

	next, err := paymentLedger.GetNextUnpaid(context.Background(), owner, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil || next.ID != seeded.ID {
		t.Fatalf("expected obligation %d, got %+v", seeded.ID, next)
	}

	var stored model.PaymentObligation
	if err := db.First(&stored, seeded.ID).Error; err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if stored.Paid {
		t.Fatal("peek must not settle the obligation")
	}
}

func TestRecordPaymentConcurrentSettlesDistinctObligations(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	const n = 4
	seedCredential(t, db, owner, 1)
	for i := 0; i < n; i++ {
		seedObligation(t, db, owner, 1, i, now.AddDate(0, 0, (i+1)*30))
	}

	paymentLedger := NewLedger(db)
	paymentLedger.Now = func() time.Time { return now }

	// N concurrent payments against N unpaid obligations: every caller must
	// settle exactly one distinct obligation. A loser of the guarded update
	// re-selects the next earliest unpaid obligation instead of failing or
	// double-settling.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled = make(map[int]int)
	)
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			obligation, err := paymentLedger.RecordPayment(context.Background(), owner, 1, nil)
			if err != nil {
				errs <- err
				return
			}

			mu.Lock()
			settled[obligation.Sequence]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent payment failed: %v", err)
	}

	if len(settled) != n {
		t.Fatalf("settled %d distinct obligations, want %d: %v", len(settled), n, settled)
	}
	for sequence, count := range settled {
		if count != 1 {
			t.Fatalf("obligation %d settled %d times", sequence, count)
		}
	}

	var paidCount int64
	if err := db.Model(&model.PaymentObligation{}).Where("paid = ?", true).Count(&paidCount).Error; err != nil {
		t.Fatalf("failed to count paid obligations: %v", err)
	}
	if paidCount != n {
		t.Fatalf("%d obligations paid in store, want %d", paidCount, n)
	}
}

func TestListObligationsReturnsFullSchedule(t *testing.T) {
	db := newTestDB(t)
	owner := "0xborrower"

	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedObligation(t, db, owner, 1, i, start.AddDate(0, 0, (i+1)*30))
	}
	// Another position's schedule must not leak in.
	seedObligation(t, db, owner, 2, 0, start.AddDate(0, 0, 30))

	paymentLedger := NewLedger(db)

	schedule, err := paymentLedger.ListObligations(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule) != 3 {
		t.Fatalf("expected 3 obligations, got %d", len(schedule))
	}
	for i := 1; i < len(schedule); i++ {
		if !schedule[i-1].DueDate.Before(schedule[i].DueDate) {
			t.Fatalf("schedule not ordered by due date: %+v", schedule)
		}
	}
}

func TestDaysLateClampsEarlyPayments(t *testing.T) {
	due := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	if got := DaysLate(due.AddDate(0, 0, -5), due); got != 0 {
		t.Fatalf("early payment daysLate = %d, want 0", got)
	}
	if got := DaysLate(due.Add(12*time.Hour), due); got != 0 {
		t.Fatalf("same-day payment daysLate = %d, want 0", got)
	}
	if got := DaysLate(due.AddDate(0, 0, 3), due); got != 3 {
		t.Fatalf("daysLate = %d, want 3", got)
	}
}
