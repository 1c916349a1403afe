package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestObligationRepositoryFindNextUnpaid(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ObligationRepository{db: mockDB}

	dueDate := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)

	t.Run("returns earliest unpaid", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "position_id", "sequence", "owner", "amount_usd", "due_date", "paid", "late", "days_late"}).
			AddRow(3, 1, 2, "0xborrower", "150", dueDate, false, false, 0)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payment_obligations" WHERE owner = $1 AND position_id = $2 AND paid = $3 ORDER BY due_date ASC, sequence ASC,"payment_obligations"."id" LIMIT $4`)).
			WithArgs("0xborrower", uint(1), false, 1).
			WillReturnRows(rows)

		obligation, err := repo.FindNextUnpaid(context.Background(), "0xborrower", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obligation == nil || obligation.ID != 3 || obligation.Sequence != 2 {
			t.Fatalf("unexpected obligation: %+v", obligation)
		}
	})

	t.Run("returns nil when everything is paid", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payment_obligations" WHERE owner = $1 AND position_id = $2 AND paid = $3 ORDER BY due_date ASC, sequence ASC,"payment_obligations"."id" LIMIT $4`)).
			WithArgs("0xborrower", uint(1), false, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		obligation, err := repo.FindNextUnpaid(context.Background(), "0xborrower", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obligation != nil {
			t.Fatalf("expected nil obligation, got %+v", obligation)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestObligationRepositoryFindUnpaidDueBefore(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ObligationRepository{db: mockDB}

	cutoff := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "position_id", "sequence", "owner", "amount_usd", "due_date", "paid", "late", "days_late"}).
		AddRow(1, 1, 0, "0xborrower", "150", cutoff.AddDate(0, 0, -10), false, false, 0).
		AddRow(2, 1, 1, "0xborrower", "150", cutoff.AddDate(0, 0, -3), false, false, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payment_obligations" WHERE paid = $1 AND due_date < $2 ORDER BY due_date ASC`)).
		WithArgs(false, cutoff).
		WillReturnRows(rows)

	overdue, err := repo.FindUnpaidDueBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overdue) != 2 {
		t.Fatalf("expected 2 overdue obligations, got %d", len(overdue))
	}
	if overdue[0].ID != 1 || overdue[1].ID != 2 {
		t.Fatalf("overdue obligations not ordered by due date: %+v", overdue)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestObligationRepositoryCountPaid(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ObligationRepository{db: mockDB}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "payment_obligations" WHERE owner = $1 AND position_id = $2 AND paid = $3`)).
		WithArgs("0xborrower", uint(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountPaid(context.Background(), "0xborrower", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestObligationRepositoryFindHistoryByOwner(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := &ObligationRepository{db: mockDB}

	dueDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	historyRows := func(ids ...int) *sqlmock.Rows {
		rows := sqlmock.NewRows([]string{"id", "position_id", "sequence", "owner", "amount_usd", "due_date", "paid", "late", "days_late"})
		for i, id := range ids {
			rows.AddRow(id, 1, i, "0xborrower", "150", dueDate.AddDate(0, 0, -i*30), true, false, 0)
		}
		return rows
	}

	t.Run("caps at default limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payment_obligations" WHERE owner = $1 ORDER BY due_date DESC LIMIT $2`)).
			WithArgs("0xborrower", 50).
			WillReturnRows(historyRows(5, 4, 3))

		history, err := repo.FindHistoryByOwner(context.Background(), "0xborrower", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 obligations, got %d", len(history))
		}
	})

	t.Run("honors explicit limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payment_obligations" WHERE owner = $1 ORDER BY due_date DESC LIMIT $2`)).
			WithArgs("0xborrower", 2).
			WillReturnRows(historyRows(5, 4))

		history, err := repo.FindHistoryByOwner(context.Background(), "0xborrower", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 obligations, got %d", len(history))
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})

	gdb, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		sqlDB.Close()
		t.Fatalf("failed to open gorm DB with sqlmock: %v", err)
	}

	return gdb, mock
}
