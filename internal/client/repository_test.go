// internal/client/repository_test.go
//
// Unit-tests for the client repository using sqlmock.
//
// Run: go test ./internal/client -v

package client

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

var clientCols = []string{
	"id", "site_name", "domain_name", "contact_email", "monthly_fee",
	"payment_status", "payment_date", "site_active", "manual_override",
	"created_at", "updated_at",
}

func addClientRow(rows *sqlmock.Rows, id int64, domain, status string, paymentDate any, active, override bool) {
	now := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	rows.AddRow(id, domain+" site", domain, "owner@"+domain, 24.99,
		status, paymentDate, active, override, now, now)
}

func TestByDomain(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	rows := sqlmock.NewRows(clientCols)
	addClientRow(rows, 7, "acme.example", PaymentPaid, "2026-03-15", true, false)

	mock.ExpectQuery(`FROM\s+client WHERE domain_name = \?`).
		WithArgs("acme.example").
		WillReturnRows(rows)

	c, err := repo.ByDomain(context.Background(), "acme.example")
	if err != nil {
		t.Fatalf("ByDomain: %v", err)
	}
	if c.ID != 7 || c.DomainName != "acme.example" || !c.SiteActive {
		t.Fatalf("unexpected row: %+v", c)
	}
	if c.PaymentDate == nil || c.PaymentDate.String() != "2026-03-15" {
		t.Fatalf("payment_date = %v", c.PaymentDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByDomainNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	mock.ExpectQuery(`FROM\s+client WHERE domain_name = \?`).
		WithArgs("missing.example").
		WillReturnRows(sqlmock.NewRows(clientCols))

	if _, err := repo.ByDomain(context.Background(), "missing.example"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	status := PaymentUnpaid
	inactive := false
	u := Update{PaymentStatus: &status, SiteActive: &inactive}

	mock.ExpectExec(`UPDATE client SET payment_status = \?, site_active = \? WHERE id = \?`).
		WithArgs(PaymentUnpaid, false, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := sqlmock.NewRows(clientCols)
	addClientRow(rows, 7, "acme.example", PaymentUnpaid, "2026-01-15", false, false)
	mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(rows)

	c, err := repo.Update(context.Background(), 7, u)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.SiteActive || c.PaymentStatus != PaymentUnpaid {
		t.Fatalf("unexpected stored row: %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdateEmptyIsFetch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	rows := sqlmock.NewRows(clientCols)
	addClientRow(rows, 7, "acme.example", PaymentPaid, nil, true, false)
	mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(rows)

	c, err := repo.Update(context.Background(), 7, Update{})
	if err != nil {
		t.Fatalf("Update(empty): %v", err)
	}
	if c.PaymentDate != nil {
		t.Fatalf("NULL payment_date must scan to nil, got %v", c.PaymentDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestExpiredPredicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	rows := sqlmock.NewRows(clientCols)
	addClientRow(rows, 1, "stale.example", PaymentPaid, "2026-01-10", true, false)

	mock.ExpectQuery(`payment_status = 'paid'\s+AND\s+manual_override = 0\s+AND\s+payment_date IS NOT NULL\s+AND\s+payment_date < \?`).
		WithArgs("2026-03-01").
		WillReturnRows(rows)

	out, err := repo.Expired(context.Background(), NewDate(2026, time.March, 1))
	if err != nil {
		t.Fatalf("Expired: %v", err)
	}
	if len(out) != 1 || out[0].DomainName != "stale.example" {
		t.Fatalf("unexpected rows: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	db, mock := newMock(t)
	feed := NewFeed()
	repo := NewRepository(db, feed)

	events := make(chan Event, 4)
	cancel := feed.Subscribe(Filter{}, func(ev Event) { events <- ev })
	defer cancel()

	mock.ExpectExec(`UPDATE client SET payment_status = 'unpaid', site_active = 0 WHERE id IN \(\?, \?\)`).
		WithArgs(uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	rows := sqlmock.NewRows(clientCols)
	addClientRow(rows, 1, "a.example", PaymentUnpaid, "2026-01-10", false, false)
	addClientRow(rows, 3, "b.example", PaymentUnpaid, "2026-01-12", false, false)
	mock.ExpectQuery(`FROM\s+client WHERE id IN \(\?, \?\)`).
		WithArgs(uint64(1), uint64(3)).
		WillReturnRows(rows)

	if err := repo.Deactivate(context.Background(), []uint64{1, 3}); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if ev.Op != OpUpdate || ev.Client.SiteActive {
				t.Fatalf("unexpected event: %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("missing feed event")
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDeactivateEmptyIsNoop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	if err := repo.Deactivate(context.Background(), nil); err != nil {
		t.Fatalf("Deactivate(nil): %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no statements expected: %v", err)
	}
}

func TestStats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRepository(db, NewFeed())

	mock.ExpectQuery(`COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "unpaid", "revenue"}).
			AddRow(12, 9, 3, 224.91))

	s, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.TotalClients != 12 || s.ActiveClients != 9 || s.UnpaidClients != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if s.MonthlyRevenue != 224.91 {
		t.Fatalf("revenue = %v", s.MonthlyRevenue)
	}
}
