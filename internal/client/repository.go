// internal/client/repository.go
//
// Query helpers for the `client` table.
//
// Context
// -------
// Each operation is one request-scoped unit of work against the store; a
// client update is a single atomic UPDATE, so either the full intended
// change lands or none of it does.  Concurrent writes to the same row
// resolve last-write-wins at the database.  Every successful write is
// published on the Feed so live consumers (portal SSE, metrics) observe
// committed state only.
package client

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when an id or domain has no matching row.
var ErrNotFound = errors.New("client not found")

const selectCols = `
	    SELECT  id, site_name, domain_name, contact_email, monthly_fee,
	            payment_status, payment_date, site_active, manual_override,
	            created_at, updated_at
	    FROM    client`

// Repository wraps a sqlx pool plus the change feed.
type Repository struct {
	db   *sqlx.DB
	feed *Feed
}

// NewRepository builds a Repository.  feed may be shared with consumers.
func NewRepository(db *sqlx.DB, feed *Feed) *Repository {
	return &Repository{db: db, feed: feed}
}

// Feed exposes the change feed for subscribers.
func (r *Repository) Feed() *Feed { return r.feed }

// ByID fetches one client row.
func (r *Repository) ByID(ctx context.Context, id uint64) (*Client, error) {
	const q = selectCols + ` WHERE id = ?`
	var c Client
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ByDomain fetches one client row by its external lookup key.
func (r *Repository) ByDomain(ctx context.Context, domain string) (*Client, error) {
	const q = selectCols + ` WHERE domain_name = ?`
	var c Client
	if err := r.db.GetContext(ctx, &c, q, domain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns every client, newest first.
func (r *Repository) List(ctx context.Context) ([]Client, error) {
	const q = selectCols + ` ORDER BY created_at DESC, id DESC`
	out := make([]Client, 0, 16)
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert creates a row from intake.  New clients start active with no
// override, per the account lifecycle.
func (r *Repository) Insert(ctx context.Context, c *Client) error {
	const q = `
	    INSERT INTO client
	        (site_name, domain_name, contact_email, monthly_fee,
	         payment_status, payment_date, site_active, manual_override)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, q,
		c.SiteName, c.DomainName, c.ContactEmail, c.MonthlyFee,
		c.PaymentStatus, c.PaymentDate, c.SiteActive, c.ManualOverride)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	stored, err := r.ByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *stored
	r.feed.Publish(Event{Op: OpInsert, Client: *c})
	return nil
}

// Update applies a partial write to one row and returns the stored result.
// Nil fields in u are not touched.  An empty update degrades to a fetch,
// which keeps a no-field webhook payload idempotent.
func (r *Repository) Update(ctx context.Context, id uint64, u Update) (*Client, error) {
	if u.Empty() {
		return r.ByID(ctx, id)
	}

	set := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if u.PaymentStatus != nil {
		set = append(set, "payment_status = ?")
		args = append(args, *u.PaymentStatus)
	}
	if u.PaymentDate != nil {
		set = append(set, "payment_date = ?")
		args = append(args, *u.PaymentDate)
	}
	if u.SiteActive != nil {
		set = append(set, "site_active = ?")
		args = append(args, *u.SiteActive)
	}
	if u.ManualOverride != nil {
		set = append(set, "manual_override = ?")
		args = append(args, *u.ManualOverride)
	}
	args = append(args, id)

	q := `UPDATE client SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}

	stored, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.feed.Publish(Event{Op: OpUpdate, Client: *stored})
	return stored, nil
}

// Expired returns clients the sweep must suspend: paid, not manually
// overridden, with a payment date strictly older than cutoff.  Rows with a
// NULL payment date never match, so they are exempt from expiry.
func (r *Repository) Expired(ctx context.Context, cutoff Date) ([]Client, error) {
	const q = selectCols + `
	    WHERE   payment_status = 'paid'
	      AND   manual_override = 0
	      AND   payment_date IS NOT NULL
	      AND   payment_date < ?`
	out := make([]Client, 0, 8)
	if err := r.db.SelectContext(ctx, &out, q, cutoff); err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate flips the given rows to unpaid + suspended in one statement,
// then publishes the stored rows.  A nil or empty id list is a no-op.
func (r *Repository) Deactivate(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	q, args, err := sqlx.In(
		`UPDATE client SET payment_status = 'unpaid', site_active = 0 WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...); err != nil {
		return err
	}

	q, args, err = sqlx.In(selectCols+` WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	rows := make([]Client, 0, len(ids))
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return err
	}
	for _, c := range rows {
		r.feed.Publish(Event{Op: OpUpdate, Client: c})
	}
	return nil
}

// Stats aggregates the dashboard numbers in one query.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	const q = `
	    SELECT  COUNT(*)                                            AS total,
	            COALESCE(SUM(site_active = 1), 0)                   AS active,
	            COALESCE(SUM(payment_status = 'unpaid'), 0)         AS unpaid,
	            COALESCE(SUM(CASE WHEN payment_status = 'paid'
	                              THEN monthly_fee ELSE 0 END), 0)  AS revenue
	    FROM    client`
	var s Stats
	if err := r.db.GetContext(ctx, &s, q); err != nil {
		return nil, err
	}
	return &s, nil
}
