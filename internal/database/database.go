// Package database centralises sqlx connection helpers.  The driver is
// go-sql-driver/mysql, which also covers MariaDB when configured for the
// MySQL wire protocol.
//
// Public entry points:
//
//	Open(ctx, dsn)                – helper with conservative pool sizes.
//	OpenWithOptions(ctx, dsn, o)  – fine-grained control plus retries.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options tunes one connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int           // extra ping attempts after the first
	RetryBackoff    time.Duration // pause between attempts
}

// Open returns a *sqlx.DB with sane defaults: 15 max open, 5 idle, and a
// 30-minute connection lifetime.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, dsn, Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
}

// OpenWithOptions opens a pool with explicit sizing.  When Retries > 0 the
// initial ping is re-attempted after RetryBackoff, which smooths over a
// database that is still starting alongside the service.
func OpenWithOptions(ctx context.Context, dsn string, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt >= o.Retries {
			break
		}
		t := time.NewTimer(o.RetryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			db.Close()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	db.Close()
	return nil, err
}
