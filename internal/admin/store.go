// internal/admin/store.go
//
// Operator accounts for the portal.
//
// Context
// -------
// The portal is a single-operator tool, so account management is minimal:
// a bootstrap account is ensured at boot from configuration (the password
// arrives via Vault, never flat files), and login verifies a bcrypt hash.
// There is no self-service registration and no role model.
package admin

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for an unknown email or a wrong password.
// Callers must not distinguish the two.
var ErrBadCredentials = errors.New("bad credentials")

const createTable = `
CREATE TABLE IF NOT EXISTS admin_user (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    email         VARCHAR(190)    NOT NULL,
    password_hash CHAR(60)        NOT NULL,
    created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    UNIQUE KEY uniq_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Schema lists the DDL the owning component reports via Migrations().
var Schema = []string{createTable}

// Store wraps admin_user queries.
type Store struct {
	db *sqlx.DB
}

// NewStore builds a Store.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Ensure creates the bootstrap account when the email is not present yet.
// An existing account is left untouched, password included, so rotating
// the configured bootstrap password does not silently reset a live
// credential.
func (s *Store) Ensure(ctx context.Context, email, password string) error {
	var n int
	if err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM admin_user WHERE email = ?`, email); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin_user (email, password_hash) VALUES (?, ?)`,
		email, string(hash))
	return err
}

// Authenticate verifies email + password.  Returns ErrBadCredentials on
// any mismatch; other errors indicate the store itself failed.
func (s *Store) Authenticate(ctx context.Context, email, password string) error {
	var hash string
	err := s.db.GetContext(ctx, &hash,
		`SELECT password_hash FROM admin_user WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadCredentials
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}
