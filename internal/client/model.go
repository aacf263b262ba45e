// internal/client/model.go
//
// Client row mirrors one record in the persistent `client` table: one
// hosted website tracked for billing and activation.
//
// Operational state is two booleans:
//
//   - SiteActive      – single source of truth for whether the public site
//     is reachable or replaced by the renewal notice.
//   - ManualOverride  – when set, automated rules (expiry sweep, payment
//     webhook) must not change SiteActive; only an operator action may.
//
// A client is never deleted by billing logic; suspension is a status flip.
package client

import "time"

// Payment status values stored in `payment_status`.
const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// Client mirrors one row in the `client` table.
type Client struct {
	ID             uint64    `db:"id" json:"id"`
	SiteName       string    `db:"site_name" json:"site_name"`
	DomainName     string    `db:"domain_name" json:"domain_name"`
	ContactEmail   string    `db:"contact_email" json:"contact_email"`
	MonthlyFee     float64   `db:"monthly_fee" json:"monthly_fee"`
	PaymentStatus  string    `db:"payment_status" json:"payment_status"`
	PaymentDate    *Date     `db:"payment_date" json:"payment_date"`
	SiteActive     bool      `db:"site_active" json:"site_active"`
	ManualOverride bool      `db:"manual_override" json:"manual_override"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Update is a partial write: nil fields are left untouched, so a webhook
// payload that omits a field never clobbers it (merge, not replace).
type Update struct {
	PaymentStatus  *string
	PaymentDate    *Date
	SiteActive     *bool
	ManualOverride *bool
}

// Empty reports whether the update would touch no columns.
func (u Update) Empty() bool {
	return u.PaymentStatus == nil && u.PaymentDate == nil &&
		u.SiteActive == nil && u.ManualOverride == nil
}

// Stats aggregates the dashboard numbers: client counts plus the monthly
// revenue across currently paid clients.
type Stats struct {
	TotalClients   int     `db:"total" json:"total_clients"`
	ActiveClients  int     `db:"active" json:"active_clients"`
	UnpaidClients  int     `db:"unpaid" json:"unpaid_clients"`
	MonthlyRevenue float64 `db:"revenue" json:"monthly_revenue"`
}
