// internal/activation/rules.go
//
// Client activation rules.
//
// Context
// -------
// One rule set governs whether a hosted site is reachable, applied from
// three call sites: the operator toggle in the portal, the scheduled
// expiry sweep, and the inbound payment webhook.  The rules are pure
// functions over a Client snapshot; they own no I/O and return partial
// updates for the repository to apply atomically.
//
// The override flag is the operator's escape hatch: once set, the sweep
// and the webhook may change payment bookkeeping but never site_active.
// Nothing here clears the flag; only another operator toggle re-decides
// the site state (and leaves the flag set).
package activation

import "github.com/salminhosting/hostadmin/internal/client"

// Change is the outcome of an operator toggle: the row update plus whether
// the email-notification collaborator should fire.
type Change struct {
	Update client.Update
	Notify bool
}

// Toggle decides the operator suspend/reactivate action.  It always
// succeeds regardless of prior state: site_active follows the requested
// value, manual_override is set, and payment_status is synced (active ⇒
// paid, suspended ⇒ unpaid).  Reactivation also stamps the payment date,
// since the operator flips a site back on after payment clears out of
// band.  Notify is true only on a suspended→active transition.
func Toggle(c client.Client, active bool, today client.Date) Change {
	status := client.PaymentUnpaid
	if active {
		status = client.PaymentPaid
	}
	override := true

	u := client.Update{
		SiteActive:     &active,
		ManualOverride: &override,
		PaymentStatus:  &status,
	}
	if active {
		u.PaymentDate = &today
	}

	return Change{
		Update: u,
		Notify: active && !c.SiteActive,
	}
}

// Cutoff returns the oldest payment date that still counts as current:
// today minus the grace window.
func Cutoff(today client.Date, graceDays int) client.Date {
	return today.AddDays(-graceDays)
}

// Expired reports whether the sweep must suspend c.  A client expires only
// when it is paid, not manually overridden, and its payment date is
// strictly older than the cutoff.  A payment dated exactly on the cutoff
// day is still current; it expires the next calendar day.  A client with
// no payment date on record never expires.
func Expired(c client.Client, cutoff client.Date) bool {
	return c.PaymentStatus == client.PaymentPaid &&
		!c.ManualOverride &&
		c.PaymentDate != nil &&
		c.PaymentDate.Before(cutoff)
}

// ExpiredUpdate is the row change the sweep applies to each expired client.
func ExpiredUpdate() client.Update {
	status := client.PaymentUnpaid
	inactive := false
	return client.Update{PaymentStatus: &status, SiteActive: &inactive}
}

// ApplyPayment decides the webhook merge.  Omitted (nil) fields change
// nothing.  payment_status is recorded as reported; site_active follows it
// only while the client is not manually overridden.  The payment date is
// recorded unconditionally: it is bookkeeping, not an activation decision.
// Re-applying the same payload converges on the same row state.
func ApplyPayment(c client.Client, status *string, date *client.Date) client.Update {
	var u client.Update
	if status != nil {
		u.PaymentStatus = status
		if !c.ManualOverride {
			active := *status == client.PaymentPaid
			u.SiteActive = &active
		}
	}
	if date != nil {
		u.PaymentDate = date
	}
	return u
}
