// internal/activation/service.go
//
// Service wires the activation rules to the store and the notification
// collaborator.  Each method is one request-scoped unit of work: store
// errors surface to the caller as a failed operation, while notifier
// failures are logged and counted but never fail the state change that
// triggered them.
package activation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/metrics"
)

// Store is the slice of the client repository the service consumes.
type Store interface {
	ByID(ctx context.Context, id uint64) (*client.Client, error)
	ByDomain(ctx context.Context, domain string) (*client.Client, error)
	Update(ctx context.Context, id uint64, u client.Update) (*client.Client, error)
	Expired(ctx context.Context, cutoff client.Date) ([]client.Client, error)
	Deactivate(ctx context.Context, ids []uint64) error
}

// Notifier is the email-notification collaborator.  The service calls it
// once per suspended→active operator toggle.
type Notifier interface {
	SiteReactivated(ctx context.Context, c client.Client) error
}

// Suspended identifies one client the sweep deactivated.
type Suspended struct {
	SiteName    string       `json:"site_name"`
	DomainName  string       `json:"domain_name"`
	PaymentDate *client.Date `json:"payment_date"`
}

// Report summarises one sweep run.
type Report struct {
	Checked     time.Time   `json:"checked"`
	Deactivated int         `json:"deactivated"`
	Clients     []Suspended `json:"clients,omitempty"`
}

// Service applies the activation rules against the store.
type Service struct {
	store     Store
	notifier  Notifier
	graceDays int
	log       *zap.SugaredLogger
	now       func() time.Time
}

// New constructs a Service.  notifier may be nil when outbound
// notifications are disabled.
func New(store Store, notifier Notifier, graceDays int, log *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		graceDays: graceDays,
		log:       log,
		now:       time.Now,
	}
}

// Toggle applies the operator suspend/reactivate action to one client.
// Returns client.ErrNotFound for an unknown id.
func (s *Service) Toggle(ctx context.Context, id uint64, active bool) (*client.Client, error) {
	c, err := s.store.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ch := Toggle(*c, active, client.DateOf(s.now()))
	updated, err := s.store.Update(ctx, id, ch.Update)
	if err != nil {
		return nil, err
	}

	s.log.Infow("client toggled",
		"domain", updated.DomainName, "active", active, "by", "operator")

	if ch.Notify && s.notifier != nil {
		if err := s.notifier.SiteReactivated(ctx, *updated); err != nil {
			metrics.NotifyFailuresTotal.Inc()
			s.log.Warnw("reactivation notice failed",
				"domain", updated.DomainName, "err", err)
		}
	}
	return updated, nil
}

// Sweep suspends every client whose last payment aged past the grace
// window.  Zero matches is a successful no-op.  The run is idempotent:
// suspended clients are unpaid and no longer match the selection, so a
// second back-to-back run reports zero.
func (s *Service) Sweep(ctx context.Context) (*Report, error) {
	metrics.SweepRunsTotal.Inc()

	now := s.now()
	cutoff := Cutoff(client.DateOf(now), s.graceDays)

	candidates, err := s.store.Expired(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	// The SQL predicate and Expired encode the same rule; the rows are
	// still filtered here so the rules package stays the single authority.
	expired := candidates[:0]
	for _, c := range candidates {
		if Expired(c, cutoff) {
			expired = append(expired, c)
		}
	}

	report := &Report{Checked: now, Deactivated: len(expired)}
	if len(expired) == 0 {
		return report, nil
	}

	ids := make([]uint64, len(expired))
	report.Clients = make([]Suspended, len(expired))
	for i, c := range expired {
		ids[i] = c.ID
		report.Clients[i] = Suspended{
			SiteName:    c.SiteName,
			DomainName:  c.DomainName,
			PaymentDate: c.PaymentDate,
		}
	}

	if err := s.store.Deactivate(ctx, ids); err != nil {
		return nil, err
	}

	metrics.SweepDeactivatedTotal.Add(float64(len(expired)))
	s.log.Infow("expiry sweep complete",
		"deactivated", len(expired), "cutoff", cutoff.String())
	return report, nil
}

// RecordPayment applies an inbound payment report to the client identified
// by domain.  Omitted fields are left untouched.  Returns client.ErrNotFound
// for an unknown domain.
func (s *Service) RecordPayment(ctx context.Context, domain string, status *string, date *client.Date) (*client.Client, error) {
	c, err := s.store.ByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	u := ApplyPayment(*c, status, date)
	updated, err := s.store.Update(ctx, c.ID, u)
	if err != nil {
		return nil, err
	}

	s.log.Infow("payment recorded",
		"domain", domain,
		"status", stringOrKeep(status),
		"site_active", updated.SiteActive,
		"override", updated.ManualOverride)
	return updated, nil
}

func stringOrKeep(s *string) string {
	if s == nil {
		return "(unchanged)"
	}
	return *s
}
