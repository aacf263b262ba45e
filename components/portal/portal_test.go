// components/portal/portal_test.go
//
// Handler tests for the operator portal.  The repository and admin store
// run on sqlmock; the session layer is real.

package portal

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/salminhosting/hostadmin/internal/activation"
	"github.com/salminhosting/hostadmin/internal/admin"
	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/component"
)

var clientCols = []string{
	"id", "site_name", "domain_name", "contact_email", "monthly_fee",
	"payment_status", "payment_date", "site_active", "manual_override",
	"created_at", "updated_at",
}

type fixture struct {
	handler  http.Handler
	mock     sqlmock.Sqlmock
	sessions *admin.Sessions
	repo     *client.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sdb := sqlx.NewDb(db, "mysql")
	repo := client.NewRepository(sdb, client.NewFeed())
	sessions := admin.NewSessions("0123456789abcdef")
	log := zap.NewNop().Sugar()

	comp := &Component{}
	deps := component.Deps{
		Log:        log,
		Repo:       repo,
		Activation: activation.New(repo, nil, 30, log),
		Admins:     admin.NewStore(sdb),
		Sessions:   sessions,
	}
	if err := comp.Init(deps); err != nil {
		t.Fatalf("init: %v", err)
	}
	return &fixture{handler: comp.Routes(), mock: mock, sessions: sessions, repo: repo}
}

func (f *fixture) authed(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	tok, err := f.sessions.Issue("admin@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func addRow(rows *sqlmock.Rows, id int64, domain string, active bool) {
	now := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	rows.AddRow(id, domain+" site", domain, "owner@"+domain, 24.99,
		client.PaymentPaid, "2026-03-15", active, false, now, now)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	f.mock.ExpectQuery(`SELECT password_hash FROM admin_user WHERE email = \?`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(string(hash)))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@example.com","password":"hunter22"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" || resp.ExpiresIn != int64(admin.SessionTTL.Seconds()) {
		t.Fatalf("resp = %+v", resp)
	}
	if _, err := f.sessions.Verify(resp.Token); err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
}

func TestLoginBadPassword(t *testing.T) {
	f := newFixture(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	f.mock.ExpectQuery(`SELECT password_hash FROM admin_user WHERE email = \?`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(string(hash)))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"admin@example.com","password":"wrong"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestClientsRequireAuth(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/clients", "/stats", "/events"} {
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s status = %d, want 401", path, rec.Code)
		}
	}
}

func TestListClients(t *testing.T) {
	f := newFixture(t)

	rows := sqlmock.NewRows(clientCols)
	addRow(rows, 2, "beta.example", true)
	addRow(rows, 1, "alpha.example", false)
	f.mock.ExpectQuery(`FROM\s+client ORDER BY created_at DESC, id DESC`).
		WillReturnRows(rows)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodGet, "/clients", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var list []client.Client
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].DomainName != "beta.example" {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateClient(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectExec(`INSERT INTO client`).
		WithArgs("New Site", "new.example", "owner@new.example", 19.99,
			client.PaymentUnpaid, nil, true, false).
		WillReturnResult(sqlmock.NewResult(11, 1))

	rows := sqlmock.NewRows(clientCols)
	addRow(rows, 11, "new.example", true)
	f.mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnRows(rows)

	body := `{"site_name":"New Site","domain_name":"new.example","contact_email":"owner@new.example","monthly_fee":19.99}`
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodPost, "/clients", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCreateClientValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]string{
		"missing site name": `{"domain_name":"new.example"}`,
		"bad domain":        `{"site_name":"X","domain_name":"not a domain"}`,
		"negative fee":      `{"site_name":"X","domain_name":"new.example","monthly_fee":-1}`,
		"bad payment date":  `{"site_name":"X","domain_name":"new.example","payment_date":"tomorrow"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, f.authed(t, http.MethodPost, "/clients", body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestToggleSuspend(t *testing.T) {
	f := newFixture(t)

	fetch := sqlmock.NewRows(clientCols)
	addRow(fetch, 1, "acme.example", true)
	f.mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(fetch)

	f.mock.ExpectExec(`UPDATE client SET payment_status = \?, site_active = \?, manual_override = \? WHERE id = \?`).
		WithArgs(client.PaymentUnpaid, false, true, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	after := sqlmock.NewRows(clientCols)
	addRow(after, 1, "acme.example", false)
	f.mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(after)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodPost, "/clients/1/suspend", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool           `json:"success"`
		Client  *client.Client `json:"client"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Client == nil || resp.Client.SiteActive {
		t.Fatalf("resp = %+v", resp)
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestToggleUnknownClient(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`FROM\s+client WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(clientCols))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodPost, "/clients/99/activate", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Client not found"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestToggleBadID(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodPost, "/clients/abc/suspend", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "unpaid", "revenue"}).
			AddRow(4, 3, 1, 74.97))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, f.authed(t, http.MethodGet, "/stats", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var s client.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.TotalClients != 4 || s.ActiveClients != 3 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestEventsStreamDeliversRowChanges(t *testing.T) {
	f := newFixture(t)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	tok, err := f.sessions.Issue("admin@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type = %q", ct)
	}

	// Give the handler a beat to register its feed subscription.
	time.Sleep(100 * time.Millisecond)

	// A committed row change reaches the stream via the feed.
	d := client.NewDate(2026, time.March, 31)
	f.repo.Feed().Publish(client.Event{
		Op: client.OpUpdate,
		Client: client.Client{
			ID: 1, DomainName: "acme.example", SiteActive: false, PaymentDate: &d,
		},
	})

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if event != "" && data != "" {
			break
		}
	}
	if event != string(client.OpUpdate) {
		t.Fatalf("event = %q", event)
	}
	if !strings.Contains(data, `"domain_name":"acme.example"`) {
		t.Fatalf("data = %s", data)
	}
}
