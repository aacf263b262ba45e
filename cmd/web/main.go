// cmd/web/main.go
//
// Hosting-admin service – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Optional Vault client when VAULT_ADDR is set; config values with
//     the vault: prefix resolve through it.
//
//  3. Load + validate config, then start the daily rotating logger
//     (tees to console when running in a TTY).
//
//  4. Open the database, apply component migrations, and ensure the
//     bootstrap operator account.
//
//  5. Wire the domain graph: change feed → repository → activation
//     service, status cache, notifier.
//
//  6. Mount every registered component plus /metrics, wrap the router
//     with request-info, access-log, and security middleware, and serve
//     with graceful shutdown.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salminhosting/hostadmin/internal/activation"
	"github.com/salminhosting/hostadmin/internal/admin"
	"github.com/salminhosting/hostadmin/internal/client"
	"github.com/salminhosting/hostadmin/internal/component"
	"github.com/salminhosting/hostadmin/internal/config"
	"github.com/salminhosting/hostadmin/internal/database"
	"github.com/salminhosting/hostadmin/internal/httpx"
	"github.com/salminhosting/hostadmin/internal/logger"
	"github.com/salminhosting/hostadmin/internal/metrics"
	"github.com/salminhosting/hostadmin/internal/middleware"
	"github.com/salminhosting/hostadmin/internal/notify"
	"github.com/salminhosting/hostadmin/internal/requestinfo"
	"github.com/salminhosting/hostadmin/internal/server"
	"github.com/salminhosting/hostadmin/internal/statuscache"
	"github.com/salminhosting/hostadmin/internal/vault"

	_ "github.com/salminhosting/hostadmin/components/billing"
	_ "github.com/salminhosting/hostadmin/components/diag"
	_ "github.com/salminhosting/hostadmin/components/portal"
	_ "github.com/salminhosting/hostadmin/components/renewal"
)

const serverEnvPath = "/usr/local/etc/hostadmin/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	//
	// ── 1.  Secrets + config ────────────────────────────────────────────
	//
	var vc *vault.Client
	if os.Getenv("VAULT_ADDR") != "" {
		var err error
		vc, err = vault.New(ctx, log.Printf)
		if err != nil {
			log.Fatalf("vault client: %v", err)
		}
	}

	cfg, err := config.Load(ctx, vc)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Log.Debug)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Database + migrations ───────────────────────────────────────
	//
	logOut.Infow("connecting to database")
	db, err := database.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logOut.Fatalw("connect database", "err", err)
	}
	defer db.Close()

	for _, comp := range component.All() {
		for _, ddl := range comp.Migrations() {
			if _, err := db.ExecContext(ctx, ddl); err != nil {
				logOut.Fatalw("apply migration", "component", comp.Name(), "err", err)
			}
		}
	}

	// Early sanity check, mirrors what the dashboard will report.
	var active int
	_ = db.GetContext(ctx, &active,
		`SELECT COUNT(*) FROM client WHERE site_active = 1`)
	logOut.Infow("database online", "active_clients", active)
	metrics.ActiveClients.Set(float64(active))

	//
	// ── 3.  Domain graph ────────────────────────────────────────────────
	//
	feed := client.NewFeed()
	repo := client.NewRepository(db, feed)

	var notifier activation.Notifier
	wh := notify.NewWebhook(cfg.Notify.WebhookURL)
	if wh != nil {
		notifier = wh
	} else {
		logOut.Warnw("notify webhook not configured; outbound email disabled")
	}

	svc := activation.New(repo, notifier, cfg.Billing.GraceDays, logOut)

	status := statuscache.New(
		func(ctx context.Context, domain string) (bool, error) {
			c, err := repo.ByDomain(ctx, domain)
			if err == client.ErrNotFound {
				// Unknown domains default to active: a missing row must
				// not take a site down.
				return true, nil
			}
			if err != nil {
				return false, err
			}
			return c.SiteActive, nil
		},
		time.Duration(cfg.StatusCache.TTLSeconds)*time.Second,
		cfg.StatusCache.MaxEntries,
	)

	// Row changes invalidate the status cache and refresh the gauge, so
	// public checks and /metrics converge without polling.
	feed.Subscribe(client.Filter{}, func(ev client.Event) {
		status.Invalidate(ev.Client.DomainName)
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stats, err := repo.Stats(sctx); err == nil {
			metrics.ActiveClients.Set(float64(stats.ActiveClients))
		}
	})

	admins := admin.NewStore(db)
	sessions := admin.NewSessions(cfg.Admin.SessionKey)
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := admins.Ensure(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logOut.Fatalw("ensure bootstrap operator", "err", err)
		}
	}

	rv, err := requestinfo.NewResolver(cfg.Geo.DBPath)
	if err != nil {
		logOut.Fatalw("open geoip database", "path", cfg.Geo.DBPath, "err", err)
	}
	defer rv.Close()

	//
	// ── 4.  Components + router ─────────────────────────────────────────
	//
	deps := component.Deps{
		Cfg:        cfg,
		Log:        logOut,
		Repo:       repo,
		Activation: svc,
		Status:     status,
		Notifier:   wh,
		Admins:     admins,
		Sessions:   sessions,
		DBPing:     db.Ping,
	}

	r := chi.NewRouter()
	r.Use(rv.Enrich)
	r.Use(middleware.AccessLog(logOut))
	r.Use(middleware.Security)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, comp := range component.All() {
		if err := comp.Init(deps); err != nil {
			logOut.Fatalw("init component", "component", comp.Name(), "err", err)
		}
		r.Mount(comp.BasePath(), comp.Routes())
		logOut.Infow("component mounted", "component", comp.Name(), "path", comp.BasePath())
	}

	var handler http.Handler = r
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(r)
	}

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)
	if err := server.Run(srv, logOut); err != nil && err != http.ErrServerClosed {
		logOut.Fatalw("http server", "err", err)
	}
}
