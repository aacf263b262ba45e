// internal/requestinfo/requestinfo.go
//
// Per-request metadata for access logging: user-agent classification and
// best-effort IP geolocation.  Renewal pages are loaded by paying clients
// from arbitrary networks, and "which client, from where, on what device"
// is the first question when a renewal payment goes sideways.
//
// The structs are inert; they hold no handles or large buffers, so they
// are safe to log or JSON-encode.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA is the parsed user-agent summary.
type UA struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Device  string `json:"device"`
	IsBot   bool   `json:"is_bot"`
}

// Geo holds IP-based location hints; fields stay empty when the database
// has no match or no database is configured.
type Geo struct {
	IP         string `json:"ip"`
	CountryISO string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
}

// Info is attached to the request context by Enrich.
type Info struct {
	UA  UA
	Geo Geo
}

type ctxKey struct{}

// FromContext returns the Info stored by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

// Resolver parses request metadata.  geo may be nil.
type Resolver struct {
	geo *geoip2.Reader
}

// NewResolver opens the GeoLite2 database at dbPath; an empty path
// disables geolocation without error.
func NewResolver(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Resolver{geo: r}, nil
}

// Close releases the GeoLite2 handle.
func (rv *Resolver) Close() error {
	if rv.geo == nil {
		return nil
	}
	return rv.geo.Close()
}

// Enrich stores an *Info on the request context for downstream loggers.
func (rv *Resolver) Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &Info{
			UA:  parseUA(r.UserAgent()),
			Geo: rv.lookupGeo(clientIP(r)),
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

func parseUA(raw string) UA {
	u := surfer.Parse(raw)

	device := "Other"
	switch u.DeviceType {
	case surfer.DeviceComputer:
		device = "Desktop"
	case surfer.DeviceTablet:
		device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		device = "Mobile"
	}

	return UA{
		Browser: strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		OS:      strings.TrimPrefix(u.OS.Name.String(), "OS"),
		Device:  device,
		IsBot:   u.IsBot(),
	}
}

func (rv *Resolver) lookupGeo(ip net.IP) Geo {
	g := Geo{}
	if ip != nil {
		g.IP = ip.String()
	}
	if rv.geo == nil || ip == nil {
		return g
	}
	rec, err := rv.geo.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
