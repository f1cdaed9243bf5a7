// Package geocode resolves free-text address or place queries into a single
// best-match coordinate pair via a Nominatim-compatible endpoint.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/civic-atlas/atlas-cli/internal/geospatial"
)

// ErrNoResults means the query was understood but matched nothing. Callers
// surface this differently from a transport failure: the former is user
// correctable, the latter is transient.
var ErrNoResults = eris.New("geocode: no results")

// Result is the best match for a query.
type Result struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// Client geocodes free-text queries.
type Client interface {
	// Search returns the single best match for the query, or ErrNoResults.
	Search(ctx context.Context, query string) (*Result, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at a different Nominatim-compatible endpoint.
func WithBaseURL(u string) Option {
	return func(g *geocoder) { g.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) { g.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit. Public Nominatim allows
// one request per second.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithViewbox biases results toward the given bounds, keeping matches inside
// the service region when the query is ambiguous.
func WithViewbox(b geospatial.Bounds) Option {
	return func(g *geocoder) { g.viewbox = &b }
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy requires
// an identifying agent.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) { g.userAgent = ua }
}

type geocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	viewbox    *geospatial.Bounds
	userAgent  string
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		baseURL:    "https://nominatim.openstreetmap.org",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		userAgent:  "atlas-cli/1.0",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}
