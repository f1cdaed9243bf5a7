// Package photos resolves a place's photo reference into image bytes. A
// reference is either a direct image URL or a legacy provider token; stale
// tokens are retried through the provider's place-details lookup. Having no
// photo is a normal condition, not a failure.
package photos

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoPhoto means the place has no resolvable photo. Callers render their
// no-photo placeholder and move on; this never blocks the rest of the place
// details.
var ErrNoPhoto = eris.New("photos: no photo available")

// Ref identifies a photo to resolve. URL may be a direct image URL or a
// legacy photo token; PlaceID is the upstream place identifier used for the
// fallback lookup when the token is stale or expired.
type Ref struct {
	URL     string
	PlaceID string
}

// Client resolves photo references through a provider proxy endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
}

// Option configures the photo client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache attaches a byte cache for resolved photos.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// NewClient creates a photo client against the given provider proxy base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the image bytes and content type for a reference.
//
// Direct URLs are fetched as-is; a 403/404 there usually means an expired
// provider token, so when a place id is available the provider lookup is
// tried next. There is no cancellation of superseded requests: if the caller
// issues a newer Resolve before an older one returns, the last response to
// arrive wins.
func (c *Client) Resolve(ctx context.Context, ref Ref) ([]byte, string, error) {
	key := cacheKey(ref)
	if c.cache != nil && key != "" {
		if data, ct := c.cache.Get(key); data != nil {
			return data, ct, nil
		}
	}

	data, ct, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, "", err
	}
	if c.cache != nil && key != "" {
		c.cache.Put(key, data, ct)
	}
	return data, ct, nil
}

func (c *Client) resolve(ctx context.Context, ref Ref) ([]byte, string, error) {
	if isDirectURL(ref.URL) {
		data, ct, err := c.fetch(ctx, ref.URL)
		if err == nil {
			return data, ct, nil
		}
		if !eris.Is(err, ErrNoPhoto) || ref.PlaceID == "" {
			if eris.Is(err, ErrNoPhoto) {
				return nil, "", ErrNoPhoto
			}
			return nil, "", err
		}
		// Stale direct URL with a place id on hand: fall through to lookup.
		zap.L().Debug("photos: direct url stale, trying place lookup",
			zap.String("place_id", ref.PlaceID))
	}

	if ref.PlaceID != "" {
		return c.fetch(ctx, c.baseURL+"/places/"+url.PathEscape(ref.PlaceID)+"/photo")
	}
	if ref.URL != "" {
		// Legacy token without a place id.
		return c.fetch(ctx, c.baseURL+"/photo?ref="+url.QueryEscape(ref.URL))
	}
	return nil, "", ErrNoPhoto
}

// fetch retrieves image bytes. 403 and 404 map to ErrNoPhoto so callers can
// degrade silently; other statuses are real errors.
func (c *Client) fetch(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "photos: build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", eris.Wrap(err, "photos: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		return nil, "", ErrNoPhoto
	default:
		return nil, "", eris.Errorf("photos: upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", eris.Wrap(err, "photos: read body")
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return data, ct, nil
}

func isDirectURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func cacheKey(ref Ref) string {
	if ref.PlaceID != "" {
		return "place:" + ref.PlaceID
	}
	if ref.URL != "" {
		return "url:" + ref.URL
	}
	return ""
}
