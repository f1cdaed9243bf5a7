package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Dataset is the immutable per-session data: canonicalized places, the tag
// taxonomy, and the canonicalization map built from it.
type Dataset struct {
	Places []Place
	Tags   []TagDefinition
	Canon  *Canonicalizer
}

// Loader fetches the places and taxonomy sources and assembles a Dataset.
type Loader struct {
	client     *http.Client
	maxRetries uint64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the HTTP client used for remote sources.
func WithHTTPClient(hc *http.Client) LoaderOption {
	return func(l *Loader) { l.client = hc }
}

// WithMaxRetries sets the retry budget per fetch.
func WithMaxRetries(n uint64) LoaderOption {
	return func(l *Loader) { l.maxRetries = n }
}

// NewLoader creates a Loader with the given options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:     &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches both sources concurrently and returns the canonicalized
// dataset. Both must succeed: a half-loaded dataset is never returned, the
// caller stays in its loading state and the failure is logged. Tag
// canonicalization runs only after both fetches resolve.
func (l *Loader) Load(ctx context.Context, placesSrc, tagsSrc string) (*Dataset, error) {
	var (
		places []Place
		tags   []TagDefinition
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := l.fetch(gctx, placesSrc)
		if err != nil {
			return eris.Wrap(err, "directory: fetch places")
		}
		if err := decodeInto(placesSrc, data, &places); err != nil {
			return eris.Wrap(err, "directory: decode places")
		}
		return nil
	})
	g.Go(func() error {
		data, err := l.fetch(gctx, tagsSrc)
		if err != nil {
			return eris.Wrap(err, "directory: fetch taxonomy")
		}
		if err := decodeInto(tagsSrc, data, &tags); err != nil {
			return eris.Wrap(err, "directory: decode taxonomy")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("directory: dataset load failed", zap.Error(err))
		return nil, err
	}

	canon := NewCanonicalizer(tags)
	ds := &Dataset{
		Places: canon.Apply(places),
		Tags:   tags,
		Canon:  canon,
	}
	zap.L().Info("directory: dataset loaded",
		zap.Int("places", len(ds.Places)),
		zap.Int("tags", len(ds.Tags)),
	)
	return ds, nil
}

// fetch reads a source, which is either an http(s) URL or a local file path.
// Remote fetches retry transient failures with exponential backoff.
func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(src)
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("directory: %s returned status %d", src, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), l.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// decodeInto parses the payload as JSON or YAML. JSON is detected from the
// source extension or the first non-space byte; both sources are maintained
// by hand and show up in either format. Absent fields decode to zero values
// or nil pointers, never errors.
func decodeInto(src string, data []byte, v any) error {
	if isJSON(src, data) {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

func isJSON(src string, data []byte) bool {
	if strings.HasSuffix(src, ".yaml") || strings.HasSuffix(src, ".yml") {
		return false
	}
	if strings.HasSuffix(src, ".json") {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{')
}
