// Package api exposes the directory engine over HTTP: filtered places,
// aggregates, GeoJSON for the map, and the geocode/photo/feedback proxies.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/internal/geospatial"
	"github.com/civic-atlas/atlas-cli/internal/store"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
	"github.com/civic-atlas/atlas-cli/pkg/geocode"
	"github.com/civic-atlas/atlas-cli/pkg/photos"
)

// Server wires the immutable dataset and the collaborator clients into HTTP
// handlers. Every filter computation is a pure function of the request
// parameters, so handlers are safe under concurrent requests without locks.
type Server struct {
	dataset  *directory.Dataset
	cluster  geospatial.ClusterOptions
	geocoder geocode.Client
	photos   *photos.Client
	feedback *feedback.Client
	store    store.Store
	origins  []string
}

// Option configures the Server.
type Option func(*Server)

// WithGeocoder attaches the geocoding collaborator.
func WithGeocoder(c geocode.Client) Option {
	return func(s *Server) { s.geocoder = c }
}

// WithPhotos attaches the photo-resolution collaborator.
func WithPhotos(c *photos.Client) Option {
	return func(s *Server) { s.photos = c }
}

// WithFeedback attaches the feedback-forwarding collaborator.
func WithFeedback(c *feedback.Client) Option {
	return func(s *Server) { s.feedback = c }
}

// WithStore attaches the persistence backend (feedback outbox).
func WithStore(st store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithClusterOptions overrides the clustering configuration advertised to
// map clients.
func WithClusterOptions(c geospatial.ClusterOptions) Option {
	return func(s *Server) { s.cluster = c }
}

// WithAllowedOrigins sets the CORS allowlist.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates a Server over a loaded dataset.
func NewServer(dataset *directory.Dataset, opts ...Option) *Server {
	s := &Server{
		dataset: dataset,
		cluster: geospatial.DefaultClusterOptions(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/places", s.handlePlaces)
		r.Get("/places/{key}", s.handlePlace)
		r.Get("/tags", s.handleTags)
		r.Get("/summary", s.handleSummary)
		r.Get("/geojson", s.handleGeoJSON)
		r.Get("/geocode", s.handleGeocode)
		r.Get("/photos/{key}", s.handlePhoto)
		r.Post("/feedback", s.handleFeedback)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
