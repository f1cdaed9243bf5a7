package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/internal/geospatial"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
	"github.com/civic-atlas/atlas-cli/pkg/geocode"
	"github.com/civic-atlas/atlas-cli/pkg/photos"
)

// parseQuery extracts the filter inputs shared by the places, summary, and
// geojson endpoints: q, tags (comma separated), mode, bbox.
func parseQuery(r *http.Request) (directory.Query, error) {
	q := directory.Query{
		Text: r.URL.Query().Get("q"),
		Mode: directory.ParseViewMode(r.URL.Query().Get("mode")),
	}
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}
	if raw := r.URL.Query().Get("bbox"); raw != "" {
		b, err := geospatial.ParseBounds(raw)
		if err != nil {
			return q, err
		}
		q.Bounds = &b
	}
	return q, nil
}

// placesResponse is the filtered result payload.
type placesResponse struct {
	Places []placeJSON `json:"places"`
	Total  int         `json:"total"`
	InView int         `json:"in_view"`
}

// placeJSON is a Place plus its identity key, which clients use for list
// keys and selection.
type placeJSON struct {
	Key string `json:"key"`
	directory.Place
}

func toPlaceJSON(places []directory.Place) []placeJSON {
	out := make([]placeJSON, len(places))
	for i, p := range places {
		out[i] = placeJSON{Key: p.Key(), Place: p}
	}
	return out
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filtered, inView := directory.Results(s.dataset.Places, q)
	writeJSON(w, http.StatusOK, placesResponse{
		Places: toPlaceJSON(inView),
		Total:  len(filtered),
		InView: len(inView),
	})
}

// placeKeyParam returns the decoded {key} path segment. Identity keys embed
// raw address text; characters like "/" only survive the path percent-encoded,
// and chi leaves the segment escaped when the request carries an encoded path.
func placeKeyParam(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if decoded, err := url.PathUnescape(key); err == nil {
		return decoded
	}
	return key
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	key := placeKeyParam(r)
	for i := range s.dataset.Places {
		if s.dataset.Places[i].Key() == key {
			writeJSON(w, http.StatusOK, placeJSON{Key: key, Place: s.dataset.Places[i]})
			return
		}
	}
	writeError(w, http.StatusNotFound, "place not found")
}

func (s *Server) handleTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.dataset.Tags)
}

// summaryResponse carries the aggregates for the current filter state.
type summaryResponse struct {
	Tags       []directory.TagSummary    `json:"tags"`
	Categories []directory.CategoryCount `json:"categories"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, inView := directory.Results(s.dataset.Places, q)
	writeJSON(w, http.StatusOK, summaryResponse{
		Tags:       directory.PresentTags(inView, s.dataset.Canon),
		Categories: directory.CategoryCounts(inView),
	})
}

// geoJSONResponse pairs the projected features with the declarative
// clustering configuration for the renderer.
type geoJSONResponse struct {
	Cluster geospatial.ClusterOptions `json:"cluster"`
	GeoJSON json.RawMessage           `json:"geojson"`
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Markers come from the filtered set, not the in-view set: the renderer
	// clusters everything and the viewport only matters for counts.
	filtered := directory.Filter(s.dataset.Places, q.Text, q.Tags)
	fc := geospatial.Project(directory.Markers(filtered))
	encoded, err := json.Marshal(fc)
	if err != nil {
		zap.L().Error("api: encode geojson", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "encode failed")
		return
	}
	writeJSON(w, http.StatusOK, geoJSONResponse{Cluster: s.cluster, GeoJSON: encoded})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if s.geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	result, err := s.geocoder.Search(r.Context(), query)
	if err != nil {
		// "No results" is user-correctable; a transport failure is
		// transient. Clients show different messages for each.
		if eris.Is(err, geocode.ErrNoResults) {
			writeError(w, http.StatusNotFound, "no results for that search")
			return
		}
		zap.L().Warn("api: geocode failed", zap.String("q", query), zap.Error(err))
		writeError(w, http.StatusBadGateway, "geocoding request failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		writeError(w, http.StatusServiceUnavailable, "photos not configured")
		return
	}
	key := placeKeyParam(r)
	var place *directory.Place
	for i := range s.dataset.Places {
		if s.dataset.Places[i].Key() == key {
			place = &s.dataset.Places[i]
			break
		}
	}
	if place == nil {
		writeError(w, http.StatusNotFound, "place not found")
		return
	}

	data, contentType, err := s.photos.Resolve(r.Context(), photos.Ref{
		URL:     place.PhotoRef,
		PlaceID: place.UpstreamID,
	})
	if err != nil {
		if eris.Is(err, photos.ErrNoPhoto) {
			// Normal absence: the place simply has no photo.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		zap.L().Warn("api: photo resolve failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusBadGateway, "photo fetch failed")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback not configured")
		return
	}
	var rec feedback.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.feedback.Submit(r.Context(), rec)
	if err != nil {
		var verr *feedback.ValidationError
		if eris.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		// Forwarding failed: park the record so it is not lost, and let
		// the client keep its form state for a retry.
		if s.store != nil {
			if _, parkErr := s.store.EnqueueFeedback(r.Context(), rec); parkErr != nil {
				zap.L().Error("api: park feedback", zap.Error(parkErr))
			}
		}
		zap.L().Warn("api: feedback forward failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}
