package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/config"
	"github.com/civic-atlas/atlas-cli/internal/directory"
	"github.com/civic-atlas/atlas-cli/internal/geospatial"
	"github.com/civic-atlas/atlas-cli/internal/store"
	"github.com/civic-atlas/atlas-cli/pkg/geocode"
	"github.com/civic-atlas/atlas-cli/pkg/photos"
)

// openStore creates the configured store driver and runs migrations.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadDataset returns the dataset from the store snapshot when present,
// otherwise fetching the configured sources.
func loadDataset(ctx context.Context, st store.Store) (*directory.Dataset, error) {
	if st != nil {
		snap, err := st.LoadSnapshot(ctx)
		if err == nil {
			zap.L().Info("using stored snapshot", zap.Time("loaded_at", snap.LoadedAt))
			canon := directory.NewCanonicalizer(snap.Tags)
			return &directory.Dataset{
				Places: snap.Places,
				Tags:   snap.Tags,
				Canon:  canon,
			}, nil
		}
		if !eris.Is(err, store.ErrNoSnapshot) {
			return nil, err
		}
	}

	loader := directory.NewLoader()
	return loader.Load(ctx, cfg.Sources.Places, cfg.Sources.Tags)
}

// newGeocoder builds the geocode client from config.
func newGeocoder(gc config.GeocodeConfig) (geocode.Client, error) {
	opts := []geocode.Option{
		geocode.WithBaseURL(gc.BaseURL),
		geocode.WithUserAgent(gc.UserAgent),
		geocode.WithRateLimit(gc.RPS),
	}
	if gc.Viewbox != "" {
		b, err := geospatial.ParseBounds(gc.Viewbox)
		if err != nil {
			return nil, eris.Wrap(err, "geocode viewbox")
		}
		opts = append(opts, geocode.WithViewbox(b))
	}
	return geocode.NewClient(opts...), nil
}

// newPhotoClient builds the photo client from config, nil when unconfigured.
func newPhotoClient(pc config.PhotosConfig) *photos.Client {
	if pc.BaseURL == "" {
		return nil
	}
	cache := photos.NewCache(pc.CacheEntries, time.Duration(pc.CacheTTLHours)*time.Hour)
	return photos.NewClient(pc.BaseURL, photos.WithCache(cache))
}
