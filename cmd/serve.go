package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/api"
	"github.com/civic-atlas/atlas-cli/internal/geospatial"
	"github.com/civic-atlas/atlas-cli/pkg/feedback"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the directory HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		dataset, err := loadDataset(ctx, st)
		if err != nil {
			return err
		}

		geocoder, err := newGeocoder(cfg.Geocode)
		if err != nil {
			return err
		}

		opts := []api.Option{
			api.WithGeocoder(geocoder),
			api.WithStore(st),
			api.WithAllowedOrigins(cfg.Server.AllowedOrigins),
			api.WithClusterOptions(geospatial.ClusterOptions{
				MaxZoom:   cfg.Map.ClusterMaxZoom,
				RadiusPx:  cfg.Map.ClusterRadiusPx,
				MinPoints: cfg.Map.ClusterMinPoints,
			}),
		}
		if pc := newPhotoClient(cfg.Photos); pc != nil {
			opts = append(opts, api.WithPhotos(pc))
		}
		if cfg.Feedback.Endpoint != "" {
			fc := feedback.NewClient(cfg.Feedback.Endpoint, feedback.WithToken(cfg.Feedback.Token))
			opts = append(opts, api.WithFeedback(fc))
		}

		server := api.NewServer(dataset, opts...)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serving directory API",
			zap.Int("port", port),
			zap.Int("places", len(dataset.Places)),
			zap.Int("tags", len(dataset.Tags)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
