package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pokewatch/internal/config"
	"pokewatch/internal/engine"
	"pokewatch/internal/types"
)

// healthResponse is the JSON body of GET /healthz.
type healthResponse struct {
	Status          string    `json:"status"`
	Version         string    `json:"version"`
	Generation      string    `json:"generation,omitempty"`
	LoadedAt        time.Time `json:"loaded_at,omitzero"`
	Filters         int       `json:"filters"`
	Geofences       int       `json:"geofences"`
	CacheGeneration uint64    `json:"cache_generation"`
	WeatherCells    int       `json:"weather_cells"`
	Gyms            int       `json:"gyms"`
}

// newRouter mounts the ops endpoints: Prometheus metrics and a health report
// on the active rule generation and cache.
func newRouter(eng *engine.Engine, gatherer prometheus.Gatherer, build config.BuildInfo) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		snap := eng.Cache().Snapshot()
		cells, gyms := snap.Len()
		resp := healthResponse{
			Status:          "healthy",
			Version:         build.String(),
			CacheGeneration: snap.Generation(),
			WeatherCells:    cells,
			Gyms:            gyms,
		}
		status := http.StatusOK
		if gen := eng.Active(); gen != nil {
			resp.Generation = gen.ID.String()
			resp.LoadedAt = gen.LoadedAt
			resp.Filters = gen.Sets.Count()
			resp.Geofences = gen.Geofences.Len()
		} else {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	})
	return r
}

// buildInfoCollector exports a constant 1 labelled with the binary's version.
func buildInfoCollector(b config.BuildInfo) prometheus.Collector {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: types.MetricNamespace,
		Name:      types.MetricBuildInfo,
		Help:      "Build metadata of the running binary",
		ConstLabels: prometheus.Labels{
			"version":  b.Version,
			"commit":   b.Commit,
			"modified": strconv.FormatBool(b.Modified),
		},
	})
	g.Set(1)
	return g
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, string(types.ErrCodeInternalUnexpected), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// startOpsServer serves h on addr in the background.
func startOpsServer(addr string, h http.Handler, logger types.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("ops server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server failed", "error", err)
		}
	}()
	return srv
}
