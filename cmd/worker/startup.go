package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutrifarm-backend/pkg/container"
	"nutrifarm-backend/pkg/logger"
)

type healthServer struct {
	srv *http.Server
}

// startHealthServer exposes /health, /ready and /metrics on the worker health port.
func startHealthServer(c *container.Container) *healthServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP", "service": "nutrifarm-worker"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := c.Redis.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_READY", "redis": err.Error()})
			return
		}
		if err := c.DB.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "NOT_READY", "database": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "READY"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + c.Config.Job.HealthPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("[Health] server starting", map[string]interface{}{"port": c.Config.Job.HealthPort})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Health] server failed", err)
		}
	}()

	return &healthServer{srv: srv}
}

func (h *healthServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		logger.Error("[Health] shutdown failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
