package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/homemetric/valuation-cli/internal/model"
	"github.com/homemetric/valuation-cli/internal/monitoring"
	"github.com/homemetric/valuation-cli/internal/store"
	"github.com/homemetric/valuation-cli/internal/valuation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the valuation HTTP API",
	Long: `Serve the valuation engine over HTTP.

Endpoints:
  GET  /health              liveness and uptime
  POST /api/valuations      value a property, persist and return the record
  GET  /api/valuations      list valuation history (city, verdict, limit, offset)
  GET  /api/valuations/{id} fetch one valuation by id
  GET  /api/cities          list cities with built-in profiles
  GET  /api/stats           history and runtime metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetInt("port")
	if port <= 0 {
		port = cfg.Server.Port
	}

	env, err := initApp(ctx, true)
	if err != nil {
		return err
	}
	defer env.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newRouter(env),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("API server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return eris.Wrap(err, "serve")
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "serve: shutdown")
	}
	return nil
}

type apiServer struct {
	env       *appEnv
	collector *monitoring.Collector
}

func newRouter(env *appEnv) http.Handler {
	s := &apiServer{
		env:       env,
		collector: monitoring.NewCollector(env.store, env.runtime),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/valuations", s.handleCreateValuation)
		r.Get("/valuations", s.handleListValuations)
		r.Get("/valuations/{id}", s.handleGetValuation)
		r.Get("/cities", s.handleListCities)
		r.Get("/stats", s.handleStats)
	})
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	method := "ensemble"
	if s.env.engine.Degraded() {
		method = "closed_form"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"method": method,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *apiServer) handleCreateValuation(w http.ResponseWriter, r *http.Request) {
	var in model.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	profile := s.env.resolver.Resolve(r.Context(), in.City)
	result, err := s.env.engine.Value(in, profile)
	if err != nil {
		s.env.runtime.RecordFailure()
		status := http.StatusInternalServerError
		if eris.Is(err, valuation.ErrValidation) {
			status = http.StatusBadRequest
		}
		respondError(w, status, err)
		return
	}
	s.env.runtime.RecordValuation(result.Prediction.Method == "closed_form")

	if s.env.store != nil {
		record, err := s.env.store.SaveValuation(r.Context(), result)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		respondJSON(w, http.StatusCreated, record)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (s *apiServer) handleListValuations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.Filter{
		City:    q.Get("city"),
		Verdict: model.Verdict(q.Get("verdict")),
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	records, err := s.env.store.ListValuations(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"valuations": records,
		"count":      len(records),
	})
}

func (s *apiServer) handleGetValuation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.env.store.GetValuation(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *apiServer) handleListCities(w http.ResponseWriter, _ *http.Request) {
	profiles := s.env.resolver.Known()
	respondJSON(w, http.StatusOK, map[string]any{
		"cities": profiles,
		"count":  len(profiles),
	})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("writing response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
