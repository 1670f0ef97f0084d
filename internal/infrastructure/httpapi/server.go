package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"TickerRadar/internal/domain"
	"TickerRadar/internal/ports"
)

const defaultWindow = "24h"

// Server exposes the read API for the dashboard and the authenticated ingest
// boundary for out-of-process pipeline runners.
type Server struct {
	rankings    ports.RankingRepository
	prices      ports.PriceRepository
	ingestToken string
	logger      *slog.Logger
	httpServer  *http.Server
}

// NewServer wires the repositories into an HTTP server on addr.
func NewServer(addr string, rankings ports.RankingRepository, prices ports.PriceRepository, ingestToken string, logger *slog.Logger) *Server {
	s := &Server{
		rankings:    rankings,
		prices:      prices,
		ingestToken: ingestToken,
		logger:      logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/ranking", s.withCORS(s.handleGetRanking))
	mux.HandleFunc("GET /api/prices", s.withCORS(s.handleGetPrices))
	mux.HandleFunc("GET /api/meta", s.withCORS(s.handleGetMeta))
	mux.HandleFunc("POST /internal/ingest", s.handleIngest)
	return mux
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// The dashboard is served from a different origin, so the read API answers
// cross-origin GETs.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	window := r.URL.Query().Get("window")
	if window == "" {
		window = defaultWindow
	}

	snapshot, err := s.rankings.GetRanking(window)
	if err != nil {
		// Never propagate a read error to the dashboard; serve an empty
		// snapshot whose stale UpdatedAt makes the problem visible.
		s.warn("ranking read failed", "window", window, "error", err)
		snapshot = domain.EmptySnapshot(window)
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleGetPrices(w http.ResponseWriter, _ *http.Request) {
	quotes, err := s.prices.GetPrices()
	if err != nil {
		s.warn("prices read failed", "error", err)
		quotes = []domain.PriceQuote{}
	}
	if quotes == nil {
		quotes = []domain.PriceQuote{}
	}
	s.writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleGetMeta(w http.ResponseWriter, _ *http.Request) {
	meta, err := s.rankings.GetRunMeta()
	if err != nil {
		s.warn("meta read failed", "error", err)
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// ingestPayload is a RankingSnapshot plus whatever enrichment fields a
// collaborator appends; unknown keys are tolerated, missing ones default.
type ingestPayload struct {
	domain.RankingSnapshot
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
		return
	}

	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}
	if payload.Window == "" {
		s.writeError(w, http.StatusBadRequest, "window is required")
		return
	}
	if payload.Items == nil {
		s.writeError(w, http.StatusBadRequest, "items is required")
		return
	}

	snapshot := payload.RankingSnapshot
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}
	if snapshot.Sources == nil {
		snapshot.Sources = []domain.Source{}
	}

	if err := s.rankings.SaveRanking(snapshot.Window, snapshot); err != nil {
		s.warn("ingest save failed", "window", snapshot.Window, "error", err)
		s.writeError(w, http.StatusInternalServerError, "persist failed")
		return
	}
	if err := s.rankings.SaveRunMeta(domain.RunMeta{
		LastRunAt:  snapshot.UpdatedAt,
		LastStatus: domain.RunSuccess,
	}); err != nil {
		s.warn("ingest meta save failed", "error", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.ingestToken == "" {
		return false
	}
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.ingestToken)) == 1
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.warn("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
