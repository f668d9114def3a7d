// Package server exposes the calculator, compliance engine, and review
// scorer over a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rdti-cli/internal/compliance"
	"github.com/sells-group/rdti-cli/internal/offset"
	"github.com/sells-group/rdti-cli/internal/review"
)

// Server wires the domain services into HTTP handlers.
type Server struct {
	engine *compliance.Engine
	scorer *review.Scorer
}

// New builds a Server. The scorer may be nil when no Anthropic key is
// configured; the review endpoint then responds 503.
func New(engine *compliance.Engine, scorer *review.Scorer) *Server {
	return &Server{engine: engine, scorer: scorer}
}

// Routes returns the chi router for the full API surface.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/offset/calculate", s.handleOffsetCalculate)
		r.Post("/offset/threshold", s.handleOffsetThreshold)
		r.Get("/offset/deadline", s.handleOffsetDeadline)
		r.Post("/compliance/applications/{applicationID}/run", s.handleComplianceRun)
		r.Get("/compliance/overview", s.handleComplianceOverview)
		r.Post("/review/score", s.handleReviewScore)
	})
	return r
}

// ListenAndServe runs the API server until ctx is cancelled, then shuts
// down gracefully.
func ListenAndServe(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOffsetCalculate(w http.ResponseWriter, r *http.Request) {
	var in offset.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if in.NotionalDeductions < 0 || in.AggregatedTurnover < 0 || in.TotalExpenditure < 0 {
		respondError(w, http.StatusBadRequest, "monetary figures must be non-negative")
		return
	}
	respondJSON(w, http.StatusOK, offset.Calculate(in))
}

func (s *Server) handleOffsetThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotionalDeductions float64 `json:"notional_deductions"`
		RSPAmount          float64 `json:"rsp_amount"`
		CRCAmount          float64 `json:"crc_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, offset.MeetsMinimumThreshold(req.NotionalDeductions, req.RSPAmount, req.CRCAmount))
}

func (s *Server) handleOffsetDeadline(w http.ResponseWriter, r *http.Request) {
	yearEnd := r.URL.Query().Get("income_year_end")
	if yearEnd == "" {
		respondError(w, http.StatusBadRequest, "income_year_end is required")
		return
	}
	t, err := time.Parse("2006-01-02", yearEnd)
	if err != nil {
		respondError(w, http.StatusBadRequest, "income_year_end must be YYYY-MM-DD")
		return
	}
	deadline := offset.RegistrationDeadline(t)
	respondJSON(w, http.StatusOK, map[string]string{
		"income_year_end": t.Format("2006-01-02"),
		"deadline":        deadline.Format("2006-01-02"),
	})
}

func (s *Server) handleComplianceRun(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "applicationID")

	summary, err := s.engine.Run(r.Context(), applicationID)
	if err != nil {
		zap.L().Error("server: compliance run failed",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "compliance run failed")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleComplianceOverview(w http.ResponseWriter, r *http.Request) {
	organisationID := r.URL.Query().Get("organisation_id")
	if organisationID == "" {
		respondError(w, http.StatusBadRequest, "organisation_id is required")
		return
	}
	clientID := r.URL.Query().Get("client_id")

	overview, err := s.engine.Overview(r.Context(), organisationID, clientID)
	if err != nil {
		zap.L().Error("server: compliance overview failed",
			zap.String("organisation_id", organisationID),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "compliance overview failed")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

func (s *Server) handleReviewScore(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil {
		respondError(w, http.StatusServiceUnavailable, "review scoring is not configured")
		return
	}

	var result review.ReviewResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, s.scorer.Score(r.Context(), result))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs one line per request with the zap global logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
