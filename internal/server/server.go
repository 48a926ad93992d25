// Package server exposes cohort inspection and message evaluation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/drpaneas/resonance/internal/dataset"
	"github.com/drpaneas/resonance/internal/evaluate"
	"github.com/drpaneas/resonance/internal/persona"
	"github.com/drpaneas/resonance/internal/prompt"
)

// Server serves the evaluation API over a fixed set of cohorts.
type Server struct {
	cohorts     *persona.Cohorts
	runner      *evaluate.Runner
	numPersonas int
	logger      *slog.Logger
	router      *gin.Engine
}

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	Messages    []string `json:"messages"`
	Role        string   `json:"role"`
	NumPersonas int      `json:"num_personas"`
}

// EvaluateResponse is the reply to POST /v1/evaluate.
type EvaluateResponse struct {
	RunID    string                       `json:"run_id"`
	Role     string                       `json:"role"`
	Personas int                          `json:"personas"`
	Results  []evaluate.MessageEvaluation `json:"results"`
	Stats    evaluate.Stats               `json:"stats"`
}

// CohortsResponse is the reply to GET /v1/cohorts.
type CohortsResponse struct {
	Cohorts    map[string]int `json:"cohorts"`
	Dropped    int            `json:"dropped"`
	Duplicates int            `json:"duplicates"`
}

// New builds a Server. numPersonas is used when a request does not set
// num_personas.
func New(cohorts *persona.Cohorts, runner *evaluate.Runner, numPersonas int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cohorts:     cohorts,
		runner:      runner,
		numPersonas: numPersonas,
		logger:      logger,
	}
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogging())
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/v1/cohorts", s.handleCohorts)
	router.POST("/v1/evaluate", s.handleEvaluate)
	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleCohorts(c *gin.Context) {
	sizes := make(map[string]int)
	for role, n := range s.cohorts.Sizes() {
		sizes[role.Selector()] = n
	}
	c.JSON(http.StatusOK, CohortsResponse{
		Cohorts:    sizes,
		Dropped:    s.cohorts.Dropped(),
		Duplicates: s.cohorts.Duplicates(),
	})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	messages := dataset.CleanMessages(req.Messages)
	if len(messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": dataset.ErrNoMessages.Error()})
		return
	}
	role, err := persona.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n := req.NumPersonas
	if n <= 0 {
		n = s.numPersonas
	}
	personas, err := s.cohorts.Select(role, n)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := ulid.Make().String()
	logger := s.logger.With("run_id", runID)
	logger.Info("evaluating", "role", role, "messages", len(messages), "personas", len(personas))

	evals, stats, err := s.runner.Run(c.Request.Context(), messages, role, personas)
	switch {
	case err == nil:
	case errors.Is(err, evaluate.ErrNoMessages), errors.Is(err, prompt.ErrUnknownTemplate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	default:
		logger.Error("evaluation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{
		RunID:    runID,
		Role:     role.Selector(),
		Personas: len(personas),
		Results:  evals,
		Stats:    stats,
	})
}
