// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spektr-org/pulse/config"
	"github.com/spektr-org/pulse/engine"
	"github.com/spektr-org/pulse/helpers"
	"github.com/spektr-org/pulse/narrator"
	"github.com/spektr-org/pulse/notify"
)

// ============================================================================
// HTTP SERVER — upload → analyze → session
// ============================================================================
// Routes:
//   POST   /api/v1/analyses              multipart "file" (+ optional "sheet", "filter")
//   GET    /api/v1/analyses/:id
//   GET    /api/v1/analyses/:id/tables/:name   kpis | alerts | churn | columns | stats | correlation
//   GET    /api/v1/analyses/:id/charts/:name   revenue | products | churn
//   POST   /api/v1/analyses/:id/summary
//   DELETE /api/v1/analyses/:id
//   GET    /api/v1/stats
//   GET    /health
// ============================================================================

// Notifier sends alert digests somewhere.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, a *engine.Analysis) error
}

// Server holds sessions and the optional collaborators.
type Server struct {
	cfg      *config.Config
	store    *Store
	stats    *LatencyStats
	notifier Notifier
	narrator narrator.Narrator
}

// Option customizes a Server.
type Option func(*Server)

// WithNotifier replaces the Slack notifier built from config.
func WithNotifier(n Notifier) Option {
	return func(s *Server) { s.notifier = n }
}

// WithNarrator replaces the Gemini narrator built from config.
func WithNarrator(n narrator.Narrator) Option {
	return func(s *Server) { s.narrator = n }
}

// New builds a server from cfg.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		store:    NewStore(cfg.Server.MaxSessions),
		stats:    NewLatencyStats(),
		notifier: notify.NewSlack(cfg.Notify.SlackWebhook),
	}
	if cfg.Narrator.APIKey != "" {
		s.narrator = narrator.NewGemini(narrator.Config{
			APIKey:    cfg.Narrator.APIKey,
			Model:     cfg.Narrator.Model,
			Endpoint:  cfg.Narrator.Endpoint,
			Timeout:   cfg.Narrator.Timeout,
			MaxTokens: cfg.Narrator.MaxTokens,
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router wires the routes onto a new gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = s.maxUploadBytes()

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	{
		analyses := v1.Group("/analyses")
		{
			analyses.POST("", s.createAnalysis)
			analyses.GET("/:id", s.getAnalysis)
			analyses.GET("/:id/tables/:name", s.getTable)
			analyses.GET("/:id/charts/:name", s.getChart)
			analyses.POST("/:id/summary", s.summarize)
			analyses.DELETE("/:id", s.deleteAnalysis)
		}
		v1.GET("/stats", s.getStats)
	}
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Pulse API listening on %s", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("🛑 Pulse API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) maxUploadBytes() int64 {
	if s.cfg.Server.MaxUploadMB <= 0 {
		return 32 << 20
	}
	return s.cfg.Server.MaxUploadMB << 20
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) createAnalysis(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "multipart field \"file\" is required", err.Error())
		return
	}
	if fh.Size > s.maxUploadBytes() {
		RespondWithError(c, http.StatusRequestEntityTooLarge, ErrorCodeValidation,
			fmt.Sprintf("file exceeds %d MB", s.maxUploadBytes()>>20), nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, ErrorCodeInternal, "could not open upload", err.Error())
		return
	}
	defer f.Close()

	opts := []engine.Option{engine.WithConfig(s.cfg.Engine)}
	for _, raw := range c.PostFormArray("filter") {
		field, values, err := engine.ParseFilter(raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "invalid filter", err.Error())
			return
		}
		opts = append(opts, engine.WithFilter(field, values...))
	}

	t, err := helpers.Load(fh.Filename, f, c.PostForm("sheet"))
	if err != nil {
		respondWithLoadError(c, err)
		return
	}

	start := time.Now()
	a, err := engine.Analyze(t, opts...)
	if err != nil {
		respondWithLoadError(c, err)
		return
	}
	s.stats.Record(time.Since(start))

	sess := s.store.Put(fh.Filename, a)
	log.Printf("📊 Pulse API: session %s (%s, %d rows, %d alerts)", sess.ID, sess.Name, a.RowCount, len(a.Alerts))

	if s.cfg.Server.NotifyOnAlert && s.notifier != nil && s.notifier.Enabled() {
		if err := s.notifier.Notify(c.Request.Context(), a); err != nil {
			log.Printf("⚠️ Pulse API: alert notification failed: %v", err)
		}
	}

	c.JSON(http.StatusCreated, sess)
}

func (s *Server) getAnalysis(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) getTable(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		RespondWithError(c, http.StatusBadRequest, ErrorCodeValidation, "limit must be a non-negative integer", c.Query("limit"))
		return
	}

	name := c.Param("name")
	data := engine.BuildTable(sess.Analysis, name, limit)
	if data == nil {
		RespondWithError(c, http.StatusNotFound, ErrorCodeNotFound, fmt.Sprintf("unknown table %q", name), engine.TableNames)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) getChart(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	name := c.Param("name")
	chart := engine.BuildChart(sess.Analysis, name)
	if chart == nil {
		RespondWithError(c, http.StatusNotFound, ErrorCodeNotFound, fmt.Sprintf("no %q chart for this analysis", name),
			engine.ChartNames)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (s *Server) summarize(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	if s.narrator == nil {
		RespondWithError(c, http.StatusServiceUnavailable, ErrorCodeInternal, "narrator not configured (set GEMINI_API_KEY)", nil)
		return
	}

	summary, err := s.narrator.Summarize(c.Request.Context(), sess.Analysis)
	if err != nil {
		RespondWithError(c, http.StatusBadGateway, ErrorCodeInternal, "summary generation failed", err.Error())
		return
	}
	s.store.SetSummary(sess.ID, summary)
	c.JSON(http.StatusOK, gin.H{"id": sess.ID, "summary": summary})
}

func (s *Server) deleteAnalysis(c *gin.Context) {
	id := c.Param("id")
	if !s.store.Delete(id) {
		RespondWithError(c, http.StatusNotFound, ErrorCodeNotFound, "analysis not found", gin.H{"id": id})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": s.store.Len(),
		"latency":  s.stats.Snapshot(),
	})
}

func (s *Server) lookup(c *gin.Context) (*Session, bool) {
	id := c.Param("id")
	sess, ok := s.store.Get(id)
	if !ok {
		RespondWithError(c, http.StatusNotFound, ErrorCodeNotFound, "analysis not found", gin.H{"id": id})
	}
	return sess, ok
}
