// Package api serves read-only collection queries and accepts signed
// instructions over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/instruction"
	"github.com/bitfsorg/nftstages-go/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to an engine and an instruction processor.
type Server struct {
	eng      *engine.Engine
	proc     *instruction.Processor
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      zerolog.Logger
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l.With().Str("component", "api").Logger() }
}

// WithMetrics records request metrics in m and serves g on /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New builds the router.
func New(eng *engine.Engine, proc *instruction.Processor, opts ...Option) *Server {
	s := &Server{eng: eng, proc: proc, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.log))
	if s.metrics != nil {
		r.Use(RequestMetrics(s.metrics))
	}
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/health", s.health)
	v1 := r.Group("/v1")
	v1.POST("/instructions", s.submitInstruction)
	c := v1.Group("/collections/:id")
	c.GET("", s.getCollection)
	c.GET("/stages/active", s.getActiveStage)
	c.GET("/records/:identity/:stage", s.getRecord)
	c.GET("/tokens", s.listTokens)
	c.GET("/tokens/:token", s.getToken)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("http_listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request_failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func (s *Server) collectionID(c *gin.Context) (collection.ID, bool) {
	id, err := collection.ParseID(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return id, false
	}
	return id, true
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.eng.Now()})
}

func (s *Server) getCollection(c *gin.Context) {
	id, ok := s.collectionID(c)
	if !ok {
		return
	}
	st, err := s.eng.Collection(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewCollectionView(st, s.eng.Now()))
}

func (s *Server) getActiveStage(c *gin.Context) {
	id, ok := s.collectionID(c)
	if !ok {
		return
	}
	at := s.eng.Now()
	if raw := c.Query("at"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid at: " + err.Error()})
			return
		}
		at = v
	}
	st, err := s.eng.Collection(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	entry, found, err := s.eng.ActiveStage(id, at)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"active": false, "at": at})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "at": at, "stage": NewStageView(st, int(entry.Config.Index), at)})
}

func (s *Server) getRecord(c *gin.Context) {
	id, ok := s.collectionID(c)
	if !ok {
		return
	}
	who, err := identity.ParseHex(c.Param("identity"))
	if err != nil {
		s.fail(c, err)
		return
	}
	idx, err := strconv.ParseUint(c.Param("stage"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stage: " + err.Error()})
		return
	}
	rec, err := s.eng.MintRecord(id, who, uint32(idx))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRecordView(rec))
}

func (s *Server) listTokens(c *gin.Context) {
	id, ok := s.collectionID(c)
	if !ok {
		return
	}
	toks, err := s.eng.Tokens(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]TokenView, len(toks))
	for i, t := range toks {
		out[i] = NewTokenView(t)
	}
	c.JSON(http.StatusOK, gin.H{"tokens": out})
}

func (s *Server) getToken(c *gin.Context) {
	id, ok := s.collectionID(c)
	if !ok {
		return
	}
	tokenID, err := strconv.ParseUint(c.Param("token"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid token: " + err.Error()})
		return
	}
	tok, err := s.eng.Token(id, tokenID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTokenView(tok))
}

type instructionRequest struct {
	Instruction string `json:"instruction" binding:"required"`
}

func (s *Server) submitInstruction(c *gin.Context) {
	var req instructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	env, err := instruction.DecodeHex(req.Instruction)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := s.proc.Process(env)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": res.Kind.String(), "result": res})
}
