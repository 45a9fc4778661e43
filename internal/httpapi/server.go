/*
Package httpapi serves the storefront listing over HTTP with gin.

All responses are JSON. Failed requests carry an ErrorResponse body:

	GET /api/products?q=hades&genre=独立&tag=云存档&sort=price_asc&page=1
	GET /api/suggest?q=eld
	GET /api/history?q=eld&limit=3
	POST /api/history {"term": "elden ring"}
	DELETE /api/history/elden%20ring
*/
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/pkg/shelf"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options configures the HTTP server. RequestsPerMinute <= 0 turns off
// per-client limiting.
type Options struct {
	Addr              string
	RequestsPerMinute int
	Burst             int
	LimiterIdle       time.Duration
}

// Server is the HTTP front of a Shelf.
type Server struct {
	shelf  *shelf.Shelf
	router *gin.Engine
	opts   Options
	log    *log.Logger
}

// NewServer builds the router for s.
func NewServer(s *shelf.Shelf, opts Options) *Server {
	srv := &Server{
		shelf:  s,
		router: gin.New(),
		opts:   opts,
		log:    logger.New("http"),
	}
	srv.setupRoutes()
	return srv
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), RequestID(), AccessLog(s.log))
	if s.opts.RequestsPerMinute > 0 {
		s.router.Use(NewRateLimiter(s.opts.RequestsPerMinute, s.opts.Burst, s.opts.LimiterIdle).Middleware())
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/products", s.listProducts)
		api.GET("/products/:id", s.getProduct)
		api.GET("/price-ranges", s.listPriceRanges)
		api.GET("/facets", s.listFacets)
		api.GET("/suggest", s.suggest)

		api.GET("/history", s.getHistory)
		api.POST("/history", s.addHistory)
		api.DELETE("/history", s.clearHistory)
		api.DELETE("/history/:term", s.removeHistory)

		api.GET("/preferences", s.getPreferences)
		api.PUT("/preferences", s.setPreferences)
	}
}

// Run listens on opts.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", s.opts.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Stopped")
	return nil
}
