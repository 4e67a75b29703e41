// Package server exposes ingestion, generation and reporting over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/report"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
)

// Version is reported by /health.
const Version = "1.0.0"

// maxUploadBytes bounds one uploaded file.
const maxUploadBytes = 64 << 20

// Server wires the HTTP routes to the services.
type Server struct {
	store   store.Store
	ingest  *ingest.Service
	drafter *report.Drafter
	log     logrus.FieldLogger
	origins []string
}

// Options configures a Server.
type Options struct {
	Store          store.Store
	Ingest         *ingest.Service
	Drafter        *report.Drafter
	Log            logrus.FieldLogger
	AllowedOrigins []string
}

func New(opt Options) *Server {
	log := opt.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		store:   opt.Store,
		ingest:  opt.Ingest,
		drafter: opt.Drafter,
		log:     log.WithField("module", "server"),
		origins: opt.AllowedOrigins,
	}
}

// Handler builds the gin engine with middleware and routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestID())
	r.Use(accessLog(s.log))
	r.Use(cors.New(s.corsConfig()))
	r.Use(gin.Recovery())

	r.GET("/health", s.health)
	r.POST("/upload-data", s.uploadData)
	r.POST("/generate-articles", s.generateArticles)
	r.GET("/articles/recent", s.recentArticles)
	r.GET("/stats", s.stats)
	r.POST("/users", s.createUser)
	r.GET("/users", s.listUsers)
	r.GET("/users/:id", s.getUser)
	r.DELETE("/users/:id/data", s.clearUserData)
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.origins) == 0 || containsString(s.origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("GET", "POST", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders(headerUserID, headerRequestID, "Authorization")
	cfg.AddExposeHeaders(headerRequestID, "Content-Length")
	return cfg
}

// ListenAndServe serves on addr until ctx is cancelled, then drains.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
