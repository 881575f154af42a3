package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"unicare-bulksubmit/core/auth"
)

// Server is a stand-in for the UniCareOS node's record intake. It applies the
// node's auth and validation rules but keeps accepted records in memory only.
type Server struct {
	echo       *echo.Echo
	token      string
	authorizer *auth.Authorizer

	mu        sync.Mutex
	seen      map[string]string // recordId -> txId
	accepted  int
	rejected  int
	startTime time.Time
}

type Config struct {
	// Token is the expected Authorization bearer token.
	Token string
	// Authorizer, if set, verifies wallet signatures and Ethos tokens.
	Authorizer *auth.Authorizer
}

func New(cfg Config) *Server {
	s := &Server{
		echo:       echo.New(),
		token:      cfg.Token,
		authorizer: cfg.Authorizer,
		seen:       make(map[string]string),
		startTime:  time.Now(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger)

	s.echo.GET("/health/liveness", s.LivenessHandler)
	s.echo.GET("/health/readiness", s.ReadinessHandler)
	s.echo.GET("/nodehealth", s.NodeHealthHandler)

	api := s.echo.Group("/api/v1", s.authMiddleware)
	api.POST("/submit-medical-record", s.SubmitMedicalRecordHandler)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start blocks until the server stops. After Shutdown it returns
// http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	log.Infof("mock node listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// authMiddleware enforces the static bearer token.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			s.reject()
			return c.String(http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.WithFields(log.Fields{
			"method":  c.Request().Method,
			"path":    c.Request().URL.Path,
			"status":  c.Response().Status,
			"elapsed": time.Since(start),
		}).Debug("request served")
		return err
	}
}

func (s *Server) reject() {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
}
