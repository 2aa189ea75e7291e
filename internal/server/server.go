// Package server exposes the query layer over HTTP.
//
// Every request may carry its own connection string, either in the
// credential header or in an encrypted session cookie set through
// /api/connection. Requests without one run against the configured
// DATABASE_URL.
package server

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Framian/umami/pkg/connection"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

// sessionURLKey is the session value holding a connection string.
const sessionURLKey = "database_url"

// Server is the HTTP query server.
type Server struct {
	resolver        *connection.Resolver
	addr            string
	header          string
	sessions        *sessions.CookieStore
	sessionName     string
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Resolver *connection.Resolver
	Addr     string
	// CredentialHeader names the request header carrying a connection
	// string. Empty disables it.
	CredentialHeader string
	SessionName      string
	// SessionSecret enables /api/connection. Empty disables sessions.
	SessionSecret   string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// New creates a server. If the logger is nil, a discard logger is used.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		resolver:        cfg.Resolver,
		addr:            cfg.Addr,
		header:          cfg.CredentialHeader,
		sessionName:     cfg.SessionName,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 5 * time.Second
	}

	if cfg.SessionSecret != "" {
		// The cookie carries credentials, so it is encrypted as well as signed.
		blockKey := sha256.Sum256([]byte("block:" + cfg.SessionSecret))
		store := sessions.NewCookieStore([]byte(cfg.SessionSecret), blockKey[:])
		store.MaxAge(86400) // 1 day
		store.Options.Path = "/"
		store.Options.HttpOnly = true
		store.Options.SameSite = http.SameSiteLaxMode
		s.sessions = store
	}

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.requestLogger,
		s.credentials,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/heartbeat", s.handleHeartbeat)
		r.Post("/query", s.handleQuery)
		r.Post("/table", s.handleTable)
		if s.sessions != nil {
			r.Post("/connection", s.handleSetConnection)
			r.Delete("/connection", s.handleClearConnection)
		}
	})

	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// credentials binds a request-scoped connection string to the request
// context. The header wins over the session.
func (s *Server) credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dsn, ok := s.requestCredential(r); ok {
			r = r.WithContext(connection.WithCredential(r.Context(), dsn))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestCredential(r *http.Request) (string, bool) {
	if s.header != "" {
		if dsn := r.Header.Get(s.header); dsn != "" {
			return dsn, true
		}
	}
	if s.sessions == nil {
		return "", false
	}
	sess, err := s.sessions.Get(r, s.sessionName)
	if err != nil {
		return "", false
	}
	dsn, ok := sess.Values[sessionURLKey].(string)
	return dsn, ok && dsn != ""
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			slog.String("id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
