package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/attendance-kiosk/internal/attendance"
	"github.com/kozaktomas/attendance-kiosk/internal/classifier"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/web/hub"
	"github.com/kozaktomas/attendance-kiosk/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	service    *attendance.Service
	loader     *classifier.Loader
	hub        *hub.Hub

	stopHub     context.CancelFunc
	unsubscribe func()
}

// NewServer creates a new web server. The websocket hub starts immediately
// and every kiosk state change is pushed to it.
func NewServer(cfg *config.Config, port int, host string, service *attendance.Service, loader *classifier.Loader) *Server {
	r := chi.NewRouter()

	s := &Server{
		config:  cfg,
		router:  r,
		service: service,
		loader:  loader,
		hub:     hub.New(),
	}

	hubCtx, cancel := context.WithCancel(context.Background())
	s.stopHub = cancel
	go s.hub.Run(hubCtx)
	s.unsubscribe = service.Kiosk().Subscribe(func(state attendance.State) {
		s.hub.Broadcast(state)
	})

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // LLM backends can take a while per frame
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	log.Printf("Starting web server on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down and returns once
// in-flight requests have finished or constants.ShutdownTimeout expires.
// Attempts still running keep using the store, so callers close it after
// Run returns.
func (s *Server) Run(ctx context.Context) error {
	return s.run(ctx, s.Start)
}

func (s *Server) run(ctx context.Context, serve func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown gracefully shuts down the server and disconnects kiosk pages.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")

	s.unsubscribe()
	s.stopHub()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}
