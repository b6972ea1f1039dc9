package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/auth"
	"github.com/muurk/skylog/internal/feed"
	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/reference"
)

// Config holds the server configuration
type Config struct {
	Addr           string
	AllowedOrigins []string // CORS and websocket origins; "*" allows any
	Debug          bool     // gin debug mode
}

// Authenticator is the sign-in surface the API needs. *auth.Provider
// satisfies it.
type Authenticator interface {
	SendMagicLink(ctx context.Context, email, firstName, lastName string) error
	CompleteMagicLink(ctx context.Context, link string) (auth.User, error)
	IssueSession(user auth.User) (string, error)
	SessionClaims(token string) (*auth.Claims, error)
}

// FlightLog lists and records flights per user. *flightlog.Service
// satisfies it.
type FlightLog interface {
	FlightsFor(ctx context.Context, uid string) ([]flightlog.Flight, error)
	Watch(ctx context.Context, uid string, fn func([]flightlog.Flight, error)) *feed.Subscription
	ForUser(uid string) flightform.Recorder
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Auth      Authenticator
	Flights   FlightLog
	Publisher flightform.Publisher
	Reporter  flightform.Reporter
	Catalog   *reference.Catalog
	Message   func(error) string
	Now       func() time.Time
}

// Server is the SkyLog HTTP API.
type Server struct {
	config      Config
	deps        Deps
	engine      *gin.Engine
	httpServer  *http.Server
	listener    net.Listener
	upgrader    websocket.Upgrader
	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*websocket.Conn
}

// New creates a new Server instance
func New(config Config, deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Flights == nil || deps.Publisher == nil || deps.Catalog == nil {
		return nil, errors.New("server requires auth, flights, publisher and catalog")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:      config,
		deps:        deps,
		activeConns: make(map[string]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger())
	if len(s.config.AllowedOrigins) > 0 {
		r.Use(cors.New(s.corsConfig()))
	}

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/airports", s.handleAirports)
	api.GET("/airlines", s.handleAirlines)
	api.POST("/auth/link", s.handleSendLink)
	api.POST("/auth/complete", s.handleCompleteLink)

	flights := api.Group("/flights", s.RequireSession())
	flights.GET("", s.handleListFlights)
	flights.POST("", s.handleCreateFlight)
	flights.GET("/live", s.handleLive)

	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	for _, o := range s.config.AllowedOrigins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = s.config.AllowedOrigins
	return cfg
}

// checkOrigin admits websocket upgrades from allowed origins and from
// clients that send no Origin header.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.config.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen binds the configured address. It returns the bound address so a
// ":0" port can be advertised.
func (s *Server) Listen() (net.Addr, error) {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	logging.Info("Server listening for connections", zap.String("addr", listener.Addr().String()))
	return listener.Addr(), nil
}

// Serve handles requests until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if _, err := s.Listen(); err != nil {
			return err
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Error("Error shutting down HTTP server", zap.Error(err))
	}

	// Hijacked websocket connections are not tracked by http.Server.
	s.mu.Lock()
	for addr, conn := range s.activeConns {
		logging.Info("Closing live connection", zap.String("remote_addr", addr))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of open live connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}
