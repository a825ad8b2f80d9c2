// Package gateway implements the display HTTP API. It accepts display
// requests, validates them against the character class and the icon
// registry snapshot, and forwards accepted messages unchanged to the
// rendering backend over NATS. Every error response is an RFC 9457 problem
// document.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/glowsign/display-app/internal/display"
	"github.com/glowsign/display-app/internal/icons"
	"github.com/glowsign/display-app/internal/message"
	"github.com/glowsign/display-app/internal/metrics"
	"github.com/glowsign/display-app/internal/ratelimit"
)

// DefaultSummaryText is the promotional string shown by /display-summary.
const DefaultSummaryText = "Open LED Badge - Free, hackable, and fun! :star: :heart:"

// ServerConfig holds tunable parameters for the gateway HTTP server.
type ServerConfig struct {
	ListenAddr   string        // address to listen on, e.g. ":8080"
	ReadTimeout  time.Duration // timeout for reading request bodies
	WriteTimeout time.Duration // timeout for writing responses
	SummaryText  string        // text published by /display-summary
}

// DefaultServerConfig returns a ServerConfig with sensible production defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:   ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		SummaryText:  DefaultSummaryText,
	}
}

// Publisher is the renderer-facing side of the gateway: accepted commands
// are published to it and fan out to whatever backend is subscribed.
type Publisher interface {
	PublishRender(data []byte) error
	PublishClear(data []byte) error
}

// StateReader reads the renderer's last published state.
type StateReader interface {
	Get(ctx context.Context) (*display.State, error)
}

// Server is the display gateway HTTP server.
type Server struct {
	config     ServerConfig
	registry   *icons.Registry
	validator  *message.Validator
	publisher  Publisher
	states     StateReader        // may be nil, /display then returns a blank state
	limiter    *ratelimit.Limiter // may be nil to disable throttling
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer wires the gateway together. registry, validator, and publisher
// are required; states and limiter are optional.
func NewServer(config ServerConfig, registry *icons.Registry, validator *message.Validator, publisher Publisher, states StateReader, limiter *ratelimit.Limiter) *Server {
	return &Server{
		config:    config,
		registry:  registry,
		validator: validator,
		publisher: publisher,
		states:    states,
		limiter:   limiter,
	}
}

// Handler returns the gateway's HTTP handler. Split out from Start so tests
// can drive the full routing through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/display-text", s.handleDisplayText)
	mux.HandleFunc("/display-summary", s.handleDisplaySummary)
	mux.HandleFunc("/display-clear", s.handleDisplayClear)
	mux.HandleFunc("/predefined-icons", s.handlePredefinedIcons)
	mux.HandleFunc("/display", s.handleDisplay)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Printf("gateway: listening on %s", s.config.ListenAddr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway: http server error: %w", err)
	}
	return nil
}

// Shutdown performs a graceful shutdown of the HTTP server.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("gateway: shutdown: %w", err)
	}
	return nil
}
