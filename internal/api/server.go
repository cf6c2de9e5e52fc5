// Package api provides the HTTP REST API and WebSocket server for GRN Core.
//
// It exposes order lookup, barcode decoding, slip prefill, batch submission,
// and batch history to warehouse handheld clients, plus a WebSocket progress
// stream for live per-part submission state.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/warelogic/grn-core/internal/attachment"
	"github.com/warelogic/grn-core/internal/infrastructure/config"
	"github.com/warelogic/grn-core/internal/infrastructure/logging"
	"github.com/warelogic/grn-core/internal/order"
	"github.com/warelogic/grn-core/internal/receipt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ReceiptService is the slice of the receipt workflow the API consumes.
type ReceiptService interface {
	LoadOrder(ctx context.Context, kind order.Kind, number string) (*order.Header, []receipt.LineEntry, error)
	Prefill(ctx context.Context, kind order.Kind, number string, items []order.ExtractedItem) (*receipt.PrefillResult, error)
	Submit(ctx context.Context, in receipt.SubmitInput) (*receipt.BatchResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Scanning config.ScanningConfig
	Logger   *logging.Logger
	Service  ReceiptService
	Batches  receipt.Repository // optional; history endpoints 404 without it

	// Attachments and AttachDir enable the attachment cache endpoints.
	// Both optional; the endpoints 404 without them.
	Attachments attachment.Repository
	AttachDir   string

	Hub     *Hub // optional; Start creates one when nil
	Version string
}

// Server is the HTTP API server for GRN Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	scanCfg     config.ScanningConfig
	logger      *logging.Logger
	service     ReceiptService
	batches     receipt.Repository
	attachments attachment.Repository
	attachDir   string
	version     string
	server      *http.Server
	hub         *Hub
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("receipt service is required")
	}

	return &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		scanCfg:     deps.Scanning,
		logger:      deps.Logger,
		service:     deps.Service,
		batches:     deps.Batches,
		attachments: deps.Attachments,
		attachDir:   deps.AttachDir,
		hub:         deps.Hub,
		version:     deps.Version,
	}, nil
}

// Hub returns the server's WebSocket hub. Nil until Start() is called.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	go s.hub.Run(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
