package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/synapse-topology/internal/baseconfig"
	"github.com/muurk/synapse-topology/internal/config"
	"github.com/muurk/synapse-topology/internal/discovery"
	"github.com/muurk/synapse-topology/internal/flow"
	"github.com/muurk/synapse-topology/internal/logging"
)

// ShutdownTimeout bounds how long Start waits for in-flight requests after a
// shutdown signal.
const ShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host     string
	Port     int
	CertPath string // Path to certificate file; plain HTTP when empty
	KeyPath  string // Path to private key file
	LogLevel string

	// SessionName persists the wizard session in the registry under this
	// name after every change. Empty keeps the session in memory only.
	SessionName string
	// RegistryPath overrides the registry location; empty uses the default.
	RegistryPath string

	// Announce registers the server over mDNS while it runs.
	Announce bool
}

// Server serves the wizard over HTTP and pushes state changes to WebSocket
// clients.
type Server struct {
	config    *Config
	tlsConfig *tls.Config
	mux       *http.ServeMux
	hub       *hub

	mu       sync.Mutex
	state    flow.State
	answers  *baseconfig.BaseConfig
	registry *config.Registry

	httpServer *http.Server
}

// New creates a new Server instance
func New(cfg *Config) (*Server, error) {
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := &Server{
		config:  cfg,
		mux:     http.NewServeMux(),
		hub:     newHub(),
		state:   flow.NewState(),
		answers: baseconfig.New(),
	}

	if cfg.CertPath != "" || cfg.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	if cfg.SessionName != "" {
		if err := s.loadSession(); err != nil {
			return nil, err
		}
	}

	s.routes()
	return s, nil
}

func (s *Server) loadSession() error {
	var (
		reg *config.Registry
		err error
	)
	if s.config.RegistryPath != "" {
		reg, err = config.LoadRegistryFrom(s.config.RegistryPath)
	} else {
		reg, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load session registry: %w", err)
	}

	session := reg.EnsureSession(s.config.SessionName)
	s.registry = reg
	s.state = session.State()
	s.answers = session.Answers.Clone()

	logging.Info("Resumed wizard session",
		zap.String("session", s.config.SessionName),
		zap.String("screen", string(s.state.Screen)),
	)
	return nil
}

// Handler returns the HTTP handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// Start starts the server and blocks until a shutdown signal or a fatal error.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting configuration server",
		zap.String("addr", listener.Addr().String()),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
		zap.String("session", s.config.SessionName),
	)

	if s.config.Announce {
		stop, err := discovery.Announce(discovery.Announcement{
			Instance: s.instanceName(),
			Port:     listener.Addr().(*net.TCPAddr).Port,
			TLS:      s.tlsConfig != nil,
			Text:     []string{"session=" + s.config.SessionName},
		})
		if err != nil {
			logging.Warn("mDNS announcement failed", zap.Error(err))
		} else {
			defer stop()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) instanceName() string {
	if s.config.SessionName != "" {
		return "topology-" + s.config.SessionName
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "topology"
	}
	return "topology-" + host
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.hub.closeAll()

	var err error
	if s.httpServer != nil {
		if err = s.httpServer.Shutdown(ctx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = s.httpServer.Close()
		}
	}

	logging.Sync()
	return err
}

// ActiveClients returns the number of connected WebSocket clients
func (s *Server) ActiveClients() int {
	return s.hub.count()
}

// persist writes the session to the registry. Caller must hold s.mu.
func (s *Server) persist() {
	if s.registry == nil {
		return
	}
	session := s.registry.EnsureSession(s.config.SessionName)
	session.Answers = s.answers.Clone()
	session.SetState(s.state)
	s.registry.SaveSession(s.config.SessionName, session)

	if err := s.registry.Save(); err != nil {
		logging.Error("Failed to persist session",
			zap.String("session", s.config.SessionName),
			zap.Error(err),
		)
	}
}
