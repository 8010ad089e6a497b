// Package gateway is the Boardflow HTTP server: settings, chat,
// document parsing, tool execution, knowledge management, and the
// activity feed (polled and streamed over WebSocket).
package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/boardflow/internal/activity"
	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/config"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/extract"
	"github.com/soyeahso/boardflow/internal/knowledge"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/logging"
	"github.com/soyeahso/boardflow/internal/orchestrator"
	"github.com/soyeahso/boardflow/internal/store"
	"github.com/soyeahso/boardflow/internal/version"
)

// ClientFactory builds a completion client for an API key. Keys live in
// per-board settings, so clients are constructed per request.
type ClientFactory func(apiKey string) llm.Client

// Server is the Boardflow gateway HTTP server.
type Server struct {
	cfg     config.Config
	log     *logging.Logger
	version string

	settings  store.SettingsStore
	files     store.KnowledgeStore
	orch      *orchestrator.Orchestrator
	recorder  *activity.Recorder
	extractor *extract.Extractor
	chunker   *knowledge.Chunker
	boards    board.Client // nil when no board token is configured
	clients   ClientFactory

	startedAt  time.Time
	httpServer *http.Server
	feed       *feedHub
	upgrader   websocket.Upgrader
}

// Deps carries the server's collaborators.
type Deps struct {
	Settings  store.SettingsStore
	Files     store.KnowledgeStore
	Orch      *orchestrator.Orchestrator
	Recorder  *activity.Recorder
	Extractor *extract.Extractor
	Boards    board.Client
	Clients   ClientFactory
}

// New creates a gateway server.
func New(cfg config.Config, deps Deps, log *logging.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log.Sub("gateway"),
		version:   version.Version,
		settings:  deps.Settings,
		files:     deps.Files,
		orch:      deps.Orch,
		recorder:  deps.Recorder,
		extractor: deps.Extractor,
		chunker:   knowledge.NewChunker(cfg.Knowledge.ChunkSize),
		boards:    deps.Boards,
		clients:   deps.Clients,
		feed:      newFeedHub(log.Sub("feed")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}
	if deps.Clients == nil {
		chatTimeout := time.Duration(cfg.LLM.ChatTimeout) * time.Second
		s.clients = func(apiKey string) llm.Client {
			return llm.NewPoeClient(apiKey,
				llm.WithBaseURL(cfg.LLM.BaseURL),
				llm.WithTimeout(chatTimeout))
		}
	}
	// new feed entries reach live websocket subscribers
	if deps.Recorder != nil {
		deps.Recorder.OnAppend(s.feed.broadcast)
	}
	return s
}

// checkWebSocketOrigin returns a function that validates WebSocket Origin headers.
// If no origins are configured, only same-origin (no Origin header) or non-browser
// clients are allowed. If origins are configured, the Origin must match one of them.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Same-origin or non-browser clients
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // chat and extraction turns run long
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if s.cfg.Gateway.TLS.Enabled {
		cert, err := tls.LoadX509KeyPair(s.cfg.Gateway.TLS.CertPath, s.cfg.Gateway.TLS.KeyPath)
		if err != nil {
			ln.Close()
			return fmt.Errorf("loading TLS certificate: %w", err)
		}
		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, tlsCfg)
		s.log.Info().Msg("TLS enabled")
	} else if s.cfg.Gateway.Bind != "loopback" {
		s.log.Warn().Msg("TLS is not enabled, API keys will be transmitted in cleartext")
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Bool("board_api", s.boards != nil).
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.feed.closeAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// boardSettings loads and normalizes a board's settings, seeding the
// defaults for boards that never saved any.
func (s *Server) boardSettings(ctx context.Context, boardID string) (*domain.Settings, error) {
	saved, err := s.settings.Get(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = &domain.Settings{}
	}
	// the config-wide model is the seed; Normalize only fills what is
	// still empty after it
	if saved.DefaultModel == "" {
		saved.DefaultModel = s.cfg.LLM.DefaultModel
	}
	saved.Normalize()
	return saved, nil
}

// resolveAPIKey prefers the key saved in board settings, falling back to
// the process-wide config key.
func (s *Server) resolveAPIKey(settings *domain.Settings) string {
	if settings != nil && settings.APIKey != "" {
		return settings.APIKey
	}
	return s.cfg.LLM.APIKey
}
