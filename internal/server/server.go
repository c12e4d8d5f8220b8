// Package server wires configuration, storage, the session manager, the tool
// registry and the HTTP surfaces into a runnable service.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/opaline/shopassist/pkg/actor"
	"github.com/opaline/shopassist/pkg/auth"
	"github.com/opaline/shopassist/pkg/catalog"
	"github.com/opaline/shopassist/pkg/chat"
	"github.com/opaline/shopassist/pkg/configstore"
	configpg "github.com/opaline/shopassist/pkg/configstore/postgres"
	"github.com/opaline/shopassist/pkg/conversation"
	conversationpg "github.com/opaline/shopassist/pkg/conversation/postgres"
	"github.com/opaline/shopassist/pkg/database/migrate"
	"github.com/opaline/shopassist/pkg/health"
	"github.com/opaline/shopassist/pkg/knowledge"
	knowledgepg "github.com/opaline/shopassist/pkg/knowledge/postgres"
	"github.com/opaline/shopassist/pkg/kvstore"
	kvpg "github.com/opaline/shopassist/pkg/kvstore/postgres"
	"github.com/opaline/shopassist/pkg/mcpbridge"
	"github.com/opaline/shopassist/pkg/platform"
	"github.com/opaline/shopassist/pkg/registry"
	catalogtk "github.com/opaline/shopassist/pkg/toolkits/catalog"
	chattk "github.com/opaline/shopassist/pkg/toolkits/chat"
	conversationstk "github.com/opaline/shopassist/pkg/toolkits/conversations"
	flagstk "github.com/opaline/shopassist/pkg/toolkits/flags"
	knowledgetk "github.com/opaline/shopassist/pkg/toolkits/knowledge"
)

// Version is set at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// Server is the assembled service. Construct with New, serve with Run or
// ServeStdio, release resources with Close.
type Server struct {
	cfg       *platform.Config
	log       *slog.Logger
	db        *sql.DB
	sessions  *actor.Manager
	responder chat.Responder
	registry  *registry.Registry
	bridge    *mcpbridge.Bridge
	checker   *health.Checker
	handler   http.Handler
}

// New assembles a Server from the configuration. With an empty database DSN
// every store runs in memory, which is the local development mode.
func New(cfg *platform.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, log: log, checker: health.NewChecker()}

	if err := s.initStores(); err != nil {
		s.closeDB()
		return nil, err
	}
	s.initHandler()
	s.checker.SetReady()
	return s, nil
}

// initStores opens the database when configured, runs migrations and builds
// the stores, session manager and tool registry.
func (s *Server) initStores() error {
	var (
		mirror    kvstore.Store
		convStore conversation.Store
		flagStore configstore.Store
		docStore  knowledge.Store
	)

	if s.cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", s.cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(s.cfg.Database.MaxOpenConns)
		s.db = db

		if err := migrate.Run(db); err != nil {
			return err
		}

		mirror = kvpg.New(db)
		convStore = conversationpg.New(db)
		flagStore = configpg.New(db)
		docStore = knowledgepg.New(db)

		s.checker.AddProbe("database", db.PingContext)

		if err := s.seedFlags(flagStore); err != nil {
			return err
		}
	} else {
		mirror = kvstore.NewMemoryStore()
		convStore = conversation.NewMemoryStore()
		flagStore = configstore.NewMemoryStore(s.cfg.Flags)
		docStore = knowledge.NewMemoryStore()
		s.log.Info("no database configured, running on in-memory stores")
	}

	s.sessions = actor.NewManager(mirror, convStore, actor.WithLogger(s.log))

	var embedder knowledge.Embedder
	if s.cfg.Embedding.Endpoint != "" {
		embedder = knowledge.NewHTTPEmbedder(s.cfg.Embedding.Endpoint, s.cfg.Embedding.Timeout)
	} else {
		embedder = knowledge.NewHashEmbedder(s.cfg.Embedding.Dimensions)
	}

	var catalogClient catalog.Client
	if s.cfg.Catalog.BaseURL != "" {
		catalogClient = catalog.NewHTTPClient(s.cfg.Catalog.BaseURL,
			catalog.WithToken(s.cfg.Catalog.Token),
			catalog.WithTimeout(s.cfg.Catalog.Timeout),
			catalog.WithRetries(s.cfg.Catalog.Retries, 200*time.Millisecond),
		)
	} else {
		catalogClient = catalog.NewStaticClient(nil)
		s.log.Info("no catalog configured, product search will return no results")
	}

	s.responder = chat.EchoResponder{}

	s.registry = registry.New()
	catalogtk.New(catalogClient).RegisterTools(s.registry)
	knowledgetk.New(knowledge.NewService(embedder, docStore)).RegisterTools(s.registry)
	conversationstk.New(convStore).RegisterTools(s.registry)
	flagstk.New(flagStore).RegisterTools(s.registry)
	chattk.New(s.sessions, s.responder, s.log).RegisterTools(s.registry)

	s.bridge = mcpbridge.New(s.cfg.Server.Name, s.cfg.Server.Version, s.registry, s.log)
	return nil
}

// seedFlags copies configured flags into the database store without
// overwriting values that operators already changed there.
func (s *Server) seedFlags(store configstore.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for key, value := range s.cfg.Flags {
		_, err := store.Get(ctx, key)
		if errors.Is(err, configstore.ErrNotFound) {
			if err := store.Set(ctx, key, value); err != nil {
				return fmt.Errorf("seeding config flag %s: %w", key, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding config flag %s: %w", key, err)
		}
	}
	return nil
}

// initHandler builds the route table. Shopper routes sit behind the proxy
// signature check; operator routes sit behind bearer auth.
func (s *Server) initHandler() {
	dispatcher := registry.NewDispatcher(s.registry, s.log)
	chatHandler := chat.NewHandler(s.sessions, s.responder, s.log)

	shopper := auth.ProxyMiddleware(s.cfg.Auth.Proxy, s.log)
	operator := auth.BearerMiddleware(s.cfg.Auth.Bearer, s.log)

	mux := http.NewServeMux()
	mux.Handle("POST /chat", shopper(http.HandlerFunc(chatHandler.HandleChat)))
	mux.Handle("POST /chat/stream", shopper(http.HandlerFunc(chatHandler.HandleStream)))
	mux.Handle("POST /chat/end", shopper(http.HandlerFunc(chatHandler.HandleEnd)))

	mux.Handle("POST /mcp", operator(dispatcher.HTTPHandler()))
	mux.Handle("/mcp/stream", operator(s.bridge.HTTPHandler()))
	mux.Handle("POST /tools/insertKnowledge", operator(dispatcher.ToolHandler("insertKnowledge")))
	mux.Handle("POST /tools/queryConversations", operator(dispatcher.ToolHandler("queryConversations")))

	mux.HandleFunc("GET /healthz", s.checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", s.checker.ReadinessHandler())

	s.handler = mux
}

// Handler returns the HTTP handler with all routes and middlewares applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *actor.Manager {
	return s.sessions
}

// Registry returns the tool registry.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Run serves HTTP until ctx is cancelled, then drains and shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "address", s.cfg.Server.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// ServeStdio serves the MCP tool surface over stdin/stdout until ctx is
// cancelled. The chat HTTP surface is not available in this mode.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.bridge.ServeStdio(ctx)
}

// Close releases held resources.
func (s *Server) Close() error {
	return s.closeDB()
}

func (s *Server) closeDB() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
