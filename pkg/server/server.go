package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bugout-dev/spire/pkg/acl"
	"github.com/bugout-dev/spire/pkg/audit"
	"github.com/bugout-dev/spire/pkg/config"
	"github.com/bugout-dev/spire/pkg/search"
	"github.com/bugout-dev/spire/pkg/search/index"
	"github.com/bugout-dev/spire/pkg/server/middleware"
	"github.com/bugout-dev/spire/pkg/server/store"
	gormstore "github.com/bugout-dev/spire/pkg/server/store/gorm"
)

type Server struct {
	Router *mux.Router
	DB     *gorm.DB
	Logger *zap.Logger
	Config *config.SpireConfig

	JournalsStore store.JournalsStore
	EntriesStore  store.EntriesStore
	GrantsStore   store.GrantsStore
	HealthStore   store.HealthStore

	Resolver *acl.Resolver
	Gateway  *search.Gateway
	Indexes  *index.Manager

	Auditor        *audit.Logger
	AuthMiddleware *middleware.TokenAuthenticator

	srv *http.Server
}

func NewServer(
	db *gorm.DB,
	cfg *config.SpireConfig,
	logger *zap.Logger,
) *Server {
	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    cfg.ListenAddr(),
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	journals := gormstore.NewJournalsStore(db)
	entries := gormstore.NewEntriesStore(db)
	grants := gormstore.NewGrantsStore(db)
	health := gormstore.NewHealthStore(db)

	indexOpts := []index.Option{index.WithLogger(logger)}
	if cfg.SearchTagPrefixMatch {
		indexOpts = append(indexOpts, index.WithPrefixTags(true))
	}
	indexes := index.NewManager(cfg.SearchIndexRoot, indexOpts...)

	resolver := acl.NewResolver(journals, grants)
	gateway := search.NewGateway(resolver, journals, entries, indexes, logger, cfg.SearchResultLimitMax)

	return &Server{
		Router:         router,
		DB:             db,
		Logger:         logger,
		Config:         cfg,
		JournalsStore:  journals,
		EntriesStore:   entries,
		GrantsStore:    grants,
		HealthStore:    health,
		Resolver:       resolver,
		Gateway:        gateway,
		Indexes:        indexes,
		Auditor:        audit.NewLogger(),
		AuthMiddleware: middleware.NewTokenAuthenticator([]byte(cfg.TokenSigningKey)),
		srv:            srv,
	}
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Close releases the server's open search indices.
func (s *Server) Close() error {
	return s.Indexes.Close()
}
