package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/health"
	"github.com/gnishant95/forge/metric"
	"github.com/gnishant95/forge/reload"
	"github.com/gnishant95/forge/system"
)

// maxRequestBodySize caps mutating request bodies at 1 MiB.
const maxRequestBodySize = 1 << 20

// CacheBackend is the cache passthrough surface. A nil backend means the
// cache is not configured and its endpoints answer 503.
type CacheBackend interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
}

// DBBackend is the database passthrough surface.
type DBBackend interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, query, database string) ([]map[string]string, []string, error)
	Execute(ctx context.Context, query, database string) (int64, int64, error)
}

// LogPusher forwards ingested log entries to the log backend.
type LogPusher interface {
	Push(ctx context.Context, level, message string, labels map[string]string) error
}

// InventoryProvider reports the container inventory.
type InventoryProvider interface {
	Snapshot(ctx context.Context) (*system.Info, error)
}

// HealthSource produces aggregated health snapshots.
type HealthSource interface {
	Snapshot(ctx context.Context) health.Snapshot
}

// BackendInfo carries the connection coordinates the info endpoints hand
// to SDK clients running outside the container network.
type BackendInfo struct {
	ExternalHost  string
	RedisPort     int
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
}

// Options wires the gateway's collaborators. Routes, Sources, Coordinator
// and Health are required; passthrough backends may be nil when the
// corresponding service is absent.
type Options struct {
	Version string

	Routes      *configstore.Store[configstore.Route]
	Sources     *configstore.Store[configstore.LogSource]
	Coordinator *reload.Coordinator
	Health      HealthSource

	Cache     CacheBackend
	DB        DBBackend
	Logs      LogPusher
	Inventory InventoryProvider

	Backends BackendInfo

	Metrics *metric.Registry
	Logger  *slog.Logger

	// InfoTTL bounds how stale the cached /info composite may get.
	// Zero means the default of 10 seconds.
	InfoTTL time.Duration
}

// Server is the gateway HTTP layer. It owns no domain state of its own;
// every handler delegates to the stores, the reload coordinator, the
// health aggregator or a passthrough backend.
type Server struct {
	version string

	routes      *configstore.Store[configstore.Route]
	sources     *configstore.Store[configstore.LogSource]
	coordinator *reload.Coordinator
	health      HealthSource

	cache     CacheBackend
	db        DBBackend
	logs      LogPusher
	inventory InventoryProvider

	backends BackendInfo

	registry *metric.Registry
	log      *slog.Logger

	infoCache infoCache
}

// NewServer creates the gateway HTTP layer from its collaborators.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ttl := opts.InfoTTL
	if ttl == 0 {
		ttl = 10 * time.Second
	}
	return &Server{
		version:     opts.Version,
		routes:      opts.Routes,
		sources:     opts.Sources,
		coordinator: opts.Coordinator,
		health:      opts.Health,
		cache:       opts.Cache,
		db:          opts.DB,
		logs:        opts.Logs,
		inventory:   opts.Inventory,
		backends:    opts.Backends,
		registry:    opts.Metrics,
		log:         log,
		infoCache:   infoCache{ttl: ttl},
	}
}

// Handler builds the full HTTP handler: all routes under /api/v1, the
// Prometheus exposition endpoint, and the middleware/CORS stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/routes", s.listRoutes)
	mux.HandleFunc("POST /api/v1/routes", s.upsertRoute)
	mux.HandleFunc("POST /api/v1/routes/reload", s.reloadRoutes)
	mux.HandleFunc("GET /api/v1/routes/{name}", s.getRoute)
	mux.HandleFunc("DELETE /api/v1/routes/{name}", s.deleteRoute)

	mux.HandleFunc("GET /api/v1/logs/sources", s.listSources)
	mux.HandleFunc("POST /api/v1/logs/sources", s.upsertSource)
	mux.HandleFunc("POST /api/v1/logs/sources/reload", s.reloadSources)
	mux.HandleFunc("GET /api/v1/logs/sources/{name}", s.getSource)
	mux.HandleFunc("DELETE /api/v1/logs/sources/{name}", s.deleteSource)

	mux.HandleFunc("GET /api/v1/health", s.getHealth)
	mux.HandleFunc("GET /api/v1/info", s.getInfo)
	mux.HandleFunc("GET /api/v1/system", s.getSystem)

	mux.HandleFunc("GET /api/v1/cache/info", s.cacheInfo)
	mux.HandleFunc("GET /api/v1/cache/{key}", s.cacheGet)
	mux.HandleFunc("POST /api/v1/cache/{key}", s.cacheSet)
	mux.HandleFunc("PUT /api/v1/cache/{key}", s.cacheSet)
	mux.HandleFunc("DELETE /api/v1/cache/{key}", s.cacheDelete)

	mux.HandleFunc("POST /api/v1/db/query", s.dbQuery)
	mux.HandleFunc("POST /api/v1/db/execute", s.dbExecute)
	mux.HandleFunc("GET /api/v1/db/info", s.dbInfo)

	mux.HandleFunc("POST /api/v1/logs", s.ingestLog)
	mux.HandleFunc("POST /api/v1/metrics", s.ingestMetric)
	mux.HandleFunc("POST /api/v1/traces", s.ingestTrace)

	if s.registry != nil {
		mux.Handle("GET /metrics", s.registry.Handler())
	}

	var handler http.Handler = mux
	handler = s.instrument(handler)
	handler = requestID(handler)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(handler)
}

// ListenAndServe runs the gateway until ctx is cancelled, then drains
// connections within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, port int, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("gateway listening", "port", port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
