// Package main implements the entry point for the Forge gateway, the
// backend API of the Forge local development platform. The gateway
// manages dynamic nginx routes and Promtail log sources with live
// reload, aggregates platform health, and proxies cache, database and
// log ingestion operations to the backing services.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gnishant95/forge/cache"
	"github.com/gnishant95/forge/config"
	"github.com/gnishant95/forge/configstore"
	"github.com/gnishant95/forge/db"
	"github.com/gnishant95/forge/gateway"
	"github.com/gnishant95/forge/health"
	"github.com/gnishant95/forge/metric"
	"github.com/gnishant95/forge/observe"
	"github.com/gnishant95/forge/reload"
	"github.com/gnishant95/forge/system"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "forge"
)

var startTime = time.Now()

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	// A local .env is a convenience for development; absence is normal.
	_ = godotenv.Load()

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Port != 0 {
		cfg.Server.Port = cliCfg.Port
	}

	if cliCfg.Validate {
		slog.Info("configuration is valid")
		return nil
	}

	slog.Info("starting forge gateway",
		"version", Version,
		"port", cfg.Server.Port,
		"routes_path", cfg.Store.RoutesPath,
		"log_sources_path", cfg.Store.LogSourcesPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable stores.
	routesStore, err := configstore.NewStore[configstore.Route](cfg.Store.RoutesPath, "routes")
	if err != nil {
		return fmt.Errorf("open routes store: %w", err)
	}
	sourcesStore, err := configstore.NewStore[configstore.LogSource](cfg.Store.LogSourcesPath, "sources")
	if err != nil {
		return fmt.Errorf("open log sources store: %w", err)
	}

	// Reload coordination for the external processes.
	coordinator := reload.NewCoordinator(cfg.Nginx.ReloadTimeout)
	coordinator.Register(reload.KindRoutes, reload.Target{
		Render:       func() ([]byte, error) { return reload.RenderNginx(routesStore.List()), nil },
		ArtifactPath: cfg.Nginx.ConfPath,
		Reloader: &reload.ExecReloader{
			Command: "docker",
			Args:    []string{"exec", cfg.Nginx.ContainerName, "nginx", "-s", "reload"},
		},
	})
	coordinator.Register(reload.KindLogSources, reload.Target{
		Render:       func() ([]byte, error) { return reload.RenderPromtail(sourcesStore.List()) },
		ArtifactPath: cfg.Promtail.ConfPath,
		Reloader:     &reload.HTTPReloader{URL: cfg.Promtail.ReloadURL},
	})

	// Edits made to the store files outside the API re-trigger reload.
	if err := watchStore(ctx, routesStore, coordinator, reload.KindRoutes); err != nil {
		return fmt.Errorf("watch routes store: %w", err)
	}
	if err := watchStore(ctx, sourcesStore, coordinator, reload.KindLogSources); err != nil {
		return fmt.Errorf("watch log sources store: %w", err)
	}

	// Backend clients; the gateway degrades per-endpoint when one is down.
	connectCtx, cancelConnect := context.WithTimeout(ctx, 60*time.Second)
	defer cancelConnect()

	cacheClient, err := cache.Connect(connectCtx, cfg.Redis.Addr(), cfg.Redis.Password)
	if err != nil {
		slog.Warn("redis not available", "addr", cfg.Redis.Addr(), "error", err)
	}
	dbClient, err := db.Connect(connectCtx, cfg.MySQL.DSN())
	if err != nil {
		slog.Warn("mysql not available", "host", cfg.MySQL.Host, "error", err)
	}
	lokiClient := observe.NewLokiClient(cfg.Loki.URL, cfg.Loki.Job)
	inventory := system.NewInventory(cfg.Docker.SocketPath, cfg.Docker.ContainerPrefix)

	aggregator := health.NewAggregator(startTime, buildProbes(cacheClient, dbClient), health.DefaultProbeTimeout)

	registry := metric.NewRegistry()

	opts := gateway.Options{
		Version:     Version,
		Routes:      routesStore,
		Sources:     sourcesStore,
		Coordinator: coordinator,
		Health:      aggregator,
		Logs:        lokiClient,
		Inventory:   inventory,
		Backends: gateway.BackendInfo{
			ExternalHost:  cfg.Server.ExternalHost,
			RedisPort:     cfg.Redis.Port,
			MySQLPort:     cfg.MySQL.Port,
			MySQLUser:     cfg.MySQL.User,
			MySQLPassword: cfg.MySQL.Password,
		},
		Metrics: registry,
		Logger:  logger,
	}
	// Assign only connected clients so the gateway's nil checks hold.
	if cacheClient != nil {
		opts.Cache = cacheClient
		defer func() { _ = cacheClient.Close() }()
	}
	if dbClient != nil {
		opts.DB = dbClient
		defer func() { _ = dbClient.Close() }()
	}

	server := gateway.NewServer(opts)
	return server.ListenAndServe(ctx, cfg.Server.Port,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cliCfg.ShutdownTimeout)
}

func watchStore[T configstore.Record](ctx context.Context, store *configstore.Store[T], coordinator *reload.Coordinator, kind reload.Kind) error {
	return store.Watch(ctx, func() {
		outcome := coordinator.Reload(ctx, kind)
		if !outcome.ReloadOK {
			slog.Warn("reload after external edit failed", "kind", kind, "message", outcome.Message)
		}
	})
}

// buildProbes assembles the fixed health probe table. Required services
// gate the overall ok; the observability stack is reported but
// non-gating. Hostnames are the platform's internal container names.
func buildProbes(cacheClient *cache.Client, dbClient *db.Client) []health.ServiceProbe {
	var redisProbe, mysqlProbe health.Probe
	if cacheClient != nil {
		redisProbe = health.PingProbe(cacheClient)
	} else {
		redisProbe = health.PingProbe(nil)
	}
	if dbClient != nil {
		mysqlProbe = health.PingProbe(dbClient)
	} else {
		mysqlProbe = health.PingProbe(nil)
	}

	return []health.ServiceProbe{
		{Name: "mysql", Required: true, Probe: mysqlProbe},
		{Name: "redis", Required: true, Probe: redisProbe},
		{Name: "nginx", Required: true, Probe: health.HTTPProbe("http://nginx:80/")},
		{Name: "grafana", Required: false, Probe: health.HTTPProbe("http://grafana:3000/api/health")},
		{Name: "prometheus", Required: false, Probe: health.HTTPProbe("http://prometheus:9090/-/ready")},
		{Name: "loki", Required: false, Probe: health.HTTPProbe("http://loki:3100/ready")},
		{Name: "tempo", Required: false, Probe: health.HTTPProbe("http://tempo:3200/ready")},
	}
}
