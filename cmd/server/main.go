package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mkoziy/mgnrega/dashboard/internal/config"
	"github.com/mkoziy/mgnrega/dashboard/internal/database"
	"github.com/mkoziy/mgnrega/dashboard/internal/migrations"
	"github.com/mkoziy/mgnrega/dashboard/internal/performance"
	"github.com/mkoziy/mgnrega/dashboard/internal/ratelimit"
	"github.com/mkoziy/mgnrega/dashboard/internal/repositories"
	"github.com/mkoziy/mgnrega/dashboard/internal/sample"
	"github.com/mkoziy/mgnrega/dashboard/internal/server"
	"github.com/mkoziy/mgnrega/dashboard/internal/sources/datagov"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := database.NewDB(cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := migrations.RunMigrations(ctx, db, logger); err != nil {
		return err
	}

	upstream, err := newUpstream(cfg.Upstream)
	if err != nil {
		return err
	}
	logger.Info("upstream configured",
		zap.String("mode", string(cfg.Upstream.Mode)),
		zap.String("url", upstream.URL()))

	samples := []sample.Option{sample.WithFinancialYear(cfg.Sample.FinancialYear)}
	if cfg.Sample.Seed != 0 {
		samples = append(samples, sample.WithSeed(cfg.Sample.Seed))
	}

	svc := performance.NewService(performance.Config{
		UpstreamTimeout: cfg.Upstream.Timeout,
	}, performance.Deps{
		Districts: repositories.NewCachedDistricts(repositories.NewDistrictRepo(db), cfg.Cache.DistrictTTL),
		Store:     repositories.NewPerformanceRepo(db),
		Health:    repositories.NewHealthLogRepo(db),
		Upstream:  upstream,
		Samples:   sample.NewGenerator(samples...),
	}, logger.Named("performance"))

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.ReadTimeout = cfg.Server.ReadTimeout
	srvCfg.WriteTimeout = cfg.Server.WriteTimeout
	srvCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout

	ping := func(ctx context.Context) error { return database.Ping(ctx, db) }
	srv := server.New(srvCfg, svc, ping, logger.Named("http"))

	// Start blocks until ctx is cancelled.
	return srv.Start(ctx)
}

func newUpstream(cfg config.UpstreamConfig) (datagov.Source, error) {
	switch cfg.Mode {
	case datagov.ModeStub:
		return datagov.StubAdapter{}, nil
	case datagov.ModeLive:
		limiter := ratelimit.New(cfg.RateLimit)
		return datagov.NewLiveAdapter(limiter, cfg.BaseURL, cfg.ResourceID, cfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown upstream mode %q", cfg.Mode)
	}
}
