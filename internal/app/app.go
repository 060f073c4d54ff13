package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/config"
	"github.com/verdantlabs/leafsight/internal/detector"
	"github.com/verdantlabs/leafsight/internal/httpserver"
	"github.com/verdantlabs/leafsight/internal/httpserver/deps"
	"github.com/verdantlabs/leafsight/internal/httpserver/mw"
	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/otp"
	"github.com/verdantlabs/leafsight/internal/redis"
	"github.com/verdantlabs/leafsight/internal/scheduler"
	redisstore "github.com/verdantlabs/leafsight/internal/store/redis"
	"github.com/verdantlabs/leafsight/internal/version"
	"github.com/verdantlabs/leafsight/internal/ws"
)

type App struct {
	cfg             *config.Config
	logger          logger.Logger
	server          *httpserver.Server
	redisClient     *goredis.Client
	hub             *ws.Hub
	catalogReloader *scheduler.CatalogReloader
	recordGC        *scheduler.RecordGC
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Redis is an optional mirror: missing address disables it, the
	// in-memory stores stay the source of truth either way.
	var redisClient *goredis.Client
	var mirror *redisstore.Store
	if cfg.RedisAddr != "" {
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		redisClient = client
		mirror = redisstore.NewStore(client)
	} else {
		loggerClient.Info("redis not configured, running memory-only")
	}

	// Disease catalog: built-in defaults, optionally replaced by a file.
	cat := catalog.New(catalog.Defaults())

	var catalogReloader *scheduler.CatalogReloader
	var catalogReloadTrigger chan struct{}
	if cfg.CatalogFile != "" {
		loggerClient.Info("catalog file configured, initializing reloader",
			logger.String("file", cfg.CatalogFile))
		catalogReloadTrigger = make(chan struct{}, 1)
		catalogReloader = scheduler.NewCatalogReloader(
			cfg.CatalogFile,
			cat,
			loggerClient,
			cfg.CatalogReloadInterval,
			catalogReloadTrigger,
		)
	}

	// Analysis store, restored from the mirror when one exists.
	store := analysis.NewStore()
	if mirror != nil {
		syncer := scheduler.NewRecordSyncer(mirror, store, loggerClient)
		if err := syncer.Sync(context.Background()); err != nil {
			loggerClient.Warn("failed to restore records from redis",
				logger.Error(err))
		}
	}

	hub := ws.NewHub(loggerClient)

	provider := detector.NewMock(cat, cfg.DetectMinLatency, cfg.DetectMaxLatency)

	orchestrator := analysis.New(provider, hub, store, cat, mirror, loggerClient, analysis.Config{
		TickInterval: cfg.TickInterval,
		ProgressStep: cfg.ProgressStep,
	})

	otpService := otp.New(otp.LogSender{Logger: loggerClient}, hub, mirror, loggerClient, cfg.OTPTTL)

	recordGC := scheduler.NewRecordGC(store, mirror, loggerClient, cfg.GCInterval, cfg.RecordRetention)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:               loggerClient,
		StartTime:            time.Now(),
		Version:              version.Version,
		Commit:               version.Commit,
		BuildDate:            version.BuildDate,
		GoVersion:            version.GoVersion,
		TimeNow:              time.Now,
		Hub:                  hub,
		Orchestrator:         orchestrator,
		Catalog:              cat,
		OTP:                  otpService,
		CORSOrigins:          cfg.CORSOrigins,
		CatalogReloadTrigger: catalogReloadTrigger,
		OTPRateLimit: mw.RateLimitConfig{
			Burst:        cfg.OTPRateBurst,
			RefillPerMin: cfg.OTPRateRefillMin,
			MaxEntries:   cfg.OTPRateMaxEntries,
		},
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:             cfg,
		logger:          loggerClient,
		server:          server,
		redisClient:     redisClient,
		hub:             hub,
		catalogReloader: catalogReloader,
		recordGC:        recordGC,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Leafsight v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Leafsight %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start catalog reloader (if a catalog file is configured)
	if a.catalogReloader != nil {
		if err := a.catalogReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start catalog reloader: %w", err)
		}
		a.logger.Info("catalog reloader started",
			logger.Duration("interval", a.cfg.CatalogReloadInterval))
	}

	// Start record garbage collector
	if err := a.recordGC.Start(ctx); err != nil {
		return fmt.Errorf("failed to start record gc: %w", err)
	}
	a.logger.Info("record gc started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.catalogReloader != nil {
		a.catalogReloader.Stop()
	}
	a.recordGC.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Leafsight stopped cleanly")
	return nil
}
