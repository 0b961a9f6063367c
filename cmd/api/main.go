package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"fpattend/internal/attendance"
	"fpattend/internal/auth"
	"fpattend/internal/clock"
	"fpattend/internal/config"
	"fpattend/internal/devices"
	"fpattend/internal/enrollment"
	"fpattend/internal/handler"
	"fpattend/internal/ledger"
	"fpattend/internal/logging"
	"fpattend/internal/metrics"
	"fpattend/internal/mode"
	"fpattend/internal/queue"
	"fpattend/internal/scanfeed"
	"fpattend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(logging.Options{JSON: cfg.LogJSON, Level: cfg.LogLevel, Service: "api"})

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.App, log *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clk := clock.NewSystem(loc)

	var (
		db          *store.DB
		ledgerStore ledger.Store
		registry    devices.Registry
	)
	switch cfg.StoreBackend {
	case config.BackendPostgres, config.BackendSQLite:
		if cfg.StoreBackend == config.BackendSQLite {
			db, err = store.NewSQLite(ctx, cfg.SQLitePath)
		} else {
			db, err = store.NewDB(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return fmt.Errorf("connect %s: %w", cfg.StoreBackend, err)
		}
		defer db.Close()
		ledgerStore = ledger.NewSQLStore(db.Client, db.Dialect)
		registry = devices.NewRepository(db.Client, db.Dialect)
	default:
		log.Warn("using in-memory ledger; data is lost on restart")
		ledgerStore = ledger.NewMemoryStore()
		registry = devices.NewMemory()
	}

	var (
		redisClient *store.Redis
		pinger      handler.Pinger
	)
	if cfg.UsesRedis() {
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		if !redisClient.Healthy(ctx) {
			log.Warn("redis not reachable at startup", "addr", cfg.RedisAddr)
		}
		pinger = redisClient
	}

	var modeStore mode.Store
	switch cfg.ModeStore() {
	case config.BackendSQL:
		modeStore = mode.NewSQLStore(db.Client, db.Dialect)
	case config.BackendRedis:
		modeStore = mode.NewRedisStore(redisClient.Client, "")
	default:
		log.Warn("using in-memory mode; it resets to attendance on restart")
		modeStore = mode.NewMemoryStore()
	}

	var (
		feed scanfeed.Feed
		q    queue.Queue
	)
	if cfg.QueueBackend == config.BackendRedis {
		feed = scanfeed.NewRedisFeed(redisClient.Client, "")
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	} else {
		feed = scanfeed.NewMemoryFeed()
		q = queue.NewInMemory(64)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gate := mode.NewGate(modeStore, clk)
	h := handler.New(handler.Deps{
		Log:        log,
		Clock:      clk,
		Mode:       gate,
		Enrollment: enrollment.NewService(gate, ledgerStore, clk),
		Attendance: attendance.NewService(gate, ledgerStore, clk, cfg.Cooldown()),
		Ledger:     ledgerStore,
		Feed:       feed,
		Queue:      q,
		Devices:    registry,
		Issuer:     auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL),
		Metrics:    m,
		Redis:      pinger,
		DeviceAuth: cfg.DeviceAuth,

		RegistrationSecret: cfg.RegistrationKey,
	})
	r := handler.NewRouter(h, handler.RouterOptions{
		RateLimitPerMin: cfg.RateLimitPerMin,
		Gatherer:        reg,
		AccessLog:       true,
		Production:      cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", srv.Addr, "store", cfg.StoreBackend, "queue", cfg.QueueBackend, "mode", cfg.ModeStore())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		// Give outstanding requests 10 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.QueueBackend != config.BackendRedis {
		// no separate worker can see an in-process queue
		g.Go(func() error {
			msgs, err := q.Consume(gctx)
			if err != nil {
				return err
			}
			return scanfeed.NewConsumer(feed, log, m).Run(gctx, msgs)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited")
	return nil
}
