package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/task_manager/internal/cache"
	"github.com/Skotchmaster/task_manager/internal/config"
	"github.com/Skotchmaster/task_manager/internal/db"
	"github.com/Skotchmaster/task_manager/internal/events"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/httpserver"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/metrics"
	authmw "github.com/Skotchmaster/task_manager/internal/middleware/auth"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/search"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err == nil {
		err = db.Migrate(ctx, gdb)
	}
	cancel()
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	var respCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		cancel()
		if err != nil {
			logger.Warn("redis_unavailable", "error", err)
		} else {
			respCache = rc
			defer rc.Close()
		}
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		pub = p
	}
	defer pub.Close()

	var searcher service.TaskSearcher
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword, nil)
		cancel()
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "error", err)
		} else {
			searcher = search.NewTaskIndex(es, cfg.ESIndex)
		}
	}

	codec, err := tokens.NewCodec(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	m := metrics.New()
	store := repo.New(gdb)
	authSvc := service.NewAuthService(store, codec, hash.New(cfg.BcryptCost), cfg.AccessTTL, cfg.RefreshTTL, pub)
	taskSvc := service.NewTaskService(store, respCache, searcher, pub, m)
	catSvc := service.NewCategoryService(store, respCache)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		ctx := logging.IntoContext(context.Background(), logger)
		if _, err := authSvc.Bootstrap(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("admin bootstrap: %v", err)
		}
	}

	authMW := authmw.New(authSvc, cfg)
	e := httpserver.New(cfg, &httpserver.Deps{
		Auth:       &httpserver.AuthHTTP{Svc: authSvc, Cookies: authMW.Cookies, Metrics: m},
		Tasks:      &httpserver.TaskHTTP{Svc: taskSvc},
		Categories: &httpserver.CategoryHTTP{Svc: catSvc},
		Admin:      &httpserver.AdminHTTP{Svc: authSvc},
		Health:     &httpserver.HealthHTTP{DB: store, Cache: respCache},
		AuthMW:     authMW,
		Metrics:    m,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("stopped")
}
