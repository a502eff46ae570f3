package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/config"
	"github.com/ducnt198x/resbarpos/internal/database"
	httpapi "github.com/ducnt198x/resbarpos/internal/http"
	"github.com/ducnt198x/resbarpos/internal/logger"
	"github.com/ducnt198x/resbarpos/internal/repository"
	"github.com/ducnt198x/resbarpos/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "resbar-pos")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	var redisClient *redis.Client
	var feed repository.ChangeFeed
	if cfg.Redis.Addr != "" {
		redisClient = repository.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		feed = repository.NewRedisChangeFeed(redisClient, log)
	} else {
		log.Warn("Redis not configured, change notifications stay in-process")
		feed = repository.NewMemoryChangeFeed()
	}

	var store repository.Store
	var db *sql.DB
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err = database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to postgres", zap.Error(err))
		}
		store = repository.Store{
			Tables: repository.NewPostgresTablesRepository(db, feed, log),
			Orders: repository.NewPostgresOrdersRepository(db, feed, log),
			Menu:   repository.NewPostgresMenuRepository(db, feed, log),
			Users:  repository.NewPostgresUsersRepository(db),
			Feed:   feed,
		}
		log.Info("Using postgres backend", zap.String("host", cfg.Database.Host))
	case config.BackendSupabase:
		client := repository.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, log)
		store = repository.Store{
			Tables: repository.NewSupabaseTablesRepository(client, feed, log),
			Orders: repository.NewSupabaseOrdersRepository(client, feed, log),
			Menu:   repository.NewSupabaseMenuRepository(client, feed, log),
			Users:  repository.NewSupabaseUsersRepository(client),
			Feed:   feed,
		}
		log.Info("Using supabase backend", zap.String("url", cfg.Supabase.URL))
	default:
		// Dev fallback so the POS runs without any backing services.
		mem := repository.NewMemoryStore()
		store = mem.Store()
		log.Warn("Unknown backend, using in-memory store", zap.String("backend", cfg.Backend))
	}

	canvas := service.Bounds{Width: cfg.Floor.CanvasWidth, Height: cfg.Floor.CanvasHeight}
	mirror := service.NewMirror(store.Tables, store.Orders, log)
	floor := service.NewFloorPlanService(store, mirror, canvas, log)
	orders := service.NewOrderService(store, mirror, log)

	router := httpapi.NewRouter(log)
	router.RegisterFloorPlanRoutes(httpapi.NewFloorPlanHandler(floor, log))
	router.RegisterOrderRoutes(httpapi.NewOrderHandler(orders, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := floor.Run(ctx); err != nil {
			log.Error("Floor plan refresh loop stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
