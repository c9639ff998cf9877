package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/poiquest/poiquest-backend/api/routes"
	"github.com/poiquest/poiquest-backend/internal/analytics"
	"github.com/poiquest/poiquest-backend/internal/auth"
	"github.com/poiquest/poiquest-backend/internal/categories"
	"github.com/poiquest/poiquest-backend/internal/events"
	"github.com/poiquest/poiquest-backend/internal/media"
	"github.com/poiquest/poiquest-backend/internal/pois"
	"github.com/poiquest/poiquest-backend/internal/profiles"
	"github.com/poiquest/poiquest-backend/internal/users"
	"github.com/poiquest/poiquest-backend/pkg/config"
	"github.com/poiquest/poiquest-backend/pkg/db"
	"github.com/poiquest/poiquest-backend/pkg/logger"
	"github.com/poiquest/poiquest-backend/pkg/migrate"
	"github.com/poiquest/poiquest-backend/pkg/redis"
	"github.com/poiquest/poiquest-backend/pkg/storage/minio"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	storageClient, err := minio.NewClient(context.Background(), cfg.Storage, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}
	if err := storageClient.EnsureBuckets(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to ensure storage buckets", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		Blacklist:      auth.NewBlacklistRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	categoryService, err := categories.NewService(categories.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(media.ServiceParams{
		Store:         storageClient,
		StorageConfig: cfg.Storage,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	imageRepo := media.NewImageRepository(dbClient.DB())
	reconciler, err := media.NewReconciler(imageRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create image reconciler", err)
		os.Exit(1)
	}

	eventService, err := events.NewService(events.ServiceParams{
		DB:         dbClient,
		Categories: categories.NewRepository(dbClient.DB()),
		Images:     imageRepo,
		Reconciler: reconciler,
		Decorator:  mediaService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create event service", err)
		os.Exit(1)
	}

	poiService, err := pois.NewService(pois.ServiceParams{
		DB:         dbClient,
		Images:     imageRepo,
		Reconciler: reconciler,
		Decorator:  mediaService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create poi service", err)
		os.Exit(1)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient))
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, storageClient, routes.Services{
			Auth:       authService,
			Register:   registerService,
			Profiles:   profileService,
			Categories: categoryService,
			Events:     eventService,
			POIs:       poiService,
			Media:      mediaService,
			Analytics:  analyticsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
