package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/linkgenetic/linkid-resolver/internal/config"
	"github.com/linkgenetic/linkid-resolver/internal/infra/database"
	"github.com/linkgenetic/linkid-resolver/internal/infra/repository"
	"github.com/linkgenetic/linkid-resolver/internal/present/rest"
	"github.com/linkgenetic/linkid-resolver/internal/present/rest/middleware"
	"github.com/linkgenetic/linkid-resolver/internal/service"
	"github.com/linkgenetic/linkid-resolver/internal/usecase"
)

func main() {
	configPath := os.Getenv("LINKID_CONFIG")
	if configPath == "" {
		configPath = "/etc/linkid/config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTracer(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)

	var cache usecase.ResolutionCache
	switch conf.Server.CacheBackend {
	case "memcached":
		cache = repository.NewMemcachedResolutionCache(database.NewMemcached(conf.Server.MemcachedAddr))
	default:
		cache = repository.NewRedisResolutionCache(rdb)
	}

	recordRepo := repository.NewRecordRepository(db)
	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(conf.Auth)

	resolver := usecase.NewResolverUsecase(recordRepo, cache, usecase.ResolverOptions{
		MetadataCacheTTL: conf.Resolver.MetadataCacheTTL,
	})
	registry := usecase.NewRegistryUsecase(recordRepo, cache, signal, usecase.RegistryOptions{
		BaseURL:          conf.Resolver.BaseURL,
		DefaultCacheTTL:  conf.Resolver.DefaultCacheTTL,
		DefaultMediaType: conf.Resolver.DefaultMediaType,
		DefaultLanguage:  conf.Resolver.DefaultLanguage,
		DefaultQuality:   conf.Resolver.DefaultQuality,
	})

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("linkid-resolver"))
	}
	e.Use(middleware.NewAuthMiddleware(auth).IdentifyIssuer)

	handler := rest.NewHandler(conf.Resolver, resolver, registry, signal)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTracer(endpoint string) (func(), error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}, nil
}
