package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analytics-pipeline/ingestcore/internal/config"
	elemcache "analytics-pipeline/ingestcore/internal/elements/cache"
	elemhandler "analytics-pipeline/ingestcore/internal/elements/handler"
	elemrepo "analytics-pipeline/ingestcore/internal/elements/repository"
	healthhandler "analytics-pipeline/ingestcore/internal/health/handler"
	"analytics-pipeline/ingestcore/internal/hub"
	pluginhandler "analytics-pipeline/ingestcore/internal/plugin/handler"
	"analytics-pipeline/ingestcore/internal/plugin/registry"
	pluginrepo "analytics-pipeline/ingestcore/internal/plugin/repository"
	"analytics-pipeline/ingestcore/internal/server"
	"analytics-pipeline/ingestcore/internal/telemetry"
	"analytics-pipeline/ingestcore/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "ingestcore-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	h, err := hub.New(ctx, cfg)
	if err != nil {
		log.Fatalf("hub: %v", err)
	}
	defer h.Close()

	plugins := pluginrepo.NewPostgresRepository(h.DB)
	elements := elemrepo.NewPostgresRepository(h.DB)

	var fast elemcache.FastStore
	if h.Redis != nil {
		fast = elemcache.NewRedisStore(h.Redis, cfg.CacheTTL())
	}
	cache := elemcache.New(fast, elements)

	reg := registry.New(plugins)
	if err := reg.Load(ctx); err != nil {
		log.Fatalf("registry load: %v", err)
	}

	router := server.NewRouter(
		pluginhandler.New(plugins, reg),
		elemhandler.New(cache),
		healthhandler.New(h),
	)
	srv := server.New(cfg.HTTPAddr, router)

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async telemetry time to drain before the providers stop.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
