package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bundlegen/internal/auth"
	"bundlegen/internal/catalog"
	"bundlegen/internal/generator"
	"bundlegen/internal/progress"
	"bundlegen/internal/runs"
	"bundlegen/pkg/database"
	"bundlegen/pkg/utils"
)

const appName = "bundlegen"

func main() {
	cfg := utils.LoadConfig()
	if !cfg.Complete() {
		log.Fatal("missing configuration: BUNDLEGEN_CATALOG_URI, BUNDLEGEN_CATALOG_USERNAME and BUNDLEGEN_CATALOG_API_KEY are required")
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := progress.NewHub()
	router.GET("/ws", progress.WSHandler(hub))

	client := catalog.NewClient(cfg.CatalogURI, cfg.CatalogUsername, cfg.CatalogAPIKey)
	gen := generator.New(client)
	gen.Progress = func(event, resource string, fields map[string]any) {
		hub.Broadcast(progress.Event{Type: event, Resource: resource, Fields: fields})
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"app_name": appName})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": hub.Count(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": hub.Count(),
		})
	})

	// deployed bundles are downloadable as static files
	router.Static("/bundles", cfg.BundleDir)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Generation and run history (protected)
	protected := router.Group("/")
	protected.Use(auth.Middleware(tokenSvc, authRepo))

	runsRepo := runs.NewRepo(db)
	genHandler := generator.NewHandler(gen, runsRepo, hub, cfg.BundleDir, "/bundles")
	genHandler.RegisterRoutes(protected)

	runsHandler := runs.NewHandler(runsRepo)
	runsHandler.RegisterRoutes(protected)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
