package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rxops/internal/auth"
	"rxops/internal/blob"
	blobMemory "rxops/internal/blob/memory"
	blobS3 "rxops/internal/blob/s3"
	"rxops/internal/cache"
	"rxops/internal/config"
	"rxops/internal/handler"
	"rxops/internal/middleware"
	"rxops/internal/repository/postgres"
	postgresSop "rxops/internal/repository/postgres/sop"
	serviceSop "rxops/internal/service/sop"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// JWT verifier for member authentication
	tokenVerifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer tokenVerifier.Close()

	// Connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Run embedded migrations only when this binary owns the schema. A table
	// prefix means the tables are managed externally.
	if cfg.TablePrefix == "" {
		if err := postgres.Migrate(cfg.DatabaseURL, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgresSop.NewDocumentRepository(repoConfig)
	nodeRepo := postgresSop.NewNodeRepository(repoConfig)
	completionRepo := postgresSop.NewCompletionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Tree cache is optional; without Redis every tree read rebuilds from the
	// node collection.
	var treeCache *cache.TreeCache
	var invalidator serviceSop.TreeInvalidator
	if cfg.RedisURL != "" {
		treeCache, err = cache.NewTreeCache(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer treeCache.Close()
		invalidator = treeCache
		logger.Info("tree cache enabled")
	}

	// Blob store for external document uploads
	var blobStore blob.Store
	if cfg.BlobBucket != "" {
		blobStore, err = blobS3.New(ctx, blobS3.Config{
			Region:   cfg.BlobRegion,
			Bucket:   cfg.BlobBucket,
			Endpoint: cfg.BlobEndpoint,
		})
		if err != nil {
			log.Fatalf("Failed to create blob store: %v", err)
		}
		logger.Info("blob store enabled", "bucket", cfg.BlobBucket)
	} else {
		blobStore = blobMemory.New()
		logger.Warn("BLOB_BUCKET not set, attachments are held in memory only")
	}

	// Services
	documentService := serviceSop.NewDocumentService(docRepo, invalidator, logger)
	nodeService := serviceSop.NewNodeService(nodeRepo, docRepo, txManager, invalidator, logger)
	treeService := serviceSop.NewTreeService(docRepo, nodeRepo, treeCache, logger)
	contentService := serviceSop.NewContentService(nodeRepo, docRepo, blobStore, cfg.AutosaveDelay, invalidator, logger)
	completionService := serviceSop.NewCompletionService(completionRepo, docRepo, logger)

	// Handlers
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	nodeHandler := handler.NewNodeHandler(nodeService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)
	completionHandler := handler.NewCompletionHandler(completionService, logger)

	var healthCache handler.Pinger
	if treeCache != nil {
		healthCache = treeCache
	}
	healthHandler := handler.NewHealthHandler(pool, healthCache)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Document routes
	mux.HandleFunc("POST /api/documents", documentHandler.CreateDocument)
	mux.HandleFunc("GET /api/documents", documentHandler.ListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", documentHandler.GetDocument)
	mux.HandleFunc("PATCH /api/documents/{id}", documentHandler.UpdateDocument)
	mux.HandleFunc("POST /api/documents/{id}/publish", documentHandler.Publish)
	mux.HandleFunc("POST /api/documents/{id}/archive", documentHandler.Archive)

	// Tree and node collection routes
	mux.HandleFunc("GET /api/documents/{id}/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/documents/{id}/nodes", nodeHandler.ListNodes)
	mux.HandleFunc("POST /api/documents/{id}/nodes", nodeHandler.CreateNode)

	// Node routes
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.RenameNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)
	mux.HandleFunc("POST /api/nodes/{id}/move", nodeHandler.MoveNode)
	mux.HandleFunc("POST /api/nodes/{id}/reparent", nodeHandler.ReparentNode)

	// Content routes
	mux.HandleFunc("PUT /api/nodes/{id}/content", contentHandler.SetRichContent)
	mux.HandleFunc("POST /api/nodes/{id}/content/flush", contentHandler.FlushContent)
	mux.HandleFunc("POST /api/nodes/{id}/content/discard", contentHandler.DiscardContent)
	mux.HandleFunc("POST /api/nodes/{id}/content-type", contentHandler.SwitchContentType)
	mux.HandleFunc("POST /api/nodes/{id}/attachment", contentHandler.UploadAttachment)
	mux.HandleFunc("GET /api/nodes/{id}/attachment-url", contentHandler.GetAttachmentURL)

	// Completion ledger routes
	mux.HandleFunc("PUT /api/documents/{id}/completions", completionHandler.MarkComplete)
	mux.HandleFunc("GET /api/documents/{id}/completions", completionHandler.ListForDocument)
	mux.HandleFunc("GET /api/members/me/completions", completionHandler.ListMine)

	// Build middleware chain for the API routes
	var apiHandler http.Handler = mux
	apiHandler = middleware.Auth(tokenVerifier, logger)(apiHandler)
	apiHandler = middleware.Metrics()(apiHandler)
	apiHandler = middleware.Recovery(logger)(apiHandler)

	// Health and metrics bypass auth
	root := http.NewServeMux()
	root.HandleFunc("GET /health", healthHandler.HealthCheck)
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/", apiHandler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler.Handler(root),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Shut down on SIGINT/SIGTERM; pending autosaves are flushed before exit
	// so no staged edit is lost.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	contentService.Shutdown(shutdownCtx)

	logger.Info("server stopped")
}
