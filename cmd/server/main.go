package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"daritana-compliance/clauses"
	"daritana-compliance/config"
	"daritana-compliance/handlers"
	"daritana-compliance/metrics"
	"daritana-compliance/narrative"
	"daritana-compliance/repository"
	"daritana-compliance/service"
	"daritana-compliance/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	// Try current directory first, then project root
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if !foundEnv {
		logger.Warn("No .env file found, using environment variables")
	}

	// Clause table must load before anything is served
	clauseRepo, err := loadClauses(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load clause table", zap.Error(err))
	}
	logger.Info("Clause table loaded", zap.Int("clauses", clauseRepo.Len()))

	// Initialize repositories
	checkRepo, reportRepo, closeRepos, err := initRepositories(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repositories", zap.Error(err))
	}
	defer closeRepos.Close()

	// Initialize storage
	reportStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logger.Info("Storage initialized", zap.String("type", string(cfg.Storage.Type)))

	opts := []service.ComplianceServiceOption{
		service.WithCheckRepository(checkRepo),
		service.WithReportRepository(reportRepo),
		service.WithClauseRepository(clauseRepo),
		service.WithStorage(reportStorage),
		service.WithSummaryTimeout(cfg.SummaryTimeout),
		service.WithLogger(logger),
	}

	// Initialize Gemini client
	if cfg.SummariesEnabled() {
		client, err := narrative.NewClient(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini", zap.Error(err))
		}
		summarizer := narrative.NewGeminiSummarizer(client, cfg.GeminiModel, logger)
		defer summarizer.Close()
		opts = append(opts, service.WithSummarizer(summarizer))
		logger.Info("Gemini client initialized", zap.String("model", cfg.GeminiModel))
	} else {
		logger.Warn("GEMINI_API_KEY not set, report summaries disabled")
	}

	// Initialize services
	complianceService := service.NewComplianceService(opts...)

	// Initialize handlers
	complianceHandler := handlers.NewComplianceHandler(complianceService)
	clauseHandler := handlers.NewClauseHandler(clauseRepo)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"clauses": clauseRepo.Len(),
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API routes
	api := r.Group("/api")
	complianceHandler.Register(api)
	clauseHandler.Register(api)

	// Start server
	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func loadClauses(cfg *config.Config, logger *zap.Logger) (*clauses.Repository, error) {
	if cfg.ClauseFile == "" {
		return clauses.NewDefaultRepository(logger)
	}

	table, err := clauses.LoadFile(cfg.ClauseFile)
	if err != nil {
		return nil, err
	}
	return clauses.NewRepository(table, logger), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func initRepositories(cfg *config.Config, logger *zap.Logger) (repository.CheckRepository, repository.ReportRepository, io.Closer, error) {
	switch cfg.RepositoryType {
	case config.RepositoryPostgres:
		pool, err := initPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Postgres connection established")
		return repository.NewPostgresCheckRepository(pool),
			repository.NewPostgresReportRepository(pool),
			closerFunc(func() error { pool.Close(); return nil }),
			nil

	case config.RepositorySQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("SQLite database opened", zap.String("path", cfg.SQLitePath))
		return store.Checks(), store.Reports(), store, nil

	default:
		logger.Warn("Using in-memory repositories, checks are lost on restart")
		return repository.NewMemoryCheckRepository(),
			repository.NewMemoryReportRepository(),
			closerFunc(func() error { return nil }),
			nil
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
