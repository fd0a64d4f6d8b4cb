package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/finlens/finlens-engine/pkg/config"
	"github.com/finlens/finlens-engine/pkg/database"
	"github.com/finlens/finlens-engine/pkg/handlers"
	"github.com/finlens/finlens-engine/pkg/llm"
	"github.com/finlens/finlens-engine/pkg/logging"
	"github.com/finlens/finlens-engine/pkg/mcp"
	"github.com/finlens/finlens-engine/pkg/mcp/tools"
	"github.com/finlens/finlens-engine/pkg/middleware"
	"github.com/finlens/finlens-engine/pkg/schema"
	"github.com/finlens/finlens-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		ConnString:     cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	oracle, err := llm.NewClient(&llm.Config{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	descriptor, err := schema.Load()
	if err != nil {
		logger.Fatal("Failed to load schema descriptor", zap.Error(err))
	}

	fetcher := database.NewPoolFetcher(db)
	executor := services.NewExecutor(fetcher, descriptor, &cfg.Engine, logger)
	fastPath := services.NewFastPath(executor, logger)
	planner := services.NewPlanner(oracle, descriptor, cfg, logger)
	responder := services.NewResponder(oracle, cfg, logger)
	engine := services.NewEngine(fastPath, planner, executor, responder, cfg, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	askHandler := handlers.NewAskHandler(engine, logger)
	askHandler.RegisterRoutes(mux)

	mcpServer := mcp.NewServer("finlens-engine", cfg.Version, logger)
	tools.RegisterAskTool(mcpServer.MCP(), engine)
	mux.Handle("/mcp", mcpServer.NewStreamableHTTPServer())

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting finlens-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
