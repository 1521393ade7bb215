package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agenticai/agentd/agents"
	"github.com/agenticai/agentd/api"
	"github.com/agenticai/agentd/config"
	"github.com/agenticai/agentd/deviceops"
	"github.com/agenticai/agentd/llm"
	"github.com/agenticai/agentd/ocr"
	"github.com/agenticai/agentd/policy"
	"github.com/agenticai/agentd/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	log.Logger = logger

	logger.Info().
		Int("http_port", cfg.HTTPPort).
		Str("database", cfg.DatabaseURL).
		Str("data_dir", cfg.DataDir).
		Str("ollama_url", cfg.OllamaBaseURL).
		Str("ocr_provider", cfg.OCRProvider).
		Msg("starting agentd")

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer db.Close()

	// Initialize LLM client (shared across all agents)
	llmClient := llm.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.LLMTimeout)

	// OCR engine is constructed lazily on first use; an unsupported
	// provider surfaces as an error on the first extraction.
	engines := ocr.NewLazyEngine(func() (ocr.Engine, error) {
		return ocr.NewEngine(cfg)
	})
	defer engines.Close()
	pipeline := ocr.NewPipeline(engines, db, cfg, logger.With().Str("component", "ocr").Logger())

	ctx := context.Background()

	// Initialize device operations service
	deviceOpsSvc, err := deviceops.New(ctx, db, logger.With().Str("component", "deviceops").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize device ops service")
	}

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize policy engine")
	}

	// Build the agent registry
	registry := agents.NewRegistry()
	if err := registry.Register("ocr", agents.NewOCRAgent(pipeline, llmClient, logger.With().Str("agent", "ocr").Logger())); err != nil {
		logger.Fatal().Err(err).Msg("failed to register OCR agent")
	}
	if err := registry.Register("device_ops", agents.NewDeviceOpsAgent(deviceOpsSvc, llmClient, logger.With().Str("agent", "device_ops").Logger())); err != nil {
		logger.Fatal().Err(err).Msg("failed to register device ops agent")
	}

	// Initialize handler
	h := api.NewHandler(registry, deviceOpsSvc, policyEngine, logger.With().Str("component", "api").Logger())

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))

	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Int("port", cfg.HTTPPort).Msg("agentd started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down agentd")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server gracefully")
	}

	logger.Info().Msg("agentd stopped")
}
