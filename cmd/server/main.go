package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"vectortutor-backend/internal/agents"
	"vectortutor-backend/internal/config"
	"vectortutor-backend/internal/database"
	"vectortutor-backend/internal/handlers"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/middleware"
	"vectortutor-backend/internal/repository"
	"vectortutor-backend/internal/router"
	"vectortutor-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "✗ Configuration failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Logger initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("🚀 Starting VectorTutor Backend...")
	log.Info("✓ Configuration loaded", "env", cfg.Env, "llm_provider", cfg.LLMProvider)

	// ──── Step 2: Open the Knowledge Store ────
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("✗ Store connection failed", "driver", cfg.DatabaseDriver, "error", err)
	}
	defer db.Close()
	log.Info("✓ Store opened", "driver", cfg.DatabaseDriver)

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(db, log); err != nil {
		log.Fatal("✗ Database migration failed", "error", err)
	}
	log.Info("✓ Database migrations applied")

	store := repository.NewStore(db)

	// ──── Step 4: Initialize the LLM Gateway ────
	provider, closeProvider, err := newProvider(cfg)
	if err != nil {
		log.Fatal("✗ LLM provider initialization failed", "provider", cfg.LLMProvider, "error", err)
	}
	defer closeProvider()
	gateway := services.NewGateway(provider, cfg.LLMConcurrentReqs, log)
	log.Info("✓ LLM gateway initialized", "provider", provider.Name(), "model", provider.Model())

	// ──── Step 5: Initialize Agents ────
	if err := os.MkdirAll(cfg.StoragePath, 0o755); err != nil {
		log.Fatal("✗ Storage directory unavailable", "path", cfg.StoragePath, "error", err)
	}
	extractor := services.NewFileExtractService()

	reader := agents.NewReader(store, gateway, extractor, log)
	flashcards := agents.NewFlashcard(store, gateway, log)
	quizzes := agents.NewQuiz(store, gateway, log)
	planner := agents.NewPlanner(store, gateway, log, nil)
	chat := agents.NewChat(store, gateway, log)

	// ──── Step 6: Initialize Handlers ────
	documentHandler := handlers.NewDocumentHandler(reader, extractor, store, cfg.StoragePath, cfg.MaxUploadMB, log)
	flashcardHandler := handlers.NewFlashcardHandler(flashcards, log)
	quizHandler := handlers.NewQuizHandler(quizzes, log)
	planHandler := handlers.NewPlanHandler(planner, log)
	chatHandler := handlers.NewChatHandler(chat, log)
	dashboardHandler := handlers.NewDashboardHandler(store, log)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		log,
		limiter,
		documentHandler,
		flashcardHandler,
		quizHandler,
		planHandler,
		chatHandler,
		dashboardHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Uploads and generation run several provider calls per request.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Shutdown did not complete", "error", err)
		}
	}()

	log.Info(fmt.Sprintf("✓ VectorTutor Backend ready on http://localhost:%s", cfg.Port))
	log.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("Server error", "error", err)
	}
	<-done
}

// newProvider builds the generation backend selected by cfg. The returned
// func releases any client resources.
func newProvider(cfg *config.Config) (services.TextGenerator, func(), error) {
	noop := func() {}

	switch cfg.LLMProvider {
	case "gemini":
		p, err := services.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, noop, err
		}
		return p, p.Close, nil
	case "anthropic":
		return services.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.LLMModel, ""), noop, nil
	case "groq":
		return services.NewGroqProvider(cfg.GroqAPIKey, cfg.LLMModel, ""), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
