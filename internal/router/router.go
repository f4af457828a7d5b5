package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vectortutor-backend/internal/handlers"
	"vectortutor-backend/internal/logger"
	"vectortutor-backend/internal/middleware"
)

func New(
	log *logger.Logger,
	limiter *middleware.RateLimiter,
	documentHandler *handlers.DocumentHandler,
	flashcardHandler *handlers.FlashcardHandler,
	quizHandler *handlers.QuizHandler,
	planHandler *handlers.PlanHandler,
	chatHandler *handlers.ChatHandler,
	dashboardHandler *handlers.DashboardHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		// ──── Document Routes ────
		r.Route("/documents", func(r chi.Router) {
			r.Post("/upload", documentHandler.Upload)
			r.Post("/pages", documentHandler.Pages)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
			r.Get("/{id}/progress", documentHandler.Progress)
		})

		// ──── Flashcard Routes ────
		r.Route("/flashcards", func(r chi.Router) {
			r.Post("/generate", flashcardHandler.Generate)
			r.Get("/", flashcardHandler.List)
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/generate", quizHandler.Generate)
			r.Get("/", quizHandler.List)
			r.Post("/{id}/submit", quizHandler.Submit)
		})

		// ──── Revision Plan Routes ────
		r.Route("/plans", func(r chi.Router) {
			r.Post("/", planHandler.Create)
			r.Get("/", planHandler.List)
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.Post("/ask", chatHandler.Ask)
			r.Get("/history", chatHandler.History)
			r.Post("/summarize", chatHandler.Summarize)
		})

		r.Get("/stats", quizHandler.Stats)
		r.Get("/dashboard", dashboardHandler.Stats)
	})

	return r
}
