package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/papernotes/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/papernotes/internal/api/middlewares"
	"github.com/markdave123-py/papernotes/internal/config"
	"github.com/markdave123-py/papernotes/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log logger.Logger, notes handlers.NoteTaker, qa handlers.QuestionAnswerer, papers handlers.PaperLister) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: NewRouter(cfg, notes, qa, papers),
		},
		log: log,
	}
}

// NewRouter returns the chi router serving the API and the browser UI.
func NewRouter(cfg *config.Config, notes handlers.NoteTaker, qa handlers.QuestionAnswerer, papers handlers.PaperLister) http.Handler {
	notesHandler := handlers.NewNotesHandler(notes)
	qaHandler := handlers.NewQAHandler(qa)
	paperHandler := handlers.NewPaperHandler(papers)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", handlers.Liveness)

	// Serve the browser UI from the web directory
	if cfg.WebDir != "" {
		fileServer := http.StripPrefix("/ui", http.FileServer(http.Dir(cfg.WebDir)))
		r.Get("/ui", http.RedirectHandler("/ui/", http.StatusMovedPermanently).ServeHTTP)
		r.Get("/ui/*", fileServer.ServeHTTP)
	}

	r.Group(func(api chi.Router) {
		if cfg.AuthEnabled() {
			api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))
		}
		api.Post("/take_notes", notesHandler.TakeNotes)
		api.Post("/qa", qaHandler.Ask)
		api.Get("/qa/history", qaHandler.History)
		api.Get("/papers", paperHandler.ListPapers)
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
